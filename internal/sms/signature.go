package sms

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"net/url"
	"sort"
	"strings"
)

// SignatureHeader carries the provider's webhook signature.
const SignatureHeader = "X-Twilio-Signature"

// ComputeSignature implements the provider's webhook signing scheme: the
// full request URL concatenated with every POST parameter in sorted key
// order (key then value), HMAC-SHA1 under the auth token, base64 encoded.
func ComputeSignature(authToken, requestURL string, params url.Values) string {
	var buf strings.Builder
	buf.WriteString(requestURL)

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, v := range params[k] {
			buf.WriteString(k)
			buf.WriteString(v)
		}
	}

	mac := hmac.New(sha1.New, []byte(authToken))
	mac.Write([]byte(buf.String()))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// ValidateSignature reports whether signature matches the expected value
// for the request. Comparison is constant-time.
func ValidateSignature(authToken, requestURL string, params url.Values, signature string) bool {
	expected := ComputeSignature(authToken, requestURL, params)
	return hmac.Equal([]byte(expected), []byte(signature))
}
