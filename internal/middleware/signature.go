// Package middleware provides HTTP middleware for the heartline API.
package middleware

import (
	"log/slog"
	"net/http"

	"github.com/heartlinehq/heartline/internal/sms"
)

// ValidateSignature returns middleware that rejects webhook requests whose
// provider signature does not match the request body. baseURL is the public
// URL the provider signed against, without the path. An empty authToken
// disables validation.
func ValidateSignature(authToken, baseURL string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if authToken == "" {
				next.ServeHTTP(w, r)
				return
			}

			if err := r.ParseForm(); err != nil {
				http.Error(w, "bad request", http.StatusBadRequest)
				return
			}

			requestURL := baseURL + r.URL.RequestURI()
			header := r.Header.Get(sms.SignatureHeader)
			if !sms.ValidateSignature(authToken, requestURL, r.PostForm, header) {
				slog.Warn("rejected webhook with invalid signature",
					"remote_addr", r.RemoteAddr,
					"path", r.URL.Path)
				http.Error(w, "invalid signature", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
