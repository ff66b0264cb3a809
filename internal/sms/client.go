// Package sms sends outbound messages through a Twilio-compatible REST API
// and validates inbound webhook signatures.
package sms

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Client posts messages to a Twilio-compatible Messages endpoint.
type Client struct {
	accountSID string
	authToken  string
	fromNumber string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates an SMS client. baseURL is the provider API root, e.g.
// https://api.twilio.com.
func NewClient(accountSID, authToken, fromNumber, baseURL string) *Client {
	return &Client{
		accountSID: accountSID,
		authToken:  authToken,
		fromNumber: fromNumber,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type messageResponse struct {
	Sid    string `json:"sid"`
	Status string `json:"status"`
}

type apiError struct {
	Code     int    `json:"code"`
	Message  string `json:"message"`
	MoreInfo string `json:"more_info"`
	Status   int    `json:"status"`
}

// Send delivers body to the destination number and returns the provider
// message sid. Each attempt carries a fresh Idempotency-Key.
func (c *Client) Send(ctx context.Context, to, body string) (string, error) {
	form := url.Values{}
	form.Set("To", to)
	form.Set("From", c.fromNumber)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", c.baseURL, c.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Idempotency-Key", uuid.New().String())
	req.SetBasicAuth(c.accountSID, c.authToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var provider apiError
		data, _ := io.ReadAll(resp.Body)
		if err := json.Unmarshal(data, &provider); err == nil && provider.Message != "" {
			return "", fmt.Errorf("provider rejected message (status %d, code %d): %s",
				resp.StatusCode, provider.Code, provider.Message)
		}
		return "", fmt.Errorf("provider returned status %d: %s", resp.StatusCode, string(data))
	}

	var msg messageResponse
	if err := json.NewDecoder(resp.Body).Decode(&msg); err != nil {
		return "", fmt.Errorf("parse provider response: %w", err)
	}
	if msg.Sid == "" {
		return "", fmt.Errorf("provider response missing message sid")
	}
	return msg.Sid, nil
}
