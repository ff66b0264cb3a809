package sms

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSend(t *testing.T) {
	var idempotencyKeys []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST method, got %s", r.Method)
		}
		if r.URL.Path != "/2010-04-01/Accounts/AC123/Messages.json" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "AC123" || pass != "token" {
			t.Errorf("Bad basic auth: %s/%s", user, pass)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatal(err)
		}
		if r.PostForm.Get("To") != "+15550001111" {
			t.Errorf("To = %q", r.PostForm.Get("To"))
		}
		if r.PostForm.Get("From") != "+15559990000" {
			t.Errorf("From = %q", r.PostForm.Get("From"))
		}
		if r.PostForm.Get("Body") != "hello there" {
			t.Errorf("Body = %q", r.PostForm.Get("Body"))
		}
		key := r.Header.Get("Idempotency-Key")
		if key == "" {
			t.Error("missing Idempotency-Key header")
		}
		idempotencyKeys = append(idempotencyKeys, key)

		w.WriteHeader(http.StatusCreated)
		if _, err := w.Write([]byte(`{"sid":"SM987","status":"queued"}`)); err != nil {
			t.Fatal(err)
		}
	}))
	defer server.Close()

	client := NewClient("AC123", "token", "+15559990000", server.URL)

	sid, err := client.Send(context.Background(), "+15550001111", "hello there")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if sid != "SM987" {
		t.Errorf("sid = %q, want SM987", sid)
	}

	// A second send carries a different idempotency key.
	if _, err := client.Send(context.Background(), "+15550001111", "hello there"); err != nil {
		t.Fatalf("second Send: %v", err)
	}
	if len(idempotencyKeys) != 2 || idempotencyKeys[0] == idempotencyKeys[1] {
		t.Errorf("idempotency keys not unique: %v", idempotencyKeys)
	}
}

func TestSendProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		if _, err := w.Write([]byte(`{"code":21211,"message":"Invalid 'To' phone number","status":400}`)); err != nil {
			t.Fatal(err)
		}
	}))
	defer server.Close()

	client := NewClient("AC123", "token", "+15559990000", server.URL)

	_, err := client.Send(context.Background(), "not-a-number", "hi")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "21211") || !strings.Contains(err.Error(), "Invalid 'To' phone number") {
		t.Errorf("error missing provider detail: %v", err)
	}
}

func TestSendMissingSid(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte(`{"status":"queued"}`)); err != nil {
			t.Fatal(err)
		}
	}))
	defer server.Close()

	client := NewClient("AC123", "token", "+15559990000", server.URL)
	if _, err := client.Send(context.Background(), "+15550001111", "hi"); err == nil {
		t.Fatal("expected error for missing sid")
	}
}
