package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/heartlinehq/heartline/internal/domain"
)

func TestNew(t *testing.T) {
	client := New("test-key", "https://api.test.com/", "test-model", 0.7, 256)

	if client.baseURL != "https://api.test.com" {
		t.Errorf("Expected baseURL without trailing slash, got '%s'", client.baseURL)
	}
	if client.model != "test-model" {
		t.Errorf("Expected model 'test-model', got '%s'", client.model)
	}
}

func completionJSON(content string) string {
	resp := map[string]any{
		"id":    "chatcmpl-test",
		"model": "test-model",
		"choices": []map[string]any{
			{
				"index":         0,
				"message":       map[string]string{"role": "assistant", "content": content},
				"finish_reason": "stop",
			},
		},
	}
	data, _ := json.Marshal(resp)
	return string(data)
}

func TestGenerate(t *testing.T) {
	var captured chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST method, got %s", r.Method)
		}
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("Expected path /v1/chat/completions, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("Expected Authorization header, got %s", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("Failed to decode request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write([]byte(completionJSON("  That sounds exhausting. I'm glad you told me.  "))); err != nil {
			t.Fatal(err)
		}
	}))
	defer server.Close()

	client := New("test-key", server.URL, "test-model", 0.7, 256)

	snap := domain.Snapshot{
		IsFirstTime:   false,
		MessageCount:  4,
		TotalMessages: 20,
		CurrentTopic:  "work stress",
		Mood:          "anxious",
		RiskLevel:     domain.RiskLow,
		Recent: []domain.Exchange{
			{UserText: "rough day", AssistantText: "Want to tell me about it?"},
		},
	}

	reply, err := client.Generate(context.Background(), "my boss yelled at me again", snap)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if reply != "That sounds exhausting. I'm glad you told me." {
		t.Errorf("reply not trimmed: %q", reply)
	}

	if captured.Model != "test-model" {
		t.Errorf("model = %q", captured.Model)
	}
	if len(captured.Messages) != 4 {
		t.Fatalf("got %d messages, want system + 2 history + current", len(captured.Messages))
	}
	system := captured.Messages[0]
	if system.Role != "system" {
		t.Errorf("first message role = %q", system.Role)
	}
	for _, marker := range []string{"Heartline", "work stress", "anxious", "20 messages"} {
		if !strings.Contains(system.Content, marker) {
			t.Errorf("system prompt missing %q", marker)
		}
	}
	if captured.Messages[1].Role != "user" || captured.Messages[1].Content != "rough day" {
		t.Errorf("history user turn wrong: %+v", captured.Messages[1])
	}
	if captured.Messages[2].Role != "assistant" {
		t.Errorf("history assistant turn wrong: %+v", captured.Messages[2])
	}
	last := captured.Messages[len(captured.Messages)-1]
	if last.Role != "user" || last.Content != "my boss yelled at me again" {
		t.Errorf("current message wrong: %+v", last)
	}
}

func TestGenerateFirstTimePrompt(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(req.Messages[0].Content, "first message") {
			t.Errorf("first-time marker missing from system prompt: %s", req.Messages[0].Content)
		}
		if _, err := w.Write([]byte(completionJSON("Welcome, I'm glad you reached out."))); err != nil {
			t.Fatal(err)
		}
	}))
	defer server.Close()

	client := New("test-key", server.URL, "test-model", 0.7, 256)
	if _, err := client.Generate(context.Background(), "hi", domain.StubSnapshot()); err != nil {
		t.Fatalf("Generate: %v", err)
	}
}

func TestGenerateCrisisContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		system := req.Messages[0].Content
		if !strings.Contains(system, "in crisis") || !strings.Contains(system, "critical") {
			t.Errorf("crisis context missing from system prompt: %s", system)
		}
		if _, err := w.Write([]byte(completionJSON("I'm staying right here with you."))); err != nil {
			t.Fatal(err)
		}
	}))
	defer server.Close()

	client := New("test-key", server.URL, "test-model", 0.7, 256)
	snap := domain.Snapshot{MessageCount: 2, TotalMessages: 2, RiskLevel: domain.RiskCritical, InCrisis: true}
	if _, err := client.Generate(context.Background(), "I don't know what to do", snap); err != nil {
		t.Fatalf("Generate: %v", err)
	}
}

func TestGenerateErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			"http error status",
			func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, `{"error":{"message":"rate limited"}}`, http.StatusTooManyRequests)
			},
		},
		{
			"api error body",
			func(w http.ResponseWriter, r *http.Request) {
				if _, err := w.Write([]byte(`{"error":{"message":"model overloaded","type":"server_error"}}`)); err != nil {
					t.Fatal(err)
				}
			},
		},
		{
			"no choices",
			func(w http.ResponseWriter, r *http.Request) {
				if _, err := w.Write([]byte(`{"id":"x","choices":[]}`)); err != nil {
					t.Fatal(err)
				}
			},
		},
		{
			"empty reply",
			func(w http.ResponseWriter, r *http.Request) {
				if _, err := w.Write([]byte(completionJSON("   "))); err != nil {
					t.Fatal(err)
				}
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(tc.handler)
			defer server.Close()

			client := New("test-key", server.URL, "test-model", 0.7, 256)
			if _, err := client.Generate(context.Background(), "hello", domain.StubSnapshot()); err == nil {
				t.Error("expected error")
			}
		})
	}
}
