// Package llm talks to an OpenAI-compatible chat-completions endpoint to
// generate conversational SMS replies. The client is optional: when no API
// key is configured the orchestrator falls back to fixed supportive text.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/heartlinehq/heartline/internal/domain"
)

// Client is an OpenAI-compatible chat-completions client.
type Client struct {
	apiKey      string
	baseURL     string
	model       string
	temperature float64
	maxTokens   int
	httpClient  *http.Client
}

// Message is one chat turn on the wire.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index        int     `json:"index"`
		Message      Message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error,omitempty"`
}

// New creates a generator client. baseURL is the API root without the
// /v1/chat/completions suffix.
func New(apiKey, baseURL, model string, temperature float64, maxTokens int) *Client {
	return &Client{
		apiKey:      apiKey,
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Generate produces a reply to userMsg given the context snapshot. Recent
// exchanges are replayed as chat history so the model keeps the thread.
func (c *Client) Generate(ctx context.Context, userMsg string, snap domain.Snapshot) (string, error) {
	reqBody := chatRequest{
		Model:       c.model,
		Messages:    buildMessages(userMsg, snap),
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("serialize request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("generator returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("generator error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("generator returned no choices")
	}

	reply := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if reply == "" {
		return "", fmt.Errorf("generator returned empty reply")
	}
	return reply, nil
}

const systemPrompt = `You are Heartline, a caring SMS companion for people going through hard times.
Reply in one to three short sentences that fit a text message. Be warm, validating, and concrete.
Never diagnose, never give medical or legal advice, and never promise outcomes.
If the person talks about harming themselves or someone else, gently remind them they can call or text 988 to reach the Suicide & Crisis Lifeline.`

// buildMessages assembles the system prompt, a context note, the recent
// exchange history, and the current message.
func buildMessages(userMsg string, snap domain.Snapshot) []Message {
	var note strings.Builder
	if snap.IsFirstTime {
		note.WriteString("This is the person's first message ever; welcome them gently.")
	} else {
		fmt.Fprintf(&note, "You have exchanged %d messages with this person overall, %d in this session.",
			snap.TotalMessages, snap.MessageCount)
	}
	if snap.CurrentTopic != "" {
		fmt.Fprintf(&note, " Current topic: %s.", snap.CurrentTopic)
	}
	if snap.Mood != "" {
		fmt.Fprintf(&note, " Their recent mood: %s.", snap.Mood)
	}
	if snap.InCrisis {
		fmt.Fprintf(&note, " They were recently assessed at %s risk and are flagged in crisis: acknowledge their pain and keep crisis resources in view.", snap.RiskLevel)
	} else if snap.RiskLevel != "" && snap.RiskLevel != domain.RiskNone {
		fmt.Fprintf(&note, " Their assessed risk level is %s.", snap.RiskLevel)
	}

	messages := []Message{
		{Role: "system", Content: systemPrompt + "\n\n" + note.String()},
	}
	for _, ex := range snap.Recent {
		if ex.UserText != "" {
			messages = append(messages, Message{Role: "user", Content: ex.UserText})
		}
		if ex.AssistantText != "" {
			messages = append(messages, Message{Role: "assistant", Content: ex.AssistantText})
		}
	}
	return append(messages, Message{Role: "user", Content: userMsg})
}
