package domain

import (
	"time"
)

// Direction marks which side of the line a stored message belongs to.
type Direction string

const (
	DirectionIncoming Direction = "incoming"
	DirectionOutgoing Direction = "outgoing"
)

// ConversationRecord is one stored message, either side of the exchange.
type ConversationRecord struct {
	PhoneNumber    string    `json:"phone_number"`
	Body           string    `json:"body"`
	Direction      Direction `json:"direction"`
	RiskLevel      RiskLevel `json:"risk_level"`
	RiskCategories []string  `json:"risk_categories,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// CrisisEvent is the audit record created when a message is assessed at
// high or critical risk. Events are append-only; this service never
// deletes them.
type CrisisEvent struct {
	ID             string    `json:"id"`
	PhoneNumber    string    `json:"phone_number"`
	RiskLevel      RiskLevel `json:"risk_level"`
	RiskCategories []string  `json:"risk_categories,omitempty"`
	MessagePreview string    `json:"message_preview"`
	Escalated      bool      `json:"escalated"`
	Resolved       bool      `json:"resolved"`
	CreatedAt      time.Time `json:"created_at"`
}

// PreviewLength caps how much of the triggering message a crisis event
// retains.
const PreviewLength = 100

// Preview truncates a message body for crisis-event storage.
func Preview(body string) string {
	runes := []rune(body)
	if len(runes) <= PreviewLength {
		return body
	}
	return string(runes[:PreviewLength])
}

// CheckIn is the sent/responded bookkeeping row for a proactive check-in
// message.
type CheckIn struct {
	ID           string     `json:"id"`
	PhoneNumber  string     `json:"phone_number"`
	SentAt       time.Time  `json:"sent_at"`
	Responded    bool       `json:"responded"`
	ResponseText string     `json:"response_text,omitempty"`
	ResponseTime *time.Time `json:"response_time,omitempty"`
}
