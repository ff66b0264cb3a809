package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/heartlinehq/heartline/internal/conversation"
)

// twimlAck is the empty TwiML document returned for every accepted webhook.
// Replies go out through the REST client, never in the webhook response,
// so the provider gets its ack before generation starts.
const twimlAck = `<?xml version="1.0" encoding="UTF-8"?><Response></Response>`

// MessageHandler processes one inbound message to completion.
// conversation.Orchestrator implements it.
type MessageHandler interface {
	Handle(ctx context.Context, from, text string) conversation.Result
}

// WebhookHandler handles inbound SMS webhooks from the provider.
type WebhookHandler struct {
	*Handler
	orch MessageHandler
}

// NewWebhookHandler creates a webhook handler.
func NewWebhookHandler(base *Handler, orch MessageHandler) *WebhookHandler {
	return &WebhookHandler{Handler: base, orch: orch}
}

// RegisterRoutes registers webhook routes on the given router. Signature
// validation middleware is mounted by the caller so it scopes to this
// subtree only.
func (h *WebhookHandler) RegisterRoutes(r chi.Router) {
	r.Post("/webhook/sms", h.InboundSMS)
}

// InboundSMS acks the provider immediately and hands the message to the
// orchestrator on its own goroutine. Handling runs on a background context:
// once accepted, a message is processed to completion regardless of what
// happens to this request.
func (h *WebhookHandler) InboundSMS(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		Error(w, http.StatusBadRequest, "malformed form body")
		return
	}

	from := r.PostFormValue("From")
	body := r.PostFormValue("Body")
	sid := r.PostFormValue("MessageSid")

	if from == "" {
		Error(w, http.StatusBadRequest, "missing From")
		return
	}

	slog.Info("inbound sms received", "phone_number", from, "message_sid", sid, "length", len(body))

	go func() {
		res := h.orch.Handle(context.Background(), from, body)
		if !res.Success && res.Err != nil {
			slog.Warn("inbound handling did not complete",
				"phone_number", from,
				"message_sid", sid,
				"error", res.Err)
		}
	}()

	w.Header().Set("Content-Type", "text/xml")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(twimlAck)); err != nil {
		slog.Error("failed to write webhook ack", "error", err)
	}
}
