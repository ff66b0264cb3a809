package conversation

import (
	"context"
	"log/slog"
	"strings"

	"github.com/heartlinehq/heartline/internal/risk"
)

// Command keywords match the whole trimmed message, case-insensitively.
// "help me please" is not a command and goes through risk assessment.
const (
	cmdHelp      = "HELP"
	cmdResources = "RESOURCES"
	cmdStop      = "STOP"
	cmdStart     = "START"
)

const (
	helpText = "Heartline is a free support line you can text anytime, day or night. " +
		"Just send a message to talk. Text RESOURCES for crisis hotlines, STOP to pause messages, " +
		"or START to resume. If you are in immediate danger, call 911."

	stopText = "You won't receive any more messages from Heartline. Text START anytime to opt back in. " +
		"If you're in crisis, you can always call or text 988."

	startText = "Welcome back to Heartline. We're here whenever you want to talk. " +
		"Text HELP for info or RESOURCES for crisis hotlines."
)

// handleCommand dispatches the command grammar. The second return reports
// whether the message was a command at all.
func (o *Orchestrator) handleCommand(ctx context.Context, from, trimmed string) (string, bool) {
	switch strings.ToUpper(trimmed) {
	case cmdHelp:
		return helpText, true
	case cmdResources:
		return resourcesText(), true
	case cmdStop:
		o.setActive(ctx, from, false)
		return stopText, true
	case cmdStart:
		o.setActive(ctx, from, true)
		return startText, true
	}
	return "", false
}

func (o *Orchestrator) setActive(ctx context.Context, from string, active bool) {
	if err := o.repo.SetUserActive(ctx, from, active); err != nil {
		slog.Warn("failed to update opt-in state", "phone_number", from, "active", active, "error", err)
	} else {
		slog.Info("opt-in state updated", "phone_number", from, "active", active)
	}
}

// resourcesText renders the full hotline list for the RESOURCES command.
func resourcesText() string {
	var b strings.Builder
	b.WriteString("You can always reach:\n")
	for _, r := range risk.AllResources() {
		b.WriteString(r.Name)
		b.WriteString(": ")
		b.WriteString(r.Contact)
		b.WriteString("\n")
	}
	b.WriteString("We're here too. Text us anytime.")
	return b.String()
}
