package usecase

import (
	"fmt"
	"strings"

	"wallet-agent/internal/intent"
)

// chatContext rewrites the user's text into a focused prompt for the chat
// collaborator. Transfer-looking text that did not produce a confirmable
// intent becomes an explicit transfer question, so the model answers about
// transfers instead of wandering.
func chatContext(text string) string {
	lower := strings.ToLower(text)

	switch {
	case intent.LooksLikeTransfer(text):
		if extracted, err := intent.Extract(text); err == nil {
			return fmt.Sprintf("I want to send %s %s to %s.",
				extracted.Amount, extracted.Token, extracted.Recipient)
		}
		return "What details do you need for the transfer?"
	case strings.Contains(lower, "balance"):
		return "Check my balance."
	case strings.Contains(lower, "help"):
		return "I want to know about Zapbase."
	}

	return text
}
