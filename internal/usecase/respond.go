package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"wallet-agent/internal/domain"
	"wallet-agent/internal/intent"
)

// ChatReplier is the free-text chat collaborator, used when no transfer
// intent is recognized.
type ChatReplier interface {
	Reply(ctx context.Context, prompt string, voiceOriginated bool) (string, error)
}

// Dispatcher hands a confirmed intent to the execution backend.
type Dispatcher interface {
	Dispatch(ctx context.Context, intent domain.TransferIntent) domain.DispatchOutcome
}

// PendingStore holds at most one pending transfer per conversation.
type PendingStore interface {
	Put(conversationID string, intent domain.TransferIntent)
	TakeIfPending(conversationID string) (domain.TransferIntent, bool)
	Clear(conversationID string)
}

// AuditWriter persists extracted transfer requests for later inspection.
type AuditWriter interface {
	RecordTransfer(ctx context.Context, conversationID, userID string, intent domain.TransferIntent) error
}

// Sender delivers outbound text to a conversation. Delivery failure is
// fire-and-forget from the controller's perspective.
type Sender interface {
	Send(ctx context.Context, conversationID, text string, html bool) error
}

// Controller owns the per-conversation state machine: Idle, or awaiting a
// "yes" while a pending transfer sits in the store. There is deliberately no
// cancellation path: a non-"yes" reply leaves the pending entry in place
// until it is consumed or its TTL lapses, matching the bot's historical
// behavior.
type Controller struct {
	chat       ChatReplier
	dispatcher Dispatcher
	pending    PendingStore
	audit      AuditWriter
	sender     Sender
}

// Inbound is one message arriving from the transport, already reduced to
// plain text (voice messages are transcribed upstream).
type Inbound struct {
	ConversationID string
	UserID         string
	Text           string
	IsVoice        bool
}

// NewController validates the collaborators and builds a Controller.
func NewController(chat ChatReplier, dispatcher Dispatcher, pending PendingStore, audit AuditWriter, sender Sender) (*Controller, error) {
	if chat == nil {
		return nil, errors.New("usecase: chat replier must not be nil")
	}
	if dispatcher == nil {
		return nil, errors.New("usecase: dispatcher must not be nil")
	}
	if pending == nil {
		return nil, errors.New("usecase: pending store must not be nil")
	}
	if audit == nil {
		return nil, errors.New("usecase: audit writer must not be nil")
	}
	if sender == nil {
		return nil, errors.New("usecase: sender must not be nil")
	}
	return &Controller{
		chat:       chat,
		dispatcher: dispatcher,
		pending:    pending,
		audit:      audit,
		sender:     sender,
	}, nil
}

// Respond processes one inbound message for a conversation. Collaborator
// faults never propagate out; they degrade to user-visible fallback messages
// for that conversation only.
func (c *Controller) Respond(ctx context.Context, in Inbound) error {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil
	}

	if strings.EqualFold(text, "yes") {
		if pending, ok := c.pending.TakeIfPending(in.ConversationID); ok {
			c.executeTransfer(ctx, in, pending)
			return nil
		}
		// No pending intent, or it expired: fall through to the chat path.
	}

	if intent.LooksLikeTransfer(text) {
		extracted, err := intent.Extract(text)
		switch {
		case err == nil:
			amount, parseErr := decimal.NewFromString(extracted.Amount)
			if parseErr == nil && amount.IsPositive() {
				c.requestConfirmation(ctx, in, extracted)
				return nil
			}
			// A non-positive amount falls through to the chat path, like any
			// other transfer-looking text that did not fully parse.
		case errors.Is(err, intent.ErrBadAmount):
			c.send(ctx, in.ConversationID, msgInvalidAmount, false)
			return nil
		}
	}

	c.chatFallback(ctx, in, text)
	return nil
}

// requestConfirmation stores the intent, audits the raw extracted fields, and
// asks the user for a literal "yes".
func (c *Controller) requestConfirmation(ctx context.Context, in Inbound, extracted domain.TransferIntent) {
	c.pending.Put(in.ConversationID, extracted)

	if err := c.audit.RecordTransfer(ctx, in.ConversationID, in.UserID, extracted); err != nil {
		slog.Warn("transfer audit write failed",
			"conversation_id", in.ConversationID, "err", err)
	}

	c.send(ctx, in.ConversationID, confirmationMessage(extracted, in.IsVoice), true)
}

// executeTransfer runs a confirmed intent through the dispatcher and relays
// the classified outcome. The pending entry was already consumed, so the
// conversation is back to idle whatever happens here.
func (c *Controller) executeTransfer(ctx context.Context, in Inbound, pending domain.TransferIntent) {
	c.send(ctx, in.ConversationID, msgProcessing, false)

	outcome := c.dispatcher.Dispatch(ctx, pending)
	slog.Info("transfer dispatched",
		"conversation_id", in.ConversationID,
		"recipient", pending.Recipient,
		"outcome", outcome.Kind)

	c.send(ctx, in.ConversationID, outcomeMessage(outcome, pending), false)
}

// chatFallback relays the text to the chat collaborator, rewriting
// transfer-related text into a focused prompt first.
func (c *Controller) chatFallback(ctx context.Context, in Inbound, text string) {
	reply, err := c.chat.Reply(ctx, chatContext(text), in.IsVoice)
	if err != nil {
		slog.Error("chat reply failed", "conversation_id", in.ConversationID, "err", err)
		reply = msgChatUnavailable
	}

	// Suppress repetitive failure loops from the model.
	if strings.Count(reply, "I'm sorry") >= 3 {
		reply = msgRephrase
	}

	if in.IsVoice {
		reply = "🎤 " + reply
	}

	c.send(ctx, in.ConversationID, reply, false)
}

func (c *Controller) send(ctx context.Context, conversationID, text string, html bool) {
	if err := c.sender.Send(ctx, conversationID, text, html); err != nil {
		slog.Error("outbound send failed", "conversation_id", conversationID, "err", err)
	}
}

// DetectOrReply powers the frontend send-response API: it returns the
// detected transfer intent, or a chat reply when the text holds no intent.
// Unlike Respond it surfaces upstream failures to the caller, since the
// HTTP API reports them as statuses instead of chat messages.
func (c *Controller) DetectOrReply(ctx context.Context, text string) (*domain.TransferIntent, string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, "", newError(ErrorInvalidInput, "empty_text", nil)
	}

	if extracted, err := intent.Extract(text); err == nil {
		return &extracted, "", nil
	}

	reply, err := c.chat.Reply(ctx, text, false)
	if err != nil {
		return nil, "", newError(ErrorUpstream, "chat_reply_error", err)
	}
	return nil, reply, nil
}
