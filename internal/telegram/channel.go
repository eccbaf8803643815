// Package telegram is the inbound/outbound message transport. It long-polls
// the Bot API, routes text and voice messages into the conversation
// controller, and delivers the controller's replies.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/mymmrac/telego"
	"github.com/mymmrac/telego/telegohandler"
	th "github.com/mymmrac/telego/telegohandler"
	tu "github.com/mymmrac/telego/telegoutil"

	"wallet-agent/internal/usecase"
)

// maxVoiceDownloadBytes caps voice file downloads.
const maxVoiceDownloadBytes = 20 << 20

// Responder processes one inbound message.
type Responder interface {
	Respond(ctx context.Context, in usecase.Inbound) error
}

// Transcriber turns voice audio bytes into a transcript.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// VoiceRecorder persists processed voice notes for inspection.
type VoiceRecorder interface {
	RecordVoiceNote(ctx context.Context, conversationID, userID, fileID string, durationSec int, transcript string) error
}

// Channel connects the Telegram Bot API to the conversation controller.
type Channel struct {
	bot         *telego.Bot
	responder   Responder
	transcriber Transcriber
	voices      VoiceRecorder
	httpClient  *http.Client
}

// NewChannel creates the Telegram channel. The responder must be attached
// with SetResponder before Start; the transcriber and voice recorder are
// optional.
func NewChannel(token string, opts ...telego.BotOption) (*Channel, error) {
	bot, err := telego.NewBot(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("telegram: create bot: %w", err)
	}
	return &Channel{
		bot:        bot,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// SetResponder attaches the conversation controller. Kept as a setter because
// the controller needs this channel as its outbound sender.
func (c *Channel) SetResponder(r Responder) {
	c.responder = r
}

func (c *Channel) SetTranscriber(t Transcriber) {
	c.transcriber = t
}

func (c *Channel) SetVoiceRecorder(v VoiceRecorder) {
	c.voices = v
}

// Start begins long polling and dispatches updates until ctx is canceled.
// Each update is handled on its own goroutine, so one conversation's slow
// dispatch never delays another's.
func (c *Channel) Start(ctx context.Context) error {
	if c.responder == nil {
		return errors.New("telegram: responder must be set before Start")
	}

	updates, err := c.bot.UpdatesViaLongPolling(ctx, &telego.GetUpdatesParams{
		Timeout: 30,
	})
	if err != nil {
		return fmt.Errorf("telegram: start long polling: %w", err)
	}

	bh, err := telegohandler.NewBotHandler(c.bot, updates)
	if err != nil {
		return fmt.Errorf("telegram: create bot handler: %w", err)
	}

	bh.HandleMessage(func(hctx *th.Context, message telego.Message) error {
		c.handleMessage(hctx, &message)
		return nil
	}, th.AnyMessage())

	slog.Info("telegram bot connected", "username", c.bot.Username())

	go bh.Start()

	go func() {
		<-ctx.Done()
		_ = bh.Stop()
	}()

	return nil
}

func (c *Channel) handleMessage(ctx context.Context, message *telego.Message) {
	if message.From == nil || message.From.IsBot {
		return
	}

	conversationID := strconv.FormatInt(message.Chat.ID, 10)
	userID := strconv.FormatInt(message.From.ID, 10)

	if message.Voice != nil {
		c.handleVoice(ctx, conversationID, userID, message.Voice)
		return
	}

	if message.Text == "" {
		return
	}

	in := usecase.Inbound{
		ConversationID: conversationID,
		UserID:         userID,
		Text:           message.Text,
	}
	if err := c.responder.Respond(ctx, in); err != nil {
		slog.Error("message handling failed", "conversation_id", conversationID, "err", err)
		_ = c.Send(ctx, conversationID, msgGenericFailure, false)
	}
}

func (c *Channel) handleVoice(ctx context.Context, conversationID, userID string, voice *telego.Voice) {
	_ = c.Send(ctx, conversationID, msgVoiceProcessing, false)

	if c.transcriber == nil {
		_ = c.Send(ctx, conversationID, voiceFailureMessage("voice messages are not supported"), false)
		return
	}

	audio, err := c.downloadVoice(ctx, voice.FileID)
	if err != nil {
		slog.Error("voice download failed", "conversation_id", conversationID, "err", err)
		_ = c.Send(ctx, conversationID, voiceFailureMessage("failed to download voice message"), false)
		return
	}

	transcript, err := c.transcriber.Transcribe(ctx, audio)
	if err != nil {
		slog.Error("voice transcription failed", "conversation_id", conversationID, "err", err)
		_ = c.Send(ctx, conversationID, voiceFailureMessage(err.Error()), false)
		return
	}
	slog.Info("voice transcribed", "conversation_id", conversationID, "transcript", transcript)

	if c.voices != nil {
		if err := c.voices.RecordVoiceNote(ctx, conversationID, userID, voice.FileID, voice.Duration, transcript); err != nil {
			slog.Warn("voice audit write failed", "conversation_id", conversationID, "err", err)
		}
	}

	in := usecase.Inbound{
		ConversationID: conversationID,
		UserID:         userID,
		Text:           transcript,
		IsVoice:        true,
	}
	if err := c.responder.Respond(ctx, in); err != nil {
		slog.Error("voice message handling failed", "conversation_id", conversationID, "err", err)
		_ = c.Send(ctx, conversationID, msgGenericFailure, false)
	}
}

// downloadVoice resolves the file path via the Bot API and fetches the bytes.
func (c *Channel) downloadVoice(ctx context.Context, fileID string) ([]byte, error) {
	file, err := c.bot.GetFile(ctx, &telego.GetFileParams{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("telegram: get file: %w", err)
	}
	if file.FilePath == "" {
		return nil, errors.New("telegram: file has no path")
	}

	url := c.bot.FileDownloadURL(file.FilePath)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("telegram: create download request: %w", err)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("telegram: download file: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("telegram: download file: unexpected status %d", res.StatusCode)
	}

	audio, err := io.ReadAll(io.LimitReader(res.Body, maxVoiceDownloadBytes))
	if err != nil {
		return nil, fmt.Errorf("telegram: read file body: %w", err)
	}
	return audio, nil
}

// Send delivers text to a conversation. When the HTML formatting hint is set
// and the Bot API rejects the markup, it retries once as plain text; the
// formatting hint is best-effort.
func (c *Channel) Send(ctx context.Context, conversationID, text string, html bool) error {
	chatID, err := strconv.ParseInt(conversationID, 10, 64)
	if err != nil {
		return fmt.Errorf("telegram: invalid chat id %q: %w", conversationID, err)
	}

	msg := tu.Message(tu.ID(chatID), text)
	if html {
		msg.ParseMode = telego.ModeHTML
	}

	if _, err := c.bot.SendMessage(ctx, msg); err != nil {
		if html {
			plain := tu.Message(tu.ID(chatID), text)
			if _, perr := c.bot.SendMessage(ctx, plain); perr == nil {
				return nil
			}
		}
		return fmt.Errorf("telegram: send message: %w", err)
	}
	return nil
}

const (
	msgVoiceProcessing = "🎤 Processing your voice message..."
	msgGenericFailure  = "❌ Sorry, I couldn't process that message. Please try again."
)

func voiceFailureMessage(reason string) string {
	return "🎤 I couldn't process your voice message: " + reason + "\n\n" +
		"💡 Please try:\n" +
		"• Speaking clearly\n" +
		"• Using text instead\n" +
		"• Example: 'send 0.5 ETH to john.base.eth'"
}
