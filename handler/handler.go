// Package handler exposes the HTTP surface used by the frontend: liveness
// endpoints and a JSON endpoint that detects a transfer in submitted text or
// relays a chat reply.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"wallet-agent/internal/domain"
	"wallet-agent/internal/usecase"
)

const maxRequestBytes = 64 << 10

// Responder detects a transfer intent in text or falls back to a chat reply.
type Responder interface {
	DetectOrReply(ctx context.Context, text string) (*domain.TransferIntent, string, error)
}

// TransferLog reads back the transfer audit trail for inspection.
type TransferLog interface {
	RecentTransfers(ctx context.Context, conversationID string, limit int) ([]domain.TransferRecord, error)
}

// Handler serves the frontend API.
type Handler struct {
	responder Responder
	transfers TransferLog
}

// New creates a Handler.
func New(r Responder, transfers TransferLog) (*Handler, error) {
	if r == nil {
		return nil, errors.New("handler: responder must not be nil")
	}
	if transfers == nil {
		return nil, errors.New("handler: transfer log must not be nil")
	}
	return &Handler{responder: r, transfers: transfers}, nil
}

// Mux returns the route table.
func (h *Handler) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.home)
	mux.HandleFunc("GET /health", h.health)
	mux.HandleFunc("POST /api/send-response", h.sendResponse)
	mux.HandleFunc("GET /api/transfers/{chatID}", h.recentTransfers)
	return mux
}

func (h *Handler) home(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "Server is running.")
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "Bot is running.")
}

type sendResponseRequest struct {
	ChatID json.RawMessage `json:"chatID"`
	Text   string          `json:"text"`
}

type transferPayload struct {
	Amount    string `json:"amount"`
	Token     string `json:"token"`
	Recipient string `json:"recipient"`
}

type sendResponseReply struct {
	Success  bool             `json:"success"`
	Message  string           `json:"message"`
	Transfer *transferPayload `json:"transfer,omitempty"`
}

func (h *Handler) sendResponse(w http.ResponseWriter, r *http.Request) {
	var req sendResponseRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, sendResponseReply{
			Success: false,
			Message: "Invalid JSON",
		})
		return
	}
	if len(req.ChatID) == 0 || req.Text == "" {
		writeJSON(w, http.StatusBadRequest, sendResponseReply{
			Success: false,
			Message: "Missing chatID or text",
		})
		return
	}

	detected, reply, err := h.responder.DetectOrReply(r.Context(), req.Text)
	if err != nil {
		var uerr *usecase.Error
		if errors.As(err, &uerr) && uerr.Code == usecase.ErrorInvalidInput {
			writeJSON(w, http.StatusBadRequest, sendResponseReply{
				Success: false,
				Message: "Missing chatID or text",
			})
			return
		}
		slog.Error("send-response failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, sendResponseReply{
			Success: false,
			Message: "Server error",
		})
		return
	}

	if detected != nil {
		writeJSON(w, http.StatusOK, sendResponseReply{
			Success: true,
			Message: fmt.Sprintf("Transfer of %s %s to %s detected",
				detected.Amount, detected.Token, detected.Recipient),
			Transfer: &transferPayload{
				Amount:    detected.Amount,
				Token:     detected.Token,
				Recipient: detected.Recipient,
			},
		})
		return
	}

	writeJSON(w, http.StatusOK, sendResponseReply{
		Success: true,
		Message: reply,
	})
}

const (
	defaultTransferLimit = 20
	maxTransferLimit     = 100
)

type transferRecordPayload struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	Amount    string `json:"amount"`
	Token     string `json:"token"`
	Recipient string `json:"recipient"`
}

type transfersReply struct {
	Success   bool                    `json:"success"`
	Message   string                  `json:"message,omitempty"`
	Transfers []transferRecordPayload `json:"transfers"`
}

// recentTransfers lists the newest audited transfer requests for a chat,
// most recent first.
func (h *Handler) recentTransfers(w http.ResponseWriter, r *http.Request) {
	chatID := r.PathValue("chatID")

	limit := defaultTransferLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, transfersReply{
				Success:   false,
				Message:   "Invalid limit",
				Transfers: []transferRecordPayload{},
			})
			return
		}
		limit = min(n, maxTransferLimit)
	}

	recs, err := h.transfers.RecentTransfers(r.Context(), chatID, limit)
	if err != nil {
		slog.Error("recent transfers lookup failed", "chat_id", chatID, "err", err)
		writeJSON(w, http.StatusInternalServerError, transfersReply{
			Success:   false,
			Message:   "Server error",
			Transfers: []transferRecordPayload{},
		})
		return
	}

	payload := make([]transferRecordPayload, 0, len(recs))
	for _, rec := range recs {
		payload = append(payload, transferRecordPayload{
			ID:        rec.ID,
			UserID:    rec.UserID,
			Amount:    rec.Amount,
			Token:     rec.Token,
			Recipient: rec.Recipient,
		})
	}
	writeJSON(w, http.StatusOK, transfersReply{Success: true, Transfers: payload})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("encode response failed", "err", err)
	}
}
