package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"wallet-agent/internal/domain"
	"wallet-agent/internal/usecase"
)

type stubResponder struct {
	detected *domain.TransferIntent
	reply    string
	err      error
	lastText string
}

func (s *stubResponder) DetectOrReply(_ context.Context, text string) (*domain.TransferIntent, string, error) {
	s.lastText = text
	return s.detected, s.reply, s.err
}

type stubTransferLog struct {
	recs      []domain.TransferRecord
	err       error
	lastChat  string
	lastLimit int
}

func (s *stubTransferLog) RecentTransfers(_ context.Context, conversationID string, limit int) ([]domain.TransferRecord, error) {
	s.lastChat = conversationID
	s.lastLimit = limit
	return s.recs, s.err
}

func newTestHandler(t *testing.T, stub *stubResponder) *Handler {
	t.Helper()
	return newTestHandlerWithLog(t, stub, &stubTransferLog{})
}

func newTestHandlerWithLog(t *testing.T, stub *stubResponder, log *stubTransferLog) *Handler {
	t.Helper()
	h, err := New(stub, log)
	require.NoError(t, err)
	return h
}

func doRequest(h *Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Mux().ServeHTTP(rec, req)
	return rec
}

func parseReply(t *testing.T, rec *httptest.ResponseRecorder) sendResponseReply {
	t.Helper()
	var reply sendResponseReply
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reply))
	return reply
}

func TestNew_NilResponder(t *testing.T) {
	_, err := New(nil, &stubTransferLog{})
	require.Error(t, err)
}

func TestNew_NilTransferLog(t *testing.T) {
	_, err := New(&stubResponder{}, nil)
	require.Error(t, err)
}

func TestHome(t *testing.T) {
	h := newTestHandler(t, &stubResponder{})
	rec := doRequest(h, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Server is running.", rec.Body.String())
}

func TestHealth(t *testing.T) {
	h := newTestHandler(t, &stubResponder{})
	rec := doRequest(h, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Bot is running.", rec.Body.String())
}

func TestHome_UnknownPathIs404(t *testing.T) {
	h := newTestHandler(t, &stubResponder{})
	rec := doRequest(h, http.MethodGet, "/nope", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSendResponse_TransferDetected(t *testing.T) {
	stub := &stubResponder{
		detected: &domain.TransferIntent{Amount: "0.5", Token: "ETH", Recipient: "ann.base.eth"},
	}
	h := newTestHandler(t, stub)

	rec := doRequest(h, http.MethodPost, "/api/send-response",
		`{"chatID":12345,"text":"send 0.5 eth to ann.base.eth"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	reply := parseReply(t, rec)
	require.True(t, reply.Success)
	require.Equal(t, "Transfer of 0.5 ETH to ann.base.eth detected", reply.Message)
	require.NotNil(t, reply.Transfer)
	require.Equal(t, "0.5", reply.Transfer.Amount)
	require.Equal(t, "ETH", reply.Transfer.Token)
	require.Equal(t, "ann.base.eth", reply.Transfer.Recipient)

	require.Equal(t, "send 0.5 eth to ann.base.eth", stub.lastText)
}

func TestSendResponse_ChatReply(t *testing.T) {
	stub := &stubResponder{reply: "Hi, I'm Frechi!"}
	h := newTestHandler(t, stub)

	rec := doRequest(h, http.MethodPost, "/api/send-response",
		`{"chatID":"12345","text":"hello"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	reply := parseReply(t, rec)
	require.True(t, reply.Success)
	require.Equal(t, "Hi, I'm Frechi!", reply.Message)
	require.Nil(t, reply.Transfer)
}

func TestSendResponse_InvalidJSON(t *testing.T) {
	h := newTestHandler(t, &stubResponder{})

	rec := doRequest(h, http.MethodPost, "/api/send-response", "not json")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	reply := parseReply(t, rec)
	require.False(t, reply.Success)
	require.Equal(t, "Invalid JSON", reply.Message)
}

func TestSendResponse_MissingFields(t *testing.T) {
	h := newTestHandler(t, &stubResponder{})

	for _, body := range []string{
		`{"text":"hello"}`,
		`{"chatID":12345}`,
		`{}`,
	} {
		rec := doRequest(h, http.MethodPost, "/api/send-response", body)
		require.Equal(t, http.StatusBadRequest, rec.Code, "body=%s", body)
		reply := parseReply(t, rec)
		require.False(t, reply.Success)
		require.Equal(t, "Missing chatID or text", reply.Message)
	}
}

func TestSendResponse_InvalidInputErrorIs400(t *testing.T) {
	stub := &stubResponder{err: &usecase.Error{Code: usecase.ErrorInvalidInput, Reason: "empty_text"}}
	h := newTestHandler(t, stub)

	rec := doRequest(h, http.MethodPost, "/api/send-response",
		`{"chatID":12345,"text":" "}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSendResponse_UpstreamErrorIs500(t *testing.T) {
	stub := &stubResponder{err: &usecase.Error{Code: usecase.ErrorUpstream, Reason: "chat_reply_error", Err: errors.New("quota exceeded")}}
	h := newTestHandler(t, stub)

	rec := doRequest(h, http.MethodPost, "/api/send-response",
		`{"chatID":12345,"text":"hello"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	reply := parseReply(t, rec)
	require.False(t, reply.Success)
	require.Equal(t, "Server error", reply.Message)
}

func TestSendResponse_GetMethodNotAllowed(t *testing.T) {
	h := newTestHandler(t, &stubResponder{})
	rec := doRequest(h, http.MethodGet, "/api/send-response", "")
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func parseTransfersReply(t *testing.T, rec *httptest.ResponseRecorder) transfersReply {
	t.Helper()
	var reply transfersReply
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reply))
	return reply
}

func TestRecentTransfers_HappyPath(t *testing.T) {
	log := &stubTransferLog{recs: []domain.TransferRecord{
		{ID: "rec-2", UserID: "user-7", Amount: "2", Token: "BTC", Recipient: "bob.eth"},
		{ID: "rec-1", UserID: "user-7", Amount: "0.5", Token: "ETH", Recipient: "ann.base.eth"},
	}}
	h := newTestHandlerWithLog(t, &stubResponder{}, log)

	rec := doRequest(h, http.MethodGet, "/api/transfers/12345", "")
	require.Equal(t, http.StatusOK, rec.Code)

	reply := parseTransfersReply(t, rec)
	require.True(t, reply.Success)
	require.Len(t, reply.Transfers, 2)
	require.Equal(t, "rec-2", reply.Transfers[0].ID)
	require.Equal(t, "bob.eth", reply.Transfers[0].Recipient)
	require.Equal(t, "ann.base.eth", reply.Transfers[1].Recipient)

	require.Equal(t, "12345", log.lastChat)
	require.Equal(t, 20, log.lastLimit)
}

func TestRecentTransfers_EmptyTrail(t *testing.T) {
	h := newTestHandlerWithLog(t, &stubResponder{}, &stubTransferLog{})

	rec := doRequest(h, http.MethodGet, "/api/transfers/12345", "")
	require.Equal(t, http.StatusOK, rec.Code)

	reply := parseTransfersReply(t, rec)
	require.True(t, reply.Success)
	require.NotNil(t, reply.Transfers)
	require.Empty(t, reply.Transfers)
}

func TestRecentTransfers_LimitQuery(t *testing.T) {
	log := &stubTransferLog{}
	h := newTestHandlerWithLog(t, &stubResponder{}, log)

	rec := doRequest(h, http.MethodGet, "/api/transfers/12345?limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 5, log.lastLimit)

	rec = doRequest(h, http.MethodGet, "/api/transfers/12345?limit=500", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 100, log.lastLimit)
}

func TestRecentTransfers_InvalidLimit(t *testing.T) {
	h := newTestHandlerWithLog(t, &stubResponder{}, &stubTransferLog{})

	for _, limit := range []string{"abc", "0", "-1"} {
		rec := doRequest(h, http.MethodGet, "/api/transfers/12345?limit="+limit, "")
		require.Equal(t, http.StatusBadRequest, rec.Code, "limit=%s", limit)
	}
}

func TestRecentTransfers_LookupError(t *testing.T) {
	log := &stubTransferLog{err: errors.New("ResourceNotFoundException")}
	h := newTestHandlerWithLog(t, &stubResponder{}, log)

	rec := doRequest(h, http.MethodGet, "/api/transfers/12345", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	reply := parseTransfersReply(t, rec)
	require.False(t, reply.Success)
	require.Equal(t, "Server error", reply.Message)
}
