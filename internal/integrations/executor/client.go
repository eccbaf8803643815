// Package executor dispatches confirmed transfer intents to the asset-sender
// backend and classifies the outcome.
package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"wallet-agent/internal/domain"
)

// dispatchTimeout bounds a single backend call. Timeout expiry is the only
// cancellation signal; a timed-out dispatch is never retried here.
const dispatchTimeout = 30 * time.Second

// sendAssetRequest is the request shape for the send-asset endpoint.
type sendAssetRequest struct {
	Recipient string  `json:"recipient"`
	Amount    float64 `json:"amount"`
	IsEth     bool    `json:"isEth"`
}

// sendAssetResponse is the minimal response shape for the send-asset endpoint.
// A success response without TxHash is the backend's documented signal for
// insufficient funds.
type sendAssetResponse struct {
	TxHash string `json:"txHash"`
}

// Client is the HTTP client for the execution backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a Client for the given backend base URL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("executor: base URL must not be empty")
	}
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: dispatchTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Dispatch sends the intent to the backend and classifies the result. It
// never returns an error: every failure mode maps onto a DispatchOutcome
// kind, because the user-facing remediation differs per kind (top up funds
// vs. retry later) and none of them is fatal to the caller.
func (c *Client) Dispatch(ctx context.Context, intent domain.TransferIntent) domain.DispatchOutcome {
	amount, err := decimal.NewFromString(intent.Amount)
	if err != nil {
		return domain.DispatchOutcome{
			Kind:   domain.OutcomeRemoteFailure,
			Detail: fmt.Sprintf("invalid amount %q", intent.Amount),
		}
	}

	body, err := json.Marshal(sendAssetRequest{
		Recipient: intent.Recipient,
		Amount:    amount.InexactFloat64(),
		IsEth:     strings.EqualFold(intent.Token, "ETH"),
	})
	if err != nil {
		return domain.DispatchOutcome{
			Kind:   domain.OutcomeRemoteFailure,
			Detail: "marshal request: " + err.Error(),
		}
	}

	url := c.baseURL + "/send-asset"

	req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if reqErr != nil {
		return domain.DispatchOutcome{
			Kind:   domain.OutcomeUnreachable,
			Detail: reqErr.Error(),
		}
	}
	req.Header.Set("Content-Type", "application/json")

	res, doErr := c.httpClient.Do(req)
	if doErr != nil {
		return domain.DispatchOutcome{
			Kind:   domain.OutcomeUnreachable,
			Detail: doErr.Error(),
		}
	}
	defer func() { _ = res.Body.Close() }()

	raw, readErr := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if readErr != nil {
		return domain.DispatchOutcome{
			Kind:   domain.OutcomeUnreachable,
			Detail: "read response body: " + readErr.Error(),
		}
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return domain.DispatchOutcome{
			Kind:   domain.OutcomeRemoteFailure,
			Detail: string(raw),
		}
	}

	var payload sendAssetResponse
	if decErr := json.Unmarshal(raw, &payload); decErr != nil {
		return domain.DispatchOutcome{
			Kind:   domain.OutcomeRemoteFailure,
			Detail: "decode response: " + decErr.Error(),
		}
	}

	if payload.TxHash == "" {
		return domain.DispatchOutcome{Kind: domain.OutcomeInsufficientFunds}
	}
	return domain.DispatchOutcome{
		Kind:      domain.OutcomeSuccess,
		Reference: payload.TxHash,
	}
}
