// Package gemini is a focused client for the Gemini generateContent endpoint,
// used as the free-text chat fallback when no transfer intent is recognized.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// generateRequest is the minimal request shape for the generateContent endpoint.
type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

// generateResponse is the minimal response shape returned by generateContent.
type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// keyPayload is the expected JSON shape stored in SSM for the API key.
type keyPayload struct {
	Key string `json:"key"`
}

type Getter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

// HTTPStatusError captures non-2xx upstream responses with status-aware context.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("gemini: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

const defaultModel = "gemini-2.0-flash"

// Client calls the Gemini API for conversational replies.
type Client struct {
	baseURL     string
	model       string
	httpClient  *http.Client
	getter      Getter
	paramPrefix string

	keyOnce sync.Once
	apiKey  string
	keyErr  error
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSpace(baseURL)
	}
}

func WithModel(model string) Option {
	return func(c *Client) {
		c.model = strings.TrimSpace(model)
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a new Client backed by the given paramstore Getter for API
// key retrieval. The key is fetched from SSM on the first call to Reply and
// reused for the lifetime of the process.
func NewClient(ps Getter, paramPrefix string, opts ...Option) (*Client, error) {
	if ps == nil {
		return nil, errors.New("gemini: paramstore getter must not be nil")
	}
	paramPrefix = strings.TrimRight(strings.TrimSpace(paramPrefix), "/")
	if paramPrefix == "" {
		return nil, errors.New("gemini: parameter prefix must not be empty")
	}
	c := &Client{
		baseURL:     "https://generativelanguage.googleapis.com",
		model:       defaultModel,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		getter:      ps,
		paramPrefix: paramPrefix,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.model == "" {
		c.model = defaultModel
	}
	return c, nil
}

// resolveAPIKey fetches the API key from SSM on the first call and returns the
// cached result on every subsequent call within the same process lifetime.
func (c *Client) resolveAPIKey(ctx context.Context) (string, error) {
	c.keyOnce.Do(func() {
		c.apiKey, c.keyErr = fetchAPIKeyFromParamStore(ctx, c.getter, c.keyParameterName())
	})
	return c.apiKey, c.keyErr
}

func (c *Client) keyParameterName() string {
	return c.paramPrefix + "/gemini-api-key"
}

func generateURL(baseURL, model, apiKey string) string {
	base := strings.TrimRight(baseURL, "/")
	if base == "" {
		base = "https://generativelanguage.googleapis.com"
	}
	return fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", base, model, apiKey)
}

// promptPreamble is the assistant persona prepended to every chat request.
func promptPreamble(voiceOriginated bool) string {
	voiceContext := ""
	if voiceOriginated {
		voiceContext = " (This message was sent via voice)"
	}
	return "You are a helpful assistant called Frechi for a crypto application called ZapBase. " +
		"The user can ask for their balance, transfer ETH using a wallet address or basename " +
		"i.e username.base.eth, check token prices, or tip the app Zapbase'. " +
		"Be empathetic and please respond to the following message" + voiceContext + ":"
}

// Reply sends the prompt to Gemini and returns the first candidate's text.
func (c *Client) Reply(ctx context.Context, prompt string, voiceOriginated bool) (string, error) {
	apiKey, err := c.resolveAPIKey(ctx)
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(generateRequest{
		Contents: []content{
			{Parts: []part{{Text: promptPreamble(voiceOriginated) + " " + prompt}}},
		},
	})
	if err != nil {
		return "", fmt.Errorf("gemini: marshal request: %w", err)
	}

	url := generateURL(c.baseURL, c.model, apiKey)

	req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if reqErr != nil {
		return "", fmt.Errorf("gemini: create request: %w", reqErr)
	}
	req.Header.Set("Content-Type", "application/json")

	raw, err := c.doJSONRequest(req, url)
	if err != nil {
		return "", fmt.Errorf("gemini: request failed: %w", err)
	}

	var payload generateResponse
	if decErr := json.Unmarshal(raw, &payload); decErr != nil {
		return "", fmt.Errorf("gemini: decode response: %w", decErr)
	}
	if len(payload.Candidates) == 0 || len(payload.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("gemini: no candidates in response")
	}

	return payload.Candidates[0].Content.Parts[0].Text, nil
}

func (c *Client) doJSONRequest(req *http.Request, url string) ([]byte, error) {
	res, doErr := c.httpClient.Do(req)
	if doErr != nil {
		return nil, doErr
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, &HTTPStatusError{
			StatusCode: res.StatusCode,
			URL:        url,
			Body:       string(buf),
		}
	}

	buf, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return buf, nil
}

func fetchAPIKeyFromParamStore(ctx context.Context, getter Getter, name string) (string, error) {
	if getter == nil {
		return "", errors.New("gemini: paramstore getter is nil")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("gemini: key parameter name is empty")
	}

	raw, err := getter.GetParameter(ctx, name)
	if err != nil {
		return "", fmt.Errorf("gemini: fetch key from paramstore: %w", err)
	}
	var kp keyPayload
	if err := json.Unmarshal([]byte(raw), &kp); err != nil {
		return "", fmt.Errorf("gemini: unmarshal paramstore key value as JSON: %w", err)
	}
	if kp.Key == "" {
		return "", errors.New("gemini: API key is empty")
	}
	return kp.Key, nil
}
