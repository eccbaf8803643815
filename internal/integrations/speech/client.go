// Package speech transcribes voice message audio via the Speech-to-Text
// recognize endpoint.
package speech

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// recognizeRequest is the request shape for the speech:recognize endpoint.
type recognizeRequest struct {
	Config recognitionConfig `json:"config"`
	Audio  recognitionAudio  `json:"audio"`
}

type recognitionConfig struct {
	Encoding                   string `json:"encoding"`
	SampleRateHertz            int    `json:"sampleRateHertz"`
	LanguageCode               string `json:"languageCode"`
	Model                      string `json:"model"`
	UseEnhanced                bool   `json:"useEnhanced"`
	EnableAutomaticPunctuation bool   `json:"enableAutomaticPunctuation"`
	ProfanityFilter            bool   `json:"profanityFilter"`
}

type recognitionAudio struct {
	Content string `json:"content"`
}

// recognizeResponse is the minimal response shape for speech:recognize.
type recognizeResponse struct {
	Results []struct {
		Alternatives []struct {
			Transcript string  `json:"transcript"`
			Confidence float64 `json:"confidence"`
		} `json:"alternatives"`
	} `json:"results"`
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
	return fmt.Sprintf("speech: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// Client is the HTTP client for the transcription collaborator.
type Client struct {
	baseURL     string
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

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a new Client backed by the given paramstore Getter for
// API key retrieval.
func NewClient(ps Getter, paramPrefix string, opts ...Option) (*Client, error) {
	if ps == nil {
		return nil, errors.New("speech: paramstore getter must not be nil")
	}
	paramPrefix = strings.TrimRight(strings.TrimSpace(paramPrefix), "/")
	if paramPrefix == "" {
		return nil, errors.New("speech: parameter prefix must not be empty")
	}
	c := &Client{
		baseURL:     "https://speech.googleapis.com",
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		getter:      ps,
		paramPrefix: paramPrefix,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) resolveAPIKey(ctx context.Context) (string, error) {
	c.keyOnce.Do(func() {
		c.apiKey, c.keyErr = fetchAPIKeyFromParamStore(ctx, c.getter, c.paramPrefix+"/speech-api-key")
	})
	return c.apiKey, c.keyErr
}

func recognizeURL(baseURL, apiKey string) string {
	base := strings.TrimRight(baseURL, "/")
	if base == "" {
		base = "https://speech.googleapis.com"
	}
	return base + "/v1/speech:recognize?key=" + apiKey
}

// Transcribe sends OGG/Opus audio bytes for recognition and returns the top
// transcript. Voice notes from the chat transport are already 16 kHz mono
// OGG/Opus, so no conversion happens here.
func (c *Client) Transcribe(ctx context.Context, audio []byte) (string, error) {
	if len(audio) == 0 {
		return "", errors.New("speech: audio is empty")
	}

	apiKey, err := c.resolveAPIKey(ctx)
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(recognizeRequest{
		Config: recognitionConfig{
			Encoding:                   "OGG_OPUS",
			SampleRateHertz:            16000,
			LanguageCode:               "en-US",
			Model:                      "latest_long",
			UseEnhanced:                true,
			EnableAutomaticPunctuation: true,
			ProfanityFilter:            true,
		},
		Audio: recognitionAudio{
			Content: base64.StdEncoding.EncodeToString(audio),
		},
	})
	if err != nil {
		return "", fmt.Errorf("speech: marshal request: %w", err)
	}

	url := recognizeURL(c.baseURL, apiKey)

	req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if reqErr != nil {
		return "", fmt.Errorf("speech: create request: %w", reqErr)
	}
	req.Header.Set("Content-Type", "application/json")

	res, doErr := c.httpClient.Do(req)
	if doErr != nil {
		return "", fmt.Errorf("speech: request failed: %w", doErr)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return "", &HTTPStatusError{
			StatusCode: res.StatusCode,
			URL:        recognizeURL(c.baseURL, "***"),
			Body:       string(buf),
		}
	}

	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("speech: read response body: %w", err)
	}

	var payload recognizeResponse
	if decErr := json.Unmarshal(raw, &payload); decErr != nil {
		return "", fmt.Errorf("speech: decode response: %w", decErr)
	}
	if len(payload.Results) == 0 || len(payload.Results[0].Alternatives) == 0 {
		return "", errors.New("speech: no speech detected in audio")
	}

	return strings.TrimSpace(payload.Results[0].Alternatives[0].Transcript), nil
}

func fetchAPIKeyFromParamStore(ctx context.Context, getter Getter, name string) (string, error) {
	raw, err := getter.GetParameter(ctx, name)
	if err != nil {
		return "", fmt.Errorf("speech: fetch key from paramstore: %w", err)
	}
	var kp keyPayload
	if err := json.Unmarshal([]byte(raw), &kp); err != nil {
		return "", fmt.Errorf("speech: unmarshal paramstore key value as JSON: %w", err)
	}
	if kp.Key == "" {
		return "", errors.New("speech: API key is empty")
	}
	return kp.Key, nil
}
