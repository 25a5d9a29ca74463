package elevenlabs

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

	"foley/internal/config"
	"foley/internal/services"
)

const (
	defaultHTTPTimeout = 60 * time.Second

	minDurationSeconds = 0.5
	maxDurationSeconds = 22.0
)

// Client wraps the ElevenLabs sound generation endpoint.
type Client struct {
	cfg        config.ElevenLabs
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs an ElevenLabs client using the supplied configuration.
func NewClient(cfg config.ElevenLabs, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

type soundRequest struct {
	Text            string  `json:"text"`
	DurationSeconds float64 `json:"duration_seconds,omitempty"`
}

type errorResponse struct {
	Detail struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	} `json:"detail"`
}

// Synthesize generates a sound effect for the given text prompt and returns
// the encoded audio bytes. A non-positive duration hint falls back to the
// configured default; hints outside the provider's supported range are
// clamped.
func (c *Client) Synthesize(ctx context.Context, text string, durationHint float64) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, services.Wrap(services.ErrValidation, "synthesis", "synthesize", "prompt is empty", nil)
	}
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "synthesis", "synthesize", "elevenlabs api key is not configured", nil)
	}

	duration := durationHint
	if duration <= 0 {
		duration = c.cfg.DefaultDurationSeconds
	}
	if duration < minDurationSeconds {
		duration = minDurationSeconds
	}
	if duration > maxDurationSeconds {
		duration = maxDurationSeconds
	}

	payload, err := json.Marshal(soundRequest{Text: text, DurationSeconds: duration})
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "synthesis", "synthesize", "encode request", err)
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/v1/sound-generation"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, services.Wrap(services.ErrProvider, "synthesis", "synthesize", "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("xi-api-key", c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, services.Wrap(services.ErrTransient, "synthesis", "synthesize", "http error", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "synthesis", "synthesize", "read response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, c.statusError(resp.StatusCode, body)
	}
	if len(body) == 0 {
		return nil, services.Wrap(services.ErrProvider, "synthesis", "synthesize", "empty audio response", nil)
	}
	return body, nil
}

// HealthCheck verifies the API key by hitting the user endpoint.
func (c *Client) HealthCheck(ctx context.Context) error {
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return errors.New("elevenlabs health: api key required")
	}
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/v1/user"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("elevenlabs health: build request: %w", err)
	}
	req.Header.Set("xi-api-key", c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("elevenlabs health: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("elevenlabs health: http %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) statusError(statusCode int, body []byte) error {
	detail := strings.TrimSpace(string(body))
	var parsed errorResponse
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Detail.Message != "" {
		detail = parsed.Detail.Message
	}

	message := fmt.Sprintf("http %d: %s", statusCode, detail)
	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return services.Wrap(services.ErrConfiguration, "synthesis", "synthesize", message, nil)
	case statusCode == http.StatusTooManyRequests || statusCode == http.StatusPaymentRequired:
		return services.Wrap(services.ErrTransient, "synthesis", "synthesize", message, nil)
	case statusCode >= http.StatusInternalServerError:
		return services.Wrap(services.ErrTransient, "synthesis", "synthesize", message, nil)
	default:
		return services.Wrap(services.ErrProvider, "synthesis", "synthesize", message, nil)
	}
}
