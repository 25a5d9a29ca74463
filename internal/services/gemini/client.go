package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"foley/internal/config"
	"foley/internal/services"
	"foley/internal/session"
)

const (
	defaultHTTPTimeout    = 120 * time.Second
	defaultRetryAttempts  = 3
	defaultRetryBaseDelay = 1 * time.Second
	defaultRetryMaxDelay  = 10 * time.Second
)

// Client wraps the Gemini generateContent and embedContent endpoints.
type Client struct {
	cfg        config.Gemini
	httpClient *http.Client

	retryMaxAttempts int
	retryBaseDelay   time.Duration
	retryMaxDelay    time.Duration
	sleeper          func(time.Duration)
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

// WithRetryMaxAttempts overrides the default retry count.
func WithRetryMaxAttempts(attempts int) Option {
	return func(c *Client) {
		c.retryMaxAttempts = attempts
	}
}

// WithSleeper overrides how retry sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) {
		c.sleeper = sleeper
	}
}

// NewClient constructs a Gemini client using the supplied configuration.
func NewClient(cfg config.Gemini, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg:              cfg,
		httpClient:       &http.Client{Timeout: timeout},
		retryMaxAttempts: defaultRetryAttempts,
		retryBaseDelay:   defaultRetryBaseDelay,
		retryMaxDelay:    defaultRetryMaxDelay,
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: timeout}
	}
	return client
}

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type generationConfig struct {
	Temperature      float64 `json:"temperature"`
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	Error *apiError `json:"error"`
}

type embedRequest struct {
	Content content `json:"content"`
}

type embedResponse struct {
	Embedding struct {
		Values []float32 `json:"values"`
	} `json:"embedding"`
	Error *apiError `json:"error"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

type httpStatusError struct {
	StatusCode int
	Body       string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("gemini request: http %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

// DetectEvents analyzes a video and returns the timestamped sound events it
// contains, in playback order, capped at the configured maximum.
func (c *Client) DetectEvents(ctx context.Context, videoBytes []byte, mimeType string) ([]session.DetectedEvent, error) {
	if len(videoBytes) == 0 {
		return nil, services.Wrap(services.ErrValidation, "detection", "detect events", "video data is empty", nil)
	}
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "detection", "detect events", "gemini api key is not configured", nil)
	}

	parts := []part{
		{InlineData: &inlineData{
			MimeType: mimeType,
			Data:     base64.StdEncoding.EncodeToString(videoBytes),
		}},
		{Text: detectionPrompt(c.maxEvents())},
	}

	raw, err := c.generateJSON(ctx, "detect events", parts)
	if err != nil {
		return nil, services.Wrap(services.ErrProvider, "detection", "detect events", "video analysis failed", err)
	}

	var parsed struct {
		Events []session.DetectedEvent `json:"events"`
	}
	if err := DecodeModelJSON(raw, &parsed); err != nil {
		return nil, services.Wrap(services.ErrValidation, "detection", "detect events", "parse detection payload", err)
	}

	events := parsed.Events
	if len(events) > c.maxEvents() {
		events = events[:c.maxEvents()]
	}
	for i := range events {
		events[i].Description = strings.TrimSpace(events[i].Description)
		if events[i].Confidence < 0 {
			events[i].Confidence = 0
		}
		if events[i].Confidence > 1 {
			events[i].Confidence = 1
		}
	}
	return events, nil
}

// DirectEvents expands each event's description into a three-layer audio
// intent under the given style label. The provider must return exactly one
// triple per input event or the call fails.
func (c *Client) DirectEvents(ctx context.Context, events []*session.SoundEvent, styleLabel string) ([]session.Layers, error) {
	if len(events) == 0 {
		return nil, nil
	}
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "direction", "direct events", "gemini api key is not configured", nil)
	}

	parts := []part{{Text: directionPrompt(events, styleLabel)}}
	raw, err := c.generateJSON(ctx, "direct events", parts)
	if err != nil {
		return nil, services.Wrap(services.ErrProvider, "direction", "direct events", "creative direction failed", err)
	}

	var parsed struct {
		Directions []session.Layers `json:"directions"`
	}
	if err := DecodeModelJSON(raw, &parsed); err != nil {
		return nil, services.Wrap(services.ErrValidation, "direction", "direct events", "parse direction payload", err)
	}
	if len(parsed.Directions) != len(events) {
		return nil, services.Wrap(
			services.ErrValidation,
			"direction",
			"direct events",
			fmt.Sprintf("expected %d direction triples, got %d", len(events), len(parsed.Directions)),
			nil,
		)
	}
	for i := range parsed.Directions {
		parsed.Directions[i].Spot = strings.TrimSpace(parsed.Directions[i].Spot)
		parsed.Directions[i].Texture = strings.TrimSpace(parsed.Directions[i].Texture)
		parsed.Directions[i].Vibe = strings.TrimSpace(parsed.Directions[i].Vibe)
	}
	return parsed.Directions, nil
}

// ReviewEvents judges each event's produced audio against its intent and
// returns one verdict per input event, aligned by index.
func (c *Client) ReviewEvents(ctx context.Context, events []*session.SoundEvent, styleLabel string) ([]session.Verdict, error) {
	if len(events) == 0 {
		return nil, nil
	}
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "review", "review events", "gemini api key is not configured", nil)
	}

	parts := []part{{Text: reviewPrompt(events, styleLabel)}}
	raw, err := c.generateJSON(ctx, "review events", parts)
	if err != nil {
		return nil, services.Wrap(services.ErrProvider, "review", "review events", "quality review failed", err)
	}

	var parsed struct {
		Verdicts []session.Verdict `json:"verdicts"`
	}
	if err := DecodeModelJSON(raw, &parsed); err != nil {
		return nil, services.Wrap(services.ErrValidation, "review", "review events", "parse review payload", err)
	}
	if len(parsed.Verdicts) != len(events) {
		return nil, services.Wrap(
			services.ErrValidation,
			"review",
			"review events",
			fmt.Sprintf("expected %d verdicts, got %d", len(events), len(parsed.Verdicts)),
			nil,
		)
	}
	return parsed.Verdicts, nil
}

// Embed returns the embedding vector for the given text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("gemini embed: text required")
	}
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "embedding", "embed", "gemini api key is not configured", nil)
	}

	payload := embedRequest{Content: content{Parts: []part{{Text: text}}}}
	endpoint := fmt.Sprintf("%s/models/%s:embedContent", c.cfg.BaseURL, c.cfg.EmbeddingModel)

	body, err := c.postWithRetry(ctx, "embed", endpoint, payload)
	if err != nil {
		return nil, services.Wrap(services.ErrProvider, "embedding", "embed", "embedding request failed", err)
	}

	var parsed embedResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, services.Wrap(services.ErrValidation, "embedding", "embed", "decode embedding response", err)
	}
	if parsed.Error != nil {
		return nil, services.Wrap(services.ErrProvider, "embedding", "embed", parsed.Error.Message, nil)
	}
	if len(parsed.Embedding.Values) == 0 {
		return nil, services.Wrap(services.ErrValidation, "embedding", "embed", "empty embedding", nil)
	}
	return parsed.Embedding.Values, nil
}

// HealthCheck issues a minimal completion to verify the API key and model.
func (c *Client) HealthCheck(ctx context.Context) error {
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return errors.New("gemini health: api key required")
	}
	raw, err := c.generateJSON(ctx, "health", []part{{Text: `Respond with {"ok":true}`}})
	if err != nil {
		return err
	}
	var parsed struct {
		OK bool `json:"ok"`
	}
	if err := DecodeModelJSON(raw, &parsed); err != nil {
		return fmt.Errorf("gemini health: parse payload: %w", err)
	}
	if !parsed.OK {
		return errors.New("gemini health: unexpected response")
	}
	return nil
}

func (c *Client) maxEvents() int {
	if c.cfg.MaxEvents > 0 {
		return c.cfg.MaxEvents
	}
	return 20
}

func (c *Client) generateJSON(ctx context.Context, op string, parts []part) (string, error) {
	payload := generateRequest{
		Contents: []content{{Role: "user", Parts: parts}},
		GenerationConfig: &generationConfig{
			Temperature:      0,
			ResponseMimeType: "application/json",
		},
	}
	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.cfg.BaseURL, c.cfg.Model)

	body, err := c.postWithRetry(ctx, op, endpoint, payload)
	if err != nil {
		return "", err
	}

	var parsed generateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("%s: decode response: %w", op, err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("%s: api error: %s", op, strings.TrimSpace(parsed.Error.Message))
	}
	for _, candidate := range parsed.Candidates {
		for _, p := range candidate.Content.Parts {
			if text := strings.TrimSpace(p.Text); text != "" {
				return text, nil
			}
		}
	}
	return "", fmt.Errorf("%s: empty candidates", op)
}

func (c *Client) postWithRetry(ctx context.Context, op, endpoint string, payload any) ([]byte, error) {
	attempts := c.retryAttempts()
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		body, err := c.postOnce(ctx, endpoint, payload)
		if err == nil {
			return body, nil
		}

		delay, retry := c.retryDelay(ctx, err, attempt, attempts)
		if !retry {
			return nil, err
		}
		if sleepErr := c.sleep(ctx, delay); sleepErr != nil {
			return nil, sleepErr
		}
		lastErr = err
	}

	if lastErr == nil {
		lastErr = errors.New("unknown retry failure")
	}
	return nil, fmt.Errorf("%s: failed after %d attempts: %w", op, attempts, lastErr)
}

func (c *Client) postOnce(ctx context.Context, endpoint string, payload any) ([]byte, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("gemini request: encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("gemini request: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gemini request: http error: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("gemini request: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &httpStatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return body, nil
}

func (c *Client) retryAttempts() int {
	if c == nil || c.retryMaxAttempts <= 0 {
		return 1
	}
	return c.retryMaxAttempts
}

func (c *Client) retryDelay(ctx context.Context, err error, attempt, maxAttempts int) (time.Duration, bool) {
	if attempt >= maxAttempts || err == nil || ctx == nil || ctx.Err() != nil {
		return 0, false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return 0, false
	}

	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusRequestTimeout,
			statusErr.StatusCode == http.StatusTooManyRequests,
			statusErr.StatusCode >= http.StatusInternalServerError:
			return c.backoffDelay(attempt), true
		default:
			return 0, false
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return c.backoffDelay(attempt), true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return c.backoffDelay(attempt), true
	}

	return 0, false
}

func (c *Client) backoffDelay(attempt int) time.Duration {
	delay := c.retryBaseDelay
	for i := 1; i < attempt; i++ {
		if delay > c.retryMaxDelay/2 {
			return c.retryMaxDelay
		}
		delay *= 2
	}
	if delay > c.retryMaxDelay {
		return c.retryMaxDelay
	}
	return delay
}

func (c *Client) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if c.sleeper != nil {
		c.sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// DecodeModelJSON decodes JSON from a model response, handling common
// formatting quirks such as code fences around the payload.
func DecodeModelJSON(payload string, target any) error {
	trimmed := strings.TrimSpace(payload)
	if trimmed == "" {
		return errors.New("empty payload")
	}

	directErr := json.Unmarshal([]byte(trimmed), target)
	if directErr == nil {
		return nil
	}

	sanitized := sanitizeJSONPayload(trimmed)
	if sanitized == "" || sanitized == trimmed {
		return directErr
	}
	if err := json.Unmarshal([]byte(sanitized), target); err != nil {
		return err
	}
	return nil
}

func sanitizeJSONPayload(payload string) string {
	trimmed := strings.TrimSpace(stripCodeFenceBlock(payload))
	if trimmed == "" {
		return ""
	}
	if trimmed[0] == '{' || trimmed[0] == '[' {
		return trimmed
	}
	if start := strings.Index(trimmed, "{"); start >= 0 {
		if end := strings.LastIndex(trimmed, "}"); end > start {
			return strings.TrimSpace(trimmed[start : end+1])
		}
	}
	if start := strings.Index(trimmed, "["); start >= 0 {
		if end := strings.LastIndex(trimmed, "]"); end > start {
			return strings.TrimSpace(trimmed[start : end+1])
		}
	}
	return trimmed
}

func stripCodeFenceBlock(payload string) string {
	trimmed := strings.TrimSpace(payload)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	body := trimmed[3:]
	body = strings.TrimLeft(body, " \t\r\n")
	if len(body) >= 4 && strings.EqualFold(body[:4], "json") {
		body = body[4:]
		body = strings.TrimLeft(body, " \t\r\n")
	}
	if idx := strings.LastIndex(body, "```"); idx >= 0 {
		body = body[:idx]
	}
	return strings.TrimSpace(body)
}
