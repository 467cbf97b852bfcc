package autofill

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	defaultBaseURL     = "https://openrouter.ai/api/v1/chat/completions"
	defaultHTTPTimeout = 30 * time.Second
)

// errNoContent marks a reply that parsed but carried no text.
var errNoContent = errors.New("completion returned no content")

// Config captures the runtime settings required to reach the completion endpoint.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	Referer        string
	Title          string
	TimeoutSeconds int
}

// Request is a single structured completion: a system and a user message
// plus the shape the answer must take.
type Request struct {
	System string
	User   string
	Format ResponseFormat
}

// Client talks to an OpenAI-compatible chat completion endpoint.
type Client struct {
	cfg   Config
	http  *http.Client
	retry retryPolicy
	sleep func(time.Duration)
}

// Option customizes the client.
type Option func(*Client)

// WithRetry sets how many attempts are made and the backoff bounds between
// them. Attempts below one mean a single attempt.
func WithRetry(attempts int, base, limit time.Duration) Option {
	return func(c *Client) {
		c.retry = retryPolicy{attempts: max(attempts, 1), base: base, limit: limit}
	}
}

// WithSleeper replaces the timer used between attempts.
func WithSleeper(sleep func(time.Duration)) Option {
	return func(c *Client) {
		c.sleep = sleep
	}
}

// NewClient constructs a client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	cfg.Model = strings.TrimSpace(cfg.Model)
	cfg.Referer = strings.TrimSpace(cfg.Referer)
	cfg.Title = strings.TrimSpace(cfg.Title)
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	c := &Client{
		cfg:   cfg,
		http:  &http.Client{Timeout: timeout},
		retry: retryPolicy{attempts: 3, base: time.Second, limit: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type chatRequest struct {
	Model          string         `json:"model,omitempty"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    float64        `json:"temperature"`
	ResponseFormat ResponseFormat `json:"response_format"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
			Refusal string `json:"refusal"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends req and returns the text of the first non-empty choice.
// Timeouts, 408, 429, 5xx and empty replies are retried; a Retry-After
// header overrides the backoff.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	req.System = strings.TrimSpace(req.System)
	req.User = strings.TrimSpace(req.User)
	if req.System == "" || req.User == "" {
		return "", errors.New("complete: system and user prompts required")
	}
	if c.cfg.APIKey == "" {
		return "", ErrNotConfigured
	}
	if req.Format.Type == "" {
		req.Format = JSONObjectFormat
	}
	body, err := json.Marshal(chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.User},
		},
		ResponseFormat: req.Format,
	})
	if err != nil {
		return "", fmt.Errorf("complete: encode request: %w", err)
	}

	var lastErr error
	attempt := 0
	for attempt < c.retry.attempts {
		if attempt > 0 {
			if err := c.pause(ctx, c.retry.wait(lastErr, attempt)); err != nil {
				return "", err
			}
		}
		attempt++
		content, err := c.post(ctx, body)
		if err == nil {
			return content, nil
		}
		lastErr = err
		if !retryable(ctx, err) {
			break
		}
	}
	if attempt > 1 {
		return "", fmt.Errorf("completion failed after %d attempts: %w", attempt, lastErr)
	}
	return "", lastErr
}

func (c *Client) post(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("completion request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.Referer != "" {
		req.Header.Set("HTTP-Referer", c.cfg.Referer)
	}
	if c.cfg.Title != "" {
		req.Header.Set("X-Title", c.cfg.Title)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion request: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("completion request: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		retryAfter, _ := parseRetryAfter(resp.Header.Get("Retry-After"))
		return "", &statusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(raw)), RetryAfter: retryAfter}
	}

	var reply chatResponse
	if err := json.Unmarshal(raw, &reply); err != nil {
		return "", fmt.Errorf("completion request: decode response: %w", err)
	}
	if reply.Error != nil {
		return "", fmt.Errorf("completion request: api error: %s", strings.TrimSpace(reply.Error.Message))
	}
	finish := ""
	for _, choice := range reply.Choices {
		if text := strings.TrimSpace(choice.Message.Content); text != "" {
			return text, nil
		}
		if refusal := strings.TrimSpace(choice.Message.Refusal); refusal != "" {
			return "", fmt.Errorf("completion refused: %s", refusal)
		}
		if finish == "" {
			finish = choice.FinishReason
		}
	}
	return "", fmt.Errorf("%w (choices=%d, finish_reason=%q)", errNoContent, len(reply.Choices), finish)
}

func (c *Client) pause(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}
	if c.sleep != nil {
		c.sleep(d)
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// statusError is a non-2xx reply from the endpoint.
type statusError struct {
	Code       int
	Body       string
	RetryAfter time.Duration
}

func (e *statusError) Error() string {
	return fmt.Sprintf("completion request: http %d: %s", e.Code, e.Body)
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, errNoContent) {
		return true
	}
	var status *statusError
	if errors.As(err, &status) {
		return status.Code == http.StatusRequestTimeout ||
			status.Code == http.StatusTooManyRequests ||
			status.Code >= http.StatusInternalServerError
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

type retryPolicy struct {
	attempts int
	base     time.Duration
	limit    time.Duration
}

// wait returns the pause before the attempt following failed attempt n.
func (p retryPolicy) wait(err error, n int) time.Duration {
	var status *statusError
	if errors.As(err, &status) && status.RetryAfter > 0 {
		return p.clamp(status.RetryAfter)
	}
	return p.backoff(n)
}

// backoff doubles from the base delay: 1 -> base, 2 -> base*2, capped at limit.
func (p retryPolicy) backoff(n int) time.Duration {
	d := p.base
	for i := 1; i < n && d < p.limit; i++ {
		d *= 2
	}
	return p.clamp(d)
}

func (p retryPolicy) clamp(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	if p.limit > 0 && d > p.limit {
		return p.limit
	}
	return d
}

func parseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second, seconds >= 0
	}
	if when, err := http.ParseTime(value); err == nil {
		if d := time.Until(when); d > 0 {
			return d, true
		}
	}
	return 0, false
}
