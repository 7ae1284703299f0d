package thor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Config holds the settings needed to construct a Client.
type Config struct {
	// BaseURL is the root URL of the Thor server (e.g. "http://localhost:8080").
	BaseURL string

	// AdminKey authenticates the admin-only endpoints (summary run,
	// LLM config). Optional — leave empty for the user-facing surface.
	AdminKey string

	// HTTPClient is an optional custom HTTP client. If nil, a default client
	// with a 60-second timeout is used (chat turns can take a while on
	// local models).
	HTTPClient *http.Client

	// Timeout applies to individual API requests. Defaults to 60 seconds.
	Timeout time.Duration
}

// Client is an HTTP client for the Thor API.
// All methods are safe for concurrent use.
type Client struct {
	baseURL  string
	adminKey string
	client   *http.Client
}

// NewClient creates a Client from the given configuration.
// Returns an error if BaseURL is empty.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("thor: BaseURL is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 60 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		adminKey: cfg.AdminKey,
		client:   httpClient,
	}, nil
}

// Chat sends a conversational turn. sessionID may be empty — the server
// mints a new session and returns its ID in the response.
func (c *Client) Chat(ctx context.Context, message, sessionID string) (*ChatResponse, error) {
	body := map[string]any{"message": message}
	if sessionID != "" {
		body["sessionId"] = sessionID
	}
	var resp ChatResponse
	if err := c.postRaw(ctx, "/chat", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ResetSession clears the stored conversation history for a session.
func (c *Client) ResetSession(ctx context.Context, sessionID string) (*ChatResponse, error) {
	body := map[string]any{"sessionId": sessionID, "reset": true}
	var resp ChatResponse
	if err := c.postRaw(ctx, "/chat", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Route classifies an utterance deterministically and executes the matched
// intent. mode optionally pins the domain ("nutrition", "health",
// "overview", "thor-default-workout").
func (c *Client) Route(ctx context.Context, text, mode string) (*RouteResponse, error) {
	body := map[string]any{"text": text}
	if mode != "" {
		body["mode"] = mode
	}
	var resp RouteResponse
	if err := c.postRaw(ctx, "/route", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// IngestWorkout parses freeform workout text and logs the matched
// exercises. dayOfWeek 0 means today.
func (c *Client) IngestWorkout(ctx context.Context, text string, dayOfWeek int) (*IngestResult, error) {
	body := map[string]any{"text": text}
	if dayOfWeek != 0 {
		body["day_of_week"] = dayOfWeek
	}
	var resp IngestResult
	if err := c.post(ctx, "/v1/workouts/ingest", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TodayExercises returns today's scheduled exercises.
func (c *Client) TodayExercises(ctx context.Context) (*DayExercises, error) {
	var resp DayExercises
	if err := c.get(ctx, "/v1/exercises/today", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DayOfWeekExercises returns the scheduled exercises for a day of week
// (1=Monday .. 7=Sunday).
func (c *Client) DayOfWeekExercises(ctx context.Context, day int) (*DayExercises, error) {
	var resp DayExercises
	if err := c.get(ctx, "/v1/exercises/"+strconv.Itoa(day), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DailySummary returns the stored recap for a date (zero time means today).
// Returns an error satisfying IsNotFound when no summary exists yet.
func (c *Client) DailySummary(ctx context.Context, date time.Time) (*DailySummary, error) {
	path := "/v1/summary/daily"
	if !date.IsZero() {
		path += "?date=" + date.Format("2006-01-02")
	}
	var resp DailySummary
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RunSummary generates (or regenerates) today's summary. Requires AdminKey.
func (c *Client) RunSummary(ctx context.Context) (*DailySummary, error) {
	var resp DailySummary
	if err := c.post(ctx, "/v1/summary/run", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Health checks the server's health status.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.getRaw(ctx, "/health", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ---------------------------------------------------------------------------
// HTTP transport
// ---------------------------------------------------------------------------

// apiEnvelope is the server's standard response wrapper for /v1 endpoints.
// The conversational surface (/chat, /route, /health) responds unwrapped.
type apiEnvelope struct {
	Data json.RawMessage `json:"data"`
}

// apiErrorEnvelope is the server's standard error response wrapper.
type apiErrorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) post(ctx context.Context, path string, body, dest any) error {
	return c.do(ctx, http.MethodPost, path, body, dest, true)
}

func (c *Client) get(ctx context.Context, path string, dest any) error {
	return c.do(ctx, http.MethodGet, path, nil, dest, true)
}

func (c *Client) postRaw(ctx context.Context, path string, body, dest any) error {
	return c.do(ctx, http.MethodPost, path, body, dest, false)
}

func (c *Client) getRaw(ctx context.Context, path string, dest any) error {
	return c.do(ctx, http.MethodGet, path, nil, dest, false)
}

func (c *Client) do(ctx context.Context, method, path string, body, dest any, enveloped bool) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("thor: marshal request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("thor: create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.adminKey != "" {
		req.Header.Set("X-Admin-Key", c.adminKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("thor: %s %s: %w", method, req.URL.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("thor: read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return parseErrorResponse(resp.StatusCode, bodyBytes)
	}
	if resp.StatusCode == http.StatusNoContent || dest == nil {
		return nil
	}

	payload := bodyBytes
	if enveloped {
		var envelope apiEnvelope
		if err := json.Unmarshal(bodyBytes, &envelope); err != nil {
			return fmt.Errorf("thor: decode response envelope: %w", err)
		}
		if envelope.Data == nil {
			return fmt.Errorf("thor: response envelope has no data")
		}
		payload = envelope.Data
	}

	if err := json.Unmarshal(payload, dest); err != nil {
		return fmt.Errorf("thor: decode response: %w", err)
	}
	return nil
}

func parseErrorResponse(statusCode int, body []byte) error {
	var envelope apiErrorEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		return &Error{
			StatusCode: statusCode,
			Code:       envelope.Error.Code,
			Message:    envelope.Error.Message,
		}
	}
	return &Error{
		StatusCode: statusCode,
		Code:       "unknown",
		Message:    strings.TrimSpace(string(body)),
	}
}
