package thor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := NewClient(Config{BaseURL: srv.URL, AdminKey: "shh"})
	require.NoError(t, err)
	return srv, client
}

func TestNewClient_RequiresBaseURL(t *testing.T) {
	_, err := NewClient(Config{})
	assert.Error(t, err)
}

func TestChat(t *testing.T) {
	_, client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "log bench 3x10", body["message"])
		assert.Equal(t, "abc", body["sessionId"])

		json.NewEncoder(w).Encode(ChatResponse{
			Reply: "Logged.", SessionID: "abc", Model: "llama3.2", Provider: "ollama",
		})
	})

	resp, err := client.Chat(context.Background(), "log bench 3x10", "abc")
	require.NoError(t, err)
	assert.Equal(t, "Logged.", resp.Reply)
	assert.Equal(t, "ollama", resp.Provider)
}

func TestRoute(t *testing.T) {
	_, client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/route", r.URL.Path)
		json.NewEncoder(w).Encode(RouteResponse{
			Agent: "workout", Intent: "get_plan",
			Message: "Rest day! No exercises scheduled.",
			Model:   "none", Provider: "heuristic",
		})
	})

	resp, err := client.Route(context.Background(), "what's my workout today", "")
	require.NoError(t, err)
	assert.Equal(t, "workout", resp.Agent)
	assert.Equal(t, "heuristic", resp.Provider)
}

func TestIngestWorkout_UnwrapsEnvelope(t *testing.T) {
	_, client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/workouts/ingest", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"data": IngestResult{Items: []IngestItem{{Exercise: "Floor Press", Status: "logged"}}},
			"meta": map[string]any{"request_id": "r1"},
		})
	})

	result, err := client.IngestWorkout(context.Background(), "floor press 3x10", 2)
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, "logged", result.Items[0].Status)
}

func TestDailySummary_NotFound(t *testing.T) {
	_, client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"code": "not_found", "message": "no summary for that date"},
		})
	})

	_, err := client.DailySummary(context.Background(), time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestRunSummary_SendsAdminKey(t *testing.T) {
	_, client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "shh", r.Header.Get("X-Admin-Key"))
		json.NewEncoder(w).Encode(map[string]any{
			"data": DailySummary{Content: "Good day."},
		})
	})

	summary, err := client.RunSummary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Good day.", summary.Content)
}

func TestHealth(t *testing.T) {
	_, client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(HealthResponse{Status: "ok", Version: "1.2.3"})
	})

	h, err := client.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", h.Status)
}

func TestErrorWithoutEnvelope(t *testing.T) {
	_, client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})

	_, err := client.Chat(context.Background(), "hi", "")
	require.Error(t, err)
	assert.True(t, IsUnavailable(err))
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "boom", apiErr.Message)
}
