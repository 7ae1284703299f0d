// Package mcp implements the Model Context Protocol server for Thor.
//
// It exposes the workout, nutrition, and health capabilities as MCP tools
// so the agent orchestrator (and any MCP-compatible client) can read and
// write the same data as the HTTP API.
package mcp

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/thorfit/thor/internal/model"
)

// Catalog serves the plan's canonical exercises.
type Catalog interface {
	PlanID() uuid.UUID
	DayExercises(ctx context.Context, planID uuid.UUID, dayOfWeek int) ([]model.Exercise, error)
}

// Ingestor logs freeform workout text.
type Ingestor interface {
	LogWorkoutText(ctx context.Context, text string, dayOfWeek int, logDate time.Time) (model.IngestResult, error)
}

// Store is the persistence surface the tool handlers use.
// *storage.DB implements it.
type Store interface {
	RecentExerciseLogs(ctx context.Context, planID uuid.UUID, limit int) ([]model.ExerciseLog, error)
	InsertMeal(ctx context.Context, mealType, description string, calories *int, mealDate time.Time) (model.Meal, error)
	MealsByDate(ctx context.Context, mealDate time.Time) ([]model.Meal, error)
	InsertHealthEvent(ctx context.Context, eventType, description string, occurredAt time.Time) (model.HealthEvent, error)
	RecentHealthEvents(ctx context.Context, eventType string, limit int) ([]model.HealthEvent, error)
	DeleteHealthEvent(ctx context.Context, id uuid.UUID) error
	DeleteLatestHealthEvent(ctx context.Context, eventType string) (model.HealthEvent, error)
	DailySummaryByDate(ctx context.Context, summaryDate time.Time) (model.DailySummary, error)
}

// Server wraps the MCP server with Thor's service layer.
type Server struct {
	mcpServer *mcpserver.MCPServer
	catalog   Catalog
	ingestor  Ingestor
	store     Store
	now       func() time.Time
	logger    *slog.Logger
}

// New creates and configures a new MCP server with all tools registered.
func New(catalog Catalog, ingestor Ingestor, store Store, logger *slog.Logger) *Server {
	s := &Server{
		catalog:  catalog,
		ingestor: ingestor,
		store:    store,
		now:      func() time.Time { return time.Now().UTC() },
		logger:   logger,
	}

	s.mcpServer = mcpserver.NewMCPServer(
		"thor",
		"0.1.0",
		mcpserver.WithToolCapabilities(true),
	)

	s.registerTools()
	return s
}

// MCPServer returns the underlying mcp-go server for transport setup.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcpServer
}

func errorResult(msg string) *mcplib.CallToolResult {
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{
			mcplib.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}

func textResult(text string) *mcplib.CallToolResult {
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{
			mcplib.TextContent{Type: "text", Text: text},
		},
	}
}
