// Package parser converts free-form workout text into normalized ParsedLog
// records. The heavy lifting — recognizing exercise mentions and pulling out
// sets/reps/weight — is delegated to an LLM extraction capability; this
// package does the deterministic pre- and post-processing around it:
// unit normalization, catalog-constrained matching hints, variable-reps
// averaging, and the machine-readable notes echo.
package parser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/thorfit/thor/internal/model"
)

// ErrParseFailure indicates the extraction capability's raw output could not
// be parsed as the expected JSON shape. Callers must treat this as a
// non-retryable ingest failure for the submission; no partial results are
// salvaged.
var ErrParseFailure = errors.New("parser: extraction output is not valid JSON")

// ExtractedItem is one exercise mention as returned by the extraction
// capability, before post-processing.
type ExtractedItem struct {
	ExerciseFree  string   `json:"exercise_free"`
	ExerciseMatch string   `json:"exercise_match"`
	Sets          *int     `json:"sets"`
	RepsPerSet    *int     `json:"reps_per_set"`
	VariableReps  []int    `json:"variable_reps"`
	WeightLbs     *float64 `json:"weight_lbs"`
	Notes         *string  `json:"notes"`
}

// Extractor is the LLM extraction capability. It receives pre-normalized
// workout text plus the enumerated set of acceptable exercise names for the
// day, and returns the model's raw output, expected to be a JSON array of
// ExtractedItem.
type Extractor interface {
	ExtractWorkout(ctx context.Context, text string, allowed []string) (string, error)
}

// Catalog provides the canonical exercise list for a plan day.
type Catalog interface {
	DayExercises(ctx context.Context, planID uuid.UUID, dayOfWeek int) ([]model.Exercise, error)
}

// Parser is the freeform workout parser.
type Parser struct {
	catalog   Catalog
	extractor Extractor
	logger    *slog.Logger
}

// New creates a Parser.
func New(catalog Catalog, extractor Extractor, logger *slog.Logger) *Parser {
	return &Parser{catalog: catalog, extractor: extractor, logger: logger}
}

// Parse extracts ParsedLog records from free-form workout text.
// dayOfWeek is 1 (Monday) through 7 (Sunday).
//
// Items are emitted in the order their exercises appeared in the input;
// duplicates are never merged. Missing sets/reps are tolerated (the fields
// stay absent). Exercise names not on the day's list are still returned —
// validation and skip-on-unknown happen in the consuming ingest step.
func (p *Parser) Parse(ctx context.Context, text string, planID uuid.UUID, dayOfWeek int) ([]model.ParsedLog, error) {
	if dayOfWeek < 1 || dayOfWeek > 7 {
		return nil, fmt.Errorf("parser: day_of_week %d out of range [1,7]", dayOfWeek)
	}

	normalized := Normalize(text)

	exercises, err := p.catalog.DayExercises(ctx, planID, dayOfWeek)
	if err != nil {
		return nil, fmt.Errorf("parser: fetch day exercises: %w", err)
	}
	allowed := make([]string, len(exercises))
	for i, ex := range exercises {
		allowed[i] = ex.Name
	}

	raw, err := p.extractor.ExtractWorkout(ctx, normalized, allowed)
	if err != nil {
		return nil, fmt.Errorf("parser: extraction call: %w", err)
	}

	items, err := decodeItems(raw)
	if err != nil {
		p.logger.Warn("extraction output unparseable",
			"error", err, "output_len", len(raw))
		return nil, err
	}

	logs := make([]model.ParsedLog, 0, len(items))
	for _, item := range items {
		logs = append(logs, postProcess(item))
	}
	return logs, nil
}

// decodeItems parses the extraction model's raw output into items.
// Models occasionally wrap the array in a markdown code fence or an
// {"items": [...]} envelope; both are accepted. Anything else fails with
// ErrParseFailure.
func decodeItems(raw string) ([]ExtractedItem, error) {
	trimmed := strings.TrimSpace(stripCodeFence(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}

	var items []ExtractedItem
	if err := json.Unmarshal([]byte(trimmed), &items); err == nil {
		return items, nil
	}

	var envelope struct {
		Items []ExtractedItem `json:"items"`
	}
	if err := json.Unmarshal([]byte(trimmed), &envelope); err == nil {
		return envelope.Items, nil
	}

	return nil, ErrParseFailure
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return s
}

// postProcess applies the deterministic per-item rules:
//
//   - reps_per_set absent + non-empty variable_reps → reps = round(mean)
//   - non-empty variable_reps → notes start with "reps_per_set=[...]",
//     then "; " and the extraction's free-text notes when present
//   - exercise is exercise_match verbatim, falling back to the free mention
//     when the model produced no match candidate
func postProcess(item ExtractedItem) model.ParsedLog {
	log := model.ParsedLog{
		Exercise:  item.ExerciseMatch,
		Sets:      item.Sets,
		Reps:      item.RepsPerSet,
		WeightLbs: item.WeightLbs,
		Notes:     item.Notes,
	}
	if log.Exercise == "" {
		log.Exercise = item.ExerciseFree
	}

	if len(item.VariableReps) > 0 {
		if item.RepsPerSet == nil {
			mean := roundedMean(item.VariableReps)
			log.Reps = &mean
		}

		seq, _ := json.Marshal(item.VariableReps)
		notes := "reps_per_set=" + string(seq)
		if item.Notes != nil && strings.TrimSpace(*item.Notes) != "" {
			notes += "; " + strings.TrimSpace(*item.Notes)
		}
		log.Notes = &notes
	}

	return log
}

func roundedMean(values []int) int {
	sum := 0
	for _, v := range values {
		sum += v
	}
	return int(math.Round(float64(sum) / float64(len(values))))
}
