package agent

import (
	"strings"

	"github.com/thorfit/thor/internal/llm"
)

// queryKeywords mark read-only questions that a small local model handles
// well. mutatingKeywords override them: anything that writes data goes to
// the complex tier regardless of phrasing.
var (
	queryKeywords = []string{
		"what", "show", "get", "list", "display", "tell me",
		"how many", "which", "when", "where", "summary", "history",
	}
	mutatingKeywords = []string{
		"log", "add", "record", "track", "ate", "did", "completed",
	}
)

// classifyTier picks the LLM tier for a message. Simple requires a query
// keyword and no mutating keyword; everything else is complex.
func classifyTier(message string) llm.Tier {
	lower := strings.ToLower(message)
	for _, kw := range mutatingKeywords {
		if containsWord(lower, kw) {
			return llm.TierComplex
		}
	}
	for _, kw := range queryKeywords {
		if strings.Contains(lower, kw) {
			return llm.TierSimple
		}
	}
	return llm.TierComplex
}

// containsWord reports whether kw appears in s on word boundaries, so
// "log" does not fire on "catalog" or "login".
func containsWord(s, kw string) bool {
	idx := 0
	for {
		i := strings.Index(s[idx:], kw)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(kw)
		leftOK := start == 0 || !isWordChar(s[start-1])
		rightOK := end == len(s) || !isWordChar(s[end])
		if leftOK && rightOK {
			return true
		}
		idx = start + 1
	}
}

func isWordChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '_'
}
