package ai

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)

// RepairJSON extracts the JSON payload from a model response. Models wrap
// answers in markdown fences, prepend prose, and leave trailing commas;
// all three are stripped before unmarshalling.
func RepairJSON(raw string) string {
	s := strings.TrimSpace(raw)

	// Strip markdown code fences
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	// Cut to the outermost JSON array or object
	start := strings.IndexAny(s, "[{")
	if start < 0 {
		return s
	}
	var end int
	if s[start] == '[' {
		end = strings.LastIndex(s, "]")
	} else {
		end = strings.LastIndex(s, "}")
	}
	if end > start {
		s = s[start : end+1]
	}

	// Remove trailing commas before closing brackets
	s = trailingCommaRe.ReplaceAllString(s, "$1")

	return s
}

// ParseGeneratedMCQs unmarshals a repaired model response into questions.
func ParseGeneratedMCQs(raw string) ([]GeneratedMCQ, error) {
	repaired := RepairJSON(raw)

	var questions []GeneratedMCQ
	if err := json.Unmarshal([]byte(repaired), &questions); err != nil {
		return nil, fmt.Errorf("failed to parse generated questions: %w", err)
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("model returned no questions")
	}

	return questions, nil
}

// CoerceOptions forces a generated question's options to exactly want
// entries while keeping the answer key reachable:
//   - too many: truncate to the first want options; if the answer key was
//     among the dropped ones, it replaces the last kept slot
//   - too few: pad with synthetic "Option N" placeholders
//
// Returns an error when the answer key is empty or absent entirely.
func CoerceOptions(q *GeneratedMCQ, want int) error {
	if q.AnswerKey == "" {
		return fmt.Errorf("generated question has no answer key")
	}

	found := false
	for _, opt := range q.Options {
		if opt == q.AnswerKey {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("answer key %q not present in options", q.AnswerKey)
	}

	if len(q.Options) > want {
		kept := q.Options[:want]
		keyKept := false
		for _, opt := range kept {
			if opt == q.AnswerKey {
				keyKept = true
				break
			}
		}
		if !keyKept {
			kept[want-1] = q.AnswerKey
		}
		q.Options = kept
		return nil
	}

	for i := len(q.Options); i < want; i++ {
		q.Options = append(q.Options, fmt.Sprintf("Option %d", i+1))
	}

	return nil
}
