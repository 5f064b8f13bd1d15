package ai

import (
	"reflect"
	"testing"
)

func TestRepairJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "clean array untouched",
			input: `[{"question": "Q"}]`,
			want:  `[{"question": "Q"}]`,
		},
		{
			name:  "markdown fences stripped",
			input: "```json\n[{\"question\": \"Q\"}]\n```",
			want:  `[{"question": "Q"}]`,
		},
		{
			name:  "surrounding prose cut",
			input: "Here are your questions:\n[{\"question\": \"Q\"}]\nHope that helps!",
			want:  `[{"question": "Q"}]`,
		},
		{
			name:  "trailing comma removed",
			input: `{"score": 1, "feedback": "ok",}`,
			want:  `{"score": 1, "feedback": "ok"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RepairJSON(tt.input); got != tt.want {
				t.Errorf("RepairJSON() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseGeneratedMCQs(t *testing.T) {
	raw := "```json\n" + `[
		{"question": "2+2?", "options": ["3", "4"], "answer": "4"},
	]` + "\n```"

	questions, err := ParseGeneratedMCQs(raw)
	if err != nil {
		t.Fatalf("ParseGeneratedMCQs failed: %v", err)
	}
	if len(questions) != 1 {
		t.Fatalf("got %d questions, want 1", len(questions))
	}
	if questions[0].AnswerKey != "4" {
		t.Errorf("answer key = %q, want %q", questions[0].AnswerKey, "4")
	}
}

func TestParseGeneratedMCQs_Empty(t *testing.T) {
	if _, err := ParseGeneratedMCQs("[]"); err == nil {
		t.Error("expected error for empty question list")
	}
}

func TestCoerceOptions(t *testing.T) {
	tests := []struct {
		name    string
		q       GeneratedMCQ
		want    int
		wantErr bool
		wantOps []string
	}{
		{
			name:    "exact count untouched",
			q:       GeneratedMCQ{Options: []string{"a", "b", "c", "d"}, AnswerKey: "b"},
			want:    4,
			wantOps: []string{"a", "b", "c", "d"},
		},
		{
			name:    "too many truncated, key kept",
			q:       GeneratedMCQ{Options: []string{"a", "b", "c", "d", "e"}, AnswerKey: "b"},
			want:    4,
			wantOps: []string{"a", "b", "c", "d"},
		},
		{
			name:    "truncation would drop key, key replaces last slot",
			q:       GeneratedMCQ{Options: []string{"a", "b", "c", "d", "e"}, AnswerKey: "e"},
			want:    4,
			wantOps: []string{"a", "b", "c", "e"},
		},
		{
			name:    "too few padded with placeholders",
			q:       GeneratedMCQ{Options: []string{"a", "b"}, AnswerKey: "a"},
			want:    4,
			wantOps: []string{"a", "b", "Option 3", "Option 4"},
		},
		{
			name:    "missing answer key rejected",
			q:       GeneratedMCQ{Options: []string{"a", "b"}, AnswerKey: "z"},
			want:    4,
			wantErr: true,
		},
		{
			name:    "empty answer key rejected",
			q:       GeneratedMCQ{Options: []string{"a", "b"}},
			want:    4,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CoerceOptions(&tt.q, tt.want)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("CoerceOptions failed: %v", err)
			}
			if !reflect.DeepEqual(tt.q.Options, tt.wantOps) {
				t.Errorf("options = %v, want %v", tt.q.Options, tt.wantOps)
			}
			if len(tt.q.Options) != tt.want {
				t.Errorf("option count = %d, want %d", len(tt.q.Options), tt.want)
			}
		})
	}
}
