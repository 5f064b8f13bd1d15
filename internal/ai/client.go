// Package ai holds the outbound AI boundary: question generation and
// handwritten-answer evaluation via Gemini, and code execution via the
// sandbox runner. Services depend on the interfaces here, never on the
// concrete clients, so tests can swap in fakes.
package ai

import "context"

// GeneratedMCQ is one model-produced multiple-choice question, already
// normalized: Options has exactly the requested length and contains AnswerKey.
type GeneratedMCQ struct {
	Text      string   `json:"question"`
	Options   []string `json:"options"`
	AnswerKey string   `json:"answer"`
}

// HandwrittenEval carries one handwritten answer image to the evaluator.
type HandwrittenEval struct {
	QuestionText string
	AnswerKey    *string // optional reference answer
	Image        []byte
	MimeType     string
	MaxGrade     float64
}

// EvalResult is the evaluator's verdict. Score is always within
// [0, MaxGrade]; the clients clamp before returning.
type EvalResult struct {
	Score         float64 `json:"score"`
	Feedback      string  `json:"feedback"`
	ExtractedText string  `json:"extracted_text"`
}

// GenerateRequest parameterizes one MCQ generation call.
type GenerateRequest struct {
	Material    string
	Count       int
	OptionCount int
	Difficulty  string // "easy", "medium", "hard"
}

// Client generates questions and evaluates handwritten answers.
type Client interface {
	GenerateMCQs(ctx context.Context, req GenerateRequest) ([]GeneratedMCQ, error)
	EvaluateHandwritten(ctx context.Context, eval HandwrittenEval) (*EvalResult, error)
}

// CodeRun is one sandbox execution request.
type CodeRun struct {
	Language string `json:"language"`
	Code     string `json:"code"`
	Stdin    string `json:"stdin"`
}

// RunResult is the sandbox outcome for one run.
type RunResult struct {
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	ExitCode int    `json:"exit_code"`
	TimedOut bool   `json:"timed_out"`
}

// CodeRunner executes untrusted code in the external sandbox.
type CodeRunner interface {
	RunCode(ctx context.Context, run CodeRun) (*RunResult, error)
}
