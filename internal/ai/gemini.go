package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/SAP-F-2025/lms-service/internal/utils"
)

const (
	// generateAttempts bounds the generation retry loop. Each retry halves
	// the source material: oversized contexts are the usual failure cause.
	generateAttempts = 4

	minMaterialLen = 200
)

// GeminiClient implements Client on top of the Gemini API.
type GeminiClient struct {
	model  *genai.GenerativeModel
	logger utils.Logger
}

func NewGeminiClient(ctx context.Context, apiKey, modelName string, logger utils.Logger) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiClient{
		model:  client.GenerativeModel(modelName),
		logger: logger.With("component", "gemini"),
	}, nil
}

// GenerateMCQs asks the model for multiple-choice questions built from the
// given material. Malformed responses are repaired and re-validated; on
// failure the call retries with the material cut in half, up to four attempts.
func (g *GeminiClient) GenerateMCQs(ctx context.Context, req GenerateRequest) ([]GeneratedMCQ, error) {
	material := req.Material
	if strings.TrimSpace(material) == "" {
		return nil, fmt.Errorf("generation material is empty")
	}
	if req.Count <= 0 {
		return nil, fmt.Errorf("question count must be positive, got %d", req.Count)
	}
	if req.OptionCount < 2 {
		return nil, fmt.Errorf("option count must be at least 2, got %d", req.OptionCount)
	}

	var lastErr error
	for attempt := 0; attempt < generateAttempts; attempt++ {
		prompt := buildGeneratePrompt(material, req.Count, req.OptionCount, req.Difficulty)

		resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
		if err != nil {
			lastErr = fmt.Errorf("generation request failed: %w", err)
			g.logger.Warn("MCQ generation attempt failed", "attempt", attempt+1, "error", err)
			material = halveMaterial(material)
			continue
		}

		questions, err := ParseGeneratedMCQs(extractText(resp))
		if err != nil {
			lastErr = err
			g.logger.Warn("MCQ generation returned unparseable payload", "attempt", attempt+1, "error", err)
			material = halveMaterial(material)
			continue
		}

		valid := questions[:0]
		for i := range questions {
			if err := CoerceOptions(&questions[i], req.OptionCount); err != nil {
				g.logger.Warn("Dropping malformed generated question", "error", err)
				continue
			}
			valid = append(valid, questions[i])
		}

		if len(valid) < req.Count {
			lastErr = fmt.Errorf("model produced %d usable questions, need %d", len(valid), req.Count)
			material = halveMaterial(material)
			continue
		}

		return valid[:req.Count], nil
	}

	return nil, fmt.Errorf("MCQ generation failed after %d attempts: %w", generateAttempts, lastErr)
}

// EvaluateHandwritten sends the answer image plus grading instructions to the
// model and clamps the returned score into [0, MaxGrade].
func (g *GeminiClient) EvaluateHandwritten(ctx context.Context, eval HandwrittenEval) (*EvalResult, error) {
	if len(eval.Image) == 0 {
		return nil, fmt.Errorf("handwritten evaluation needs an image")
	}
	if eval.MaxGrade <= 0 {
		return nil, fmt.Errorf("max grade must be positive, got %v", eval.MaxGrade)
	}

	mimeType := strings.TrimPrefix(eval.MimeType, "image/")
	parts := []genai.Part{
		genai.ImageData(mimeType, eval.Image),
		genai.Text(buildEvalPrompt(eval)),
	}

	resp, err := g.model.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, fmt.Errorf("handwritten evaluation request failed: %w", err)
	}

	var result EvalResult
	if err := json.Unmarshal([]byte(RepairJSON(extractText(resp))), &result); err != nil {
		return nil, fmt.Errorf("failed to parse evaluation response: %w", err)
	}

	if result.Score < 0 {
		result.Score = 0
	}
	if result.Score > eval.MaxGrade {
		result.Score = eval.MaxGrade
	}

	return &result, nil
}

func buildGeneratePrompt(material string, count, optionCount int, difficulty string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate exactly %d multiple-choice questions from the study material below.\n", count)
	fmt.Fprintf(&b, "Each question must have exactly %d options, one of which is the correct answer.\n", optionCount)
	if difficulty != "" {
		fmt.Fprintf(&b, "Target difficulty: %s.\n", difficulty)
	}
	b.WriteString("Respond with a JSON array only, no prose, in this shape:\n")
	b.WriteString(`[{"question": "...", "options": ["...", "..."], "answer": "..."}]` + "\n")
	b.WriteString("The \"answer\" value must be copied verbatim from \"options\".\n\n")
	b.WriteString("Study material:\n")
	b.WriteString(material)
	return b.String()
}

func buildEvalPrompt(eval HandwrittenEval) string {
	var b strings.Builder
	b.WriteString("You are grading a student's handwritten answer shown in the attached image.\n")
	fmt.Fprintf(&b, "Question: %s\n", eval.QuestionText)
	if eval.AnswerKey != nil && *eval.AnswerKey != "" {
		fmt.Fprintf(&b, "Reference answer: %s\n", *eval.AnswerKey)
	}
	fmt.Fprintf(&b, "Maximum score: %v\n", eval.MaxGrade)
	b.WriteString("First transcribe the handwriting, then grade it against the question")
	b.WriteString(" and reference answer if given.\n")
	b.WriteString("Respond with a JSON object only, no prose:\n")
	b.WriteString(`{"score": 0.0, "feedback": "...", "extracted_text": "..."}`)
	return b.String()
}

// extractText concatenates the text parts of a model response.
func extractText(resp *genai.GenerateContentResponse) string {
	var b strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if txt, ok := part.(genai.Text); ok {
				b.WriteString(string(txt))
			}
		}
	}
	return b.String()
}

func halveMaterial(material string) string {
	if len(material) <= minMaterialLen {
		return material
	}
	return material[:len(material)/2]
}
