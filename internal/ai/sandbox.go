package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/SAP-F-2025/lms-service/internal/utils"
)

// SandboxClient implements CodeRunner against the external code runner.
// A run is submitted with POST /runs, then polled at GET /runs/{id} until it
// leaves the pending state or the poll budget runs out.
type SandboxClient struct {
	baseURL      string
	httpClient   *http.Client
	pollInterval time.Duration
	maxPolls     int
	logger       utils.Logger
}

type SandboxOption func(*SandboxClient)

// WithHTTPClient overrides the underlying HTTP client, mainly for tests.
func WithHTTPClient(c *http.Client) SandboxOption {
	return func(s *SandboxClient) { s.httpClient = c }
}

func NewSandboxClient(baseURL string, pollInterval time.Duration, maxPolls int, logger utils.Logger, opts ...SandboxOption) *SandboxClient {
	s := &SandboxClient{
		baseURL:      baseURL,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		pollInterval: pollInterval,
		maxPolls:     maxPolls,
		logger:       logger.With("component", "sandbox"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type runSubmission struct {
	ID string `json:"id"`
}

type runStatus struct {
	ID       string `json:"id"`
	Status   string `json:"status"` // "pending", "running", "finished", "failed"
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	ExitCode int    `json:"exit_code"`
	TimedOut bool   `json:"timed_out"`
}

// RunCode submits the run and polls until completion.
func (s *SandboxClient) RunCode(ctx context.Context, run CodeRun) (*RunResult, error) {
	id, err := s.submit(ctx, run)
	if err != nil {
		return nil, err
	}

	for poll := 0; poll < s.maxPolls; poll++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.pollInterval):
		}

		status, err := s.poll(ctx, id)
		if err != nil {
			return nil, err
		}

		switch status.Status {
		case "finished":
			return &RunResult{
				Stdout:   status.Stdout,
				Stderr:   status.Stderr,
				ExitCode: status.ExitCode,
				TimedOut: status.TimedOut,
			}, nil
		case "failed":
			return nil, fmt.Errorf("sandbox run %s failed: %s", id, status.Stderr)
		}
	}

	return nil, fmt.Errorf("sandbox run %s did not finish within %d polls", id, s.maxPolls)
}

func (s *SandboxClient) submit(ctx context.Context, run CodeRun) (string, error) {
	body, err := json.Marshal(run)
	if err != nil {
		return "", fmt.Errorf("failed to marshal run request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/runs", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build run request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("sandbox submit failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("sandbox submit returned status %d", resp.StatusCode)
	}

	var submission runSubmission
	if err := json.NewDecoder(resp.Body).Decode(&submission); err != nil {
		return "", fmt.Errorf("failed to decode submit response: %w", err)
	}
	if submission.ID == "" {
		return "", fmt.Errorf("sandbox submit returned no run ID")
	}

	return submission.ID, nil
}

func (s *SandboxClient) poll(ctx context.Context, id string) (*runStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/runs/"+id, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build poll request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sandbox poll failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sandbox poll returned status %d", resp.StatusCode)
	}

	var status runStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("failed to decode poll response: %w", err)
	}

	return &status, nil
}
