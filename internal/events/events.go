// Package events carries the asynchronous score pipeline: every assessment
// rollup write publishes a ScoreComputed event, and a subscriber recomputes
// the owning enrollment's total. Both fresh scores and re-grades flow through
// the same topic, so the enrollment mean stays correct on updates too.
package events

import (
	"context"
	"time"
)

const TopicScoreComputed = "lms.scores"

// ScoreComputed is emitted after an AssessmentScore row is created or
// replaced.
type ScoreComputed struct {
	AssessmentID uint      `json:"assessment_id"`
	EnrollmentID uint      `json:"enrollment_id"`
	TotalScore   float64   `json:"total_score"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// Publisher is the outbound side of the score pipeline.
type Publisher interface {
	PublishScoreComputed(ctx context.Context, event ScoreComputed) error
	Close() error
}

// ScoreComputedHandler consumes one event; returning an error nacks the
// message for redelivery.
type ScoreComputedHandler func(ctx context.Context, event ScoreComputed) error
