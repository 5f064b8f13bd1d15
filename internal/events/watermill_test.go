package events

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/SAP-F-2025/lms-service/internal/utils"
)

func testLogger() utils.Logger {
	return utils.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestWatermillPublisher_RoundTrip(t *testing.T) {
	pubsub := NewGoChannelPubSub()
	t.Cleanup(func() { _ = pubsub.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	received := make(chan ScoreComputed, 1)
	err := SubscribeScoreComputed(ctx, pubsub, func(ctx context.Context, event ScoreComputed) error {
		received <- event
		return nil
	}, testLogger())
	if err != nil {
		t.Fatalf("SubscribeScoreComputed failed: %v", err)
	}

	publisher := NewWatermillPublisher(pubsub, testLogger())
	want := ScoreComputed{AssessmentID: 7, EnrollmentID: 3, TotalScore: 8.5, OccurredAt: time.Now().UTC()}
	if err := publisher.PublishScoreComputed(ctx, want); err != nil {
		t.Fatalf("PublishScoreComputed failed: %v", err)
	}

	select {
	case got := <-received:
		if got.AssessmentID != want.AssessmentID || got.EnrollmentID != want.EnrollmentID || got.TotalScore != want.TotalScore {
			t.Errorf("received %+v, want %+v", got, want)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for score event")
	}
}

func TestMockPublisher_RecordsEvents(t *testing.T) {
	mock := NewMockPublisher()

	if err := mock.PublishScoreComputed(context.Background(), ScoreComputed{EnrollmentID: 1}); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if err := mock.PublishScoreComputed(context.Background(), ScoreComputed{EnrollmentID: 2}); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	events := mock.PublishedEvents()
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[1].EnrollmentID != 2 {
		t.Errorf("second event enrollment = %d, want 2", events[1].EnrollmentID)
	}
}
