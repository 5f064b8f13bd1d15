package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"

	"github.com/SAP-F-2025/lms-service/internal/utils"
)

// WatermillPublisher implements Publisher over any watermill transport.
type WatermillPublisher struct {
	publisher message.Publisher
	logger    utils.Logger
}

func NewWatermillPublisher(publisher message.Publisher, logger utils.Logger) *WatermillPublisher {
	return &WatermillPublisher{
		publisher: publisher,
		logger:    logger.With("component", "events"),
	}
}

func (p *WatermillPublisher) PublishScoreComputed(ctx context.Context, event ScoreComputed) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal score event: %w", err)
	}

	msg := message.NewMessage(uuid.NewString(), payload)
	msg.SetContext(ctx)

	if err := p.publisher.Publish(TopicScoreComputed, msg); err != nil {
		return fmt.Errorf("failed to publish score event: %w", err)
	}

	p.logger.Debug("Published score event",
		"assessment_id", event.AssessmentID,
		"enrollment_id", event.EnrollmentID)

	return nil
}

func (p *WatermillPublisher) Close() error {
	return p.publisher.Close()
}

// NewGoChannelPubSub builds the in-process transport used in development and
// tests. Publisher and subscriber are the same object.
func NewGoChannelPubSub() *gochannel.GoChannel {
	return gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
}

// NewKafkaPublisher builds the production publisher.
func NewKafkaPublisher(brokers []string) (message.Publisher, error) {
	publisher, err := kafka.NewPublisher(
		kafka.PublisherConfig{
			Brokers:   brokers,
			Marshaler: kafka.DefaultMarshaler{},
		},
		watermill.NopLogger{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka publisher: %w", err)
	}
	return publisher, nil
}

// NewKafkaSubscriber builds the production subscriber.
func NewKafkaSubscriber(brokers []string, consumerGroup string) (message.Subscriber, error) {
	subscriber, err := kafka.NewSubscriber(
		kafka.SubscriberConfig{
			Brokers:       brokers,
			Unmarshaler:   kafka.DefaultMarshaler{},
			ConsumerGroup: consumerGroup,
		},
		watermill.NopLogger{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka subscriber: %w", err)
	}
	return subscriber, nil
}

// SubscribeScoreComputed pumps score events from the subscriber into the
// handler until ctx is cancelled. Handler failure nacks the message so the
// transport redelivers it.
func SubscribeScoreComputed(ctx context.Context, subscriber message.Subscriber, handler ScoreComputedHandler, logger utils.Logger) error {
	messages, err := subscriber.Subscribe(ctx, TopicScoreComputed)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", TopicScoreComputed, err)
	}

	log := logger.With("component", "events", "topic", TopicScoreComputed)

	go func() {
		for msg := range messages {
			var event ScoreComputed
			if err := json.Unmarshal(msg.Payload, &event); err != nil {
				log.Error("Dropping undecodable score event", "error", err, "message_id", msg.UUID)
				msg.Ack()
				continue
			}

			if err := handler(msg.Context(), event); err != nil {
				log.Error("Score event handler failed, nacking",
					"error", err,
					"enrollment_id", event.EnrollmentID)
				msg.Nack()
				continue
			}

			msg.Ack()
		}
	}()

	return nil
}
