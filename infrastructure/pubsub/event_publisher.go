package pubsub

import (
	"context"
	"encoding/json"
	"time"

	"cloud.google.com/go/pubsub"

	"foodcollab/infrastructure/logger"
)

// VerificationEvent is published when a story verification reaches a terminal state.
type VerificationEvent struct {
	VerificationID  int64     `json:"verification_id"`
	SubmissionID    int64     `json:"submission_id"`
	ExternalMediaID string    `json:"external_media_id"`
	Status          string    `json:"status"`
	OccurredAt      time.Time `json:"occurred_at"`
}

type IEventPublisher interface {
	PublishVerificationEvent(ctx context.Context, event *VerificationEvent)
}

// EventPublisher pushes terminal verification outcomes to a Pub/Sub topic.
// The client may be nil; publishing is then skipped.
type EventPublisher struct {
	client *pubsub.Client
	topic  string
}

func NewPubSub(ctx context.Context, projectID string) (*pubsub.Client, error) {
	return pubsub.NewClient(ctx, projectID)
}

func NewEventPublisher(client *pubsub.Client, topic string) IEventPublisher {
	return &EventPublisher{client: client, topic: topic}
}

func (p *EventPublisher) PublishVerificationEvent(ctx context.Context, event *VerificationEvent) {
	if p.client == nil || p.topic == "" {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while marshalling verification event")
		return
	}
	topic := p.client.Topic(p.topic)
	if _, err := topic.Publish(ctx, &pubsub.Message{Data: payload}).Get(ctx); err != nil {
		logger.GetLogger().WithField("error", err).WithField("topic", p.topic).Error("Error while publishing verification event")
	}
}
