package events

import (
	"context"
	"fmt"
	"time"

	"hermes/internal/adapters/kafka"
	"hermes/pkg/errors"
	"hermes/pkg/logger"
)

// Publisher publishes analysis events to Kafka, keyed by symbol so all
// events of one instrument land on one partition in order
type Publisher struct {
	producer *kafka.Producer
	log      *logger.Logger
}

// NewPublisher creates a new event publisher
func NewPublisher(producer *kafka.Producer) *Publisher {
	return &Publisher{
		producer: producer,
		log:      logger.Get().With("component", "event_publisher"),
	}
}

// PublishZoneDetected publishes a zone detection event
func (p *Publisher) PublishZoneDetected(ctx context.Context, ev ZoneDetectedEvent) error {
	return p.publish(ctx, kafka.TopicZoneDetected, ev.Symbol, ev)
}

// PublishSweepDetected publishes a liquidity sweep event
func (p *Publisher) PublishSweepDetected(ctx context.Context, ev SweepDetectedEvent) error {
	return p.publish(ctx, kafka.TopicSweepDetected, ev.Symbol, ev)
}

// PublishStructureBreak publishes a BOS/CHoCH event
func (p *Publisher) PublishStructureBreak(ctx context.Context, ev StructureBreakEvent) error {
	return p.publish(ctx, kafka.TopicStructureBreak, ev.Symbol, ev)
}

// PublishBreakoutValidated publishes a breakout verdict
func (p *Publisher) PublishBreakoutValidated(ctx context.Context, ev BreakoutValidatedEvent) error {
	return p.publish(ctx, kafka.TopicBreakoutValidated, ev.Symbol, ev)
}

// PublishWorkerFailed publishes a worker failure
func (p *Publisher) PublishWorkerFailed(ctx context.Context, worker string, failure error) error {
	ev := WorkerFailedEvent{
		Worker:   worker,
		Error:    fmt.Sprint(failure),
		FailedAt: time.Now().UTC(),
	}
	return p.publish(ctx, kafka.TopicWorkerFailed, worker, ev)
}

func (p *Publisher) publish(ctx context.Context, topic, key string, event interface{}) error {
	if err := p.producer.Publish(ctx, topic, key, event); err != nil {
		p.log.Error("Failed to publish event",
			"topic", topic,
			"key", key,
			"error", err,
		)
		return errors.Wrap(err, "send to kafka")
	}
	return nil
}
