// Package events publishes wizard progress to Kafka. Publishing is best
// effort: failures are logged and counted, never returned to the mutation
// that produced the event.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kgo"

	"keystone/internal/onboarding/metrics"
	"keystone/internal/onboarding/models"
	"keystone/internal/onboarding/wizard"
	"keystone/pkg/platform/circuit"
	"keystone/pkg/requestcontext"
)

// Producer is the subset of *kgo.Client the publisher needs.
type Producer interface {
	Produce(ctx context.Context, r *kgo.Record, promise func(*kgo.Record, error))
}

// Message is the JSON body of one progress event.
type Message struct {
	ID                string      `json:"id"`
	Op                wizard.Op   `json:"op"`
	Role              models.Role `json:"role"`
	Identity          string      `json:"identity"`
	Section           string      `json:"section,omitempty"`
	CurrentPhase      int         `json:"currentPhase"`
	CurrentSection    int         `json:"currentSection"`
	CompletedSections []string    `json:"completedSections"`
	LastSavedAt       *time.Time  `json:"lastSavedAt,omitempty"`
	RequestID         string      `json:"requestId,omitempty"`
	OccurredAt        time.Time   `json:"occurredAt"`
}

const (
	outcomePublished = "published"
	outcomeFailed    = "failed"
	outcomeDropped   = "dropped"
)

// Publisher turns store events into Kafka records.
type Publisher struct {
	producer Producer
	topic    string
	breaker  *circuit.Breaker
	logger   *slog.Logger
	metrics  *metrics.Metrics
	newID    func() string
}

// Option configures the Publisher.
type Option func(*Publisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Publisher) {
		p.metrics = m
	}
}

// WithBreaker replaces the default breaker guarding the producer.
func WithBreaker(b *circuit.Breaker) Option {
	return func(p *Publisher) {
		if b != nil {
			p.breaker = b
		}
	}
}

// New creates a publisher writing to topic.
func New(producer Producer, topic string, opts ...Option) *Publisher {
	p := &Publisher{
		producer: producer,
		topic:    topic,
		breaker:  circuit.New("onboarding-events", circuit.WithFailureThreshold(5), circuit.WithCooldown(30*time.Second)),
		logger:   slog.Default(),
		newID:    func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// Listener adapts the publisher to wizard store subscriptions.
func (p *Publisher) Listener() wizard.Listener {
	return p.Publish
}

// Publish produces e asynchronously. While the breaker is open events are
// dropped without touching the broker.
func (p *Publisher) Publish(ctx context.Context, e wizard.Event) {
	if !p.breaker.Allow() {
		p.metrics.IncrementEvent(string(e.Op), outcomeDropped)
		return
	}

	msg := p.message(ctx, e)
	body, err := json.Marshal(msg)
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to encode progress event", "op", e.Op, "error", err)
		p.metrics.IncrementEvent(string(e.Op), outcomeFailed)
		return
	}
	rec := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(string(msg.Role) + ":" + msg.Identity),
		Value: body,
		Headers: []kgo.RecordHeader{
			{Key: "op", Value: []byte(msg.Op)},
			{Key: "event_id", Value: []byte(msg.ID)},
		},
		Timestamp: msg.OccurredAt,
	}

	// The record outlives the request that produced it.
	p.producer.Produce(context.WithoutCancel(ctx), rec, func(_ *kgo.Record, err error) {
		if err != nil {
			if _, change := p.breaker.RecordFailure(); change.Opened {
				p.logger.Warn("progress event publishing suspended", "topic", p.topic)
			}
			p.logger.Warn("failed to publish progress event",
				"op", msg.Op,
				"event_id", msg.ID,
				"error", err,
			)
			p.metrics.IncrementEvent(string(msg.Op), outcomeFailed)
			return
		}
		if _, change := p.breaker.RecordSuccess(); change.Closed {
			p.logger.Info("progress event publishing resumed", "topic", p.topic)
		}
		p.metrics.IncrementEvent(string(msg.Op), outcomePublished)
	})
}

func (p *Publisher) message(ctx context.Context, e wizard.Event) Message {
	completed := e.State.CompletedSections
	if completed == nil {
		completed = []string{}
	}
	return Message{
		ID:                p.newID(),
		Op:                e.Op,
		Role:              e.Role,
		Identity:          wizard.Key(e.Identity),
		Section:           e.Section,
		CurrentPhase:      e.State.CurrentPhase,
		CurrentSection:    e.State.CurrentSection,
		CompletedSections: completed,
		LastSavedAt:       e.State.LastSavedAt,
		RequestID:         requestcontext.RequestID(ctx),
		OccurredAt:        requestcontext.Now(ctx).UTC(),
	}
}
