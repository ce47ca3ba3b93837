// Package kafka publishes best-effort change events so downstream consumers
// (dashboards, exports) can react to intake and moderation activity without
// polling the tables.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/quietcity/noise-hotspot-service/internal/domain"
)

// Event type names carried in the envelope and message headers.
const (
	EventReportSubmitted    = "report.submitted"
	EventReportModerated    = "report.moderated"
	EventHotspotsRecomputed = "hotspots.recomputed"
)

// Event is the envelope every change event is wrapped in.
type Event struct {
	EventID    string    `json:"event_id"`
	EventType  string    `json:"event_type"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

// Publisher produces change events to a single Kafka topic.
// It implements service.Publisher.
type Publisher struct {
	writer *kafkago.Writer
	clock  clockwork.Clock
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the configured events topic.
func NewPublisher(brokers []string, topic string, clock clockwork.Clock, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, clock: clock, logger: logger}
}

func (p *Publisher) PublishReportSubmitted(ctx context.Context, report domain.Report, isDuplicate bool) error {
	payload := struct {
		Report      domain.Report `json:"report"`
		IsDuplicate bool          `json:"is_duplicate"`
	}{report, isDuplicate}
	return p.publish(ctx, report.ReportID, EventReportSubmitted, payload)
}

func (p *Publisher) PublishReportModerated(ctx context.Context, decision domain.Decision) error {
	return p.publish(ctx, decision.ReportID, EventReportModerated, decision)
}

func (p *Publisher) PublishHotspotsRecomputed(ctx context.Context, rows int) error {
	payload := struct {
		Rows int `json:"rows"`
	}{rows}
	return p.publish(ctx, EventHotspotsRecomputed, EventHotspotsRecomputed, payload)
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

func (p *Publisher) publish(ctx context.Context, key, eventType string, payload any) error {
	event := Event{
		EventID:    uuid.NewString(),
		EventType:  eventType,
		OccurredAt: p.clock.Now().UTC(),
		Payload:    payload,
	}
	msg, err := serializeToMessage(key, event)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, msg)
}

// serializeToMessage marshals an event envelope into a Kafka message keyed
// by the affected entity, so per-entity ordering survives partitioning.
func serializeToMessage(key string, event Event) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize %s event: %w", event.EventType, err)
	}
	return kafkago.Message{
		Key:   []byte(key),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "occurred_at", Value: []byte(event.OccurredAt.Format(time.RFC3339))},
		},
	}, nil
}
