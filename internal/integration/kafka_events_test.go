//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/quietcity/noise-hotspot-service/internal/adapter/csvstore"
	"github.com/quietcity/noise-hotspot-service/internal/adapter/kafka"
	"github.com/quietcity/noise-hotspot-service/internal/domain"
	"github.com/quietcity/noise-hotspot-service/internal/observability"
	"github.com/quietcity/noise-hotspot-service/internal/service"
)

const testEventsTopic = "test-noise-change-events"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node Kafka in a container and returns its broker
// address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0",
		tckafka.WithClusterID("test-cluster"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err, "resolve kafka brokers")
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err, "dial broker")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "resolve controller")

	controllerConn, err := kafkago.Dial("tcp",
		net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err, "dial controller")
	defer controllerConn.Close()

	require.NoError(t, controllerConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// readEvent reads and deserializes one event envelope from the topic.
func readEvent(ctx context.Context, t *testing.T, consumer *kafkago.Reader) (kafka.Event, kafkago.Message) {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from events topic")

	var event kafka.Event
	require.NoError(t, json.Unmarshal(msg.Value, &event), "unmarshal event envelope")
	return event, msg
}

func headerMap(msg kafkago.Message) map[string]string {
	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	return headers
}

// TestEventStreamEndToEnd runs a submission and a moderation against a real
// broker and verifies every change event arrives with the expected envelope,
// key, and headers.
func TestEventStreamEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testEventsTopic)

	clock := clockwork.NewRealClock()
	publisher := kafka.NewPublisher([]string{broker}, testEventsTopic, clock, discardLogger())
	t.Cleanup(func() { _ = publisher.Close() })

	svc := service.New(csvstore.New(t.TempDir()), clock, discardLogger(),
		observability.NewMetricsForTesting(), service.Options{Publisher: publisher})
	require.NoError(t, svc.Load())

	result, err := svc.SubmitReport(ctx, service.SubmitInput{ZoneID: "z3", Category: "nightlife"})
	require.NoError(t, err)
	_, err = svc.ModerateReport(ctx, result.Report.ReportID, domain.DecisionValid, "")
	require.NoError(t, err)

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testEventsTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	// Submission event, keyed by the report ID.
	event, msg := readEvent(ctx, t, consumer)
	assert.Equal(t, kafka.EventReportSubmitted, event.EventType)
	assert.NotEmpty(t, event.EventID)
	assert.False(t, event.OccurredAt.IsZero())
	assert.Equal(t, result.Report.ReportID, string(msg.Key))

	headers := headerMap(msg)
	assert.Equal(t, kafka.EventReportSubmitted, headers["event_type"])
	_, err = time.Parse(time.RFC3339, headers["occurred_at"])
	assert.NoError(t, err, "occurred_at should be valid RFC3339")

	var payload struct {
		Report      domain.Report `json:"report"`
		IsDuplicate bool          `json:"is_duplicate"`
	}
	raw, err := json.Marshal(event.Payload)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &payload))
	assert.Equal(t, result.Report.ReportID, payload.Report.ReportID)
	assert.Equal(t, "Z03", payload.Report.ZoneID)
	assert.Equal(t, "music", payload.Report.Category)
	assert.False(t, payload.IsDuplicate)

	// Moderation event, keyed by the moderated report.
	event, msg = readEvent(ctx, t, consumer)
	assert.Equal(t, kafka.EventReportModerated, event.EventType)
	assert.Equal(t, result.Report.ReportID, string(msg.Key))

	// The moderation triggers a recompute, which emits the third event.
	event, _ = readEvent(ctx, t, consumer)
	assert.Equal(t, kafka.EventHotspotsRecomputed, event.EventType)
}
