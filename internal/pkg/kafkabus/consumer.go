package kafkabus

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/murkotick/product-projections/internal/pkg/events"
	"github.com/murkotick/product-projections/internal/pkg/sequencer"
)

// MessageReader is the subset of *kafka.Reader the consumer uses.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type ReaderConfig struct {
	Brokers []string
	GroupID string
	Topic   string
}

// NewReader builds a consumer-group reader with explicit commits.
func NewReader(cfg ReaderConfig) (*kafka.Reader, error) {
	if len(cfg.Brokers) == 0 {
		return nil, ErrNoBrokers
	}
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		GroupID:  cfg.GroupID,
		Topic:    cfg.Topic,
		MinBytes: 1,
		MaxBytes: 10e6,
	}), nil
}

// Consumer turns Kafka messages into dispatcher deliveries. It implements
// sequencer.Source.
type Consumer struct {
	reader MessageReader
	codec  *events.Registry
	logger *slog.Logger
	tracer trace.Tracer
}

func NewConsumer(reader MessageReader, codec *events.Registry, logger *slog.Logger) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{reader: reader, codec: codec, logger: logger, tracer: otel.Tracer("kafka")}
}

var _ sequencer.Source = (*Consumer)(nil)

// Fetch blocks for the next decodable message. Messages that cannot be
// decoded are logged and committed so they do not block their partition.
func (c *Consumer) Fetch(ctx context.Context) (sequencer.Delivery, error) {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			return sequencer.Delivery{}, err
		}

		msgCtx := extractTrace(ctx, msg.Headers)
		_, span := c.tracer.Start(msgCtx, "kafka.consume",
			trace.WithAttributes(
				attribute.String("messaging.system", "kafka"),
				attribute.String("messaging.destination", msg.Topic),
				attribute.Int("messaging.kafka.partition", msg.Partition),
			),
		)

		evt, err := Decode(c.codec, msg)
		if err != nil {
			c.logger.Error("undecodable message skipped", "topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset, "err", err)
			span.RecordError(err)
			span.End()
			if cerr := c.reader.CommitMessages(ctx, msg); cerr != nil {
				return sequencer.Delivery{}, cerr
			}
			continue
		}
		span.End()

		return sequencer.Delivery{
			Event: evt,
			Ack: func(ctx context.Context) error {
				return c.reader.CommitMessages(ctx, msg)
			},
		}, nil
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}

// Decode rebuilds the event carried by msg.
func Decode(codec *events.Registry, msg kafka.Message) (*events.Event, error) {
	eventType := headerValue(msg.Headers, HeaderEventType)
	if eventType == "" {
		return nil, fmt.Errorf("kafkabus: message at offset %d has no %s header", msg.Offset, HeaderEventType)
	}
	seq, err := strconv.ParseInt(headerValue(msg.Headers, HeaderStreamSequence), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("kafkabus: bad %s header: %w", HeaderStreamSequence, err)
	}
	payload, err := codec.Decode(eventType, msg.Value)
	if err != nil {
		return nil, err
	}

	occurredAt := payload.OccurredAt().UTC()
	if raw := headerValue(msg.Headers, HeaderOccurredAt); raw != "" {
		if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			occurredAt = t.UTC()
		}
	}

	return &events.Event{
		ID:            headerValue(msg.Headers, HeaderEventID),
		AggregateType: headerValue(msg.Headers, HeaderAggregateType),
		AggregateID:   string(msg.Key),
		Sequence:      seq,
		Type:          eventType,
		OccurredAt:    occurredAt,
		Payload:       payload,
	}, nil
}
