package kafkabus

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/murkotick/product-projections/internal/pkg/events"
)

// ErrNoBrokers is returned when the bus is configured without brokers.
var ErrNoBrokers = errors.New("kafkabus: no brokers configured")

// MessageWriter is the subset of *kafka.Writer the publisher uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes events to one topic.
type Publisher struct {
	writer MessageWriter
	topic  string
	codec  *events.Registry
}

// NewWriter builds a hash-balanced writer for brokers.
func NewWriter(brokers []string) (*kafka.Writer, error) {
	if len(brokers) == 0 {
		return nil, ErrNoBrokers
	}
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
	}, nil
}

func NewPublisher(writer MessageWriter, topic string, codec *events.Registry) *Publisher {
	return &Publisher{writer: writer, topic: topic, codec: codec}
}

// Publish writes evts in order. The writer either accepts the whole batch or returns an error.
func (p *Publisher) Publish(ctx context.Context, evts ...*events.Event) error {
	if len(evts) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(evts))
	for _, evt := range evts {
		msg, err := p.message(ctx, evt)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("kafkabus: write %d messages: %w", len(msgs), err)
	}
	return nil
}

func (p *Publisher) message(ctx context.Context, evt *events.Event) (kafka.Message, error) {
	value, err := p.codec.Encode(evt.Payload)
	if err != nil {
		return kafka.Message{}, err
	}
	headers := []kafka.Header{
		{Key: HeaderEventID, Value: []byte(evt.ID)},
		{Key: HeaderEventType, Value: []byte(evt.Type)},
		{Key: HeaderAggregateType, Value: []byte(evt.AggregateType)},
		{Key: HeaderStreamSequence, Value: []byte(strconv.FormatInt(evt.Sequence, 10))},
		{Key: HeaderOccurredAt, Value: []byte(evt.OccurredAt.UTC().Format(time.RFC3339Nano))},
	}
	return kafka.Message{
		Topic:   p.topic,
		Key:     []byte(evt.AggregateID),
		Value:   value,
		Headers: injectTrace(ctx, headers),
	}, nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
