package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"
)

// DefaultKafkaTopic is used when no topic is configured.
const DefaultKafkaTopic = "telcoguard.churn.predictions"

// messageWriter is the subset of *kafkago.Writer the sink needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// KafkaSink publishes each event as a JSON message keyed by request id.
type KafkaSink struct {
	writer messageWriter
	topic  string
}

// NewKafkaSink creates a sink writing to topic on brokers.
func NewKafkaSink(brokers []string, topic string) (*KafkaSink, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("%w: kafka sink needs at least one broker", ErrSinkConfig)
	}
	if topic == "" {
		topic = DefaultKafkaTopic
	}
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		RequiredAcks:           kafkago.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return newKafkaSink(w, topic), nil
}

func newKafkaSink(w messageWriter, topic string) *KafkaSink {
	return &KafkaSink{writer: w, topic: topic}
}

// Record publishes e.
func (s *KafkaSink) Record(ctx context.Context, e Event) error { //nolint:gocritic // hugeParam
	msg, err := encodeMessage(e)
	if err != nil {
		return err
	}
	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("%w: kafka publish to %s: %w", ErrRecordFailed, s.topic, err)
	}
	return nil
}

func encodeMessage(e Event) (kafkago.Message, error) { //nolint:gocritic // hugeParam
	value, err := json.Marshal(e)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("%w: marshal event: %w", ErrRecordFailed, err)
	}
	return kafkago.Message{
		Key:   []byte(e.RequestID.String()),
		Value: value,
		Time:  e.Timestamp,
		Headers: []kafkago.Header{
			{Key: "source", Value: []byte(e.Source)},
			{Key: "tier", Value: []byte(e.Tier)},
		},
	}, nil
}

// Name returns "kafka".
func (s *KafkaSink) Name() string { return SinkKafka }

// Close flushes and closes the writer.
func (s *KafkaSink) Close() error {
	if err := s.writer.Close(); err != nil {
		return fmt.Errorf("closing kafka writer for topic %s: %w", s.topic, err)
	}
	return nil
}
