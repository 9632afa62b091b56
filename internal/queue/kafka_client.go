package queue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaClient publishes decision events to one Kafka topic, keyed by session id so a
// session's events stay ordered within a partition.
type KafkaClient struct {
	writer messageWriter
	topic  string
}

// NewKafkaClient builds a synchronous writer that waits for all in-sync replicas.
func NewKafkaClient(brokers []string, topic string) (*KafkaClient, error) {
	topic = strings.TrimSpace(topic)
	if len(brokers) == 0 || topic == "" {
		return nil, errors.New("kafka brokers and topic are required")
	}
	return &KafkaClient{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			Compression:  kafka.Snappy,
		},
		topic: topic,
	}, nil
}

// Send writes msg with outcome and schema version headers.
func (k *KafkaClient) Send(ctx context.Context, msg Message) error {
	payload, err := EncodeMessage(msg)
	if err != nil {
		return fmt.Errorf("encode decision event: %w", err)
	}
	version := msg.Version
	if version == 0 {
		version = MessageVersion
	}
	record := kafka.Message{
		Key:   []byte(msg.SessionID),
		Value: payload,
		Time:  time.Now().UTC(),
		Headers: []kafka.Header{
			{Key: "outcome", Value: []byte(msg.Outcome)},
			{Key: "version", Value: []byte(fmt.Sprint(version))},
		},
	}
	if err := k.writer.WriteMessages(ctx, record); err != nil {
		return fmt.Errorf("kafka write %s: %w", k.topic, err)
	}
	return nil
}

// Close flushes and releases the writer.
func (k *KafkaClient) Close() error {
	return k.writer.Close()
}

var _ Client = (*KafkaClient)(nil)
