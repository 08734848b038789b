// Package events publishes a record of every completed visit so other
// systems can follow a crawl while it runs.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

// VisitEvent describes one completed unit of work.
type VisitEvent struct {
	// RunID identifies the crawl run.
	RunID string `json:"run_id"`

	// TargetID and TargetLabel identify the visited profile.
	TargetID    string `json:"target_id"`
	TargetLabel string `json:"target_label"`

	// Kind is the entity class of the target.
	Kind string `json:"kind"`

	// Discovered is the number of new profiles merged into the frontier.
	Discovered int `json:"discovered"`

	// Companies is the number of organizations processed during the visit.
	Companies int `json:"companies"`

	// Pending and Visited are the frontier and visited sizes after the
	// checkpoint.
	Pending int `json:"pending"`
	Visited int `json:"visited"`

	// At is when the visit was checkpointed.
	At time.Time `json:"at"`
}

// Publisher delivers visit events.
type Publisher interface {
	Publish(ctx context.Context, event VisitEvent) error
	Close() error
}

// ErrNoBrokers is returned when a Kafka publisher is requested without
// broker addresses.
var ErrNoBrokers = errors.New("kafka publisher requires at least one broker")

// Nop discards every event.
type Nop struct{}

// Publish does nothing.
func (Nop) Publish(context.Context, VisitEvent) error { return nil }

// Close does nothing.
func (Nop) Close() error { return nil }

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events as JSON messages keyed by run ID, so the
// events of one run stay ordered within a partition.
type KafkaPublisher struct {
	writer messageWriter
}

// NewKafkaPublisher creates a publisher writing to topic on brokers.
func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	addrs := make([]string, 0, len(brokers))
	for _, b := range brokers {
		if b = strings.TrimSpace(b); b != "" {
			addrs = append(addrs, b)
		}
	}
	if len(addrs) == 0 {
		return nil, ErrNoBrokers
	}
	if topic == "" {
		return nil, errors.New("kafka publisher requires a topic")
	}
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(addrs...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			AllowAutoTopicCreation: false,
		},
	}, nil
}

// NewKafkaPublisherWithWriter builds a publisher using a custom writer (tests).
func NewKafkaPublisherWithWriter(writer messageWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: writer}
}

// Publish writes one event.
func (p *KafkaPublisher) Publish(ctx context.Context, event VisitEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode visit event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.RunID),
		Value: payload,
		Time:  event.At.UTC(),
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish visit event: %w", err)
	}
	return nil
}

// Close flushes and shuts down the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
