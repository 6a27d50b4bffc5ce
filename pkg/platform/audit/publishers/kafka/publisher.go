// Package kafka publishes audit events to a Kafka topic so downstream
// compliance tooling (SIEM, retention archives) can consume them without
// touching the service's database.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	audit "custodia/pkg/platform/audit"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"
)

// Publisher produces JSON-encoded audit events keyed by subject, so events
// for one request or holder land in one partition in order.
type Publisher struct {
	client *kgo.Client
	topic  string
}

// message is the wire format. Field names are part of the consumer contract.
type message struct {
	Category  string    `json:"category"`
	Timestamp time.Time `json:"timestamp"`
	Actor     string    `json:"actor,omitempty"`
	Subject   string    `json:"subject"`
	Action    string    `json:"action"`
	From      string    `json:"from,omitempty"`
	To        string    `json:"to,omitempty"`
	Amount    int64     `json:"amount,omitempty"`
	ProofID   uint64    `json:"proof_id,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
}

// New connects to the brokers and ensures the topic exists.
func New(ctx context.Context, brokers []string, topic string) (*Publisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	if err := ensureTopic(ctx, client, topic); err != nil {
		client.Close()
		return nil, err
	}

	return &Publisher{client: client, topic: topic}, nil
}

// ensureTopic creates the audit topic when absent. Creation races with other
// replicas are tolerated.
func ensureTopic(ctx context.Context, client *kgo.Client, topic string) error {
	admin := kadm.NewClient(client)
	existing, err := admin.ListTopics(ctx, topic)
	if err != nil {
		return fmt.Errorf("list kafka topics: %w", err)
	}
	if existing.Has(topic) {
		return nil
	}
	if _, err := admin.CreateTopic(ctx, 1, 1, nil, topic); err != nil {
		return fmt.Errorf("create kafka topic %q: %w", topic, err)
	}
	return nil
}

// Publish produces one event synchronously. Callers treat failures as
// best-effort; the primary store remains the system of record.
func (p *Publisher) Publish(ctx context.Context, event audit.Event) error {
	payload, err := json.Marshal(message{
		Category:  string(event.Category),
		Timestamp: event.Timestamp,
		Actor:     event.Actor,
		Subject:   event.Subject,
		Action:    event.Action,
		From:      event.From,
		To:        event.To,
		Amount:    event.Amount,
		ProofID:   event.ProofID,
		Reason:    event.Reason,
		RequestID: event.RequestID,
	})
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(event.Subject),
		Value: payload,
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}
	return nil
}

// Close flushes outstanding records and releases the client.
func (p *Publisher) Close() {
	p.client.Close()
}
