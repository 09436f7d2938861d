package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cenkalti/backoff/v4"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/tnhan0211/serverzola/internal/models"
)

// Publisher emits domain events to Kafka. A nil Publisher is valid and
// drops everything, so callers never need to branch on configuration.
type Publisher struct {
	writer            *kafkago.Writer
	topicMessageSent  string
	topicNotification string
}

func NewPublisher(brokers []string, topicMessageSent, topicNotification string) *Publisher {
	if len(brokers) == 0 {
		return nil
	}
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{
		writer:            w,
		topicMessageSent:  topicMessageSent,
		topicNotification: topicNotification,
	}
}

func (p *Publisher) publish(ctx context.Context, topic, key string, payload any) error {
	if p == nil {
		return nil
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	msg := kafkago.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: b,
		Time:  time.Now(),
	}
	op := func() error {
		return p.writer.WriteMessages(ctx, msg)
	}
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 10 * time.Second
	return backoff.Retry(op, backoff.WithContext(bo, ctx))
}

func (p *Publisher) MessageSent(ctx context.Context, m *models.Message) error {
	if p == nil {
		return nil
	}
	return p.publish(ctx, p.topicMessageSent, m.ID, m)
}

func (p *Publisher) NotificationCreated(ctx context.Context, n *models.Notification) error {
	if p == nil {
		return nil
	}
	return p.publish(ctx, p.topicNotification, n.RecipientID, n)
}

func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	return p.writer.Close()
}
