// Package events publishes per-turn usage events for the billing pipeline.
// The worker consumes them into the usage_events audit table.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/oklog/ulid/v2"
	amqp "github.com/rabbitmq/amqp091-go"
)

type TurnEvent struct {
	ID         string    `json:"id"`
	CustomerID uint64    `json:"customer_id"`
	ChatSlug   string    `json:"chat_slug"`
	MessageID  uint64    `json:"message_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

func NewTurnEvent(customerID uint64, chatSlug string, messageID uint64) TurnEvent {
	return TurnEvent{
		ID:         ulid.Make().String(),
		CustomerID: customerID,
		ChatSlug:   chatSlug,
		MessageID:  messageID,
		OccurredAt: time.Now().UTC(),
	}
}

type Publisher struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
}

func NewPublisher(url, queue string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	return &Publisher{conn: conn, ch: ch, queue: queue}, nil
}

func (p *Publisher) PublishTurn(ctx context.Context, ev TurnEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.ID,
		Body:         body,
	})
}

func (p *Publisher) Close() {
	if p.ch != nil {
		p.ch.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}
