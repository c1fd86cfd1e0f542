package rabbit

// Lifecycle events are published to a topic exchange so other services (leaderboards,
// analytics, the token minter) can react to sessions starting and ending.

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/XianPaz/quizchain/internal/app"
	amqp "github.com/rabbitmq/amqp091-go"
)

// DefaultExchange is used when no exchange is configured.
const DefaultExchange = "session.events"

// Routing keys per lifecycle event.
const (
	SessionStartRoutingKey   = "session.start"
	SessionEndRoutingKey     = "session.end"
	SessionCancelRoutingKey  = "session.cancel"
	SessionRewardsRoutingKey = "session.rewards"
)

// Publisher implements app.EventPublisher over one AMQP channel.
type Publisher struct {
	conn     *amqp.Connection
	exchange string

	mu      sync.Mutex
	channel *amqp.Channel
}

// Dial connects to the broker and declares the exchange.
func Dial(url, exchange string) (*Publisher, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	err = ch.ExchangeDeclare(
		exchange,
		amqp.ExchangeTopic,
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return &Publisher{conn: conn, exchange: exchange, channel: ch}, nil
}

func (p *Publisher) Publish(ctx context.Context, event app.LifecycleEvent) error {
	msg, key, err := encodeEvent(event)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.channel.PublishWithContext(ctx, p.exchange, key, false, false, msg); err != nil {
		return fmt.Errorf("publish %s: %w", key, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	_ = p.channel.Close()
	return p.conn.Close()
}

func encodeEvent(event app.LifecycleEvent) (amqp.Publishing, string, error) {
	key, err := routingKey(event.Kind)
	if err != nil {
		return amqp.Publishing{}, "", err
	}
	body, err := json.Marshal(event)
	if err != nil {
		return amqp.Publishing{}, "", fmt.Errorf("marshal event: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    event.At,
		MessageId:    event.RoomCode + ":" + string(event.Kind),
		Body:         body,
	}, key, nil
}

func routingKey(kind app.EventKind) (string, error) {
	switch kind {
	case app.EventQuizStarted:
		return SessionStartRoutingKey, nil
	case app.EventQuizEnded:
		return SessionEndRoutingKey, nil
	case app.EventSessionCancelled:
		return SessionCancelRoutingKey, nil
	case app.EventRewardsDistributed:
		return SessionRewardsRoutingKey, nil
	default:
		return "", fmt.Errorf("no routing key for event %q", kind)
	}
}
