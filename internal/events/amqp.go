package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// channelPublisher is the subset of *amqp.Channel used by the forwarder.
type channelPublisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPForwarder publishes every dispatched event to a topic exchange, using the event type
// as routing key.
type AMQPForwarder struct {
	conn     *amqp.Connection
	channel  channelPublisher
	exchange string
	logger   *zap.Logger
}

// NewAMQPForwarder dials the broker and declares a durable topic exchange.
func NewAMQPForwarder(url, exchange string, logger *zap.Logger) (*AMQPForwarder, error) {
	if url == "" {
		return nil, errors.New("amqp url is empty")
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	return &AMQPForwarder{conn: conn, channel: ch, exchange: exchange, logger: logger}, nil
}

func newAMQPForwarder(ch channelPublisher, exchange string, logger *zap.Logger) *AMQPForwarder {
	return &AMQPForwarder{channel: ch, exchange: exchange, logger: logger}
}

// Register subscribes the forwarder to every event type.
func (f *AMQPForwarder) Register(dispatcher Dispatcher) {
	if f == nil || dispatcher == nil {
		return
	}
	dispatcher.SubscribeAll(f.Forward)
}

// Forward publishes a single event.
func (f *AMQPForwarder) Forward(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	headers := amqp.Table{}
	if requestID, ok := ctx.Value(requestIDKey).(string); ok && requestID != "" {
		headers["X-Request-ID"] = requestID
	}

	return f.channel.PublishWithContext(
		ctx,
		f.exchange,
		string(event.Type),
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    event.ID,
			Timestamp:    event.Timestamp,
			Type:         string(event.Type),
			Headers:      headers,
			Body:         body,
		},
	)
}

// Close releases the channel and connection.
func (f *AMQPForwarder) Close() {
	if f == nil {
		return
	}
	if ch, ok := f.channel.(*amqp.Channel); ok && ch != nil {
		_ = ch.Close()
	}
	if f.conn != nil {
		_ = f.conn.Close()
	}
}

type contextKey string

const requestIDKey contextKey = "request_id"

// WithRequestID stores the request id so forwarded events carry it as a header.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}
