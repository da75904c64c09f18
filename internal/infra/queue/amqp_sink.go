package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/eyelabsai/QuickReviews/internal/domain/dispatch"

	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"
)

// Queue names match the collections the delivery workers consume.
const (
	smsQueueName  = "messages"
	mailQueueName = "mail"
)

// AMQPSink publishes dispatch payloads to durable RabbitMQ queues. It is the
// append-only boundary of the resend core; separate consumers drain the
// queues and talk to the actual SMS/email providers.
type AMQPSink struct {
	conn   *amqp.Connection
	ch     *amqp.Channel
	logger logrus.FieldLogger
}

func NewAMQPSink(url string, logger logrus.FieldLogger) (*AMQPSink, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	for _, name := range []string{smsQueueName, mailQueueName} {
		_, err := ch.QueueDeclare(
			name,
			true,  // durable
			false, // delete when unused
			false, // exclusive
			false, // no-wait
			nil,   // arguments
		)
		if err != nil {
			ch.Close()
			conn.Close()
			return nil, fmt.Errorf("failed to declare queue %s: %w", name, err)
		}
	}

	return &AMQPSink{conn: conn, ch: ch, logger: logger}, nil
}

func (s *AMQPSink) EnqueueSMS(ctx context.Context, p *dispatch.SMSPayload) error {
	return s.publish(ctx, smsQueueName, p)
}

func (s *AMQPSink) EnqueueEmail(ctx context.Context, p *dispatch.EmailPayload) error {
	return s.publish(ctx, mailQueueName, p)
}

func (s *AMQPSink) publish(ctx context.Context, queueName string, payload any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload for %s: %w", queueName, err)
	}

	err = s.ch.Publish(
		"",        // default exchange
		queueName, // routing key
		false,     // mandatory
		false,     // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", queueName, err)
	}

	s.logger.WithField("queue", queueName).Debug("Dispatch payload enqueued")
	return nil
}

func (s *AMQPSink) Close() error {
	if err := s.ch.Close(); err != nil {
		s.conn.Close()
		return fmt.Errorf("failed to close channel: %w", err)
	}
	return s.conn.Close()
}

var _ dispatch.Sink = (*AMQPSink)(nil)
