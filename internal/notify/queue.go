package notify

import (
	"context"       // Consumer shutdown
	"encoding/json" // Message encoding
	"errors"        // Closed channel error
	"sync"          // Channel is not safe for concurrent publishing

	"github.com/sirupsen/logrus" // Structured logging
	"github.com/streadway/amqp"  // RabbitMQ client
)

// DefaultQueue is the queue mail is published to when none is configured
const DefaultQueue = "mail_queue"

// Queue publishes and consumes mail through a durable RabbitMQ queue
type Queue struct {
	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
	name    string
}

// DialQueue connects to RabbitMQ and declares the mail queue
func DialQueue(url, name string) (*Queue, error) {
	if name == "" {
		name = DefaultQueue
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	_, err = ch.QueueDeclare(
		name,  // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	return &Queue{conn: conn, channel: ch, name: name}, nil
}

// Close releases the channel and connection
func (q *Queue) Close() {
	if q.channel != nil {
		q.channel.Close()
	}
	if q.conn != nil {
		q.conn.Close()
	}
}

// Send publishes msg as a persistent JSON message
func (q *Queue) Send(_ context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.channel.Publish(
		"",     // exchange
		q.name, // routing key
		false,  // mandatory
		false,  // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         body,
		},
	)
}

// Consume delivers queued mail with sender until ctx is done.
// Failed deliveries are requeued, undecodable ones dropped.
func (q *Queue) Consume(ctx context.Context, sender Sender) error {
	msgs, err := q.channel.Consume(
		q.name, // queue
		"",     // consumer
		false,  // auto-ack
		false,  // exclusive
		false,  // no-local
		false,  // no-wait
		nil,    // args
	)
	if err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return errors.New("mail queue channel closed")
			}
			settle(ctx, sender, d.Body, d)
		}
	}
}

// acknowledger is the subset of amqp.Delivery used to settle a message
type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func settle(ctx context.Context, sender Sender, body []byte, ack acknowledger) {
	var msg Message
	if err := json.Unmarshal(body, &msg); err != nil {
		logrus.WithError(err).Error("Dropping undecodable mail message")
		_ = ack.Nack(false, false) // reject without requeue
		return
	}
	if err := sender.Send(ctx, msg); err != nil {
		logrus.WithFields(logrus.Fields{
			"to":      msg.To,
			"subject": msg.Subject,
			"error":   err.Error(),
		}).Error("Failed to deliver queued mail")
		_ = ack.Nack(false, true) // reject and requeue
		return
	}
	logrus.WithFields(logrus.Fields{"to": msg.To, "subject": msg.Subject}).Info("Queued mail delivered")
	_ = ack.Ack(false)
}
