package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/amishk599/jobbeacon/internal/model"
)

var (
	_ model.EmailSender = (*LogEmailSender)(nil)
	_ model.EmailSender = (*AMQPEmailSender)(nil)
)

// LogEmailSender writes each email to the logger instead of sending it.
type LogEmailSender struct {
	from   string
	logger *slog.Logger
}

func NewLogEmailSender(from string, logger *slog.Logger) *LogEmailSender {
	return &LogEmailSender{from: from, logger: logger}
}

func (s *LogEmailSender) SendEmail(_ context.Context, to, subject, body string, postings []model.Posting) error {
	s.logger.Info("email",
		"to", to,
		"from", s.from,
		"subject", subject,
		"postings", len(postings),
		"bytes", len(body),
	)
	s.logger.Debug("email body", "to", to, "html", body)
	return nil
}

// OutboundEmail is the queue message consumed by the external mailer.
type OutboundEmail struct {
	To       string   `json:"to"`
	From     string   `json:"from"`
	Subject  string   `json:"subject"`
	HTML     string   `json:"html"`
	JobURLs  []string `json:"jobUrls"`
	QueuedAt string   `json:"queuedAt"`
}

// AMQPEmailSender publishes emails to a durable RabbitMQ queue.
type AMQPEmailSender struct {
	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
	from    string
	logger  *slog.Logger
}

// NewAMQPEmailSender dials url and declares the durable queue.
func NewAMQPEmailSender(url, queue, from string, logger *slog.Logger) (*AMQPEmailSender, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connecting to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("opening channel: %w", err)
	}

	q, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declaring queue %s: %w", queue, err)
	}

	logger.Info("connected to rabbitmq", "queue", q.Name)
	return &AMQPEmailSender{conn: conn, channel: ch, queue: q.Name, from: from, logger: logger}, nil
}

func (s *AMQPEmailSender) SendEmail(ctx context.Context, to, subject, body string, postings []model.Posting) error {
	urls := make([]string, len(postings))
	for i, p := range postings {
		urls[i] = p.URL
	}
	msg, err := json.Marshal(OutboundEmail{
		To:       to,
		From:     s.from,
		Subject:  subject,
		HTML:     body,
		JobURLs:  urls,
		QueuedAt: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("marshal email message: %w", err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// Channels are not safe for concurrent publishing.
	s.mu.Lock()
	defer s.mu.Unlock()
	err = s.channel.PublishWithContext(pubCtx,
		"",      // exchange
		s.queue, // routing key
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         msg,
		},
	)
	if err != nil {
		return fmt.Errorf("publishing email to %s: %w", s.queue, err)
	}
	s.logger.Debug("email queued", "to", to, "queue", s.queue)
	return nil
}

// Close closes the channel and connection.
func (s *AMQPEmailSender) Close() error {
	s.channel.Close()
	return s.conn.Close()
}
