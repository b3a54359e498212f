package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"

	"mcq-app/internal/quiz"
)

const (
	DefaultExchange = "mcq.events"

	TypeQuizCompleted = "quiz.completed"
)

// QuizCompletedEvent is the message body published for every completed quiz.
type QuizCompletedEvent struct {
	EventID    string             `json:"event_id"`
	EventType  string             `json:"event_type"`
	OccurredAt time.Time          `json:"occurred_at"`
	SessionID  string             `json:"session_id"`
	Reason     string             `json:"reason"`
	Difficulty string             `json:"difficulty"`
	Result     quiz.ScoreResult   `json:"result"`
	Record     quiz.HistoryRecord `json:"record"`
}

// Publisher sends quiz.completed events to a topic exchange. With an empty
// URI it is disabled and every publish is a no-op.
type Publisher struct {
	mu       sync.Mutex
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
	enabled  bool

	now func() time.Time
}

func NewPublisher(rabbitURI, exchange string) (*Publisher, error) {
	exchange = strings.TrimSpace(exchange)
	if exchange == "" {
		exchange = DefaultExchange
	}

	if strings.TrimSpace(rabbitURI) == "" {
		log.Println("RabbitMQ URI is empty, completion events are disabled")
		return &Publisher{exchange: exchange, now: time.Now}, nil
	}

	conn, err := amqp091.Dial(rabbitURI)
	if err != nil {
		return nil, fmt.Errorf("connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}

	log.Printf("completion events go to exchange %s", exchange)

	return &Publisher{
		conn:     conn,
		channel:  channel,
		exchange: exchange,
		enabled:  true,
		now:      time.Now,
	}, nil
}

func (p *Publisher) Enabled() bool {
	return p.enabled
}

// PublishCompletion implements quiz.CompletionPublisher.
func (p *Publisher) PublishCompletion(ctx context.Context, completion quiz.CompletionEvent) error {
	if !p.enabled {
		return nil
	}

	message, err := p.buildMessage(completion)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.channel.PublishWithContext(
		ctx,
		p.exchange,        // exchange
		TypeQuizCompleted, // routing key
		false,             // mandatory
		false,             // immediate
		message,
	)
	if err != nil {
		return fmt.Errorf("publish %s: %w", TypeQuizCompleted, err)
	}
	return nil
}

func (p *Publisher) buildMessage(completion quiz.CompletionEvent) (amqp091.Publishing, error) {
	occurredAt := p.now().UTC()
	body, err := json.Marshal(QuizCompletedEvent{
		EventID:    uuid.NewString(),
		EventType:  TypeQuizCompleted,
		OccurredAt: occurredAt,
		SessionID:  completion.SessionID,
		Reason:     completion.Reason,
		Difficulty: completion.Difficulty,
		Result:     completion.Result,
		Record:     completion.Record,
	})
	if err != nil {
		return amqp091.Publishing{}, fmt.Errorf("marshal %s: %w", TypeQuizCompleted, err)
	}

	return amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		Timestamp:    occurredAt,
		Body:         body,
		Headers: amqp091.Table{
			"event_type": TypeQuizCompleted,
			"session_id": completion.SessionID,
			"difficulty": completion.Difficulty,
		},
	}, nil
}

func (p *Publisher) Close() error {
	if !p.enabled {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			log.Printf("close RabbitMQ channel: %v", err)
		}
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			return fmt.Errorf("close RabbitMQ connection: %w", err)
		}
	}
	return nil
}
