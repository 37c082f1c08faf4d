package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	// ChangeExchange fanout exchange для событий галереи.
	ChangeExchange     = "storymatrix.gallery_changes"
	changeExchangeType = "fanout"
)

var _ ChangePublisher = (*RabbitMQChangePublisher)(nil)

// RabbitMQChangePublisher публикует ChangeEvent в fanout exchange.
type RabbitMQChangePublisher struct {
	mu           sync.Mutex // amqp091.Channel нельзя использовать из нескольких горутин
	ch           *amqp091.Channel
	logger       *zap.Logger
	exchangeName string
}

// NewRabbitMQChangePublisher открывает канал и объявляет exchange.
func NewRabbitMQChangePublisher(conn *amqp091.Connection, logger *zap.Logger) (*RabbitMQChangePublisher, error) {
	if conn == nil {
		return nil, fmt.Errorf("rabbitmq connection is nil")
	}

	ch, err := conn.Channel()
	if err != nil {
		logger.Error("Failed to open a channel for gallery changes", zap.Error(err))
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		ChangeExchange,
		changeExchangeType,
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		_ = ch.Close()
		logger.Error("Failed to declare gallery change exchange", zap.String("exchange", ChangeExchange), zap.Error(err))
		return nil, fmt.Errorf("failed to declare exchange '%s': %w", ChangeExchange, err)
	}

	logger.Info("Gallery change exchange declared", zap.String("exchange", ChangeExchange))

	return &RabbitMQChangePublisher{
		ch:           ch,
		logger:       logger.Named("ChangePublisher"),
		exchangeName: ChangeExchange,
	}, nil
}

func (p *RabbitMQChangePublisher) PublishChange(ctx context.Context, event ChangeEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal change event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.ch.PublishWithContext(ctx,
		p.exchangeName,
		"",    // routing key (не используется для fanout)
		false, // mandatory
		false, // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Body:         body,
			Timestamp:    event.Timestamp,
			Type:         string(event.Kind),
		},
	)
	if err != nil {
		p.logger.Error("Failed to publish change event", zap.String("kind", string(event.Kind)), zap.Error(err))
		return fmt.Errorf("failed to publish change event: %w", err)
	}

	p.logger.Debug("Change event published", zap.String("kind", string(event.Kind)), zap.Int("ids", len(event.IDs)))
	return nil
}

// Close закрывает канал. Соединением владеет вызывающий.
func (p *RabbitMQChangePublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil {
		return p.ch.Close()
	}
	return nil
}
