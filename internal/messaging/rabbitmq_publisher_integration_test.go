//go:build integration

package messaging

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

type PublisherIntegrationSuite struct {
	suite.Suite
	container *rabbitmq.RabbitMQContainer
	conn      *amqp.Connection
	publisher *RabbitMQChangePublisher
}

func (s *PublisherIntegrationSuite) SetupSuite() {
	ctx := context.Background()
	container, err := rabbitmq.Run(ctx,
		"rabbitmq:3-management-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("Server startup complete").WithStartupTimeout(3*time.Minute),
		),
	)
	s.Require().NoError(err)
	s.container = container

	amqpURL, err := container.AmqpURL(ctx)
	s.Require().NoError(err)

	s.conn, err = Connect(amqpURL, 5, 2*time.Second, zap.NewNop())
	s.Require().NoError(err)

	s.publisher, err = NewRabbitMQChangePublisher(s.conn, zap.NewNop())
	s.Require().NoError(err)
}

func (s *PublisherIntegrationSuite) TearDownSuite() {
	if s.publisher != nil {
		_ = s.publisher.Close()
	}
	if s.conn != nil {
		_ = s.conn.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(context.Background())
	}
}

func (s *PublisherIntegrationSuite) TestPublishedEventReachesBoundQueue() {
	ch, err := s.conn.Channel()
	s.Require().NoError(err)
	defer ch.Close()

	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	s.Require().NoError(err)
	s.Require().NoError(ch.QueueBind(q.Name, "", ChangeExchange, false, nil))

	deliveries, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	s.Require().NoError(err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err = s.publisher.PublishChange(ctx, ChangeEvent{
		Kind:    ChangeStoryCreated,
		IDs:     []string{"story-1"},
		Moments: 3,
		Stories: 1,
	})
	s.Require().NoError(err)

	select {
	case d := <-deliveries:
		s.Equal("application/json", d.ContentType)
		s.Equal(string(ChangeStoryCreated), d.Type)
		var got ChangeEvent
		s.Require().NoError(json.Unmarshal(d.Body, &got))
		s.Equal([]string{"story-1"}, got.IDs)
		s.Equal(3, got.Moments)
		s.False(got.Timestamp.IsZero())
	case <-ctx.Done():
		s.FailNow("change event was not delivered")
	}
}

func TestPublisherIntegrationSuite(t *testing.T) {
	suite.Run(t, new(PublisherIntegrationSuite))
}
