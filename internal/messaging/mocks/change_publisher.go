package mocks

import (
	"context"

	"storymatrix/internal/messaging"

	"github.com/stretchr/testify/mock"
)

// ChangePublisher мок для messaging.ChangePublisher.
type ChangePublisher struct {
	mock.Mock
}

func (m *ChangePublisher) PublishChange(ctx context.Context, event messaging.ChangeEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *ChangePublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}
