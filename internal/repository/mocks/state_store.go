package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// StateStore мок repository.StateStore.
type StateStore struct {
	mock.Mock
}

func (m *StateStore) LoadAll(ctx context.Context, keys []string) (map[string][]byte, error) {
	args := m.Called(ctx, keys)
	if v := args.Get(0); v != nil {
		return v.(map[string][]byte), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *StateStore) SaveAll(ctx context.Context, entries map[string][]byte) error {
	args := m.Called(ctx, entries)
	return args.Error(0)
}

func (m *StateStore) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *StateStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
