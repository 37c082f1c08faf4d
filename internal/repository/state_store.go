// Package repository хранит состояние галереи в key-value хранилище.
package repository

import (
	"context"
)

// StateStore key-value хранилище именованных JSON-блобов.
type StateStore interface {
	// LoadAll возвращает значения существующих ключей. Отсутствующие ключи в ответ не попадают.
	LoadAll(ctx context.Context, keys []string) (map[string][]byte, error)
	// SaveAll атомарно записывает все значения.
	SaveAll(ctx context.Context, entries map[string][]byte) error
	Ping(ctx context.Context) error
	Close() error
}
