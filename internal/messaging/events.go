// Package messaging публикует события об изменениях галереи.
package messaging

import (
	"context"
	"time"
)

// ChangeKind тип изменения.
type ChangeKind string

const (
	ChangeMomentsIngested ChangeKind = "moments.ingested"
	ChangeMomentsDeleted  ChangeKind = "moments.deleted"
	ChangeMomentEdited    ChangeKind = "moment.edited"
	ChangeStoryCreated    ChangeKind = "story.created"
	ChangeStoryUpdated    ChangeKind = "story.updated"
	ChangeStoryDeleted    ChangeKind = "story.deleted"
	ChangeGalleryImported ChangeKind = "gallery.imported"
)

// ChangeEvent сообщение об изменении, отправляемое после успешного сохранения.
type ChangeEvent struct {
	Kind      ChangeKind `json:"kind"`
	IDs       []string   `json:"ids,omitempty"`
	Moments   int        `json:"moments"`
	Stories   int        `json:"stories"`
	Timestamp time.Time  `json:"timestamp"`
}

// ChangePublisher отправляет события об изменениях.
type ChangePublisher interface {
	PublishChange(ctx context.Context, event ChangeEvent) error
	Close() error
}

// NoopPublisher используется, когда брокер не настроен.
type NoopPublisher struct{}

func (NoopPublisher) PublishChange(context.Context, ChangeEvent) error { return nil }
func (NoopPublisher) Close() error                                     { return nil }
