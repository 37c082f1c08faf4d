package service

import (
	"context"

	"storymatrix/internal/models"
	"storymatrix/internal/repository"
)

// GalleryStateRepository постоянное хранилище двух коллекций галереи.
type GalleryStateRepository interface {
	Load(ctx context.Context) (*repository.GalleryState, error)
	Save(ctx context.Context, moments []models.Moment, stories []models.Story) error
}

var _ GalleryStateRepository = (*repository.GalleryStateRepository)(nil)
