package mocks

import (
	"context"

	"storymatrix/internal/models"
	"storymatrix/internal/repository"

	"github.com/stretchr/testify/mock"
)

// GalleryStateRepository мок для service.GalleryStateRepository.
type GalleryStateRepository struct {
	mock.Mock
}

func (m *GalleryStateRepository) Load(ctx context.Context) (*repository.GalleryState, error) {
	args := m.Called(ctx)
	var state *repository.GalleryState
	if s := args.Get(0); s != nil {
		state = s.(*repository.GalleryState)
	}
	return state, args.Error(1)
}

func (m *GalleryStateRepository) Save(ctx context.Context, moments []models.Moment, stories []models.Story) error {
	args := m.Called(ctx, moments, stories)
	return args.Error(0)
}
