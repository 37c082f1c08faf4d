package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"storymatrix/internal/models"
	"storymatrix/internal/transfer"
)

// Ключи блобов совпадают с ключами старого браузерного хранилища.
const (
	MomentsKey = "photos"
	StoriesKey = "albums"
)

// GalleryState содержимое хранилища. Found* показывают, был ли блоб вообще.
type GalleryState struct {
	Moments      []models.Moment
	Stories      []models.Story
	FoundMoments bool
	FoundStories bool
}

// GalleryStateRepository читает и пишет два блоба галереи.
type GalleryStateRepository struct {
	store  StateStore
	logger *zap.Logger
}

func NewGalleryStateRepository(store StateStore, logger *zap.Logger) *GalleryStateRepository {
	return &GalleryStateRepository{
		store:  store,
		logger: logger.Named("GalleryStateRepo"),
	}
}

// Load читает оба блоба. Истории со старыми полями photoIds/coverPhotoUrl
// переводятся на momentIds/coverMomentUrl.
func (r *GalleryStateRepository) Load(ctx context.Context) (*GalleryState, error) {
	blobs, err := r.store.LoadAll(ctx, []string{MomentsKey, StoriesKey})
	if err != nil {
		return nil, err
	}

	state := &GalleryState{}
	if raw, ok := blobs[MomentsKey]; ok {
		if err := json.Unmarshal(raw, &state.Moments); err != nil {
			r.logger.Error("Failed to decode moments blob", zap.Error(err))
			return nil, fmt.Errorf("failed to decode %s: %w", MomentsKey, err)
		}
		state.FoundMoments = true
	}
	if raw, ok := blobs[StoriesKey]; ok {
		stories, err := transfer.DecodeStories(raw)
		if err != nil {
			r.logger.Error("Failed to decode stories blob", zap.Error(err))
			return nil, fmt.Errorf("failed to decode %s: %w", StoriesKey, err)
		}
		state.Stories = stories
		state.FoundStories = true
	}

	r.logger.Info("Gallery state loaded",
		zap.Int("moments", len(state.Moments)),
		zap.Int("stories", len(state.Stories)),
	)
	return state, nil
}

// Save записывает обе коллекции одной операцией.
func (r *GalleryStateRepository) Save(ctx context.Context, moments []models.Moment, stories []models.Story) error {
	if moments == nil {
		moments = []models.Moment{}
	}
	if stories == nil {
		stories = []models.Story{}
	}
	momentsBlob, err := json.Marshal(moments)
	if err != nil {
		return fmt.Errorf("failed to encode moments: %w", err)
	}
	storiesBlob, err := json.Marshal(stories)
	if err != nil {
		return fmt.Errorf("failed to encode stories: %w", err)
	}
	return r.store.SaveAll(ctx, map[string][]byte{
		MomentsKey: momentsBlob,
		StoriesKey: storiesBlob,
	})
}
