package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"storymatrix/internal/messaging"
	"storymatrix/internal/models"
	"storymatrix/internal/ordering"
	"storymatrix/internal/store"
	"storymatrix/internal/transfer"
)

// ImportResult сколько записей пришло из файла импорта.
type ImportResult struct {
	Moments         int  `json:"moments"`
	Stories         int  `json:"stories"`
	MomentsReplaced bool `json:"momentsReplaced"`
	StoriesReplaced bool `json:"storiesReplaced"`
}

// GalleryService определяет операции над галереей. Каждая мутация
// сохраняется целиком; если запись не удалась, состояние откатывается.
type GalleryService interface {
	Load(ctx context.Context, seedSamples bool) error

	ListMoments(query string) []models.Moment
	GetMoment(id string) (models.Moment, error)
	Ingest(ctx context.Context, items []store.IngestItem) ([]models.Moment, error)
	DeleteMoment(ctx context.Context, id string) error
	DeleteMoments(ctx context.Context, ids []string) (int, error)
	SaveMetadata(ctx context.Context, id string, meta *models.MomentMetadata) (models.Moment, error)

	ListStories() []models.Story
	GetStory(id string) (models.Story, error)
	StoryMoments(id, query string) ([]models.Moment, error)
	CreateStory(ctx context.Context, title string, momentIDs []string) (models.Story, error)
	AddToStory(ctx context.Context, storyID string, momentIDs []string) (models.Story, error)
	ReorderStory(ctx context.Context, storyID, dragged, target string, side ordering.Side) (models.Story, error)
	RenameStory(ctx context.Context, storyID, title string) (models.Story, error)
	DeleteStory(ctx context.Context, storyID string) error

	ToggleSelection(id string) []string
	ClearSelection()
	Selection() []string

	Export() ([]byte, error)
	Import(ctx context.Context, data []byte) (ImportResult, error)
}

type galleryServiceImpl struct {
	// mu упорядочивает пары "мутация + запись", чтобы записи не обгоняли друг друга.
	mu        sync.Mutex
	store     *store.Store
	repo      GalleryStateRepository
	publisher messaging.ChangePublisher
	logger    *zap.Logger
}

func NewGalleryService(st *store.Store, repo GalleryStateRepository, publisher messaging.ChangePublisher, logger *zap.Logger) GalleryService {
	if publisher == nil {
		publisher = messaging.NoopPublisher{}
	}
	return &galleryServiceImpl{
		store:     st,
		repo:      repo,
		publisher: publisher,
		logger:    logger.Named("GalleryService"),
	}
}

// Load читает сохранённое состояние. Пустая галерея заполняется примерами,
// если seedSamples, и примеры сразу сохраняются.
func (s *galleryServiceImpl) Load(ctx context.Context, seedSamples bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.repo.Load(ctx)
	if err != nil {
		s.logger.Error("Failed to load gallery state", zap.Error(err))
		return fmt.Errorf("failed to load gallery state: %w", err)
	}
	s.store.Replace(state.Moments, state.Stories)

	if seedSamples && s.store.SeedSamples() {
		s.logger.Info("Gallery is empty, sample moments seeded", zap.Int("count", len(store.SampleURLs)))
		moments, stories := s.store.Snapshot()
		if err := s.repo.Save(ctx, moments, stories); err != nil {
			s.logger.Error("Failed to persist sample moments", zap.Error(err))
			return fmt.Errorf("failed to persist sample moments: %w", err)
		}
	}
	return nil
}

// mutate выполняет fn и сохраняет результат. При ошибке записи store
// возвращается к состоянию до fn.
func (s *galleryServiceImpl) mutate(ctx context.Context, kind messaging.ChangeKind, fn func() ([]string, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := s.store.Checkpoint()
	ids, err := fn()
	if err != nil {
		return err
	}

	moments, stories := s.store.Snapshot()
	if err := s.repo.Save(ctx, moments, stories); err != nil {
		s.store.Restore(cp)
		s.logger.Error("Failed to persist gallery, change rolled back",
			zap.String("change", string(kind)),
			zap.Error(err),
		)
		return fmt.Errorf("failed to persist gallery: %w", err)
	}

	event := messaging.ChangeEvent{
		Kind:      kind,
		IDs:       ids,
		Moments:   len(moments),
		Stories:   len(stories),
		Timestamp: time.Now().UTC(),
	}
	if err := s.publisher.PublishChange(ctx, event); err != nil {
		// Событие не критично: состояние уже сохранено
		s.logger.Warn("Failed to publish gallery change", zap.String("change", string(kind)), zap.Error(err))
	}
	return nil
}

func (s *galleryServiceImpl) ListMoments(query string) []models.Moment {
	return store.Filter(s.store.Moments(), query)
}

func (s *galleryServiceImpl) GetMoment(id string) (models.Moment, error) {
	return s.store.Moment(id)
}

func (s *galleryServiceImpl) Ingest(ctx context.Context, items []store.IngestItem) ([]models.Moment, error) {
	for i, item := range items {
		if strings.TrimSpace(item.URL) == "" {
			return nil, fmt.Errorf("item %d has no url: %w", i, models.ErrInvalidInput)
		}
	}
	var added []models.Moment
	err := s.mutate(ctx, messaging.ChangeMomentsIngested, func() ([]string, error) {
		added = s.store.Ingest(items)
		return momentIDs(added), nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Moments ingested", zap.Int("requested", len(items)), zap.Int("added", len(added)))
	return added, nil
}

func (s *galleryServiceImpl) DeleteMoment(ctx context.Context, id string) error {
	return s.mutate(ctx, messaging.ChangeMomentsDeleted, func() ([]string, error) {
		if err := s.store.DeleteMoment(id); err != nil {
			return nil, err
		}
		return []string{id}, nil
	})
}

func (s *galleryServiceImpl) DeleteMoments(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, fmt.Errorf("no moment ids: %w", models.ErrInvalidInput)
	}
	var deleted int
	err := s.mutate(ctx, messaging.ChangeMomentsDeleted, func() ([]string, error) {
		deleted = s.store.DeleteMoments(ids)
		return ids, nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

func (s *galleryServiceImpl) SaveMetadata(ctx context.Context, id string, meta *models.MomentMetadata) (models.Moment, error) {
	var saved models.Moment
	err := s.mutate(ctx, messaging.ChangeMomentEdited, func() ([]string, error) {
		var err error
		saved, err = s.store.SaveMetadata(id, meta)
		return []string{id}, err
	})
	return saved, err
}

func (s *galleryServiceImpl) ListStories() []models.Story {
	return s.store.Stories()
}

func (s *galleryServiceImpl) GetStory(id string) (models.Story, error) {
	return s.store.Story(id)
}

func (s *galleryServiceImpl) StoryMoments(id, query string) ([]models.Moment, error) {
	moments, err := s.store.StoryMoments(id)
	if err != nil {
		return nil, err
	}
	return store.Filter(moments, query), nil
}

func (s *galleryServiceImpl) CreateStory(ctx context.Context, title string, ids []string) (models.Story, error) {
	var created models.Story
	err := s.mutate(ctx, messaging.ChangeStoryCreated, func() ([]string, error) {
		var err error
		created, err = s.store.CreateStory(title, ids)
		if err != nil {
			return nil, err
		}
		// Выбор, из которого создана история, больше не нужен
		s.store.ClearSelection()
		return []string{created.ID}, nil
	})
	return created, err
}

func (s *galleryServiceImpl) AddToStory(ctx context.Context, storyID string, ids []string) (models.Story, error) {
	return s.updateStory(ctx, storyID, func() (models.Story, error) {
		return s.store.AddToStory(storyID, ids)
	})
}

func (s *galleryServiceImpl) ReorderStory(ctx context.Context, storyID, dragged, target string, side ordering.Side) (models.Story, error) {
	return s.updateStory(ctx, storyID, func() (models.Story, error) {
		return s.store.ReorderStory(storyID, dragged, target, side)
	})
}

func (s *galleryServiceImpl) RenameStory(ctx context.Context, storyID, title string) (models.Story, error) {
	return s.updateStory(ctx, storyID, func() (models.Story, error) {
		return s.store.RenameStory(storyID, title)
	})
}

func (s *galleryServiceImpl) updateStory(ctx context.Context, storyID string, fn func() (models.Story, error)) (models.Story, error) {
	var updated models.Story
	err := s.mutate(ctx, messaging.ChangeStoryUpdated, func() ([]string, error) {
		var err error
		updated, err = fn()
		return []string{storyID}, err
	})
	return updated, err
}

func (s *galleryServiceImpl) DeleteStory(ctx context.Context, storyID string) error {
	return s.mutate(ctx, messaging.ChangeStoryDeleted, func() ([]string, error) {
		return []string{storyID}, s.store.DeleteStory(storyID)
	})
}

func (s *galleryServiceImpl) ToggleSelection(id string) []string {
	return s.store.ToggleSelection(id)
}

func (s *galleryServiceImpl) ClearSelection() {
	s.store.ClearSelection()
}

func (s *galleryServiceImpl) Selection() []string {
	return s.store.Selection()
}

func (s *galleryServiceImpl) Export() ([]byte, error) {
	moments, stories := s.store.Snapshot()
	return transfer.Export(moments, stories)
}

// Import применяет файл резервной копии. Коллекция, которой нет в файле,
// остаётся прежней. Если файл не разобрался, ничего не меняется.
func (s *galleryServiceImpl) Import(ctx context.Context, data []byte) (ImportResult, error) {
	imported, err := transfer.Import(data)
	if err != nil {
		s.logger.Warn("Rejected import file", zap.Int("bytes", len(data)), zap.Error(err))
		return ImportResult{}, err
	}

	res := ImportResult{
		Moments:         len(imported.Moments),
		Stories:         len(imported.Stories),
		MomentsReplaced: imported.HasMoments,
		StoriesReplaced: imported.HasStories,
	}
	err = s.mutate(ctx, messaging.ChangeGalleryImported, func() ([]string, error) {
		moments, stories := s.store.Snapshot()
		if imported.HasMoments {
			moments = imported.Moments
		}
		if imported.HasStories {
			stories = imported.Stories
		}
		s.store.Replace(moments, stories)
		return nil, nil
	})
	if err != nil {
		return ImportResult{}, err
	}
	s.logger.Info("Gallery imported",
		zap.Int("moments", res.Moments),
		zap.Int("stories", res.Stories),
	)
	return res, nil
}

func momentIDs(list []models.Moment) []string {
	ids := make([]string, 0, len(list))
	for _, m := range list {
		ids = append(ids, m.ID)
	}
	return ids
}
