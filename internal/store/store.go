// Package store хранит моменты и истории в памяти и следит за их связностью:
// удаление момента вычищает его из всех историй, порядок внутри истории
// задаётся только списком momentIds.
package store

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"storymatrix/internal/models"
	"storymatrix/internal/ordering"
)

// SampleURLs моменты-примеры для пустой галереи.
var SampleURLs = []string{
	"https://picsum.photos/id/10/800/800",
	"https://picsum.photos/id/129/800/800",
	"https://picsum.photos/id/1025/800/800",
}

// IngestItem входящее изображение: загруженный файл (Base64) или ссылка.
type IngestItem struct {
	URL      string              `json:"url" binding:"required"`
	Base64   string              `json:"base64,omitempty"`
	MimeType string              `json:"mimeType"`
	Source   models.MomentSource `json:"source"`
}

// Store коллекции моментов и историй, новые в начале.
type Store struct {
	mu        sync.RWMutex
	moments   []models.Moment
	stories   []models.Story
	selection []string
	now       func() time.Time
}

// New создаёт пустой store.
func New() *Store {
	return &Store{now: time.Now}
}

// WithClock подменяет источник времени (для тестов).
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) nowMillis() int64 {
	return s.now().UnixMilli()
}

// Replace заменяет содержимое целиком: загрузка при старте и импорт.
func (s *Store) Replace(moments []models.Moment, stories []models.Story) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.moments = cloneMoments(moments)
	s.stories = cloneStories(stories)
	s.selection = nil
}

// Snapshot возвращает копии обеих коллекций.
func (s *Store) Snapshot() ([]models.Moment, []models.Story) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneMoments(s.moments), cloneStories(s.stories)
}

// SeedSamples добавляет моменты-примеры, если галерея пуста.
func (s *Store) SeedSamples() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.moments) > 0 {
		return false
	}
	now := s.nowMillis()
	for i, url := range SampleURLs {
		s.moments = append(s.moments, models.Moment{
			ID:        fmt.Sprintf("sample-%d", i),
			URL:       url,
			MimeType:  "image/jpeg",
			Source:    models.SourceSample,
			CreatedAt: now + int64(i),
		})
	}
	return true
}

func (s *Store) Moments() []models.Moment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneMoments(s.moments)
}

func (s *Store) Moment(id string) (models.Moment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.momentIndex(id)
	if i < 0 {
		return models.Moment{}, fmt.Errorf("moment %q: %w", id, models.ErrNotFound)
	}
	return s.moments[i].Clone(), nil
}

// Ingest добавляет новые моменты в начало галереи.
// Дубликаты отбрасываются: по base64, если он есть, и по url, причём как
// против существующих моментов, так и внутри самой пачки.
func (s *Store) Ingest(items []IngestItem) []models.Moment {
	s.mu.Lock()
	defer s.mu.Unlock()

	knownBase64 := make(map[string]struct{}, len(s.moments))
	knownURL := make(map[string]struct{}, len(s.moments))
	for _, m := range s.moments {
		if m.Base64 != "" {
			knownBase64[m.Base64] = struct{}{}
		}
		knownURL[m.URL] = struct{}{}
	}

	now := s.nowMillis()
	var added []models.Moment
	for _, item := range items {
		if item.Base64 != "" {
			if _, dup := knownBase64[item.Base64]; dup {
				continue
			}
		}
		if _, dup := knownURL[item.URL]; dup {
			continue
		}
		if item.Base64 != "" {
			knownBase64[item.Base64] = struct{}{}
		}
		knownURL[item.URL] = struct{}{}

		source := item.Source
		if source == "" {
			source = models.SourceURL
		}
		added = append(added, models.Moment{
			ID:        "moment-" + uuid.NewString(),
			URL:       item.URL,
			Base64:    item.Base64,
			MimeType:  item.MimeType,
			Source:    source,
			CreatedAt: now,
		})
	}
	if len(added) == 0 {
		return nil
	}

	next := make([]models.Moment, 0, len(added)+len(s.moments))
	next = append(next, added...)
	s.moments = append(next, s.moments...)
	return cloneMoments(added)
}

// DeleteMoment удаляет момент и убирает его id из всех историй.
func (s *Store) DeleteMoment(id string) error {
	if s.DeleteMoments([]string{id}) == 0 {
		return fmt.Errorf("moment %q: %w", id, models.ErrNotFound)
	}
	return nil
}

// DeleteMoments удаляет пачку моментов с той же очисткой историй и выбора.
// Возвращает число реально удалённых моментов.
func (s *Store) DeleteMoments(ids []string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	kept := s.moments[:0:0]
	for _, m := range s.moments {
		if _, ok := drop[m.ID]; !ok {
			kept = append(kept, m)
		}
	}
	removed := len(s.moments) - len(kept)
	s.moments = kept

	for i := range s.stories {
		s.stories[i].MomentIDs = ordering.Remove(s.stories[i].MomentIDs, ids...)
	}
	s.selection = ordering.Remove(s.selection, ids...)
	return removed
}

// SaveMetadata целиком заменяет метаданные момента.
func (s *Store) SaveMetadata(id string, meta *models.MomentMetadata) (models.Moment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.momentIndex(id)
	if i < 0 {
		return models.Moment{}, fmt.Errorf("moment %q: %w", id, models.ErrNotFound)
	}
	s.moments[i].Metadata = meta.Clone()
	return s.moments[i].Clone(), nil
}

func (s *Store) Stories() []models.Story {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneStories(s.stories)
}

func (s *Store) Story(id string) (models.Story, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.storyIndex(id)
	if i < 0 {
		return models.Story{}, fmt.Errorf("story %q: %w", id, models.ErrNotFound)
	}
	return s.stories[i].Clone(), nil
}

// CreateStory создаёт историю из указанных моментов в их порядке.
// Обложка фиксирует url первого момента на момент создания.
func (s *Store) CreateStory(title string, momentIDs []string) (models.Story, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return models.Story{}, fmt.Errorf("story title is empty: %w", models.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	story := models.Story{
		ID:        "story-" + uuid.NewString(),
		Title:     title,
		MomentIDs: ordering.MergeAdd(nil, momentIDs),
		CreatedAt: s.nowMillis(),
	}
	if len(story.MomentIDs) > 0 {
		if i := s.momentIndex(story.MomentIDs[0]); i >= 0 {
			story.CoverMomentURL = s.moments[i].URL
		}
	}

	next := make([]models.Story, 0, len(s.stories)+1)
	next = append(next, story)
	s.stories = append(next, s.stories...)
	return story.Clone(), nil
}

// AddToStory дописывает моменты в конец истории без повторов.
func (s *Store) AddToStory(storyID string, momentIDs []string) (models.Story, error) {
	return s.updateStory(storyID, func(st *models.Story) error {
		st.MomentIDs = ordering.MergeAdd(st.MomentIDs, momentIDs)
		return nil
	})
}

// ReorderStory переносит dragged рядом с target.
func (s *Store) ReorderStory(storyID, dragged, target string, side ordering.Side) (models.Story, error) {
	if side != ordering.SideLeft && side != ordering.SideRight {
		return models.Story{}, fmt.Errorf("side %q: %w", side, models.ErrInvalidInput)
	}
	return s.updateStory(storyID, func(st *models.Story) error {
		st.MomentIDs = ordering.Reorder(st.MomentIDs, dragged, target, side)
		return nil
	})
}

func (s *Store) RenameStory(storyID, title string) (models.Story, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return models.Story{}, fmt.Errorf("story title is empty: %w", models.ErrInvalidInput)
	}
	return s.updateStory(storyID, func(st *models.Story) error {
		st.Title = title
		return nil
	})
}

// DeleteStory удаляет историю. Моменты остаются в галерее.
func (s *Store) DeleteStory(storyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.storyIndex(storyID)
	if i < 0 {
		return fmt.Errorf("story %q: %w", storyID, models.ErrNotFound)
	}
	s.stories = append(s.stories[:i:i], s.stories[i+1:]...)
	return nil
}

// StoryMoments моменты истории в порядке momentIds. Висячие id пропускаются.
func (s *Store) StoryMoments(storyID string) ([]models.Moment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.storyIndex(storyID)
	if i < 0 {
		return nil, fmt.Errorf("story %q: %w", storyID, models.ErrNotFound)
	}
	byID := make(map[string]models.Moment, len(s.moments))
	for _, m := range s.moments {
		byID[m.ID] = m
	}
	out := make([]models.Moment, 0, len(s.stories[i].MomentIDs))
	for _, id := range s.stories[i].MomentIDs {
		if m, ok := byID[id]; ok {
			out = append(out, m.Clone())
		}
	}
	return out, nil
}

func (s *Store) updateStory(storyID string, fn func(*models.Story) error) (models.Story, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.storyIndex(storyID)
	if i < 0 {
		return models.Story{}, fmt.Errorf("story %q: %w", storyID, models.ErrNotFound)
	}
	st := s.stories[i].Clone()
	if err := fn(&st); err != nil {
		return models.Story{}, err
	}
	s.stories[i] = st
	return st.Clone(), nil
}

func (s *Store) momentIndex(id string) int {
	for i := range s.moments {
		if s.moments[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) storyIndex(id string) int {
	for i := range s.stories {
		if s.stories[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneMoments(in []models.Moment) []models.Moment {
	out := make([]models.Moment, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}

func cloneStories(in []models.Story) []models.Story {
	out := make([]models.Story, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}
