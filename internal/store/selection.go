package store

import (
	"storymatrix/internal/models"
	"storymatrix/internal/ordering"
)

// ToggleSelection добавляет момент в выбор или убирает из него.
// Порядок выбора сохраняется: первый выбранный станет обложкой новой истории.
func (s *Store) ToggleSelection(id string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, selected := range s.selection {
		if selected == id {
			s.selection = ordering.Remove(s.selection, id)
			return append([]string(nil), s.selection...)
		}
	}
	if s.momentIndex(id) >= 0 {
		s.selection = append(s.selection, id)
	}
	return append([]string(nil), s.selection...)
}

func (s *Store) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection = nil
}

func (s *Store) Selection() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.selection...)
}

// Checkpoint полное состояние store, включая выбор.
type Checkpoint struct {
	moments   []models.Moment
	stories   []models.Story
	selection []string
}

// Checkpoint запоминает состояние, чтобы откатить неудавшуюся запись.
func (s *Store) Checkpoint() Checkpoint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Checkpoint{
		moments:   cloneMoments(s.moments),
		stories:   cloneStories(s.stories),
		selection: append([]string(nil), s.selection...),
	}
}

// Restore возвращает store к сохранённому Checkpoint.
func (s *Store) Restore(cp Checkpoint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.moments = cloneMoments(cp.moments)
	s.stories = cloneStories(cp.stories)
	s.selection = append([]string(nil), cp.selection...)
}
