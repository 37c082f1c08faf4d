package service

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"storymatrix/internal/editor"
	"storymatrix/internal/models"
	"storymatrix/internal/stickers"
)

// EditorService держит единственную активную сессию редактирования.
type EditorService interface {
	// Open открывает момент. Несохранённая предыдущая сессия отбрасывается.
	Open(momentID string) (editor.State, error)
	Current() (editor.State, error)
	// Apply выполняет правку над активной сессией и возвращает новое состояние.
	Apply(fn func(*editor.Session) error) (editor.State, error)
	Transforms(displayScale float64) ([]stickers.Transform, error)
	// Save сохраняет буфер в момент. Буфер фиксируется только после успешной записи.
	Save(ctx context.Context) (models.Moment, error)
	Discard() (editor.State, error)
	Close() bool
}

type editorServiceImpl struct {
	mu        sync.Mutex
	session   *editor.Session
	gallery   GalleryService
	listeners stickers.Listeners
	logger    *zap.Logger
}

func NewEditorService(gallery GalleryService, listeners stickers.Listeners, logger *zap.Logger) EditorService {
	return &editorServiceImpl{
		gallery:   gallery,
		listeners: listeners,
		logger:    logger.Named("EditorService"),
	}
}

func (s *editorServiceImpl) Open(momentID string) (editor.State, error) {
	m, err := s.gallery.GetMoment(momentID)
	if err != nil {
		return editor.State{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session != nil {
		s.session.CancelDrag()
		s.logger.Debug("Previous edit session dropped", zap.String("momentID", s.session.MomentID()))
	}
	s.session = editor.Open(m, s.listeners)
	s.logger.Info("Edit session opened", zap.String("momentID", momentID))
	return s.session.State(), nil
}

func (s *editorServiceImpl) active() (*editor.Session, error) {
	if s.session == nil {
		return nil, models.ErrNoActiveSession
	}
	return s.session, nil
}

func (s *editorServiceImpl) Current() (editor.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.active()
	if err != nil {
		return editor.State{}, err
	}
	return sess.State(), nil
}

func (s *editorServiceImpl) Apply(fn func(*editor.Session) error) (editor.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.active()
	if err != nil {
		return editor.State{}, err
	}
	if err := fn(sess); err != nil {
		return editor.State{}, err
	}
	return sess.State(), nil
}

func (s *editorServiceImpl) Transforms(displayScale float64) ([]stickers.Transform, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.active()
	if err != nil {
		return nil, err
	}
	return sess.Transforms(displayScale), nil
}

func (s *editorServiceImpl) Save(ctx context.Context) (models.Moment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.active()
	if err != nil {
		return models.Moment{}, err
	}

	saved, err := s.gallery.SaveMetadata(ctx, sess.MomentID(), sess.Metadata())
	if err != nil {
		s.logger.Error("Failed to save moment metadata", zap.String("momentID", sess.MomentID()), zap.Error(err))
		return models.Moment{}, fmt.Errorf("failed to save moment %s: %w", sess.MomentID(), err)
	}
	sess.Commit()
	s.logger.Info("Moment saved", zap.String("momentID", saved.ID))
	return saved, nil
}

func (s *editorServiceImpl) Discard() (editor.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.active()
	if err != nil {
		return editor.State{}, err
	}
	sess.Discard()
	return sess.State(), nil
}

// Close закрывает сессию без сохранения.
func (s *editorServiceImpl) Close() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return false
	}
	s.session.CancelDrag()
	s.session = nil
	return true
}
