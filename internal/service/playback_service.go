package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"storymatrix/internal/models"
	"storymatrix/internal/navigator"
	"storymatrix/internal/typewriter"
)

// StreamUpdate сообщение потока проигрывания: новый слайд или шаг печати.
type StreamUpdate struct {
	Slide      *navigator.Frame `json:"slide,omitempty"`
	Typewriter typewriter.Frame `json:"typewriter"`
}

// PlaybackService управляет сессиями проигрывания историй.
type PlaybackService interface {
	// Start начинает проигрывание истории, при startMomentID с указанного момента.
	Start(storyID, startMomentID string) (string, navigator.Frame, error)
	Frame(sessionID string) (navigator.Frame, error)
	HandleKey(sessionID, key string) (navigator.Action, navigator.Frame, error)
	SelectChoice(sessionID, choiceID string) (navigator.Frame, error)
	Jump(sessionID, momentID string) (navigator.Frame, error)
	Exit(sessionID string) error
	// Stream отправляет слайды и шаги печатной машинки, пока сессия жива и ctx не отменён.
	Stream(ctx context.Context, sessionID string, onUpdate func(StreamUpdate) error) error
	Active() int
}

type playbackSession struct {
	mu      sync.Mutex
	id      string
	storyID string
	nav     *navigator.Navigator
	seq     *typewriter.Sequencer
	changed chan struct{}
	exited  bool
}

// slideChanged перезапускает печать под текущий слайд. Вызывать под mu.
func (p *playbackSession) slideChanged() navigator.Frame {
	f := p.nav.Frame()
	p.seq.Reset(f.Text, time.Duration(f.TypewriterSpeed)*time.Millisecond)
	close(p.changed)
	p.changed = make(chan struct{})
	return f
}

// movedFrom перезапускает печать, только если индекс слайда изменился. Вызывать под mu.
func (p *playbackSession) movedFrom(prev int) navigator.Frame {
	if p.nav.Index() == prev {
		return p.nav.Frame()
	}
	return p.slideChanged()
}

type playbackServiceImpl struct {
	mu       sync.RWMutex
	sessions map[string]*playbackSession
	gallery  GalleryService
	logger   *zap.Logger
}

func NewPlaybackService(gallery GalleryService, logger *zap.Logger) PlaybackService {
	return &playbackServiceImpl{
		sessions: make(map[string]*playbackSession),
		gallery:  gallery,
		logger:   logger.Named("PlaybackService"),
	}
}

func (s *playbackServiceImpl) Start(storyID, startMomentID string) (string, navigator.Frame, error) {
	moments, err := s.gallery.StoryMoments(storyID, "")
	if err != nil {
		return "", navigator.Frame{}, err
	}
	nav, err := navigator.New(moments)
	if err != nil {
		return "", navigator.Frame{}, fmt.Errorf("story %s: %w", storyID, err)
	}
	if startMomentID != "" {
		nav.JumpToMoment(startMomentID)
	}

	f := nav.Frame()
	sess := &playbackSession{
		id:      uuid.NewString(),
		storyID: storyID,
		nav:     nav,
		seq:     typewriter.New(f.Text, time.Duration(f.TypewriterSpeed)*time.Millisecond),
		changed: make(chan struct{}),
	}

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	s.logger.Info("Playback started",
		zap.String("sessionID", sess.id),
		zap.String("storyID", storyID),
		zap.Int("moments", nav.Len()),
	)
	return sess.id, f, nil
}

func (s *playbackServiceImpl) get(sessionID string) (*playbackSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("playback %s: %w", sessionID, models.ErrPlaybackNotFound)
	}
	return sess, nil
}

func (s *playbackServiceImpl) Frame(sessionID string) (navigator.Frame, error) {
	sess, err := s.get(sessionID)
	if err != nil {
		return navigator.Frame{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.nav.Frame(), nil
}

func (s *playbackServiceImpl) HandleKey(sessionID, key string) (navigator.Action, navigator.Frame, error) {
	sess, err := s.get(sessionID)
	if err != nil {
		return navigator.ActionIgnored, navigator.Frame{}, err
	}

	sess.mu.Lock()
	prev := sess.nav.Index()
	action := sess.nav.HandleKey(key)
	var f navigator.Frame
	switch action {
	case navigator.ActionAdvance, navigator.ActionRetreat:
		// В истории из одного момента индекс не меняется
		f = sess.movedFrom(prev)
	default:
		f = sess.nav.Frame()
	}
	sess.mu.Unlock()

	if action == navigator.ActionExit {
		s.remove(sess)
	}
	return action, f, nil
}

func (s *playbackServiceImpl) SelectChoice(sessionID, choiceID string) (navigator.Frame, error) {
	sess, err := s.get(sessionID)
	if err != nil {
		return navigator.Frame{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	prev := sess.nav.Index()
	jumped, err := sess.nav.SelectChoice(choiceID)
	if err != nil {
		return navigator.Frame{}, err
	}
	if !jumped {
		// Цель выбора не входит в историю: остаёмся на месте
		s.logger.Debug("Choice target is not part of the story",
			zap.String("sessionID", sessionID),
			zap.String("choiceID", choiceID),
		)
		return sess.nav.Frame(), nil
	}
	return sess.movedFrom(prev), nil
}

func (s *playbackServiceImpl) Jump(sessionID, momentID string) (navigator.Frame, error) {
	sess, err := s.get(sessionID)
	if err != nil {
		return navigator.Frame{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	prev := sess.nav.Index()
	if !sess.nav.JumpToMoment(momentID) {
		return sess.nav.Frame(), nil
	}
	return sess.movedFrom(prev), nil
}

func (s *playbackServiceImpl) Exit(sessionID string) error {
	sess, err := s.get(sessionID)
	if err != nil {
		return err
	}
	sess.mu.Lock()
	sess.nav.Exit()
	sess.mu.Unlock()
	s.remove(sess)
	return nil
}

func (s *playbackServiceImpl) remove(sess *playbackSession) {
	sess.mu.Lock()
	if !sess.exited {
		sess.exited = true
		close(sess.changed)
		sess.changed = make(chan struct{})
	}
	sess.mu.Unlock()

	s.mu.Lock()
	delete(s.sessions, sess.id)
	s.mu.Unlock()
	s.logger.Info("Playback finished", zap.String("sessionID", sess.id), zap.String("storyID", sess.storyID))
}

func (s *playbackServiceImpl) Stream(ctx context.Context, sessionID string, onUpdate func(StreamUpdate) error) error {
	sess, err := s.get(sessionID)
	if err != nil {
		return err
	}

	for {
		sess.mu.Lock()
		if sess.exited {
			sess.mu.Unlock()
			return models.ErrPlaybackFinished
		}
		f := sess.nav.Frame()
		changed := sess.changed
		tw := sess.seq.Frame()
		sess.mu.Unlock()

		if err := onUpdate(StreamUpdate{Slide: &f, Typewriter: tw}); err != nil {
			return err
		}

		select {
		case <-changed:
			continue
		default:
		}

		err := sess.seq.Run(ctx, func(tf typewriter.Frame) error {
			return onUpdate(StreamUpdate{Typewriter: tf})
		})
		switch {
		case errors.Is(err, typewriter.ErrReset):
			continue
		case err != nil:
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-changed:
		}
	}
}

func (s *playbackServiceImpl) Active() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
