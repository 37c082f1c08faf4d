// Package typewriter раскрывает текст оверлея посимвольно с постоянной скоростью.
package typewriter

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

const (
	// DefaultSpeed интервал между символами для оверлея.
	DefaultSpeed = 40 * time.Millisecond
	// DialogueSpeed интервал для диалогового окна.
	DialogueSpeed = 25 * time.Millisecond
)

// ErrReset Run прерван вызовом Reset.
var ErrReset = errors.New("typewriter reset")

// Frame состояние раскрытия после очередного тика.
type Frame struct {
	Visible int  `json:"visible"`
	Total   int  `json:"total"`
	Done    bool `json:"done"`
}

// Sequencer счётчик видимых символов для одного текста.
// Reset начинает заново, поэтому смена текста посреди анимации не оставляет
// старый счётчик. Символы считаются в рунах.
type Sequencer struct {
	mu      sync.Mutex
	text    string
	total   int
	visible int
	speed   time.Duration

	resetCh   chan struct{}
	runID     uint64
	cancelRun context.CancelFunc
}

// New создаёт последовательность. Неположительная скорость заменяется на DefaultSpeed.
func New(text string, speed time.Duration) *Sequencer {
	if speed <= 0 {
		speed = DefaultSpeed
	}
	return &Sequencer{
		text:    text,
		total:   utf8.RuneCountInString(text),
		speed:   speed,
		resetCh: make(chan struct{}),
	}
}

// Reset сбрасывает счётчик в ноль и подставляет новый текст и скорость.
// Неположительная скорость оставляет текущую.
func (s *Sequencer) Reset(text string, speed time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.text = text
	s.total = utf8.RuneCountInString(text)
	s.visible = 0
	if speed > 0 {
		s.speed = speed
	}
	close(s.resetCh)
	s.resetCh = make(chan struct{})
}

// Tick открывает ещё один символ. Возвращает false, если открывать больше нечего.
func (s *Sequencer) Tick() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.visible >= s.total {
		return false
	}
	s.visible++
	return true
}

func (s *Sequencer) Frame() Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Frame{Visible: s.visible, Total: s.total, Done: s.visible >= s.total}
}

// VisibleCount сколько символов уже открыто.
func (s *Sequencer) VisibleCount() int {
	return s.Frame().Visible
}

func (s *Sequencer) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text
}

func (s *Sequencer) Speed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.speed
}

// Done сообщает, что открыт весь текст.
func (s *Sequencer) Done() bool {
	return s.Frame().Done
}

// Run тикает с интервалом speed и вызывает onTick после каждого шага.
// Останавливается, когда текст раскрыт (nil), отменён ctx (ctx.Err()) или
// вызван Reset (ErrReset). Новый Run отменяет предыдущий, так что цикл
// всегда один.
func (s *Sequencer) Run(ctx context.Context, onTick func(Frame) error) error {
	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	if s.cancelRun != nil {
		s.cancelRun()
	}
	s.runID++
	id := s.runID
	s.cancelRun = cancel
	reset := s.resetCh
	speed := s.speed
	done := s.visible >= s.total
	s.mu.Unlock()

	defer func() {
		cancel()
		s.mu.Lock()
		if s.runID == id {
			s.cancelRun = nil
		}
		s.mu.Unlock()
	}()

	if done {
		return nil
	}
	ticker := time.NewTicker(speed)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-reset:
			return ErrReset
		case <-ticker.C:
			if !s.Tick() {
				return nil
			}
			frame := s.Frame()
			if onTick != nil {
				if err := onTick(frame); err != nil {
					return err
				}
			}
			if frame.Done {
				return nil
			}
		}
	}
}

// VisibleAt сколько символов видно через elapsed после старта.
func VisibleAt(text string, elapsed, speed time.Duration) int {
	if speed <= 0 {
		speed = DefaultSpeed
	}
	total := utf8.RuneCountInString(text)
	if elapsed <= 0 {
		return 0
	}
	n := int(elapsed / speed)
	if n > total {
		return total
	}
	return n
}

// WordVisibility видимость символов одного слова и пробела после него.
type WordVisibility struct {
	Word  string `json:"word"`
	Chars []bool `json:"chars"`
	// SpaceVisible nil для последнего слова, после него пробела нет.
	SpaceVisible *bool `json:"spaceVisible,omitempty"`
}

// Visibility раскладывает текст по словам так же, как резолвер эффектов,
// и отмечает символы с глобальным индексом меньше visible.
// Пробел после слова виден, когда открыт символ сразу за словом.
func Visibility(text string, visible int) []WordVisibility {
	words := strings.Split(text, " ")
	out := make([]WordVisibility, 0, len(words))
	offset := 0
	for i, word := range words {
		runes := []rune(word)
		wv := WordVisibility{Word: word, Chars: make([]bool, len(runes))}
		for j := range runes {
			wv.Chars[j] = offset+j < visible
		}
		if i < len(words)-1 {
			space := offset+len(runes) < visible
			wv.SpaceVisible = &space
		}
		out = append(out, wv)
		offset += len(runes) + 1
	}
	return out
}
