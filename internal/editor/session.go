// Package editor держит буфер редактирования одного момента.
// Все правки идут в буфер и попадают в момент только через Commit.
package editor

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"storymatrix/internal/effects"
	"storymatrix/internal/models"
	"storymatrix/internal/stickers"
)

// Mode вкладка панели редактора.
type Mode string

const (
	ModeText     Mode = "text"
	ModeStickers Mode = "stickers"
)

const (
	defaultCategory    = "Other"
	defaultChoiceLabel = "New Choice"
)

// Buffer редактируемые поля момента.
type Buffer struct {
	Text        string           `json:"overlayText"`
	FontSize    int              `json:"overlayFontSize"`
	FontFamily  string           `json:"overlayFontFamily"`
	Color       string           `json:"overlayColor"`
	Effect      models.Effect    `json:"overlayEffect"`
	WordEffects []*models.Effect `json:"overlayWordEffects"`
	Stickers    []models.Sticker `json:"stickers"`

	IsDialogue        bool                     `json:"isDialogue"`
	DialogueType      models.DialogueType      `json:"dialogueType"`
	CharacterName     string                   `json:"characterName"`
	CharacterPortrait string                   `json:"characterPortrait"`
	CharacterPosition models.CharacterPosition `json:"characterPosition"`
	Choices           []models.Choice          `json:"choices"`
}

// State снимок сессии для клиента: буфер и временное состояние интерфейса.
type State struct {
	MomentID          string                    `json:"momentId"`
	Buffer            Buffer                    `json:"buffer"`
	Mode              Mode                      `json:"mode"`
	SelectedWord      *int                      `json:"selectedWord,omitempty"`
	SelectedStickerID string                    `json:"selectedStickerId,omitempty"`
	EditingTweenEnd   bool                      `json:"editingTweenEnd"`
	Dragging          bool                      `json:"dragging"`
	PanelOffsets      map[string]stickers.Point `json:"panelOffsets,omitempty"`
}

// Session сессия редактирования. Открывается на моменте, закрывается Commit или Discard.
type Session struct {
	mu sync.Mutex

	saved models.Moment
	buf   Buffer

	mode         Mode
	selectedWord *int
	selection    stickers.Selection
	editingEnd   bool
	drag         *stickers.DragController
	panels       map[string]stickers.Point
}

// Open загружает метаданные момента в буфер, подставляя значения по умолчанию.
func Open(m models.Moment, listeners stickers.Listeners) *Session {
	s := &Session{
		saved:  m.Clone(),
		drag:   stickers.NewDragController(listeners),
		panels: make(map[string]stickers.Point),
	}
	s.load()
	return s
}

func (s *Session) load() {
	meta := s.saved.Metadata
	if meta == nil {
		meta = &models.MomentMetadata{}
	}
	meta = meta.Clone()

	buf := Buffer{
		Text:              meta.OverlayText,
		FontSize:          meta.OverlayFontSize,
		FontFamily:        meta.OverlayFontFamily,
		Color:             meta.OverlayColor,
		Effect:            meta.OverlayEffect,
		WordEffects:       meta.OverlayWordEffects,
		Stickers:          meta.Stickers,
		IsDialogue:        meta.IsDialogue,
		DialogueType:      meta.DialogueType,
		CharacterName:     meta.CharacterName,
		CharacterPortrait: meta.CharacterPortrait,
		CharacterPosition: meta.CharacterPosition,
		Choices:           meta.Choices,
	}
	if buf.FontSize == 0 {
		buf.FontSize = effects.DefaultFontSize
	}
	if buf.FontFamily == "" {
		buf.FontFamily = effects.DefaultFontFamily
	}
	if buf.Color == "" {
		buf.Color = effects.DefaultColor
	}
	if buf.Effect == "" {
		buf.Effect = models.EffectNone
	}
	// Сохранённые слоты могли разойтись с текстом (импорт, ручная правка файла)
	buf.WordEffects = effects.RepairWordEffects(buf.Text, buf.WordEffects)
	if buf.Stickers == nil {
		buf.Stickers = []models.Sticker{}
	}
	if buf.DialogueType == "" {
		buf.DialogueType = models.DialogueSpeech
	}
	if buf.CharacterPosition == "" {
		buf.CharacterPosition = models.PositionLeft
	}
	if buf.Choices == nil {
		buf.Choices = []models.Choice{}
	}

	s.buf = buf
	s.mode = ModeText
	s.resetTransient()
}

func (s *Session) resetTransient() {
	s.selectedWord = nil
	s.selection.Clear()
	s.editingEnd = false
	s.drag.Cancel()
}

func (s *Session) MomentID() string {
	return s.saved.ID
}

// Moment последняя сохранённая версия момента.
func (s *Session) Moment() models.Moment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saved.Clone()
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *Session) stateLocked() State {
	st := State{
		MomentID:          s.saved.ID,
		Buffer:            cloneBuffer(s.buf),
		Mode:              s.mode,
		SelectedStickerID: s.selection.ID(),
		EditingTweenEnd:   s.editingEnd,
		Dragging:          s.drag.Active() != nil,
	}
	if s.selectedWord != nil {
		w := *s.selectedWord
		st.SelectedWord = &w
	}
	if len(s.panels) > 0 {
		st.PanelOffsets = make(map[string]stickers.Point, len(s.panels))
		for k, v := range s.panels {
			st.PanelOffsets[k] = v
		}
	}
	return st
}

// Metadata собирает метаданные из буфера. Поля поиска (подпись, теги,
// категория) берутся из сохранённой версии, редактор их не меняет.
func (s *Session) Metadata() *models.MomentMetadata {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.metadataLocked()
}

func (s *Session) metadataLocked() *models.MomentMetadata {
	meta := &models.MomentMetadata{
		Tags:     []string{},
		Category: defaultCategory,
	}
	if prev := s.saved.Metadata; prev != nil {
		meta.Caption = prev.Caption
		if prev.Tags != nil {
			meta.Tags = append([]string(nil), prev.Tags...)
		}
		if prev.Category != "" {
			meta.Category = prev.Category
		}
	}
	buf := cloneBuffer(s.buf)
	meta.OverlayText = buf.Text
	meta.OverlayFontSize = buf.FontSize
	meta.OverlayFontFamily = buf.FontFamily
	meta.OverlayColor = buf.Color
	meta.OverlayEffect = buf.Effect
	meta.OverlayWordEffects = buf.WordEffects
	meta.Stickers = buf.Stickers
	meta.IsDialogue = buf.IsDialogue
	meta.DialogueType = buf.DialogueType
	meta.CharacterName = buf.CharacterName
	meta.CharacterPortrait = buf.CharacterPortrait
	meta.CharacterPosition = buf.CharacterPosition
	meta.Choices = buf.Choices
	return meta
}

// Commit фиксирует буфер: возвращает новые метаданные и делает их
// сохранённой версией. Временное состояние (выбор слова и стикера) сбрасывается.
func (s *Session) Commit() *models.MomentMetadata {
	s.mu.Lock()
	defer s.mu.Unlock()
	meta := s.metadataLocked()
	s.saved.Metadata = meta.Clone()
	s.resetTransient()
	return meta
}

// Discard откатывает буфер к последней сохранённой версии.
func (s *Session) Discard() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load()
}

func (s *Session) SetMode(mode Mode) error {
	if mode != ModeText && mode != ModeStickers {
		return fmt.Errorf("edit mode %q: %w", mode, models.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = mode
	return nil
}

// SetText меняет текст оверлея и подгоняет слоты эффектов под новое число слов.
func (s *Session) SetText(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf.Text = text
	s.buf.WordEffects = effects.RepairWordEffects(text, s.buf.WordEffects)
	if s.selectedWord != nil && *s.selectedWord >= effects.WordCount(text) {
		s.selectedWord = nil
	}
}

// SelectWord выбирает слово, к которому применится следующий эффект. nil снимает выбор.
func (s *Session) SelectWord(index *int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index == nil {
		s.selectedWord = nil
		return nil
	}
	if *index < 0 || *index >= effects.WordCount(s.buf.Text) {
		return fmt.Errorf("word %d: %w", *index, models.ErrWordOutOfRange)
	}
	i := *index
	s.selectedWord = &i
	return nil
}

// ApplyEffect ставит эффект выбранному слову, а без выбора меняет глобальный эффект.
func (s *Session) ApplyEffect(effect models.Effect) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selectedWord == nil {
		s.buf.Effect = effect
		return
	}
	s.buf.WordEffects = effects.RepairWordEffects(s.buf.Text, s.buf.WordEffects)
	s.buf.WordEffects[*s.selectedWord] = models.EffectPtr(effect)
}

// StylePatch частичное обновление стиля текста.
type StylePatch struct {
	FontSize   *int    `json:"fontSize"`
	FontFamily *string `json:"fontFamily"`
	Color      *string `json:"color"`
}

func (s *Session) SetStyle(p StylePatch) error {
	if p.FontSize != nil && *p.FontSize <= 0 {
		return fmt.Errorf("font size %d: %w", *p.FontSize, models.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.FontSize != nil {
		s.buf.FontSize = *p.FontSize
	}
	if p.FontFamily != nil {
		s.buf.FontFamily = *p.FontFamily
	}
	if p.Color != nil {
		s.buf.Color = *p.Color
	}
	return nil
}

// DialoguePatch частичное обновление полей диалога.
type DialoguePatch struct {
	IsDialogue        *bool                     `json:"isDialogue"`
	DialogueType      *models.DialogueType      `json:"dialogueType"`
	CharacterName     *string                   `json:"characterName"`
	CharacterPortrait *string                   `json:"characterPortrait"`
	CharacterPosition *models.CharacterPosition `json:"characterPosition"`
}

func (s *Session) SetDialogue(p DialoguePatch) error {
	if p.DialogueType != nil && *p.DialogueType != models.DialogueSpeech && *p.DialogueType != models.DialogueNarration {
		return fmt.Errorf("dialogue type %q: %w", *p.DialogueType, models.ErrInvalidInput)
	}
	if p.CharacterPosition != nil && *p.CharacterPosition != models.PositionLeft && *p.CharacterPosition != models.PositionRight {
		return fmt.Errorf("character position %q: %w", *p.CharacterPosition, models.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.IsDialogue != nil {
		s.buf.IsDialogue = *p.IsDialogue
	}
	if p.DialogueType != nil {
		s.buf.DialogueType = *p.DialogueType
	}
	if p.CharacterName != nil {
		s.buf.CharacterName = *p.CharacterName
	}
	if p.CharacterPortrait != nil {
		s.buf.CharacterPortrait = *p.CharacterPortrait
	}
	if p.CharacterPosition != nil {
		s.buf.CharacterPosition = *p.CharacterPosition
	}
	return nil
}

// AddChoice добавляет выбор без цели. Пока цель не задана, выбор ничего не делает.
func (s *Session) AddChoice() models.Choice {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := models.Choice{ID: "choice-" + uuid.NewString(), Label: defaultChoiceLabel}
	s.buf.Choices = append(s.buf.Choices, c)
	return c
}

func (s *Session) UpdateChoice(id string, label, targetMomentID *string) (models.Choice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.buf.Choices {
		if s.buf.Choices[i].ID != id {
			continue
		}
		if label != nil {
			s.buf.Choices[i].Label = *label
		}
		if targetMomentID != nil {
			s.buf.Choices[i].TargetMomentID = *targetMomentID
		}
		return s.buf.Choices[i], nil
	}
	return models.Choice{}, fmt.Errorf("choice %q: %w", id, models.ErrChoiceNotFound)
}

func (s *Session) RemoveChoice(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.buf.Choices {
		if s.buf.Choices[i].ID == id {
			s.buf.Choices = append(s.buf.Choices[:i:i], s.buf.Choices[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("choice %q: %w", id, models.ErrChoiceNotFound)
}

func cloneBuffer(b Buffer) Buffer {
	out := b
	out.WordEffects = models.CloneWordEffects(b.WordEffects)
	out.Stickers = make([]models.Sticker, len(b.Stickers))
	for i := range b.Stickers {
		out.Stickers[i] = b.Stickers[i].Clone()
	}
	out.Choices = append(make([]models.Choice, 0, len(b.Choices)), b.Choices...)
	return out
}
