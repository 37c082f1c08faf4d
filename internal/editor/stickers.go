package editor

import (
	"fmt"

	"storymatrix/internal/models"
	"storymatrix/internal/stickers"
)

// Панели, которые можно двигать по экрану.
const (
	PanelStickerPicker = "sticker-picker"
	PanelProperties    = "sticker-properties"
)

// StickerPatch частичное обновление стикера. Анимация меняется через SetStickerAnimation.
type StickerPatch struct {
	Content       *string  `json:"content"`
	X             *float64 `json:"x"`
	Y             *float64 `json:"y"`
	Scale         *float64 `json:"scale"`
	ScaleX        *float64 `json:"scaleX"`
	ScaleY        *float64 `json:"scaleY"`
	Rotation      *float64 `json:"rotation"`
	EndX          *float64 `json:"endX"`
	EndY          *float64 `json:"endY"`
	TweenDuration *float64 `json:"tweenDuration"`
}

// AddSticker кладёт новый стикер поверх остальных.
func (s *Session) AddSticker(content string) (models.Sticker, error) {
	if content == "" {
		return models.Sticker{}, fmt.Errorf("sticker content is empty: %w", models.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	st := stickers.NewSticker(content)
	s.buf.Stickers = append(s.buf.Stickers, st)
	return st.Clone(), nil
}

func (s *Session) UpdateSticker(id string, p StickerPatch) (models.Sticker, error) {
	if p.TweenDuration != nil && *p.TweenDuration <= 0 {
		return models.Sticker{}, fmt.Errorf("tween duration %v: %w", *p.TweenDuration, models.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.stickerIndex(id)
	if i < 0 {
		return models.Sticker{}, fmt.Errorf("sticker %q: %w", id, models.ErrStickerNotFound)
	}
	st := s.buf.Stickers[i].Clone()
	if p.Content != nil {
		st.Content = *p.Content
	}
	if p.X != nil {
		st.X = *p.X
	}
	if p.Y != nil {
		st.Y = *p.Y
	}
	if p.Scale != nil {
		st.Scale = *p.Scale
	}
	if p.ScaleX != nil {
		st.ScaleX = models.Float64Ptr(*p.ScaleX)
	}
	if p.ScaleY != nil {
		st.ScaleY = models.Float64Ptr(*p.ScaleY)
	}
	if p.Rotation != nil {
		st.Rotation = *p.Rotation
	}
	if p.EndX != nil {
		st.EndX = models.Float64Ptr(*p.EndX)
	}
	if p.EndY != nil {
		st.EndY = models.Float64Ptr(*p.EndY)
	}
	if p.TweenDuration != nil {
		st.TweenDuration = models.Float64Ptr(*p.TweenDuration)
	}
	s.buf.Stickers[i] = st
	return st.Clone(), nil
}

// RemoveSticker удаляет стикер и снимает с него выбор и перетаскивание.
func (s *Session) RemoveSticker(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.stickerIndex(id)
	if i < 0 {
		return fmt.Errorf("sticker %q: %w", id, models.ErrStickerNotFound)
	}
	s.buf.Stickers = append(s.buf.Stickers[:i:i], s.buf.Stickers[i+1:]...)
	if s.selection.IsSelected(id) {
		s.selection.Clear()
		s.editingEnd = false
	}
	if active := s.drag.Active(); active != nil && active.TargetID == id {
		s.drag.Cancel()
	}
	return nil
}

// SelectSticker выбирает стикер, пустой id снимает выбор.
// Смена выбора выключает редактирование конечной точки.
func (s *Session) SelectSticker(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectLocked(id)
}

func (s *Session) selectLocked(id string) error {
	if id == "" {
		s.selection.Clear()
		s.editingEnd = false
		return nil
	}
	if s.stickerIndex(id) < 0 {
		return fmt.Errorf("sticker %q: %w", id, models.ErrStickerNotFound)
	}
	if prev := s.selection.Select(id); prev != id {
		s.editingEnd = false
	}
	return nil
}

// SetStickerAnimation меняет анимацию. Переход на tween инициализирует
// конечную точку, уход с tween выключает редактирование конечной точки.
func (s *Session) SetStickerAnimation(id string, anim models.Animation) (models.Sticker, error) {
	if !anim.IsValid() {
		return models.Sticker{}, fmt.Errorf("animation %q: %w", anim, models.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.stickerIndex(id)
	if i < 0 {
		return models.Sticker{}, fmt.Errorf("sticker %q: %w", id, models.ErrStickerNotFound)
	}
	st, clearEnd := stickers.SetAnimation(s.buf.Stickers[i], anim)
	s.buf.Stickers[i] = st
	if clearEnd && s.selection.IsSelected(id) {
		s.editingEnd = false
	}
	return st.Clone(), nil
}

// SetTweenEndEditing включает режим, в котором перетаскивание двигает конечную
// точку выбранного tween-стикера.
func (s *Session) SetTweenEndEditing(on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !on {
		s.editingEnd = false
		return nil
	}
	i := s.stickerIndex(s.selection.ID())
	if i < 0 {
		return fmt.Errorf("no sticker selected: %w", models.ErrStickerNotFound)
	}
	if s.buf.Stickers[i].Animation != models.AnimationTween {
		return fmt.Errorf("sticker %q is not a tween: %w", s.buf.Stickers[i].ID, models.ErrInvalidInput)
	}
	s.editingEnd = true
	return nil
}

// DragUpdate результат одного шага перетаскивания.
type DragUpdate struct {
	Kind     string          `json:"kind"`
	TargetID string          `json:"targetId"`
	Position stickers.Point  `json:"position"`
	Sticker  *models.Sticker `json:"sticker,omitempty"`
}

// BeginStickerDrag выбирает стикер и начинает его перетаскивание.
func (s *Session) BeginStickerDrag(id string, pointer stickers.Point, container stickers.Size) (DragUpdate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.selectLocked(id); err != nil {
		return DragUpdate{}, err
	}
	st := s.buf.Stickers[s.stickerIndex(id)].Clone()
	session, err := s.drag.BeginSticker(st, pointer, container, s.editingEnd)
	if err != nil {
		return DragUpdate{}, err
	}
	return DragUpdate{
		Kind:     session.Kind.String(),
		TargetID: id,
		Position: session.Position(pointer),
		Sticker:  &st,
	}, nil
}

// BeginPanelDrag начинает перетаскивание панели с её текущего смещения.
func (s *Session) BeginPanelDrag(panel string, pointer stickers.Point) (DragUpdate, error) {
	if panel != PanelStickerPicker && panel != PanelProperties {
		return DragUpdate{}, fmt.Errorf("panel %q: %w", panel, models.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	session := s.drag.BeginPanel(panel, s.panels[panel], pointer)
	return DragUpdate{Kind: session.Kind.String(), TargetID: panel, Position: s.panels[panel]}, nil
}

// MoveDrag применяет движение указателя к цели активной сессии.
func (s *Session) MoveDrag(pointer stickers.Point) (DragUpdate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, pos, err := s.drag.Move(pointer)
	if err != nil {
		return DragUpdate{}, err
	}
	upd := DragUpdate{Kind: session.Kind.String(), TargetID: session.TargetID, Position: pos}
	if session.Kind == stickers.DragPanel {
		s.panels[session.TargetID] = pos
		return upd, nil
	}
	i := s.stickerIndex(session.TargetID)
	if i < 0 {
		s.drag.Cancel()
		return DragUpdate{}, fmt.Errorf("sticker %q: %w", session.TargetID, models.ErrStickerNotFound)
	}
	st := session.Apply(s.buf.Stickers[i], pointer)
	s.buf.Stickers[i] = st
	out := st.Clone()
	upd.Sticker = &out
	return upd, nil
}

// EndDrag завершает перетаскивание при отпускании кнопки.
func (s *Session) EndDrag() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drag.End()
}

// CancelDrag снимает перетаскивание при потере фокуса окна.
func (s *Session) CancelDrag() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drag.Cancel()
}

// Transforms трансформации стикеров буфера для холста редактора.
func (s *Session) Transforms(displayScale float64) []stickers.Transform {
	s.mu.Lock()
	defer s.mu.Unlock()
	return stickers.ComputeAll(s.buf.Stickers, s.selection.ID(), true, s.editingEnd, displayScale)
}

func (s *Session) stickerIndex(id string) int {
	if id == "" {
		return -1
	}
	for i := range s.buf.Stickers {
		if s.buf.Stickers[i].ID == id {
			return i
		}
	}
	return -1
}
