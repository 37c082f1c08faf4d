package stickers

import (
	"fmt"
	"sync"

	"storymatrix/internal/models"
)

// DragKind что именно тянет пользователь.
type DragKind int

const (
	DragBase  DragKind = iota // стартовая позиция стикера
	DragEnd                   // конечная точка tween
	DragPanel                 // плавающая панель свойств, смещение в пикселях
)

func (k DragKind) String() string {
	switch k {
	case DragBase:
		return "base"
	case DragEnd:
		return "end"
	case DragPanel:
		return "panel"
	default:
		return fmt.Sprintf("DragKind(%d)", int(k))
	}
}

// Size размеры контейнера в пикселях.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Listeners подписка на глобальные события указателя на время одного перетаскивания.
// Attach вызывается при старте сессии, Detach ровно один раз при её завершении.
type Listeners interface {
	Attach()
	Detach()
}

type noopListeners struct{}

func (noopListeners) Attach() {}
func (noopListeners) Detach() {}

// DragSession одно перетаскивание от нажатия до отпускания.
type DragSession struct {
	Kind     DragKind
	TargetID string

	origin    Point
	initial   Point
	container Size
}

// Position переводит текущую точку указателя в новое значение цели.
// Для стикеров смещение пересчитывается в проценты контейнера и
// ограничивается диапазоном [0, 100]. Панель двигается в пикселях без ограничений.
func (s *DragSession) Position(pointer Point) Point {
	dx := pointer.X - s.origin.X
	dy := pointer.Y - s.origin.Y
	if s.Kind == DragPanel {
		return Point{X: s.initial.X + dx, Y: s.initial.Y + dy}
	}
	return Point{
		X: clampPercent(s.initial.X + dx/s.container.Width*100),
		Y: clampPercent(s.initial.Y + dy/s.container.Height*100),
	}
}

// Apply записывает позицию в стикер: в (x, y) или в (endX, endY) для режима DragEnd.
func (s *DragSession) Apply(st models.Sticker, pointer Point) models.Sticker {
	st = st.Clone()
	p := s.Position(pointer)
	if s.Kind == DragEnd {
		st.EndX = models.Float64Ptr(p.X)
		st.EndY = models.Float64Ptr(p.Y)
		return st
	}
	st.X, st.Y = p.X, p.Y
	return st
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// DragController держит не больше одной активной сессии и гарантирует,
// что подписки на события снимаются при отпускании, отмене или начале новой сессии.
type DragController struct {
	mu        sync.Mutex
	active    *DragSession
	listeners Listeners
}

// NewDragController создаёт контроллер. listeners может быть nil.
func NewDragController(listeners Listeners) *DragController {
	if listeners == nil {
		listeners = noopListeners{}
	}
	return &DragController{listeners: listeners}
}

// BeginSticker начинает перетаскивание стикера. Если editEnd и стикер tween,
// тянется конечная точка, начальное значение берётся из endX ?? x, endY ?? y.
func (c *DragController) BeginSticker(st models.Sticker, pointer Point, container Size, editEnd bool) (*DragSession, error) {
	if container.Width <= 0 || container.Height <= 0 {
		return nil, fmt.Errorf("%w: container size must be positive", models.ErrInvalidInput)
	}
	session := &DragSession{
		Kind:      DragBase,
		TargetID:  st.ID,
		origin:    pointer,
		initial:   Point{X: st.X, Y: st.Y},
		container: container,
	}
	if editEnd && st.Animation == models.AnimationTween {
		session.Kind = DragEnd
		session.initial = EndPoint(st)
	}
	c.begin(session)
	return session, nil
}

// BeginPanel начинает перетаскивание панели с текущим смещением offset.
func (c *DragController) BeginPanel(panelID string, offset, pointer Point) *DragSession {
	session := &DragSession{
		Kind:     DragPanel,
		TargetID: panelID,
		origin:   pointer,
		initial:  offset,
	}
	c.begin(session)
	return session
}

func (c *DragController) begin(session *DragSession) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != nil {
		c.listeners.Detach()
	}
	c.active = session
	c.listeners.Attach()
}

// Move возвращает активную сессию и новую позицию цели.
func (c *DragController) Move(pointer Point) (*DragSession, Point, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return nil, Point{}, models.ErrNoActiveDrag
	}
	return c.active, c.active.Position(pointer), nil
}

// End завершает сессию при отпускании кнопки. Возвращает false, если сессии не было.
func (c *DragController) End() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return false
	}
	c.active = nil
	c.listeners.Detach()
	return true
}

// Cancel снимает сессию при потере фокуса или уходе компонента.
// Значение цели остаётся тем, что было записано последним Move.
func (c *DragController) Cancel() bool {
	return c.End()
}

// Active возвращает текущую сессию или nil.
func (c *DragController) Active() *DragSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}
