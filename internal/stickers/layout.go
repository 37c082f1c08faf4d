package stickers

import (
	"math"
	"time"

	"storymatrix/internal/models"
)

// Point координаты в процентах кадра (для панелей в пикселях).
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// LayoutContext условия, в которых отрисовывается стикер.
type LayoutContext struct {
	IsEditing    bool
	IsEditingEnd bool
	Selected     bool
	// DisplayScale множитель контекста (например, уменьшение в превью).
	// Ноль трактуется как 1.
	DisplayScale float64
}

// AnimationTarget элемент, к которому применяется CSS-анимация.
type AnimationTarget string

const (
	AnimateNone   AnimationTarget = ""
	AnimateParent AnimationTarget = "parent" // tween двигает left/top обёртки
	AnimateChild  AnimationTarget = "child"  // остальные анимации не должны сдвигать раскладку
)

// Ghost полупрозрачная копия стикера в стартовой точке, пока тянется конечная.
type Ghost struct {
	Left    float64 `json:"left"`
	Top     float64 `json:"top"`
	Opacity float64 `json:"opacity"`
	ZIndex  int     `json:"zIndex"`
}

// GuideLine пунктир от старта к живой конечной точке.
type GuideLine struct {
	From   Point `json:"from"`
	To     Point `json:"to"`
	Dashed bool  `json:"dashed"`
}

// TweenPath параметры зацикленного движения для проигрывания.
type TweenPath struct {
	Start           Point   `json:"start"`
	End             Point   `json:"end"`
	DurationSeconds float64 `json:"durationSeconds"`
}

// Transform готовая к отрисовке трансформация стикера.
type Transform struct {
	StickerID       string          `json:"stickerId"`
	Content         string          `json:"content"`
	Left            float64         `json:"left"`
	Top             float64         `json:"top"`
	Rotation        float64         `json:"rotation"`
	ScaleX          float64         `json:"scaleX"`
	ScaleY          float64         `json:"scaleY"`
	ZIndex          int             `json:"zIndex"`
	Draggable       bool            `json:"draggable"`
	AnimationClass  string          `json:"animationClass,omitempty"`
	AnimationTarget AnimationTarget `json:"animationTarget,omitempty"`
	ContentClass    string          `json:"contentClass,omitempty"`
	EndLabel        bool            `json:"endLabel"`
	Ghost           *Ghost          `json:"ghost,omitempty"`
	Guide           *GuideLine      `json:"guide,omitempty"`
	Tween           *TweenPath      `json:"tween,omitempty"`
}

const (
	zIndexDefault  = 10
	zIndexGhost    = 30
	zIndexSelected = 40
	ghostOpacity   = 0.3
)

// ComputeTransform считает положение, поворот и масштаб стикера.
//
// Базовая позиция (x, y). Если стикер tween, выбран и включено редактирование
// конечной точки, на экране и под указателем оказывается (endX, endY), а старт
// остаётся на месте в виде призрака с пунктирной линией до конца.
// Масштаб: (scaleX ?? 1) * scale * DisplayScale, аналогично по вертикали.
func ComputeTransform(s models.Sticker, lc LayoutContext) Transform {
	display := lc.DisplayScale
	if display == 0 {
		display = 1
	}
	sx, sy := 1.0, 1.0
	if s.ScaleX != nil {
		sx = *s.ScaleX
	}
	if s.ScaleY != nil {
		sy = *s.ScaleY
	}

	isTween := s.Animation == models.AnimationTween
	editingEnd := isTween && lc.IsEditing && lc.IsEditingEnd && lc.Selected

	t := Transform{
		StickerID: s.ID,
		Content:   s.Content,
		Left:      s.X,
		Top:       s.Y,
		Rotation:  s.Rotation,
		ScaleX:    sx * s.Scale * display,
		ScaleY:    sy * s.Scale * display,
		ZIndex:    zIndexDefault,
		Draggable: lc.IsEditing,
		EndLabel:  editingEnd,
	}
	if lc.Selected {
		t.ZIndex = zIndexSelected
	}
	if s.Content == dripContent {
		t.ContentClass = "sticker-drip"
	}

	if !lc.IsEditing && s.Animation != "" && s.Animation != models.AnimationNone {
		t.AnimationClass = "animate-sticker-" + string(s.Animation)
		if isTween {
			t.AnimationTarget = AnimateParent
		} else {
			t.AnimationTarget = AnimateChild
		}
	}

	if isTween && !lc.IsEditing {
		t.Tween = &TweenPath{
			Start:           Point{X: s.X, Y: s.Y},
			End:             EndPoint(s),
			DurationSeconds: TweenDuration(s),
		}
	}

	if editingEnd {
		end := EndPoint(s)
		t.Left, t.Top = end.X, end.Y
		t.Ghost = &Ghost{Left: s.X, Top: s.Y, Opacity: ghostOpacity, ZIndex: zIndexGhost}
		t.Guide = &GuideLine{From: Point{X: s.X, Y: s.Y}, To: end, Dashed: true}
	}
	return t
}

// ComputeAll считает трансформации всех стикеров в порядке слоёв.
func ComputeAll(list []models.Sticker, selectedID string, isEditing, isEditingEnd bool, displayScale float64) []Transform {
	out := make([]Transform, 0, len(list))
	for _, s := range list {
		out = append(out, ComputeTransform(s, LayoutContext{
			IsEditing:    isEditing,
			IsEditingEnd: isEditingEnd,
			Selected:     selectedID != "" && s.ID == selectedID,
			DisplayScale: displayScale,
		}))
	}
	return out
}

// TweenPosition возвращает положение стикера через elapsed после старта анимации.
// Движение линейное от старта к концу, в конце каждого цикла стикер возвращается
// в старт. Для остальных анимаций позиция всегда (x, y).
func TweenPosition(s models.Sticker, elapsed time.Duration) Point {
	start := Point{X: s.X, Y: s.Y}
	if s.Animation != models.AnimationTween || elapsed <= 0 {
		return start
	}
	period := TweenDuration(s)
	progress := math.Mod(elapsed.Seconds(), period) / period
	end := EndPoint(s)
	return Point{
		X: start.X + (end.X-start.X)*progress,
		Y: start.Y + (end.Y-start.Y)*progress,
	}
}
