// Package stickers считает положение стикеров на кадре: трансформации для
// отрисовки, tween-траектории и перетаскивание указателем.
package stickers

import (
	"github.com/google/uuid"

	"storymatrix/internal/models"
)

const (
	// DefaultTweenDuration длительность tween в секундах, если она не задана.
	DefaultTweenDuration = 2.0

	defaultPosition = 50.0
	dripContent     = "💧"
)

// Palette стикеры, которые предлагает пикер.
var Palette = []string{
	"⭐", "💖", "🔥", "✨", "💧", "🎞️", "🌈", "🍦", "🏝️", "🎉", "🦋", "🎈", "🍕", "🚀", "🎸", "🕹️",
}

// NewSticker создаёт стикер в центре кадра без трансформаций и анимации.
func NewSticker(content string) models.Sticker {
	return models.Sticker{
		ID:        "sticker-" + uuid.NewString(),
		Content:   content,
		X:         defaultPosition,
		Y:         defaultPosition,
		Scale:     1,
		ScaleX:    models.Float64Ptr(1),
		ScaleY:    models.Float64Ptr(1),
		Rotation:  0,
		Animation: models.AnimationNone,
	}
}

// EndPoint возвращает конечную точку tween. Без endX/endY это стартовая точка,
// то есть стикер стоит на месте.
func EndPoint(s models.Sticker) Point {
	end := Point{X: s.X, Y: s.Y}
	if s.EndX != nil {
		end.X = *s.EndX
	}
	if s.EndY != nil {
		end.Y = *s.EndY
	}
	return end
}

// TweenDuration возвращает длительность tween в секундах с подстановкой значения по умолчанию.
func TweenDuration(s models.Sticker) float64 {
	if s.TweenDuration == nil || *s.TweenDuration <= 0 {
		return DefaultTweenDuration
	}
	return *s.TweenDuration
}

// SetAnimation переключает анимацию стикера.
// При первом переключении на tween конечная точка копирует стартовую,
// а длительность становится 2 секунды. Второе значение сообщает, что режим
// редактирования конечной точки нужно выключить (анимация больше не tween).
// Поля endX/endY при уходе с tween сохраняются, чтобы траектория вернулась
// при обратном переключении; для остальных анимаций они игнорируются.
func SetAnimation(s models.Sticker, anim models.Animation) (models.Sticker, bool) {
	s = s.Clone()
	s.Animation = anim
	if anim != models.AnimationTween {
		return s, true
	}
	if s.EndX == nil {
		s.EndX = models.Float64Ptr(s.X)
		s.EndY = models.Float64Ptr(s.Y)
		s.TweenDuration = models.Float64Ptr(DefaultTweenDuration)
	}
	if s.EndY == nil {
		s.EndY = models.Float64Ptr(s.Y)
	}
	if s.TweenDuration == nil {
		s.TweenDuration = models.Float64Ptr(DefaultTweenDuration)
	}
	return s, false
}
