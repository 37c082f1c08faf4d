package models

// Animation задаёт анимацию стикера. Одновременно активна ровно одна.
type Animation string

const (
	AnimationNone   Animation = "none"
	AnimationFloat  Animation = "float"
	AnimationPulse  Animation = "pulse"
	AnimationJiggle Animation = "jiggle"
	AnimationSpin   Animation = "spin"
	AnimationTween  Animation = "tween"
)

// Animations в том порядке, в каком их показывает панель свойств.
var Animations = []Animation{AnimationNone, AnimationFloat, AnimationPulse, AnimationJiggle, AnimationSpin, AnimationTween}

// IsValid проверяет, что анимация из известного набора.
func (a Animation) IsValid() bool {
	for _, known := range Animations {
		if a == known {
			return true
		}
	}
	return false
}

// Sticker описывает декоративный глиф поверх момента.
// X/Y задаются в процентах кадра (0..100) и означают базовую (стартовую) позицию.
type Sticker struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	Scale     float64   `json:"scale"`
	ScaleX    *float64  `json:"scaleX,omitempty"`
	ScaleY    *float64  `json:"scaleY,omitempty"`
	Rotation  float64   `json:"rotation"` // Градусы, не нормализуются
	Animation Animation `json:"animation"`

	// Только для tween. Отсутствие не означает "двигаться в начало координат".
	EndX          *float64 `json:"endX,omitempty"`
	EndY          *float64 `json:"endY,omitempty"`
	TweenDuration *float64 `json:"tweenDuration,omitempty"` // Секунды
}

// Clone копирует стикер вместе с опциональными полями.
func (s Sticker) Clone() Sticker {
	s.ScaleX = cloneFloat(s.ScaleX)
	s.ScaleY = cloneFloat(s.ScaleY)
	s.EndX = cloneFloat(s.EndX)
	s.EndY = cloneFloat(s.EndY)
	s.TweenDuration = cloneFloat(s.TweenDuration)
	return s
}

// Float64Ptr возвращает указатель на копию значения.
func Float64Ptr(v float64) *float64 {
	return &v
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return Float64Ptr(*v)
}
