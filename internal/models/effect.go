package models

// Effect задаёт визуальный эффект слова в оверлее.
// Неизвестные значения (например, старый "sparkle") не отбрасываются:
// резолвер воспринимает их как явный эффект с таким именем.
type Effect string

const (
	EffectNone Effect = "none"
	EffectNeon Effect = "neon"
	EffectDrip Effect = "drip"
)

// Effects перечисляет эффекты, которые предлагает редактор.
var Effects = []Effect{EffectNone, EffectNeon, EffectDrip}

// IsActive сообщает, даёт ли эффект какое-то оформление.
func (e Effect) IsActive() bool {
	return e != "" && e != EffectNone
}

// EffectPtr удобен для заполнения слотов overlayWordEffects.
func EffectPtr(e Effect) *Effect {
	return &e
}

// CloneWordEffects копирует слайс слотов вместе со значениями.
func CloneWordEffects(in []*Effect) []*Effect {
	if in == nil {
		return nil
	}
	out := make([]*Effect, len(in))
	for i, e := range in {
		if e != nil {
			out[i] = EffectPtr(*e)
		}
	}
	return out
}
