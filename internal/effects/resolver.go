package effects

import (
	"strings"

	"storymatrix/internal/models"
)

// SplitWords делит текст оверлея на слова по одиночному пробелу.
// Пустой текст даёт одно пустое слово, двойной пробел даёт пустое слово между ними.
func SplitWords(text string) []string {
	return strings.Split(text, " ")
}

// WordCount возвращает число слов в понимании SplitWords.
func WordCount(text string) int {
	return strings.Count(text, " ") + 1
}

// RepairWordEffects приводит длину массива эффектов к числу слов текста.
// При росте добавляются nil-слоты (наследовать), при сокращении хвост отрезается.
// Существующие переопределения не сдвигаются и не теряются.
func RepairWordEffects(text string, wordEffects []*models.Effect) []*models.Effect {
	n := WordCount(text)
	out := make([]*models.Effect, n)
	for i := 0; i < n && i < len(wordEffects); i++ {
		if wordEffects[i] != nil {
			out[i] = models.EffectPtr(*wordEffects[i])
		}
	}
	return out
}

// ResolveEffect возвращает эффект слова index и признак явного переопределения.
// Явный none подавляет глобальный эффект только для этого слова.
func ResolveEffect(global models.Effect, wordEffects []*models.Effect, index int) (models.Effect, bool) {
	if index >= 0 && index < len(wordEffects) && wordEffects[index] != nil {
		return *wordEffects[index], true
	}
	if global == "" {
		return models.EffectNone, false
	}
	return global, false
}

// Timing параметры анимации неона в секундах.
type Timing struct {
	DurationSeconds float64 `json:"durationSeconds"`
	DelaySeconds    float64 `json:"delaySeconds"`
}

// NeonTiming даёт детерминированный разброс анимации по индексу слова:
// длительность 2 + index mod 3, отрицательная задержка (index mod 5) * 0.7.
func NeonTiming(index int) Timing {
	if index < 0 {
		index = -index
	}
	return Timing{
		DurationSeconds: float64(2 + index%3),
		DelaySeconds:    -0.7 * float64(index%5),
	}
}

// Input всё, что нужно резолверу для построения плана.
type Input struct {
	Text         string
	GlobalEffect models.Effect
	WordEffects  []*models.Effect
	Style        Style
}

// InputFromMetadata собирает Input из метаданных момента. nil-метаданные дают пустой текст.
func InputFromMetadata(meta *models.MomentMetadata) Input {
	if meta == nil {
		return Input{}
	}
	return Input{
		Text:         meta.OverlayText,
		GlobalEffect: meta.OverlayEffect,
		WordEffects:  meta.OverlayWordEffects,
		Style: Style{
			FontSize:   meta.OverlayFontSize,
			FontFamily: meta.OverlayFontFamily,
			Color:      meta.OverlayColor,
		},
	}
}

// WordPlan план отрисовки одного слова.
type WordPlan struct {
	Index      int           `json:"index"`
	Word       string        `json:"word"`
	CharOffset int           `json:"charOffset"` // Смещение первого символа слова в тексте
	Effect     models.Effect `json:"effect"`
	Overridden bool          `json:"overridden"`
	ClassName  string        `json:"className,omitempty"`
	Outline    bool          `json:"outline"` // Обводка тенью нужна только словам без эффекта
	Color      string        `json:"color"`
	FontSize   int           `json:"fontSize"`
	FontFamily string        `json:"fontFamily"`
	Timing     *Timing       `json:"timing,omitempty"`
}

// Resolve строит план отрисовки по словам. Функция чистая: одинаковый вход
// всегда даёт одинаковый план. Рассинхрон длины массива эффектов с текстом
// допускается: недостающие слоты наследуют глобальный эффект.
func Resolve(in Input) []WordPlan {
	style := in.Style.withDefaults()
	words := SplitWords(in.Text)
	plan := make([]WordPlan, len(words))
	offset := 0
	for i, word := range words {
		effect, overridden := ResolveEffect(in.GlobalEffect, in.WordEffects, i)
		wp := WordPlan{
			Index:      i,
			Word:       word,
			CharOffset: offset,
			Effect:     effect,
			Overridden: overridden,
			Outline:    !effect.IsActive(),
			Color:      style.Color,
			FontSize:   style.FontSize,
			FontFamily: style.FontFamily,
		}
		if effect.IsActive() {
			wp.ClassName = "effect-" + string(effect)
		}
		if effect == models.EffectNeon {
			t := NeonTiming(i)
			wp.Timing = &t
		}
		plan[i] = wp
		offset += len([]rune(word)) + 1
	}
	return plan
}
