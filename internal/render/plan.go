// Package render собирает план отрисовки момента: слова с эффектами,
// раскрытие печатной машинки и трансформации стикеров на момент времени.
package render

import (
	"time"

	"storymatrix/internal/effects"
	"storymatrix/internal/models"
	"storymatrix/internal/stickers"
	"storymatrix/internal/typewriter"
)

// Options условия отрисовки.
type Options struct {
	// Editing холст редактора: стикеры перетаскиваются, печать не анимируется.
	Editing      bool
	EditingEnd   bool
	SelectedID   string
	DisplayScale float64
	// Elapsed время с появления слайда, для печати и tween.
	Elapsed time.Duration
}

// StickerFrame трансформация стикера и его положение в момент Elapsed.
type StickerFrame struct {
	stickers.Transform
	Position stickers.Point `json:"position"`
}

// Plan всё, что нужно виду для отрисовки одного кадра.
type Plan struct {
	MomentID   string                      `json:"momentId"`
	Words      []effects.WordPlan          `json:"words"`
	Visibility []typewriter.WordVisibility `json:"visibility"`
	Visible    int                         `json:"visible"`
	Total      int                         `json:"total"`
	SpeedMs    int64                       `json:"speedMs"`
	Stickers   []StickerFrame              `json:"stickers"`
}

// Build строит план. В редакторе текст виден целиком, стикеры стоят в (x, y).
func Build(m models.Moment, opts Options) Plan {
	meta := m.Metadata
	in := effects.InputFromMetadata(meta)
	words := effects.Resolve(in)

	speed := typewriter.DefaultSpeed
	var list []models.Sticker
	if meta != nil {
		if meta.IsDialogue {
			speed = typewriter.DialogueSpeed
		}
		list = meta.Stickers
	}

	total := len([]rune(in.Text))
	visible := total
	if !opts.Editing {
		visible = typewriter.VisibleAt(in.Text, opts.Elapsed, speed)
	}

	transforms := stickers.ComputeAll(list, opts.SelectedID, opts.Editing, opts.EditingEnd, opts.DisplayScale)
	frames := make([]StickerFrame, 0, len(transforms))
	for i, t := range transforms {
		pos := stickers.Point{X: t.Left, Y: t.Top}
		if !opts.Editing {
			pos = stickers.TweenPosition(list[i], opts.Elapsed)
		}
		frames = append(frames, StickerFrame{Transform: t, Position: pos})
	}

	return Plan{
		MomentID:   m.ID,
		Words:      words,
		Visibility: typewriter.Visibility(in.Text, visible),
		Visible:    visible,
		Total:      total,
		SpeedMs:    speed.Milliseconds(),
		Stickers:   frames,
	}
}
