// Package navigator ведёт проигрывание истории: текущий момент, переходы
// по стрелкам и прыжки по выборам.
package navigator

import (
	"storymatrix/internal/models"
	"storymatrix/internal/typewriter"
)

// Action результат обработки клавиши.
type Action string

const (
	ActionAdvance Action = "advance"
	ActionRetreat Action = "retreat"
	ActionExit    Action = "exit"
	ActionIgnored Action = "ignored"
)

// Клавиши, на которые реагирует проигрывание.
const (
	KeyArrowRight = "ArrowRight"
	KeyArrowLeft  = "ArrowLeft"
	KeyEscape     = "Escape"
)

// Navigator состояние "на моменте i" для упорядоченного списка моментов.
// Список не пустой на всём времени жизни навигатора.
type Navigator struct {
	moments []models.Moment
	index   int
	exited  bool
}

// New начинает проигрывание с первого момента.
func New(moments []models.Moment) (*Navigator, error) {
	if len(moments) == 0 {
		return nil, models.ErrEmptyPlayback
	}
	cp := make([]models.Moment, len(moments))
	copy(cp, moments)
	return &Navigator{moments: cp}, nil
}

func (n *Navigator) Index() int {
	return n.index
}

func (n *Navigator) Len() int {
	return len(n.moments)
}

func (n *Navigator) Current() models.Moment {
	return n.moments[n.index]
}

// Exited сообщает, что проигрывание завершено.
func (n *Navigator) Exited() bool {
	return n.exited
}

// Advance переходит к следующему моменту, после последнего к первому.
func (n *Navigator) Advance() int {
	if !n.exited {
		n.index = (n.index + 1) % len(n.moments)
	}
	return n.index
}

// Retreat переходит к предыдущему моменту, с первого к последнему.
func (n *Navigator) Retreat() int {
	if !n.exited {
		n.index = (n.index - 1 + len(n.moments)) % len(n.moments)
	}
	return n.index
}

// JumpToMoment переходит к моменту с указанным id. Если такого момента в
// проигрывании нет (цель выбора устарела или не задана), индекс не меняется.
func (n *Navigator) JumpToMoment(id string) bool {
	if n.exited || id == "" {
		return false
	}
	for i, m := range n.moments {
		if m.ID == id {
			n.index = i
			return true
		}
	}
	return false
}

// SelectChoice ищет выбор на текущем моменте и прыгает к его цели.
// Возвращает, сменился ли момент.
func (n *Navigator) SelectChoice(choiceID string) (bool, error) {
	meta := n.Current().Metadata
	if meta != nil {
		for _, c := range meta.Choices {
			if c.ID == choiceID {
				return n.JumpToMoment(c.TargetMomentID), nil
			}
		}
	}
	return false, models.ErrChoiceNotFound
}

func (n *Navigator) Exit() {
	n.exited = true
}

// HandleKey применяет клавишу. Всё кроме стрелок и Escape игнорируется.
func (n *Navigator) HandleKey(key string) Action {
	if n.exited {
		return ActionIgnored
	}
	switch key {
	case KeyArrowRight:
		n.Advance()
		return ActionAdvance
	case KeyArrowLeft:
		n.Retreat()
		return ActionRetreat
	case KeyEscape:
		n.Exit()
		return ActionExit
	default:
		return ActionIgnored
	}
}

// Mode как показывается текст текущего момента.
type Mode string

const (
	ModeDialogue Mode = "dialogue"
	ModeCaption  Mode = "caption"
	ModeBare     Mode = "bare"
)

// Frame описание текущего слайда для отрисовки.
type Frame struct {
	Index  int           `json:"index"`
	Total  int           `json:"total"`
	Moment models.Moment `json:"moment"`
	Mode   Mode          `json:"mode"`
	Text   string        `json:"text,omitempty"`
	// Choices видны только в диалоге и только если они есть.
	Choices []models.Choice `json:"choices,omitempty"`
	// ShowNext индикатор "дальше" в диалоге без выборов.
	ShowNext        bool  `json:"showNext"`
	TypewriterSpeed int64 `json:"typewriterSpeedMs,omitempty"`
	Exited          bool  `json:"exited"`
}

func (n *Navigator) Frame() Frame {
	m := n.Current()
	f := Frame{
		Index:  n.index,
		Total:  len(n.moments),
		Moment: m,
		Mode:   ModeBare,
		Exited: n.exited,
	}
	meta := m.Metadata
	if meta == nil {
		return f
	}
	switch {
	case meta.IsDialogue:
		f.Mode = ModeDialogue
		f.Text = meta.OverlayText
		f.TypewriterSpeed = typewriter.DialogueSpeed.Milliseconds()
		if len(meta.Choices) > 0 {
			f.Choices = append([]models.Choice(nil), meta.Choices...)
		} else {
			f.ShowNext = true
		}
	case meta.OverlayText != "":
		f.Mode = ModeCaption
		f.Text = meta.OverlayText
		f.TypewriterSpeed = typewriter.DefaultSpeed.Milliseconds()
	}
	return f
}
