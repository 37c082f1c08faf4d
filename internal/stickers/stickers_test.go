package stickers_test

import (
	"testing"
	"time"

	"storymatrix/internal/models"
	"storymatrix/internal/stickers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tweenSticker() models.Sticker {
	s := stickers.NewSticker("🚀")
	s.X, s.Y = 10, 20
	s.Animation = models.AnimationTween
	s.EndX = models.Float64Ptr(70)
	s.EndY = models.Float64Ptr(80)
	s.TweenDuration = models.Float64Ptr(4)
	return s
}

func TestNewSticker(t *testing.T) {
	s := stickers.NewSticker("⭐")
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, "⭐", s.Content)
	assert.Equal(t, 50.0, s.X)
	assert.Equal(t, 50.0, s.Y)
	assert.Equal(t, 1.0, s.Scale)
	require.NotNil(t, s.ScaleX)
	assert.Equal(t, 1.0, *s.ScaleX)
	assert.Equal(t, models.AnimationNone, s.Animation)
	assert.Nil(t, s.EndX)

	other := stickers.NewSticker("⭐")
	assert.NotEqual(t, s.ID, other.ID)
	assert.Len(t, stickers.Palette, 16)
}

func TestSetAnimation(t *testing.T) {
	t.Run("Tween initialises end at start", func(t *testing.T) {
		s := stickers.NewSticker("⭐")
		s.X, s.Y = 30, 40

		got, clearEnd := stickers.SetAnimation(s, models.AnimationTween)
		assert.False(t, clearEnd)
		require.NotNil(t, got.EndX)
		require.NotNil(t, got.EndY)
		require.NotNil(t, got.TweenDuration)
		assert.Equal(t, 30.0, *got.EndX)
		assert.Equal(t, 40.0, *got.EndY)
		assert.Equal(t, 2.0, *got.TweenDuration)
		assert.Nil(t, s.EndX, "input must not be mutated")
	})

	t.Run("Existing end is kept", func(t *testing.T) {
		s := tweenSticker()
		s.Animation = models.AnimationFloat

		got, _ := stickers.SetAnimation(s, models.AnimationTween)
		assert.Equal(t, 70.0, *got.EndX)
		assert.Equal(t, 4.0, *got.TweenDuration)
	})

	t.Run("Leaving tween requests end edit reset", func(t *testing.T) {
		got, clearEnd := stickers.SetAnimation(tweenSticker(), models.AnimationSpin)
		assert.True(t, clearEnd)
		assert.Equal(t, models.AnimationSpin, got.Animation)
	})
}

func TestComputeTransform(t *testing.T) {
	t.Run("Base position and scale", func(t *testing.T) {
		s := stickers.NewSticker("⭐")
		s.Scale = 2
		s.ScaleX = models.Float64Ptr(1.5)
		s.ScaleY = nil
		s.Rotation = 450

		tr := stickers.ComputeTransform(s, stickers.LayoutContext{DisplayScale: 0.5})
		assert.Equal(t, 50.0, tr.Left)
		assert.Equal(t, 50.0, tr.Top)
		assert.Equal(t, 1.5, tr.ScaleX)
		assert.Equal(t, 1.0, tr.ScaleY)
		assert.Equal(t, 450.0, tr.Rotation)
		assert.Equal(t, 10, tr.ZIndex)
		assert.False(t, tr.Draggable)
	})

	t.Run("Selected sticker is on top", func(t *testing.T) {
		tr := stickers.ComputeTransform(stickers.NewSticker("⭐"), stickers.LayoutContext{IsEditing: true, Selected: true})
		assert.Equal(t, 40, tr.ZIndex)
		assert.True(t, tr.Draggable)
	})

	t.Run("Editing end shows end point with ghost and guide", func(t *testing.T) {
		tr := stickers.ComputeTransform(tweenSticker(), stickers.LayoutContext{IsEditing: true, IsEditingEnd: true, Selected: true})
		assert.Equal(t, 70.0, tr.Left)
		assert.Equal(t, 80.0, tr.Top)
		assert.True(t, tr.EndLabel)
		require.NotNil(t, tr.Ghost)
		assert.Equal(t, 10.0, tr.Ghost.Left)
		assert.Equal(t, 20.0, tr.Ghost.Top)
		assert.Equal(t, 0.3, tr.Ghost.Opacity)
		require.NotNil(t, tr.Guide)
		assert.Equal(t, stickers.Point{X: 70, Y: 80}, tr.Guide.To)
		assert.Empty(t, tr.AnimationClass, "animations are suspended while editing")
	})

	t.Run("End edit ignored when not selected", func(t *testing.T) {
		tr := stickers.ComputeTransform(tweenSticker(), stickers.LayoutContext{IsEditing: true, IsEditingEnd: true})
		assert.Equal(t, 10.0, tr.Left)
		assert.Nil(t, tr.Ghost)
		assert.Nil(t, tr.Guide)
	})

	t.Run("Playback tween animates parent", func(t *testing.T) {
		tr := stickers.ComputeTransform(tweenSticker(), stickers.LayoutContext{})
		assert.Equal(t, stickers.AnimateParent, tr.AnimationTarget)
		assert.Equal(t, "animate-sticker-tween", tr.AnimationClass)
		require.NotNil(t, tr.Tween)
		assert.Equal(t, 4.0, tr.Tween.DurationSeconds)
	})

	t.Run("Tween without end stays in place", func(t *testing.T) {
		s := tweenSticker()
		s.EndX, s.EndY, s.TweenDuration = nil, nil, nil

		tr := stickers.ComputeTransform(s, stickers.LayoutContext{})
		require.NotNil(t, tr.Tween)
		assert.Equal(t, tr.Tween.Start, tr.Tween.End)
		assert.Equal(t, 2.0, tr.Tween.DurationSeconds)
	})

	t.Run("Other animations go on the child", func(t *testing.T) {
		s := stickers.NewSticker("💧")
		s.Animation = models.AnimationJiggle

		tr := stickers.ComputeTransform(s, stickers.LayoutContext{})
		assert.Equal(t, stickers.AnimateChild, tr.AnimationTarget)
		assert.Equal(t, "sticker-drip", tr.ContentClass)
		assert.Nil(t, tr.Tween)
	})
}

func TestComputeAll(t *testing.T) {
	a, b := stickers.NewSticker("⭐"), stickers.NewSticker("🔥")
	out := stickers.ComputeAll([]models.Sticker{a, b}, b.ID, true, false, 1)
	require.Len(t, out, 2)
	assert.Equal(t, a.ID, out[0].StickerID)
	assert.Equal(t, 10, out[0].ZIndex)
	assert.Equal(t, 40, out[1].ZIndex)
}

func TestTweenPosition(t *testing.T) {
	s := tweenSticker()

	assert.Equal(t, stickers.Point{X: 10, Y: 20}, stickers.TweenPosition(s, 0))

	mid := stickers.TweenPosition(s, 2*time.Second)
	assert.InDelta(t, 40.0, mid.X, 1e-9)
	assert.InDelta(t, 50.0, mid.Y, 1e-9)

	// в конце цикла стикер возвращается в старт
	wrapped := stickers.TweenPosition(s, 4*time.Second)
	assert.InDelta(t, 10.0, wrapped.X, 1e-9)

	s.Animation = models.AnimationFloat
	assert.Equal(t, stickers.Point{X: 10, Y: 20}, stickers.TweenPosition(s, time.Second))
}

type countingListeners struct {
	attached, detached int
}

func (c *countingListeners) Attach() { c.attached++ }
func (c *countingListeners) Detach() { c.detached++ }

func TestDragController(t *testing.T) {
	container := stickers.Size{Width: 200, Height: 400}

	t.Run("Base drag converts pixels to percent", func(t *testing.T) {
		listeners := &countingListeners{}
		dc := stickers.NewDragController(listeners)
		s := stickers.NewSticker("⭐")

		session, err := dc.BeginSticker(s, stickers.Point{X: 100, Y: 100}, container, false)
		require.NoError(t, err)
		assert.Equal(t, stickers.DragBase, session.Kind)

		active, pos, err := dc.Move(stickers.Point{X: 120, Y: 60})
		require.NoError(t, err)
		assert.Equal(t, s.ID, active.TargetID)
		assert.InDelta(t, 60.0, pos.X, 1e-9)
		assert.InDelta(t, 40.0, pos.Y, 1e-9)

		moved := active.Apply(s, stickers.Point{X: 120, Y: 60})
		assert.InDelta(t, 60.0, moved.X, 1e-9)
		assert.Nil(t, moved.EndX)

		assert.True(t, dc.End())
		assert.False(t, dc.End())
		assert.Equal(t, 1, listeners.attached)
		assert.Equal(t, 1, listeners.detached)

		_, _, err = dc.Move(stickers.Point{})
		assert.ErrorIs(t, err, models.ErrNoActiveDrag)
	})

	t.Run("Clamped to frame", func(t *testing.T) {
		dc := stickers.NewDragController(nil)
		_, err := dc.BeginSticker(stickers.NewSticker("⭐"), stickers.Point{}, container, false)
		require.NoError(t, err)

		_, pos, err := dc.Move(stickers.Point{X: 1000, Y: -1000})
		require.NoError(t, err)
		assert.Equal(t, stickers.Point{X: 100, Y: 0}, pos)
	})

	t.Run("End mode moves end point only", func(t *testing.T) {
		dc := stickers.NewDragController(nil)
		s := tweenSticker()

		session, err := dc.BeginSticker(s, stickers.Point{}, container, true)
		require.NoError(t, err)
		assert.Equal(t, stickers.DragEnd, session.Kind)

		moved := session.Apply(s, stickers.Point{X: -20, Y: 0})
		assert.Equal(t, 10.0, moved.X)
		assert.Equal(t, 20.0, moved.Y)
		assert.InDelta(t, 60.0, *moved.EndX, 1e-9)
		assert.InDelta(t, 80.0, *moved.EndY, 1e-9)
	})

	t.Run("New session replaces previous", func(t *testing.T) {
		listeners := &countingListeners{}
		dc := stickers.NewDragController(listeners)
		a, b := stickers.NewSticker("⭐"), stickers.NewSticker("🔥")

		_, err := dc.BeginSticker(a, stickers.Point{}, container, false)
		require.NoError(t, err)
		_, err = dc.BeginSticker(b, stickers.Point{}, container, false)
		require.NoError(t, err)
		assert.Equal(t, b.ID, dc.Active().TargetID)

		assert.True(t, dc.Cancel())
		assert.Nil(t, dc.Active())
		assert.Equal(t, 2, listeners.attached)
		assert.Equal(t, 2, listeners.detached)
	})

	t.Run("Zero container rejected", func(t *testing.T) {
		dc := stickers.NewDragController(nil)
		_, err := dc.BeginSticker(stickers.NewSticker("⭐"), stickers.Point{}, stickers.Size{}, false)
		assert.ErrorIs(t, err, models.ErrInvalidInput)
		assert.Nil(t, dc.Active())
	})

	t.Run("Panel drag is unclamped pixels", func(t *testing.T) {
		dc := stickers.NewDragController(nil)
		dc.BeginPanel("properties", stickers.Point{X: 5, Y: 5}, stickers.Point{X: 0, Y: 0})

		session, pos, err := dc.Move(stickers.Point{X: -500, Y: 900})
		require.NoError(t, err)
		assert.Equal(t, stickers.DragPanel, session.Kind)
		assert.Equal(t, stickers.Point{X: -495, Y: 905}, pos)
	})
}

func TestSelection(t *testing.T) {
	var sel stickers.Selection
	assert.False(t, sel.IsSelected(""))
	assert.Equal(t, "", sel.Select("a"))
	assert.Equal(t, "a", sel.Select("b"))
	assert.True(t, sel.IsSelected("b"))
	assert.False(t, sel.IsSelected("a"))
	sel.Clear()
	assert.Equal(t, "", sel.ID())
}
