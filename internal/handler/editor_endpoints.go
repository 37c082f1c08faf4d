package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storymatrix/internal/editor"
	"storymatrix/internal/models"
)

// respondEditor отвечает состоянием сессии и трансформациями стикеров.
func (h *GalleryHandler) respondEditor(c *gin.Context, status int, state editor.State) {
	scale, err := queryFloat(c, "scale", 1)
	if err != nil || scale <= 0 {
		scale = 1
	}
	transforms, err := h.editor.Transforms(scale)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(status, editorResponse{State: state, Transforms: transforms})
}

// edit применяет fn к активной сессии и отвечает новым состоянием.
func (h *GalleryHandler) edit(c *gin.Context, fn func(*editor.Session) error) {
	state, err := h.editor.Apply(fn)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	h.respondEditor(c, http.StatusOK, state)
}

func (h *GalleryHandler) openEditor(c *gin.Context) {
	state, err := h.editor.Open(c.Param("momentId"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	h.respondEditor(c, http.StatusOK, state)
}

func (h *GalleryHandler) editorState(c *gin.Context) {
	state, err := h.editor.Current()
	if err != nil {
		handleServiceError(c, err)
		return
	}
	h.respondEditor(c, http.StatusOK, state)
}

func (h *GalleryHandler) closeEditor(c *gin.Context) {
	if !h.editor.Close() {
		handleServiceError(c, models.ErrNoActiveSession)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *GalleryHandler) setMode(c *gin.Context) {
	var req modeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request data", err)
		return
	}
	h.edit(c, func(s *editor.Session) error { return s.SetMode(req.Mode) })
}

func (h *GalleryHandler) setText(c *gin.Context) {
	var req textRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request data", err)
		return
	}
	h.edit(c, func(s *editor.Session) error {
		s.SetText(req.Text)
		return nil
	})
}

func (h *GalleryHandler) selectWord(c *gin.Context) {
	var req selectWordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request data", err)
		return
	}
	h.edit(c, func(s *editor.Session) error { return s.SelectWord(req.Index) })
}

func (h *GalleryHandler) applyEffect(c *gin.Context) {
	var req effectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request data", err)
		return
	}
	h.edit(c, func(s *editor.Session) error {
		s.ApplyEffect(req.Effect)
		return nil
	})
}

func (h *GalleryHandler) setStyle(c *gin.Context) {
	var req editor.StylePatch
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request data", err)
		return
	}
	h.edit(c, func(s *editor.Session) error { return s.SetStyle(req) })
}

func (h *GalleryHandler) addSticker(c *gin.Context) {
	var req addStickerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request data", err)
		return
	}
	state, err := h.editor.Apply(func(s *editor.Session) error {
		_, err := s.AddSticker(req.Content)
		return err
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	h.respondEditor(c, http.StatusCreated, state)
}

func (h *GalleryHandler) updateSticker(c *gin.Context) {
	var req editor.StickerPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request data", err)
		return
	}
	id := c.Param("id")
	h.edit(c, func(s *editor.Session) error {
		_, err := s.UpdateSticker(id, req)
		return err
	})
}

func (h *GalleryHandler) removeSticker(c *gin.Context) {
	id := c.Param("id")
	h.edit(c, func(s *editor.Session) error { return s.RemoveSticker(id) })
}

func (h *GalleryHandler) selectSticker(c *gin.Context) {
	id := c.Param("id")
	h.edit(c, func(s *editor.Session) error { return s.SelectSticker(id) })
}

func (h *GalleryHandler) clearStickerSelection(c *gin.Context) {
	h.edit(c, func(s *editor.Session) error { return s.SelectSticker("") })
}

func (h *GalleryHandler) setStickerAnimation(c *gin.Context) {
	var req animationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request data", err)
		return
	}
	id := c.Param("id")
	h.edit(c, func(s *editor.Session) error {
		_, err := s.SetStickerAnimation(id, req.Animation)
		return err
	})
}

func (h *GalleryHandler) setTweenEnd(c *gin.Context) {
	var req tweenEndRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request data", err)
		return
	}
	h.edit(c, func(s *editor.Session) error { return s.SetTweenEndEditing(req.On) })
}

func (h *GalleryHandler) beginDrag(c *gin.Context) {
	var req dragBeginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request data", err)
		return
	}
	if (req.StickerID == "") == (req.Panel == "") {
		badRequest(c, "Exactly one of stickerId or panel is required", nil)
		return
	}
	var upd editor.DragUpdate
	_, err := h.editor.Apply(func(s *editor.Session) error {
		var err error
		if req.Panel != "" {
			upd, err = s.BeginPanelDrag(req.Panel, req.Pointer)
		} else {
			upd, err = s.BeginStickerDrag(req.StickerID, req.Pointer, req.Container)
		}
		return err
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, upd)
}

func (h *GalleryHandler) moveDrag(c *gin.Context) {
	var req dragMoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request data", err)
		return
	}
	var upd editor.DragUpdate
	_, err := h.editor.Apply(func(s *editor.Session) error {
		var err error
		upd, err = s.MoveDrag(req.Pointer)
		return err
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, upd)
}

func (h *GalleryHandler) endDrag(c *gin.Context) {
	h.finishDrag(c, (*editor.Session).EndDrag)
}

// cancelDrag для потери фокуса окна или скрытия вкладки.
func (h *GalleryHandler) cancelDrag(c *gin.Context) {
	h.finishDrag(c, (*editor.Session).CancelDrag)
}

func (h *GalleryHandler) finishDrag(c *gin.Context, finish func(*editor.Session) bool) {
	var ended bool
	_, err := h.editor.Apply(func(s *editor.Session) error {
		ended = finish(s)
		return nil
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dragEndResponse{Ended: ended})
}

func (h *GalleryHandler) setDialogue(c *gin.Context) {
	var req editor.DialoguePatch
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request data", err)
		return
	}
	h.edit(c, func(s *editor.Session) error { return s.SetDialogue(req) })
}

func (h *GalleryHandler) addChoice(c *gin.Context) {
	state, err := h.editor.Apply(func(s *editor.Session) error {
		s.AddChoice()
		return nil
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	h.respondEditor(c, http.StatusCreated, state)
}

func (h *GalleryHandler) updateChoice(c *gin.Context) {
	var req choicePatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request data", err)
		return
	}
	id := c.Param("id")
	h.edit(c, func(s *editor.Session) error {
		_, err := s.UpdateChoice(id, req.Label, req.TargetMomentID)
		return err
	})
}

func (h *GalleryHandler) removeChoice(c *gin.Context) {
	id := c.Param("id")
	h.edit(c, func(s *editor.Session) error { return s.RemoveChoice(id) })
}

func (h *GalleryHandler) saveEditor(c *gin.Context) {
	saved, err := h.editor.Save(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	momentsSavedTotal.Inc()
	h.logger.Debug("Editor saved", zap.String("momentID", saved.ID))
	c.JSON(http.StatusOK, saved)
}

func (h *GalleryHandler) discardEditor(c *gin.Context) {
	state, err := h.editor.Discard()
	if err != nil {
		handleServiceError(c, err)
		return
	}
	h.respondEditor(c, http.StatusOK, state)
}
