package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storymatrix/internal/effects"
	"storymatrix/internal/models"
	"storymatrix/internal/render"
	"storymatrix/internal/stickers"
)

func (h *GalleryHandler) listMoments(c *gin.Context) {
	c.JSON(http.StatusOK, h.gallery.ListMoments(c.Query("q")))
}

func (h *GalleryHandler) getMoment(c *gin.Context) {
	m, err := h.gallery.GetMoment(c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *GalleryHandler) ingestMoments(c *gin.Context) {
	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request data", err)
		return
	}
	added, err := h.gallery.Ingest(c.Request.Context(), req.Items)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	if added == nil {
		added = []models.Moment{}
	}
	momentsIngestedTotal.Add(float64(len(added)))
	c.JSON(http.StatusCreated, ingestResponse{Added: added})
}

func (h *GalleryHandler) deleteMoment(c *gin.Context) {
	if err := h.gallery.DeleteMoment(c.Request.Context(), c.Param("id")); err != nil {
		handleServiceError(c, err)
		return
	}
	momentsDeletedTotal.Inc()
	c.Status(http.StatusNoContent)
}

func (h *GalleryHandler) deleteMoments(c *gin.Context) {
	var req idsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request data", err)
		return
	}
	n, err := h.gallery.DeleteMoments(c.Request.Context(), req.IDs)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	momentsDeletedTotal.Add(float64(n))
	c.JSON(http.StatusOK, deleteMomentsResponse{Deleted: n})
}

// renderMoment план отрисовки момента на момент elapsedMs.
// editing=true отдаёт раскладку холста редактора.
func (h *GalleryHandler) renderMoment(c *gin.Context) {
	m, err := h.gallery.GetMoment(c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	scale, err := queryFloat(c, "scale", 1)
	if err != nil || scale <= 0 {
		badRequest(c, "Invalid scale", err)
		return
	}
	elapsed, err := queryFloat(c, "elapsedMs", 0)
	if err != nil || elapsed < 0 {
		badRequest(c, "Invalid elapsedMs", err)
		return
	}
	opts := render.Options{
		Editing:      c.Query("editing") == "true",
		EditingEnd:   c.Query("editingEnd") == "true",
		SelectedID:   c.Query("selected"),
		DisplayScale: scale,
		Elapsed:      time.Duration(elapsed * float64(time.Millisecond)),
	}
	c.JSON(http.StatusOK, render.Build(m, opts))
}

func (h *GalleryHandler) listStories(c *gin.Context) {
	c.JSON(http.StatusOK, h.gallery.ListStories())
}

func (h *GalleryHandler) getStory(c *gin.Context) {
	st, err := h.gallery.GetStory(c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *GalleryHandler) createStory(c *gin.Context) {
	var req createStoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request data", err)
		return
	}
	st, err := h.gallery.CreateStory(c.Request.Context(), req.Title, req.MomentIDs)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	storiesCreatedTotal.Inc()
	h.logger.Info("Story created", zap.String("storyID", st.ID), zap.Int("moments", len(st.MomentIDs)))
	c.JSON(http.StatusCreated, st)
}

func (h *GalleryHandler) renameStory(c *gin.Context) {
	var req renameStoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request data", err)
		return
	}
	st, err := h.gallery.RenameStory(c.Request.Context(), c.Param("id"), req.Title)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *GalleryHandler) deleteStory(c *gin.Context) {
	if err := h.gallery.DeleteStory(c.Request.Context(), c.Param("id")); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *GalleryHandler) storyMoments(c *gin.Context) {
	list, err := h.gallery.StoryMoments(c.Param("id"), c.Query("q"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *GalleryHandler) addToStory(c *gin.Context) {
	var req idsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request data", err)
		return
	}
	st, err := h.gallery.AddToStory(c.Request.Context(), c.Param("id"), req.IDs)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *GalleryHandler) reorderStory(c *gin.Context) {
	var req reorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request data", err)
		return
	}
	st, err := h.gallery.ReorderStory(c.Request.Context(), c.Param("id"), req.DraggedID, req.TargetID, req.Side)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *GalleryHandler) getSelection(c *gin.Context) {
	c.JSON(http.StatusOK, selectionResponse{Selection: nonNil(h.gallery.Selection())})
}

func (h *GalleryHandler) toggleSelection(c *gin.Context) {
	var req toggleSelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request data", err)
		return
	}
	c.JSON(http.StatusOK, selectionResponse{Selection: nonNil(h.gallery.ToggleSelection(req.MomentID))})
}

func (h *GalleryHandler) clearSelection(c *gin.Context) {
	h.gallery.ClearSelection()
	c.Status(http.StatusNoContent)
}

// catalog справочники для редактора: шрифты, цвета, эффекты, стикеры.
func (h *GalleryHandler) catalog(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"fonts":      effects.Fonts,
		"colors":     effects.Colors,
		"effects":    models.Effects,
		"animations": models.Animations,
		"stickers":   stickers.Palette,
	})
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
