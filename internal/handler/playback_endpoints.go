package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storymatrix/internal/navigator"
)

func (h *GalleryHandler) startPlayback(c *gin.Context) {
	var req startPlaybackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request data", err)
		return
	}
	sid, frame, err := h.playback.Start(req.StoryID, req.StartMomentID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, playbackResponse{SessionID: sid, Frame: frame})
}

func (h *GalleryHandler) playbackFrame(c *gin.Context) {
	sid := c.Param("sid")
	frame, err := h.playback.Frame(sid)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, playbackResponse{SessionID: sid, Frame: frame})
}

func (h *GalleryHandler) playbackKey(c *gin.Context) {
	var req keyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request data", err)
		return
	}
	action, frame, err := h.playback.HandleKey(c.Param("sid"), req.Key)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	if action != navigator.ActionIgnored {
		playbackKeysTotal.WithLabelValues(string(action)).Inc()
	}
	c.JSON(http.StatusOK, keyResponse{Action: action, Frame: frame})
}

func (h *GalleryHandler) playbackChoice(c *gin.Context) {
	var req choiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request data", err)
		return
	}
	sid := c.Param("sid")
	frame, err := h.playback.SelectChoice(sid, req.ChoiceID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	playbackKeysTotal.WithLabelValues("choice").Inc()
	c.JSON(http.StatusOK, playbackResponse{SessionID: sid, Frame: frame})
}

func (h *GalleryHandler) playbackJump(c *gin.Context) {
	var req jumpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request data", err)
		return
	}
	sid := c.Param("sid")
	frame, err := h.playback.Jump(sid, req.MomentID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, playbackResponse{SessionID: sid, Frame: frame})
}

func (h *GalleryHandler) exitPlayback(c *gin.Context) {
	if err := h.playback.Exit(c.Param("sid")); err != nil {
		handleServiceError(c, err)
		return
	}
	playbackKeysTotal.WithLabelValues(string(navigator.ActionExit)).Inc()
	c.Status(http.StatusNoContent)
}
