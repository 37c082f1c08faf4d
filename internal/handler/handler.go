// Package handler HTTP API галереи поверх gin.
package handler

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storymatrix/internal/service"
)

// Options настройки обработчика.
type Options struct {
	// RateLimitPerSecond лимит запросов в секунду на тяжелые эндпоинты (import, ingest).
	RateLimitPerSecond uint
	// MaxBodyBytes ограничение тела запроса. 0 = без ограничения.
	MaxBodyBytes int64
}

// GalleryHandler обслуживает API галереи, редактора и проигрывания.
type GalleryHandler struct {
	gallery  service.GalleryService
	editor   service.EditorService
	playback service.PlaybackService
	opts     Options
	logger   *zap.Logger
}

func NewGalleryHandler(
	gallery service.GalleryService,
	editor service.EditorService,
	playback service.PlaybackService,
	opts Options,
	logger *zap.Logger,
) *GalleryHandler {
	if opts.RateLimitPerSecond == 0 {
		opts.RateLimitPerSecond = 5
	}
	return &GalleryHandler{
		gallery:  gallery,
		editor:   editor,
		playback: playback,
		opts:     opts,
		logger:   logger.Named("GalleryHandler"),
	}
}

func (h *GalleryHandler) RegisterRoutes(router *gin.Engine) {
	heavy := h.rateLimiter()

	moments := router.Group("/moments")
	{
		moments.GET("", h.listMoments)
		moments.POST("/ingest", heavy, h.limitBody(), h.ingestMoments)
		moments.POST("/delete", h.deleteMoments)
		moments.GET("/:id", h.getMoment)
		moments.DELETE("/:id", h.deleteMoment)
		moments.GET("/:id/render", h.renderMoment)
	}

	stories := router.Group("/stories")
	{
		stories.GET("", h.listStories)
		stories.POST("", h.createStory)
		stories.GET("/:id", h.getStory)
		stories.PATCH("/:id", h.renameStory)
		stories.DELETE("/:id", h.deleteStory)
		stories.GET("/:id/moments", h.storyMoments)
		stories.POST("/:id/moments", h.addToStory)
		stories.POST("/:id/reorder", h.reorderStory)
	}

	selection := router.Group("/selection")
	{
		selection.GET("", h.getSelection)
		selection.POST("/toggle", h.toggleSelection)
		selection.DELETE("", h.clearSelection)
	}

	ed := router.Group("/editor")
	{
		ed.GET("", h.editorState)
		ed.DELETE("", h.closeEditor)
		ed.POST("/open/:momentId", h.openEditor)
		ed.PUT("/mode", h.setMode)
		ed.PUT("/text", h.setText)
		ed.POST("/word", h.selectWord)
		ed.POST("/effect", h.applyEffect)
		ed.PUT("/style", h.setStyle)
		ed.POST("/stickers", h.addSticker)
		ed.PATCH("/stickers/:id", h.updateSticker)
		ed.DELETE("/stickers/:id", h.removeSticker)
		ed.POST("/stickers/:id/select", h.selectSticker)
		ed.DELETE("/selection", h.clearStickerSelection)
		ed.POST("/stickers/:id/animation", h.setStickerAnimation)
		ed.PUT("/tween-end", h.setTweenEnd)
		ed.POST("/drag/begin", h.beginDrag)
		ed.POST("/drag/move", h.moveDrag)
		ed.POST("/drag/end", h.endDrag)
		ed.POST("/drag/cancel", h.cancelDrag)
		ed.PUT("/dialogue", h.setDialogue)
		ed.POST("/choices", h.addChoice)
		ed.PATCH("/choices/:id", h.updateChoice)
		ed.DELETE("/choices/:id", h.removeChoice)
		ed.POST("/save", h.saveEditor)
		ed.POST("/discard", h.discardEditor)
	}

	pb := router.Group("/playback")
	{
		pb.POST("", h.startPlayback)
		pb.GET("/:sid", h.playbackFrame)
		pb.POST("/:sid/key", h.playbackKey)
		pb.POST("/:sid/choice", h.playbackChoice)
		pb.POST("/:sid/jump", h.playbackJump)
		pb.DELETE("/:sid", h.exitPlayback)
		pb.GET("/:sid/typewriter", h.typewriterStream)
	}

	router.GET("/export", h.exportGallery)
	router.POST("/import", heavy, h.limitBody(), h.importGallery)
	router.GET("/catalog", h.catalog)
}

// rateLimiter общий лимит для эндпоинтов, принимающих большие тела.
func (h *GalleryHandler) rateLimiter() gin.HandlerFunc {
	store := ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
		Rate:  time.Second,
		Limit: h.opts.RateLimitPerSecond,
	})
	return ratelimit.RateLimiter(store, &ratelimit.Options{
		ErrorHandler: func(c *gin.Context, info ratelimit.Info) {
			c.Header("Retry-After", strconv.Itoa(int(time.Until(info.ResetTime).Seconds())+1))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, APIError{Message: "Too many requests, try again later"})
		},
		KeyFunc: func(c *gin.Context) string {
			return c.ClientIP()
		},
	})
}

func (h *GalleryHandler) limitBody() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.opts.MaxBodyBytes > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.opts.MaxBodyBytes)
		}
		c.Next()
	}
}

// queryFloat читает необязательный числовой query-параметр. NaN и Inf не принимаются.
func queryFloat(c *gin.Context, key string, def float64) (float64, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%s must be a finite number", key)
	}
	return v, nil
}
