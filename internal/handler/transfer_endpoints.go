package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"storymatrix/internal/transfer"
)

func (h *GalleryHandler) exportGallery(c *gin.Context) {
	data, err := h.gallery.Export()
	if err != nil {
		transfersTotal.WithLabelValues("export", "error").Inc()
		handleServiceError(c, err)
		return
	}
	transfersTotal.WithLabelValues("export", "ok").Inc()
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, transfer.ExportFilename(time.Now())))
	c.Data(http.StatusOK, "application/json", data)
}

func (h *GalleryHandler) importGallery(c *gin.Context) {
	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		transfersTotal.WithLabelValues("import", "error").Inc()
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, APIError{Message: "Import file is too large"})
			return
		}
		badRequest(c, "Failed to read import file", err)
		return
	}
	res, err := h.gallery.Import(c.Request.Context(), data)
	if err != nil {
		transfersTotal.WithLabelValues("import", "error").Inc()
		handleServiceError(c, err)
		return
	}
	transfersTotal.WithLabelValues("import", "ok").Inc()
	c.JSON(http.StatusOK, res)
}
