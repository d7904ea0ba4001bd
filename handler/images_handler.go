package handler

import (
	"net/http"

	"main/usecase"

	"github.com/gin-gonic/gin"
)

type ImageHandler struct {
	clipService *usecase.ClipService
}

func NewImageHandler(clipService *usecase.ClipService) *ImageHandler {
	return &ImageHandler{clipService: clipService}
}

// GetImage streams the full-size image from whichever tier holds it. The
// response is only immutably cacheable when the caller's hash parameter
// matches the record's current content hash; without it the bytes can
// change under the same URL on a record update.
func (h *ImageHandler) GetImage(c *gin.Context) {
	ownerID := c.GetString("ownerID")
	clipID := c.Param("id")

	data, payload, err := h.clipService.FetchImageBytes(c.Request.Context(), ownerID, clipID)
	if err != nil {
		respondError(c, err)
		return
	}

	if hash := c.Query("hash"); hash != "" && hash == payload.Hash {
		c.Header("Cache-Control", "public, max-age=31536000, immutable")
	} else {
		c.Header("Cache-Control", "no-cache")
	}
	c.Data(http.StatusOK, payload.Mime, data)
}
