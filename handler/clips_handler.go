package handler

import (
	"time"

	"main/dto"
	"main/usecase"
	"main/utils"

	"github.com/gin-gonic/gin"
)

type ClipHandler struct {
	clipService *usecase.ClipService
}

func NewClipHandler(clipService *usecase.ClipService) *ClipHandler {
	return &ClipHandler{clipService: clipService}
}

// ListClips handles GET /clips with q, tag, favorite, cursor, limit and
// lite query parameters.
func (h *ClipHandler) ListClips(c *gin.Context) {
	ownerID := c.GetString("ownerID")

	var req dto.ListClipsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		utils.BadRequest(c, "Invalid list query")
		return
	}

	query := usecase.ClipListQuery{
		Query:  req.Query,
		Tag:    req.Tag,
		Kind:   req.Kind,
		Cursor: req.Cursor,
		Limit:  req.Limit,
		Lite:   req.Lite == "1",
	}
	if req.Favorite != "" {
		val := req.Favorite == "1" || req.Favorite == "true"
		query.Favorite = &val
	}

	page, err := h.clipService.List(c.Request.Context(), ownerID, query)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, page)
}

func (h *ClipHandler) GetClip(c *gin.Context) {
	ownerID := c.GetString("ownerID")
	clipID := c.Param("id")

	clip, err := h.clipService.Get(c.Request.Context(), ownerID, clipID)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, dto.ToClipResponse(clip, false))
}

// CreateClip handles POST /clips; the body is a partial record plus
// client_updated_at. Creation still flows through the merge engine so a
// concurrent older create cannot clobber a newer one.
func (h *ClipHandler) CreateClip(c *gin.Context) {
	ownerID := c.GetString("ownerID")
	deviceID := c.GetString("deviceID")

	var change dto.ClipChange
	if err := c.ShouldBindJSON(&change); err != nil {
		utils.BadRequest(c, "Invalid request body")
		return
	}
	if change.ID == "" {
		change.ID = utils.GenerateID()
	}

	result, err := h.clipService.Apply(c.Request.Context(), ownerID, deviceID, change)
	if err != nil {
		respondError(c, err)
		return
	}
	if !result.Applied {
		utils.Conflict(c, "Server has a newer version", dto.ToClipResponse(result.Clip, false))
		return
	}
	utils.Created(c, dto.ToClipResponse(result.Clip, false))
}

// UpdateClip handles PATCH /clips/:id through the merge engine.
func (h *ClipHandler) UpdateClip(c *gin.Context) {
	ownerID := c.GetString("ownerID")
	deviceID := c.GetString("deviceID")
	clipID := c.Param("id")

	var change dto.ClipChange
	if err := c.ShouldBindJSON(&change); err != nil {
		utils.BadRequest(c, "Invalid request body")
		return
	}
	change.ID = clipID

	result, err := h.clipService.Apply(c.Request.Context(), ownerID, deviceID, change)
	if err != nil {
		respondError(c, err)
		return
	}
	if !result.Applied {
		utils.Conflict(c, "Server has a newer version", dto.ToClipResponse(result.Clip, false))
		return
	}
	utils.Success(c, dto.ToClipResponse(result.Clip, false))
}

// DeleteClip handles DELETE /clips/:id as a soft delete through the
// merge engine; the tombstone stays visible to sync pulls.
func (h *ClipHandler) DeleteClip(c *gin.Context) {
	ownerID := c.GetString("ownerID")
	deviceID := c.GetString("deviceID")
	clipID := c.Param("id")

	var clientUpdatedAt time.Time
	if ts := c.Query("client_updated_at"); ts != "" {
		parsed, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			utils.BadRequest(c, "Invalid client_updated_at")
			return
		}
		clientUpdatedAt = parsed
	}

	result, err := h.clipService.Delete(c.Request.Context(), ownerID, deviceID, clipID, clientUpdatedAt)
	if err != nil {
		respondError(c, err)
		return
	}
	if !result.Applied {
		utils.Conflict(c, "Server has a newer version", dto.ToClipResponse(result.Clip, false))
		return
	}
	utils.Success(c, gin.H{"message": "Clip deleted successfully"})
}
