package handler

import (
	"strconv"
	"time"

	"main/dto"
	"main/usecase"
	"main/utils"

	"github.com/gin-gonic/gin"
)

type SyncHandler struct {
	clipService *usecase.ClipService
}

func NewSyncHandler(clipService *usecase.ClipService) *SyncHandler {
	return &SyncHandler{clipService: clipService}
}

// Push handles POST /sync/push. A batch may come back as any mix of
// applied and conflicting entries; clients must walk both lists.
func (h *SyncHandler) Push(c *gin.Context) {
	ownerID := c.GetString("ownerID")
	deviceID := c.GetString("deviceID")

	var req dto.PushRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request body")
		return
	}

	applied, conflicts, err := h.clipService.Push(c.Request.Context(), ownerID, deviceID, req.Changes)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.Success(c, dto.PushResponse{
		Applied:    dto.ToClipResponses(applied, true),
		Conflicts:  dto.ToClipResponses(conflicts, false),
		ServerTime: time.Now().UTC(),
	})
}

// Pull handles GET /sync/pull?since&limit&lite, oldest unseen first.
func (h *SyncHandler) Pull(c *gin.Context) {
	ownerID := c.GetString("ownerID")

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			utils.BadRequest(c, "Invalid limit")
			return
		}
		limit = n
	}
	lite := c.Query("lite") == "1"

	changes, nextSince, hasMore, err := h.clipService.Pull(c.Request.Context(), ownerID, c.Query("since"), limit)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.Success(c, dto.PullResponse{
		Changes:   dto.ToClipResponses(changes, lite),
		NextSince: nextSince,
		HasMore:   hasMore,
	})
}
