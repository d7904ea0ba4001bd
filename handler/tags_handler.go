package handler

import (
	"main/dto"
	"main/usecase"
	"main/utils"

	"github.com/gin-gonic/gin"
)

type TagHandler struct {
	tagService *usecase.TagService
}

func NewTagHandler(tagService *usecase.TagService) *TagHandler {
	return &TagHandler{tagService: tagService}
}

func (h *TagHandler) ListTags(c *gin.Context) {
	ownerID := c.GetString("ownerID")

	tags, err := h.tagService.ListTags(c.Request.Context(), ownerID)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, dto.ToTagResponses(tags))
}

func (h *TagHandler) CreateTag(c *gin.Context) {
	ownerID := c.GetString("ownerID")

	var req dto.TagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request body")
		return
	}

	tag, err := h.tagService.CreateTag(c.Request.Context(), ownerID, req.DisplayName)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Created(c, dto.TagResponse{ID: tag.ID, DisplayName: tag.DisplayName})
}

func (h *TagHandler) DeleteTag(c *gin.Context) {
	ownerID := c.GetString("ownerID")
	tagID := c.Param("id")

	if err := h.tagService.DeleteTag(c.Request.Context(), ownerID, tagID); err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, gin.H{"message": "Tag deleted successfully"})
}
