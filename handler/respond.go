package handler

import (
	"errors"
	"log"

	"main/usecase"
	"main/utils"

	"github.com/gin-gonic/gin"
)

// respondError maps usecase errors onto the wire taxonomy. Conflicts are
// handled at call sites because they carry the winning record.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, usecase.ErrValidation):
		utils.BadRequest(c, err.Error())
	case errors.Is(err, usecase.ErrNotFound):
		utils.NotFound(c, err.Error())
	case errors.Is(err, usecase.ErrCapacity):
		utils.PayloadTooLarge(c, err.Error())
	default:
		log.Printf("internal error: %v", err)
		utils.InternalError(c, "Internal server error")
	}
}
