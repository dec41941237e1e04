package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/atelierhq/atelier-api/internal/api/handler/v1/response"
	"github.com/atelierhq/atelier-api/internal/domain"
	"github.com/atelierhq/atelier-api/internal/service"
)

type ProgressionService interface {
	Evaluate(ctx context.Context, userID, familyID uint) (domain.Progression, error)
	EvaluateLevel(ctx context.Context, userID, familyID uint, level int) (domain.LevelStatus, error)
}

type ProgressionHandler struct {
	svc  ProgressionService
	uSvc UserService
}

func NewProgressionHandler(svc ProgressionService, uSvc UserService) *ProgressionHandler {
	return &ProgressionHandler{
		svc:  svc,
		uSvc: uSvc,
	}
}

// HandleEvaluate godoc
// @Summary      Evaluate the caller's certification ladder for a family
// @Tags         progression
// @Produce      json
// @Param        familyID   path   int  true  "family ID"
// @Success      200      {object}   domain.Progression
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /families/{familyID}/progression [get]
// @Security     BearerAuth
func (h *ProgressionHandler) HandleEvaluate(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	familyID, err := parseUintParam(ctx, "familyID")
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	progression, err := h.svc.Evaluate(ctx.Request.Context(), user.ID, familyID)
	if err != nil {
		if errors.Is(err, service.ErrRoleLevelNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("role ladder", "family ID", familyID))
			return
		}

		err = fmt.Errorf("v1.HandleEvaluate -> h.svc.Evaluate -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, progression)
}

// HandleEvaluateLevel godoc
// @Summary      Check a single level of the caller's certification ladder
// @Description  Returns the level status. A locked level responds 409 with the
// @Description  unmet thresholds in the body.
// @Tags         progression
// @Produce      json
// @Param        familyID   path   int  true  "family ID"
// @Param        level      path   int  true  "level number"
// @Success      200      {object}   domain.LevelStatus
// @Failure      404      {object}   response.Err
// @Failure      409      {object}   domain.LevelStatus
// @Failure      500      {object}   response.Err
// @Router       /families/{familyID}/progression/levels/{level} [get]
// @Security     BearerAuth
func (h *ProgressionHandler) HandleEvaluateLevel(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	familyID, err := parseUintParam(ctx, "familyID")
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	level, err := strconv.Atoi(ctx.Param("level"))
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	status, err := h.svc.EvaluateLevel(ctx.Request.Context(), user.ID, familyID, level)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRoleLevelNotFound):
			response.RenderErr(ctx, response.ErrNotFound("role level", "level", level))
		case errors.Is(err, service.ErrRequirementNotMet):
			// Locked is a business outcome, not a failure; the status
			// carries the shortfalls.
			ctx.JSON(http.StatusConflict, status)
		default:
			err = fmt.Errorf("v1.HandleEvaluateLevel -> h.svc.EvaluateLevel -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}

		return
	}

	ctx.JSON(http.StatusOK, status)
}
