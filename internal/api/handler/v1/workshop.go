package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/atelierhq/atelier-api/internal/api/handler/v1/request"
	"github.com/atelierhq/atelier-api/internal/api/handler/v1/response"
	"github.com/atelierhq/atelier-api/internal/domain"
	"github.com/atelierhq/atelier-api/internal/service"
)

type WorkshopService interface {
	Create(ctx context.Context, organizerID uint, workshop domain.Workshop) (domain.Workshop, error)
	Classify(ctx context.Context, actorID, id uint, path domain.ClassificationPath) (domain.ClassificationStatus, error)
	UpdateDetails(ctx context.Context, actorID, id uint, title, description string, audienceNumber int) (domain.Workshop, error)
	Reschedule(ctx context.Context, actorID, id uint, startAt time.Time, extraMinutes, expectedVersion int) (domain.Workshop, error)
	Relocate(ctx context.Context, actorID, id uint, isRemote bool, location, visioLink, muralLink string, expectedVersion int) (domain.Workshop, error)
	Cancel(ctx context.Context, actorID, id uint) (domain.Workshop, error)
	Close(ctx context.Context, actorID, id uint) (domain.Workshop, error)
	GetWorkshop(ctx context.Context, id uint) (domain.Workshop, error)
	ListByFamily(ctx context.Context, familyID uint) ([]domain.Workshop, error)
	ListByOrganizer(ctx context.Context, organizerID uint) ([]domain.Workshop, error)
	ListFamilies(ctx context.Context) ([]domain.Family, error)
	GetFamily(ctx context.Context, id uint) (domain.Family, error)
	History(ctx context.Context, workshopID uint) ([]domain.WorkshopHistoryLog, error)
	ExportCalendar(ctx context.Context, workshopID uint) ([]byte, error)
}

type WorkshopHandler struct {
	svc  WorkshopService
	uSvc UserService
}

func NewWorkshopHandler(svc WorkshopService, uSvc UserService) *WorkshopHandler {
	return &WorkshopHandler{
		svc:  svc,
		uSvc: uSvc,
	}
}

// HandleCreateWorkshop godoc
// @Summary      Publish a new workshop
// @Tags         workshops
// @Produce      json
// @Param        request   body      request.CreateWorkshopRequest true "request body"
// @Success      201      {object}   domain.Workshop
// @Failure      400      {object}   response.Err
// @Failure      403      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /workshops [post]
// @Security     BearerAuth
func (h *WorkshopHandler) HandleCreateWorkshop(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	if respErr = requireOrganizer(user); respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.CreateWorkshopRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	workshop, err := h.svc.Create(ctx.Request.Context(), user.ID, domain.Workshop{
		FamilyID:             req.FamilyID,
		Type:                 domain.WorkshopType(req.Type),
		Title:                req.Title,
		Description:          req.Description,
		StartAt:              req.StartAt,
		ExtraDurationMinutes: req.ExtraDurationMinutes,
		IsRemote:             req.IsRemote,
		Location:             req.Location,
		VisioLink:            req.VisioLink,
		MuralLink:            req.MuralLink,
		AudienceNumber:       req.AudienceNumber,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidWorkshopType) {
			response.RenderErr(ctx, response.ErrBadRequest(err))
			return
		}
		if errors.Is(err, service.ErrWorkshopNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("family", "ID", req.FamilyID))
			return
		}

		err = fmt.Errorf("v1.HandleCreateWorkshop -> h.svc.Create -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusCreated, workshop)
}

// HandleGetWorkshop godoc
// @Summary      Get one workshop
// @Tags         workshops
// @Produce      json
// @Param        workshopID   path       int  true  "workshop ID"
// @Success      200      {object}   domain.Workshop
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /workshops/{workshopID} [get]
// @Security     BearerAuth
func (h *WorkshopHandler) HandleGetWorkshop(ctx *gin.Context) {
	workshopID, err := parseUintParam(ctx, "workshopID")
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	workshop, err := h.svc.GetWorkshop(ctx.Request.Context(), workshopID)
	if err != nil {
		if errors.Is(err, service.ErrWorkshopNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("workshop", "ID", workshopID))
			return
		}

		err = fmt.Errorf("v1.HandleGetWorkshop -> h.svc.GetWorkshop -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, workshop)
}

// HandleListFamilies godoc
// @Summary      List workshop families
// @Tags         families
// @Produce      json
// @Success      200      {array}    domain.Family
// @Failure      500      {object}   response.Err
// @Router       /families [get]
// @Security     BearerAuth
func (h *WorkshopHandler) HandleListFamilies(ctx *gin.Context) {
	families, err := h.svc.ListFamilies(ctx.Request.Context())
	if err != nil {
		err = fmt.Errorf("v1.HandleListFamilies -> h.svc.ListFamilies -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, families)
}

// HandleListFamilyWorkshops godoc
// @Summary      List a family's workshops
// @Tags         families
// @Produce      json
// @Param        familyID   path       int  true  "family ID"
// @Success      200      {array}    domain.Workshop
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /families/{familyID}/workshops [get]
// @Security     BearerAuth
func (h *WorkshopHandler) HandleListFamilyWorkshops(ctx *gin.Context) {
	familyID, err := parseUintParam(ctx, "familyID")
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if _, err = h.svc.GetFamily(ctx.Request.Context(), familyID); err != nil {
		if errors.Is(err, service.ErrWorkshopNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("family", "ID", familyID))
			return
		}

		err = fmt.Errorf("v1.HandleListFamilyWorkshops -> h.svc.GetFamily -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	workshops, err := h.svc.ListByFamily(ctx.Request.Context(), familyID)
	if err != nil {
		err = fmt.Errorf("v1.HandleListFamilyWorkshops -> h.svc.ListByFamily -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, workshops)
}

// HandleListMyWorkshops godoc
// @Summary      List workshops the caller organizes
// @Tags         workshops
// @Produce      json
// @Success      200      {array}    domain.Workshop
// @Failure      500      {object}   response.Err
// @Router       /workshops/mine [get]
// @Security     BearerAuth
func (h *WorkshopHandler) HandleListMyWorkshops(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	workshops, err := h.svc.ListByOrganizer(ctx.Request.Context(), user.ID)
	if err != nil {
		err = fmt.Errorf("v1.HandleListMyWorkshops -> h.svc.ListByOrganizer -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, workshops)
}

// HandleUpdateWorkshop godoc
// @Summary      Edit title, description and capacity
// @Tags         workshops
// @Produce      json
// @Param        workshopID   path   int  true  "workshop ID"
// @Param        request   body      request.UpdateWorkshopRequest true "request body"
// @Success      200      {object}   domain.Workshop
// @Failure      400      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /workshops/{workshopID} [put]
// @Security     BearerAuth
func (h *WorkshopHandler) HandleUpdateWorkshop(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	if respErr = requireOrganizer(user); respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	workshopID, err := parseUintParam(ctx, "workshopID")
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	var req request.UpdateWorkshopRequest
	if err = ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err = req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	workshop, err := h.svc.UpdateDetails(ctx.Request.Context(), user.ID, workshopID, req.Title, req.Description, req.AudienceNumber)
	if err != nil {
		if errors.Is(err, service.ErrWorkshopNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("workshop", "ID", workshopID))
			return
		}

		err = fmt.Errorf("v1.HandleUpdateWorkshop -> h.svc.UpdateDetails -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, workshop)
}

// HandleReschedule godoc
// @Summary      Change the date of a workshop
// @Description  Bumps the date confirmation version; participants must re-confirm.
// @Tags         workshops
// @Produce      json
// @Param        workshopID   path   int  true  "workshop ID"
// @Param        request   body      request.RescheduleRequest true "request body"
// @Success      200      {object}   domain.Workshop
// @Failure      400      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      409      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /workshops/{workshopID}/reschedule [post]
// @Security     BearerAuth
func (h *WorkshopHandler) HandleReschedule(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	if respErr = requireOrganizer(user); respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	workshopID, err := parseUintParam(ctx, "workshopID")
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	var req request.RescheduleRequest
	if err = ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err = req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	workshop, err := h.svc.Reschedule(ctx.Request.Context(), user.ID, workshopID, req.StartAt, req.ExtraDurationMinutes, req.ExpectedVersion)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrWorkshopNotFound):
			response.RenderErr(ctx, response.ErrNotFound("workshop", "ID", workshopID))
		case errors.Is(err, service.ErrStaleWorkshop), errors.Is(err, service.ErrWorkshopInactive):
			response.RenderErr(ctx, response.ErrConflict(err))
		default:
			err = fmt.Errorf("v1.HandleReschedule -> h.svc.Reschedule -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}

		return
	}

	ctx.JSON(http.StatusOK, workshop)
}

// HandleRelocate godoc
// @Summary      Change the location or modality of a workshop
// @Description  Bumps the location confirmation version; participants must re-confirm.
// @Tags         workshops
// @Produce      json
// @Param        workshopID   path   int  true  "workshop ID"
// @Param        request   body      request.RelocateRequest true "request body"
// @Success      200      {object}   domain.Workshop
// @Failure      400      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      409      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /workshops/{workshopID}/relocate [post]
// @Security     BearerAuth
func (h *WorkshopHandler) HandleRelocate(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	if respErr = requireOrganizer(user); respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	workshopID, err := parseUintParam(ctx, "workshopID")
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	var req request.RelocateRequest
	if err = ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err = req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	workshop, err := h.svc.Relocate(ctx.Request.Context(), user.ID, workshopID, req.IsRemote, req.Location, req.VisioLink, req.MuralLink, req.ExpectedVersion)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrWorkshopNotFound):
			response.RenderErr(ctx, response.ErrNotFound("workshop", "ID", workshopID))
		case errors.Is(err, service.ErrStaleWorkshop), errors.Is(err, service.ErrWorkshopInactive):
			response.RenderErr(ctx, response.ErrConflict(err))
		default:
			err = fmt.Errorf("v1.HandleRelocate -> h.svc.Relocate -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}

		return
	}

	ctx.JSON(http.StatusOK, workshop)
}

// HandleClassifyWorkshop godoc
// @Summary      Run the classification questionnaire for a workshop
// @Tags         workshops
// @Produce      json
// @Param        workshopID   path   int  true  "workshop ID"
// @Param        request   body      request.ClassifyRequest true "request body"
// @Success      200      {object}   response.ClassificationResponse
// @Failure      400      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      422      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /workshops/{workshopID}/classify [post]
// @Security     BearerAuth
func (h *WorkshopHandler) HandleClassifyWorkshop(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	if respErr = requireOrganizer(user); respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	workshopID, err := parseUintParam(ctx, "workshopID")
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	var req request.ClassifyRequest
	if err = ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err = req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	workshop, err := h.svc.GetWorkshop(ctx.Request.Context(), workshopID)
	if err != nil {
		if errors.Is(err, service.ErrWorkshopNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("workshop", "ID", workshopID))
			return
		}

		err = fmt.Errorf("v1.HandleClassifyWorkshop -> h.svc.GetWorkshop -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	classification, err := h.svc.Classify(ctx.Request.Context(), user.ID, workshopID, domain.ClassificationPath{
		Audience:     req.Audience,
		Organization: req.Organization,
		SubAudience:  req.SubAudience,
		Situation:    req.Situation,
	})
	if err != nil {
		if errors.Is(err, service.ErrIncompleteClassification) {
			response.RenderErr(ctx, response.ErrUnprocessable(err))
			return
		}

		err = fmt.Errorf("v1.HandleClassifyWorkshop -> h.svc.Classify -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, response.ClassificationResponse{
		Classification: classification,
		Label:          classification.Label(),
		TicketOptions:  domain.TicketOptions(classification, workshop.Type),
	})
}

// HandleCancelWorkshop godoc
// @Summary      Cancel a workshop
// @Tags         workshops
// @Produce      json
// @Param        workshopID   path   int  true  "workshop ID"
// @Success      200      {object}   domain.Workshop
// @Failure      404      {object}   response.Err
// @Failure      409      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /workshops/{workshopID}/cancel [post]
// @Security     BearerAuth
func (h *WorkshopHandler) HandleCancelWorkshop(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	if respErr = requireOrganizer(user); respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	workshopID, err := parseUintParam(ctx, "workshopID")
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	workshop, err := h.svc.Cancel(ctx.Request.Context(), user.ID, workshopID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrWorkshopNotFound):
			response.RenderErr(ctx, response.ErrNotFound("workshop", "ID", workshopID))
		case errors.Is(err, service.ErrWorkshopInactive):
			response.RenderErr(ctx, response.ErrConflict(err))
		default:
			err = fmt.Errorf("v1.HandleCancelWorkshop -> h.svc.Cancel -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}

		return
	}

	ctx.JSON(http.StatusOK, workshop)
}

// HandleCloseWorkshop godoc
// @Summary      Close a finished workshop
// @Description  A no-op while the workshop has not ended yet.
// @Tags         workshops
// @Produce      json
// @Param        workshopID   path   int  true  "workshop ID"
// @Success      200      {object}   domain.Workshop
// @Failure      404      {object}   response.Err
// @Failure      409      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /workshops/{workshopID}/close [post]
// @Security     BearerAuth
func (h *WorkshopHandler) HandleCloseWorkshop(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	if respErr = requireOrganizer(user); respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	workshopID, err := parseUintParam(ctx, "workshopID")
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	workshop, err := h.svc.Close(ctx.Request.Context(), user.ID, workshopID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrWorkshopNotFound):
			response.RenderErr(ctx, response.ErrNotFound("workshop", "ID", workshopID))
		case errors.Is(err, service.ErrWorkshopInactive):
			response.RenderErr(ctx, response.ErrConflict(err))
		default:
			err = fmt.Errorf("v1.HandleCloseWorkshop -> h.svc.Close -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}

		return
	}

	ctx.JSON(http.StatusOK, workshop)
}

// HandleWorkshopHistory godoc
// @Summary      Read a workshop's audit trail
// @Tags         workshops
// @Produce      json
// @Param        workshopID   path   int  true  "workshop ID"
// @Success      200      {array}    domain.WorkshopHistoryLog
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /workshops/{workshopID}/history [get]
// @Security     BearerAuth
func (h *WorkshopHandler) HandleWorkshopHistory(ctx *gin.Context) {
	workshopID, err := parseUintParam(ctx, "workshopID")
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	entries, err := h.svc.History(ctx.Request.Context(), workshopID)
	if err != nil {
		if errors.Is(err, service.ErrWorkshopNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("workshop", "ID", workshopID))
			return
		}

		err = fmt.Errorf("v1.HandleWorkshopHistory -> h.svc.History -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, entries)
}

// HandleExportCalendar godoc
// @Summary      Download a workshop as an iCalendar file
// @Tags         workshops
// @Produce      text/calendar
// @Param        workshopID   path   int  true  "workshop ID"
// @Success      200      {string}   string
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /workshops/{workshopID}/calendar.ics [get]
// @Security     BearerAuth
func (h *WorkshopHandler) HandleExportCalendar(ctx *gin.Context) {
	workshopID, err := parseUintParam(ctx, "workshopID")
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	document, err := h.svc.ExportCalendar(ctx.Request.Context(), workshopID)
	if err != nil {
		if errors.Is(err, service.ErrWorkshopNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("workshop", "ID", workshopID))
			return
		}

		err = fmt.Errorf("v1.HandleExportCalendar -> h.svc.ExportCalendar -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="workshop-%v.ics"`, workshopID))
	ctx.Data(http.StatusOK, "text/calendar", document)
}
