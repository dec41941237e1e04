package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/atelierhq/atelier-api/internal/api/handler/v1/request"
	"github.com/atelierhq/atelier-api/internal/api/handler/v1/response"
	"github.com/atelierhq/atelier-api/internal/domain"
	"github.com/atelierhq/atelier-api/internal/service"
)

type ParticipationService interface {
	Register(ctx context.Context, userID, workshopID uint, path domain.ClassificationPath, ticket domain.TicketType) (domain.Participation, error)
	ConfirmPayment(ctx context.Context, actorID, id uint, paymentMethod string) (domain.Participation, error)
	Refund(ctx context.Context, actorID, id uint, dueToWorkshopChange bool) (domain.Participation, error)
	Remove(ctx context.Context, actorID, id uint) error
	Cancel(ctx context.Context, actorID, id uint) (domain.Participation, error)
	Exchange(ctx context.Context, actorID, sourceID, targetWorkshopID uint) (domain.Participation, error)
	Reinscribe(ctx context.Context, actorID, id uint) (domain.Participation, error)
	ConfirmDate(ctx context.Context, id uint) (domain.Participation, error)
	ConfirmLocation(ctx context.Context, id uint) (domain.Participation, error)
	SetAttendance(ctx context.Context, actorID, id uint, attended bool) (domain.Participation, error)
	GetParticipation(ctx context.Context, id uint) (domain.Participation, error)
	ListByUser(ctx context.Context, userID uint) ([]domain.Participation, error)
	Roster(ctx context.Context, workshopID uint) ([]service.RosterEntry, error)
	RemainingSeats(ctx context.Context, workshopID uint) (int, error)
}

type ParticipationHandler struct {
	svc  ParticipationService
	wSvc WorkshopService
	uSvc UserService
}

func NewParticipationHandler(svc ParticipationService, wSvc WorkshopService, uSvc UserService) *ParticipationHandler {
	return &ParticipationHandler{
		svc:  svc,
		wSvc: wSvc,
		uSvc: uSvc,
	}
}

// renderParticipationErr maps the expected booking errors onto HTTP codes.
// Returns false when the error was unexpected.
func renderParticipationErr(ctx *gin.Context, err error) bool {
	switch {
	case errors.Is(err, service.ErrParticipationNotFound):
		response.RenderErr(ctx, response.ErrNotFound("participation", "ID", ctx.Param("participationID")))
	case errors.Is(err, service.ErrDuplicateRegistration),
		errors.Is(err, service.ErrCapacityExceeded),
		errors.Is(err, service.ErrInvalidState),
		errors.Is(err, service.ErrPaymentPending),
		errors.Is(err, service.ErrTargetFull),
		errors.Is(err, service.ErrConflictOrUnavailable):
		response.RenderErr(ctx, response.ErrConflict(err))
	case errors.Is(err, service.ErrSameWorkshop),
		errors.Is(err, service.ErrTicketUnavailable),
		errors.Is(err, service.ErrWorkshopInactive):
		response.RenderErr(ctx, response.ErrBadRequest(err))
	case errors.Is(err, service.ErrIncompleteClassification):
		response.RenderErr(ctx, response.ErrUnprocessable(err))
	case errors.Is(err, service.ErrWorkshopNotEnded):
		response.RenderErr(ctx, response.ErrConflict(err))
	case errors.Is(err, service.ErrWorkshopNotFound):
		response.RenderErr(ctx, response.ErrNotFound("workshop", "ID", ctx.Param("workshopID")))
	default:
		return false
	}

	return true
}

// HandleRegister godoc
// @Summary      Register the caller for a workshop
// @Tags         participations
// @Produce      json
// @Param        workshopID   path   int  true  "workshop ID"
// @Param        request   body      request.RegisterRequest true "request body"
// @Success      201      {object}   domain.Participation
// @Failure      400      {object}   response.Err
// @Failure      409      {object}   response.Err
// @Failure      422      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /workshops/{workshopID}/register [post]
// @Security     BearerAuth
func (h *ParticipationHandler) HandleRegister(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	workshopID, err := parseUintParam(ctx, "workshopID")
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	var req request.RegisterRequest
	if err = ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err = req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	participation, err := h.svc.Register(ctx.Request.Context(), user.ID, workshopID, domain.ClassificationPath{
		Audience:     req.Audience,
		Organization: req.Organization,
		SubAudience:  req.SubAudience,
		Situation:    req.Situation,
	}, domain.TicketType(req.TicketType))
	if err != nil {
		if !renderParticipationErr(ctx, err) {
			err = fmt.Errorf("v1.HandleRegister -> h.svc.Register -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}

		return
	}

	ctx.JSON(http.StatusCreated, participation)
}

// HandleConfirmPayment godoc
// @Summary      Confirm payment for a pending participation
// @Tags         participations
// @Produce      json
// @Param        participationID   path   int  true  "participation ID"
// @Param        request   body      request.ConfirmPaymentRequest true "request body"
// @Success      200      {object}   domain.Participation
// @Failure      400      {object}   response.Err
// @Failure      409      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /participations/{participationID}/confirm-payment [post]
// @Security     BearerAuth
func (h *ParticipationHandler) HandleConfirmPayment(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	participationID, err := parseUintParam(ctx, "participationID")
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	var req request.ConfirmPaymentRequest
	if err = ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err = req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	participation, err := h.svc.ConfirmPayment(ctx.Request.Context(), user.ID, participationID, req.PaymentMethod)
	if err != nil {
		if !renderParticipationErr(ctx, err) {
			err = fmt.Errorf("v1.HandleConfirmPayment -> h.svc.ConfirmPayment -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}

		return
	}

	ctx.JSON(http.StatusOK, participation)
}

// HandleRefund godoc
// @Summary      Refund a participation
// @Tags         participations
// @Produce      json
// @Param        participationID   path   int  true  "participation ID"
// @Param        request   body      request.RefundRequest true "request body"
// @Success      200      {object}   domain.Participation
// @Failure      403      {object}   response.Err
// @Failure      409      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /participations/{participationID}/refund [post]
// @Security     BearerAuth
func (h *ParticipationHandler) HandleRefund(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	if respErr = requireOrganizer(user); respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	participationID, err := parseUintParam(ctx, "participationID")
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	var req request.RefundRequest
	if err = ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	participation, err := h.svc.Refund(ctx.Request.Context(), user.ID, participationID, req.DueToWorkshopChange)
	if err != nil {
		if !renderParticipationErr(ctx, err) {
			err = fmt.Errorf("v1.HandleRefund -> h.svc.Refund -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}

		return
	}

	ctx.JSON(http.StatusOK, participation)
}

// HandleRemove godoc
// @Summary      Remove a participation from the roster
// @Description  Hard delete for administrative cleanup. Refund first if paid.
// @Tags         participations
// @Produce      json
// @Param        participationID   path   int  true  "participation ID"
// @Success      204
// @Failure      403      {object}   response.Err
// @Failure      409      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /participations/{participationID} [delete]
// @Security     BearerAuth
func (h *ParticipationHandler) HandleRemove(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	if respErr = requireOrganizer(user); respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	participationID, err := parseUintParam(ctx, "participationID")
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err = h.svc.Remove(ctx.Request.Context(), user.ID, participationID); err != nil {
		if !renderParticipationErr(ctx, err) {
			err = fmt.Errorf("v1.HandleRemove -> h.svc.Remove -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}

		return
	}

	ctx.Status(http.StatusNoContent)
}

// HandleCancel godoc
// @Summary      Cancel a participation
// @Tags         participations
// @Produce      json
// @Param        participationID   path   int  true  "participation ID"
// @Success      200      {object}   domain.Participation
// @Failure      409      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /participations/{participationID}/cancel [post]
// @Security     BearerAuth
func (h *ParticipationHandler) HandleCancel(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	participationID, err := parseUintParam(ctx, "participationID")
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	participation, err := h.svc.GetParticipation(ctx.Request.Context(), participationID)
	if err != nil {
		if !renderParticipationErr(ctx, err) {
			err = fmt.Errorf("v1.HandleCancel -> h.svc.GetParticipation -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}

		return
	}

	// Self-service cancel, or organizer acting on someone else's booking.
	if participation.UserID != user.ID && !user.IsOrganizer() {
		response.RenderErr(ctx, response.ErrForbidden("not your participation"))
		return
	}

	updated, err := h.svc.Cancel(ctx.Request.Context(), user.ID, participationID)
	if err != nil {
		if !renderParticipationErr(ctx, err) {
			err = fmt.Errorf("v1.HandleCancel -> h.svc.Cancel -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}

		return
	}

	ctx.JSON(http.StatusOK, updated)
}

// HandleExchange godoc
// @Summary      Exchange a participation onto another workshop
// @Tags         participations
// @Produce      json
// @Param        participationID   path   int  true  "participation ID"
// @Param        request   body      request.ExchangeRequest true "request body"
// @Success      201      {object}   domain.Participation
// @Failure      400      {object}   response.Err
// @Failure      403      {object}   response.Err
// @Failure      409      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /participations/{participationID}/exchange [post]
// @Security     BearerAuth
func (h *ParticipationHandler) HandleExchange(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	if respErr = requireOrganizer(user); respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	participationID, err := parseUintParam(ctx, "participationID")
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	var req request.ExchangeRequest
	if err = ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err = req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	replacement, err := h.svc.Exchange(ctx.Request.Context(), user.ID, participationID, req.TargetWorkshopID)
	if err != nil {
		if !renderParticipationErr(ctx, err) {
			err = fmt.Errorf("v1.HandleExchange -> h.svc.Exchange -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}

		return
	}

	ctx.JSON(http.StatusCreated, replacement)
}

// HandleReinscribe godoc
// @Summary      Re-inscribe a refunded or canceled participation
// @Tags         participations
// @Produce      json
// @Param        participationID   path   int  true  "participation ID"
// @Success      200      {object}   domain.Participation
// @Failure      403      {object}   response.Err
// @Failure      409      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /participations/{participationID}/reinscribe [post]
// @Security     BearerAuth
func (h *ParticipationHandler) HandleReinscribe(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	if respErr = requireOrganizer(user); respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	participationID, err := parseUintParam(ctx, "participationID")
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	participation, err := h.svc.Reinscribe(ctx.Request.Context(), user.ID, participationID)
	if err != nil {
		if !renderParticipationErr(ctx, err) {
			err = fmt.Errorf("v1.HandleReinscribe -> h.svc.Reinscribe -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}

		return
	}

	ctx.JSON(http.StatusOK, participation)
}

// HandleConfirmDate godoc
// @Summary      Acknowledge the workshop's current date
// @Tags         participations
// @Produce      json
// @Param        participationID   path   int  true  "participation ID"
// @Success      200      {object}   domain.Participation
// @Failure      403      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /participations/{participationID}/confirm-date [post]
// @Security     BearerAuth
func (h *ParticipationHandler) HandleConfirmDate(ctx *gin.Context) {
	h.handleConfirmDimension(ctx, "date")
}

// HandleConfirmLocation godoc
// @Summary      Acknowledge the workshop's current location
// @Tags         participations
// @Produce      json
// @Param        participationID   path   int  true  "participation ID"
// @Success      200      {object}   domain.Participation
// @Failure      403      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /participations/{participationID}/confirm-location [post]
// @Security     BearerAuth
func (h *ParticipationHandler) HandleConfirmLocation(ctx *gin.Context) {
	h.handleConfirmDimension(ctx, "location")
}

func (h *ParticipationHandler) handleConfirmDimension(ctx *gin.Context, dimension string) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	participationID, err := parseUintParam(ctx, "participationID")
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	participation, err := h.svc.GetParticipation(ctx.Request.Context(), participationID)
	if err != nil {
		if !renderParticipationErr(ctx, err) {
			err = fmt.Errorf("v1.handleConfirmDimension -> h.svc.GetParticipation -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}

		return
	}

	// Confirmation is strictly per participant; only the holder may act.
	if participation.UserID != user.ID {
		response.RenderErr(ctx, response.ErrForbidden("not your participation"))
		return
	}

	var updated domain.Participation
	if dimension == "date" {
		updated, err = h.svc.ConfirmDate(ctx.Request.Context(), participationID)
	} else {
		updated, err = h.svc.ConfirmLocation(ctx.Request.Context(), participationID)
	}
	if err != nil {
		if !renderParticipationErr(ctx, err) {
			err = fmt.Errorf("v1.handleConfirmDimension -> h.svc.Confirm -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}

		return
	}

	ctx.JSON(http.StatusOK, updated)
}

// HandleSetAttendance godoc
// @Summary      Record attendance after the workshop ended
// @Tags         participations
// @Produce      json
// @Param        participationID   path   int  true  "participation ID"
// @Param        request   body      request.AttendanceRequest true "request body"
// @Success      200      {object}   domain.Participation
// @Failure      403      {object}   response.Err
// @Failure      409      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /participations/{participationID}/attendance [post]
// @Security     BearerAuth
func (h *ParticipationHandler) HandleSetAttendance(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	if respErr = requireOrganizer(user); respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	participationID, err := parseUintParam(ctx, "participationID")
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	var req request.AttendanceRequest
	if err = ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	participation, err := h.svc.SetAttendance(ctx.Request.Context(), user.ID, participationID, req.Attended)
	if err != nil {
		if !renderParticipationErr(ctx, err) {
			err = fmt.Errorf("v1.HandleSetAttendance -> h.svc.SetAttendance -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}

		return
	}

	ctx.JSON(http.StatusOK, participation)
}

// HandleMyParticipations godoc
// @Summary      List the caller's participations
// @Tags         participations
// @Produce      json
// @Success      200      {array}    domain.Participation
// @Failure      500      {object}   response.Err
// @Router       /participations/mine [get]
// @Security     BearerAuth
func (h *ParticipationHandler) HandleMyParticipations(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	participations, err := h.svc.ListByUser(ctx.Request.Context(), user.ID)
	if err != nil {
		err = fmt.Errorf("v1.HandleMyParticipations -> h.svc.ListByUser -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, participations)
}

// HandleRoster godoc
// @Summary      List a workshop's roster with reconfirmation state
// @Tags         participations
// @Produce      json
// @Param        workshopID   path   int  true  "workshop ID"
// @Success      200      {array}    service.RosterEntry
// @Failure      403      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /workshops/{workshopID}/roster [get]
// @Security     BearerAuth
func (h *ParticipationHandler) HandleRoster(ctx *gin.Context) {
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

	entries, err := h.svc.Roster(ctx.Request.Context(), workshopID)
	if err != nil {
		if !renderParticipationErr(ctx, err) {
			err = fmt.Errorf("v1.HandleRoster -> h.svc.Roster -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}

		return
	}

	ctx.JSON(http.StatusOK, entries)
}

// HandleRemainingSeats godoc
// @Summary      Read live seat availability
// @Tags         participations
// @Produce      json
// @Param        workshopID   path   int  true  "workshop ID"
// @Success      200      {object}   response.RemainingSeatsResponse
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /workshops/{workshopID}/remaining-seats [get]
// @Security     BearerAuth
func (h *ParticipationHandler) HandleRemainingSeats(ctx *gin.Context) {
	workshopID, err := parseUintParam(ctx, "workshopID")
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	workshop, err := h.wSvc.GetWorkshop(ctx.Request.Context(), workshopID)
	if err != nil {
		if errors.Is(err, service.ErrWorkshopNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("workshop", "ID", workshopID))
			return
		}

		err = fmt.Errorf("v1.HandleRemainingSeats -> h.wSvc.GetWorkshop -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	remaining, err := h.svc.RemainingSeats(ctx.Request.Context(), workshopID)
	if err != nil {
		err = fmt.Errorf("v1.HandleRemainingSeats -> h.svc.RemainingSeats -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, response.RemainingSeatsResponse{
		WorkshopID:     workshopID,
		AudienceNumber: workshop.AudienceNumber,
		RemainingSeats: remaining,
	})
}
