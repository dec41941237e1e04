package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/atelierhq/atelier-api/internal/domain"
	"github.com/atelierhq/atelier-api/internal/repository"
)

var (
	ErrParticipationNotFound = repository.ErrParticipationNotFound
	ErrDuplicateRegistration = repository.ErrDuplicateRegistration
	ErrCapacityExceeded      = repository.ErrCapacityExceeded
	ErrInvalidState          = repository.ErrInvalidState
	ErrPaymentPending        = repository.ErrPaymentPending
	ErrTargetFull            = repository.ErrTargetFull
	ErrSameWorkshop          = repository.ErrSameWorkshop
	ErrConflictOrUnavailable = repository.ErrConflictOrUnavailable

	ErrTicketUnavailable = errors.New("ticket type not available for this classification")
)

type ParticipationRepository interface {
	Register(ctx context.Context, participation domain.Participation) (domain.Participation, error)
	FindByID(ctx context.Context, id uint) (domain.Participation, error)
	FindByWorkshop(ctx context.Context, workshopID uint) ([]domain.Participation, error)
	FindByUser(ctx context.Context, userID uint) ([]domain.Participation, error)
	ConfirmPayment(ctx context.Context, id uint, when time.Time, paymentRef string) (domain.Participation, error)
	Refund(ctx context.Context, id uint) (domain.Participation, error)
	Cancel(ctx context.Context, id uint) (domain.Participation, error)
	Reinscribe(ctx context.Context, id uint) (domain.Participation, error)
	Exchange(ctx context.Context, sourceID, targetWorkshopID uint) (domain.Participation, error)
	Delete(ctx context.Context, id uint) error
	ConfirmDate(ctx context.Context, id, workshopID uint) (domain.Participation, error)
	ConfirmLocation(ctx context.Context, id, workshopID uint) (domain.Participation, error)
	SetAttendance(ctx context.Context, id uint, attended bool, now time.Time) (domain.Participation, error)
}

// ParticipationWorkshopRepository is the slice of the workshop store the
// participation flows need.
type ParticipationWorkshopRepository interface {
	FindByID(ctx context.Context, id uint) (domain.Workshop, error)
	CountSeats(ctx context.Context, workshopID uint) (int, error)
}

// RosterEntry decorates a participation with its reconfirmation state
// against the workshop's current versions.
type RosterEntry struct {
	Participation       domain.Participation `json:"participation"`
	UnconfirmedDate     bool                 `json:"unconfirmed_date"`
	UnconfirmedLocation bool                 `json:"unconfirmed_location"`
}

type ParticipationService struct {
	repo         ParticipationRepository
	workshopRepo ParticipationWorkshopRepository
	history      HistoryRepository
	payments     PaymentProvider
	logger       *zap.Logger

	now func() time.Time
}

func NewParticipationService(
	repo ParticipationRepository,
	workshopRepo ParticipationWorkshopRepository,
	history HistoryRepository,
	payments PaymentProvider,
	logger *zap.Logger,
) *ParticipationService {
	return &ParticipationService{
		repo:         repo,
		workshopRepo: workshopRepo,
		history:      history,
		payments:     payments,
		logger:       logger,
		now:          time.Now,
	}
}

// Register books a seat. The caller's questionnaire path resolves to a
// classification which fixes the ticket options and the price snapshot.
// A priced booking starts en_attente; a free one goes straight to inscrit.
func (s *ParticipationService) Register(
	ctx context.Context,
	userID, workshopID uint,
	path domain.ClassificationPath,
	ticket domain.TicketType,
) (domain.Participation, error) {
	workshop, err := s.workshopRepo.FindByID(ctx, workshopID)
	if err != nil {
		return domain.Participation{}, fmt.Errorf("s.workshopRepo.FindByID -> %w", err)
	}

	if !workshop.IsActive() {
		return domain.Participation{}, ErrWorkshopInactive
	}

	classification, err := domain.ResolveClassification(workshop.Type, path)
	if err != nil {
		return domain.Participation{}, err
	}

	price, ok := domain.PriceFor(classification, workshop.Type, ticket)
	if !ok {
		return domain.Participation{}, ErrTicketUnavailable
	}

	participation := domain.Participation{
		WorkshopID:    workshopID,
		UserID:        userID,
		Role:          domain.RoleParticipant,
		Status:        domain.ParticipationInscrit,
		PaymentStatus: domain.PaymentNone,
		TicketType:    ticket,
		PricePaid:     price,
	}
	if price > 0 {
		participation.Status = domain.ParticipationEnAttente
		participation.PaymentStatus = domain.PaymentPending
	}

	created, err := s.repo.Register(ctx, participation)
	if err != nil {
		if errors.Is(err, ErrDuplicateRegistration) || errors.Is(err, ErrCapacityExceeded) {
			return domain.Participation{}, err
		}

		return domain.Participation{}, fmt.Errorf("s.repo.Register -> %w", err)
	}

	s.appendHistory(ctx, workshopID, userID, domain.LogParticipantRegistered,
		fmt.Sprintf("user %v registered (%v)", userID, ticket),
		map[string]any{
			"participation_id": created.ID,
			"classification":   classification,
			"ticket_type":      ticket,
			"price_paid":       price,
		})

	return created, nil
}

// ConfirmPayment charges the snapshot price and moves en_attente → paye.
// The charge happens before the transition so a failed payment leaves the
// participation untouched.
func (s *ParticipationService) ConfirmPayment(ctx context.Context, actorID, id uint, paymentMethod string) (domain.Participation, error) {
	participation, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Participation{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	if !participation.CanConfirmPayment() {
		return domain.Participation{}, ErrInvalidState
	}

	paymentRef := ""
	if participation.PricePaid > 0 {
		description := fmt.Sprintf("workshop %v participation %v", participation.WorkshopID, participation.ID)

		paymentRef, err = s.payments.Charge(ctx, participation.PricePaid, description, paymentMethod)
		if err != nil {
			return domain.Participation{}, fmt.Errorf("s.payments.Charge -> %w", err)
		}
	}

	updated, err := s.repo.ConfirmPayment(ctx, id, s.now(), paymentRef)
	if err != nil {
		if errors.Is(err, ErrInvalidState) || errors.Is(err, ErrConflictOrUnavailable) {
			return domain.Participation{}, err
		}

		return domain.Participation{}, fmt.Errorf("s.repo.ConfirmPayment -> %w", err)
	}

	s.appendHistory(ctx, updated.WorkshopID, actorID, domain.LogPaymentConfirmed,
		fmt.Sprintf("payment confirmed for participation %v", id),
		map[string]any{
			"participation_id": id,
			"amount":           updated.PricePaid,
			"payment_ref":      paymentRef,
		})

	return updated, nil
}

// Refund moves {inscrit, paye} → rembourse. Eligibility: the workshop has
// not started, or the booking is within the fee-free window, or the holder
// is unconfirmed after a date/location change, or the organizer forces it
// because of such a change. Money moves only when a charge was actually
// taken.
func (s *ParticipationService) Refund(ctx context.Context, actorID, id uint, dueToWorkshopChange bool) (domain.Participation, error) {
	participation, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Participation{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	workshop, err := s.workshopRepo.FindByID(ctx, participation.WorkshopID)
	if err != nil {
		return domain.Participation{}, fmt.Errorf("s.workshopRepo.FindByID -> %w", err)
	}

	eligible := dueToWorkshopChange ||
		!workshop.HasStarted(s.now()) ||
		workshop.InFeeFreeWindow(s.now()) ||
		participation.UnconfirmedDate(&workshop) ||
		participation.UnconfirmedLocation(&workshop)
	if !eligible {
		return domain.Participation{}, ErrInvalidState
	}

	if participation.PaymentStatus == domain.PaymentPaid && participation.PaymentRef != "" {
		if err = s.payments.Refund(ctx, participation.PaymentRef, participation.PricePaid); err != nil {
			return domain.Participation{}, fmt.Errorf("s.payments.Refund -> %w", err)
		}
	}

	updated, err := s.repo.Refund(ctx, id)
	if err != nil {
		if errors.Is(err, ErrInvalidState) || errors.Is(err, ErrConflictOrUnavailable) {
			return domain.Participation{}, err
		}

		return domain.Participation{}, fmt.Errorf("s.repo.Refund -> %w", err)
	}

	s.appendHistory(ctx, updated.WorkshopID, actorID, domain.LogRefundIssued,
		fmt.Sprintf("participation %v refunded", id),
		map[string]any{
			"participation_id":       id,
			"amount":                 updated.PricePaid,
			"due_to_workshop_change": dueToWorkshopChange,
		})

	return updated, nil
}

// Remove hard-deletes a participation from the roster. Blocked while an
// unrefunded payment is attached; the caller must refund first.
func (s *ParticipationService) Remove(ctx context.Context, actorID, id uint) error {
	participation, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	if err = s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrPaymentPending) {
			return err
		}

		return fmt.Errorf("s.repo.Delete -> %w", err)
	}

	s.appendHistory(ctx, participation.WorkshopID, actorID, domain.LogParticipantRemoved,
		fmt.Sprintf("participation %v removed from roster", id),
		map[string]any{
			"participation_id": id,
			"user_id":          participation.UserID,
		})

	return nil
}

// Cancel soft-cancels any non-terminal participation. Payment is left
// untouched; refunding is a separate, explicit action.
func (s *ParticipationService) Cancel(ctx context.Context, actorID, id uint) (domain.Participation, error) {
	updated, err := s.repo.Cancel(ctx, id)
	if err != nil {
		if errors.Is(err, ErrInvalidState) || errors.Is(err, ErrConflictOrUnavailable) {
			return domain.Participation{}, err
		}

		return domain.Participation{}, fmt.Errorf("s.repo.Cancel -> %w", err)
	}

	s.appendHistory(ctx, updated.WorkshopID, actorID, domain.LogParticipantCanceled,
		fmt.Sprintf("participation %v canceled", id),
		map[string]any{
			"participation_id": id,
			"user_id":          updated.UserID,
		})

	return updated, nil
}

// Exchange closes the source participation as echange and books a seat on
// the target workshop with ticket type and price carried over verbatim.
func (s *ParticipationService) Exchange(ctx context.Context, actorID, sourceID, targetWorkshopID uint) (domain.Participation, error) {
	target, err := s.workshopRepo.FindByID(ctx, targetWorkshopID)
	if err != nil {
		return domain.Participation{}, fmt.Errorf("s.workshopRepo.FindByID -> %w", err)
	}

	if !target.IsActive() {
		return domain.Participation{}, ErrWorkshopInactive
	}

	replacement, err := s.repo.Exchange(ctx, sourceID, targetWorkshopID)
	if err != nil {
		if errors.Is(err, ErrSameWorkshop) || errors.Is(err, ErrTargetFull) ||
			errors.Is(err, ErrInvalidState) || errors.Is(err, ErrConflictOrUnavailable) {
			return domain.Participation{}, err
		}

		return domain.Participation{}, fmt.Errorf("s.repo.Exchange -> %w", err)
	}

	s.appendHistory(ctx, targetWorkshopID, actorID, domain.LogExchangePerformed,
		fmt.Sprintf("participation %v exchanged to workshop %v", sourceID, targetWorkshopID),
		map[string]any{
			"source_participation_id": sourceID,
			"new_participation_id":    replacement.ID,
			"user_id":                 replacement.UserID,
		})

	return replacement, nil
}

// Reinscribe reverses a refund or cancellation, treating it as a fresh
// booking: payment status resets to none, the price snapshot stays as is.
func (s *ParticipationService) Reinscribe(ctx context.Context, actorID, id uint) (domain.Participation, error) {
	updated, err := s.repo.Reinscribe(ctx, id)
	if err != nil {
		if errors.Is(err, ErrInvalidState) || errors.Is(err, ErrConflictOrUnavailable) {
			return domain.Participation{}, err
		}

		return domain.Participation{}, fmt.Errorf("s.repo.Reinscribe -> %w", err)
	}

	s.appendHistory(ctx, updated.WorkshopID, actorID, domain.LogParticipantReinscribed,
		fmt.Sprintf("participation %v re-inscribed", id),
		map[string]any{
			"participation_id": id,
			"user_id":          updated.UserID,
		})

	return updated, nil
}

// ConfirmDate acknowledges the workshop's current date, advancing the
// holder's stored date version. Location confirmation is independent.
func (s *ParticipationService) ConfirmDate(ctx context.Context, id uint) (domain.Participation, error) {
	return s.confirmDimension(ctx, id, "date")
}

// ConfirmLocation is the location counterpart of ConfirmDate.
func (s *ParticipationService) ConfirmLocation(ctx context.Context, id uint) (domain.Participation, error) {
	return s.confirmDimension(ctx, id, "location")
}

func (s *ParticipationService) confirmDimension(ctx context.Context, id uint, dimension string) (domain.Participation, error) {
	participation, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Participation{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	var updated domain.Participation
	if dimension == "date" {
		updated, err = s.repo.ConfirmDate(ctx, id, participation.WorkshopID)
	} else {
		updated, err = s.repo.ConfirmLocation(ctx, id, participation.WorkshopID)
	}
	if err != nil {
		return domain.Participation{}, fmt.Errorf("s.repo.Confirm(%v) -> %w", dimension, err)
	}

	s.appendHistory(ctx, updated.WorkshopID, updated.UserID, domain.LogParticipantConfirmed,
		fmt.Sprintf("participation %v confirmed %v change", id, dimension),
		map[string]any{
			"participation_id": id,
			"dimension":        dimension,
		})

	return updated, nil
}

// SetAttendance records presence once the workshop has ended.
func (s *ParticipationService) SetAttendance(ctx context.Context, actorID, id uint, attended bool) (domain.Participation, error) {
	updated, err := s.repo.SetAttendance(ctx, id, attended, s.now())
	if err != nil {
		if errors.Is(err, ErrWorkshopNotEnded) {
			return domain.Participation{}, err
		}

		return domain.Participation{}, fmt.Errorf("s.repo.SetAttendance -> %w", err)
	}

	s.appendHistory(ctx, updated.WorkshopID, actorID, domain.LogAttendanceRecorded,
		fmt.Sprintf("attendance recorded for participation %v", id),
		map[string]any{
			"participation_id": id,
			"attended":         attended,
		})

	return updated, nil
}

// GetParticipation loads one participation.
func (s *ParticipationService) GetParticipation(ctx context.Context, id uint) (domain.Participation, error) {
	participation, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Participation{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	return participation, nil
}

// ListByUser returns all of a user's participations across workshops.
func (s *ParticipationService) ListByUser(ctx context.Context, userID uint) ([]domain.Participation, error) {
	participations, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindByUser -> %w", err)
	}

	return participations, nil
}

// Roster returns a workshop's participations with their per-dimension
// reconfirmation state, so organizers can single out holders who have not
// acknowledged a change yet.
func (s *ParticipationService) Roster(ctx context.Context, workshopID uint) ([]RosterEntry, error) {
	workshop, err := s.workshopRepo.FindByID(ctx, workshopID)
	if err != nil {
		return nil, fmt.Errorf("s.workshopRepo.FindByID -> %w", err)
	}

	participations, err := s.repo.FindByWorkshop(ctx, workshopID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindByWorkshop -> %w", err)
	}

	entries := make([]RosterEntry, 0, len(participations))
	for i := range participations {
		p := participations[i]
		entries = append(entries, RosterEntry{
			Participation:       p,
			UnconfirmedDate:     p.UnconfirmedDate(&workshop),
			UnconfirmedLocation: p.UnconfirmedLocation(&workshop),
		})
	}

	return entries, nil
}

// RemainingSeats recomputes availability from the store. No cached counter
// is authoritative.
func (s *ParticipationService) RemainingSeats(ctx context.Context, workshopID uint) (int, error) {
	workshop, err := s.workshopRepo.FindByID(ctx, workshopID)
	if err != nil {
		return 0, fmt.Errorf("s.workshopRepo.FindByID -> %w", err)
	}

	taken, err := s.workshopRepo.CountSeats(ctx, workshopID)
	if err != nil {
		return 0, fmt.Errorf("s.workshopRepo.CountSeats -> %w", err)
	}

	remaining := workshop.AudienceNumber - taken
	if remaining < 0 {
		remaining = 0
	}

	return remaining, nil
}

// appendHistory writes one audit entry. Audit is best-effort: a failed
// write is logged and never fails the transition it describes.
func (s *ParticipationService) appendHistory(ctx context.Context, workshopID, actorID uint, logType domain.LogType, description string, metadata map[string]any) {
	payload, err := json.Marshal(metadata)
	if err != nil {
		payload = nil
	}

	_, err = s.history.Append(ctx, domain.WorkshopHistoryLog{
		WorkshopID:  workshopID,
		ActorID:     actorID,
		Type:        logType,
		Description: description,
		Metadata:    payload,
	})
	if err != nil {
		s.logger.Warn("history append failed",
			zap.Uint("workshop_id", workshopID),
			zap.String("log_type", string(logType)),
			zap.Error(err),
		)
	}
}
