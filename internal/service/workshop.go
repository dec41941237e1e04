package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/atelierhq/atelier-api/internal/domain"
	"github.com/atelierhq/atelier-api/internal/pkg/ics"
	"github.com/atelierhq/atelier-api/internal/repository"
)

var (
	ErrWorkshopNotFound = repository.ErrWorkshopNotFound
	ErrWorkshopInactive = repository.ErrWorkshopInactive
	ErrWorkshopNotEnded = repository.ErrWorkshopNotEnded
	ErrStaleWorkshop    = repository.ErrStaleWorkshop

	ErrIncompleteClassification = domain.ErrIncompleteClassification
	ErrInvalidWorkshopType      = errors.New("unknown workshop type")
)

type WorkshopRepository interface {
	Create(ctx context.Context, workshop domain.Workshop) (domain.Workshop, error)
	FindByID(ctx context.Context, id uint) (domain.Workshop, error)
	FindByFamily(ctx context.Context, familyID uint) ([]domain.Workshop, error)
	FindByOrganizer(ctx context.Context, organizerID uint) ([]domain.Workshop, error)
	UpdateDetails(ctx context.Context, id uint, title, description string, audienceNumber int) (domain.Workshop, error)
	UpdateClassification(ctx context.Context, id uint, classification domain.ClassificationStatus) error
	Reschedule(ctx context.Context, id uint, startAt, endAt time.Time, extraMinutes, expectedVersion int) (domain.Workshop, error)
	Relocate(ctx context.Context, id uint, isRemote bool, location, visioLink, muralLink string, expectedVersion int) (domain.Workshop, error)
	Cancel(ctx context.Context, id uint) (domain.Workshop, error)
	Close(ctx context.Context, id uint) (domain.Workshop, error)
	FindFamilies(ctx context.Context) ([]domain.Family, error)
	FindFamilyByID(ctx context.Context, id uint) (domain.Family, error)
}

type HistoryRepository interface {
	Append(ctx context.Context, entry domain.WorkshopHistoryLog) (domain.WorkshopHistoryLog, error)
	FindByWorkshop(ctx context.Context, workshopID uint) ([]domain.WorkshopHistoryLog, error)
}

// WorkshopParticipationRepository is the slice of the participation store
// the lifecycle flows need, mostly to find who to notify.
type WorkshopParticipationRepository interface {
	FindByWorkshop(ctx context.Context, workshopID uint) ([]domain.Participation, error)
}

// WorkshopUserRepository resolves participation holders into notification
// recipients.
type WorkshopUserRepository interface {
	FindByID(ctx context.Context, id uint) (domain.User, error)
}

type WorkshopService struct {
	repo           WorkshopRepository
	participations WorkshopParticipationRepository
	users          WorkshopUserRepository
	history        HistoryRepository
	notifier       Notifier
	logger         *zap.Logger

	now func() time.Time
}

func NewWorkshopService(
	repo WorkshopRepository,
	participations WorkshopParticipationRepository,
	users WorkshopUserRepository,
	history HistoryRepository,
	notifier Notifier,
	logger *zap.Logger,
) *WorkshopService {
	return &WorkshopService{
		repo:           repo,
		participations: participations,
		users:          users,
		history:        history,
		notifier:       notifier,
		logger:         logger,
		now:            time.Now,
	}
}

// Create publishes a new active workshop. EndAt is always derived from the
// type's base duration plus the extra minutes, never accepted from the
// caller. The organizer is seeded onto the roster by the store.
func (s *WorkshopService) Create(ctx context.Context, organizerID uint, workshop domain.Workshop) (domain.Workshop, error) {
	if !workshop.Type.IsValid() {
		return domain.Workshop{}, ErrInvalidWorkshopType
	}

	if _, err := s.repo.FindFamilyByID(ctx, workshop.FamilyID); err != nil {
		return domain.Workshop{}, fmt.Errorf("s.repo.FindFamilyByID -> %w", err)
	}

	workshop.OrganizerID = organizerID
	workshop.LifecycleStatus = domain.WorkshopActive
	workshop.RecomputeEndAt()
	normalizeModality(&workshop)

	if workshop.Type.IsFormation() {
		workshop.ClassificationStatus = domain.ClassificationFormation
	}

	created, err := s.repo.Create(ctx, workshop)
	if err != nil {
		return domain.Workshop{}, fmt.Errorf("s.repo.Create -> %w", err)
	}

	s.appendHistory(ctx, created.ID, organizerID, domain.LogWorkshopCreated,
		fmt.Sprintf("workshop %q created", created.Title),
		map[string]any{
			"type":     created.Type,
			"start_at": created.StartAt,
		})

	return created, nil
}

// Classify runs the questionnaire for a workshop and stores the resolved
// tag. Formation types bypass the questionnaire.
func (s *WorkshopService) Classify(ctx context.Context, actorID, id uint, path domain.ClassificationPath) (domain.ClassificationStatus, error) {
	workshop, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return "", fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	classification, err := domain.ResolveClassification(workshop.Type, path)
	if err != nil {
		return "", err
	}

	if err = s.repo.UpdateClassification(ctx, id, classification); err != nil {
		return "", fmt.Errorf("s.repo.UpdateClassification -> %w", err)
	}

	s.appendHistory(ctx, id, actorID, domain.LogWorkshopEdited,
		fmt.Sprintf("workshop classified as %v", classification),
		map[string]any{
			"old": workshop.ClassificationStatus,
			"new": classification,
		})

	return classification, nil
}

// UpdateDetails edits fields outside the reconfirmation protocol. Allowed
// on any lifecycle status; these are administrative edits.
func (s *WorkshopService) UpdateDetails(ctx context.Context, actorID, id uint, title, description string, audienceNumber int) (domain.Workshop, error) {
	updated, err := s.repo.UpdateDetails(ctx, id, title, description, audienceNumber)
	if err != nil {
		return domain.Workshop{}, fmt.Errorf("s.repo.UpdateDetails -> %w", err)
	}

	s.appendHistory(ctx, id, actorID, domain.LogWorkshopEdited,
		"workshop details updated",
		map[string]any{
			"title":           title,
			"audience_number": audienceNumber,
		})

	return updated, nil
}

// Reschedule changes the date, bumps the date confirmation version and
// notifies the roster. expectedVersion guards against a concurrent edit.
func (s *WorkshopService) Reschedule(ctx context.Context, actorID, id uint, startAt time.Time, extraMinutes, expectedVersion int) (domain.Workshop, error) {
	workshop, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Workshop{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	endAt := domain.ComputeEndAt(workshop.Type, startAt, extraMinutes)

	updated, err := s.repo.Reschedule(ctx, id, startAt, endAt, extraMinutes, expectedVersion)
	if err != nil {
		if errors.Is(err, ErrStaleWorkshop) || errors.Is(err, ErrWorkshopInactive) {
			return domain.Workshop{}, err
		}

		return domain.Workshop{}, fmt.Errorf("s.repo.Reschedule -> %w", err)
	}

	s.appendHistory(ctx, id, actorID, domain.LogDateChanged,
		fmt.Sprintf("date changed from %v to %v", workshop.StartAt.Format(time.RFC3339), startAt.Format(time.RFC3339)),
		map[string]any{
			"old_start_at": workshop.StartAt,
			"new_start_at": startAt,
			"version":      updated.DateConfirmationVersion,
		})

	s.notifyRoster(ctx, updated, actorID,
		fmt.Sprintf("Date changed: %v", updated.Title),
		fmt.Sprintf("The workshop %q now starts at %v. Please confirm your participation.",
			updated.Title, startAt.Format(time.RFC3339)))

	return updated, nil
}

// Relocate changes the modality, bumps the location confirmation version
// and notifies the roster. A physical location and remote links are
// mutually exclusive; the store nulls whichever side is unused.
func (s *WorkshopService) Relocate(ctx context.Context, actorID, id uint, isRemote bool, location, visioLink, muralLink string, expectedVersion int) (domain.Workshop, error) {
	workshop, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Workshop{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	updated, err := s.repo.Relocate(ctx, id, isRemote, location, visioLink, muralLink, expectedVersion)
	if err != nil {
		if errors.Is(err, ErrStaleWorkshop) || errors.Is(err, ErrWorkshopInactive) {
			return domain.Workshop{}, err
		}

		return domain.Workshop{}, fmt.Errorf("s.repo.Relocate -> %w", err)
	}

	s.appendHistory(ctx, id, actorID, domain.LogLocationChanged,
		"location changed",
		map[string]any{
			"old_is_remote": workshop.IsRemote,
			"old_location":  workshop.Location,
			"new_is_remote": isRemote,
			"new_location":  location,
			"version":       updated.LocationConfirmationVersion,
		})

	s.notifyRoster(ctx, updated, actorID,
		fmt.Sprintf("Location changed: %v", updated.Title),
		fmt.Sprintf("The workshop %q changed location. Please confirm your participation.", updated.Title))

	return updated, nil
}

// Cancel terminates the workshop at any point in its life.
func (s *WorkshopService) Cancel(ctx context.Context, actorID, id uint) (domain.Workshop, error) {
	updated, err := s.repo.Cancel(ctx, id)
	if err != nil {
		if errors.Is(err, ErrWorkshopInactive) {
			return domain.Workshop{}, err
		}

		return domain.Workshop{}, fmt.Errorf("s.repo.Cancel -> %w", err)
	}

	s.appendHistory(ctx, id, actorID, domain.LogWorkshopCanceled,
		fmt.Sprintf("workshop %q canceled", updated.Title), nil)

	s.notifyRoster(ctx, updated, actorID,
		fmt.Sprintf("Canceled: %v", updated.Title),
		fmt.Sprintf("The workshop %q has been canceled.", updated.Title))

	return updated, nil
}

// Close archives a finished workshop so it starts counting toward the
// organizer's progression. A close attempted before the end time, or on a
// workshop already closed, is a no-op returning the current state.
func (s *WorkshopService) Close(ctx context.Context, actorID, id uint) (domain.Workshop, error) {
	workshop, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Workshop{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	if workshop.LifecycleStatus == domain.WorkshopClosed {
		return workshop, nil
	}

	if !workshop.HasEnded(s.now()) {
		return workshop, nil
	}

	updated, err := s.repo.Close(ctx, id)
	if err != nil {
		if errors.Is(err, ErrWorkshopInactive) {
			return domain.Workshop{}, err
		}

		return domain.Workshop{}, fmt.Errorf("s.repo.Close -> %w", err)
	}

	s.appendHistory(ctx, id, actorID, domain.LogWorkshopClosed,
		fmt.Sprintf("workshop %q closed", updated.Title), nil)

	return updated, nil
}

func (s *WorkshopService) GetWorkshop(ctx context.Context, id uint) (domain.Workshop, error) {
	workshop, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Workshop{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	return workshop, nil
}

func (s *WorkshopService) ListByFamily(ctx context.Context, familyID uint) ([]domain.Workshop, error) {
	workshops, err := s.repo.FindByFamily(ctx, familyID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindByFamily -> %w", err)
	}

	return workshops, nil
}

func (s *WorkshopService) ListByOrganizer(ctx context.Context, organizerID uint) ([]domain.Workshop, error) {
	workshops, err := s.repo.FindByOrganizer(ctx, organizerID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindByOrganizer -> %w", err)
	}

	return workshops, nil
}

func (s *WorkshopService) ListFamilies(ctx context.Context) ([]domain.Family, error) {
	families, err := s.repo.FindFamilies(ctx)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindFamilies -> %w", err)
	}

	return families, nil
}

func (s *WorkshopService) GetFamily(ctx context.Context, id uint) (domain.Family, error) {
	family, err := s.repo.FindFamilyByID(ctx, id)
	if err != nil {
		return domain.Family{}, fmt.Errorf("s.repo.FindFamilyByID -> %w", err)
	}

	return family, nil
}

// History returns the append-only audit trail of a workshop, newest first.
func (s *WorkshopService) History(ctx context.Context, workshopID uint) ([]domain.WorkshopHistoryLog, error) {
	if _, err := s.repo.FindByID(ctx, workshopID); err != nil {
		return nil, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	entries, err := s.history.FindByWorkshop(ctx, workshopID)
	if err != nil {
		return nil, fmt.Errorf("s.history.FindByWorkshop -> %w", err)
	}

	return entries, nil
}

// ExportCalendar renders the workshop as an iCalendar document.
func (s *WorkshopService) ExportCalendar(ctx context.Context, workshopID uint) ([]byte, error) {
	workshop, err := s.repo.FindByID(ctx, workshopID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	return ics.Render(workshop), nil
}

// notifyRoster messages every active participant and records the send in
// the audit trail. Delivery failures are logged, never surfaced.
func (s *WorkshopService) notifyRoster(ctx context.Context, workshop domain.Workshop, actorID uint, subject, body string) {
	participations, err := s.participations.FindByWorkshop(ctx, workshop.ID)
	if err != nil {
		s.logger.Warn("roster lookup for notification failed",
			zap.Uint("workshop_id", workshop.ID),
			zap.Error(err),
		)

		return
	}

	var recipients []domain.User
	for i := range participations {
		p := participations[i]
		if p.Role != domain.RoleParticipant || !p.Active() {
			continue
		}

		user, err := s.users.FindByID(ctx, p.UserID)
		if err != nil {
			s.logger.Warn("recipient lookup failed",
				zap.Uint("user_id", p.UserID),
				zap.Error(err),
			)

			continue
		}

		recipients = append(recipients, user)
	}

	if len(recipients) == 0 {
		return
	}

	failed := 0
	for _, result := range s.notifier.Notify(ctx, recipients, subject, body) {
		if result.Err != nil {
			failed++
			s.logger.Warn("notification delivery failed",
				zap.Uint("user_id", result.UserID),
				zap.Error(result.Err),
			)
		}
	}

	s.appendHistory(ctx, workshop.ID, actorID, domain.LogEmailSent,
		fmt.Sprintf("notified %v participants (%v failed)", len(recipients), failed),
		map[string]any{
			"subject":    subject,
			"recipients": len(recipients),
			"failed":     failed,
		})
}

func (s *WorkshopService) appendHistory(ctx context.Context, workshopID, actorID uint, logType domain.LogType, description string, metadata map[string]any) {
	var payload []byte
	if metadata != nil {
		payload, _ = json.Marshal(metadata)
	}

	_, err := s.history.Append(ctx, domain.WorkshopHistoryLog{
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

// normalizeModality enforces the location-versus-links exclusivity on a
// workshop about to be stored.
func normalizeModality(w *domain.Workshop) {
	if w.IsRemote {
		w.Location = ""
	} else {
		w.VisioLink = ""
		w.MuralLink = ""
	}
}
