package service

import (
	"context"
	"fmt"
	"time"

	"github.com/atelierhq/atelier-api/internal/domain"
	"github.com/atelierhq/atelier-api/internal/repository"
)

var (
	ErrRoleLevelNotFound = repository.ErrRoleLevelNotFound
	ErrRequirementNotMet = domain.ErrRequirementNotMet
)

type RoleRepository interface {
	FindLevelsByFamily(ctx context.Context, familyID uint) ([]domain.RoleLevel, error)
	FindLevel(ctx context.Context, familyID uint, level int) (domain.RoleLevel, error)
}

// ProgressionWorkshopRepository supplies the closed workshops a user
// organized; only those count toward progression.
type ProgressionWorkshopRepository interface {
	FindClosedByOrganizer(ctx context.Context, organizerID, familyID uint) ([]domain.Workshop, error)
}

// ProgressionParticipationRepository supplies the formation types a user
// completed as an attendee.
type ProgressionParticipationRepository interface {
	FindFormationsAttended(ctx context.Context, userID uint) ([]domain.WorkshopType, error)
}

// FeedbackProvider returns the externally sourced feedback aggregate for a
// user within one family. The engine treats it as an opaque read.
type FeedbackProvider interface {
	FeedbackAggregate(ctx context.Context, userID, familyID uint) (count int, average float64, err error)
}

// NullFeedbackProvider reports no feedback. Plugged in until a survey
// backend exists; levels requiring feedback stay locked.
type NullFeedbackProvider struct{}

func (NullFeedbackProvider) FeedbackAggregate(ctx context.Context, userID, familyID uint) (int, float64, error) {
	return 0, 0, nil
}

type ProgressionService struct {
	roles          RoleRepository
	workshops      ProgressionWorkshopRepository
	participations ProgressionParticipationRepository
	feedback       FeedbackProvider

	now func() time.Time
}

func NewProgressionService(
	roles RoleRepository,
	workshops ProgressionWorkshopRepository,
	participations ProgressionParticipationRepository,
	feedback FeedbackProvider,
) *ProgressionService {
	return &ProgressionService{
		roles:          roles,
		workshops:      workshops,
		participations: participations,
		feedback:       feedback,
		now:            time.Now,
	}
}

// Evaluate walks the family's certification ladder against the user's
// accumulated organizer statistics. Levels unlock bottom-up; a locked
// level blocks everything above it.
func (s *ProgressionService) Evaluate(ctx context.Context, userID, familyID uint) (domain.Progression, error) {
	levels, err := s.roles.FindLevelsByFamily(ctx, familyID)
	if err != nil {
		return domain.Progression{}, fmt.Errorf("s.roles.FindLevelsByFamily -> %w", err)
	}

	stats, err := s.collectStats(ctx, userID, familyID)
	if err != nil {
		return domain.Progression{}, err
	}

	return domain.EvaluateLadder(familyID, levels, stats, s.now()), nil
}

// EvaluateLevel checks a single rung. Returns ErrRequirementNotMet when
// the level is still locked, alongside the status naming the shortfalls.
func (s *ProgressionService) EvaluateLevel(ctx context.Context, userID, familyID uint, level int) (domain.LevelStatus, error) {
	if _, err := s.roles.FindLevel(ctx, familyID, level); err != nil {
		return domain.LevelStatus{}, fmt.Errorf("s.roles.FindLevel -> %w", err)
	}

	progression, err := s.Evaluate(ctx, userID, familyID)
	if err != nil {
		return domain.LevelStatus{}, err
	}

	for _, status := range progression.Levels {
		if status.Level.Level != level {
			continue
		}

		if !status.Unlocked {
			return status, ErrRequirementNotMet
		}

		return status, nil
	}

	return domain.LevelStatus{}, ErrRoleLevelNotFound
}

func (s *ProgressionService) collectStats(ctx context.Context, userID, familyID uint) (domain.OrganizerStats, error) {
	workshops, err := s.workshops.FindClosedByOrganizer(ctx, userID, familyID)
	if err != nil {
		return domain.OrganizerStats{}, fmt.Errorf("s.workshops.FindClosedByOrganizer -> %w", err)
	}

	formations, err := s.participations.FindFormationsAttended(ctx, userID)
	if err != nil {
		return domain.OrganizerStats{}, fmt.Errorf("s.participations.FindFormationsAttended -> %w", err)
	}

	count, average, err := s.feedback.FeedbackAggregate(ctx, userID, familyID)
	if err != nil {
		return domain.OrganizerStats{}, fmt.Errorf("s.feedback.FeedbackAggregate -> %w", err)
	}

	return domain.AccumulateStats(workshops, formations, count, average), nil
}
