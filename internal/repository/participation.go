package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/atelierhq/atelier-api/internal/domain"
	"github.com/atelierhq/atelier-api/internal/repository/dao"
)

var (
	ErrParticipationNotFound = dao.ErrParticipationNotFound
	ErrDuplicateRegistration = dao.ErrDuplicateRegistration
	ErrCapacityExceeded      = dao.ErrCapacityExceeded
	ErrInvalidState          = dao.ErrInvalidState
	ErrPaymentPending        = dao.ErrPaymentPending
	ErrTargetFull            = dao.ErrTargetFull
	ErrSameWorkshop          = dao.ErrSameWorkshop
	ErrConflictOrUnavailable = dao.ErrConflictOrUnavailable
)

type ParticipationDAO interface {
	Register(ctx context.Context, participation dao.Participation) (dao.Participation, error)
	FindByID(ctx context.Context, id uint) (dao.Participation, error)
	FindByWorkshop(ctx context.Context, workshopID uint) ([]dao.Participation, error)
	FindByUser(ctx context.Context, userID uint) ([]dao.Participation, error)
	FindFormationsAttended(ctx context.Context, userID uint) ([]string, error)
	ConfirmPayment(ctx context.Context, id uint, when time.Time, paymentRef string) (dao.Participation, error)
	Refund(ctx context.Context, id uint) (dao.Participation, error)
	Cancel(ctx context.Context, id uint) (dao.Participation, error)
	Reinscribe(ctx context.Context, id uint) (dao.Participation, error)
	Exchange(ctx context.Context, sourceID, targetWorkshopID uint) (dao.Participation, error)
	Delete(ctx context.Context, id uint) error
	ConfirmDate(ctx context.Context, id, workshopID uint) (dao.Participation, error)
	ConfirmLocation(ctx context.Context, id, workshopID uint) (dao.Participation, error)
	SetAttendance(ctx context.Context, id uint, attended bool, now time.Time) (dao.Participation, error)
}

type ParticipationRepository struct {
	dao ParticipationDAO
}

func NewParticipationRepository(dao ParticipationDAO) *ParticipationRepository {
	return &ParticipationRepository{
		dao: dao,
	}
}

func (r *ParticipationRepository) domainToDao(p domain.Participation) dao.Participation {
	return dao.Participation{
		ID:                            p.ID,
		WorkshopID:                    p.WorkshopID,
		UserID:                        p.UserID,
		Role:                          string(p.Role),
		Status:                        string(p.Status),
		PaymentStatus:                 string(p.PaymentStatus),
		TicketType:                    string(p.TicketType),
		PricePaid:                     p.PricePaid,
		PaymentRef:                    p.PaymentRef,
		ExchangeParentParticipationID: p.ExchangeParentParticipationID,
		DateConfirmationVersion:       p.DateConfirmationVersion,
		LocationConfirmationVersion:   p.LocationConfirmationVersion,
		ConfirmationDate:              p.ConfirmationDate,
		Attended:                      p.Attended,
	}
}

func (r *ParticipationRepository) daoToDomain(p dao.Participation) domain.Participation {
	return domain.Participation{
		ID:                            p.ID,
		WorkshopID:                    p.WorkshopID,
		UserID:                        p.UserID,
		Role:                          domain.ParticipationRole(p.Role),
		Status:                        domain.ParticipationStatus(p.Status),
		PaymentStatus:                 domain.PaymentStatus(p.PaymentStatus),
		TicketType:                    domain.TicketType(p.TicketType),
		PricePaid:                     p.PricePaid,
		PaymentRef:                    p.PaymentRef,
		ExchangeParentParticipationID: p.ExchangeParentParticipationID,
		DateConfirmationVersion:       p.DateConfirmationVersion,
		LocationConfirmationVersion:   p.LocationConfirmationVersion,
		ConfirmationDate:              p.ConfirmationDate,
		Attended:                      p.Attended,
		CreatedAt:                     p.CreatedAt,
		UpdatedAt:                     p.UpdatedAt,
	}
}

func (r *ParticipationRepository) daosToDomain(participations []dao.Participation) []domain.Participation {
	result := make([]domain.Participation, len(participations))
	for i, p := range participations {
		result[i] = r.daoToDomain(p)
	}
	return result
}

func (r *ParticipationRepository) Register(ctx context.Context, participation domain.Participation) (domain.Participation, error) {
	created, err := r.dao.Register(ctx, r.domainToDao(participation))
	if err != nil {
		return domain.Participation{}, fmt.Errorf("r.dao.Register -> %w", err)
	}

	return r.daoToDomain(created), nil
}

func (r *ParticipationRepository) FindByID(ctx context.Context, id uint) (domain.Participation, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Participation{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return r.daoToDomain(found), nil
}

func (r *ParticipationRepository) FindByWorkshop(ctx context.Context, workshopID uint) ([]domain.Participation, error) {
	found, err := r.dao.FindByWorkshop(ctx, workshopID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindByWorkshop -> %w", err)
	}

	return r.daosToDomain(found), nil
}

func (r *ParticipationRepository) FindByUser(ctx context.Context, userID uint) ([]domain.Participation, error) {
	found, err := r.dao.FindByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindByUser -> %w", err)
	}

	return r.daosToDomain(found), nil
}

func (r *ParticipationRepository) FindFormationsAttended(ctx context.Context, userID uint) ([]domain.WorkshopType, error) {
	codes, err := r.dao.FindFormationsAttended(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindFormationsAttended -> %w", err)
	}

	types := make([]domain.WorkshopType, len(codes))
	for i, c := range codes {
		types[i] = domain.WorkshopType(c)
	}

	return types, nil
}

func (r *ParticipationRepository) ConfirmPayment(ctx context.Context, id uint, when time.Time, paymentRef string) (domain.Participation, error) {
	updated, err := r.dao.ConfirmPayment(ctx, id, when, paymentRef)
	if err != nil {
		return domain.Participation{}, fmt.Errorf("r.dao.ConfirmPayment -> %w", err)
	}

	return r.daoToDomain(updated), nil
}

func (r *ParticipationRepository) Refund(ctx context.Context, id uint) (domain.Participation, error) {
	updated, err := r.dao.Refund(ctx, id)
	if err != nil {
		return domain.Participation{}, fmt.Errorf("r.dao.Refund -> %w", err)
	}

	return r.daoToDomain(updated), nil
}

func (r *ParticipationRepository) Cancel(ctx context.Context, id uint) (domain.Participation, error) {
	updated, err := r.dao.Cancel(ctx, id)
	if err != nil {
		return domain.Participation{}, fmt.Errorf("r.dao.Cancel -> %w", err)
	}

	return r.daoToDomain(updated), nil
}

func (r *ParticipationRepository) Reinscribe(ctx context.Context, id uint) (domain.Participation, error) {
	updated, err := r.dao.Reinscribe(ctx, id)
	if err != nil {
		return domain.Participation{}, fmt.Errorf("r.dao.Reinscribe -> %w", err)
	}

	return r.daoToDomain(updated), nil
}

func (r *ParticipationRepository) Exchange(ctx context.Context, sourceID, targetWorkshopID uint) (domain.Participation, error) {
	replacement, err := r.dao.Exchange(ctx, sourceID, targetWorkshopID)
	if err != nil {
		return domain.Participation{}, fmt.Errorf("r.dao.Exchange -> %w", err)
	}

	return r.daoToDomain(replacement), nil
}

func (r *ParticipationRepository) Delete(ctx context.Context, id uint) error {
	if err := r.dao.Delete(ctx, id); err != nil {
		return fmt.Errorf("r.dao.Delete -> %w", err)
	}
	return nil
}

func (r *ParticipationRepository) ConfirmDate(ctx context.Context, id, workshopID uint) (domain.Participation, error) {
	updated, err := r.dao.ConfirmDate(ctx, id, workshopID)
	if err != nil {
		return domain.Participation{}, fmt.Errorf("r.dao.ConfirmDate -> %w", err)
	}

	return r.daoToDomain(updated), nil
}

func (r *ParticipationRepository) ConfirmLocation(ctx context.Context, id, workshopID uint) (domain.Participation, error) {
	updated, err := r.dao.ConfirmLocation(ctx, id, workshopID)
	if err != nil {
		return domain.Participation{}, fmt.Errorf("r.dao.ConfirmLocation -> %w", err)
	}

	return r.daoToDomain(updated), nil
}

func (r *ParticipationRepository) SetAttendance(ctx context.Context, id uint, attended bool, now time.Time) (domain.Participation, error) {
	updated, err := r.dao.SetAttendance(ctx, id, attended, now)
	if err != nil {
		return domain.Participation{}, fmt.Errorf("r.dao.SetAttendance -> %w", err)
	}

	return r.daoToDomain(updated), nil
}
