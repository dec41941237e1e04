package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/atelierhq/atelier-api/internal/domain"
	"github.com/atelierhq/atelier-api/internal/repository/dao"
)

var (
	ErrWorkshopNotFound = dao.ErrWorkshopNotFound
	ErrWorkshopInactive = dao.ErrWorkshopInactive
	ErrWorkshopNotEnded = dao.ErrWorkshopNotEnded
	ErrStaleWorkshop    = dao.ErrStaleWorkshop
)

type WorkshopDAO interface {
	Insert(ctx context.Context, workshop dao.Workshop) (dao.Workshop, error)
	FindByID(ctx context.Context, id uint) (dao.Workshop, error)
	FindByFamily(ctx context.Context, familyID uint) ([]dao.Workshop, error)
	FindByOrganizer(ctx context.Context, organizerID uint) ([]dao.Workshop, error)
	FindClosedByOrganizer(ctx context.Context, organizerID, familyID uint) ([]dao.Workshop, error)
	UpdateDetails(ctx context.Context, id uint, title, description string, audienceNumber int) (dao.Workshop, error)
	UpdateClassification(ctx context.Context, id uint, classification string) error
	Reschedule(ctx context.Context, id uint, startAt, endAt time.Time, extraMinutes, expectedVersion int) (dao.Workshop, error)
	Relocate(ctx context.Context, id uint, isRemote bool, location, visioLink, muralLink string, expectedVersion int) (dao.Workshop, error)
	Cancel(ctx context.Context, id uint) (dao.Workshop, error)
	Close(ctx context.Context, id uint) (dao.Workshop, error)
	CountSeats(ctx context.Context, workshopID uint) (int, error)
	FindFamilies(ctx context.Context) ([]dao.Family, error)
	FindFamilyByID(ctx context.Context, id uint) (dao.Family, error)
}

type WorkshopRepository struct {
	dao WorkshopDAO
}

func NewWorkshopRepository(dao WorkshopDAO) *WorkshopRepository {
	return &WorkshopRepository{
		dao: dao,
	}
}

func (r *WorkshopRepository) domainToDao(w domain.Workshop) dao.Workshop {
	return dao.Workshop{
		ID:                          w.ID,
		FamilyID:                    w.FamilyID,
		Type:                        string(w.Type),
		Title:                       w.Title,
		Description:                 w.Description,
		StartAt:                     w.StartAt,
		EndAt:                       w.EndAt,
		ExtraDurationMinutes:        w.ExtraDurationMinutes,
		IsRemote:                    w.IsRemote,
		Location:                    w.Location,
		VisioLink:                   w.VisioLink,
		MuralLink:                   w.MuralLink,
		AudienceNumber:              w.AudienceNumber,
		ClassificationStatus:        string(w.ClassificationStatus),
		LifecycleStatus:             string(w.LifecycleStatus),
		ModifiedDateFlag:            w.ModifiedDateFlag,
		ModifiedLocationFlag:        w.ModifiedLocationFlag,
		DateConfirmationVersion:     w.DateConfirmationVersion,
		LocationConfirmationVersion: w.LocationConfirmationVersion,
		OrganizerID:                 w.OrganizerID,
		CreatedAt:                   w.CreatedAt,
		UpdatedAt:                   w.UpdatedAt,
	}
}

func (r *WorkshopRepository) daoToDomain(w dao.Workshop) domain.Workshop {
	return domain.Workshop{
		ID:                          w.ID,
		FamilyID:                    w.FamilyID,
		Type:                        domain.WorkshopType(w.Type),
		Title:                       w.Title,
		Description:                 w.Description,
		StartAt:                     w.StartAt,
		EndAt:                       w.EndAt,
		ExtraDurationMinutes:        w.ExtraDurationMinutes,
		IsRemote:                    w.IsRemote,
		Location:                    w.Location,
		VisioLink:                   w.VisioLink,
		MuralLink:                   w.MuralLink,
		AudienceNumber:              w.AudienceNumber,
		ClassificationStatus:        domain.ClassificationStatus(w.ClassificationStatus),
		LifecycleStatus:             domain.WorkshopStatus(w.LifecycleStatus),
		ModifiedDateFlag:            w.ModifiedDateFlag,
		ModifiedLocationFlag:        w.ModifiedLocationFlag,
		DateConfirmationVersion:     w.DateConfirmationVersion,
		LocationConfirmationVersion: w.LocationConfirmationVersion,
		OrganizerID:                 w.OrganizerID,
		CreatedAt:                   w.CreatedAt,
		UpdatedAt:                   w.UpdatedAt,
	}
}

func (r *WorkshopRepository) daosToDomain(workshops []dao.Workshop) []domain.Workshop {
	result := make([]domain.Workshop, len(workshops))
	for i, w := range workshops {
		result[i] = r.daoToDomain(w)
	}
	return result
}

func (r *WorkshopRepository) Create(ctx context.Context, workshop domain.Workshop) (domain.Workshop, error) {
	created, err := r.dao.Insert(ctx, r.domainToDao(workshop))
	if err != nil {
		return domain.Workshop{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return r.daoToDomain(created), nil
}

func (r *WorkshopRepository) FindByID(ctx context.Context, id uint) (domain.Workshop, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Workshop{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return r.daoToDomain(found), nil
}

func (r *WorkshopRepository) FindByFamily(ctx context.Context, familyID uint) ([]domain.Workshop, error) {
	found, err := r.dao.FindByFamily(ctx, familyID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindByFamily -> %w", err)
	}

	return r.daosToDomain(found), nil
}

func (r *WorkshopRepository) FindByOrganizer(ctx context.Context, organizerID uint) ([]domain.Workshop, error) {
	found, err := r.dao.FindByOrganizer(ctx, organizerID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindByOrganizer -> %w", err)
	}

	return r.daosToDomain(found), nil
}

func (r *WorkshopRepository) FindClosedByOrganizer(ctx context.Context, organizerID, familyID uint) ([]domain.Workshop, error) {
	found, err := r.dao.FindClosedByOrganizer(ctx, organizerID, familyID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindClosedByOrganizer -> %w", err)
	}

	return r.daosToDomain(found), nil
}

func (r *WorkshopRepository) UpdateDetails(ctx context.Context, id uint, title, description string, audienceNumber int) (domain.Workshop, error) {
	updated, err := r.dao.UpdateDetails(ctx, id, title, description, audienceNumber)
	if err != nil {
		return domain.Workshop{}, fmt.Errorf("r.dao.UpdateDetails -> %w", err)
	}

	return r.daoToDomain(updated), nil
}

func (r *WorkshopRepository) UpdateClassification(ctx context.Context, id uint, classification domain.ClassificationStatus) error {
	if err := r.dao.UpdateClassification(ctx, id, string(classification)); err != nil {
		return fmt.Errorf("r.dao.UpdateClassification -> %w", err)
	}
	return nil
}

func (r *WorkshopRepository) Reschedule(ctx context.Context, id uint, startAt, endAt time.Time, extraMinutes, expectedVersion int) (domain.Workshop, error) {
	updated, err := r.dao.Reschedule(ctx, id, startAt, endAt, extraMinutes, expectedVersion)
	if err != nil {
		return domain.Workshop{}, fmt.Errorf("r.dao.Reschedule -> %w", err)
	}

	return r.daoToDomain(updated), nil
}

func (r *WorkshopRepository) Relocate(ctx context.Context, id uint, isRemote bool, location, visioLink, muralLink string, expectedVersion int) (domain.Workshop, error) {
	updated, err := r.dao.Relocate(ctx, id, isRemote, location, visioLink, muralLink, expectedVersion)
	if err != nil {
		return domain.Workshop{}, fmt.Errorf("r.dao.Relocate -> %w", err)
	}

	return r.daoToDomain(updated), nil
}

func (r *WorkshopRepository) Cancel(ctx context.Context, id uint) (domain.Workshop, error) {
	updated, err := r.dao.Cancel(ctx, id)
	if err != nil {
		return domain.Workshop{}, fmt.Errorf("r.dao.Cancel -> %w", err)
	}

	return r.daoToDomain(updated), nil
}

func (r *WorkshopRepository) Close(ctx context.Context, id uint) (domain.Workshop, error) {
	updated, err := r.dao.Close(ctx, id)
	if err != nil {
		return domain.Workshop{}, fmt.Errorf("r.dao.Close -> %w", err)
	}

	return r.daoToDomain(updated), nil
}

func (r *WorkshopRepository) CountSeats(ctx context.Context, workshopID uint) (int, error) {
	count, err := r.dao.CountSeats(ctx, workshopID)
	if err != nil {
		return 0, fmt.Errorf("r.dao.CountSeats -> %w", err)
	}

	return count, nil
}

func (r *WorkshopRepository) FindFamilies(ctx context.Context) ([]domain.Family, error) {
	found, err := r.dao.FindFamilies(ctx)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindFamilies -> %w", err)
	}

	families := make([]domain.Family, len(found))
	for i, f := range found {
		families[i] = domain.Family{ID: f.ID, Code: f.Code, Name: f.Name}
	}

	return families, nil
}

func (r *WorkshopRepository) FindFamilyByID(ctx context.Context, id uint) (domain.Family, error) {
	found, err := r.dao.FindFamilyByID(ctx, id)
	if err != nil {
		return domain.Family{}, fmt.Errorf("r.dao.FindFamilyByID -> %w", err)
	}

	return domain.Family{ID: found.ID, Code: found.Code, Name: found.Name}, nil
}
