package repository

import (
	"context"
	"fmt"

	"github.com/atelierhq/atelier-api/internal/domain"
	"github.com/atelierhq/atelier-api/internal/repository/dao"
)

type HistoryDAO interface {
	Insert(ctx context.Context, entry dao.WorkshopHistoryLog) (dao.WorkshopHistoryLog, error)
	FindByWorkshop(ctx context.Context, workshopID uint) ([]dao.WorkshopHistoryLog, error)
}

type HistoryRepository struct {
	dao HistoryDAO
}

func NewHistoryRepository(dao HistoryDAO) *HistoryRepository {
	return &HistoryRepository{
		dao: dao,
	}
}

func (r *HistoryRepository) Append(ctx context.Context, entry domain.WorkshopHistoryLog) (domain.WorkshopHistoryLog, error) {
	created, err := r.dao.Insert(ctx, dao.WorkshopHistoryLog{
		EventID:     entry.EventID,
		WorkshopID:  entry.WorkshopID,
		ActorID:     entry.ActorID,
		Type:        string(entry.Type),
		Description: entry.Description,
		Metadata:    entry.Metadata,
	})
	if err != nil {
		return domain.WorkshopHistoryLog{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return r.daoToDomain(created), nil
}

func (r *HistoryRepository) FindByWorkshop(ctx context.Context, workshopID uint) ([]domain.WorkshopHistoryLog, error) {
	found, err := r.dao.FindByWorkshop(ctx, workshopID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindByWorkshop -> %w", err)
	}

	entries := make([]domain.WorkshopHistoryLog, len(found))
	for i, e := range found {
		entries[i] = r.daoToDomain(e)
	}

	return entries, nil
}

func (r *HistoryRepository) daoToDomain(e dao.WorkshopHistoryLog) domain.WorkshopHistoryLog {
	return domain.WorkshopHistoryLog{
		ID:          e.ID,
		EventID:     e.EventID,
		WorkshopID:  e.WorkshopID,
		ActorID:     e.ActorID,
		Type:        domain.LogType(e.Type),
		Description: e.Description,
		Metadata:    e.Metadata,
		CreatedAt:   e.CreatedAt,
	}
}
