package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/atelierhq/atelier-api/internal/domain"
	"github.com/atelierhq/atelier-api/internal/repository/dao"
)

var ErrRoleLevelNotFound = dao.ErrRoleLevelNotFound

type RoleDAO interface {
	FindLevelsByFamily(ctx context.Context, familyID uint) ([]dao.RoleLevel, error)
	FindLevel(ctx context.Context, familyID uint, level int) (dao.RoleLevel, error)
}

type RoleRepository struct {
	dao RoleDAO
}

func NewRoleRepository(dao RoleDAO) *RoleRepository {
	return &RoleRepository{
		dao: dao,
	}
}

func (r *RoleRepository) daoToDomain(l dao.RoleLevel) domain.RoleLevel {
	return domain.RoleLevel{
		ID:       l.ID,
		FamilyID: l.FamilyID,
		Level:    l.Level,
		Name:     l.Name,
		Requirement: domain.RoleRequirement{
			ID:                 l.Requirement.ID,
			RoleLevelID:        l.Requirement.RoleLevelID,
			MinWorkshopsTotal:  l.Requirement.MinWorkshopsTotal,
			MinInPerson:        l.Requirement.MinInPerson,
			MinRemote:          l.Requirement.MinRemote,
			MinFeedbackCount:   l.Requirement.MinFeedbackCount,
			MinFeedbackAverage: l.Requirement.MinFeedbackAverage,
			RequiredFormations: splitFormationCodes(l.Requirement.RequiredFormations),
		},
	}
}

func splitFormationCodes(codes string) []domain.WorkshopType {
	if codes == "" {
		return nil
	}

	parts := strings.Split(codes, ",")
	types := make([]domain.WorkshopType, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			types = append(types, domain.WorkshopType(trimmed))
		}
	}

	return types
}

func (r *RoleRepository) FindLevelsByFamily(ctx context.Context, familyID uint) ([]domain.RoleLevel, error) {
	found, err := r.dao.FindLevelsByFamily(ctx, familyID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindLevelsByFamily -> %w", err)
	}

	levels := make([]domain.RoleLevel, len(found))
	for i, l := range found {
		levels[i] = r.daoToDomain(l)
	}

	return levels, nil
}

func (r *RoleRepository) FindLevel(ctx context.Context, familyID uint, level int) (domain.RoleLevel, error) {
	found, err := r.dao.FindLevel(ctx, familyID, level)
	if err != nil {
		return domain.RoleLevel{}, fmt.Errorf("r.dao.FindLevel -> %w", err)
	}

	return r.daoToDomain(found), nil
}
