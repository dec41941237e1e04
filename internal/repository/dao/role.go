package dao

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

var ErrRoleLevelNotFound = errors.New("role level not found")

type RoleLevel struct {
	ID       uint   `gorm:"primaryKey"`
	FamilyID uint   `gorm:"not null;index"`
	Level    int    `gorm:"not null"`
	Name     string `gorm:"not null"`

	Requirement RoleRequirement `gorm:"foreignKey:RoleLevelID"`
}

type RoleRequirement struct {
	ID          uint `gorm:"primaryKey"`
	RoleLevelID uint `gorm:"not null;uniqueIndex"`

	MinWorkshopsTotal  int     `gorm:"default:0"`
	MinInPerson        int     `gorm:"default:0"`
	MinRemote          int     `gorm:"default:0"`
	MinFeedbackCount   int     `gorm:"default:0"`
	MinFeedbackAverage float64 `gorm:"default:0"`

	// Comma-separated formation type codes.
	RequiredFormations string
}

type RoleDAO struct {
	db *gorm.DB
}

func NewRoleDAO(db *gorm.DB) *RoleDAO {
	return &RoleDAO{
		db: db,
	}
}

// FindLevelsByFamily returns the family's ladder in ascending level order,
// requirements preloaded.
func (d *RoleDAO) FindLevelsByFamily(ctx context.Context, familyID uint) ([]RoleLevel, error) {
	var levels []RoleLevel

	result := d.db.WithContext(ctx).
		Preload("Requirement").
		Where("family_id = ?", familyID).
		Order("level ASC").
		Find(&levels)
	if result.Error != nil {
		return nil, result.Error
	}

	return levels, nil
}

func (d *RoleDAO) FindLevel(ctx context.Context, familyID uint, level int) (RoleLevel, error) {
	var roleLevel RoleLevel

	result := d.db.WithContext(ctx).
		Preload("Requirement").
		Where("family_id = ? AND level = ?", familyID, level).
		First(&roleLevel)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return RoleLevel{}, ErrRoleLevelNotFound
		}
		return RoleLevel{}, result.Error
	}

	return roleLevel, nil
}
