package dao

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WorkshopHistoryLog rows are append-only: no update or delete path exists
// on this DAO.
type WorkshopHistoryLog struct {
	ID         uint   `gorm:"primaryKey"`
	EventID    string `gorm:"type:varchar(36);not null;uniqueIndex"`
	WorkshopID uint   `gorm:"not null;index"`
	ActorID    uint   `gorm:"not null;index"`
	Type       string `gorm:"type:varchar(64);not null;index"`

	Description string `gorm:"type:text"`
	Metadata    []byte `gorm:"type:jsonb"`

	CreatedAt time.Time `gorm:"not null;index"`
}

func (WorkshopHistoryLog) TableName() string {
	return "workshop_history_logs"
}

type HistoryDAO struct {
	db *gorm.DB
}

func NewHistoryDAO(db *gorm.DB) *HistoryDAO {
	return &HistoryDAO{
		db: db,
	}
}

func (d *HistoryDAO) Insert(ctx context.Context, entry WorkshopHistoryLog) (WorkshopHistoryLog, error) {
	if entry.EventID == "" {
		entry.EventID = uuid.NewString()
	}

	result := d.db.WithContext(ctx).Create(&entry)
	if result.Error != nil {
		return WorkshopHistoryLog{}, result.Error
	}

	return entry, nil
}

func (d *HistoryDAO) FindByWorkshop(ctx context.Context, workshopID uint) ([]WorkshopHistoryLog, error) {
	var entries []WorkshopHistoryLog

	result := d.db.WithContext(ctx).
		Where("workshop_id = ?", workshopID).
		Order("created_at ASC").
		Find(&entries)
	if result.Error != nil {
		return nil, result.Error
	}

	return entries, nil
}
