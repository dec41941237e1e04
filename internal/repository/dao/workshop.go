package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrWorkshopNotFound = errors.New("workshop not found")
	ErrWorkshopInactive = errors.New("workshop is not active")
	ErrWorkshopNotEnded = errors.New("workshop has not ended yet")
	ErrStaleWorkshop    = errors.New("workshop was modified concurrently")
)

type Family struct {
	ID   uint   `gorm:"primaryKey"`
	Code string `gorm:"unique;not null"`
	Name string `gorm:"not null"`
}

type Workshop struct {
	ID       uint   `gorm:"primaryKey"`
	FamilyID uint   `gorm:"not null;index"`
	Family   Family `gorm:"foreignKey:FamilyID"`
	Type     string `gorm:"not null"`

	Title       string `gorm:"not null"`
	Description string

	StartAt              time.Time `gorm:"not null"`
	EndAt                time.Time `gorm:"not null"`
	ExtraDurationMinutes int       `gorm:"default:0"`

	IsRemote  bool `gorm:"default:false"`
	Location  string
	VisioLink string
	MuralLink string

	AudienceNumber       int    `gorm:"not null"`
	ClassificationStatus string `gorm:"default:''"`
	LifecycleStatus      string `gorm:"not null;default:'active';index"`

	ModifiedDateFlag            bool `gorm:"default:false"`
	ModifiedLocationFlag        bool `gorm:"default:false"`
	DateConfirmationVersion     int  `gorm:"default:0"`
	LocationConfirmationVersion int  `gorm:"default:0"`

	OrganizerID uint `gorm:"not null;index"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

type WorkshopDAO struct {
	db *gorm.DB
}

func NewWorkshopDAO(db *gorm.DB) *WorkshopDAO {
	return &WorkshopDAO{
		db: db,
	}
}

// Insert creates the workshop together with its organizer participation
// row. The organizer row never consumes audience capacity but ties the
// user to the workshop for history and progression queries.
func (d *WorkshopDAO) Insert(ctx context.Context, workshop Workshop) (Workshop, error) {
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&workshop).Error; err != nil {
			return err
		}

		seed := Participation{
			WorkshopID:                  workshop.ID,
			UserID:                      workshop.OrganizerID,
			Role:                        "organisateur",
			Status:                      "inscrit",
			PaymentStatus:               "none",
			TicketType:                  "gratuit",
			PricePaid:                   0,
			DateConfirmationVersion:     workshop.DateConfirmationVersion,
			LocationConfirmationVersion: workshop.LocationConfirmationVersion,
		}
		return tx.Create(&seed).Error
	})
	if err != nil {
		return Workshop{}, err
	}
	return workshop, nil
}

func (d *WorkshopDAO) FindByID(ctx context.Context, id uint) (Workshop, error) {
	var workshop Workshop

	result := d.db.WithContext(ctx).First(&workshop, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Workshop{}, ErrWorkshopNotFound
		}

		return Workshop{}, result.Error
	}

	return workshop, nil
}

func (d *WorkshopDAO) FindByFamily(ctx context.Context, familyID uint) ([]Workshop, error) {
	var workshops []Workshop

	result := d.db.WithContext(ctx).
		Where("family_id = ?", familyID).
		Order("start_at ASC").
		Find(&workshops)
	if result.Error != nil {
		return nil, result.Error
	}

	return workshops, nil
}

func (d *WorkshopDAO) FindByOrganizer(ctx context.Context, organizerID uint) ([]Workshop, error) {
	var workshops []Workshop

	result := d.db.WithContext(ctx).
		Where("organizer_id = ?", organizerID).
		Order("start_at ASC").
		Find(&workshops)
	if result.Error != nil {
		return nil, result.Error
	}

	return workshops, nil
}

// FindClosedByOrganizer returns the closed workshops a user organized in
// one family. Feeds the progression statistics.
func (d *WorkshopDAO) FindClosedByOrganizer(ctx context.Context, organizerID, familyID uint) ([]Workshop, error) {
	var workshops []Workshop

	result := d.db.WithContext(ctx).
		Select("workshops.*").
		Joins("JOIN participations ON participations.workshop_id = workshops.id").
		Where("participations.user_id = ? AND participations.role = ?", organizerID, "organisateur").
		Where("workshops.family_id = ? AND workshops.lifecycle_status = ?", familyID, "closed").
		Find(&workshops)
	if result.Error != nil {
		return nil, result.Error
	}

	return workshops, nil
}

// UpdateDetails edits fields that never touch lifecycle status or the
// reconfirmation protocol.
func (d *WorkshopDAO) UpdateDetails(ctx context.Context, id uint, title, description string, audienceNumber int) (Workshop, error) {
	result := d.db.WithContext(ctx).
		Model(&Workshop{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"title":           title,
			"description":     description,
			"audience_number": audienceNumber,
		})
	if result.Error != nil {
		return Workshop{}, result.Error
	}
	if result.RowsAffected == 0 {
		return Workshop{}, ErrWorkshopNotFound
	}

	return d.FindByID(ctx, id)
}

// UpdateClassification stores the resolver output on the workshop.
func (d *WorkshopDAO) UpdateClassification(ctx context.Context, id uint, classification string) error {
	result := d.db.WithContext(ctx).
		Model(&Workshop{}).
		Where("id = ?", id).
		Update("classification_status", classification)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrWorkshopNotFound
	}
	return nil
}

// Reschedule moves the scheduling window and bumps the date confirmation
// version in one transaction. The version compare-and-increment is keyed on
// the version the caller read, so two organizers editing concurrently
// cannot both apply on the same base.
func (d *WorkshopDAO) Reschedule(ctx context.Context, id uint, startAt, endAt time.Time, extraMinutes, expectedVersion int) (Workshop, error) {
	var updated Workshop

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&Workshop{}).
			Where("id = ? AND lifecycle_status = ? AND date_confirmation_version = ?", id, "active", expectedVersion).
			Updates(map[string]any{
				"start_at":                  startAt,
				"end_at":                    endAt,
				"extra_duration_minutes":    extraMinutes,
				"modified_date_flag":        true,
				"date_confirmation_version": gorm.Expr("date_confirmation_version + 1"),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return d.explainRescheduleMiss(tx, id, expectedVersion)
		}

		return tx.First(&updated, id).Error
	})
	if err != nil {
		return Workshop{}, err
	}

	return updated, nil
}

func (d *WorkshopDAO) explainRescheduleMiss(tx *gorm.DB, id uint, expectedVersion int) error {
	var current Workshop
	if err := tx.First(&current, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrWorkshopNotFound
		}
		return err
	}
	if current.LifecycleStatus != "active" {
		return ErrWorkshopInactive
	}
	if current.DateConfirmationVersion != expectedVersion {
		return ErrStaleWorkshop
	}
	return ErrStaleWorkshop
}

// Relocate changes the modality in one transaction: setting a location
// nulls the remote links and vice versa, and the location confirmation
// version is bumped.
func (d *WorkshopDAO) Relocate(ctx context.Context, id uint, isRemote bool, location, visioLink, muralLink string, expectedVersion int) (Workshop, error) {
	var updated Workshop

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]any{
			"is_remote":                     isRemote,
			"modified_location_flag":        true,
			"location_confirmation_version": gorm.Expr("location_confirmation_version + 1"),
		}
		if isRemote {
			updates["location"] = ""
			updates["visio_link"] = visioLink
			updates["mural_link"] = muralLink
		} else {
			updates["location"] = location
			updates["visio_link"] = ""
			updates["mural_link"] = ""
		}

		result := tx.Model(&Workshop{}).
			Where("id = ? AND lifecycle_status = ? AND location_confirmation_version = ?", id, "active", expectedVersion).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return d.explainRelocateMiss(tx, id, expectedVersion)
		}

		return tx.First(&updated, id).Error
	})
	if err != nil {
		return Workshop{}, err
	}

	return updated, nil
}

func (d *WorkshopDAO) explainRelocateMiss(tx *gorm.DB, id uint, expectedVersion int) error {
	var current Workshop
	if err := tx.First(&current, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrWorkshopNotFound
		}
		return err
	}
	if current.LifecycleStatus != "active" {
		return ErrWorkshopInactive
	}
	return ErrStaleWorkshop
}

// Cancel is a conditional write: only an active workshop can transition.
func (d *WorkshopDAO) Cancel(ctx context.Context, id uint) (Workshop, error) {
	return d.transitionLifecycle(ctx, id, "canceled")
}

// Close is a conditional write on lifecycle status; idempotent closes are
// resolved by the caller (a second attempt sees ErrWorkshopInactive).
func (d *WorkshopDAO) Close(ctx context.Context, id uint) (Workshop, error) {
	return d.transitionLifecycle(ctx, id, "closed")
}

func (d *WorkshopDAO) transitionLifecycle(ctx context.Context, id uint, to string) (Workshop, error) {
	result := d.db.WithContext(ctx).
		Model(&Workshop{}).
		Where("id = ? AND lifecycle_status = ?", id, "active").
		Update("lifecycle_status", to)
	if result.Error != nil {
		return Workshop{}, result.Error
	}
	if result.RowsAffected == 0 {
		current, err := d.FindByID(ctx, id)
		if err != nil {
			return Workshop{}, err
		}
		return current, ErrWorkshopInactive
	}

	return d.FindByID(ctx, id)
}

// CountSeats re-reads the authoritative confirmed-seat count. Only inscrit
// and paye hold seats.
func (d *WorkshopDAO) CountSeats(ctx context.Context, workshopID uint) (int, error) {
	var count int64

	result := d.db.WithContext(ctx).
		Model(&Participation{}).
		Where("workshop_id = ? AND role = ? AND status IN ?",
			workshopID, "participant", []string{"inscrit", "paye"}).
		Count(&count)
	if result.Error != nil {
		return 0, result.Error
	}

	return int(count), nil
}

// FindFamilies lists every family.
func (d *WorkshopDAO) FindFamilies(ctx context.Context) ([]Family, error) {
	var families []Family

	result := d.db.WithContext(ctx).Order("id ASC").Find(&families)
	if result.Error != nil {
		return nil, result.Error
	}

	return families, nil
}

func (d *WorkshopDAO) FindFamilyByID(ctx context.Context, id uint) (Family, error) {
	var family Family

	result := d.db.WithContext(ctx).First(&family, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Family{}, ErrWorkshopNotFound
		}
		return Family{}, result.Error
	}

	return family, nil
}

// lockWorkshop takes a row-level lock inside tx so capacity checks and the
// writes that depend on them serialize.
func lockWorkshop(tx *gorm.DB, id uint) (Workshop, error) {
	var workshop Workshop
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&workshop, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Workshop{}, ErrWorkshopNotFound
		}
		return Workshop{}, err
	}
	return workshop, nil
}
