package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

var (
	ErrParticipationNotFound = errors.New("participation not found")
	ErrDuplicateRegistration = errors.New("user already registered for this workshop")
	ErrCapacityExceeded      = errors.New("workshop is fully booked")
	ErrInvalidState          = errors.New("transition not permitted from current status")
	ErrPaymentPending        = errors.New("participation holds an unresolved payment")
	ErrTargetFull            = errors.New("target workshop is fully booked")
	ErrSameWorkshop          = errors.New("source and target workshops are identical")
	ErrConflictOrUnavailable = errors.New("conflicting concurrent write, reload and retry")
)

type Participation struct {
	ID         uint     `gorm:"primaryKey"`
	WorkshopID uint     `gorm:"not null;index:idx_participations_workshop_user"`
	Workshop   Workshop `gorm:"foreignKey:WorkshopID"`
	UserID     uint     `gorm:"not null;index:idx_participations_workshop_user"`
	User       User     `gorm:"foreignKey:UserID"`

	Role          string `gorm:"not null;default:'participant'"`
	Status        string `gorm:"not null;index"`
	PaymentStatus string `gorm:"not null;default:'none'"`

	TicketType string `gorm:"not null"`
	PricePaid  int    `gorm:"not null;default:0"`
	// Payment-provider reference of the charge, kept for refunds.
	PaymentRef string

	ExchangeParentParticipationID *uint

	DateConfirmationVersion     int `gorm:"default:0"`
	LocationConfirmationVersion int `gorm:"default:0"`

	ConfirmationDate *time.Time
	Attended         *bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

type ParticipationDAO struct {
	db *gorm.DB
}

func NewParticipationDAO(db *gorm.DB) *ParticipationDAO {
	return &ParticipationDAO{
		db: db,
	}
}

// countSeats counts the confirmed attendee seats inside tx. Organizer rows
// never consume capacity.
func countSeats(tx *gorm.DB, workshopID uint) (int, error) {
	var seats int64
	err := tx.Model(&Participation{}).
		Where("workshop_id = ? AND role = ? AND status IN ?",
			workshopID, "participant", []string{"inscrit", "paye"}).
		Count(&seats).Error
	return int(seats), err
}

// Register inserts a participation behind a row-level lock on the workshop.
// The duplicate check, the seat count and the insert run in one
// transaction, so two concurrent registrations for the last seat serialize
// and exactly one succeeds.
func (d *ParticipationDAO) Register(ctx context.Context, participation Participation) (Participation, error) {
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		workshop, err := lockWorkshop(tx, participation.WorkshopID)
		if err != nil {
			return err
		}

		var active int64
		err = tx.Model(&Participation{}).
			Where("workshop_id = ? AND user_id = ? AND status <> ?",
				participation.WorkshopID, participation.UserID, "annule").
			Count(&active).Error
		if err != nil {
			return err
		}
		if active > 0 {
			return ErrDuplicateRegistration
		}

		if participation.Role == "participant" {
			seats, err := countSeats(tx, participation.WorkshopID)
			if err != nil {
				return err
			}
			if seats >= workshop.AudienceNumber {
				return ErrCapacityExceeded
			}
		}

		// New registrations start confirmed against the workshop's current
		// versions; only later edits put them behind.
		participation.DateConfirmationVersion = workshop.DateConfirmationVersion
		participation.LocationConfirmationVersion = workshop.LocationConfirmationVersion

		return tx.Create(&participation).Error
	})
	if err != nil {
		return Participation{}, err
	}

	return participation, nil
}

func (d *ParticipationDAO) FindByID(ctx context.Context, id uint) (Participation, error) {
	var participation Participation

	result := d.db.WithContext(ctx).First(&participation, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Participation{}, ErrParticipationNotFound
		}

		return Participation{}, result.Error
	}

	return participation, nil
}

func (d *ParticipationDAO) FindByWorkshop(ctx context.Context, workshopID uint) ([]Participation, error) {
	var participations []Participation

	result := d.db.WithContext(ctx).
		Where("workshop_id = ?", workshopID).
		Order("created_at ASC").
		Find(&participations)
	if result.Error != nil {
		return nil, result.Error
	}

	return participations, nil
}

func (d *ParticipationDAO) FindByUser(ctx context.Context, userID uint) ([]Participation, error) {
	var participations []Participation

	result := d.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&participations)
	if result.Error != nil {
		return nil, result.Error
	}

	return participations, nil
}

// FindFormationsAttended returns the formation type codes the user holds a
// paid-or-registered participation on, for closed formations only.
func (d *ParticipationDAO) FindFormationsAttended(ctx context.Context, userID uint) ([]string, error) {
	var types []string

	result := d.db.WithContext(ctx).
		Model(&Participation{}).
		Distinct("workshops.type").
		Joins("JOIN workshops ON workshops.id = participations.workshop_id").
		Where("participations.user_id = ? AND participations.status IN ?", userID, []string{"inscrit", "paye"}).
		Where("workshops.lifecycle_status = ? AND workshops.type <> ?", "closed", "atelier").
		Pluck("workshops.type", &types)
	if result.Error != nil {
		return nil, result.Error
	}

	return types, nil
}

// transition performs a read-modify-write as a single conditional update:
// the row only moves when its stored status is still one of `from`. A miss
// is diagnosed against the current row so callers can tell an illegal
// transition from a concurrent writer.
func (d *ParticipationDAO) transition(ctx context.Context, id uint, from []string, updates map[string]any) (Participation, error) {
	var updated Participation

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&Participation{}).
			Where("id = ? AND status IN ?", id, from).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			var current Participation
			if err := tx.First(&current, id).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrParticipationNotFound
				}
				return err
			}
			for _, s := range from {
				if current.Status == s {
					return ErrConflictOrUnavailable
				}
			}
			return ErrInvalidState
		}

		return tx.First(&updated, id).Error
	})
	if err != nil {
		return Participation{}, err
	}

	return updated, nil
}

// ConfirmPayment moves en_attente → paye, stamps the confirmation date and
// stores the provider reference of the charge.
func (d *ParticipationDAO) ConfirmPayment(ctx context.Context, id uint, when time.Time, paymentRef string) (Participation, error) {
	return d.transition(ctx, id, []string{"en_attente"}, map[string]any{
		"status":            "paye",
		"payment_status":    "paid",
		"confirmation_date": when,
		"payment_ref":       paymentRef,
	})
}

// Refund moves {inscrit, paye} → rembourse.
func (d *ParticipationDAO) Refund(ctx context.Context, id uint) (Participation, error) {
	return d.transition(ctx, id, []string{"inscrit", "paye"}, map[string]any{
		"status":         "rembourse",
		"payment_status": "refunded",
	})
}

// Cancel soft-cancels any non-terminal participation. Payment state is not
// touched; refunding is a separate explicit action.
func (d *ParticipationDAO) Cancel(ctx context.Context, id uint) (Participation, error) {
	return d.transition(ctx, id, []string{"en_attente", "inscrit", "paye", "rembourse"}, map[string]any{
		"status": "annule",
	})
}

// Reinscribe moves {rembourse, annule} → inscrit and resets payment state.
// Price tracking is left untouched for audit.
func (d *ParticipationDAO) Reinscribe(ctx context.Context, id uint) (Participation, error) {
	return d.transition(ctx, id, []string{"rembourse", "annule"}, map[string]any{
		"status":         "inscrit",
		"payment_status": "none",
	})
}

// Exchange terminates the source row and creates its replacement on the
// target workshop in one transaction. The target's capacity is checked
// under a row lock; ticket type and price are carried over verbatim.
func (d *ParticipationDAO) Exchange(ctx context.Context, sourceID, targetWorkshopID uint) (Participation, error) {
	var replacement Participation

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var source Participation
		if err := tx.First(&source, sourceID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrParticipationNotFound
			}
			return err
		}
		if source.WorkshopID == targetWorkshopID {
			return ErrSameWorkshop
		}

		target, err := lockWorkshop(tx, targetWorkshopID)
		if err != nil {
			return err
		}

		seats, err := countSeats(tx, targetWorkshopID)
		if err != nil {
			return err
		}
		if seats >= target.AudienceNumber {
			return ErrTargetFull
		}

		result := tx.Model(&Participation{}).
			Where("id = ? AND status IN ?", sourceID, []string{"inscrit", "paye"}).
			Update("status", "echange")
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrInvalidState
		}

		replacement = Participation{
			WorkshopID:                    targetWorkshopID,
			UserID:                        source.UserID,
			Role:                          source.Role,
			Status:                        source.Status,
			PaymentStatus:                 source.PaymentStatus,
			TicketType:                    source.TicketType,
			PricePaid:                     source.PricePaid,
			PaymentRef:                    source.PaymentRef,
			ExchangeParentParticipationID: &source.ID,
			DateConfirmationVersion:       target.DateConfirmationVersion,
			LocationConfirmationVersion:   target.LocationConfirmationVersion,
			ConfirmationDate:              source.ConfirmationDate,
		}

		return tx.Create(&replacement).Error
	})
	if err != nil {
		return Participation{}, err
	}

	return replacement, nil
}

// Delete removes the row from the roster entirely. A paid, unrefunded row
// is protected: the caller must refund first.
func (d *ParticipationDAO) Delete(ctx context.Context, id uint) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current Participation
		if err := tx.First(&current, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrParticipationNotFound
			}
			return err
		}
		if current.PaymentStatus == "paid" && current.Status != "rembourse" {
			return ErrPaymentPending
		}

		return tx.Delete(&Participation{}, id).Error
	})
}

// ConfirmDate advances the stored date confirmation version to the
// workshop's current one. Confirmation is per participant, per dimension.
func (d *ParticipationDAO) ConfirmDate(ctx context.Context, id, workshopID uint) (Participation, error) {
	return d.confirmDimension(ctx, id, workshopID, "date_confirmation_version")
}

// ConfirmLocation is the location counterpart of ConfirmDate.
func (d *ParticipationDAO) ConfirmLocation(ctx context.Context, id, workshopID uint) (Participation, error) {
	return d.confirmDimension(ctx, id, workshopID, "location_confirmation_version")
}

func (d *ParticipationDAO) confirmDimension(ctx context.Context, id, workshopID uint, column string) (Participation, error) {
	var updated Participation

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var workshop Workshop
		if err := tx.First(&workshop, workshopID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrWorkshopNotFound
			}
			return err
		}

		version := workshop.DateConfirmationVersion
		if column == "location_confirmation_version" {
			version = workshop.LocationConfirmationVersion
		}

		result := tx.Model(&Participation{}).
			Where("id = ? AND workshop_id = ?", id, workshopID).
			Update(column, version)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrParticipationNotFound
		}

		return tx.First(&updated, id).Error
	})
	if err != nil {
		return Participation{}, err
	}

	return updated, nil
}

// SetAttendance records attendance once the workshop has ended.
func (d *ParticipationDAO) SetAttendance(ctx context.Context, id uint, attended bool, now time.Time) (Participation, error) {
	var updated Participation

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var participation Participation
		if err := tx.First(&participation, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrParticipationNotFound
			}
			return err
		}

		var workshop Workshop
		if err := tx.First(&workshop, participation.WorkshopID).Error; err != nil {
			return err
		}
		if now.Before(workshop.EndAt) {
			return ErrWorkshopNotEnded
		}

		result := tx.Model(&Participation{}).
			Where("id = ?", id).
			Update("attended", attended)
		if result.Error != nil {
			return result.Error
		}

		return tx.First(&updated, id).Error
	})
	if err != nil {
		return Participation{}, err
	}

	return updated, nil
}
