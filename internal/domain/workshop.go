package domain

import "time"

type WorkshopStatus string

const (
	WorkshopActive   WorkshopStatus = "active"
	WorkshopClosed   WorkshopStatus = "closed"
	WorkshopCanceled WorkshopStatus = "canceled"
)

type WorkshopType string

const (
	TypeAtelier                    WorkshopType = "atelier"
	TypeFormationInitiale          WorkshopType = "formation_initiale"
	TypeFormationApprofondissement WorkshopType = "formation_approfondissement"
	TypeFormationAnimation         WorkshopType = "formation_animation"
)

// Default durations per workshop type, in minutes.
var baseDurations = map[WorkshopType]int{
	TypeAtelier:                    180,
	TypeFormationInitiale:          420,
	TypeFormationApprofondissement: 420,
	TypeFormationAnimation:         240,
}

// BaseDuration returns the default duration of the workshop type.
func (t WorkshopType) BaseDuration() time.Duration {
	return time.Duration(baseDurations[t]) * time.Minute
}

func (t WorkshopType) IsFormation() bool {
	switch t {
	case TypeFormationInitiale, TypeFormationApprofondissement, TypeFormationAnimation:
		return true
	}
	return false
}

func (t WorkshopType) IsValid() bool {
	_, ok := baseDurations[t]
	return ok
}

// Family is a top-level taxonomy root grouping workshops and certification
// ladders of one product line.
type Family struct {
	ID   uint   `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

type Workshop struct {
	ID       uint         `json:"id"`
	FamilyID uint         `json:"family_id"`
	Type     WorkshopType `json:"type"`

	Title       string `json:"title"`
	Description string `json:"description"`

	StartAt              time.Time `json:"start_at"`
	EndAt                time.Time `json:"end_at"`
	ExtraDurationMinutes int       `json:"extra_duration_minutes"`

	// Modality: either a physical location, or visio/mural links for remote
	// sessions. The two are mutually exclusive.
	IsRemote  bool   `json:"is_remote"`
	Location  string `json:"location"`
	VisioLink string `json:"visio_link"`
	MuralLink string `json:"mural_link"`

	AudienceNumber       int                  `json:"audience_number"`
	ClassificationStatus ClassificationStatus `json:"classification_status"`
	LifecycleStatus      WorkshopStatus       `json:"lifecycle_status"`

	ModifiedDateFlag     bool `json:"modified_date_flag"`
	ModifiedLocationFlag bool `json:"modified_location_flag"`
	// Monotonic counters bumped on each date/location edit. A participation
	// whose stored counter is behind is unconfirmed for that dimension.
	DateConfirmationVersion     int `json:"date_confirmation_version"`
	LocationConfirmationVersion int `json:"location_confirmation_version"`

	OrganizerID uint `json:"organizer_id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ComputeEndAt derives the end of a workshop. The stored EndAt must always
// equal this value; it changes only through the controlled edit path.
func ComputeEndAt(t WorkshopType, startAt time.Time, extraMinutes int) time.Time {
	return startAt.Add(t.BaseDuration() + time.Duration(extraMinutes)*time.Minute)
}

// RecomputeEndAt re-derives EndAt from the workshop's own fields.
func (w *Workshop) RecomputeEndAt() {
	w.EndAt = ComputeEndAt(w.Type, w.StartAt, w.ExtraDurationMinutes)
}

func (w *Workshop) IsActive() bool {
	return w.LifecycleStatus == WorkshopActive
}

// HasStarted reports whether the workshop start time has passed.
func (w *Workshop) HasStarted(now time.Time) bool {
	return !now.Before(w.StartAt)
}

// HasEnded reports whether the workshop end time has passed. Closing is a
// no-op before this point.
func (w *Workshop) HasEnded(now time.Time) bool {
	return now.After(w.EndAt)
}

// FeeFreeCancelWindow is the delay before start during which a participant
// may still cancel without fee.
const FeeFreeCancelWindow = 72 * time.Hour

// InFeeFreeWindow reports whether a cancellation at `now` is still within
// the fee-free window.
func (w *Workshop) InFeeFreeWindow(now time.Time) bool {
	return w.StartAt.Sub(now) >= FeeFreeCancelWindow
}
