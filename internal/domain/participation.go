package domain

import "time"

type ParticipationStatus string

const (
	ParticipationEnAttente ParticipationStatus = "en_attente"
	ParticipationInscrit   ParticipationStatus = "inscrit"
	ParticipationPaye      ParticipationStatus = "paye"
	ParticipationRembourse ParticipationStatus = "rembourse"
	ParticipationEchange   ParticipationStatus = "echange"
	ParticipationAnnule    ParticipationStatus = "annule"
)

type PaymentStatus string

const (
	PaymentNone     PaymentStatus = "none"
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
	PaymentFailed   PaymentStatus = "failed"
)

type ParticipationRole string

const (
	RoleParticipant  ParticipationRole = "participant"
	RoleOrganisateur ParticipationRole = "organisateur"
)

type Participation struct {
	ID         uint `json:"id"`
	WorkshopID uint `json:"workshop_id"`
	UserID     uint `json:"user_id"`

	Role          ParticipationRole   `json:"role"`
	Status        ParticipationStatus `json:"status"`
	PaymentStatus PaymentStatus       `json:"payment_status"`

	TicketType TicketType `json:"ticket_type"`
	// PricePaid is a snapshot taken at registration, in euro cents. It is
	// never recomputed from current pricing rules.
	PricePaid int `json:"price_paid"`
	// PaymentRef is the payment-provider reference of the charge, kept so a
	// later refund can target it.
	PaymentRef string `json:"-"`

	// Set on the replacement participation created by an exchange, pointing
	// back to the row it replaced.
	ExchangeParentParticipationID *uint `json:"exchange_parent_participation_id,omitempty"`

	// Stored confirmation versions. Behind the workshop's current version
	// means "unconfirmed" for that dimension.
	DateConfirmationVersion     int `json:"date_confirmation_version"`
	LocationConfirmationVersion int `json:"location_confirmation_version"`

	ConfirmationDate *time.Time `json:"confirmation_date,omitempty"`
	Attended         *bool      `json:"attended,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Active reports whether the participation still binds the (user, workshop)
// pair for duplicate-registration purposes.
func (p *Participation) Active() bool {
	return p.Status != ParticipationAnnule
}

// HoldsSeat reports whether the participation counts against capacity.
// Only confirmed seats do; en_attente holds no seat.
func (p *Participation) HoldsSeat() bool {
	return p.Status == ParticipationInscrit || p.Status == ParticipationPaye
}

// Terminal reports whether no further status transition is possible.
func (p *Participation) Terminal() bool {
	return p.Status == ParticipationEchange
}

// CanConfirmPayment gates the en_attente → paye transition.
func (p *Participation) CanConfirmPayment() bool {
	return p.Status == ParticipationEnAttente
}

// CanRefund gates the {inscrit, paye} → rembourse transition.
func (p *Participation) CanRefund() bool {
	return p.Status == ParticipationInscrit || p.Status == ParticipationPaye
}

// CanExchange gates the {inscrit, paye} → echange transition.
func (p *Participation) CanExchange() bool {
	return p.Status == ParticipationInscrit || p.Status == ParticipationPaye
}

// CanCancel gates the soft cancel: any non-terminal, non-canceled status.
func (p *Participation) CanCancel() bool {
	return p.Status != ParticipationAnnule && p.Status != ParticipationEchange
}

// CanReinscribe gates the {rembourse, annule} → inscrit transition.
func (p *Participation) CanReinscribe() bool {
	return p.Status == ParticipationRembourse || p.Status == ParticipationAnnule
}

// UnconfirmedDate reports whether the holder still has to acknowledge a
// date change on the workshop.
func (p *Participation) UnconfirmedDate(w *Workshop) bool {
	return p.DateConfirmationVersion < w.DateConfirmationVersion
}

// UnconfirmedLocation is the location counterpart of UnconfirmedDate.
func (p *Participation) UnconfirmedLocation(w *Workshop) bool {
	return p.LocationConfirmationVersion < w.LocationConfirmationVersion
}
