package request

import (
	validation "github.com/go-ozzo/ozzo-validation"
)

type RegisterRequest struct {
	TicketType string `json:"ticket_type"`

	// Questionnaire path of the registrant.
	Audience     string `json:"audience"`
	Organization string `json:"organization"`
	SubAudience  string `json:"sub_audience"`
	Situation    string `json:"situation"`
}

func (req *RegisterRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.TicketType, validation.Required, validation.In("normal", "reduit", "gratuit", "pro")),
		validation.Field(&req.Audience, validation.In("grand_public", "pro")),
		validation.Field(&req.Organization, validation.In("asso", "entreprise", "enseignement", "pouvoir_public")),
		validation.Field(&req.SubAudience, validation.In("profs", "eleves", "agents", "elus")),
		validation.Field(&req.Situation, validation.In("interne", "externe")),
	)
}

type ConfirmPaymentRequest struct {
	PaymentMethod string `json:"payment_method"`
}

func (req *ConfirmPaymentRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.PaymentMethod, validation.Required),
	)
}

type RefundRequest struct {
	// Set when the organizer refunds because of a date/location change,
	// which bypasses the normal eligibility window.
	DueToWorkshopChange bool `json:"due_to_workshop_change"`
}

type ExchangeRequest struct {
	TargetWorkshopID uint `json:"target_workshop_id"`
}

func (req *ExchangeRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.TargetWorkshopID, validation.Required),
	)
}

type AttendanceRequest struct {
	Attended bool `json:"attended"`
}
