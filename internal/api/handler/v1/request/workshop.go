package request

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

var workshopTypes = []interface{}{
	"atelier", "formation_initiale", "formation_approfondissement", "formation_animation",
}

type CreateWorkshopRequest struct {
	FamilyID             uint      `json:"family_id"`
	Type                 string    `json:"type"`
	Title                string    `json:"title"`
	Description          string    `json:"description"`
	StartAt              time.Time `json:"start_at"`
	ExtraDurationMinutes int       `json:"extra_duration_minutes"`
	IsRemote             bool      `json:"is_remote"`
	Location             string    `json:"location"`
	VisioLink            string    `json:"visio_link"`
	MuralLink            string    `json:"mural_link"`
	AudienceNumber       int       `json:"audience_number"`
}

func (req *CreateWorkshopRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.FamilyID, validation.Required),
		validation.Field(&req.Type, validation.Required, validation.In(workshopTypes...)),
		validation.Field(&req.Title, validation.Required, validation.Length(2, 200)),
		validation.Field(&req.StartAt, validation.Required),
		validation.Field(&req.ExtraDurationMinutes, validation.Min(0)),
		validation.Field(&req.AudienceNumber, validation.Required, validation.Min(1)),
		validation.Field(&req.VisioLink, is.URL),
		validation.Field(&req.MuralLink, is.URL),
	)
}

type UpdateWorkshopRequest struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	AudienceNumber int    `json:"audience_number"`
}

func (req *UpdateWorkshopRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Title, validation.Required, validation.Length(2, 200)),
		validation.Field(&req.AudienceNumber, validation.Required, validation.Min(1)),
	)
}

type RescheduleRequest struct {
	StartAt              time.Time `json:"start_at"`
	ExtraDurationMinutes int       `json:"extra_duration_minutes"`
	// The version the caller last saw; a mismatch means someone else
	// edited the date in between.
	ExpectedVersion int `json:"expected_version"`
}

func (req *RescheduleRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.StartAt, validation.Required),
		validation.Field(&req.ExtraDurationMinutes, validation.Min(0)),
		validation.Field(&req.ExpectedVersion, validation.Min(0)),
	)
}

type RelocateRequest struct {
	IsRemote        bool   `json:"is_remote"`
	Location        string `json:"location"`
	VisioLink       string `json:"visio_link"`
	MuralLink       string `json:"mural_link"`
	ExpectedVersion int    `json:"expected_version"`
}

func (req *RelocateRequest) Validate() error {
	if req.IsRemote {
		return validation.ValidateStruct(
			req,
			validation.Field(&req.VisioLink, validation.Required, is.URL),
			validation.Field(&req.MuralLink, is.URL),
			validation.Field(&req.ExpectedVersion, validation.Min(0)),
		)
	}

	return validation.ValidateStruct(
		req,
		validation.Field(&req.Location, validation.Required, validation.Length(2, 300)),
		validation.Field(&req.ExpectedVersion, validation.Min(0)),
	)
}

type ClassifyRequest struct {
	Audience     string `json:"audience"`
	Organization string `json:"organization"`
	SubAudience  string `json:"sub_audience"`
	Situation    string `json:"situation"`
}

// Validate only checks the vocabulary. Whether the path is complete is the
// resolver's call, not the transport's.
func (req *ClassifyRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Audience, validation.In("grand_public", "pro")),
		validation.Field(&req.Organization, validation.In("asso", "entreprise", "enseignement", "pouvoir_public")),
		validation.Field(&req.SubAudience, validation.In("profs", "eleves", "agents", "elus")),
		validation.Field(&req.Situation, validation.In("interne", "externe")),
	)
}
