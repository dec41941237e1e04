package response

import "github.com/atelierhq/atelier-api/internal/domain"

type RemainingSeatsResponse struct {
	WorkshopID     uint `json:"workshop_id"`
	AudienceNumber int  `json:"audience_number"`
	RemainingSeats int  `json:"remaining_seats"`
}

type ClassificationResponse struct {
	Classification domain.ClassificationStatus `json:"classification"`
	Label          string                      `json:"label"`
	TicketOptions  []domain.TicketOption       `json:"ticket_options"`
}
