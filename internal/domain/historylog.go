package domain

import "time"

// LogType identifies the state-changing action behind a history entry.
// Stable values: reporting and the organizer UI filter on them.
type LogType string

const (
	LogWorkshopCreated  LogType = "workshop_created"
	LogWorkshopEdited   LogType = "workshop_edited"
	LogWorkshopCanceled LogType = "workshop_canceled"
	LogWorkshopClosed   LogType = "workshop_closed"
	LogDateChanged      LogType = "date_changed"
	LogLocationChanged  LogType = "location_changed"

	LogParticipantRegistered  LogType = "participant_registered"
	LogParticipantRemoved     LogType = "participant_removed"
	LogParticipantReinscribed LogType = "participant_reinscribed"
	LogParticipantCanceled    LogType = "participant_canceled"
	LogParticipantConfirmed   LogType = "participant_confirmed"
	LogPaymentConfirmed       LogType = "payment_confirmed"
	LogRefundIssued           LogType = "refund_issued"
	LogExchangePerformed      LogType = "exchange_performed"
	LogAttendanceRecorded     LogType = "attendance_recorded"
	LogEmailSent              LogType = "email_sent"
)

// WorkshopHistoryLog is one row of the append-only audit trail. Rows are
// never mutated or deleted.
type WorkshopHistoryLog struct {
	ID         uint    `json:"id"`
	EventID    string  `json:"event_id"`
	WorkshopID uint    `json:"workshop_id"`
	ActorID    uint    `json:"actor_id"`
	Type       LogType `json:"type"`

	Description string `json:"description"`
	// Structured metadata (old/new values, recipient lists…), JSON-encoded.
	Metadata []byte `json:"metadata,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
