package models

// Call lifecycle status values published for the booking subsystem.
const (
	CallStatusWaiting    = "waiting"
	CallStatusInProgress = "in_progress"
	CallStatusCompleted  = "completed"
)

// CallInfo is the REST view of a call room's current presence.
type CallInfo struct {
	AppointmentID    string   `json:"appointmentId"`
	Status           string   `json:"status"`
	Participants     []string `json:"participants"`
	ParticipantCount int      `json:"participantCount"`
}
