package models

import "encoding/json"

// EventType identifies a signaling event on the wire.
type EventType string

// Client → server events.
const (
	EventJoinCall     EventType = "join-call"
	EventLeaveCall    EventType = "leave-call"
	EventCallOffer    EventType = "call-offer"
	EventCallAnswer   EventType = "call-answer"
	EventICECandidate EventType = "ice-candidate"
	EventCallMessage  EventType = "call-message"
)

// Server → client events. Offer/answer/candidate/chat types are shared
// with the client→server direction; these are the server-only ones.
const (
	EventRoomJoined EventType = "room-joined"
	EventUserJoined EventType = "user-joined"
	EventUserLeft   EventType = "user-left"
	EventCallBusy   EventType = "call-busy"
)

// ClientEvent is a decoded inbound frame. Exactly one of the payload
// fields is meaningful for a given Type; the rest stay zero. Offer,
// answer and candidate bodies are opaque to the server and are never
// parsed beyond this envelope.
type ClientEvent struct {
	Type          EventType       `json:"type"`
	AppointmentID string          `json:"appointmentId"`
	Offer         json.RawMessage `json:"offer,omitempty"`
	Answer        json.RawMessage `json:"answer,omitempty"`
	Candidate     json.RawMessage `json:"candidate,omitempty"`
	Message       string          `json:"message,omitempty"`
	SenderID      string          `json:"senderId,omitempty"`
	SenderName    string          `json:"senderName,omitempty"`
	Timestamp     int64           `json:"timestamp,omitempty"`
}

// ServerEvent is an outbound frame. Fields are populated per Type:
//
//	room-joined    isInitiator, userId
//	user-joined    userId, userRole
//	user-left      userId
//	call-offer     offer, from
//	call-answer    answer, from
//	ice-candidate  candidate, from
//	call-message   message, senderId, senderName, timestamp
//	call-busy      appointmentId
type ServerEvent struct {
	Type          EventType       `json:"type"`
	AppointmentID string          `json:"appointmentId,omitempty"`
	IsInitiator   *bool           `json:"isInitiator,omitempty"`
	UserID        string          `json:"userId,omitempty"`
	UserRole      string          `json:"userRole,omitempty"`
	Offer         json.RawMessage `json:"offer,omitempty"`
	Answer        json.RawMessage `json:"answer,omitempty"`
	Candidate     json.RawMessage `json:"candidate,omitempty"`
	From          string          `json:"from,omitempty"`
	Message       string          `json:"message,omitempty"`
	SenderID      string          `json:"senderId,omitempty"`
	SenderName    string          `json:"senderName,omitempty"`
	Timestamp     int64           `json:"timestamp,omitempty"`
}
