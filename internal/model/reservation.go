package model

import "time"

// ReservationStatus is the attendance intent a participant declares.
type ReservationStatus string

const (
	StatusGoing    ReservationStatus = "going"
	StatusMaybe    ReservationStatus = "maybe"
	StatusNotGoing ReservationStatus = "not_going"
)

// Valid reports whether s is one of the known statuses.
func (s ReservationStatus) Valid() bool {
	switch s {
	case StatusGoing, StatusMaybe, StatusNotGoing:
		return true
	}
	return false
}

// Occupying reports whether a reservation in this status consumes one
// unit of event capacity.
func (s ReservationStatus) Occupying() bool {
	return s == StatusGoing || s == StatusMaybe
}

// Reservation records one participant's relationship to one event.  The
// pair (EventID, ParticipantID) is unique; repeated requests mutate the
// same record.
//
// Fields:
//
//	ID            – primary key identifier.
//	EventID       – event being attended.
//	ParticipantID – user who made the reservation.
//	Status        – going, maybe or not_going.
//	HostConfirmed – set by the event owner; only ever true for
//	                going/maybe.
//	ConfirmedAt   – when the owner confirmed, nil otherwise.
//	CreatedAt     – creation timestamp.
//	UpdatedAt     – last update timestamp.
type Reservation struct {
	ID            string            `json:"id"`             // reservations.id
	EventID       string            `json:"event_id"`       // reservations.event_id
	ParticipantID string            `json:"participant_id"` // reservations.participant_id
	Status        ReservationStatus `json:"status"`         // reservations.status
	HostConfirmed bool              `json:"host_confirmed"` // reservations.host_confirmed
	ConfirmedAt   *time.Time        `json:"confirmed_at"`   // reservations.confirmed_at (nullable)
	CreatedAt     time.Time         `json:"created_at"`     // reservations.created_at
	UpdatedAt     time.Time         `json:"updated_at"`     // reservations.updated_at
}

// ConfirmedReservation is a reservation joined with its participant and
// event for presentation after the owner confirms it.
type ConfirmedReservation struct {
	Reservation
	Participant User  `json:"participant"`
	Event       Event `json:"event"`
}
