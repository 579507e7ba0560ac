// Package queue defines message payloads exchanged over the message broker.
package queue

import (
	"time"

	"github.com/iliyamo/event-attendance/internal/model"
)

// ConfirmedQueueName is the durable queue confirmed attendance is published to.
const ConfirmedQueueName = "attendance.confirmed"

// AttendanceConfirmedEvent is published when an event owner confirms a
// reservation.  It carries enough for downstream consumers to log or notify
// without querying the primary database.
type AttendanceConfirmedEvent struct {
	ReservationID   string `json:"reservation_id"`
	EventID         string `json:"event_id"`
	EventTitle      string `json:"event_title"`
	HostID          string `json:"host_id"`
	ParticipantID   string `json:"participant_id"`
	ParticipantName string `json:"participant_name"`
	Status          string `json:"status"`
	ConfirmedAt     string `json:"confirmed_at"`
}

// NewAttendanceConfirmedEvent flattens a confirmed reservation into the
// wire payload.
func NewAttendanceConfirmedEvent(c model.ConfirmedReservation) AttendanceConfirmedEvent {
	ev := AttendanceConfirmedEvent{
		ReservationID:   c.ID,
		EventID:         c.EventID,
		EventTitle:      c.Event.Title,
		HostID:          c.Event.OwnerID,
		ParticipantID:   c.ParticipantID,
		ParticipantName: c.Participant.DisplayName,
		Status:          string(c.Status),
	}
	if c.ConfirmedAt != nil {
		ev.ConfirmedAt = c.ConfirmedAt.UTC().Format(time.RFC3339)
	}
	return ev
}
