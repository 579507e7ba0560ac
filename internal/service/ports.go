package service

import (
	"context"
	"time"

	"github.com/iliyamo/event-attendance/internal/model"
	"github.com/iliyamo/event-attendance/internal/repository"
)

// EventStore reads events owned by the event-management component.
type EventStore interface {
	GetByID(ctx context.Context, id string) (model.Event, error)
}

// UserDirectory resolves users for report targets and presentation.
type UserDirectory interface {
	GetByID(ctx context.Context, id string) (model.User, error)
	Exists(ctx context.Context, id string) (bool, error)
}

// ReservationStore is the durable reservation table.  Upsert and Admit
// must be atomic with respect to the (event, participant) key; Admit must
// additionally run guard and the write as one unit.
type ReservationStore interface {
	Get(ctx context.Context, eventID, participantID string) (model.Reservation, error)
	Upsert(ctx context.Context, eventID, participantID string, status model.ReservationStatus) (model.Reservation, bool, error)
	Admit(ctx context.Context, eventID, participantID string, status model.ReservationStatus, guard repository.AdmitGuard) (model.Reservation, bool, error)
	SetConfirmed(ctx context.Context, eventID, reservationID string, at time.Time) (model.Reservation, error)
	Delete(ctx context.Context, eventID, participantID string) error
	CountOccupying(ctx context.Context, eventID string) (int, error)
	ListForEvent(ctx context.Context, eventID string) ([]model.Reservation, error)
	ListForParticipant(ctx context.Context, participantID string) ([]model.Reservation, error)
	ListOccupying(ctx context.Context, eventID string, confirmed bool) ([]model.Reservation, error)
}

// RatingStore keeps one rating per (rater, event).
type RatingStore interface {
	Upsert(ctx context.Context, in model.Rating) (model.Rating, bool, error)
	ListForEvent(ctx context.Context, eventID string) ([]model.Rating, error)
	SumForHost(ctx context.Context, hostID string) (count int, sum int, err error)
}

// ReportStore appends reports.
type ReportStore interface {
	Create(ctx context.Context, in model.Report) (model.Report, error)
}

// ConfirmationPublisher announces confirmed attendance to downstream
// consumers.  Failures never undo the confirmation.
type ConfirmationPublisher interface {
	PublishConfirmed(ctx context.Context, c model.ConfirmedReservation) error
}
