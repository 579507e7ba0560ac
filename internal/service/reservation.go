// Package service implements attendance admission, host confirmation and
// attendance-gated feedback on top of the storage contracts in ports.go.
package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/iliyamo/event-attendance/internal/model"
	"github.com/iliyamo/event-attendance/internal/repository"
)

// ReservationService runs the reservation lifecycle: admission against the
// capacity ceiling, cancellation, owner confirmation and the owner's
// pending/confirmed views.
type ReservationService struct {
	events       EventStore
	users        UserDirectory
	reservations ReservationStore
	opts         options
}

// NewReservationService wires the service to its stores.
func NewReservationService(events EventStore, users UserDirectory, reservations ReservationStore, opts ...Option) *ReservationService {
	if events == nil || users == nil || reservations == nil {
		panic("nil store passed to NewReservationService")
	}
	return &ReservationService{
		events:       events,
		users:        users,
		reservations: reservations,
		opts:         buildOptions("reservations", opts),
	}
}

// RequestReservation creates or updates the participant's reservation.  An
// empty status means going.  Every successful call clears host
// confirmation.  The bool result is true when the record was created.
func (s *ReservationService) RequestReservation(ctx context.Context, eventID, participantID string, status model.ReservationStatus) (model.Reservation, bool, error) {
	if participantID == "" {
		return model.Reservation{}, false, errUnauthenticated
	}
	if status == "" {
		status = model.StatusGoing
	}
	if !status.Valid() {
		return model.Reservation{}, false, invalid("status must be one of going, maybe, not_going")
	}
	ev, err := s.loadEvent(ctx, eventID)
	if err != nil {
		return model.Reservation{}, false, err
	}

	var (
		res     model.Reservation
		created bool
	)
	err = s.opts.storage(ctx, func() error {
		var err error
		if ev.Capacity == nil {
			res, created, err = s.reservations.Upsert(ctx, eventID, participantID, status)
			return err
		}
		res, created, err = s.reservations.Admit(ctx, eventID, participantID, status,
			func(locked model.Event, occupied int, existing *model.Reservation) error {
				return checkAdmission(locked, occupied, existing, status)
			})
		return err
	})
	switch {
	case err == nil:
	case errors.Is(err, ErrCapacityExceeded):
		s.opts.metrics.ReservationRejected("capacity")
		s.opts.log.Info("reservation rejected: event at capacity",
			zap.String("event_id", eventID), zap.String("participant_id", participantID))
		return model.Reservation{}, false, err
	case errors.Is(err, repository.ErrEventNotFound):
		return model.Reservation{}, false, notFound("event not found", err)
	default:
		if !isClassified(err) {
			s.opts.log.Error("reservation write failed", zap.String("event_id", eventID), zap.Error(err))
		}
		return model.Reservation{}, false, err
	}

	s.opts.metrics.ReservationAdmitted(string(status))
	s.opts.log.Debug("reservation stored",
		zap.String("event_id", eventID),
		zap.String("participant_id", participantID),
		zap.String("status", string(status)),
		zap.Bool("created", created))
	return res, created, nil
}

// CancelReservation removes the participant's reservation.  Cancelling a
// reservation that does not exist succeeds.
func (s *ReservationService) CancelReservation(ctx context.Context, eventID, participantID string) error {
	if participantID == "" {
		return errUnauthenticated
	}
	err := s.opts.storage(ctx, func() error {
		return s.reservations.Delete(ctx, eventID, participantID)
	})
	switch {
	case err == nil:
		s.opts.metrics.ReservationCancelled()
		return nil
	case errors.Is(err, repository.ErrReservationNotFound):
		return nil
	default:
		if !isClassified(err) {
			s.opts.log.Error("reservation delete failed", zap.String("event_id", eventID), zap.Error(err))
		}
		return err
	}
}

// ConfirmReservation lets the event owner acknowledge a going/maybe
// reservation.  The result is joined with the participant and the event.
func (s *ReservationService) ConfirmReservation(ctx context.Context, eventID, reservationID, actorID string) (model.ConfirmedReservation, error) {
	if actorID == "" {
		return model.ConfirmedReservation{}, errUnauthenticated
	}
	ev, err := s.loadEvent(ctx, eventID)
	if err != nil {
		return model.ConfirmedReservation{}, err
	}
	if !ev.IsOwner(actorID) {
		return model.ConfirmedReservation{}, newError(ErrForbidden, "only the event owner can confirm reservations", nil)
	}

	var res model.Reservation
	err = s.opts.storage(ctx, func() error {
		var err error
		res, err = s.reservations.SetConfirmed(ctx, eventID, reservationID, s.opts.now().UTC())
		return err
	})
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrReservationNotFound):
		return model.ConfirmedReservation{}, notFound("reservation not found", err)
	case errors.Is(err, repository.ErrNotConfirmable):
		return model.ConfirmedReservation{}, newError(ErrValidation, "only going or maybe reservations can be confirmed", err)
	default:
		if !isClassified(err) {
			s.opts.log.Error("reservation confirm failed", zap.String("reservation_id", reservationID), zap.Error(err))
		}
		return model.ConfirmedReservation{}, err
	}

	out := model.ConfirmedReservation{
		Reservation: res,
		Participant: s.lookupUser(ctx, res.ParticipantID),
		Event:       ev,
	}
	s.opts.metrics.ReservationConfirmed()
	s.opts.log.Info("reservation confirmed",
		zap.String("event_id", eventID),
		zap.String("reservation_id", res.ID),
		zap.String("participant_id", res.ParticipantID))

	if s.opts.publisher != nil {
		if err := s.opts.publisher.PublishConfirmed(ctx, out); err != nil {
			s.opts.log.Warn("publish confirmation failed", zap.String("reservation_id", res.ID), zap.Error(err))
		}
	}
	return out, nil
}

// ListPending returns going/maybe reservations the owner has not yet
// confirmed, newest request first.
func (s *ReservationService) ListPending(ctx context.Context, eventID, actorID string) ([]model.Reservation, error) {
	return s.listOccupying(ctx, eventID, actorID, false)
}

// ListConfirmed returns confirmed reservations, newest confirmation first.
func (s *ReservationService) ListConfirmed(ctx context.Context, eventID, actorID string) ([]model.Reservation, error) {
	return s.listOccupying(ctx, eventID, actorID, true)
}

func (s *ReservationService) listOccupying(ctx context.Context, eventID, actorID string, confirmed bool) ([]model.Reservation, error) {
	if actorID == "" {
		return nil, errUnauthenticated
	}
	ev, err := s.loadEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !ev.IsOwner(actorID) {
		return nil, newError(ErrForbidden, "only the event owner can view this list", nil)
	}
	var out []model.Reservation
	err = s.opts.storage(ctx, func() error {
		var err error
		out, err = s.reservations.ListOccupying(ctx, eventID, confirmed)
		return err
	})
	return out, err
}

// ListForEvent returns every reservation of an existing event.
func (s *ReservationService) ListForEvent(ctx context.Context, eventID string) ([]model.Reservation, error) {
	if _, err := s.loadEvent(ctx, eventID); err != nil {
		return nil, err
	}
	var out []model.Reservation
	err := s.opts.storage(ctx, func() error {
		var err error
		out, err = s.reservations.ListForEvent(ctx, eventID)
		return err
	})
	return out, err
}

// ListForParticipant returns every reservation a participant holds.
func (s *ReservationService) ListForParticipant(ctx context.Context, participantID string) ([]model.Reservation, error) {
	var out []model.Reservation
	err := s.opts.storage(ctx, func() error {
		var err error
		out, err = s.reservations.ListForParticipant(ctx, participantID)
		return err
	})
	return out, err
}

// Occupancy reports the event's ceiling next to the number of slots
// currently taken.
func (s *ReservationService) Occupancy(ctx context.Context, eventID string) (model.Occupancy, error) {
	ev, err := s.loadEvent(ctx, eventID)
	if err != nil {
		return model.Occupancy{}, err
	}
	out := model.Occupancy{EventID: ev.ID, Capacity: ev.Capacity}
	err = s.opts.storage(ctx, func() error {
		var err error
		out.Occupied, err = s.reservations.CountOccupying(ctx, eventID)
		return err
	})
	if err != nil {
		return model.Occupancy{}, err
	}
	return out, nil
}

func (s *ReservationService) loadEvent(ctx context.Context, eventID string) (model.Event, error) {
	return loadEvent(ctx, s.opts, s.events, eventID)
}

// lookupUser resolves a participant for presentation.  A missing directory
// entry is not an error here; the id alone is returned.
func (s *ReservationService) lookupUser(ctx context.Context, id string) model.User {
	var u model.User
	err := s.opts.storage(ctx, func() error {
		var err error
		u, err = s.users.GetByID(ctx, id)
		return err
	})
	if err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			s.opts.log.Warn("participant lookup failed", zap.String("user_id", id), zap.Error(err))
		}
		return model.User{ID: id}
	}
	return u
}

func loadEvent(ctx context.Context, o options, events EventStore, eventID string) (model.Event, error) {
	if eventID == "" {
		return model.Event{}, notFound("event not found", nil)
	}
	var ev model.Event
	err := o.storage(ctx, func() error {
		var err error
		ev, err = events.GetByID(ctx, eventID)
		return err
	})
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return model.Event{}, notFound("event not found", err)
		}
		return model.Event{}, err
	}
	return ev, nil
}

// isClassified reports whether err already belongs to the service taxonomy.
func isClassified(err error) bool {
	var e *Error
	return errors.As(err, &e)
}
