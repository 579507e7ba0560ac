package service

import "github.com/iliyamo/event-attendance/internal/model"

// CanAdmit is the capacity guard.  It reports whether a request for
// requested may be written given the number of slots already occupied and
// the participant's existing record (nil when absent).
//
// Events without a ceiling admit everything, not_going never consumes a
// slot, and a participant already holding going/maybe keeps their slot when
// switching between the two.  Everyone else needs occupied < capacity.
func CanAdmit(ev model.Event, occupied int, existing *model.Reservation, requested model.ReservationStatus) bool {
	if ev.Capacity == nil || !requested.Occupying() {
		return true
	}
	if existing != nil && existing.Status.Occupying() {
		return true
	}
	return occupied < *ev.Capacity
}

// checkAdmission wraps CanAdmit with the error the caller sees.  It runs
// inside the admitting transaction.
func checkAdmission(ev model.Event, occupied int, existing *model.Reservation, requested model.ReservationStatus) error {
	if ev.Capacity != nil && *ev.Capacity <= 0 && requested.Occupying() {
		return invalid("event capacity must be positive")
	}
	if !CanAdmit(ev, occupied, existing, requested) {
		return errAtCapacity
	}
	return nil
}
