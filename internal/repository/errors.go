// Package repository holds the MySQL-backed stores and the sentinel errors
// shared with every other store implementation.  Higher layers compare
// against these values with errors.Is to tell a missing row apart from a
// storage fault.
package repository

import (
	"errors"

	"github.com/iliyamo/event-attendance/internal/model"
)

// ErrEventNotFound is returned when the referenced event does not exist.
var ErrEventNotFound = errors.New("event not found")

// ErrUserNotFound is returned when the referenced user does not exist.
var ErrUserNotFound = errors.New("user not found")

// ErrReservationNotFound is returned when no reservation matches the
// requested key.
var ErrReservationNotFound = errors.New("reservation not found")

// ErrNotConfirmable is returned when the owner tries to confirm a
// reservation whose status does not occupy a slot (not_going).
var ErrNotConfirmable = errors.New("reservation is not confirmable")

// AdmitGuard decides, inside the admitting transaction, whether a
// reservation request may be written.  occupied is the number of going/maybe
// records for the event before the write and existing is the caller's
// current record, nil when absent.  A non-nil error aborts the write and is
// returned unchanged from Admit.
type AdmitGuard func(ev model.Event, occupied int, existing *model.Reservation) error
