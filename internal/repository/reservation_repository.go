package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/event-attendance/internal/model"
)

// ReservationRepo persists reservations in the reservations table.  The
// table carries UNIQUE(event_id, participant_id); every write for a pair
// goes through INSERT ... ON DUPLICATE KEY UPDATE so concurrent requests
// for the same pair collapse into one row.  All timestamps are UTC.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

const reservationColumns = `id, event_id, participant_id, status, host_confirmed, confirmed_at, created_at, updated_at`

const upsertReservation = `INSERT INTO reservations (id, event_id, participant_id, status, host_confirmed, confirmed_at, created_at, updated_at)
VALUES (?, ?, ?, ?, FALSE, NULL, ?, ?)
ON DUPLICATE KEY UPDATE status = VALUES(status), host_confirmed = FALSE, confirmed_at = NULL, updated_at = VALUES(updated_at)`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservation(row rowScanner) (model.Reservation, error) {
	var (
		res         model.Reservation
		status      string
		confirmedAt sql.NullTime
	)
	if err := row.Scan(&res.ID, &res.EventID, &res.ParticipantID, &status,
		&res.HostConfirmed, &confirmedAt, &res.CreatedAt, &res.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Reservation{}, ErrReservationNotFound
		}
		return model.Reservation{}, err
	}
	res.Status = model.ReservationStatus(status)
	if confirmedAt.Valid {
		t := confirmedAt.Time.UTC()
		res.ConfirmedAt = &t
	}
	return res, nil
}

// Get returns the reservation for the (event, participant) pair or
// ErrReservationNotFound.
func (r *ReservationRepo) Get(ctx context.Context, eventID, participantID string) (model.Reservation, error) {
	const op = "repository.ReservationRepo.Get"
	const q = `SELECT ` + reservationColumns + ` FROM reservations WHERE event_id = ? AND participant_id = ?`
	res, err := scanReservation(r.db.QueryRowContext(ctx, q, eventID, participantID))
	if err != nil {
		return model.Reservation{}, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

// getTx reads the pair inside tx, optionally locking the row.
func getTx(ctx context.Context, tx *sql.Tx, eventID, participantID string, lock bool) (model.Reservation, error) {
	q := `SELECT ` + reservationColumns + ` FROM reservations WHERE event_id = ? AND participant_id = ?`
	if lock {
		q += ` FOR UPDATE`
	}
	return scanReservation(tx.QueryRowContext(ctx, q, eventID, participantID))
}

// countOccupyingTx counts going/maybe reservations for the event inside tx.
func countOccupyingTx(ctx context.Context, tx *sql.Tx, eventID string) (int, error) {
	const q = `SELECT COUNT(*) FROM reservations WHERE event_id = ? AND status IN ('going', 'maybe')`
	var n int
	if err := tx.QueryRowContext(ctx, q, eventID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// upsertTx writes the pair with a fresh status and clears any host
// confirmation.  It reports whether a new row was inserted: MySQL returns
// one affected row for an insert and two for an update.
func upsertTx(ctx context.Context, tx *sql.Tx, eventID, participantID string, status model.ReservationStatus, now time.Time) (bool, error) {
	result, err := tx.ExecContext(ctx, upsertReservation, uuid.NewString(), eventID, participantID, string(status), now, now)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Upsert creates or updates the reservation for the pair without any
// capacity check.  It is used for events without a ceiling.  The second
// return value is true when the row was created.
func (r *ReservationRepo) Upsert(ctx context.Context, eventID, participantID string, status model.ReservationStatus) (model.Reservation, bool, error) {
	const op = "repository.ReservationRepo.Upsert"
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Reservation{}, false, fmt.Errorf("%s: begin: %w", op, err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	created, err := upsertTx(ctx, tx, eventID, participantID, status, time.Now().UTC())
	if err != nil {
		return model.Reservation{}, false, fmt.Errorf("%s: %w", op, err)
	}
	res, err := getTx(ctx, tx, eventID, participantID, false)
	if err != nil {
		return model.Reservation{}, false, fmt.Errorf("%s: %w", op, err)
	}
	if err := tx.Commit(); err != nil {
		return model.Reservation{}, false, fmt.Errorf("%s: commit: %w", op, err)
	}
	committed = true
	return res, created, nil
}

// Admit runs the capacity decision and the write as one transaction.  The
// event row is locked first so concurrent admissions for the same event
// serialize; the participant's current record and the occupancy count are
// then read under that lock and handed to guard.  If guard returns an
// error nothing is written and that error is returned as is.
func (r *ReservationRepo) Admit(ctx context.Context, eventID, participantID string, status model.ReservationStatus, guard AdmitGuard) (model.Reservation, bool, error) {
	const op = "repository.ReservationRepo.Admit"
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Reservation{}, false, fmt.Errorf("%s: begin: %w", op, err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	ev, err := lockEventTx(ctx, tx, eventID)
	if err != nil {
		return model.Reservation{}, false, fmt.Errorf("%s: %w", op, err)
	}
	var existing *model.Reservation
	cur, err := getTx(ctx, tx, eventID, participantID, true)
	switch {
	case err == nil:
		existing = &cur
	case errors.Is(err, ErrReservationNotFound):
	default:
		return model.Reservation{}, false, fmt.Errorf("%s: %w", op, err)
	}
	occupied, err := countOccupyingTx(ctx, tx, eventID)
	if err != nil {
		return model.Reservation{}, false, fmt.Errorf("%s: count: %w", op, err)
	}
	if guard != nil {
		if err := guard(ev, occupied, existing); err != nil {
			return model.Reservation{}, false, err
		}
	}

	if _, err := upsertTx(ctx, tx, eventID, participantID, status, time.Now().UTC()); err != nil {
		return model.Reservation{}, false, fmt.Errorf("%s: %w", op, err)
	}
	res, err := getTx(ctx, tx, eventID, participantID, false)
	if err != nil {
		return model.Reservation{}, false, fmt.Errorf("%s: %w", op, err)
	}
	if err := tx.Commit(); err != nil {
		return model.Reservation{}, false, fmt.Errorf("%s: commit: %w", op, err)
	}
	committed = true
	return res, existing == nil, nil
}

// SetConfirmed marks a going/maybe reservation as confirmed by the host.
// The row is re-read under lock so a cancellation that committed first is
// reported as ErrReservationNotFound.  A not_going row yields
// ErrNotConfirmable.
func (r *ReservationRepo) SetConfirmed(ctx context.Context, eventID, reservationID string, at time.Time) (model.Reservation, error) {
	const op = "repository.ReservationRepo.SetConfirmed"
	const sel = `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ? AND event_id = ?`
	const upd = `UPDATE reservations SET host_confirmed = TRUE, confirmed_at = ?, updated_at = ? WHERE id = ?`

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Reservation{}, fmt.Errorf("%s: begin: %w", op, err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	cur, err := scanReservation(tx.QueryRowContext(ctx, sel+` FOR UPDATE`, reservationID, eventID))
	if err != nil {
		return model.Reservation{}, fmt.Errorf("%s: %w", op, err)
	}
	if !cur.Status.Occupying() {
		return model.Reservation{}, fmt.Errorf("%s: %w", op, ErrNotConfirmable)
	}
	at = at.UTC()
	if _, err := tx.ExecContext(ctx, upd, at, at, reservationID); err != nil {
		return model.Reservation{}, fmt.Errorf("%s: %w", op, err)
	}
	res, err := scanReservation(tx.QueryRowContext(ctx, sel, reservationID, eventID))
	if err != nil {
		return model.Reservation{}, fmt.Errorf("%s: %w", op, err)
	}
	if err := tx.Commit(); err != nil {
		return model.Reservation{}, fmt.Errorf("%s: commit: %w", op, err)
	}
	committed = true
	return res, nil
}

// Delete hard-deletes the pair.  ErrReservationNotFound is returned when
// nothing was removed.
func (r *ReservationRepo) Delete(ctx context.Context, eventID, participantID string) error {
	const op = "repository.ReservationRepo.Delete"
	result, err := r.db.ExecContext(ctx, `DELETE FROM reservations WHERE event_id = ? AND participant_id = ?`, eventID, participantID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, ErrReservationNotFound)
	}
	return nil
}

// CountOccupying returns the number of going/maybe reservations for the
// event.  The value is advisory outside of Admit.
func (r *ReservationRepo) CountOccupying(ctx context.Context, eventID string) (int, error) {
	const op = "repository.ReservationRepo.CountOccupying"
	const q = `SELECT COUNT(*) FROM reservations WHERE event_id = ? AND status IN ('going', 'maybe')`
	var n int
	if err := r.db.QueryRowContext(ctx, q, eventID).Scan(&n); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

// ListForEvent returns every reservation of the event, oldest first.
func (r *ReservationRepo) ListForEvent(ctx context.Context, eventID string) ([]model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations WHERE event_id = ? ORDER BY created_at ASC, id ASC`
	return r.list(ctx, "repository.ReservationRepo.ListForEvent", q, eventID)
}

// ListForParticipant returns every reservation held by the participant,
// newest first.
func (r *ReservationRepo) ListForParticipant(ctx context.Context, participantID string) ([]model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations WHERE participant_id = ? ORDER BY created_at DESC, id ASC`
	return r.list(ctx, "repository.ReservationRepo.ListForParticipant", q, participantID)
}

// ListOccupying returns going/maybe reservations of the event filtered by
// confirmation state.  Unconfirmed rows come newest request first,
// confirmed rows newest confirmation first.
func (r *ReservationRepo) ListOccupying(ctx context.Context, eventID string, confirmed bool) ([]model.Reservation, error) {
	const base = `SELECT ` + reservationColumns + ` FROM reservations
                  WHERE event_id = ? AND status IN ('going', 'maybe') AND host_confirmed = ?`
	q := base + ` ORDER BY updated_at DESC, id ASC`
	if confirmed {
		q = base + ` ORDER BY confirmed_at DESC, id ASC`
	}
	return r.list(ctx, "repository.ReservationRepo.ListOccupying", q, eventID, confirmed)
}

func (r *ReservationRepo) list(ctx context.Context, op, q string, args ...any) ([]model.Reservation, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()
	out := []model.Reservation{}
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}
