package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/event-attendance/internal/model"
)

// EventRepo reads events owned by the event-management component.  This
// service never writes event rows.
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo returns an EventRepo bound to db.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

const selectEvent = `SELECT id, owner_id, title, capacity FROM events WHERE id = ?`

// GetByID loads the event with the given id or ErrEventNotFound.
func (r *EventRepo) GetByID(ctx context.Context, id string) (model.Event, error) {
	const op = "repository.EventRepo.GetByID"
	ev, err := scanEvent(r.db.QueryRowContext(ctx, selectEvent, id))
	if err != nil {
		return model.Event{}, fmt.Errorf("%s: %w", op, err)
	}
	return ev, nil
}

// lockEventTx loads an event and takes a row lock on it for the rest of the
// transaction.  Admission requests for the same event queue up behind this
// lock, which keeps the occupancy count stable until commit.
func lockEventTx(ctx context.Context, tx *sql.Tx, id string) (model.Event, error) {
	return scanEvent(tx.QueryRowContext(ctx, selectEvent+` FOR UPDATE`, id))
}

func scanEvent(row *sql.Row) (model.Event, error) {
	var (
		ev       model.Event
		title    sql.NullString
		capacity sql.NullInt64
	)
	if err := row.Scan(&ev.ID, &ev.OwnerID, &title, &capacity); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Event{}, ErrEventNotFound
		}
		return model.Event{}, err
	}
	ev.Title = title.String
	if capacity.Valid {
		c := int(capacity.Int64)
		ev.Capacity = &c
	}
	return ev, nil
}
