// Package memory is an in-process implementation of the storage contracts.
// One mutex guards all tables, which gives every method the same atomicity
// the MySQL repositories get from transactions and unique keys.  It backs
// tests and the STORAGE_DRIVER=memory mode.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/event-attendance/internal/model"
	"github.com/iliyamo/event-attendance/internal/repository"
)

type pairKey struct{ a, b string }

// DB holds every table.
type DB struct {
	mu           sync.Mutex
	last         time.Time
	events       map[string]model.Event
	users        map[string]model.User
	reservations map[pairKey]model.Reservation // (event, participant)
	ratings      map[pairKey]model.Rating      // (rater, event)
	reports      []model.Report
}

// New returns an empty database.
func New() *DB {
	return &DB{
		events:       make(map[string]model.Event),
		users:        make(map[string]model.User),
		reservations: make(map[pairKey]model.Reservation),
		ratings:      make(map[pairKey]model.Rating),
	}
}

// PutEvent inserts or replaces an event.  Events are owned by another
// component; this exists for seeding.
func (db *DB) PutEvent(ev model.Event) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.events[ev.ID] = ev
}

// PutUser inserts or replaces a user.
func (db *DB) PutUser(u model.User) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.users[u.ID] = u
}

// Reports returns a copy of every stored report.
func (db *DB) Reports() []model.Report {
	db.mu.Lock()
	defer db.mu.Unlock()
	return append([]model.Report(nil), db.reports...)
}

// tick returns a strictly increasing UTC timestamp so that ordering by time
// is deterministic.  Callers hold db.mu.
func (db *DB) tick() time.Time { return db.stamp(time.Now()) }

// stamp is tick for a caller-supplied time.
func (db *DB) stamp(now time.Time) time.Time {
	now = now.UTC()
	if !now.After(db.last) {
		now = db.last.Add(time.Microsecond)
	}
	db.last = now
	return now
}

func (db *DB) Events() *Events             { return &Events{db: db} }
func (db *DB) Users() *Users               { return &Users{db: db} }
func (db *DB) Reservations() *Reservations { return &Reservations{db: db} }
func (db *DB) Ratings() *Ratings           { return &Ratings{db: db} }
func (db *DB) ReportStore() *Reports       { return &Reports{db: db} }

// Events is the read-only event view.
type Events struct{ db *DB }

func (e *Events) GetByID(_ context.Context, id string) (model.Event, error) {
	e.db.mu.Lock()
	defer e.db.mu.Unlock()
	ev, ok := e.db.events[id]
	if !ok {
		return model.Event{}, repository.ErrEventNotFound
	}
	return ev, nil
}

// Users is the read-only user directory.
type Users struct{ db *DB }

func (u *Users) GetByID(_ context.Context, id string) (model.User, error) {
	u.db.mu.Lock()
	defer u.db.mu.Unlock()
	usr, ok := u.db.users[id]
	if !ok {
		return model.User{}, repository.ErrUserNotFound
	}
	return usr, nil
}

func (u *Users) Exists(_ context.Context, id string) (bool, error) {
	u.db.mu.Lock()
	defer u.db.mu.Unlock()
	_, ok := u.db.users[id]
	return ok, nil
}

// Reservations mirrors repository.ReservationRepo.
type Reservations struct{ db *DB }

func (r *Reservations) Get(_ context.Context, eventID, participantID string) (model.Reservation, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	res, ok := r.db.reservations[pairKey{eventID, participantID}]
	if !ok {
		return model.Reservation{}, repository.ErrReservationNotFound
	}
	return res, nil
}

func (r *Reservations) Upsert(_ context.Context, eventID, participantID string, status model.ReservationStatus) (model.Reservation, bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	res, created := r.db.upsertLocked(eventID, participantID, status)
	return res, created, nil
}

func (r *Reservations) Admit(_ context.Context, eventID, participantID string, status model.ReservationStatus, guard repository.AdmitGuard) (model.Reservation, bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	ev, ok := r.db.events[eventID]
	if !ok {
		return model.Reservation{}, false, repository.ErrEventNotFound
	}
	var existing *model.Reservation
	if cur, ok := r.db.reservations[pairKey{eventID, participantID}]; ok {
		existing = &cur
	}
	if guard != nil {
		if err := guard(ev, r.db.countOccupyingLocked(eventID), existing); err != nil {
			return model.Reservation{}, false, err
		}
	}
	res, created := r.db.upsertLocked(eventID, participantID, status)
	return res, created, nil
}

func (db *DB) upsertLocked(eventID, participantID string, status model.ReservationStatus) (model.Reservation, bool) {
	key := pairKey{eventID, participantID}
	now := db.tick()
	res, ok := db.reservations[key]
	if !ok {
		res = model.Reservation{
			ID:            uuid.NewString(),
			EventID:       eventID,
			ParticipantID: participantID,
			CreatedAt:     now,
		}
	}
	res.Status = status
	res.HostConfirmed = false
	res.ConfirmedAt = nil
	res.UpdatedAt = now
	db.reservations[key] = res
	return res, !ok
}

func (db *DB) countOccupyingLocked(eventID string) int {
	n := 0
	for k, res := range db.reservations {
		if k.a == eventID && res.Status.Occupying() {
			n++
		}
	}
	return n
}

func (r *Reservations) SetConfirmed(_ context.Context, eventID, reservationID string, at time.Time) (model.Reservation, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for k, res := range r.db.reservations {
		if res.ID != reservationID || k.a != eventID {
			continue
		}
		if !res.Status.Occupying() {
			return model.Reservation{}, repository.ErrNotConfirmable
		}
		at = r.db.stamp(at)
		res.HostConfirmed = true
		res.ConfirmedAt = &at
		res.UpdatedAt = at
		r.db.reservations[k] = res
		return res, nil
	}
	return model.Reservation{}, repository.ErrReservationNotFound
}

func (r *Reservations) Delete(_ context.Context, eventID, participantID string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	key := pairKey{eventID, participantID}
	if _, ok := r.db.reservations[key]; !ok {
		return repository.ErrReservationNotFound
	}
	delete(r.db.reservations, key)
	return nil
}

func (r *Reservations) CountOccupying(_ context.Context, eventID string) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return r.db.countOccupyingLocked(eventID), nil
}

func (r *Reservations) ListForEvent(_ context.Context, eventID string) ([]model.Reservation, error) {
	out := r.filter(func(res model.Reservation) bool { return res.EventID == eventID })
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *Reservations) ListForParticipant(_ context.Context, participantID string) ([]model.Reservation, error) {
	out := r.filter(func(res model.Reservation) bool { return res.ParticipantID == participantID })
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *Reservations) ListOccupying(_ context.Context, eventID string, confirmed bool) ([]model.Reservation, error) {
	out := r.filter(func(res model.Reservation) bool {
		return res.EventID == eventID && res.Status.Occupying() && res.HostConfirmed == confirmed
	})
	if confirmed {
		sort.Slice(out, func(i, j int) bool { return out[i].ConfirmedAt.After(*out[j].ConfirmedAt) })
	} else {
		sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	}
	return out, nil
}

func (r *Reservations) filter(keep func(model.Reservation) bool) []model.Reservation {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := []model.Reservation{}
	for _, res := range r.db.reservations {
		if keep(res) {
			out = append(out, res)
		}
	}
	return out
}

// Ratings mirrors repository.RatingRepo.
type Ratings struct{ db *DB }

func (r *Ratings) Upsert(_ context.Context, in model.Rating) (model.Rating, bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	key := pairKey{in.RaterID, in.EventID}
	now := r.db.tick()
	cur, ok := r.db.ratings[key]
	if !ok {
		cur = model.Rating{ID: uuid.NewString(), RaterID: in.RaterID, EventID: in.EventID, CreatedAt: now}
	}
	cur.RateeID = in.RateeID
	cur.Value = in.Value
	cur.Comment = in.Comment
	cur.UpdatedAt = now
	r.db.ratings[key] = cur
	return cur, !ok, nil
}

func (r *Ratings) ListForEvent(_ context.Context, eventID string) ([]model.Rating, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := []model.Rating{}
	for _, rt := range r.db.ratings {
		if rt.EventID == eventID {
			out = append(out, rt)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (r *Ratings) SumForHost(_ context.Context, hostID string) (int, int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	count, sum := 0, 0
	for _, rt := range r.db.ratings {
		if rt.RateeID == hostID {
			count++
			sum += rt.Value
		}
	}
	return count, sum, nil
}

// Reports mirrors repository.ReportRepo.
type Reports struct{ db *DB }

func (r *Reports) Create(_ context.Context, in model.Report) (model.Report, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	now := r.db.tick()
	in.ID = uuid.NewString()
	in.Status = model.ReportPending
	in.CreatedAt = now
	in.UpdatedAt = now
	r.db.reports = append(r.db.reports, in)
	return in, nil
}
