package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/iliyamo/event-attendance/internal/model"
)

var (
	eventCols       = []string{"id", "owner_id", "title", "capacity"}
	reservationCols = []string{"id", "event_id", "participant_id", "status", "host_confirmed", "confirmed_at", "created_at", "updated_at"}
)

func sqlRe(s string) string { return regexp.QuoteMeta(s) }

func TestReservationRepoAdmit(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	Convey("Given a mocked MySQL connection", t, func() {
		db, mock, err := sqlmock.New()
		So(err, ShouldBeNil)
		defer db.Close()
		repo := NewReservationRepo(db)

		expectLockedReads := func(occupied int) {
			mock.ExpectBegin()
			mock.ExpectQuery(sqlRe("FROM events WHERE id = ? FOR UPDATE")).
				WithArgs("e1").
				WillReturnRows(sqlmock.NewRows(eventCols).AddRow("e1", "h", "Picnic", 2))
			mock.ExpectQuery(sqlRe("FROM reservations WHERE event_id = ? AND participant_id = ? FOR UPDATE")).
				WithArgs("e1", "p").
				WillReturnRows(sqlmock.NewRows(reservationCols))
			mock.ExpectQuery(sqlRe("SELECT COUNT(*) FROM reservations WHERE event_id = ?")).
				WithArgs("e1").
				WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(occupied))
		}

		Convey("An admitted request is written and committed in one transaction", func() {
			expectLockedReads(1)
			mock.ExpectExec(sqlRe("INSERT INTO reservations")).
				WithArgs(sqlmock.AnyArg(), "e1", "p", "going", sqlmock.AnyArg(), sqlmock.AnyArg()).
				WillReturnResult(sqlmock.NewResult(0, 1))
			mock.ExpectQuery(sqlRe("FROM reservations WHERE event_id = ? AND participant_id = ?")).
				WithArgs("e1", "p").
				WillReturnRows(sqlmock.NewRows(reservationCols).
					AddRow("r1", "e1", "p", "going", false, nil, now, now))
			mock.ExpectCommit()

			var seen int
			res, created, err := repo.Admit(ctx, "e1", "p", model.StatusGoing,
				func(ev model.Event, occupied int, existing *model.Reservation) error {
					seen = occupied
					So(*ev.Capacity, ShouldEqual, 2)
					So(existing, ShouldBeNil)
					return nil
				})
			So(err, ShouldBeNil)
			So(created, ShouldBeTrue)
			So(seen, ShouldEqual, 1)
			So(res.ID, ShouldEqual, "r1")
			So(res.ConfirmedAt, ShouldBeNil)
			So(mock.ExpectationsWereMet(), ShouldBeNil)
		})

		Convey("A rejected request rolls back and returns the guard error", func() {
			expectLockedReads(2)
			mock.ExpectRollback()

			full := errors.New("full")
			_, _, err := repo.Admit(ctx, "e1", "p", model.StatusGoing,
				func(model.Event, int, *model.Reservation) error { return full })
			So(err, ShouldEqual, full)
			So(mock.ExpectationsWereMet(), ShouldBeNil)
		})

		Convey("A missing event rolls back with ErrEventNotFound", func() {
			mock.ExpectBegin()
			mock.ExpectQuery(sqlRe("FROM events WHERE id = ? FOR UPDATE")).
				WithArgs("e1").
				WillReturnRows(sqlmock.NewRows(eventCols))
			mock.ExpectRollback()

			_, _, err := repo.Admit(ctx, "e1", "p", model.StatusGoing, nil)
			So(errors.Is(err, ErrEventNotFound), ShouldBeTrue)
			So(mock.ExpectationsWereMet(), ShouldBeNil)
		})
	})
}

func TestReservationRepoSetConfirmed(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	Convey("Given a mocked MySQL connection", t, func() {
		db, mock, err := sqlmock.New()
		So(err, ShouldBeNil)
		defer db.Close()
		repo := NewReservationRepo(db)

		Convey("A going row is confirmed under a row lock", func() {
			mock.ExpectBegin()
			mock.ExpectQuery(sqlRe("FROM reservations WHERE id = ? AND event_id = ? FOR UPDATE")).
				WithArgs("r1", "e1").
				WillReturnRows(sqlmock.NewRows(reservationCols).
					AddRow("r1", "e1", "p", "going", false, nil, now, now))
			mock.ExpectExec(sqlRe("UPDATE reservations SET host_confirmed = TRUE")).
				WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "r1").
				WillReturnResult(sqlmock.NewResult(0, 1))
			mock.ExpectQuery(sqlRe("FROM reservations WHERE id = ? AND event_id = ?")).
				WithArgs("r1", "e1").
				WillReturnRows(sqlmock.NewRows(reservationCols).
					AddRow("r1", "e1", "p", "going", true, now, now, now))
			mock.ExpectCommit()

			res, err := repo.SetConfirmed(ctx, "e1", "r1", now)
			So(err, ShouldBeNil)
			So(res.HostConfirmed, ShouldBeTrue)
			So(res.ConfirmedAt.Equal(now), ShouldBeTrue)
			So(mock.ExpectationsWereMet(), ShouldBeNil)
		})

		Convey("A not_going row is refused", func() {
			mock.ExpectBegin()
			mock.ExpectQuery(sqlRe("FROM reservations WHERE id = ? AND event_id = ? FOR UPDATE")).
				WithArgs("r1", "e1").
				WillReturnRows(sqlmock.NewRows(reservationCols).
					AddRow("r1", "e1", "p", "not_going", false, nil, now, now))
			mock.ExpectRollback()

			_, err := repo.SetConfirmed(ctx, "e1", "r1", now)
			So(errors.Is(err, ErrNotConfirmable), ShouldBeTrue)
			So(mock.ExpectationsWereMet(), ShouldBeNil)
		})

		Convey("A cancelled row is not found", func() {
			mock.ExpectBegin()
			mock.ExpectQuery(sqlRe("FROM reservations WHERE id = ? AND event_id = ? FOR UPDATE")).
				WithArgs("r1", "e1").
				WillReturnRows(sqlmock.NewRows(reservationCols))
			mock.ExpectRollback()

			_, err := repo.SetConfirmed(ctx, "e1", "r1", now)
			So(errors.Is(err, ErrReservationNotFound), ShouldBeTrue)
			So(mock.ExpectationsWereMet(), ShouldBeNil)
		})
	})
}

func TestReservationRepoDelete(t *testing.T) {
	Convey("Given a mocked MySQL connection", t, func() {
		db, mock, err := sqlmock.New()
		So(err, ShouldBeNil)
		defer db.Close()
		repo := NewReservationRepo(db)

		Convey("Deleting an existing pair succeeds", func() {
			mock.ExpectExec(sqlRe("DELETE FROM reservations WHERE event_id = ? AND participant_id = ?")).
				WithArgs("e1", "p").
				WillReturnResult(sqlmock.NewResult(0, 1))
			So(repo.Delete(context.Background(), "e1", "p"), ShouldBeNil)
		})

		Convey("Deleting a missing pair reports ErrReservationNotFound", func() {
			mock.ExpectExec(sqlRe("DELETE FROM reservations")).
				WithArgs("e1", "p").
				WillReturnResult(sqlmock.NewResult(0, 0))
			err := repo.Delete(context.Background(), "e1", "p")
			So(errors.Is(err, ErrReservationNotFound), ShouldBeTrue)
		})
	})
}

func TestReservationRepoUpsert(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	Convey("Given a mocked MySQL connection", t, func() {
		db, mock, err := sqlmock.New()
		So(err, ShouldBeNil)
		defer db.Close()
		repo := NewReservationRepo(db)

		Convey("An update of an existing pair commits and reports created=false", func() {
			mock.ExpectBegin()
			mock.ExpectExec(sqlRe("INSERT INTO reservations") + ".*" + sqlRe("ON DUPLICATE KEY UPDATE status = VALUES(status), host_confirmed = FALSE")).
				WithArgs(sqlmock.AnyArg(), "open", "p", "maybe", sqlmock.AnyArg(), sqlmock.AnyArg()).
				WillReturnResult(sqlmock.NewResult(0, 2))
			mock.ExpectQuery(sqlRe("FROM reservations WHERE event_id = ? AND participant_id = ?")).
				WithArgs("open", "p").
				WillReturnRows(sqlmock.NewRows(reservationCols).
					AddRow("r1", "open", "p", "maybe", false, nil, now, now))
			mock.ExpectCommit()

			res, created, err := repo.Upsert(ctx, "open", "p", model.StatusMaybe)
			So(err, ShouldBeNil)
			So(created, ShouldBeFalse)
			So(res.Status, ShouldEqual, model.StatusMaybe)
			So(res.HostConfirmed, ShouldBeFalse)
			So(mock.ExpectationsWereMet(), ShouldBeNil)
		})

		Convey("A failed write rolls back", func() {
			boom := errors.New("boom")
			mock.ExpectBegin()
			mock.ExpectExec(sqlRe("INSERT INTO reservations")).WillReturnError(boom)
			mock.ExpectRollback()

			_, _, err := repo.Upsert(ctx, "open", "p", model.StatusGoing)
			So(errors.Is(err, boom), ShouldBeTrue)
			So(mock.ExpectationsWereMet(), ShouldBeNil)
		})
	})
}
