package service_test

import (
	"github.com/iliyamo/event-attendance/internal/model"
	"github.com/iliyamo/event-attendance/internal/repository/memory"
	"github.com/iliyamo/event-attendance/internal/service"
)

const (
	host  = "host"
	alice = "alice"
	bob   = "bob"
	carol = "carol"
)

type fixture struct {
	db           *memory.DB
	reservations *service.ReservationService
	feedback     *service.FeedbackService
}

func intPtr(n int) *int { return &n }

// newFixture seeds one host, three participants, a two-seat event "e1" and
// an unlimited event "open".
func newFixture(opts ...service.Option) fixture {
	db := memory.New()
	for _, id := range []string{host, alice, bob, carol} {
		db.PutUser(model.User{ID: id, DisplayName: id})
	}
	db.PutEvent(model.Event{ID: "e1", OwnerID: host, Title: "Picnic", Capacity: intPtr(2)})
	db.PutEvent(model.Event{ID: "open", OwnerID: host, Title: "Open mic"})

	return fixture{
		db:           db,
		reservations: service.NewReservationService(db.Events(), db.Users(), db.Reservations(), opts...),
		feedback: service.NewFeedbackService(db.Events(), db.Users(), db.Reservations(),
			db.Ratings(), db.ReportStore(), opts...),
	}
}
