package queue

import (
	"context"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/iliyamo/event-attendance/internal/model"
)

func TestAuditLog(t *testing.T) {
	Convey("Given a confirmed reservation", t, func() {
		at := time.Date(2026, 3, 1, 18, 30, 0, 0, time.UTC)
		c := model.ConfirmedReservation{
			Reservation: model.Reservation{
				ID: "r1", EventID: "e1", ParticipantID: "u2",
				Status: model.StatusMaybe, HostConfirmed: true, ConfirmedAt: &at,
			},
			Participant: model.User{ID: "u2", DisplayName: "Dana"},
			Event:       model.Event{ID: "e1", OwnerID: "u1", Title: "Board games"},
		}
		ev := NewAttendanceConfirmedEvent(c)

		Convey("The payload carries host and participant", func() {
			So(ev.HostID, ShouldEqual, "u1")
			So(ev.ParticipantName, ShouldEqual, "Dana")
			So(ev.Status, ShouldEqual, "maybe")
			So(ev.ConfirmedAt, ShouldEqual, "2026-03-01T18:30:00Z")
		})

		Convey("HandleMessage appends one line per message", func() {
			path := filepath.Join(t.TempDir(), "nested", "audit.log")
			body, err := json.Marshal(ev)
			So(err, ShouldBeNil)

			So(HandleMessage(path, body), ShouldBeNil)
			So(HandleMessage(path, body), ShouldBeNil)

			data, err := os.ReadFile(path)
			So(err, ShouldBeNil)
			So(string(data), ShouldContainSubstring, "reservation_id=r1")
			So(string(data), ShouldContainSubstring, `event="Board games"`)
			So(strings.Count(string(data), "\n"), ShouldEqual, 2)
		})

		Convey("Malformed bodies are rejected", func() {
			path := filepath.Join(t.TempDir(), "audit.log")
			So(HandleMessage(path, []byte("{")), ShouldNotBeNil)
			So(HandleMessage(path, []byte(`{"event_id":"e1"}`)), ShouldNotBeNil)
			_, err := os.Stat(path)
			So(os.IsNotExist(err), ShouldBeTrue)
		})
	})
}


func TestDialBudget(t *testing.T) {
	Convey("The dial budget never outlives the caller", t, func() {
		d, err := dialBudget(context.Background(), time.Second)
		So(err, ShouldBeNil)
		So(d, ShouldEqual, time.Second)

		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()
		d, err = dialBudget(ctx, time.Second)
		So(err, ShouldBeNil)
		So(d, ShouldBeLessThanOrEqualTo, 100*time.Millisecond)

		done, stop := context.WithCancel(context.Background())
		stop()
		_, err = dialBudget(done, time.Second)
		So(err, ShouldEqual, context.Canceled)
	})
}

func TestPublishSilentBroker(t *testing.T) {
	Convey("Given a broker that accepts connections and never answers", t, func() {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		So(err, ShouldBeNil)
		defer ln.Close()
		go func() {
			for {
				conn, err := ln.Accept()
				if err != nil {
					return
				}
				defer conn.Close()
			}
		}()

		p := NewPublisher("amqp://guest:guest@"+ln.Addr().String()+"/", nil)
		p.timeout = 200 * time.Millisecond
		c := model.ConfirmedReservation{Reservation: model.Reservation{ID: "r1"}}

		Convey("Publishing gives up after the timeout", func() {
			start := time.Now()
			err := p.PublishConfirmed(context.Background(), c)
			So(err, ShouldNotBeNil)
			So(time.Since(start), ShouldBeLessThan, 2*time.Second)
		})

		Convey("A cancelled request does not dial at all", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			err := p.PublishConfirmed(ctx, c)
			So(err, ShouldEqual, context.Canceled)
		})
	})
}
