package router_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/iliyamo/event-attendance/internal/config"
	"github.com/iliyamo/event-attendance/internal/handler"
	"github.com/iliyamo/event-attendance/internal/metrics"
	"github.com/iliyamo/event-attendance/internal/model"
	"github.com/iliyamo/event-attendance/internal/repository/memory"
	"github.com/iliyamo/event-attendance/internal/router"
	"github.com/iliyamo/event-attendance/internal/service"
	"github.com/iliyamo/event-attendance/internal/utils"
)

const secret = "router-test-secret"

type client struct {
	t *testing.T
	e *echo.Echo
}

func (cl client) do(method, path, user, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if user != "" {
		tok, err := utils.NewAccessToken(secret, user, time.Minute)
		if err != nil {
			cl.t.Fatal(err)
		}
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok.Token)
	}
	rec := httptest.NewRecorder()
	cl.e.ServeHTTP(rec, req)
	return rec
}

func decode(rec *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return out
}

func newServer(t *testing.T) (client, *memory.DB) {
	db := memory.New()
	for _, id := range []string{"host", "alice", "bob", "carol"} {
		db.PutUser(model.User{ID: id, DisplayName: strings.ToUpper(id[:1]) + id[1:]})
	}
	two := 2
	db.PutEvent(model.Event{ID: "e1", OwnerID: "host", Title: "Picnic", Capacity: &two})
	db.PutEvent(model.Event{ID: "open", OwnerID: "host", Title: "Fair"})

	cfg := config.Defaults()
	cfg.JWTSecret = secret
	m := metrics.NewManager()
	opts := []service.Option{service.WithMetrics(m)}

	e := echo.New()
	router.RegisterRoutes(e, router.Deps{
		Config:  cfg,
		Metrics: m,
		Reservations: handler.NewReservationHandler(
			service.NewReservationService(db.Events(), db.Users(), db.Reservations(), opts...), nil),
		Feedback: handler.NewFeedbackHandler(
			service.NewFeedbackService(db.Events(), db.Users(), db.Reservations(), db.Ratings(), db.ReportStore(), opts...), nil),
	})
	return client{t: t, e: e}, db
}

func TestAttendanceFlow(t *testing.T) {
	Convey("Given the API with a two-seat event", t, func() {
		cl, _ := newServer(t)

		Convey("The full reservation scenario plays out over HTTP", func() {
			rec := cl.do(http.MethodPost, "/events/e1/reservations", "alice", `{"status":"going"}`)
			So(rec.Code, ShouldEqual, http.StatusCreated)
			aliceRes := decode(rec)["id"].(string)

			So(cl.do(http.MethodPost, "/events/e1/reservations", "bob", "").Code, ShouldEqual, http.StatusCreated)

			rec = cl.do(http.MethodPost, "/events/e1/reservations", "carol", `{"status":"going"}`)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
			So(decode(rec)["error"], ShouldEqual, "capacity_exceeded")
			So(decode(rec)["message"], ShouldEqual, "event is at capacity")

			So(cl.do(http.MethodPost, "/events/e1/reservations", "carol", `{"status":"not_going"}`).Code, ShouldEqual, http.StatusCreated)

			rec = cl.do(http.MethodGet, "/events/e1/occupancy", "", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			occ := decode(rec)
			So(occ["event_id"], ShouldEqual, "e1")
			So(occ["capacity"], ShouldEqual, 2.0)
			So(occ["occupied"], ShouldEqual, 2.0)

			rec = cl.do(http.MethodPost, "/events/e1/reservations/"+aliceRes+"/confirm", "host", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			body := decode(rec)
			So(body["host_confirmed"], ShouldEqual, true)
			So(body["participant"].(map[string]any)["display_name"], ShouldEqual, "Alice")

			rec = cl.do(http.MethodPost, "/events/e1/reservations", "alice", `{"status":"maybe"}`)
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(decode(rec)["host_confirmed"], ShouldEqual, false)

			So(cl.do(http.MethodDelete, "/events/e1/reservations/me", "bob", "").Code, ShouldEqual, http.StatusNoContent)
			So(cl.do(http.MethodDelete, "/events/e1/reservations/me", "bob", "").Code, ShouldEqual, http.StatusNoContent)

			rec = cl.do(http.MethodGet, "/participants/alice/reservations", "", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(len(decode(rec)["items"].([]any)), ShouldEqual, 1)
		})

		Convey("Owner-only lists and confirmation reject other users", func() {
			rec := cl.do(http.MethodPost, "/events/e1/reservations", "alice", "")
			id := decode(rec)["id"].(string)

			rec = cl.do(http.MethodPost, "/events/e1/reservations/"+id+"/confirm", "bob", "")
			So(rec.Code, ShouldEqual, http.StatusForbidden)
			So(cl.do(http.MethodGet, "/events/e1/reservations/pending", "alice", "").Code, ShouldEqual, http.StatusForbidden)

			rec = cl.do(http.MethodGet, "/events/e1/reservations/pending", "host", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(len(decode(rec)["items"].([]any)), ShouldEqual, 1)
		})

		Convey("Mutations need a token", func() {
			rec := cl.do(http.MethodPost, "/events/e1/reservations", "", "")
			So(rec.Code, ShouldEqual, http.StatusUnauthorized)
			So(decode(rec)["error"], ShouldEqual, "unauthorized")
		})

		Convey("Bad input is a validation error", func() {
			rec := cl.do(http.MethodPost, "/events/e1/reservations", "alice", `{"status":"perhaps"}`)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
			So(decode(rec)["error"], ShouldEqual, "validation_error")

			So(cl.do(http.MethodPost, "/events/e1/reservations", "alice", `{`).Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("Occupancy renders a null capacity for events without a ceiling", func() {
			So(cl.do(http.MethodPost, "/events/open/reservations", "alice", "").Code, ShouldEqual, http.StatusCreated)
			rec := cl.do(http.MethodGet, "/events/open/occupancy", "", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, `"capacity":null`)
			So(decode(rec)["occupied"], ShouldEqual, 1.0)
		})

		Convey("Unknown events are 404", func() {
			rec := cl.do(http.MethodPost, "/events/nope/reservations", "alice", "")
			So(rec.Code, ShouldEqual, http.StatusNotFound)
			So(decode(rec)["error"], ShouldEqual, "not_found")
		})
	})
}

func TestFeedbackFlow(t *testing.T) {
	Convey("Given the API with a two-seat event", t, func() {
		cl, db := newServer(t)

		Convey("Ratings require a reservation and are deduplicated", func() {
			rec := cl.do(http.MethodPost, "/events/e1/ratings", "alice", `{"value":5}`)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
			So(decode(rec)["error"], ShouldEqual, "attendance_required")
			So(decode(rec)["message"], ShouldEqual, "attend the event before rating it")

			cl.do(http.MethodPost, "/events/e1/reservations", "alice", `{"status":"not_going"}`)
			So(cl.do(http.MethodPost, "/events/e1/ratings", "alice", `{"value":5}`).Code, ShouldEqual, http.StatusCreated)
			So(cl.do(http.MethodPost, "/events/e1/ratings", "alice", `{"value":4,"comment":"ok"}`).Code, ShouldEqual, http.StatusOK)

			rec = cl.do(http.MethodGet, "/hosts/host/ratings", "", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(decode(rec)["count"], ShouldEqual, 1.0)
			So(decode(rec)["average"], ShouldEqual, 4.0)

			rec = cl.do(http.MethodGet, "/events/e1/ratings", "", "")
			So(len(decode(rec)["items"].([]any)), ShouldEqual, 1)
		})

		Convey("Rating values are checked", func() {
			So(cl.do(http.MethodPost, "/events/e1/ratings", "alice", `{"value":9}`).Code, ShouldEqual, http.StatusBadRequest)
			So(cl.do(http.MethodPost, "/events/e1/ratings", "alice", `{}`).Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("A host without ratings is unreviewed", func() {
			rec := cl.do(http.MethodGet, "/hosts/bob/ratings", "", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(decode(rec)["count"], ShouldEqual, 0.0)
			So(decode(rec)["average"], ShouldEqual, 0.0)
		})

		Convey("Reports target events or users", func() {
			rec := cl.do(http.MethodPost, "/events/e1/reports", "bob", `{"reason":"spam"}`)
			So(rec.Code, ShouldEqual, http.StatusCreated)
			So(decode(rec)["status"], ShouldEqual, "pending")

			So(cl.do(http.MethodPost, "/users/carol/reports", "bob", `{"reason":"rude","comment":"x"}`).Code, ShouldEqual, http.StatusCreated)
			So(cl.do(http.MethodPost, "/users/ghost/reports", "bob", `{"reason":"rude"}`).Code, ShouldEqual, http.StatusNotFound)
			So(cl.do(http.MethodPost, "/users/carol/reports", "bob", `{"reason":"   "}`).Code, ShouldEqual, http.StatusBadRequest)
			So(cl.do(http.MethodPost, "/events/nope/reports", "bob", `{"reason":""}`).Code, ShouldEqual, http.StatusNotFound)
			So(len(db.Reports()), ShouldEqual, 2)
		})
	})
}

func TestOperationalRoutes(t *testing.T) {
	Convey("Health and metrics are exposed", t, func() {
		cl, _ := newServer(t)
		So(cl.do(http.MethodGet, "/healthz", "", "").Code, ShouldEqual, http.StatusOK)

		cl.do(http.MethodPost, "/events/e1/reservations", "alice", "")
		rec := cl.do(http.MethodGet, "/metrics", "", "")
		So(rec.Code, ShouldEqual, http.StatusOK)
		So(rec.Body.String(), ShouldContainSubstring, "reservations_admitted_total")

		rec = cl.do(http.MethodGet, "/nowhere", "", "")
		So(rec.Code, ShouldEqual, http.StatusNotFound)
	})
}
