package service_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/iliyamo/event-attendance/internal/model"
	"github.com/iliyamo/event-attendance/internal/service"
)

func TestCanAdmit(t *testing.T) {
	Convey("Given an event with two seats", t, func() {
		ev := model.Event{ID: "e", OwnerID: host, Capacity: intPtr(2)}

		Convey("Requests below the ceiling are admitted", func() {
			So(service.CanAdmit(ev, 0, nil, model.StatusGoing), ShouldBeTrue)
			So(service.CanAdmit(ev, 1, nil, model.StatusMaybe), ShouldBeTrue)
		})

		Convey("A new occupying request at the ceiling is rejected", func() {
			So(service.CanAdmit(ev, 2, nil, model.StatusGoing), ShouldBeFalse)
		})

		Convey("not_going is never limited", func() {
			So(service.CanAdmit(ev, 2, nil, model.StatusNotGoing), ShouldBeTrue)
		})

		Convey("A holder switching between going and maybe keeps the slot", func() {
			existing := &model.Reservation{Status: model.StatusGoing}
			So(service.CanAdmit(ev, 2, existing, model.StatusMaybe), ShouldBeTrue)
			So(service.CanAdmit(ev, 2, existing, model.StatusGoing), ShouldBeTrue)
		})

		Convey("A not_going holder asking for a slot is checked again", func() {
			existing := &model.Reservation{Status: model.StatusNotGoing}
			So(service.CanAdmit(ev, 2, existing, model.StatusGoing), ShouldBeFalse)
			So(service.CanAdmit(ev, 1, existing, model.StatusGoing), ShouldBeTrue)
		})
	})

	Convey("Given an event without a ceiling", t, func() {
		ev := model.Event{ID: "e", OwnerID: host}
		So(service.CanAdmit(ev, 10_000, nil, model.StatusGoing), ShouldBeTrue)
	})
}
