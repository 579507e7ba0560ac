package service

import (
	"context"
	"errors"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/iliyamo/event-attendance/internal/model"
	"github.com/iliyamo/event-attendance/internal/repository"
)

const (
	minRating = 1
	maxRating = 5
)

// FeedbackService accepts ratings and reports.  Ratings require a
// reservation on the event; reports only require an existing target.
type FeedbackService struct {
	events       EventStore
	users        UserDirectory
	reservations ReservationStore
	ratings      RatingStore
	reports      ReportStore
	opts         options
}

// NewFeedbackService wires the service to its stores.
func NewFeedbackService(events EventStore, users UserDirectory, reservations ReservationStore, ratings RatingStore, reports ReportStore, opts ...Option) *FeedbackService {
	if events == nil || users == nil || reservations == nil || ratings == nil || reports == nil {
		panic("nil store passed to NewFeedbackService")
	}
	return &FeedbackService{
		events:       events,
		users:        users,
		reservations: reservations,
		ratings:      ratings,
		reports:      reports,
		opts:         buildOptions("feedback", opts),
	}
}

// SubmitRating stores the rater's rating of the event host.  Any
// reservation on the event, including not_going, admits the rater.  A
// second submission for the same event overwrites the first; the bool
// result is true when the rating was created.
func (s *FeedbackService) SubmitRating(ctx context.Context, eventID, raterID string, value int, comment *string) (model.Rating, bool, error) {
	if raterID == "" {
		return model.Rating{}, false, errUnauthenticated
	}
	if value < minRating || value > maxRating {
		return model.Rating{}, false, invalid("rating must be between 1 and 5")
	}
	ev, err := loadEvent(ctx, s.opts, s.events, eventID)
	if err != nil {
		return model.Rating{}, false, err
	}

	err = s.opts.storage(ctx, func() error {
		_, err := s.reservations.Get(ctx, eventID, raterID)
		return err
	})
	if err != nil {
		if errors.Is(err, repository.ErrReservationNotFound) {
			s.opts.log.Info("rating rejected: no reservation",
				zap.String("event_id", eventID), zap.String("rater_id", raterID))
			return model.Rating{}, false, errNotAttended
		}
		return model.Rating{}, false, err
	}

	in := model.Rating{
		RaterID: raterID,
		EventID: eventID,
		RateeID: ev.OwnerID,
		Value:   value,
		Comment: trimmedOrNil(comment),
	}
	var (
		out     model.Rating
		created bool
	)
	err = s.opts.storage(ctx, func() error {
		var err error
		out, created, err = s.ratings.Upsert(ctx, in)
		return err
	})
	if err != nil {
		if !isClassified(err) {
			s.opts.log.Error("rating write failed", zap.String("event_id", eventID), zap.Error(err))
		}
		return model.Rating{}, false, err
	}
	s.opts.metrics.RatingSubmitted(created)
	return out, created, nil
}

// SubmitReport files a pending report against an event or a user.  The
// target must exist before the reason is looked at.
func (s *FeedbackService) SubmitReport(ctx context.Context, reporterID string, target model.ReportTarget, reason string, comment *string) (model.Report, error) {
	if reporterID == "" {
		return model.Report{}, errUnauthenticated
	}
	in := model.Report{
		ReporterID: reporterID,
		Reason:     strings.TrimSpace(reason),
		Comment:    trimmedOrNil(comment),
	}
	switch target.Kind {
	case model.TargetEvent:
		if _, err := loadEvent(ctx, s.opts, s.events, target.ID); err != nil {
			return model.Report{}, err
		}
		id := target.ID
		in.ReportedEventID = &id
	case model.TargetUser:
		if err := s.ensureUser(ctx, target.ID); err != nil {
			return model.Report{}, err
		}
		id := target.ID
		in.ReportedUserID = &id
	default:
		return model.Report{}, invalid("report target must be an event or a user")
	}
	if in.Reason == "" {
		return model.Report{}, invalid("reason is required")
	}

	var out model.Report
	err := s.opts.storage(ctx, func() error {
		var err error
		out, err = s.reports.Create(ctx, in)
		return err
	})
	if err != nil {
		if !isClassified(err) {
			s.opts.log.Error("report write failed", zap.Error(err))
		}
		return model.Report{}, err
	}
	s.opts.metrics.ReportSubmitted(string(target.Kind))
	s.opts.log.Info("report filed",
		zap.String("report_id", out.ID),
		zap.String("target_kind", string(target.Kind)),
		zap.String("target_id", target.ID))
	return out, nil
}

// HostRatingSummary averages every rating the host received, rounded to one
// decimal.  A host without ratings gets a zero average and count.
func (s *FeedbackService) HostRatingSummary(ctx context.Context, hostID string) (model.HostRatingSummary, error) {
	var count, sum int
	err := s.opts.storage(ctx, func() error {
		var err error
		count, sum, err = s.ratings.SumForHost(ctx, hostID)
		return err
	})
	if err != nil {
		return model.HostRatingSummary{}, err
	}
	return model.HostRatingSummary{HostID: hostID, Average: roundAverage(sum, count), Count: count}, nil
}

// ListEventRatings returns the ratings left on an existing event.
func (s *FeedbackService) ListEventRatings(ctx context.Context, eventID string) ([]model.Rating, error) {
	if _, err := loadEvent(ctx, s.opts, s.events, eventID); err != nil {
		return nil, err
	}
	var out []model.Rating
	err := s.opts.storage(ctx, func() error {
		var err error
		out, err = s.ratings.ListForEvent(ctx, eventID)
		return err
	})
	return out, err
}

func (s *FeedbackService) ensureUser(ctx context.Context, id string) error {
	if id == "" {
		return notFound("user not found", nil)
	}
	var ok bool
	err := s.opts.storage(ctx, func() error {
		var err error
		ok, err = s.users.Exists(ctx, id)
		return err
	})
	if err != nil {
		return err
	}
	if !ok {
		return notFound("user not found", repository.ErrUserNotFound)
	}
	return nil
}

func roundAverage(sum, count int) float64 {
	if count == 0 {
		return 0
	}
	return math.Round(float64(sum)/float64(count)*10) / 10
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}
