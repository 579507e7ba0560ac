package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/event-attendance/internal/model"
)

// ReportRepo stores flagged-content reports.  Reports are append-only from
// this service's point of view; triage happens elsewhere.
type ReportRepo struct {
	db *sql.DB
}

// NewReportRepo returns a ReportRepo bound to db.
func NewReportRepo(db *sql.DB) *ReportRepo { return &ReportRepo{db: db} }

// Create inserts a pending report and returns it with generated fields.
func (r *ReportRepo) Create(ctx context.Context, in model.Report) (model.Report, error) {
	const op = "repository.ReportRepo.Create"
	const q = `INSERT INTO reports (id, reporter_id, reported_event_id, reported_user_id, reason, comment, status, created_at, updated_at)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now().UTC()
	in.ID = uuid.NewString()
	in.Status = model.ReportPending
	in.CreatedAt = now
	in.UpdatedAt = now
	if _, err := r.db.ExecContext(ctx, q, in.ID, in.ReporterID,
		nullable(in.ReportedEventID), nullable(in.ReportedUserID),
		in.Reason, nullable(in.Comment), string(in.Status), now, now); err != nil {
		return model.Report{}, fmt.Errorf("%s: %w", op, err)
	}
	return in, nil
}

func nullable(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
