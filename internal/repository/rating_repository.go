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

// RatingRepo persists ratings.  UNIQUE(rater_id, event_id) makes a second
// submission for the same pair overwrite the first.
type RatingRepo struct {
	db *sql.DB
}

// NewRatingRepo returns a RatingRepo bound to db.
func NewRatingRepo(db *sql.DB) *RatingRepo { return &RatingRepo{db: db} }

const ratingColumns = `id, rater_id, event_id, ratee_id, value, comment, created_at, updated_at`

func scanRating(row rowScanner) (model.Rating, error) {
	var (
		rt      model.Rating
		comment sql.NullString
	)
	if err := row.Scan(&rt.ID, &rt.RaterID, &rt.EventID, &rt.RateeID, &rt.Value, &comment, &rt.CreatedAt, &rt.UpdatedAt); err != nil {
		return model.Rating{}, err
	}
	if comment.Valid {
		c := comment.String
		rt.Comment = &c
	}
	return rt, nil
}

// Upsert writes the rating keyed on (RaterID, EventID) in a single
// statement and returns the stored row.  created is true when no rating
// existed for the pair.
func (r *RatingRepo) Upsert(ctx context.Context, in model.Rating) (model.Rating, bool, error) {
	const op = "repository.RatingRepo.Upsert"
	const q = `INSERT INTO ratings (id, rater_id, event_id, ratee_id, value, comment, created_at, updated_at)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?)
               ON DUPLICATE KEY UPDATE ratee_id = VALUES(ratee_id), value = VALUES(value),
                   comment = VALUES(comment), updated_at = VALUES(updated_at)`
	const sel = `SELECT ` + ratingColumns + ` FROM ratings WHERE rater_id = ? AND event_id = ?`

	now := time.Now().UTC()
	var comment sql.NullString
	if in.Comment != nil {
		comment = sql.NullString{String: *in.Comment, Valid: true}
	}
	result, err := r.db.ExecContext(ctx, q, uuid.NewString(), in.RaterID, in.EventID, in.RateeID, in.Value, comment, now, now)
	if err != nil {
		return model.Rating{}, false, fmt.Errorf("%s: %w", op, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return model.Rating{}, false, fmt.Errorf("%s: %w", op, err)
	}
	out, err := scanRating(r.db.QueryRowContext(ctx, sel, in.RaterID, in.EventID))
	if err != nil {
		return model.Rating{}, false, fmt.Errorf("%s: %w", op, err)
	}
	return out, n == 1, nil
}

// ListForEvent returns all ratings of an event, newest first.
func (r *RatingRepo) ListForEvent(ctx context.Context, eventID string) ([]model.Rating, error) {
	const op = "repository.RatingRepo.ListForEvent"
	const q = `SELECT ` + ratingColumns + ` FROM ratings WHERE event_id = ? ORDER BY updated_at DESC, id ASC`
	rows, err := r.db.QueryContext(ctx, q, eventID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()
	out := []model.Rating{}
	for rows.Next() {
		rt, err := scanRating(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, rt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

// SumForHost returns the number of ratings a host received and the sum of
// their values.  Rounding is left to the caller.
func (r *RatingRepo) SumForHost(ctx context.Context, hostID string) (count int, sum int, err error) {
	const op = "repository.RatingRepo.SumForHost"
	const q = `SELECT COUNT(*), COALESCE(SUM(value), 0) FROM ratings WHERE ratee_id = ?`
	if err := r.db.QueryRowContext(ctx, q, hostID).Scan(&count, &sum); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, 0, nil
		}
		return 0, 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, sum, nil
}
