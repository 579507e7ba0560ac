package model

import "time"

// Rating is a participant's post-event feedback about the host.  The pair
// (RaterID, EventID) is unique; resubmitting overwrites the previous value.
type Rating struct {
	ID        string    `json:"id"`         // ratings.id
	RaterID   string    `json:"rater_id"`   // ratings.rater_id
	EventID   string    `json:"event_id"`   // ratings.event_id
	RateeID   string    `json:"ratee_id"`   // ratings.ratee_id (event owner at submission)
	Value     int       `json:"value"`      // ratings.value (1..5)
	Comment   *string   `json:"comment"`    // ratings.comment (nullable)
	CreatedAt time.Time `json:"created_at"` // ratings.created_at
	UpdatedAt time.Time `json:"updated_at"` // ratings.updated_at
}

// HostRatingSummary aggregates every rating a host received.  A zero Count
// comes with a zero Average.
type HostRatingSummary struct {
	HostID  string  `json:"host_id"`
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}
