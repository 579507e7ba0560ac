package model

import "time"

// ReportStatus tracks triage progress of a report.
type ReportStatus string

const (
	ReportPending   ReportStatus = "pending"
	ReportResolved  ReportStatus = "resolved"
	ReportDismissed ReportStatus = "dismissed"
)

// ReportTargetKind tells which kind of entity a report flags.
type ReportTargetKind string

const (
	TargetEvent ReportTargetKind = "event"
	TargetUser  ReportTargetKind = "user"
)

// ReportTarget names the single entity a report is filed against.
type ReportTarget struct {
	Kind ReportTargetKind
	ID   string
}

// EventTarget builds a target pointing at an event.
func EventTarget(eventID string) ReportTarget { return ReportTarget{Kind: TargetEvent, ID: eventID} }

// UserTarget builds a target pointing at a user.
func UserTarget(userID string) ReportTarget { return ReportTarget{Kind: TargetUser, ID: userID} }

// Report is a flagged-content record.  Exactly one of ReportedEventID and
// ReportedUserID is set.
type Report struct {
	ID              string       `json:"id"`                // reports.id
	ReporterID      string       `json:"reporter_id"`       // reports.reporter_id
	ReportedEventID *string      `json:"reported_event_id"` // reports.reported_event_id (nullable)
	ReportedUserID  *string      `json:"reported_user_id"`  // reports.reported_user_id (nullable)
	Reason          string       `json:"reason"`            // reports.reason
	Comment         *string      `json:"comment"`           // reports.comment (nullable)
	Status          ReportStatus `json:"status"`            // reports.status
	CreatedAt       time.Time    `json:"created_at"`        // reports.created_at
	UpdatedAt       time.Time    `json:"updated_at"`        // reports.updated_at
}

// Target returns the entity the report is filed against.
func (r Report) Target() ReportTarget {
	if r.ReportedEventID != nil {
		return EventTarget(*r.ReportedEventID)
	}
	if r.ReportedUserID != nil {
		return UserTarget(*r.ReportedUserID)
	}
	return ReportTarget{}
}
