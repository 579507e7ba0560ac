package model

// Event is the slice of an event this service reads.  Events are created
// and edited elsewhere; only the identifier, the owner and the capacity
// ceiling matter for admission and feedback.
//
// Fields:
//
//	ID       – events.id
//	OwnerID  – user hosting the event.
//	Capacity – maximum number of occupying reservations; nil means
//	           unlimited.
type Event struct {
	ID       string `json:"id"`                 // events.id
	OwnerID  string `json:"owner_id"`           // events.owner_id
	Title    string `json:"title,omitempty"`    // events.title (presentation only)
	Capacity *int   `json:"capacity,omitempty"` // events.capacity (nullable)
}

// IsOwner reports whether userID hosts the event.
func (e Event) IsOwner(userID string) bool {
	return userID != "" && e.OwnerID == userID
}

// Occupancy is how many capacity slots of an event are taken.  Capacity
// is always rendered, as null for events without a ceiling.
type Occupancy struct {
	EventID  string `json:"event_id"`
	Capacity *int   `json:"capacity"`
	Occupied int    `json:"occupied"`
}
