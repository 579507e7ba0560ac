package model

// User is the read-only view of the user directory used to resolve report
// targets and to present participants next to their reservations.
type User struct {
	ID          string `json:"id"`                     // users.id
	DisplayName string `json:"display_name,omitempty"` // users.display_name
}
