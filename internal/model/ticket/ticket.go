package ticket

import "time"

// Status enumerates the ticket lifecycle states.
type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusResolved   Status = "resolved"
	StatusClosed     Status = "closed"
)

// transitions is the forward-only state machine. The only allowed skip is
// open -> closed (cancellation).
var transitions = map[Status][]Status{
	StatusOpen:       {StatusInProgress, StatusClosed},
	StatusInProgress: {StatusResolved},
	StatusResolved:   {StatusClosed},
	StatusClosed:     {},
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransition reports whether moving from s to next is allowed.
func (s Status) CanTransition(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Ticket is a support request. Instances handed out by the store are
// snapshots; mutation happens only inside the store.
type Ticket struct {
	ID          string    `json:"id"`
	Subject     string    `json:"subject"`
	Description string    `json:"description"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Draft is a partially filled ticket kept in session context while the
// assistant collects the missing fields.
type Draft struct {
	Subject     string `json:"subject,omitempty"`
	Description string `json:"description,omitempty"`
}

// Complete reports whether both required fields are present.
func (d Draft) Complete() bool {
	return d.Subject != "" && d.Description != ""
}
