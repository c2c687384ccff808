package dialogue

import (
	"time"

	"github.com/aurora-press/editorial-assistant/internal/model/catalog"
	"github.com/aurora-press/editorial-assistant/internal/model/ticket"
)

// ResponseKind tells front ends what shape Data carries. Rendering is entirely
// theirs; the core never emits presentation markup.
type ResponseKind string

const (
	ResponseBookDetails    ResponseKind = "book_details"
	ResponseLocations      ResponseKind = "locations"
	ResponseTicket         ResponseKind = "ticket"
	ResponseFollowUp       ResponseKind = "follow_up"
	ResponseDisambiguation ResponseKind = "disambiguation"
	ResponseCleared        ResponseKind = "cleared"
	ResponseClarification  ResponseKind = "clarification"
	ResponseNotFound       ResponseKind = "not_found"
)

// Response is the structured result of one turn.
type Response struct {
	Kind ResponseKind `json:"kind"`
	Text string       `json:"text"`
	Data any          `json:"data,omitempty"`
}

// BookPayload is the structured data for a book_details response.
type BookPayload struct {
	Book catalog.Book `json:"book"`
}

// LocationsPayload is the structured data for a locations response.
type LocationsPayload struct {
	Title     string             `json:"title"`
	City      string             `json:"city,omitempty"`
	Locations []catalog.Location `json:"locations"`
	Online    []string           `json:"online,omitempty"`
}

// TicketPayload is the structured data for a ticket response.
type TicketPayload struct {
	Ticket ticket.Ticket `json:"ticket"`
}

// CandidatesPayload lists catalog matches for a disambiguation prompt.
type CandidatesPayload struct {
	Titles []string `json:"titles"`
}

// Turn is one (utterance, intent, response) triple kept in session history.
type Turn struct {
	Utterance string    `json:"utterance"`
	Intent    Intent    `json:"intent"`
	Response  Response  `json:"response"`
	At        time.Time `json:"at"`
}
