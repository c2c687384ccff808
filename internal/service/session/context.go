package session

import (
	"sync"

	"github.com/aurora-press/editorial-assistant/internal/model/dialogue"
	ticketmodel "github.com/aurora-press/editorial-assistant/internal/model/ticket"
)

// TitleChecker is the narrow catalog view the session layer needs. The last
// mentioned book is stored as a title string, never a pointer into the
// catalog, and is re-validated through this interface on every read.
type TitleChecker interface {
	HasTitle(title string) bool
}

// DefaultHistoryLimit bounds per-session turn history.
const DefaultHistoryLimit = 20

// Context is the mutable per-conversation state: last mentioned book and
// city, an in-progress ticket draft, and a bounded turn history. Methods are
// individually locked; the front end is expected to feed one utterance at a
// time per session.
type Context struct {
	mu           sync.Mutex
	lastBook     string
	lastCity     string
	pending      *ticketmodel.Draft
	history      []dialogue.Turn
	historyLimit int
	books        TitleChecker
}

func newContext(books TitleChecker, historyLimit int) *Context {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	return &Context{
		history:      make([]dialogue.Turn, 0, historyLimit),
		historyLimit: historyLimit,
		books:        books,
	}
}

// LastBook returns the last resolved book title, re-validated against the
// catalog. A title that no longer resolves is treated as unset.
func (c *Context) LastBook() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastBookLocked()
}

func (c *Context) lastBookLocked() (string, bool) {
	if c.lastBook == "" || !c.books.HasTitle(c.lastBook) {
		return "", false
	}
	return c.lastBook, true
}

// LastCity returns the last mentioned city, or empty.
func (c *Context) LastCity() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastCity
}

// PendingTicket returns the in-progress ticket draft, if any.
func (c *Context) PendingTicket() (ticketmodel.Draft, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return ticketmodel.Draft{}, false
	}
	return *c.pending, true
}

// SetPendingTicket stores a partially filled ticket draft.
func (c *Context) SetPendingTicket(d ticketmodel.Draft) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = &d
}

// ClearPendingTicket drops the draft once the ticket has been opened.
func (c *Context) ClearPendingTicket() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = nil
}

// ResolveContextualSlots fills missing slots of an under-specified intent
// from stored context: a bare "In São Paulo?" inherits the last resolved
// book, and an open_ticket intent inherits the fields already collected in
// the pending draft. Intents stay unresolved when context has nothing to
// offer; the orchestrator then prompts instead of guessing.
func (c *Context) ResolveContextualSlots(intent dialogue.Intent) dialogue.Intent {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch intent.Kind {
	case dialogue.KindBookDetails, dialogue.KindPurchaseLocations:
		if intent.Slots.Title == "" {
			if title, ok := c.lastBookLocked(); ok {
				intent.Slots.Title = title
			}
		}
	case dialogue.KindOpenTicket:
		if c.pending != nil {
			if intent.Slots.Subject == "" {
				intent.Slots.Subject = c.pending.Subject
			}
			if intent.Slots.Description == "" {
				intent.Slots.Description = c.pending.Description
			}
		}
	}
	return intent
}

// Update appends the turn to history and folds the handled intent back into
// context. Only successfully resolved lookups move lastBook/lastCity; an
// unknown intent leaves both untouched.
func (c *Context) Update(turn dialogue.Turn) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch turn.Response.Kind {
	case dialogue.ResponseBookDetails:
		if turn.Intent.Slots.Title != "" {
			c.lastBook = turn.Intent.Slots.Title
		}
	case dialogue.ResponseLocations:
		if turn.Intent.Slots.Title != "" {
			c.lastBook = turn.Intent.Slots.Title
		}
		if turn.Intent.Slots.City != "" {
			c.lastCity = turn.Intent.Slots.City
		}
	}

	c.history = append(c.history, turn)
	if len(c.history) > c.historyLimit {
		c.history = c.history[len(c.history)-c.historyLimit:]
	}
}

// History returns a copy of the retained turns, oldest first.
func (c *Context) History() []dialogue.Turn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]dialogue.Turn(nil), c.history...)
}

// Clear resets every field to its initial empty state.
func (c *Context) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastBook = ""
	c.lastCity = ""
	c.pending = nil
	c.history = c.history[:0]
}
