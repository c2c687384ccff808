package dialogue

// Kind identifies what the user is asking for.
type Kind string

const (
	KindBookDetails       Kind = "book_details"
	KindPurchaseLocations Kind = "purchase_locations"
	KindOpenTicket        Kind = "open_ticket"
	KindClearSession      Kind = "clear_session"
	KindUnknown           Kind = "unknown"
)

// Kinds lists every kind the resolver may emit, in a stable order. It is also
// the allowed-intent set handed to the language-understanding backend.
func Kinds() []Kind {
	return []Kind{
		KindBookDetails,
		KindPurchaseLocations,
		KindOpenTicket,
		KindClearSession,
		KindUnknown,
	}
}

// ParseKind maps a raw backend label to a known kind.
func ParseKind(raw string) (Kind, bool) {
	switch Kind(raw) {
	case KindBookDetails, KindPurchaseLocations, KindOpenTicket, KindClearSession, KindUnknown:
		return Kind(raw), true
	}
	return KindUnknown, false
}

// Slots carries the extracted arguments of an intent. Empty string means the
// slot is unfilled.
type Slots struct {
	Title       string `json:"title,omitempty"`
	City        string `json:"city,omitempty"`
	Subject     string `json:"subject,omitempty"`
	Description string `json:"description,omitempty"`
}

// Intent is the structured reading of one utterance. Slots may be partially
// filled; the orchestrator prompts for anything required but missing.
type Intent struct {
	Kind       Kind    `json:"kind"`
	Slots      Slots   `json:"slots"`
	RawText    string  `json:"rawText,omitempty"`
	Confidence float64 `json:"confidence"`
	// Source records which stage produced the intent: "heuristic", "backend"
	// or "fallback".
	Source string `json:"source,omitempty"`
}

// Unknown builds the degraded intent used whenever classification fails.
func Unknown(rawText, source string) Intent {
	return Intent{Kind: KindUnknown, RawText: rawText, Source: source}
}
