package utterance

import (
	"regexp"
	"strings"
)

var (
	reQuoted    = regexp.MustCompile(`["“”'‘’]([^"“”'‘’]+)["“”'‘’]`)
	reAboutTail = regexp.MustCompile(`(?i)(?:sobre|detalhes\s+d[eo])\s+(.+)$`)
	reCityTail  = regexp.MustCompile(`(?i)(?:^|[\s,.;!?])(?:e\s+em|em|no|na)\s+([\p{L}][\p{L}\s]*?)\s*\??$`)
	reWhereBuy  = regexp.MustCompile(`(?i)\bonde\s+(?:compr(?:ar|o)|encontro|acho)\b`)
	reTicketSub = regexp.MustCompile(`(?i)^\s*abr(?:a|ir)\s+(?:um\s+)?(?:ticket|chamado)\s*["“'‘](.+?)["”'’]\s*$`)
	reTicketCmd = regexp.MustCompile(`(?i)^\s*abr(?:a|ir)\s+(?:um\s+)?(?:ticket|chamado)\b\s*:?\s*(.*)$`)
	reTicketKV  = regexp.MustCompile(`(?i)(subject|assunto|message|mensagem|descricao|descrição)\s*=\s*([^,]+)`)
)

// clearPhrases are full-utterance commands that reset the session.
var clearPhrases = map[string]struct{}{
	"limpar":          {},
	"limpar sessao":   {},
	"limpar conversa": {},
	"recomecar":       {},
	"nova conversa":   {},
	"esquecer tudo":   {},
	"clear":           {},
	"reset":           {},
}

// QuotedTitle returns the first quoted span: `Quero saber sobre "A Abelha"`
// -> "A Abelha".
func QuotedTitle(text string) (string, bool) {
	m := reQuoted.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	title := strings.TrimSpace(m[1])
	return title, title != ""
}

// Title extracts a probable book title: a quoted span first, then the tail of
// "sobre ..." / "detalhes de ...".
func Title(text string) (string, bool) {
	if title, ok := QuotedTitle(text); ok {
		return title, true
	}
	m := reAboutTail.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	cand := strings.TrimSpace(strings.TrimRight(strings.TrimSpace(m[1]), "?.!"))
	if len(cand) < 2 || len(cand) > 120 {
		return "", false
	}
	return cand, true
}

// TrailingCity extracts the city from utterances like "Em São Paulo?" or
// "e no Rio de Janeiro". Returns false when the tail is too short to be a
// city name.
func TrailingCity(text string) (string, bool) {
	m := reCityTail.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return "", false
	}
	city := strings.TrimSpace(m[1])
	if len([]rune(city)) < 2 {
		return "", false
	}
	return city, true
}

// IsWhereToBuy reports whether the utterance asks for purchase locations.
func IsWhereToBuy(text string) bool {
	return reWhereBuy.MatchString(text)
}

// IsClear reports whether the utterance is a session-reset command.
func IsClear(text string) bool {
	_, ok := clearPhrases[Normalize(text)]
	return ok
}

// TicketCommand parses explicit ticket-opening commands. Two forms are
// accepted, both inherited from the assistant's documented usage:
//
//	Abra um ticket 'Dúvida sobre submissão'
//	Abrir ticket: assunto=Dúvida, mensagem=Como envio o original?
//
// The returned subject/description may be empty when the command carries no
// payload; ok is true whenever the utterance is a ticket command at all.
func TicketCommand(text string) (subject, description string, ok bool) {
	if m := reTicketSub.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1]), "", true
	}
	m := reTicketCmd.FindStringSubmatch(text)
	if m == nil {
		return "", "", false
	}
	for _, kv := range reTicketKV.FindAllStringSubmatch(m[1], -1) {
		val := strings.TrimSpace(kv[2])
		val = strings.Trim(val, `"'“”‘’`)
		switch Normalize(kv[1]) {
		case "subject", "assunto":
			subject = val
		case "message", "mensagem", "descricao":
			description = val
		}
	}
	return subject, description, true
}
