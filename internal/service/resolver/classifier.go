package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/aurora-press/editorial-assistant/internal/model/dialogue"
)

// Hints carries the session context the backend may use to disambiguate an
// utterance. Everything here is optional.
type Hints struct {
	LastBook      string
	LastCity      string
	PendingTicket bool
}

// Classification is the backend's raw reading of an utterance, before the
// resolver applies its confidence policy.
type Classification struct {
	Kind       string
	Slots      dialogue.Slots
	Confidence float64
}

// Classifier is the language-understanding capability. Implementations may be
// remote and nondeterministic; the resolver treats them as an oracle and
// degrades gracefully when they fail.
type Classifier interface {
	Classify(ctx context.Context, text string, allowed []dialogue.Kind, hints Hints) (Classification, error)
}

// ArkClassifier implements Classifier over an eino prompt chain and an Ark
// chat model.
type ArkClassifier struct {
	chain compose.Runnable[map[string]any, *schema.Message]
}

// NewArkClassifier compiles the classification chain for the given model.
func NewArkClassifier(ctx context.Context, chatModel model.ChatModel) (*ArkClassifier, error) {
	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(classifierSystemPrompt),
		schema.UserMessage(classifierUserPrompt),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("compile intent classifier chain: %w", err)
	}
	return &ArkClassifier{chain: runnable}, nil
}

// Classify sends the utterance through the chain and parses the strict JSON
// reply the prompt demands.
func (c *ArkClassifier) Classify(ctx context.Context, text string, allowed []dialogue.Kind, hints Hints) (Classification, error) {
	input := map[string]any{
		"allowed_intents": formatAllowed(allowed),
		"hints":           formatHints(hints),
		"text":            strings.TrimSpace(text),
	}

	msg, err := c.chain.Invoke(ctx, input)
	if err != nil {
		return Classification{}, fmt.Errorf("invoke intent classifier: %w", err)
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return Classification{}, fmt.Errorf("intent classifier returned empty output")
	}
	return parseClassifierOutput(msg.Content)
}

// parseClassifierOutput extracts the JSON object from the model reply. Models
// occasionally wrap JSON in prose or code fences, so only the outermost brace
// span is parsed.
func parseClassifierOutput(content string) (Classification, error) {
	trimmed := strings.TrimSpace(content)
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start == -1 || end == -1 || end <= start {
		return Classification{}, fmt.Errorf("missing json object in classifier output")
	}

	var payload classifierPayload
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), &payload); err != nil {
		return Classification{}, fmt.Errorf("decode classifier output: %w", err)
	}

	conf := payload.Confidence
	if conf < 0 {
		conf = 0
	}
	if conf > 1 {
		conf = 1
	}

	return Classification{
		Kind: strings.ToLower(strings.TrimSpace(payload.Intent)),
		Slots: dialogue.Slots{
			Title:       strings.TrimSpace(payload.Slots.Title),
			City:        strings.TrimSpace(payload.Slots.City),
			Subject:     strings.TrimSpace(payload.Slots.Subject),
			Description: strings.TrimSpace(payload.Slots.Description),
		},
		Confidence: conf,
	}, nil
}

type classifierPayload struct {
	Intent string `json:"intent"`
	Slots  struct {
		Title       string `json:"title"`
		City        string `json:"city"`
		Subject     string `json:"subject"`
		Description string `json:"description"`
	} `json:"slots"`
	Confidence float64 `json:"confidence"`
}

func formatAllowed(allowed []dialogue.Kind) string {
	names := make([]string, len(allowed))
	for i, kind := range allowed {
		names[i] = string(kind)
	}
	return strings.Join(names, ", ")
}

func formatHints(hints Hints) string {
	var parts []string
	if hints.LastBook != "" {
		parts = append(parts, fmt.Sprintf("último livro mencionado: %q", hints.LastBook))
	}
	if hints.LastCity != "" {
		parts = append(parts, fmt.Sprintf("última cidade mencionada: %q", hints.LastCity))
	}
	if hints.PendingTicket {
		parts = append(parts, "há um ticket de suporte em preenchimento")
	}
	if len(parts) == 0 {
		return "nenhum"
	}
	return strings.Join(parts, "; ")
}

const classifierSystemPrompt = "Você é o classificador de intenções de um assistente editorial. " +
	"O usuário pergunta sobre livros do catálogo (detalhes, onde comprar em uma cidade ou online) ou abre tickets de suporte. " +
	"Classifique a mensagem em exatamente uma das intenções permitidas e extraia os slots. " +
	"Responda somente com um objeto JSON no formato: " +
	`{"intent": "<intenção>", "slots": {"title": str|null, "city": str|null, "subject": str|null, "description": str|null}, "confidence": número entre 0 e 1}. ` +
	"Use unknown quando a mensagem não se encaixar em nenhuma intenção. Não escreva nada além do JSON."

const classifierUserPrompt = "Intenções permitidas: {allowed_intents}\n\n" +
	"Contexto da conversa: {hints}\n\n" +
	"Mensagem do usuário: {text}"
