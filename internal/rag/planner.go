package rag

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"dataroom-chatbot/internal/ai"
	"dataroom-chatbot/internal/index"
)

// MaxQueryVariants caps the variant set: the verbatim question plus at most
// three paraphrases.
const MaxQueryVariants = 4

// Intent is the classified shape of a question. Every field is best-effort;
// a failed classification yields the zero-value-equivalent default below.
type Intent struct {
	Level           string   `json:"level"`
	Entities        []string `json:"entities"`
	Keywords        []string `json:"keywords"`
	ExcludeKeywords []string `json:"exclude_keywords"`
}

// DefaultIntent is what classification degrades to. Never fatal to answering.
func DefaultIntent() Intent {
	return Intent{Level: index.LevelGeneral}
}

// Planner turns a question into an intent and a bounded set of semantically
// equivalent query variants. Both steps are LLM-backed and both fall back to
// the identity on any failure.
type Planner struct {
	client CompletionClient
	cfg    ai.ChatConfig
}

func NewPlanner(client CompletionClient, cfg ai.ChatConfig) *Planner {
	return &Planner{client: client, cfg: cfg}
}

// ClassifyIntent asks the model for the question's information level and key
// entities. Malformed or failed responses degrade to DefaultIntent.
func (p *Planner) ClassifyIntent(ctx context.Context, question string) Intent {
	prompt := fmt.Sprintf(`Classify this question about an investment dataroom.

Question: %s

Reply with only a JSON object of this exact shape:
{"level": "fund-level"|"portfolio-level"|"company-level"|"general", "entities": [...], "keywords": [...], "exclude_keywords": [...]}`, question)

	reply, err := p.client.Complete(ctx, p.cfg, []ai.ChatMessage{
		{Role: "user", Content: prompt},
	})
	if err != nil {
		log.Printf("intent classification degraded: %v", err)
		return DefaultIntent()
	}

	intent, err := parseIntent(reply)
	if err != nil {
		log.Printf("intent classification degraded: %v", err)
		return DefaultIntent()
	}
	return intent
}

// parseIntent is a strict-then-fallback decode: the first {...} block in the
// reply must unmarshal cleanly and carry a known level, or the parse fails.
func parseIntent(reply string) (Intent, error) {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end <= start {
		return Intent{}, fmt.Errorf("no json object in intent reply")
	}

	var intent Intent
	if err := json.Unmarshal([]byte(reply[start:end+1]), &intent); err != nil {
		return Intent{}, fmt.Errorf("decode intent json failed: %w", err)
	}
	switch intent.Level {
	case index.LevelFund, index.LevelPortfolio, index.LevelCompany, index.LevelGeneral:
	default:
		return Intent{}, fmt.Errorf("unknown intent level %q", intent.Level)
	}
	return intent, nil
}

// ExpandQuery requests 2-3 paraphrases that preserve the classified level and
// entities, one per line. The verbatim question always leads the result; on
// any failure the result is exactly [question].
func (p *Planner) ExpandQuery(ctx context.Context, question string, intent Intent) []string {
	variants := []string{question}

	var constraints strings.Builder
	fmt.Fprintf(&constraints, "Keep every rewrite at the %s information level.", intent.Level)
	if len(intent.Entities) > 0 {
		fmt.Fprintf(&constraints, " Keep these entities mentioned: %s.", strings.Join(intent.Entities, ", "))
	}

	prompt := fmt.Sprintf(`Rewrite this question 3 ways using different wording but the same meaning. %s

Question: %s

Reply with one rewrite per line and nothing else.`, constraints.String(), question)

	reply, err := p.client.Complete(ctx, p.cfg, []ai.ChatMessage{
		{Role: "user", Content: prompt},
	})
	if err != nil {
		log.Printf("query expansion degraded: %v", err)
		return variants
	}

	for _, line := range strings.Split(reply, "\n") {
		variant := cleanVariantLine(line)
		if variant == "" || strings.EqualFold(variant, question) {
			continue
		}
		variants = append(variants, variant)
		if len(variants) == MaxQueryVariants {
			break
		}
	}
	return variants
}

// cleanVariantLine strips list markers the model tends to prepend.
func cleanVariantLine(line string) string {
	line = strings.TrimSpace(line)
	line = strings.TrimLeft(line, "-*• \t")
	for i, r := range line {
		if r >= '0' && r <= '9' {
			continue
		}
		if r == '.' || r == ')' {
			line = line[i+1:]
		}
		break
	}
	return strings.Trim(strings.TrimSpace(line), `"`)
}
