package review

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/opensource-finance/claimguard/internal/domain"
	"github.com/opensource-finance/claimguard/internal/llm"
)

// OpenAIReviewer asks a chat model whether each item fits the diagnosis.
type OpenAIReviewer struct {
	client *llm.Client
}

// NewOpenAIReviewer creates a model-backed reviewer.
func NewOpenAIReviewer(cfg domain.ProviderConfig) (*OpenAIReviewer, error) {
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 1000
	}
	client, err := llm.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return &OpenAIReviewer{client: client}, nil
}

// Name returns the provider name.
func (r *OpenAIReviewer) Name() string {
	return "openai"
}

// ReviewNecessity consults the model. An unknown diagnosis, a failed call or
// an unreadable reply all degrade to passing every item.
func (r *OpenAIReviewer) ReviewNecessity(ctx context.Context, diagnosis string, itemNames []string) (map[string]domain.NecessityVerdict, error) {
	if len(itemNames) == 0 {
		return map[string]domain.NecessityVerdict{}, nil
	}
	if unknownDiagnosis(diagnosis) {
		return passAll(itemNames), nil
	}

	verdicts, err := r.review(ctx, diagnosis, itemNames)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		slog.Warn("necessity review failed, passing all items",
			"provider", r.Name(),
			"error", err,
		)
		return passAll(itemNames), nil
	}
	return verdicts, nil
}

func (r *OpenAIReviewer) review(ctx context.Context, diagnosis string, itemNames []string) (map[string]domain.NecessityVerdict, error) {
	items, err := json.Marshal(itemNames)
	if err != nil {
		return nil, err
	}

	reply, err := r.client.Complete(ctx, openai.ChatCompletionRequest{
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: buildPrompt(diagnosis, string(items))},
		},
		Temperature: 0.1,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, err
	}

	var raw map[string]domain.NecessityVerdict
	if err := json.Unmarshal([]byte(llm.StripCodeFence(reply)), &raw); err != nil {
		return nil, fmt.Errorf("decode verdicts: %w", err)
	}

	out := make(map[string]domain.NecessityVerdict, len(raw))
	for name, v := range raw {
		out[name] = normalizeVerdict(v)
	}
	return out, nil
}

func buildPrompt(diagnosis, items string) string {
	return fmt.Sprintf(`You are a Medical Claim Adjudicator.
Diagnosis: %s
Items: %s

Return a JSON object mapping each item name, exactly as given, to a verdict:
{
  "item_name": {
    "status": "PASS" | "FLAG" | "CONTRAINDICATED",
    "reason": "short explanation",
    "severity": "LOW" | "MEDIUM" | "HIGH"
  }
}

Rules:
1. FLAG items clearly unrelated to the diagnosis, such as an MRI for a fever.
2. FLAG cosmetics and non-medical items.
3. Use CONTRAINDICATED for items that are harmful for the diagnosis and set severity.
4. Be lenient when the diagnosis is vague.`, diagnosis, items)
}

func unknownDiagnosis(diagnosis string) bool {
	d := strings.TrimSpace(diagnosis)
	return d == "" || strings.EqualFold(d, "unknown")
}

// normalizeVerdict upper-cases the status and treats anything unrecognised
// as FLAG so a human looks at it.
func normalizeVerdict(v domain.NecessityVerdict) domain.NecessityVerdict {
	status := domain.NecessityStatus(strings.ToUpper(strings.TrimSpace(string(v.Status))))
	switch status {
	case domain.NecessityPass, domain.NecessityFlag, domain.NecessityContraindicated:
		v.Status = status
	default:
		v.Status = domain.NecessityFlag
	}
	v.Severity = strings.ToUpper(strings.TrimSpace(v.Severity))
	return v
}
