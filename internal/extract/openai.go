package extract

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/sashabaranov/go-openai"

	"github.com/opensource-finance/claimguard/internal/domain"
	"github.com/opensource-finance/claimguard/internal/llm"
)

// OpenAIExtractor reads receipts with an OpenAI vision model.
type OpenAIExtractor struct {
	client *llm.Client
}

// NewOpenAIExtractor creates a vision extractor.
func NewOpenAIExtractor(cfg domain.ProviderConfig) (*OpenAIExtractor, error) {
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 2000
	}
	client, err := llm.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return &OpenAIExtractor{client: client}, nil
}

// Name returns the provider name.
func (e *OpenAIExtractor) Name() string {
	return "openai"
}

// ExtractClaim sends the image inline as a data URI and decodes the reply.
func (e *OpenAIExtractor) ExtractClaim(ctx context.Context, image []byte, mimeType string) (*domain.ClaimRecord, error) {
	if len(image) == 0 {
		return nil, fmt.Errorf("%w: empty image", ErrExtractionFailed)
	}
	if mimeType == "" {
		mimeType = http.DetectContentType(image)
	}
	dataURI := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(image))

	reply, err := e.client.Complete(ctx, openai.ChatCompletionRequest{
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: "Analyze this receipt image and provide the structured JSON response.",
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    dataURI,
							Detail: openai.ImageURLDetailHigh,
						},
					},
				},
			},
		},
		Temperature: 0.1,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: openai: %w", ErrExtractionFailed, err)
	}

	return decodeClaim(e.Name(), []byte(llm.StripCodeFence(reply)))
}
