package vision

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/rs/zerolog/log"

	"github.com/revibe/designgen/internal/design"
)

const (
	openaiModel     = "gpt-4o"
	openaiFastModel = "gpt-4o-mini"
)

// OpenAIAnalyzer uses OpenAI's vision-capable chat completions for image
// analysis.
type OpenAIAnalyzer struct {
	client   openai.Client
	model    string
	fastMode bool
}

// NewOpenAIAnalyzer creates an OpenAI-based analyzer. Fast mode uses the
// smaller model with deterministic sampling.
func NewOpenAIAnalyzer(apiKey string, fastMode bool) *OpenAIAnalyzer {
	model := openaiModel
	if fastMode {
		model = openaiFastModel
	}
	return &OpenAIAnalyzer{
		client:   openai.NewClient(option.WithAPIKey(apiKey)),
		model:    model,
		fastMode: fastMode,
	}
}

// Analyze implements the Analyzer interface using OpenAI.
func (o *OpenAIAnalyzer) Analyze(ctx context.Context, req Request) (*design.AnalysisResult, error) {
	mimeType := req.MimeType
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(req.ImageData))
	prompt := analysisPrompt(req.DesignStyle, req.CustomInstructions, req.DesignType)

	maxTokens := int64(3072)
	temperature := 0.7
	if o.fastMode {
		maxTokens = 2048
		temperature = 0
	}

	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: o.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart(prompt),
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
					URL: dataURL,
				}),
			}),
		},
		MaxTokens:   openai.Int(maxTokens),
		Temperature: openai.Float(temperature),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI vision")
	}

	text := resp.Choices[0].Message.Content
	log.Debug().Str("model", o.model).Int("responseLen", len(text)).Msg("vision response received")

	return parseAnalysis(text)
}
