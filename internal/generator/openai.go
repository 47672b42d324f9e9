package generator

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"

	"legal_rag/internal/embedding"
)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAIGenerator через Chat Completions API
type OpenAIGenerator struct {
	client *openai.Client
	model  string
}

var _ Generator = (*OpenAIGenerator)(nil)

func NewOpenAIGenerator(client *embedding.Client, model string) *OpenAIGenerator {
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAIGenerator{client: client.Client(), model: model}
}

func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string, opts Options) (Completion, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(opts.Temperature),
	}
	if opts.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(opts.MaxTokens))
	}
	if opts.TopP > 0 {
		params.TopP = openai.Float(opts.TopP)
	}

	resp, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return Completion{}, fmt.Errorf("chat completion: %w", err)
	}

	// нет choices: пустой ответ, не ошибка
	if len(resp.Choices) == 0 {
		return Completion{}, nil
	}
	choice := resp.Choices[0]
	return Completion{
		Text:         choice.Message.Content,
		FinishReason: string(choice.FinishReason),
	}, nil
}
