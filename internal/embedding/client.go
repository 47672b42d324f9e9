package embedding

import (
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Client обёртка над OpenAI клиентом, общая для embedder и генератора
type Client struct {
	client *openai.Client
}

// NewClient создаёт OpenAI клиент. baseURL необязателен,
// с ним клиент ходит в OpenAI-совместимый endpoint.
func NewClient(apiKey, baseURL string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		// ретраи делает backoff у вызывающих
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	client := openai.NewClient(opts...)
	return &Client{client: &client}, nil
}

// Client исходный OpenAI клиент
func (c *Client) Client() *openai.Client {
	return c.client
}
