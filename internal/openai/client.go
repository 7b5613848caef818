// Package openai adapts the OpenAI Responses API to the llm.Provider contract.
package openai

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"

	"github.com/MikeSquared-Agency/secondthought/internal/llm"
)

const defaultGenerateTokens = 4096

type Client struct {
	client openai.Client
	model  string
}

type Option func(*[]option.RequestOption)

// WithBaseURL targets an OpenAI-compatible endpoint other than api.openai.com.
func WithBaseURL(url string) Option {
	return func(opts *[]option.RequestOption) {
		if url != "" {
			*opts = append(*opts, option.WithBaseURL(url))
		}
	}
}

// NewClient builds a client that never retries on its own; callers fall back
// to the heuristic path instead.
func NewClient(apiKey, model string, opts ...Option) *Client {
	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	for _, opt := range opts {
		opt(&reqOpts)
	}
	return &Client{client: openai.NewClient(reqOpts...), model: model}
}

func (c *Client) Name() string { return "openai" }

// Generate requests strict JSON schema output.
func (c *Client) Generate(ctx context.Context, req llm.Request) (string, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultGenerateTokens
	}
	format := responses.ResponseFormatTextConfigUnionParam{
		OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
			Name:        req.Name,
			Schema:      req.Schema,
			Strict:      openai.Bool(true),
			Description: openai.String(req.Description),
			Type:        "json_schema",
		},
	}
	params := responses.ResponseNewParams{
		Model:           c.model,
		MaxOutputTokens: openai.Int(int64(maxTokens)),
		Instructions:    openai.String(req.System),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: []responses.ResponseInputItemUnionParam{
				responses.ResponseInputItemParamOfMessage(req.Prompt, responses.EasyInputMessageRoleUser),
			},
		},
		Text: responses.ResponseTextConfigParam{
			Format: format,
		},
	}
	return c.send(ctx, params)
}

// Complete replays a chat history and returns the reply text.
func (c *Client) Complete(ctx context.Context, system string, messages []llm.Message, maxTokens int) (string, error) {
	items := make([]responses.ResponseInputItemUnionParam, 0, len(messages))
	for _, m := range messages {
		items = append(items, responses.ResponseInputItemParamOfMessage(m.Content, roleOf(m.Role)))
	}
	params := responses.ResponseNewParams{
		Model: c.model,
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: items,
		},
	}
	if system != "" {
		params.Instructions = openai.String(system)
	}
	if maxTokens > 0 {
		params.MaxOutputTokens = openai.Int(int64(maxTokens))
	}
	return c.send(ctx, params)
}

func (c *Client) send(ctx context.Context, params responses.ResponseNewParams) (string, error) {
	resp, err := c.client.Responses.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("api call: %w", err)
	}
	out := resp.OutputText()
	if out == "" {
		return "", errors.New("empty response content")
	}
	return out, nil
}

func roleOf(role string) responses.EasyInputMessageRole {
	switch role {
	case "assistant":
		return responses.EasyInputMessageRoleAssistant
	case "system":
		return responses.EasyInputMessageRoleSystem
	case "developer":
		return responses.EasyInputMessageRoleDeveloper
	default:
		return responses.EasyInputMessageRoleUser
	}
}
