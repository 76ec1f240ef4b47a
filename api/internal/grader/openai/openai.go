package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/AlexFoxalt/recipes-tg-bot/api/internal/grader"
)

// Engine grades through the Chat Completions API.
type Engine struct {
	Model  string
	client openai.Client
}

// New creates an engine. SDK retries are disabled: one evaluation is one request.
func New(apiKey, model string, opts ...option.RequestOption) *Engine {
	base := []option.RequestOption{
		option.WithAPIKey(strings.TrimSpace(apiKey)),
		option.WithMaxRetries(0),
	}
	return &Engine{
		Model:  strings.TrimSpace(model),
		client: openai.NewClient(append(base, opts...)...),
	}
}

func (e *Engine) Name() string { return grader.EngineGPT }

func (e *Engine) GetModel() string { return e.Model }

// WithModel returns an engine for model sharing the same HTTP client.
func (e *Engine) WithModel(model string) grader.Backend {
	cp := *e
	cp.Model = strings.TrimSpace(model)
	return &cp
}

func (e *Engine) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := e.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(e.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai: chat completion: no choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}
