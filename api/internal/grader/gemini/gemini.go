package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/AlexFoxalt/recipes-tg-bot/api/internal/grader"
)

type Engine struct {
	Model  string
	client *genai.Client
}

// New builds a Gemini engine. Each Complete sends exactly one request: server errors
// come back as *StatusError instead of being retried by the client library.
func New(ctx context.Context, apiKey, model string, opts ...option.ClientOption) (*Engine, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini: GEMINI_API_KEY is empty")
	}
	hc := &http.Client{Transport: &singleShot{apiKey: apiKey, base: http.DefaultTransport}}
	base := []option.ClientOption{option.WithAPIKey(apiKey), option.WithHTTPClient(hc)}
	cl, err := genai.NewClient(ctx, append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("gemini: new client: %w", err)
	}
	return &Engine{
		Model:  strings.TrimSpace(model),
		client: cl,
	}, nil
}

func (e *Engine) Name() string     { return grader.EngineGemini }
func (e *Engine) GetModel() string { return e.Model }

func (e *Engine) WithModel(model string) grader.Backend {
	cp := *e
	cp.Model = strings.TrimSpace(model)
	return &cp
}

func (e *Engine) Close() error {
	return e.client.Close()
}

func (e *Engine) Complete(ctx context.Context, system, user string) (string, error) {
	// GenerativeModel carries the system instruction, so build one per call.
	m := e.client.GenerativeModel(e.Model)
	m.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(system)},
	}

	resp, err := m.GenerateContent(ctx, genai.Text(user))
	if err != nil {
		return "", fmt.Errorf("gemini: generate content: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return "", errors.New("gemini: generate content: no candidates in response")
	}
	return firstText(resp), nil
}

// firstText joins the text parts of the first candidate.
func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if t, ok := p.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String()
}
