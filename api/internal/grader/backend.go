package grader

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// Backend is a text-generation service: one system instruction and one user
// instruction in, free text out.
type Backend interface {
	Name() string
	GetModel() string
	Complete(ctx context.Context, system, user string) (string, error)
}

// ModelSwitcher is implemented by backends that can serve a different model on the same client.
type ModelSwitcher interface {
	WithModel(model string) Backend
}

const (
	EngineGPT    = "gpt"
	EngineGemini = "gemini"
)

var ErrUnknownEngine = errors.New("grader: unknown engine")

// Engines holds the configured backends. A nil field means the engine is not configured.
type Engines struct {
	OpenAI Backend
	Gemini Backend
}

// Get resolves an engine name. It returns (nil, nil) for a known but unconfigured engine.
func (e Engines) Get(name string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case EngineGPT, "openai":
		return e.OpenAI, nil
	case EngineGemini:
		return e.Gemini, nil
	default:
		return nil, ErrUnknownEngine
	}
}

// Manager tracks which backend grades each user's answers.
type Manager struct {
	def Backend
	m   sync.Map // userID -> Backend
}

func NewManager(defaultBackend Backend) *Manager {
	return &Manager{def: defaultBackend}
}

func (m *Manager) Get(userID int64) Backend {
	if v, ok := m.m.Load(userID); ok {
		return v.(Backend)
	}
	return m.def
}

func (m *Manager) Set(userID int64, b Backend) {
	m.m.Store(userID, b)
}
