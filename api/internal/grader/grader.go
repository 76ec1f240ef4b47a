// Package grader turns a submitted recipe into a graded evaluation text.
package grader

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/AlexFoxalt/recipes-tg-bot/api/internal/logger"
	"github.com/AlexFoxalt/recipes-tg-bot/api/internal/util"
)

// Result is the evaluation shown to the user. When Failed is set, Text is the apology.
type Result struct {
	Text     string
	Failed   bool
	Engine   string
	Model    string
	Duration time.Duration
}

type Grader struct {
	backends *Manager
	timeout  time.Duration
	apology  string
	log      *logger.Logger
}

// New builds a grader. timeout bounds every backend call; apology is returned on any failure.
func New(backends *Manager, timeout time.Duration, apology string, log *logger.Logger) *Grader {
	if log == nil {
		log = logger.Nop()
	}
	return &Grader{
		backends: backends,
		timeout:  timeout,
		apology:  apology,
		log:      log.With("component", "grader"),
	}
}

// Evaluate calls the user's backend once. Failures never leave this function:
// they are logged and replaced by the apology text.
func (g *Grader) Evaluate(ctx context.Context, req Request) Result {
	b := g.backends.Get(req.UserID)
	if b == nil {
		g.log.Error("no grading backend configured", "user_id", req.UserID, "dish", req.DishName)
		return Result{Text: g.apology, Failed: true}
	}
	log := g.log.With("user_id", req.UserID, "dish", req.DishName, "engine", b.Name(), "model", b.GetModel())

	log.Info("sending evaluation request")
	log.Debug("user recipe preview", "text", util.Preview(req.UserText, 120))

	p := BuildPrompt(req)
	start := time.Now()
	text, err := g.complete(ctx, b, p)
	res := Result{Engine: b.Name(), Model: b.GetModel(), Duration: time.Since(start)}
	if err != nil {
		log.Error("evaluation failed", "error", err, "duration", res.Duration)
		res.Text = g.apology
		res.Failed = true
		return res
	}

	res.Text = strings.TrimSpace(text)
	if res.Text == "" {
		log.Warn("backend returned empty evaluation")
	}
	log.Debug("evaluation response", "text", res.Text, "duration", res.Duration)
	return res
}

type completion struct {
	text string
	err  error
}

// complete runs the backend call under the grading timeout and stops waiting once it
// expires, even if the backend ignores ctx.
func (g *Grader) complete(ctx context.Context, b Backend, p Prompt) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	done := make(chan completion, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- completion{err: fmt.Errorf("grader: backend panic: %v", r)}
			}
		}()
		text, err := b.Complete(ctx, p.System, p.User)
		done <- completion{text: text, err: err}
	}()

	select {
	case c := <-done:
		return c.text, c.err
	case <-ctx.Done():
		return "", fmt.Errorf("grader: waiting for %s: %w", b.Name(), ctx.Err())
	}
}
