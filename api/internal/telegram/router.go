package telegram

import (
	"context"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/AlexFoxalt/recipes-tg-bot/api/internal/logger"
)

// Quiz receives the transport-independent events.
type Quiz interface {
	OnStart(ctx context.Context, userID int64)
	OnNextDish(ctx context.Context, userID int64)
	OnText(ctx context.Context, userID int64, text string)
	OnEngine(ctx context.Context, userID int64, args []string)
}

// Router maps Telegram updates to quiz events. The chat id is the user identity:
// the bot is meant for private chats.
type Router struct {
	Quiz      Quiz
	NextLabel string
	Log       *logger.Logger

	wg     sync.WaitGroup
	mu     sync.Mutex
	queues map[int64][]tgbotapi.Update // a present key means a worker is draining it
}

func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	if upd.Message == nil {
		return
	}
	msg := upd.Message
	cid := msg.Chat.ID

	if msg.IsCommand() {
		switch msg.Command() {
		case "start":
			r.Quiz.OnStart(ctx, cid)
			return
		case "engine":
			r.Quiz.OnEngine(ctx, cid, strings.Fields(msg.CommandArguments()))
			return
		}
	}

	text := strings.TrimSpace(msg.Text)
	switch {
	case text == "":
		r.log().Debug("ignoring non-text message", "user_id", cid)
	case text == r.NextLabel:
		r.Quiz.OnNextDish(ctx, cid)
	default:
		r.Quiz.OnText(ctx, cid, msg.Text)
	}
}

// Go queues upd behind earlier updates of the same chat. Each chat is drained in
// arrival order by one goroutine; different chats run concurrently, so a slow
// grading call never holds up other users.
func (r *Router) Go(ctx context.Context, upd tgbotapi.Update) {
	var key int64
	if upd.Message != nil {
		key = upd.Message.Chat.ID
	}

	r.wg.Add(1)
	r.mu.Lock()
	if r.queues == nil {
		r.queues = make(map[int64][]tgbotapi.Update)
	}
	q, running := r.queues[key]
	r.queues[key] = append(q, upd)
	r.mu.Unlock()

	if !running {
		go r.drain(ctx, key)
	}
}

func (r *Router) drain(ctx context.Context, key int64) {
	for {
		r.mu.Lock()
		q := r.queues[key]
		if len(q) == 0 {
			delete(r.queues, key)
			r.mu.Unlock()
			return
		}
		upd := q[0]
		r.queues[key] = q[1:]
		r.mu.Unlock()

		r.HandleUpdate(ctx, upd)
		r.wg.Done()
	}
}

// Dispatch returns the update callback for the poller and the webhook. Handlers run
// under ctx's values but not its cancellation, so a shutdown lets rounds in progress
// finish; bound the wait with Drain.
func (r *Router) Dispatch(ctx context.Context) func(tgbotapi.Update) {
	hctx := context.WithoutCancel(ctx)
	return func(upd tgbotapi.Update) { r.Go(hctx, upd) }
}

// Wait blocks until every update passed to Go is handled.
func (r *Router) Wait() {
	r.wg.Wait()
}

// Drain is Wait bounded by ctx. It returns ctx.Err() if updates are still running.
func (r *Router) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Router) log() *logger.Logger {
	if r.Log == nil {
		return logger.Nop()
	}
	return r.Log
}
