package telegram

import (
	"context"
	"errors"
	"net"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/AlexFoxalt/recipes-tg-bot/api/internal/logger"
)

// Updater is the long-polling part of *tgbotapi.BotAPI.
type Updater interface {
	GetUpdates(config tgbotapi.UpdateConfig) ([]tgbotapi.Update, error)
}

// Poller runs a long-polling loop that survives transport errors.
type Poller struct {
	Bot Updater
	Log *logger.Logger

	Timeout   int // long polling timeout, seconds
	MinDelay  time.Duration
	MaxDelay  time.Duration
	IdleDelay time.Duration
}

func NewPoller(bot Updater, log *logger.Logger) *Poller {
	return &Poller{
		Bot:       bot,
		Log:       log,
		Timeout:   30,
		MinDelay:  time.Second,
		MaxDelay:  15 * time.Second,
		IdleDelay: 200 * time.Millisecond,
	}
}

// Run fetches updates and passes each to handle until ctx is done.
func (p *Poller) Run(ctx context.Context, handle func(tgbotapi.Update)) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.MinDelay
	bo.MaxInterval = p.MaxDelay
	bo.Reset()

	offset := 0
	for {
		if ctx.Err() != nil {
			p.Log.Info("polling: context cancelled")
			return
		}

		u := tgbotapi.NewUpdate(offset)
		u.Timeout = p.Timeout

		updates, err := p.Bot.GetUpdates(u)
		if err != nil {
			d := p.clamp(retryDelayFromError(err, bo))
			p.Log.Warn("polling error", "error", err, "retry_in", d)
			if !sleep(ctx, d) {
				return
			}
			continue
		}
		bo.Reset()

		for _, upd := range updates {
			if upd.UpdateID >= offset {
				offset = upd.UpdateID + 1
			}
			handle(upd)
		}

		if len(updates) == 0 && !sleep(ctx, p.IdleDelay) {
			return
		}
	}
}

func (p *Poller) clamp(d time.Duration) time.Duration {
	if d < p.MinDelay {
		d = p.MinDelay
	}
	if d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

var reRetryAfter = regexp.MustCompile(`(?i)retry after\s+(\d+)`)

// retryDelayFromError honors Telegram's "retry after N" on 429 and otherwise
// backs off exponentially.
func retryDelayFromError(err error, bo *backoff.ExponentialBackOff) time.Duration {
	if err == nil {
		return 0
	}
	var tgErr *tgbotapi.Error
	if errors.As(err, &tgErr) && tgErr.RetryAfter > 0 {
		return time.Duration(tgErr.RetryAfter) * time.Second
	}
	s := strings.ToLower(err.Error())
	if strings.Contains(s, "too many requests") { // HTTP 429
		if m := reRetryAfter.FindStringSubmatch(s); len(m) == 2 {
			if n, _ := strconv.Atoi(m[1]); n > 0 {
				return time.Duration(n) * time.Second
			}
		}
		return 3 * time.Second
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return 2 * time.Second
	}
	return bo.NextBackOff()
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
