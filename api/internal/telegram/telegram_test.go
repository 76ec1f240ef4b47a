package telegram

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v5"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlexFoxalt/recipes-tg-bot/api/internal/logger"
	"github.com/AlexFoxalt/recipes-tg-bot/api/internal/quiz"
)

type quizCall struct {
	Event  string
	UserID int64
	Text   string
	Args   []string
}

type fakeQuiz struct {
	mu    sync.Mutex
	calls []quizCall
}

func (f *fakeQuiz) add(c quizCall) {
	f.mu.Lock()
	f.calls = append(f.calls, c)
	f.mu.Unlock()
}

func (f *fakeQuiz) OnStart(_ context.Context, id int64)    { f.add(quizCall{Event: "start", UserID: id}) }
func (f *fakeQuiz) OnNextDish(_ context.Context, id int64) { f.add(quizCall{Event: "next", UserID: id}) }
func (f *fakeQuiz) OnText(_ context.Context, id int64, text string) {
	f.add(quizCall{Event: "text", UserID: id, Text: text})
}
func (f *fakeQuiz) OnEngine(_ context.Context, id int64, args []string) {
	f.add(quizCall{Event: "engine", UserID: id, Args: args})
}

func textUpdate(chatID int64, text string) tgbotapi.Update {
	msg := &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: chatID}, Text: text}
	if strings.HasPrefix(text, "/") {
		cmd, _, _ := strings.Cut(text, " ")
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}}
	}
	return tgbotapi.Update{Message: msg}
}

func TestRouterHandleUpdate(t *testing.T) {
	q := &fakeQuiz{}
	r := &Router{Quiz: q, NextLabel: "New dish"}
	ctx := context.Background()

	r.HandleUpdate(ctx, textUpdate(1, "/start"))
	r.HandleUpdate(ctx, textUpdate(1, "New dish"))
	r.HandleUpdate(ctx, textUpdate(1, "beets and potato"))
	r.HandleUpdate(ctx, textUpdate(1, "/engine gemini gemini-2.5-pro"))
	r.HandleUpdate(ctx, textUpdate(1, "/engine"))
	r.HandleUpdate(ctx, textUpdate(1, ""))
	r.HandleUpdate(ctx, tgbotapi.Update{})

	assert.Equal(t, []quizCall{
		{Event: "start", UserID: 1},
		{Event: "next", UserID: 1},
		{Event: "text", UserID: 1, Text: "beets and potato"},
		{Event: "engine", UserID: 1, Args: []string{"gemini", "gemini-2.5-pro"}},
		{Event: "engine", UserID: 1, Args: []string{}},
	}, q.calls)
}

func TestRouterGoWaits(t *testing.T) {
	q := &fakeQuiz{}
	r := &Router{Quiz: q, NextLabel: "New dish"}
	for i := int64(1); i <= 5; i++ {
		r.Go(context.Background(), textUpdate(i, "New dish"))
	}
	r.Wait()
	assert.Len(t, q.calls, 5)
}

// gatedQuiz blocks every OnNextDish of chat 1 until release is closed.
type gatedQuiz struct {
	fakeQuiz
	release chan struct{}
}

func (g *gatedQuiz) OnNextDish(ctx context.Context, id int64) {
	if id == 1 {
		<-g.release
	}
	g.fakeQuiz.OnNextDish(ctx, id)
}

func (f *fakeQuiz) snapshot() []quizCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]quizCall(nil), f.calls...)
}

func TestRouterGoKeepsChatOrder(t *testing.T) {
	q := &gatedQuiz{release: make(chan struct{})}
	r := &Router{Quiz: q, NextLabel: "New dish"}
	ctx := context.Background()

	r.Go(ctx, textUpdate(1, "New dish"))
	for _, s := range []string{"a", "b", "c", "d", "e"} {
		r.Go(ctx, textUpdate(1, s))
	}
	r.Go(ctx, textUpdate(2, "hello"))

	require.Eventually(t, func() bool {
		for _, c := range q.snapshot() {
			if c.UserID == 2 {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond, "chat 2 is not held up by chat 1")
	assert.Len(t, q.snapshot(), 1, "chat 1 text waits behind its pending button press")

	close(q.release)
	r.Wait()

	var chat1 []string
	for _, c := range q.snapshot() {
		if c.UserID == 1 {
			chat1 = append(chat1, c.Event+":"+c.Text)
		}
	}
	assert.Equal(t, []string{"next:", "text:a", "text:b", "text:c", "text:d", "text:e"}, chat1)

	r.mu.Lock()
	assert.Empty(t, r.queues, "idle chats are dropped")
	r.mu.Unlock()
}

func TestRouterDrain(t *testing.T) {
	q := &gatedQuiz{release: make(chan struct{})}
	r := &Router{Quiz: q, NextLabel: "New dish"}
	r.Go(context.Background(), textUpdate(1, "New dish"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, r.Drain(ctx), context.DeadlineExceeded)

	close(q.release)
	assert.NoError(t, r.Drain(context.Background()))
	assert.Len(t, q.snapshot(), 1)
}

type ctxQuiz struct {
	fakeQuiz
	errs chan error
}

func (c *ctxQuiz) OnText(ctx context.Context, id int64, text string) {
	c.errs <- ctx.Err()
}

func TestRouterDispatchSurvivesShutdown(t *testing.T) {
	q := &ctxQuiz{errs: make(chan error, 1)}
	r := &Router{Quiz: q, NextLabel: "New dish"}

	ctx, cancel := context.WithCancel(context.Background())
	dispatch := r.Dispatch(ctx)
	cancel()
	dispatch(textUpdate(1, "beets"))

	require.NoError(t, r.Drain(context.Background()))
	assert.NoError(t, <-q.errs, "handler context is not cancelled with the root context")
}

type fakeBot struct {
	mu   sync.Mutex
	sent []tgbotapi.Chattable
	errs []error
}

func (f *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return tgbotapi.Message{}, err
	}
	return tgbotapi.Message{}, nil
}

func keyboardLabel(t *testing.T, markup any) string {
	t.Helper()
	kb, ok := markup.(tgbotapi.ReplyKeyboardMarkup)
	require.True(t, ok, "reply keyboard attached")
	assert.True(t, kb.ResizeKeyboard)
	assert.False(t, kb.OneTimeKeyboard)
	require.Len(t, kb.Keyboard, 1)
	require.Len(t, kb.Keyboard[0], 1)
	return kb.Keyboard[0][0].Text
}

func TestSenderSendText(t *testing.T) {
	bot := &fakeBot{}
	s := &Sender{Bot: bot}

	require.NoError(t, s.SendText(context.Background(), 7, "Close match. 📍Score: 8/10", quiz.Control{Label: "New dish"}))

	require.Len(t, bot.sent, 1)
	msg, ok := bot.sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.EqualValues(t, 7, msg.ChatID)
	assert.Equal(t, "Close match. 📍Score: 8/10", msg.Text)
	assert.Equal(t, "New dish", keyboardLabel(t, msg.ReplyMarkup))
}

func TestSenderSendTextEmptyAndLong(t *testing.T) {
	bot := &fakeBot{}
	s := &Sender{Bot: bot}

	require.NoError(t, s.SendText(context.Background(), 7, "", quiz.Control{Label: "New dish"}))
	require.NoError(t, s.SendText(context.Background(), 7, strings.Repeat("a", 5000), quiz.Control{Label: "New dish"}))

	assert.Equal(t, "…", bot.sent[0].(tgbotapi.MessageConfig).Text)
	assert.Len(t, []rune(bot.sent[1].(tgbotapi.MessageConfig).Text), maxMessageLen)
}

func TestSenderSendImage(t *testing.T) {
	bot := &fakeBot{}
	s := &Sender{Bot: bot}

	require.NoError(t, s.SendImage(context.Background(), 7, "https://img/b.jpg", "Good", quiz.Control{Label: "New dish"}))

	require.Len(t, bot.sent, 1)
	photo, ok := bot.sent[0].(tgbotapi.PhotoConfig)
	require.True(t, ok)
	assert.Equal(t, tgbotapi.FileURL("https://img/b.jpg"), photo.File)
	assert.Equal(t, "Good", photo.Caption)
	assert.Equal(t, tgbotapi.ModeMarkdown, photo.ParseMode)
	assert.Equal(t, "New dish", keyboardLabel(t, photo.ReplyMarkup))
}

func TestSenderSendImageRetriesWithoutMarkdown(t *testing.T) {
	bot := &fakeBot{errs: []error{errors.New("Bad Request: can't parse entities: unmatched *")}}
	s := &Sender{Bot: bot}

	require.NoError(t, s.SendImage(context.Background(), 7, "https://img/b.jpg", "2*3", quiz.Control{Label: "New dish"}))

	require.Len(t, bot.sent, 2)
	assert.Empty(t, bot.sent[1].(tgbotapi.PhotoConfig).ParseMode)
}

func TestSenderSendImageLongCaption(t *testing.T) {
	bot := &fakeBot{}
	s := &Sender{Bot: bot}
	caption := strings.Repeat("b", maxCaptionLen+1)

	require.NoError(t, s.SendImage(context.Background(), 7, "https://img/b.jpg", caption, quiz.Control{Label: "New dish"}))

	require.Len(t, bot.sent, 2)
	assert.Empty(t, bot.sent[0].(tgbotapi.PhotoConfig).Caption)
	assert.Equal(t, caption, bot.sent[1].(tgbotapi.MessageConfig).Text)
}

func TestSenderError(t *testing.T) {
	bot := &fakeBot{errs: []error{errors.New("Forbidden: bot was blocked by the user")}}
	s := &Sender{Bot: bot}

	err := s.SendText(context.Background(), 7, "x", quiz.Control{Label: "New dish"})
	require.Error(t, err)
}

type fakeUpdater struct {
	mu      sync.Mutex
	replies []func() ([]tgbotapi.Update, error)
	offsets []int
}

func (f *fakeUpdater) GetUpdates(c tgbotapi.UpdateConfig) ([]tgbotapi.Update, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.offsets = append(f.offsets, c.Offset)
	if len(f.replies) == 0 {
		return nil, nil
	}
	r := f.replies[0]
	f.replies = f.replies[1:]
	return r()
}

func TestPollerRun(t *testing.T) {
	bot := &fakeUpdater{replies: []func() ([]tgbotapi.Update, error){
		func() ([]tgbotapi.Update, error) { return nil, errors.New("connection refused") },
		func() ([]tgbotapi.Update, error) {
			return []tgbotapi.Update{{UpdateID: 10}, {UpdateID: 11}}, nil
		},
		func() ([]tgbotapi.Update, error) { return []tgbotapi.Update{{UpdateID: 12}}, nil },
	}}
	p := NewPoller(bot, logger.Nop())
	p.MinDelay = time.Millisecond
	p.MaxDelay = 5 * time.Millisecond
	p.IdleDelay = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	var got []int
	done := make(chan struct{})
	go func() {
		p.Run(ctx, func(u tgbotapi.Update) {
			got = append(got, u.UpdateID)
			if u.UpdateID == 12 {
				cancel()
			}
		})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		cancel()
		t.Fatal("poller did not stop")
	}
	assert.Equal(t, []int{10, 11, 12}, got)

	bot.mu.Lock()
	defer bot.mu.Unlock()
	assert.Equal(t, []int{0, 0, 12}, bot.offsets[:3], "offset advances past handled updates")
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestRetryDelayFromError(t *testing.T) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 100 * time.Millisecond
	bo.RandomizationFactor = 0
	bo.Reset()

	assert.Equal(t, 7*time.Second, retryDelayFromError(&tgbotapi.Error{Code: 429, ResponseParameters: tgbotapi.ResponseParameters{RetryAfter: 7}}, bo))
	assert.Equal(t, 5*time.Second, retryDelayFromError(errors.New("Too Many Requests: retry after 5"), bo))
	assert.Equal(t, 3*time.Second, retryDelayFromError(errors.New("too many requests"), bo))
	assert.Equal(t, 2*time.Second, retryDelayFromError(timeoutErr{}, bo))
	assert.Equal(t, 100*time.Millisecond, retryDelayFromError(errors.New("connection reset"), bo))
	assert.Equal(t, 150*time.Millisecond, retryDelayFromError(errors.New("connection reset"), bo))
	assert.Zero(t, retryDelayFromError(nil, bo))
}

func TestWebhookHandler(t *testing.T) {
	var got []tgbotapi.Update
	h := WebhookHandler(&tgbotapi.BotAPI{}, logger.Nop(), func(u tgbotapi.Update) { got = append(got, u) })

	req := httptest.NewRequest(http.MethodPost, "/webhook/x", strings.NewReader(`{"update_id": 5, "message": {"message_id": 1, "date": 0, "chat": {"id": 9, "type": "private"}, "text": "hi"}}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, got, 1)
	assert.Equal(t, 5, got[0].UpdateID)
	assert.EqualValues(t, 9, got[0].Message.Chat.ID)

	bad := httptest.NewRecorder()
	h.ServeHTTP(bad, httptest.NewRequest(http.MethodPost, "/webhook/x", strings.NewReader(`{`)))
	assert.Equal(t, http.StatusBadRequest, bad.Code)
	assert.Len(t, got, 1)
}

func TestWebhookPath(t *testing.T) {
	p := WebhookPath("123:abc")
	assert.True(t, strings.HasPrefix(p, "/webhook/"))
	assert.Equal(t, p, WebhookPath("123:abc"))
	assert.NotContains(t, p, "abc")
}
