// Package quiz drives the per-user dish quiz: pick a dish, take the recipe, grade it.
package quiz

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/AlexFoxalt/recipes-tg-bot/api/internal/catalog"
	"github.com/AlexFoxalt/recipes-tg-bot/api/internal/grader"
	"github.com/AlexFoxalt/recipes-tg-bot/api/internal/logger"
	"github.com/AlexFoxalt/recipes-tg-bot/api/internal/messages"
	"github.com/AlexFoxalt/recipes-tg-bot/api/internal/session"
	"github.com/AlexFoxalt/recipes-tg-bot/api/internal/store"
)

type Catalog interface {
	PickRandom() catalog.DishRecord
	FindByName(name string) (catalog.DishRecord, bool)
}

type Evaluator interface {
	Evaluate(ctx context.Context, req grader.Request) grader.Result
}

// Recorder persists finished rounds. Optional.
type Recorder interface {
	Record(ctx context.Context, a store.Attempt) error
}

type Deps struct {
	Catalog  Catalog
	Sessions *session.Store
	Grader   Evaluator
	Sender   Sender
	Messages *messages.Set
	Recorder Recorder
	Log      *logger.Logger

	// Engines and Backends enable the per-user /engine command.
	Engines  grader.Engines
	Backends *grader.Manager
}

type Controller struct {
	catalog  Catalog
	sessions *session.Store
	gate     *session.Gate
	grader   Evaluator
	sender   Sender
	msgs     *messages.Set
	render   *Renderer
	recorder Recorder
	engines  grader.Engines
	backends *grader.Manager
	log      *logger.Logger
}

func NewController(d Deps) *Controller {
	log := d.Log
	if log == nil {
		log = logger.Nop()
	}
	return &Controller{
		catalog:  d.Catalog,
		sessions: d.Sessions,
		gate:     session.NewGate(),
		grader:   d.Grader,
		sender:   d.Sender,
		msgs:     d.Messages,
		render:   NewRenderer(Control{Label: d.Messages.NextButton}),
		recorder: d.Recorder,
		engines:  d.Engines,
		backends: d.Backends,
		log:      log.With("component", "quiz"),
	}
}

// Control is the action button shown with every message.
func (c *Controller) Control() Control {
	return Control{Label: c.msgs.NextButton}
}

// OnStart greets the user. A pending round, if any, is kept.
func (c *Controller) OnStart(ctx context.Context, userID int64) {
	c.handle(ctx, userID, EventStart, "")
}

// OnNextDish starts a new round, silently abandoning any pending one.
func (c *Controller) OnNextDish(ctx context.Context, userID int64) {
	c.handle(ctx, userID, EventNextDish, "")
}

// OnText treats text as the recipe answer when a round is pending, and ignores it otherwise.
func (c *Controller) OnText(ctx context.Context, userID int64, text string) {
	c.handle(ctx, userID, EventText, text)
}

// handle runs one event. Events of the same user are serialized so a round's
// final Clear never races with the next round's SetAwaiting.
func (c *Controller) handle(ctx context.Context, userID int64, ev Event, text string) {
	unlock := c.gate.Lock(userID)
	defer unlock()

	st := c.sessions.Get(userID)
	switch Transition(st, ev) {
	case ActionGreet:
		c.log.Info("user started the bot", "user_id", userID)
		c.send(ctx, userID, c.render.Text(c.msgs.Greeting))
	case ActionAskRecipe:
		c.askRecipe(ctx, userID)
	case ActionGrade:
		dish, _ := st.PendingDish()
		c.grade(ctx, userID, dish, text)
	case ActionIgnore:
		c.log.Debug("ignoring message outside a round", "user_id", userID, "event", ev.String())
	}
}

func (c *Controller) askRecipe(ctx context.Context, userID int64) {
	dish := c.catalog.PickRandom()
	c.sessions.SetAwaiting(userID, dish.Name)
	c.log.Info("user requested new dish", "user_id", userID, "dish", dish.Name)
	c.send(ctx, userID, c.render.Text(c.msgs.DishPromptFor(dish.Name)))
}

func (c *Controller) grade(ctx context.Context, userID int64, dishName, answer string) {
	defer c.sessions.Clear(userID)

	roundID := uuid.New()
	log := c.log.With("user_id", userID, "dish", dishName, "round_id", roundID.String())

	dish, ok := c.catalog.FindByName(dishName)
	if !ok {
		log.Warn("pending dish not found in catalog")
		c.send(ctx, userID, c.render.Text(c.msgs.DishNotFound))
		return
	}

	c.send(ctx, userID, c.render.Text(c.msgs.Checking))

	log.Info("evaluating answer")
	res := c.grader.Evaluate(ctx, grader.Request{
		UserID:          userID,
		DishName:        dish.Name,
		ReferenceRecipe: dish.Recipe,
		UserText:        answer,
		Price:           dish.Price,
		Weight:          dish.Weight,
	})

	msg := c.render.Render(res, dish.ImageURL)
	log.Debug("sending evaluation", "with_image", msg.Kind == KindImage, "failed", res.Failed)
	c.send(ctx, userID, msg)
	c.record(ctx, log, store.Attempt{
		RoundID:    roundID,
		UserID:     userID,
		DishName:   dish.Name,
		Engine:     res.Engine,
		Model:      res.Model,
		Answer:     answer,
		Evaluation: res.Text,
		Failed:     res.Failed,
		Duration:   res.Duration,
	})
	log.Info("round finished, state cleared")
}

func (c *Controller) send(ctx context.Context, userID int64, m OutgoingMessage) {
	if err := deliver(ctx, c.sender, userID, m); err != nil {
		c.log.Error("send failed", "user_id", userID, "error", err)
	}
}

func (c *Controller) record(ctx context.Context, log *logger.Logger, a store.Attempt) {
	if c.recorder == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := c.recorder.Record(ctx, a); err != nil {
		log.Error("record attempt failed", "error", err)
	}
}
