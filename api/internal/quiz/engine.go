package quiz

import (
	"context"
	"fmt"
	"strings"

	"github.com/AlexFoxalt/recipes-tg-bot/api/internal/grader"
)

// OnEngine handles "/engine [name [model]]": without arguments it shows the user's
// grading backend, otherwise it switches it for that user only.
func (c *Controller) OnEngine(ctx context.Context, userID int64, args []string) {
	if c.backends == nil {
		c.send(ctx, userID, c.render.Text(c.msgs.EngineUnknown))
		return
	}
	if len(args) == 0 {
		cur := c.backends.Get(userID)
		name, model := "-", "-"
		if cur != nil {
			name, model = cur.Name(), cur.GetModel()
		}
		c.send(ctx, userID, c.render.Text(fmt.Sprintf(c.msgs.EngineCurrent, name, model)))
		return
	}

	name := strings.ToLower(strings.TrimSpace(args[0]))
	b, err := c.engines.Get(name)
	if err != nil {
		c.send(ctx, userID, c.render.Text(c.msgs.EngineUnknown))
		return
	}
	if b == nil {
		c.send(ctx, userID, c.render.Text(fmt.Sprintf(c.msgs.EngineUnavailable, name)))
		return
	}
	if len(args) > 1 && strings.TrimSpace(args[1]) != "" {
		if ms, ok := b.(grader.ModelSwitcher); ok {
			b = ms.WithModel(args[1])
		}
	}
	c.backends.Set(userID, b)
	c.log.Info("grading engine switched", "user_id", userID, "engine", b.Name(), "model", b.GetModel())
	c.send(ctx, userID, c.render.Text(fmt.Sprintf(c.msgs.EngineSwitched, b.Name(), b.GetModel())))
}
