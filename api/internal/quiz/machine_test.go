package quiz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AlexFoxalt/recipes-tg-bot/api/internal/session"
)

func TestTransition(t *testing.T) {
	idle := session.IdleState()
	awaiting := session.Awaiting("Borscht")

	cases := []struct {
		st   session.State
		ev   Event
		want Action
	}{
		{idle, EventStart, ActionGreet},
		{awaiting, EventStart, ActionGreet},
		{idle, EventNextDish, ActionAskRecipe},
		{awaiting, EventNextDish, ActionAskRecipe},
		{awaiting, EventText, ActionGrade},
		{idle, EventText, ActionIgnore},
		{idle, Event(99), ActionIgnore},
	}
	for _, c := range cases {
		assert.Equalf(t, c.want, Transition(c.st, c.ev), "%s in %s", c.ev, c.st.Phase())
	}
}
