package quiz

import (
	"fmt"

	"github.com/AlexFoxalt/recipes-tg-bot/api/internal/session"
)

type Event int

const (
	EventStart Event = iota
	EventNextDish
	EventText
)

func (e Event) String() string {
	switch e {
	case EventStart:
		return "start"
	case EventNextDish:
		return "next_dish"
	case EventText:
		return "text"
	default:
		return fmt.Sprintf("event(%d)", int(e))
	}
}

// Action is what the controller does in response to an event.
type Action int

const (
	// ActionGreet sends the greeting; state is unchanged.
	ActionGreet Action = iota
	// ActionAskRecipe picks a dish and moves to AwaitingRecipe.
	ActionAskRecipe
	// ActionGrade grades the answer and moves to Idle.
	ActionGrade
	// ActionIgnore does nothing.
	ActionIgnore
)

// Transition is the quiz state machine.
//
//	start      any             -> greet
//	next dish  any             -> ask recipe (AwaitingRecipe)
//	text       AwaitingRecipe  -> grade (Idle)
//	text       Idle            -> ignore
func Transition(st session.State, ev Event) Action {
	switch ev {
	case EventStart:
		return ActionGreet
	case EventNextDish:
		return ActionAskRecipe
	case EventText:
		switch st.Phase() {
		case session.AwaitingRecipe:
			return ActionGrade
		case session.Idle:
			return ActionIgnore
		}
	}
	return ActionIgnore
}
