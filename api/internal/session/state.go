// Package session keeps the per-user quiz state in process memory.
package session

type Phase int

const (
	Idle Phase = iota
	AwaitingRecipe
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case AwaitingRecipe:
		return "awaiting_recipe"
	default:
		return "unknown"
	}
}

// State is Idle or AwaitingRecipe{dish}. The zero value is Idle; the only way to get
// an AwaitingRecipe state is Awaiting, so a pending dish exists exactly in that phase.
type State struct {
	phase Phase
	dish  string
}

func IdleState() State { return State{} }

func Awaiting(dishName string) State {
	return State{phase: AwaitingRecipe, dish: dishName}
}

func (s State) Phase() Phase { return s.phase }

// PendingDish reports the dish the user is expected to answer for.
func (s State) PendingDish() (string, bool) {
	return s.dish, s.phase == AwaitingRecipe
}
