// Package messages holds the fixed user-facing texts, one set per language.
package messages

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
)

//go:embed messages.json
var messagesJSON []byte

type Set struct {
	NextButton        string `json:"next_button"`
	Greeting          string `json:"greeting"`
	DishPrompt        string `json:"dish_prompt"`
	Checking          string `json:"checking"`
	DishNotFound      string `json:"dish_not_found"`
	GradingFailed     string `json:"grading_failed"`
	EngineCurrent     string `json:"engine_current"`
	EngineSwitched    string `json:"engine_switched"`
	EngineUnavailable string `json:"engine_unavailable"`
	EngineUnknown     string `json:"engine_unknown"`
}

var sets map[string]*Set

func init() {
	if err := json.Unmarshal(messagesJSON, &sets); err != nil {
		panic(fmt.Sprintf("messages: parse messages.json: %v", err))
	}
}

// For returns the message set for lang.
func For(lang string) (*Set, error) {
	s, ok := sets[lang]
	if !ok {
		return nil, fmt.Errorf("messages: unsupported language %q (available: %v)", lang, Languages())
	}
	return s, nil
}

func Languages() []string {
	out := make([]string, 0, len(sets))
	for k := range sets {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (s *Set) DishPromptFor(name string) string {
	return fmt.Sprintf(s.DishPrompt, name)
}
