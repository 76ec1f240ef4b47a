package grader

import (
	"fmt"
	"strings"
)

// Request is everything the grader needs for one answer. Empty recipe, price and weight
// are replaced with placeholders in the prompt language.
type Request struct {
	UserID          int64
	DishName        string
	ReferenceRecipe string
	UserText        string
	Price           string
	Weight          string
}

// Prompt is the two-part instruction sent to a backend.
type Prompt struct {
	System string
	User   string
}

// BuildPrompt renders req into the fixed system and user instructions.
func BuildPrompt(req Request) Prompt {
	return Prompt{
		System: systemPrompt,
		User: fmt.Sprintf(userPrompt,
			strings.TrimSpace(req.DishName),
			orDefault(req.ReferenceRecipe, RecipeMissing),
			strings.TrimSpace(req.UserText),
			orDefault(req.Price, PriceUnknown),
			orDefault(req.Weight, WeightUnknown),
		),
	}
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v == "" {
		return def
	}
	return v
}

// Placeholders for missing catalog fields. Grading is always in Russian, whatever
// the UI language, so these follow the prompt rather than the message set.
const (
	RecipeMissing = "Описание рецепта отсутствует."
	PriceUnknown  = "Неизвестная цена"
	WeightUnknown = "Неизвестный вес"
)

// ScoreLinePrefix starts the score line the backend is told to produce.
const ScoreLinePrefix = "📍Оценка:"

// TipSeparator sits on its own line between the evaluation and the optional tip.
const TipSeparator = "----------"

const systemPrompt = `Ты — строгий, но немногословный шеф-повар, который принимает у официанта экзамен по меню ресторана.
Официант получает название блюда и по памяти пишет его рецепт. Твоя задача — сравнить ответ официанта с официальным рецептом.

Правила ответа:
- Всегда отвечай только на русском языке, даже если ответ официанта написан на другом языке.
- Ответ короткий: 4–5 предложений.
- Обязательно назови серьёзные расхождения: пропущенные ингредиенты, лишние или неверные ингредиенты, ошибки в способе приготовления.
- Если ответ полностью совпадает с рецептом, кратко похвали и не придумывай ошибок.
- Отдельной строкой укажи оценку по шкале из 10 в формате: ` + ScoreLinePrefix + ` X/10
- По желанию в конце добавь один короткий практичный совет, как запомнить состав блюда. Отдели совет от основного текста пустой строкой и строкой из дефисов: ` + TipSeparator + `
- Не используй заголовки, списки и таблицы. Не пересказывай официальный рецепт целиком.`

const userPrompt = `Блюдо: %s

Официальный рецепт:
%s

Ответ официанта:
%s

Справочно: цена — %s, вес — %s.

Сравни ответ официанта с официальным рецептом и оцени его по правилам.`
