package telegram

import (
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/AlexFoxalt/recipes-tg-bot/api/internal/logger"
	"github.com/AlexFoxalt/recipes-tg-bot/api/internal/util"
)

// WebhookDecoder is the part of *tgbotapi.BotAPI that parses webhook requests.
type WebhookDecoder interface {
	HandleUpdate(r *http.Request) (*tgbotapi.Update, error)
}

// WebhookPath is the secret webhook path derived from the bot token.
func WebhookPath(token string) string {
	return "/webhook/" + util.ShortHash(token)
}

// WebhookHandler decodes each request into an update and hands it to dispatch.
// Telegram only needs a fast 200; handling continues asynchronously in dispatch.
func WebhookHandler(bot WebhookDecoder, log *logger.Logger, dispatch func(tgbotapi.Update)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upd, err := bot.HandleUpdate(r)
		if err != nil {
			log.Warn("webhook: bad update", "error", err)
			http.Error(w, "bad update", http.StatusBadRequest)
			return
		}
		dispatch(*upd)
		w.WriteHeader(http.StatusOK)
	})
}
