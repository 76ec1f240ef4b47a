package telegram

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/AlexFoxalt/recipes-tg-bot/api/internal/quiz"
	"github.com/AlexFoxalt/recipes-tg-bot/api/internal/util"
)

// Telegram limits, in characters.
const (
	maxMessageLen = 4096
	maxCaptionLen = 1024
)

// BotAPI is the part of *tgbotapi.BotAPI the sender uses.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Sender delivers quiz messages through the Bot API.
type Sender struct {
	Bot BotAPI
}

var _ quiz.Sender = (*Sender)(nil)

func (s *Sender) SendText(_ context.Context, userID int64, text string, c quiz.Control) error {
	if strings.TrimSpace(text) == "" {
		// Telegram rejects empty messages.
		text = "…"
	}
	msg := tgbotapi.NewMessage(userID, util.Truncate(text, maxMessageLen))
	msg.ReplyMarkup = makeNextKeyboard(c.Label)
	if _, err := s.Bot.Send(msg); err != nil {
		return fmt.Errorf("telegram: send message: %w", err)
	}
	return nil
}

// SendImage sends the photo with caption. Captions over the Telegram limit go out
// as a separate text message after the bare photo.
func (s *Sender) SendImage(ctx context.Context, userID int64, imageURL, caption string, c quiz.Control) error {
	long := utf8.RuneCountInString(caption) > maxCaptionLen

	photo := tgbotapi.NewPhoto(userID, tgbotapi.FileURL(imageURL))
	photo.ReplyMarkup = makeNextKeyboard(c.Label)
	if !long {
		photo.Caption = caption
		photo.ParseMode = tgbotapi.ModeMarkdown
	}
	_, err := s.Bot.Send(photo)
	if err != nil && photo.ParseMode != "" && isEntityParseError(err) {
		photo.ParseMode = ""
		_, err = s.Bot.Send(photo)
	}
	if err != nil {
		return fmt.Errorf("telegram: send photo: %w", err)
	}
	if long {
		return s.SendText(ctx, userID, caption, c)
	}
	return nil
}

func isEntityParseError(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "can't parse entities")
}
