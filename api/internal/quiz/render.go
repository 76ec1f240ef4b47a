package quiz

import (
	"context"
	"strings"

	"github.com/AlexFoxalt/recipes-tg-bot/api/internal/grader"
)

// Control is the persistent "next dish" button attached to every message.
type Control struct {
	Label string
}

type MessageKind int

const (
	KindText MessageKind = iota
	KindImage
)

// OutgoingMessage is a rendered reply. For KindImage, Text is the caption.
type OutgoingMessage struct {
	Kind     MessageKind
	Text     string
	ImageURL string
	Control  Control
}

// Sender is the chat transport.
type Sender interface {
	SendText(ctx context.Context, userID int64, text string, c Control) error
	SendImage(ctx context.Context, userID int64, imageURL, caption string, c Control) error
}

type Renderer struct {
	control Control
}

func NewRenderer(c Control) *Renderer {
	return &Renderer{control: c}
}

// Render shapes the evaluation as an image with caption when the dish has an image,
// otherwise as plain text.
func (r *Renderer) Render(res grader.Result, dishImage string) OutgoingMessage {
	if img := strings.TrimSpace(dishImage); img != "" {
		return OutgoingMessage{Kind: KindImage, Text: res.Text, ImageURL: img, Control: r.control}
	}
	return OutgoingMessage{Kind: KindText, Text: res.Text, Control: r.control}
}

// Text renders a fixed notice.
func (r *Renderer) Text(text string) OutgoingMessage {
	return OutgoingMessage{Kind: KindText, Text: text, Control: r.control}
}

func deliver(ctx context.Context, s Sender, userID int64, m OutgoingMessage) error {
	if m.Kind == KindImage {
		return s.SendImage(ctx, userID, m.ImageURL, m.Text, m.Control)
	}
	return s.SendText(ctx, userID, m.Text, m.Control)
}
