package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/MMMiaotl/IngRenoQuote/internal/domain/catalog"
	"github.com/MMMiaotl/IngRenoQuote/internal/domain/quote"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Notifier сообщает администратору о событиях сервиса.
type Notifier interface {
	QuotePDF(ctx context.Context, q quote.Quote, pdf []byte)
	FallbackSave(ctx context.Context, res catalog.SaveResult)
}

// Nop используется, когда Telegram не настроен.
type Nop struct{}

func (Nop) QuotePDF(context.Context, quote.Quote, []byte) {}
func (Nop) FallbackSave(context.Context, catalog.SaveResult) {}

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram шлёт PDF смет и предупреждения в админский чат.
// Ошибки отправки только логируются.
type Telegram struct {
	api    sender
	chatID int64
	log    *slog.Logger
}

func NewTelegram(token string, chatID int64, log *slog.Logger) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	return &Telegram{api: api, chatID: chatID, log: log}, nil
}

func (t *Telegram) QuotePDF(ctx context.Context, q quote.Quote, pdf []byte) {
	if ctx.Err() != nil {
		return
	}
	doc := tgbotapi.NewDocument(t.chatID, tgbotapi.FileBytes{
		Name:  fmt.Sprintf("quote_%s.pdf", q.GeneratedAt.Format("20060102_150405")),
		Bytes: pdf,
	})
	doc.Caption = fmt.Sprintf("New quote for %s: € %s (%d lines)",
		orUnknown(q.ProjectInfo.CustomerName), q.TotalAmount.StringFixed(2), len(q.Items))
	t.send(doc)
}

func (t *Telegram) FallbackSave(ctx context.Context, res catalog.SaveResult) {
	if ctx.Err() != nil {
		return
	}
	msg := tgbotapi.NewMessage(t.chatID, fmt.Sprintf(
		"Price list file was locked, changes were written to %s. Close the file and save again.", res.Path))
	t.send(msg)
}

func (t *Telegram) send(c tgbotapi.Chattable) {
	if _, err := t.api.Send(c); err != nil {
		t.log.Error("telegram send failed", "chat_id", t.chatID, "err", err)
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown customer"
	}
	return s
}
