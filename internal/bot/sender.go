package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gamebot/internal/game"
	"gamebot/internal/session"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sender delivers game output through the Telegram Bot API. Users are
// addressed by their private chat, whose ID equals the user ID.
type Sender struct {
	bot *tgbotapi.BotAPI
}

func NewSender(bot *tgbotapi.BotAPI) *Sender {
	return &Sender{bot: bot}
}

func (s *Sender) SendText(ctx context.Context, userID int64, text string, format game.Format) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(userID, text)
	msg.ParseMode = parseMode(format)
	_, err := s.bot.Send(msg)
	return classify(err)
}

func (s *Sender) SendGrid(ctx context.Context, userID int64, text string, format game.Format, grid [][]game.Button) (session.MessageRef, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	msg := tgbotapi.NewMessage(userID, text)
	msg.ParseMode = parseMode(format)
	msg.ReplyMarkup = Keyboard(grid)
	sent, err := s.bot.Send(msg)
	if err != nil {
		return 0, classify(err)
	}
	return session.MessageRef(sent.MessageID), nil
}

func (s *Sender) EditGrid(ctx context.Context, userID int64, ref session.MessageRef, text string, format game.Format, grid [][]game.Button) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var edit tgbotapi.EditMessageTextConfig
	if len(grid) > 0 {
		edit = tgbotapi.NewEditMessageTextAndMarkup(userID, int(ref), text, Keyboard(grid))
	} else {
		edit = tgbotapi.NewEditMessageText(userID, int(ref), text)
	}
	edit.ParseMode = parseMode(format)
	_, err := s.bot.Send(edit)
	return classify(err)
}

// Keyboard converts a button grid to an inline keyboard, one row per grid row.
func Keyboard(grid [][]game.Button) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(grid))
	for _, row := range grid {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Label, b.Data))
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(buttons...))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func parseMode(f game.Format) string {
	if f == game.FormatMarkdown {
		return tgbotapi.ModeMarkdown
	}
	return ""
}

// classify maps Bot API failures onto session errors. An edit that changes
// nothing is not a failure.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *tgbotapi.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	desc := strings.ToLower(apiErr.Message)
	switch {
	case strings.Contains(desc, "message is not modified"):
		return nil
	case strings.Contains(desc, "can't parse entities"), strings.Contains(desc, "can't find end of the entity"):
		return fmt.Errorf("%w: %s", session.ErrBadFormatting, apiErr.Message)
	}
	return err
}
