package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"gamebot/internal/game"
	"gamebot/internal/logger"
	"gamebot/internal/metrics"
	"gamebot/internal/repository"
	"gamebot/internal/session"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	playPrefix = "play_"

	msgWelcome  = "Welcome to GameBot! Type /play to choose a game. You can also type /stop to end your current game."
	msgChoose   = "Choose a game to play:"
	msgStopHint = "Type /stop to end your current game."
	msgUnknown  = "Unknown command. Type /help to see what I can do."
	msgNoStats  = "Stats are not available right now."
	msgHelp     = `Commands:
/play - choose a game
/stop - end your current game
/stats - your wins and losses
/help - this message`
)

// StatsProvider reports a user's game history totals.
type StatsProvider interface {
	Stats(ctx context.Context, userID int64) (*repository.UserStats, error)
}

// GameBot reads Telegram updates and feeds them to the dispatcher.
type GameBot struct {
	bot        *tgbotapi.BotAPI
	dispatcher *session.Dispatcher
	stats      StatsProvider
	stopCh     chan struct{}
	wg         sync.WaitGroup
	log        *slog.Logger

	// updates waiting per user; a user has a worker while the entry exists
	qmu    sync.Mutex
	queues map[int64][]tgbotapi.Update
}

// Connect authorizes against the Bot API.
func Connect(token string) (*tgbotapi.BotAPI, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	logger.Info("game bot authorized", "username", bot.Self.UserName)
	return bot, nil
}

// New wires a bot to a dispatcher. stats may be nil when history is not stored.
func New(bot *tgbotapi.BotAPI, dispatcher *session.Dispatcher, stats StatsProvider) *GameBot {
	return &GameBot{
		bot:        bot,
		dispatcher: dispatcher,
		stats:      stats,
		stopCh:     make(chan struct{}),
		queues:     make(map[int64][]tgbotapi.Update),
		log:        logger.With("component", "game_bot"),
	}
}

// Start blocks reading updates until Stop is called.
func (b *GameBot) Start() {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	b.log.Info("starting bot update loop")
	b.run(b.bot.GetUpdatesChan(u))
}

func (b *GameBot) run(updates tgbotapi.UpdatesChannel) {
	for {
		select {
		case <-b.stopCh:
			b.log.Info("stopping bot update loop")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.enqueue(update)
		}
	}
}

// enqueue hands update to its user's worker. Updates of one user are handled
// in arrival order, different users run concurrently.
func (b *GameBot) enqueue(update tgbotapi.Update) {
	userID := updateUserID(update)

	b.qmu.Lock()
	pending, busy := b.queues[userID]
	b.queues[userID] = append(pending, update)
	b.qmu.Unlock()

	if busy {
		return
	}
	b.wg.Add(1)
	go b.work(userID)
}

// work drains a user's queue and exits once it is empty.
func (b *GameBot) work(userID int64) {
	defer b.wg.Done()
	for {
		b.qmu.Lock()
		pending := b.queues[userID]
		if len(pending) == 0 {
			delete(b.queues, userID)
			b.qmu.Unlock()
			return
		}
		update := pending[0]
		b.queues[userID] = pending[1:]
		b.qmu.Unlock()

		b.handleUpdate(update)
	}
}

func updateUserID(update tgbotapi.Update) int64 {
	switch {
	case update.CallbackQuery != nil && update.CallbackQuery.From != nil:
		return update.CallbackQuery.From.ID
	case update.Message != nil && update.Message.From != nil:
		return update.Message.From.ID
	}
	return 0
}

// Stop ends the update loop and waits for in-flight handlers.
func (b *GameBot) Stop() {
	b.log.Info("stopping game bot...")
	close(b.stopCh)
	b.bot.StopReceivingUpdates()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.log.Info("game bot stopped gracefully")
	case <-time.After(10 * time.Second):
		b.log.Warn("game bot shutdown timeout, some handlers may not have completed")
	}
}

func (b *GameBot) handleUpdate(update tgbotapi.Update) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

func (b *GameBot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || !msg.Chat.IsPrivate() {
		return
	}
	userID := msg.From.ID

	if !msg.IsCommand() {
		if msg.Text == "" {
			return
		}
		b.check(userID, "text", b.dispatcher.HandleText(ctx, userID, msg.Text))
		return
	}

	switch msg.Command() {
	case "start":
		b.reply(userID, msgWelcome, nil)
	case "play":
		markup := PlayKeyboard()
		b.reply(userID, msgChoose, &markup)
	case "stop":
		_, err := b.dispatcher.Abort(ctx, userID)
		b.check(userID, "stop", err)
	case "stats":
		b.reply(userID, b.statsText(ctx, userID), nil)
	case "help":
		b.reply(userID, msgHelp, nil)
	default:
		b.reply(userID, msgUnknown, nil)
	}
}

func (b *GameBot) handleCallback(ctx context.Context, q *tgbotapi.CallbackQuery) {
	if _, err := b.bot.Request(tgbotapi.NewCallback(q.ID, "")); err != nil {
		b.log.Debug("failed to answer callback", "error", err)
	}
	if q.From == nil {
		return
	}
	userID := q.From.ID

	kind, ok, err := ParsePlay(q.Data)
	switch {
	case err != nil:
		b.log.Warn("unknown game selected", "user_id", userID, "data", q.Data)
	case ok:
		b.reply(userID, msgStopHint, nil)
		b.check(userID, "select", b.dispatcher.SelectGame(ctx, userID, kind))
	default:
		b.check(userID, "click", b.dispatcher.HandleClick(ctx, userID, q.Data))
	}
}

func (b *GameBot) statsText(ctx context.Context, userID int64) string {
	if b.stats == nil {
		return msgNoStats
	}
	st, err := b.stats.Stats(ctx, userID)
	if err != nil {
		b.log.Error("failed to load stats", "user_id", userID, "error", err)
		return msgNoStats
	}
	return FormatStats(st)
}

func (b *GameBot) reply(chatID int64, text string, markup *tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	if markup != nil {
		msg.ReplyMarkup = *markup
	}
	if _, err := b.bot.Send(msg); err != nil {
		metrics.DeliveryErrors.WithLabelValues("bot", "text").Inc()
		b.log.Error("error sending message", "chat_id", chatID, "error", err)
	}
}

func (b *GameBot) check(userID int64, event string, err error) {
	if err != nil {
		b.log.Error("event handling failed", "user_id", userID, "event", event, "error", err)
	}
}

// PlayKeyboard lists every game, one per row.
func PlayKeyboard() tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, k := range game.Kinds() {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(k.Title(), playPrefix+string(k)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// ParsePlay reports whether data is a game selection and which game it names.
func ParsePlay(data string) (game.Kind, bool, error) {
	name, ok := strings.CutPrefix(data, playPrefix)
	if !ok {
		return "", false, nil
	}
	kind, err := game.ParseKind(name)
	if err != nil {
		return "", false, err
	}
	return kind, true, nil
}

func FormatStats(st *repository.UserStats) string {
	if st.TotalGames == 0 {
		return "You haven't finished any games yet. Type /play to start one!"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "📊 Your games: %d\n🏆 Wins: %d\n💀 Losses: %d\n⏹ Stopped: %d",
		st.TotalGames, st.Wins, st.Losses, st.Aborted)
	for _, g := range st.ByGame {
		title := g.GameType
		if k, err := game.ParseKind(g.GameType); err == nil {
			title = k.Title()
		}
		fmt.Fprintf(&sb, "\n• %s: %d played, %d won", title, g.Games, g.Wins)
	}
	return sb.String()
}
