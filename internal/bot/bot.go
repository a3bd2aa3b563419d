package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/duosync/internal/vocab"
)

// MenuButton represents a button in an inline keyboard
type MenuButton struct {
	Text         string
	CallbackData string
}

// createKeyboard creates a keyboard from menu buttons
func createKeyboard(buttons [][]MenuButton) tgbotapi.InlineKeyboardMarkup {
	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, row := range buttons {
		var keyboardRow []tgbotapi.InlineKeyboardButton
		for _, button := range row {
			keyboardRow = append(keyboardRow, tgbotapi.NewInlineKeyboardButtonData(button.Text, button.CallbackData))
		}
		keyboard = append(keyboard, keyboardRow)
	}
	return tgbotapi.NewInlineKeyboardMarkup(keyboard...)
}

// api is the part of tgbotapi.BotAPI the bot uses
type api interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// SyncFunc runs one sync, talking to the user through ui
type SyncFunc func(ctx context.Context, ui vocab.Interactor) (*vocab.ImportResult, error)

const (
	helpText = `This bot imports your Duolingo vocabulary into the flashcard collection.

Commands:
/sync - log in to Duolingo and import new words
/cancel - stop the running sync
/help - show this message`

	defaultReplyTimeout = 5 * time.Minute
)

// Bot serves sync requests over Telegram. One sync runs at a time since all chats
// share a single collection.
type Bot struct {
	api          api
	sync         SyncFunc
	allowed      map[int64]bool
	log          *slog.Logger
	pollTimeout  int
	replyTimeout time.Duration

	mu     sync.Mutex
	active *session
	wg     sync.WaitGroup
}

// session is a running sync bound to one chat
type session struct {
	chatID    int64
	replies   chan reply
	cancel    context.CancelFunc
	cancelled atomic.Bool
}

// reply is a user answer routed to the waiting interactor
type reply struct {
	text      string
	messageID int
	cancel    bool
}

// New connects to Telegram with token. Only users in allowed may run commands.
func New(token string, allowed map[int64]bool, pollTimeout int, sync SyncFunc, log *slog.Logger) (*Bot, error) {
	botAPI, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("unable to create bot: %w", err)
	}
	b := newBot(botAPI, allowed, sync, log)
	b.pollTimeout = pollTimeout
	b.log.Info("authorized on telegram", "account", botAPI.Self.UserName)
	return b, nil
}

func newBot(a api, allowed map[int64]bool, sync SyncFunc, log *slog.Logger) *Bot {
	if log == nil {
		log = slog.Default()
	}
	return &Bot{
		api:          a,
		sync:         sync,
		allowed:      allowed,
		log:          log.With("component", "bot"),
		pollTimeout:  60,
		replyTimeout: defaultReplyTimeout,
	}
}

// Run handles updates until ctx is done, then waits for a running sync to stop
func (b *Bot) Run(ctx context.Context) error {
	commands := tgbotapi.NewSetMyCommands(
		tgbotapi.BotCommand{Command: "sync", Description: "Import new Duolingo words"},
		tgbotapi.BotCommand{Command: "cancel", Description: "Stop the running sync"},
		tgbotapi.BotCommand{Command: "help", Description: "Show help"},
	)
	if _, err := b.api.Request(commands); err != nil {
		b.log.Warn("failed to register commands", "error", err)
	}

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = b.pollTimeout
	updates := b.api.GetUpdatesChan(updateConfig)

	defer b.wg.Wait()
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, update)
		}
	}
}

// handleUpdate handles incoming updates from Telegram
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.Message != nil && update.Message.From != nil:
		b.handleMessage(ctx, update.Message)
	case update.CallbackQuery != nil && update.CallbackQuery.Message != nil:
		b.handleCallbackQuery(update.CallbackQuery)
	}
}

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID
	if !b.allowed[message.From.ID] {
		b.log.Warn("rejected message from unknown user", "user_id", message.From.ID)
		b.send(chatID, "Sorry, you are not allowed to use this bot.")
		return
	}

	command := ""
	if message.IsCommand() {
		command = message.Command()
	}

	b.mu.Lock()
	active := b.active
	b.mu.Unlock()

	if active != nil && active.chatID == chatID {
		switch command {
		case "":
			if !active.deliver(reply{text: message.Text, messageID: message.MessageID}) {
				b.send(chatID, "Please wait, the sync is busy. Send /cancel to stop it.")
			}
		case "cancel":
			active.stop()
		default:
			b.send(chatID, "A sync is already running. Send /cancel to stop it.")
		}
		return
	}

	switch command {
	case "start", "help":
		b.send(chatID, helpText)
	case "sync":
		if !b.startSync(ctx, chatID) {
			b.send(chatID, "Another sync is running, please try again later.")
		}
	case "cancel":
		b.send(chatID, "Nothing to cancel.")
	case "":
		b.send(chatID, "Send /sync to import your Duolingo vocabulary.")
	default:
		b.send(chatID, "Unknown command. Use /help to see what I can do.")
	}
}

// handleCallbackQuery routes button presses to the running sync
func (b *Bot) handleCallbackQuery(callback *tgbotapi.CallbackQuery) {
	if _, err := b.api.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
		b.log.Debug("failed to answer callback", "error", err)
	}
	if callback.From == nil || !b.allowed[callback.From.ID] {
		return
	}

	b.mu.Lock()
	active := b.active
	b.mu.Unlock()

	if active == nil || active.chatID != callback.Message.Chat.ID {
		return
	}
	active.deliver(reply{text: callback.Data, messageID: callback.Message.MessageID})
}

// startSync runs a sync for chatID in the background; false if one is already running
func (b *Bot) startSync(ctx context.Context, chatID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.active != nil {
		return false
	}

	runCtx, cancel := context.WithCancel(ctx)
	s := &session{chatID: chatID, replies: make(chan reply, 1), cancel: cancel}
	b.active = s

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer cancel()

		log := b.log.With("chat_id", chatID)
		log.Info("sync started")
		result, err := b.sync(runCtx, &chatInteractor{bot: b, session: s})

		b.mu.Lock()
		b.active = nil
		b.mu.Unlock()

		switch {
		case err == nil:
			if result != nil {
				log = log.With("added", result.Added, "declined", result.Declined)
			}
			log.Info("sync finished")
		case errors.Is(err, vocab.ErrCancelled) || (s.cancelled.Load() && errors.Is(err, context.Canceled)):
			log.Info("sync cancelled")
			b.send(chatID, "Sync cancelled.")
		default:
			log.Error("sync failed", "error", err)
			if result == nil && !shownToUser(err) {
				b.send(chatID, "Sync failed, see the log for details.")
			}
		}
	}()
	return true
}

// shownToUser reports errors the sync already explained to the user
func shownToUser(err error) bool {
	return errors.Is(err, vocab.ErrInvalidCredentials) ||
		errors.Is(err, vocab.ErrNetworkUnavailable) ||
		errors.Is(err, vocab.ErrModelDeclined)
}

// deliver hands r to the interactor without blocking
func (s *session) deliver(r reply) bool {
	select {
	case s.replies <- r:
		return true
	default:
		return false
	}
}

func (s *session) stop() {
	s.cancelled.Store(true)
	s.deliver(reply{cancel: true})
	s.cancel()
}

func (b *Bot) send(chatID int64, text string) (tgbotapi.Message, error) {
	sent, err := b.api.Send(tgbotapi.NewMessage(chatID, text))
	if err != nil {
		b.log.Error("failed to send message", "chat_id", chatID, "error", err)
	}
	return sent, err
}
