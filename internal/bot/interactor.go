package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/microcosm-cc/bluemonday"

	"github.com/example/duosync/internal/vocab"
)

const (
	callbackYes = "confirm_yes"
	callbackNo  = "confirm_no"
)

// Telegram HTML knows inline tags only
var telegramPolicy = func() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("b", "i", "u", "code")
	p.AllowAttrs("href").OnElements("a")
	return p
}()

// chatInteractor is a vocab.Interactor speaking to one Telegram chat
type chatInteractor struct {
	bot     *Bot
	session *session

	progressID    int
	progressLabel string
	progressMax   int
	progressShown int
}

var _ vocab.Interactor = (*chatInteractor)(nil)

// wait blocks for the next reply. A timeout counts as cancel.
func (c *chatInteractor) wait(ctx context.Context) (reply, error) {
	timer := time.NewTimer(c.bot.replyTimeout)
	defer timer.Stop()

	select {
	case r := <-c.session.replies:
		return r, nil
	case <-timer.C:
		c.bot.send(c.session.chatID, "No answer received, stopping.")
		return reply{cancel: true}, nil
	case <-ctx.Done():
		if c.session.cancelled.Load() {
			return reply{cancel: true}, nil
		}
		return reply{}, ctx.Err()
	}
}

// drain drops answers sent before the next question
func (c *chatInteractor) drain() {
	for {
		select {
		case r := <-c.session.replies:
			if r.cancel {
				c.session.replies <- r
				return
			}
		default:
			return
		}
	}
}

func (c *chatInteractor) ask(ctx context.Context, msg tgbotapi.MessageConfig) (reply, error) {
	c.drain()
	if _, err := c.bot.api.Send(msg); err != nil {
		return reply{}, fmt.Errorf("failed to send prompt: %w", err)
	}
	return c.wait(ctx)
}

func (c *chatInteractor) PromptCredentials(ctx context.Context) (vocab.CredentialsResult, error) {
	chatID := c.session.chatID

	r, err := c.ask(ctx, tgbotapi.NewMessage(chatID, "Send your Duolingo username, or /cancel to stop."))
	if err != nil {
		return vocab.CredentialsResult{}, err
	}
	username := strings.TrimSpace(r.text)
	if r.cancel || username == "" {
		return vocab.Cancelled(), nil
	}

	r, err = c.ask(ctx, tgbotapi.NewMessage(chatID, "Now send your Duolingo password. I will delete the message right away."))
	if err != nil {
		return vocab.CredentialsResult{}, err
	}
	if r.messageID != 0 {
		if _, err := c.bot.api.Request(tgbotapi.NewDeleteMessage(chatID, r.messageID)); err != nil {
			c.bot.log.Warn("failed to delete password message", "chat_id", chatID, "error", err)
		}
	}
	if r.cancel || r.text == "" {
		return vocab.Cancelled(), nil
	}

	return vocab.Confirmed(vocab.Credentials{Username: username, Password: r.text}), nil
}

func (c *chatInteractor) Confirm(ctx context.Context, message string) (bool, error) {
	msg := tgbotapi.NewMessage(c.session.chatID, telegramHTML(message))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = createKeyboard([][]MenuButton{{
		{Text: "Yes", CallbackData: callbackYes},
		{Text: "No", CallbackData: callbackNo},
	}})

	r, err := c.ask(ctx, msg)
	if err != nil {
		return false, err
	}
	if r.cancel {
		return false, nil
	}
	switch strings.ToLower(strings.TrimSpace(r.text)) {
	case callbackYes, "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func (c *chatInteractor) Info(ctx context.Context, message string) {
	c.sendHTML(telegramHTML(message))
}

func (c *chatInteractor) Warning(ctx context.Context, message string) {
	c.sendHTML("⚠️ " + telegramHTML(message))
}

func (c *chatInteractor) sendHTML(text string) {
	msg := tgbotapi.NewMessage(c.session.chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if _, err := c.bot.api.Send(msg); err != nil {
		c.bot.log.Error("failed to send message", "chat_id", c.session.chatID, "error", err)
	}
}

func (c *chatInteractor) StartProgress(label string, max int) {
	c.progressLabel, c.progressMax, c.progressShown = label, max, 0
	sent, err := c.bot.send(c.session.chatID, progressText(label, 0, max))
	if err == nil {
		c.progressID = sent.MessageID
	}
}

// UpdateProgress edits the progress message in steps of a tenth
func (c *chatInteractor) UpdateProgress(value int) {
	if c.progressID == 0 || c.progressMax == 0 {
		return
	}
	step := c.progressMax / 10
	if step < 1 {
		step = 1
	}
	if value != c.progressMax && value-c.progressShown < step {
		return
	}
	c.progressShown = value
	edit := tgbotapi.NewEditMessageText(c.session.chatID, c.progressID, progressText(c.progressLabel, value, c.progressMax))
	if _, err := c.bot.api.Send(edit); err != nil {
		c.bot.log.Debug("failed to update progress", "error", err)
	}
}

func (c *chatInteractor) FinishProgress() {
	c.progressID = 0
}

func progressText(label string, value, max int) string {
	return fmt.Sprintf("%s %d/%d", label, value, max)
}

// telegramHTML reduces message markup to what Telegram renders
func telegramHTML(message string) string {
	message = strings.NewReplacer("<p>", "", "</p>", "").Replace(message)
	clean := telegramPolicy.Sanitize(message)

	var paras []string
	for _, para := range strings.Split(clean, "\n\n") {
		if p := strings.Join(strings.Fields(para), " "); p != "" {
			paras = append(paras, p)
		}
	}
	return strings.Join(paras, "\n\n")
}
