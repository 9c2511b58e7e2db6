// Package telegram sends scrape job notifications and answers bot commands via the Telegram Bot API.
package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rewired-gh/lottoracle/internal/logger"
	"github.com/rewired-gh/lottoracle/internal/models"
)

// StatusFunc reports the current scrape job for the /status command.
type StatusFunc func() models.JobStatus

// Client handles Telegram notifications.
type Client struct {
	bot            *tgbotapi.BotAPI
	chatID         int64
	maxRetries     int
	retryDelayBase time.Duration

	mu     sync.RWMutex
	status StatusFunc
}

// NewClient creates a new Telegram client against the public Bot API.
func NewClient(botToken, chatID string, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
	return NewClientWithEndpoint(tgbotapi.APIEndpoint, botToken, chatID, maxRetries, retryDelayBase)
}

// NewClientWithEndpoint is NewClient with an explicit API endpoint format,
// e.g. "http://localhost:8081/bot%s/%s" for a self-hosted Bot API server.
func NewClientWithEndpoint(endpoint, botToken, chatID string, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}

	bot, err := tgbotapi.NewBotAPIWithAPIEndpoint(botToken, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}

	return &Client{
		bot:            bot,
		chatID:         chatIDInt,
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}, nil
}

// SetStatusFunc wires the /status command to a job status source.
func (c *Client) SetStatusFunc(fn StatusFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = fn
}

// ListenForCommands starts a goroutine that polls for Telegram updates and handles bot commands.
// It returns immediately; the goroutine stops when ctx is cancelled.
func (c *Client) ListenForCommands(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := c.bot.GetUpdatesChan(u)

	go func() {
		for {
			select {
			case <-ctx.Done():
				c.bot.StopReceivingUpdates()
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				if update.Message != nil && update.Message.IsCommand() {
					c.handleCommand(update.Message)
				}
			}
		}
	}()
}

func (c *Client) handleCommand(msg *tgbotapi.Message) {
	var reply tgbotapi.MessageConfig
	switch msg.Command() {
	case "ping":
		reply = tgbotapi.NewMessage(msg.Chat.ID, "Pong")
	case "status":
		c.mu.RLock()
		status := c.status
		c.mu.RUnlock()
		if status == nil {
			reply = tgbotapi.NewMessage(msg.Chat.ID, "Status is not available\\.")
		} else {
			reply = tgbotapi.NewMessage(msg.Chat.ID, formatStatus(status()))
		}
		reply.ParseMode = "MarkdownV2"
	default:
		return
	}
	if _, err := c.bot.Send(reply); err != nil {
		logger.Warn("Failed to answer /%s: %v", msg.Command(), err)
	}
}

// sendMarkdownV2 sends a MarkdownV2 message with linear-backoff retry.
func (c *Client) sendMarkdownV2(text string) error {
	msg := tgbotapi.NewMessage(c.chatID, text)
	msg.ParseMode = "MarkdownV2"

	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		if _, err := c.bot.Send(msg); err == nil {
			return nil
		} else {
			lastErr = err
		}
		time.Sleep(c.retryDelayBase * time.Duration(i+1))
	}
	return fmt.Errorf("failed after %d retries: %w", c.maxRetries, lastErr)
}

// SendJobResult announces a finished scrape job, successful or not.
func (c *Client) SendJobResult(status models.JobStatus) error {
	if status.IsRunning {
		return fmt.Errorf("job %s is still running", status.JobID)
	}
	return c.sendMarkdownV2(formatStatus(status))
}

func formatStatus(st models.JobStatus) string {
	if st.JobID == "" {
		return "💤 No scrape has run yet\\."
	}

	var b strings.Builder
	switch {
	case st.IsRunning:
		b.WriteString("⏳ *Scrape running*\n")
	case st.Error != "":
		b.WriteString("⚠️ *Scrape failed*\n")
	default:
		b.WriteString("✅ *Scrape complete*\n")
	}
	fmt.Fprintf(&b, "Job: `%s`\n", escapeMarkdownV2(st.JobID))
	fmt.Fprintf(&b, "Lottery: %s\n", escapeMarkdownV2(string(st.LottoType)))

	switch {
	case st.IsRunning:
		fmt.Fprintf(&b, "Progress lines: %d\n", len(st.Progress))
		if n := len(st.Progress); n > 0 {
			fmt.Fprintf(&b, "Last: %s\n", escapeMarkdownV2(st.Progress[n-1]))
		}
	case st.Error != "":
		fmt.Fprintf(&b, "`%s`\n", escapeMarkdownV2(st.Error))
	default:
		fmt.Fprintf(&b, "Draws: %d from %d pages\n", len(st.Results), st.Pages)
		if len(st.Results) > 0 {
			latest := st.Results[0]
			line := fmt.Sprintf("Latest: %s first prize *%s*", escapeMarkdownV2(latest.DrawDate), escapeMarkdownV2(latest.FirstPrize))
			if latest.LastTwoDigits != "" {
				line += fmt.Sprintf(", last two *%s*", escapeMarkdownV2(latest.LastTwoDigits))
			}
			b.WriteString(line + "\n")
		}
	}

	if st.StartedAt != nil && st.FinishedAt != nil {
		d := st.FinishedAt.Sub(*st.StartedAt).Round(time.Second)
		fmt.Fprintf(&b, "Duration: %s\n", escapeMarkdownV2(d.String()))
	}
	return b.String()
}

// escapeMarkdownV2 escapes special characters for Telegram MarkdownV2.
func escapeMarkdownV2(text string) string {
	var b strings.Builder
	b.Grow(len(text) + len(text)/4) // pre-allocate with room for escapes
	for _, char := range text {
		switch char {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}
