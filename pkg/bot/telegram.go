// Package bot provides a Telegram bot that answers N-th prime queries and
// publishes result reports.
package bot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	"go.uber.org/zap"

	"github.com/bigneek/primeflare/pkg/callerctx"
	"github.com/bigneek/primeflare/pkg/quota"
	"github.com/bigneek/primeflare/pkg/report"
	"github.com/bigneek/primeflare/pkg/sieve"
)

// Bot wraps the Telegram bot and the prime services.
type Bot struct {
	tg        *telego.Bot
	sieve     *sieve.Segmented
	quota     *quota.Manager
	publisher *report.Publisher
	backend   string
	bucket    string
	logger    *zap.Logger
}

// Config holds everything needed to start the bot.
type Config struct {
	TelegramToken string
	Backend       string // storage backend name shown by /status
	Bucket        string
}

// Services are the collaborators the bot answers with.
type Services struct {
	Sieve     *sieve.Segmented
	Quota     *quota.Manager
	Publisher *report.Publisher
}

// New creates a new Bot from the given config.
func New(cfg Config, svc Services, logger *zap.Logger) (*Bot, error) {
	tg, err := telego.NewBot(cfg.TelegramToken)
	if err != nil {
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}
	b := newBot(cfg, svc, logger)
	b.tg = tg
	return b, nil
}

func newBot(cfg Config, svc Services, logger *zap.Logger) *Bot {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bot{
		sieve:     svc.Sieve,
		quota:     svc.Quota,
		publisher: svc.Publisher,
		backend:   cfg.Backend,
		bucket:    cfg.Bucket,
		logger:    logger,
	}
}

// Run starts the bot with long-polling and blocks until interrupted.
func (b *Bot) Run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	me, err := b.tg.GetMe(ctx)
	if err != nil {
		return fmt.Errorf("getMe failed: %w", err)
	}
	b.logger.Info("bot online", zap.String("username", me.Username), zap.Int64("id", me.ID))

	updates, err := b.tg.UpdatesViaLongPolling(ctx, nil)
	if err != nil {
		return fmt.Errorf("long polling: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("shutting down bot")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message != nil {
				go b.handleMessage(ctx, update.Message)
			}
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *telego.Message) {
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}

	caller := callerctx.Caller{ID: callerctx.FormatCallerID(msg.Chat.ID)}
	if msg.From != nil {
		caller.Username = msg.From.Username
	}
	ctx = callerctx.WithCaller(ctx, caller)
	b.logger.Debug("message", zap.String("caller", caller.ID), zap.String("from", caller.Label()), zap.String("text", text))

	_ = b.tg.SendChatAction(ctx, tu.ChatAction(msg.Chat.ChatID(), telego.ChatActionTyping))

	reply := truncateReply(b.reply(ctx, text), maxReplyLen)

	_, err := b.tg.SendMessage(ctx, tu.Message(msg.Chat.ChatID(), reply).WithParseMode(telego.ModeHTML))
	if err != nil {
		b.logger.Warn("send failed", zap.String("caller", caller.ID), zap.Error(err))
	}
}

// reply maps one incoming text to the HTML reply. The caller is taken from ctx.
func (b *Bot) reply(ctx context.Context, text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return helpText
	}
	// Group chats address commands as /cmd@botname.
	cmd, _, _ := strings.Cut(fields[0], "@")
	args := fields[1:]

	switch {
	case cmd == "/start" || cmd == "/help":
		return helpText

	case cmd == "/status":
		return b.statusReport()

	case cmd == "/prime":
		return b.handlePrime(ctx, args)

	case cmd == "/publish":
		return b.handlePublish(ctx, args)

	case cmd == "/usage":
		return b.handleUsage(ctx)

	case !strings.HasPrefix(cmd, "/"):
		if _, err := strconv.ParseInt(cmd, 10, 64); err == nil && len(args) == 0 {
			return b.handlePrime(ctx, fields)
		}
	}
	return "Unknown command. Send /help for the list."
}

const helpText = "Prime bot ready. Indexes are zero-based: index 0 is 2.\n\n" +
	"Commands:\n" +
	"/prime &lt;index&gt; - N-th prime\n" +
	"/publish &lt;index&gt; - compute and archive a report\n" +
	"/usage - your request usage\n" +
	"/status - sieve and storage settings\n\n" +
	"Or just send a number."

func (b *Bot) statusReport() string {
	var lines []string
	lines = append(lines, "Status:")
	lines = append(lines, fmt.Sprintf("  Segment size: %s", groupDigits(b.sieve.SegmentSize())))

	if b.publisher != nil {
		lines = append(lines, fmt.Sprintf("  Storage: %s (bucket: %s)", escapeHTML(b.backend), escapeHTML(b.bucket)))
	} else {
		lines = append(lines, "  Storage: not configured")
	}

	if b.quota != nil {
		limits := b.quota.Limits()
		lines = append(lines, fmt.Sprintf("  Max index: %s", limitText(limits.MaxIndex)))
		lines = append(lines, fmt.Sprintf("  Max requests: %s", limitText(limits.MaxRequests)))
	}

	return strings.Join(lines, "\n")
}

func limitText(n int64) string {
	if n == 0 {
		return "unlimited"
	}
	return groupDigits(n)
}

func parseIndex(args []string, usage string) (int64, string) {
	if len(args) != 1 {
		return 0, usage
	}
	idx, err := strconv.ParseInt(strings.ReplaceAll(args[0], ",", ""), 10, 64)
	if err != nil {
		return 0, fmt.Sprintf("Not an index: <code>%s</code>", escapeHTML(args[0]))
	}
	return idx, ""
}

// compute runs the sieve for the caller in ctx. The quota is charged before
// the sieve runs; a request that then fails stays charged.
func (b *Bot) compute(ctx context.Context, index int64) (sieve.Result, string) {
	caller, ok := callerctx.FromContext(ctx)
	if !ok {
		return sieve.Result{}, "Unknown caller."
	}

	if b.quota != nil {
		if err := b.quota.Reserve(ctx, caller.ID, index); err != nil {
			if errors.Is(err, quota.ErrExceeded) {
				return sieve.Result{}, "Quota: " + escapeHTML(err.Error())
			}
			b.logger.Error("quota reserve failed", zap.String("caller", caller.ID), zap.Error(err))
			return sieve.Result{}, "Quota check failed, try again later."
		}
	}

	res, err := b.sieve.Compute(index)
	if err != nil {
		var invalid *sieve.InvalidArgumentError
		if errors.As(err, &invalid) {
			return sieve.Result{}, fmt.Sprintf("Invalid index %d: %s", invalid.Index, escapeHTML(invalid.Reason))
		}
		b.logger.Error("sieve failed", zap.String("caller", caller.ID), zap.Int64("index", index), zap.Error(err))
		return sieve.Result{}, "Internal error computing that prime."
	}
	b.logger.Info("prime computed",
		zap.String("caller", caller.Label()),
		zap.Int64("index", index),
		zap.Int64("prime", res.Prime),
		zap.Duration("elapsed", res.Elapsed),
	)
	return res, ""
}

func (b *Bot) handlePrime(ctx context.Context, args []string) string {
	index, msg := parseIndex(args, "Usage: /prime &lt;index&gt;")
	if msg != "" {
		return msg
	}
	res, msg := b.compute(ctx, index)
	if msg != "" {
		return msg
	}
	return formatResult(res)
}

func (b *Bot) handlePublish(ctx context.Context, args []string) string {
	if b.publisher == nil {
		return "Storage not configured."
	}
	index, msg := parseIndex(args, "Usage: /publish &lt;index&gt;")
	if msg != "" {
		return msg
	}
	res, msg := b.compute(ctx, index)
	if msg != "" {
		return msg
	}
	rep, err := report.FromResult(res)
	if err != nil {
		return fmt.Sprintf("Report failed: %s", escapeHTML(err.Error()))
	}
	if err := b.publisher.Publish(ctx, rep); err != nil {
		b.logger.Error("publish failed", zap.Int64("index", index), zap.Error(err))
		return fmt.Sprintf("Publish failed: %s", escapeHTML(err.Error()))
	}
	return formatReport(rep)
}

func (b *Bot) handleUsage(ctx context.Context) string {
	if b.quota == nil {
		return "Usage tracking not configured."
	}
	caller, ok := callerctx.FromContext(ctx)
	if !ok {
		return "Unknown caller."
	}
	u, err := b.quota.Load(ctx, caller.ID)
	if err != nil {
		return fmt.Sprintf("Usage lookup failed: %s", escapeHTML(err.Error()))
	}
	return formatUsage(caller, u, b.quota.Limits())
}
