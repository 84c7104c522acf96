package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	twitch "github.com/gempir/go-twitch-irc/v4"
	"github.com/google/uuid"

	"github.com/onnwee/steam-chat-bot/commands"
	"github.com/onnwee/steam-chat-bot/ratelimit"
	"github.com/onnwee/steam-chat-bot/telemetry"
)

// Cooldown per chat user: one command every 3s, burst 2.
const (
	cooldownEvery = 3 * time.Second
	cooldownBurst = 2
)

// Handler runs a parsed command; *commands.Service satisfies it.
type Handler interface {
	Handle(ctx context.Context, ev commands.Event, sink commands.Sink) bool
}

// Options are the IRC credentials and channels.
type Options struct {
	Username string
	Token    string // "oauth:..."
	Channels []string
}

// Bot bridges Twitch chat messages to command handlers.
type Bot struct {
	opts     Options
	handler  Handler
	cooldown *ratelimit.Store
	out      sender

	wg sync.WaitGroup
}

// incoming is the part of a chat message the bot reads.
type incoming struct {
	ID          string
	Channel     string
	Login       string
	DisplayName string
	Text        string
}

// New builds a bot; Run connects it.
func New(opts Options, handler Handler) *Bot {
	opts.Username = strings.ToLower(opts.Username)
	return &Bot{
		opts:     opts,
		handler:  handler,
		cooldown: ratelimit.NewStore(ratelimit.Every(cooldownEvery), cooldownBurst, 10*time.Minute),
	}
}

// Run joins the configured channels and blocks until ctx is done, then waits
// for in-flight commands.
func (b *Bot) Run(ctx context.Context) error {
	if len(b.opts.Channels) == 0 || b.opts.Username == "" || b.opts.Token == "" {
		return errors.New("chat: channels, username and token are required")
	}
	client := twitch.NewClient(b.opts.Username, b.opts.Token)
	b.out = client

	client.OnConnect(func() {
		slog.Info("chat connected", slog.String("component", "chat"), slog.Any("channels", b.opts.Channels))
	})
	client.OnPrivateMessage(func(msg twitch.PrivateMessage) {
		b.dispatch(ctx, incoming{
			ID:          msg.ID,
			Channel:     msg.Channel,
			Login:       msg.User.Name,
			DisplayName: msg.User.DisplayName,
			Text:        msg.Message,
		})
	})

	// Handle context cancellation by closing the client
	done := make(chan struct{})
	go func() {
		<-ctx.Done()
		_ = client.Disconnect()
		close(done)
	}()

	client.Join(b.opts.Channels...)
	err := client.Connect()
	if errors.Is(err, twitch.ErrClientDisconnected) {
		<-done
		b.wg.Wait()
		return nil
	}
	b.wg.Wait()
	if err != nil {
		slog.Error("twitch chat connect error", slog.String("component", "chat"), slog.Any("err", err))
	}
	return err
}

// dispatch parses msg and, if it is a command within the sender's cooldown,
// runs it on its own goroutine. It reports whether a command was started.
func (b *Bot) dispatch(ctx context.Context, msg incoming) bool {
	login := strings.ToLower(msg.Login)
	if login == "" || login == b.opts.Username {
		return false
	}
	name, arg, ok := ParseCommand(msg.Text)
	if !ok {
		return false
	}
	if !b.cooldown.Allow(login) {
		slog.Debug("command dropped by cooldown", slog.String("component", "chat"), slog.String("user", login), slog.String("command", name))
		return false
	}

	displayName := msg.DisplayName
	if displayName == "" {
		displayName = msg.Login
	}
	ev := commands.Event{
		UserID:   login,
		UserName: displayName,
		GroupID:  strings.ToLower(strings.TrimPrefix(msg.Channel, "#")),
		Mentions: ExtractMentions(msg.Text, b.opts.Username),
		Command:  name,
		Arg:      arg,
	}
	sink := &replySink{out: b.out, channel: msg.Channel, parentID: msg.ID}

	cctx := telemetry.WithCorrelation(ctx, uuid.NewString())
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				telemetry.LoggerWithCorr(cctx).Error("chat command panicked",
					slog.String("component", "chat"),
					slog.Any("err", fmt.Errorf("panic: %v", r)),
					slog.String("stack", string(debug.Stack())))
			}
		}()
		b.handler.Handle(cctx, ev, sink)
	}()
	return true
}

// Wait blocks until every dispatched command has finished.
func (b *Bot) Wait() { b.wg.Wait() }
