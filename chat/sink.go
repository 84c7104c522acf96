package chat

import (
	"context"
	"strings"

	"github.com/onnwee/steam-chat-bot/commands"
)

// maxMessageRunes keeps each line under the IRC message limit.
const maxMessageRunes = 480

// sender is the outbound half of *twitch.Client.
type sender interface {
	Say(channel, text string)
	Reply(channel, parentMsgID, text string)
}

// replySink threads every reply under the triggering message.
type replySink struct {
	out      sender
	channel  string
	parentID string
}

func (s *replySink) Send(ctx context.Context, r commands.Reply) {
	text := r.Text
	if r.Image != nil {
		text = r.Image.URL
	}
	for _, line := range splitMessage(text) {
		if s.parentID == "" {
			s.out.Say(s.channel, line)
			continue
		}
		s.out.Reply(s.channel, s.parentID, line)
	}
}

// splitMessage breaks text into non-empty lines no longer than maxMessageRunes.
func splitMessage(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, " \r\t")
		if strings.TrimSpace(line) == "" {
			continue
		}
		runes := []rune(line)
		for len(runes) > 0 {
			n := min(len(runes), maxMessageRunes)
			out = append(out, string(runes[:n]))
			runes = runes[n:]
		}
	}
	return out
}
