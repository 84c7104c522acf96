package chat

import (
	"slices"
	"strings"
	"unicode"

	"github.com/onnwee/steam-chat-bot/commands"
)

// ParseCommand recognises "[/|!]<command> [args]". The achievement command
// keeps the whole remainder as its argument (game names contain spaces);
// every other command takes only the first token.
func ParseCommand(text string) (name, arg string, ok bool) {
	text = strings.TrimSpace(text)
	text = strings.TrimLeft(text, "/!")
	head, rest, _ := strings.Cut(text, " ")
	if head == "" {
		return "", "", false
	}
	idx := slices.IndexFunc(commands.Names(), func(n string) bool { return strings.EqualFold(n, head) })
	if idx < 0 {
		return "", "", false
	}
	name = commands.Names()[idx]
	rest = strings.TrimSpace(rest)
	if name == commands.CmdAchievement {
		return name, rest, true
	}
	fields := strings.Fields(rest)
	if len(fields) > 0 {
		arg = fields[0]
	}
	return name, arg, true
}

// ExtractMentions returns the lowercased logins of @mentions in order,
// without duplicates and without self.
func ExtractMentions(text, self string) []string {
	self = strings.ToLower(self)
	var out []string
	for _, tok := range strings.Fields(text) {
		if !strings.HasPrefix(tok, "@") {
			continue
		}
		login := strings.ToLower(strings.TrimRightFunc(tok[1:], func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
		}))
		if login == "" || login == self || slices.Contains(out, login) {
			continue
		}
		out = append(out, login)
	}
	return out
}
