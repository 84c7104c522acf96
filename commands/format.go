package commands

import (
	"fmt"
	"strings"

	"github.com/onnwee/steam-chat-bot/steamapi"
)

// FormatPlaytime renders minutes as "N 分钟" below an hour, else "{h}h ({d}d)".
func FormatPlaytime(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%d 分钟", minutes)
	}
	return fmt.Sprintf("%dh (%.1fd)", minutes/60, float64(minutes)/60/24)
}

// totalPlaytime sums lifetime minutes.
func totalPlaytime(games []steamapi.Game) int {
	n := 0
	for _, g := range games {
		n += g.PlaytimeForever
	}
	return n
}

const avatarCDN = "https://avatars.cloudflare.steamstatic.com/"

// staticAvatar rewrites an animated full-size avatar to its static jpg and
// returns the resulting URL. p must be a caller-owned copy.
func staticAvatar(p *steamapi.PlayerSummary) string {
	if p == nil {
		return ""
	}
	u := p.AvatarFull
	if strings.HasSuffix(u, ".gif") {
		if p.AvatarHash != "" {
			u = avatarCDN + p.AvatarHash + "_full.jpg"
		} else {
			u = strings.TrimSuffix(u, ".gif") + ".jpg"
		}
		p.AvatarFull = u
	}
	return u
}

// Metric is one head-to-head row of the compare view.
type Metric struct {
	Label string     `json:"label"`
	Left  MetricSide `json:"left"`
	Right MetricSide `json:"right"`
}

// MetricSide is one player's value and verdict.
type MetricSide struct {
	Value  string `json:"value"`
	Result string `json:"result"`
	Badge  string `json:"badge"`
}

var badges = map[string]string{"win": "WIN!", "lose": "LOSE", "draw": "DRAW"}

func buildMetric(label string, left, right int, leftDisplay, rightDisplay string) Metric {
	l, r := "draw", "draw"
	switch {
	case left > right:
		l, r = "win", "lose"
	case left < right:
		l, r = "lose", "win"
	}
	return Metric{
		Label: label,
		Left:  MetricSide{Value: leftDisplay, Result: l, Badge: badges[l]},
		Right: MetricSide{Value: rightDisplay, Result: r, Badge: badges[r]},
	}
}
