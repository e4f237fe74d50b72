package presence

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

var Statuses = []discordgo.Status{
	discordgo.StatusOnline,
	discordgo.StatusDoNotDisturb,
	discordgo.StatusIdle,
	discordgo.StatusInvisible,
	discordgo.StatusOffline,
}

func ParseStatus(s string) (discordgo.Status, error) {
	for _, st := range Statuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: unknown online status %q", ErrInvalidConfig, s)
}
