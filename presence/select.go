package presence

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// Rand is the subset of *rand.Rand used for drawing.
type Rand interface {
	Intn(n int) int
}

// Selection is the presence one session announces.
type Selection struct {
	Status   discordgo.Status
	Activity *Activity
}

// pick draws uniformly over the list, so duplicated entries weigh more.
func pick(rng Rand, from []string) string {
	return from[rng.Intn(len(from))]
}

// Select draws a status and, when any activity types are configured,
// one activity from cfg.
func Select(cfg *Config, rng Rand) (Selection, error) {
	if err := cfg.Validate(); err != nil {
		return Selection{}, err
	}

	status, err := ParseStatus(pick(rng, cfg.Statuses))
	if err != nil {
		return Selection{}, err
	}
	sel := Selection{Status: status}

	if len(cfg.ActivityTypes) == 0 {
		return sel, nil
	}

	kind, err := ParseKind(pick(rng, cfg.ActivityTypes))
	if err != nil {
		return Selection{}, err
	}
	kc := cfg.kind(kind)
	name := pick(rng, kc.names())

	var act Activity
	switch kind {
	case KindGame:
		act = Game(name)
	case KindStreaming:
		act = Streaming(name, pick(rng, kc.URLs))
	case KindListening:
		act = Listening(name)
	case KindWatching:
		act = Watching(name)
	case KindCustom:
		act = Custom(name)
	case KindCompeting:
		act = Competing(name)
	}
	sel.Activity = &act

	return sel, nil
}

// Activities returns the wire activity list for a presence update.
func (s Selection) Activities() []WireActivity {
	if s.Activity == nil {
		return []WireActivity{}
	}
	return []WireActivity{s.Activity.Wire()}
}

func (s Selection) String() string {
	if s.Activity == nil {
		return string(s.Status)
	}
	if s.Activity.Kind == KindStreaming {
		return fmt.Sprintf("%s, %s %q %s", s.Status, s.Activity.Kind, s.Activity.Name, s.Activity.URL)
	}
	return fmt.Sprintf("%s, %s %q", s.Status, s.Activity.Kind, s.Activity.Name)
}
