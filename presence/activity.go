package presence

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// Kind is the gateway activity type.
type Kind int

const (
	KindGame Kind = iota
	KindStreaming
	KindListening
	KindWatching
	KindCustom
	KindCompeting
)

var Kinds = []Kind{KindGame, KindStreaming, KindListening, KindWatching, KindCustom, KindCompeting}

var kindNames = map[Kind]string{
	KindGame:      "game",
	KindStreaming: "streaming",
	KindListening: "listening",
	KindWatching:  "watching",
	KindCustom:    "custom",
	KindCompeting: "competing",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

func ParseKind(s string) (Kind, error) {
	for k, n := range kindNames {
		if n == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown activity type %q", ErrInvalidConfig, s)
}

// Activity is one of the six activity shapes. Build it with the
// constructors below so that only streaming carries a URL.
type Activity struct {
	Kind Kind
	Name string
	URL  string
}

func Game(name string) Activity      { return Activity{Kind: KindGame, Name: name} }
func Listening(name string) Activity { return Activity{Kind: KindListening, Name: name} }
func Watching(name string) Activity  { return Activity{Kind: KindWatching, Name: name} }
func Custom(name string) Activity    { return Activity{Kind: KindCustom, Name: name} }
func Competing(name string) Activity { return Activity{Kind: KindCompeting, Name: name} }

func Streaming(name, url string) Activity {
	return Activity{Kind: KindStreaming, Name: name, URL: url}
}

// WireActivity is the activity object sent inside a presence update.
type WireActivity struct {
	Name string                 `json:"name"`
	Type discordgo.ActivityType `json:"type"`
	URL  string                 `json:"url,omitempty"`
}

func (a Activity) Wire() WireActivity {
	w := WireActivity{
		Name: a.Name,
		Type: discordgo.ActivityType(a.Kind),
	}
	if a.Kind == KindStreaming {
		w.URL = a.URL
	}
	return w
}
