package presence

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

var ErrInvalidConfig = errors.New("invalid config")

// KindConfig holds the candidates for one activity type.
type KindConfig struct {
	Names []string `json:"choose_random_name_from,omitempty" toml:"choose_random_name_from"`
	// Games is the older key used by the game section.
	Games []string `json:"choose_random_game_from,omitempty" toml:"choose_random_game_from"`
	URLs  []string `json:"choose_random_url_from,omitempty" toml:"choose_random_url_from"`
}

func (kc KindConfig) names() []string {
	if len(kc.Names) > 0 {
		return kc.Names
	}
	return kc.Games
}

type Config struct {
	Statuses      []string `json:"choose_random_online_status_from" toml:"choose_random_online_status_from"`
	ActivityTypes []string `json:"choose_random_activity_type_from" toml:"choose_random_activity_type_from"`

	Game      KindConfig `json:"game" toml:"game"`
	Streaming KindConfig `json:"streaming" toml:"streaming"`
	Listening KindConfig `json:"listening" toml:"listening"`
	Watching  KindConfig `json:"watching" toml:"watching"`
	Custom    KindConfig `json:"custom" toml:"custom"`
	Competing KindConfig `json:"competing" toml:"competing"`
}

func (c *Config) kind(k Kind) KindConfig {
	switch k {
	case KindGame:
		return c.Game
	case KindStreaming:
		return c.Streaming
	case KindListening:
		return c.Listening
	case KindWatching:
		return c.Watching
	case KindCustom:
		return c.Custom
	case KindCompeting:
		return c.Competing
	}
	return KindConfig{}
}

func (c *Config) Validate() error {
	if len(c.Statuses) == 0 {
		return fmt.Errorf("%w: choose_random_online_status_from is empty", ErrInvalidConfig)
	}
	for _, s := range c.Statuses {
		if _, err := ParseStatus(s); err != nil {
			return err
		}
	}

	for _, t := range c.ActivityTypes {
		k, err := ParseKind(t)
		if err != nil {
			return err
		}
		kc := c.kind(k)
		if len(kc.names()) == 0 {
			return fmt.Errorf("%w: %s.choose_random_name_from is empty", ErrInvalidConfig, k)
		}
		if k == KindStreaming && len(kc.URLs) == 0 {
			return fmt.Errorf("%w: streaming.choose_random_url_from is empty", ErrInvalidConfig)
		}
	}
	return nil
}

// ParseConfig decodes data as TOML when format is "toml" and as JSON
// otherwise, then validates it.
func ParseConfig(data []byte, format string) (*Config, error) {
	cfg := &Config{}
	var err error
	if format == "toml" {
		err = toml.Unmarshal(data, cfg)
	} else {
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s config: %w", formatName(format), err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	return ParseConfig(data, format)
}

func formatName(format string) string {
	if format == "toml" {
		return "toml"
	}
	return "json"
}
