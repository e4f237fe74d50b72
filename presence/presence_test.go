package presence

import (
	"encoding/json"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullConfig() *Config {
	return &Config{
		Statuses:      []string{"online", "dnd", "idle", "invisible", "offline"},
		ActivityTypes: []string{"game", "streaming", "listening", "watching", "custom", "competing"},
		Game:          KindConfig{Games: []string{"Celeste", "Hollow Knight"}},
		Streaming: KindConfig{
			Names: []string{"Speedrun"},
			URLs:  []string{"https://twitch.tv/example"},
		},
		Listening: KindConfig{Names: []string{"Spotify"}},
		Watching:  KindConfig{Names: []string{"YouTube"}},
		Custom:    KindConfig{Names: []string{"Testing"}},
		Competing: KindConfig{Names: []string{"World Championship"}},
	}
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func TestSelectDrawsFromCandidates(t *testing.T) {
	cfg := fullConfig()
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 2000; i++ {
		sel, err := Select(cfg, rng)
		require.NoError(t, err)

		assert.True(t, contains(cfg.Statuses, string(sel.Status)), "status %q", sel.Status)
		require.NotNil(t, sel.Activity)
		assert.True(t, contains(cfg.ActivityTypes, sel.Activity.Kind.String()))
		kc := cfg.kind(sel.Activity.Kind)
		assert.True(t, contains(kc.names(), sel.Activity.Name), "name %q", sel.Activity.Name)
		if sel.Activity.Kind == KindStreaming {
			assert.True(t, contains(kc.URLs, sel.Activity.URL))
		} else {
			assert.Empty(t, sel.Activity.URL)
		}
	}
}

func TestSelectDuplicatesWeighTheDraw(t *testing.T) {
	cfg := &Config{
		Statuses:      []string{"online", "online", "online", "idle"},
		ActivityTypes: []string{"custom", "watching"},
		Custom:        KindConfig{Names: []string{"a"}},
		Watching:      KindConfig{Names: []string{"b"}},
	}
	rng := rand.New(rand.NewSource(42))

	const draws = 20000
	online := 0
	for i := 0; i < draws; i++ {
		sel, err := Select(cfg, rng)
		require.NoError(t, err)
		if sel.Status == discordgo.StatusOnline {
			online++
		}
	}

	assert.InDelta(t, 0.75, float64(online)/draws, 0.03)
}

func TestSelectWithoutActivities(t *testing.T) {
	cfg := &Config{Statuses: []string{"dnd"}}

	sel, err := Select(cfg, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	assert.Equal(t, discordgo.StatusDoNotDisturb, sel.Status)
	assert.Nil(t, sel.Activity)
	assert.Empty(t, sel.Activities())
}

func TestWireURLOnlyForStreaming(t *testing.T) {
	for _, kind := range Kinds {
		t.Run(kind.String(), func(t *testing.T) {
			cfg := fullConfig()
			cfg.ActivityTypes = []string{kind.String()}
			// URLs on every kind must still be dropped unless streaming.
			cfg.Game.URLs = []string{"https://example.com"}
			cfg.Custom.URLs = []string{"https://example.com"}

			sel, err := Select(cfg, rand.New(rand.NewSource(3)))
			require.NoError(t, err)

			acts := sel.Activities()
			require.Len(t, acts, 1)
			assert.Equal(t, discordgo.ActivityType(kind), acts[0].Type)

			raw, err := json.Marshal(acts[0])
			require.NoError(t, err)
			var fields map[string]interface{}
			require.NoError(t, json.Unmarshal(raw, &fields))

			if kind == KindStreaming {
				assert.NotEmpty(t, fields["url"])
			} else {
				assert.NotContains(t, fields, "url")
			}
		})
	}
}

func TestWireDropsURLForNonStreaming(t *testing.T) {
	a := Activity{Kind: KindWatching, Name: "x", URL: "https://example.com"}
	assert.Empty(t, a.Wire().URL)
	assert.Equal(t, "https://example.com", Streaming("x", "https://example.com").Wire().URL)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{name: "no statuses", mutate: func(c *Config) { c.Statuses = nil }},
		{name: "bad status", mutate: func(c *Config) { c.Statuses = []string{"away"} }},
		{name: "bad activity type", mutate: func(c *Config) { c.ActivityTypes = []string{"dancing"} }},
		{name: "missing names", mutate: func(c *Config) { c.Listening.Names = nil }},
		{name: "streaming without urls", mutate: func(c *Config) { c.Streaming.URLs = nil }},
	}

	require.NoError(t, fullConfig().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := fullConfig()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

const jsonConfig = `{
	"choose_random_online_status_from": ["online", "idle"],
	"choose_random_activity_type_from": ["game", "streaming"],
	"game": {"choose_random_game_from": ["Celeste"]},
	"streaming": {
		"choose_random_name_from": ["Speedrun"],
		"choose_random_url_from": ["https://twitch.tv/example"]
	}
}`

const tomlConfig = `
choose_random_online_status_from = ["online", "idle"]
choose_random_activity_type_from = ["game", "streaming"]

[game]
choose_random_name_from = ["Celeste"]

[streaming]
choose_random_name_from = ["Speedrun"]
choose_random_url_from = ["https://twitch.tv/example"]
`

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "config.json")
	tomlPath := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(jsonPath, []byte(jsonConfig), 0o600))
	require.NoError(t, os.WriteFile(tomlPath, []byte(tomlConfig), 0o600))

	for _, path := range []string{jsonPath, tomlPath} {
		t.Run(filepath.Ext(path), func(t *testing.T) {
			cfg, err := LoadConfig(path)
			require.NoError(t, err)

			assert.Equal(t, []string{"online", "idle"}, cfg.Statuses)
			assert.Equal(t, []string{"game", "streaming"}, cfg.ActivityTypes)
			assert.Equal(t, []string{"Celeste"}, cfg.Game.names())
			assert.Equal(t, []string{"https://twitch.tv/example"}, cfg.Streaming.URLs)
		})
	}
}

func TestParseConfigRejectsInvalid(t *testing.T) {
	_, err := ParseConfig([]byte(`{"choose_random_online_status_from": []}`), "json")
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = ParseConfig([]byte(`{not json`), "json")
	assert.Error(t, err)
}
