package gateway

import (
	"github.com/bwmarrin/discordgo"

	"presencekeeper/presence"
)

// Gateway opcodes used by the keeper.
const (
	opDispatch       = 0
	opHeartbeat      = 1
	opIdentify       = 2
	opPresenceUpdate = 3
	opReconnect      = 7
	opInvalidSession = 9
	opHello          = 10
	opHeartbeatAck   = 11
)

// closeAuthenticationFailed is sent by the gateway for a bad token.
const closeAuthenticationFailed = 4004

// Intents requested on identify: guilds and guild messages (513).
const Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages

type outbound struct {
	Op   int         `json:"op"`
	Data interface{} `json:"d"`
}

type hello struct {
	HeartbeatInterval int64 `json:"heartbeat_interval"`
}

type identifyProperties struct {
	OS      string `json:"os"`
	Browser string `json:"browser"`
	Device  string `json:"device"`
}

type identify struct {
	Token      string             `json:"token"`
	Intents    discordgo.Intent   `json:"intents"`
	Properties identifyProperties `json:"properties"`
}

type presenceUpdate struct {
	Since      *int64                  `json:"since"`
	Activities []presence.WireActivity `json:"activities"`
	Status     discordgo.Status        `json:"status"`
	AFK        bool                    `json:"afk"`
}
