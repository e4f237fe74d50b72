package launcher

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"presencekeeper/gateway"
	"presencekeeper/presence"
)

var sessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "presencekeeper_sessions_active",
	Help: "Sessions currently running",
})

// Launcher starts one independent Keeper per token.
type Launcher struct {
	Log    *zap.Logger
	Config *presence.Config
	Rand   presence.Rand

	GatewayURL      string
	Dialer          *websocket.Dialer
	HeartbeatLeeway time.Duration

	active atomic.Int64
	wg     sync.WaitGroup
}

func New(log *zap.Logger, cfg *presence.Config) *Launcher {
	return &Launcher{
		Log:             log,
		Config:          cfg,
		Rand:            rand.New(rand.NewSource(time.Now().UnixNano())),
		HeartbeatLeeway: gateway.DefaultHeartbeatLeeway,
	}
}

// Launch draws a presence for every token and starts its session. Keepers
// are returned in token order. A config error stops the launch before any
// session starts.
func (l *Launcher) Launch(ctx context.Context, tokens []string) ([]*gateway.Keeper, error) {
	keepers := make([]*gateway.Keeper, 0, len(tokens))
	for i, tok := range tokens {
		sel, err := presence.Select(l.Config, l.Rand)
		if err != nil {
			return nil, err
		}
		keepers = append(keepers, &gateway.Keeper{
			Token:           tok,
			Selection:       sel,
			GatewayURL:      l.GatewayURL,
			Dialer:          l.Dialer,
			HeartbeatLeeway: l.HeartbeatLeeway,
			Log:             l.Log.Named("session").With(zap.Int("account", i+1)),
		})
	}

	for _, k := range keepers {
		l.start(ctx, k)
	}
	return keepers, nil
}

func (l *Launcher) start(ctx context.Context, k *gateway.Keeper) {
	l.active.Inc()
	sessionsActive.Inc()
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		err := k.Run(ctx)
		l.active.Dec()
		sessionsActive.Dec()
		report(k, err)
	}()
}

// Active is the number of sessions still running.
func (l *Launcher) Active() int64 {
	return l.active.Load()
}

// Wait blocks until every launched session has ended.
func (l *Launcher) Wait() {
	l.wg.Wait()
}

func report(k *gateway.Keeper, err error) {
	var (
		authErr *gateway.AuthError
		connErr *gateway.ConnectError
	)
	fields := []zap.Field{zap.String("kind", gateway.ErrorKind(err)), zap.Error(err)}

	switch {
	case errors.As(err, &authErr):
		k.Log.Warn(gateway.FormatLine("🔐", "Failed to Authenticate", "-", "TOKEN INVALID"), fields...)
	case errors.As(err, &connErr):
		k.Log.Error(gateway.FormatLine("🔌", "Failed to Connect", "-", connErr.URL), fields...)
	case errors.Is(err, context.Canceled):
		k.Log.Info(gateway.FormatLine("👋", "Session Stopped", k.Username(), ""), fields...)
	default:
		k.Log.Warn(gateway.FormatLine("💔", "Session Ended", k.Username(), gateway.ErrorKind(err)), fields...)
	}
}
