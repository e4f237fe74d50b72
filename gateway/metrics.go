package gateway

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	heartbeatsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "presencekeeper_heartbeats_sent_total",
		Help: "Total number of heartbeats sent across all sessions",
	})
	heartbeatAcks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "presencekeeper_heartbeat_acks_total",
		Help: "Total number of heartbeat acks received across all sessions",
	})
	presenceUpdates = promauto.NewCounter(prometheus.CounterOpts{
		Name: "presencekeeper_presence_updates_total",
		Help: "Total number of presence updates sent",
	})
	sessionsEnded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "presencekeeper_sessions_ended_total",
		Help: "Sessions that ended, by error kind",
	}, []string{"kind"})
)
