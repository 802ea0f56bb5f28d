package imapclient

import "github.com/prometheus/client_golang/prometheus"

// Metrics is the set of counters the engine updates as it dials,
// authenticates, and recovers sessions. The *Metrics returned by
// NewMetrics(nil) is backed by a private, unregistered registry so
// callers that don't care about observability never see a nil-pointer
// panic from an unconditional Inc().
type Metrics struct {
	dials      prometheus.Counter
	logins     prometheus.Counter
	recoveries prometheus.Counter
	tryCreates prometheus.Counter
	idleWakes  prometheus.Counter
}

// NewMetrics registers the engine's counters with reg. If reg is nil, a
// fresh unregistered registry is used so the counters still work but
// are not exposed on any /metrics endpoint.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		dials: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "imapengine",
			Name:      "dials_total",
			Help:      "TCP connection attempts made by the IMAP engine.",
		}),
		logins: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "imapengine",
			Name:      "logins_total",
			Help:      "Successful session logins.",
		}),
		recoveries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "imapengine",
			Name:      "recoveries_total",
			Help:      "Automatic reconnect-and-relogin attempts after a transport failure or BYE.",
		}),
		tryCreates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "imapengine",
			Name:      "trycreates_total",
			Help:      "TRYCREATE retry loops triggered by COPY/APPEND.",
		}),
		idleWakes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "imapengine",
			Name:      "idle_wakes_total",
			Help:      "IDLE calls that returned due to server push rather than keepalive timeout.",
		}),
	}
	for _, c := range []prometheus.Collector{m.dials, m.logins, m.recoveries, m.tryCreates, m.idleWakes} {
		_ = reg.Register(c) // AlreadyRegisteredError is fine: metrics are process-wide singletons
	}
	return m
}
