package ptinput

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	reg           prometheus.Registerer
	forwarded     prometheus.Counter
	echoes        prometheus.Counter
	outbound      *prometheus.CounterVec
	notifications *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer, id string) *metrics {
	f := promauto.With(reg)
	labels := prometheus.Labels{"editor": id}
	return &metrics{
		reg: reg,
		forwarded: f.NewCounter(prometheus.CounterOpts{
			Namespace:   "ptsync",
			Subsystem:   "input",
			Name:        "forwarded_patches_total",
			Help:        "Remote patches forwarded to the surface.",
			ConstLabels: labels,
		}),
		echoes: f.NewCounter(prometheus.CounterOpts{
			Namespace:   "ptsync",
			Subsystem:   "input",
			Name:        "dropped_echoes_total",
			Help:        "Local patches dropped from the inbound feed.",
			ConstLabels: labels,
		}),
		outbound: f.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "ptsync",
			Subsystem:   "input",
			Name:        "outbound_batches_total",
			Help:        "Patch batches sent to the form, by kind.",
			ConstLabels: labels,
		}, []string{"kind"}),
		notifications: f.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "ptsync",
			Subsystem:   "input",
			Name:        "notifications_total",
			Help:        "Notifications raised from surface errors, by severity.",
			ConstLabels: labels,
		}, []string{"severity"}),
	}
}

func (m *metrics) unregister() {
	if m.reg == nil {
		return
	}
	m.reg.Unregister(m.forwarded)
	m.reg.Unregister(m.echoes)
	m.reg.Unregister(m.outbound)
	m.reg.Unregister(m.notifications)
}
