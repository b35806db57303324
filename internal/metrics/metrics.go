package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments for the registration API.
type Metrics struct {
	MembersRegistered    prometheus.Counter
	RegistrationFailures *prometheus.CounterVec
	ConnectedObservers   prometheus.Gauge
}

// New creates and registers all metrics on the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers the metrics on a caller-provided registry.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		MembersRegistered: factory.NewCounter(prometheus.CounterOpts{
			Name: "community_members_registered_total",
			Help: "Total number of members admitted to the community",
		}),
		RegistrationFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "community_registration_failures_total",
			Help: "Registration attempts that failed, by reason",
		}, []string{"reason"}),
		ConnectedObservers: factory.NewGauge(prometheus.GaugeOpts{
			Name: "community_connected_observers",
			Help: "Currently connected websocket observers",
		}),
	}
}
