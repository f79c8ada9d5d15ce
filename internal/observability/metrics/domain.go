package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/example/kanban/internal/ports/secondary"
)

// Domain records ticket engine events. It implements secondary.Metrics.
type Domain struct {
	transitions *prometheus.CounterVec
	claims      *prometheus.CounterVec
	auth        *prometheus.CounterVec
}

// NewDomain creates the domain counters and registers them on reg. A nil reg
// leaves them unregistered, which still counts but never exports.
func NewDomain(reg prometheus.Registerer) *Domain {
	d := &Domain{
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kanban_ticket_status_transitions_total",
				Help: "Ticket status changes by source, target and classification.",
			},
			[]string{"from", "to", "class"},
		),
		claims: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kanban_ticket_claims_total",
				Help: "Claim attempts by result.",
			},
			[]string{"result"},
		),
		auth: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kanban_api_key_auth_total",
				Help: "API key authentications by result.",
			},
			[]string{"result"},
		),
	}
	if reg != nil {
		reg.MustRegister(d.transitions, d.claims, d.auth)
	}
	return d
}

func (d *Domain) StatusTransition(from, to, class string) {
	d.transitions.WithLabelValues(from, to, class).Inc()
}

func (d *Domain) Claim(result string) {
	d.claims.WithLabelValues(result).Inc()
}

func (d *Domain) APIKeyAuth(result string) {
	d.auth.WithLabelValues(result).Inc()
}

var _ secondary.Metrics = (*Domain)(nil)
