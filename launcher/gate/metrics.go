package gate

import (
	"errors"

	"github.com/glauncher/glauncher-api/launcher/apperr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var gateDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "glauncher_gate_decisions_total",
		Help: "Rate-gated action outcomes",
	},
	[]string{"action", "outcome"},
)

func observe(action string, err error) {
	outcome := "allowed"
	switch {
	case err == nil:
	case errors.Is(err, apperr.ErrRateLimited):
		outcome = "denied"
	case errors.Is(err, apperr.ErrBanned):
		outcome = "banned"
	default:
		outcome = "error"
	}
	gateDecisionsTotal.WithLabelValues(action, outcome).Inc()
}
