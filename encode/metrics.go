package encode

import (
	"github.com/prometheus/client_golang/prometheus"
)

var buildCounter = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "structbind",
		Subsystem: "encoder",
		Name:      "builds_total",
		Help:      "Total number of encoder builds by strategy",
	},
	[]string{"strategy"},
)

// RegisterMetrics registers encoder metrics with supplied registerer
func RegisterMetrics(registerer prometheus.Registerer) error {
	if err := registerer.Register(buildCounter); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
			return err
		}
	}
	return nil
}
