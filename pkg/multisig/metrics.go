package multisig

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

var (
	checkDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ordercheck_check_duration_seconds",
		Help:    "Time spent verifying a multisig order",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"deep_check"})
	checkResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ordercheck_checks_total",
		Help: "Number of order checks by result",
	}, []string{"result"})
	decodedActions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ordercheck_decoded_actions_total",
		Help: "Number of decoded order actions by kind",
	}, []string{"kind"})
)

var meter = otel.Meter("github.com/arnac-io/ordercheck/pkg/multisig")

// orderActions is exported through the global otel meter provider, a no-op until one is installed.
var orderActions, _ = meter.Int64Histogram("ordercheck.order.actions",
	metric.WithDescription("Number of actions in a verified order"),
	metric.WithUnit("{action}"))
