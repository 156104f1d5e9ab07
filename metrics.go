package lunatech

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// repoMetrics counts repository operations by outcome.
type repoMetrics struct {
	ops *prometheus.CounterVec
}

// newRepoMetrics registers the counters on reg. A nil reg leaves them
// unregistered, which is what tests want.
func newRepoMetrics(reg prometheus.Registerer) *repoMetrics {
	return &repoMetrics{
		ops: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "lunatech",
			Subsystem: "repository",
			Name:      "operations_total",
			Help:      "Content repository operations by operation and outcome.",
		}, []string{"op", "outcome"}),
	}
}

func (m *repoMetrics) observe(op string, err error) {
	if m == nil {
		return
	}
	m.ops.WithLabelValues(op, outcome(err)).Inc()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrUpload):
		return "upload"
	default:
		return "transport"
	}
}
