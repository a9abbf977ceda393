package metrics

import (
	"time"

	"github.com/san-kum/astroprop/internal/dynamo"
)

// Metric is an observer that reduces a propagation to one number. Metrics
// keep state and are not safe for concurrent use; give each propagation its
// own set.
type Metric interface {
	dynamo.Observer
	Name() string
	Value() float64
	Reset()
}

// Collect returns the current value of every metric keyed by name.
func Collect(ms []Metric) map[string]float64 {
	out := make(map[string]float64, len(ms))
	for _, m := range ms {
		out[m.Name()] = m.Value()
	}
	return out
}

// Observers adapts metrics for propagator.Options.
func Observers(ms []Metric) []dynamo.Observer {
	out := make([]dynamo.Observer, len(ms))
	for i, m := range ms {
		out[i] = m
	}
	return out
}

// Seed primes every metric with the initial state so drift is measured from
// the start of the propagation rather than the first accepted step.
func Seed(ms []Metric, epoch time.Time, x dynamo.State) {
	for _, m := range ms {
		m.OnStep(epoch, x)
	}
}
