package propagator

import (
	"time"

	"github.com/san-kum/astroprop/internal/dynamo"
)

type Sample struct {
	Epoch time.Time
	State dynamo.State
}

// Stats mirrors the per-step integration details of a propagation.
type Stats struct {
	Steps       int
	Rejections  int
	Evaluations int
	// MaxAttempts is the largest number of tries any single step needed.
	MaxAttempts int
	LastStep    float64
	LastError   float64
	// Smallest and largest accepted step magnitudes in seconds.
	MinStep float64
	MaxStep float64
}

// Result is the ordered trajectory of one propagation. The first sample is
// the initial state and the last sits exactly on the target epoch.
type Result struct {
	Method  string
	Samples []Sample
	Stats   Stats
	Elapsed time.Duration
}

func (r *Result) Len() int { return len(r.Samples) }

func (r *Result) At(i int) Sample { return r.Samples[i] }

func (r *Result) Initial() Sample { return r.Samples[0] }

func (r *Result) Final() Sample { return r.Samples[len(r.Samples)-1] }

// Epochs and States return parallel slices over the samples.
func (r *Result) Epochs() []time.Time {
	out := make([]time.Time, len(r.Samples))
	for i, s := range r.Samples {
		out[i] = s.Epoch
	}
	return out
}

func (r *Result) States() []dynamo.State {
	out := make([]dynamo.State, len(r.Samples))
	for i, s := range r.Samples {
		out[i] = s.State
	}
	return out
}

func (s *Stats) record(h float64, errNorm float64, attempts int) {
	s.Steps++
	s.LastStep = h
	s.LastError = errNorm
	if attempts > s.MaxAttempts {
		s.MaxAttempts = attempts
	}
	mag := h
	if mag < 0 {
		mag = -mag
	}
	if s.Steps == 1 || mag < s.MinStep {
		s.MinStep = mag
	}
	if mag > s.MaxStep {
		s.MaxStep = mag
	}
}
