package dynamo

import (
	"math"
	"time"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

func (s State) Add(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] + other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

func (s State) Scale(factor float64) State {
	result := make(State, len(s))
	for i := range s {
		result[i] = s[i] * factor
	}
	return result
}

func (s State) Sub(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] - other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

// Position returns the first three components. It panics on states shorter
// than three.
func (s State) Position() [3]float64 {
	return [3]float64{s[0], s[1], s[2]}
}

// Velocity returns components three through five.
func (s State) Velocity() [3]float64 {
	return [3]float64{s[3], s[4], s[5]}
}

// System is the derivative contract the integrators consume. Derive writes
// f(epoch, x) into dx, which has the same length as x. Implementations must
// be pure and safe for concurrent use.
type System interface {
	Derive(epoch time.Time, x State, dx State) error
	StateDim() int
}

// Contributor adds one independent term of a composite derivative.
type Contributor interface {
	Name() string
	Accumulate(epoch time.Time, x State, dx State) error
}

type Observer interface {
	OnStep(epoch time.Time, x State)
}

// ObserverFunc adapts a plain function to Observer.
type ObserverFunc func(epoch time.Time, x State)

func (f ObserverFunc) OnStep(epoch time.Time, x State) { f(epoch, x) }

// Seconds converts a step in seconds to the nanosecond duration the epoch
// advances by.
func Seconds(s float64) time.Duration {
	return time.Duration(math.Round(s * float64(time.Second)))
}
