package integrators

import (
	"math"
	"testing"
	"time"

	"github.com/san-kum/astroprop/internal/dynamo"
)

type benchDynamics struct{}

func (b *benchDynamics) StateDim() int { return 6 }

func (b *benchDynamics) Derive(_ time.Time, x, dx dynamo.State) error {
	r2 := x[0]*x[0] + x[1]*x[1] + x[2]*x[2]
	r3 := r2 * math.Sqrt(r2)
	dx[0], dx[1], dx[2] = x[3], x[4], x[5]
	dx[3] = -398600.4415 * x[0] / r3
	dx[4] = -398600.4415 * x[1] / r3
	dx[5] = -398600.4415 * x[2] / r3
	return nil
}

func benchmarkStep(b *testing.B, m Method) {
	s := NewStepper(m.Tableau(), 6, Tolerance{Rel: 1e-12, Abs: 1e-12})
	sys := &benchDynamics{}
	x := dynamo.State{-2436.45, -2436.45, 6891.037, 5.088611, -5.088611, 0}
	out := make(dynamo.State, 6)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Reset()
		if _, err := s.Step(sys, j2000, x, 10, out); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkRK4(b *testing.B)       { benchmarkStep(b, RK4Fixed) }
func BenchmarkDormand45(b *testing.B) { benchmarkStep(b, Dormand45) }
func BenchmarkVerner56(b *testing.B)  { benchmarkStep(b, Verner56) }
func BenchmarkDormand78(b *testing.B) { benchmarkStep(b, Dormand78) }
func BenchmarkRK89(b *testing.B)      { benchmarkStep(b, RK89) }
