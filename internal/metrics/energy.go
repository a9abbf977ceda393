package metrics

import (
	"math"
	"time"

	"github.com/san-kum/astroprop/internal/dynamo"
	"github.com/san-kum/astroprop/internal/forces"
)

// EnergyDrift is the largest relative change of two-body specific energy
// seen so far.
type EnergyDrift struct {
	gm       float64
	initial  float64
	maxDrift float64
	samples  int
}

func NewEnergyDrift(gm float64) *EnergyDrift {
	return &EnergyDrift{gm: gm}
}

func (e *EnergyDrift) Name() string { return "energy_drift" }

func (e *EnergyDrift) OnStep(_ time.Time, x dynamo.State) {
	if len(x) < 6 {
		return
	}
	energy := forces.SpecificEnergy(e.gm, x)
	if e.samples == 0 {
		e.initial = energy
	}
	e.samples++
	if e.initial != 0 {
		e.maxDrift = math.Max(e.maxDrift, math.Abs(energy-e.initial)/math.Abs(e.initial))
	}
}

func (e *EnergyDrift) Value() float64 { return e.maxDrift }

func (e *EnergyDrift) Reset() {
	e.initial = 0
	e.maxDrift = 0
	e.samples = 0
}

// MomentumDrift is the largest relative change of the angular momentum
// vector.
type MomentumDrift struct {
	initial  [3]float64
	norm0    float64
	maxDrift float64
	samples  int
}

func NewMomentumDrift() *MomentumDrift { return &MomentumDrift{} }

func (m *MomentumDrift) Name() string { return "momentum_drift" }

func (m *MomentumDrift) OnStep(_ time.Time, x dynamo.State) {
	if len(x) < 6 {
		return
	}
	h := forces.AngularMomentum(x)
	if m.samples == 0 {
		m.initial = h
		m.norm0 = math.Sqrt(h[0]*h[0] + h[1]*h[1] + h[2]*h[2])
	}
	m.samples++
	if m.norm0 == 0 {
		return
	}
	dx, dy, dz := h[0]-m.initial[0], h[1]-m.initial[1], h[2]-m.initial[2]
	m.maxDrift = math.Max(m.maxDrift, math.Sqrt(dx*dx+dy*dy+dz*dz)/m.norm0)
}

func (m *MomentumDrift) Value() float64 { return m.maxDrift }

func (m *MomentumDrift) Reset() {
	m.initial = [3]float64{}
	m.norm0 = 0
	m.maxDrift = 0
	m.samples = 0
}
