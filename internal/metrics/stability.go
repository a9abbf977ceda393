package metrics

import (
	"math"
	"time"

	"github.com/san-kum/astroprop/internal/dynamo"
)

// MinAltitude tracks the lowest altitude above a spherical body of the given
// radius. It reports +Inf before the first step.
type MinAltitude struct {
	radius  float64
	lowest  float64
	samples int
}

func NewMinAltitude(radius float64) *MinAltitude {
	return &MinAltitude{radius: radius, lowest: math.Inf(1)}
}

func (a *MinAltitude) Name() string { return "min_altitude" }

func (a *MinAltitude) OnStep(_ time.Time, x dynamo.State) {
	if len(x) < 3 {
		return
	}
	r := math.Sqrt(x[0]*x[0] + x[1]*x[1] + x[2]*x[2])
	a.lowest = math.Min(a.lowest, r-a.radius)
	a.samples++
}

func (a *MinAltitude) Value() float64 { return a.lowest }

func (a *MinAltitude) Reset() {
	a.lowest = math.Inf(1)
	a.samples = 0
}
