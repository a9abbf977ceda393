package forces

import (
	"math"
	"time"

	"github.com/san-kum/astroprop/internal/dynamo"
)

// Ephemeris gives the position in km of a body relative to the central body.
type Ephemeris interface {
	Position(epoch time.Time) [3]float64
}

// CircularEphemeris is an analytic circular orbit about the central body:
// radius in km, period, inclination of the orbit plane about the x axis, and
// the argument of latitude at Epoch.
type CircularEphemeris struct {
	Radius      float64
	Period      time.Duration
	Inclination float64
	Phase       float64
	Epoch       time.Time
}

func (c CircularEphemeris) Position(epoch time.Time) [3]float64 {
	u := c.Phase + 2*math.Pi*epoch.Sub(c.Epoch).Seconds()/c.Period.Seconds()
	su, cu := math.Sincos(u)
	si, ci := math.Sincos(c.Inclination)
	return [3]float64{c.Radius * cu, c.Radius * su * ci, c.Radius * su * si}
}

var j2000 = time.Date(2000, time.January, 1, 12, 0, 0, 0, time.UTC)

// Approximate geocentric ephemerides, adequate for perturbation studies.
var (
	MoonCircular = CircularEphemeris{
		Radius:      384400,
		Period:      time.Duration(27.321661 * 86400 * float64(time.Second)),
		Inclination: 23.439291 * math.Pi / 180,
		Phase:       218.316 * math.Pi / 180,
		Epoch:       j2000,
	}
	SunCircular = CircularEphemeris{
		Radius:      149597870.7,
		Period:      time.Duration(365.256363004 * 86400 * float64(time.Second)),
		Inclination: 23.439291 * math.Pi / 180,
		Phase:       280.460 * math.Pi / 180,
		Epoch:       j2000,
	}
)

// ThirdBody is the point-mass perturbation of a body that is not the
// integration origin.
type ThirdBody struct {
	Body      Body
	Ephemeris Ephemeris
}

func NewThirdBody(body Body, eph Ephemeris) *ThirdBody {
	return &ThirdBody{Body: body, Ephemeris: eph}
}

func (t *ThirdBody) Name() string { return "third_body_" + t.Body.Name }

func (t *ThirdBody) Accumulate(epoch time.Time, x dynamo.State, dx dynamo.State) error {
	rj := t.Ephemeris.Position(epoch)
	dj := norm3(rj)
	rel := [3]float64{x[0] - rj[0], x[1] - rj[1], x[2] - rj[2]}
	drel := norm3(rel)
	if dj == 0 || drel == 0 {
		return dynamo.ErrSingularState
	}
	dj3 := dj * dj * dj
	drel3 := drel * drel * drel
	for i := 0; i < 3; i++ {
		dx[3+i] += -t.Body.GM * (rel[i]/drel3 + rj[i]/dj3)
	}
	return nil
}
