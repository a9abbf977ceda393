package forces

import (
	"errors"
	"math"
	"time"

	"github.com/san-kum/astroprop/internal/dynamo"
)

var ErrKeplerNoConvergence = errors.New("forces: universal anomaly did not converge")

// Kepler propagates a Cartesian state under pure two-body motion by dt using
// the universal-variable formulation. It is the analytic reference the
// integrators are checked against.
func Kepler(gm float64, x0 dynamo.State, dt time.Duration) (dynamo.State, error) {
	r0v := [3]float64{x0[0], x0[1], x0[2]}
	v0v := [3]float64{x0[3], x0[4], x0[5]}
	r0 := norm3(r0v)
	if r0 == 0 {
		return nil, dynamo.ErrSingularState
	}
	v0 := norm3(v0v)
	vr0 := (r0v[0]*v0v[0] + r0v[1]*v0v[1] + r0v[2]*v0v[2]) / r0
	alpha := 2/r0 - v0*v0/gm
	sqrtMu := math.Sqrt(gm)
	t := dt.Seconds()

	chi := sqrtMu * math.Abs(alpha) * t
	if alpha <= 0 || chi == 0 {
		chi = sqrtMu * t / r0
	}
	converged := false
	for i := 0; i < 100; i++ {
		z := alpha * chi * chi
		c, s := stumpffC(z), stumpffS(z)
		f := r0*vr0/sqrtMu*chi*chi*c + (1-alpha*r0)*chi*chi*chi*s + r0*chi - sqrtMu*t
		df := r0*vr0/sqrtMu*chi*(1-alpha*chi*chi*s) + (1-alpha*r0)*chi*chi*c + r0
		delta := f / df
		chi -= delta
		if math.Abs(delta) <= 1e-12*math.Max(1, math.Abs(chi)) {
			converged = true
			break
		}
	}
	if !converged {
		return nil, ErrKeplerNoConvergence
	}

	z := alpha * chi * chi
	c, s := stumpffC(z), stumpffS(z)
	f := 1 - chi*chi/r0*c
	g := t - chi*chi*chi/sqrtMu*s
	var rv [3]float64
	for i := range rv {
		rv[i] = f*r0v[i] + g*v0v[i]
	}
	r := norm3(rv)
	fdot := sqrtMu / (r * r0) * (alpha*chi*chi*chi*s - chi)
	gdot := 1 - chi*chi/r*c

	out := make(dynamo.State, len(x0))
	copy(out, x0)
	for i := 0; i < 3; i++ {
		out[i] = rv[i]
		out[3+i] = fdot*r0v[i] + gdot*v0v[i]
	}
	return out, nil
}

func stumpffC(z float64) float64 {
	switch {
	case z > 1e-8:
		return (1 - math.Cos(math.Sqrt(z))) / z
	case z < -1e-8:
		return (math.Cosh(math.Sqrt(-z)) - 1) / -z
	default:
		return 0.5 - z/24 + z*z/720
	}
}

func stumpffS(z float64) float64 {
	switch {
	case z > 1e-8:
		sz := math.Sqrt(z)
		return (sz - math.Sin(sz)) / (sz * sz * sz)
	case z < -1e-8:
		sz := math.Sqrt(-z)
		return (math.Sinh(sz) - sz) / (sz * sz * sz)
	default:
		return 1.0/6 - z/120 + z*z/5040
	}
}

// SpecificEnergy is v^2/2 - gm/r.
func SpecificEnergy(gm float64, x dynamo.State) float64 {
	v := norm3(x.Velocity())
	return v*v/2 - gm/norm3(x.Position())
}

// AngularMomentum is r x v.
func AngularMomentum(x dynamo.State) [3]float64 {
	r, v := x.Position(), x.Velocity()
	return [3]float64{
		r[1]*v[2] - r[2]*v[1],
		r[2]*v[0] - r[0]*v[2],
		r[0]*v[1] - r[1]*v[0],
	}
}
