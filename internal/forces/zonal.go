package forces

import (
	"math"
	"time"

	"github.com/san-kum/astroprop/internal/dynamo"
)

// Zonal adds the J2 and optionally J3 zonal harmonics of Body in Cartesian
// form. It contributes acceleration only.
type Zonal struct {
	Body Body
	J3   bool
}

func NewZonal(body Body, withJ3 bool) *Zonal {
	return &Zonal{Body: body, J3: withJ3}
}

func (z *Zonal) Name() string {
	if z.J3 {
		return "j3"
	}
	return "j2"
}

func (z *Zonal) Accumulate(_ time.Time, x dynamo.State, dx dynamo.State) error {
	px, py, pz := x[0], x[1], x[2]
	z2 := pz * pz
	r2 := px*px + py*py + z2
	if r2 == 0 {
		return dynamo.ErrSingularState
	}
	if r2 < z.Body.Radius*z.Body.Radius {
		return dynamo.ErrBelowSurface
	}
	r252 := math.Pow(r2, 2.5)
	r272 := math.Pow(r2, 3.5)

	accJ2 := 1.5 * z.Body.J2 * z.Body.Radius * z.Body.Radius * z.Body.GM
	dx[3] += accJ2 * (5*px*z2/r272 - px/r252)
	dx[4] += accJ2 * (5*py*z2/r272 - py/r252)
	dx[5] += accJ2 * (5*pz*z2/r272 - 3*pz/r252)

	if z.J3 {
		r292 := math.Pow(r2, 4.5)
		z3 := z2 * pz
		accJ3 := z.Body.J3 * math.Pow(z.Body.Radius, 3) * z.Body.GM
		dx[3] += 2.5 * accJ3 * (7*px*z3/r292 - 3*px*pz/r272)
		dx[4] += 2.5 * accJ3 * (7*py*z3/r292 - 3*py*pz/r272)
		dx[5] += 0.5 * accJ3 * (35*z2*z2/r292 - 30*z2/r272 + 3/r252)
	}
	return nil
}
