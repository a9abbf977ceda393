package forces

import (
	"math"
	"time"

	"github.com/san-kum/astroprop/internal/dynamo"
)

// Drag is atmospheric drag under a single-layer exponential density model
// with an atmosphere co-rotating with Body. Density is in kg/m^3 and the
// area-to-mass ratio in m^2/kg.
type Drag struct {
	Body        Body
	Cd          float64
	AreaToMass  float64
	Rho0        float64
	RefAltitude float64 // km
	ScaleHeight float64 // km
}

// NewDrag uses the 400 km layer of the standard exponential atmosphere.
func NewDrag(body Body, cd, areaToMass float64) *Drag {
	return &Drag{
		Body:        body,
		Cd:          cd,
		AreaToMass:  areaToMass,
		Rho0:        3.725e-12,
		RefAltitude: 400,
		ScaleHeight: 58.515,
	}
}

func (d *Drag) Name() string { return "drag" }

// Density returns kg/m^3 at the given altitude in km.
func (d *Drag) Density(altitude float64) float64 {
	return d.Rho0 * math.Exp(-(altitude-d.RefAltitude)/d.ScaleHeight)
}

func (d *Drag) Accumulate(_ time.Time, x dynamo.State, dx dynamo.State) error {
	r := math.Sqrt(x[0]*x[0] + x[1]*x[1] + x[2]*x[2])
	alt := r - d.Body.Radius
	if alt < 0 {
		return dynamo.ErrBelowSurface
	}
	w := d.Body.Rotation
	vrel := [3]float64{x[3] + w*x[1], x[4] - w*x[0], x[5]}
	speed := norm3(vrel)
	// km/s in, km/s^2 out: rho*A/m*v^2 in m/s^2 carries a factor 1e6/1e3.
	k := -0.5 * d.Cd * d.AreaToMass * d.Density(alt) * speed * 1e3
	dx[3] += k * vrel[0]
	dx[4] += k * vrel[1]
	dx[5] += k * vrel[2]
	return nil
}
