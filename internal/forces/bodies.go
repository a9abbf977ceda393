package forces

import "math"

// Body holds the constants of a gravitating body. Distances are in km, GM in
// km^3/s^2 and rotation in rad/s.
type Body struct {
	Name     string
	GM       float64
	Radius   float64
	J2       float64
	J3       float64
	Rotation float64
}

var (
	Earth = Body{Name: "earth", GM: 398600.4415, Radius: 6378.1363, J2: 1082.6269e-6, J3: -2.5324e-6, Rotation: 7.292115146706979e-5}
	Moon  = Body{Name: "moon", GM: 4902.800066, Radius: 1737.4, J2: 202.7e-6, Rotation: 2.6616995e-6}
	Sun   = Body{Name: "sun", GM: 1.32712440017987e11, Radius: 695700}
)

var bodies = map[string]Body{
	Earth.Name: Earth,
	Moon.Name:  Moon,
	Sun.Name:   Sun,
}

// BodyByName looks up one of the built-in bodies.
func BodyByName(name string) (Body, bool) {
	b, ok := bodies[name]
	return b, ok
}

func norm3(v [3]float64) float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}
