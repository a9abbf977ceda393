package integrators

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/astroprop/internal/dynamo"
)

// Tolerance is the mixed absolute/relative error model. Component i of an
// error vector is scaled by max(|x_i|, |xHigh_i|, Floor)*Rel + Abs.
type Tolerance struct {
	Rel   float64
	Abs   float64
	Floor float64
	Norm  ErrorNorm
}

func (t Tolerance) scale(x, xHigh float64) float64 {
	return math.Max(math.Max(math.Abs(x), math.Abs(xHigh)), t.Floor)*t.Rel + t.Abs
}

// ErrorNorm reduces a scaled error vector to the scalar the controller
// compares against one.
type ErrorNorm int

const (
	// NormMax is the largest scaled component. It is the default: every
	// component is held to its own tolerance.
	NormMax ErrorNorm = iota
	// NormRMS is the root mean square of the scaled components. Dividing by
	// the dimension lets single components run past their tolerance.
	NormRMS
	// NormRSSPosVel scales the root-sum-square of the position and velocity
	// blocks separately and keeps the larger. Any components past the sixth
	// are folded in with NormMax.
	NormRSSPosVel
)

var normNames = map[ErrorNorm]string{
	NormRMS:       "rms",
	NormMax:       "max",
	NormRSSPosVel: "rss_posvel",
}

func (n ErrorNorm) String() string {
	if name, ok := normNames[n]; ok {
		return name
	}
	return fmt.Sprintf("norm(%d)", int(n))
}

func (n ErrorNorm) Valid() bool {
	_, ok := normNames[n]
	return ok
}

// MinDim is the smallest state dimension the norm supports.
func (n ErrorNorm) MinDim() int {
	if n == NormRSSPosVel {
		return 6
	}
	return 1
}

func ParseNorm(name string) (ErrorNorm, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return NormMax, nil
	}
	for n, s := range normNames {
		if s == key {
			return n, nil
		}
	}
	return 0, fmt.Errorf("unknown error norm: %s", name)
}

func (n ErrorNorm) MarshalText() ([]byte, error) { return []byte(n.String()), nil }

func (n *ErrorNorm) UnmarshalText(text []byte) error {
	parsed, err := ParseNorm(string(text))
	if err != nil {
		return err
	}
	*n = parsed
	return nil
}

// Estimate returns the scaled norm of errv, the difference between the high
// and low order solutions, for a step from x to xHigh.
func (t Tolerance) Estimate(errv, x, xHigh dynamo.State) float64 {
	switch t.Norm {
	case NormRMS:
		return t.rmsNorm(errv, x, xHigh)
	case NormRSSPosVel:
		if len(errv) < 6 {
			return t.rmsNorm(errv, x, xHigh)
		}
		pos := t.blockNorm(errv, x, xHigh, 0)
		vel := t.blockNorm(errv, x, xHigh, 3)
		return math.Max(math.Max(pos, vel), t.maxNorm(errv, x, xHigh, 6))
	default:
		return t.maxNorm(errv, x, xHigh, 0)
	}
}

func (t Tolerance) rmsNorm(errv, x, xHigh dynamo.State) float64 {
	sum := 0.0
	for i, e := range errv {
		r := e / t.scale(x[i], xHigh[i])
		sum += r * r
	}
	return math.Sqrt(sum / float64(len(errv)))
}

func (t Tolerance) maxNorm(errv, x, xHigh dynamo.State, from int) float64 {
	worst := 0.0
	for i := from; i < len(errv); i++ {
		r := math.Abs(errv[i]) / t.scale(x[i], xHigh[i])
		if r > worst {
			worst = r
		}
	}
	return worst
}

func (t Tolerance) blockNorm(errv, x, xHigh dynamo.State, from int) float64 {
	var e2, x2, h2 float64
	for i := from; i < from+3; i++ {
		e2 += errv[i] * errv[i]
		x2 += x[i] * x[i]
		h2 += xHigh[i] * xHigh[i]
	}
	return math.Sqrt(e2) / t.scale(math.Sqrt(x2), math.Sqrt(h2))
}
