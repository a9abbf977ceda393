package montecarlo

import (
	"math/rand/v2"

	"github.com/san-kum/astroprop/internal/dynamo"
)

// Dispersion perturbs a nominal state with independent zero-mean Gaussian
// errors, one standard deviation per component. Components past len(Sigma)
// are copied unchanged.
type Dispersion struct {
	Sigma []float64
}

// NewDispersion applies posSigma (km) to each position axis and velSigma
// (km/s) to each velocity axis.
func NewDispersion(posSigma, velSigma float64) Dispersion {
	return Dispersion{Sigma: []float64{posSigma, posSigma, posSigma, velSigma, velSigma, velSigma}}
}

func (d Dispersion) Apply(nominal dynamo.State, rng *rand.Rand) dynamo.State {
	out := nominal.Clone()
	for i, s := range d.Sigma {
		if i >= len(out) {
			break
		}
		// Zero sigmas still draw: component i always uses draw i.
		out[i] += s * rng.NormFloat64()
	}
	return out
}

// newRand returns the generator for one run seed.
func newRand(seed int64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), 0x9e3779b97f4a7c15))
}
