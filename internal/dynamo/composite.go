package dynamo

import (
	"fmt"
	"time"
)

// Composite sums the derivative terms of an ordered list of contributors.
// It keeps no scratch state, so one value can back any number of concurrent
// propagations.
type Composite struct {
	dim          int
	contributors []Contributor
}

func NewComposite(dim int, contributors ...Contributor) *Composite {
	return &Composite{dim: dim, contributors: contributors}
}

func (c *Composite) StateDim() int { return c.dim }

// Contributors returns a copy of the contributor list in evaluation order.
func (c *Composite) Contributors() []Contributor {
	out := make([]Contributor, len(c.contributors))
	copy(out, c.contributors)
	return out
}

func (c *Composite) Derive(epoch time.Time, x State, dx State) error {
	if len(x) != c.dim || len(dx) != c.dim {
		return fmt.Errorf("%w: state %d, derivative %d, system %d", ErrDimensionMismatch, len(x), len(dx), c.dim)
	}
	for i := range dx {
		dx[i] = 0
	}
	for _, contrib := range c.contributors {
		if err := contrib.Accumulate(epoch, x, dx); err != nil {
			return &EvaluationError{Epoch: epoch, State: x.Clone(), Source: contrib.Name(), Err: err}
		}
	}
	return nil
}

func (c *Composite) String() string {
	names := make([]string, len(c.contributors))
	for i, contrib := range c.contributors {
		names[i] = contrib.Name()
	}
	return fmt.Sprintf("composite%v", names)
}
