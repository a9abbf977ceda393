package forces

import (
	"fmt"
	"math"
	"time"

	"github.com/san-kum/astroprop/internal/dynamo"
)

// TwoBody is point-mass gravity of the central body. It is the only
// contributor that writes the kinematic part (position' = velocity), so
// every orbital composite starts with it.
type TwoBody struct {
	GM float64
}

func NewTwoBody(gm float64) *TwoBody {
	return &TwoBody{GM: gm}
}

func (t *TwoBody) Name() string { return "two_body" }

func (t *TwoBody) StateDim() int { return 6 }

func (t *TwoBody) Accumulate(_ time.Time, x dynamo.State, dx dynamo.State) error {
	if len(x) < 6 {
		return fmt.Errorf("%w: two-body needs 6 components, got %d", dynamo.ErrDimensionMismatch, len(x))
	}
	r := math.Sqrt(x[0]*x[0] + x[1]*x[1] + x[2]*x[2])
	if r == 0 {
		return dynamo.ErrSingularState
	}
	r3 := r * r * r
	dx[0] += x[3]
	dx[1] += x[4]
	dx[2] += x[5]
	dx[3] += -t.GM * x[0] / r3
	dx[4] += -t.GM * x[1] / r3
	dx[5] += -t.GM * x[2] / r3
	return nil
}

// Derive lets TwoBody be integrated on its own.
func (t *TwoBody) Derive(epoch time.Time, x dynamo.State, dx dynamo.State) error {
	for i := range dx {
		dx[i] = 0
	}
	if err := t.Accumulate(epoch, x, dx); err != nil {
		return &dynamo.EvaluationError{Epoch: epoch, State: x.Clone(), Source: t.Name(), Err: err}
	}
	return nil
}
