package forces

import (
	"fmt"
	"math"
	"time"

	"github.com/san-kum/astroprop/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

// STMDim is the dimension of a state carrying its 6x6 state transition
// matrix, stored row-major after the six Cartesian components.
const STMDim = 6 + 36

// TwoBodySTM integrates two-body motion together with the variational
// equations Phi' = A(x) Phi.
type TwoBodySTM struct {
	GM float64
}

func NewTwoBodySTM(gm float64) *TwoBodySTM {
	return &TwoBodySTM{GM: gm}
}

func (t *TwoBodySTM) StateDim() int { return STMDim }

func (t *TwoBodySTM) Derive(epoch time.Time, x dynamo.State, dx dynamo.State) error {
	if len(x) != STMDim || len(dx) != STMDim {
		return fmt.Errorf("%w: state %d, derivative %d, system %d", dynamo.ErrDimensionMismatch, len(x), len(dx), STMDim)
	}
	r2 := x[0]*x[0] + x[1]*x[1] + x[2]*x[2]
	if r2 == 0 {
		return &dynamo.EvaluationError{Epoch: epoch, State: x.Clone(), Source: "two_body_stm", Err: dynamo.ErrSingularState}
	}
	r := math.Sqrt(r2)
	r3 := r2 * r
	r5 := r3 * r2

	dx[0], dx[1], dx[2] = x[3], x[4], x[5]
	for i := 0; i < 3; i++ {
		dx[3+i] = -t.GM * x[i] / r3
	}

	a := mat.NewDense(6, 6, nil)
	for i := 0; i < 3; i++ {
		a.Set(i, 3+i, 1)
		for j := 0; j < 3; j++ {
			g := 3 * t.GM * x[i] * x[j] / r5
			if i == j {
				g -= t.GM / r3
			}
			a.Set(3+i, j, g)
		}
	}
	phi := mat.NewDense(6, 6, x[6:STMDim])
	dphi := mat.NewDense(6, 6, dx[6:STMDim])
	dphi.Mul(a, phi)
	return nil
}

// WithIdentitySTM appends an identity transition matrix to a Cartesian
// state.
func WithIdentitySTM(x dynamo.State) dynamo.State {
	out := make(dynamo.State, STMDim)
	copy(out, x[:6])
	for i := 0; i < 6; i++ {
		out[6+i*6+i] = 1
	}
	return out
}

// STM extracts the transition matrix of an augmented state.
func STM(x dynamo.State) *mat.Dense {
	data := make([]float64, 36)
	copy(data, x[6:STMDim])
	return mat.NewDense(6, 6, data)
}
