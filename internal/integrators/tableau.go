package integrators

import (
	"fmt"
	"math"
	"strings"
)

// Tableau is the Butcher table of one explicit Runge–Kutta method. A holds
// the strictly lower triangle: row i has exactly i entries. BHat is nil for
// fixed-step methods.
type Tableau struct {
	Name          string
	Stages        int
	Order         int
	EmbeddedOrder int
	A             [][]float64
	C             []float64
	B             []float64
	BHat          []float64
	// FSAL marks tables whose last stage is evaluated at the new state.
	FSAL bool
}

func (t *Tableau) Adaptive() bool { return t.BHat != nil }

// Validate checks the shape of the table, the row-sum condition on C and
// that each weight vector sums to one, all within tol.
func (t *Tableau) Validate(tol float64) error {
	if t.Stages < 1 {
		return fmt.Errorf("%s: no stages", t.Name)
	}
	if len(t.A) != t.Stages || len(t.C) != t.Stages || len(t.B) != t.Stages {
		return fmt.Errorf("%s: expected %d stages, got A=%d C=%d B=%d", t.Name, t.Stages, len(t.A), len(t.C), len(t.B))
	}
	if t.BHat != nil && len(t.BHat) != t.Stages {
		return fmt.Errorf("%s: embedded weights have %d entries, want %d", t.Name, len(t.BHat), t.Stages)
	}
	for i, row := range t.A {
		if len(row) != i {
			return fmt.Errorf("%s: row %d has %d entries, want %d", t.Name, i, len(row), i)
		}
		sum := 0.0
		for _, a := range row {
			sum += a
		}
		if math.Abs(sum-t.C[i]) > tol {
			return fmt.Errorf("%s: row %d sums to %.17g, node is %.17g", t.Name, i, sum, t.C[i])
		}
	}
	if d := math.Abs(sumOf(t.B) - 1); d > tol {
		return fmt.Errorf("%s: weights sum off by %g", t.Name, d)
	}
	if t.BHat != nil {
		if d := math.Abs(sumOf(t.BHat) - 1); d > tol {
			return fmt.Errorf("%s: embedded weights sum off by %g", t.Name, d)
		}
		if t.EmbeddedOrder < 1 || t.EmbeddedOrder >= t.Order {
			return fmt.Errorf("%s: embedded order %d must be in [1, %d)", t.Name, t.EmbeddedOrder, t.Order)
		}
	}
	return nil
}

func sumOf(v []float64) float64 {
	s := 0.0
	for _, x := range v {
		s += x
	}
	return s
}

// Method selects one of the built-in tableaus.
type Method int

const (
	RK4Fixed Method = iota
	Dormand45
	Verner56
	Dormand78
	RK89

	numMethods = int(RK89) + 1
)

var methodNames = map[Method]string{
	RK4Fixed:  "rk4",
	Dormand45: "dormand45",
	Verner56:  "verner56",
	Dormand78: "dormand78",
	RK89:      "rk89",
}

var aliases = map[string]Method{
	"rk4fixed": RK4Fixed,
	"dp45":     Dormand45,
	"rk45":     Dormand45,
	"rkv65":    Verner56,
	"dp78":     Dormand78,
	"rk78":     Dormand78,
	"verner89": RK89,
}

func Methods() []Method {
	return []Method{RK4Fixed, Dormand45, Verner56, Dormand78, RK89}
}

func (m Method) String() string {
	if name, ok := methodNames[m]; ok {
		return name
	}
	return fmt.Sprintf("method(%d)", int(m))
}

func (m Method) Valid() bool {
	_, ok := methodNames[m]
	return ok
}

// Tableau returns the shared, read-only table for m, or nil for an unknown
// method.
func (m Method) Tableau() *Tableau {
	switch m {
	case RK4Fixed:
		return &rk4Tableau
	case Dormand45:
		return &dormand45Tableau
	case Verner56:
		return &verner56Tableau
	case Dormand78:
		return &dormand78Tableau
	case RK89:
		return &verner89Tableau
	}
	return nil
}

func ParseMethod(name string) (Method, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for m, n := range methodNames {
		if n == key {
			return m, nil
		}
	}
	if m, ok := aliases[key]; ok {
		return m, nil
	}
	return 0, fmt.Errorf("unknown integrator: %s", name)
}

func (m Method) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("unknown integrator: %d", int(m))
	}
	return []byte(m.String()), nil
}

func (m *Method) UnmarshalText(text []byte) error {
	parsed, err := ParseMethod(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
