package integrators

import "sync"

// Steppers are pooled per method. A recycled stepper keeps its stage buffers
// when the dimension matches and reallocates otherwise.
var stepperPools [numMethods]sync.Pool

func AcquireStepper(m Method, dim int, tol Tolerance) *Stepper {
	if m.Valid() {
		if v := stepperPools[m].Get(); v != nil {
			s := v.(*Stepper)
			s.ensureScratch(dim)
			s.SetTolerance(tol)
			s.Reset()
			return s
		}
	}
	return NewStepper(m.Tableau(), dim, tol)
}

func ReleaseStepper(m Method, s *Stepper) {
	if s == nil || !m.Valid() || s.tab != m.Tableau() {
		return
	}
	s.Reset()
	stepperPools[m].Put(s)
}
