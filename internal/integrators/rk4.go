package integrators

var rk4Tableau = Tableau{
	Name:   "RK4Fixed",
	Stages: 4,
	Order:  4,
	A: [][]float64{
		{},
		{0.5},
		{0, 0.5},
		{0, 0, 1},
	},
	C: []float64{0, 0.5, 0.5, 1},
	B: []float64{1.0 / 6.0, 1.0 / 3.0, 1.0 / 3.0, 1.0 / 6.0},
}
