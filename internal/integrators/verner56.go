package integrators

// Verner 6(5), the DVERK pair.
var verner56Tableau = Tableau{
	Name:          "Verner56",
	Stages:        8,
	Order:         6,
	EmbeddedOrder: 5,
	A: [][]float64{
		{},
		{1.0 / 6.0},
		{4.0 / 75.0, 16.0 / 75.0},
		{5.0 / 6.0, -8.0 / 3.0, 5.0 / 2.0},
		{-165.0 / 64.0, 55.0 / 6.0, -425.0 / 64.0, 85.0 / 96.0},
		{12.0 / 5.0, -8.0, 4015.0 / 612.0, -11.0 / 36.0, 88.0 / 255.0},
		{-8263.0 / 15000.0, 124.0 / 75.0, -643.0 / 680.0, -81.0 / 250.0, 2484.0 / 10625.0, 0},
		{3501.0 / 1720.0, -300.0 / 43.0, 297275.0 / 52632.0, -319.0 / 2322.0, 24068.0 / 84065.0, 0, 3850.0 / 26703.0},
	},
	C: []float64{0, 1.0 / 6.0, 4.0 / 15.0, 2.0 / 3.0, 5.0 / 6.0, 1, 1.0 / 15.0, 1},
	B: []float64{
		3.0 / 40.0, 0, 875.0 / 2244.0, 23.0 / 72.0,
		264.0 / 1955.0, 0, 125.0 / 11592.0, 43.0 / 616.0,
	},
	BHat: []float64{
		13.0 / 160.0, 0, 2375.0 / 5984.0, 5.0 / 16.0,
		12.0 / 85.0, 3.0 / 44.0, 0, 0,
	},
}
