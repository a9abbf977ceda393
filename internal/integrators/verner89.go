package integrators

// Verner 9(8), the "most efficient" 16-stage pair.
var verner89Tableau = Tableau{
	Name:          "RK89",
	Stages:        16,
	Order:         9,
	EmbeddedOrder: 8,
	A: [][]float64{
		{},
		{0.03462},
		{-0.0389335438857287, 0.13595789452450918},
		{0.03638413148954267, 0, 0.10915239446862801},
		{
			2.0257639143939694, 0, -7.638023836496291, 6.173259922102322,
		},
		{
			0.05112275589406061, 0, 0, 0.17708237945550218,
			0.0008027762409222536,
		},
		{
			0.13160063579752163, 0, 0, -0.2957276252669636,
			0.08781378035642955, 0.6213052975225274,
		},
		{
			0.07166666666666667, 0, 0, 0,
			0, 0.33055335789153195, 0.2427799754418014,
		},
		{
			0.071806640625, 0, 0, 0,
			0, 0.3294380283228177, 0.1165190029271823, -0.034013671875,
		},
		{
			0.04836757646340646, 0, 0, 0,
			0, 0.03928989925676164, 0.10547409458903446, -0.021438652846483126,
			-0.10412291746271944,
		},
		{
			-0.026645614872014785, 0, 0, 0,
			0, 0.03333333333333333, -0.1631072244872467, 0.03396081684127761,
			0.1572319413814626, 0.21522674780318796,
		},
		{
			0.03689009248708622, 0, 0, 0,
			0, -0.1465181576725543, 0.2242577768172024, 0.02294405717066073,
			-0.0035850052905728597, 0.08669223316444385, 0.43838406519683376,
		},
		{
			-0.4866012215113341, 0, 0, 0,
			0, -6.304602650282853, -0.2812456182894729, -2.679019236219849,
			0.5188156639241577, 1.3653531876033418, 5.8850910885039465, 2.8028087862720628,
		},
		{
			0.4185367457753472, 0, 0, 0,
			0, 6.724547581906459, -0.42544428016461133, 3.3432791530012653,
			0.6170816631175374, -0.9299661239399329, -6.099948804751011, -3.002206187889399,
			0.2553202529443446,
		},
		{
			-0.7793740861228848, 0, 0, 0,
			0, -13.937342538107776, 1.2520488533793563, -14.691500408016868,
			-0.494705058533141, 2.2429749091462368, 13.36789380382865, 14.396650486650687,
			-0.7975813331776801, 0.4409353709534278,
		},
		{
			2.0580513374668867, 0, 0, 0,
			0, 22.357937727968032, 0.9094981099755646, 35.89110098240264,
			-3.442515027624454, -4.865481358036369, -18.909803813543427, -34.26354448030452,
			1.2647565216956427, 0, 0,
		},
	},
	C: []float64{
		0, 0.03462, 0.09702435063878045, 0.14553652595817068, 0.561, 0.22900791159048502, 0.544992088409515, 0.645,
		0.48375, 0.06757, 0.25, 0.6590650618730999, 0.8206, 0.9012, 1, 1,
	},
	B: []float64{
		0.014611976858423152, 0, 0, 0,
		0, 0, 0, -0.3915211862331339,
		0.23109325002895065, 0.12747667699928525, 0.2246434176204158, 0.5684352689748513,
		0.058258715572158275, 0.13643174034822156, 0.030570139830827976, 0,
	},
	BHat: []float64{
		0.01996996514886773, 0, 0, 0,
		0, 0, 0, 2.19149930494933,
		0.08857071848208438, 0.11405602348659656, 0.2533163805345107, -2.056564386240941,
		0.340809679901311, 0, 0, 0.04834231373823958,
	},
}
