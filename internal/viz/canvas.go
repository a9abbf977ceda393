package viz

import (
	"math"
	"strings"

	"github.com/san-kum/astroprop/internal/dynamo"
)

// Braille cells are 2x4 dots:
// 1 4
// 2 5
// 3 6
// 7 8
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const blank = 0x2800

// Canvas is a grid of braille cells. Pixel coordinates run over
// (Width*2) x (Height*4) with y growing downward.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{Width: w, Height: h, Grid: make([][]rune, h)}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm.
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row))
		b.WriteByte('\n')
	}
	return b.String()
}

// Plane selects the two position axes an orbit is projected onto.
type Plane struct{ U, V int }

var (
	PlaneXY = Plane{0, 1}
	PlaneXZ = Plane{0, 2}
	PlaneYZ = Plane{1, 2}
)

// ParsePlane accepts "xy", "xz" or "yz".
func ParsePlane(s string) (Plane, bool) {
	switch strings.ToLower(s) {
	case "xy", "":
		return PlaneXY, true
	case "xz":
		return PlaneXZ, true
	case "yz":
		return PlaneYZ, true
	}
	return Plane{}, false
}

// OrbitPlot draws the projected trajectory with the central body outline,
// both on one isotropic scale centred on the body.
func OrbitPlot(states []dynamo.State, bodyRadius float64, plane Plane, w, h int) *Canvas {
	c := NewCanvas(w, h)
	extent := bodyRadius
	for _, x := range states {
		extent = math.Max(extent, math.Max(math.Abs(x[plane.U]), math.Abs(x[plane.V])))
	}
	extent *= 1.05

	pw, ph := float64(w*2), float64(h*4)
	// Terminal cells are about twice as tall as wide, which the 2x4 dot
	// grid already compensates for.
	scale := math.Min(pw, ph) / (2 * extent)
	toPixel := func(u, v float64) (int, int) {
		return int(math.Round(pw/2 + u*scale)), int(math.Round(ph/2 - v*scale))
	}

	const segments = 72
	px, py := toPixel(bodyRadius, 0)
	for i := 1; i <= segments; i++ {
		a := 2 * math.Pi * float64(i) / segments
		nx, ny := toPixel(bodyRadius*math.Cos(a), bodyRadius*math.Sin(a))
		c.DrawLine(px, py, nx, ny)
		px, py = nx, ny
	}

	for i, x := range states {
		nx, ny := toPixel(x[plane.U], x[plane.V])
		if i > 0 {
			c.DrawLine(px, py, nx, ny)
		} else {
			c.Set(nx, ny)
		}
		px, py = nx, ny
	}
	return c
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
