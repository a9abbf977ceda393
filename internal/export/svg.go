// Package export renders stored trajectories to files.
package export

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/san-kum/astroprop/internal/dynamo"
	"github.com/san-kum/astroprop/internal/viz"
)

// OrbitSVG writes the trajectory projected on plane as a square SVG of the
// given pixel size, with the central body drawn as a filled disc. Both share
// one isotropic scale centred on the body.
func OrbitSVG(w io.Writer, states []dynamo.State, bodyRadius float64, plane viz.Plane, size int) error {
	if len(states) < 2 {
		return fmt.Errorf("need at least two states, got %d", len(states))
	}

	extent := bodyRadius
	for _, x := range states {
		extent = math.Max(extent, math.Max(math.Abs(x[plane.U]), math.Abs(x[plane.V])))
	}
	extent *= 1.1

	half := float64(size) / 2
	scale := half / extent
	toPixel := func(u, v float64) (float64, float64) {
		return half + u*scale, half - v*scale
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, size, size, size, size)

	if bodyRadius > 0 {
		fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="%.1f" fill="#1e3a5f" stroke="#3b82f6"/>
`, half, half, bodyRadius*scale)
	}

	sb.WriteString(`<path fill="none" stroke="#00ff88" stroke-width="1.5" d="`)
	for i, x := range states {
		px, py := toPixel(x[plane.U], x[plane.V])
		if i == 0 {
			fmt.Fprintf(&sb, "M%.1f,%.1f", px, py)
		} else {
			fmt.Fprintf(&sb, " L%.1f,%.1f", px, py)
		}
	}
	sb.WriteString("\"/>\n")

	first, last := states[0], states[len(states)-1]
	for _, m := range []struct {
		x     dynamo.State
		color string
	}{{first, "#ffffff"}, {last, "#ff4444"}} {
		px, py := toPixel(m.x[plane.U], m.x[plane.V])
		fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="3" fill="%s"/>
`, px, py, m.color)
	}
	sb.WriteString("</svg>\n")

	_, err := io.WriteString(w, sb.String())
	return err
}
