package surface

import (
	"math"

	"github.com/aretw0/meshpanel/pkg/domain"
)

const (
	// LayoutRadius is the radius of the circle nodes are placed on after a refresh.
	LayoutRadius = 150.0

	// NodeSize is the rendered diameter of a node; taps within half of it hit the node.
	NodeSize = 40.0
)

// circleLayout places n nodes evenly on a circle centered on the origin, starting at the top
// and going clockwise. A single node sits at the center.
func circleLayout(n int, radius float64) []domain.Position {
	out := make([]domain.Position, n)
	if n <= 1 {
		return out
	}
	step := 2 * math.Pi / float64(n)
	for i := range out {
		angle := -math.Pi/2 + float64(i)*step
		out[i] = domain.Position{
			X: round(radius * math.Cos(angle)),
			Y: round(radius * math.Sin(angle)),
		}
	}
	return out
}

func round(v float64) float64 {
	return math.Round(v*100) / 100
}

func distance(a, b domain.Position) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}
