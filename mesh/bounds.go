package mesh

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Bounds is an axis aligned bounding box.
type Bounds struct {
	Min, Max mgl32.Vec3
}

// BoundsOf returns the box enclosing points. It is the zero box if points
// is empty.
func BoundsOf(points []mgl32.Vec3) (b Bounds) {
	if len(points) == 0 {
		return
	}
	b.Min, b.Max = points[0], points[0]
	for _, p := range points[1:] {
		for i := 0; i < 3; i++ {
			if p[i] < b.Min[i] {
				b.Min[i] = p[i]
			}
			if p[i] > b.Max[i] {
				b.Max[i] = p[i]
			}
		}
	}
	return
}
