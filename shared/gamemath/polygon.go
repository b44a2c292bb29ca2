package gamemath

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// InsideEdge reports whether p lies on the inward side of the directed edge
// q->r of a clockwise (y-up) polygon. Points on the edge count as inside.
func InsideEdge(p, q, r mgl64.Vec2) bool {
	return q.X()*(p.Y()-r.Y())+p.X()*(r.Y()-q.Y())+r.X()*(q.Y()-p.Y()) >= 0
}

// Contains reports whether p is inside the clockwise convex polygon poly,
// i.e. on the inward side of every edge.
func Contains(poly []mgl64.Vec2, p mgl64.Vec2) bool {
	n := len(poly)
	if n < 3 {
		return false
	}
	for i := 0; i < n; i++ {
		if !InsideEdge(p, poly[i], poly[(i+1)%n]) {
			return false
		}
	}
	return true
}

// AnyVertexInside reports whether at least one vertex of a lies inside b.
func AnyVertexInside(a, b []mgl64.Vec2) bool {
	for _, p := range a {
		if Contains(b, p) {
			return true
		}
	}
	return false
}

// Overlaps is the mutual containment test used for collision: a vertex of a
// inside b, or a vertex of b inside a. Both directions are needed because a
// small polygon fully inside a larger one has no vertex of the larger inside it.
func Overlaps(a, b []mgl64.Vec2) bool {
	return AnyVertexInside(a, b) || AnyVertexInside(b, a)
}

// SignedArea returns twice the shoelace area. Negative means clockwise in y-up space.
func SignedArea(poly []mgl64.Vec2) float64 {
	var sum float64
	n := len(poly)
	for i := 0; i < n; i++ {
		a, b := poly[i], poly[(i+1)%n]
		sum += a.X()*b.Y() - b.X()*a.Y()
	}
	return sum
}

// EnsureClockwise reverses poly in place when it is wound counter-clockwise.
func EnsureClockwise(poly []mgl64.Vec2) {
	if SignedArea(poly) <= 0 {
		return
	}
	for i, j := 0, len(poly)-1; i < j; i, j = i+1, j-1 {
		poly[i], poly[j] = poly[j], poly[i]
	}
}

// IsConvexClockwise reports whether poly is a non-degenerate convex polygon
// with clockwise winding. Collinear runs are tolerated.
func IsConvexClockwise(poly []mgl64.Vec2) bool {
	n := len(poly)
	if n < 3 || SignedArea(poly) >= 0 {
		return false
	}
	for i := 0; i < n; i++ {
		a, b, c := poly[i], poly[(i+1)%n], poly[(i+2)%n]
		ab, bc := b.Sub(a), c.Sub(b)
		if ab[0]*bc[1]-ab[1]*bc[0] > 1e-12 {
			return false
		}
	}
	return true
}

// Rotate turns v by the angle whose cosine and sine are given.
func Rotate(v mgl64.Vec2, cos, sin float64) mgl64.Vec2 {
	return mgl64.Vec2{v.X()*cos - v.Y()*sin, v.X()*sin + v.Y()*cos}
}

// Translate returns a copy of poly shifted by (dx, dy) written into dst.
func Translate(dst, poly []mgl64.Vec2, dx, dy float64) []mgl64.Vec2 {
	dst = dst[:0]
	off := mgl64.Vec2{dx, dy}
	for _, p := range poly {
		dst = append(dst, p.Add(off))
	}
	return dst
}

// Sign returns -1, 0 or 1.
func Sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

// Lerp interpolates between a and b.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// NearlyEqual compares with an absolute tolerance.
func NearlyEqual(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}
