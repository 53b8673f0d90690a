package geometry

import (
	"fmt"
	"math"
)

// closureTol is the relative gap allowed between the end of one curve and the
// start of the next
const closureTol = 1.e-9

// Boundary is a single closed loop of curves enclosing a simply connected
// domain, together with the target element size used to mesh it
type Boundary struct {
	Name     string
	Curves   []Curve
	MeshSize float64
}

// FromCoords builds a closed polygonal boundary through coords, the last
// point connecting back to the first
func FromCoords(name string, coords []Point, meshSize float64) (*Boundary, error) {
	if len(coords) < 3 {
		return nil, fmt.Errorf("%w: polygon %s needs at least 3 points, got %d",
			ErrDegenerateGeometry, name, len(coords))
	}
	if !(meshSize > 0) {
		return nil, fmt.Errorf("%w: mesh_size must be positive, got %g", ErrInvalidParameter, meshSize)
	}
	b := &Boundary{Name: name, MeshSize: meshSize}
	for i := range coords {
		b.Curves = append(b.Curves, Segment{A: coords[i], B: coords[(i+1)%len(coords)]})
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// Extent returns the diagonal of the axis aligned bounding box
func (b *Boundary) Extent() float64 {
	lo, hi := b.Bounds()
	return lo.Dist(hi)
}

// Bounds returns the lower left and upper right corners of a box containing
// the boundary
func (b *Boundary) Bounds() (lo, hi Point) {
	lo = Point{math.Inf(1), math.Inf(1)}
	hi = Point{math.Inf(-1), math.Inf(-1)}
	for _, p := range b.Discretize(b.fineSize()) {
		lo.X, lo.Y = math.Min(lo.X, p.X), math.Min(lo.Y, p.Y)
		hi.X, hi.Y = math.Max(hi.X, p.X), math.Max(hi.Y, p.Y)
	}
	return
}

// Length is the perimeter of the loop
func (b *Boundary) Length() (l float64) {
	for _, c := range b.Curves {
		l += c.Length()
	}
	return
}

// SignedArea is positive for a counterclockwise loop. Arcs contribute their
// exact area, not that of an inscribed polygon.
func (b *Boundary) SignedArea() (a float64) {
	for _, c := range b.Curves {
		a += c.greenArea()
	}
	return
}

// Area is the enclosed area
func (b *Boundary) Area() float64 { return math.Abs(b.SignedArea()) }

// Discretize walks the loop placing points no more than h apart along each
// curve. Curve end points are always included, each exactly once. Arcs get
// at least four pieces.
func (b *Boundary) Discretize(h float64) (pts []Point) {
	for _, c := range b.Curves {
		n := int(math.Ceil(c.Length()/h - 1.e-9))
		if n < 1 {
			n = 1
		}
		if !c.Straight() && n < 4 {
			n = 4
		}
		for k := 0; k < n; k++ {
			pts = append(pts, c.At(float64(k)/float64(n)))
		}
	}
	return
}

// Closest returns the point of the boundary nearest to p
func (b *Boundary) Closest(p Point) (q Point) {
	best := math.Inf(1)
	for _, c := range b.Curves {
		cp := c.Closest(p)
		if d := cp.Dist(p); d < best {
			best, q = d, cp
		}
	}
	return
}

// Distance is the distance from p to the boundary
func (b *Boundary) Distance(p Point) float64 {
	return b.Closest(p).Dist(p)
}

// Contains reports whether p lies strictly inside a fine polygonal
// approximation of the loop
func (b *Boundary) Contains(p Point) bool {
	return PolygonContains(b.Discretize(b.fineSize()), p)
}

// Validate checks that the curves form a closed loop with non-zero area and
// no self crossings
func (b *Boundary) Validate() error {
	if len(b.Curves) == 0 {
		return fmt.Errorf("%w: %s has no curves", ErrDegenerateGeometry, b.Name)
	}
	scale := 0.
	for _, c := range b.Curves {
		scale = math.Max(scale, c.Length())
	}
	if scale == 0 {
		return fmt.Errorf("%w: %s has zero length", ErrDegenerateGeometry, b.Name)
	}
	for i, c := range b.Curves {
		next := b.Curves[(i+1)%len(b.Curves)]
		if gap := c.At(1).Dist(next.At(0)); gap > closureTol*scale {
			return fmt.Errorf("%w: %s curve %d does not meet curve %d (gap %g)",
				ErrDegenerateGeometry, b.Name, i, (i+1)%len(b.Curves), gap)
		}
	}
	if a := b.Area(); a <= 1.e-12*scale*scale {
		return fmt.Errorf("%w: %s encloses area %g", ErrDegenerateGeometry, b.Name, a)
	}
	if i, j, crossed := SelfIntersection(b.Discretize(b.fineSize())); crossed {
		return fmt.Errorf("%w: %s crosses itself between pieces %d and %d",
			ErrDegenerateGeometry, b.Name, i, j)
	}
	return nil
}

func (b *Boundary) fineSize() float64 {
	return b.Length() / 256
}

// PolygonContains is an even-odd ray test of p against the closed polygon
func PolygonContains(poly []Point, p Point) (inside bool) {
	n := len(poly)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, c := poly[i], poly[j]
		if (a.Y > p.Y) != (c.Y > p.Y) {
			x := a.X + (p.Y-a.Y)*(c.X-a.X)/(c.Y-a.Y)
			if p.X < x {
				inside = !inside
			}
		}
	}
	return
}

// PolygonArea is the signed shoelace area, positive when counterclockwise
func PolygonArea(poly []Point) (a float64) {
	for i := range poly {
		a += poly[i].Cross(poly[(i+1)%len(poly)])
	}
	return 0.5 * a
}

// SelfIntersection reports the first pair of non adjacent polygon edges
// that touch or cross
func SelfIntersection(poly []Point) (int, int, bool) {
	n := len(poly)
	for i := 0; i < n; i++ {
		a0, a1 := poly[i], poly[(i+1)%n]
		for j := i + 2; j < n; j++ {
			if i == 0 && j == n-1 {
				continue
			}
			if segmentsIntersect(a0, a1, poly[j], poly[(j+1)%n]) {
				return i, j, true
			}
		}
	}
	return 0, 0, false
}

func segmentsIntersect(p1, p2, q1, q2 Point) bool {
	// Orientations below tol are rounding noise of collinear points
	tol := 1.e-10 * math.Max(p1.Dist(p2), q1.Dist(q2)) * math.Max(p1.Dist(q1), p2.Dist(q2))
	d1 := snap(orient(q1, q2, p1), tol)
	d2 := snap(orient(q1, q2, p2), tol)
	d3 := snap(orient(p1, p2, q1), tol)
	d4 := snap(orient(p1, p2, q2), tol)
	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	return (d1 == 0 && onSegment(q1, q2, p1)) ||
		(d2 == 0 && onSegment(q1, q2, p2)) ||
		(d3 == 0 && onSegment(p1, p2, q1)) ||
		(d4 == 0 && onSegment(p1, p2, q2))
}

// orient is twice the signed area of triangle abc
func orient(a, b, c Point) float64 {
	return b.Sub(a).Cross(c.Sub(a))
}

func snap(d, tol float64) float64 {
	if math.Abs(d) <= tol {
		return 0
	}
	return d
}

func onSegment(a, b, p Point) bool {
	return math.Min(a.X, b.X) <= p.X && p.X <= math.Max(a.X, b.X) &&
		math.Min(a.Y, b.Y) <= p.Y && p.Y <= math.Max(a.Y, b.Y)
}
