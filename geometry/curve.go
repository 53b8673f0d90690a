package geometry

import "math"

// Point is a position in the plane
type Point struct {
	X, Y float64
}

func (p Point) Add(q Point) Point              { return Point{p.X + q.X, p.Y + q.Y} }
func (p Point) Sub(q Point) Point              { return Point{p.X - q.X, p.Y - q.Y} }
func (p Point) Scale(a float64) Point          { return Point{a * p.X, a * p.Y} }
func (p Point) Dot(q Point) float64            { return p.X*q.X + p.Y*q.Y }
func (p Point) Cross(q Point) float64          { return p.X*q.Y - p.Y*q.X }
func (p Point) Norm() float64                  { return math.Hypot(p.X, p.Y) }
func (p Point) Dist(q Point) float64           { return p.Sub(q).Norm() }
func (p Point) Mid(q Point) Point              { return Point{0.5 * (p.X + q.X), 0.5 * (p.Y + q.Y)} }
func (p Point) Near(q Point, tol float64) bool { return p.Dist(q) <= tol }

// Curve is one piece of a closed boundary loop, parametrized on t in [0,1]
type Curve interface {
	Length() float64
	At(t float64) Point
	// Closest returns the point of the curve nearest to p
	Closest(p Point) Point
	// Straight reports whether chords of the curve lie on the curve
	Straight() bool
	// greenArea is the contribution of the curve to 1/2 ∮ (x dy - y dx)
	greenArea() float64
}

// Segment is a straight boundary edge from A to B
type Segment struct {
	A, B Point
}

func (s Segment) Length() float64 { return s.A.Dist(s.B) }

func (s Segment) At(t float64) Point {
	return s.A.Add(s.B.Sub(s.A).Scale(t))
}

func (s Segment) Closest(p Point) Point {
	d := s.B.Sub(s.A)
	l2 := d.Dot(d)
	if l2 == 0 {
		return s.A
	}
	t := p.Sub(s.A).Dot(d) / l2
	t = math.Max(0, math.Min(1, t))
	return s.At(t)
}

func (s Segment) Straight() bool { return true }

func (s Segment) greenArea() float64 {
	return 0.5 * s.A.Cross(s.B)
}

// Arc is a circular arc around Center starting at angle Start (radians) and
// sweeping Sweep radians, counterclockwise when Sweep > 0
type Arc struct {
	Center       Point
	Radius       float64
	Start, Sweep float64
}

func (a Arc) Length() float64 { return math.Abs(a.Sweep) * a.Radius }

func (a Arc) At(t float64) Point {
	th := a.Start + t*a.Sweep
	return Point{a.Center.X + a.Radius*math.Cos(th), a.Center.Y + a.Radius*math.Sin(th)}
}

func (a Arc) Closest(p Point) Point {
	d := p.Sub(a.Center)
	if d.Norm() == 0 {
		return a.At(0)
	}
	th := math.Atan2(d.Y, d.X)
	// Position of th along the sweep, measured in the sweep direction
	rel := (th - a.Start) * sign(a.Sweep)
	rel = math.Mod(rel, 2*math.Pi)
	if rel < 0 {
		rel += 2 * math.Pi
	}
	sweep := math.Abs(a.Sweep)
	if rel <= sweep {
		return a.At(rel / sweep)
	}
	p0, p1 := a.At(0), a.At(1)
	if p.Dist(p0) < p.Dist(p1) {
		return p0
	}
	return p1
}

func (a Arc) Straight() bool { return false }

func (a Arc) greenArea() float64 {
	t0, t1 := a.Start, a.Start+a.Sweep
	r := a.Radius
	return 0.5 * (r*r*a.Sweep +
		a.Center.X*r*(math.Sin(t1)-math.Sin(t0)) -
		a.Center.Y*r*(math.Cos(t1)-math.Cos(t0)))
}

func sign(x float64) float64 {
	if x < 0 {
		return -1
	}
	return 1
}
