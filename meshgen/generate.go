package meshgen

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/notargets/elastowaves/geometry"
	"github.com/notargets/elastowaves/mesh"
)

// model is the state built by one Generate call
type model struct {
	boundary *geometry.Boundary
	mesh     *mesh.Mesh
}

// Generate meshes the domain enclosed by b with quadratic triangles of
// target edge length b.MeshSize. Any model left from an earlier call is
// discarded first.
func (s *Session) Generate(ctx context.Context, b *geometry.Boundary) (*mesh.Mesh, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrSessionClosed
	}
	s.model = nil

	m, err := s.generate(ctx, b)
	if err != nil {
		return nil, err
	}
	s.model = &model{boundary: b, mesh: m}
	s.logger.Debug("mesh generated",
		"geometry", b.Name,
		"mesh_size", b.MeshSize,
		"nodes", m.NumNodes(),
		"elements", m.NumElements(),
		"boundary_nodes", len(m.BoundaryNodes))
	return m, nil
}

// Write stores the current model's mesh at path in Gmsh format
func (s *Session) Write(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	if s.model == nil {
		return errors.New("meshgen: no mesh generated in this session")
	}
	return mesh.WriteGmshFile(path, s.model.mesh)
}

// Generate opens a session, meshes b and closes the session again
func Generate(ctx context.Context, b *geometry.Boundary, opts ...Option) (*mesh.Mesh, error) {
	s, err := Open(ctx, opts...)
	if err != nil {
		return nil, err
	}
	defer s.Close()
	return s.Generate(ctx, b)
}

func (s *Session) generate(ctx context.Context, b *geometry.Boundary) (*mesh.Mesh, error) {
	if b == nil {
		return nil, fmt.Errorf("%w: nil boundary", geometry.ErrDegenerateGeometry)
	}
	h := b.MeshSize
	if !(h > 0) || math.IsInf(h, 1) {
		return nil, fmt.Errorf("%w: mesh_size must be positive, got %g", geometry.ErrInvalidParameter, h)
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Boundary points, one chord per consecutive pair, each chord tagged with
	// the curve it approximates
	bpts, chordCurve := discretize(b, h)
	nb := len(bpts)
	polyArea := geometry.PolygonArea(bpts)
	if math.Abs(polyArea) <= 1.e-12*h*h {
		return nil, fmt.Errorf("%w: %s discretizes to zero area", geometry.ErrDegenerateGeometry, b.Name)
	}
	if i, j, crossed := geometry.SelfIntersection(bpts); crossed {
		return nil, fmt.Errorf("%w: %s chords %d and %d cross at mesh_size %g",
			geometry.ErrDegenerateGeometry, b.Name, i, j, h)
	}

	pts := append([]geometry.Point{}, bpts...)
	pts = append(pts, lattice(bpts, h, s.clearance)...)

	tris, err := triangulate(pts, nb)
	if err != nil {
		return nil, err
	}

	// Keep the triangles inside the domain, counterclockwise
	var (
		corners [][3]int
		area    float64
	)
	for _, t := range tris {
		p0, p1, p2 := pts[t[0]], pts[t[1]], pts[t[2]]
		c := geometry.Point{X: (p0.X + p1.X + p2.X) / 3, Y: (p0.Y + p1.Y + p2.Y) / 3}
		if !geometry.PolygonContains(bpts, c) {
			continue
		}
		a := 0.5 * orient(p0, p1, p2)
		if a < 0 {
			t[1], t[2] = t[2], t[1]
			a = -a
		}
		if a <= 1.e-12*h*h {
			return nil, fmt.Errorf("%w: zero area triangle (%d, %d, %d)", ErrNonConforming, t[0], t[1], t[2])
		}
		area += a
		corners = append(corners, t)
	}
	if rel := math.Abs(area-math.Abs(polyArea)) / math.Abs(polyArea); rel > 1.e-9 {
		return nil, fmt.Errorf("%w: triangles cover area %.12g of %.12g", ErrNonConforming, area, math.Abs(polyArea))
	}
	if err = checkEdges(corners, nb); err != nil {
		return nil, err
	}
	if err = ctx.Err(); err != nil {
		return nil, err
	}
	return quadratic(pts, corners, nb, chordCurve), nil
}

// discretize places boundary points at most h apart. chordCurve[i] is the
// curve carrying the chord from point i to point i+1.
func discretize(b *geometry.Boundary, h float64) (pts []geometry.Point, chordCurve []geometry.Curve) {
	for _, c := range b.Curves {
		single := &geometry.Boundary{Curves: []geometry.Curve{c}}
		for _, p := range single.Discretize(h) {
			pts = append(pts, p)
			chordCurve = append(chordCurve, c)
		}
	}
	return
}

// lattice returns the points of an equilateral lattice of spacing h that lie
// inside poly at least clearance*h away from it
func lattice(poly []geometry.Point, h, clearance float64) (pts []geometry.Point) {
	lo := geometry.Point{X: math.Inf(1), Y: math.Inf(1)}
	hi := geometry.Point{X: math.Inf(-1), Y: math.Inf(-1)}
	for _, p := range poly {
		lo.X, lo.Y = math.Min(lo.X, p.X), math.Min(lo.Y, p.Y)
		hi.X, hi.Y = math.Max(hi.X, p.X), math.Max(hi.Y, p.Y)
	}
	dy := h * math.Sqrt(3) / 2
	minDist := clearance * h
	for j := 0; ; j++ {
		y := lo.Y + minDist + float64(j)*dy
		if y > hi.Y-minDist {
			break
		}
		x0 := lo.X + minDist
		if j%2 == 1 {
			x0 += h / 2
		}
		for x := x0; x <= hi.X-minDist; x += h {
			p := geometry.Point{X: x, Y: y}
			if geometry.PolygonContains(poly, p) && polygonDistance(poly, p) >= minDist {
				pts = append(pts, p)
			}
		}
	}
	return
}

func polygonDistance(poly []geometry.Point, p geometry.Point) float64 {
	d := math.Inf(1)
	for i := range poly {
		seg := geometry.Segment{A: poly[i], B: poly[(i+1)%len(poly)]}
		d = math.Min(d, seg.Closest(p).Dist(p))
	}
	return d
}

// checkEdges verifies that the edges used by a single triangle are exactly
// the nb boundary chords and that no edge is shared by more than two
// triangles
func checkEdges(tris [][3]int, nb int) error {
	count := make(map[edgeKey]int, 3*len(tris))
	for _, t := range tris {
		for e := 0; e < 3; e++ {
			count[newEdgeKey(t[e], t[(e+1)%3])]++
		}
	}
	for i := 0; i < nb; i++ {
		k := newEdgeKey(i, (i+1)%nb)
		if count[k] != 1 {
			return fmt.Errorf("%w: boundary chord %d-%d used by %d triangles", ErrNonConforming, k.a, k.b, count[k])
		}
	}
	for k, c := range count {
		switch {
		case c > 2:
			return fmt.Errorf("%w: edge %d-%d shared by %d triangles", ErrNonConforming, k.a, k.b, c)
		case c == 1 && !isChord(k, nb):
			return fmt.Errorf("%w: interior edge %d-%d has one triangle", ErrNonConforming, k.a, k.b)
		}
	}
	return nil
}

func isChord(k edgeKey, nb int) bool {
	if k.b >= nb {
		return false
	}
	return k.b == k.a+1 || (k.a == 0 && k.b == nb-1)
}

// quadratic adds one node per unique edge and assembles the tri6 mesh.
// Mid nodes on curved boundary chords are moved onto the curve.
func quadratic(pts []geometry.Point, tris [][3]int, nb int, chordCurve []geometry.Curve) *mesh.Mesh {
	m := &mesh.Mesh{
		Nodes:    append([]geometry.Point{}, pts...),
		Elements: make([][mesh.NodesPerElement]int, 0, len(tris)),
	}
	mids := make(map[edgeKey]int, 3*len(tris)/2+nb)
	midNode := func(a, c int) int {
		k := newEdgeKey(a, c)
		if id, ok := mids[k]; ok {
			return id
		}
		p := pts[a].Mid(pts[c])
		if isChord(k, nb) {
			chord := k.a
			if k.a == 0 && k.b == nb-1 {
				chord = nb - 1
			}
			if cv := chordCurve[chord]; !cv.Straight() {
				p = cv.Closest(p)
			}
		}
		id := len(m.Nodes)
		m.Nodes = append(m.Nodes, p)
		mids[k] = id
		return id
	}
	for _, t := range tris {
		var el [mesh.NodesPerElement]int
		el[0], el[1], el[2] = t[0], t[1], t[2]
		for e, en := range mesh.EdgeNodes {
			el[3+e] = midNode(t[en[0]], t[en[1]])
		}
		m.Elements = append(m.Elements, el)
	}
	for i := 0; i < nb; i++ {
		j := (i + 1) % nb
		m.Lines = append(m.Lines, [3]int{i, j, midNode(i, j)})
	}
	m.BoundaryFromLines()
	return m
}
