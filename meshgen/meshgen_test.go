package meshgen

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/elastowaves/geometry"
	"github.com/notargets/elastowaves/mesh"
)

func build(t *testing.T, kind geometry.Kind, params map[string]float64) *geometry.Boundary {
	t.Helper()
	b, err := geometry.Build(geometry.Spec{Kind: kind, Params: params})
	require.NoError(t, err)
	return b
}

func TestGenerate_Conformance(t *testing.T) {
	tests := []struct {
		name   string
		kind   geometry.Kind
		params map[string]float64
	}{
		{"square", geometry.Square, map[string]float64{geometry.Side: 1, geometry.MeshSize: 0.1}},
		{"triangle", geometry.Triangle, map[string]float64{geometry.Cathetus: 1.5, geometry.MeshSize: 0.15}},
		{"circle", geometry.Circle, map[string]float64{geometry.Radius: 1, geometry.MeshSize: 0.2}},
		{"isospectral_1_1", geometry.Isospectral1_1, map[string]float64{geometry.MeshSize: 0.25}},
		{"isospectral_1_2", geometry.Isospectral1_2, map[string]float64{geometry.MeshSize: 0.25}},
		{"isospectral_2_1", geometry.Isospectral2_1, map[string]float64{geometry.MeshSize: 0.25}},
		{"isospectral_2_2", geometry.Isospectral2_2, map[string]float64{geometry.MeshSize: 0.25}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := build(t, tt.kind, tt.params)
			m, err := Generate(context.Background(), b)
			require.NoError(t, err)
			require.NoError(t, m.Validate())

			checkMidNodes(t, m, b)
			for _, n := range m.BoundaryNodes {
				assert.Less(t, b.Distance(m.Nodes[n]), 1e-9, "boundary node %d off the curve", n)
			}
			for k := range m.Elements {
				c := m.ElementCoords(k)
				assert.Greater(t, c[1].Sub(c[0]).Cross(c[2].Sub(c[0])), 0., "element %d is not counterclockwise", k)
			}

			// equilateral triangles of side h tile the domain
			h := b.MeshSize
			expect := b.Area() / (math.Sqrt(3) / 4 * h * h)
			assert.Greater(t, float64(m.NumElements()), 0.5*expect)
			assert.Less(t, float64(m.NumElements()), 2*expect)

			if tt.kind != geometry.Circle {
				assert.InDelta(t, b.Area(), m.Area(), 1e-9*b.Area())
			} else {
				assert.InDelta(t, b.Area(), m.Area(), 0.02*b.Area())
			}
		})
	}
}

// checkMidNodes verifies every mid node sits at its edge midpoint, or on the
// curve for curved boundary chords
func checkMidNodes(t *testing.T, m *mesh.Mesh, b *geometry.Boundary) {
	t.Helper()
	curved := false
	for _, c := range b.Curves {
		curved = curved || !c.Straight()
	}
	for k, el := range m.Elements {
		for _, en := range mesh.EdgeNodes {
			a, c, mid := m.Nodes[el[en[0]]], m.Nodes[el[en[1]]], m.Nodes[el[en[2]]]
			onBoundary := m.IsBoundary(el[en[0]]) && m.IsBoundary(el[en[1]]) && m.IsBoundary(el[en[2]])
			if curved && onBoundary {
				assert.Less(t, b.Distance(mid), 1e-9, "element %d curved mid node off the curve", k)
				assert.Less(t, mid.Dist(a.Mid(c)), 0.1*a.Dist(c))
				continue
			}
			assert.Less(t, mid.Dist(a.Mid(c)), 1e-12, "element %d mid node not at midpoint", k)
		}
	}
}

func TestGenerate_SharedEdgesShareMidNodes(t *testing.T) {
	b := build(t, geometry.Square, map[string]float64{geometry.Side: 1, geometry.MeshSize: 0.25})
	m, err := Generate(context.Background(), b)
	require.NoError(t, err)

	type edge struct{ a, b int }
	mids := map[edge]int{}
	for _, el := range m.Elements {
		for _, en := range mesh.EdgeNodes {
			a, c := el[en[0]], el[en[1]]
			if a > c {
				a, c = c, a
			}
			if id, ok := mids[edge{a, c}]; ok {
				assert.Equal(t, id, el[en[2]])
			}
			mids[edge{a, c}] = el[en[2]]
		}
	}
	// corners + one node per edge
	corners := map[int]bool{}
	for _, el := range m.Elements {
		for i := 0; i < 3; i++ {
			corners[el[i]] = true
		}
	}
	assert.Equal(t, len(corners)+len(mids), m.NumNodes())
	assert.Len(t, m.Lines, len(m.BoundaryNodes)/2)
}

func TestGenerate_Degenerate(t *testing.T) {
	flat := &geometry.Boundary{Name: "flat", MeshSize: 0.1, Curves: []geometry.Curve{
		geometry.Segment{A: geometry.Point{}, B: geometry.Point{X: 1}},
		geometry.Segment{A: geometry.Point{X: 1}, B: geometry.Point{}},
	}}
	_, err := Generate(context.Background(), flat)
	assert.ErrorIs(t, err, geometry.ErrDegenerateGeometry)

	_, err = Generate(context.Background(), nil)
	assert.ErrorIs(t, err, geometry.ErrDegenerateGeometry)

	b := build(t, geometry.Square, map[string]float64{geometry.Side: 1, geometry.MeshSize: 0.1})
	b.MeshSize = 0
	_, err = Generate(context.Background(), b)
	assert.ErrorIs(t, err, geometry.ErrInvalidParameter)

	// failures above must have released the capability
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s, err := Open(ctx)
	require.NoError(t, err)
	require.NoError(t, s.Close())
}

func TestSession_Exclusive(t *testing.T) {
	s, err := Open(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = Open(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	acquired := make(chan *Session)
	go func() {
		s2, err := Open(context.Background())
		if err != nil {
			close(acquired)
			return
		}
		acquired <- s2
	}()
	select {
	case s2 := <-acquired:
		if s2 != nil {
			s2.Close()
		}
		t.Fatal("second session opened while the first is held")
	case <-time.After(20 * time.Millisecond):
	}
	require.NoError(t, s.Close())
	s2, ok := <-acquired
	require.True(t, ok)
	require.NotNil(t, s2)
	t.Cleanup(func() { s2.Close() })
	require.NoError(t, s2.Close())
}

func TestSession_Lifecycle(t *testing.T) {
	s, err := Open(context.Background(), WithClearance(0.6))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	assert.Equal(t, 0.6, s.clearance)

	path := filepath.Join(t.TempDir(), "square.msh")
	assert.Error(t, s.Write(path), "nothing generated yet")

	b := build(t, geometry.Square, map[string]float64{geometry.Side: 2, geometry.MeshSize: 0.4})
	m, err := s.Generate(context.Background(), b)
	require.NoError(t, err)
	require.NoError(t, s.Write(path))

	got, err := mesh.ReadGmshFile(path)
	require.NoError(t, err)
	assert.Equal(t, m.Nodes, got.Nodes)
	assert.Equal(t, m.Elements, got.Elements)
	assert.Equal(t, m.BoundaryNodes, got.BoundaryNodes)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close(), "second close is a no-op")
	assert.Nil(t, s.model)
	_, err = s.Generate(context.Background(), b)
	assert.ErrorIs(t, err, ErrSessionClosed)
	assert.ErrorIs(t, s.Write(path), ErrSessionClosed)
}

func TestWithClearance_IgnoresSmallValues(t *testing.T) {
	s, err := Open(context.Background(), WithClearance(0.4))
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, DefaultClearance, s.clearance)
}

func TestGenerate_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b := build(t, geometry.Square, map[string]float64{geometry.Side: 1, geometry.MeshSize: 0.1})
	_, err := Generate(ctx, b)
	assert.Error(t, err)

	s, err := Open(context.Background())
	require.NoError(t, err)
	require.NoError(t, s.Close())
}

func TestGenerate_SizeSweep(t *testing.T) {
	sizes := []float64{0.5, 1, 1.5, 2, 3}
	steps := []float64{0.05, 0.1, 0.15, 0.2, 0.3, 0.4}
	scaled := map[geometry.Kind]string{
		geometry.Square:   geometry.Side,
		geometry.Triangle: geometry.Cathetus,
		geometry.Circle:   geometry.Radius,
	}
	for _, kind := range geometry.Kinds() {
		var cases []map[string]float64
		if name, ok := scaled[kind]; ok {
			for _, size := range sizes {
				for _, h := range steps {
					cases = append(cases, map[string]float64{name: size, geometry.MeshSize: h})
				}
			}
		} else {
			cases = append(cases, nil)
			for _, h := range steps {
				cases = append(cases, map[string]float64{geometry.MeshSize: h})
			}
		}
		for _, params := range cases {
			t.Run(fmt.Sprintf("%s/%v", kind, params), func(t *testing.T) {
				b := build(t, kind, params)
				m, err := Generate(context.Background(), b)
				require.NoError(t, err)
				require.NoError(t, m.Validate())
				assert.Positive(t, m.NumElements())

				bpts, _ := discretize(b, b.MeshSize)
				polyArea := math.Abs(geometry.PolygonArea(bpts))
				assert.InDelta(t, polyArea, m.Area(), 1e-9*polyArea)
				assert.Len(t, m.Lines, len(bpts))
			})
		}
	}
}

func TestTriangulate_DegeneratePoints(t *testing.T) {
	// collinear points along every side of a square
	var square []geometry.Point
	for i := 0; i < 4; i++ {
		square = append(square, geometry.Point{X: float64(i) / 4})
	}
	for i := 0; i < 4; i++ {
		square = append(square, geometry.Point{X: 1, Y: float64(i) / 4})
	}
	for i := 0; i < 4; i++ {
		square = append(square, geometry.Point{X: 1 - float64(i)/4, Y: 1})
	}
	for i := 0; i < 4; i++ {
		square = append(square, geometry.Point{Y: 1 - float64(i)/4})
	}
	// cocircular points with the center inside
	var circle []geometry.Point
	for i := 0; i < 24; i++ {
		a := 2 * math.Pi * float64(i) / 24
		circle = append(circle, geometry.Point{X: math.Cos(a), Y: math.Sin(a)})
	}
	withCenter := append(append([]geometry.Point{}, circle...), geometry.Point{})

	tests := map[string]struct {
		pts []geometry.Point
		nb  int
	}{
		"collinear sides":   {square, len(square)},
		"cocircular":        {circle, len(circle)},
		"cocircular+center": {withCenter, len(circle)},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			tris, err := triangulate(tt.pts, tt.nb)
			require.NoError(t, err)
			// a triangulation of a polygon with n vertices, i of them inside,
			// has n + 2i - 2 triangles
			inner := len(tt.pts) - tt.nb
			assert.Len(t, tris, tt.nb+2*inner-2)
			for _, tri := range tris {
				assert.Greater(t, orient(tt.pts[tri[0]], tt.pts[tri[1]], tt.pts[tri[2]]), 0.)
			}
			assert.NoError(t, checkEdges(tris, tt.nb))
		})
	}

	_, err := triangulate(square[:2], 2)
	assert.ErrorIs(t, err, ErrNonConforming)
}
