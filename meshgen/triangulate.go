package meshgen

import (
	"fmt"

	"github.com/pradeep-pyro/triangle"

	"github.com/notargets/elastowaves/geometry"
)

type edgeKey struct{ a, b int }

func newEdgeKey(a, b int) edgeKey {
	if a > b {
		a, b = b, a
	}
	return edgeKey{a, b}
}

// triangulate returns the constrained Delaunay triangulation of pts whose
// first nb points form the closed boundary polygon, in order. Every chord
// i, i+1 is kept as an edge and triangles outside the polygon are removed.
// Triangles index into pts.
func triangulate(pts []geometry.Point, nb int) ([][3]int, error) {
	if nb < 3 || len(pts) < nb {
		return nil, fmt.Errorf("%w: %d boundary points cannot be triangulated", ErrNonConforming, nb)
	}
	in := make([][2]float64, len(pts))
	lo, hi := pts[0], pts[0]
	for i, p := range pts {
		in[i] = [2]float64{p.X, p.Y}
		lo.X, lo.Y = min(lo.X, p.X), min(lo.Y, p.Y)
		hi.X, hi.Y = max(hi.X, p.X), max(hi.Y, p.Y)
	}
	segs := make([][2]int32, nb)
	for i := range segs {
		segs[i] = [2]int32{int32(i), int32((i + 1) % nb)}
	}
	// Triangle needs at least one hole entry; a point outside the bounding
	// box is ignored
	d := hi.Sub(lo)
	holes := [][2]float64{{lo.X - d.X - 1, lo.Y - d.Y - 1}}

	verts, tris := triangle.ConstrainedDelaunay(in, segs, holes)
	if len(verts) != len(pts) {
		return nil, fmt.Errorf("%w: triangulation has %d vertices for %d points", ErrNonConforming, len(verts), len(pts))
	}
	out := make([][3]int, len(tris))
	for k, t := range tris {
		for i, v := range t {
			if v < 0 || int(v) >= len(pts) {
				return nil, fmt.Errorf("%w: triangle %d references vertex %d", ErrNonConforming, k, v)
			}
			out[k][i] = int(v)
		}
	}
	return out, nil
}

// orient is twice the signed area of abc
func orient(a, b, c geometry.Point) float64 {
	return b.Sub(a).Cross(c.Sub(a))
}
