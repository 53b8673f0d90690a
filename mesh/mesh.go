package mesh

import (
	"fmt"
	"sort"

	"github.com/notargets/elastowaves/element"
	"github.com/notargets/elastowaves/geometry"
)

// NodesPerElement is the node count of a quadratic triangle
const NodesPerElement = element.Np

// Mesh is a conforming quadratic triangulation.
//
// Element nodes follow the Gmsh triangle6 order: corners 0, 1, 2
// counterclockwise, then the mid-edge nodes of edges 0-1, 1-2 and 2-0.
// Lines are the 3-node boundary edges (end, end, mid).
type Mesh struct {
	Nodes         []geometry.Point
	Elements      [][NodesPerElement]int
	Lines         [][3]int
	BoundaryNodes []int // Sorted, unique
}

// EdgeNodes maps each triangle edge to its (corner, corner, mid) local nodes
var EdgeNodes = edgeNodes(element.Tri6{})

// edgeNodes reorders the reference (corner, mid, corner) edge points
func edgeNodes(ref element.ReferenceElement) (en [3][3]int) {
	props, geom := ref.GetProperties(), ref.GetReferenceGeometry()
	if props.NEdges != 3 || props.NEp != 3 {
		panic(fmt.Sprintf("mesh: %s is not a quadratic triangle", props.ShortName))
	}
	for e, pts := range geom.EdgePoints {
		en[e] = [3]int{pts[0], pts[2], pts[1]}
	}
	return
}

// NumNodes returns the number of mesh nodes
func (m *Mesh) NumNodes() int { return len(m.Nodes) }

// NumElements returns the number of triangles
func (m *Mesh) NumElements() int { return len(m.Elements) }

// ElementCoords gathers the node positions of element k
func (m *Mesh) ElementCoords(k int) (coords [NodesPerElement]geometry.Point) {
	for i, n := range m.Elements[k] {
		coords[i] = m.Nodes[n]
	}
	return
}

// IsBoundary reports whether node n is a boundary node
func (m *Mesh) IsBoundary(n int) bool {
	i := sort.SearchInts(m.BoundaryNodes, n)
	return i < len(m.BoundaryNodes) && m.BoundaryNodes[i] == n
}

// BoundaryFromLines rebuilds BoundaryNodes as the set of nodes referenced by
// the boundary lines
func (m *Mesh) BoundaryFromLines() {
	seen := make(map[int]bool)
	m.BoundaryNodes = m.BoundaryNodes[:0]
	for _, l := range m.Lines {
		for _, n := range l {
			if !seen[n] {
				seen[n] = true
				m.BoundaryNodes = append(m.BoundaryNodes, n)
			}
		}
	}
	sort.Ints(m.BoundaryNodes)
}

// Validate checks index ranges and the boundary node invariant
func (m *Mesh) Validate() error {
	nn := len(m.Nodes)
	for k, el := range m.Elements {
		for i, n := range el {
			if n < 0 || n >= nn {
				return fmt.Errorf("element %d node %d index %d out of range [0,%d)", k, i, n, nn)
			}
		}
	}
	onLine := make(map[int]bool)
	for k, l := range m.Lines {
		for _, n := range l {
			if n < 0 || n >= nn {
				return fmt.Errorf("line %d node index %d out of range [0,%d)", k, n, nn)
			}
			onLine[n] = true
		}
	}
	for _, n := range m.BoundaryNodes {
		if !onLine[n] {
			return fmt.Errorf("boundary node %d is not on any boundary line", n)
		}
	}
	return nil
}

// Area sums the straight sided areas of the elements
func (m *Mesh) Area() (a float64) {
	for _, el := range m.Elements {
		p0, p1, p2 := m.Nodes[el[0]], m.Nodes[el[1]], m.Nodes[el[2]]
		a += 0.5 * p1.Sub(p0).Cross(p2.Sub(p0))
	}
	return
}
