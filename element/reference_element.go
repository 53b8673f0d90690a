package element

// Tri6 is the quadratic Lagrange triangle in Gmsh node order: vertices
// 0, 1, 2 then the mid-edge nodes of edges 0-1, 1-2 and 2-0
type Tri6 struct{}

// Np is the number of nodes of a Tri6
const Np = 6

var _ ReferenceElement = Tri6{}

func (Tri6) GetProperties() ElementProperties {
	return ElementProperties{
		Name:       "Lagrange Triangle Order 2",
		ShortName:  "Tri6",
		Type:       Tri,
		Order:      2,
		Np:         Np,
		NEp:        3,
		NVp:        3,
		NIp:        0,
		NEdges:     3,
		Dimensions: D2,
	}
}

func (Tri6) GetReferenceGeometry() ReferenceGeometry {
	return ReferenceGeometry{
		R:              []float64{0, 1, 0, 0.5, 0.5, 0},
		S:              []float64{0, 0, 1, 0, 0.5, 0.5},
		VertexPoints:   []int{0, 1, 2},
		EdgePoints:     [][]int{{0, 3, 1}, {1, 4, 2}, {2, 5, 0}},
		InteriorPoints: []int{},
	}
}

func (t Tri6) Basis(r, s float64) (N, dNdr, dNds []float64) {
	n, dr, ds := t.shape(r, s)
	return n[:], dr[:], ds[:]
}

// shape is Basis without allocation
func (Tri6) shape(r, s float64) (N, dNdr, dNds [Np]float64) {
	l := 1 - r - s
	N = [Np]float64{
		l * (2*l - 1),
		r * (2*r - 1),
		s * (2*s - 1),
		4 * l * r,
		4 * r * s,
		4 * s * l,
	}
	dNdr = [Np]float64{
		4*r + 4*s - 3,
		4*r - 1,
		0,
		4 * (l - r),
		4 * s,
		-4 * s,
	}
	dNds = [Np]float64{
		4*r + 4*s - 3,
		0,
		4*s - 1,
		-4 * r,
		4 * r,
		4 * (l - s),
	}
	return
}
