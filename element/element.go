package element

// Dimensionality represents the spatial dimension of an element
type Dimensionality uint8

const (
	D0 Dimensionality = iota // Points
	D1                       // Lines, edges
	D2                       // Triangles
)

// GeometryType identifies the shape of an element
type GeometryType uint8

const (
	Line GeometryType = iota
	Tri
)

func (g GeometryType) String() string {
	switch g {
	case Line:
		return "Line"
	case Tri:
		return "Tri"
	default:
		return "Unknown"
	}
}

// ElementProperties contains metadata describing an element type
type ElementProperties struct {
	Name       string         // Full descriptive name (e.g., "Lagrange Triangle Order 2")
	ShortName  string         // Abbreviated name (e.g., "Tri6")
	Type       GeometryType   // Element shape
	Order      int            // Polynomial order
	Np         int            // Total number of nodes in element
	NEp        int            // Number of nodes per edge
	NVp        int            // Number of vertex nodes
	NIp        int            // Number of strictly interior nodes
	NEdges     int            // Number of edges
	Dimensions Dimensionality // Spatial dimension
}

// ReferenceGeometry defines the layout of nodes on the reference triangle
// with vertices (0,0), (1,0), (0,1)
type ReferenceGeometry struct {
	R, S []float64 // Length Np each

	// Node classification by topological entity
	VertexPoints   []int   // Indices of nodes located at vertices
	EdgePoints     [][]int // [edge_num][point_indices] - nodes on each edge
	InteriorPoints []int   // Indices of nodes strictly inside the element
}

// ReferenceElement is a Lagrange element defined on the reference triangle
type ReferenceElement interface {
	GetProperties() ElementProperties
	GetReferenceGeometry() ReferenceGeometry

	// Basis evaluates the shape functions and their reference derivatives
	// at (r, s)
	Basis(r, s float64) (N, dNdr, dNds []float64)
}
