package assembly

import (
	"fmt"

	"github.com/notargets/elastowaves/mesh"
)

// Constraint markers, per node and DOF, before equation numbering
const (
	Free  = 0
	Fixed = -1
)

// Constraints marks every DOF of every node as Free or Fixed. It is indexed
// [node][dof].
type Constraints [][]int

// EncodeConstraints fixes all DOFs of the boundary nodes of m (homogeneous
// Dirichlet: clamped solid or rigid wall) and leaves the others free
func EncodeConstraints(m *mesh.Mesh, dofsPerNode int) Constraints {
	cons := make(Constraints, m.NumNodes())
	flat := make([]int, m.NumNodes()*dofsPerNode)
	for n := range cons {
		cons[n] = flat[n*dofsPerNode : (n+1)*dofsPerNode : (n+1)*dofsPerNode]
	}
	for _, n := range m.BoundaryNodes {
		for d := range cons[n] {
			cons[n][d] = Fixed
		}
	}
	return cons
}

// DOFsPerNode returns the row width
func (c Constraints) DOFsPerNode() int {
	if len(c) == 0 {
		return 0
	}
	return len(c[0])
}

// NumFixed counts the fixed DOFs
func (c Constraints) NumFixed() (n int) {
	for _, row := range c {
		for _, v := range row {
			if v == Fixed {
				n++
			}
		}
	}
	return
}

// Validate checks that rows are rectangular and only contain markers
func (c Constraints) Validate() error {
	nd := c.DOFsPerNode()
	for n, row := range c {
		if len(row) != nd {
			return fmt.Errorf("constraint row %d has %d entries, expected %d", n, len(row), nd)
		}
		for d, v := range row {
			if v != Free && v != Fixed {
				return fmt.Errorf("constraint [%d][%d] = %d is neither free (0) nor fixed (-1)", n, d, v)
			}
		}
	}
	return nil
}
