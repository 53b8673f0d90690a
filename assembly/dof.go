package assembly

import (
	"fmt"

	"github.com/notargets/elastowaves/mesh"
)

// Excluded marks a DOF that has no global equation
const Excluded = -1

// DOFTable numbers the free DOFs node-major: node 0's DOFs first, fixed DOFs
// skipped. Equations is indexed [node][dof] and holds the global equation or
// Excluded; the numbers in use are exactly 0..NEq-1.
type DOFTable struct {
	Equations [][]int
	NEq       int
}

// NewDOFTable numbers the free DOFs of cons
func NewDOFTable(cons Constraints) (*DOFTable, error) {
	if err := cons.Validate(); err != nil {
		return nil, err
	}
	nd := cons.DOFsPerNode()
	t := &DOFTable{Equations: make([][]int, len(cons))}
	flat := make([]int, len(cons)*nd)
	for n, row := range cons {
		t.Equations[n] = flat[n*nd : (n+1)*nd : (n+1)*nd]
		for d, v := range row {
			if v == Fixed {
				t.Equations[n][d] = Excluded
				continue
			}
			t.Equations[n][d] = t.NEq
			t.NEq++
		}
	}
	return t, nil
}

// TableFromEquations wraps an already numbered array, as stored on disk,
// after checking that it is a dense numbering
func TableFromEquations(eqs [][]int) (*DOFTable, error) {
	t := &DOFTable{Equations: eqs}
	seen := map[int]bool{}
	nd := -1
	for n, row := range eqs {
		if nd < 0 {
			nd = len(row)
		}
		if len(row) != nd {
			return nil, fmt.Errorf("equation row %d has %d entries, expected %d", n, len(row), nd)
		}
		for d, e := range row {
			switch {
			case e == Excluded:
			case e < 0 || seen[e]:
				return nil, fmt.Errorf("equation [%d][%d] = %d is invalid or repeated", n, d, e)
			default:
				seen[e] = true
				t.NEq++
			}
		}
	}
	for e := 0; e < t.NEq; e++ {
		if !seen[e] {
			return nil, fmt.Errorf("equation numbering is not dense: %d missing of %d", e, t.NEq)
		}
	}
	return t, nil
}

// DOFsPerNode returns the row width
func (t *DOFTable) DOFsPerNode() int {
	if len(t.Equations) == 0 {
		return 0
	}
	return len(t.Equations[0])
}

// ElementMap lists, for every element, the global equation of each local
// DOF in local order (node 0 dofs, node 1 dofs, ...), Excluded for fixed ones
func (t *DOFTable) ElementMap(m *mesh.Mesh) ([][]int, error) {
	if len(t.Equations) != m.NumNodes() {
		return nil, fmt.Errorf("dof table has %d nodes, mesh has %d", len(t.Equations), m.NumNodes())
	}
	nd := t.DOFsPerNode()
	amap := make([][]int, m.NumElements())
	flat := make([]int, m.NumElements()*mesh.NodesPerElement*nd)
	w := mesh.NodesPerElement * nd
	for k, el := range m.Elements {
		row := flat[k*w : (k+1)*w : (k+1)*w]
		for i, n := range el {
			copy(row[i*nd:(i+1)*nd], t.Equations[n])
		}
		amap[k] = row
	}
	return amap, nil
}
