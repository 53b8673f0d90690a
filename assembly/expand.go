package assembly

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ExpandMode scatters one solved mode, indexed by global equation, back onto
// the nodes. The result is indexed [node][dof]; fixed DOFs are zero.
func (t *DOFTable) ExpandMode(mode mat.Vector) ([][]float64, error) {
	if mode.Len() != t.NEq {
		return nil, fmt.Errorf("mode has %d entries, dof table has %d equations", mode.Len(), t.NEq)
	}
	nd := t.DOFsPerNode()
	out := make([][]float64, len(t.Equations))
	flat := make([]float64, len(t.Equations)*nd)
	for n, row := range t.Equations {
		out[n] = flat[n*nd : (n+1)*nd : (n+1)*nd]
		for d, e := range row {
			if e != Excluded {
				out[n][d] = mode.AtVec(e)
			}
		}
	}
	return out, nil
}

// ExpandModes expands every column of vectors with ExpandMode
func (t *DOFTable) ExpandModes(vectors mat.Matrix) ([][][]float64, error) {
	nr, nc := vectors.Dims()
	if nr != t.NEq {
		return nil, fmt.Errorf("vectors have %d rows, dof table has %d equations", nr, t.NEq)
	}
	modes := make([][][]float64, nc)
	for j := 0; j < nc; j++ {
		col := mat.NewVecDense(t.NEq, mat.Col(nil, j, vectors))
		var err error
		if modes[j], err = t.ExpandMode(col); err != nil {
			return nil, err
		}
	}
	return modes, nil
}

// Magnitude reduces an expanded mode to one value per node, the Euclidean norm
// of the node DOFs
func Magnitude(field [][]float64) []float64 {
	mag := make([]float64, len(field))
	for n, row := range field {
		var s float64
		for _, v := range row {
			s += v * v
		}
		mag[n] = math.Sqrt(s)
	}
	return mag
}
