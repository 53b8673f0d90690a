package assembly

import (
	"context"
	"errors"
	"fmt"

	"github.com/james-bowman/sparse"

	"github.com/notargets/elastowaves/element"
	"github.com/notargets/elastowaves/mesh"
)

// Matrices holds the global stiffness and mass matrices over the free DOFs
type Matrices struct {
	K, M *sparse.CSR
	NEq  int
}

// Assemble integrates every element of m and scatter-adds the local entries
// into global equations. Entries touching a fixed DOF are dropped, which
// eliminates homogeneous Dirichlet conditions. Only the upper triangle is
// accumulated and then mirrored, so K and M are exactly symmetric.
func Assemble(ctx context.Context, m *mesh.Mesh, table *DOFTable, material element.Material, rule element.Rule) (*Matrices, error) {
	if table.DOFsPerNode() != material.DOFsPerNode() {
		return nil, fmt.Errorf("dof table has %d dofs per node, %v needs %d",
			table.DOFsPerNode(), material, material.DOFsPerNode())
	}
	if table.NEq == 0 {
		return nil, errors.New("no free degrees of freedom to assemble")
	}
	amap, err := table.ElementMap(m)
	if err != nil {
		return nil, err
	}
	kUp := sparse.NewDOK(table.NEq, table.NEq)
	mUp := sparse.NewDOK(table.NEq, table.NEq)
	for k := range m.Elements {
		if k%512 == 0 {
			if err = ctx.Err(); err != nil {
				return nil, err
			}
		}
		kl, ml, err := element.LocalMatrices(m.ElementCoords(k), material, rule)
		if err != nil {
			var inv *element.InvalidElementError
			if errors.As(err, &inv) {
				inv.Element = k
			}
			return nil, err
		}
		eqs := amap[k]
		for i, gi := range eqs {
			if gi == Excluded {
				continue
			}
			for j := i; j < len(eqs); j++ {
				gj := eqs[j]
				if gj == Excluded {
					continue
				}
				r, c := gi, gj
				if r > c {
					r, c = c, r
				}
				kUp.Set(r, c, kUp.At(r, c)+kl.At(i, j))
				mUp.Set(r, c, mUp.At(r, c)+ml.At(i, j))
			}
		}
	}
	return &Matrices{K: mirror(kUp), M: mirror(mUp), NEq: table.NEq}, nil
}

// mirror expands an upper triangular accumulation into a full symmetric CSR
func mirror(up *sparse.DOK) *sparse.CSR {
	r, c := up.Dims()
	full := sparse.NewDOK(r, c)
	up.DoNonZero(func(i, j int, v float64) {
		full.Set(i, j, v)
		if i != j {
			full.Set(j, i, v)
		}
	})
	return full.ToCSR()
}
