package assembly

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/elastowaves/element"
	"github.com/notargets/elastowaves/geometry"
	"github.com/notargets/elastowaves/mesh"
	"github.com/notargets/elastowaves/meshgen"
)

var rule = element.MustGaussTriangle(element.DefaultQuadratureOrder)

// twoTri6 is the unit square split along its diagonal, boundary on the
// bottom edge only
func twoTri6() *mesh.Mesh {
	m := &mesh.Mesh{
		Nodes: []geometry.Point{
			{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1},
			{X: 0.5, Y: 0}, {X: 1, Y: 0.5}, {X: 0.5, Y: 0.5}, {X: 0.5, Y: 1}, {X: 0, Y: 0.5},
		},
		Elements: [][mesh.NodesPerElement]int{
			{0, 1, 2, 4, 5, 6},
			{0, 2, 3, 6, 7, 8},
		},
		Lines: [][3]int{{0, 1, 4}},
	}
	m.BoundaryFromLines()
	return m
}

func TestEncodeConstraints(t *testing.T) {
	m := twoTri6()
	cons := EncodeConstraints(m, 2)
	require.Len(t, cons, 9)
	assert.Equal(t, 2, cons.DOFsPerNode())
	assert.Equal(t, 6, cons.NumFixed())
	assert.Equal(t, []int{Fixed, Fixed}, cons[4])
	assert.Equal(t, []int{Free, Free}, cons[2])
	assert.NoError(t, cons.Validate())

	cons[3][1] = 7
	assert.Error(t, cons.Validate())
	assert.Error(t, Constraints{{0, 0}, {0}}.Validate())
}

func TestNewDOFTable_Dense(t *testing.T) {
	cons := Constraints{{Fixed, Free}, {Free, Free}, {Fixed, Fixed}, {Free, Fixed}}
	table, err := NewDOFTable(cons)
	require.NoError(t, err)
	assert.Equal(t, 4, table.NEq)
	assert.Equal(t, [][]int{{Excluded, 0}, {1, 2}, {Excluded, Excluded}, {3, Excluded}}, table.Equations)

	round, err := TableFromEquations(table.Equations)
	require.NoError(t, err)
	assert.Equal(t, table.NEq, round.NEq)

	for name, eqs := range map[string][][]int{
		"gap":      {{0, 2}},
		"repeated": {{0, 0}},
		"negative": {{0, -3}},
		"ragged":   {{0, 1}, {2}},
	} {
		_, err := TableFromEquations(eqs)
		assert.Error(t, err, name)
	}
}

func TestElementMap(t *testing.T) {
	m := twoTri6()
	table, err := NewDOFTable(EncodeConstraints(m, 1))
	require.NoError(t, err)
	assert.Equal(t, 6, table.NEq)
	amap, err := table.ElementMap(m)
	require.NoError(t, err)
	assert.Equal(t, []int{Excluded, Excluded, 0, Excluded, 2, 3}, amap[0])
	assert.Equal(t, []int{Excluded, 0, 1, 3, 4, 5}, amap[1])

	m.Nodes = m.Nodes[:8]
	_, err = table.ElementMap(m)
	assert.Error(t, err)
}

func TestAssemble_MatchesLocal(t *testing.T) {
	// a lone element without boundary keeps every DOF
	m := &mesh.Mesh{
		Nodes: []geometry.Point{
			{X: 0, Y: 0}, {X: 2, Y: 0}, {X: 0, Y: 1},
			{X: 1, Y: 0}, {X: 1, Y: 0.5}, {X: 0, Y: 0.5},
		},
		Elements: [][mesh.NodesPerElement]int{{0, 1, 2, 3, 4, 5}},
	}
	material := element.Elastic{E: 1, NU: 0.3, RHO: 1}
	table, err := NewDOFTable(EncodeConstraints(m, 2))
	require.NoError(t, err)
	got, err := Assemble(context.Background(), m, table, material, rule)
	require.NoError(t, err)

	kl, ml, err := element.LocalMatrices(m.ElementCoords(0), material, rule)
	require.NoError(t, err)
	require.Equal(t, 12, got.NEq)
	for i := 0; i < 12; i++ {
		for j := 0; j < 12; j++ {
			assert.Equal(t, kl.At(i, j), got.K.At(i, j))
			assert.Equal(t, ml.At(i, j), got.M.At(i, j))
		}
	}
}

func TestAssemble_Symmetric(t *testing.T) {
	for _, kind := range []geometry.Kind{geometry.Square, geometry.Circle, geometry.Isospectral1_1} {
		t.Run(string(kind), func(t *testing.T) {
			params := map[string]float64{geometry.MeshSize: 0.3}
			switch kind {
			case geometry.Square:
				params[geometry.Side] = 1
			case geometry.Circle:
				params[geometry.Radius] = 1
			}
			b, err := geometry.Build(geometry.Spec{Kind: kind, Params: params})
			require.NoError(t, err)
			m, err := meshgen.Generate(context.Background(), b)
			require.NoError(t, err)

			for _, material := range []element.Material{element.Elastic{E: 1, NU: 0.3, RHO: 1}, element.Acoustic{Speed: 1}} {
				table, err := NewDOFTable(EncodeConstraints(m, material.DOFsPerNode()))
				require.NoError(t, err)
				got, err := Assemble(context.Background(), m, table, material, rule)
				require.NoError(t, err)
				r, c := got.K.Dims()
				require.Equal(t, table.NEq, r)
				require.Equal(t, table.NEq, c)
				assert.True(t, mat.Equal(got.K, got.K.T()), "%v stiffness", material)
				assert.True(t, mat.Equal(got.M, got.M.T()), "%v mass", material)

				// clamped stiffness and mass are positive definite
				var chol mat.Cholesky
				assert.True(t, chol.Factorize(mat.NewSymDense(r, mat.DenseCopyOf(got.K).RawMatrix().Data)))
				assert.True(t, chol.Factorize(mat.NewSymDense(r, mat.DenseCopyOf(got.M).RawMatrix().Data)))
			}
		})
	}
}

func TestAssemble_Errors(t *testing.T) {
	m := twoTri6()
	table, err := NewDOFTable(EncodeConstraints(m, 1))
	require.NoError(t, err)

	_, err = Assemble(context.Background(), m, table, element.Elastic{E: 1, NU: 0.3, RHO: 1}, rule)
	assert.Error(t, err, "dofs per node mismatch")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Assemble(ctx, m, table, element.Acoustic{Speed: 1}, rule)
	assert.ErrorIs(t, err, context.Canceled)

	m.Elements[1] = [mesh.NodesPerElement]int{0, 3, 2, 8, 7, 6}
	_, err = Assemble(context.Background(), m, table, element.Acoustic{Speed: 1}, rule)
	var inv *element.InvalidElementError
	require.True(t, errors.As(err, &inv))
	assert.Equal(t, 1, inv.Element)

	all := EncodeConstraints(m, 1)
	for n := range all {
		all[n][0] = Fixed
	}
	empty, err := NewDOFTable(all)
	require.NoError(t, err)
	_, err = Assemble(context.Background(), m, empty, element.Acoustic{Speed: 1}, rule)
	assert.Error(t, err)
}

func TestExpandMode(t *testing.T) {
	table, err := NewDOFTable(Constraints{{Fixed, Free}, {Free, Free}, {Fixed, Fixed}})
	require.NoError(t, err)
	field, err := table.ExpandMode(mat.NewVecDense(3, []float64{4, 3, -4}))
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{0, 4}, {3, -4}, {0, 0}}, field)
	assert.Equal(t, []float64{4, 5, 0}, Magnitude(field))

	_, err = table.ExpandMode(mat.NewVecDense(2, nil))
	assert.Error(t, err)

	vectors := mat.NewDense(3, 2, []float64{
		1, 0,
		0, math.Sqrt2,
		0, 0,
	})
	modes, err := table.ExpandModes(vectors)
	require.NoError(t, err)
	require.Len(t, modes, 2)
	assert.Equal(t, [][]float64{{0, 1}, {0, 0}, {0, 0}}, modes[0])
	assert.Equal(t, []float64{0, math.Sqrt2, 0}, Magnitude(modes[1]))

	_, err = table.ExpandModes(mat.NewDense(4, 1, nil))
	assert.Error(t, err)
}
