package solver

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/elastowaves/eigen"
	"github.com/notargets/elastowaves/element"
	"github.com/notargets/elastowaves/geometry"
)

func unitSquare(h float64) geometry.Spec {
	return geometry.Spec{Kind: geometry.Square, Params: map[string]float64{geometry.Side: 1, geometry.MeshSize: h}}
}

func TestSolve_AcousticSquare(t *testing.T) {
	p, err := New(Config{Material: element.Acoustic{Speed: 1}, Mode: eigen.SmallestMagnitude(4)})
	require.NoError(t, err)
	res, err := p.Solve(context.Background(), unitSquare(0.1))
	require.NoError(t, err)

	pi2 := math.Pi * math.Pi
	want := []float64{2 * pi2, 5 * pi2, 5 * pi2, 8 * pi2}
	require.Equal(t, len(want), res.Solution.Len())
	for i, v := range res.Solution.Values {
		assert.InEpsilon(t, want[i], v, 0.01, "mode %d", i)
	}
	assert.Equal(t, res.Table.NEq, res.Matrices.NEq)
	assert.Equal(t, res.Mesh.NumNodes(), len(res.Constraints))
	assert.Equal(t, len(res.Mesh.BoundaryNodes), res.Constraints.NumFixed())
	r, _ := res.Solution.Vectors.Dims()
	assert.Equal(t, res.Table.NEq, r)
}

func TestSolve_ElasticSquareBracket(t *testing.T) {
	e := element.Elastic{E: 1, NU: 0.3, RHO: 1}
	p, err := New(Config{Material: e, Mode: eigen.SmallestMagnitude(6)})
	require.NoError(t, err)
	res, err := p.Solve(context.Background(), unitSquare(0.2))
	require.NoError(t, err)

	values := res.Solution.Values
	require.Len(t, values, 6)
	for i, v := range values {
		assert.Greater(t, v, 0.)
		if i > 0 {
			assert.LessOrEqual(t, values[i-1], v)
		}
	}
	// clamped: at least the shear bound, at most the Rayleigh quotient of
	// sin(pi x) sin(pi y) along x
	g := e.E / (2 * (1 + e.NU))
	lame := e.E * e.NU / (1 - e.NU*e.NU)
	pi2 := math.Pi * math.Pi
	assert.Greater(t, values[0], 2*pi2*g/e.RHO)
	assert.Less(t, values[0], 1.02*(lame+3*g)*pi2/e.RHO)
	assert.Equal(t, 2*res.Mesh.NumNodes()-2*len(res.Mesh.BoundaryNodes), res.Table.NEq)
}

func TestSolve_ElasticSquareBaseline(t *testing.T) {
	p, err := New(Config{Material: element.Elastic{E: 1, NU: 0.3, RHO: 1}, Mode: eigen.SmallestMagnitude(5)})
	require.NoError(t, err)
	res, err := p.Solve(context.Background(), unitSquare(0.1))
	require.NoError(t, err)

	// recorded for the unit elastic square at mesh_size 0.1
	baseline := []float64{13.8918, 13.8920, 19.7160, 29.5699, 37.7420}
	assert.Equal(t, 866, res.Table.NEq)
	require.Equal(t, len(baseline), res.Solution.Len())
	for i, v := range res.Solution.Values {
		assert.InEpsilon(t, baseline[i], v, 0.01, "mode %d", i)
	}
}

func TestSolve_ShiftInvert(t *testing.T) {
	pi2 := math.Pi * math.Pi
	p, err := New(Config{Material: element.Acoustic{Speed: 2}, Mode: eigen.ShiftInvert(4*5*pi2, 2)})
	require.NoError(t, err)
	res, err := p.Solve(context.Background(), unitSquare(0.125))
	require.NoError(t, err)
	require.Equal(t, 2, res.Solution.Len())
	for _, v := range res.Solution.Values {
		assert.InEpsilon(t, 4*5*pi2, v, 0.01)
	}
}

func TestNew_Errors(t *testing.T) {
	_, err := New(Config{})
	assert.ErrorIs(t, err, element.ErrInvalidMaterial)
	_, err = New(Config{Material: element.Acoustic{}})
	assert.ErrorIs(t, err, element.ErrInvalidMaterial)
	for _, order := range []int{-1, 1, 2} {
		_, err = New(Config{Material: element.Acoustic{Speed: 1}, QuadratureOrder: order})
		assert.Error(t, err, "order %d", order)
	}
	p, err := New(Config{Material: element.Acoustic{Speed: 1}, QuadratureOrder: 4})
	require.NoError(t, err)
	assert.Equal(t, element.Acoustic{Speed: 1}, p.Material())
}

func TestSolve_Errors(t *testing.T) {
	p, err := New(Config{Material: element.Acoustic{Speed: 1}})
	require.NoError(t, err)

	_, err = p.Solve(context.Background(), geometry.Spec{Kind: "hexagon"})
	assert.ErrorIs(t, err, geometry.ErrUnknownGeometry)

	_, err = p.Solve(context.Background(), geometry.Spec{Kind: geometry.Square, Params: map[string]float64{geometry.Side: 1}})
	assert.ErrorIs(t, err, geometry.ErrInvalidParameter)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Solve(ctx, unitSquare(0.2))
	assert.ErrorIs(t, err, context.Canceled)
}
