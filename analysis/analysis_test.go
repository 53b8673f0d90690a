package analysis

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/elastowaves/cache"
	"github.com/notargets/elastowaves/geometry"
)

// weylRetriever answers with the leading Weyl term, lambda_n = 4 pi n / area
type weylRetriever struct {
	n     int
	specs []geometry.Spec
	fail  error
}

func (w *weylRetriever) Retrieve(_ context.Context, spec geometry.Spec, _ bool) (*cache.Record, error) {
	if w.fail != nil {
		return nil, w.fail
	}
	w.specs = append(w.specs, spec)
	var area float64
	switch spec.Kind {
	case geometry.Square:
		area = spec.Params[geometry.Side] * spec.Params[geometry.Side]
	case geometry.Triangle:
		area = spec.Params[geometry.Cathetus] * spec.Params[geometry.Cathetus] / 2
	}
	values := make([]float64, w.n)
	for i := range values {
		values[i] = 4 * math.Pi * float64(i+1) / area
	}
	return &cache.Record{Values: values}, nil
}

func TestCounting(t *testing.T) {
	values := []float64{1, 2, 2, 5}
	assert.Equal(t, 0, CountBelow(values, 1))
	assert.Equal(t, 3, CountBelow(values, 2.5))
	assert.Equal(t, 4, CountBelow(values, 6))

	rs, counts := Staircase(values, 5, 5)
	assert.Equal(t, []float64{1, 2, 3, 4, 5}, rs)
	assert.Equal(t, []int{0, 1, 3, 3, 3}, counts)
	rs, _ = Staircase(values, 3, 0)
	assert.Len(t, rs, 2)

	assert.Equal(t, 5., CommonRange([][]float64{{1, 7.5}, {4.2, 2}, nil}))
	assert.Equal(t, 0., Ratio(nil))
	assert.Equal(t, 0.8, Ratio(values))
}

func TestAreaFit(t *testing.T) {
	fit, err := AreaFit([]float64{1, 2, 3}, []float64{2, 4, 6})
	require.NoError(t, err)
	assert.InDelta(t, 2, fit.Slope, 1e-15)
	assert.InDelta(t, 1, fit.RSquared, 1e-15)

	fit, err = AreaFit([]float64{1, 2}, []float64{2, 1})
	require.NoError(t, err)
	assert.InDelta(t, 0.8, fit.Slope, 1e-15)
	assert.InDelta(t, 0.64, fit.RSquared, 1e-15)

	_, err = AreaFit([]float64{1}, nil)
	assert.Error(t, err)
	_, err = AreaFit([]float64{0, 0}, []float64{1, 2})
	assert.Error(t, err)
}

func TestScanParams(t *testing.T) {
	p, err := ScanParams(geometry.Square, 4)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{geometry.Side: 2, geometry.MeshSize: 0.2}, p)

	p, err = ScanParams(geometry.Triangle, 2)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{geometry.Cathetus: 2, geometry.MeshSize: 0.2}, p)

	_, err = ScanParams(geometry.Circle, 1)
	assert.ErrorIs(t, err, geometry.ErrUnknownGeometry)
	for _, area := range []float64{0, -1, math.Inf(1), math.NaN()} {
		_, err = ScanParams(geometry.Square, area)
		assert.ErrorIs(t, err, geometry.ErrInvalidParameter)
	}
}

func TestScan(t *testing.T) {
	r := &weylRetriever{n: 50}
	res, err := Scan(context.Background(), r, []geometry.Kind{geometry.Square, geometry.Triangle}, []float64{1, 2, 3})
	require.NoError(t, err)
	require.Len(t, res.Samples, 6)
	assert.InDelta(t, 4*math.Pi, res.Fit.Slope, 1e-9)
	assert.InDelta(t, 1, res.Fit.RSquared, 1e-12)

	// areas vary slowest
	assert.Equal(t, geometry.Square, r.specs[0].Kind)
	assert.Equal(t, geometry.Triangle, r.specs[1].Kind)
	assert.Equal(t, 2., res.Samples[2].Area)
	assert.Len(t, res.Spectra(), 6)
	assert.Len(t, res.Spectra()[5], 50)

	failing := &weylRetriever{fail: errors.New("disk full")}
	_, err = Scan(context.Background(), failing, []geometry.Kind{geometry.Square}, []float64{1})
	assert.ErrorContains(t, err, "disk full")
	_, err = Scan(context.Background(), r, []geometry.Kind{geometry.Circle}, []float64{1})
	assert.ErrorIs(t, err, geometry.ErrUnknownGeometry)
	_, err = Scan(context.Background(), r, nil, nil)
	assert.Error(t, err)
}

func TestCompareSpectra(t *testing.T) {
	c, err := CompareSpectra([]float64{10, 20, 40}, []float64{11, 19, 40, 80}, 0)
	require.NoError(t, err)
	assert.Len(t, c.RelativeError, 3)
	assert.InDeltaSlice(t, []float64{10, 5, 0}, c.RelativeError, 1e-12)
	assert.InDelta(t, 5, c.Mean, 1e-12)
	assert.InDelta(t, 10, c.Max, 1e-12)

	c, err = CompareSpectra([]float64{10, 20, 40}, []float64{11, 19, 40}, 1)
	require.NoError(t, err)
	assert.Equal(t, []float64{10}, c.A)

	_, err = CompareSpectra(nil, []float64{1}, 0)
	assert.Error(t, err)
	_, err = CompareSpectra([]float64{0}, []float64{1}, 0)
	assert.Error(t, err)
}

func TestComparePair(t *testing.T) {
	r := &weylRetriever{n: 10}
	a := geometry.Spec{Kind: geometry.Square, Params: map[string]float64{geometry.Side: 1, geometry.MeshSize: 0.1}}
	b := geometry.Spec{Kind: geometry.Triangle, Params: map[string]float64{geometry.Cathetus: math.Sqrt2, geometry.MeshSize: 0.1}}
	c, err := ComparePair(context.Background(), r, a, b, 5)
	require.NoError(t, err)
	assert.Len(t, c.A, 5)
	assert.InDelta(t, 0, c.Max, 1e-9, "equal areas give equal Weyl spectra")
}

func TestModeAlignment(t *testing.T) {
	a := mat.NewVecDense(3, []float64{1, 2, 2})
	b := mat.NewVecDense(3, []float64{-2, -4, -4})
	assert.InDelta(t, 1, ModeAlignment(a, b), 1e-15)
	assert.InDelta(t, 0, ModeAlignment(a, mat.NewVecDense(3, []float64{2, -1, 0})), 1e-15)
	assert.Equal(t, 0., ModeAlignment(a, mat.NewVecDense(3, nil)))
}
