package analysis

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/notargets/elastowaves/cache"
	"github.com/notargets/elastowaves/geometry"
)

// SideToMeshSize is the ratio of characteristic length to element size used
// by area scans
const SideToMeshSize = 10

// Retriever returns a solution for a domain, *cache.Cache implements it
type Retriever interface {
	Retrieve(ctx context.Context, spec geometry.Spec, force bool) (*cache.Record, error)
}

// CountBelow is the counting function N(r), the number of eigenvalues
// strictly below r
func CountBelow(values []float64, r float64) (n int) {
	for _, v := range values {
		if v < r {
			n++
		}
	}
	return
}

// Staircase samples N(r) at n points evenly spaced on [1, rMax]
func Staircase(values []float64, rMax float64, n int) (rs []float64, counts []int) {
	if n < 2 {
		n = 2
	}
	rs = floats.Span(make([]float64, n), 1, rMax)
	counts = make([]int, n)
	for i, r := range rs {
		counts[i] = CountBelow(values, r)
	}
	return
}

// CommonRange is the largest r covered by every spectrum, rounded up
func CommonRange(spectra [][]float64) float64 {
	r := math.Inf(1)
	for _, s := range spectra {
		if len(s) > 0 {
			r = math.Min(r, floats.Max(s))
		}
	}
	return math.Ceil(r)
}

// Ratio is N(rMax)/rMax taken at the largest computed eigenvalue
func Ratio(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return float64(len(values)) / floats.Max(values)
}

// Fit is a line through the origin, y = Slope x, with its uncentered
// coefficient of determination
type Fit struct {
	Slope    float64
	RSquared float64
}

// AreaFit regresses area on N(rMax)/rMax
func AreaFit(ratios, areas []float64) (Fit, error) {
	if len(ratios) != len(areas) || len(ratios) == 0 {
		return Fit{}, fmt.Errorf("fit needs equal non-empty samples, got %d and %d", len(ratios), len(areas))
	}
	xx, yy, xy := floats.Dot(ratios, ratios), floats.Dot(areas, areas), floats.Dot(ratios, areas)
	if xx == 0 || yy == 0 {
		return Fit{}, errors.New("fit samples are all zero")
	}
	r := xy / math.Sqrt(xx*yy)
	return Fit{Slope: xy / xx, RSquared: r * r}, nil
}

// ScanParams sizes a square or triangle to a given area, with the mesh size
// tied to the side length
func ScanParams(kind geometry.Kind, area float64) (map[string]float64, error) {
	if !(area > 0) || math.IsInf(area, 0) {
		return nil, fmt.Errorf("%w: area %g", geometry.ErrInvalidParameter, area)
	}
	switch kind {
	case geometry.Square:
		side := math.Sqrt(area)
		return map[string]float64{geometry.Side: side, geometry.MeshSize: side / SideToMeshSize}, nil
	case geometry.Triangle:
		c := math.Sqrt(2 * area)
		return map[string]float64{geometry.Cathetus: c, geometry.MeshSize: c / SideToMeshSize}, nil
	}
	return nil, fmt.Errorf("%w: %q cannot be scaled to an area", geometry.ErrUnknownGeometry, kind)
}

// Sample is one scanned domain
type Sample struct {
	Spec   geometry.Spec
	Area   float64
	Values []float64
}

// ScanResult holds every sample and the fit of area on N(rMax)/rMax
type ScanResult struct {
	Samples []Sample
	Fit     Fit
}

// Spectra returns the eigenvalues of every sample
func (s *ScanResult) Spectra() [][]float64 {
	out := make([][]float64, len(s.Samples))
	for i, smp := range s.Samples {
		out[i] = smp.Values
	}
	return out
}

// Scan retrieves every area for every kind, areas outermost, and fits the
// area against N(rMax)/rMax
func Scan(ctx context.Context, r Retriever, kinds []geometry.Kind, areas []float64) (*ScanResult, error) {
	res := &ScanResult{}
	var ratios, sampled []float64
	for _, area := range areas {
		for _, kind := range kinds {
			params, err := ScanParams(kind, area)
			if err != nil {
				return nil, err
			}
			spec := geometry.Spec{Kind: kind, Params: params}
			rec, err := r.Retrieve(ctx, spec, false)
			if err != nil {
				return nil, fmt.Errorf("scanning %s area %g: %w", kind, area, err)
			}
			res.Samples = append(res.Samples, Sample{Spec: spec, Area: area, Values: rec.Values})
			ratios = append(ratios, Ratio(rec.Values))
			sampled = append(sampled, area)
		}
	}
	var err error
	if res.Fit, err = AreaFit(ratios, sampled); err != nil {
		return nil, err
	}
	return res, nil
}
