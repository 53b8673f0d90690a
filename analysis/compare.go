package analysis

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/notargets/elastowaves/geometry"
)

// Comparison pairs two spectra index by index
type Comparison struct {
	A, B          []float64
	RelativeError []float64 // Percent, |a-b|/a
	Mean          float64
	Max           float64
}

// CompareSpectra compares the first limit eigenvalues of a and b, or as many
// as both have when limit <= 0
func CompareSpectra(a, b []float64, limit int) (*Comparison, error) {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if limit > 0 && limit < n {
		n = limit
	}
	if n == 0 {
		return nil, fmt.Errorf("nothing to compare: %d and %d eigenvalues", len(a), len(b))
	}
	c := &Comparison{A: a[:n], B: b[:n], RelativeError: make([]float64, n)}
	for i := 0; i < n; i++ {
		if a[i] == 0 {
			return nil, fmt.Errorf("eigenvalue %d of the reference spectrum is zero", i)
		}
		c.RelativeError[i] = math.Abs(a[i]-b[i]) / math.Abs(a[i]) * 100
		c.Max = math.Max(c.Max, c.RelativeError[i])
	}
	c.Mean = stat.Mean(c.RelativeError, nil)
	return c, nil
}

// ComparePair retrieves two domains and compares their spectra
func ComparePair(ctx context.Context, r Retriever, a, b geometry.Spec, limit int) (*Comparison, error) {
	ra, err := r.Retrieve(ctx, a, false)
	if err != nil {
		return nil, err
	}
	rb, err := r.Retrieve(ctx, b, false)
	if err != nil {
		return nil, err
	}
	return CompareSpectra(ra.Values, rb.Values, limit)
}

// ModeAlignment is |cos| of the angle between two mode shapes, 1 for modes
// equal up to sign and scale
func ModeAlignment(a, b mat.Vector) float64 {
	na, nb := mat.Norm(a, 2), mat.Norm(b, 2)
	if na == 0 || nb == 0 {
		return 0
	}
	return math.Abs(mat.Dot(a, b)) / (na * nb)
}
