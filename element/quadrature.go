package element

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// DefaultQuadratureOrder selects the 7 point rule, exact to degree 5
const DefaultQuadratureOrder = 3

// Rule is a quadrature rule on the reference triangle (0,0), (1,0), (0,1).
// The weights sum to the reference area 1/2.
type Rule struct {
	R, S, W []float64
	Degree  int // Highest polynomial degree integrated exactly
}

// NumPoints is the number of quadrature points
func (q Rule) NumPoints() int { return len(q.W) }

// GaussTriangle returns the rule for a given order:
//
//	1: centroid rule, degree 1
//	2: 3 point rule, degree 2
//	3: 7 point Radon rule, degree 5
//	n >= 4: collapsed Gauss-Jacobi product rule with n points per
//	        direction, degree 2n-1
func GaussTriangle(order int) (Rule, error) {
	switch {
	case order == 1:
		return Rule{R: []float64{1. / 3}, S: []float64{1. / 3}, W: []float64{0.5}, Degree: 1}, nil
	case order == 2:
		return Rule{
			R:      []float64{1. / 6, 2. / 3, 1. / 6},
			S:      []float64{1. / 6, 1. / 6, 2. / 3},
			W:      []float64{1. / 6, 1. / 6, 1. / 6},
			Degree: 2,
		}, nil
	case order == 3:
		return radon7(), nil
	case order >= 4:
		return collapsed(order)
	default:
		return Rule{}, fmt.Errorf("invalid quadrature order %d", order)
	}
}

// MustGaussTriangle is GaussTriangle for orders known to be valid
func MustGaussTriangle(order int) Rule {
	q, err := GaussTriangle(order)
	if err != nil {
		panic(err)
	}
	return q
}

func radon7() Rule {
	sq := math.Sqrt(15)
	a1, b1 := (6-sq)/21, (9+2*sq)/21
	a2, b2 := (6+sq)/21, (9-2*sq)/21
	w0 := 9. / 80
	w1 := (155 - sq) / 2400
	w2 := (155 + sq) / 2400
	return Rule{
		R:      []float64{1. / 3, a1, b1, a1, a2, b2, a2},
		S:      []float64{1. / 3, a1, a1, b1, a2, a2, b2},
		W:      []float64{w0, w1, w1, w1, w2, w2, w2},
		Degree: 5,
	}
}

// collapsed maps a Gauss-Legendre by Gauss-Jacobi(1,0) rule on [-1,1]^2 to
// the triangle through r = (1+a)(1-b)/4, s = (1+b)/2
func collapsed(n int) (Rule, error) {
	a, wa, err := JacobiGQ(0, 0, n-1)
	if err != nil {
		return Rule{}, err
	}
	b, wb, err := JacobiGQ(1, 0, n-1)
	if err != nil {
		return Rule{}, err
	}
	q := Rule{Degree: 2*n - 1}
	for i := range a {
		for j := range b {
			q.R = append(q.R, (1+a[i])*(1-b[j])/4)
			q.S = append(q.S, (1+b[j])/2)
			q.W = append(q.W, wa[i]*wb[j]/8)
		}
	}
	return q, nil
}

// JacobiGQ computes the N+1 point Gauss quadrature for the Jacobi weight
// (1-x)^alpha (1+x)^beta on [-1,1], from the eigen decomposition of the
// symmetric tridiagonal Jacobi matrix (Golub-Welsch)
func JacobiGQ(alpha, beta float64, N int) (x, w []float64, err error) {
	if N == 0 {
		return []float64{-(alpha - beta) / (alpha + beta + 2)}, []float64{gamma0(alpha, beta)}, nil
	}
	ab := alpha + beta
	jj := mat.NewSymDense(N+1, nil)
	for i := 0; i <= N; i++ {
		h1 := 2*float64(i) + ab
		// Main diagonal, 0/0 at i=0 when alpha+beta vanishes
		if i > 0 || ab > 1.e-15 {
			jj.SetSym(i, i, (beta*beta-alpha*alpha)/(h1*(h1+2)))
		}
		if i < N {
			ip1 := float64(i + 1)
			jj.SetSym(i, i+1, 2/(h1+2)*math.Sqrt(
				ip1*(ip1+ab)*(ip1+alpha)*(ip1+beta)/((h1+1)*(h1+3))))
		}
	}
	var eig mat.EigenSym
	if ok := eig.Factorize(jj, true); !ok {
		return nil, nil, fmt.Errorf("jacobi matrix eigen decomposition failed: alpha=%g beta=%g N=%d", alpha, beta, N)
	}
	x = eig.Values(nil)
	var vecs mat.Dense
	eig.VectorsTo(&vecs)
	g0 := gamma0(alpha, beta)
	w = make([]float64, N+1)
	for i := range w {
		v := vecs.At(0, i)
		w[i] = v * v * g0
	}
	return x, w, nil
}

// gamma0 is the integral of the Jacobi weight over [-1,1]
func gamma0(alpha, beta float64) float64 {
	ab1 := alpha + beta + 1
	return math.Gamma(alpha+1) * math.Gamma(beta+1) * math.Pow(2, ab1) / ab1 / math.Gamma(ab1)
}
