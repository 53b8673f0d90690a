package eigen

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// ResidualTolerance bounds |K x - lambda M x| relative to the scale of K x and
// lambda M x for every returned pair
const ResidualTolerance = 1e-8

// Solution holds eigenpairs in ascending eigenvalue order. Column j of
// Vectors is the mode of Values[j], M-orthonormal.
type Solution struct {
	Values  []float64
	Vectors *mat.Dense
}

// Len is the number of eigenpairs
func (s *Solution) Len() int { return len(s.Values) }

// Vector returns a view of mode j
func (s *Solution) Vector(j int) mat.Vector { return s.Vectors.ColView(j) }

// nonZeroer is implemented by the sparse formats, it avoids dense scans
type nonZeroer interface {
	DoNonZero(fn func(i, j int, v float64))
}

// Solve computes eigenpairs of K x = lambda M x for symmetric K and symmetric
// positive definite M. The problem is reduced to a standard one with the
// Cholesky factor of M, solved densely and transformed back; every pair is
// checked against the original matrices before it is returned.
func Solve(K, M mat.Matrix, mode Mode) (*Solution, error) {
	n, c := K.Dims()
	if mr, mc := M.Dims(); n != c || mr != n || mc != n {
		return nil, fmt.Errorf("invalid dimensions: K=%dx%d, M=%dx%d", n, c, mr, mc)
	}
	fail := func(format string, args ...interface{}) error {
		return &ConvergenceError{Mode: mode, NEq: n, Reason: fmt.Sprintf(format, args...)}
	}
	if n == 0 {
		return nil, fail("empty system")
	}
	ks, ms := symmetric(K), symmetric(M)

	var chol mat.Cholesky
	if ok := chol.Factorize(ms); !ok {
		return nil, fail("mass matrix is not positive definite")
	}
	var l, linv mat.TriDense
	chol.LTo(&l)
	if err := linv.InverseTri(&l); err != nil {
		return nil, fail("inverting cholesky factor: %v", err)
	}

	// C = L^-1 K L^-T
	var tmp, full mat.Dense
	tmp.Mul(&linv, ks)
	full.Mul(&tmp, linv.T())
	cs := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			cs.SetSym(i, j, 0.5*(full.At(i, j)+full.At(j, i)))
		}
	}

	var es mat.EigenSym
	if ok := es.Factorize(cs, true); !ok {
		return nil, fail("symmetric eigendecomposition did not converge")
	}
	values := es.Values(nil)
	var y mat.Dense
	es.VectorsTo(&y)

	pick := selectPairs(values, mode)
	sol := &Solution{Values: make([]float64, len(pick))}
	ysel := mat.NewDense(n, len(pick), nil)
	for c, idx := range pick {
		sol.Values[c] = values[idx]
		ysel.SetCol(c, mat.Col(nil, idx, &y))
	}
	sol.Vectors = mat.NewDense(n, len(pick), nil)
	sol.Vectors.Mul(linv.T(), ysel)

	for j, lambda := range sol.Values {
		if r := residual(K, M, sol.Vectors.ColView(j), lambda); !(r <= ResidualTolerance) {
			return nil, fail("residual %g of pair %d (lambda=%g) exceeds %g", r, j, lambda, ResidualTolerance)
		}
	}
	return sol, nil
}

// selectPairs picks the indices of the requested pairs, ascending by value
func selectPairs(values []float64, mode Mode) []int {
	k := mode.count(len(values))
	idx := make([]int, len(values))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return mode.distance(values[idx[a]]) < mode.distance(values[idx[b]])
	})
	idx = idx[:k]
	sort.Ints(idx)
	return idx
}

// symmetric copies a into a SymDense, averaging the two triangles
func symmetric(a mat.Matrix) *mat.SymDense {
	n, _ := a.Dims()
	s := mat.NewSymDense(n, nil)
	add := func(i, j int, v float64) {
		if i == j {
			s.SetSym(i, i, s.At(i, i)+v)
			return
		}
		s.SetSym(i, j, s.At(i, j)+0.5*v)
	}
	if nz, ok := a.(nonZeroer); ok {
		nz.DoNonZero(add)
		return s
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if v := a.At(i, j); v != 0 {
				add(i, j, v)
			}
		}
	}
	return s
}

// residual is |K x - lambda M x|_inf over |K|_inf |x|_inf + |lambda| |M|_inf |x|_inf
func residual(K, M mat.Matrix, x mat.Vector, lambda float64) float64 {
	kx, kNorm := mulVec(K, x)
	mx, mNorm := mulVec(M, x)
	var r, xmax float64
	for i := range kx {
		r = math.Max(r, math.Abs(kx[i]-lambda*mx[i]))
		xmax = math.Max(xmax, math.Abs(x.AtVec(i)))
	}
	scale := (kNorm + math.Abs(lambda)*mNorm) * xmax
	if scale == 0 {
		return r
	}
	return r / scale
}

// mulVec returns a x and the max absolute row sum of a
func mulVec(a mat.Matrix, x mat.Vector) (y []float64, norm float64) {
	n, _ := a.Dims()
	y = make([]float64, n)
	rows := make([]float64, n)
	visit := func(i, j int, v float64) {
		y[i] += v * x.AtVec(j)
		rows[i] += math.Abs(v)
	}
	if nz, ok := a.(nonZeroer); ok {
		nz.DoNonZero(visit)
	} else {
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				if v := a.At(i, j); v != 0 {
					visit(i, j, v)
				}
			}
		}
	}
	for _, r := range rows {
		norm = math.Max(norm, r)
	}
	return
}
