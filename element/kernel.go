package element

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/notargets/elastowaves/geometry"
)

// ErrInvalidElement indicates an inverted or collapsed element
var ErrInvalidElement = errors.New("element: non-positive jacobian")

// InvalidElementError reports where the Jacobian determinant failed
type InvalidElementError struct {
	Element int // Mesh element index, -1 when unknown
	Point   int // Quadrature point index
	Det     float64
}

func (e *InvalidElementError) Error() string {
	return fmt.Sprintf("element %d: jacobian determinant %g at quadrature point %d", e.Element, e.Det, e.Point)
}

func (e *InvalidElementError) Unwrap() error { return ErrInvalidElement }

// LocalMatrices integrates the stiffness and mass matrices of one Tri6
// element. Both are (dofs per node * 6) square, with the DOFs of a node
// adjacent (u0, v0, u1, v1, ... for elastic). The results are accumulated as
// symmetric rank-k updates, so they are exactly symmetric.
func LocalMatrices(coords [Np]geometry.Point, material Material, rule Rule) (K, M *mat.SymDense, err error) {
	if err = material.Validate(); err != nil {
		return nil, nil, err
	}
	nd := material.DOFsPerNode() * Np
	K = mat.NewSymDense(nd, nil)
	M = mat.NewSymDense(nd, nil)

	var (
		tri6  Tri6
		dLow  *mat.TriDense // Cholesky factor of the elasticity matrix
		btc   = mat.NewDense(nd, 3, nil)
		h     = mat.NewDense(nd, 2, nil)
		grad  = mat.NewDense(Np, 2, nil)
		shape = mat.NewDense(Np, 1, nil)
	)
	if el, ok := material.(Elastic); ok {
		if dLow, err = elasticityFactor(el); err != nil {
			return nil, nil, err
		}
	}

	for q := range rule.W {
		N, dNdr, dNds := tri6.shape(rule.R[q], rule.S[q])
		gt := Transform(&coords, &dNdr, &dNds)
		if gt.J <= 0 {
			return nil, nil, &InvalidElementError{Element: -1, Point: q, Det: gt.J}
		}
		factor := rule.W[q] * gt.J
		dNdx, dNdy := gt.Gradient(&dNdr, &dNds)

		switch m := material.(type) {
		case Elastic:
			// B^T D B = (B^T L)(B^T L)^T with D = L L^T
			bt := strainDisplacementT(&dNdx, &dNdy)
			btc.Mul(bt, dLow)
			K.SymRankK(K, factor, btc)
			for i := 0; i < Np; i++ {
				h.Set(2*i, 0, N[i])
				h.Set(2*i+1, 1, N[i])
			}
			M.SymRankK(M, m.RHO*factor, h)
		case Acoustic:
			for i := 0; i < Np; i++ {
				grad.Set(i, 0, dNdx[i])
				grad.Set(i, 1, dNdy[i])
				shape.Set(i, 0, N[i])
			}
			K.SymRankK(K, 0.5*m.Speed*m.Speed*factor, grad)
			M.SymRankK(M, 0.5*factor, shape)
		default:
			return nil, nil, fmt.Errorf("%w: unsupported material %T", ErrInvalidMaterial, material)
		}
	}
	return K, M, nil
}

// ElasticityMatrix is the plane stress constitutive matrix for the strain
// vector (exx, eyy, gxy)
func ElasticityMatrix(e Elastic) *mat.SymDense {
	c := e.E / (1 - e.NU*e.NU)
	return mat.NewSymDense(3, []float64{
		c, c * e.NU, 0,
		c * e.NU, c, 0,
		0, 0, c * (1 - e.NU) / 2,
	})
}

func elasticityFactor(e Elastic) (*mat.TriDense, error) {
	var chol mat.Cholesky
	if ok := chol.Factorize(ElasticityMatrix(e)); !ok {
		return nil, fmt.Errorf("%w: elasticity matrix of %v is not positive definite", ErrInvalidMaterial, e)
	}
	var l mat.TriDense
	chol.LTo(&l)
	return &l, nil
}

// strainDisplacementT is the transpose of the 3 x 12 strain-displacement
// operator B, rows ordered u0, v0, u1, v1, ...
func strainDisplacementT(dNdx, dNdy *[Np]float64) *mat.Dense {
	bt := mat.NewDense(2*Np, 3, nil)
	for i := 0; i < Np; i++ {
		bt.Set(2*i, 0, dNdx[i])
		bt.Set(2*i, 2, dNdy[i])
		bt.Set(2*i+1, 1, dNdy[i])
		bt.Set(2*i+1, 2, dNdx[i])
	}
	return bt
}
