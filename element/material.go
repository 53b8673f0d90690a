package element

import (
	"errors"
	"fmt"
)

// ErrInvalidMaterial indicates material constants outside their physical range
var ErrInvalidMaterial = errors.New("element: invalid material")

// Material selects the physics integrated by the element kernel. It is one of
// Elastic or Acoustic.
type Material interface {
	// DOFsPerNode is 2 for elastic displacement, 1 for acoustic pressure
	DOFsPerNode() int
	Validate() error
	String() string
	material()
}

// Elastic is an isotropic plane stress solid
type Elastic struct {
	E   float64 // Young's modulus
	NU  float64 // Poisson ratio
	RHO float64 // Density
}

func (Elastic) DOFsPerNode() int { return int(D2) }
func (Elastic) material()        {}

func (e Elastic) Validate() error {
	if !(e.E > 0) || !(e.RHO > 0) || !(e.NU > -1 && e.NU < 0.5) {
		return fmt.Errorf("%w: elastic E=%g NU=%g RHO=%g", ErrInvalidMaterial, e.E, e.NU, e.RHO)
	}
	return nil
}

func (e Elastic) String() string {
	return fmt.Sprintf("elastic(E=%g, NU=%g, RHO=%g)", e.E, e.NU, e.RHO)
}

// ShearSpeed2 is the squared shear wave speed G/RHO
func (e Elastic) ShearSpeed2() float64 {
	return e.E / (2 * (1 + e.NU)) / e.RHO
}

// Acoustic is a scalar wave field under axisymmetric weighting
type Acoustic struct {
	Speed float64
}

func (Acoustic) DOFsPerNode() int { return 1 }
func (Acoustic) material()        {}

func (a Acoustic) Validate() error {
	if !(a.Speed > 0) {
		return fmt.Errorf("%w: acoustic speed=%g", ErrInvalidMaterial, a.Speed)
	}
	return nil
}

func (a Acoustic) String() string {
	return fmt.Sprintf("acoustic(speed=%g)", a.Speed)
}
