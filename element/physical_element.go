package element

import "github.com/notargets/elastowaves/geometry"

// GeometricTransform maps the reference triangle to one physical element at a
// single point
type GeometricTransform struct {
	// Components of the inverse Jacobian matrix (∂ξ/∂x terms)
	Rx, Ry float64 // ∂r/∂x, ∂r/∂y
	Sx, Sy float64 // ∂s/∂x, ∂s/∂y

	// Jacobian determinant |∂(x,y)/∂(r,s)|, used for integration:
	// ∫_Ω f dA = ∫_Ω̂ f |J| dr ds
	J float64
}

// Transform evaluates the geometric transform at the point where the
// reference derivatives dNdr, dNds were taken. A zero or negative J means the
// element is inverted or collapsed; the other fields are then left zero.
func Transform(coords *[Np]geometry.Point, dNdr, dNds *[Np]float64) (gt GeometricTransform) {
	var xr, xs, yr, ys float64
	for i, p := range coords {
		xr += dNdr[i] * p.X
		yr += dNdr[i] * p.Y
		xs += dNds[i] * p.X
		ys += dNds[i] * p.Y
	}
	gt.J = xr*ys - xs*yr
	if gt.J <= 0 {
		return
	}
	gt.Rx, gt.Ry = ys/gt.J, -xs/gt.J
	gt.Sx, gt.Sy = -yr/gt.J, xr/gt.J
	return
}

// Gradient maps reference shape function derivatives to physical ∂N/∂x and
// ∂N/∂y
func (gt GeometricTransform) Gradient(dNdr, dNds *[Np]float64) (dNdx, dNdy [Np]float64) {
	for i := range dNdx {
		dNdx[i] = dNdr[i]*gt.Rx + dNds[i]*gt.Sx
		dNdy[i] = dNdr[i]*gt.Ry + dNds[i]*gt.Sy
	}
	return
}
