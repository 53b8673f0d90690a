package geometry

import "errors"

var (
	// ErrUnknownGeometry indicates a geometry type with no registered builder.
	ErrUnknownGeometry = errors.New("geometry: unknown geometry type")

	// ErrInvalidParameter indicates a missing, unexpected or out of range
	// shape parameter.
	ErrInvalidParameter = errors.New("geometry: invalid parameter")

	// ErrDegenerateGeometry indicates a boundary that encloses no area or
	// crosses itself.
	ErrDegenerateGeometry = errors.New("geometry: degenerate boundary")
)
