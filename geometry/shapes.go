package geometry

import (
	"fmt"
	"math"
	"sort"
)

// Kind names a supported domain shape
type Kind string

const (
	Square         Kind = "square"
	Triangle       Kind = "triangle"
	Circle         Kind = "circle"
	Isospectral1_1 Kind = "isospectral_1_1"
	Isospectral1_2 Kind = "isospectral_1_2"
	Isospectral2_1 Kind = "isospectral_2_1"
	Isospectral2_2 Kind = "isospectral_2_2"
)

// Parameter names
const (
	Side     = "side"
	Cathetus = "cathetus"
	Radius   = "radius"
	MeshSize = "mesh_size"
)

// DefaultIsospectralMeshSize is used for the fixed polygons when no
// mesh_size parameter is given
const DefaultIsospectralMeshSize = 0.1

// Spec fully determines a domain: the shape and its scalar parameters
type Spec struct {
	Kind   Kind
	Params map[string]float64
}

type shapeBuilder struct {
	required []string
	optional map[string]float64
	build    func(p map[string]float64) []Curve
}

var shapes = map[Kind]shapeBuilder{
	Square: {
		required: []string{Side, MeshSize},
		build: func(p map[string]float64) []Curve {
			s := p[Side]
			return polygon([]Point{{0, 0}, {s, 0}, {s, s}, {0, s}})
		},
	},
	Triangle: {
		required: []string{Cathetus, MeshSize},
		build: func(p map[string]float64) []Curve {
			c := p[Cathetus]
			return polygon([]Point{{0, 0}, {c, 0}, {0, c}})
		},
	},
	Circle: {
		required: []string{Radius, MeshSize},
		build: func(p map[string]float64) []Curve {
			r := p[Radius]
			return []Curve{
				Arc{Radius: r, Start: 0, Sweep: math.Pi},
				Arc{Radius: r, Start: math.Pi, Sweep: math.Pi},
			}
		},
	},
	Isospectral1_1: fixedPolygon(isospectral1_1),
	Isospectral1_2: fixedPolygon(isospectral1_2),
	Isospectral2_1: fixedPolygon(isospectral2_1),
	Isospectral2_2: fixedPolygon(isospectral2_2),
}

// Isospectral drums, left and right of
// https://en.wikipedia.org/wiki/Hearing_the_shape_of_a_drum
var (
	isospectral1_1 = []Point{{2, 0}, {3, 1}, {3, 2}, {1, 2}, {1, 3}, {0, 2}, {1, 1}, {2, 1}}
	isospectral1_2 = []Point{{2, 0}, {2, 1}, {3, 1}, {2, 2}, {1, 2}, {1, 3}, {0, 3}, {0, 2}}
)

// Isospectral pair 7_3 of https://doi.org/10.1155/S1073792894000437 (fig. 4)
var (
	h3             = math.Sqrt(3) / 2
	isospectral2_1 = []Point{{0.5, 0}, {3.5, 0}, {2.5, 2 * h3}, {2, h3}, {0, h3}}
	isospectral2_2 = []Point{{0, 0}, {1, 0}, {2.5, 3 * h3}, {0.5, 3 * h3}, {1, 2 * h3}}
)

func fixedPolygon(coords []Point) shapeBuilder {
	return shapeBuilder{
		optional: map[string]float64{MeshSize: DefaultIsospectralMeshSize},
		build:    func(map[string]float64) []Curve { return polygon(coords) },
	}
}

func polygon(coords []Point) (curves []Curve) {
	for i := range coords {
		curves = append(curves, Segment{A: coords[i], B: coords[(i+1)%len(coords)]})
	}
	return
}

// Kinds lists the supported geometry types in sorted order
func Kinds() (kinds []Kind) {
	for k := range shapes {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return
}

// Lookup fails with ErrUnknownGeometry when no builder exists for kind
func Lookup(kind Kind) error {
	if _, ok := shapes[kind]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownGeometry, kind)
	}
	return nil
}

// Resolve returns the full parameter set of spec, with defaults applied,
// after checking that every required parameter is present and positive and
// that no unknown parameter is given
func (spec Spec) Resolve() (map[string]float64, error) {
	sb, ok := shapes[spec.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownGeometry, spec.Kind)
	}
	params := make(map[string]float64, len(sb.required)+len(sb.optional))
	for k, v := range sb.optional {
		params[k] = v
	}
	known := map[string]bool{}
	for _, k := range sb.required {
		known[k] = true
	}
	for k := range sb.optional {
		known[k] = true
	}
	for k, v := range spec.Params {
		if !known[k] {
			return nil, fmt.Errorf("%w: %s does not take %q", ErrInvalidParameter, spec.Kind, k)
		}
		params[k] = v
	}
	for _, k := range sb.required {
		if _, ok := spec.Params[k]; !ok {
			return nil, fmt.Errorf("%w: %s requires %q", ErrInvalidParameter, spec.Kind, k)
		}
	}
	for k, v := range params {
		if !(v > 0) || math.IsInf(v, 1) {
			return nil, fmt.Errorf("%w: %s %s must be positive and finite, got %g",
				ErrInvalidParameter, spec.Kind, k, v)
		}
	}
	return params, nil
}

// Build turns spec into a validated boundary description
func Build(spec Spec) (*Boundary, error) {
	params, err := spec.Resolve()
	if err != nil {
		return nil, err
	}
	b := &Boundary{
		Name:     string(spec.Kind),
		Curves:   shapes[spec.Kind].build(params),
		MeshSize: params[MeshSize],
	}
	if err = b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}
