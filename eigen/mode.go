package eigen

import "fmt"

// DefaultShiftCount is the number of eigenpairs returned by ShiftInvert
// when no count is given
const DefaultShiftCount = 10

type Strategy uint8

const (
	Smallest Strategy = iota // smallest magnitude
	NearShift                // closest to Sigma, shift-invert
)

func (s Strategy) String() string {
	switch s {
	case Smallest:
		return "smallest"
	case NearShift:
		return "shift-invert"
	}
	return fmt.Sprintf("Strategy(%d)", s)
}

// ParseStrategy accepts the names printed by Strategy.String, plus "shift"
func ParseStrategy(name string) (Strategy, error) {
	switch name {
	case "smallest", "":
		return Smallest, nil
	case "shift-invert", "shift":
		return NearShift, nil
	}
	return 0, fmt.Errorf("unknown eigen mode %q", name)
}

// Mode selects which part of the spectrum Solve returns
type Mode struct {
	Strategy Strategy
	K        int     // Number of eigenpairs, <= 0 picks the strategy default
	Sigma    float64 // Shift, NearShift only
}

// SmallestMagnitude returns the k eigenpairs of smallest magnitude; k <= 0
// requests neq-1 of them
func SmallestMagnitude(k int) Mode {
	return Mode{Strategy: Smallest, K: k}
}

// ShiftInvert returns the k eigenpairs closest to sigma; k <= 0 requests
// DefaultShiftCount
func ShiftInvert(sigma float64, k int) Mode {
	return Mode{Strategy: NearShift, K: k, Sigma: sigma}
}

func (m Mode) String() string {
	if m.Strategy == NearShift {
		return fmt.Sprintf("%v(sigma=%g, k=%d)", m.Strategy, m.Sigma, m.K)
	}
	return fmt.Sprintf("%v(k=%d)", m.Strategy, m.K)
}

// count resolves the number of pairs to return for a problem of size neq
func (m Mode) count(neq int) (k int) {
	k = m.K
	if k <= 0 {
		switch m.Strategy {
		case NearShift:
			k = DefaultShiftCount
		default:
			k = neq - 1
		}
	}
	if k < 1 {
		k = 1
	}
	if k > neq {
		k = neq
	}
	return
}

// distance orders eigenvalues for selection
func (m Mode) distance(lambda float64) float64 {
	d := lambda
	if m.Strategy == NearShift {
		d -= m.Sigma
	}
	if d < 0 {
		return -d
	}
	return d
}
