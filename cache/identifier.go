package cache

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/notargets/elastowaves/geometry"
)

// Encoding selects how parameter values are spelled in an identifier
type Encoding string

const (
	// Exact spells values in shortest round trip form with '.' as 'p' and
	// '-' as 'm'. Distinct values give distinct identifiers.
	Exact Encoding = "exact"

	// Legacy strips '.' from the decimal text of each value, so 1.0 and 10
	// share the identifier "10". Shape parameters come first and mesh_size
	// last, the order the older tools wrote them in.
	//
	// Deprecated: identifiers collide; kept to read caches written by the
	// older tools. Use Exact.
	Legacy Encoding = "legacy"
)

func ParseEncoding(name string) (Encoding, error) {
	switch e := Encoding(strings.ToLower(name)); e {
	case Exact, Legacy:
		return e, nil
	case "":
		return Exact, nil
	}
	return "", fmt.Errorf("unknown key encoding %q", name)
}

// Identifier names the artifacts of one geometry and parameter set:
// kind-key1_value1-key2_value2 with keys in sorted order (Legacy moves
// mesh_size to the end). Identifier does not check the kind or the
// parameters.
func Identifier(kind geometry.Kind, params map[string]float64, enc Encoding) (string, error) {
	var spell func(float64) string
	switch enc {
	case Exact, "":
		spell = exactValue
	case Legacy:
		spell = legacyValue
	default:
		return "", fmt.Errorf("unknown key encoding %q", enc)
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if enc == Legacy {
		sort.SliceStable(keys, func(i, j int) bool {
			return keys[i] != geometry.MeshSize && keys[j] == geometry.MeshSize
		})
	}

	var sb strings.Builder
	sb.WriteString(string(kind))
	if enc == Legacy {
		// the older tools always joined with a separator, even without params
		sb.WriteByte('-')
		for i, k := range keys {
			if i > 0 {
				sb.WriteByte('-')
			}
			sb.WriteString(k + "_" + spell(params[k]))
		}
		return sb.String(), nil
	}
	for _, k := range keys {
		sb.WriteString("-" + k + "_" + spell(params[k]))
	}
	return sb.String(), nil
}

func exactValue(x float64) string {
	s := strconv.FormatFloat(x, 'g', -1, 64)
	return strings.NewReplacer(".", "p", "-", "m", "+", "").Replace(s)
}

// legacyValue reproduces the decimal text of a float the older tools
// printed (1.0, 0.05, 1e-05, 1e+16), then removes the '.'
func legacyValue(x float64) string {
	return strings.ReplaceAll(floatText(x), ".", "")
}

func floatText(x float64) string {
	if math.IsInf(x, 0) || math.IsNaN(x) {
		return strconv.FormatFloat(x, 'g', -1, 64)
	}
	if x == 0 {
		return "0.0"
	}
	sci := strconv.FormatFloat(x, 'e', -1, 64)
	exp, _ := strconv.Atoi(sci[strings.IndexByte(sci, 'e')+1:])
	if exp < -4 || exp >= 16 {
		return sci
	}
	s := strconv.FormatFloat(x, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}
