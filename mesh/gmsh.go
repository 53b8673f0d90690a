package mesh

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/notargets/elastowaves/element"
	"github.com/notargets/elastowaves/geometry"
)

// Gmsh element type numbers of the quadratic elements
const (
	gmshLine3     = 8
	gmshTriangle6 = 9
)

var gmshShapes = map[int]element.GeometryType{
	gmshLine3:     element.Line,
	gmshTriangle6: element.Tri,
}

// gmshNodes is the node count of a quadratic element of shape g
func gmshNodes(g element.GeometryType) int {
	props := element.Tri6{}.GetProperties()
	if g == element.Line {
		return props.NEp
	}
	return props.Np
}

// Physical tags written on export
const (
	BoundaryTag = 1
	SurfaceTag  = 2
)

// ErrFormat indicates a mesh file that is not valid Gmsh 2.2 ASCII
var ErrFormat = errors.New("mesh: malformed gmsh file")

// WriteGmsh writes m in Gmsh MSH 2.2 ASCII format. Coordinates use the
// shortest representation that reads back to the same float64.
func WriteGmsh(w io.Writer, m *Mesh) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "$MeshFormat\n2.2 0 8\n$EndMeshFormat\n")
	fmt.Fprintf(bw, "$Nodes\n%d\n", len(m.Nodes))
	for i, p := range m.Nodes {
		fmt.Fprintf(bw, "%d %s %s 0\n", i+1, ftoa(p.X), ftoa(p.Y))
	}
	fmt.Fprintf(bw, "$EndNodes\n")
	fmt.Fprintf(bw, "$Elements\n%d\n", len(m.Lines)+len(m.Elements))
	id := 1
	for _, l := range m.Lines {
		fmt.Fprintf(bw, "%d %d 2 %d 1 %d %d %d\n", id, gmshLine3, BoundaryTag, l[0]+1, l[1]+1, l[2]+1)
		id++
	}
	for _, el := range m.Elements {
		fmt.Fprintf(bw, "%d %d 2 %d 1", id, gmshTriangle6, SurfaceTag)
		for _, n := range el {
			fmt.Fprintf(bw, " %d", n+1)
		}
		fmt.Fprintf(bw, "\n")
		id++
	}
	fmt.Fprintf(bw, "$EndElements\n")
	return bw.Flush()
}

// WriteGmshFile writes m to path, replacing any existing file
func WriteGmshFile(path string, m *Mesh) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return WriteGmsh(f, m)
}

// ReadGmsh parses a Gmsh MSH 2.2 ASCII mesh, keeping triangle6 and line3
// elements. BoundaryNodes is rebuilt from the line3 elements.
func ReadGmsh(r io.Reader) (*Mesh, error) {
	var (
		sc      = bufio.NewScanner(r)
		lineNo  int
		m       = &Mesh{}
		nodeIdx = map[int]int{}
	)
	sc.Buffer(make([]byte, 1024*1024), 1024*1024)
	next := func() (string, bool) {
		for sc.Scan() {
			lineNo++
			if s := strings.TrimSpace(sc.Text()); s != "" {
				return s, true
			}
		}
		return "", false
	}
	fail := func(format string, args ...any) error {
		return fmt.Errorf("%w: line %d: %s", ErrFormat, lineNo, fmt.Sprintf(format, args...))
	}
	count := func() (int, error) {
		s, ok := next()
		if !ok {
			return 0, fail("unexpected end of file")
		}
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return 0, fail("invalid count %q", s)
		}
		return n, nil
	}
	var sawFormat, sawNodes, sawElements bool
	for {
		s, ok := next()
		if !ok {
			break
		}
		switch s {
		case "$MeshFormat":
			hdr, _ := next()
			f := strings.Fields(hdr)
			if len(f) < 2 || !strings.HasPrefix(f[0], "2.") {
				return nil, fail("unsupported mesh format %q", hdr)
			}
			if f[1] != "0" {
				return nil, fail("binary mesh files are not supported")
			}
			sawFormat = true
		case "$Nodes":
			n, err := count()
			if err != nil {
				return nil, err
			}
			m.Nodes = make([]geometry.Point, 0, n)
			for i := 0; i < n; i++ {
				s, _ = next()
				f := strings.Fields(s)
				if len(f) < 3 {
					return nil, fail("node record %q", s)
				}
				id, err := strconv.Atoi(f[0])
				if err != nil {
					return nil, fail("node id %q", f[0])
				}
				x, err1 := strconv.ParseFloat(f[1], 64)
				y, err2 := strconv.ParseFloat(f[2], 64)
				if err1 != nil || err2 != nil {
					return nil, fail("node coordinates %q", s)
				}
				nodeIdx[id] = len(m.Nodes)
				m.Nodes = append(m.Nodes, geometry.Point{X: x, Y: y})
			}
			sawNodes = true
		case "$Elements":
			n, err := count()
			if err != nil {
				return nil, err
			}
			for i := 0; i < n; i++ {
				s, _ = next()
				f := strings.Fields(s)
				if len(f) < 3 {
					return nil, fail("element record %q", s)
				}
				typ, err1 := strconv.Atoi(f[1])
				ntags, err2 := strconv.Atoi(f[2])
				if err1 != nil || err2 != nil || ntags < 0 || len(f) < 3+ntags {
					return nil, fail("element header %q", s)
				}
				ids := f[3+ntags:]
				shape, ok := gmshShapes[typ]
				if !ok {
					continue
				}
				want := gmshNodes(shape)
				if len(ids) != want {
					return nil, fail("%s element type %d needs %d nodes, got %d", shape, typ, want, len(ids))
				}
				nodes := make([]int, want)
				for j, sid := range ids {
					id, err := strconv.Atoi(sid)
					if err != nil {
						return nil, fail("element node %q", sid)
					}
					idx, ok := nodeIdx[id]
					if !ok {
						return nil, fail("element references unknown node %d", id)
					}
					nodes[j] = idx
				}
				if shape == element.Tri {
					var el [NodesPerElement]int
					copy(el[:], nodes)
					m.Elements = append(m.Elements, el)
				} else {
					m.Lines = append(m.Lines, [3]int{nodes[0], nodes[1], nodes[2]})
				}
			}
			sawElements = true
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if !sawFormat || !sawNodes || !sawElements {
		return nil, fmt.Errorf("%w: missing $MeshFormat, $Nodes or $Elements section", ErrFormat)
	}
	m.BoundaryFromLines()
	return m, nil
}

// ReadGmshFile reads the mesh stored at path
func ReadGmshFile(path string) (*Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	m, err := ReadGmsh(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

func ftoa(x float64) string {
	return strconv.FormatFloat(x, 'g', -1, 64)
}
