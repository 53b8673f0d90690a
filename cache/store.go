package cache

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"
)

// Paths locates the artifacts of one identifier
type Paths struct {
	Mesh        string
	Constraints string
	Values      string
	Vectors     string
	Manifest    string
}

func newPaths(meshDir, solutionDir, id string) Paths {
	return Paths{
		Mesh:        filepath.Join(meshDir, id+".msh"),
		Constraints: filepath.Join(solutionDir, id+"-bc_array.csv"),
		Values:      filepath.Join(solutionDir, id+"-eigvals.csv"),
		Vectors:     filepath.Join(solutionDir, id+"-eigvecs.csv"),
		Manifest:    filepath.Join(solutionDir, id+"-params.yaml"),
	}
}

// solutionFiles are the artifacts that make up a hit, without the mesh
func (p Paths) solutionFiles() []string {
	return []string{p.Constraints, p.Values, p.Vectors}
}

// Manifest records what produced a cached solution
type Manifest struct {
	ID       string             `yaml:"id"`
	Geometry string             `yaml:"geometry"`
	Params   map[string]float64 `yaml:"params"`
	Encoding Encoding           `yaml:"encoding"`
	Material string             `yaml:"material,omitempty"`
	NEq      int                `yaml:"neq"`
	Modes    int                `yaml:"modes"`
	Run      string             `yaml:"run"` // Unique per computation
}

func exists(path string) (bool, error) {
	_, err := os.Stat(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	}
	return false, err
}

// writeAtomic writes through a temporary file in the target directory and
// renames it over path once complete
func writeAtomic(path string, write func(io.Writer) error) (err error) {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			os.Remove(tmp)
		}
	}()
	if err = write(f); err != nil {
		f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func ftoa(x float64) string { return strconv.FormatFloat(x, 'g', -1, 64) }

func writeIntCSV(w io.Writer, rows [][]int) error {
	cw := csv.NewWriter(w)
	rec := []string{}
	for _, row := range rows {
		rec = rec[:0]
		for _, v := range row {
			rec = append(rec, strconv.Itoa(v))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// writeValues writes one value per line
func writeValues(w io.Writer, values []float64) error {
	cw := csv.NewWriter(w)
	for _, v := range values {
		if err := cw.Write([]string{ftoa(v)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeMatrix(w io.Writer, a mat.Matrix) error {
	cw := csv.NewWriter(w)
	r, c := a.Dims()
	rec := make([]string, c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			rec[j] = ftoa(a.At(i, j))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeManifest(w io.Writer, m *Manifest) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return err
	}
	return enc.Close()
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	return cr.ReadAll()
}

func readIntCSV(path string) ([][]int, error) {
	recs, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	rows := make([][]int, len(recs))
	for i, rec := range recs {
		rows[i] = make([]int, len(rec))
		for j, s := range rec {
			// numpy savetxt writes integers as floats
			v, err := strconv.ParseFloat(s, 64)
			if err != nil || v != float64(int(v)) {
				return nil, fmt.Errorf("%s:%d: invalid integer %q", path, i+1, s)
			}
			rows[i][j] = int(v)
		}
	}
	return rows, nil
}

// readValues accepts one value per line or a single comma separated row
func readValues(path string) ([]float64, error) {
	recs, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	var values []float64
	for i, rec := range recs {
		for _, s := range rec {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: %w", path, i+1, err)
			}
			values = append(values, v)
		}
	}
	return values, nil
}

func readMatrix(path string) (*mat.Dense, error) {
	recs, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 || len(recs[0]) == 0 {
		return nil, fmt.Errorf("%s: empty matrix", path)
	}
	r, c := len(recs), len(recs[0])
	data := make([]float64, 0, r*c)
	for i, rec := range recs {
		if len(rec) != c {
			return nil, fmt.Errorf("%s:%d: %d columns, expected %d", path, i+1, len(rec), c)
		}
		for _, s := range rec {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: %w", path, i+1, err)
			}
			data = append(data, v)
		}
	}
	return mat.NewDense(r, c, data), nil
}

func readManifest(path string) (*Manifest, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m := &Manifest{}
	if err = yaml.Unmarshal(b, m); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}
