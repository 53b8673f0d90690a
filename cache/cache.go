package cache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/elastowaves/assembly"
	"github.com/notargets/elastowaves/element"
	"github.com/notargets/elastowaves/geometry"
	"github.com/notargets/elastowaves/mesh"
	"github.com/notargets/elastowaves/solver"
)

// ErrCorruption is wrapped by every CorruptionError
var ErrCorruption = errors.New("cache: corrupt artifact")

// CorruptionError reports a cached artifact that exists but cannot be used
type CorruptionError struct {
	ID   string
	Path string
	Err  error
}

func (e *CorruptionError) Error() string {
	return fmt.Sprintf("cache: %s: corrupt %s: %v", e.ID, e.Path, e.Err)
}

func (e *CorruptionError) Unwrap() []error { return []error{ErrCorruption, e.Err} }

// Solver computes a solution on a miss. *solver.Pipeline implements it.
type Solver interface {
	Solve(ctx context.Context, spec geometry.Spec) (*solver.Result, error)
	Material() element.Material
}

// Config controls where artifacts live and how a hit is recognized
type Config struct {
	MeshDir     string
	SolutionDir string
	Encoding    Encoding

	// CheckMesh requires the mesh file for a hit. Without it a hit only
	// needs the solution files, and the mesh is loaded when present.
	CheckMesh bool
	// ReshapeConstraints accepts a constraint array stored as a single row
	// or column and reshapes it to one row per node
	ReshapeConstraints bool
	// VerifyParams compares the stored params manifest with the request, a
	// mismatch is treated as corruption
	VerifyParams bool

	Logger *slog.Logger
}

// Record is one cached solution. BC is the numbered constraint array, one
// row per node, -1 for fixed DOFs.
type Record struct {
	ID      string
	BC      [][]int
	Table   *assembly.DOFTable
	Values  []float64
	Vectors *mat.Dense
	Mesh    *mesh.Mesh
	Cached  bool // Loaded from disk
}

// Cache memoizes solver results on disk by geometry kind and parameters
type Cache struct {
	cfg    Config
	solver Solver
	logger *slog.Logger
}

func New(cfg Config, s Solver) (*Cache, error) {
	if s == nil {
		return nil, errors.New("cache: nil solver")
	}
	if cfg.MeshDir == "" || cfg.SolutionDir == "" {
		return nil, fmt.Errorf("cache: mesh dir %q and solution dir %q must be set", cfg.MeshDir, cfg.SolutionDir)
	}
	enc, err := ParseEncoding(string(cfg.Encoding))
	if err != nil {
		return nil, err
	}
	cfg.Encoding = enc
	c := &Cache{cfg: cfg, solver: s, logger: cfg.Logger}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if enc == Legacy {
		c.logger.Warn("legacy key encoding is deprecated, distinct parameters may share a cache entry")
	}
	return c, nil
}

// Identify validates spec and returns its identifier and artifact paths. It
// touches nothing on disk.
func (c *Cache) Identify(spec geometry.Spec) (string, Paths, error) {
	if err := geometry.Lookup(spec.Kind); err != nil {
		return "", Paths{}, err
	}
	if _, err := spec.Resolve(); err != nil {
		return "", Paths{}, err
	}
	id, err := Identifier(spec.Kind, spec.Params, c.cfg.Encoding)
	if err != nil {
		return "", Paths{}, err
	}
	return id, newPaths(c.cfg.MeshDir, c.cfg.SolutionDir, id), nil
}

// Retrieve returns the cached solution for spec, computing and storing it
// when it is missing, corrupt or force is set
func (c *Cache) Retrieve(ctx context.Context, spec geometry.Spec, force bool) (*Record, error) {
	id, paths, err := c.Identify(spec)
	if err != nil {
		return nil, err
	}
	log := c.logger.With("id", id)
	if !force {
		hit, err := c.isHit(paths)
		if err != nil {
			return nil, err
		}
		if hit {
			rec, err := c.load(id, paths, spec)
			if err == nil {
				log.Info("cache hit", "modes", len(rec.Values))
				return rec, nil
			}
			var ce *CorruptionError
			if !errors.As(err, &ce) {
				return nil, err
			}
			log.Warn("cache corrupt, recomputing", "path", ce.Path, "error", ce.Err)
		} else {
			log.Info("cache miss")
		}
	} else {
		log.Info("recompute forced")
	}
	return c.compute(ctx, id, paths, spec)
}

func (c *Cache) isHit(p Paths) (bool, error) {
	files := p.solutionFiles()
	if c.cfg.CheckMesh {
		files = append(files, p.Mesh)
	}
	for _, f := range files {
		ok, err := exists(f)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func (c *Cache) load(id string, p Paths, spec geometry.Spec) (*Record, error) {
	corrupt := func(path string, err error) error {
		return &CorruptionError{ID: id, Path: path, Err: err}
	}
	rec := &Record{ID: id, Cached: true}
	if ok, err := exists(p.Mesh); err != nil {
		return nil, err
	} else if ok {
		if rec.Mesh, err = mesh.ReadGmshFile(p.Mesh); err != nil {
			return nil, corrupt(p.Mesh, err)
		}
	} else {
		c.logger.Warn("cached solution has no mesh", "id", id, "path", p.Mesh)
	}

	nd := c.solver.Material().DOFsPerNode()
	rows, err := readIntCSV(p.Constraints)
	if err != nil {
		return nil, corrupt(p.Constraints, err)
	}
	if rec.BC, err = c.shapeConstraints(rows, nd, rec.Mesh); err != nil {
		return nil, corrupt(p.Constraints, err)
	}
	if rec.Table, err = assembly.TableFromEquations(rec.BC); err != nil {
		return nil, corrupt(p.Constraints, err)
	}

	if rec.Values, err = readValues(p.Values); err != nil {
		return nil, corrupt(p.Values, err)
	}
	if rec.Vectors, err = readMatrix(p.Vectors); err != nil {
		return nil, corrupt(p.Vectors, err)
	}
	if r, cols := rec.Vectors.Dims(); r != rec.Table.NEq || cols != len(rec.Values) {
		return nil, corrupt(p.Vectors, fmt.Errorf("shape %dx%d, expected %dx%d", r, cols, rec.Table.NEq, len(rec.Values)))
	}

	if c.cfg.VerifyParams {
		if err = verifyManifest(p.Manifest, spec); err != nil {
			return nil, corrupt(p.Manifest, err)
		}
	}
	return rec, nil
}

// shapeConstraints checks the constraint rows against the mesh, reshaping a
// flattened array when allowed
func (c *Cache) shapeConstraints(rows [][]int, nd int, m *mesh.Mesh) ([][]int, error) {
	nodes := len(rows)
	if m != nil {
		nodes = m.NumNodes()
	}
	if len(rows) == nodes && (len(rows) == 0 || len(rows[0]) == nd) {
		return rows, nil
	}
	var flat []int
	switch {
	case len(rows) == 1:
		flat = rows[0]
	case len(rows) > 0 && len(rows[0]) == 1:
		for _, r := range rows {
			flat = append(flat, r...)
		}
	}
	if !c.cfg.ReshapeConstraints || flat == nil {
		return nil, fmt.Errorf("%d rows, expected %d nodes of %d dofs", len(rows), nodes, nd)
	}
	if m == nil {
		nodes = len(flat) / nd
	}
	if len(flat) != nodes*nd {
		return nil, fmt.Errorf("%d flattened entries, expected %d nodes of %d dofs", len(flat), nodes, nd)
	}
	out := make([][]int, nodes)
	for n := range out {
		out[n] = flat[n*nd : (n+1)*nd : (n+1)*nd]
	}
	return out, nil
}

func verifyManifest(path string, spec geometry.Spec) error {
	m, err := readManifest(path)
	if err != nil {
		return err
	}
	if m.Geometry != string(spec.Kind) || len(m.Params) != len(spec.Params) {
		return fmt.Errorf("stored %s %v, requested %s %v", m.Geometry, m.Params, spec.Kind, spec.Params)
	}
	for k, v := range spec.Params {
		if sv, ok := m.Params[k]; !ok || sv != v {
			return fmt.Errorf("stored %s %v, requested %s %v", m.Geometry, m.Params, spec.Kind, spec.Params)
		}
	}
	return nil
}

func (c *Cache) compute(ctx context.Context, id string, p Paths, spec geometry.Spec) (*Record, error) {
	res, err := c.solver.Solve(ctx, spec)
	if err != nil {
		return nil, err
	}
	for _, dir := range []string{c.cfg.MeshDir, c.cfg.SolutionDir} {
		if err = os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	sol := res.Solution
	man := &Manifest{
		ID:       id,
		Geometry: string(spec.Kind),
		Params:   spec.Params,
		Encoding: c.cfg.Encoding,
		Material: c.solver.Material().String(),
		NEq:      res.Table.NEq,
		Modes:    sol.Len(),
		Run:      uuid.NewString(),
	}
	if err = writeAtomic(p.Constraints, func(w io.Writer) error { return writeIntCSV(w, res.Table.Equations) }); err != nil {
		return nil, err
	}
	if err = writeAtomic(p.Values, func(w io.Writer) error { return writeValues(w, sol.Values) }); err != nil {
		return nil, err
	}
	if err = writeAtomic(p.Vectors, func(w io.Writer) error { return writeMatrix(w, sol.Vectors) }); err != nil {
		return nil, err
	}
	if err = writeAtomic(p.Manifest, func(w io.Writer) error { return writeManifest(w, man) }); err != nil {
		return nil, err
	}
	if err = writeAtomic(p.Mesh, func(w io.Writer) error { return mesh.WriteGmsh(w, res.Mesh) }); err != nil {
		return nil, err
	}
	c.logger.Info("solution stored", "id", id, "run", man.Run, "neq", res.Table.NEq, "modes", sol.Len())
	return &Record{
		ID:      id,
		BC:      res.Table.Equations,
		Table:   res.Table,
		Values:  sol.Values,
		Vectors: sol.Vectors,
		Mesh:    res.Mesh,
	}, nil
}
