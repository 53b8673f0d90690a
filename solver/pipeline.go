package solver

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/notargets/elastowaves/assembly"
	"github.com/notargets/elastowaves/eigen"
	"github.com/notargets/elastowaves/element"
	"github.com/notargets/elastowaves/geometry"
	"github.com/notargets/elastowaves/mesh"
	"github.com/notargets/elastowaves/meshgen"
)

// Config parameterizes a Pipeline
type Config struct {
	Material        element.Material
	Mode            eigen.Mode
	QuadratureOrder int // 0 selects element.DefaultQuadratureOrder
	Logger          *slog.Logger
	MeshOptions     []meshgen.Option
}

// Pipeline runs geometry, meshing, constraint encoding, assembly and the
// eigen solve for one domain at a time
type Pipeline struct {
	material element.Material
	mode     eigen.Mode
	rule     element.Rule
	logger   *slog.Logger
	meshOpts []meshgen.Option
}

// Result is everything produced by one solve
type Result struct {
	Mesh        *mesh.Mesh
	Constraints assembly.Constraints
	Table       *assembly.DOFTable
	Matrices    *assembly.Matrices
	Solution    *eigen.Solution
}

func New(cfg Config) (*Pipeline, error) {
	if cfg.Material == nil {
		return nil, fmt.Errorf("%w: no material", element.ErrInvalidMaterial)
	}
	if err := cfg.Material.Validate(); err != nil {
		return nil, err
	}
	order := cfg.QuadratureOrder
	if order == 0 {
		order = element.DefaultQuadratureOrder
	}
	rule, err := element.GaussTriangle(order)
	if err != nil {
		return nil, err
	}
	if rule.Degree < 3 {
		return nil, fmt.Errorf("quadrature order %d integrates degree %d, at least 3 is required", order, rule.Degree)
	}
	p := &Pipeline{
		material: cfg.Material,
		mode:     cfg.Mode,
		rule:     rule,
		logger:   cfg.Logger,
		meshOpts: cfg.MeshOptions,
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	p.meshOpts = append([]meshgen.Option{meshgen.WithLogger(p.logger)}, p.meshOpts...)
	return p, nil
}

// Material returns the material the pipeline integrates
func (p *Pipeline) Material() element.Material { return p.material }

// Solve runs every stage for the domain named by spec
func (p *Pipeline) Solve(ctx context.Context, spec geometry.Spec) (*Result, error) {
	start := time.Now()
	boundary, err := geometry.Build(spec)
	if err != nil {
		return nil, err
	}
	m, err := p.mesh(ctx, boundary)
	if err != nil {
		return nil, fmt.Errorf("meshing %s: %w", boundary.Name, err)
	}

	res := &Result{Mesh: m}
	res.Constraints = assembly.EncodeConstraints(m, p.material.DOFsPerNode())
	if res.Table, err = assembly.NewDOFTable(res.Constraints); err != nil {
		return nil, err
	}
	p.logger.Debug("constraints encoded",
		"fixed", res.Constraints.NumFixed(),
		"equations", res.Table.NEq)

	t := time.Now()
	if res.Matrices, err = assembly.Assemble(ctx, m, res.Table, p.material, p.rule); err != nil {
		return nil, fmt.Errorf("assembling %s: %w", boundary.Name, err)
	}
	p.logger.Debug("matrices assembled",
		"material", p.material.String(),
		"neq", res.Matrices.NEq,
		"nnz", res.Matrices.K.NNZ(),
		"elapsed", time.Since(t))

	if err = ctx.Err(); err != nil {
		return nil, err
	}
	t = time.Now()
	if res.Solution, err = eigen.Solve(res.Matrices.K, res.Matrices.M, p.mode); err != nil {
		return nil, err
	}
	p.logger.Debug("eigenproblem solved",
		"mode", p.mode.String(),
		"pairs", res.Solution.Len(),
		"elapsed", time.Since(t),
		"total", time.Since(start))
	return res, nil
}

func (p *Pipeline) mesh(ctx context.Context, b *geometry.Boundary) (*mesh.Mesh, error) {
	s, err := meshgen.Open(ctx, p.meshOpts...)
	if err != nil {
		return nil, err
	}
	defer s.Close()
	return s.Generate(ctx, b)
}
