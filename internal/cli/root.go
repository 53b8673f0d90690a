package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/notargets/elastowaves/cache"
	"github.com/notargets/elastowaves/config"
	"github.com/notargets/elastowaves/geometry"
	"github.com/notargets/elastowaves/solver"
)

// RootOptions holds global flags and the configuration loaded from them
type RootOptions struct {
	Verbose    bool
	ConfigFile string
	Format     string // "text" | "json"

	viper  *viper.Viper
	Config config.Config
	Logger *slog.Logger
}

// ValidFormats defines the allowed output formats
var ValidFormats = []string{"text", "json"}

// flag name -> config key
var boundFlags = map[string]string{
	"data-dir":   "data.dir",
	"material":   "material.kind",
	"mode":       "eigen.mode",
	"count":      "eigen.count",
	"sigma":      "eigen.sigma",
	"quadrature": "quadrature_order",
	"encoding":   "cache.encoding",
}

// NewRootCommand creates the root command of the elastowaves CLI
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{viper: viper.New()}

	cmd := &cobra.Command{
		Use:   "elastowaves",
		Short: "Eigenmodes of 2D elastic and acoustic domains",
		Long: `Compute vibration and acoustic eigenmodes of 2D domains with quadratic
triangle finite elements. Solutions are cached on disk by geometry and
parameters, so repeated scans reuse earlier results.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd)
		},
	}

	pf := cmd.PersistentFlags()
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	pf.StringVar(&opts.ConfigFile, "config", "", "config file (default .elastowaves.yaml)")
	pf.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	pf.String("data-dir", "data", "root of the mesh and solution cache")
	pf.String("material", "elastic", "material model (elastic|acoustic)")
	pf.String("mode", "smallest", "eigen mode (smallest|shift-invert)")
	pf.Int("count", 0, "number of eigenpairs, 0 for the mode default")
	pf.Float64("sigma", 0, "shift for shift-invert mode")
	pf.Int("quadrature", 3, "triangle quadrature order")
	pf.String("encoding", string(cache.Exact), "cache key encoding (exact|legacy)")

	cmd.AddCommand(NewSolveCommand(opts))
	cmd.AddCommand(NewMeshCommand(opts))
	cmd.AddCommand(NewScanCommand(opts))
	cmd.AddCommand(NewCompareCommand(opts))
	cmd.AddCommand(NewGeometriesCommand(opts))

	return cmd
}

func (o *RootOptions) load(cmd *cobra.Command) error {
	if !isValidFormat(o.Format) {
		return fmt.Errorf("invalid format %q: must be one of %v", o.Format, ValidFormats)
	}
	v := o.viper
	if o.ConfigFile != "" {
		v.SetConfigFile(o.ConfigFile)
	} else {
		v.SetConfigName(".elastowaves")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if o.ConfigFile != "" || !(errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)) {
			return fmt.Errorf("reading config: %w", err)
		}
	}
	for name, key := range boundFlags {
		if err := v.BindPFlag(key, cmd.Root().PersistentFlags().Lookup(name)); err != nil {
			return err
		}
	}
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}
	o.Config = cfg
	if o.Verbose {
		o.Config.Verbose = true
	}

	level := slog.LevelInfo
	if o.Config.Verbose {
		level = slog.LevelDebug
	}
	o.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(o.Logger)
	return nil
}

// newCache wires the configured pipeline behind the solution cache
func (o *RootOptions) newCache() (*cache.Cache, error) {
	material, err := o.Config.MaterialModel()
	if err != nil {
		return nil, err
	}
	mode, err := o.Config.EigenMode()
	if err != nil {
		return nil, err
	}
	p, err := solver.New(solver.Config{
		Material:        material,
		Mode:            mode,
		QuadratureOrder: o.Config.QuadratureOrder,
		Logger:          o.Logger,
	})
	if err != nil {
		return nil, err
	}
	return cache.New(o.Config.CacheSettings(o.Logger), p)
}

// parseSpec reads "kind key=value ..." arguments
func parseSpec(args []string) (geometry.Spec, error) {
	if len(args) == 0 {
		return geometry.Spec{}, errors.New("missing geometry type")
	}
	spec := geometry.Spec{Kind: geometry.Kind(args[0]), Params: map[string]float64{}}
	for _, a := range args[1:] {
		k, val, ok := strings.Cut(a, "=")
		if !ok || k == "" {
			return geometry.Spec{}, fmt.Errorf("parameter %q is not key=value", a)
		}
		x, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return geometry.Spec{}, fmt.Errorf("%w: %s: %v", geometry.ErrInvalidParameter, k, err)
		}
		spec.Params[k] = x
	}
	return spec, nil
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
