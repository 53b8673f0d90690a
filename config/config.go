package config

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/notargets/elastowaves/cache"
	"github.com/notargets/elastowaves/eigen"
	"github.com/notargets/elastowaves/element"
)

// EnvPrefix prefixes the environment overrides, ELASTOWAVES_MATERIAL_E etc.
const EnvPrefix = "ELASTOWAVES"

type DataConfig struct {
	Dir       string `mapstructure:"dir"`
	Meshes    string `mapstructure:"meshes"`    // Defaults to Dir/meshes
	Solutions string `mapstructure:"solutions"` // Defaults to Dir/solutions
}

// MaterialConfig selects the physics, Kind is "elastic" or "acoustic"
type MaterialConfig struct {
	Kind  string  `mapstructure:"kind"`
	E     float64 `mapstructure:"e"`
	NU    float64 `mapstructure:"nu"`
	RHO   float64 `mapstructure:"rho"`
	Speed float64 `mapstructure:"speed"`
}

type EigenConfig struct {
	Mode  string  `mapstructure:"mode"`
	Count int     `mapstructure:"count"`
	Sigma float64 `mapstructure:"sigma"`
}

type CacheConfig struct {
	Encoding           string `mapstructure:"encoding"`
	CheckMesh          bool   `mapstructure:"check_mesh"`
	ReshapeConstraints bool   `mapstructure:"reshape_constraints"`
	VerifyParams       bool   `mapstructure:"verify_params"`
}

// Config holds all runtime configuration. Values come from the config file,
// ELASTOWAVES_* env vars and bound CLI flags, over the defaults below.
type Config struct {
	Data            DataConfig     `mapstructure:"data"`
	Material        MaterialConfig `mapstructure:"material"`
	Eigen           EigenConfig    `mapstructure:"eigen"`
	QuadratureOrder int            `mapstructure:"quadrature_order"`
	Cache           CacheConfig    `mapstructure:"cache"`
	Verbose         bool           `mapstructure:"verbose"`
}

// SetDefaults registers every key with its default on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("data.dir", "data")
	v.SetDefault("data.meshes", "")
	v.SetDefault("data.solutions", "")
	v.SetDefault("material.kind", "elastic")
	v.SetDefault("material.e", 1.0)
	v.SetDefault("material.nu", 0.3)
	v.SetDefault("material.rho", 1.0)
	v.SetDefault("material.speed", 1.0)
	v.SetDefault("eigen.mode", "smallest")
	v.SetDefault("eigen.count", 0)
	v.SetDefault("eigen.sigma", 0.0)
	v.SetDefault("quadrature_order", element.DefaultQuadratureOrder)
	v.SetDefault("cache.encoding", string(cache.Exact))
	v.SetDefault("cache.check_mesh", true)
	v.SetDefault("cache.reshape_constraints", true)
	v.SetDefault("cache.verify_params", false)
	v.SetDefault("verbose", false)
}

// Load reads configuration from v, applying built-in defaults for any value
// not set by config file, environment or flags
func Load(v *viper.Viper) (Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if cfg.Data.Meshes == "" {
		cfg.Data.Meshes = filepath.Join(cfg.Data.Dir, "meshes")
	}
	if cfg.Data.Solutions == "" {
		cfg.Data.Solutions = filepath.Join(cfg.Data.Dir, "solutions")
	}
	if _, err := cfg.MaterialModel(); err != nil {
		return Config{}, err
	}
	if _, err := cfg.EigenMode(); err != nil {
		return Config{}, err
	}
	if _, err := cache.ParseEncoding(cfg.Cache.Encoding); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// MaterialModel builds the configured material
func (c Config) MaterialModel() (element.Material, error) {
	var m element.Material
	switch strings.ToLower(c.Material.Kind) {
	case "elastic":
		m = element.Elastic{E: c.Material.E, NU: c.Material.NU, RHO: c.Material.RHO}
	case "acoustic":
		m = element.Acoustic{Speed: c.Material.Speed}
	default:
		return nil, fmt.Errorf("%w: unknown material kind %q", element.ErrInvalidMaterial, c.Material.Kind)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func (c Config) EigenMode() (eigen.Mode, error) {
	s, err := eigen.ParseStrategy(c.Eigen.Mode)
	if err != nil {
		return eigen.Mode{}, err
	}
	if s == eigen.NearShift {
		return eigen.ShiftInvert(c.Eigen.Sigma, c.Eigen.Count), nil
	}
	return eigen.SmallestMagnitude(c.Eigen.Count), nil
}

// CacheSettings maps the configuration onto cache.Config
func (c Config) CacheSettings(logger *slog.Logger) cache.Config {
	return cache.Config{
		MeshDir:            c.Data.Meshes,
		SolutionDir:        c.Data.Solutions,
		Encoding:           cache.Encoding(c.Cache.Encoding),
		CheckMesh:          c.Cache.CheckMesh,
		ReshapeConstraints: c.Cache.ReshapeConstraints,
		VerifyParams:       c.Cache.VerifyParams,
		Logger:             logger,
	}
}
