// Package config reads the run configuration and the tabulated kernel
// and pair-count inputs the projection engine consumes.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

var ErrBadConfig = errors.New("invalid configuration")

// Config is the YAML run configuration.
type Config struct {
	Observables struct {
		Clustering bool `yaml:"clustering"`
		GGL        bool `yaml:"ggl"`
		Shear      bool `yaml:"shear"`
		CrossTerms bool `yaml:"cross_terms"`
	} `yaml:"observables"`
	COSEBIs struct {
		Modes    int     `yaml:"modes"`
		ThetaMin float64 `yaml:"theta_min"` // arcmin
		ThetaMax float64 `yaml:"theta_max"` // arcmin
		Accuracy float64 `yaml:"accuracy"`
	} `yaml:"cosebis"`
	Dims struct {
		Sample    int `yaml:"sample"`
		TomoClust int `yaml:"tomo_clust"`
		TomoLens  int `yaml:"tomo_lens"`
	} `yaml:"dims"`
	Survey struct {
		AreaClust             float64   `yaml:"area_clust"` // deg^2
		AreaGGL               float64   `yaml:"area_ggl"`
		AreaLens              float64   `yaml:"area_lens"`
		EllipticityDispersion []float64 `yaml:"ellipticity_dispersion"`
	} `yaml:"survey"`
	Tables struct {
		Wn        string `yaml:"wn_file"`
		TnPlus    string `yaml:"tn_plus_file"`
		TnMinus   string `yaml:"tn_minus_file"`
		NpairGG   string `yaml:"npair_gg_file"`
		NpairGM   string `yaml:"npair_gm_file"`
		NpairMM   string `yaml:"npair_mm_file"`
	} `yaml:"tables"`
	Workers int `yaml:"workers"`
}

// Load reads and validates a YAML configuration file.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.COSEBIs.Modes < 1 {
		return fmt.Errorf("%w: at least one COSEBI mode required", ErrBadConfig)
	}
	if c.COSEBIs.ThetaMin <= 0 || c.COSEBIs.ThetaMax <= c.COSEBIs.ThetaMin {
		return fmt.Errorf("%w: theta range must satisfy 0 < theta_min < theta_max", ErrBadConfig)
	}
	if c.COSEBIs.Accuracy <= 0 {
		c.COSEBIs.Accuracy = 1e-6
	}
	if c.Tables.Wn == "" {
		return fmt.Errorf("%w: the W_n kernels must be provided as an external table (wn_file)", ErrBadConfig)
	}
	if c.Tables.TnPlus == "" || c.Tables.TnMinus == "" {
		return fmt.Errorf("%w: the T_n kernels must be provided as external tables (tn_plus_file, tn_minus_file)", ErrBadConfig)
	}
	if !c.Observables.Clustering && !c.Observables.GGL && !c.Observables.Shear {
		return fmt.Errorf("%w: no observable enabled", ErrBadConfig)
	}
	if c.Dims.Sample < 1 {
		c.Dims.Sample = 1
	}
	if c.Dims.TomoLens < 1 && (c.Observables.Shear || c.Observables.GGL) {
		return fmt.Errorf("%w: tomo_lens required for shear or ggl", ErrBadConfig)
	}
	if c.Dims.TomoClust < 1 && (c.Observables.Clustering || c.Observables.GGL) {
		return fmt.Errorf("%w: tomo_clust required for clustering or ggl", ErrBadConfig)
	}
	if c.Workers < 1 {
		c.Workers = 1
	}
	return nil
}
