// Command cosebicov computes the self-contained parts of the COSEBI
// covariance from tabulated inputs: the well decomposition of every
// mode kernel and the shot-noise covariance blocks. The ell-space
// covariance tensors come from the angular power-spectrum stage and
// are consumed through the cov package API, not through this command.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/BStoelzner/OneCovariance/config"
	"github.com/BStoelzner/OneCovariance/cov"
	"github.com/BStoelzner/OneCovariance/kernel"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var cfgPath, outDir string
	cmd := &cobra.Command{
		Use:          "cosebicov",
		Short:        "COSEBI covariance projection from tabulated kernels",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cfgPath, outDir)
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "config.yaml", "run configuration file")
	cmd.Flags().StringVarP(&outDir, "output", "o", ".", "output directory")
	return cmd
}

func run(cfgPath, outDir string) error {
	log, err := zap.NewDevelopment()
	if err != nil {
		return err
	}
	defer log.Sync()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	obs := cov.Observables{
		Clustering: cfg.Observables.Clustering,
		GGL:        cfg.Observables.GGL,
		Shear:      cfg.Observables.Shear,
		CrossTerms: cfg.Observables.CrossTerms,
	}
	dims := cov.Dims{
		Modes:     cfg.COSEBIs.Modes,
		Sample:    cfg.Dims.Sample,
		TomoClust: cfg.Dims.TomoClust,
		TomoLens:  cfg.Dims.TomoLens,
	}
	survey := cov.SurveyParams{
		AreaClust:             cfg.Survey.AreaClust,
		AreaGGL:               cfg.Survey.AreaGGL,
		AreaLens:              cfg.Survey.AreaLens,
		EllipticityDispersion: cfg.Survey.EllipticityDispersion,
	}

	grid, values, err := config.ReadKernelTable(cfg.Tables.Wn, cfg.COSEBIs.Modes)
	if err != nil {
		return err
	}
	modes, err := kernel.NewModeSet(grid, values)
	if err != nil {
		return err
	}
	for n := 0; n < modes.Modes(); n++ {
		log.Info("mode kernel wells",
			zap.Int("mode", n+1),
			zap.Int("wells", len(modes.Wells(n))-1))
	}

	theta, plus, err := config.ReadKernelTable(cfg.Tables.TnPlus, cfg.COSEBIs.Modes)
	if err != nil {
		return err
	}
	_, minus, err := config.ReadKernelTable(cfg.Tables.TnMinus, cfg.COSEBIs.Modes)
	if err != nil {
		return err
	}
	tn, err := kernel.NewCorrelationKernels(theta, plus, minus,
		cfg.COSEBIs.ThetaMin, cfg.COSEBIs.ThetaMax, log)
	if err != nil {
		return err
	}

	shot := &cov.ShotNoiseProjector{
		Kernels:  tn,
		ThetaMin: cfg.COSEBIs.ThetaMin,
		ThetaMax: cfg.COSEBIs.ThetaMax,
	}
	if shot.Clust, err = readPairCounts(cfg.Tables.NpairGG, dims.Sample); err != nil {
		return err
	}
	if shot.GGL, err = readPairCounts(cfg.Tables.NpairGM, dims.Sample); err != nil {
		return err
	}
	if shot.Lens, err = readPairCounts(cfg.Tables.NpairMM, dims.Sample); err != nil {
		return err
	}

	for _, c := range []cov.Combination{cov.GGGG, cov.GMGM, cov.MMMM} {
		if !obs.Enabled(c) {
			continue
		}
		t, err := shot.Project(c, dims, survey)
		if err != nil {
			return err
		}
		path := filepath.Join(outDir, "shotnoise_"+c.String()+".txt")
		if err := writeTensor(path, t.Modes(), t.FlatLen(), t.Data()); err != nil {
			return err
		}
		log.Info("shot-noise covariance written",
			zap.String("combination", c.String()),
			zap.String("path", path))
	}
	return nil
}

func readPairCounts(path string, sample int) (*cov.PairCounts, error) {
	if path == "" {
		return nil, nil
	}
	cols, err := config.ReadColumns(path)
	if err != nil {
		return nil, err
	}
	if len(cols) != sample*sample+1 {
		return nil, fmt.Errorf("%s: %d pair-count columns for %d sample-bin pairs",
			path, len(cols)-1, sample*sample)
	}
	theta := cols[0]
	counts := mat.NewDense(len(theta), sample*sample, nil)
	for ab, col := range cols[1:] {
		counts.SetCol(ab, col)
	}
	return &cov.PairCounts{Theta: theta, Counts: counts}, nil
}

func writeTensor(path string, modes, flat int, data []float64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	fmt.Fprintln(f, "# m n flat_index value")
	for m := 0; m < modes; m++ {
		for n := 0; n < modes; n++ {
			block := data[(m*modes+n)*flat : (m*modes+n+1)*flat]
			for q, v := range block {
				if v != 0 {
					fmt.Fprintf(f, "%d %d %d %.12e\n", m+1, n+1, q, v)
				}
			}
		}
	}
	return nil
}
