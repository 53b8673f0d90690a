package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/notargets/elastowaves/analysis"
	"github.com/notargets/elastowaves/geometry"
)

// ScanOptions holds flags for the scan command
type ScanOptions struct {
	*RootOptions
	Shapes []string
	Areas  []float64
}

type scanSample struct {
	Geometry string             `json:"geometry"`
	Params   map[string]float64 `json:"params"`
	Area     float64            `json:"area"`
	Modes    int                `json:"modes"`
	Ratio    float64            `json:"ratio"`
}

type scanOutput struct {
	Samples  []scanSample `json:"samples"`
	Slope    float64      `json:"slope"`
	RSquared float64      `json:"r_squared"`
}

// NewScanCommand creates the scan command
func NewScanCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ScanOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Fit area against N(R)/R over a range of areas",
		Long: `Solve squares and triangles of the given areas, mesh size one tenth of
the side, and fit area = slope * N(Rmax)/Rmax through the origin.

Example:
  elastowaves scan --shapes square,triangle --areas 1,2,3`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(opts, cmd)
		},
	}

	cmd.Flags().StringSliceVar(&opts.Shapes, "shapes", []string{string(geometry.Square), string(geometry.Triangle)}, "geometry types to scan")
	cmd.Flags().Float64SliceVar(&opts.Areas, "areas", []float64{1, 2, 3}, "areas to scan")

	return cmd
}

func runScan(opts *ScanOptions, cmd *cobra.Command) error {
	kinds := make([]geometry.Kind, len(opts.Shapes))
	for i, s := range opts.Shapes {
		kinds[i] = geometry.Kind(s)
	}
	c, err := opts.newCache()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	res, err := analysis.Scan(cmd.Context(), c, kinds, opts.Areas)
	if err != nil {
		return WrapExitError(ExitFailure, "scan failed", err)
	}

	out := scanOutput{Slope: res.Fit.Slope, RSquared: res.Fit.RSquared}
	for _, s := range res.Samples {
		out.Samples = append(out.Samples, scanSample{
			Geometry: string(s.Spec.Kind),
			Params:   s.Spec.Params,
			Area:     s.Area,
			Modes:    len(s.Values),
			Ratio:    analysis.Ratio(s.Values),
		})
	}
	return output(cmd.OutOrStdout(), opts.Format, out, func(tw *tabwriter.Writer) {
		fmt.Fprintf(tw, "geometry\tarea\tmodes\tN/R\n")
		for _, s := range out.Samples {
			fmt.Fprintf(tw, "%s\t%g\t%d\t%.6g\n", s.Geometry, s.Area, s.Modes, s.Ratio)
		}
		fmt.Fprintf(tw, "\nslope\t%.6g\n", out.Slope)
		fmt.Fprintf(tw, "R^2\t%.6g\n", out.RSquared)
	})
}
