package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/notargets/elastowaves/analysis"
	"github.com/notargets/elastowaves/geometry"
)

// CompareOptions holds flags for the compare command
type CompareOptions struct {
	*RootOptions
	Limit int
	Show  int
}

type compareOutput struct {
	A             string    `json:"a"`
	B             string    `json:"b"`
	Compared      int       `json:"compared"`
	MeanRelError  float64   `json:"mean_relative_error_pct"`
	MaxRelError   float64   `json:"max_relative_error_pct"`
	RelativeError []float64 `json:"relative_error_pct,omitempty"`
}

// NewCompareCommand creates the compare command
func NewCompareCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompareOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compare <geometry-a> <geometry-b>",
		Short: "Compare the spectra of two domains",
		Long: `Pair the eigenvalues of two parameterless domains by index and report
the relative error, for instance to test whether two shapes are isospectral.

Example:
  elastowaves compare isospectral_1_1 isospectral_1_2 --limit 1000`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompare(opts, cmd, args)
		},
	}

	cmd.Flags().IntVar(&opts.Limit, "limit", 1000, "number of leading eigenvalues to pair, 0 for all")
	cmd.Flags().IntVar(&opts.Show, "show", 10, "number of relative errors to print")

	return cmd
}

func runCompare(opts *CompareOptions, cmd *cobra.Command, args []string) error {
	a := geometry.Spec{Kind: geometry.Kind(args[0])}
	b := geometry.Spec{Kind: geometry.Kind(args[1])}
	c, err := opts.newCache()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	cmp, err := analysis.ComparePair(cmd.Context(), c, a, b, opts.Limit)
	if err != nil {
		return WrapExitError(ExitFailure, "compare failed", err)
	}

	out := compareOutput{
		A:            args[0],
		B:            args[1],
		Compared:     len(cmp.RelativeError),
		MeanRelError: cmp.Mean,
		MaxRelError:  cmp.Max,
	}
	n := len(cmp.RelativeError)
	if opts.Show < n {
		n = opts.Show
	}
	out.RelativeError = cmp.RelativeError[:n]
	return output(cmd.OutOrStdout(), opts.Format, out, func(tw *tabwriter.Writer) {
		fmt.Fprintf(tw, "index\t%s\t%s\trel. error %%\n", out.A, out.B)
		for i := 0; i < n; i++ {
			fmt.Fprintf(tw, "%d\t%.8g\t%.8g\t%.4f\n", i, cmp.A[i], cmp.B[i], cmp.RelativeError[i])
		}
		fmt.Fprintf(tw, "\ncompared\t%d\n", out.Compared)
		fmt.Fprintf(tw, "mean rel. error %%\t%.6g\n", out.MeanRelError)
		fmt.Fprintf(tw, "max rel. error %%\t%.6g\n", out.MaxRelError)
	})
}
