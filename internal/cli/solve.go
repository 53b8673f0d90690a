package cli

import (
	"errors"
	"fmt"
	"math"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/notargets/elastowaves/geometry"
)

// SolveOptions holds flags for the solve command
type SolveOptions struct {
	*RootOptions
	Force bool
	Show  int
}

type solveOutput struct {
	ID          string    `json:"id"`
	Cached      bool      `json:"cached"`
	Nodes       int       `json:"nodes"`
	Elements    int       `json:"elements"`
	Equations   int       `json:"equations"`
	Eigenvalues []float64 `json:"eigenvalues"`
}

// NewSolveCommand creates the solve command
func NewSolveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SolveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "solve <geometry> [key=value ...]",
		Short: "Compute or load the eigenmodes of one domain",
		Long: `Retrieve the eigenmodes of a domain from the cache, computing them on a
miss. Parameters are given as key=value pairs.

Example:
  elastowaves solve square side=1 mesh_size=0.1
  elastowaves solve circle radius=1 mesh_size=0.1 --material acoustic --show 20
  elastowaves solve isospectral_1_1 --force`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSolve(opts, cmd, args)
		},
	}

	cmd.Flags().BoolVarP(&opts.Force, "force", "f", false, "recompute even when cached")
	cmd.Flags().IntVar(&opts.Show, "show", 10, "number of eigenvalues to print, 0 for all")

	return cmd
}

func runSolve(opts *SolveOptions, cmd *cobra.Command, args []string) error {
	spec, err := parseSpec(args)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid geometry", err)
	}
	c, err := opts.newCache()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	rec, err := c.Retrieve(cmd.Context(), spec, opts.Force)
	if err != nil {
		code := ExitFailure
		if errors.Is(err, geometry.ErrUnknownGeometry) || errors.Is(err, geometry.ErrInvalidParameter) {
			code = ExitCommandError
		}
		return WrapExitError(code, "solve failed", err)
	}

	n := len(rec.Values)
	if opts.Show > 0 && opts.Show < n {
		n = opts.Show
	}
	out := solveOutput{
		ID:          rec.ID,
		Cached:      rec.Cached,
		Equations:   rec.Table.NEq,
		Eigenvalues: rec.Values[:n],
	}
	if rec.Mesh != nil {
		out.Nodes, out.Elements = rec.Mesh.NumNodes(), rec.Mesh.NumElements()
	}
	return output(cmd.OutOrStdout(), opts.Format, out, func(tw *tabwriter.Writer) {
		fmt.Fprintf(tw, "id\t%s\n", out.ID)
		fmt.Fprintf(tw, "cached\t%v\n", out.Cached)
		fmt.Fprintf(tw, "nodes\t%d\n", out.Nodes)
		fmt.Fprintf(tw, "elements\t%d\n", out.Elements)
		fmt.Fprintf(tw, "equations\t%d\n", out.Equations)
		fmt.Fprintf(tw, "\nmode\teigenvalue\tfrequency\n")
		for i, v := range out.Eigenvalues {
			fmt.Fprintf(tw, "%d\t%.8g\t%.6g\n", i, v, math.Sqrt(math.Max(v, 0)))
		}
	})
}
