package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/notargets/elastowaves/geometry"
	"github.com/notargets/elastowaves/meshgen"
)

// MeshOptions holds flags for the mesh command
type MeshOptions struct {
	*RootOptions
	Output string
}

// NewMeshCommand creates the mesh command
func NewMeshCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MeshOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "mesh <geometry> [key=value ...]",
		Short: "Generate a quadratic triangle mesh without solving",
		Long: `Generate the tri6 mesh of a domain and write it in Gmsh 2.2 format.

Example:
  elastowaves mesh circle radius=1 mesh_size=0.2 -o circle.msh`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMesh(opts, cmd, args)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file (default <geometry>.msh)")

	return cmd
}

func runMesh(opts *MeshOptions, cmd *cobra.Command, args []string) error {
	spec, err := parseSpec(args)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid geometry", err)
	}
	b, err := geometry.Build(spec)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid geometry", err)
	}
	path := opts.Output
	if path == "" {
		path = string(spec.Kind) + ".msh"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err = os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	s, err := meshgen.Open(cmd.Context(), meshgen.WithLogger(opts.Logger))
	if err != nil {
		return err
	}
	defer s.Close()
	m, err := s.Generate(cmd.Context(), b)
	if err != nil {
		return WrapExitError(ExitFailure, "meshing failed", err)
	}
	if err = s.Write(path); err != nil {
		return err
	}

	out := map[string]interface{}{
		"path":           path,
		"nodes":          m.NumNodes(),
		"elements":       m.NumElements(),
		"boundary_nodes": len(m.BoundaryNodes),
		"area":           m.Area(),
	}
	return output(cmd.OutOrStdout(), opts.Format, out, func(tw *tabwriter.Writer) {
		fmt.Fprintf(tw, "path\t%s\n", path)
		fmt.Fprintf(tw, "nodes\t%d\n", m.NumNodes())
		fmt.Fprintf(tw, "elements\t%d\n", m.NumElements())
		fmt.Fprintf(tw, "boundary nodes\t%d\n", len(m.BoundaryNodes))
		fmt.Fprintf(tw, "area\t%.10g\n", m.Area())
	})
}
