package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/notargets/elastowaves/geometry"
)

// NewGeometriesCommand creates the geometries command
func NewGeometriesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "geometries",
		Short: "List the supported geometry types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kinds := geometry.Kinds()
			return output(cmd.OutOrStdout(), rootOpts.Format, kinds, func(tw *tabwriter.Writer) {
				for _, k := range kinds {
					fmt.Fprintln(tw, k)
				}
			})
		},
	}
}
