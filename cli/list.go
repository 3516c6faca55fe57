package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/euler-vision/eulerbox/registry"
)

// NewListCmd creates the "list" command: registered tools in
// registration order.
func NewListCmd(reg *registry.Registry) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered tools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			writer := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 2, 2, ' ', 0)
			fmt.Fprintln(writer, "NAME\tDESCRIPTION")
			for _, t := range reg.List() {
				description := t.Description
				if description == "" {
					description = "-"
				}
				fmt.Fprintf(writer, "%s\t%s\n", t.Name, description)
			}
			return writer.Flush()
		},
	}
}
