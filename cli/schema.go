package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/euler-vision/eulerbox/registry"
	"github.com/euler-vision/eulerbox/schema"
)

// NewSchemaCmd creates the "schema" command: machine-readable tool
// schemas as JSON on stdout.
func NewSchemaCmd(reg *registry.Registry) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema [tool]",
		Short: "Print the JSON schema for one tool or all tools",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			all, _ := cmd.Flags().GetBool("all")
			format, _ := cmd.Flags().GetString("format")
			styleValue, _ := cmd.Flags().GetString("placeholder-style")

			style, err := parseStyle(styleValue)
			if err != nil {
				return exitError(exitValidation, "%s", err)
			}
			switch format {
			case schema.FormatJSON, schema.FormatTemplate:
			default:
				return exitError(exitValidation, "unknown format %q (use json or template)", format)
			}
			opts := schema.Options{Format: format, PlaceholderStyle: style}

			if all {
				docs := make([]schema.Document, 0, reg.Len())
				for _, t := range reg.List() {
					docs = append(docs, schema.Build(t, opts))
				}
				return printJSON(cmd, docs)
			}

			if len(args) == 0 {
				return exitError(exitValidation, "a tool name or --all is required")
			}
			t, err := reg.Get(args[0])
			if err != nil {
				return exitError(exitValidation, "%s", err)
			}
			return printJSON(cmd, schema.Build(t, opts))
		},
	}
	cmd.Flags().Bool("all", false, "Emit schemas for every registered tool")
	cmd.Flags().String("format", schema.FormatJSON, "Output format: json or template")
	cmd.Flags().String("placeholder-style", string(schema.StyleMustache),
		"Placeholder syntax: mustache, shell, or plain")
	return cmd
}

func parseStyle(value string) (schema.Style, error) {
	switch schema.Style(value) {
	case schema.StyleMustache, schema.StyleShell, schema.StylePlain:
		return schema.Style(value), nil
	default:
		return "", fmt.Errorf("unknown placeholder style %q (use mustache, shell, or plain)", value)
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return exitError(exitRuntime, "serializing schema: %v", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
