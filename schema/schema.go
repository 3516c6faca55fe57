// Package schema derives machine-readable tool schemas and invocation
// templates from registry entries. It only reads the registry; it never
// invokes tools.
package schema

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/euler-vision/eulerbox/registry"
)

// Output formats accepted by Build.
const (
	FormatJSON     = "json"
	FormatTemplate = "template"
)

// Options controls schema generation.
type Options struct {
	// Format is FormatJSON or FormatTemplate; FormatTemplate adds the
	// rendered invocation template to the document.
	Format string
	// PlaceholderStyle selects the placeholder syntax.
	PlaceholderStyle Style
}

// Document is the machine-readable schema for one tool.
type Document struct {
	Tool          string         `json:"tool"`
	Description   string         `json:"description,omitempty"`
	Params        []ParamDoc     `json:"params"`
	GlobalOptions GlobalOptions  `json:"global_options"`
	SubSchemas    map[string]any `json:"sub_schemas,omitempty"`
	Template      string         `json:"template,omitempty"`
}

// ParamDoc describes one parameter. Default is raw JSON so that a
// literal null default survives serialization, distinct from "absent".
type ParamDoc struct {
	Name              string          `json:"name"`
	CLIName           string          `json:"cli_name"`
	Type              string          `json:"type"`
	Required          bool            `json:"required"`
	Default           json.RawMessage `json:"default,omitempty"`
	Help              string          `json:"help,omitempty"`
	Placeholder       string          `json:"placeholder,omitempty"`
	OriginPlaceholder string          `json:"origin_placeholder,omitempty"`
	Note              string          `json:"note,omitempty"`
}

// GlobalOptions are the two options every generated command carries,
// independent of the tool.
type GlobalOptions struct {
	OriginMap OriginMapOption `json:"origin_map"`
	LogLevel  LogLevelOption  `json:"log_level"`
}

// OriginMapOption documents the --origin-map flag.
type OriginMapOption struct {
	CLIName     string `json:"cli_name"`
	Placeholder string `json:"placeholder"`
	Format      string `json:"format"`
	Help        string `json:"help"`
}

// LogLevelOption documents the --log-level flag.
type LogLevelOption struct {
	CLIName string   `json:"cli_name"`
	Default string   `json:"default"`
	Choices []string `json:"choices"`
}

// LogLevels are the accepted --log-level values, in severity order.
var LogLevels = []string{"DEBUG", "INFO", "WARNING", "ERROR"}

// Build generates the schema document for one registered tool.
func Build(t registry.Tool, opts Options) Document {
	style := opts.PlaceholderStyle

	params := make([]ParamDoc, 0, len(t.Params))
	for _, p := range t.Params {
		params = append(params, buildParamDoc(p, style))
	}

	doc := Document{
		Tool:        t.Name,
		Description: t.Description,
		Params:      params,
		GlobalOptions: GlobalOptions{
			OriginMap: OriginMapOption{
				CLIName:     "--origin-map",
				Placeholder: RenderPlaceholder("origin.path", style),
				Format:      "<local_prefix>=<real_prefix>[,...]",
				Help:        "Comma-separated prefix rewrite rules for path origins.",
			},
			LogLevel: LogLevelOption{
				CLIName: "--log-level",
				Default: "INFO",
				Choices: LogLevels,
			},
		},
		SubSchemas: t.SubSchemas,
	}

	if opts.Format == FormatTemplate {
		doc.Template = buildTemplate(t, style)
	}

	return doc
}

func buildParamDoc(p registry.Param, style Style) ParamDoc {
	doc := ParamDoc{
		Name:     p.Name,
		CLIName:  "--" + p.CLIName(),
		Type:     typeTag(p),
		Required: p.Required,
		Help:     p.Help,
	}

	if p.HasDefault() {
		// Marshal failures cannot happen for declared defaults (scalars
		// and scalar slices); fall back to null rather than dropping.
		raw, err := json.Marshal(p.Default)
		if err != nil {
			raw = []byte("null")
		}
		doc.Default = raw
	}

	if p.Placeholder != "" {
		doc.Placeholder = RenderPlaceholder(p.Placeholder, style)
		if p.Shape == registry.ShapeTrackedPath || p.Shape == registry.ShapeTrackedPathList {
			doc.OriginPlaceholder = RenderPlaceholder(DeriveOriginPlaceholder(p.Placeholder), style)
		}
	}

	if p.Shape == registry.ShapeTrackedPathList {
		doc.Note = fmt.Sprintf(
			"Repeat --%s for each path. Optionally repeat --%s-origin in matching order.",
			p.CLIName(), p.CLIName(),
		)
	}

	return doc
}

func typeTag(p registry.Param) string {
	switch p.Shape {
	case registry.ShapeTrackedPathList:
		return "list[tracked_path]"
	case registry.ShapeTrackedPath:
		return "tracked_path"
	case registry.ShapeList:
		return "list"
	default:
		return string(p.Type)
	}
}

// buildTemplate renders the copy-pasteable invocation string for a tool:
// one --flag 'placeholder' segment per parameter in declaration order,
// list shapes marked repeatable.
func buildTemplate(t registry.Tool, style Style) string {
	parts := []string{"eulerbox run " + t.Name}
	for _, p := range t.Params {
		ph := "<" + p.Name + ">"
		if p.Placeholder != "" {
			ph = RenderPlaceholder(p.Placeholder, style)
		}
		segment := fmt.Sprintf("--%s '%s'", p.CLIName(), ph)
		if p.Shape == registry.ShapeList || p.Shape == registry.ShapeTrackedPathList {
			segment += " [...]"
		}
		parts = append(parts, segment)
	}
	return strings.Join(parts, " \\\n  ")
}
