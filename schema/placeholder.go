package schema

import "strings"

// Style selects the placeholder syntax used in generated schemas and
// invocation templates.
type Style string

const (
	StyleMustache Style = "mustache"
	StyleShell    Style = "shell"
	StylePlain    Style = "plain"
)

// RenderPlaceholder wraps a raw placeholder token in the requested
// style. Unrecognized styles return the token unmodified, so rendering
// is total.
//
//	mustache  {{dataset_path}}
//	shell     ${dataset_path}
//	plain     dataset_path
func RenderPlaceholder(token string, style Style) string {
	switch style {
	case StyleMustache:
		return "{{" + token + "}}"
	case StyleShell:
		return "${" + token + "}"
	default:
		return token
	}
}

// DeriveOriginPlaceholder derives the placeholder for a tracked-path
// parameter's -origin companion: ":origin" is inserted before a trailing
// "[]" repeat marker, otherwise appended.
//
//	modality.path[]  ->  modality.path:origin[]
//	config.path      ->  config.path:origin
func DeriveOriginPlaceholder(token string) string {
	if strings.HasSuffix(token, "[]") {
		return token[:len(token)-2] + ":origin[]"
	}
	return token + ":origin"
}
