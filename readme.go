// Package eulerbox is a CLI toolbox for multi-modal dataset processing:
// declarative tool registration, schema/template generation, and
// origin-tracked path resolution.
package eulerbox

import _ "embed"

// README is the project README, served by the root --readme flag.
//
//go:embed README.md
var README string
