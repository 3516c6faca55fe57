// Package origin implements tracked paths: path values that carry both a
// fast working copy (used for I/O) and a stable origin (used for
// provenance and logging), plus the prefix-rewrite rules that derive one
// from the other.
package origin

import (
	"os"
	"strings"
)

// TrackedPath pairs the working location of a dataset with the canonical
// location the data came from. Working is used for actual I/O; Origin is
// metadata only.
type TrackedPath struct {
	Working string
	Origin  string
}

// String returns the working path, so a TrackedPath can be handed to
// anything expecting a plain path.
func (p TrackedPath) String() string {
	return p.Working
}

// Rule rewrites one local prefix to the real prefix it mirrors.
type Rule struct {
	Local string
	Real  string
}

// Map is an ordered list of prefix-rewrite rules. Order matters: the
// first rule whose Local is a literal prefix of the working path wins.
type Map []Rule

// ParseMap parses "local1=real1,local2=real2,..." into a Map. Segments
// without an '=' or with an empty real side are skipped; Skipped returns
// them for the caller to report. Environment variables ($VAR and ${VAR})
// are expanded on both sides.
func ParseMap(raw string) (Map, []string) {
	var (
		m       Map
		skipped []string
	)
	for _, segment := range strings.Split(raw, ",") {
		local, real, found := strings.Cut(segment, "=")
		if !found || strings.TrimSpace(real) == "" {
			if strings.TrimSpace(segment) != "" {
				skipped = append(skipped, segment)
			}
			continue
		}
		m = append(m, Rule{
			Local: os.ExpandEnv(strings.TrimSpace(local)),
			Real:  os.ExpandEnv(strings.TrimSpace(real)),
		})
	}
	return m, skipped
}

// Resolve determines the origin for a working path.
//
// Priority, first rule wins:
//  1. explicit override (from a --<param>-origin flag)
//  2. first matching prefix rewrite in m, suffix kept verbatim
//  3. the working path itself
//
// Pure string manipulation; no filesystem access.
func Resolve(working, explicit string, m Map) string {
	if explicit != "" {
		return explicit
	}
	for _, rule := range m {
		if strings.HasPrefix(working, rule.Local) {
			return rule.Real + working[len(rule.Local):]
		}
	}
	return working
}

// New builds a TrackedPath for working by resolving its origin.
func New(working, explicit string, m Map) TrackedPath {
	return TrackedPath{
		Working: working,
		Origin:  Resolve(working, explicit, m),
	}
}
