package registry

import (
	"github.com/euler-vision/eulerbox/origin"
)

// Invocation carries the fully resolved arguments for one tool call.
// Values are keyed by parameter name (not CLI name) and typed according
// to the parameter's declared shape:
//
//	Scalar           string | int | float64 | bool (nil for null default)
//	List             []string | []int | []float64
//	TrackedPath      origin.TrackedPath
//	TrackedPathList  []origin.TrackedPath
//
// Invocations live for a single dispatch and are not retained.
type Invocation struct {
	// RunID correlates all logs and telemetry for one dispatch.
	RunID string

	// OriginMap is the prefix-rewrite map parsed once for this
	// invocation; exposed for tool bodies that log provenance.
	OriginMap origin.Map

	values map[string]any
}

// NewInvocation returns an empty invocation for the given run.
func NewInvocation(runID string, m origin.Map) *Invocation {
	return &Invocation{RunID: runID, OriginMap: m, values: make(map[string]any)}
}

// Set stores a resolved value. A nil value records a literal null.
func (inv *Invocation) Set(name string, v any) {
	inv.values[name] = v
}

// Value returns the raw value and whether a non-nil value is present.
func (inv *Invocation) Value(name string) (any, bool) {
	v, ok := inv.values[name]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// GetString returns a scalar string argument.
func (inv *Invocation) GetString(name string) (string, bool) {
	v, ok := inv.Value(name)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// GetInt returns a scalar int argument.
func (inv *Invocation) GetInt(name string) (int, bool) {
	v, ok := inv.Value(name)
	if !ok {
		return 0, false
	}
	n, ok := v.(int)
	return n, ok
}

// GetFloat returns a scalar float argument.
func (inv *Invocation) GetFloat(name string) (float64, bool) {
	v, ok := inv.Value(name)
	if !ok {
		return 0, false
	}
	f, ok := v.(float64)
	return f, ok
}

// GetBool returns a scalar bool argument.
func (inv *Invocation) GetBool(name string) (bool, bool) {
	v, ok := inv.Value(name)
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// GetStrings returns a string-list argument.
func (inv *Invocation) GetStrings(name string) []string {
	v, ok := inv.Value(name)
	if !ok {
		return nil
	}
	s, _ := v.([]string)
	return s
}

// GetInts returns an int-list argument.
func (inv *Invocation) GetInts(name string) []int {
	v, ok := inv.Value(name)
	if !ok {
		return nil
	}
	s, _ := v.([]int)
	return s
}

// GetFloats returns a float-list argument.
func (inv *Invocation) GetFloats(name string) []float64 {
	v, ok := inv.Value(name)
	if !ok {
		return nil
	}
	s, _ := v.([]float64)
	return s
}

// GetTracked returns a tracked-path argument.
func (inv *Invocation) GetTracked(name string) (origin.TrackedPath, bool) {
	v, ok := inv.Value(name)
	if !ok {
		return origin.TrackedPath{}, false
	}
	tp, ok := v.(origin.TrackedPath)
	return tp, ok
}

// GetTrackedList returns a tracked-path-list argument.
func (inv *Invocation) GetTrackedList(name string) []origin.TrackedPath {
	v, ok := inv.Value(name)
	if !ok {
		return nil
	}
	s, _ := v.([]origin.TrackedPath)
	return s
}
