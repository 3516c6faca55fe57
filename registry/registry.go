// Package registry holds the in-process tool catalog: every dataset tool
// registers a descriptor (name, typed parameters, function handle) once
// at startup, and the CLI and schema generator read the catalog from
// then on. The registry is read-only after startup; concurrent readers
// never block each other.
package registry

import (
	"context"
	"fmt"
	"sync"
)

// Func is the single functional boundary through which a tool body is
// invoked. All parameters arrive fully resolved on the Invocation.
type Func func(ctx context.Context, inv *Invocation) error

// Tool describes one registered operation.
type Tool struct {
	Name        string
	Description string
	Params      []Param
	Func        Func

	// SubSchemas are opaque configuration-document schemas attached to
	// the tool (e.g. the fog-config schema). The registry never
	// interprets them; the schema generator emits them verbatim.
	SubSchemas map[string]any
}

// Registry is the catalog of registered tools, keyed by unique name,
// listing in registration order.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
	order []string
}

// New returns an empty registry. Build one at process start and pass it
// to the command builder and schema generator; there is no global.
func New() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool to the catalog. Registering a name twice is an
// error: tool names are static and a collision means two tool modules
// disagree, which should fail loudly at startup rather than last-wins.
func (r *Registry) Register(t Tool) error {
	if err := validateTool(t); err != nil {
		return fmt.Errorf("registering tool %q: %w", t.Name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[t.Name]; exists {
		return fmt.Errorf("registering tool %q: %w", t.Name, ErrDuplicateTool)
	}
	r.tools[t.Name] = t
	r.order = append(r.order, t.Name)
	return nil
}

// Get returns the tool registered under name.
func (r *Registry) Get(name string) (Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	if !ok {
		return Tool{}, fmt.Errorf("unknown tool %q: %w", name, ErrToolNotFound)
	}
	return t, nil
}

// List returns all tools in registration order.
func (r *Registry) List() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

func validateTool(t Tool) error {
	if t.Name == "" {
		return fmt.Errorf("tool name must not be empty")
	}
	if t.Func == nil {
		return fmt.Errorf("tool function must not be nil")
	}
	seen := make(map[string]struct{}, len(t.Params))
	for _, p := range t.Params {
		if err := validateParam(p); err != nil {
			return err
		}
		if _, dup := seen[p.Name]; dup {
			return fmt.Errorf("parameter %q declared twice", p.Name)
		}
		seen[p.Name] = struct{}{}
	}
	return nil
}

func validateParam(p Param) error {
	if p.Name == "" {
		return fmt.Errorf("parameter name must not be empty")
	}
	switch p.Shape {
	case ShapeScalar, ShapeList, ShapeTrackedPath, ShapeTrackedPathList:
	default:
		return fmt.Errorf("parameter %q has unknown shape %q", p.Name, p.Shape)
	}
	if p.Required && (p.Default != nil || p.NullDefault) {
		return fmt.Errorf("parameter %q is required and carries a default", p.Name)
	}
	if (p.Shape == ShapeTrackedPath || p.Shape == ShapeTrackedPathList) && p.Default != nil {
		return fmt.Errorf("tracked-path parameter %q must not carry a scalar default", p.Name)
	}
	return nil
}
