package registry

import "strings"

// Shape classifies how a parameter surfaces on the CLI and how its raw
// flag values are resolved before dispatch.
type Shape string

const (
	// ShapeScalar is a single typed value.
	ShapeScalar Shape = "scalar"
	// ShapeList is a repeatable flag of one scalar element type.
	ShapeList Shape = "list"
	// ShapeTrackedPath is a working path with an optional -origin companion.
	ShapeTrackedPath Shape = "tracked_path"
	// ShapeTrackedPathList is a repeatable path flag whose -origin
	// companion values match positionally by index.
	ShapeTrackedPathList Shape = "tracked_path_list"
)

// ValueType is the scalar type of a Scalar parameter or of a List's
// elements. Anything unrecognized is treated as a string.
type ValueType string

const (
	TypeString ValueType = "string"
	TypeInt    ValueType = "int"
	TypeFloat  ValueType = "float"
	TypeBool   ValueType = "bool"
)

// Param is one declared tool parameter. Declarations are static: the
// shape and scalar type are spelled out at registration instead of being
// recovered from a function signature.
//
// A parameter is required unless a default was declared. A literal null
// default (WithNullDefault) is distinct from "no default": the parameter
// becomes optional and the tool receives nil when the flag is unset.
type Param struct {
	Name        string
	Shape       Shape
	Type        ValueType
	Help        string
	Placeholder string

	Required    bool
	Default     any
	NullDefault bool
}

// NewParam declares a required parameter. Unrecognized value types
// collapse to string.
func NewParam(name string, shape Shape, typ ValueType) Param {
	switch typ {
	case TypeString, TypeInt, TypeFloat, TypeBool:
	default:
		typ = TypeString
	}
	return Param{Name: name, Shape: shape, Type: typ, Required: true}
}

// Shorthand constructors for the common declarations.

func String(name string) Param      { return NewParam(name, ShapeScalar, TypeString) }
func Int(name string) Param         { return NewParam(name, ShapeScalar, TypeInt) }
func Float(name string) Param       { return NewParam(name, ShapeScalar, TypeFloat) }
func Bool(name string) Param        { return NewParam(name, ShapeScalar, TypeBool) }
func StringList(name string) Param  { return NewParam(name, ShapeList, TypeString) }
func IntList(name string) Param     { return NewParam(name, ShapeList, TypeInt) }
func FloatList(name string) Param   { return NewParam(name, ShapeList, TypeFloat) }
func TrackedPath(name string) Param { return NewParam(name, ShapeTrackedPath, TypeString) }
func TrackedPathList(name string) Param {
	return NewParam(name, ShapeTrackedPathList, TypeString)
}

// WithDefault makes the parameter optional with the given literal default.
func (p Param) WithDefault(v any) Param {
	p.Required = false
	p.Default = v
	p.NullDefault = false
	return p
}

// WithNullDefault makes the parameter optional with a literal null
// default. The tool function sees nil when the flag is not provided.
func (p Param) WithNullDefault() Param {
	p.Required = false
	p.Default = nil
	p.NullDefault = true
	return p
}

// WithHelp attaches flag help text.
func (p Param) WithHelp(help string) Param {
	p.Help = help
	return p
}

// WithPlaceholder attaches the schema placeholder token.
func (p Param) WithPlaceholder(token string) Param {
	p.Placeholder = token
	return p
}

// CLIName returns the kebab-cased flag name for the parameter.
func (p Param) CLIName() string {
	return strings.ReplaceAll(p.Name, "_", "-")
}

// HasDefault reports whether the parameter carries a declared default,
// counting a literal null default.
func (p Param) HasDefault() bool {
	return !p.Required
}
