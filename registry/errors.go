package registry

import "errors"

var (
	// ErrToolNotFound is returned by Get for an unregistered name.
	ErrToolNotFound = errors.New("tool not found")

	// ErrDuplicateTool is returned by Register on a name collision.
	ErrDuplicateTool = errors.New("tool already registered")
)
