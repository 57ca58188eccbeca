package qem

import "errors"

// Simplification errors.
var (
	ErrInvalidTopology = errors.New("invalid mesh topology")
	ErrDegenerateMesh  = errors.New("degenerate mesh: no valid triangles")
	ErrInvalidOptions  = errors.New("invalid simplification options")
)
