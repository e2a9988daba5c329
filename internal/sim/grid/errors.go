package grid

import "errors"

// Configuration errors fail loudly; they indicate a malformed ruleset or a
// misuse of the lifecycle. Runtime gameplay failures are not errors and
// surface as silent zero-reward skips instead.
var (
	ErrNotReset          = errors.New("grid: map has not been reset")
	ErrSlotOccupied      = errors.New("grid: location and z-index slot is occupied")
	ErrUnknownObjectName = errors.New("grid: object name has not been registered")
	ErrUnknownVariable   = errors.New("grid: variable has not been registered")
	ErrObjectRedefined   = errors.New("grid: object re-registered with a different variable set")
	ErrAlreadyOnGrid     = errors.New("grid: object is already on the grid")
)
