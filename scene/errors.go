package scene

import (
	"github.com/pkg/errors"
)

var (
	ErrOwnershipConflict = errors.New("scene: transform components may not be shared")
	ErrIndexOutOfRange   = errors.New("scene: component index out of range")
	ErrNilComponent      = errors.New("scene: component is nil")
	ErrNotMaterialized   = errors.New("scene: mirror is not initialized")
	ErrNilContext        = errors.New("scene: nil context")
	ErrAlreadyParented   = errors.New("scene: node already has a parent")
	ErrCycle             = errors.New("scene: node would become its own ancestor")
)
