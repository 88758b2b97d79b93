// internal/storage/storage.go
package storage

import (
	"errors"

	"github.com/vidcoord/vidcoord/pkg/core"
)

// ErrIndexOutOfRange is returned when removing a log entry that does not exist
var ErrIndexOutOfRange = errors.New("index out of range")

// Backend is the interface all measurement log implementations must satisfy.
// Both logs keep insertion order; indexes are zero-based positions in that order.
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Distance log
	AppendDistance(r core.DistanceRecord) error
	RemoveDistance(index int) error
	ClearDistances() error
	Distances() ([]core.DistanceRecord, error)

	// Angle log
	AppendAngle(r core.AngleRecord) error
	RemoveAngle(index int) error
	ClearAngles() error
	Angles() ([]core.AngleRecord, error)
}
