// internal/storage/memory/memory.go
package memory

import (
	"fmt"
	"sync"

	"github.com/vidcoord/vidcoord/internal/storage"
	"github.com/vidcoord/vidcoord/pkg/core"
)

// Backend keeps the measurement logs in ordered slices
type Backend struct {
	distances []core.DistanceRecord
	angles    []core.AngleRecord

	mu sync.RWMutex
}

// New creates a new memory backend
func New() *Backend {
	return &Backend{}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// AppendDistance adds a record to the end of the distance log
func (b *Backend) AppendDistance(r core.DistanceRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.distances = append(b.distances, r)
	return nil
}

// RemoveDistance deletes the record at index, keeping the order of the rest
func (b *Backend) RemoveDistance(index int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	var err error
	b.distances, err = removeAt(b.distances, index)
	return err
}

// ClearDistances empties the distance log
func (b *Backend) ClearDistances() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.distances = nil
	return nil
}

// Distances returns a copy of the distance log
func (b *Backend) Distances() ([]core.DistanceRecord, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]core.DistanceRecord(nil), b.distances...), nil
}

// AppendAngle adds a record to the end of the angle log
func (b *Backend) AppendAngle(r core.AngleRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.angles = append(b.angles, r)
	return nil
}

// RemoveAngle deletes the record at index, keeping the order of the rest
func (b *Backend) RemoveAngle(index int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	var err error
	b.angles, err = removeAt(b.angles, index)
	return err
}

// ClearAngles empties the angle log
func (b *Backend) ClearAngles() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.angles = nil
	return nil
}

// Angles returns a copy of the angle log
func (b *Backend) Angles() ([]core.AngleRecord, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]core.AngleRecord(nil), b.angles...), nil
}

func removeAt[T any](s []T, index int) ([]T, error) {
	if index < 0 || index >= len(s) {
		return s, fmt.Errorf("%w: %d (len %d)", storage.ErrIndexOutOfRange, index, len(s))
	}
	out := make([]T, 0, len(s)-1)
	out = append(out, s[:index]...)
	return append(out, s[index+1:]...), nil
}
