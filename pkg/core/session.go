// pkg/core/session.go
package core

import (
	"fmt"

	"github.com/google/uuid"
)

// Mode is the interaction state of a measurement session.
type Mode int

const (
	ModeIdle Mode = iota
	ModeCapturing
	ModeSettingScale
)

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeCapturing:
		return "capturing"
	case ModeSettingScale:
		return "setting-scale"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Direction selects which neighbouring frame to step to.
type Direction int

const (
	Forward Direction = 1
	Back    Direction = -1
)

// ParseDirection accepts "forward", "next", "+" or "1", and their opposites.
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "forward", "next", "+", "1":
		return Forward, nil
	case "back", "backward", "prev", "-", "-1":
		return Back, nil
	}
	return 0, fmt.Errorf("unknown direction %q", s)
}

func (d Direction) String() string {
	if d == Back {
		return "back"
	}
	return "forward"
}

// DefaultFrameRate is assumed until the host sets or estimates one.
const DefaultFrameRate = 30.0

// Snapshot is a consistent copy of everything an export needs.
type Snapshot struct {
	SessionID       uuid.UUID
	VideoDimensions VideoDimensions
	CurrentTime     float64
	FrameRate       float64
	Calibration     *Calibration
	Distances       []DistanceRecord
	Angles          []AngleRecord
}
