package model

import (
	"time"

	"gorm.io/datatypes"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&Distance{},
	&Angle{},
}

// Distance is one row of a session's distance log.
// Rows are ordered by ID, which follows insertion order.
type Distance struct {
	ID          uint           `json:"-" gorm:"primarykey;autoIncrement"`
	CreatedAt   time.Time      `json:"-"`
	SessionID   string         `json:"sessionId" gorm:"size:36;index:idx_distance_session"`
	RecordID    string         `json:"recordId" gorm:"size:36;uniqueIndex"`
	Value       float64        `json:"value"`
	CaptureTime float64        `json:"captureTime"`
	Points      datatypes.JSON `json:"points"`
	Geometry    string         `json:"geometry" gorm:"size:255"` // WKT
}

// TableName sets the table name for Distance
func (*Distance) TableName() string {
	return "distances"
}

// Angle is one row of a session's angle log.
type Angle struct {
	ID          uint           `json:"-" gorm:"primarykey;autoIncrement"`
	CreatedAt   time.Time      `json:"-"`
	SessionID   string         `json:"sessionId" gorm:"size:36;index:idx_angle_session"`
	RecordID    string         `json:"recordId" gorm:"size:36;uniqueIndex"`
	Value       float64        `json:"value"`
	CaptureTime float64        `json:"captureTime"`
	Points      datatypes.JSON `json:"points"`
	Geometry    string         `json:"geometry" gorm:"size:255"` // WKT
}

// TableName sets the table name for Angle
func (*Angle) TableName() string {
	return "angles"
}
