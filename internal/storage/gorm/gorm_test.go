package gormstorage

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vidcoord/vidcoord/internal/database"
	"github.com/vidcoord/vidcoord/internal/storage"
	"github.com/vidcoord/vidcoord/pkg/core"
	"gorm.io/gorm"
)

// Compile-time interface check
var _ storage.Backend = (*Backend)(nil)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.GetSqliteDB("")
	require.NoError(t, err)
	t.Cleanup(func() { database.Close(db) })
	return db
}

func newTestBackend(t *testing.T, db *gorm.DB) *Backend {
	t.Helper()
	b := New(Dependencies{DB: db, SessionID: uuid.New()})
	require.NoError(t, b.Init())
	return b
}

func distance(v float64) core.DistanceRecord {
	return core.DistanceRecord{
		ID:          uuid.New(),
		Value:       v,
		CaptureTime: v / 10,
		Points:      [2]core.Point{{X: 0, Y: 0}, {X: v, Y: 0}},
	}
}

func angle(v float64) core.AngleRecord {
	return core.AngleRecord{
		ID:     uuid.New(),
		Value:  v,
		Points: [3]core.Point{{X: 1, Y: 0}, {X: 0, Y: 0}, {X: 0, Y: 1}},
	}
}

func TestInit_NoDB(t *testing.T) {
	b := New(Dependencies{})
	require.Error(t, b.Init())
}

func TestAppendAndList(t *testing.T) {
	b := newTestBackend(t, newTestDB(t))

	records := []core.DistanceRecord{distance(3), distance(1), distance(2)}
	for _, r := range records {
		require.NoError(t, b.AppendDistance(r))
	}

	got, err := b.Distances()
	require.NoError(t, err)
	assert.Equal(t, records, got)
}

func TestRemoveDistance_PreservesOrder(t *testing.T) {
	b := newTestBackend(t, newTestDB(t))

	records := []core.DistanceRecord{distance(1), distance(2), distance(3), distance(4)}
	for _, r := range records {
		require.NoError(t, b.AppendDistance(r))
	}

	require.NoError(t, b.RemoveDistance(2))

	got, err := b.Distances()
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []core.DistanceRecord{records[0], records[1], records[3]}, got)
}

func TestRemoveAngle_OutOfRange(t *testing.T) {
	b := newTestBackend(t, newTestDB(t))
	require.NoError(t, b.AppendAngle(angle(90)))

	assert.ErrorIs(t, b.RemoveAngle(1), storage.ErrIndexOutOfRange)
	assert.ErrorIs(t, b.RemoveAngle(-1), storage.ErrIndexOutOfRange)

	got, err := b.Angles()
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestRemoveAngle(t *testing.T) {
	b := newTestBackend(t, newTestDB(t))
	first, second := angle(30), angle(60)
	require.NoError(t, b.AppendAngle(first))
	require.NoError(t, b.AppendAngle(second))

	require.NoError(t, b.RemoveAngle(0))

	got, err := b.Angles()
	require.NoError(t, err)
	assert.Equal(t, []core.AngleRecord{second}, got)
}

func TestClear_OnlyTouchesOneLog(t *testing.T) {
	b := newTestBackend(t, newTestDB(t))
	require.NoError(t, b.AppendDistance(distance(5)))
	require.NoError(t, b.AppendAngle(angle(45)))

	require.NoError(t, b.ClearDistances())

	d, err := b.Distances()
	require.NoError(t, err)
	assert.Empty(t, d)
	a, err := b.Angles()
	require.NoError(t, err)
	assert.Len(t, a, 1)

	require.NoError(t, b.ClearAngles())
	a, err = b.Angles()
	require.NoError(t, err)
	assert.Empty(t, a)
}

func TestSessionsAreIsolated(t *testing.T) {
	db := newTestDB(t)
	one := newTestBackend(t, db)
	two := newTestBackend(t, db)

	require.NoError(t, one.AppendDistance(distance(1)))
	require.NoError(t, two.AppendDistance(distance(2)))
	require.NoError(t, two.ClearDistances())

	d, err := one.Distances()
	require.NoError(t, err)
	assert.Len(t, d, 1)
}
