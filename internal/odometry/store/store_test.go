package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/lidar-odometry/internal/odometry"
)

func TestStoreRecordAndTrajectoryRoundTrip(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "trajectory.db")
	s, err := Open(dbPath)
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	id1, id2 := uuid.New(), uuid.New()
	t1 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.Add(100 * time.Millisecond)

	require.NoError(t, s.RecordSweep(ctx, id1, t1, odometry.Pose6{Tx: 1}))
	require.NoError(t, s.RecordSweep(ctx, id2, t2, odometry.Pose6{Tx: 2}))

	records, err := s.Trajectory(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, id1, records[0].SweepID)
	require.Equal(t, id2, records[1].SweepID)
	require.Equal(t, 2.0, records[1].Pose.Tx)
}

func TestStoreTrajectoryEmptyBeforeAnyRecord(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "trajectory.db")
	s, err := Open(dbPath)
	require.NoError(t, err)
	defer s.Close()

	records, err := s.Trajectory(context.Background())
	require.NoError(t, err)
	require.Empty(t, records)
}
