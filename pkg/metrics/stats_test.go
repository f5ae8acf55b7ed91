package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSourceStatsSnapshot(t *testing.T) {
	var stats SourceStats
	require.Equal(t, SourceSnapshot{}, stats.Snapshot())

	ok := time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC)
	bad := ok.Add(10 * time.Second)

	stats.Attempt()
	stats.Success(ok)
	stats.Attempt()
	stats.Failure(bad)
	stats.Discard()

	snap := stats.Snapshot()
	require.EqualValues(t, 2, snap.Attempts)
	require.EqualValues(t, 1, snap.Successes)
	require.EqualValues(t, 1, snap.Failures)
	require.EqualValues(t, 1, snap.Discarded)
	require.NotNil(t, snap.LastSuccess)
	require.True(t, ok.Equal(*snap.LastSuccess))
	require.True(t, bad.Equal(*snap.LastFailure))
}
