package main

import (
	"encoding/binary"
	"sync/atomic"
	"testing"

	"github.com/go-kit/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memjournal/config"
	"memjournal/storage/journal"
)

func setFlags(t *testing.T, size string, batch, snapshotEvery int) {
	t.Helper()

	saved := CLI
	t.Cleanup(func() { CLI = saved })

	CLI.Size = size
	CLI.Batch = batch
	CLI.SnapshotEvery = snapshotEvery
	CLI.LogLevel = "info"
}

func newJournal(t *testing.T, pages int64) *journal.Writer {
	t.Helper()

	w, err := journal.NewWriter(log.NewNopLogger(), prometheus.NewRegistry(), config.JournalOptions{Size: pages * journal.PageSize})
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, w.Close())
	})

	return w
}

func TestWorkloadFillsJournal(t *testing.T) {
	setFlags(t, "64KiB", 4, 2)

	w := newJournal(t, 16)

	var stop atomic.Bool
	pages, err := workload(log.NewNopLogger(), w, &stop)
	require.NoError(t, err)

	assert.Equal(t, int64(16), pages)
	assert.Equal(t, int64(16), w.NextWritePosition())
}

func TestWorkloadStopsOnRequest(t *testing.T) {
	setFlags(t, "64KiB", 4, 2)

	w := newJournal(t, 16)

	var stop atomic.Bool
	stop.Store(true)

	pages, err := workload(log.NewNopLogger(), w, &stop)
	require.NoError(t, err)
	assert.Equal(t, int64(0), pages)
}

func TestVerifySnapshotDetectsMisnumberedPage(t *testing.T) {
	w := newJournal(t, 16)

	good := make([]byte, journal.PageSize)
	bad := make([]byte, journal.PageSize)
	binary.BigEndian.PutUint64(bad, 7)

	require.NoError(t, w.WriteGather(0, [][]byte{good, bad}))

	err := verifySnapshot(w)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "page 1 holds page number 7")
}

func TestRunRejectsBadFlags(t *testing.T) {
	setFlags(t, "not-a-size", 4, 2)
	require.Error(t, run(log.NewNopLogger()))

	setFlags(t, "64KiB", 0, 2)
	require.Error(t, run(log.NewNopLogger()))
}

func TestRun(t *testing.T) {
	setFlags(t, "64KiB", 4, 1)

	require.NoError(t, run(log.NewNopLogger()))
}
