package journal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memjournal/config"
)

func TestPagerSnapshotStability(t *testing.T) {
	w := newTestWriter(t, config.JournalOptions{Size: 100 * PageSize, RandomAccess: true})

	batches := writeBatches(t, w, 3, 2)

	pager, err := w.CreatePager()
	require.NoError(t, err)
	assert.Equal(t, int64(5), pager.NumberOfPages())
	assert.Equal(t, 2, pager.Segments())

	writeBatches(t, w, 4, 1)

	var pages [][]byte
	for _, b := range batches {
		pages = append(pages, b...)
	}

	dst := make([]byte, PageSize)

	for i, want := range pages {
		found, err := pager.Read(int64(i), dst)
		require.NoError(t, err)
		require.True(t, found, "page %d", i)
		assert.Equal(t, want, dst, "page %d", i)
	}

	for i := int64(5); i < w.NextWritePosition(); i++ {
		found, err := pager.Read(i, dst)
		require.NoError(t, err)
		assert.False(t, found, "page %d written after the snapshot", i)
	}

	later, err := w.CreatePager()
	require.NoError(t, err)
	assert.Equal(t, int64(10), later.NumberOfPages())
	assert.Equal(t, int64(5), pager.NumberOfPages())
}

func TestPagerBoundaryOnly(t *testing.T) {
	w := newTestWriter(t, config.JournalOptions{Size: 100 * PageSize})

	batches := writeBatches(t, w, 3, 2, 4)

	pager, err := w.CreatePager()
	require.NoError(t, err)

	dst := make([]byte, PageSize)

	found, err := pager.Read(5, dst)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, batches[2][0], dst)

	found, err = pager.Read(4, dst)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestPagerOfEmptyJournal(t *testing.T) {
	w := newTestWriter(t, config.JournalOptions{Size: 100 * PageSize})

	pager, err := w.CreatePager()
	require.NoError(t, err)
	assert.Equal(t, int64(0), pager.NumberOfPages())

	found, err := pager.Read(0, make([]byte, PageSize))
	require.NoError(t, err)
	assert.False(t, found)
	require.NoError(t, pager.Verify())
}

func TestPagerVerify(t *testing.T) {
	w := newTestWriter(t, config.JournalOptions{Size: 100 * PageSize})

	writeBatches(t, w, 2, 3)

	pager, err := w.CreatePager()
	require.NoError(t, err)
	require.NoError(t, pager.Verify())

	pager.segments[1].page(1)[100] ^= 0xff

	err = pager.Verify()
	require.ErrorIs(t, err, ErrChecksumMismatch)

	var corruption *CorruptionErr
	require.ErrorAs(t, err, &corruption)
	assert.Equal(t, int64(3), corruption.Page)
}
