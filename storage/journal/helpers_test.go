package journal

import (
	"testing"

	"github.com/go-faker/faker/v4"
	"github.com/go-kit/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"memjournal/config"
)

func newTestWriter(t *testing.T, opts config.JournalOptions) *Writer {
	t.Helper()

	w, err := NewWriter(log.NewNopLogger(), prometheus.NewRegistry(), opts)
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, w.Close())
	})

	return w
}

// makeBatch builds n pages; every page starts with the batch tag and its index
// inside the batch, followed by random text.
func makeBatch(tag byte, n int) [][]byte {
	pages := make([][]byte, n)

	for i := range pages {
		p := make([]byte, PageSize)
		p[0] = tag
		p[1] = byte(i)
		copy(p[2:], faker.Sentence())
		pages[i] = p
	}

	return pages
}

func writeBatches(t *testing.T, w *Writer, sizes ...int) [][][]byte {
	t.Helper()

	batches := make([][][]byte, len(sizes))

	for i, n := range sizes {
		batches[i] = makeBatch(byte(i+1), n)
		require.NoError(t, w.WriteGather(w.NextWritePosition(), batches[i]))
	}

	return batches
}

type countingMemory struct {
	allocs int
	frees  int
}

func (m *countingMemory) alloc(size int) ([]byte, error) {
	m.allocs++
	return make([]byte, size), nil
}

func (m *countingMemory) free([]byte) error {
	m.frees++
	return nil
}
