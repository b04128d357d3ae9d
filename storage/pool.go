package storage

import (
	"sync"

	"memjournal/storage/journal"
)

// PagePool hands out zeroed journal.PageSize buffers for building gather batches.
type PagePool struct {
	pool sync.Pool
}

func NewPagePool() *PagePool {
	return &PagePool{
		pool: sync.Pool{
			New: func() any {
				buf := new([]byte) // Attempt to force allocation on heap.
				*buf = make([]byte, journal.PageSize)
				return buf
			},
		},
	}
}

func (p *PagePool) GetPage() *[]byte {
	return p.pool.Get().(*[]byte)
}

// GetBatch returns n pages, each ready to be filled and passed to Writer.WriteGather.
func (p *PagePool) GetBatch(n int) []*[]byte {
	batch := make([]*[]byte, n)

	for i := range batch {
		batch[i] = p.GetPage()
	}

	return batch
}

func (p *PagePool) PutPage(b *[]byte) {
	buf := (*b)[:journal.PageSize]
	clear(buf)
	*b = buf

	p.pool.Put(b)
}

func (p *PagePool) PutBatch(batch []*[]byte) {
	for _, b := range batch {
		p.PutPage(b)
	}
}

// Pages flattens a batch into the shape Writer.WriteGather expects.
func Pages(batch []*[]byte) [][]byte {
	pages := make([][]byte, len(batch))

	for i, b := range batch {
		pages[i] = *b
	}

	return pages
}
