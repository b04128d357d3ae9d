package journal

import (
	"github.com/pkg/errors"
)

// PageReader walks every page of a Pager snapshot in page number order.
type PageReader struct {
	pager *Pager
	buf   [PageSize]byte
	next  int64
	cur   int64
	err   error
}

func NewPageReader(pager *Pager) *PageReader {
	return &PageReader{pager: pager, cur: -1}
}

func (r *PageReader) Next() bool {
	if r.err != nil || r.next >= r.pager.NumberOfPages() {
		return false
	}

	ok, err := r.pager.copyPage(r.next, r.buf[:])

	if err != nil {
		r.err = err
		return false
	}

	if !ok {
		r.err = errors.Errorf("page %d missing from snapshot of %d pages", r.next, r.pager.NumberOfPages())
		return false
	}

	r.cur = r.next
	r.next++

	return true
}

// Page returns the current page. It is overwritten by the next call to Next.
func (r *PageReader) Page() []byte {
	return r.buf[:]
}

func (r *PageReader) PageNumber() int64 {
	return r.cur
}

func (r *PageReader) Err() error {
	return r.err
}
