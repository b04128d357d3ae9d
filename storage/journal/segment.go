package journal

import (
	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"
)

type memory interface {
	alloc(size int) ([]byte, error)
	free(buf []byte) error
}

type heapMemory struct{}

func (heapMemory) alloc(size int) ([]byte, error) {
	return make([]byte, size), nil
}

func (heapMemory) free([]byte) error {
	return nil
}

// segment is a run of pages written by a single gather call. Its memory is
// immutable once the segment is published and is released only by the Writer.
type segment struct {
	buf      []byte
	pages    int64
	sums     []uint64
	released bool
}

func newSegment(mem memory, pages [][]byte) (*segment, error) {
	buf, err := mem.alloc(len(pages) * PageSize)

	if err != nil {
		return nil, errors.Wrapf(err, "allocate segment of %d pages", len(pages))
	}

	s := &segment{
		buf:   buf,
		pages: int64(len(pages)),
		sums:  make([]uint64, len(pages)),
	}

	for i, p := range pages {
		dst := s.page(int64(i))
		copy(dst, p[:PageSize])
		s.sums[i] = xxhash.Sum64(dst)
	}

	return s, nil
}

func (s *segment) page(i int64) []byte {
	off := pagesToBytes(i)
	return s.buf[off : off+PageSize]
}

// from returns the bytes from the start of page i to the end of the segment.
func (s *segment) from(i int64) []byte {
	return s.buf[pagesToBytes(i):]
}

// verify returns the index of the first page whose checksum no longer matches.
func (s *segment) verify() (int64, bool) {
	for i := int64(0); i < s.pages; i++ {
		if xxhash.Sum64(s.page(i)) != s.sums[i] {
			return i, false
		}
	}

	return 0, true
}

func (s *segment) release(mem memory) error {
	if s.released {
		return nil
	}

	buf := s.buf
	s.buf = nil
	s.released = true

	return mem.free(buf)
}

type segments []*segment

// resolve finds the segment holding pageNumber by accumulating page counts in
// write order. Without randomAccess only a segment's first page resolves; page
// numbers inside a multi-page segment miss.
func (ss segments) resolve(pageNumber int64, randomAccess bool) (*segment, int64, bool) {
	var pos int64

	for _, s := range ss {
		if randomAccess {
			if pageNumber >= pos && pageNumber < pos+s.pages {
				return s, pageNumber - pos, true
			}
		} else if pos == pageNumber {
			return s, 0, true
		}

		pos += s.pages
	}

	return nil, 0, false
}

func (ss segments) pages() int64 {
	var n int64

	for _, s := range ss {
		n += s.pages
	}

	return n
}
