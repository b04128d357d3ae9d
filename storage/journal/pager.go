package journal

// Pager is a read-only view over the segments a Writer held when the pager
// was created. It shares segment memory with the writer and never frees it.
//
// A Pager must not be used after its writer is closed; every call then
// returns ErrDisposed.
type Pager struct {
	w        *Writer
	segments segments
	pages    int64
}

func newPager(w *Writer, ss segments) *Pager {
	return &Pager{
		w:        w,
		segments: ss,
		pages:    ss.pages(),
	}
}

// NumberOfPages is the number of pages visible through the snapshot.
func (p *Pager) NumberOfPages() int64 {
	return p.pages
}

func (p *Pager) Segments() int {
	return len(p.segments)
}

// Read copies bytes starting at pageNumber into dst, up to len(dst) or the end
// of the owning segment.
//
// Unless the writer was built with RandomAccess, only the first page of each
// gather batch resolves: after batches of 3 and 2 pages, pages 0 and 3 are
// found while 1, 2 and 4 are not.
func (p *Pager) Read(pageNumber int64, dst []byte) (bool, error) {
	p.w.mutex.RLock()
	defer p.w.mutex.RUnlock()

	if p.w.disposed {
		return false, ErrDisposed
	}

	s, i, ok := p.segments.resolve(pageNumber, p.w.randomAccess)

	if !ok {
		return false, nil
	}

	copy(dst, s.from(i))

	return true, nil
}

// copyPage copies exactly one page, resolving any page number in the snapshot.
func (p *Pager) copyPage(pageNumber int64, dst []byte) (bool, error) {
	p.w.mutex.RLock()
	defer p.w.mutex.RUnlock()

	if p.w.disposed {
		return false, ErrDisposed
	}

	s, i, ok := p.segments.resolve(pageNumber, true)

	if !ok {
		return false, nil
	}

	copy(dst, s.page(i))

	return true, nil
}

// Verify checks every page against the checksum recorded when it was written.
func (p *Pager) Verify() error {
	p.w.mutex.RLock()
	defer p.w.mutex.RUnlock()

	if p.w.disposed {
		return ErrDisposed
	}

	var pos int64

	for _, s := range p.segments {
		if i, ok := s.verify(); !ok {
			return &CorruptionErr{Page: pos + i, Err: ErrChecksumMismatch}
		}

		pos += s.pages
	}

	return nil
}
