package journal

import (
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"memjournal/config"
)

// Writer is an in-memory journal. It accepts strictly sequential gather
// writes, each stored as one immutable segment, and serves reads either
// directly or through Pager snapshots.
//
// WriteGather and Close hold the exclusive lock. Read, CreatePager and every
// Pager call hold the shared lock, so a reader sees a batch entirely or not at all.
type Writer struct {
	logger     log.Logger
	metrics    *JournalMetrics
	registerer prometheus.Registerer
	mem        memory
	id         string

	allocatedPages  int64
	enforceCapacity bool
	randomAccess    bool
	deleteOnClose   atomic.Bool

	mutex    sync.RWMutex
	segments segments
	lastPos  int64
	disposed bool
}

func NewWriter(logger log.Logger, registerer prometheus.Registerer, opts config.JournalOptions) (*Writer, error) {
	if opts.Size < 0 {
		return nil, errors.Wrapf(ErrInvalidJournalSize, "size %d", opts.Size)
	}

	id := uuid.New().String()

	w := &Writer{
		logger:          log.With(logger, "journal", id),
		mem:             newMemory(opts.UnmanagedMemory),
		id:              id,
		allocatedPages:  bytesToPages(opts.Size),
		enforceCapacity: opts.EnforceCapacity,
		randomAccess:    opts.RandomAccess,
	}

	w.deleteOnClose.Store(opts.DeleteOnClose)

	if registerer != nil {
		registerer = prometheus.WrapRegistererWith(prometheus.Labels{"journal": id},
			prometheus.WrapRegistererWithPrefix("storage_journal_", registerer))
	}

	w.registerer = registerer
	w.metrics = NewJournalMetrics(registerer)
	w.metrics.allocatedPages.Set(float64(w.allocatedPages))

	level.Debug(w.logger).Log("msg", "journal created", "allocated_pages", w.allocatedPages,
		"random_access", w.randomAccess, "unmanaged_memory", opts.UnmanagedMemory)

	return w, nil
}

func (w *Writer) ID() string {
	return w.id
}

// AllocatedPages is the advisory capacity derived from the journal size.
func (w *Writer) AllocatedPages() int64 {
	return w.allocatedPages
}

func (w *Writer) DeleteOnClose() bool {
	return w.deleteOnClose.Load()
}

func (w *Writer) SetDeleteOnClose(v bool) {
	w.deleteOnClose.Store(v)
}

func (w *Writer) Disposed() bool {
	w.mutex.RLock()
	defer w.mutex.RUnlock()

	return w.disposed
}

// NextWritePosition is the page position the next WriteGather must claim.
// It always equals the pages held by the journal, so it is 0 once closed.
func (w *Writer) NextWritePosition() int64 {
	w.mutex.RLock()
	defer w.mutex.RUnlock()

	return w.lastPos
}

// WriteGather appends pages as a single segment. position must equal
// NextWritePosition; any other value fails with ErrOrderingViolation and
// leaves the journal untouched. Only the first PageSize bytes of each page
// are copied.
func (w *Writer) WriteGather(position int64, pages [][]byte) error {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if err := w.writeGather(position, pages); err != nil {
		w.metrics.writesFailed.Inc()
		return err
	}

	return nil
}

func (w *Writer) writeGather(position int64, pages [][]byte) error {
	if w.disposed {
		return ErrDisposed
	}

	if position != w.lastPos {
		w.metrics.orderingViolations.Inc()
		level.Warn(w.logger).Log("msg", "out of order gather write", "position", position, "expected", w.lastPos)

		return errors.Wrapf(ErrOrderingViolation, "position %d, expected %d", position, w.lastPos)
	}

	for i, p := range pages {
		if len(p) < PageSize {
			return errors.Wrapf(ErrInvalidPage, "page %d of batch has %d bytes", i, len(p))
		}
	}

	if len(pages) == 0 {
		return nil
	}

	next := w.lastPos + int64(len(pages))

	if next > w.allocatedPages {
		if w.enforceCapacity {
			return errors.Wrapf(ErrCapacityExceeded, "batch of %d pages at %d, capacity %d", len(pages), position, w.allocatedPages)
		}

		if w.lastPos <= w.allocatedPages {
			level.Warn(w.logger).Log("msg", "journal grew past its allocated pages", "allocated_pages", w.allocatedPages, "next_write_position", next)
		}
	}

	start := time.Now()

	s, err := newSegment(w.mem, pages)

	if err != nil {
		return err
	}

	w.segments = append(w.segments, s)
	w.lastPos = next

	w.metrics.gatherDuration.Observe(time.Since(start).Seconds())
	w.metrics.gatherWrites.Inc()
	w.metrics.pagesWritten.Add(float64(len(pages)))
	w.metrics.segments.Set(float64(len(w.segments)))
	w.metrics.nextWritePosition.Set(float64(w.lastPos))

	return nil
}

// Read copies bytes starting at pageNumber into dst, up to len(dst) or the end
// of the owning segment. It reports false when no segment resolves pageNumber.
// See Pager.Read for how page numbers resolve.
func (w *Writer) Read(pageNumber int64, dst []byte) (bool, error) {
	w.mutex.RLock()
	defer w.mutex.RUnlock()

	if w.disposed {
		return false, ErrDisposed
	}

	s, i, ok := w.segments.resolve(pageNumber, w.randomAccess)

	if !ok {
		w.metrics.reads.WithLabelValues("miss").Inc()
		return false, nil
	}

	copy(dst, s.from(i))
	w.metrics.reads.WithLabelValues("hit").Inc()

	return true, nil
}

// CreatePager returns a snapshot of the segments written so far. Later writes
// are never visible through it.
func (w *Writer) CreatePager() (*Pager, error) {
	w.mutex.RLock()
	defer w.mutex.RUnlock()

	if w.disposed {
		return nil, ErrDisposed
	}

	w.metrics.pagersCreated.Inc()

	return newPager(w, slices.Clone(w.segments)), nil
}

// Close releases the memory of every segment exactly once. Pagers created
// from the writer fail with ErrDisposed afterwards. Calling Close again is a no-op.
func (w *Writer) Close() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if w.disposed {
		return nil
	}

	w.disposed = true

	var (
		firstErr error
		pages    = w.segments.pages()
		count    = len(w.segments)
	)

	for i, s := range w.segments {
		if err := s.release(w.mem); err != nil {
			level.Error(w.logger).Log("msg", "error releasing segment", "err", err, "segment", i)

			if firstErr == nil {
				firstErr = errors.Wrapf(err, "release segment %d", i)
			}
		}
	}

	w.segments = nil
	w.lastPos = 0
	w.metrics.unregister(w.registerer)

	level.Info(w.logger).Log("msg", "journal disposed", "segments", count, "pages", pages,
		"delete_on_close", w.deleteOnClose.Load())

	return firstErr
}
