package journal

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrOrderingViolation  = errors.New("journal writes must be to the next location in the journal")
	ErrDisposed           = errors.New("journal disposed")
	ErrInvalidPage        = errors.New("page buffer smaller than page size")
	ErrInvalidJournalSize = errors.New("invalid journal size")
	ErrCapacityExceeded   = errors.New("journal capacity exceeded")
	ErrChecksumMismatch   = errors.New("page checksum mismatch")
)

// CorruptionErr is returned by Pager.Verify for the first page whose contents
// no longer match the checksum taken when it was written.
type CorruptionErr struct {
	Page int64
	Err  error
}

func (e *CorruptionErr) Error() string {
	return fmt.Sprintf("corruption at page %d: %s", e.Page, e.Err)
}

func (e *CorruptionErr) Unwrap() error {
	return e.Err
}
