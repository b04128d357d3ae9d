package config

type Config struct {
	Journal JournalOptions
}

type JournalOptions struct {
	// Size is the journal size in bytes. It only sets the advisory page capacity.
	Size int64

	// DeleteOnClose is handed to the writer as-is; cleanup of backing storage is done elsewhere.
	DeleteOnClose bool

	// EnforceCapacity rejects batches that would grow the journal past Size.
	EnforceCapacity bool

	// RandomAccess resolves page numbers that fall inside a segment, not only at its first page.
	RandomAccess bool

	// UnmanagedMemory backs segments with anonymous mmap where the platform supports it.
	UnmanagedMemory bool
}
