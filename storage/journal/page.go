package journal

// PageSize is the size in bytes of every journal page.
const PageSize = 4096

func pagesToBytes(pages int64) int64 {
	return pages * PageSize
}

func bytesToPages(size int64) int64 {
	return size / PageSize
}
