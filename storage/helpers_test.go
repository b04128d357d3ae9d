package storage

import (
	"github.com/go-kit/log"

	"memjournal/config"
	"memjournal/storage/journal"
)

func nopLogger() log.Logger {
	return log.NewNopLogger()
}

func journalOptions() config.JournalOptions {
	return config.JournalOptions{Size: 16 * journal.PageSize}
}
