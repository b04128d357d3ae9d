package main

import (
	"context"
	"encoding/binary"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/dustin/go-humanize"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"memjournal/config"
	"memjournal/storage"
	"memjournal/storage/journal"
)

var CLI struct {
	Size            string `default:"64MiB" help:"Journal size, e.g. 64MiB."`
	Batch           int    `default:"4" help:"Pages per gather write."`
	SnapshotEvery   int    `default:"256" help:"Verify a pager snapshot every N batches."`
	RandomAccess    bool   `help:"Resolve page numbers inside a segment, not only its first page."`
	EnforceCapacity bool   `help:"Reject batches past the journal size."`
	Unmanaged       bool   `help:"Back segments with anonymous mmap."`
	DeleteOnClose   bool   `help:"Mark the journal for deletion on close."`
	MetricsAddr     string `help:"Serve Prometheus metrics on this address."`
	LogLevel        string `default:"info" enum:"debug,info,warn,error" help:"Log level."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("memjournal"),
		kong.Description("Exercise an in-memory page journal with gather writes and snapshot reads."),
		kong.UsageOnError(),
	)

	logger := log.NewLogfmtLogger(log.NewSyncWriter(os.Stdout))
	logger = level.NewFilter(logger, levelOption(CLI.LogLevel))
	logger = log.With(logger, "ts", log.DefaultTimestampUTC)

	ctx.FatalIfErrorf(run(logger))
}

func levelOption(lvl string) level.Option {
	switch lvl {
	case "debug":
		return level.AllowDebug()
	case "warn":
		return level.AllowWarn()
	case "error":
		return level.AllowError()
	default:
		return level.AllowInfo()
	}
}

func run(logger log.Logger) error {
	size, err := humanize.ParseBytes(CLI.Size)

	if err != nil {
		return errors.Wrap(err, "parse journal size")
	}

	if CLI.Batch <= 0 {
		return errors.Errorf("batch must be positive, got %d", CLI.Batch)
	}

	cfg := config.Config{
		Journal: config.JournalOptions{
			Size:            int64(size),
			DeleteOnClose:   CLI.DeleteOnClose,
			EnforceCapacity: CLI.EnforceCapacity,
			RandomAccess:    CLI.RandomAccess,
			UnmanagedMemory: CLI.Unmanaged,
		},
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())

	w, err := journal.NewWriter(logger, registry, cfg.Journal)

	if err != nil {
		return err
	}

	var srv *http.Server

	if CLI.MetricsAddr != "" {
		srv = &http.Server{
			Addr:    CLI.MetricsAddr,
			Handler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		}

		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				level.Error(logger).Log("msg", "metrics server failed", "err", err)
			}
		}()
	}

	var (
		stop atomic.Bool
		wg   sync.WaitGroup
		done = make(chan struct{})
	)

	wg.Add(1)

	go func() {
		defer wg.Done()
		defer close(done)

		now := time.Now()
		pages, err := workload(logger, w, &stop)

		if err != nil {
			level.Error(logger).Log("msg", "workload stopped", "err", err)
		}

		level.Info(logger).Log("msg", "pages have been written", "pages", pages,
			"bytes", humanize.IBytes(uint64(pages)*journal.PageSize), "since", time.Since(now))
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	level.Info(logger).Log("msg", "journal started", "size", humanize.IBytes(size), "allocated_pages", w.AllocatedPages())

	select {
	case <-sigs:
		stop.Store(true)
	case <-done:
	}

	wg.Wait()

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			level.Error(logger).Log("msg", "error stopping metrics server", "err", err)
		}
	}

	level.Info(logger).Log("msg", "exiting...")

	return w.Close()
}

// workload fills the journal up to its allocated pages with batches whose
// pages carry their own page number, verifying a snapshot every few batches.
func workload(logger log.Logger, w *journal.Writer, stop *atomic.Bool) (int64, error) {
	pool := storage.NewPagePool()

	var (
		pos     int64
		batches int
	)

	for !stop.Load() && pos+int64(CLI.Batch) <= w.AllocatedPages() {
		batch := pool.GetBatch(CLI.Batch)

		for i, b := range batch {
			binary.BigEndian.PutUint64(*b, uint64(pos)+uint64(i))
		}

		err := w.WriteGather(pos, storage.Pages(batch))
		pool.PutBatch(batch)

		if err != nil {
			return pos, err
		}

		pos += int64(CLI.Batch)
		batches++

		if CLI.SnapshotEvery > 0 && batches%CLI.SnapshotEvery == 0 {
			if err := verifySnapshot(w); err != nil {
				return pos, err
			}

			level.Debug(logger).Log("msg", "snapshot verified", "pages", pos)
		}
	}

	return pos, verifySnapshot(w)
}

func verifySnapshot(w *journal.Writer) error {
	pager, err := w.CreatePager()

	if err != nil {
		return err
	}

	if err := pager.Verify(); err != nil {
		return err
	}

	r := journal.NewPageReader(pager)

	for r.Next() {
		if got := binary.BigEndian.Uint64(r.Page()); got != uint64(r.PageNumber()) {
			return errors.Errorf("page %d holds page number %d", r.PageNumber(), got)
		}
	}

	return r.Err()
}
