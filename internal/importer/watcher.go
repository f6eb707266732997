package importer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"asset-tracker-backend/config"
	"asset-tracker-backend/internal/parse"
	"asset-tracker-backend/internal/sheet"
)

const (
	processedDir = "processed"
	failedDir    = "failed"
)

// Submitter hands rows to an import run. *Queue implements it.
type Submitter interface {
	Submit(ctx context.Context, rows []parse.Row) (int, error)
}

// Watcher periodically imports workbooks dropped into an inbox directory.
type Watcher struct {
	cfg       *config.ImporterConfig
	submitter Submitter
	logger    *zap.Logger
}

// NewWatcher creates a watcher for cfg.InboxDir.
func NewWatcher(cfg *config.ImporterConfig, submitter Submitter, logger *zap.Logger) *Watcher {
	return &Watcher{cfg: cfg, submitter: submitter, logger: logger.With(zap.String("inbox", cfg.InboxDir))}
}

// Run scans the inbox on every interval until ctx is done.
func (w *Watcher) Run(ctx context.Context) {
	if !w.cfg.InboxEnabled {
		w.logger.Info("Inbox watcher is disabled. Not starting.")
		return
	}
	w.logger.Info("Starting inbox watcher", zap.Duration("interval", w.cfg.Interval))

	w.scan(ctx)

	timer := time.NewTimer(w.cfg.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Inbox watcher shutting down.")
			return
		case <-timer.C:
			w.scan(ctx)
			timer.Reset(w.cfg.Interval)
		}
	}
}

func (w *Watcher) scan(ctx context.Context) {
	if _, err := w.ScanOnce(ctx); err != nil {
		w.logger.Error("Inbox scan failed", zap.Error(err))
	}
}

// ScanOnce imports every .xlsx file currently in the inbox, moving each one to
// processed/ or failed/. It returns the number of files imported successfully.
//
// Once a file is submitted its run is awaited even if ctx ends, so the file is
// moved according to what the run actually committed. A file whose run never
// started stays in the inbox for the next scan.
func (w *Watcher) ScanOnce(ctx context.Context) (int, error) {
	entries, err := os.ReadDir(w.cfg.InboxDir)
	if err != nil {
		return 0, fmt.Errorf("failed to read inbox: %w", err)
	}

	imported := 0
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".xlsx") || strings.HasPrefix(e.Name(), "~$") {
			continue
		}
		if ctx.Err() != nil {
			return imported, ctx.Err()
		}

		path := filepath.Join(w.cfg.InboxDir, e.Name())
		count, err := w.importFile(context.WithoutCancel(ctx), path)
		if errors.Is(err, ErrQueueStopped) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			w.logger.Warn("Inbox file left for the next scan", zap.String("file", e.Name()), zap.Error(err))
			return imported, err
		}
		dest := processedDir
		if err != nil {
			dest = failedDir
			w.logger.Error("Inbox file import failed", zap.String("file", e.Name()), zap.Error(err))
		} else {
			imported++
			w.logger.Info("Inbox file imported", zap.String("file", e.Name()), zap.Int("equipment", count))
		}
		if err := w.move(path, dest); err != nil {
			return imported, err
		}
	}
	return imported, nil
}

func (w *Watcher) importFile(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	rows, err := sheet.ReadRows(f)
	if err != nil {
		return 0, err
	}
	return w.submitter.Submit(ctx, rows)
}

func (w *Watcher) move(path, sub string) error {
	dir := filepath.Join(w.cfg.InboxDir, sub)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	name := filepath.Base(path)
	ext := filepath.Ext(name)
	target := filepath.Join(dir, fmt.Sprintf("%s-%s%s", strings.TrimSuffix(name, ext), time.Now().UTC().Format("20060102T150405"), ext))
	if err := os.Rename(path, target); err != nil {
		return fmt.Errorf("failed to move %s: %w", name, err)
	}
	return nil
}
