package service

import (
	"context"
	iofs "io/fs"
	"sync"
	"time"

	"github.com/ligaac/practica/shared/logger"
)

// CVCollector removes CV files no profile points at any more: leftovers of
// interrupted uploads and replacements whose delete failed.
type CVCollector struct {
	storage CVPathStorage
	files   CVFileStorage
	grace   time.Duration
	now     func() time.Time

	mu        sync.Mutex
	lastStats CleanupStats
}

// CleanupStats describes one collection run.
type CleanupStats struct {
	RunAt          time.Time
	FilesScanned   int
	OrphanedFiles  int
	FilesDeleted   int
	BytesReclaimed int64
	Duration       time.Duration
	Errors         []string
}

type CVPathStorage interface {
	CVPaths(ctx context.Context) ([]string, error)
}

type CVFileStorage interface {
	WalkCVs() ([]string, error)
	Stat(filePath string) (iofs.FileInfo, error)
	DeleteFile(filePath string) error
}

// NewCVCollector creates a collector. Files younger than grace are never
// deleted, so an upload whose database row is not written yet survives.
func NewCVCollector(storage CVPathStorage, files CVFileStorage, grace time.Duration) *CVCollector {
	return &CVCollector{storage: storage, files: files, grace: grace, now: time.Now}
}

// StartBackgroundCleanup runs a collection every interval until ctx is done.
func (c *CVCollector) StartBackgroundCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	logger.Log.Info("cv collector started", "interval", interval, "grace", c.grace)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				stats, err := c.RunCleanup(ctx)
				if err != nil {
					logger.Log.Error("cv collection failed", "error", err)
					continue
				}
				logger.Log.Info("cv collection completed",
					"scanned", stats.FilesScanned,
					"orphans", stats.OrphanedFiles,
					"deleted", stats.FilesDeleted,
					"bytes_reclaimed", stats.BytesReclaimed,
					"duration", stats.Duration,
					"errors", len(stats.Errors),
				)
			case <-ctx.Done():
				logger.Log.Info("cv collector stopped")
				return
			}
		}
	}()
}

// RunCleanup executes a single collection. Per-file failures are recorded in
// the stats and do not stop the run.
func (c *CVCollector) RunCleanup(ctx context.Context) (CleanupStats, error) {
	start := c.now()
	stats := CleanupStats{RunAt: start, Errors: []string{}}

	referenced, err := c.storage.CVPaths(ctx)
	if err != nil {
		return stats, err
	}
	keep := make(map[string]struct{}, len(referenced))
	for _, p := range referenced {
		keep[p] = struct{}{}
	}

	onDisk, err := c.files.WalkCVs()
	if err != nil {
		return stats, err
	}
	stats.FilesScanned = len(onDisk)

	for _, path := range onDisk {
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}
		if _, ok := keep[path]; ok {
			continue
		}

		info, err := c.files.Stat(path)
		if err != nil {
			stats.Errors = append(stats.Errors, "stat "+path+": "+err.Error())
			continue
		}
		if c.now().Sub(info.ModTime()) < c.grace {
			continue
		}

		stats.OrphanedFiles++
		if err := c.files.DeleteFile(path); err != nil {
			stats.Errors = append(stats.Errors, "delete "+path+": "+err.Error())
			continue
		}
		stats.FilesDeleted++
		stats.BytesReclaimed += info.Size()
		cvOrphansDeletedTotal.Inc()
	}

	stats.Duration = c.now().Sub(start)
	c.mu.Lock()
	c.lastStats = stats
	c.mu.Unlock()
	return stats, nil
}

// LastStats returns the stats of the most recent successful run.
func (c *CVCollector) LastStats() CleanupStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastStats
}
