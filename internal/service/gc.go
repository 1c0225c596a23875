package service

import (
	"context"
	"time"

	"github.com/factshield/factshield/internal/logger"
)

// MediaGarbageCollector removes files the database no longer references:
// staged uploads left behind by a crash and stored bytes whose row is gone.
type MediaGarbageCollector struct {
	storage         GCStorage
	mediaStorage    GCMediaStorage
	safetyThreshold time.Duration
	now             func() time.Time
}

// CleanupStats describes one garbage collection run. The last run is also
// exported as gauges on /metrics.
type CleanupStats struct {
	RunAt          time.Time
	FilesScanned   int
	OrphanedFiles  int
	FilesDeleted   int
	BytesReclaimed int64
	DurationMs     int64
	Errors         []string
}

type GCStorage interface {
	StorageKeys(ctx context.Context) ([]string, error)
}

type GCMediaStorage interface {
	WalkFiles() ([]MediaFile, error)
	DeleteFile(key string) error
	Discard(stagedPath string) error
}

// NewMediaGarbageCollector creates a new garbage collector instance.
// safetyThreshold is the minimum age a file must have before being deleted,
// so uploads that are still being written are left alone.
func NewMediaGarbageCollector(storage GCStorage, mediaStorage GCMediaStorage, safetyThreshold time.Duration) *MediaGarbageCollector {
	return &MediaGarbageCollector{
		storage:         storage,
		mediaStorage:    mediaStorage,
		safetyThreshold: safetyThreshold,
		now:             time.Now,
	}
}

// StartBackgroundCleanup runs cleanup every interval until ctx is cancelled.
func (gc *MediaGarbageCollector) StartBackgroundCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	logger.Log.Info("started media garbage collector", "interval", interval, "safety_threshold", gc.safetyThreshold)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				stats, err := gc.RunCleanup(ctx)
				if err != nil {
					logger.Log.Error("media gc failed", "error", err)
					continue
				}
				gc.logStats(stats)
			case <-ctx.Done():
				logger.Log.Info("media gc shutting down")
				return
			}
		}
	}()
}

// RunCleanup executes a single garbage collection cycle.
func (gc *MediaGarbageCollector) RunCleanup(ctx context.Context) (CleanupStats, error) {
	start := gc.now()
	stats := CleanupStats{RunAt: start, Errors: []string{}}

	// Walk before reading the keys: a file promoted between the two reads is
	// then always seen as referenced.
	files, err := gc.mediaStorage.WalkFiles()
	if err != nil {
		return stats, err
	}
	keys, err := gc.storage.StorageKeys(ctx)
	if err != nil {
		return stats, err
	}
	referenced := make(map[string]bool, len(keys))
	for _, k := range keys {
		referenced[k] = true
	}

	stats.FilesScanned = len(files)
	for _, f := range files {
		if !f.Staged && referenced[f.Name] {
			continue
		}
		if start.Sub(f.ModTime) < gc.safetyThreshold {
			continue
		}
		stats.OrphanedFiles++

		if f.Staged {
			err = gc.mediaStorage.Discard(f.Name)
		} else {
			err = gc.mediaStorage.DeleteFile(f.Name)
		}
		if err != nil {
			stats.Errors = append(stats.Errors, "delete error: "+f.Name+": "+err.Error())
			continue
		}
		stats.FilesDeleted++
		stats.BytesReclaimed += f.Size
	}

	stats.DurationMs = gc.now().Sub(start).Milliseconds()
	recordCleanup(stats)
	return stats, nil
}

func recordCleanup(stats CleanupStats) {
	gcFilesDeletedTotal.Add(float64(stats.FilesDeleted))
	gcLastRunTimestamp.Set(float64(stats.RunAt.Unix()))
	gcLastRunOrphans.Set(float64(stats.OrphanedFiles))
	gcLastRunBytesReclaimed.Set(float64(stats.BytesReclaimed))
	gcLastRunErrors.Set(float64(len(stats.Errors)))
}

func (gc *MediaGarbageCollector) logStats(stats CleanupStats) {
	logger.Log.Info("media gc completed",
		"scanned", stats.FilesScanned,
		"orphans", stats.OrphanedFiles,
		"deleted", stats.FilesDeleted,
		"bytes_reclaimed", stats.BytesReclaimed,
		"duration_ms", stats.DurationMs,
		"errors", len(stats.Errors),
	)
}
