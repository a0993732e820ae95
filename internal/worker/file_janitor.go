package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/GandharvMahajan/AutoExamChecker/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	uploadURLPrefix = "/uploads/"
	retryDelay      = 5 * time.Second
)

// FileJanitor deletes uploads that are no longer referenced. Producers call
// Discard; Start consumes discard_files_queue. Without Redis, files are
// removed inline.
type FileJanitor struct {
	rdb       *redis.Client
	uploadDir string
	log       zerolog.Logger
}

// NewFileJanitor creates a new FileJanitor. rdb may be nil.
func NewFileJanitor(rdb *redis.Client, uploadDir string, log zerolog.Logger) *FileJanitor {
	return &FileJanitor{
		rdb:       rdb,
		uploadDir: uploadDir,
		log:       log.With().Str("component", "file_janitor").Logger(),
	}
}

// Discard schedules deletion of the upload behind url. Deletion is best
// effort: failures are logged and never reach the caller.
func (w *FileJanitor) Discard(ctx context.Context, url string) {
	if !strings.HasPrefix(url, uploadURLPrefix) {
		return
	}
	if w.rdb != nil {
		err := w.rdb.RPush(ctx, config.WorkerKey.DiscardFilesQueue, url).Err()
		if err == nil {
			return
		}
		w.log.Warn().Err(err).Str("url", url).Msg("Enqueue failed, removing inline")
	}
	if err := w.remove(url); err != nil {
		w.log.Warn().Err(err).Str("url", url).Msg("Remove failed")
	}
}

// Start begins the worker loop. Call in a goroutine. It returns immediately
// when there is no queue to consume.
func (w *FileJanitor) Start(ctx context.Context) {
	if w.rdb == nil {
		return
	}
	w.log.Info().Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopping...")
			w.drain(context.Background())
			w.log.Info().Msg("Worker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *FileJanitor) processNext(ctx context.Context) {
	// BLPop blocks until an item is available or the 1s timeout passes.
	result, err := w.rdb.BLPop(ctx, time.Second, config.WorkerKey.DiscardFilesQueue).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
			time.Sleep(time.Second)
		}
		return
	}
	if len(result) < 2 {
		return
	}

	if err := w.remove(result[1]); err != nil {
		w.log.Error().Err(err).Str("url", result[1]).Msg("Remove error, retrying in 5s")
		w.rdb.RPush(ctx, config.WorkerKey.DiscardFilesQueue, result[1])
		time.Sleep(retryDelay)
	}
}

// remove deletes the file behind an upload URL. Only the base name is used,
// so a crafted URL cannot escape the upload directory. Missing files count
// as removed.
func (w *FileJanitor) remove(url string) error {
	name := filepath.Base(strings.TrimPrefix(url, uploadURLPrefix))
	if name == "." || name == "/" || name == "" {
		return nil
	}
	err := os.Remove(filepath.Join(w.uploadDir, name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	w.log.Debug().Str("file", name).Msg("Upload removed")
	return nil
}

// drain processes everything left in the queue before shutdown.
func (w *FileJanitor) drain(ctx context.Context) {
	drained := 0
	for {
		url, err := w.rdb.LPop(ctx, config.WorkerKey.DiscardFilesQueue).Result()
		if err != nil {
			break
		}
		if err := w.remove(url); err != nil {
			w.log.Error().Err(err).Msg("Drain remove error")
			w.rdb.RPush(ctx, config.WorkerKey.DiscardFilesQueue, url)
			break
		}
		drained++
	}

	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained remaining items")
	}
}
