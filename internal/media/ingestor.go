package media

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/cliptube/backend/internal/logging"
)

// AssetStorage persists media objects and removes them by key.
type AssetStorage interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
	Delete(ctx context.Context, name string) error
}

// VideoAssetUpdater persists ingestion status updates for videos.
type VideoAssetUpdater interface {
	MarkAssetReady(ctx context.Context, videoID, location string, size int64) error
	MarkAssetFailed(ctx context.Context, videoID string) error
}

// IngestorConfig controls the concurrency characteristics of the ingestor.
type IngestorConfig struct {
	QueueSize int
	Workers   int
}

// UploadJob carries a parsed video upload to the background workers.
type UploadJob struct {
	VideoID  string
	FileName string
	Data     []byte
}

// Ingestor asynchronously pushes uploaded video assets to object storage and
// records the outcome on the video row. Upload handlers return as soon as the
// row exists with a pending asset status.
type Ingestor struct {
	storage AssetStorage
	updater VideoAssetUpdater
	logger  *slog.Logger

	jobs   chan UploadJob
	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
	once   sync.Once
}

var errIngestorClosed = errors.New("asset ingestor closed")

// NewIngestor constructs a background worker pool that persists assets.
func NewIngestor(storage AssetStorage, updater VideoAssetUpdater, cfg IngestorConfig, logger *slog.Logger) *Ingestor {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 16
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	ing := &Ingestor{
		storage: storage,
		updater: updater,
		logger:  logger,
		jobs:    make(chan UploadJob, cfg.QueueSize),
	}

	ing.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go ing.worker()
	}

	return ing
}

// Enqueue schedules asset persistence for the supplied upload. The read lock
// is held across the send so Shutdown cannot close the channel underneath a
// blocked producer.
func (i *Ingestor) Enqueue(ctx context.Context, job UploadJob) error {
	i.mu.RLock()
	defer i.mu.RUnlock()

	if i.closed {
		return errIngestorClosed
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case i.jobs <- job:
		return nil
	}
}

// Shutdown stops accepting new jobs and waits for the workers to drain every
// job already queued; nothing accepted before Shutdown is abandoned.
func (i *Ingestor) Shutdown(ctx context.Context) error {
	i.once.Do(func() {
		i.mu.Lock()
		i.closed = true
		close(i.jobs)
		i.mu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		i.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (i *Ingestor) worker() {
	defer i.wg.Done()

	for job := range i.jobs {
		i.handleJob(job)
	}
}

func (i *Ingestor) handleJob(job UploadJob) {
	if i.storage == nil || i.updater == nil {
		i.logger.Error("asset ingestor missing dependencies", "hasStorage", i.storage != nil, "hasUpdater", i.updater != nil)
		return
	}

	if job.VideoID == "" || len(job.Data) == 0 {
		i.logger.Error("asset ingest job incomplete", "videoId", job.VideoID, "bytes", len(job.Data))
		i.recordFailure(job.VideoID)
		return
	}

	saveCtx, cancel := context.WithTimeout(logging.WithLogger(context.Background(), i.logger), 2*time.Minute)
	defer cancel()

	saveCtx, span := logging.StartSpan(saveCtx, "media.ingest")
	defer span.End()
	logger := logging.FromContext(saveCtx)

	key := assetKey(job.VideoID, job.FileName)
	location, err := i.storage.Save(saveCtx, key, bytes.NewReader(job.Data))
	if err != nil {
		logger.Error("asset ingestion failed", "videoId", job.VideoID, "key", key, "error", err)
		span.Fail(err)
		i.recordFailure(job.VideoID)
		return
	}

	if err := i.recordSuccess(job.VideoID, location, int64(len(job.Data))); err != nil {
		logger.Error("mark asset ready", "videoId", job.VideoID, "error", err)
		span.Fail(err)
		i.recordFailure(job.VideoID)
	}
}

func (i *Ingestor) recordFailure(videoID string) {
	if videoID == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := i.updater.MarkAssetFailed(ctx, videoID); err != nil {
		i.logger.Error("record asset failure", "videoId", videoID, "error", err)
	}
}

func (i *Ingestor) recordSuccess(videoID, location string, size int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return i.updater.MarkAssetReady(ctx, videoID, location, size)
}

func assetKey(videoID, fileName string) string {
	name := strings.TrimLeft(fileName, "/")
	if name == "" {
		name = "video"
	}
	return path.Join(videoID, name)
}
