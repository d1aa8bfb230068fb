package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/exam-console-api/internal/models"
	"github.com/noah-isme/exam-console-api/internal/upstream"
	"github.com/noah-isme/exam-console-api/pkg/config"
	appErrors "github.com/noah-isme/exam-console-api/pkg/errors"
	"github.com/noah-isme/exam-console-api/pkg/jobs"
)

// streamUploader streams a bulk import file upstream and relays its events.
type streamUploader interface {
	Upload(ctx context.Context, auth, term, fileName string, file io.Reader, sink upstream.EventSink) error
}

type importCounter interface {
	RecordImportRun(status string)
}

type importRun struct {
	mu          sync.Mutex
	run         models.ImportRun
	auth        string
	payload     []byte
	subscribers map[int]chan models.ImportEvent
	nextSub     int
	expiresAt   time.Time
}

func (r *importRun) snapshot() models.ImportRun {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.run
}

func (r *importRun) broadcast(event models.ImportEvent) {
	for _, ch := range r.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}

// ImportService runs bulk exam uploads in the background and lets callers
// poll run status or follow live progress events.
type ImportService struct {
	uploader streamUploader
	queue    *jobs.Queue
	metrics  importCounter
	logger   *zap.Logger

	maxFileSize int64
	runTTL      time.Duration

	mu   sync.RWMutex
	runs map[string]*importRun
}

// NewImportService builds the service and its worker queue. Start must be
// called before uploads are accepted.
func NewImportService(cfg config.ImportConfig, uploader streamUploader, metrics importCounter, logger *zap.Logger) *ImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	runTTL := cfg.RunTTL
	if runTTL <= 0 {
		runTTL = 24 * time.Hour
	}
	maxFileSize := cfg.MaxFileSize
	if maxFileSize <= 0 {
		maxFileSize = 20 * 1024 * 1024
	}
	s := &ImportService{
		uploader:    uploader,
		metrics:     metrics,
		logger:      logger,
		maxFileSize: maxFileSize,
		runTTL:      runTTL,
		runs:        make(map[string]*importRun),
	}
	s.queue = jobs.NewQueue("imports", s.process, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.MaxRetries,
		Logger:     logger,
	})
	return s
}

// Start launches the worker pool and the expired-run janitor.
func (s *ImportService) Start(ctx context.Context) {
	s.queue.Start(ctx)
	go func() {
		ticker := time.NewTicker(s.runTTL / 4)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.purgeExpired()
			}
		}
	}()
}

// Stop drains the worker pool.
func (s *ImportService) Stop() {
	s.queue.Stop()
}

// Create buffers the upload, registers a run and queues it for processing.
func (s *ImportService) Create(auth, term, fileName string, file io.Reader) (models.ImportRun, error) {
	if term == "" {
		return models.ImportRun{}, appErrors.Clone(appErrors.ErrValidation, "term is required")
	}
	if fileName == "" {
		return models.ImportRun{}, appErrors.Clone(appErrors.ErrValidation, "file is required")
	}

	payload, err := io.ReadAll(io.LimitReader(file, s.maxFileSize+1))
	if err != nil {
		return models.ImportRun{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "read upload")
	}
	if int64(len(payload)) > s.maxFileSize {
		return models.ImportRun{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file exceeds %d bytes", s.maxFileSize))
	}

	run := &importRun{
		run: models.ImportRun{
			ID:        uuid.NewString(),
			FileName:  fileName,
			Term:      term,
			Status:    models.ImportPending,
			StartedAt: time.Now().UTC(),
		},
		auth:        auth,
		payload:     payload,
		subscribers: make(map[int]chan models.ImportEvent),
		expiresAt:   time.Now().Add(s.runTTL),
	}

	s.mu.Lock()
	s.runs[run.run.ID] = run
	s.mu.Unlock()

	if err := s.queue.Enqueue(jobs.Job{ID: run.run.ID, Type: "bulk-import"}); err != nil {
		s.mu.Lock()
		delete(s.runs, run.run.ID)
		s.mu.Unlock()
		return models.ImportRun{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "queue import")
	}

	s.logger.Info("import queued",
		zap.String("run_id", run.run.ID), zap.String("file", fileName), zap.Int("bytes", len(payload)))
	return run.snapshot(), nil
}

// Status reports the current state of a run.
func (s *ImportService) Status(id string) (models.ImportRun, error) {
	run, ok := s.lookup(id)
	if !ok {
		return models.ImportRun{}, appErrors.Clone(appErrors.ErrNotFound, "import run not found")
	}
	return run.snapshot(), nil
}

// Subscribe attaches a listener for live progress events. The returned cancel
// function must be called when the listener goes away. A terminal run yields a
// closed channel after replaying its final state.
func (s *ImportService) Subscribe(id string) (<-chan models.ImportEvent, func(), error) {
	run, ok := s.lookup(id)
	if !ok {
		return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "import run not found")
	}

	run.mu.Lock()
	defer run.mu.Unlock()

	ch := make(chan models.ImportEvent, 16)
	if run.run.Status == models.ImportDone || run.run.Status == models.ImportFailed {
		stats := run.run.Stats
		ch <- models.ImportEvent{Type: string(run.run.Status), Message: run.run.Message, Stats: &stats}
		close(ch)
		return ch, func() {}, nil
	}

	sub := run.nextSub
	run.nextSub++
	run.subscribers[sub] = ch

	cancel := func() {
		run.mu.Lock()
		defer run.mu.Unlock()
		if _, still := run.subscribers[sub]; still {
			delete(run.subscribers, sub)
			close(ch)
		}
	}
	return ch, cancel, nil
}

func (s *ImportService) process(ctx context.Context, job jobs.Job) error {
	run, ok := s.lookup(job.ID)
	if !ok {
		return nil
	}

	run.mu.Lock()
	run.run.Status = models.ImportRunning
	auth := run.auth
	term := run.run.Term
	fileName := run.run.FileName
	payload := run.payload
	run.mu.Unlock()

	err := s.uploader.Upload(ctx, auth, term, fileName, bytes.NewReader(payload), func(event models.ImportEvent) {
		run.mu.Lock()
		if event.Stats != nil {
			run.run.Stats = *event.Stats
		}
		if event.Type == "error" {
			run.run.Status = models.ImportFailed
			run.run.Message = event.Message
		}
		run.broadcast(event)
		run.mu.Unlock()
	})

	run.mu.Lock()
	now := time.Now().UTC()
	run.run.FinishedAt = &now
	run.payload = nil
	if err != nil {
		run.run.Status = models.ImportFailed
		if run.run.Message == "" {
			run.run.Message = err.Error()
		}
	} else if run.run.Status != models.ImportFailed {
		run.run.Status = models.ImportDone
	}
	status := run.run.Status
	stats := run.run.Stats
	message := run.run.Message
	terminal := models.ImportEvent{Type: string(status), Message: message, Stats: &stats}
	run.broadcast(terminal)
	for id, ch := range run.subscribers {
		delete(run.subscribers, id)
		close(ch)
	}
	run.mu.Unlock()

	if s.metrics != nil {
		s.metrics.RecordImportRun(string(status))
	}
	if err != nil {
		s.logger.Warn("import failed", zap.String("run_id", job.ID), zap.Error(err))
	} else {
		s.logger.Info("import finished",
			zap.String("run_id", job.ID), zap.String("status", string(status)),
			zap.Int("imported", stats.Imported), zap.Int("failed", stats.Failed))
	}
	// Terminal state is recorded on the run; retrying would replay the upload.
	return nil
}

func (s *ImportService) lookup(id string) (*importRun, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	return run, ok
}

func (s *ImportService) purgeExpired() {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, run := range s.runs {
		if now.After(run.expiresAt) {
			delete(s.runs, id)
		}
	}
}
