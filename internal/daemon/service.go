// Package daemon provides the long-running dashboard server: the access-gated
// bucket API, dashboard JSON, and a polling loop that reloads the newest export.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/theirongolddev/cdash/internal/model"
	"github.com/theirongolddev/cdash/internal/pipeline"
	"github.com/theirongolddev/cdash/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Bucket is the export storage the daemon serves and polls.
type Bucket interface {
	pipeline.ObjectSource
	Put(ctx context.Context, key string, data []byte) (store.Upload, error)
}

// Config controls the daemon runtime behavior.
type Config struct {
	Bucket       Bucket // nil when no bucket is configured
	BucketPath   string
	AdminKey     string
	ReadOnlyKey  string
	Addr         string
	Interval     time.Duration
	EventsBuffer int
	TopSchools   int
	Logger       *zap.Logger
}

// Snapshot describes the dataset currently loaded by the daemon.
type Snapshot struct {
	Key          string          `json:"key"`
	LastModified time.Time       `json:"lastModified"`
	LoadedAt     time.Time       `json:"loadedAt"`
	Rows         int             `json:"rows"`
	Tasks        int             `json:"tasks"`
	Subtasks     int             `json:"subtasks"`
	ParseErrors  int             `json:"parseErrors"`
	Totals       model.KPITotals `json:"totals"`
}

// Event types published to /v1/events and /v1/stream.
const (
	EventSourceLoaded = "source_loaded"
	EventUpload       = "upload"
	EventSnapshot     = "snapshot"
)

// Event is emitted whenever a new export is uploaded or loaded.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Key       string    `json:"key,omitempty"`
	Source    *Snapshot `json:"source,omitempty"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt        time.Time `json:"started_at"`
	LastPollAt       time.Time `json:"last_poll_at"`
	PollIntervalSec  int       `json:"poll_interval_sec"`
	PollCount        int64     `json:"poll_count"`
	BucketPath       string    `json:"bucket_path,omitempty"`
	BucketConfigured bool      `json:"bucket_configured"`
	Source           *Snapshot `json:"source,omitempty"`
	LastError        string    `json:"last_error,omitempty"`
	EventCount       int       `json:"event_count"`
	SubscriberCount  int       `json:"subscriber_count"`
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg     Config
	log     *zap.Logger
	metrics *metrics

	mu         sync.RWMutex
	startedAt  time.Time
	lastPollAt time.Time
	pollCount  int64
	lastError  string
	loaded     *pipeline.LoadResult
	snapshot   *Snapshot
	events     []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a new daemon service with the provided config.
func New(cfg Config) *Service {
	if cfg.Interval < 2*time.Second {
		cfg.Interval = 15 * time.Second
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8787"
	}
	if cfg.TopSchools < 1 {
		cfg.TopSchools = pipeline.DefaultTopSchools
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		cfg:       cfg,
		log:       logger,
		metrics:   newMetrics(),
		startedAt: time.Now(),
		subs:      make(map[int]chan Event),
	}
}

// Run starts HTTP endpoints and polling until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	s.log.Info("dashboard server listening",
		zap.String("addr", s.cfg.Addr),
		zap.Bool("bucket", s.cfg.Bucket != nil),
		zap.Duration("poll_interval", s.cfg.Interval),
	)

	// Seed the dataset so the dashboard is useful immediately.
	s.pollOnce(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			s.log.Info("dashboard server shutting down")
			return server.Shutdown(shutdownCtx)
		case <-ticker.C:
			s.pollOnce(ctx)
		case err := <-errCh:
			return fmt.Errorf("daemon http server: %w", err)
		}
	}
}

// pollOnce reloads the dataset when the newest export in the bucket has
// changed since the last load.
func (s *Service) pollOnce(ctx context.Context) {
	if s.cfg.Bucket == nil {
		return
	}

	latest, err := pipeline.Latest(ctx, s.cfg.Bucket)
	if errors.Is(err, pipeline.ErrNoSources) {
		s.recordPoll("")
		return
	}
	if err != nil {
		s.recordPoll(err.Error())
		s.log.Warn("bucket poll failed", zap.Error(err))
		return
	}

	s.mu.RLock()
	current := s.snapshot
	s.mu.RUnlock()
	if current != nil && current.Key == latest.Key && current.LastModified.Equal(latest.LastModified) {
		s.recordPoll("")
		return
	}

	if err := s.load(ctx, latest); err != nil {
		s.recordPoll(err.Error())
		return
	}
	s.recordPoll("")
}

func (s *Service) recordPoll(lastError string) {
	s.mu.Lock()
	s.lastPollAt = time.Now()
	s.pollCount++
	s.lastError = lastError
	s.mu.Unlock()
}

// load decodes obj and swaps it in as the active dataset.
func (s *Service) load(ctx context.Context, obj model.SourceObject) error {
	start := time.Now()
	res, err := pipeline.LoadObject(ctx, s.cfg.Bucket, obj.Key)
	if err != nil {
		s.metrics.loads.WithLabelValues("error").Inc()
		s.log.Warn("loading export failed", zap.String("key", obj.Key), zap.Error(err))
		return err
	}
	s.metrics.loads.WithLabelValues("ok").Inc()
	s.metrics.rows.Set(float64(len(res.Rows)))

	now := time.Now()
	snap := &Snapshot{
		Key:          obj.Key,
		LastModified: obj.LastModified,
		LoadedAt:     now,
		Rows:         len(res.Rows),
		Tasks:        res.Tasks,
		Subtasks:     res.Subtasks,
		ParseErrors:  res.ParseErrors,
		Totals:       pipeline.Totals(res.Rows),
	}

	s.mu.Lock()
	s.loaded = res
	s.snapshot = snap
	s.mu.Unlock()

	s.log.Info("export loaded",
		zap.String("key", obj.Key),
		zap.Int("rows", snap.Rows),
		zap.Int("tasks", snap.Tasks),
		zap.Int("parse_errors", snap.ParseErrors),
		zap.Duration("took", time.Since(start)),
	)
	s.publishEvent(Event{
		ID:        uuid.NewString(),
		Type:      EventSourceLoaded,
		Timestamp: now,
		Key:       obj.Key,
		Source:    snap,
	})
	return nil
}

// dataset returns the active load result, or nil before the first load.
func (s *Service) dataset() *pipeline.LoadResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:        s.startedAt,
		LastPollAt:       s.lastPollAt,
		PollIntervalSec:  int(s.cfg.Interval.Seconds()),
		PollCount:        s.pollCount,
		BucketPath:       s.cfg.BucketPath,
		BucketConfigured: s.cfg.Bucket != nil,
		Source:           s.snapshot,
		LastError:        s.lastError,
		EventCount:       len(s.events),
		SubscriberCount:  len(s.subs),
	}
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	// Send the current source immediately.
	writeSSE(w, Event{
		Type:      EventSnapshot,
		Timestamp: time.Now(),
		Source:    s.snapshotStatus().Source,
	})
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}
