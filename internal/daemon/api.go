package daemon

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/theirongolddev/cdash/internal/model"
	"github.com/theirongolddev/cdash/internal/pipeline"
	"github.com/theirongolddev/cdash/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxUploadBytes = 64 << 20

// errResponse is the JSON error body: {"error": "..."}.
type errResponse struct {
	HTTPStatusCode int    `json:"-"`
	ErrorText      string `json:"error"`
}

// Render implements render.Renderer.
func (e *errResponse) Render(_ http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

func errJSON(code int, msg string) render.Renderer {
	return &errResponse{HTTPStatusCode: code, ErrorText: msg}
}

func errUnauthorized(msg string) render.Renderer { return errJSON(http.StatusUnauthorized, msg) }

var errNoBucket = errors.New("no bucket configured")

type successResponse struct {
	Success bool `json:"success"`
}

type listResponse struct {
	Files []model.SourceObject `json:"files"`
}

type uploadResponse struct {
	Success bool   `json:"success"`
	Key     string `json:"key"`
}

// DashboardResponse is served at /api/dashboard.
type DashboardResponse struct {
	Source    string                 `json:"source"`
	Filters   pipeline.Criteria      `json:"filters"`
	Options   pipeline.FilterOptions `json:"options"`
	Dashboard model.Dashboard        `json:"dashboard"`
}

// Handler returns the HTTP routes served by the daemon.
func (s *Service) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/v1/status", s.handleStatus)
	r.Get("/v1/events", s.handleEvents)
	r.Get("/v1/stream", s.handleStream)
	r.Method(http.MethodGet, "/metrics", s.metrics.handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/verify", s.handleVerify)
		r.With(s.requireAdmin).Post("/s3/upload", s.handleUpload)
		r.Group(func(r chi.Router) {
			r.Use(s.requireReader)
			r.Get("/s3/list", s.handleList)
			r.Get("/s3/content", s.handleContent)
			r.Get("/dashboard", s.handleDashboard)
		})
	})
	return r
}

// requestLogger logs each request and counts it by route pattern.
func (s *Service) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		s.metrics.requests.WithLabelValues(route, strconv.Itoa(ww.Status())).Inc()
		s.log.Debug("request",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func (s *Service) handleStatus(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, s.snapshotStatus())
}

func (s *Service) handleEvents(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	render.JSON(w, r, events)
}

func (s *Service) handleList(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Bucket == nil {
		_ = render.Render(w, r, errJSON(http.StatusInternalServerError, errNoBucket.Error()))
		return
	}
	objs, err := s.cfg.Bucket.List(r.Context())
	if err != nil {
		s.log.Error("listing bucket", zap.Error(err))
		_ = render.Render(w, r, errJSON(http.StatusInternalServerError, err.Error()))
		return
	}
	if objs == nil {
		objs = []model.SourceObject{}
	}
	render.JSON(w, r, listResponse{Files: objs})
}

func (s *Service) handleContent(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		_ = render.Render(w, r, errJSON(http.StatusBadRequest, "Key is required"))
		return
	}
	if s.cfg.Bucket == nil {
		_ = render.Render(w, r, errJSON(http.StatusInternalServerError, errNoBucket.Error()))
		return
	}

	data, err := s.cfg.Bucket.Get(r.Context(), key)
	if errors.Is(err, store.ErrNotFound) {
		_ = render.Render(w, r, errJSON(http.StatusNotFound, err.Error()))
		return
	}
	if err != nil {
		s.log.Error("reading object", zap.String("key", key), zap.Error(err))
		_ = render.Render(w, r, errJSON(http.StatusInternalServerError, err.Error()))
		return
	}

	w.Header().Set("Content-Type", store.ContentType(key))
	_, _ = w.Write(data)
}

func (s *Service) handleUpload(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Bucket == nil {
		_ = render.Render(w, r, errJSON(http.StatusInternalServerError, errNoBucket.Error()))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		_ = render.Render(w, r, errJSON(http.StatusBadRequest, "File is required"))
		return
	}
	defer func() { _ = file.Close() }()

	key := uploadKey(header.Filename)
	if key == "" {
		_ = render.Render(w, r, errJSON(http.StatusBadRequest, "File is required"))
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		_ = render.Render(w, r, errJSON(http.StatusInternalServerError, err.Error()))
		return
	}

	up, err := s.cfg.Bucket.Put(r.Context(), key, data)
	if err != nil {
		s.log.Error("storing upload", zap.String("key", key), zap.Error(err))
		_ = render.Render(w, r, errJSON(http.StatusInternalServerError, err.Error()))
		return
	}
	s.metrics.uploads.Inc()
	s.log.Info("export uploaded", zap.String("key", up.Key), zap.Int64("size", up.Size), zap.String("upload_id", up.ID))
	s.publishEvent(Event{
		ID:        uuid.NewString(),
		Type:      EventUpload,
		Timestamp: up.UploadedAt,
		Key:       up.Key,
	})
	s.pollOnce(r.Context())

	render.JSON(w, r, uploadResponse{Success: true, Key: up.Key})
}

// uploadKey keeps only the base name of a client-supplied filename.
func uploadKey(filename string) string {
	name := strings.TrimSpace(filepath.Base(strings.ReplaceAll(filename, `\`, "/")))
	if name == "." || name == "/" {
		return ""
	}
	return name
}

func (s *Service) handleDashboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	criteria := pipeline.Criteria{
		Category: q.Get("category"),
		School:   q.Get("school"),
		Status:   q.Get("status"),
		Query:    q.Get("q"),
	}

	res, err := s.resolveDataset(r, q.Get("key"))
	switch {
	case errors.Is(err, errNoBucket):
		_ = render.Render(w, r, errJSON(http.StatusInternalServerError, err.Error()))
		return
	case errors.Is(err, store.ErrNotFound), errors.Is(err, pipeline.ErrNoSources):
		_ = render.Render(w, r, errJSON(http.StatusNotFound, err.Error()))
		return
	case err != nil:
		_ = render.Render(w, r, errJSON(http.StatusInternalServerError, err.Error()))
		return
	}

	render.JSON(w, r, DashboardResponse{
		Source:    res.Label,
		Filters:   criteria,
		Options:   pipeline.Options(res.Rows),
		Dashboard: pipeline.Build(pipeline.Filter(res.Rows, criteria), s.cfg.TopSchools),
	})
}

// resolveDataset returns the export named by key, or the active dataset
// when key is empty.
func (s *Service) resolveDataset(r *http.Request, key string) (*pipeline.LoadResult, error) {
	if s.cfg.Bucket == nil {
		return nil, errNoBucket
	}
	if key != "" {
		return pipeline.LoadObject(r.Context(), s.cfg.Bucket, key)
	}
	if res := s.dataset(); res != nil {
		return res, nil
	}
	s.pollOnce(r.Context())
	if res := s.dataset(); res != nil {
		return res, nil
	}
	return nil, pipeline.ErrNoSources
}
