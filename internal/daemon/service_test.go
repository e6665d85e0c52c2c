package daemon

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/theirongolddev/cdash/internal/model"
	"github.com/theirongolddev/cdash/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const (
	adminKey    = "admin-secret"
	readOnlyKey = "viewer-secret"
)

const exportCSV = "Tipo de item,Chave da item,Resumo,Status,Campo personalizado (Categoria),Campo personalizado (Escola)," +
	"Campo personalizado (Valor Contratual),Campo personalizado (Valor Medido),Chave pai\n" +
	"Tarefa,A,Telhado,Concluído,Cobertura,EM Norte,\"1.000,00\",\"500,00\",\n" +
	"Tarefa,B,Muro,Pendente,Alvenaria,EM Sul,\"2.000,00\",,\n" +
	"Subtarefa,A-1,Fotos,Concluído,,,,,A\n"

func newTestService(t *testing.T, withBucket bool) *Service {
	t.Helper()
	cfg := Config{
		AdminKey:    adminKey,
		ReadOnlyKey: readOnlyKey,
		Interval:    time.Minute,
	}
	if withBucket {
		b, err := store.Open(filepath.Join(t.TempDir(), "bucket.db"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = b.Close() })
		cfg.Bucket = b
	}
	return New(cfg)
}

func do(t *testing.T, s *Service, method, target, key string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, body)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if key != "" {
		req.Header.Set(AccessKeyHeader, key)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func multipartFile(t *testing.T, field, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func upload(t *testing.T, s *Service, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	body, ct := multipartFile(t, "file", filename, content)
	return do(t, s, http.MethodPost, "/api/s3/upload", adminKey, body, ct)
}

func errorText(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

func TestPublishEventRingBuffer(t *testing.T) {
	s := New(Config{
		Interval:     10 * time.Second,
		EventsBuffer: 2,
	})

	s.publishEvent(Event{ID: "1"})
	s.publishEvent(Event{ID: "2"})
	s.publishEvent(Event{ID: "3"})

	s.mu.RLock()
	defer s.mu.RUnlock()

	require.Len(t, s.events, 2)
	assert.Equal(t, "2", s.events[0].ID)
	assert.Equal(t, "3", s.events[1].ID)
}

func TestKeyMatches(t *testing.T) {
	assert.True(t, keyMatches("k", "k"))
	assert.False(t, keyMatches("k", "K"))
	assert.False(t, keyMatches("", ""), "unset key must never match")
	assert.False(t, keyMatches("k", ""))
	assert.False(t, keyMatches("", "k"))
}

func TestGate(t *testing.T) {
	s := newTestService(t, true)

	tests := []struct {
		name    string
		method  string
		target  string
		key     string
		want    int
		wantErr string
	}{
		{"list without key", http.MethodGet, "/api/s3/list", "", http.StatusUnauthorized, msgKeyRequired},
		{"list wrong key", http.MethodGet, "/api/s3/list", "nope", http.StatusUnauthorized, msgKeyRequired},
		{"list read-only", http.MethodGet, "/api/s3/list", readOnlyKey, http.StatusOK, ""},
		{"list admin", http.MethodGet, "/api/s3/list", adminKey, http.StatusOK, ""},
		{"content read-only", http.MethodGet, "/api/s3/content", readOnlyKey, http.StatusBadRequest, "Key is required"},
		{"upload read-only", http.MethodPost, "/api/s3/upload", readOnlyKey, http.StatusUnauthorized, msgAdminRequired},
		{"upload without key", http.MethodPost, "/api/s3/upload", "", http.StatusUnauthorized, msgAdminRequired},
		{"dashboard without key", http.MethodGet, "/api/dashboard", "", http.StatusUnauthorized, msgKeyRequired},
		{"health is public", http.MethodGet, "/healthz", "", http.StatusOK, ""},
		{"status is public", http.MethodGet, "/v1/status", "", http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, tt.method, tt.target, tt.key, nil, "")
			assert.Equal(t, tt.want, rec.Code)
			if tt.wantErr != "" {
				assert.Equal(t, tt.wantErr, errorText(t, rec))
			}
		})
	}
}

func TestGate_EmptyKeysNeverMatch(t *testing.T) {
	s := New(Config{})
	rec := do(t, s, http.MethodGet, "/api/s3/list", "", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/auth/verify", "", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestVerify(t *testing.T) {
	s := newTestService(t, false)

	rec := do(t, s, http.MethodPost, "/api/auth/verify", adminKey, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())

	rec = do(t, s, http.MethodPost, "/api/auth/verify", readOnlyKey, nil, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, msgInvalidKey, errorText(t, rec))
}

func TestList_NoBucket(t *testing.T) {
	s := newTestService(t, false)
	rec := do(t, s, http.MethodGet, "/api/s3/list", adminKey, nil, "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestList_EmptyIsArray(t *testing.T) {
	s := newTestService(t, true)
	rec := do(t, s, http.MethodGet, "/api/s3/list", readOnlyKey, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"files":[]}`, rec.Body.String())
}

func TestUploadListContent(t *testing.T) {
	s := newTestService(t, true)

	rec := upload(t, s, "export.csv", exportCSV)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"success":true,"key":"export.csv"}`, rec.Body.String())

	rec = do(t, s, http.MethodGet, "/api/s3/list", readOnlyKey, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list listResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Files, 1)
	assert.Equal(t, "export.csv", list.Files[0].Key)
	assert.Equal(t, int64(len(exportCSV)), list.Files[0].Size)

	rec = do(t, s, http.MethodGet, "/api/s3/content?key=export.csv", readOnlyKey, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Equal(t, exportCSV, rec.Body.String())

	rec = do(t, s, http.MethodGet, "/api/s3/content?key=missing.csv", readOnlyKey, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpload_RequiresFile(t *testing.T) {
	s := newTestService(t, true)

	body, ct := multipartFile(t, "other", "export.csv", exportCSV)
	rec := do(t, s, http.MethodPost, "/api/s3/upload", adminKey, body, ct)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "File is required", errorText(t, rec))
}

func TestUpload_StripsDirectories(t *testing.T) {
	assert.Equal(t, "export.csv", uploadKey(`C:\Users\obra\export.csv`))
	assert.Equal(t, "export.csv", uploadKey("../../export.csv"))
	assert.Equal(t, "", uploadKey(""))
}

func TestUpload_LoadsAndPublishes(t *testing.T) {
	s := newTestService(t, true)

	rec := upload(t, s, "export.csv", exportCSV)
	require.Equal(t, http.StatusOK, rec.Code)

	st := s.snapshotStatus()
	require.NotNil(t, st.Source)
	assert.Equal(t, "export.csv", st.Source.Key)
	assert.Equal(t, 3, st.Source.Rows)
	assert.Equal(t, 2, st.Source.Tasks)
	assert.Equal(t, int64(300000), st.Source.Totals.ContractualCents)

	rec = do(t, s, http.MethodGet, "/v1/events", "", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var events []Event
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &events))
	require.Len(t, events, 2)
	assert.Equal(t, EventUpload, events[0].Type)
	assert.Equal(t, EventSourceLoaded, events[1].Type)
	assert.NotEmpty(t, events[1].ID)
}

func TestPollOnce_ReloadsOnlyOnChange(t *testing.T) {
	s := newTestService(t, true)
	ctx := context.Background()

	s.pollOnce(ctx)
	assert.Nil(t, s.dataset(), "empty bucket loads nothing")

	_, err := s.cfg.Bucket.Put(ctx, "a.csv", []byte(exportCSV))
	require.NoError(t, err)
	s.pollOnce(ctx)
	s.pollOnce(ctx)

	st := s.snapshotStatus()
	assert.Equal(t, int64(3), st.PollCount)
	assert.Equal(t, 1, st.EventCount, "unchanged bucket must not republish")
	assert.Empty(t, st.LastError)
}

func TestDashboard(t *testing.T) {
	s := newTestService(t, true)
	require.Equal(t, http.StatusOK, upload(t, s, "export.csv", exportCSV).Code)

	rec := do(t, s, http.MethodGet, "/api/dashboard", readOnlyKey, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp DashboardResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "export.csv", resp.Source)
	assert.Equal(t, model.KPITotals{
		ContractualCents: 300000,
		MeasuredCents:    50000,
		PercentMeasured:  resp.Dashboard.Totals.PercentMeasured,
		Tasks:            2,
		DoneTasks:        1,
		BalanceDueCents:  50000,
	}, resp.Dashboard.Totals)
	assert.InDelta(t, 16.6667, resp.Dashboard.Totals.PercentMeasured, 0.001)
	assert.Equal(t, []string{"Alvenaria", "Cobertura"}, resp.Options.Categories)

	rec = do(t, s, http.MethodGet, "/api/dashboard?status=Pendente", readOnlyKey, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp = DashboardResponse{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Pendente", resp.Filters.Status)
	assert.Equal(t, int64(200000), resp.Dashboard.Totals.ContractualCents)
	assert.Equal(t, 1, resp.Dashboard.Totals.Tasks)
	assert.Len(t, resp.Options.Categories, 2, "options come from the unfiltered rows")

	rec = do(t, s, http.MethodGet, "/api/dashboard?key=missing.csv", readOnlyKey, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDashboard_EmptyBucket(t *testing.T) {
	s := newTestService(t, true)
	rec := do(t, s, http.MethodGet, "/api/dashboard", adminKey, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestService(t, true)
	require.Equal(t, http.StatusOK, upload(t, s, "export.csv", exportCSV).Code)
	do(t, s, http.MethodGet, "/api/s3/list", "", nil, "")

	rec := do(t, s, http.MethodGet, "/metrics", "", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "cdash_uploads_total 1")
	assert.Contains(t, body, "cdash_access_denied_total 1")
	assert.Contains(t, body, `cdash_source_loads_total{result="ok"} 1`)
	assert.Contains(t, body, "cdash_rows_loaded 3")
}

func TestStream_SendsSnapshotFirst(t *testing.T) {
	s := newTestService(t, false)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/v1/stream", nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	sc := bufio.NewScanner(resp.Body)
	require.True(t, sc.Scan())
	assert.Equal(t, "event: "+EventSnapshot, sc.Text())
	require.True(t, sc.Scan())
	assert.True(t, strings.HasPrefix(sc.Text(), "data: "))

	cancel()
}
