package remote

import (
	"context"
	"errors"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/theirongolddev/cdash/internal/daemon"
	"github.com/theirongolddev/cdash/internal/pipeline"
	"github.com/theirongolddev/cdash/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	adminKey    = "admin-secret"
	readOnlyKey = "viewer-secret"
)

const exportCSV = "Tipo de item,Chave da item,Resumo,Status,Campo personalizado (Categoria),Campo personalizado (Escola)," +
	"Campo personalizado (Valor Contratual),Campo personalizado (Valor Medido),Chave pai\n" +
	"Tarefa,A,Telhado,Concluído,Cobertura,EM Norte,\"1.000,00\",\"500,00\",\n" +
	"Tarefa,B,Muro,Pendente,Alvenaria,EM Sul,\"2.000,00\",,\n"

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	b, err := store.Open(filepath.Join(t.TempDir(), "bucket.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })

	svc := daemon.New(daemon.Config{
		Bucket:      b,
		AdminKey:    adminKey,
		ReadOnlyKey: readOnlyKey,
		Interval:    time.Minute,
	})
	srv := httptest.NewServer(svc.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func TestNewClient_RejectsBadURL(t *testing.T) {
	for _, u := range []string{"", "ftp://host", "localhost:8787", "http://"} {
		_, err := NewClient(u, "k")
		assert.Error(t, err, u)
	}
	c, err := NewClient("http://127.0.0.1:8787/", "k")
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8787", c.String())
}

func TestVerify(t *testing.T) {
	srv := newServer(t)
	ctx := context.Background()

	admin, err := NewClient(srv.URL, adminKey)
	require.NoError(t, err)
	assert.NoError(t, admin.Verify(ctx))

	viewer, err := NewClient(srv.URL, readOnlyKey)
	require.NoError(t, err)
	err = viewer.Verify(ctx)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Contains(t, err.Error(), "Invalid access key")
}

func TestUploadListGet(t *testing.T) {
	srv := newServer(t)
	ctx := context.Background()

	admin, err := NewClient(srv.URL, adminKey)
	require.NoError(t, err)
	key, err := admin.Upload(ctx, "obras.csv", []byte(exportCSV))
	require.NoError(t, err)
	assert.Equal(t, "obras.csv", key)

	viewer, err := NewClient(srv.URL, readOnlyKey)
	require.NoError(t, err)

	objs, err := viewer.List(ctx)
	require.NoError(t, err)
	require.Len(t, objs, 1)
	assert.Equal(t, "obras.csv", objs[0].Key)

	data, err := viewer.Get(ctx, "obras.csv")
	require.NoError(t, err)
	assert.Equal(t, exportCSV, string(data))

	_, err = viewer.Get(ctx, "missing.csv")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUploadRequiresAdmin(t *testing.T) {
	srv := newServer(t)
	viewer, err := NewClient(srv.URL, readOnlyKey)
	require.NoError(t, err)

	_, err = viewer.Upload(context.Background(), "obras.csv", []byte(exportCSV))
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Contains(t, err.Error(), "Admin access required")
}

func TestLoadObjectThroughClient(t *testing.T) {
	srv := newServer(t)
	ctx := context.Background()

	admin, err := NewClient(srv.URL, adminKey)
	require.NoError(t, err)
	_, err = admin.Upload(ctx, "obras.csv", []byte(exportCSV))
	require.NoError(t, err)

	res, err := pipeline.LoadObject(ctx, admin, "")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Tasks)
	assert.Len(t, res.Rows, 2)
}

func TestDashboard(t *testing.T) {
	srv := newServer(t)
	ctx := context.Background()

	admin, err := NewClient(srv.URL, adminKey)
	require.NoError(t, err)

	_, err = admin.Dashboard(ctx, "", pipeline.Criteria{})
	assert.True(t, errors.Is(err, store.ErrNotFound), "empty bucket: %v", err)

	_, err = admin.Upload(ctx, "obras.csv", []byte(exportCSV))
	require.NoError(t, err)

	dr, err := admin.Dashboard(ctx, "", pipeline.Criteria{Status: "Pendente"})
	require.NoError(t, err)
	assert.Equal(t, "obras.csv", dr.Source)
	assert.Equal(t, int64(200000), dr.Dashboard.Totals.ContractualCents)
	assert.Len(t, dr.Options.Categories, 2)
}
