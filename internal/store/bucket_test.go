package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestBucket(t *testing.T) *Bucket {
	t.Helper()
	b, err := Open(filepath.Join(t.TempDir(), "nested", "bucket.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = b.Close() })
	return b
}

// clock returns a now func that advances one minute per call.
func clock(start time.Time) func() time.Time {
	n := 0
	return func() time.Time {
		n++
		return start.Add(time.Duration(n) * time.Minute)
	}
}

func TestBucket_PutGet(t *testing.T) {
	b := openTestBucket(t)
	ctx := context.Background()

	up, err := b.Put(ctx, "export.csv", []byte("a,b\n1,2\n"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if up.ID == "" || up.Size != 8 || up.Key != "export.csv" {
		t.Errorf("upload = %+v", up)
	}

	data, err := b.Get(ctx, "export.csv")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(data) != "a,b\n1,2\n" {
		t.Errorf("data = %q", data)
	}

	if _, err := b.Get(ctx, "missing.csv"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) err = %v, want ErrNotFound", err)
	}
}

func TestBucket_PutReplaces(t *testing.T) {
	b := openTestBucket(t)
	ctx := context.Background()

	if _, err := b.Put(ctx, "export.csv", []byte("v1")); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Put(ctx, "export.csv", []byte("version two")); err != nil {
		t.Fatal(err)
	}

	data, err := b.Get(ctx, "export.csv")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "version two" {
		t.Errorf("data = %q, want replaced content", data)
	}
	n, err := b.Count(ctx)
	if err != nil || n != 1 {
		t.Errorf("Count = %d, %v; want 1", n, err)
	}

	ups, err := b.Uploads(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(ups) != 2 {
		t.Errorf("uploads = %d, want 2 (history is kept)", len(ups))
	}
}

func TestBucket_ListNewestFirst(t *testing.T) {
	b := openTestBucket(t)
	b.now = clock(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()

	for _, key := range []string{"jan.csv", "notes.txt", "feb.xlsx", "mar.csv"} {
		if _, err := b.Put(ctx, key, []byte(key)); err != nil {
			t.Fatal(err)
		}
	}

	objs, err := b.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var keys []string
	for _, o := range objs {
		keys = append(keys, o.Key)
	}
	want := []string{"mar.csv", "feb.xlsx", "jan.csv"}
	if len(keys) != len(want) {
		t.Fatalf("keys = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("keys[%d] = %s, want %s", i, keys[i], want[i])
		}
	}
	if objs[0].Size != int64(len("mar.csv")) {
		t.Errorf("size = %d", objs[0].Size)
	}
	if !objs[0].LastModified.Equal(time.Date(2025, 3, 1, 9, 4, 0, 0, time.UTC)) {
		t.Errorf("lastModified = %v", objs[0].LastModified)
	}
}

func TestBucket_DeleteAndEmptyKey(t *testing.T) {
	b := openTestBucket(t)
	ctx := context.Background()

	if _, err := b.Put(ctx, "  ", []byte("x")); err == nil {
		t.Error("expected error for empty key")
	}
	if _, err := b.Put(ctx, "x.csv", []byte("x")); err != nil {
		t.Fatal(err)
	}
	if err := b.Delete(ctx, "x.csv"); err != nil {
		t.Fatal(err)
	}
	if err := b.Delete(ctx, "x.csv"); err != nil {
		t.Errorf("second delete: %v", err)
	}
	if _, err := b.Get(ctx, "x.csv"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after delete err = %v", err)
	}
}

func TestContentType(t *testing.T) {
	if got := ContentType("a.CSV"); got != "text/csv" {
		t.Errorf("csv = %s", got)
	}
	if got := ContentType("a.xlsx"); got == "text/csv" {
		t.Errorf("xlsx = %s", got)
	}
}

func TestBucket_Latest(t *testing.T) {
	b := openTestBucket(t)
	b.now = clock(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	ctx := context.Background()

	if _, err := b.Latest(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Latest on empty bucket: err = %v, want ErrNotFound", err)
	}

	for _, k := range []string{"a.csv", "b.xlsx", "notes.txt"} {
		if _, err := b.Put(ctx, k, []byte("x")); err != nil {
			t.Fatalf("Put %s: %v", k, err)
		}
	}
	latest, err := b.Latest(ctx)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if latest.Key != "b.xlsx" {
		t.Errorf("Latest = %q, want b.xlsx", latest.Key)
	}
}
