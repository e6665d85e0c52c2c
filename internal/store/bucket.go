// Package store provides a SQLite-backed bucket for raw tracker exports.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/theirongolddev/cdash/internal/model"
	"github.com/theirongolddev/cdash/internal/source"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // register sqlite driver
)

// ErrNotFound is returned when a key is not in the bucket.
var ErrNotFound = errors.New("object not found")

// Bucket stores exports by key, the way an object store would. Only the
// raw bytes are kept; rows are always decoded fresh on load.
type Bucket struct {
	db  *sql.DB
	now func() time.Time
}

// Upload records one successful Put.
type Upload struct {
	ID         string    `json:"id"`
	Key        string    `json:"key"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// Open opens or creates the bucket database at the given path.
func Open(dbPath string) (*Bucket, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating bucket dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening bucket db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Bucket{db: db, now: time.Now}, nil
}

// Close closes the bucket database.
func (b *Bucket) Close() error {
	return b.db.Close()
}

// Put stores data under key, replacing any previous object, and returns
// the upload record.
func (b *Bucket) Put(ctx context.Context, key string, data []byte) (Upload, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return Upload{}, errors.New("empty object key")
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return Upload{}, err
	}
	defer func() { _ = tx.Rollback() }()

	now := b.now().UTC()
	_, err = tx.ExecContext(ctx, `INSERT OR REPLACE INTO objects
		(key, content, size_bytes, last_modified_ns)
		VALUES (?, ?, ?, ?)`,
		key, data, len(data), now.UnixNano(),
	)
	if err != nil {
		return Upload{}, fmt.Errorf("storing %s: %w", key, err)
	}

	up := Upload{
		ID:         uuid.NewString(),
		Key:        key,
		Size:       int64(len(data)),
		UploadedAt: now,
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO uploads (id, key, size_bytes, uploaded_ns)
		VALUES (?, ?, ?, ?)`, up.ID, up.Key, up.Size, now.UnixNano())
	if err != nil {
		return Upload{}, fmt.Errorf("recording upload of %s: %w", key, err)
	}

	if err := tx.Commit(); err != nil {
		return Upload{}, err
	}
	return up, nil
}

// Get returns the bytes stored under key.
func (b *Bucket) Get(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := b.db.QueryRowContext(ctx, "SELECT content FROM objects WHERE key = ?", key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// List returns every stored export, newest first. Objects that are not
// CSV or XLSX are skipped.
func (b *Bucket) List(ctx context.Context) ([]model.SourceObject, error) {
	rows, err := b.db.QueryContext(ctx,
		"SELECT key, size_bytes, last_modified_ns FROM objects ORDER BY last_modified_ns DESC, key")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var objs []model.SourceObject
	for rows.Next() {
		var (
			o  model.SourceObject
			ns int64
		)
		if err := rows.Scan(&o.Key, &o.Size, &ns); err != nil {
			return nil, err
		}
		if !source.IsExport(o.Key) {
			continue
		}
		o.LastModified = time.Unix(0, ns).UTC()
		objs = append(objs, o)
	}
	return objs, rows.Err()
}

// Latest returns the most recently modified export, or ErrNotFound when
// the bucket holds none.
func (b *Bucket) Latest(ctx context.Context) (model.SourceObject, error) {
	objs, err := b.List(ctx)
	if err != nil {
		return model.SourceObject{}, err
	}
	if len(objs) == 0 {
		return model.SourceObject{}, ErrNotFound
	}
	return objs[0], nil
}

// Delete removes an object. Deleting a missing key is not an error.
func (b *Bucket) Delete(ctx context.Context, key string) error {
	_, err := b.db.ExecContext(ctx, "DELETE FROM objects WHERE key = ?", key)
	return err
}

// Uploads returns the most recent upload records, newest first.
func (b *Bucket) Uploads(ctx context.Context, limit int) ([]Upload, error) {
	rows, err := b.db.QueryContext(ctx,
		"SELECT id, key, size_bytes, uploaded_ns FROM uploads ORDER BY uploaded_ns DESC, rowid DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var ups []Upload
	for rows.Next() {
		var (
			u  Upload
			ns int64
		)
		if err := rows.Scan(&u.ID, &u.Key, &u.Size, &ns); err != nil {
			return nil, err
		}
		u.UploadedAt = time.Unix(0, ns).UTC()
		ups = append(ups, u)
	}
	return ups, rows.Err()
}

// Count returns the number of stored objects.
func (b *Bucket) Count(ctx context.Context) (int, error) {
	var count int
	err := b.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM objects").Scan(&count)
	return count, err
}

// ContentType is the MIME type served for an export key.
func ContentType(key string) string {
	if strings.EqualFold(filepath.Ext(key), ".xlsx") {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv"
}
