package sqlite

import (
	"argo-gateway/core"
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

type sqliteStore struct {
	db *sql.DB
}

// NewStore creates a SQLite-backed blob store and upload ledger.
func NewStore(dataSourceName string) *sqliteStore {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		log.Fatalf("failed to open sqlite database: %v", err)
	}

	blobTableStmt := `CREATE TABLE IF NOT EXISTS blobs (stored_name TEXT PRIMARY KEY, data BLOB);`
	if _, err = db.Exec(blobTableStmt); err != nil {
		log.Fatalf("failed to create blobs table: %v", err)
	}

	uploadTableStmt := `
	CREATE TABLE IF NOT EXISTS uploads (
		id TEXT PRIMARY KEY,
		job_id TEXT,
		original_name TEXT NOT NULL,
		stored_name TEXT NOT NULL,
		size INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);`
	if _, err = db.Exec(uploadTableStmt); err != nil {
		log.Fatalf("failed to create uploads table: %v", err)
	}

	return &sqliteStore{db}
}

// BlobStore implementation

func (s *sqliteStore) Save(ctx context.Context, originalName string, r io.Reader) (string, int64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", 0, err
	}

	storedName := uuid.New().String() + "-" + filepath.Base(originalName)
	log := logrus.WithFields(logrus.Fields{
		"stored_name": storedName,
		"size":        len(data),
	})

	_, err = s.db.ExecContext(ctx, "INSERT INTO blobs (stored_name, data) VALUES (?, ?)", storedName, data)
	if err != nil {
		log.WithError(err).Error("Failed to store blob")
		return "", 0, err
	}

	log.Info("Blob stored")
	return storedName, int64(len(data)), nil
}

func (s *sqliteStore) Open(ctx context.Context, storedName string) (io.ReadCloser, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, "SELECT data FROM blobs WHERE stored_name = ?", storedName).Scan(&data)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("blob %s not found", storedName)
		}
		logrus.WithError(err).WithField("stored_name", storedName).Error("Failed to read blob")
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// UploadLedger implementation

func (s *sqliteStore) Record(ctx context.Context, rec *core.UploadRecord) error {
	if rec.ID == "" {
		rec.ID = ulid.Make().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO uploads (id, job_id, original_name, stored_name, size, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		rec.ID, rec.JobID, rec.OriginalName, rec.StoredName, rec.Size, rec.CreatedAt.UnixMilli())
	if err != nil {
		logrus.WithError(err).WithField("upload_id", rec.ID).Error("Failed to record upload")
		return err
	}
	return nil
}

func (s *sqliteStore) ListRecent(ctx context.Context, limit int) ([]core.UploadRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, job_id, original_name, stored_name, size, created_at FROM uploads ORDER BY created_at DESC, id DESC LIMIT ?",
		limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]core.UploadRecord, 0, limit)
	for rows.Next() {
		var rec core.UploadRecord
		var createdAt int64
		if err := rows.Scan(&rec.ID, &rec.JobID, &rec.OriginalName, &rec.StoredName, &rec.Size, &createdAt); err != nil {
			return nil, err
		}
		rec.CreatedAt = time.UnixMilli(createdAt).UTC()
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}
