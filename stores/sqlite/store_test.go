package sqlite

import (
	"argo-gateway/core"
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *sqliteStore {
	t.Helper()
	store := NewStore(filepath.Join(t.TempDir(), "test.db"))
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSave_Roundtrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	storedName, size, err := store.Save(ctx, "data.nc", strings.NewReader("blob-bytes"))
	if err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	if size != int64(len("blob-bytes")) {
		t.Errorf("expected size %d, got %d", len("blob-bytes"), size)
	}

	blob, err := store.Open(ctx, storedName)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer blob.Close()

	content, _ := io.ReadAll(blob)
	if string(content) != "blob-bytes" {
		t.Errorf("content mismatch: got %q", content)
	}
}

func TestSave_DistinctNames(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first, _, err := store.Save(ctx, "data.nc", strings.NewReader("a"))
	if err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	second, _, err := store.Save(ctx, "data.nc", strings.NewReader("b"))
	if err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	if first == second {
		t.Errorf("stored names collide: %q", first)
	}
}

func TestOpen_UnknownBlob(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.Open(context.Background(), "missing"); err == nil {
		t.Fatal("expected error for unknown blob, got nil")
	}
}

func TestLedger_RecordAndList(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		rec := &core.UploadRecord{
			JobID:        "job-1",
			OriginalName: "data.nc",
			StoredName:   "stored-data.nc",
			Size:         10,
			CreatedAt:    base.Add(time.Duration(i) * time.Minute),
		}
		if err := store.Record(ctx, rec); err != nil {
			t.Fatalf("Record() failed: %v", err)
		}
		if rec.ID == "" {
			t.Error("Record() did not assign an id")
		}
	}

	records, err := store.ListRecent(ctx, 2)
	if err != nil {
		t.Fatalf("ListRecent() failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if !records[0].CreatedAt.After(records[1].CreatedAt) {
		t.Errorf("expected newest-first order, got %v then %v", records[0].CreatedAt, records[1].CreatedAt)
	}
	if records[0].JobID != "job-1" || records[0].OriginalName != "data.nc" {
		t.Errorf("record fields not persisted: %+v", records[0])
	}
}

func TestLedger_DefaultLimit(t *testing.T) {
	store := newTestStore(t)
	records, err := store.ListRecent(context.Background(), 0)
	if err != nil {
		t.Fatalf("ListRecent() failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected empty list, got %d", len(records))
	}
}
