package filesystem

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"testing"
)

func TestSave_CollisionFreeNames(t *testing.T) {
	store := NewStore(t.TempDir())
	ctx := context.Background()

	const workers = 16
	names := make(chan string, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			storedName, _, err := store.Save(ctx, "data.nc", strings.NewReader(fmt.Sprintf("upload-%d", i)))
			if err != nil {
				t.Errorf("Save() failed: %v", err)
				return
			}
			names <- storedName
		}(i)
	}
	wg.Wait()
	close(names)

	seen := make(map[string]bool)
	for name := range names {
		if seen[name] {
			t.Errorf("concurrent uploads with the same original name share the stored name %q", name)
		}
		seen[name] = true
		if !strings.HasSuffix(name, "-data.nc") {
			t.Errorf("stored name should keep the original name: %q", name)
		}
	}
	if len(seen) != workers {
		t.Errorf("expected %d distinct stored names, got %d", workers, len(seen))
	}
}

func TestSave_Roundtrip(t *testing.T) {
	store := NewStore(t.TempDir())
	ctx := context.Background()

	storedName, size, err := store.Save(ctx, "profile.netcdf", strings.NewReader("netcdf-bytes"))
	if err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	if size != int64(len("netcdf-bytes")) {
		t.Errorf("expected size %d, got %d", len("netcdf-bytes"), size)
	}

	blob, err := store.Open(ctx, storedName)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer blob.Close()

	content, err := io.ReadAll(blob)
	if err != nil {
		t.Fatalf("reading blob failed: %v", err)
	}
	if string(content) != "netcdf-bytes" {
		t.Errorf("content mismatch: got %q", content)
	}
}

func TestSave_StripsPathFromOriginalName(t *testing.T) {
	base := t.TempDir()
	store := NewStore(base)
	ctx := context.Background()

	storedName, _, err := store.Save(ctx, "../../../etc/data.nc", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	if strings.Contains(storedName, "/") {
		t.Errorf("stored name contains path separators: %q", storedName)
	}

	entries, err := os.ReadDir(base)
	if err != nil {
		t.Fatalf("reading base dir failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected exactly one file in base dir, got %d", len(entries))
	}
}

func TestOpen_UnknownBlob(t *testing.T) {
	store := NewStore(t.TempDir())

	if _, err := store.Open(context.Background(), "missing-data.nc"); err == nil {
		t.Fatal("expected error for unknown blob, got nil")
	}
}

func TestOpen_RejectsTraversal(t *testing.T) {
	store := NewStore(t.TempDir())

	if _, err := store.Open(context.Background(), "../outside"); err == nil {
		t.Fatal("expected error for traversal attempt, got nil")
	}
}
