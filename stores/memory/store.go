package memory

import (
	"argo-gateway/core"
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// memStore keeps blobs and the upload ledger in process memory. It backs
// tests and environments with no configured storage.
type memStore struct {
	mu      sync.RWMutex
	blobs   map[string][]byte
	records []core.UploadRecord
}

// NewStore creates an in-memory blob store and upload ledger.
func NewStore() *memStore {
	return &memStore{blobs: make(map[string][]byte)}
}

func (s *memStore) Save(ctx context.Context, originalName string, r io.Reader) (string, int64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", 0, err
	}
	storedName := uuid.New().String() + "-" + filepath.Base(originalName)

	s.mu.Lock()
	s.blobs[storedName] = data
	s.mu.Unlock()

	return storedName, int64(len(data)), nil
}

func (s *memStore) Open(ctx context.Context, storedName string) (io.ReadCloser, error) {
	s.mu.RLock()
	data, ok := s.blobs[storedName]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("blob %s not found", storedName)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *memStore) Record(ctx context.Context, rec *core.UploadRecord) error {
	s.mu.Lock()
	s.records = append(s.records, *rec)
	s.mu.Unlock()
	return nil
}

// ListRecent returns ledger entries newest-first.
func (s *memStore) ListRecent(ctx context.Context, limit int) ([]core.UploadRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > len(s.records) {
		limit = len(s.records)
	}
	out := make([]core.UploadRecord, 0, limit)
	for i := len(s.records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.records[i])
	}
	return out, nil
}
