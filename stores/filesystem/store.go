package filesystem

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type fsStore struct {
	basePath string
}

// NewStore creates a filesystem-backed blob store rooted at basePath.
func NewStore(basePath string) *fsStore {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		log.Fatalf("failed to create upload directory: %v", err)
	}
	return &fsStore{basePath: basePath}
}

// Save writes the blob under a fresh unique name. The client-supplied name is
// reduced to its base and prefixed with a random UUID, so two uploads sharing
// an original filename never collide and path segments in the original name
// cannot escape the base directory.
func (s *fsStore) Save(ctx context.Context, originalName string, r io.Reader) (string, int64, error) {
	storedName := uuid.New().String() + "-" + filepath.Base(originalName)
	filePath := filepath.Join(s.basePath, storedName)
	log := logrus.WithFields(logrus.Fields{
		"original_name": originalName,
		"stored_name":   storedName,
	})

	// O_EXCL keeps the store write-once even in the unlikely event of a
	// duplicate name.
	f, err := os.OpenFile(filePath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		log.WithError(err).Error("Failed to create blob file")
		return "", 0, err
	}

	size, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		log.WithError(err).Error("Failed to write blob file")
		os.Remove(filePath)
		return "", 0, err
	}

	log.WithField("size", size).Info("Blob stored")
	return storedName, size, nil
}

func (s *fsStore) Open(ctx context.Context, storedName string) (io.ReadCloser, error) {
	filePath := filepath.Join(s.basePath, storedName)

	absBase, err := filepath.Abs(s.basePath)
	if err != nil {
		return nil, err
	}
	absFile, err := filepath.Abs(filePath)
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(absFile, absBase+string(os.PathSeparator)) {
		return nil, fmt.Errorf("invalid blob name: access denied")
	}

	f, err := os.Open(absFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("blob %s not found", storedName)
		}
		return nil, err
	}
	return f, nil
}
