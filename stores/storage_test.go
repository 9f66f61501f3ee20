package stores

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	logrus.SetOutput(&buf)
	t.Cleanup(func() { logrus.SetOutput(os.Stderr) })
	return &buf
}

func TestGetStore_InMemoryLedgerFallbackIsLogged(t *testing.T) {
	t.Setenv("STORAGE_TYPE", "filesystem")
	t.Setenv("LOCAL_STORAGE_PATH", t.TempDir())
	t.Setenv("DATA_SOURCE_NAME", "")
	buf := captureLog(t)

	blobs, ledger := GetStore()
	if blobs == nil || ledger == nil {
		t.Fatal("expected both a blob store and a ledger")
	}

	out := buf.String()
	if !strings.Contains(out, "in-memory") {
		t.Errorf("expected the in-memory ledger choice to be logged, got %q", out)
	}
	if !strings.Contains(out, "upload history is kept in memory") {
		t.Errorf("expected a warning about the volatile ledger, got %q", out)
	}
}

func TestGetStore_SQLiteLedgerChoiceIsLogged(t *testing.T) {
	t.Setenv("STORAGE_TYPE", "filesystem")
	t.Setenv("LOCAL_STORAGE_PATH", t.TempDir())
	t.Setenv("DATA_SOURCE_NAME", filepath.Join(t.TempDir(), "ledger.db"))
	buf := captureLog(t)

	blobs, ledger := GetStore()
	if blobs == nil || ledger == nil {
		t.Fatal("expected both a blob store and a ledger")
	}

	if out := buf.String(); !strings.Contains(out, "ledger=sqlite") {
		t.Errorf("expected the sqlite ledger choice to be logged, got %q", out)
	}
}
