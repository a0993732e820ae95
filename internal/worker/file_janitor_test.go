package worker

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func writeUpload(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("%PDF-1.4"), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestDiscardRemovesInlineWithoutRedis(t *testing.T) {
	dir := t.TempDir()
	path := writeUpload(t, dir, "answer.pdf")

	j := NewFileJanitor(nil, dir, zerolog.Nop())
	j.Discard(testContext(t), "/uploads/answer.pdf")

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("file still present: %v", err)
	}

	// Already gone, and not an upload URL.
	j.Discard(testContext(t), "/uploads/answer.pdf")
	j.Discard(testContext(t), "https://cdn.example.com/answer.pdf")
}

func TestDiscardStaysInsideUploadDir(t *testing.T) {
	root := t.TempDir()
	uploads := filepath.Join(root, "uploads")
	if err := os.Mkdir(uploads, 0o755); err != nil {
		t.Fatal(err)
	}
	outside := writeUpload(t, root, "secret.pdf")

	j := NewFileJanitor(nil, uploads, zerolog.Nop())
	j.Discard(testContext(t), "/uploads/../secret.pdf")

	if _, err := os.Stat(outside); err != nil {
		t.Errorf("file outside upload dir was touched: %v", err)
	}
}

func TestStartReturnsWithoutQueue(t *testing.T) {
	j := NewFileJanitor(nil, t.TempDir(), zerolog.Nop())

	done := make(chan struct{})
	go func() {
		j.Start(testContext(t))
		close(done)
	}()
	<-done
}

// testContext stands in for t.Context (Go 1.24+): a context cancelled when the test finishes.
func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}
