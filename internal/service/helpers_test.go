package service

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/textproto"
	"sync"
	"testing"
	"time"

	"github.com/GandharvMahajan/AutoExamChecker/internal/config"
	"github.com/GandharvMahajan/AutoExamChecker/internal/model"
	"github.com/GandharvMahajan/AutoExamChecker/internal/repository/memstore"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		JWTSecret:      "test-secret",
		JWTExpiry:      time.Hour,
		BcryptCost:     bcrypt.MinCost,
		UploadDir:      t.TempDir(),
		MaxUploadBytes: 1 << 20,
		AdminSetupKey:  "setup-key",
		FrontendURL:    "http://localhost:3000",
	}
}

func testStore(t *testing.T) *memstore.Store {
	t.Helper()
	s, err := memstore.Open(zerolog.Nop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// recordingDiscarder remembers every URL handed to it.
type recordingDiscarder struct {
	mu   sync.Mutex
	urls []string
}

func (d *recordingDiscarder) Discard(_ context.Context, url string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.urls = append(d.urls, url)
}

func (d *recordingDiscarder) discarded() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.urls...)
}

func seedAccount(t *testing.T, s *memstore.Store, email string, purchased int) *model.Account {
	t.Helper()
	a := &model.Account{Name: "Student", Email: email, PasswordHash: "x", CreditsPurchased: purchased}
	if err := s.Accounts().Create(context.Background(), a); err != nil {
		t.Fatalf("seed account: %v", err)
	}
	return a
}

func seedExam(t *testing.T, s *memstore.Store, title string, minutes int) *model.Exam {
	t.Helper()
	e := &model.Exam{Title: title, Subject: "Science", ClassLevel: 10, TotalMarks: 80, PassingMarks: 27, DurationMinutes: minutes}
	if err := s.Exams().Create(context.Background(), e); err != nil {
		t.Fatalf("seed exam: %v", err)
	}
	return e
}

// upload builds a multipart file the way the HTTP layer receives it.
func upload(t *testing.T, contentType string, body []byte) (multipart.File, *multipart.FileHeader) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", `form-data; name="file"; filename="answer.pdf"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write(body); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(4 << 20)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = form.RemoveAll() })

	fh := form.File["file"][0]
	f, err := fh.Open()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = f.Close() })
	return f, fh
}

func pdfBytes() []byte {
	return []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\ntrailer\n<<>>\n%%EOF\n")
}

func testNow() time.Time {
	return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
}
