package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"os"
	"path/filepath"
	"time"

	"github.com/GandharvMahajan/AutoExamChecker/internal/config"
	"github.com/google/uuid"
)

// Sentinel errors for media uploads.
var (
	ErrUnsupportedFileType = errors.New("only PDF files are allowed")
	ErrFileTooLarge        = errors.New("file too large")
)

// UploadURLPrefix is the public path uploaded files are served from.
const UploadURLPrefix = "/uploads/"

var pdfMagic = []byte("%PDF-")

// Upload kinds used as filename prefixes.
const (
	UploadKindQuestion = "question"
	UploadKindAnswer   = "answer"
)

// FileDiscarder disposes of uploads that are no longer referenced.
type FileDiscarder interface {
	Discard(ctx context.Context, url string)
}

// MediaService stores uploaded PDFs on local disk.
type MediaService struct {
	cfg     *config.Config
	discard FileDiscarder
}

// NewMediaService creates a new MediaService.
func NewMediaService(cfg *config.Config, discard FileDiscarder) *MediaService {
	return &MediaService{cfg: cfg, discard: discard}
}

// SavePDF validates and stores an uploaded PDF, returning its public URL.
// Files are named <kind>-<unix millis>-<random>.pdf.
func (s *MediaService) SavePDF(kind string, file multipart.File, header *multipart.FileHeader) (string, error) {
	mediaType, _, _ := mime.ParseMediaType(header.Header.Get("Content-Type"))
	if mediaType != "application/pdf" {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFileType, header.Header.Get("Content-Type"))
	}

	if header.Size > s.cfg.MaxUploadBytes {
		return "", fmt.Errorf("%w: %d bytes (max: %d)", ErrFileTooLarge, header.Size, s.cfg.MaxUploadBytes)
	}

	magic := make([]byte, len(pdfMagic))
	if _, err := io.ReadFull(file, magic); err != nil || !bytes.Equal(magic, pdfMagic) {
		return "", fmt.Errorf("%w: missing PDF header", ErrUnsupportedFileType)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind upload: %w", err)
	}

	if err := os.MkdirAll(s.cfg.UploadDir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	filename := fmt.Sprintf("%s-%d-%s.pdf", kind, time.Now().UnixMilli(), uuid.New().String()[:8])
	destPath := filepath.Join(s.cfg.UploadDir, filename)

	dst, err := os.Create(destPath)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer dst.Close()

	// Copy one byte past the limit so a lying Content-Length is still caught.
	n, err := io.Copy(dst, io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		_ = os.Remove(destPath)
		return "", fmt.Errorf("write file: %w", err)
	}
	if n > s.cfg.MaxUploadBytes {
		_ = os.Remove(destPath)
		return "", fmt.Errorf("%w: exceeds %d bytes", ErrFileTooLarge, s.cfg.MaxUploadBytes)
	}

	return UploadURLPrefix + filename, nil
}

// Release hands a replaced or orphaned upload to the discarder. Nil and
// non-upload URLs are ignored.
func (s *MediaService) Release(ctx context.Context, url *string) {
	if url == nil || s.discard == nil {
		return
	}
	s.discard.Discard(ctx, *url)
}
