package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"

	"github.com/GandharvMahajan/AutoExamChecker/internal/model"
	"github.com/GandharvMahajan/AutoExamChecker/internal/repository"
	"github.com/rs/zerolog"
)

// ErrExamInUse is returned when deleting an exam that sessions reference.
var ErrExamInUse = errors.New("test has existing attempts and cannot be deleted")

// CatalogCache caches the public listing per class level (0 = all levels).
type CatalogCache interface {
	Get(ctx context.Context, classLevel int) ([]model.ExamSummary, bool)
	Set(ctx context.Context, classLevel int, summaries []model.ExamSummary)
	Invalidate(ctx context.Context)
}

// SampleClassLevel is the class level given to seeded sample exams.
const SampleClassLevel = 10

func sampleExams() []model.Exam {
	desc := func(s string) *string { return &s }
	return []model.Exam{
		{Title: "Mathematics Midterm", Subject: "Mathematics", Description: desc("Basic algebra and calculus concepts"), TotalMarks: 100, PassingMarks: 40, DurationMinutes: 120},
		{Title: "Physics Fundamentals", Subject: "Physics", Description: desc("Mechanics and electromagnetism"), TotalMarks: 100, PassingMarks: 40, DurationMinutes: 120},
		{Title: "Computer Science Basics", Subject: "Computer Science", Description: desc("Algorithms and data structures"), TotalMarks: 100, PassingMarks: 40, DurationMinutes: 120},
	}
}

// CatalogService handles administrative exam CRUD and the public listing.
type CatalogService struct {
	store repository.Store
	media *MediaService
	cache CatalogCache
	log   zerolog.Logger
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(store repository.Store, media *MediaService, cache CatalogCache, log zerolog.Logger) *CatalogService {
	return &CatalogService{
		store: store,
		media: media,
		cache: cache,
		log:   log.With().Str("component", "catalog_service").Logger(),
	}
}

// List returns every exam, newest first.
func (s *CatalogService) List(ctx context.Context) ([]model.Exam, error) {
	return s.store.Exams().List(ctx, 0)
}

// Get retrieves an exam.
func (s *CatalogService) Get(ctx context.Context, id int) (*model.Exam, error) {
	e, err := s.store.Exams().GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrExamNotFound
	}
	return e, err
}

// Create adds an exam to the catalog.
func (s *CatalogService) Create(ctx context.Context, req model.ExamRequest) (*model.Exam, error) {
	e := &model.Exam{}
	req.Apply(e)
	if err := s.store.Exams().Create(ctx, e); err != nil {
		return nil, fmt.Errorf("create exam: %w", err)
	}
	s.cache.Invalidate(ctx)

	s.log.Info().Int("exam_id", e.ID).Str("title", e.Title).Msg("Exam created")
	return e, nil
}

// Update replaces an exam's editable fields.
func (s *CatalogService) Update(ctx context.Context, id int, req model.ExamRequest) (*model.Exam, error) {
	e := &model.Exam{ID: id}
	req.Apply(e)
	if err := s.store.Exams().Update(ctx, e); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("update exam: %w", err)
	}
	s.cache.Invalidate(ctx)
	return e, nil
}

// Delete removes an exam that no session references and discards its paper.
func (s *CatalogService) Delete(ctx context.Context, id int) error {
	e, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	switch err := s.store.Exams().Delete(ctx, id); {
	case errors.Is(err, repository.ErrNotFound):
		return ErrExamNotFound
	case errors.Is(err, repository.ErrExamInUse):
		return ErrExamInUse
	case err != nil:
		return fmt.Errorf("delete exam: %w", err)
	}
	s.cache.Invalidate(ctx)
	s.media.Release(ctx, e.QuestionPaperURL)

	s.log.Info().Int("exam_id", id).Msg("Exam deleted")
	return nil
}

// UploadQuestionPaper stores a PDF and attaches it to the exam, discarding
// the paper it replaces.
func (s *CatalogService) UploadQuestionPaper(ctx context.Context, id int, file multipart.File, header *multipart.FileHeader) (*model.Exam, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	url, err := s.media.SavePDF(UploadKindQuestion, file, header)
	if err != nil {
		return nil, err
	}

	prev, err := s.store.Exams().SetQuestionPaper(ctx, id, url)
	if err != nil {
		s.media.Release(ctx, &url)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("set question paper: %w", err)
	}
	s.media.Release(ctx, prev)

	return s.Get(ctx, id)
}

// ListPublic returns the account-facing projection, served from cache when possible.
func (s *CatalogService) ListPublic(ctx context.Context, classLevel int) ([]model.ExamSummary, error) {
	if summaries, ok := s.cache.Get(ctx, classLevel); ok {
		return summaries, nil
	}

	exams, err := s.store.Exams().List(ctx, classLevel)
	if err != nil {
		return nil, fmt.Errorf("list exams: %w", err)
	}

	summaries := make([]model.ExamSummary, 0, len(exams))
	for i := range exams {
		summaries = append(summaries, exams[i].Summary())
	}
	s.cache.Set(ctx, classLevel, summaries)
	return summaries, nil
}

// SeedSamples inserts the sample exams when the catalog is empty and returns
// how many were created.
func (s *CatalogService) SeedSamples(ctx context.Context) (int, error) {
	n, err := s.store.Exams().Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count exams: %w", err)
	}
	if n > 0 {
		return 0, nil
	}

	created := 0
	for _, e := range sampleExams() {
		e.ClassLevel = SampleClassLevel
		if err := s.store.Exams().Create(ctx, &e); err != nil {
			return created, fmt.Errorf("seed exam %q: %w", e.Title, err)
		}
		created++
	}
	s.cache.Invalidate(ctx)

	s.log.Info().Int("count", created).Msg("Seeded sample exams")
	return created, nil
}
