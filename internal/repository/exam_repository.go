package repository

import (
	"context"

	"github.com/GandharvMahajan/AutoExamChecker/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const examColumns = `id, title, subject, class_level, description, total_marks, passing_marks, duration_minutes, question_paper_url, created_at, updated_at`

// ExamRepositoryPG handles exam catalog data access.
type ExamRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewExamRepositoryPG creates a new ExamRepositoryPG.
func NewExamRepositoryPG(pool *pgxpool.Pool) *ExamRepositoryPG {
	return &ExamRepositoryPG{pool: pool}
}

func scanExam(row pgx.Row, e *model.Exam) error {
	return row.Scan(&e.ID, &e.Title, &e.Subject, &e.ClassLevel, &e.Description, &e.TotalMarks,
		&e.PassingMarks, &e.DurationMinutes, &e.QuestionPaperURL, &e.CreatedAt, &e.UpdatedAt)
}

// GetByID retrieves an exam by ID.
func (r *ExamRepositoryPG) GetByID(ctx context.Context, id int) (*model.Exam, error) {
	e := &model.Exam{}
	if err := scanExam(r.pool.QueryRow(ctx, `SELECT `+examColumns+` FROM exam_definitions WHERE id = $1`, id), e); err != nil {
		return nil, notFound(err)
	}
	return e, nil
}

// List retrieves exams newest first, optionally filtered by class level.
func (r *ExamRepositoryPG) List(ctx context.Context, classLevel int) ([]model.Exam, error) {
	query := `SELECT ` + examColumns + ` FROM exam_definitions`
	var args []any
	if classLevel > 0 {
		query += ` WHERE class_level = $1`
		args = append(args, classLevel)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	exams := []model.Exam{}
	for rows.Next() {
		var e model.Exam
		if err := scanExam(rows, &e); err != nil {
			return nil, err
		}
		exams = append(exams, e)
	}
	return exams, rows.Err()
}

// Create inserts a new exam.
func (r *ExamRepositoryPG) Create(ctx context.Context, e *model.Exam) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO exam_definitions (title, subject, class_level, description, total_marks, passing_marks, duration_minutes, question_paper_url)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at, updated_at`,
		e.Title, e.Subject, e.ClassLevel, e.Description, e.TotalMarks, e.PassingMarks, e.DurationMinutes, e.QuestionPaperURL,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
}

// Update replaces the editable fields of an exam. The question paper is
// managed separately by SetQuestionPaper.
func (r *ExamRepositoryPG) Update(ctx context.Context, e *model.Exam) error {
	err := r.pool.QueryRow(ctx,
		`UPDATE exam_definitions
		 SET title = $2, subject = $3, class_level = $4, description = $5, total_marks = $6,
		     passing_marks = $7, duration_minutes = $8, updated_at = NOW()
		 WHERE id = $1
		 RETURNING question_paper_url, created_at, updated_at`,
		e.ID, e.Title, e.Subject, e.ClassLevel, e.Description, e.TotalMarks, e.PassingMarks, e.DurationMinutes,
	).Scan(&e.QuestionPaperURL, &e.CreatedAt, &e.UpdatedAt)
	return notFound(err)
}

// Delete removes an exam. Exams referenced by sessions are kept.
func (r *ExamRepositoryPG) Delete(ctx context.Context, id int) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM exam_definitions WHERE id = $1`, id)
	if pgErrCode(err) == pgForeignKeyViolation {
		return ErrExamInUse
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the catalog size.
func (r *ExamRepositoryPG) Count(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM exam_definitions`).Scan(&n)
	return n, err
}

// SetQuestionPaper swaps the paper reference, returning the replaced value.
func (r *ExamRepositoryPG) SetQuestionPaper(ctx context.Context, id int, url string) (*string, error) {
	var prev *string
	err := r.pool.QueryRow(ctx,
		`UPDATE exam_definitions e
		 SET question_paper_url = $2, updated_at = NOW()
		 FROM (SELECT id, question_paper_url FROM exam_definitions WHERE id = $1 FOR UPDATE) old
		 WHERE e.id = old.id
		 RETURNING old.question_paper_url`, id, url,
	).Scan(&prev)
	if err != nil {
		return nil, notFound(err)
	}
	return prev, nil
}
