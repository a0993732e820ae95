package model

import "time"

// Exam is a catalog entry describing one PDF-based test.
type Exam struct {
	ID               int       `json:"id"`
	Title            string    `json:"title"`
	Subject          string    `json:"subject"`
	ClassLevel       int       `json:"classLevel"`
	Description      *string   `json:"description"`
	TotalMarks       int       `json:"totalMarks"`
	PassingMarks     int       `json:"passingMarks"`
	DurationMinutes  int       `json:"duration"`
	QuestionPaperURL *string   `json:"pdfUrl"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// Duration returns the allotted time for one attempt.
func (e *Exam) Duration() time.Duration {
	return time.Duration(e.DurationMinutes) * time.Minute
}

// ExamSummary is the account-facing projection of an exam. It omits passing
// marks and the question paper so neither leaks before a session starts.
type ExamSummary struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Subject     string  `json:"subject"`
	ClassLevel  int     `json:"classLevel"`
	Description *string `json:"description"`
	TotalMarks  int     `json:"totalMarks"`
	Duration    int     `json:"duration"`
}

// Summary projects the exam for the public listing.
func (e *Exam) Summary() ExamSummary {
	return ExamSummary{
		ID:          e.ID,
		Title:       e.Title,
		Subject:     e.Subject,
		ClassLevel:  e.ClassLevel,
		Description: e.Description,
		TotalMarks:  e.TotalMarks,
		Duration:    e.DurationMinutes,
	}
}

// ExamRequest is the payload for creating or replacing an exam.
type ExamRequest struct {
	Title        string  `json:"title" binding:"required,notblank,max=255"`
	Subject      string  `json:"subject" binding:"required,notblank,max=100"`
	ClassLevel   int     `json:"classLevel" binding:"required,min=1,max=12"`
	Description  *string `json:"description" binding:"omitempty,max=2000"`
	TotalMarks   int     `json:"totalMarks" binding:"required,min=1,max=1000"`
	PassingMarks int     `json:"passingMarks" binding:"min=0,ltefield=TotalMarks"`
	Duration     int     `json:"duration" binding:"required,min=1,max=600"`
}

// Apply copies the request fields onto e. Blank descriptions are stored as null.
func (r *ExamRequest) Apply(e *Exam) {
	e.Title = r.Title
	e.Subject = r.Subject
	e.ClassLevel = r.ClassLevel
	e.TotalMarks = r.TotalMarks
	e.PassingMarks = r.PassingMarks
	e.DurationMinutes = r.Duration
	e.Description = nil
	if r.Description != nil && *r.Description != "" {
		desc := *r.Description
		e.Description = &desc
	}
}

// CatalogQuery filters the public listing.
type CatalogQuery struct {
	ClassLevel int `form:"classLevel" binding:"omitempty,min=1,max=12"`
}
