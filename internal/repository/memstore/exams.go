package memstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/GandharvMahajan/AutoExamChecker/internal/model"
	"github.com/GandharvMahajan/AutoExamChecker/internal/repository"
	"github.com/dgraph-io/badger/v4"
)

func loadExam(txn *badger.Txn, id int) (*model.Exam, error) {
	e := &model.Exam{}
	if err := getJSON(txn, examKey(id), e); err != nil {
		return nil, err
	}
	return e, nil
}

type examRepo struct {
	s *Store
}

func (r *examRepo) GetByID(ctx context.Context, id int) (*model.Exam, error) {
	var e *model.Exam
	err := r.s.view(ctx, func(txn *badger.Txn) error {
		var err error
		e, err = loadExam(txn, id)
		return err
	})
	return e, err
}

func (r *examRepo) List(ctx context.Context, classLevel int) ([]model.Exam, error) {
	exams := []model.Exam{}
	err := r.s.view(ctx, func(txn *badger.Txn) error {
		return scanPrefix(txn, "exam:", func(val []byte) error {
			var e model.Exam
			if err := json.Unmarshal(val, &e); err != nil {
				return err
			}
			if classLevel == 0 || e.ClassLevel == classLevel {
				exams = append(exams, e)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(exams, func(i, j int) bool {
		if !exams[i].CreatedAt.Equal(exams[j].CreatedAt) {
			return exams[i].CreatedAt.After(exams[j].CreatedAt)
		}
		return exams[i].ID > exams[j].ID
	})
	return exams, nil
}

func (r *examRepo) Create(ctx context.Context, e *model.Exam) error {
	return r.s.update(ctx, func(txn *badger.Txn) error {
		id, err := nextID(txn, "exam")
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		e.ID, e.CreatedAt, e.UpdatedAt = id, now, now
		return putJSON(txn, examKey(id), e)
	})
}

func (r *examRepo) Update(ctx context.Context, e *model.Exam) error {
	return r.s.update(ctx, func(txn *badger.Txn) error {
		current, err := loadExam(txn, e.ID)
		if err != nil {
			return err
		}
		e.QuestionPaperURL = current.QuestionPaperURL
		e.CreatedAt = current.CreatedAt
		e.UpdatedAt = time.Now().UTC()
		return putJSON(txn, examKey(e.ID), e)
	})
}

func (r *examRepo) Delete(ctx context.Context, id int) error {
	return r.s.update(ctx, func(txn *badger.Txn) error {
		if _, err := loadExam(txn, id); err != nil {
			return err
		}

		suffix := fmt.Sprintf(":%010d", id)
		it := txn.NewIterator(badger.IteratorOptions{Prefix: []byte("session:")})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			if strings.HasSuffix(string(it.Item().Key()), suffix) {
				return repository.ErrExamInUse
			}
		}

		return txn.Delete([]byte(examKey(id)))
	})
}

func (r *examRepo) Count(ctx context.Context) (int, error) {
	n := 0
	err := r.s.view(ctx, func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: []byte("exam:")})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

func (r *examRepo) SetQuestionPaper(ctx context.Context, id int, url string) (*string, error) {
	var prev *string
	err := r.s.update(ctx, func(txn *badger.Txn) error {
		e, err := loadExam(txn, id)
		if err != nil {
			return err
		}
		prev = e.QuestionPaperURL
		e.QuestionPaperURL = &url
		e.UpdatedAt = time.Now().UTC()
		return putJSON(txn, examKey(id), e)
	})
	if err != nil {
		return nil, err
	}
	return prev, nil
}
