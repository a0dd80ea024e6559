package repository

import (
	"context"
	"errors"

	"probsvc/internal/common/db"
)

var (
	ErrSubmissionNotFound = errors.New("submission not found")

	// ErrAlreadyFinalized is returned when a terminal update targets a row
	// that is no longer pending. The first terminal write wins.
	ErrAlreadyFinalized = errors.New("submission already finalized")
)

type SubmissionRepository interface {
	Create(ctx context.Context, submission *Submission) (int64, error)
	FinalizeResult(ctx context.Context, submissionID int64, result Result) error
	GetByID(ctx context.Context, submissionID int64) (Submission, error)
	ListByUserProblem(ctx context.Context, userID string, problemID int64) ([]Submission, error)
}

type MySQLSubmissionRepository struct {
	db db.Database
}

func NewSubmissionRepository(database db.Database) SubmissionRepository {
	return &MySQLSubmissionRepository{db: database}
}

// Create inserts a pending submission row before any judge traffic, so the
// attempt is recorded even if evaluation later fails.
func (r *MySQLSubmissionRepository) Create(ctx context.Context, submission *Submission) (int64, error) {
	if submission == nil {
		return 0, errors.New("submission is nil")
	}
	if submission.Status == "" {
		submission.Status = StatusPending
	}

	query := `
		INSERT INTO submission (user_id, problem_id, source_code, language, status, cases_total)
		VALUES (?, ?, ?, ?, ?, ?)`
	result, err := r.db.Exec(ctx, query,
		submission.UserID, submission.ProblemID, submission.SourceCode,
		submission.Language, submission.Status, submission.CasesTotal)
	if err != nil {
		return 0, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}
	submission.ID = id
	return id, nil
}

// FinalizeResult writes the terminal outcome onto a pending row. The status
// guard in the WHERE clause makes the transition one-shot: a second write,
// or a write against a row another worker already finalized, fails with
// ErrAlreadyFinalized.
func (r *MySQLSubmissionRepository) FinalizeResult(ctx context.Context, submissionID int64, result Result) error {
	// The guarded update and the diagnostic read run in one transaction so
	// a row deleted between them cannot be misreported as finalized.
	return r.db.Transaction(ctx, func(tx db.Transaction) error {
		q := db.GetQuerier(r.db, tx)
		query := `
			UPDATE submission
			SET status = ?, runtime_sec = ?, memory_kb = ?, error_message = ?,
				cases_passed = ?, cases_total = ?
			WHERE id = ? AND status = ?`
		res, err := q.Exec(ctx, query,
			result.Status, result.RuntimeSec, result.MemoryKB, result.ErrorMessage,
			result.CasesPassed, result.CasesTotal,
			submissionID, StatusPending)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			exists, err := r.exists(ctx, q, submissionID)
			if err != nil {
				return err
			}
			if !exists {
				return ErrSubmissionNotFound
			}
			return ErrAlreadyFinalized
		}
		return nil
	})
}

func (r *MySQLSubmissionRepository) GetByID(ctx context.Context, submissionID int64) (Submission, error) {
	query := `
		SELECT id, user_id, problem_id, source_code, language, status,
			runtime_sec, memory_kb, error_message, cases_passed, cases_total,
			created_at, updated_at
		FROM submission
		WHERE id = ?`

	row := r.db.QueryRow(ctx, query, submissionID)
	submission, err := scanSubmission(row)
	if err != nil {
		if db.IsNoRows(err) {
			return Submission{}, ErrSubmissionNotFound
		}
		return Submission{}, err
	}
	return submission, nil
}

func (r *MySQLSubmissionRepository) ListByUserProblem(ctx context.Context, userID string, problemID int64) ([]Submission, error) {
	query := `
		SELECT id, user_id, problem_id, source_code, language, status,
			runtime_sec, memory_kb, error_message, cases_passed, cases_total,
			created_at, updated_at
		FROM submission
		WHERE user_id = ? AND problem_id = ?
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, userID, problemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var submissions []Submission
	for rows.Next() {
		submission, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		submissions = append(submissions, submission)
	}
	return submissions, rows.Err()
}

func (r *MySQLSubmissionRepository) exists(ctx context.Context, q db.Querier, submissionID int64) (bool, error) {
	var one int
	row := q.QueryRow(ctx, "SELECT 1 FROM submission WHERE id = ?", submissionID)
	if err := row.Scan(&one); err != nil {
		if db.IsNoRows(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func scanSubmission(scanner db.Scanner) (Submission, error) {
	var s Submission
	err := scanner.Scan(
		&s.ID, &s.UserID, &s.ProblemID, &s.SourceCode, &s.Language, &s.Status,
		&s.RuntimeSec, &s.MemoryKB, &s.ErrorMessage, &s.CasesPassed, &s.CasesTotal,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return Submission{}, err
	}
	return s, nil
}
