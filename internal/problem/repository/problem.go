package repository

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"probsvc/internal/common/cache"
	"probsvc/internal/common/db"
)

const (
	defaultProblemTTL      = 30 * time.Minute
	defaultProblemEmptyTTL = 5 * time.Minute
	problemKeyPrefix       = "problem:full:"
)

var (
	ErrProblemNotFound = errors.New("problem not found")
)

type ProblemRepository interface {
	Create(ctx context.Context, problem *Problem) (int64, error)
	Update(ctx context.Context, problem *Problem) error
	Delete(ctx context.Context, problemID int64) error
	GetByID(ctx context.Context, problemID int64) (Problem, error)
	List(ctx context.Context, limit, offset int) ([]ListItem, error)
}

type MySQLProblemRepository struct {
	db       db.Database
	cache    cache.Cache
	ttl      time.Duration
	emptyTTL time.Duration
}

func NewProblemRepository(database db.Database, cacheClient cache.Cache) ProblemRepository {
	return NewProblemRepositoryWithTTL(database, cacheClient, defaultProblemTTL, defaultProblemEmptyTTL)
}

func NewProblemRepositoryWithTTL(database db.Database, cacheClient cache.Cache, ttl, emptyTTL time.Duration) ProblemRepository {
	if ttl <= 0 {
		ttl = defaultProblemTTL
	}
	if emptyTTL <= 0 {
		emptyTTL = defaultProblemEmptyTTL
	}
	return &MySQLProblemRepository{
		db:       database,
		cache:    cacheClient,
		ttl:      ttl,
		emptyTTL: emptyTTL,
	}
}

func (r *MySQLProblemRepository) Create(ctx context.Context, problem *Problem) (int64, error) {
	if problem == nil {
		return 0, errors.New("problem is nil")
	}
	if problem.Difficulty == "" {
		problem.Difficulty = DifficultyEasy
	}

	tags, companies, visible, hidden, starter, solutions, err := marshalProblemColumns(problem)
	if err != nil {
		return 0, err
	}

	query := `
		INSERT INTO problem
			(title, description, difficulty, tags, companies, visible_cases, hidden_cases, starter_code, reference_solutions, creator_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := r.db.Exec(ctx, query,
		problem.Title, problem.Description, problem.Difficulty,
		tags, companies, visible, hidden, starter, solutions, problem.CreatorID)
	if err != nil {
		return 0, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}
	problem.ID = id
	return id, nil
}

func (r *MySQLProblemRepository) Update(ctx context.Context, problem *Problem) error {
	if problem == nil {
		return errors.New("problem is nil")
	}

	tags, companies, visible, hidden, starter, solutions, err := marshalProblemColumns(problem)
	if err != nil {
		return err
	}

	return r.invalidating(ctx, problem.ID, func(ctx context.Context) error {
		query := `
			UPDATE problem
			SET title = ?, description = ?, difficulty = ?, tags = ?, companies = ?,
				visible_cases = ?, hidden_cases = ?, starter_code = ?, reference_solutions = ?
			WHERE id = ?`
		result, err := r.db.Exec(ctx, query,
			problem.Title, problem.Description, problem.Difficulty,
			tags, companies, visible, hidden, starter, solutions, problem.ID)
		if err != nil {
			return err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrProblemNotFound
		}
		return nil
	})
}

func (r *MySQLProblemRepository) Delete(ctx context.Context, problemID int64) error {
	return r.invalidating(ctx, problemID, func(ctx context.Context) error {
		result, err := r.db.Exec(ctx, "DELETE FROM problem WHERE id = ?", problemID)
		if err != nil {
			return err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrProblemNotFound
		}
		return nil
	})
}

func (r *MySQLProblemRepository) GetByID(ctx context.Context, problemID int64) (Problem, error) {
	if r.cache != nil {
		problem, err := cache.GetWithCached[Problem](
			ctx,
			r.cache,
			problemKey(problemID),
			cache.JitterTTL(r.ttl),
			cache.JitterTTL(r.emptyTTL),
			func(p Problem) bool { return p.ID == 0 },
			marshalProblem,
			unmarshalProblem,
			func(ctx context.Context) (Problem, error) {
				p, err := r.getByIDFromDB(ctx, problemID)
				if err != nil {
					if errors.Is(err, ErrProblemNotFound) {
						return Problem{}, nil
					}
					return Problem{}, err
				}
				return p, nil
			},
		)
		if err != nil {
			return Problem{}, err
		}
		if problem.ID == 0 {
			return Problem{}, ErrProblemNotFound
		}
		return problem, nil
	}
	return r.getByIDFromDB(ctx, problemID)
}

func (r *MySQLProblemRepository) List(ctx context.Context, limit, offset int) ([]ListItem, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	query := `
		SELECT id, title, difficulty, tags
		FROM problem
		ORDER BY id
		LIMIT ? OFFSET ?`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]ListItem, 0, limit)
	for rows.Next() {
		var item ListItem
		var tags []byte
		if err := rows.Scan(&item.ID, &item.Title, &item.Difficulty, &tags); err != nil {
			return nil, err
		}
		if len(tags) > 0 {
			if err := json.Unmarshal(tags, &item.Tags); err != nil {
				return nil, err
			}
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *MySQLProblemRepository) getByIDFromDB(ctx context.Context, problemID int64) (Problem, error) {
	query := `
		SELECT id, title, description, difficulty, tags, companies,
			visible_cases, hidden_cases, starter_code, reference_solutions,
			creator_id, created_at, updated_at
		FROM problem
		WHERE id = ?`

	row := r.db.QueryRow(ctx, query, problemID)
	problem, err := scanProblem(row)
	if err != nil {
		if db.IsNoRows(err) {
			return Problem{}, ErrProblemNotFound
		}
		return Problem{}, err
	}
	return problem, nil
}

// invalidating runs fn and drops the problem's cache entry on success.
func (r *MySQLProblemRepository) invalidating(ctx context.Context, problemID int64, fn func(context.Context) error) error {
	if r.cache == nil {
		return fn(ctx)
	}
	return cache.UpdateCached(ctx, r.cache, problemKey(problemID), fn)
}

func problemKey(problemID int64) string {
	return problemKeyPrefix + strconv.FormatInt(problemID, 10)
}

func marshalProblem(p Problem) string {
	payload, err := json.Marshal(p)
	if err != nil {
		return ""
	}
	return string(payload)
}

func unmarshalProblem(data string) (Problem, error) {
	if data == "" {
		return Problem{}, nil
	}
	var p Problem
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return Problem{}, err
	}
	return p, nil
}

func marshalProblemColumns(p *Problem) (tags, companies, visible, hidden, starter, solutions []byte, err error) {
	if tags, err = json.Marshal(p.Tags); err != nil {
		return
	}
	if companies, err = json.Marshal(p.Companies); err != nil {
		return
	}
	if visible, err = json.Marshal(p.VisibleCases); err != nil {
		return
	}
	if hidden, err = json.Marshal(p.HiddenCases); err != nil {
		return
	}
	if starter, err = json.Marshal(p.StarterCode); err != nil {
		return
	}
	solutions, err = json.Marshal(p.ReferenceSolutions)
	return
}

func scanProblem(scanner db.Scanner) (Problem, error) {
	var (
		p                                                  Problem
		tags, companies, visible, hidden, starter, answers []byte
	)
	err := scanner.Scan(
		&p.ID, &p.Title, &p.Description, &p.Difficulty, &tags, &companies,
		&visible, &hidden, &starter, &answers,
		&p.CreatorID, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return Problem{}, err
	}
	for _, col := range []struct {
		data []byte
		dst  interface{}
	}{
		{tags, &p.Tags},
		{companies, &p.Companies},
		{visible, &p.VisibleCases},
		{hidden, &p.HiddenCases},
		{starter, &p.StarterCode},
		{answers, &p.ReferenceSolutions},
	} {
		if len(col.data) == 0 {
			continue
		}
		if err := json.Unmarshal(col.data, col.dst); err != nil {
			return Problem{}, err
		}
	}
	return p, nil
}
