package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"probsvc/internal/common/db"
)

// fakeDatabase keeps submission statuses in memory and routes all queries
// issued inside a transaction through fakeTx, so tests can assert that the
// finalize guard and its diagnostic read share one transaction.
type fakeDatabase struct {
	statuses map[int64]string

	commits   int
	rollbacks int
	txQueries []string
}

func newFakeDatabase(statuses map[int64]string) *fakeDatabase {
	return &fakeDatabase{statuses: statuses}
}

func (f *fakeDatabase) Transaction(ctx context.Context, fn func(tx db.Transaction) error) error {
	tx := &fakeTx{db: f}
	if err := fn(tx); err != nil {
		f.rollbacks++
		return err
	}
	f.commits++
	return nil
}

func (f *fakeDatabase) Query(ctx context.Context, query string, args ...interface{}) (db.Rows, error) {
	return nil, errors.New("unexpected query outside transaction")
}

func (f *fakeDatabase) QueryRow(ctx context.Context, query string, args ...interface{}) db.Row {
	return fakeRow{err: errors.New("unexpected query outside transaction")}
}

func (f *fakeDatabase) Exec(ctx context.Context, query string, args ...interface{}) (db.Result, error) {
	return nil, errors.New("unexpected exec outside transaction")
}

func (f *fakeDatabase) Ping(ctx context.Context) error { return nil }
func (f *fakeDatabase) Close() error                   { return nil }

type fakeTx struct {
	db *fakeDatabase
}

func (t *fakeTx) Exec(ctx context.Context, query string, args ...interface{}) (db.Result, error) {
	t.db.txQueries = append(t.db.txQueries, query)
	if !strings.Contains(query, "UPDATE submission") {
		return nil, errors.New("unexpected exec: " + query)
	}
	id := args[len(args)-2].(int64)
	guard := args[len(args)-1].(string)
	if t.db.statuses[id] != guard {
		return fakeResult{}, nil
	}
	t.db.statuses[id] = args[0].(string)
	return fakeResult{affected: 1}, nil
}

func (t *fakeTx) QueryRow(ctx context.Context, query string, args ...interface{}) db.Row {
	t.db.txQueries = append(t.db.txQueries, query)
	id := args[0].(int64)
	if _, ok := t.db.statuses[id]; !ok {
		return fakeRow{err: sql.ErrNoRows}
	}
	return fakeRow{}
}

func (t *fakeTx) Query(ctx context.Context, query string, args ...interface{}) (db.Rows, error) {
	return nil, errors.New("unexpected query: " + query)
}

func (t *fakeTx) Commit() error   { return nil }
func (t *fakeTx) Rollback() error { return nil }

type fakeResult struct {
	affected int64
}

func (r fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (r fakeResult) RowsAffected() (int64, error) { return r.affected, nil }

type fakeRow struct {
	err error
}

func (r fakeRow) Scan(dest ...interface{}) error {
	if r.err != nil {
		return r.err
	}
	if p, ok := dest[0].(*int); ok {
		*p = 1
	}
	return nil
}

func TestFinalizeResultOneShot(t *testing.T) {
	t.Parallel()

	database := newFakeDatabase(map[int64]string{5: StatusPending})
	repo := NewSubmissionRepository(database)
	result := Result{Status: StatusAccepted, CasesPassed: 3, CasesTotal: 3}

	if err := repo.FinalizeResult(context.Background(), 5, result); err != nil {
		t.Fatalf("first finalize: %v", err)
	}
	if database.statuses[5] != StatusAccepted {
		t.Fatalf("expected accepted row, got %q", database.statuses[5])
	}
	if database.commits != 1 {
		t.Fatalf("expected one committed transaction, got %d", database.commits)
	}

	err := repo.FinalizeResult(context.Background(), 5, Result{Status: StatusError})
	if !errors.Is(err, ErrAlreadyFinalized) {
		t.Fatalf("expected ErrAlreadyFinalized, got %v", err)
	}
	if database.statuses[5] != StatusAccepted {
		t.Fatalf("second finalize must not overwrite, got %q", database.statuses[5])
	}
}

func TestFinalizeResultMissingRow(t *testing.T) {
	t.Parallel()

	database := newFakeDatabase(map[int64]string{})
	repo := NewSubmissionRepository(database)

	err := repo.FinalizeResult(context.Background(), 404, Result{Status: StatusError})
	if !errors.Is(err, ErrSubmissionNotFound) {
		t.Fatalf("expected ErrSubmissionNotFound, got %v", err)
	}

	// guarded update and exists check both ran inside the transaction
	if len(database.txQueries) != 2 {
		t.Fatalf("expected 2 transactional queries, got %d", len(database.txQueries))
	}
	if !strings.Contains(database.txQueries[0], "UPDATE submission") ||
		!strings.Contains(database.txQueries[1], "SELECT 1") {
		t.Fatalf("unexpected query order: %v", database.txQueries)
	}
}
