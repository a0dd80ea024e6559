package db

import "context"

// Database defines the unified interface for relational database access.
// This abstraction allows switching between drivers without changing
// business logic.
type Database interface {
	Querier

	// Transaction executes a function within a database transaction
	Transaction(ctx context.Context, fn func(tx Transaction) error) error

	// Ping verifies a connection to the database is still alive
	Ping(ctx context.Context) error

	// Close closes the database connection
	Close() error
}

// Transaction defines operations available within a database transaction.
type Transaction interface {
	Querier

	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error
}

// Rows abstracts sql.Rows iteration.
type Rows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Close() error
	Err() error
}

// Row abstracts a single-row query result.
type Row interface {
	Scan(dest ...interface{}) error
}

// Scanner is satisfied by both Row and Rows, so scan helpers can serve
// single-row and multi-row queries.
type Scanner interface {
	Scan(dest ...interface{}) error
}

// Result abstracts an exec result.
type Result interface {
	LastInsertId() (int64, error)
	RowsAffected() (int64, error)
}
