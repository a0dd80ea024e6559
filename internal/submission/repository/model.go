package repository

import "time"

// Submission lifecycle statuses. A row is created pending and moves to
// exactly one terminal status.
const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusWrong    = "wrong"
	StatusError    = "error"
)

// Submission is a stored submission attempt.
type Submission struct {
	ID           int64     `json:"id"`
	UserID       string    `json:"userId"`
	ProblemID    int64     `json:"problemId"`
	SourceCode   string    `json:"code"`
	Language     string    `json:"language"`
	Status       string    `json:"status"`
	RuntimeSec   float64   `json:"runtime"`
	MemoryKB     int64     `json:"memory"`
	ErrorMessage string    `json:"errorMessage,omitempty"`
	CasesPassed  int       `json:"testCasesPassed"`
	CasesTotal   int       `json:"testCasesTotal"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Result carries the terminal outcome written onto a pending row.
type Result struct {
	Status       string
	RuntimeSec   float64
	MemoryKB     int64
	ErrorMessage string
	CasesPassed  int
	CasesTotal   int
}
