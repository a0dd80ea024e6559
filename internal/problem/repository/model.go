package repository

import "time"

const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// TestCase is a single input/expected-output pair. Explanation is only
// meaningful for visible cases shown to users.
type TestCase struct {
	Input       string `json:"input"`
	Output      string `json:"output"`
	Explanation string `json:"explanation,omitempty"`
}

// CodeStub pairs a language with a code blob. Used for both starter code
// and reference solutions.
type CodeStub struct {
	Language string `json:"language"`
	Code     string `json:"code"`
}

// Problem is the full problem entity including hidden cases and reference
// solutions. Only admin reads ever see the whole struct; public reads go
// through a sanitized view.
type Problem struct {
	ID                 int64      `json:"id"`
	Title              string     `json:"title"`
	Description        string     `json:"description"`
	Difficulty         string     `json:"difficulty"`
	Tags               []string   `json:"tags"`
	Companies          []string   `json:"companies,omitempty"`
	VisibleCases       []TestCase `json:"visibleTestCases"`
	HiddenCases        []TestCase `json:"hiddenTestCases"`
	StarterCode        []CodeStub `json:"startCode"`
	ReferenceSolutions []CodeStub `json:"referenceSolution"`
	CreatorID          string     `json:"creatorId"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

// ListItem is the compact row returned by list queries.
type ListItem struct {
	ID         int64    `json:"id"`
	Title      string   `json:"title"`
	Difficulty string   `json:"difficulty"`
	Tags       []string `json:"tags"`
}
