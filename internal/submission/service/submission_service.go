package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"probsvc/internal/evaluation"
	"probsvc/internal/judge"
	problemRepo "probsvc/internal/problem/repository"
	"probsvc/internal/submission/repository"
	appErr "probsvc/pkg/errors"
	"probsvc/pkg/utils/logger"

	"go.uber.org/zap"
)

const maxSourceCodeBytes = 1 << 20 // 1 MiB

// Config holds submission service dependencies.
type Config struct {
	SubmissionRepo repository.SubmissionRepository
	ProblemRepo    problemRepo.ProblemRepository
	Judge          judge.Judge

	// SolvedPublisher may be nil; solved events are then skipped entirely.
	SolvedPublisher *SolvedPublisher
}

// SubmissionService evaluates user code against problems.
type SubmissionService struct {
	submissionRepo repository.SubmissionRepository
	problemRepo    problemRepo.ProblemRepository
	judge          judge.Judge
	solved         *SolvedPublisher
}

// SubmitInput is a scored submission request.
type SubmitInput struct {
	UserID     string
	ProblemID  int64
	Language   string
	SourceCode string
}

// SubmitOutput is the response for a scored submission.
type SubmitOutput struct {
	SubmissionID    int64   `json:"submissionId"`
	Accepted        bool    `json:"accepted"`
	Status          string  `json:"status"`
	TotalTestCases  int     `json:"totalTestCases"`
	PassedTestCases int     `json:"passedTestCases"`
	Runtime         float64 `json:"runtime"`
	Memory          int64   `json:"memory"`
	ErrorMessage    string  `json:"errorMessage,omitempty"`
}

// RunInput is a practice run request. Cases come from the caller, not from
// the stored problem; when empty the problem's visible cases are used.
type RunInput struct {
	UserID     string
	ProblemID  int64
	Language   string
	SourceCode string
	TestCases  []problemRepo.TestCase
}

// RunOutput is the response for a practice run.
type RunOutput struct {
	Success         bool                    `json:"success"`
	TotalTestCases  int                     `json:"totalTestCases"`
	PassedTestCases int                     `json:"passedTestCases"`
	AverageRuntime  float64                 `json:"averageRuntime"`
	PeakMemory      int64                   `json:"peakMemory"`
	ErrorMessage    string                  `json:"errorMessage,omitempty"`
	DetailedResults []evaluation.CaseReport `json:"detailedResults"`
}

// NewSubmissionService creates a submission service.
func NewSubmissionService(cfg Config) (*SubmissionService, error) {
	if cfg.SubmissionRepo == nil {
		return nil, fmt.Errorf("submission repository is required")
	}
	if cfg.ProblemRepo == nil {
		return nil, fmt.Errorf("problem repository is required")
	}
	if cfg.Judge == nil {
		return nil, fmt.Errorf("judge client is required")
	}
	return &SubmissionService{
		submissionRepo: cfg.SubmissionRepo,
		problemRepo:    cfg.ProblemRepo,
		judge:          cfg.Judge,
		solved:         cfg.SolvedPublisher,
	}, nil
}

// Submit evaluates code against a problem's full case set and records the
// attempt. The pending row is written before any judge traffic; if the
// judge fails mid-flight the row is finalized as error so no submission is
// left pending forever.
func (s *SubmissionService) Submit(ctx context.Context, input SubmitInput) (SubmitOutput, error) {
	if err := validateCode(input.UserID, input.ProblemID, input.SourceCode); err != nil {
		return SubmitOutput{}, err
	}

	languageID, ok := judge.ResolveLanguage(input.Language)
	if !ok {
		return SubmitOutput{}, appErr.Newf(appErr.LanguageNotSupported, "unsupported language %q", input.Language)
	}

	problem, err := s.loadProblem(ctx, input.ProblemID)
	if err != nil {
		return SubmitOutput{}, err
	}

	cases := make([]problemRepo.TestCase, 0, len(problem.VisibleCases)+len(problem.HiddenCases))
	cases = append(cases, problem.VisibleCases...)
	cases = append(cases, problem.HiddenCases...)
	if len(cases) == 0 {
		return SubmitOutput{}, appErr.New(appErr.TestCaseInvalid).WithMessage("problem has no test cases")
	}

	submission := repository.Submission{
		UserID:     input.UserID,
		ProblemID:  input.ProblemID,
		SourceCode: input.SourceCode,
		Language:   strings.ToLower(strings.TrimSpace(input.Language)),
		Status:     repository.StatusPending,
		CasesTotal: len(cases),
	}
	submissionID, err := s.submissionRepo.Create(ctx, &submission)
	if err != nil {
		return SubmitOutput{}, appErr.Wrap(err, appErr.DatabaseError)
	}

	summary, err := s.evaluate(ctx, languageID, input.SourceCode, cases, true)
	if err != nil {
		s.finalizeJudgeFailure(ctx, submissionID, len(cases), err)
		return SubmitOutput{}, err
	}

	result := repository.Result{
		Status:       string(summary.Verdict),
		RuntimeSec:   summary.TotalRuntime,
		MemoryKB:     summary.PeakMemoryKB,
		ErrorMessage: summary.FirstFailure,
		CasesPassed:  summary.PassedCount,
		CasesTotal:   len(cases),
	}
	if err := s.submissionRepo.FinalizeResult(ctx, submissionID, result); err != nil {
		if !errors.Is(err, repository.ErrAlreadyFinalized) {
			return SubmitOutput{}, appErr.Wrap(err, appErr.DatabaseError)
		}
		logger.Warn(ctx, "submission finalized twice",
			zap.Int64("submission_id", submissionID),
		)
	}

	if summary.Accepted() {
		s.notifySolved(ctx, input.UserID, input.ProblemID, submissionID)
	}

	logger.Info(ctx, "submission evaluated",
		zap.Int64("submission_id", submissionID),
		zap.Int64("problem_id", input.ProblemID),
		zap.String("verdict", string(summary.Verdict)),
		zap.Int("passed", summary.PassedCount),
		zap.Int("total", len(cases)),
	)

	return SubmitOutput{
		SubmissionID:    submissionID,
		Accepted:        summary.Accepted(),
		Status:          string(summary.Verdict),
		TotalTestCases:  len(cases),
		PassedTestCases: summary.PassedCount,
		Runtime:         summary.TotalRuntime,
		Memory:          summary.PeakMemoryKB,
		ErrorMessage:    summary.FirstFailure,
	}, nil
}

// Run evaluates code against caller-supplied cases without persisting
// anything. Every case runs to completion so the response can show a full
// per-case breakdown.
func (s *SubmissionService) Run(ctx context.Context, input RunInput) (RunOutput, error) {
	if err := validateCode(input.UserID, input.ProblemID, input.SourceCode); err != nil {
		return RunOutput{}, err
	}

	languageID, ok := judge.ResolveLanguage(input.Language)
	if !ok {
		return RunOutput{}, appErr.Newf(appErr.LanguageNotSupported, "unsupported language %q", input.Language)
	}

	// The problem must exist even when the caller supplies its own cases.
	problem, err := s.loadProblem(ctx, input.ProblemID)
	if err != nil {
		return RunOutput{}, err
	}

	cases := input.TestCases
	if len(cases) == 0 {
		cases = problem.VisibleCases
	}
	if len(cases) == 0 {
		return RunOutput{}, appErr.New(appErr.TestCaseInvalid).WithMessage("no test cases to run")
	}

	for i := range cases {
		cases[i].Output = strings.TrimSpace(cases[i].Output)
	}

	summary, err := s.evaluate(ctx, languageID, input.SourceCode, cases, false)
	if err != nil {
		return RunOutput{}, err
	}

	var errorMessage string
	if !summary.Accepted() {
		details := make([]string, 0, 1)
		for _, report := range summary.Cases {
			if !report.Passed && report.Detail != "" {
				details = append(details, report.Detail)
			}
		}
		errorMessage = strings.Join(details, "; ")
	}

	return RunOutput{
		Success:         summary.Accepted(),
		TotalTestCases:  summary.TotalCount,
		PassedTestCases: summary.PassedCount,
		AverageRuntime:  summary.AverageRuntime(),
		PeakMemory:      summary.PeakMemoryKB,
		ErrorMessage:    errorMessage,
		DetailedResults: summary.Cases,
	}, nil
}

// GetByID returns one submission, restricted to its owner.
func (s *SubmissionService) GetByID(ctx context.Context, userID string, submissionID int64) (repository.Submission, error) {
	submission, err := s.submissionRepo.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, repository.ErrSubmissionNotFound) {
			return repository.Submission{}, appErr.New(appErr.SubmissionNotFound)
		}
		return repository.Submission{}, appErr.Wrap(err, appErr.DatabaseError)
	}
	if submission.UserID != userID {
		return repository.Submission{}, appErr.New(appErr.Forbidden)
	}
	return submission, nil
}

// History lists the caller's submissions for one problem, newest first.
func (s *SubmissionService) History(ctx context.Context, userID string, problemID int64) ([]repository.Submission, error) {
	submissions, err := s.submissionRepo.ListByUserProblem(ctx, userID, problemID)
	if err != nil {
		return nil, appErr.Wrap(err, appErr.DatabaseError)
	}
	return submissions, nil
}

func (s *SubmissionService) evaluate(
	ctx context.Context,
	languageID int,
	sourceCode string,
	cases []problemRepo.TestCase,
	stopOnFirstFailure bool,
) (evaluation.Summary, error) {
	batch := make([]judge.CaseSubmission, 0, len(cases))
	for _, tc := range cases {
		batch = append(batch, judge.CaseSubmission{
			SourceCode:     sourceCode,
			LanguageID:     languageID,
			Stdin:          tc.Input,
			ExpectedOutput: tc.Output,
		})
	}

	tokens, err := s.judge.SubmitBatch(ctx, batch)
	if err != nil {
		return evaluation.Summary{}, err
	}
	results, err := s.judge.PollBatch(ctx, tokens)
	if err != nil {
		return evaluation.Summary{}, err
	}
	return evaluation.Aggregate(results, stopOnFirstFailure), nil
}

// finalizeJudgeFailure moves a pending row to error after a judge outage
// or timeout. Best effort: the original error is what the caller sees.
func (s *SubmissionService) finalizeJudgeFailure(ctx context.Context, submissionID int64, totalCases int, cause error) {
	result := repository.Result{
		Status:       repository.StatusError,
		ErrorMessage: cause.Error(),
		CasesTotal:   totalCases,
	}
	if err := s.submissionRepo.FinalizeResult(ctx, submissionID, result); err != nil &&
		!errors.Is(err, repository.ErrAlreadyFinalized) {
		logger.Error(ctx, "failed to mark submission as errored",
			zap.Int64("submission_id", submissionID),
			zap.Error(err),
		)
	}
}

// notifySolved is best effort. A queue or cache outage must not turn an
// accepted submission into an error response.
func (s *SubmissionService) notifySolved(ctx context.Context, userID string, problemID, submissionID int64) {
	if s.solved == nil {
		return
	}
	published, err := s.solved.PublishIfFirstSolve(ctx, userID, problemID, submissionID)
	if err != nil {
		logger.Warn(ctx, "solved event publish failed",
			zap.String("user_id", userID),
			zap.Int64("problem_id", problemID),
			zap.Error(err),
		)
		return
	}
	if published {
		logger.Info(ctx, "solved event published",
			zap.String("user_id", userID),
			zap.Int64("problem_id", problemID),
		)
	}
}

func (s *SubmissionService) loadProblem(ctx context.Context, problemID int64) (problemRepo.Problem, error) {
	problem, err := s.problemRepo.GetByID(ctx, problemID)
	if err != nil {
		if errors.Is(err, problemRepo.ErrProblemNotFound) {
			return problemRepo.Problem{}, appErr.New(appErr.ProblemNotFound)
		}
		return problemRepo.Problem{}, appErr.Wrap(err, appErr.DatabaseError)
	}
	return problem, nil
}

func validateCode(userID string, problemID int64, sourceCode string) error {
	if userID == "" {
		return appErr.New(appErr.RequiredFieldEmpty).WithMessage("user id is required")
	}
	if problemID <= 0 {
		return appErr.New(appErr.RequiredFieldEmpty).WithMessage("problem id is required")
	}
	if strings.TrimSpace(sourceCode) == "" {
		return appErr.New(appErr.RequiredFieldEmpty).WithMessage("source code is required")
	}
	if len(sourceCode) > maxSourceCodeBytes {
		return appErr.New(appErr.InvalidParams).WithMessage("source code too large")
	}
	return nil
}
