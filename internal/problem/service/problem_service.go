package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"probsvc/internal/evaluation"
	"probsvc/internal/judge"
	"probsvc/internal/problem/repository"
	appErr "probsvc/pkg/errors"
	"probsvc/pkg/utils/logger"

	"go.uber.org/zap"
)

// Config holds problem service dependencies.
type Config struct {
	ProblemRepo repository.ProblemRepository
	Judge       judge.Judge
}

// ProblemService manages problem CRUD. Reference solutions are executed
// against the problem's full test set before anything is persisted, so a
// stored problem is guaranteed solvable by its own solutions.
type ProblemService struct {
	problemRepo repository.ProblemRepository
	judge       judge.Judge
}

// CreateInput carries the fields of a problem create or update request.
type CreateInput struct {
	Title              string                `json:"title"`
	Description        string                `json:"description"`
	Difficulty         string                `json:"difficulty"`
	Tags               []string              `json:"tags"`
	Companies          []string              `json:"companies"`
	VisibleCases       []repository.TestCase `json:"visibleTestCases"`
	HiddenCases        []repository.TestCase `json:"hiddenTestCases"`
	StarterCode        []repository.CodeStub `json:"startCode"`
	ReferenceSolutions []repository.CodeStub `json:"referenceSolution"`
}

// NewProblemService creates a problem service.
func NewProblemService(cfg Config) (*ProblemService, error) {
	if cfg.ProblemRepo == nil {
		return nil, fmt.Errorf("problem repository is required")
	}
	if cfg.Judge == nil {
		return nil, fmt.Errorf("judge client is required")
	}
	return &ProblemService{
		problemRepo: cfg.ProblemRepo,
		judge:       cfg.Judge,
	}, nil
}

// Create validates and persists a new problem.
func (s *ProblemService) Create(ctx context.Context, creatorID string, input CreateInput) (repository.Problem, error) {
	if err := s.validateInput(ctx, input); err != nil {
		return repository.Problem{}, err
	}

	problem := repository.Problem{
		Title:              strings.TrimSpace(input.Title),
		Description:        input.Description,
		Difficulty:         normalizeDifficulty(input.Difficulty),
		Tags:               input.Tags,
		Companies:          input.Companies,
		VisibleCases:       input.VisibleCases,
		HiddenCases:        input.HiddenCases,
		StarterCode:        input.StarterCode,
		ReferenceSolutions: input.ReferenceSolutions,
		CreatorID:          creatorID,
	}

	id, err := s.problemRepo.Create(ctx, &problem)
	if err != nil {
		return repository.Problem{}, appErr.Wrap(err, appErr.DatabaseError)
	}

	logger.Info(ctx, "problem created",
		zap.Int64("problem_id", id),
		zap.String("creator_id", creatorID),
	)
	return problem, nil
}

// Update revalidates and replaces an existing problem.
func (s *ProblemService) Update(ctx context.Context, problemID int64, input CreateInput) (repository.Problem, error) {
	existing, err := s.getProblem(ctx, problemID)
	if err != nil {
		return repository.Problem{}, err
	}

	if err := s.validateInput(ctx, input); err != nil {
		return repository.Problem{}, err
	}

	existing.Title = strings.TrimSpace(input.Title)
	existing.Description = input.Description
	existing.Difficulty = normalizeDifficulty(input.Difficulty)
	existing.Tags = input.Tags
	existing.Companies = input.Companies
	existing.VisibleCases = input.VisibleCases
	existing.HiddenCases = input.HiddenCases
	existing.StarterCode = input.StarterCode
	existing.ReferenceSolutions = input.ReferenceSolutions

	if err := s.problemRepo.Update(ctx, &existing); err != nil {
		if errors.Is(err, repository.ErrProblemNotFound) {
			return repository.Problem{}, appErr.New(appErr.ProblemNotFound)
		}
		return repository.Problem{}, appErr.Wrap(err, appErr.DatabaseError)
	}
	return existing, nil
}

// Delete removes a problem.
func (s *ProblemService) Delete(ctx context.Context, problemID int64) error {
	if err := s.problemRepo.Delete(ctx, problemID); err != nil {
		if errors.Is(err, repository.ErrProblemNotFound) {
			return appErr.New(appErr.ProblemNotFound)
		}
		return appErr.Wrap(err, appErr.DatabaseError)
	}
	logger.Info(ctx, "problem deleted", zap.Int64("problem_id", problemID))
	return nil
}

// Get returns a problem. Non-admin callers get a sanitized copy with
// hidden cases and reference solutions stripped.
func (s *ProblemService) Get(ctx context.Context, problemID int64, includeSecrets bool) (repository.Problem, error) {
	problem, err := s.getProblem(ctx, problemID)
	if err != nil {
		return repository.Problem{}, err
	}
	if !includeSecrets {
		problem.HiddenCases = nil
		problem.ReferenceSolutions = nil
	}
	return problem, nil
}

// List returns a page of problem summaries.
func (s *ProblemService) List(ctx context.Context, limit, offset int) ([]repository.ListItem, error) {
	items, err := s.problemRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, appErr.Wrap(err, appErr.DatabaseError)
	}
	return items, nil
}

func (s *ProblemService) getProblem(ctx context.Context, problemID int64) (repository.Problem, error) {
	problem, err := s.problemRepo.GetByID(ctx, problemID)
	if err != nil {
		if errors.Is(err, repository.ErrProblemNotFound) {
			return repository.Problem{}, appErr.New(appErr.ProblemNotFound)
		}
		return repository.Problem{}, appErr.Wrap(err, appErr.DatabaseError)
	}
	return problem, nil
}

func (s *ProblemService) validateInput(ctx context.Context, input CreateInput) error {
	if strings.TrimSpace(input.Title) == "" {
		return appErr.New(appErr.RequiredFieldEmpty).WithMessage("title is required")
	}
	if strings.TrimSpace(input.Description) == "" {
		return appErr.New(appErr.RequiredFieldEmpty).WithMessage("description is required")
	}
	if len(input.VisibleCases) == 0 {
		return appErr.New(appErr.TestCaseInvalid).WithMessage("at least one visible test case is required")
	}
	if len(input.ReferenceSolutions) == 0 {
		return appErr.New(appErr.RequiredFieldEmpty).WithMessage("at least one reference solution is required")
	}
	for _, stub := range input.ReferenceSolutions {
		if _, ok := judge.ResolveLanguage(stub.Language); !ok {
			return appErr.Newf(appErr.LanguageNotSupported, "unsupported language %q", stub.Language)
		}
	}
	return s.validateReferenceSolutions(ctx, input)
}

// validateReferenceSolutions runs every reference solution against the
// full case set. A solution that does not pass all cases rejects the
// whole problem.
func (s *ProblemService) validateReferenceSolutions(ctx context.Context, input CreateInput) error {
	allCases := make([]repository.TestCase, 0, len(input.VisibleCases)+len(input.HiddenCases))
	allCases = append(allCases, input.VisibleCases...)
	allCases = append(allCases, input.HiddenCases...)

	for _, stub := range input.ReferenceSolutions {
		languageID, _ := judge.ResolveLanguage(stub.Language)

		batch := make([]judge.CaseSubmission, 0, len(allCases))
		for _, tc := range allCases {
			batch = append(batch, judge.CaseSubmission{
				SourceCode:     stub.Code,
				LanguageID:     languageID,
				Stdin:          tc.Input,
				ExpectedOutput: tc.Output,
			})
		}

		tokens, err := s.judge.SubmitBatch(ctx, batch)
		if err != nil {
			return err
		}
		results, err := s.judge.PollBatch(ctx, tokens)
		if err != nil {
			return err
		}

		summary := evaluation.Aggregate(results, true)
		if !summary.Accepted() {
			logger.Warn(ctx, "reference solution rejected",
				zap.String("language", stub.Language),
				zap.String("verdict", string(summary.Verdict)),
				zap.String("detail", summary.FirstFailure),
			)
			return appErr.Newf(appErr.ReferenceSolutionRejected,
				"%s reference solution failed: %s", stub.Language, summary.FirstFailure)
		}
	}
	return nil
}

func normalizeDifficulty(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case repository.DifficultyMedium:
		return repository.DifficultyMedium
	case repository.DifficultyHard:
		return repository.DifficultyHard
	default:
		return repository.DifficultyEasy
	}
}
