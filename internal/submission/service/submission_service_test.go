package service

import (
	"context"
	"errors"
	"testing"

	"probsvc/internal/judge"
	problemRepo "probsvc/internal/problem/repository"
	"probsvc/internal/submission/repository"
	appErr "probsvc/pkg/errors"
)

type fakeJudge struct {
	submitted  [][]judge.CaseSubmission
	results    []judge.CaseResult
	submitErr  error
	pollErr    error
	pollCalled bool
}

func (f *fakeJudge) SubmitBatch(ctx context.Context, cases []judge.CaseSubmission) ([]string, error) {
	f.submitted = append(f.submitted, cases)
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	tokens := make([]string, len(cases))
	for i := range cases {
		tokens[i] = "tok"
	}
	return tokens, nil
}

func (f *fakeJudge) PollBatch(ctx context.Context, tokens []string) ([]judge.CaseResult, error) {
	f.pollCalled = true
	if f.pollErr != nil {
		return nil, f.pollErr
	}
	return f.results, nil
}

type fakeSubmissionRepo struct {
	nextID    int64
	created   []repository.Submission
	finalized map[int64]repository.Result
}

func newFakeSubmissionRepo() *fakeSubmissionRepo {
	return &fakeSubmissionRepo{nextID: 1, finalized: make(map[int64]repository.Result)}
}

func (f *fakeSubmissionRepo) Create(ctx context.Context, submission *repository.Submission) (int64, error) {
	submission.ID = f.nextID
	f.nextID++
	f.created = append(f.created, *submission)
	return submission.ID, nil
}

func (f *fakeSubmissionRepo) FinalizeResult(ctx context.Context, submissionID int64, result repository.Result) error {
	if _, ok := f.finalized[submissionID]; ok {
		return repository.ErrAlreadyFinalized
	}
	f.finalized[submissionID] = result
	return nil
}

func (f *fakeSubmissionRepo) GetByID(ctx context.Context, submissionID int64) (repository.Submission, error) {
	for _, s := range f.created {
		if s.ID == submissionID {
			if result, ok := f.finalized[submissionID]; ok {
				s.Status = result.Status
			}
			return s, nil
		}
	}
	return repository.Submission{}, repository.ErrSubmissionNotFound
}

func (f *fakeSubmissionRepo) ListByUserProblem(ctx context.Context, userID string, problemID int64) ([]repository.Submission, error) {
	var out []repository.Submission
	for _, s := range f.created {
		if s.UserID == userID && s.ProblemID == problemID {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeProblemRepo struct {
	problems map[int64]problemRepo.Problem
}

func (f *fakeProblemRepo) Create(ctx context.Context, p *problemRepo.Problem) (int64, error) {
	return 0, errors.New("not implemented")
}

func (f *fakeProblemRepo) Update(ctx context.Context, p *problemRepo.Problem) error {
	return errors.New("not implemented")
}

func (f *fakeProblemRepo) Delete(ctx context.Context, problemID int64) error {
	return errors.New("not implemented")
}

func (f *fakeProblemRepo) GetByID(ctx context.Context, problemID int64) (problemRepo.Problem, error) {
	p, ok := f.problems[problemID]
	if !ok {
		return problemRepo.Problem{}, problemRepo.ErrProblemNotFound
	}
	return p, nil
}

func (f *fakeProblemRepo) List(ctx context.Context, limit, offset int) ([]problemRepo.ListItem, error) {
	return nil, nil
}

func testProblem() problemRepo.Problem {
	return problemRepo.Problem{
		ID:    7,
		Title: "Sum",
		VisibleCases: []problemRepo.TestCase{
			{Input: "1 2", Output: "3"},
		},
		HiddenCases: []problemRepo.TestCase{
			{Input: "10 20", Output: "30"},
			{Input: "0 0", Output: "0"},
		},
	}
}

func newTestService(t *testing.T, j judge.Judge, subRepo repository.SubmissionRepository) *SubmissionService {
	t.Helper()
	svc, err := NewSubmissionService(Config{
		SubmissionRepo: subRepo,
		ProblemRepo:    &fakeProblemRepo{problems: map[int64]problemRepo.Problem{7: testProblem()}},
		Judge:          j,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestSubmitAccepted(t *testing.T) {
	t.Parallel()

	j := &fakeJudge{results: []judge.CaseResult{
		{StatusID: judge.StatusAccepted, Time: "0.1", Memory: 1000},
		{StatusID: judge.StatusAccepted, Time: "0.2", Memory: 2000},
		{StatusID: judge.StatusAccepted, Time: "0.1", Memory: 1500},
	}}
	subRepo := newFakeSubmissionRepo()
	svc := newTestService(t, j, subRepo)

	output, err := svc.Submit(context.Background(), SubmitInput{
		UserID:     "u1",
		ProblemID:  7,
		Language:   "cpp",
		SourceCode: "int main() {}",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if !output.Accepted || output.Status != "accepted" {
		t.Fatalf("expected accepted, got %+v", output)
	}
	if output.TotalTestCases != 3 || output.PassedTestCases != 3 {
		t.Fatalf("expected 3/3 cases, got %d/%d", output.PassedTestCases, output.TotalTestCases)
	}
	if output.Memory != 2000 {
		t.Fatalf("expected peak memory 2000, got %d", output.Memory)
	}

	// visible and hidden cases dispatched in one batch
	if len(j.submitted) != 1 || len(j.submitted[0]) != 3 {
		t.Fatalf("expected one batch of 3 cases, got %v", j.submitted)
	}

	result, ok := subRepo.finalized[output.SubmissionID]
	if !ok {
		t.Fatal("expected submission to be finalized")
	}
	if result.Status != repository.StatusAccepted {
		t.Fatalf("expected accepted row, got %q", result.Status)
	}
}

func TestSubmitWrongAnswer(t *testing.T) {
	t.Parallel()

	j := &fakeJudge{results: []judge.CaseResult{
		{StatusID: judge.StatusAccepted, Time: "0.1", Memory: 1000},
		{StatusID: judge.StatusWrongAnswer, Stdout: "31"},
		{StatusID: judge.StatusAccepted, Time: "0.1", Memory: 1000},
	}}
	subRepo := newFakeSubmissionRepo()
	svc := newTestService(t, j, subRepo)

	output, err := svc.Submit(context.Background(), SubmitInput{
		UserID:     "u1",
		ProblemID:  7,
		Language:   "cpp",
		SourceCode: "int main() {}",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if output.Accepted || output.Status != "wrong" {
		t.Fatalf("expected wrong verdict, got %+v", output)
	}
	if output.PassedTestCases != 1 {
		t.Fatalf("expected 1 passed before the failure, got %d", output.PassedTestCases)
	}

	result := subRepo.finalized[output.SubmissionID]
	if result.Status != repository.StatusWrong {
		t.Fatalf("expected wrong row, got %q", result.Status)
	}
}

func TestSubmitUnsupportedLanguageSkipsDispatch(t *testing.T) {
	t.Parallel()

	j := &fakeJudge{}
	subRepo := newFakeSubmissionRepo()
	svc := newTestService(t, j, subRepo)

	_, err := svc.Submit(context.Background(), SubmitInput{
		UserID:     "u1",
		ProblemID:  7,
		Language:   "python",
		SourceCode: "print(1)",
	})
	if appErr.GetCode(err) != appErr.LanguageNotSupported {
		t.Fatalf("expected LanguageNotSupported, got %v", err)
	}
	if len(j.submitted) != 0 {
		t.Fatal("expected no judge traffic for unsupported language")
	}
	if len(subRepo.created) != 0 {
		t.Fatal("expected no submission row for unsupported language")
	}
}

func TestSubmitJudgeFailureMarksRowError(t *testing.T) {
	t.Parallel()

	j := &fakeJudge{submitErr: appErr.New(appErr.JudgeUnavailable)}
	subRepo := newFakeSubmissionRepo()
	svc := newTestService(t, j, subRepo)

	_, err := svc.Submit(context.Background(), SubmitInput{
		UserID:     "u1",
		ProblemID:  7,
		Language:   "cpp",
		SourceCode: "int main() {}",
	})
	if appErr.GetCode(err) != appErr.JudgeUnavailable {
		t.Fatalf("expected JudgeUnavailable, got %v", err)
	}

	if len(subRepo.created) != 1 {
		t.Fatalf("expected pending row to exist, got %d", len(subRepo.created))
	}
	result, ok := subRepo.finalized[subRepo.created[0].ID]
	if !ok {
		t.Fatal("expected row to be finalized after judge failure")
	}
	if result.Status != repository.StatusError {
		t.Fatalf("expected error row, got %q", result.Status)
	}
}

func TestSubmitProblemNotFound(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, &fakeJudge{}, newFakeSubmissionRepo())
	_, err := svc.Submit(context.Background(), SubmitInput{
		UserID:     "u1",
		ProblemID:  999,
		Language:   "cpp",
		SourceCode: "int main() {}",
	})
	if appErr.GetCode(err) != appErr.ProblemNotFound {
		t.Fatalf("expected ProblemNotFound, got %v", err)
	}
}

func TestRunReportsAllCases(t *testing.T) {
	t.Parallel()

	j := &fakeJudge{results: []judge.CaseResult{
		{StatusID: judge.StatusWrongAnswer, Stdout: "4"},
		{StatusID: judge.StatusAccepted, Time: "0.2", Memory: 1000},
	}}
	svc := newTestService(t, j, newFakeSubmissionRepo())

	output, err := svc.Run(context.Background(), RunInput{
		UserID:     "u1",
		ProblemID:  7,
		Language:   "javascript",
		SourceCode: "console.log(1)",
		TestCases: []problemRepo.TestCase{
			{Input: "1 2", Output: "3\n"},
			{Input: "2 2", Output: "4"},
		},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if output.Success {
		t.Fatal("expected run to fail")
	}
	if len(output.DetailedResults) != 2 {
		t.Fatalf("expected all cases reported, got %d", len(output.DetailedResults))
	}
	if output.PassedTestCases != 1 || output.TotalTestCases != 2 {
		t.Fatalf("expected 1/2, got %d/%d", output.PassedTestCases, output.TotalTestCases)
	}

	// caller-provided expected output trimmed before dispatch
	if j.submitted[0][0].ExpectedOutput != "3" {
		t.Fatalf("expected trimmed output, got %q", j.submitted[0][0].ExpectedOutput)
	}
}

func TestRunFallsBackToVisibleCases(t *testing.T) {
	t.Parallel()

	j := &fakeJudge{results: []judge.CaseResult{
		{StatusID: judge.StatusAccepted, Time: "0.1", Memory: 500},
	}}
	svc := newTestService(t, j, newFakeSubmissionRepo())

	output, err := svc.Run(context.Background(), RunInput{
		UserID:     "u1",
		ProblemID:  7,
		Language:   "cpp",
		SourceCode: "int main() {}",
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !output.Success || output.TotalTestCases != 1 {
		t.Fatalf("expected run over 1 visible case, got %+v", output)
	}
	if len(j.submitted[0]) != 1 {
		t.Fatalf("expected hidden cases excluded from run, got %d cases", len(j.submitted[0]))
	}
}

func TestRunMissingProblemRejectedBeforeDispatch(t *testing.T) {
	t.Parallel()

	j := &fakeJudge{}
	svc := newTestService(t, j, newFakeSubmissionRepo())

	_, err := svc.Run(context.Background(), RunInput{
		UserID:     "u1",
		ProblemID:  999,
		Language:   "cpp",
		SourceCode: "int main() {}",
		TestCases: []problemRepo.TestCase{
			{Input: "1 2", Output: "3"},
		},
	})
	if appErr.GetCode(err) != appErr.ProblemNotFound {
		t.Fatalf("expected ProblemNotFound, got %v", err)
	}
	if len(j.submitted) != 0 {
		t.Fatal("expected no judge traffic for missing problem")
	}
}

func TestGetByIDOwnership(t *testing.T) {
	t.Parallel()

	subRepo := newFakeSubmissionRepo()
	svc := newTestService(t, &fakeJudge{results: []judge.CaseResult{
		{StatusID: judge.StatusAccepted},
		{StatusID: judge.StatusAccepted},
		{StatusID: judge.StatusAccepted},
	}}, subRepo)

	output, err := svc.Submit(context.Background(), SubmitInput{
		UserID:     "u1",
		ProblemID:  7,
		Language:   "cpp",
		SourceCode: "int main() {}",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if _, err := svc.GetByID(context.Background(), "u1", output.SubmissionID); err != nil {
		t.Fatalf("owner read failed: %v", err)
	}
	if _, err := svc.GetByID(context.Background(), "u2", output.SubmissionID); appErr.GetCode(err) != appErr.Forbidden {
		t.Fatalf("expected Forbidden for non-owner, got %v", err)
	}
	if _, err := svc.GetByID(context.Background(), "u1", 404); appErr.GetCode(err) != appErr.SubmissionNotFound {
		t.Fatalf("expected SubmissionNotFound, got %v", err)
	}
}
