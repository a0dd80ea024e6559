package evaluation

import (
	"testing"

	"probsvc/internal/judge"
)

func accepted(timeSec string, memoryKB int64) judge.CaseResult {
	return judge.CaseResult{StatusID: judge.StatusAccepted, Time: timeSec, Memory: memoryKB}
}

func TestAggregateAllAccepted(t *testing.T) {
	t.Parallel()

	summary := Aggregate([]judge.CaseResult{
		accepted("0.1", 1000),
		accepted("0.2", 3000),
		accepted("0.3", 2000),
	}, true)

	if summary.Verdict != VerdictAccepted {
		t.Fatalf("expected accepted, got %q", summary.Verdict)
	}
	if summary.PassedCount != 3 || summary.TotalCount != 3 {
		t.Fatalf("expected 3/3, got %d/%d", summary.PassedCount, summary.TotalCount)
	}
	if summary.TotalRuntime < 0.599 || summary.TotalRuntime > 0.601 {
		t.Fatalf("expected total runtime 0.6, got %v", summary.TotalRuntime)
	}
	if summary.PeakMemoryKB != 3000 {
		t.Fatalf("expected peak memory 3000, got %d", summary.PeakMemoryKB)
	}
	if summary.FirstFailure != "" {
		t.Fatalf("expected no failure detail, got %q", summary.FirstFailure)
	}
}

func TestAggregateStopsOnFirstFailure(t *testing.T) {
	t.Parallel()

	summary := Aggregate([]judge.CaseResult{
		accepted("0.1", 1000),
		{StatusID: judge.StatusWrongAnswer, Stdout: "42"},
		accepted("0.1", 1000),
	}, true)

	if summary.Verdict != VerdictWrong {
		t.Fatalf("expected wrong, got %q", summary.Verdict)
	}
	if len(summary.Cases) != 2 {
		t.Fatalf("expected walk to stop after failure, got %d case reports", len(summary.Cases))
	}
	if summary.PassedCount != 1 {
		t.Fatalf("expected 1 passed, got %d", summary.PassedCount)
	}
	if summary.FirstFailure != "Wrong Answer" {
		t.Fatalf("unexpected failure detail %q", summary.FirstFailure)
	}
}

func TestAggregateExhaustiveReportsAllCases(t *testing.T) {
	t.Parallel()

	summary := Aggregate([]judge.CaseResult{
		{StatusID: judge.StatusWrongAnswer},
		accepted("0.2", 1000),
		{StatusID: judge.StatusTimeLimitExceeded},
	}, false)

	if summary.Verdict != VerdictWrong {
		t.Fatalf("expected wrong, got %q", summary.Verdict)
	}
	if len(summary.Cases) != 3 {
		t.Fatalf("expected all 3 cases reported, got %d", len(summary.Cases))
	}
	if summary.PassedCount != 1 {
		t.Fatalf("expected 1 passed, got %d", summary.PassedCount)
	}
}

func TestAggregateErrorOutranksWrong(t *testing.T) {
	t.Parallel()

	summary := Aggregate([]judge.CaseResult{
		{StatusID: judge.StatusWrongAnswer},
		{StatusID: judge.StatusCompilationError, CompileOutput: "missing semicolon"},
	}, false)

	if summary.Verdict != VerdictError {
		t.Fatalf("expected error verdict, got %q", summary.Verdict)
	}
	if summary.FirstFailure != "Wrong Answer" {
		t.Fatalf("expected first failure detail from first failed case, got %q", summary.FirstFailure)
	}
}

func TestAggregateFailureDetailPreference(t *testing.T) {
	t.Parallel()

	summary := Aggregate([]judge.CaseResult{
		{StatusID: judge.StatusRuntimeNZEC, Stderr: "panic: index out of range", CompileOutput: "ignored"},
	}, true)

	if summary.FirstFailure != "panic: index out of range" {
		t.Fatalf("expected stderr to win, got %q", summary.FirstFailure)
	}
}

func TestAggregateEmptyResults(t *testing.T) {
	t.Parallel()

	summary := Aggregate(nil, true)
	if summary.Verdict != VerdictAccepted {
		t.Fatalf("expected vacuous accept, got %q", summary.Verdict)
	}
	if summary.TotalCount != 0 || len(summary.Cases) != 0 {
		t.Fatalf("expected empty summary, got %+v", summary)
	}
}

func TestAverageRuntime(t *testing.T) {
	t.Parallel()

	summary := Aggregate([]judge.CaseResult{
		accepted("0.2", 1000),
		accepted("0.4", 1000),
		{StatusID: judge.StatusWrongAnswer, Time: "9.9"},
	}, false)

	avg := summary.AverageRuntime()
	if avg < 0.299 || avg > 0.301 {
		t.Fatalf("expected average over passed cases only, got %v", avg)
	}

	failed := Aggregate([]judge.CaseResult{{StatusID: judge.StatusWrongAnswer}}, false)
	if failed.AverageRuntime() != 0 {
		t.Fatalf("expected zero average with no passed cases, got %v", failed.AverageRuntime())
	}
}
