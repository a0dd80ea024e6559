// Package evaluation turns raw judge case results into submission verdicts.
package evaluation

import (
	"probsvc/internal/judge"
)

// Verdict is the overall outcome of an evaluation.
type Verdict string

const (
	VerdictAccepted Verdict = "accepted"
	VerdictWrong    Verdict = "wrong"
	VerdictError    Verdict = "error"
)

// CaseReport is the per-case view exposed to callers. Expected output and
// stdin are echoed back so run-mode responses can show a diff.
type CaseReport struct {
	Index          int     `json:"index"`
	Passed         bool    `json:"passed"`
	StatusID       int     `json:"statusId"`
	Status         string  `json:"status"`
	Stdin          string  `json:"stdin,omitempty"`
	ExpectedOutput string  `json:"expectedOutput,omitempty"`
	Stdout         string  `json:"stdout,omitempty"`
	RuntimeSeconds float64 `json:"runtime"`
	MemoryKB       int64   `json:"memory"`
	Detail         string  `json:"detail,omitempty"`
}

// Summary is the aggregate of a whole batch.
type Summary struct {
	Verdict      Verdict
	PassedCount  int
	TotalCount   int
	TotalRuntime float64
	PeakMemoryKB int64
	FirstFailure string
	Cases        []CaseReport
}

// Accepted reports whether every case passed.
func (s Summary) Accepted() bool {
	return s.Verdict == VerdictAccepted
}

// AverageRuntime is the mean runtime over passed cases only, 0 when none
// passed. Run mode reports this instead of the total.
func (s Summary) AverageRuntime() float64 {
	if s.PassedCount == 0 {
		return 0
	}
	var sum float64
	for _, c := range s.Cases {
		if c.Passed {
			sum += c.RuntimeSeconds
		}
	}
	return sum / float64(s.PassedCount)
}

// Aggregate folds case results into a Summary. Results must be in case
// order. With stopOnFirstFailure the walk stops at the first non-accepted
// case and later cases are left out of the report, which matches submit
// semantics where hidden cases past the failure are irrelevant; run mode
// passes false and reports every case.
//
// Verdict severity is error > wrong > accepted: a single internal error
// outranks any number of wrong answers.
func Aggregate(results []judge.CaseResult, stopOnFirstFailure bool) Summary {
	summary := Summary{
		Verdict:    VerdictAccepted,
		TotalCount: len(results),
		Cases:      make([]CaseReport, 0, len(results)),
	}

	for i, r := range results {
		outcome := r.StatusCode().Classify()
		report := CaseReport{
			Index:          i,
			Passed:         outcome == judge.OutcomeAccepted,
			StatusID:       int(r.StatusCode()),
			Status:         r.StatusDescription(),
			Stdin:          r.Stdin,
			ExpectedOutput: r.ExpectedOutput,
			Stdout:         r.Stdout,
			RuntimeSeconds: r.TimeSeconds(),
			MemoryKB:       r.Memory,
		}

		switch outcome {
		case judge.OutcomeAccepted:
			summary.PassedCount++
			summary.TotalRuntime += report.RuntimeSeconds
			if report.MemoryKB > summary.PeakMemoryKB {
				summary.PeakMemoryKB = report.MemoryKB
			}
		case judge.OutcomeWrong:
			if summary.Verdict == VerdictAccepted {
				summary.Verdict = VerdictWrong
			}
		case judge.OutcomeError:
			summary.Verdict = VerdictError
		}

		if outcome != judge.OutcomeAccepted {
			report.Detail = r.FailureDetail()
			if summary.FirstFailure == "" {
				summary.FirstFailure = report.Detail
			}
		}

		summary.Cases = append(summary.Cases, report)

		if stopOnFirstFailure && outcome != judge.OutcomeAccepted {
			break
		}
	}

	return summary
}
