package judge

// Status is a judge-assigned status code for one test case execution.
// Codes 1 and 2 are non-terminal (queued / running); everything above 2 is
// terminal, including success.
type Status int

const (
	StatusInQueue           Status = 1
	StatusProcessing        Status = 2
	StatusAccepted          Status = 3
	StatusWrongAnswer       Status = 4
	StatusTimeLimitExceeded Status = 5
	StatusCompilationError  Status = 6
	StatusRuntimeSIGSEGV    Status = 7
	StatusRuntimeSIGXFSZ    Status = 8
	StatusRuntimeSIGFPE     Status = 9
	StatusRuntimeSIGABRT    Status = 10
	StatusRuntimeNZEC       Status = 11
	StatusRuntimeOther      Status = 12
	StatusInternalError     Status = 13
	StatusExecFormatError   Status = 14
)

// Terminal reports whether the case has finished executing.
func (s Status) Terminal() bool {
	return s > StatusProcessing
}

// CaseOutcome classifies a terminal status for verdict purposes.
type CaseOutcome int

const (
	// OutcomeAccepted means the case produced the expected output.
	OutcomeAccepted CaseOutcome = iota
	// OutcomeWrong covers wrong output and time limit exceeded.
	OutcomeWrong
	// OutcomeError covers compile errors, runtime errors and judge-side
	// failures.
	OutcomeError
)

// Classify maps a status to its verdict contribution. Wrong answer and time
// limit exceeded count as a wrong verdict; any other non-accepted status is
// an error verdict.
func (s Status) Classify() CaseOutcome {
	switch s {
	case StatusAccepted:
		return OutcomeAccepted
	case StatusWrongAnswer, StatusTimeLimitExceeded:
		return OutcomeWrong
	default:
		return OutcomeError
	}
}

var statusDescriptions = map[Status]string{
	StatusInQueue:           "In Queue",
	StatusProcessing:        "Processing",
	StatusAccepted:          "Accepted",
	StatusWrongAnswer:       "Wrong Answer",
	StatusTimeLimitExceeded: "Time Limit Exceeded",
	StatusCompilationError:  "Compilation Error",
	StatusRuntimeSIGSEGV:    "Runtime Error (SIGSEGV)",
	StatusRuntimeSIGXFSZ:    "Runtime Error (SIGXFSZ)",
	StatusRuntimeSIGFPE:     "Runtime Error (SIGFPE)",
	StatusRuntimeSIGABRT:    "Runtime Error (SIGABRT)",
	StatusRuntimeNZEC:       "Runtime Error (NZEC)",
	StatusRuntimeOther:      "Runtime Error",
	StatusInternalError:     "Internal Error",
	StatusExecFormatError:   "Exec Format Error",
}

// Description returns a human-readable status description.
func (s Status) Description() string {
	if desc, ok := statusDescriptions[s]; ok {
		return desc
	}
	return "Unknown"
}
