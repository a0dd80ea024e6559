package judge

import "strconv"

// CaseSubmission is one test case dispatched to the judge: the user's source
// plus the case's stdin and the output the judge should compare against.
type CaseSubmission struct {
	SourceCode     string `json:"source_code"`
	LanguageID     int    `json:"language_id"`
	Stdin          string `json:"stdin"`
	ExpectedOutput string `json:"expected_output"`
}

// StatusInfo is the judge's embedded status object.
type StatusInfo struct {
	ID          Status `json:"id"`
	Description string `json:"description"`
}

// CaseResult is the judge's report for one dispatched case. It is transient:
// produced by polling, consumed once by aggregation, never persisted.
// Time is reported by the judge as a decimal string in seconds; Memory is in
// kilobytes. Nullable fields come back as empty strings.
type CaseResult struct {
	Token          string     `json:"token"`
	StatusID       Status     `json:"status_id"`
	Status         StatusInfo `json:"status"`
	Stdout         string     `json:"stdout"`
	Stderr         string     `json:"stderr"`
	CompileOutput  string     `json:"compile_output"`
	Time           string     `json:"time"`
	Memory         int64      `json:"memory"`
	Stdin          string     `json:"stdin"`
	ExpectedOutput string     `json:"expected_output"`
}

// StatusCode returns the case's status, preferring the flat status_id field
// and falling back to the embedded status object.
func (r CaseResult) StatusCode() Status {
	if r.StatusID != 0 {
		return r.StatusID
	}
	return r.Status.ID
}

// StatusDescription returns the judge-provided description when present.
func (r CaseResult) StatusDescription() string {
	if r.Status.Description != "" {
		return r.Status.Description
	}
	return r.StatusCode().Description()
}

// TimeSeconds parses the judge's elapsed time string. Missing or malformed
// values count as zero.
func (r CaseResult) TimeSeconds() float64 {
	if r.Time == "" {
		return 0
	}
	seconds, err := strconv.ParseFloat(r.Time, 64)
	if err != nil {
		return 0
	}
	return seconds
}

// FailureDetail returns the most useful error text for a failed case:
// stderr, then compile output, then the status description.
func (r CaseResult) FailureDetail() string {
	if r.Stderr != "" {
		return r.Stderr
	}
	if r.CompileOutput != "" {
		return r.CompileOutput
	}
	return r.StatusDescription()
}
