package errors

// ErrorCode represents a unique error identifier
type ErrorCode int

// Error code ranges allocation:
// 10000-10999: System & Common errors
// 11000-11999: User module errors
// 12000-12999: Problem module errors
// 13000-13999: Submission & Judge module errors

const (
	// ========== System & Common Errors (10000-10999) ==========

	// Success
	Success ErrorCode = 10000

	// Generic errors (10000-10099)
	InternalServerError ErrorCode = 10001
	InvalidParams       ErrorCode = 10002
	NotFound            ErrorCode = 10003
	Unauthorized        ErrorCode = 10004
	Forbidden           ErrorCode = 10005
	ServiceUnavailable  ErrorCode = 10007
	Timeout             ErrorCode = 10008

	// Database errors (10100-10199)
	DatabaseError     ErrorCode = 10100
	RecordNotFound    ErrorCode = 10101
	TransactionFailed ErrorCode = 10103

	// Cache errors (10200-10299)
	CacheError ErrorCode = 10200

	// Validation errors (10300-10399)
	ValidationFailed   ErrorCode = 10300
	RequiredFieldEmpty ErrorCode = 10303

	// ========== User Module Errors (11000-11999) ==========

	TokenExpired ErrorCode = 11003
	TokenInvalid ErrorCode = 11004
	UserNotFound ErrorCode = 11001

	// ========== Problem Module Errors (12000-12999) ==========

	ProblemNotFound           ErrorCode = 12000
	ProblemCreateFailed       ErrorCode = 12002
	ProblemUpdateFailed       ErrorCode = 12003
	ProblemDeleteFailed       ErrorCode = 12004
	TestCaseInvalid           ErrorCode = 12102
	ReferenceSolutionRejected ErrorCode = 12110

	// ========== Submission & Judge Module Errors (13000-13999) ==========

	// Submission (13000-13099)
	SubmissionNotFound     ErrorCode = 13000
	SubmissionCreateFailed ErrorCode = 13001
	LanguageNotSupported   ErrorCode = 13003

	// Judge (13100-13199)
	JudgeUnavailable ErrorCode = 13101
	JudgeTimeout     ErrorCode = 13107

	// Solved notification (13200-13299)
	SolvedEventPublishFailed ErrorCode = 13200
	SolvedEventDeliverFailed ErrorCode = 13201
)

// errorMessages maps error codes to default messages
var errorMessages = map[ErrorCode]string{
	Success: "Success",

	InternalServerError: "Internal server error",
	InvalidParams:       "Invalid parameters",
	NotFound:            "Resource not found",
	Unauthorized:        "Unauthorized",
	Forbidden:           "Forbidden",
	ServiceUnavailable:  "Service unavailable",
	Timeout:             "Operation timed out",

	DatabaseError:     "Database error",
	RecordNotFound:    "Record not found",
	TransactionFailed: "Transaction failed",

	CacheError: "Cache error",

	ValidationFailed:   "Validation failed",
	RequiredFieldEmpty: "Required field is empty",

	TokenExpired: "Token has expired",
	TokenInvalid: "Invalid token",
	UserNotFound: "User not found",

	ProblemNotFound:           "Problem not found",
	ProblemCreateFailed:       "Failed to create problem",
	ProblemUpdateFailed:       "Failed to update problem",
	ProblemDeleteFailed:       "Failed to delete problem",
	TestCaseInvalid:           "Invalid test case format",
	ReferenceSolutionRejected: "Reference solution failed validation",

	SubmissionNotFound:     "Submission not found",
	SubmissionCreateFailed: "Failed to create submission",
	LanguageNotSupported:   "Programming language not supported",

	JudgeUnavailable: "Judge service unavailable",
	JudgeTimeout:     "Judge did not finish in time",

	SolvedEventPublishFailed: "Failed to publish solved event",
	SolvedEventDeliverFailed: "Failed to deliver solved event",
}

// Message returns the default message for the error code
func (c ErrorCode) Message() string {
	if msg, ok := errorMessages[c]; ok {
		return msg
	}
	return "Unknown error"
}

// HTTPStatus returns the recommended HTTP status code for the error code
func (c ErrorCode) HTTPStatus() int {
	switch {
	case c == Success:
		return 200
	case c == Unauthorized, c == TokenExpired, c == TokenInvalid:
		return 401
	case c == Forbidden:
		return 403
	case c == NotFound, c == UserNotFound, c == ProblemNotFound, c == SubmissionNotFound, c == RecordNotFound:
		return 404
	case c == ServiceUnavailable, c == JudgeUnavailable:
		return 503
	case c == JudgeTimeout:
		return 504
	case c >= 10300 && c < 10400: // Validation errors
		return 400
	case c == InvalidParams, c == LanguageNotSupported, c == TestCaseInvalid, c == ReferenceSolutionRejected:
		return 400
	default:
		return 500
	}
}
