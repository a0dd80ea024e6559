package controller

import (
	"strconv"

	"probsvc/internal/common/http/middleware"
	problemRepo "probsvc/internal/problem/repository"
	"probsvc/internal/submission/service"
	"probsvc/pkg/utils/response"

	"github.com/gin-gonic/gin"
)

// SubmissionController handles submission HTTP endpoints.
type SubmissionController struct {
	submissionService *service.SubmissionService
}

// NewSubmissionController creates a new SubmissionController.
func NewSubmissionController(submissionService *service.SubmissionService) *SubmissionController {
	return &SubmissionController{submissionService: submissionService}
}

// CodeRequest is the payload for both submit and run.
type CodeRequest struct {
	Code      string                 `json:"code" binding:"required"`
	Language  string                 `json:"language" binding:"required"`
	TestCases []problemRepo.TestCase `json:"testCases"`
}

// Submit evaluates code against the problem's full case set and records
// the attempt.
func (h *SubmissionController) Submit(c *gin.Context) {
	problemID, ok := parseProblemID(c)
	if !ok {
		return
	}

	var req CodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request parameters")
		return
	}

	output, err := h.submissionService.Submit(c.Request.Context(), service.SubmitInput{
		UserID:     middleware.UserID(c),
		ProblemID:  problemID,
		Language:   req.Language,
		SourceCode: req.Code,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, output)
}

// Run evaluates code against caller-supplied cases without recording
// anything.
func (h *SubmissionController) Run(c *gin.Context) {
	problemID, ok := parseProblemID(c)
	if !ok {
		return
	}

	var req CodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request parameters")
		return
	}

	output, err := h.submissionService.Run(c.Request.Context(), service.RunInput{
		UserID:     middleware.UserID(c),
		ProblemID:  problemID,
		Language:   req.Language,
		SourceCode: req.Code,
		TestCases:  req.TestCases,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, output)
}

// Get returns one of the caller's submissions.
func (h *SubmissionController) Get(c *gin.Context) {
	submissionID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || submissionID <= 0 {
		response.BadRequest(c, "Invalid submission id")
		return
	}

	submission, err := h.submissionService.GetByID(c.Request.Context(), middleware.UserID(c), submissionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, submission)
}

// History lists the caller's submissions for one problem, newest first.
func (h *SubmissionController) History(c *gin.Context) {
	problemID, ok := parseProblemID(c)
	if !ok {
		return
	}

	submissions, err := h.submissionService.History(c.Request.Context(), middleware.UserID(c), problemID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, submissions)
}

func parseProblemID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "Invalid problem id")
		return 0, false
	}
	return id, true
}
