package controller

import (
	"strconv"

	"probsvc/internal/common/http/middleware"
	"probsvc/internal/problem/service"
	"probsvc/pkg/utils/response"

	"github.com/gin-gonic/gin"
)

// ProblemController handles problem HTTP endpoints.
type ProblemController struct {
	problemService *service.ProblemService
}

// NewProblemController creates a new ProblemController.
func NewProblemController(problemService *service.ProblemService) *ProblemController {
	return &ProblemController{problemService: problemService}
}

// Create handles admin problem creation.
func (h *ProblemController) Create(c *gin.Context) {
	var req service.CreateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request parameters")
		return
	}

	creatorID := middleware.UserID(c)
	problem, err := h.problemService.Create(c.Request.Context(), creatorID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, problem)
}

// Update handles admin problem updates.
func (h *ProblemController) Update(c *gin.Context) {
	problemID, ok := parseID(c)
	if !ok {
		return
	}

	var req service.CreateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request parameters")
		return
	}

	problem, err := h.problemService.Update(c.Request.Context(), problemID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, problem)
}

// Delete handles admin problem deletion.
func (h *ProblemController) Delete(c *gin.Context) {
	problemID, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.problemService.Delete(c.Request.Context(), problemID); err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithMessage(c, "Deleted Successfully", nil)
}

// Get returns one problem without hidden cases or reference solutions.
func (h *ProblemController) Get(c *gin.Context) {
	problemID, ok := parseID(c)
	if !ok {
		return
	}
	problem, err := h.problemService.Get(c.Request.Context(), problemID, false)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, problem)
}

// GetFull returns one problem including hidden cases. Admin only.
func (h *ProblemController) GetFull(c *gin.Context) {
	problemID, ok := parseID(c)
	if !ok {
		return
	}
	problem, err := h.problemService.Get(c.Request.Context(), problemID, true)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, problem)
}

// List returns a page of problem summaries.
func (h *ProblemController) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	items, err := h.problemService.List(c.Request.Context(), limit, offset)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, items)
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "Invalid problem id")
		return 0, false
	}
	return id, true
}
