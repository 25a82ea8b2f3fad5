package handler

import (
	"context"

	assessmentapp "github.com/claimswift/backend/internal/application/assessment"
	auditapp "github.com/claimswift/backend/internal/application/audit"
	"github.com/claimswift/backend/internal/domain/audit"
	"github.com/gin-gonic/gin"
)

// AssessmentUseCases is the assessment application surface used by
// AssessmentHandler.
type AssessmentUseCases interface {
	Create(ctx context.Context, req assessmentapp.CreateAssessmentRequest) (*assessmentapp.AssessmentResponse, error)
	Assign(ctx context.Context, req assessmentapp.AssignRequest) (*assessmentapp.AssessmentResponse, error)
	Approve(ctx context.Context, req assessmentapp.ApproveRequest) (*assessmentapp.AssessmentResponse, error)
	Reject(ctx context.Context, req assessmentapp.RejectRequest) (*assessmentapp.AssessmentResponse, error)
	Adjust(ctx context.Context, req assessmentapp.AdjustRequest) (*assessmentapp.AssessmentResponse, error)
	GetByClaimID(ctx context.Context, claimID int64) (*assessmentapp.AssessmentResponse, error)
	Assignments(ctx context.Context, claimID int64) ([]assessmentapp.AssignmentResponse, error)
	Workload(ctx context.Context, adjusterID int64) (*assessmentapp.WorkloadResponse, error)
}

// AuditReader lists audit entries for one subject.
type AuditReader interface {
	ListBySubject(ctx context.Context, subjectType string, subjectID int64) ([]auditapp.RecordResponse, error)
}

// AssessmentHandler handles assessment and adjuster workload endpoints.
// Request bodies may omit user_id/manager_id; the caller identity is used
// when it is numeric.
type AssessmentHandler struct {
	BaseHandler
	assessments AssessmentUseCases
	audit       AuditReader
}

// NewAssessmentHandler creates a new AssessmentHandler
func NewAssessmentHandler(assessments AssessmentUseCases, audit AuditReader) *AssessmentHandler {
	return &AssessmentHandler{assessments: assessments, audit: audit}
}

func defaultUser(c *gin.Context, id *int64) {
	if *id == 0 {
		*id = callerNumericID(c)
	}
}

// Create godoc
//
//	@Summary	Open an assessment for a claim
//	@Tags		assessments
//	@Accept		json
//	@Produce	json
//	@Param		request	body		assessmentapp.CreateAssessmentRequest	true	"Assessment"
//	@Success	201		{object}	dto.Response
//	@Failure	409		{object}	dto.Response
//	@Router		/assessments [post]
func (h *AssessmentHandler) Create(c *gin.Context) {
	var req assessmentapp.CreateAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	defaultUser(c, &req.UserID)
	resp, err := h.assessments.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Assign godoc
//
//	@Summary	Assign an adjuster to a claim
//	@Tags		assessments
//	@Accept		json
//	@Produce	json
//	@Param		request	body		assessmentapp.AssignRequest	true	"Assignment"
//	@Success	200		{object}	dto.Response
//	@Router		/assessments/assign [post]
func (h *AssessmentHandler) Assign(c *gin.Context) {
	var req assessmentapp.AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	defaultUser(c, &req.ManagerID)
	resp, err := h.assessments.Assign(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Approve godoc
//
//	@Summary	Approve a claim with an assessed amount
//	@Tags		assessments
//	@Accept		json
//	@Produce	json
//	@Param		request	body		assessmentapp.ApproveRequest	true	"Decision"
//	@Success	200		{object}	dto.Response
//	@Failure	422		{object}	dto.Response
//	@Router		/assessments/approve [post]
func (h *AssessmentHandler) Approve(c *gin.Context) {
	var req assessmentapp.ApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	defaultUser(c, &req.UserID)
	resp, err := h.assessments.Approve(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Reject godoc
//
//	@Summary	Reject a claim
//	@Tags		assessments
//	@Accept		json
//	@Produce	json
//	@Param		request	body		assessmentapp.RejectRequest	true	"Decision"
//	@Success	200		{object}	dto.Response
//	@Router		/assessments/reject [post]
func (h *AssessmentHandler) Reject(c *gin.Context) {
	var req assessmentapp.RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	defaultUser(c, &req.UserID)
	resp, err := h.assessments.Reject(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Adjust godoc
//
//	@Summary	Change the assessed amount of an approved claim
//	@Tags		assessments
//	@Accept		json
//	@Produce	json
//	@Param		request	body		assessmentapp.AdjustRequest	true	"Adjustment"
//	@Success	200		{object}	dto.Response
//	@Failure	422		{object}	dto.Response
//	@Router		/assessments/adjust [post]
func (h *AssessmentHandler) Adjust(c *gin.Context) {
	var req assessmentapp.AdjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	defaultUser(c, &req.UserID)
	resp, err := h.assessments.Adjust(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Get returns the assessment of a claim.
func (h *AssessmentHandler) Get(c *gin.Context) {
	claimID, ok := h.pathID(c, "claimId")
	if !ok {
		return
	}
	resp, err := h.assessments.GetByClaimID(c.Request.Context(), claimID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Assignments lists every adjuster assignment of a claim, oldest first.
func (h *AssessmentHandler) Assignments(c *gin.Context) {
	claimID, ok := h.pathID(c, "claimId")
	if !ok {
		return
	}
	rows, err := h.assessments.Assignments(c.Request.Context(), claimID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rows)
}

// Audit lists the assessment audit trail of a claim.
func (h *AssessmentHandler) Audit(c *gin.Context) {
	claimID, ok := h.pathID(c, "claimId")
	if !ok {
		return
	}
	rows, err := h.audit.ListBySubject(c.Request.Context(), string(audit.SubjectAssessment), claimID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rows)
}

// Workload godoc
//
//	@Summary	Active claim count of an adjuster
//	@Tags		adjusters
//	@Produce	json
//	@Param		adjusterId	path		int	true	"Adjuster ID"
//	@Success	200			{object}	dto.Response
//	@Router		/adjusters/{adjusterId}/workload [get]
func (h *AssessmentHandler) Workload(c *gin.Context) {
	adjusterID, ok := h.pathID(c, "adjusterId")
	if !ok {
		return
	}
	resp, err := h.assessments.Workload(c.Request.Context(), adjusterID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// RegisterRoutes mounts the assessment and adjuster endpoints on rg.
func (h *AssessmentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	assessments := rg.Group("/assessments")
	assessments.POST("", h.Create)
	assessments.POST("/assign", h.Assign)
	assessments.POST("/approve", h.Approve)
	assessments.POST("/reject", h.Reject)
	assessments.POST("/adjust", h.Adjust)
	assessments.GET("/:claimId", h.Get)
	assessments.GET("/:claimId/assignments", h.Assignments)
	assessments.GET("/:claimId/audit", h.Audit)

	rg.GET("/adjusters/:adjusterId/workload", h.Workload)
}
