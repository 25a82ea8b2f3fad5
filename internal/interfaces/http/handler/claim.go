package handler

import (
	"context"

	claimapp "github.com/claimswift/backend/internal/application/claim"
	"github.com/claimswift/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// ClaimUseCases is the claim application surface used by ClaimHandler.
type ClaimUseCases interface {
	Submit(ctx context.Context, req claimapp.SubmitClaimRequest) (*claimapp.ClaimResponse, error)
	GetByID(ctx context.Context, id int64) (*claimapp.ClaimResponse, error)
	UpdateStatus(ctx context.Context, id int64, rawStatus string) (*claimapp.ClaimResponse, error)
	History(ctx context.Context, id int64) ([]claimapp.StatusHistoryResponse, error)
	List(ctx context.Context, f claimapp.ClaimListFilter) ([]claimapp.ClaimResponse, int64, error)
}

// ClaimHandler handles claim API endpoints
type ClaimHandler struct {
	BaseHandler
	claims ClaimUseCases
}

// NewClaimHandler creates a new ClaimHandler
func NewClaimHandler(claims ClaimUseCases) *ClaimHandler {
	return &ClaimHandler{claims: claims}
}

// Submit godoc
//
//	@Summary	Submit a new claim
//	@Tags		claims
//	@Accept		json
//	@Produce	json
//	@Param		request	body		claimapp.SubmitClaimRequest	true	"Claim"
//	@Success	201		{object}	dto.Response
//	@Failure	400		{object}	dto.Response
//	@Router		/claims [post]
func (h *ClaimHandler) Submit(c *gin.Context) {
	var req claimapp.SubmitClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	resp, err := h.claims.Submit(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Get godoc
//
//	@Summary	Get a claim
//	@Tags		claims
//	@Produce	json
//	@Param		id	path		int	true	"Claim ID"
//	@Success	200	{object}	dto.Response
//	@Failure	404	{object}	dto.Response
//	@Router		/claims/{id} [get]
func (h *ClaimHandler) Get(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	resp, err := h.claims.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// History returns the status history of a claim, oldest first.
func (h *ClaimHandler) History(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	rows, err := h.claims.History(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rows)
}

// List godoc
//
//	@Summary	List claims by status or policyholder
//	@Tags		claims
//	@Produce	json
//	@Param		status			query		string	false	"Claim status"
//	@Param		policyholder_id	query		int		false	"Policyholder ID"
//	@Param		page			query		int		false	"Page"
//	@Param		page_size		query		int		false	"Page size"
//	@Success	200				{object}	dto.Response
//	@Router		/claims [get]
func (h *ClaimHandler) List(c *gin.Context) {
	var filter claimapp.ClaimListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}
	rows, total, err := h.claims.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page := dto.PageRequest{Page: filter.Page, PageSize: filter.PageSize}.Normalize()
	h.SuccessWithMeta(c, rows, total, page.Page, page.PageSize)
}

// UpdateStatus godoc
//
//	@Summary		Move a claim to a new status
//	@Description	Idempotent: repeating the current status succeeds without a history row. PAID is accepted for SETTLED.
//	@Tags			claims
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int								true	"Claim ID"
//	@Param			request	body		claimapp.UpdateStatusRequest	true	"Target status"
//	@Success		200		{object}	dto.Response
//	@Failure		422		{object}	dto.Response
//	@Router			/claims/{id}/status [put]
func (h *ClaimHandler) UpdateStatus(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req claimapp.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	resp, err := h.claims.UpdateStatus(c.Request.Context(), id, req.NewStatus)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// RegisterRoutes mounts the claim endpoints on rg.
func (h *ClaimHandler) RegisterRoutes(rg *gin.RouterGroup) {
	claims := rg.Group("/claims")
	claims.POST("", h.Submit)
	claims.GET("", h.List)
	claims.GET("/:id", h.Get)
	claims.GET("/:id/history", h.History)
	claims.PUT("/:id/status", h.UpdateStatus)
}
