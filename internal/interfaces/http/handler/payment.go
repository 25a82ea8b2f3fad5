package handler

import (
	"context"
	"net/http"

	paymentapp "github.com/claimswift/backend/internal/application/payment"
	"github.com/claimswift/backend/internal/domain/audit"
	"github.com/claimswift/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// PaymentUseCases is the payment application surface used by PaymentHandler.
type PaymentUseCases interface {
	ProcessPayment(ctx context.Context, req paymentapp.ProcessPaymentRequest, performedBy string) (*paymentapp.PaymentResponse, error)
	RetryPayment(ctx context.Context, paymentID int64, performedBy string) (*paymentapp.PaymentResponse, error)
	ReconcileClaimSync(ctx context.Context, paymentID int64, performedBy string) (*paymentapp.PaymentResponse, error)
	GetByID(ctx context.Context, paymentID int64) (*paymentapp.PaymentResponse, error)
	GetByClaimID(ctx context.Context, claimID int64) (*paymentapp.PaymentResponse, error)
	List(ctx context.Context, f paymentapp.PaymentListFilter) ([]paymentapp.PaymentResponse, int64, error)
	Transactions(ctx context.Context, paymentID int64) ([]paymentapp.TransactionResponse, error)
}

// PaymentHandler handles payment settlement endpoints
type PaymentHandler struct {
	BaseHandler
	payments PaymentUseCases
	audit    AuditReader
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(payments PaymentUseCases, audit AuditReader) *PaymentHandler {
	return &PaymentHandler{payments: payments, audit: audit}
}

// respondSaga writes the outcome of a saga step. A payment that settled
// but could not be confirmed on the claim is returned with its error so the
// caller sees both.
func (h *PaymentHandler) respondSaga(c *gin.Context, status int, resp *paymentapp.PaymentResponse, err error) {
	if err != nil {
		if resp != nil {
			h.HandleErrorWithData(c, err, resp)
			return
		}
		h.HandleError(c, err)
		return
	}
	c.JSON(status, dto.NewSuccessResponse(resp))
}

// Process godoc
//
//	@Summary		Settle an approved claim
//	@Description	A gateway decline returns the FAILED payment with 201. A settled payment whose claim update failed returns 502 ERR_CLAIM_SYNC_PENDING with the payment in data.
//	@Tags			payments
//	@Accept			json
//	@Produce		json
//	@Param			request	body		paymentapp.ProcessPaymentRequest	true	"Payment"
//	@Success		201		{object}	dto.Response
//	@Failure		409		{object}	dto.Response
//	@Failure		422		{object}	dto.Response
//	@Failure		502		{object}	dto.Response
//	@Router			/payments [post]
func (h *PaymentHandler) Process(c *gin.Context) {
	var req paymentapp.ProcessPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	resp, err := h.payments.ProcessPayment(c.Request.Context(), req, callerID(c))
	h.respondSaga(c, http.StatusCreated, resp, err)
}

// Retry godoc
//
//	@Summary	Retry a FAILED payment
//	@Tags		payments
//	@Produce	json
//	@Param		id	path		int	true	"Payment ID"
//	@Success	200	{object}	dto.Response
//	@Failure	422	{object}	dto.Response
//	@Router		/payments/{id}/retry [post]
func (h *PaymentHandler) Retry(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	resp, err := h.payments.RetryPayment(c.Request.Context(), id, callerID(c))
	h.respondSaga(c, http.StatusOK, resp, err)
}

// Reconcile godoc
//
//	@Summary	Re-apply the PAID update for a settled payment
//	@Tags		payments
//	@Produce	json
//	@Param		id	path		int	true	"Payment ID"
//	@Success	200	{object}	dto.Response
//	@Failure	502	{object}	dto.Response
//	@Router		/payments/{id}/reconcile [post]
func (h *PaymentHandler) Reconcile(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	resp, err := h.payments.ReconcileClaimSync(c.Request.Context(), id, callerID(c))
	h.respondSaga(c, http.StatusOK, resp, err)
}

// Get returns a payment with its latest attempt.
func (h *PaymentHandler) Get(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	resp, err := h.payments.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// GetByClaim returns the payment of a claim.
func (h *PaymentHandler) GetByClaim(c *gin.Context) {
	claimID, ok := h.pathID(c, "claimId")
	if !ok {
		return
	}
	resp, err := h.payments.GetByClaimID(c.Request.Context(), claimID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// List godoc
//
//	@Summary	List payments
//	@Tags		payments
//	@Produce	json
//	@Param		status		query		string	false	"INITIATED, SUCCESS or FAILED"
//	@Param		claim_sync	query		string	false	"NOT_REQUIRED, PENDING or SYNCED"
//	@Success	200			{object}	dto.Response
//	@Router		/payments [get]
func (h *PaymentHandler) List(c *gin.Context) {
	var filter paymentapp.PaymentListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}
	rows, total, err := h.payments.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page := dto.PageRequest{Page: filter.Page, PageSize: filter.PageSize}.Normalize()
	h.SuccessWithMeta(c, rows, total, page.Page, page.PageSize)
}

// Transactions lists every gateway attempt of a payment.
func (h *PaymentHandler) Transactions(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	rows, err := h.payments.Transactions(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rows)
}

// Audit lists the audit trail of a payment.
func (h *PaymentHandler) Audit(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if _, err := h.payments.GetByID(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	rows, err := h.audit.ListBySubject(c.Request.Context(), string(audit.SubjectPayment), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rows)
}

// Health reports that the payment endpoints are being served.
func (h *PaymentHandler) Health(c *gin.Context) {
	h.Success(c, gin.H{"service": "payment", "status": "UP"})
}

// RegisterRoutes mounts the payment endpoints on rg.
func (h *PaymentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	payments := rg.Group("/payments")
	payments.POST("", h.Process)
	payments.GET("", h.List)
	payments.GET("/health", h.Health)
	payments.GET("/claim/:claimId", h.GetByClaim)
	payments.GET("/:id", h.Get)
	payments.GET("/:id/transactions", h.Transactions)
	payments.GET("/:id/audit", h.Audit)
	payments.POST("/:id/retry", h.Retry)
	payments.POST("/:id/reconcile", h.Reconcile)
}
