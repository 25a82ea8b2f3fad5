package handler

import (
	"context"
	"net/http"
	"testing"

	paymentapp "github.com/claimswift/backend/internal/application/payment"
	"github.com/claimswift/backend/internal/domain/shared"
	"github.com/claimswift/backend/internal/interfaces/http/middleware"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePayments struct {
	processReq  *paymentapp.ProcessPaymentRequest
	performedBy string
	resp        *paymentapp.PaymentResponse
	err         error
	listFilter  paymentapp.PaymentListFilter
}

func (f *fakePayments) ProcessPayment(_ context.Context, req paymentapp.ProcessPaymentRequest, performedBy string) (*paymentapp.PaymentResponse, error) {
	f.processReq = &req
	f.performedBy = performedBy
	return f.resp, f.err
}

func (f *fakePayments) RetryPayment(_ context.Context, _ int64, performedBy string) (*paymentapp.PaymentResponse, error) {
	f.performedBy = performedBy
	return f.resp, f.err
}

func (f *fakePayments) ReconcileClaimSync(_ context.Context, _ int64, performedBy string) (*paymentapp.PaymentResponse, error) {
	f.performedBy = performedBy
	return f.resp, f.err
}

func (f *fakePayments) GetByID(_ context.Context, id int64) (*paymentapp.PaymentResponse, error) {
	if f.resp == nil || f.resp.ID != id {
		return nil, shared.NewDomainError(shared.CodePaymentNotFound, "payment not found")
	}
	return f.resp, nil
}

func (f *fakePayments) GetByClaimID(_ context.Context, claimID int64) (*paymentapp.PaymentResponse, error) {
	if f.resp == nil || f.resp.ClaimID != claimID {
		return nil, shared.NewDomainError(shared.CodePaymentNotFound, "payment not found")
	}
	return f.resp, nil
}

func (f *fakePayments) List(_ context.Context, filter paymentapp.PaymentListFilter) ([]paymentapp.PaymentResponse, int64, error) {
	f.listFilter = filter
	if f.resp == nil {
		return []paymentapp.PaymentResponse{}, 0, nil
	}
	return []paymentapp.PaymentResponse{*f.resp}, 1, nil
}

func (f *fakePayments) Transactions(_ context.Context, _ int64) ([]paymentapp.TransactionResponse, error) {
	return []paymentapp.TransactionResponse{{ID: 1, Attempt: 1, Status: "FAILED"}, {ID: 2, Attempt: 2, Status: "SUCCESS"}}, nil
}

func validPaymentBody() map[string]any {
	return map[string]any{
		"claim_id":            9,
		"approved_amount":     "1200.00",
		"bank_account_number": "00112233",
		"bank_name":           "First Bank",
		"ifsc_code":           "FBNK0001",
		"account_holder_name": "Jo Doe",
	}
}

func TestPaymentHandler_Process(t *testing.T) {
	t.Run("settled", func(t *testing.T) {
		fake := &fakePayments{resp: &paymentapp.PaymentResponse{ID: 5, ClaimID: 9, Status: "SUCCESS", ClaimSync: "SYNCED"}}
		engine := newTestEngine(NewPaymentHandler(fake, &fakeAudit{}))

		w, env := doRequest(t, engine, http.MethodPost, "/api/v1/payments", validPaymentBody(), map[string]string{middleware.UserIDHeader: "finance-1"})

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.True(t, env.Success)
		assert.Equal(t, "finance-1", fake.performedBy)
		require.NotNil(t, fake.processReq)
		assert.True(t, fake.processReq.ApprovedAmount.Equal(decimal.NewFromInt(1200)))
	})

	t.Run("anonymous caller is system", func(t *testing.T) {
		fake := &fakePayments{resp: &paymentapp.PaymentResponse{ID: 5, Status: "FAILED"}}
		engine := newTestEngine(NewPaymentHandler(fake, &fakeAudit{}))

		w, _ := doRequest(t, engine, http.MethodPost, "/api/v1/payments", validPaymentBody(), nil)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, middleware.SystemUser, fake.performedBy)
	})

	t.Run("claim sync pending returns payment with error", func(t *testing.T) {
		fake := &fakePayments{
			resp: &paymentapp.PaymentResponse{ID: 5, ClaimID: 9, Status: "SUCCESS", ClaimSync: "PENDING"},
			err:  shared.NewDomainError(shared.CodeClaimSyncPending, "payment settled but claim update failed"),
		}
		engine := newTestEngine(NewPaymentHandler(fake, &fakeAudit{}))

		w, env := doRequest(t, engine, http.MethodPost, "/api/v1/payments", validPaymentBody(), nil)

		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.False(t, env.Success)
		assert.Equal(t, "ERR_CLAIM_SYNC_PENDING", env.Error.Code)
		var got paymentapp.PaymentResponse
		decodeData(t, env, &got)
		assert.Equal(t, "PENDING", got.ClaimSync)
	})

	t.Run("lock held", func(t *testing.T) {
		fake := &fakePayments{err: shared.ErrLockHeld}
		engine := newTestEngine(NewPaymentHandler(fake, &fakeAudit{}))

		w, env := doRequest(t, engine, http.MethodPost, "/api/v1/payments", validPaymentBody(), nil)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "ERR_CONCURRENCY_CONFLICT", env.Error.Code)
		assert.Empty(t, env.Data)
	})

	t.Run("claim not eligible", func(t *testing.T) {
		fake := &fakePayments{err: shared.NewDomainError(shared.CodeClaimNotEligible, "claim is not APPROVED")}
		engine := newTestEngine(NewPaymentHandler(fake, &fakeAudit{}))

		w, env := doRequest(t, engine, http.MethodPost, "/api/v1/payments", validPaymentBody(), nil)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, "ERR_CLAIM_NOT_ELIGIBLE", env.Error.Code)
	})

	t.Run("missing bank details", func(t *testing.T) {
		fake := &fakePayments{}
		engine := newTestEngine(NewPaymentHandler(fake, &fakeAudit{}))
		body := validPaymentBody()
		delete(body, "ifsc_code")

		w, env := doRequest(t, engine, http.MethodPost, "/api/v1/payments", body, nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "ERR_VALIDATION_FAILED", env.Error.Code)
		assert.Nil(t, fake.processReq)
	})
}

func TestPaymentHandler_RetryAndReconcile(t *testing.T) {
	fake := &fakePayments{resp: &paymentapp.PaymentResponse{ID: 5, ClaimID: 9, Status: "SUCCESS", ClaimSync: "SYNCED"}}
	engine := newTestEngine(NewPaymentHandler(fake, &fakeAudit{}))

	w, _ := doRequest(t, engine, http.MethodPost, "/api/v1/payments/5/retry", nil, map[string]string{middleware.UserIDHeader: "ops"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ops", fake.performedBy)

	fake.resp = nil
	fake.err = shared.NewDomainError(shared.CodeClaimSyncPending, "claim service unavailable")
	w, env := doRequest(t, engine, http.MethodPost, "/api/v1/payments/5/reconcile", nil, nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "ERR_CLAIM_SYNC_PENDING", env.Error.Code)
	assert.Empty(t, env.Data)

	fake.err = shared.NewDomainError(shared.CodeInvalidPaymentState, "only FAILED payments can be retried")
	w, env = doRequest(t, engine, http.MethodPost, "/api/v1/payments/5/retry", nil, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "ERR_INVALID_PAYMENT_STATE", env.Error.Code)
}

func TestPaymentHandler_Reads(t *testing.T) {
	fake := &fakePayments{resp: &paymentapp.PaymentResponse{ID: 5, ClaimID: 9, Status: "SUCCESS"}}
	audit := &fakeAudit{}
	engine := newTestEngine(NewPaymentHandler(fake, audit))

	w, env := doRequest(t, engine, http.MethodGet, "/api/v1/payments/5", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var got paymentapp.PaymentResponse
	decodeData(t, env, &got)
	assert.Equal(t, int64(9), got.ClaimID)

	w, _ = doRequest(t, engine, http.MethodGet, "/api/v1/payments/claim/9", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, env = doRequest(t, engine, http.MethodGet, "/api/v1/payments/6", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "ERR_PAYMENT_NOT_FOUND", env.Error.Code)

	w, env = doRequest(t, engine, http.MethodGet, "/api/v1/payments/5/transactions", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var txs []paymentapp.TransactionResponse
	decodeData(t, env, &txs)
	assert.Len(t, txs, 2)

	w, _ = doRequest(t, engine, http.MethodGet, "/api/v1/payments/5/audit", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "PAYMENT", audit.subjectType)
	assert.Equal(t, int64(5), audit.subjectID)

	w, _ = doRequest(t, engine, http.MethodGet, "/api/v1/payments/6/audit", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, env = doRequest(t, engine, http.MethodGet, "/api/v1/payments?status=SUCCESS&claim_sync=PENDING", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "SUCCESS", fake.listFilter.Status)
	assert.Equal(t, "PENDING", fake.listFilter.ClaimSync)
	require.NotNil(t, env.Meta)
	assert.Equal(t, int64(1), env.Meta.Total)

	w, _ = doRequest(t, engine, http.MethodGet, "/api/v1/payments?status=DONE", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = doRequest(t, engine, http.MethodGet, "/api/v1/payments/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"service":"payment","status":"UP"}`, string(env.Data))
}
