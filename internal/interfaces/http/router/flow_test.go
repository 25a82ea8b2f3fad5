package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	assessmentapp "github.com/claimswift/backend/internal/application/assessment"
	auditapp "github.com/claimswift/backend/internal/application/audit"
	claimapp "github.com/claimswift/backend/internal/application/claim"
	paymentapp "github.com/claimswift/backend/internal/application/payment"
	"github.com/claimswift/backend/internal/domain/payment"
	"github.com/claimswift/backend/internal/infrastructure/cache"
	"github.com/claimswift/backend/internal/infrastructure/client"
	"github.com/claimswift/backend/internal/infrastructure/config"
	"github.com/claimswift/backend/internal/infrastructure/persistence"
	"github.com/claimswift/backend/internal/interfaces/http/handler"
	"github.com/claimswift/backend/internal/interfaces/http/middleware"
	"github.com/claimswift/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// switchGateway approves charges while approve is set.
type switchGateway struct{ approve atomic.Bool }

func (g *switchGateway) Charge(_ context.Context, req payment.ChargeRequest) (*payment.ChargeResult, error) {
	if !g.approve.Load() {
		return &payment.ChargeResult{DeclineReason: "insufficient funds"}, nil
	}
	return &payment.ChargeResult{Approved: true, BankReference: "TXN-" + req.PaymentReference}, nil
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code string `json:"code"`
	} `json:"error"`
}

type api struct {
	t      *testing.T
	engine *gin.Engine
}

// newAPI serves the whole claims API over an in-memory sqlite database with
// in-process collaborators, the way a single-binary deployment runs.
func newAPI(t *testing.T, gw payment.Gateway) *api {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := persistence.Connect(context.Background(), &config.DatabaseConfig{
		Driver:     config.DriverSQLite,
		SQLitePath: ":memory:",
	}, nil)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate())
	t.Cleanup(func() { _ = db.Close() })

	log := zap.NewNop()
	trail := persistence.NewGormAuditTrail(db.DB)
	claimService := claimapp.NewClaimService(claimapp.ClaimServiceConfig{
		ClaimRepo:   persistence.NewGormClaimRepository(db.DB),
		HistoryRepo: persistence.NewGormClaimHistoryRepository(db.DB),
		TxScope:     persistence.NewGormClaimTransactionScope(db.DB),
	})
	claims := client.NewClaimAdapter(claimService)
	assessments := assessmentapp.NewAssessmentService(assessmentapp.AssessmentServiceConfig{
		AssessmentRepo: persistence.NewGormAssessmentRepository(db.DB),
		AssignmentRepo: persistence.NewGormAssignmentRepository(db.DB),
		WorkloadRepo:   persistence.NewGormWorkloadRepository(db.DB),
		AuditTrail:     trail,
		Claims:         claims,
		TxScope:        persistence.NewGormAssessmentTransactionScope(db.DB),
	})
	payments := paymentapp.NewPaymentService(paymentapp.PaymentServiceConfig{
		PaymentRepo:     persistence.NewGormPaymentRepository(db.DB),
		TransactionRepo: persistence.NewGormPaymentTransactionRepository(db.DB),
		AuditTrail:      trail,
		Claims:          claims,
		Notifier:        client.NewLoggingNotifier(log),
		Gateway:         gw,
		TxScope:         persistence.NewGormPaymentTransactionScope(db.DB),
		Locker:          cache.NewInMemoryLocker(),
	})
	audits := auditapp.NewAuditService(trail, log)

	engine := router.NewEngine(router.EngineConfig{Logger: log})
	router.Mount(engine, router.API{
		Middleware: router.Identity(nil),
		Registrars: []router.RouteRegistrar{
			handler.NewClaimHandler(claimService),
			handler.NewAssessmentHandler(assessments, audits),
			handler.NewPaymentHandler(payments, audits),
		},
	})
	return &api{t: t, engine: engine}
}

func (a *api) call(method, path string, body any, out any) (int, string) {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, "/api/v1"+path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.UserIDHeader, "manager-1")
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)

	var env envelope
	require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	if out != nil && len(env.Data) > 0 {
		require.NoError(a.t, json.Unmarshal(env.Data, out))
	}
	if env.Error != nil {
		return w.Code, env.Error.Code
	}
	return w.Code, ""
}

// approvedClaim drives a fresh claim to APPROVED for 1000 and returns its id.
func (a *api) approvedClaim(adjuster int64) int64 {
	a.t.Helper()
	var c claimapp.ClaimResponse
	status, _ := a.call(http.MethodPost, "/claims", map[string]any{
		"policy_number": "POL-77", "policyholder_id": 12, "claim_type": "AUTO",
		"amount": "1500.00", "description": "rear-end collision",
	}, &c)
	require.Equal(a.t, http.StatusCreated, status)

	status, _ = a.call(http.MethodPut, "/claims/"+itoa(c.ID)+"/status", map[string]any{"new_status": "UNDER_REVIEW"}, nil)
	require.Equal(a.t, http.StatusOK, status)
	status, _ = a.call(http.MethodPost, "/assessments", map[string]any{"claim_id": c.ID}, nil)
	require.Equal(a.t, http.StatusCreated, status)
	status, _ = a.call(http.MethodPost, "/assessments/assign", map[string]any{"claim_id": c.ID, "adjuster_id": adjuster, "manager_id": 2}, nil)
	require.Equal(a.t, http.StatusOK, status)
	status, _ = a.call(http.MethodPost, "/assessments/approve", map[string]any{"claim_id": c.ID, "assessed_amount": "1000", "user_id": 3}, nil)
	require.Equal(a.t, http.StatusOK, status)
	return c.ID
}

func itoa(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}

func bankDetails(claimID int64, amount string) map[string]any {
	return map[string]any{
		"claim_id":            claimID,
		"approved_amount":     amount,
		"bank_account_number": "004455667788",
		"bank_name":           "First Bank",
		"ifsc_code":           "FBNK0001",
		"account_holder_name": "Jo Doe",
	}
}

func TestSettlementFlow(t *testing.T) {
	gw := &switchGateway{}
	gw.approve.Store(true)
	a := newAPI(t, gw)

	claimID := a.approvedClaim(5)

	var assessed assessmentapp.AssessmentResponse
	status, _ := a.call(http.MethodGet, "/assessments/"+itoa(claimID), nil, &assessed)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "APPROVED", assessed.Status)
	assert.Equal(t, "100", assessed.Deductible.String())
	assert.Equal(t, "900", assessed.FinalAmount.String())

	var load assessmentapp.WorkloadResponse
	a.call(http.MethodGet, "/adjusters/5/workload", nil, &load)
	assert.Zero(t, load.ActiveClaimCount, "approval releases the adjuster")

	var paid paymentapp.PaymentResponse
	status, code := a.call(http.MethodPost, "/payments", bankDetails(claimID, "900.00"), &paid)
	require.Equal(t, http.StatusCreated, status, code)
	assert.Equal(t, "SUCCESS", paid.Status)
	assert.Equal(t, "SYNCED", paid.ClaimSync)
	assert.Equal(t, "********7788", paid.BankAccountNumber)

	var settled claimapp.ClaimResponse
	a.call(http.MethodGet, "/claims/"+itoa(claimID), nil, &settled)
	assert.Equal(t, "SETTLED", settled.Status)

	var history []claimapp.StatusHistoryResponse
	a.call(http.MethodGet, "/claims/"+itoa(claimID)+"/history", nil, &history)
	var path []string
	for _, h := range history {
		path = append(path, h.NewStatus)
	}
	assert.Equal(t, []string{"SUBMITTED", "UNDER_REVIEW", "APPROVED", "SETTLED"}, path)

	status, code = a.call(http.MethodPost, "/payments", bankDetails(claimID, "900.00"), nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "ERR_PAYMENT_ALREADY_EXISTS", code)

	status, code = a.call(http.MethodPost, "/assessments/adjust", map[string]any{"claim_id": claimID, "new_amount": "800"}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "ERR_INVALID_STATE", code)
}

func TestSettlementFlow_DeclineThenRetry(t *testing.T) {
	gw := &switchGateway{}
	a := newAPI(t, gw)
	claimID := a.approvedClaim(8)

	var declined paymentapp.PaymentResponse
	status, _ := a.call(http.MethodPost, "/payments", bankDetails(claimID, "900.00"), &declined)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "FAILED", declined.Status)

	var stillApproved claimapp.ClaimResponse
	a.call(http.MethodGet, "/claims/"+itoa(claimID), nil, &stillApproved)
	assert.Equal(t, "APPROVED", stillApproved.Status)

	gw.approve.Store(true)
	var retried paymentapp.PaymentResponse
	status, _ = a.call(http.MethodPost, "/payments/"+itoa(declined.ID)+"/retry", nil, &retried)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "SUCCESS", retried.Status)
	assert.Equal(t, 2, retried.Attempts)

	var attempts []paymentapp.TransactionResponse
	a.call(http.MethodGet, "/payments/"+itoa(declined.ID)+"/transactions", nil, &attempts)
	require.Len(t, attempts, 2)

	status, code := a.call(http.MethodPost, "/payments/"+itoa(declined.ID)+"/retry", nil, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "ERR_INVALID_PAYMENT_STATE", code)
}

func TestSettlementFlow_ClaimNotApproved(t *testing.T) {
	a := newAPI(t, &switchGateway{})

	var c claimapp.ClaimResponse
	a.call(http.MethodPost, "/claims", map[string]any{
		"policy_number": "POL-78", "policyholder_id": 13, "claim_type": "HOME", "amount": "400",
	}, &c)

	status, code := a.call(http.MethodPost, "/payments", bankDetails(c.ID, "400"), nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "ERR_INVALID_CLAIM_STATUS", code)

	var list []paymentapp.PaymentResponse
	status, _ = a.call(http.MethodGet, "/payments", nil, &list)
	assert.Equal(t, http.StatusOK, status)
	assert.Empty(t, list)
}
