package claim

import (
	"context"
	"testing"
	"time"

	"github.com/claimswift/backend/internal/domain/claim"
	"github.com/claimswift/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockClaimRepository struct {
	mock.Mock
}

func (m *MockClaimRepository) FindByID(ctx context.Context, id int64) (*claim.Claim, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*claim.Claim), args.Error(1)
}

func (m *MockClaimRepository) FindByIDForUpdate(ctx context.Context, id int64) (*claim.Claim, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*claim.Claim), args.Error(1)
}

func (m *MockClaimRepository) FindByStatus(ctx context.Context, status claim.Status, filter shared.Filter) ([]claim.Claim, int64, error) {
	args := m.Called(ctx, status, filter)
	return args.Get(0).([]claim.Claim), args.Get(1).(int64), args.Error(2)
}

func (m *MockClaimRepository) FindByPolicyholder(ctx context.Context, policyholderID int64, filter shared.Filter) ([]claim.Claim, int64, error) {
	args := m.Called(ctx, policyholderID, filter)
	return args.Get(0).([]claim.Claim), args.Get(1).(int64), args.Error(2)
}

func (m *MockClaimRepository) FindAll(ctx context.Context, filter shared.Filter) ([]claim.Claim, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]claim.Claim), args.Get(1).(int64), args.Error(2)
}

func (m *MockClaimRepository) Create(ctx context.Context, c *claim.Claim) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockClaimRepository) Save(ctx context.Context, c *claim.Claim) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

type MockHistoryRepository struct {
	mock.Mock
}

func (m *MockHistoryRepository) Append(ctx context.Context, h *claim.StatusHistory) error {
	args := m.Called(ctx, h)
	return args.Error(0)
}

func (m *MockHistoryRepository) FindByClaimID(ctx context.Context, claimID int64) ([]claim.StatusHistory, error) {
	args := m.Called(ctx, claimID)
	return args.Get(0).([]claim.StatusHistory), args.Error(1)
}

type recorderStub struct {
	calls [][2]string
}

func (r *recorderStub) RecordClaimTransition(_ context.Context, from, to string) {
	r.calls = append(r.calls, [2]string{from, to})
}

func newService() (*ClaimService, *MockClaimRepository, *MockHistoryRepository, *recorderStub) {
	claimRepo := new(MockClaimRepository)
	historyRepo := new(MockHistoryRepository)
	rec := &recorderStub{}
	svc := NewClaimService(ClaimServiceConfig{
		ClaimRepo:   claimRepo,
		HistoryRepo: historyRepo,
		Recorder:    rec,
	})
	return svc, claimRepo, historyRepo, rec
}

func claimAt(id int64, status claim.Status) *claim.Claim {
	c, _ := claim.NewClaim("POL-1", 3, "HEALTH", "", decimal.NewFromInt(1000))
	c.ID = id
	c.Status = status
	return c
}

func TestClaimService_Submit(t *testing.T) {
	svc, claimRepo, historyRepo, _ := newService()
	ctx := context.Background()

	claimRepo.On("Create", mock.Anything, mock.AnythingOfType("*claim.Claim")).
		Run(func(args mock.Arguments) { args.Get(1).(*claim.Claim).ID = 7 }).
		Return(nil)
	historyRepo.On("Append", mock.Anything, mock.MatchedBy(func(h *claim.StatusHistory) bool {
		return h.ClaimID == 7 && h.OldStatus == "" && h.NewStatus == claim.StatusSubmitted
	})).Return(nil)

	resp, err := svc.Submit(ctx, SubmitClaimRequest{
		PolicyNumber:   "POL-1",
		PolicyholderID: 3,
		ClaimType:      "HEALTH",
		Amount:         decimal.NewFromInt(1000),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), resp.ID)
	assert.Equal(t, "CLM-000007", resp.ClaimNumber)
	assert.Equal(t, "SUBMITTED", resp.Status)
	claimRepo.AssertExpectations(t)
	historyRepo.AssertExpectations(t)
}

func TestClaimService_Transition(t *testing.T) {
	ctx := context.Background()

	t.Run("legal transition writes claim and history", func(t *testing.T) {
		svc, claimRepo, historyRepo, rec := newService()
		claimRepo.On("FindByIDForUpdate", mock.Anything, int64(7)).Return(claimAt(7, claim.StatusUnderReview), nil)
		claimRepo.On("Save", mock.Anything, mock.AnythingOfType("*claim.Claim")).Return(nil)
		historyRepo.On("Append", mock.Anything, mock.MatchedBy(func(h *claim.StatusHistory) bool {
			return h.OldStatus == claim.StatusUnderReview && h.NewStatus == claim.StatusApproved
		})).Return(nil)

		resp, err := svc.Transition(ctx, 7, claim.StatusApproved)
		require.NoError(t, err)
		assert.Equal(t, "APPROVED", resp.Status)
		assert.Equal(t, [][2]string{{"UNDER_REVIEW", "APPROVED"}}, rec.calls)
		claimRepo.AssertExpectations(t)
		historyRepo.AssertExpectations(t)
	})

	t.Run("illegal transition writes nothing", func(t *testing.T) {
		svc, claimRepo, historyRepo, rec := newService()
		claimRepo.On("FindByIDForUpdate", mock.Anything, int64(7)).Return(claimAt(7, claim.StatusSubmitted), nil)

		_, err := svc.Transition(ctx, 7, claim.StatusApproved)
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, shared.CodeInvalidTransition, de.Code)
		claimRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		historyRepo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
		assert.Empty(t, rec.calls)
	})

	t.Run("repeat of current status fails", func(t *testing.T) {
		svc, claimRepo, _, _ := newService()
		claimRepo.On("FindByIDForUpdate", mock.Anything, int64(7)).Return(claimAt(7, claim.StatusApproved), nil)

		_, err := svc.Transition(ctx, 7, claim.StatusApproved)
		assert.ErrorIs(t, err, shared.NewDomainError(shared.CodeInvalidTransition, ""))
	})

	t.Run("missing claim", func(t *testing.T) {
		svc, claimRepo, _, _ := newService()
		claimRepo.On("FindByIDForUpdate", mock.Anything, int64(99)).Return(nil, nil)

		_, err := svc.Transition(ctx, 99, claim.StatusUnderReview)
		assert.ErrorIs(t, err, claim.ErrClaimNotFound)
	})
}

func TestClaimService_UpdateStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("same status is a no-op", func(t *testing.T) {
		svc, claimRepo, historyRepo, _ := newService()
		claimRepo.On("FindByID", mock.Anything, int64(7)).Return(claimAt(7, claim.StatusApproved), nil)

		resp, err := svc.UpdateStatus(ctx, 7, "APPROVED")
		require.NoError(t, err)
		assert.Equal(t, "APPROVED", resp.Status)
		claimRepo.AssertNotCalled(t, "FindByIDForUpdate", mock.Anything, mock.Anything)
		historyRepo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
	})

	t.Run("PAID settles an approved claim", func(t *testing.T) {
		svc, claimRepo, historyRepo, _ := newService()
		claimRepo.On("FindByID", mock.Anything, int64(7)).Return(claimAt(7, claim.StatusApproved), nil)
		claimRepo.On("FindByIDForUpdate", mock.Anything, int64(7)).Return(claimAt(7, claim.StatusApproved), nil)
		claimRepo.On("Save", mock.Anything, mock.Anything).Return(nil)
		historyRepo.On("Append", mock.Anything, mock.Anything).Return(nil)

		resp, err := svc.UpdateStatus(ctx, 7, "PAID")
		require.NoError(t, err)
		assert.Equal(t, "SETTLED", resp.Status)
	})

	t.Run("PAID on a settled claim is a no-op", func(t *testing.T) {
		svc, claimRepo, historyRepo, _ := newService()
		claimRepo.On("FindByID", mock.Anything, int64(7)).Return(claimAt(7, claim.StatusSettled), nil)

		_, err := svc.UpdateStatus(ctx, 7, "PAID")
		require.NoError(t, err)
		historyRepo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
	})

	t.Run("unknown status is a validation error", func(t *testing.T) {
		svc, _, _, _ := newService()
		_, err := svc.UpdateStatus(ctx, 7, "CLOSED")
		assert.Equal(t, shared.CategoryValidation, shared.CategoryOf(err))
	})

	t.Run("illegal jump is rejected", func(t *testing.T) {
		svc, claimRepo, _, _ := newService()
		claimRepo.On("FindByID", mock.Anything, int64(7)).Return(claimAt(7, claim.StatusSubmitted), nil)
		claimRepo.On("FindByIDForUpdate", mock.Anything, int64(7)).Return(claimAt(7, claim.StatusSubmitted), nil)

		_, err := svc.UpdateStatus(ctx, 7, "SETTLED")
		assert.Equal(t, shared.CategoryInvalidState, shared.CategoryOf(err))
	})
}

func TestClaimService_History(t *testing.T) {
	svc, claimRepo, historyRepo, _ := newService()
	ctx := context.Background()
	now := time.Now()

	claimRepo.On("FindByID", mock.Anything, int64(7)).Return(claimAt(7, claim.StatusUnderReview), nil)
	historyRepo.On("FindByClaimID", mock.Anything, int64(7)).Return([]claim.StatusHistory{
		{ClaimID: 7, NewStatus: claim.StatusSubmitted, TransitionedAt: now},
		{ClaimID: 7, OldStatus: claim.StatusSubmitted, NewStatus: claim.StatusUnderReview, TransitionedAt: now},
	}, nil)

	rows, err := svc.History(ctx, 7)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "UNDER_REVIEW", rows[1].NewStatus)
}

func TestClaimService_List(t *testing.T) {
	svc, claimRepo, _, _ := newService()
	ctx := context.Background()

	claimRepo.On("FindByStatus", mock.Anything, claim.StatusApproved, mock.Anything).
		Return([]claim.Claim{*claimAt(1, claim.StatusApproved)}, int64(1), nil)

	items, total, err := svc.List(ctx, ClaimListFilter{Status: "approved"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Equal(t, "APPROVED", items[0].Status)
}
