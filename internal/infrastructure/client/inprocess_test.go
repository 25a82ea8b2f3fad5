package client

import (
	"context"
	"testing"

	appclaim "github.com/claimswift/backend/internal/application/claim"
	"github.com/claimswift/backend/internal/domain/claim"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockClaimOps struct {
	mock.Mock
}

func (m *mockClaimOps) GetByID(ctx context.Context, id int64) (*appclaim.ClaimResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appclaim.ClaimResponse), args.Error(1)
}

func (m *mockClaimOps) UpdateStatus(ctx context.Context, id int64, rawStatus string) (*appclaim.ClaimResponse, error) {
	args := m.Called(ctx, id, rawStatus)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appclaim.ClaimResponse), args.Error(1)
}

func TestClaimAdapter(t *testing.T) {
	ctx := context.Background()
	ops := new(mockClaimOps)
	adapter := NewClaimAdapter(ops)

	ops.On("GetByID", ctx, int64(7)).Return(&appclaim.ClaimResponse{
		ID: 7, ClaimNumber: "CLM-000007", PolicyholderID: 3, Status: "APPROVED", Amount: decimal.NewFromInt(900),
	}, nil)
	ops.On("GetByID", ctx, int64(8)).Return(nil, claim.NotFound(8))
	ops.On("UpdateStatus", ctx, int64(7), "SETTLED").Return(&appclaim.ClaimResponse{ID: 7, Status: "SETTLED"}, nil)

	snap, err := adapter.FetchClaim(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, claim.StatusApproved, snap.Status)
	assert.True(t, snap.EstimatedAmount.Equal(decimal.NewFromInt(900)))

	_, err = adapter.FetchClaim(ctx, 8)
	assert.ErrorIs(t, err, claim.ErrClaimNotFound)

	require.NoError(t, adapter.UpdateClaimStatus(ctx, 7, claim.StatusSettled))
	ops.AssertExpectations(t)
}
