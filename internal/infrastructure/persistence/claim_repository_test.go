package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/claimswift/backend/internal/domain/claim"
	"github.com/claimswift/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClaim(t *testing.T, policyholderID int64, amount int64) *claim.Claim {
	c, err := claim.NewClaim("POL-001", policyholderID, "AUTO", "Rear-end collision", decimal.NewFromInt(amount))
	require.NoError(t, err)
	return c
}

func TestGormClaimRepository_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	repo := NewGormClaimRepository(setupTestDB(t))

	c := newTestClaim(t, 3, 1500)
	require.NoError(t, repo.Create(ctx, c))
	require.NotZero(t, c.ID)

	found, err := repo.FindByID(ctx, c.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, claim.StatusSubmitted, found.Status)
	assert.Equal(t, "POL-001", found.PolicyNumber)
	assert.True(t, found.Amount.Equal(decimal.NewFromInt(1500)))
	assert.Equal(t, 1, found.Version)

	locked, err := repo.FindByIDForUpdate(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, locked.ID)

	missing, err := repo.FindByID(ctx, 999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestGormClaimRepository_SaveOptimisticLock(t *testing.T) {
	ctx := context.Background()
	repo := NewGormClaimRepository(setupTestDB(t))

	c := newTestClaim(t, 3, 1500)
	require.NoError(t, repo.Create(ctx, c))

	first, err := repo.FindByID(ctx, c.ID)
	require.NoError(t, err)
	second, err := repo.FindByID(ctx, c.ID)
	require.NoError(t, err)

	_, err = first.Transition(claim.StatusUnderReview)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, first))

	_, err = second.Transition(claim.StatusRejected)
	require.Error(t, err, "SUBMITTED cannot go straight to REJECTED")
	_, err = second.Transition(claim.StatusUnderReview)
	require.NoError(t, err)

	err = repo.Save(ctx, second)
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, shared.CodeConcurrencyConflict, de.Code)

	stored, err := repo.FindByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, claim.StatusUnderReview, stored.Status)
	assert.Equal(t, 2, stored.Version)
}

func TestGormClaimRepository_Lists(t *testing.T) {
	ctx := context.Background()
	repo := NewGormClaimRepository(setupTestDB(t))

	for i := 0; i < 5; i++ {
		c := newTestClaim(t, int64(1+i%2), int64(100*(i+1)))
		require.NoError(t, repo.Create(ctx, c))
		if i < 2 {
			_, err := c.Transition(claim.StatusUnderReview)
			require.NoError(t, err)
			require.NoError(t, repo.Save(ctx, c))
		}
	}

	all, total, err := repo.FindAll(ctx, shared.DefaultFilter())
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Len(t, all, 5)

	page := shared.Filter{Page: 2, PageSize: 2, OrderBy: "amount", OrderDir: "asc"}
	paged, total, err := repo.FindAll(ctx, page)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, paged, 2)
	assert.True(t, paged[0].Amount.Equal(decimal.NewFromInt(300)))
	assert.True(t, paged[1].Amount.Equal(decimal.NewFromInt(400)))

	review, total, err := repo.FindByStatus(ctx, claim.StatusUnderReview, shared.DefaultFilter())
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	for _, c := range review {
		assert.Equal(t, claim.StatusUnderReview, c.Status)
	}

	mine, total, err := repo.FindByPolicyholder(ctx, 1, shared.DefaultFilter())
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	for _, c := range mine {
		assert.Equal(t, int64(1), c.PolicyholderID)
	}
}

func TestGormClaimHistoryRepository(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	claims := NewGormClaimRepository(db)
	history := NewGormClaimHistoryRepository(db)

	c := newTestClaim(t, 3, 1500)
	require.NoError(t, claims.Create(ctx, c))
	require.NoError(t, history.Append(ctx, claim.InitialHistory(c)))

	h, err := c.Transition(claim.StatusUnderReview)
	require.NoError(t, err)
	h.TransitionedAt = h.TransitionedAt.Add(time.Second)
	require.NoError(t, history.Append(ctx, h))
	assert.NotZero(t, h.ID)

	rows, err := history.FindByClaimID(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, claim.Status(""), rows[0].OldStatus)
	assert.Equal(t, claim.StatusSubmitted, rows[0].NewStatus)
	assert.Equal(t, claim.StatusSubmitted, rows[1].OldStatus)
	assert.Equal(t, claim.StatusUnderReview, rows[1].NewStatus)
}
