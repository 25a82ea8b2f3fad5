package claim

import (
	"errors"
	"testing"

	"github.com/claimswift/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClaim(t *testing.T) *Claim {
	c, err := NewClaim("POL-1001", 3, "HEALTH", "hospital stay", decimal.NewFromInt(1000))
	require.NoError(t, err)
	c.ID = 7
	return c
}

func TestNewClaim(t *testing.T) {
	t.Run("starts in SUBMITTED", func(t *testing.T) {
		c := newTestClaim(t)
		assert.Equal(t, StatusSubmitted, c.Status)
		assert.Equal(t, 1, c.Version)
		assert.True(t, c.Amount.Equal(decimal.NewFromInt(1000)))
	})

	t.Run("rejects empty policy number", func(t *testing.T) {
		_, err := NewClaim("  ", 3, "HEALTH", "", decimal.NewFromInt(10))
		require.Error(t, err)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		_, err := NewClaim("POL-1", 3, "HEALTH", "", decimal.Zero)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})
}

func TestTransitionTable(t *testing.T) {
	legal := map[[2]Status]bool{
		{StatusSubmitted, StatusUnderReview}: true,
		{StatusUnderReview, StatusApproved}:  true,
		{StatusUnderReview, StatusRejected}:  true,
		{StatusApproved, StatusSettled}:      true,
	}

	for _, from := range AllStatuses() {
		for _, to := range AllStatuses() {
			from, to := from, to
			t.Run(string(from)+"->"+string(to), func(t *testing.T) {
				c := newTestClaim(t)
				c.Status = from
				version := c.Version

				h, err := c.Transition(to)
				if legal[[2]Status{from, to}] {
					require.NoError(t, err)
					assert.Equal(t, to, c.Status)
					assert.Equal(t, from, h.OldStatus)
					assert.Equal(t, to, h.NewStatus)
					assert.Equal(t, int64(7), h.ClaimID)
					assert.Equal(t, version+1, c.Version)
					return
				}
				require.Error(t, err)
				var de *shared.DomainError
				require.True(t, errors.As(err, &de))
				assert.Equal(t, shared.CodeInvalidTransition, de.Code)
				assert.Equal(t, from, c.Status)
				assert.Equal(t, version, c.Version)
				assert.Nil(t, h)
			})
		}
	}
}

func TestStatus_IsTerminal(t *testing.T) {
	assert.True(t, StatusRejected.IsTerminal())
	assert.True(t, StatusSettled.IsTerminal())
	assert.False(t, StatusApproved.IsTerminal())
	assert.False(t, StatusSubmitted.IsTerminal())
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in      string
		want    Status
		wantErr bool
	}{
		{"UNDER_REVIEW", StatusUnderReview, false},
		{" approved ", StatusApproved, false},
		{"PAID", StatusSettled, false},
		{"settled", StatusSettled, false},
		{"CLOSED", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStatus(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
