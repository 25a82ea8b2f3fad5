package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRecord(t *testing.T) {
	t.Run("defaults performer to SYSTEM", func(t *testing.T) {
		r, err := NewRecord(SubjectPayment, 12, ActionPaymentInitiated, "")
		require.NoError(t, err)
		assert.Equal(t, SystemActor, r.PerformedBy)
		assert.False(t, r.Timestamp.IsZero())
	})

	t.Run("carries change values", func(t *testing.T) {
		r, err := NewRecord(SubjectAssessment, 7, ActionApprove, "3")
		require.NoError(t, err)
		r.WithChange("PENDING", "APPROVED").WithDescription("approved 1000.00")
		assert.Equal(t, "PENDING", r.OldValue)
		assert.Equal(t, "APPROVED", r.NewValue)
		assert.Equal(t, "approved 1000.00", r.Description)
	})

	t.Run("rejects unknown subject", func(t *testing.T) {
		_, err := NewRecord("ORDER", 1, ActionApprove, "3")
		assert.Error(t, err)
	})

	t.Run("rejects empty action", func(t *testing.T) {
		_, err := NewRecord(SubjectClaim, 1, " ", "3")
		assert.Error(t, err)
	})
}
