package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/claimswift/backend/internal/domain/claim"
	"github.com/claimswift/backend/internal/domain/collaborator"
	"github.com/claimswift/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fastRetry = RetryPolicy{MaxTries: 3, InitialInterval: time.Millisecond, MaxInterval: 5 * time.Millisecond}

func writeEnvelope(w http.ResponseWriter, status int, data any, code, message string) {
	body := map[string]any{"success": status < 400, "timestamp": time.Now().Unix()}
	if data != nil {
		body["data"] = data
	}
	if code != "" {
		body["error"] = map[string]string{"code": code, "message": message}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func newClaimClient(t *testing.T, h http.HandlerFunc) *HTTPClaimClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewHTTPClaimClient(srv.URL+"/", NewHTTPClient(2*time.Second), fastRetry, nil)
}

func TestHTTPClaimClient_FetchClaim(t *testing.T) {
	c := newClaimClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v1/claims/7", r.URL.Path)
		writeEnvelope(w, http.StatusOK, map[string]any{
			"id":              7,
			"claim_number":    "CLM-000007",
			"policyholder_id": 3,
			"claim_type":      "AUTO",
			"amount":          "1200.50",
			"status":          "APPROVED",
		}, "", "")
	})

	snap, err := c.FetchClaim(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), snap.ID)
	assert.Equal(t, int64(3), snap.PolicyholderID)
	assert.Equal(t, claim.StatusApproved, snap.Status)
	assert.Equal(t, "1200.5", snap.EstimatedAmount.String())
}

func TestHTTPClaimClient_PaidMapsToSettled(t *testing.T) {
	c := newClaimClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeEnvelope(w, http.StatusOK, map[string]any{"id": 7, "status": "PAID", "amount": "1"}, "", "")
	})

	snap, err := c.FetchClaim(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, claim.StatusSettled, snap.Status)
}

func TestHTTPClaimClient_Errors(t *testing.T) {
	t.Run("404 is claim not found", func(t *testing.T) {
		var calls atomic.Int32
		c := newClaimClient(t, func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			writeEnvelope(w, http.StatusNotFound, nil, "ERR_CLAIM_NOT_FOUND", "Claim not found with id: 9")
		})
		_, err := c.FetchClaim(context.Background(), 9)
		assert.ErrorIs(t, err, collaborator.ErrClaimNotFound)
		assert.Equal(t, int32(1), calls.Load(), "4xx must not be retried")
	})

	t.Run("5xx retried then unavailable", func(t *testing.T) {
		var calls atomic.Int32
		c := newClaimClient(t, func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			writeEnvelope(w, http.StatusInternalServerError, nil, "ERR_INTERNAL_ERROR", "boom")
		})
		_, err := c.FetchClaim(context.Background(), 9)
		assert.ErrorIs(t, err, collaborator.ErrClaimServiceUnavailable)
		assert.Equal(t, shared.CategoryServiceCommunication, shared.CategoryOf(err))
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("transient 503 recovers", func(t *testing.T) {
		var calls atomic.Int32
		c := newClaimClient(t, func(w http.ResponseWriter, _ *http.Request) {
			if calls.Add(1) == 1 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			writeEnvelope(w, http.StatusOK, map[string]any{"id": 9, "status": "UNDER_REVIEW", "amount": "10"}, "", "")
		})
		snap, err := c.FetchClaim(context.Background(), 9)
		require.NoError(t, err)
		assert.Equal(t, claim.StatusUnderReview, snap.Status)
	})

	t.Run("unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()
		c := NewHTTPClaimClient(url, NewHTTPClient(time.Second), fastRetry, nil)
		_, err := c.FetchClaim(context.Background(), 1)
		assert.ErrorIs(t, err, collaborator.ErrClaimServiceUnavailable)
	})

	t.Run("unknown status", func(t *testing.T) {
		c := newClaimClient(t, func(w http.ResponseWriter, _ *http.Request) {
			writeEnvelope(w, http.StatusOK, map[string]any{"id": 9, "status": "LOST"}, "", "")
		})
		_, err := c.FetchClaim(context.Background(), 9)
		assert.Equal(t, shared.CategoryServiceCommunication, shared.CategoryOf(err))
	})
}

func TestHTTPClaimClient_UpdateClaimStatus(t *testing.T) {
	t.Run("sends new status", func(t *testing.T) {
		c := newClaimClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPut, r.Method)
			assert.Equal(t, "/api/v1/claims/7/status", r.URL.Path)
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "SETTLED", body["new_status"])
			writeEnvelope(w, http.StatusOK, map[string]any{"id": 7, "status": "SETTLED"}, "", "")
		})
		require.NoError(t, c.UpdateClaimStatus(context.Background(), 7, claim.StatusSettled))
	})

	t.Run("remote invalid transition keeps its code", func(t *testing.T) {
		c := newClaimClient(t, func(w http.ResponseWriter, _ *http.Request) {
			writeEnvelope(w, http.StatusUnprocessableEntity, nil, "ERR_INVALID_TRANSITION", "Cannot transition claim 7 from SUBMITTED to SETTLED")
		})
		err := c.UpdateClaimStatus(context.Background(), 7, claim.StatusSettled)
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, shared.CodeInvalidTransition, de.Code)
		assert.Contains(t, de.Message, "SUBMITTED")
	})

	t.Run("unrecognised remote code", func(t *testing.T) {
		c := newClaimClient(t, func(w http.ResponseWriter, _ *http.Request) {
			writeEnvelope(w, http.StatusTeapot, nil, "ERR_TEAPOT", "short and stout")
		})
		err := c.UpdateClaimStatus(context.Background(), 7, claim.StatusSettled)
		assert.ErrorIs(t, err, shared.ErrServiceCommunication)
	})

	t.Run("success false on 200 is not a confirmation", func(t *testing.T) {
		var calls atomic.Int32
		c := newClaimClient(t, func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"success":false,"error":{"code":"ERR_INVALID_TRANSITION","message":"Claim 7 is REJECTED"}}`))
		})
		err := c.UpdateClaimStatus(context.Background(), 7, claim.StatusSettled)
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, shared.CodeInvalidTransition, de.Code)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("success false without error body", func(t *testing.T) {
		c := newClaimClient(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"success":false}`))
		})
		err := c.UpdateClaimStatus(context.Background(), 7, claim.StatusSettled)
		assert.ErrorIs(t, err, shared.ErrServiceCommunication)
	})
}
