package client

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/claimswift/backend/internal/domain/claim"
	"github.com/claimswift/backend/internal/domain/collaborator"
	"github.com/claimswift/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// claimPayload is the claim service's JSON view of a claim.
type claimPayload struct {
	ID             int64           `json:"id"`
	ClaimNumber    string          `json:"claim_number"`
	PolicyholderID int64           `json:"policyholder_id"`
	ClaimType      string          `json:"claim_type"`
	Amount         decimal.Decimal `json:"amount"`
	Status         string          `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// HTTPClaimClient implements collaborator.ClaimService against a remote
// claim service.
type HTTPClaimClient struct {
	baseURL string
	caller  jsonCaller
	logger  *zap.Logger
}

// NewHTTPClaimClient creates a client for the claim service at baseURL.
func NewHTTPClaimClient(baseURL string, httpClient *http.Client, retry RetryPolicy, logger *zap.Logger) *HTTPClaimClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPClaimClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		caller:  jsonCaller{http: httpClient, retry: retry},
		logger:  logger,
	}
}

// FetchClaim implements collaborator.ClaimService.
func (c *HTTPClaimClient) FetchClaim(ctx context.Context, claimID int64) (*collaborator.ClaimSnapshot, error) {
	var p claimPayload
	url := fmt.Sprintf("%s/api/v1/claims/%d", c.baseURL, claimID)
	if err := c.caller.call(ctx, http.MethodGet, url, nil, &p); err != nil {
		return nil, c.translate(err, claimID, "fetch")
	}

	status, err := claim.ParseStatus(p.Status)
	if err != nil {
		return nil, shared.WrapDomainError(shared.CodeServiceCommunication,
			fmt.Sprintf("Claim service returned unknown status %q", p.Status), err)
	}
	return &collaborator.ClaimSnapshot{
		ID:              p.ID,
		ClaimNumber:     p.ClaimNumber,
		PolicyholderID:  p.PolicyholderID,
		ClaimType:       p.ClaimType,
		Status:          status,
		EstimatedAmount: p.Amount,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}, nil
}

// UpdateClaimStatus implements collaborator.ClaimService. The remote
// endpoint treats a repeat of the current status as success.
func (c *HTTPClaimClient) UpdateClaimStatus(ctx context.Context, claimID int64, status claim.Status) error {
	url := fmt.Sprintf("%s/api/v1/claims/%d/status", c.baseURL, claimID)
	body := map[string]string{"new_status": string(status)}
	if err := c.caller.call(ctx, http.MethodPut, url, body, nil); err != nil {
		return c.translate(err, claimID, "update")
	}
	return nil
}

func (c *HTTPClaimClient) translate(err error, claimID int64, op string) error {
	if re, ok := asRemote(err); ok {
		if re.status == http.StatusNotFound {
			return claim.NotFound(claimID)
		}
		return re.domainError()
	}
	c.logger.Warn("claim service call failed",
		zap.String("op", op),
		zap.Int64("claim_id", claimID),
		zap.Error(err),
	)
	return shared.WrapDomainError(shared.CodeServiceCommunication, collaborator.ErrClaimServiceUnavailable.Message, err)
}

var _ collaborator.ClaimService = (*HTTPClaimClient)(nil)
