package claim

import (
	"fmt"

	"github.com/claimswift/backend/internal/domain/shared"
)

// ErrClaimNotFound matches any claim lookup miss.
var ErrClaimNotFound = shared.NewDomainError(shared.CodeClaimNotFound, "Claim not found")

// NotFound returns a CLAIM_NOT_FOUND error naming id.
func NotFound(id int64) error {
	return shared.NewDomainError(shared.CodeClaimNotFound, fmt.Sprintf("Claim not found with id: %d", id))
}
