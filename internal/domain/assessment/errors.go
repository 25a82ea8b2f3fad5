package assessment

import (
	"fmt"

	"github.com/claimswift/backend/internal/domain/shared"
)

var (
	ErrAssessmentNotFound      = shared.NewDomainError(shared.CodeAssessmentNotFound, "Assessment not found")
	ErrAssessmentAlreadyExists = shared.NewDomainError(shared.CodeAssessmentAlreadyExists, "Assessment already exists for claim")
)

// NotFoundForClaim returns an ASSESSMENT_NOT_FOUND error naming the claim.
func NotFoundForClaim(claimID int64) error {
	return shared.NewDomainError(shared.CodeAssessmentNotFound,
		fmt.Sprintf("Assessment not found for claim: %d", claimID))
}
