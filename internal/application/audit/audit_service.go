package audit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/claimswift/backend/internal/domain/audit"
	"github.com/claimswift/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// RecordResponse is one audit entry
type RecordResponse struct {
	ID          int64     `json:"id"`
	SubjectType string    `json:"subject_type"`
	SubjectID   int64     `json:"subject_id"`
	Action      string    `json:"action"`
	OldValue    string    `json:"old_value,omitempty"`
	NewValue    string    `json:"new_value,omitempty"`
	PerformedBy string    `json:"performed_by"`
	Description string    `json:"description,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// ToRecordResponse converts a domain Record
func ToRecordResponse(r *audit.Record) RecordResponse {
	return RecordResponse{
		ID:          r.ID,
		SubjectType: string(r.SubjectType),
		SubjectID:   r.SubjectID,
		Action:      r.Action,
		OldValue:    r.OldValue,
		NewValue:    r.NewValue,
		PerformedBy: r.PerformedBy,
		Description: r.Description,
		Timestamp:   r.Timestamp,
	}
}

// AuditService exposes the read side of the audit trail.
type AuditService struct {
	trail  audit.Trail
	logger *zap.Logger
}

// NewAuditService creates a new AuditService
func NewAuditService(trail audit.Trail, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{trail: trail, logger: logger}
}

// ListBySubject returns the entries of one subject, oldest first.
func (s *AuditService) ListBySubject(ctx context.Context, subjectType string, subjectID int64) ([]RecordResponse, error) {
	subject := audit.SubjectType(strings.ToUpper(strings.TrimSpace(subjectType)))
	if !subject.IsValid() {
		return nil, shared.NewDomainError(shared.CodeValidation,
			fmt.Sprintf("Unknown audit subject type: %s", subjectType))
	}
	if subjectID <= 0 {
		return nil, shared.NewDomainError(shared.CodeValidation, "Subject ID must be positive")
	}

	records, err := s.trail.FindBySubject(ctx, subject, subjectID)
	if err != nil {
		s.logger.Error("Failed to load audit trail",
			zap.String("subject_type", string(subject)),
			zap.Int64("subject_id", subjectID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to load audit trail: %w", err)
	}

	out := make([]RecordResponse, len(records))
	for i := range records {
		out[i] = ToRecordResponse(&records[i])
	}
	return out, nil
}
