package persistence

import (
	"errors"
	"strings"

	"github.com/claimswift/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	if strings.ToUpper(strings.TrimSpace(orderDir)) == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed != "" && allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// ClaimSortFields contains allowed sort fields for claims
var ClaimSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"amount":     true,
	"status":     true,
}

// PaymentSortFields contains allowed sort fields for payments
var PaymentSortFields = map[string]bool{
	"id":              true,
	"created_at":      true,
	"updated_at":      true,
	"approved_amount": true,
	"status":          true,
	"processed_at":    true,
}

// paginate applies the filter's whitelisted ordering, offset and limit. The
// id column breaks ties so pages are stable.
func paginate(query *gorm.DB, filter shared.Filter, allowed map[string]bool) *gorm.DB {
	field := ValidateSortField(filter.OrderBy, allowed, "created_at")
	dir := ValidateSortOrder(filter.OrderDir)
	query = query.Order(field + " " + dir)
	if field != "id" {
		query = query.Order("id " + dir)
	}
	return query.Offset(filter.Offset()).Limit(filter.Limit())
}

// isUniqueViolation reports whether err is a unique constraint failure. The
// dialect translation covers postgres and sqlite; the message fallback covers
// drivers opened without TranslateError.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}
