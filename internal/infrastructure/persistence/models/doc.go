// Package models contains GORM persistence models. Domain entities carry no
// ORM tags; each model converts to and from its entity with ToDomain and
// XModelFromDomain.
//
//   - base.go: BaseModel and AggregateModel (optimistic locking version)
//   - claim.go: claims, claim_status_history
//   - assessment.go: assessments, assessment_assignments, adjuster_workloads
//   - payment.go: payments, payment_transactions
//   - audit.go: audit_records
package models
