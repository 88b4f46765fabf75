// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Structure:
// - base.go: Base persistence models (BaseModel, AggregateModel, CompanyAggregateModel)
// - organization.go: companies, branches and memberships
// - ledger.go: read-only customers, contracts and invoices used for company aggregates
// - kv_entry.go: rows of the namespaced key/value store
package models
