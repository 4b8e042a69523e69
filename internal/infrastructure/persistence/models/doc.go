// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer free
// from ORM concerns.
//
// Layout:
//   - base.go: BaseModel, AggregateModel and the JSON column type
//   - identity.go: users
//   - venture.go: ventures, GEDSI metrics and the IRIS+ catalog
//   - document.go, notification.go, activity.go, workflow.go: one file per context
//
// Every model offers XModelFromDomain and ToDomain mappers. AllModels lists
// the tables for AutoMigrate on the sqlite driver.
package models
