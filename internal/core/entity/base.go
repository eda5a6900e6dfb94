// Package entity provides core domain entities shared across components.
package entity

import (
	"time"

	"tillbook/internal/core/id"
)

// BaseEntity contains fields common to all persisted entities.
type BaseEntity struct {
	// ID is the entity identifier (UUIDv7)
	ID id.ID `db:"id" json:"id"`

	// TenantID scopes every row to one tenant; all queries filter on it
	TenantID id.ID `db:"tenant_id" json:"tenantId"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`

	// DeletedAt implements soft deletion; nil means the row is live
	DeletedAt *time.Time `db:"deleted_at" json:"deletedAt,omitempty"`
}

// NewBaseEntity creates a BaseEntity with generated ID and timestamps.
func NewBaseEntity(tenantID id.ID) BaseEntity {
	now := time.Now().UTC()
	return BaseEntity{
		ID:        id.New(),
		TenantID:  tenantID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Touch updates the UpdatedAt timestamp.
func (e *BaseEntity) Touch() {
	e.UpdatedAt = time.Now().UTC()
}

// IsDeleted reports whether the entity is soft-deleted.
func (e *BaseEntity) IsDeleted() bool {
	return e.DeletedAt != nil
}

// MarkDeleted sets the soft-delete timestamp.
func (e *BaseEntity) MarkDeleted() {
	now := time.Now().UTC()
	e.DeletedAt = &now
	e.UpdatedAt = now
}
