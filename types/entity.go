// Package types provides the value types shared across Pension.
package types

import "time"

// Entity carries record timestamps. Embed it in persisted domain types.
type Entity struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewEntity creates an Entity stamped with the current UTC time.
func NewEntity() Entity {
	return NewEntityAt(time.Now())
}

// NewEntityAt creates an Entity stamped with t, normalized to UTC.
func NewEntityAt(t time.Time) Entity {
	t = t.UTC()
	return Entity{
		CreatedAt: t,
		UpdatedAt: t,
	}
}

// Touch updates UpdatedAt to t. A zero CreatedAt is filled in as well, which
// happens the first time a default record is persisted.
func (e *Entity) Touch(t time.Time) {
	t = t.UTC()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = t
	}
	e.UpdatedAt = t
}

// IsPersisted reports whether the entity has ever been written.
func (e Entity) IsPersisted() bool {
	return !e.CreatedAt.IsZero()
}
