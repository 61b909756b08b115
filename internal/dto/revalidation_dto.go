package dto

import "time"

// RevalidationEvent tells presentation-layer caches that a scope is stale.
type RevalidationEvent struct {
	Scope     string    `json:"scope"`
	EmittedAt time.Time `json:"emitted_at"`
}
