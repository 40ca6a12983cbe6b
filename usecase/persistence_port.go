package usecase

import (
	"context"
	"time"
)

// SyncStatus describes the write-back state of the persistence bridge.
type SyncStatus struct {
	Backend   string     `json:"backend"`
	Pending   bool       `json:"pending"`
	LastSync  *time.Time `json:"last_sync,omitempty"`
	LastError string     `json:"last_error,omitempty"`
	Deferred  int        `json:"deferred"`
}

// Syncer abstracts the persistence bridge so transports stay storage-agnostic.
type Syncer interface {
	Flush(ctx context.Context) error
	Status() SyncStatus
}
