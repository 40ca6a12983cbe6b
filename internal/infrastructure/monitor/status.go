package monitor

import "time"

type Status struct {
	Remote        bool      `json:"remote"`
	RemoteBackend string    `json:"remote_backend"`
	LocalCache    bool      `json:"local_cache"`
	PendingSync   int       `json:"pending_sync"`
	LastCheck     time.Time `json:"last_check"`
}
