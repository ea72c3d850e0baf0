package models

import "time"

// MachineBinding pins a stable machine identifier to an account so repeated
// switches to the same account present the same device to the upstream.
// Each account has at most one binding; bindings are created lazily on first
// switch and never rewritten by the orchestration core.
type MachineBinding struct {
	AccountID string `gorm:"primaryKey"`
	MachineID string
	CreatedAt time.Time
}
