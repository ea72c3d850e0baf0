package models

import "time"

// Setting stores application configuration like API keys and app settings
type Setting struct {
	Key       string `gorm:"primaryKey"` // Setting key name
	Value     string // Setting value (plain string or JSON blob)
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AppSettings controls the auto-refresh scheduler and the machine-identity
// policy applied on account switch.
type AppSettings struct {
	AutoRefresh            bool `json:"autoRefresh"`
	AutoRefreshInterval    int  `json:"autoRefreshInterval"` // minutes
	AutoChangeMachineID    bool `json:"autoChangeMachineId"`
	BindMachineIDToAccount bool `json:"bindMachineIdToAccount"`
	UseBoundMachineID      bool `json:"useBoundMachineId"`
}

// DefaultAppSettings returns the safe defaults used when settings are missing
// or unreadable. Auto-refresh stays off until explicitly enabled.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		AutoRefresh:            false,
		AutoRefreshInterval:    50,
		AutoChangeMachineID:    false,
		BindMachineIDToAccount: false,
		UseBoundMachineID:      true,
	}
}
