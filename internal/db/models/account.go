package models

import "time"

// Provider names as reported by the Kiro login flow.
const (
	ProviderGoogle     = "Google"
	ProviderGithub     = "Github"
	ProviderBuilderID  = "BuilderId"
	ProviderEnterprise = "Enterprise"
)

// Account status values. Banned accounts are excluded from refresh and
// recommendation.
const (
	StatusActive = "active"
	StatusBanned = "banned"
)

// Account stores OAuth/IdC credentials for one Kiro identity.
//
// Tokens may be empty: an imported account that was never authenticated or
// whose grant was revoked is still a valid row, it just cannot be switched to.
// ExpiresAt keeps the upstream string form ("2026/01/02 15:04:05", slash date
// separators); parsing and normalization live in internal/util.
type Account struct {
	ID           string `gorm:"primaryKey"` // UUID
	Email        string `gorm:"uniqueIndex:idx_email_provider"`
	Provider     string `gorm:"uniqueIndex:idx_email_provider"` // e.g. "Google", "BuilderId"
	AccessToken  string
	RefreshToken string
	ExpiresAt    string // upstream timestamp string, empty = no expiry tracked
	Status       string `gorm:"default:active"`
	UsageData    string // JSON usage snapshot, refreshed independently of tokens

	// Device-registration material, present for IdC-style providers only.
	ClientIDHash string
	Region       string
	ClientID     string
	ClientSecret string
	ProfileArn   string

	LastUsedAt time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Banned reports whether the account is excluded from refresh and ranking.
func (a *Account) Banned() bool {
	return a.Status == StatusBanned
}

// HasCredentials reports whether the account can be switched to at all.
func (a *Account) HasCredentials() bool {
	return a.AccessToken != "" && a.RefreshToken != ""
}
