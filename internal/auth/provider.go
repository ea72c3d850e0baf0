// Package auth defines the provider contract consumed by the refresh and
// switch orchestration layers. Concrete implementations live in subpackages
// (internal/auth/kiro).
package auth

import (
	"context"

	"github.com/kirotools/switchboard/internal/db/models"
)

// Method is the authentication method an account activates with.
type Method int

const (
	// MethodSocial covers OAuth identity providers (Google, Github).
	MethodSocial Method = iota
	// MethodIdC covers AWS Identity Center style accounts (BuilderId, Enterprise).
	MethodIdC
)

func (m Method) String() string {
	if m == MethodIdC {
		return "IdC"
	}
	return "social"
}

// MethodFor determines the auth method for an account: IdC for BuilderId and
// Enterprise providers or whenever device-registration material is present,
// social otherwise.
func MethodFor(acc *models.Account) Method {
	if acc.Provider == models.ProviderBuilderID || acc.Provider == models.ProviderEnterprise || acc.ClientIDHash != "" {
		return MethodIdC
	}
	return MethodSocial
}

// TokenSet is the result of a successful token refresh. ExpiresAt is in the
// upstream string form (see util.FormatTimestamp).
type TokenSet struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    string
}

// ActivationRequest carries everything needed to make an account the active
// local identity. Provider-specific fields are populated exhaustively by
// Method: IdC requests carry device registration, social requests a profile ARN.
type ActivationRequest struct {
	AccessToken    string
	RefreshToken   string
	Provider       string
	Method         Method
	ResetMachineID bool

	// IdC
	ClientIDHash string
	Region       string
	ClientID     string
	ClientSecret string

	// social
	ProfileArn string
}

// Provider performs the external credential operations this service
// orchestrates but does not own.
type Provider interface {
	// RefreshToken exchanges the account's refresh token for fresh credentials.
	RefreshToken(ctx context.Context, acc *models.Account) (TokenSet, error)

	// FetchUsage retrieves the current usage snapshot as raw JSON.
	FetchUsage(ctx context.Context, acc *models.Account) (string, error)

	// ActivateAccount makes the requested credentials the active local identity.
	ActivateAccount(ctx context.Context, req ActivationRequest) error

	// GenerateMachineID produces a new machine identifier.
	GenerateMachineID() string

	// SetActiveMachineID applies a machine identifier as the active identity.
	SetActiveMachineID(ctx context.Context, machineID string) error
}
