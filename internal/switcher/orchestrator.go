// Package switcher performs safe active-account switches: credential
// validation, optional machine-identity binding, and activation.
package switcher

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/kirotools/switchboard/internal/auth"
	"github.com/kirotools/switchboard/internal/db/models"
)

// Switch failure modes surfaced to callers. Machine-identity trouble is not
// among them: it is logged and the switch proceeds with whatever identity is
// currently active.
var (
	ErrMissingCredentials = errors.New("account is missing access or refresh token")
	ErrSwitchInFlight     = errors.New("another account switch is in progress")
)

// Defaults applied when an account carries no provider-specific values.
const (
	DefaultRegion     = "us-east-1"
	DefaultProvider   = models.ProviderGoogle
	DefaultProfileArn = "arn:aws:codewhisperer:us-east-1:699475941385:profile/EHGA3GRVQMUK"
)

// Store is the persistence surface the orchestrator needs.
type Store interface {
	GetAccount(ctx context.Context, id string) (*models.Account, error)
	GetSettings(ctx context.Context) models.AppSettings
	GetMachineBinding(ctx context.Context, accountID string) (string, error)
	EnsureMachineBinding(ctx context.Context, accountID, machineID string) (string, error)
	TouchLastUsed(ctx context.Context, id string) error
}

// Orchestrator switches the active account. Machine-identity mutation is a
// shared side effect, so at most one switch runs at a time system-wide.
type Orchestrator struct {
	store    Store
	provider auth.Provider
	mu       sync.Mutex
}

// New creates an Orchestrator.
func New(store Store, provider auth.Provider) *Orchestrator {
	return &Orchestrator{store: store, provider: provider}
}

// Switch activates the given account. A second call while one switch is in
// flight is rejected with ErrSwitchInFlight. Activation failures are returned
// verbatim and leave the stored account set unchanged.
func (o *Orchestrator) Switch(ctx context.Context, accountID string) error {
	if !o.mu.TryLock() {
		return ErrSwitchInFlight
	}
	defer o.mu.Unlock()

	acc, err := o.store.GetAccount(ctx, accountID)
	if err != nil {
		return err
	}

	if !acc.HasCredentials() {
		return ErrMissingCredentials
	}
	method := auth.MethodFor(acc)
	settings := o.store.GetSettings(ctx)

	// Machine identity resolution is best effort and never aborts the switch.
	if settings.AutoChangeMachineID && settings.BindMachineIDToAccount {
		o.resolveMachineID(ctx, acc, settings)
	}

	// Only force a fresh machine identity when binding-based reuse is not
	// in effect.
	resetMachineID := settings.AutoChangeMachineID && !(settings.BindMachineIDToAccount && settings.UseBoundMachineID)
	req := buildActivationRequest(acc, method, resetMachineID)
	if err := o.provider.ActivateAccount(ctx, req); err != nil {
		return err
	}

	if err := o.store.TouchLastUsed(ctx, acc.ID); err != nil {
		log.Printf("⚠️ Failed to record switch time for %s: %v", acc.Email, err)
	}
	log.Printf("✅ Switched active account to %s (%s, %s)", acc.Email, acc.Provider, method)
	return nil
}

// resolveMachineID looks up the account's bound machine identifier, creating
// the binding on first switch. An existing binding is never overwritten.
func (o *Orchestrator) resolveMachineID(ctx context.Context, acc *models.Account, settings models.AppSettings) {
	bound, err := o.store.GetMachineBinding(ctx, acc.ID)
	if err != nil {
		log.Printf("⚠️ Machine binding lookup failed for %s: %v", acc.Email, err)
		return
	}
	if bound == "" {
		generated := o.provider.GenerateMachineID()
		bound, err = o.store.EnsureMachineBinding(ctx, acc.ID, generated)
		if err != nil {
			log.Printf("⚠️ Machine binding create failed for %s: %v", acc.Email, err)
			return
		}
		log.Printf("🔗 Bound new machine identity to %s", acc.Email)
	}
	if settings.UseBoundMachineID {
		if err := o.provider.SetActiveMachineID(ctx, bound); err != nil {
			log.Printf("⚠️ Failed to apply bound machine identity for %s: %v", acc.Email, err)
		}
	}
}

// buildActivationRequest assembles the provider-specific activation payload.
// The method switch is exhaustive: IdC carries device registration, social
// carries a profile ARN with the documented fallback.
func buildActivationRequest(acc *models.Account, method auth.Method, resetMachineID bool) auth.ActivationRequest {
	req := auth.ActivationRequest{
		AccessToken:    acc.AccessToken,
		RefreshToken:   acc.RefreshToken,
		Provider:       acc.Provider,
		Method:         method,
		ResetMachineID: resetMachineID,
	}
	if req.Provider == "" {
		req.Provider = DefaultProvider
	}

	switch method {
	case auth.MethodIdC:
		req.ClientIDHash = acc.ClientIDHash
		req.Region = acc.Region
		if req.Region == "" {
			req.Region = DefaultRegion
		}
		req.ClientID = acc.ClientID
		req.ClientSecret = acc.ClientSecret
	case auth.MethodSocial:
		req.ProfileArn = acc.ProfileArn
		if req.ProfileArn == "" {
			req.ProfileArn = DefaultProfileArn
		}
	}
	return req
}
