package kiro

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/kirotools/switchboard/internal/auth"
	"github.com/kirotools/switchboard/internal/util"
)

// LocalToken is the on-disk shape of the active Kiro identity, as written to
// the SSO token cache.
type LocalToken struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresAt    string `json:"expiresAt,omitempty"`
	Provider     string `json:"provider,omitempty"`
	AuthMethod   string `json:"authMethod,omitempty"`
	Region       string `json:"region,omitempty"`
	ClientIDHash string `json:"clientIdHash,omitempty"`
	ClientID     string `json:"clientId,omitempty"`
	ClientSecret string `json:"clientSecret,omitempty"`
	ProfileArn   string `json:"profileArn,omitempty"`
}

// ActivateAccount makes the requested credentials the active local identity
// by rewriting the Kiro token cache. When ResetMachineID is set, a fresh
// unbound machine identifier is applied first.
func (p *Provider) ActivateAccount(ctx context.Context, req auth.ActivationRequest) error {
	if req.ResetMachineID {
		fresh := p.GenerateMachineID()
		if err := p.SetActiveMachineID(ctx, fresh); err != nil {
			return fmt.Errorf("reset machine identity: %w", err)
		}
		log.Printf("🔁 Reset machine identity to %s", util.MaskToken(fresh))
	}

	token := LocalToken{
		AccessToken:  req.AccessToken,
		RefreshToken: req.RefreshToken,
		Provider:     req.Provider,
		AuthMethod:   req.Method.String(),
	}
	switch req.Method {
	case auth.MethodIdC:
		token.ClientIDHash = req.ClientIDHash
		token.Region = req.Region
		token.ClientID = req.ClientID
		token.ClientSecret = req.ClientSecret
	case auth.MethodSocial:
		token.ProfileArn = req.ProfileArn
	}

	return writeFileAtomic(p.cfg.TokenCachePath, token)
}

// ReadLocalToken returns the currently active local identity, or nil when no
// token cache exists.
func (p *Provider) ReadLocalToken() (*LocalToken, error) {
	data, err := os.ReadFile(p.cfg.TokenCachePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var token LocalToken
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("unreadable token cache %s: %w", p.cfg.TokenCachePath, err)
	}
	return &token, nil
}

// SetActiveMachineID persists a machine identifier as the active identity.
func (p *Provider) SetActiveMachineID(ctx context.Context, machineID string) error {
	machineID = strings.TrimSpace(machineID)
	if machineID == "" {
		return fmt.Errorf("empty machine identifier")
	}
	if err := os.MkdirAll(filepath.Dir(p.cfg.MachineIDPath), 0o700); err != nil {
		return err
	}
	return os.WriteFile(p.cfg.MachineIDPath, []byte(machineID), 0o600)
}

// ActiveMachineID reads the active machine identifier, empty when unset.
func (p *Provider) ActiveMachineID() (string, error) {
	data, err := os.ReadFile(p.cfg.MachineIDPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// writeFileAtomic writes JSON via a temp file and rename so a crash cannot
// leave a half-written token cache behind.
func writeFileAtomic(path string, v interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
