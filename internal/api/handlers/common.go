package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kirotools/switchboard/internal/auth/kiro"
	"github.com/kirotools/switchboard/internal/db/models"
	"github.com/kirotools/switchboard/internal/usage"
	"github.com/kirotools/switchboard/internal/util"
)

// AccountView is the API shape of an account: secrets masked, quota figures
// derived from the stored usage snapshot.
type AccountView struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Provider     string `json:"provider"`
	Status       string `json:"status"`
	ExpiresAt    string `json:"expiresAt,omitempty"`
	AccessToken  string `json:"accessToken,omitempty"` // masked
	HasTokens    bool   `json:"hasTokens"`
	Quota        int    `json:"quota"`
	Used         int    `json:"used"`
	Remaining    int    `json:"remaining"`
	LastUsedAt   string `json:"lastUsedAt,omitempty"`
	ClientIDHash string `json:"clientIdHash,omitempty"`
	Region       string `json:"region,omitempty"`
}

func viewOf(acc models.Account) AccountView {
	snap := usage.Parse(acc.UsageData)
	view := AccountView{
		ID:           acc.ID,
		Email:        acc.Email,
		Provider:     acc.Provider,
		Status:       acc.Status,
		ExpiresAt:    acc.ExpiresAt,
		HasTokens:    acc.HasCredentials(),
		Quota:        snap.Quota(),
		Used:         snap.Used(),
		Remaining:    snap.Remaining(),
		ClientIDHash: acc.ClientIDHash,
		Region:       acc.Region,
	}
	if acc.AccessToken != "" {
		view.AccessToken = util.MaskToken(acc.AccessToken)
	}
	if !acc.LastUsedAt.IsZero() {
		view.LastUsedAt = acc.LastUsedAt.Format("2006-01-02 15:04:05")
	}
	return view
}

func pathID(r *http.Request) string {
	return chi.URLParam(r, "id")
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// matchActiveAccount finds the stored account matching the active local
// token: by refresh token first, then access token, then provider.
func matchActiveAccount(accounts []models.Account, local *kiro.LocalToken) *models.Account {
	if local == nil {
		return nil
	}
	for i := range accounts {
		if local.RefreshToken != "" && accounts[i].RefreshToken == local.RefreshToken {
			return &accounts[i]
		}
	}
	for i := range accounts {
		if local.AccessToken != "" && accounts[i].AccessToken == local.AccessToken {
			return &accounts[i]
		}
	}
	for i := range accounts {
		if local.Provider != "" && accounts[i].Provider == local.Provider {
			return &accounts[i]
		}
	}
	return nil
}
