package handlers

import (
	"net/http"
	"strconv"

	"github.com/kirotools/switchboard/internal/auth/kiro"
	"github.com/kirotools/switchboard/internal/rank"
	"github.com/kirotools/switchboard/internal/store"
)

// AccountsHandler returns the stored account pool with derived quota figures
func AccountsHandler(s *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accounts, err := s.ListAccounts(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		views := make([]AccountView, 0, len(accounts))
		for _, acc := range accounts {
			views = append(views, viewOf(acc))
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"accounts": views,
			"count":    len(views),
		})
	}
}

// BestAccountsHandler recommends the best alternative accounts by remaining
// quota, excluding the currently active account.
func BestAccountsHandler(s *store.Store, provider *kiro.Provider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accounts, err := s.ListAccounts(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		activeID := ""
		if local, err := provider.ReadLocalToken(); err == nil {
			if active := matchActiveAccount(accounts, local); active != nil {
				activeID = active.ID
			}
		}

		limit := rank.DefaultLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
				limit = parsed
			}
		}

		best := rank.BestAccounts(accounts, activeID, limit)
		recommendations := make([]AccountView, 0, len(best))
		for _, ranked := range best {
			recommendations = append(recommendations, viewOf(ranked.Account))
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"activeAccountId": activeID,
			"accounts":        recommendations,
		})
	}
}

// LocalTokenHandler reports the currently active local identity and the
// stored account it corresponds to, if any.
func LocalTokenHandler(s *store.Store, provider *kiro.Provider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		local, err := provider.ReadLocalToken()
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if local == nil {
			writeJSON(w, http.StatusOK, map[string]interface{}{"active": false})
			return
		}

		resp := map[string]interface{}{
			"active":     true,
			"provider":   local.Provider,
			"authMethod": local.AuthMethod,
		}
		if accounts, err := s.ListAccounts(r.Context()); err == nil {
			if active := matchActiveAccount(accounts, local); active != nil {
				view := viewOf(*active)
				resp["account"] = view
			}
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// MachineBindingHandler reports the machine identifier bound to an account.
func MachineBindingHandler(s *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID := pathID(r)
		machineID, err := s.GetMachineBinding(r.Context(), accountID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"accountId": accountID,
			"machineId": machineID,
			"bound":     machineID != "",
		})
	}
}
