package handlers

import (
	"log"
	"net/http"

	"github.com/kirotools/switchboard/internal/auth"
	"github.com/kirotools/switchboard/internal/refresh"
	"github.com/kirotools/switchboard/internal/store"
)

// RefreshNowHandler triggers one ungated refresh pass over all due accounts.
func RefreshNowHandler(sched *refresh.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		outcomes, err := sched.RefreshNow(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"outcomes": outcomes,
			"count":    len(outcomes),
		})
	}
}

// RefreshAccountHandler forces a token refresh for one account regardless of
// its expiry.
func RefreshAccountHandler(s *store.Store, provider auth.Provider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		acc, err := s.GetAccount(r.Context(), pathID(r))
		if err != nil {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}

		ts, err := provider.RefreshToken(r.Context(), acc)
		if err != nil {
			log.Printf("❌ Manual refresh failed for %s: %v", acc.Email, err)
			writeJSON(w, http.StatusBadGateway, map[string]interface{}{
				"error":        err.Error(),
				"needsRelogin": auth.IsPermanentRefreshError(err),
			})
			return
		}
		if err := s.UpdateTokens(r.Context(), acc.ID, ts); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":    "ok",
			"email":     acc.Email,
			"expiresAt": ts.ExpiresAt,
		})
	}
}

// UsageHandler fetches a fresh usage snapshot for one account and stores it.
func UsageHandler(s *store.Store, provider auth.Provider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		acc, err := s.GetAccount(r.Context(), pathID(r))
		if err != nil {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}

		raw, err := provider.FetchUsage(r.Context(), acc)
		if err != nil {
			log.Printf("❌ Usage fetch failed for %s: %v", acc.Email, err)
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}
		if err := s.UpdateUsage(r.Context(), acc.ID, raw); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		acc.UsageData = raw
		writeJSON(w, http.StatusOK, viewOf(*acc))
	}
}
