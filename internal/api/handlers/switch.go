package handlers

import (
	"errors"
	"net/http"

	"github.com/kirotools/switchboard/internal/store"
	"github.com/kirotools/switchboard/internal/switcher"
)

// SwitchHandler activates an account as the local Kiro identity.
func SwitchHandler(s *store.Store, orch *switcher.Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID := pathID(r)

		err := orch.Switch(r.Context(), accountID)
		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, map[string]string{
				"status":    "ok",
				"accountId": accountID,
			})
		case errors.Is(err, switcher.ErrMissingCredentials):
			writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, switcher.ErrSwitchInFlight):
			writeError(w, http.StatusTooManyRequests, err.Error())
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		default:
			// Activation failures surface verbatim.
			writeError(w, http.StatusBadGateway, err.Error())
		}
	}
}
