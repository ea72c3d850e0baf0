package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/kirotools/switchboard/internal/db/models"
	"github.com/kirotools/switchboard/internal/refresh"
	"github.com/kirotools/switchboard/internal/store"
)

// SettingsHandler returns the current app settings (defaults when unset).
func SettingsHandler(s *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.GetSettings(r.Context()))
	}
}

// UpdateSettingsHandler persists new app settings and restarts the scheduler
// so interval changes take effect immediately.
func UpdateSettingsHandler(s *store.Store, sched *refresh.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var settings models.AppSettings
		if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
			writeError(w, http.StatusBadRequest, "invalid settings payload: "+err.Error())
			return
		}
		if settings.AutoRefreshInterval <= 0 {
			settings.AutoRefreshInterval = models.DefaultAppSettings().AutoRefreshInterval
		}

		if err := s.SaveSettings(r.Context(), settings); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		log.Println("⚙️ Settings changed, restarting auto-refresh scheduler")
		sched.Restart()

		writeJSON(w, http.StatusOK, settings)
	}
}
