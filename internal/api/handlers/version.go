package handlers

import (
	"net/http"

	"github.com/kirotools/switchboard/internal/version"
)

// VersionHandler reports build information.
func VersionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"version":   version.Version,
			"commit":    version.Commit,
			"buildTime": version.BuildTime,
		})
	}
}
