package auth

import "strings"

// IsPermanentRefreshError reports whether a refresh failure indicates a
// revoked or invalid grant that re-login must fix, as opposed to a transient
// upstream problem worth retrying on the next pass.
func IsPermanentRefreshError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	permanentMarkers := []string{
		"invalid_grant",
		"invalid_client",
		"unauthorized_client",
		"token has been expired or revoked",
		"revoked",
	}
	for _, marker := range permanentMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
