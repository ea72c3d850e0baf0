// Package refresh keeps account access tokens fresh: a pure expiry evaluator,
// a coordinator that refreshes all due accounts concurrently, and a restartable
// scheduler that drives periodic passes.
package refresh

import (
	"time"

	"github.com/kirotools/switchboard/internal/db/models"
	"github.com/kirotools/switchboard/internal/util"
)

// DefaultLookahead is how far before expiry a token is refreshed proactively.
const DefaultLookahead = 5 * time.Minute

// NeedsRefresh reports whether an account's token is due for refresh.
// Banned accounts never refresh. Accounts with no tracked expiry (empty or
// malformed timestamp) never refresh; they are exempt until the upstream
// reports an expiry again. The comparison is strict: a token expiring exactly
// at now+lookahead is not yet due.
func NeedsRefresh(acc *models.Account, now time.Time, lookahead time.Duration) bool {
	if acc.Banned() {
		return false
	}
	expiresAt, ok := util.ParseTimestamp(acc.ExpiresAt)
	if !ok {
		return false
	}
	return expiresAt.Sub(now) < lookahead
}
