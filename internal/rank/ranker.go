// Package rank recommends the best alternative accounts by remaining quota.
package rank

import (
	"sort"

	"github.com/kirotools/switchboard/internal/db/models"
	"github.com/kirotools/switchboard/internal/usage"
)

// DefaultLimit is the number of recommendations returned by default.
const DefaultLimit = 4

// RankedAccount is an account annotated with its derived quota accounting.
type RankedAccount struct {
	Account   models.Account `json:"account"`
	Quota     int            `json:"quota"`
	Used      int            `json:"used"`
	Remaining int            `json:"remaining"`
}

// BestAccounts returns up to limit accounts ordered by remaining quota
// descending. The active account, banned accounts, and accounts with no
// usable quota are excluded. Ties keep the accounts' original relative order
// (stable sort), and an empty result is returned when nothing qualifies.
func BestAccounts(accounts []models.Account, activeID string, limit int) []RankedAccount {
	if limit <= 0 {
		limit = DefaultLimit
	}

	ranked := make([]RankedAccount, 0, len(accounts))
	for _, acc := range accounts {
		if acc.ID == activeID || acc.Banned() {
			continue
		}
		snap := usage.Parse(acc.UsageData)
		quota, used := snap.Quota(), snap.Used()
		remaining := quota - used
		if quota <= 0 || remaining <= 0 {
			continue
		}
		ranked = append(ranked, RankedAccount{
			Account:   acc,
			Quota:     quota,
			Used:      used,
			Remaining: remaining,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Remaining > ranked[j].Remaining
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
