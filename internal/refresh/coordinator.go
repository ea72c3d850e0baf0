package refresh

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/kirotools/switchboard/internal/auth"
	"github.com/kirotools/switchboard/internal/db/models"
)

// DefaultCallTimeout bounds a single upstream refresh call so one hung
// account cannot stall an entire pass.
const DefaultCallTimeout = 30 * time.Second

// Store is the persistence surface the coordinator needs.
type Store interface {
	ListAccounts(ctx context.Context) ([]models.Account, error)
	UpdateTokens(ctx context.Context, id string, ts auth.TokenSet) error
	GetSettings(ctx context.Context) models.AppSettings
}

// Refresher is the provider surface the coordinator needs.
type Refresher interface {
	RefreshToken(ctx context.Context, acc *models.Account) (auth.TokenSet, error)
}

// Outcome records the result of one account's refresh attempt. Failures are
// contained here; they never abort the pass.
type Outcome struct {
	AccountID string `json:"accountId"`
	Email     string `json:"email"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
}

// Coordinator refreshes every due account in one concurrent pass.
type Coordinator struct {
	store       Store
	provider    Refresher
	callTimeout time.Duration
}

// NewCoordinator creates a Coordinator with the default per-call timeout.
func NewCoordinator(store Store, provider Refresher) *Coordinator {
	return &Coordinator{store: store, provider: provider, callTimeout: DefaultCallTimeout}
}

// RefreshDue refreshes every account whose token expires within lookahead of
// now. One goroutine per due account; every attempt settles before the pass
// returns and one failure never prevents the others. Returns one outcome per
// due account, or an empty slice when nothing is due.
func (c *Coordinator) RefreshDue(ctx context.Context, now time.Time, lookahead time.Duration) ([]Outcome, error) {
	accounts, err := c.store.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}

	var due []models.Account
	for _, acc := range accounts {
		if NeedsRefresh(&acc, now, lookahead) {
			due = append(due, acc)
		}
	}

	if len(due) == 0 {
		log.Println("🔄 No tokens due for refresh")
		return []Outcome{}, nil
	}

	log.Printf("🔄 Refreshing %d expiring token(s)...", len(due))

	outcomes := make([]Outcome, len(due))
	var wg sync.WaitGroup
	for i := range due {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcomes[i] = c.refreshOne(ctx, &due[i])
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, o := range outcomes {
		if o.Success {
			succeeded++
		}
	}
	log.Printf("🔄 Refresh pass complete: %d/%d succeeded", succeeded, len(due))
	return outcomes, nil
}

// refreshOne attempts a single account refresh and converts any failure into
// the outcome. The store is only written on success.
func (c *Coordinator) refreshOne(ctx context.Context, acc *models.Account) Outcome {
	outcome := Outcome{AccountID: acc.ID, Email: acc.Email}

	callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	ts, err := c.provider.RefreshToken(callCtx, acc)
	if err != nil {
		log.Printf("❌ Refresh token failed for %s: %v", acc.Email, err)
		outcome.Error = err.Error()
		return outcome
	}

	if err := c.store.UpdateTokens(ctx, acc.ID, ts); err != nil {
		log.Printf("⚠️ Failed to save refreshed token for %s: %v", acc.Email, err)
		outcome.Error = err.Error()
		return outcome
	}

	log.Printf("✅ Refreshed token for: %s (expires: %s)", acc.Email, ts.ExpiresAt)
	outcome.Success = true
	return outcome
}
