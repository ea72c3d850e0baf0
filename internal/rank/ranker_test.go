package rank

import (
	"fmt"
	"testing"

	"github.com/kirotools/switchboard/internal/db/models"
)

func usageJSON(quota, used int) string {
	return fmt.Sprintf(`{"usageBreakdownList":[{"currentUsage":%d,"usageLimit":%d}]}`, used, quota)
}

func account(id string, quota, used int, status string) models.Account {
	return models.Account{
		ID:        id,
		Email:     id + "@example.com",
		Provider:  models.ProviderGoogle,
		Status:    status,
		UsageData: usageJSON(quota, used),
	}
}

func TestBestAccountsExcludesActiveAndBanned(t *testing.T) {
	accounts := []models.Account{
		account("a", 1000, 200, models.StatusActive),
		account("b", 500, 100, models.StatusActive),
		account("c", 1000, 0, models.StatusBanned),
	}

	best := BestAccounts(accounts, "a", DefaultLimit)
	if len(best) != 1 {
		t.Fatalf("expected 1 recommendation, got %d", len(best))
	}
	if best[0].Account.ID != "b" {
		t.Fatalf("expected account b, got %s", best[0].Account.ID)
	}
	if best[0].Remaining != 400 {
		t.Fatalf("remaining = %d, want 400", best[0].Remaining)
	}
}

func TestBestAccountsOrdersByRemainingDescending(t *testing.T) {
	accounts := []models.Account{
		account("low", 100, 90, models.StatusActive),
		account("high", 1000, 100, models.StatusActive),
		account("mid", 500, 200, models.StatusActive),
	}

	best := BestAccounts(accounts, "", DefaultLimit)
	got := []string{}
	for _, r := range best {
		got = append(got, r.Account.ID)
	}
	want := []string{"high", "mid", "low"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestBestAccountsTiesKeepOriginalOrder(t *testing.T) {
	accounts := []models.Account{
		account("first", 500, 100, models.StatusActive),
		account("second", 400, 0, models.StatusActive), // same remaining: 400
		account("third", 500, 100, models.StatusActive),
	}

	best := BestAccounts(accounts, "", DefaultLimit)
	if len(best) != 3 {
		t.Fatalf("expected 3 recommendations, got %d", len(best))
	}
	got := []string{best[0].Account.ID, best[1].Account.ID, best[2].Account.ID}
	want := []string{"first", "second", "third"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("tie order = %v, want %v", got, want)
		}
	}
}

func TestBestAccountsExcludesExhaustedAndUnknownQuota(t *testing.T) {
	accounts := []models.Account{
		account("exhausted", 100, 100, models.StatusActive),
		account("overdrawn", 100, 150, models.StatusActive),
		{ID: "no-usage", Email: "no-usage@example.com", Status: models.StatusActive},
		account("ok", 100, 10, models.StatusActive),
	}

	best := BestAccounts(accounts, "", DefaultLimit)
	if len(best) != 1 || best[0].Account.ID != "ok" {
		t.Fatalf("expected only 'ok', got %+v", best)
	}
}

func TestBestAccountsTruncatesToLimit(t *testing.T) {
	var accounts []models.Account
	for i := 0; i < 10; i++ {
		accounts = append(accounts, account(fmt.Sprintf("acc%d", i), 1000, i, models.StatusActive))
	}

	best := BestAccounts(accounts, "", 4)
	if len(best) != 4 {
		t.Fatalf("expected 4 recommendations, got %d", len(best))
	}
}

func TestBestAccountsEmptyInput(t *testing.T) {
	if best := BestAccounts(nil, "x", DefaultLimit); len(best) != 0 {
		t.Fatalf("expected empty result, got %d", len(best))
	}
}
