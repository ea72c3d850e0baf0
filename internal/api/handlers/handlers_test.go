package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/go-chi/chi/v5"
	"github.com/kirotools/switchboard/internal/auth"
	"github.com/kirotools/switchboard/internal/auth/kiro"
	"github.com/kirotools/switchboard/internal/db/models"
	"github.com/kirotools/switchboard/internal/store"
	"github.com/kirotools/switchboard/internal/switcher"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	database, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := database.AutoMigrate(&models.Account{}, &models.Setting{}, &models.MachineBinding{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return store.New(database)
}

func seedAccount(t *testing.T, s *store.Store, acc models.Account) {
	t.Helper()
	if err := s.DB().Create(&acc).Error; err != nil {
		t.Fatalf("failed to seed account %s: %v", acc.ID, err)
	}
}

func newKiroProvider(t *testing.T) *kiro.Provider {
	t.Helper()
	cfg := kiro.DefaultConfig()
	dir := t.TempDir()
	cfg.TokenCachePath = filepath.Join(dir, "kiro-auth-token.json")
	cfg.MachineIDPath = filepath.Join(dir, "kiro-machine-id")
	return kiro.New(cfg)
}

// fakeProvider stands in for the external credential operations.
type fakeProvider struct {
	refreshTS   auth.TokenSet
	refreshErr  error
	usageJSON   string
	usageErr    error
	activateErr error

	// set both to make ActivateAccount block until released
	activateStarted chan struct{}
	activateRelease chan struct{}
}

func (f *fakeProvider) RefreshToken(ctx context.Context, acc *models.Account) (auth.TokenSet, error) {
	if f.refreshErr != nil {
		return auth.TokenSet{}, f.refreshErr
	}
	return f.refreshTS, nil
}

func (f *fakeProvider) FetchUsage(ctx context.Context, acc *models.Account) (string, error) {
	return f.usageJSON, f.usageErr
}

func (f *fakeProvider) ActivateAccount(ctx context.Context, req auth.ActivationRequest) error {
	if f.activateStarted != nil {
		f.activateStarted <- struct{}{}
		<-f.activateRelease
	}
	return f.activateErr
}

func (f *fakeProvider) GenerateMachineID() string { return "generated-machine-id" }

func (f *fakeProvider) SetActiveMachineID(ctx context.Context, machineID string) error { return nil }

func doRequest(router chi.Router, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestMatchActiveAccountOrder(t *testing.T) {
	accounts := []models.Account{
		{ID: "acc-a", RefreshToken: "refresh-a", AccessToken: "access-a", Provider: models.ProviderGoogle},
		{ID: "acc-b", RefreshToken: "refresh-b", AccessToken: "access-b", Provider: models.ProviderGithub},
	}

	tests := []struct {
		name   string
		local  *kiro.LocalToken
		wantID string
	}{
		{
			name:   "refresh token match wins over access token match",
			local:  &kiro.LocalToken{RefreshToken: "refresh-b", AccessToken: "access-a", Provider: models.ProviderGoogle},
			wantID: "acc-b",
		},
		{
			name:   "access token match wins over provider match",
			local:  &kiro.LocalToken{AccessToken: "access-a", Provider: models.ProviderGithub},
			wantID: "acc-a",
		},
		{
			name:   "provider fallback when tokens match nothing",
			local:  &kiro.LocalToken{RefreshToken: "unknown", Provider: models.ProviderGithub},
			wantID: "acc-b",
		},
		{
			name:   "no tier matches",
			local:  &kiro.LocalToken{RefreshToken: "unknown", AccessToken: "unknown", Provider: models.ProviderEnterprise},
			wantID: "",
		},
		{
			name:   "nil local token",
			local:  nil,
			wantID: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := matchActiveAccount(accounts, tt.local)
			gotID := ""
			if got != nil {
				gotID = got.ID
			}
			if gotID != tt.wantID {
				t.Errorf("matched %q, want %q", gotID, tt.wantID)
			}
		})
	}
}

func TestBestAccountsMarksActiveFromLocalCache(t *testing.T) {
	s := newTestStore(t)
	provider := newKiroProvider(t)

	seedAccount(t, s, models.Account{
		ID: "acc-active", Email: "active@example.com", Provider: models.ProviderGoogle,
		AccessToken: "access-active", RefreshToken: "refresh-active",
		UsageData: `{"usageBreakdownList":[{"currentUsage":0,"usageLimit":1000}]}`,
	})
	seedAccount(t, s, models.Account{
		ID: "acc-other", Email: "other@example.com", Provider: models.ProviderGithub,
		AccessToken: "access-other", RefreshToken: "refresh-other",
		UsageData: `{"usageBreakdownList":[{"currentUsage":100,"usageLimit":500}]}`,
	})

	err := provider.ActivateAccount(context.Background(), auth.ActivationRequest{
		AccessToken:  "access-active",
		RefreshToken: "refresh-active",
		Provider:     models.ProviderGoogle,
		Method:       auth.MethodSocial,
		ProfileArn:   "arn",
	})
	if err != nil {
		t.Fatalf("ActivateAccount: %v", err)
	}

	router := chi.NewRouter()
	router.Get("/api/accounts/best", BestAccountsHandler(s, provider))

	rec := doRequest(router, http.MethodGet, "/api/accounts/best")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		ActiveAccountID string        `json:"activeAccountId"`
		Accounts        []AccountView `json:"accounts"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ActiveAccountID != "acc-active" {
		t.Errorf("activeAccountId = %q, want acc-active", resp.ActiveAccountID)
	}
	if len(resp.Accounts) != 1 || resp.Accounts[0].ID != "acc-other" {
		t.Fatalf("expected only acc-other recommended, got %+v", resp.Accounts)
	}
	if resp.Accounts[0].Remaining != 400 {
		t.Errorf("remaining = %d, want 400", resp.Accounts[0].Remaining)
	}
}

func TestLocalTokenHandler(t *testing.T) {
	s := newTestStore(t)
	provider := newKiroProvider(t)
	seedAccount(t, s, models.Account{
		ID: "acc-1", Email: "user@example.com", Provider: models.ProviderGoogle,
		AccessToken: "access", RefreshToken: "refresh",
	})

	router := chi.NewRouter()
	router.Get("/api/local-token", LocalTokenHandler(s, provider))

	// No token cache yet
	rec := doRequest(router, http.MethodGet, "/api/local-token")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["active"] != false {
		t.Fatalf("expected active=false before activation, got %v", resp)
	}

	err := provider.ActivateAccount(context.Background(), auth.ActivationRequest{
		AccessToken:  "access",
		RefreshToken: "refresh",
		Provider:     models.ProviderGoogle,
		Method:       auth.MethodSocial,
		ProfileArn:   "arn",
	})
	if err != nil {
		t.Fatalf("ActivateAccount: %v", err)
	}

	rec = doRequest(router, http.MethodGet, "/api/local-token")
	resp = map[string]interface{}{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["active"] != true {
		t.Fatalf("expected active=true after activation, got %v", resp)
	}
	account, ok := resp["account"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected matched account in response, got %v", resp)
	}
	if account["id"] != "acc-1" {
		t.Errorf("matched account id = %v, want acc-1", account["id"])
	}
}

func TestSwitchHandlerStatusMapping(t *testing.T) {
	newRouter := func(s *store.Store, provider auth.Provider) chi.Router {
		router := chi.NewRouter()
		router.Post("/api/accounts/{id}/switch", SwitchHandler(s, switcher.New(s, provider)))
		return router
	}

	t.Run("success", func(t *testing.T) {
		s := newTestStore(t)
		seedAccount(t, s, models.Account{
			ID: "acc-1", Email: "user@example.com", Provider: models.ProviderGoogle,
			AccessToken: "access", RefreshToken: "refresh",
		})
		rec := doRequest(newRouter(s, &fakeProvider{}), http.MethodPost, "/api/accounts/acc-1/switch")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("missing credentials", func(t *testing.T) {
		s := newTestStore(t)
		seedAccount(t, s, models.Account{
			ID: "acc-1", Email: "user@example.com", Provider: models.ProviderGoogle,
			AccessToken: "access",
		})
		rec := doRequest(newRouter(s, &fakeProvider{}), http.MethodPost, "/api/accounts/acc-1/switch")
		if rec.Code != http.StatusConflict {
			t.Fatalf("status = %d, want 409", rec.Code)
		}
	})

	t.Run("unknown account", func(t *testing.T) {
		s := newTestStore(t)
		rec := doRequest(newRouter(s, &fakeProvider{}), http.MethodPost, "/api/accounts/missing/switch")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", rec.Code)
		}
	})

	t.Run("activation failure", func(t *testing.T) {
		s := newTestStore(t)
		seedAccount(t, s, models.Account{
			ID: "acc-1", Email: "user@example.com", Provider: models.ProviderGoogle,
			AccessToken: "access", RefreshToken: "refresh",
		})
		provider := &fakeProvider{activateErr: errors.New("activation exploded")}
		rec := doRequest(newRouter(s, provider), http.MethodPost, "/api/accounts/acc-1/switch")
		if rec.Code != http.StatusBadGateway {
			t.Fatalf("status = %d, want 502", rec.Code)
		}
		var resp map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if resp["error"] != "activation exploded" {
			t.Errorf("error = %q, want the activation error verbatim", resp["error"])
		}
	})

	t.Run("concurrent switch rejected", func(t *testing.T) {
		s := newTestStore(t)
		seedAccount(t, s, models.Account{
			ID: "acc-1", Email: "user@example.com", Provider: models.ProviderGoogle,
			AccessToken: "access", RefreshToken: "refresh",
		})
		provider := &fakeProvider{
			activateStarted: make(chan struct{}),
			activateRelease: make(chan struct{}),
		}
		router := newRouter(s, provider)

		firstDone := make(chan int)
		go func() {
			rec := doRequest(router, http.MethodPost, "/api/accounts/acc-1/switch")
			firstDone <- rec.Code
		}()
		<-provider.activateStarted

		rec := doRequest(router, http.MethodPost, "/api/accounts/acc-1/switch")
		if rec.Code != http.StatusTooManyRequests {
			t.Fatalf("second switch status = %d, want 429", rec.Code)
		}

		close(provider.activateRelease)
		if code := <-firstDone; code != http.StatusOK {
			t.Fatalf("first switch status = %d, want 200", code)
		}
	})
}

func TestRefreshAccountHandler(t *testing.T) {
	t.Run("success persists tokens", func(t *testing.T) {
		s := newTestStore(t)
		seedAccount(t, s, models.Account{
			ID: "acc-1", Email: "user@example.com", Provider: models.ProviderGoogle,
			AccessToken: "old-access", RefreshToken: "old-refresh",
		})
		provider := &fakeProvider{refreshTS: auth.TokenSet{
			AccessToken: "new-access",
			ExpiresAt:   "2026/06/01 00:00:00",
		}}

		router := chi.NewRouter()
		router.Post("/api/accounts/{id}/refresh", RefreshAccountHandler(s, provider))
		rec := doRequest(router, http.MethodPost, "/api/accounts/acc-1/refresh")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}

		acc, err := s.GetAccount(context.Background(), "acc-1")
		if err != nil {
			t.Fatalf("GetAccount: %v", err)
		}
		if acc.AccessToken != "new-access" {
			t.Errorf("access token = %q, want new-access", acc.AccessToken)
		}
	})

	t.Run("permanent failure flags relogin", func(t *testing.T) {
		s := newTestStore(t)
		seedAccount(t, s, models.Account{
			ID: "acc-1", Email: "user@example.com", Provider: models.ProviderGoogle,
			AccessToken: "access", RefreshToken: "refresh",
		})
		provider := &fakeProvider{refreshErr: errors.New("oauth2: invalid_grant")}

		router := chi.NewRouter()
		router.Post("/api/accounts/{id}/refresh", RefreshAccountHandler(s, provider))
		rec := doRequest(router, http.MethodPost, "/api/accounts/acc-1/refresh")
		if rec.Code != http.StatusBadGateway {
			t.Fatalf("status = %d, want 502", rec.Code)
		}

		var resp map[string]interface{}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if resp["needsRelogin"] != true {
			t.Errorf("expected needsRelogin=true, got %v", resp)
		}
	})
}
