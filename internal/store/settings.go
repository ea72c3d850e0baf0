package store

import (
	"context"
	"encoding/json"
	"log"

	"github.com/kirotools/switchboard/internal/db/models"
)

const appSettingsKey = "app_settings"

// GetSettings loads the app settings. Any failure (missing row, unreadable
// value, database error) falls back to defaults with auto-refresh disabled
// rather than propagating, so a broken settings row can never wedge the
// scheduler into refreshing with stale policy.
func (s *Store) GetSettings(ctx context.Context) models.AppSettings {
	settings := models.DefaultAppSettings()

	var row models.Setting
	if err := s.db.WithContext(ctx).First(&row, "key = ?", appSettingsKey).Error; err != nil {
		return settings
	}
	if err := json.Unmarshal([]byte(row.Value), &settings); err != nil {
		log.Printf("⚠️ Unreadable app settings, using defaults: %v", err)
		return models.DefaultAppSettings()
	}
	if settings.AutoRefreshInterval <= 0 {
		settings.AutoRefreshInterval = models.DefaultAppSettings().AutoRefreshInterval
	}
	return settings
}

// SaveSettings persists the app settings as a single JSON row.
func (s *Store) SaveSettings(ctx context.Context, settings models.AppSettings) error {
	b, err := json.Marshal(settings)
	if err != nil {
		return err
	}

	var row models.Setting
	if err := s.db.WithContext(ctx).First(&row, "key = ?", appSettingsKey).Error; err != nil {
		return s.db.WithContext(ctx).Create(&models.Setting{Key: appSettingsKey, Value: string(b)}).Error
	}
	return s.db.WithContext(ctx).Model(&models.Setting{}).Where("key = ?", appSettingsKey).
		Update("value", string(b)).Error
}
