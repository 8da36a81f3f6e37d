package data

import (
	"sync"

	"gorm.io/gorm"

	"github.com/veritrust/review-verify/src/RVApi/types"
)

var (
	settingsCache map[string]string
	settingsMu    sync.RWMutex
)

// LoadSettings primes the in-memory cache from the settings table. Settings
// carry runtime overrides (anchor_url, classifier_url, discord_channel) that
// operators change without redeploying.
func LoadSettings(db *gorm.DB) error {
	var settings []types.Setting
	if err := db.Find(&settings).Error; err != nil {
		return err
	}

	settingsMu.Lock()
	defer settingsMu.Unlock()

	settingsCache = make(map[string]string)
	for _, s := range settings {
		settingsCache[s.Name] = s.Value
	}

	return nil
}

// GetSetting returns the cached value, or "" when unset.
func GetSetting(name string) string {
	settingsMu.RLock()
	defer settingsMu.RUnlock()
	return settingsCache[name]
}

// RefreshSettings re-reads the table; the API calls this on a timer so
// operator edits take effect without a restart.
func RefreshSettings(db *gorm.DB) error {
	return LoadSettings(db)
}
