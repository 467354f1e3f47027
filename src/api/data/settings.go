package data

import (
	"sync"

	"github.com/ptrdsh/participatory-budgeting/src/api/types"
	"gorm.io/gorm"
)

var (
	settingsCache map[string]string
	settingsMu    sync.RWMutex
)

var defaultSettings = []types.Setting{
	{ID: 1, Name: "sentiments", Value: "thumbsUp,thumbsDown,heart,rocket,eyes"},
}

// EnsureDefaultSettings seeds settings that are missing, leaving existing
// rows untouched.
func EnsureDefaultSettings(db *gorm.DB) error {
	for _, s := range defaultSettings {
		var row types.Setting
		if err := db.Where("name = ?", s.Name).Attrs(s).FirstOrCreate(&row).Error; err != nil {
			return err
		}
	}
	return nil
}

// LoadSettings loads all settings from database into cache
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

// GetSetting retrieves a setting value by name
func GetSetting(name string) string {
	settingsMu.RLock()
	defer settingsMu.RUnlock()
	return settingsCache[name]
}
