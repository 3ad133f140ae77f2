package storage

import (
	"strings"

	"github.com/vedsharma/companionctl/internal/model"
)

// ThemeKey is the settings key holding the color scheme
const ThemeKey = "theme"

// Store is implemented by SQLiteStorage and JSONStorage
type Store interface {
	GetSetting(key string) (string, bool, error)
	SetSetting(key, value string) error
	LoadServers() (*model.Servers, error)
	CreateServer(name, url string) error
	DeleteServer(name string) error
	GetServer(name string) (string, bool, error)
	Close() error
}

var (
	_ Store = (*SQLiteStorage)(nil)
	_ Store = (*JSONStorage)(nil)
)

// LoadTheme returns the saved theme, light when none is saved
func LoadTheme(s Store) (model.Theme, error) {
	value, _, err := s.GetSetting(ThemeKey)
	if err != nil {
		return model.ThemeLight, err
	}
	return model.ParseTheme(value), nil
}

// SaveTheme persists the theme
func SaveTheme(s Store, t model.Theme) error {
	return s.SetSetting(ThemeKey, string(model.ParseTheme(string(t))))
}

// ResolveServer returns the base URL for a server name. Full URLs are returned
// as-is, as are unknown names so the caller's URL validation reports them.
func ResolveServer(s Store, nameOrURL string) (string, error) {
	lower := strings.ToLower(nameOrURL)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return nameOrURL, nil
	}

	url, exists, err := s.GetServer(nameOrURL)
	if err != nil {
		return "", err
	}
	if !exists {
		return nameOrURL, nil
	}
	return url, nil
}
