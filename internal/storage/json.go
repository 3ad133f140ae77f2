package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/vedsharma/companionctl/internal/model"
)

const (
	settingsFile = "settings.json"
	serversFile  = "servers.json"
)

// JSONStorage handles JSON file persistence
type JSONStorage struct {
	mu      sync.Mutex
	dataDir string
}

// NewJSONStorage creates a JSON storage instance rooted at dataDir
func NewJSONStorage(dataDir string) (*JSONStorage, error) {
	if err := os.MkdirAll(dataDir, secureDirMode); err != nil {
		return nil, err
	}
	return &JSONStorage{dataDir: dataDir}, nil
}

// Close is a no-op; files are written on every change
func (s *JSONStorage) Close() error {
	return nil
}

func (s *JSONStorage) settingsPath() string {
	return filepath.Join(s.dataDir, settingsFile)
}

func (s *JSONStorage) serversPath() string {
	return filepath.Join(s.dataDir, serversFile)
}

func (s *JSONStorage) loadSettings() (*model.Settings, error) {
	settings := &model.Settings{Values: map[string]string{}}
	if err := readJSON(s.settingsPath(), settings); err != nil {
		return nil, err
	}
	if settings.Values == nil {
		settings.Values = map[string]string{}
	}
	return settings, nil
}

// GetSetting reads a preference value
func (s *JSONStorage) GetSetting(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings, err := s.loadSettings()
	if err != nil {
		return "", false, err
	}
	value, ok := settings.Values[key]
	return value, ok, nil
}

// SetSetting writes a preference value
func (s *JSONStorage) SetSetting(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings, err := s.loadSettings()
	if err != nil {
		return err
	}
	settings.Values[key] = value
	return writeJSON(s.settingsPath(), settings)
}

// LoadServers loads all named backend servers
func (s *JSONStorage) LoadServers() (*model.Servers, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadServers()
}

func (s *JSONStorage) loadServers() (*model.Servers, error) {
	servers := &model.Servers{Servers: map[string]string{}}
	if err := readJSON(s.serversPath(), servers); err != nil {
		return nil, err
	}
	if servers.Servers == nil {
		servers.Servers = map[string]string{}
	}
	return servers, nil
}

// CreateServer creates or replaces a named server
func (s *JSONStorage) CreateServer(name, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	servers, err := s.loadServers()
	if err != nil {
		return err
	}
	servers.Servers[name] = url
	return writeJSON(s.serversPath(), servers)
}

// DeleteServer deletes a named server
func (s *JSONStorage) DeleteServer(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	servers, err := s.loadServers()
	if err != nil {
		return err
	}
	delete(servers.Servers, name)
	return writeJSON(s.serversPath(), servers)
}

// GetServer gets a server URL by name
func (s *JSONStorage) GetServer(name string) (string, bool, error) {
	servers, err := s.LoadServers()
	if err != nil {
		return "", false, err
	}
	url, ok := servers.Servers[name]
	return url, ok, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return json.Unmarshal(data, v)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, secureFileMode)
}
