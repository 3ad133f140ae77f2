package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vedsharma/companionctl/internal/model"

	_ "modernc.org/sqlite"
)

const (
	dbFile = "companionctl.db"

	// Secure file permissions - owner read/write only
	secureFileMode = 0600 // -rw-------
	secureDirMode  = 0700 // drwx------
)

// ensureSecureFile creates a file with secure permissions if it doesn't exist,
// or verifies/fixes permissions if it does exist. This prevents a TOCTOU race
// condition where the file could be created with insecure default permissions.
func ensureSecureFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, secureFileMode)
		if err != nil {
			return fmt.Errorf("failed to create secure file: %w", err)
		}
		f.Close()
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat file: %w", err)
	}

	if info.Mode().Perm() != secureFileMode {
		if err := os.Chmod(path, secureFileMode); err != nil {
			return fmt.Errorf("failed to set secure permissions: %w", err)
		}
	}
	return nil
}

// SQLiteStorage handles SQLite database persistence
type SQLiteStorage struct {
	db      *sql.DB
	dataDir string
}

// NewStorage opens (creating if needed) the database in dataDir
func NewStorage(dataDir string) (*SQLiteStorage, error) {
	if err := os.MkdirAll(dataDir, secureDirMode); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dataDir, dbFile)

	// Create database file with secure permissions if it doesn't exist
	if err := ensureSecureFile(dbPath); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	s := &SQLiteStorage{db: db, dataDir: dataDir}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	if err := s.migrateFromJSON(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to import legacy settings: %w", err)
	}

	return s, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// initSchema creates the database tables if they don't exist
func (s *SQLiteStorage) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS servers (
		name TEXT PRIMARY KEY,
		url TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// Settings Operations
// =============================================================================

// GetSetting reads a preference value
func (s *SQLiteStorage) GetSetting(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// SetSetting writes a preference value
func (s *SQLiteStorage) SetSetting(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value)
	return err
}

// =============================================================================
// Server Operations
// =============================================================================

// LoadServers loads all named backend servers
func (s *SQLiteStorage) LoadServers() (*model.Servers, error) {
	rows, err := s.db.Query("SELECT name, url FROM servers ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	servers := &model.Servers{Servers: make(map[string]string)}
	for rows.Next() {
		var name, url string
		if err := rows.Scan(&name, &url); err != nil {
			return nil, err
		}
		servers.Servers[name] = url
	}

	return servers, rows.Err()
}

// CreateServer creates or replaces a named server
func (s *SQLiteStorage) CreateServer(name, url string) error {
	_, err := s.db.Exec(`
		INSERT INTO servers (name, url) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET url = excluded.url`,
		name, url)
	return err
}

// DeleteServer deletes a named server
func (s *SQLiteStorage) DeleteServer(name string) error {
	_, err := s.db.Exec("DELETE FROM servers WHERE name = ?", name)
	return err
}

// GetServer gets a server URL by name
func (s *SQLiteStorage) GetServer(name string) (string, bool, error) {
	var url string
	err := s.db.QueryRow("SELECT url FROM servers WHERE name = ?", name).Scan(&url)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return url, true, nil
}

// =============================================================================
// Migration from JSON
// =============================================================================

// migrateFromJSON imports the legacy JSON files into an empty database
func (s *SQLiteStorage) migrateFromJSON() error {
	var count int
	if err := s.db.QueryRow("SELECT (SELECT COUNT(*) FROM settings) + (SELECT COUNT(*) FROM servers)").Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	legacy := &JSONStorage{dataDir: s.dataDir}

	// Unreadable legacy files are left in place and skipped.
	if settings, err := legacy.loadSettings(); err == nil && len(settings.Values) > 0 {
		for key, value := range settings.Values {
			if err := s.SetSetting(key, value); err != nil {
				return err
			}
		}
		os.Rename(legacy.settingsPath(), legacy.settingsPath()+".migrated")
	}

	if servers, err := legacy.loadServers(); err == nil && len(servers.Servers) > 0 {
		for name, url := range servers.Servers {
			if err := s.CreateServer(name, url); err != nil {
				return err
			}
		}
		os.Rename(legacy.serversPath(), legacy.serversPath()+".migrated")
	}

	return nil
}
