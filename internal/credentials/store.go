package credentials

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/aadi-novice/guardian/internal/models"
	"github.com/charmbracelet/log"
)

// Store persists and retrieves the credential pair.
//
// Load never returns an error: absence (or an unreadable store) is reported
// through the boolean, not an exception.
type Store interface {
	Save(creds models.Credentials) error
	Load() (models.Credentials, bool)
	Clear() error
}

// SQLiteStore persists credentials in the local guardian database so a
// session survives process restarts within the token validity window.
type SQLiteStore struct {
	db     *sql.DB
	logger *log.Logger
}

// NewSQLiteStore creates a [SQLiteStore] backed by the given database.
// The credentials table must exist (shared.RunMigrations creates it).
func NewSQLiteStore(db *sql.DB, logger *log.Logger) *SQLiteStore {
	return &SQLiteStore{db: db, logger: logger}
}

// Save upserts the single credential row.
func (s *SQLiteStore) Save(creds models.Credentials) error {
	if creds.Empty() {
		return fmt.Errorf("refusing to save empty credentials")
	}

	query := `
		INSERT INTO credentials (id, access_token, refresh_token, updated_at) VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET access_token = excluded.access_token,
			refresh_token = excluded.refresh_token, updated_at = excluded.updated_at
	`

	if _, err := s.db.Exec(query, creds.AccessToken, creds.RefreshToken, time.Now()); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}

	return nil
}

// Load retrieves the stored credential pair, reporting absence rather than
// failing when the row is missing or the store is unreadable.
func (s *SQLiteStore) Load() (models.Credentials, bool) {
	var creds models.Credentials

	query := `SELECT access_token, refresh_token FROM credentials WHERE id = 1`
	err := s.db.QueryRow(query).Scan(&creds.AccessToken, &creds.RefreshToken)
	if err == sql.ErrNoRows {
		return models.Credentials{}, false
	}
	if err != nil {
		if s.logger != nil {
			s.logger.Warnf("credential store unreadable, treating as absent: %v", err)
		}
		return models.Credentials{}, false
	}

	if creds.Empty() {
		return models.Credentials{}, false
	}

	return creds, true
}

// Clear removes the stored pair. Clearing an empty store is a no-op.
func (s *SQLiteStore) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM credentials WHERE id = 1`); err != nil {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}
	return nil
}

// MemoryStore is an in-memory [Store] for tests and ephemeral sessions.
type MemoryStore struct {
	mu      sync.Mutex
	creds   models.Credentials
	present bool
}

// NewMemoryStore creates an empty [MemoryStore].
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Save(creds models.Credentials) error {
	if creds.Empty() {
		return fmt.Errorf("refusing to save empty credentials")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds = creds
	m.present = true
	return nil
}

func (m *MemoryStore) Load() (models.Credentials, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.creds, m.present
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds = models.Credentials{}
	m.present = false
	return nil
}
