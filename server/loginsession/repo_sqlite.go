package loginsession

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jrsteele09/mentions-console/adminmodel"
	"github.com/jrsteele09/mentions-console/internal/errors"
	"github.com/jrsteele09/mentions-console/internal/secrets"
	_ "modernc.org/sqlite"
)

// SQLiteRepo persists login sessions so they survive a console restart.
// Access tokens are sealed before they are written.
type SQLiteRepo struct {
	db     *sql.DB
	cipher *secrets.Cipher
}

var _ Repo = (*SQLiteRepo)(nil)

type migration struct {
	name string
	sql  string
}

var migrations = []migration{
	{
		name: "001_login_sessions",
		sql: `
			CREATE TABLE IF NOT EXISTS login_sessions (
				id TEXT PRIMARY KEY,
				access_token BLOB NOT NULL,
				token_type TEXT NOT NULL DEFAULT '',
				user_json TEXT,
				expires_at INTEGER NOT NULL,
				created_at INTEGER NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_login_sessions_expires ON login_sessions(expires_at);
		`,
	},
}

// OpenSQLiteRepo opens (creating if needed) the session database at path
func OpenSQLiteRepo(path string, cipher *secrets.Cipher) (*SQLiteRepo, error) {
	if cipher == nil {
		return nil, fmt.Errorf("cipher is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("failed to create session database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open session database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping session database: %w", err)
	}

	r := &SQLiteRepo{db: db, cipher: cipher}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return r, nil
}

func (r *SQLiteRepo) migrate() error {
	_, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS migrations (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		var count int
		if err := r.db.QueryRow(`SELECT COUNT(*) FROM migrations WHERE name = ?`, m.name).Scan(&count); err != nil {
			return err
		}
		if count > 0 {
			continue
		}
		if _, err := r.db.Exec(m.sql); err != nil {
			return fmt.Errorf("migration %s failed: %w", m.name, err)
		}
		if _, err := r.db.Exec(`INSERT INTO migrations (name) VALUES (?)`, m.name); err != nil {
			return err
		}
	}
	return nil
}

func (r *SQLiteRepo) Close() error {
	return r.db.Close()
}

func (r *SQLiteRepo) Upsert(sessionID string, session Session) error {
	if sessionID == "" {
		return fmt.Errorf("sessionID is required")
	}
	if session.AccessToken == "" {
		return fmt.Errorf("session %s has no access token", sessionID)
	}

	sealed, err := r.cipher.Seal([]byte(session.AccessToken))
	if err != nil {
		return fmt.Errorf("seal access token: %w", err)
	}

	var userJSON sql.NullString
	if session.User != nil {
		data, err := json.Marshal(session.User)
		if err != nil {
			return fmt.Errorf("encode user: %w", err)
		}
		userJSON = sql.NullString{String: string(data), Valid: true}
	}

	_, err = r.db.Exec(`
		INSERT INTO login_sessions (id, access_token, token_type, user_json, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			access_token = excluded.access_token,
			token_type = excluded.token_type,
			user_json = excluded.user_json,
			expires_at = excluded.expires_at
	`, sessionID, sealed, session.TokenType, userJSON, unixOrZero(session.ExpiresAt), session.CreatedAt.Unix())
	return err
}

func (r *SQLiteRepo) Get(sessionID string) (Session, error) {
	if sessionID == "" {
		return Session{}, errors.ErrSessionNotFound
	}

	var (
		sealed    []byte
		userJSON  sql.NullString
		expiresAt int64
		createdAt int64
		session   = Session{ID: sessionID}
	)
	err := r.db.QueryRow(`
		SELECT access_token, token_type, user_json, expires_at, created_at
		FROM login_sessions WHERE id = ?
	`, sessionID).Scan(&sealed, &session.TokenType, &userJSON, &expiresAt, &createdAt)
	if err == sql.ErrNoRows {
		return Session{}, errors.ErrSessionNotFound
	}
	if err != nil {
		return Session{}, err
	}

	token, err := r.cipher.Open(sealed)
	if err != nil {
		// Written under a different secret; treat as logged out
		return Session{}, errors.Wrapf(errors.ErrSessionNotFound, "open access token: %v", err)
	}
	session.AccessToken = string(token)
	if expiresAt > 0 {
		session.ExpiresAt = time.Unix(expiresAt, 0)
	}
	session.CreatedAt = time.Unix(createdAt, 0)

	if userJSON.Valid {
		var user adminmodel.Account
		if err := json.Unmarshal([]byte(userJSON.String), &user); err != nil {
			return Session{}, fmt.Errorf("decode user: %w", err)
		}
		session.User = &user
	}
	return session, nil
}

func (r *SQLiteRepo) Delete(sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("sessionID is required")
	}
	_, err := r.db.Exec(`DELETE FROM login_sessions WHERE id = ?`, sessionID)
	return err
}

func (r *SQLiteRepo) DeleteExpired(now time.Time) (int, error) {
	result, err := r.db.Exec(`DELETE FROM login_sessions WHERE expires_at > 0 AND expires_at <= ?`, now.Unix())
	if err != nil {
		return 0, err
	}
	n, err := result.RowsAffected()
	return int(n), err
}

// unixOrZero stores "never expires" as 0
func unixOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}
