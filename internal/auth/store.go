package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const (
	secretPrefix = "agw_"
	idPrefix     = "tok_"
)

var (
	ErrTokenNotFound = errors.New("token not found")
	ErrTokenExpired  = errors.New("token expired")
	ErrInvalidToken  = errors.New("invalid token format")
)

// Store persists gateway tokens in SQLite. Only a SHA-256 digest of each
// bearer secret is stored.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) dataDir/auth.db
func NewStore(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dataDir, "auth.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS gateway_tokens (
		id TEXT PRIMARY KEY,
		secret_hash TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		scope TEXT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		last_used_at DATETIME,
		expires_at DATETIME
	);
	CREATE INDEX IF NOT EXISTS idx_gateway_tokens_scope ON gateway_tokens(scope);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func hashSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// CreateToken creates a token and returns it with its bearer secret
func (s *Store) CreateToken(name, scope string, expiresAt *time.Time) (*Token, string, error) {
	if err := ValidateScope(scope); err != nil {
		return nil, "", err
	}

	secretHex, err := randomHex(32)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}
	idHex, err := randomHex(6)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token id: %w", err)
	}
	secret := secretPrefix + secretHex

	token := &Token{
		ID:        idPrefix + idHex,
		Name:      name,
		Scope:     scope,
		CreatedAt: time.Now().UTC(),
		ExpiresAt: expiresAt,
	}

	_, err = s.db.Exec(
		`INSERT INTO gateway_tokens (id, secret_hash, name, scope, created_at, expires_at) VALUES (?, ?, ?, ?, ?, ?)`,
		token.ID, hashSecret(secret), token.Name, token.Scope, token.CreatedAt, token.ExpiresAt,
	)
	if err != nil {
		return nil, "", fmt.Errorf("failed to insert token: %w", err)
	}

	return token, secret, nil
}

const tokenColumns = `id, name, scope, created_at, last_used_at, expires_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanToken(row rowScanner) (*Token, error) {
	var token Token
	var lastUsedAt, expiresAt sql.NullTime
	if err := row.Scan(&token.ID, &token.Name, &token.Scope, &token.CreatedAt, &lastUsedAt, &expiresAt); err != nil {
		return nil, err
	}
	if lastUsedAt.Valid {
		token.LastUsedAt = &lastUsedAt.Time
	}
	if expiresAt.Valid {
		token.ExpiresAt = &expiresAt.Time
	}
	return &token, nil
}

// ValidateToken resolves a bearer secret to its token
func (s *Store) ValidateToken(secret string) (*Token, error) {
	if !strings.HasPrefix(secret, secretPrefix) || len(secret) == len(secretPrefix) {
		return nil, ErrInvalidToken
	}

	token, err := scanToken(s.db.QueryRow(
		`SELECT `+tokenColumns+` FROM gateway_tokens WHERE secret_hash = ?`,
		hashSecret(secret),
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query token: %w", err)
	}

	if token.ExpiresAt != nil && time.Now().After(*token.ExpiresAt) {
		return nil, ErrTokenExpired
	}

	go s.updateLastUsed(token.ID)

	return token, nil
}

func (s *Store) updateLastUsed(id string) {
	_, _ = s.db.Exec(`UPDATE gateway_tokens SET last_used_at = ? WHERE id = ?`, time.Now().UTC(), id)
}

// GetToken returns a token by its public id
func (s *Store) GetToken(id string) (*Token, error) {
	token, err := scanToken(s.db.QueryRow(`SELECT `+tokenColumns+` FROM gateway_tokens WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query token: %w", err)
	}
	return token, nil
}

// ListTokens returns all tokens, newest first
func (s *Store) ListTokens() ([]*Token, error) {
	rows, err := s.db.Query(`SELECT ` + tokenColumns + ` FROM gateway_tokens ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tokens: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tokens []*Token
	for rows.Next() {
		token, err := scanToken(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan token: %w", err)
		}
		tokens = append(tokens, token)
	}

	return tokens, rows.Err()
}

// RevokeToken deletes a token by its public id
func (s *Store) RevokeToken(id string) error {
	result, err := s.db.Exec(`DELETE FROM gateway_tokens WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrTokenNotFound
	}

	return nil
}
