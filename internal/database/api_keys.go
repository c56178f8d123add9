package database

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// keyHashCost is the bcrypt cost for stored API keys. Tests lower it.
var keyHashCost = bcrypt.DefaultCost

const (
	keyScheme      = "hxk"
	keyPrefixBytes = 4
	keySecretBytes = 16
)

// ErrInvalidAPIKey is returned for unknown or malformed keys.
var ErrInvalidAPIKey = errors.New("invalid API key")

// ErrDuplicateName is returned when a key name is already taken.
var ErrDuplicateName = errors.New("API key name already exists")

// APIKey describes a stored key. The plaintext is never stored.
type APIKey struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Prefix    string     `json:"prefix"`
	CreatedAt time.Time  `json:"created_at"`
	LastUsed  *time.Time `json:"last_used,omitempty"`
}

// CreateAPIKey issues a new key and returns it with its plaintext. The
// plaintext cannot be recovered later.
func (d *Database) CreateAPIKey(name string) (*APIKey, string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, "", errors.New("API key name cannot be empty")
	}

	prefix, err := randomHex(keyPrefixBytes)
	if err != nil {
		return nil, "", err
	}
	secret, err := randomHex(keySecretBytes)
	if err != nil {
		return nil, "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), keyHashCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash API key: %w", err)
	}

	key := &APIKey{
		ID:        uuid.NewString(),
		Name:      name,
		Prefix:    prefix,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}

	_, err = d.exec(
		"INSERT INTO api_keys (id, name, key_prefix, key_hash, created_at) VALUES (?, ?, ?, ?, ?)",
		key.ID, key.Name, key.Prefix, string(hash), key.CreatedAt,
	)
	if err != nil {
		if d.dialect.IsDuplicateKeyError(err) {
			return nil, "", ErrDuplicateName
		}
		return nil, "", fmt.Errorf("failed to create API key: %w", err)
	}

	return key, fmt.Sprintf("%s_%s_%s", keyScheme, prefix, secret), nil
}

// VerifyAPIKey checks a plaintext key and records its use.
func (d *Database) VerifyAPIKey(plaintext string) (*APIKey, error) {
	parts := strings.Split(plaintext, "_")
	if len(parts) != 3 || parts[0] != keyScheme || parts[1] == "" || parts[2] == "" {
		return nil, ErrInvalidAPIKey
	}
	prefix, secret := parts[1], parts[2]

	var key APIKey
	var hash string
	var lastUsed sql.NullTime
	err := d.queryRow(
		"SELECT id, name, key_prefix, key_hash, created_at, last_used FROM api_keys WHERE key_prefix = ?",
		prefix,
	).Scan(&key.ID, &key.Name, &key.Prefix, &hash, &key.CreatedAt, &lastUsed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidAPIKey
		}
		return nil, fmt.Errorf("failed to look up API key: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)); err != nil {
		return nil, ErrInvalidAPIKey
	}

	now := time.Now().UTC().Truncate(time.Microsecond)
	if _, err := d.exec("UPDATE api_keys SET last_used = ? WHERE id = ?", now, key.ID); err != nil {
		return nil, fmt.Errorf("failed to update API key usage: %w", err)
	}
	key.LastUsed = &now

	return &key, nil
}

// RevokeAPIKey deletes a key by name.
func (d *Database) RevokeAPIKey(name string) error {
	res, err := d.exec("DELETE FROM api_keys WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("failed to revoke API key: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrInvalidAPIKey
	}
	return nil
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random key: %w", err)
	}
	return hex.EncodeToString(b), nil
}
