package auth

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/nacl/secretbox"

	"github.com/partolaaa/maker-space-tools/internal/makerspace"
)

const credentialNonceSize = 24

var ErrDecryptFailed = errors.New("credential decryption failed")

// CredentialCipher encrypts stored upstream credentials at rest using
// nacl/secretbox. The random nonce is prefixed to the ciphertext.
type CredentialCipher struct {
	key [32]byte
}

func NewCredentialCipher(key [32]byte) *CredentialCipher {
	return &CredentialCipher{key: key}
}

func (c *CredentialCipher) Encrypt(plain []byte) ([]byte, error) {
	var nonce [credentialNonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return secretbox.Seal(nonce[:], plain, &nonce, &c.key), nil
}

func (c *CredentialCipher) Decrypt(sealed []byte) ([]byte, error) {
	if len(sealed) < credentialNonceSize {
		return nil, ErrDecryptFailed
	}
	var nonce [credentialNonceSize]byte
	copy(nonce[:], sealed[:credentialNonceSize])

	plain, ok := secretbox.Open(nil, sealed[credentialNonceSize:], &nonce, &c.key)
	if !ok {
		return nil, ErrDecryptFailed
	}
	return plain, nil
}

// CredentialStore persists the upstream login for the automation scheduler.
// At most one set of credentials is stored.
type CredentialStore interface {
	Save(ctx context.Context, creds makerspace.Credentials) error
	Load(ctx context.Context) (makerspace.Credentials, bool, error)
	Clear(ctx context.Context) error
}

type pgxCredentialStore struct {
	pool   *pgxpool.Pool
	cipher *CredentialCipher
	psql   squirrel.StatementBuilderType
}

func NewPgxCredentialStore(pool *pgxpool.Pool, cipher *CredentialCipher) CredentialStore {
	return &pgxCredentialStore{
		pool:   pool,
		cipher: cipher,
		psql:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

type storedCredentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
	ClientID string `json:"clientId"`
}

func (s *pgxCredentialStore) Save(ctx context.Context, creds makerspace.Credentials) error {
	// TOTP codes are single-use and deliberately not persisted.
	plain, err := json.Marshal(storedCredentials{
		Username: creds.Username,
		Password: creds.Password,
		ClientID: creds.ClientID,
	})
	if err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}
	sealed, err := s.cipher.Encrypt(plain)
	if err != nil {
		return err
	}

	query, args, err := s.psql.
		Insert("public.stored_credentials").
		Columns("id", "sealed", "updated_at").
		Values(1, sealed, squirrel.Expr("now()")).
		Suffix("ON CONFLICT (id) DO UPDATE SET sealed = EXCLUDED.sealed, updated_at = now()").
		ToSql()
	if err != nil {
		return fmt.Errorf("build save credentials query failed: %w", err)
	}

	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("save credentials failed: %w", err)
	}
	return nil
}

func (s *pgxCredentialStore) Load(ctx context.Context) (makerspace.Credentials, bool, error) {
	query, args, err := s.psql.
		Select("sealed").
		From("public.stored_credentials").
		Where(squirrel.Eq{"id": 1}).
		ToSql()
	if err != nil {
		return makerspace.Credentials{}, false, fmt.Errorf("build load credentials query failed: %w", err)
	}

	var sealed []byte
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&sealed); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return makerspace.Credentials{}, false, nil
		}
		return makerspace.Credentials{}, false, fmt.Errorf("load credentials failed: %w", err)
	}

	plain, err := s.cipher.Decrypt(sealed)
	if err != nil {
		return makerspace.Credentials{}, false, err
	}
	var stored storedCredentials
	if err := json.Unmarshal(plain, &stored); err != nil {
		return makerspace.Credentials{}, false, fmt.Errorf("failed to decode credentials: %w", err)
	}

	return makerspace.Credentials{
		Username: stored.Username,
		Password: stored.Password,
		ClientID: stored.ClientID,
	}, true, nil
}

func (s *pgxCredentialStore) Clear(ctx context.Context) error {
	query, args, err := s.psql.
		Delete("public.stored_credentials").
		Where(squirrel.Eq{"id": 1}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build clear credentials query failed: %w", err)
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("clear credentials failed: %w", err)
	}
	return nil
}
