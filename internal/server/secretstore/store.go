// Package secretstore owns the process secret key and the encrypted storage
// location, persisted together in a KEY=VALUE secret file.
//
// The secret key is written into the same file as the ciphertext it
// protects. Anyone who can read the file can decrypt the location, so the
// confidentiality of the location rests on file access control alone.
package secretstore

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"unicode"
	"unicode/utf8"

	"github.com/dmitrijs2005/studentvault/internal/common"
	"github.com/dmitrijs2005/studentvault/internal/cryptox"
	"github.com/dmitrijs2005/studentvault/internal/logging"
)

type secrets struct {
	key      []byte
	location string
}

// Store resolves the storage location and the signing key.
//
// Initialize generates a new key and rewrites the secret file. Lookups read
// the file once, decrypt it and cache the result for the life of the
// process; after that they never touch the backend again. A failed load is
// not cached.
//
// Store is safe for concurrent use. Running Initialize while requests are in
// flight is not supported: it swaps the key under their feet.
type Store struct {
	backend  Backend
	location string
	logger   logging.Logger

	mu     sync.Mutex
	cached atomic.Pointer[secrets]
}

// New returns a Store over backend. location is the plaintext storage
// location that Initialize encrypts; it may be empty when the process only
// reads an existing file.
func New(backend Backend, location string, l logging.Logger) *Store {
	return &Store{
		backend:  backend,
		location: location,
		logger:   l.With("module", "secretstore", "backend", backend.Describe()),
	}
}

// Initialize generates a fresh secret key, encrypts the configured storage
// location under it and replaces the secret file with
// {location ciphertext, IV, key}.
func (s *Store) Initialize(ctx context.Context) error {
	if err := validateLocation(s.location); err != nil {
		return fmt.Errorf("%w: %v", common.ErrValidation, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key, err := common.GenerateRandByteArray(common.SecretKeySize)
	if err != nil {
		return fmt.Errorf("generate secret key: %w", err)
	}

	rec, err := cryptox.EncryptString(key, s.location)
	if err != nil {
		return fmt.Errorf("encrypt storage location: %w", err)
	}

	data, err := Encode(File{
		StorageLocation:   rec.Ciphertext,
		StorageLocationIV: rec.IV,
		SecretKey:         base64.StdEncoding.EncodeToString(key),
	})
	if err != nil {
		return err
	}

	if err := s.backend.Write(ctx, data); err != nil {
		return fmt.Errorf("%w: %w", common.ErrSecretUnavailable, err)
	}

	s.cached.Store(&secrets{key: key, location: s.location})
	s.logger.Info(ctx, "secret store initialized")

	return nil
}

// StorageLocation returns the decrypted storage location.
func (s *Store) StorageLocation(ctx context.Context) (string, error) {
	sec, err := s.load(ctx)
	if err != nil {
		return "", err
	}
	return sec.location, nil
}

// SigningKey returns a copy of the secret key.
func (s *Store) SigningKey(ctx context.Context) ([]byte, error) {
	sec, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), sec.key...), nil
}

func (s *Store) load(ctx context.Context) (*secrets, error) {
	if sec := s.cached.Load(); sec != nil {
		return sec, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if sec := s.cached.Load(); sec != nil {
		return sec, nil
	}

	data, err := s.backend.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrSecretUnavailable, err)
	}

	sec, err := parse(data)
	if err != nil {
		s.logger.Error(ctx, "secret file rejected", "error", err)
		return nil, err
	}

	s.cached.Store(sec)
	s.logger.Info(ctx, "secret file loaded")

	return sec, nil
}

func parse(data []byte) (*secrets, error) {
	f, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrSecretCorrupt, err)
	}
	if m := f.missing(); len(m) > 0 {
		return nil, fmt.Errorf("%w: missing %s", common.ErrSecretCorrupt, strings.Join(m, ", "))
	}

	key, err := base64.StdEncoding.DecodeString(f.SecretKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", common.ErrSecretCorrupt, KeySecretKey, common.ErrDecode)
	}
	if len(key) != common.SecretKeySize {
		return nil, fmt.Errorf("%w: %s is %d bytes", common.ErrSecretCorrupt, KeySecretKey, len(key))
	}

	location, err := cryptox.DecryptString(key, cryptox.EncryptedRecord{
		IV:         f.StorageLocationIV,
		Ciphertext: f.StorageLocation,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrSecretCorrupt, err)
	}
	if err := validateLocation(location); err != nil {
		return nil, fmt.Errorf("%w: decrypted location: %w", common.ErrSecretCorrupt, err)
	}

	return &secrets{key: key, location: location}, nil
}

// validateLocation accepts non-empty UTF-8 without control characters.
// Decrypted locations go through it because CTR decrypts under any key.
func validateLocation(location string) error {
	if location == "" {
		return errors.New("empty storage location")
	}
	if !utf8.ValidString(location) {
		return errors.New("storage location is not valid UTF-8")
	}
	if strings.IndexFunc(location, unicode.IsControl) >= 0 {
		return errors.New("storage location contains control characters")
	}
	return nil
}
