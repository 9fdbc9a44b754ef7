package cryptox

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/studentvault/internal/common"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// Algorithm names a password hashing scheme.
type Algorithm string

const (
	AlgorithmBcrypt   Algorithm = "bcrypt"
	AlgorithmArgon2id Algorithm = "argon2id"
)

const argon2idPrefix = "$argon2id$"

// Argon2Params tunes Argon2id. Memory is in KiB.
type Argon2Params struct {
	Memory     uint32
	Iterations uint32
	Threads    uint8
	SaltLength uint32
	KeyLength  uint32
}

// DefaultArgon2Params is one pass over 64 MiB with four lanes.
var DefaultArgon2Params = Argon2Params{
	Memory:     64 * 1024,
	Iterations: 1,
	Threads:    4,
	SaltLength: 16,
	KeyLength:  32,
}

// PasswordHasher produces salted, self-describing password hashes. The salt
// and cost parameters are embedded in the output, so VerifyPassword needs
// nothing but the blob.
type PasswordHasher struct {
	algorithm  Algorithm
	bcryptCost int
	argon2     Argon2Params
}

type HasherOption func(*PasswordHasher)

func WithAlgorithm(a Algorithm) HasherOption {
	return func(h *PasswordHasher) { h.algorithm = a }
}

func WithBcryptCost(cost int) HasherOption {
	return func(h *PasswordHasher) { h.bcryptCost = cost }
}

func WithArgon2Params(p Argon2Params) HasherOption {
	return func(h *PasswordHasher) { h.argon2 = p }
}

// NewPasswordHasher returns a bcrypt hasher at bcrypt.DefaultCost unless the
// options say otherwise.
func NewPasswordHasher(opts ...HasherOption) (*PasswordHasher, error) {
	h := &PasswordHasher{
		algorithm:  AlgorithmBcrypt,
		bcryptCost: bcrypt.DefaultCost,
		argon2:     DefaultArgon2Params,
	}
	for _, o := range opts {
		o(h)
	}

	switch h.algorithm {
	case AlgorithmBcrypt:
		if h.bcryptCost < bcrypt.MinCost || h.bcryptCost > bcrypt.MaxCost {
			return nil, fmt.Errorf("%w: bcrypt cost %d out of range [%d, %d]",
				common.ErrValidation, h.bcryptCost, bcrypt.MinCost, bcrypt.MaxCost)
		}
	case AlgorithmArgon2id:
		if err := h.argon2.validate(); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: unknown password algorithm %q", common.ErrValidation, h.algorithm)
	}

	return h, nil
}

// Algorithm reports the scheme used for new hashes.
func (h *PasswordHasher) Algorithm() Algorithm { return h.algorithm }

// Hash returns the encoded hash of password with a freshly generated salt.
// Empty passwords are rejected with common.ErrValidation, and bcrypt rejects
// passwords longer than 72 bytes the same way.
func (h *PasswordHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("%w: empty password", common.ErrValidation)
	}

	if h.algorithm == AlgorithmArgon2id {
		return h.hashArgon2id(password)
	}

	b, err := bcrypt.GenerateFromPassword([]byte(password), h.bcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", fmt.Errorf("%w: %v", common.ErrValidation, err)
		}
		return "", fmt.Errorf("bcrypt: %w", err)
	}
	return string(b), nil
}

func (h *PasswordHasher) hashArgon2id(password string) (string, error) {
	p := h.argon2
	salt, err := common.GenerateRandByteArray(int(p.SaltLength))
	if err != nil {
		return "", err
	}
	key := argon2.IDKey([]byte(password), salt, p.Iterations, p.Memory, p.Threads, p.KeyLength)

	return fmt.Sprintf("%sv=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2idPrefix, argon2.Version, p.Memory, p.Iterations, p.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// VerifyPassword reports whether password matches the encoded hash.
//
// A wrong password is (false, nil); so is an empty one. A blob that cannot
// be parsed (truncated, unknown scheme, bad parameters) is
// common.ErrCorruptCredential. bcrypt and Argon2id blobs are recognized by
// their prefix; both comparisons run in constant time.
func VerifyPassword(password, encoded string) (bool, error) {
	switch {
	case strings.HasPrefix(encoded, argon2idPrefix):
		return verifyArgon2id(password, encoded)
	case strings.HasPrefix(encoded, "$2a$"), strings.HasPrefix(encoded, "$2b$"), strings.HasPrefix(encoded, "$2y$"):
		return verifyBcrypt(password, encoded)
	default:
		return false, fmt.Errorf("%w: unrecognized hash format", common.ErrCorruptCredential)
	}
}

func verifyBcrypt(password, encoded string) (bool, error) {
	if _, err := bcrypt.Cost([]byte(encoded)); err != nil {
		return false, fmt.Errorf("%w: %v", common.ErrCorruptCredential, err)
	}
	if password == "" {
		return false, nil
	}

	err := bcrypt.CompareHashAndPassword([]byte(encoded), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %v", common.ErrCorruptCredential, err)
	}
}

// verifyArgon2id expects $argon2id$v=19$m=<mem>,t=<iters>,p=<threads>$<salt>$<hash>
// with unpadded standard base64 for salt and hash.
func verifyArgon2id(password, encoded string) (bool, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false, fmt.Errorf("%w: argon2id: wrong number of fields", common.ErrCorruptCredential)
	}

	version, ok := strings.CutPrefix(parts[2], "v=")
	if !ok || version != strconv.Itoa(argon2.Version) {
		return false, fmt.Errorf("%w: argon2id: unsupported version %q", common.ErrCorruptCredential, parts[2])
	}

	p, err := parseArgon2Params(parts[3])
	if err != nil {
		return false, fmt.Errorf("%w: argon2id: %v", common.ErrCorruptCredential, err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return false, fmt.Errorf("%w: argon2id: bad salt", common.ErrCorruptCredential)
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(want) < 16 {
		return false, fmt.Errorf("%w: argon2id: bad hash", common.ErrCorruptCredential)
	}

	if password == "" {
		return false, nil
	}

	got := argon2.IDKey([]byte(password), salt, p.Iterations, p.Memory, p.Threads, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}

func parseArgon2Params(s string) (Argon2Params, error) {
	var p Argon2Params
	seen := 0
	for _, kv := range strings.Split(s, ",") {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return p, fmt.Errorf("bad parameter %q", kv)
		}
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return p, fmt.Errorf("bad parameter %q", kv)
		}
		switch k {
		case "m":
			p.Memory = uint32(n)
		case "t":
			p.Iterations = uint32(n)
		case "p":
			if n > 255 {
				return p, fmt.Errorf("parallelism %d too high", n)
			}
			p.Threads = uint8(n)
		default:
			return p, fmt.Errorf("unknown parameter %q", k)
		}
		seen++
	}
	if seen != 3 {
		return p, errors.New("expected m, t and p")
	}
	p.SaltLength, p.KeyLength = 16, 32
	return p, p.validate()
}

func (p Argon2Params) validate() error {
	switch {
	case p.Iterations < 1:
		return fmt.Errorf("%w: argon2 iterations must be at least 1", common.ErrValidation)
	case p.Threads < 1:
		return fmt.Errorf("%w: argon2 threads must be at least 1", common.ErrValidation)
	case p.Memory < 8*uint32(p.Threads):
		return fmt.Errorf("%w: argon2 memory must be at least 8 KiB per thread", common.ErrValidation)
	case p.SaltLength < 8:
		return fmt.Errorf("%w: argon2 salt must be at least 8 bytes", common.ErrValidation)
	case p.KeyLength < 16:
		return fmt.Errorf("%w: argon2 key must be at least 16 bytes", common.ErrValidation)
	}
	return nil
}
