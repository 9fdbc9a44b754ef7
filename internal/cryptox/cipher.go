// Package cryptox implements the symmetric cipher used for secret values at
// rest and the password hashing used for administrator credentials.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"fmt"

	"github.com/dmitrijs2005/studentvault/internal/common"
)

// IVSize is the length of the AES-CTR initialization vector.
const IVSize = aes.BlockSize

// EncryptedRecord is an IV and ciphertext pair, each base64 encoded so it
// can be stored as text.
type EncryptedRecord struct {
	IV         string
	Ciphertext string
}

// Encrypt encrypts plaintext with AES in CTR mode under key.
//
// A fresh 16-byte IV is read from crypto/rand on every call and returned
// next to the ciphertext; the caller must store both. The key must be 16,
// 24 or 32 bytes long (AES-128, AES-192, AES-256).
//
// CTR provides no integrity: decrypting with the wrong key or IV yields
// garbage rather than an error.
func Encrypt(key, plaintext []byte) (iv, ciphertext []byte, err error) {
	block, err := newBlock(key)
	if err != nil {
		return nil, nil, err
	}

	iv, err = common.GenerateRandByteArray(IVSize)
	if err != nil {
		return nil, nil, err
	}

	ciphertext = make([]byte, len(plaintext))
	cipher.NewCTR(block, iv).XORKeyStream(ciphertext, plaintext)

	return iv, ciphertext, nil
}

// Decrypt reverses Encrypt for the given key and IV.
func Decrypt(key, ciphertext, iv []byte) ([]byte, error) {
	block, err := newBlock(key)
	if err != nil {
		return nil, err
	}
	if len(iv) != IVSize {
		return nil, fmt.Errorf("%w: got %d bytes", common.ErrInvalidIV, len(iv))
	}

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCTR(block, iv).XORKeyStream(plaintext, ciphertext)

	return plaintext, nil
}

// EncryptString encrypts the UTF-8 bytes of text and base64 encodes the
// result.
func EncryptString(key []byte, text string) (EncryptedRecord, error) {
	iv, ciphertext, err := Encrypt(key, []byte(text))
	if err != nil {
		return EncryptedRecord{}, err
	}
	return EncryptedRecord{
		IV:         base64.StdEncoding.EncodeToString(iv),
		Ciphertext: base64.StdEncoding.EncodeToString(ciphertext),
	}, nil
}

// DecryptString decodes and decrypts rec. Malformed base64 in either field
// yields common.ErrDecode. The result is not validated; callers decide what
// a well-formed plaintext looks like.
func DecryptString(key []byte, rec EncryptedRecord) (string, error) {
	iv, err := base64.StdEncoding.DecodeString(rec.IV)
	if err != nil {
		return "", fmt.Errorf("%w: iv: %v", common.ErrDecode, err)
	}
	ciphertext, err := base64.StdEncoding.DecodeString(rec.Ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: ciphertext: %v", common.ErrDecode, err)
	}

	plaintext, err := Decrypt(key, ciphertext, iv)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

func newBlock(key []byte) (cipher.Block, error) {
	switch len(key) {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: got %d bytes", common.ErrInvalidKey, len(key))
	}
	return aes.NewCipher(key)
}
