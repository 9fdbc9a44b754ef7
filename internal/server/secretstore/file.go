package secretstore

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/studentvault/internal/common"
)

// Keys of the secret file. The names are kept from the first deployments so
// existing files stay readable.
const (
	KeyStorageLocation   = "DATABASE_ROUTE"
	KeyStorageLocationIV = "DATABASE_IV"
	KeySecretKey         = "SECRET_KEY"
)

// File is the decoded content of the secret file. All values are base64
// text exactly as stored.
type File struct {
	StorageLocation   string
	StorageLocationIV string
	SecretKey         string
}

// Encode renders f as newline-delimited KEY=VALUE lines in a fixed order.
func Encode(f File) ([]byte, error) {
	var buf bytes.Buffer
	for _, kv := range [][2]string{
		{KeyStorageLocation, f.StorageLocation},
		{KeyStorageLocationIV, f.StorageLocationIV},
		{KeySecretKey, f.SecretKey},
	} {
		if err := writeLine(&buf, kv[0], kv[1]); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func writeLine(buf *bytes.Buffer, key, value string) error {
	if key == "" || strings.ContainsAny(key, "=\r\n") {
		return fmt.Errorf("%w: key %q", common.ErrInvalidSecretFile, key)
	}
	if strings.ContainsAny(value, "\r\n") {
		return fmt.Errorf("%w: value of %s contains a newline", common.ErrInvalidSecretFile, key)
	}
	buf.WriteString(key)
	buf.WriteByte('=')
	buf.WriteString(value)
	buf.WriteByte('\n')
	return nil
}

// Decode parses KEY=VALUE lines. Each line is split at its first '=' so
// base64 padding survives. Blank lines, lines without '=' and unknown keys
// are skipped; a later duplicate overrides an earlier one. Decode does not
// check that the required keys are present.
func Decode(data []byte) (File, error) {
	var f File

	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		key, value, ok := strings.Cut(strings.TrimSpace(sc.Text()), "=")
		if !ok {
			continue
		}
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)

		switch key {
		case KeyStorageLocation:
			f.StorageLocation = value
		case KeyStorageLocationIV:
			f.StorageLocationIV = value
		case KeySecretKey:
			f.SecretKey = value
		}
	}
	if err := sc.Err(); err != nil {
		return File{}, fmt.Errorf("%w: %v", common.ErrInvalidSecretFile, err)
	}

	return f, nil
}

func (f File) missing() []string {
	var m []string
	if f.StorageLocation == "" {
		m = append(m, KeyStorageLocation)
	}
	if f.StorageLocationIV == "" {
		m = append(m, KeyStorageLocationIV)
	}
	if f.SecretKey == "" {
		m = append(m, KeySecretKey)
	}
	return m
}
