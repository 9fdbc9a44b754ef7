package secretstore

import (
	"context"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/dmitrijs2005/studentvault/internal/common"
	"github.com/dmitrijs2005/studentvault/internal/cryptox"
	"github.com/dmitrijs2005/studentvault/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memBackend counts reads so tests can check caching.
type memBackend struct {
	mu       sync.Mutex
	data     []byte
	reads    atomic.Int32
	readErr  error
	writeErr error
}

func (m *memBackend) Read(context.Context) ([]byte, error) {
	m.reads.Add(1)
	if m.readErr != nil {
		return nil, m.readErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return nil, os.ErrNotExist
	}
	return append([]byte(nil), m.data...), nil
}

func (m *memBackend) Write(_ context.Context, data []byte) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = append([]byte(nil), data...)
	return nil
}

func (m *memBackend) Describe() string { return "mem" }

func TestStore_InitializeThenLookup(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "variables.txt")
	s := New(NewFileBackend(path), "students.db", logging.Nop())

	require.NoError(t, s.Initialize(ctx))

	loc, err := s.StorageLocation(ctx)
	require.NoError(t, err)
	assert.Equal(t, "students.db", loc)

	key, err := s.SigningKey(ctx)
	require.NoError(t, err)
	assert.Len(t, key, common.SecretKeySize)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "students.db", "location must be stored encrypted")
	assert.Contains(t, string(raw), KeySecretKey+"="+base64.StdEncoding.EncodeToString(key))
}

func TestStore_DurableAcrossRestart(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "variables.txt")

	first := New(NewFileBackend(path), "students.db", logging.Nop())
	require.NoError(t, first.Initialize(ctx))
	key1, err := first.SigningKey(ctx)
	require.NoError(t, err)

	restarted := New(NewFileBackend(path), "", logging.Nop())
	key2, err := restarted.SigningKey(ctx)
	require.NoError(t, err)
	assert.Equal(t, key1, key2)

	loc, err := restarted.StorageLocation(ctx)
	require.NoError(t, err)
	assert.Equal(t, "students.db", loc)
}

func TestStore_ReinitializeRotatesKey(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "variables.txt")

	s := New(NewFileBackend(path), "students.db", logging.Nop())
	require.NoError(t, s.Initialize(ctx))
	key1, err := s.SigningKey(ctx)
	require.NoError(t, err)

	again := New(NewFileBackend(path), "students.db", logging.Nop())
	require.NoError(t, again.Initialize(ctx))
	key2, err := again.SigningKey(ctx)
	require.NoError(t, err)

	assert.NotEqual(t, key1, key2)

	fresh := New(NewFileBackend(path), "", logging.Nop())
	key3, err := fresh.SigningKey(ctx)
	require.NoError(t, err)
	assert.Equal(t, key2, key3, "file holds the latest key")
}

func TestStore_MissingFileIsUnavailable(t *testing.T) {
	s := New(NewFileBackend(filepath.Join(t.TempDir(), "absent.txt")), "", logging.Nop())

	_, err := s.SigningKey(context.Background())
	assert.ErrorIs(t, err, common.ErrSecretUnavailable)
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = s.StorageLocation(context.Background())
	assert.ErrorIs(t, err, common.ErrSecretUnavailable)
}

func TestStore_WriteFailureIsUnavailable(t *testing.T) {
	s := New(&memBackend{writeErr: errors.New("disk full")}, "students.db", logging.Nop())

	err := s.Initialize(context.Background())
	assert.ErrorIs(t, err, common.ErrSecretUnavailable)
}

func TestStore_InitializeRejectsBadLocation(t *testing.T) {
	for _, loc := range []string{"", "bad\x00path"} {
		s := New(&memBackend{}, loc, logging.Nop())
		assert.ErrorIs(t, s.Initialize(context.Background()), common.ErrValidation)
	}
}

func validFile(t *testing.T, location string) (File, []byte) {
	t.Helper()
	key, err := common.GenerateRandByteArray(common.SecretKeySize)
	require.NoError(t, err)
	rec, err := cryptox.EncryptString(key, location)
	require.NoError(t, err)
	return File{
		StorageLocation:   rec.Ciphertext,
		StorageLocationIV: rec.IV,
		SecretKey:         base64.StdEncoding.EncodeToString(key),
	}, key
}

func TestStore_CorruptFiles(t *testing.T) {
	good, _ := validFile(t, "students.db")
	other, _ := validFile(t, "students.db")

	tests := []struct {
		name string
		data string
	}{
		{name: "empty", data: ""},
		{name: "missing iv", data: "DATABASE_ROUTE=" + good.StorageLocation + "\nSECRET_KEY=" + good.SecretKey + "\n"},
		{name: "key not base64", data: "DATABASE_ROUTE=" + good.StorageLocation + "\nDATABASE_IV=" + good.StorageLocationIV + "\nSECRET_KEY=@@@\n"},
		{name: "short key", data: "DATABASE_ROUTE=" + good.StorageLocation + "\nDATABASE_IV=" + good.StorageLocationIV + "\nSECRET_KEY=c2hvcnQ=\n"},
		{name: "route not base64", data: "DATABASE_ROUTE=###\nDATABASE_IV=" + good.StorageLocationIV + "\nSECRET_KEY=" + good.SecretKey + "\n"},
		{name: "short iv", data: "DATABASE_ROUTE=" + good.StorageLocation + "\nDATABASE_IV=aXY=\nSECRET_KEY=" + good.SecretKey + "\n"},
		{name: "mismatched key", data: "DATABASE_ROUTE=" + strings.Repeat("QUJD", 20) + "\nDATABASE_IV=" + good.StorageLocationIV + "\nSECRET_KEY=" + other.SecretKey + "\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(&memBackend{data: []byte(tt.data)}, "", logging.Nop())
			_, err := s.StorageLocation(context.Background())
			assert.ErrorIs(t, err, common.ErrSecretCorrupt)
		})
	}
}

func TestStore_FailedLoadIsNotCached(t *testing.T) {
	ctx := context.Background()
	b := &memBackend{}
	s := New(b, "", logging.Nop())

	_, err := s.SigningKey(ctx)
	require.ErrorIs(t, err, common.ErrSecretUnavailable)

	f, key := validFile(t, "students.db")
	data, err := Encode(f)
	require.NoError(t, err)
	require.NoError(t, b.Write(ctx, data))

	got, err := s.SigningKey(ctx)
	require.NoError(t, err)
	assert.Equal(t, key, got)
}

func TestStore_ConcurrentFirstLookupReadsOnce(t *testing.T) {
	f, key := validFile(t, "students.db")
	data, err := Encode(f)
	require.NoError(t, err)

	b := &memBackend{data: data}
	s := New(b, "", logging.Nop())

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := s.SigningKey(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, key, got)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), b.reads.Load())
}

func TestStore_SigningKeyReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := New(&memBackend{}, "students.db", logging.Nop())
	require.NoError(t, s.Initialize(ctx))

	k1, err := s.SigningKey(ctx)
	require.NoError(t, err)
	common.WipeByteArray(k1)

	k2, err := s.SigningKey(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, k1, k2)
}
