package adminctl

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dmitrijs2005/studentvault/internal/cryptox"
	"github.com/dmitrijs2005/studentvault/internal/logging"
	"github.com/dmitrijs2005/studentvault/internal/server"
	"github.com/dmitrijs2005/studentvault/internal/server/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func run(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code := Run(context.Background(), args, strings.NewReader(stdin), &out, &errOut)
	return code, out.String(), errOut.String()
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	line := lines[len(lines)-1]
	if i := strings.LastIndex(line, ": "); i >= 0 {
		line = line[i+2:]
	}
	return line
}

func TestRun_Usage(t *testing.T) {
	code, _, errOut := run(t, "")
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, "usage: adminctl")

	code, _, errOut = run(t, "", "frobnicate")
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, `unknown command "frobnicate"`)

	code, out, _ := run(t, "", "help")
	assert.Zero(t, code)
	assert.Contains(t, out, "commands:")
}

func TestHashThenCheck(t *testing.T) {
	for _, alg := range []string{"bcrypt", "argon2id"} {
		t.Run(alg, func(t *testing.T) {
			code, out, errOut := run(t, "s3cret\ns3cret\n", "hash", "-algorithm", alg)
			require.Zero(t, code, errOut)

			encoded := lastLine(out)
			ok, err := cryptox.VerifyPassword("s3cret", encoded)
			require.NoError(t, err)
			assert.True(t, ok)

			code, out, _ = run(t, "s3cret\n", "check", "-hash", encoded)
			assert.Zero(t, code)
			assert.Contains(t, out, "match")

			code, out, _ = run(t, "wrong\n", "check", "-hash", encoded)
			assert.Equal(t, 1, code)
			assert.Contains(t, out, "mismatch")
		})
	}
}

func TestHash_Errors(t *testing.T) {
	code, _, errOut := run(t, "a\nb\n", "hash")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "passwords do not match")

	code, _, errOut = run(t, "a\na\n", "hash", "-algorithm", "md5")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "unknown password algorithm")
}

func TestCheck_CorruptHash(t *testing.T) {
	code, _, errOut := run(t, "pw\n", "check", "-hash", "$2a$1")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "corrupt credential hash")

	code, _, _ = run(t, "pw\n", "check")
	assert.Equal(t, 1, code)
}

func TestCreate(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.SecretFilePath = filepath.Join(dir, "variables.txt")
	cfg.StorageLocation = filepath.Join(dir, "students.db")
	cfg.BcryptCost = bcrypt.MinCost

	store, err := server.NewSecretStore(context.Background(), cfg, logging.Nop())
	require.NoError(t, err)
	require.NoError(t, store.Initialize(context.Background()))

	orig := loadConfig
	loadConfig = func() (*config.Config, error) { c := *cfg; return &c, nil }
	t.Cleanup(func() { loadConfig = orig })

	code, out, errOut := run(t, "password\npassword\n", "create", "-name", "Patrick Yeats", "-email", "patrick012@ncistaff.com")
	require.Zero(t, code, errOut)
	assert.Contains(t, out, "<patrick012@ncistaff.com>")

	code, _, errOut = run(t, "password\npassword\n", "create", "-name", "Again", "-email", "patrick012@ncistaff.com")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "already exists")

	code, _, _ = run(t, "", "create", "-name", "No Email")
	assert.Equal(t, 1, code)
}

func TestCreate_WithoutSecretFile(t *testing.T) {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.SecretFilePath = filepath.Join(t.TempDir(), "absent.txt")

	orig := loadConfig
	loadConfig = func() (*config.Config, error) { return cfg, nil }
	t.Cleanup(func() { loadConfig = orig })

	code, _, errOut := run(t, "pw\npw\n", "create", "-name", "a", "-email", "a@b.c")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "secret unavailable")
}

func TestCreate_AcceptsConfigFlags(t *testing.T) {
	dir := t.TempDir()
	secretPath := filepath.Join(dir, "variables.txt")

	cfgPath := filepath.Join(dir, "cfg.json")
	b, err := json.Marshal(map[string]any{
		"secret_file_path": secretPath,
		"storage_location": filepath.Join(dir, "students.db"),
		"bcrypt_cost":      bcrypt.MinCost,
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(cfgPath, b, 0o600))

	seed := &config.Config{}
	seed.LoadDefaults()
	seed.SecretFilePath = secretPath
	seed.StorageLocation = filepath.Join(dir, "students.db")
	store, err := server.NewSecretStore(context.Background(), seed, logging.Nop())
	require.NoError(t, err)
	require.NoError(t, store.Initialize(context.Background()))

	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	t.Setenv(config.ConfigEnvVar, "")
	os.Args = []string{"adminctl", "create", "-c", cfgPath, "-name", "Patrick Yeats", "-email", "patrick012@ncistaff.com", "-l", "debug"}

	code, out, errOut := run(t, "password\npassword\n", os.Args[1:]...)
	require.Zero(t, code, errOut)
	assert.Contains(t, out, "<patrick012@ncistaff.com>")
}
