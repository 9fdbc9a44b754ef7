package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/studentvault/internal/flagx"
	"github.com/dmitrijs2005/studentvault/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Durations accept
// "1h" style strings or integer nanoseconds. Pointer fields distinguish
// "absent" from a zero value.
type JsonConfig struct {
	EndpointAddrHTTP string `json:"endpoint_addr_http"`
	EndpointAddrGRPC string `json:"endpoint_addr_grpc"`
	LogLevel         string `json:"log_level"`

	SecretBackend   string `json:"secret_backend"`
	SecretFilePath  string `json:"secret_file_path"`
	StorageLocation string `json:"storage_location"`
	ReuseSecrets    *bool  `json:"reuse_secrets"`

	S3AccessKey    string `json:"s3_access_key"`
	S3SecretKey    string `json:"s3_secret_key"`
	S3Bucket       string `json:"s3_bucket"`
	S3ObjectKey    string `json:"s3_object_key"`
	S3Region       string `json:"s3_region"`
	S3BaseEndpoint string `json:"s3_base_endpoint"`

	TokenValidityDuration *timex.Duration `json:"token_validity_duration"`

	PasswordAlgorithm string      `json:"password_algorithm"`
	BcryptCost        int         `json:"bcrypt_cost"`
	Argon2            *jsonArgon2 `json:"argon2"`

	BootstrapAdminName     string `json:"bootstrap_admin_name"`
	BootstrapAdminEmail    string `json:"bootstrap_admin_email"`
	BootstrapAdminPassword string `json:"bootstrap_admin_password"`
}

type jsonArgon2 struct {
	Memory     uint32 `json:"memory_kib"`
	Iterations uint32 `json:"iterations"`
	Threads    uint8  `json:"threads"`
	SaltLength uint32 `json:"salt_length"`
	KeyLength  uint32 `json:"key_length"`
}

// parseJson overlays values from the JSON file named by -c/-config or
// STUDENTVAULT_CONFIG onto config. Keys missing from the file leave the
// current value alone.
func parseJson(config *Config) error {
	path := flagx.ConfigPath(ConfigEnvVar)

	// nothing to load
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	c.apply(config)
	return nil
}

func (c *JsonConfig) apply(config *Config) {
	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.LogLevel, c.LogLevel)

	setString(&config.SecretBackend, c.SecretBackend)
	setString(&config.SecretFilePath, c.SecretFilePath)
	setString(&config.StorageLocation, c.StorageLocation)
	if c.ReuseSecrets != nil {
		config.ReuseSecrets = *c.ReuseSecrets
	}

	setString(&config.S3AccessKey, c.S3AccessKey)
	setString(&config.S3SecretKey, c.S3SecretKey)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3ObjectKey, c.S3ObjectKey)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)

	if c.TokenValidityDuration != nil {
		config.TokenValidityDuration = c.TokenValidityDuration.Duration
	}

	setString(&config.PasswordAlgorithm, c.PasswordAlgorithm)
	if c.BcryptCost != 0 {
		config.BcryptCost = c.BcryptCost
	}
	if a := c.Argon2; a != nil {
		setNonZero(&config.Argon2.Memory, a.Memory)
		setNonZero(&config.Argon2.Iterations, a.Iterations)
		setNonZero(&config.Argon2.Threads, a.Threads)
		setNonZero(&config.Argon2.SaltLength, a.SaltLength)
		setNonZero(&config.Argon2.KeyLength, a.KeyLength)
	}

	setString(&config.BootstrapAdminName, c.BootstrapAdminName)
	setString(&config.BootstrapAdminEmail, c.BootstrapAdminEmail)
	setString(&config.BootstrapAdminPassword, c.BootstrapAdminPassword)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setNonZero[T uint8 | uint32](dst *T, v T) {
	if v != 0 {
		*dst = v
	}
}
