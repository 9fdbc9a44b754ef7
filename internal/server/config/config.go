// Package config handles configuration for the server component,
// including defaults, JSON overlay, and command-line flags.
package config

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/studentvault/internal/common"
	"github.com/dmitrijs2005/studentvault/internal/cryptox"
	"golang.org/x/crypto/bcrypt"
)

// ConfigEnvVar names the environment variable holding the JSON config path
// when neither -c nor -config is given.
const ConfigEnvVar = "STUDENTVAULT_CONFIG"

// Secret backends.
const (
	SecretBackendFile = "file"
	SecretBackendS3   = "s3"
)

// Config holds runtime settings for the studentvault server.
//
// StorageLocation is only read when the secret file is (re)initialized;
// afterwards the location is recovered from the secret file.
type Config struct {
	EndpointAddrHTTP string
	EndpointAddrGRPC string
	LogLevel         string

	SecretBackend   string
	SecretFilePath  string
	StorageLocation string
	ReuseSecrets    bool

	S3AccessKey    string
	S3SecretKey    string
	S3Bucket       string
	S3ObjectKey    string
	S3Region       string
	S3BaseEndpoint string

	TokenValidityDuration time.Duration

	PasswordAlgorithm string
	BcryptCost        int
	Argon2            cryptox.Argon2Params

	BootstrapAdminName     string
	BootstrapAdminEmail    string
	BootstrapAdminPassword string
}

// LoadDefaults populates Config with development defaults.
func (c *Config) LoadDefaults() {
	c.EndpointAddrHTTP = ":5000"
	c.EndpointAddrGRPC = ":50051"
	c.LogLevel = "info"
	c.SecretBackend = SecretBackendFile
	c.SecretFilePath = "variables.txt"
	c.StorageLocation = "students.db"
	c.ReuseSecrets = false
	c.S3Bucket = "studentvault"
	c.S3ObjectKey = "variables.txt"
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
	c.TokenValidityDuration = common.DefaultTokenValidity
	c.PasswordAlgorithm = string(cryptox.AlgorithmBcrypt)
	c.BcryptCost = bcrypt.DefaultCost
	c.Argon2 = cryptox.DefaultArgon2Params
}

// Validate reports settings the server cannot start with.
func (c *Config) Validate() error {
	switch c.SecretBackend {
	case SecretBackendFile:
		if c.SecretFilePath == "" {
			return fmt.Errorf("%w: secret file path is empty", common.ErrValidation)
		}
	case SecretBackendS3:
		if c.S3Bucket == "" || c.S3ObjectKey == "" {
			return fmt.Errorf("%w: s3 secret backend needs bucket and object key", common.ErrValidation)
		}
	default:
		return fmt.Errorf("%w: unknown secret backend %q", common.ErrValidation, c.SecretBackend)
	}
	if c.TokenValidityDuration <= 0 {
		return fmt.Errorf("%w: token validity must be positive", common.ErrValidation)
	}
	if !c.ReuseSecrets && c.StorageLocation == "" {
		return fmt.Errorf("%w: storage location is required to initialize secrets", common.ErrValidation)
	}
	if (c.BootstrapAdminEmail == "") != (c.BootstrapAdminPassword == "") {
		return fmt.Errorf("%w: bootstrap admin needs both email and password", common.ErrValidation)
	}
	return nil
}

// HasherOptions translates the password settings into cryptox options.
func (c *Config) HasherOptions() []cryptox.HasherOption {
	return []cryptox.HasherOption{
		cryptox.WithAlgorithm(cryptox.Algorithm(c.PasswordAlgorithm)),
		cryptox.WithBcryptCost(c.BcryptCost),
		cryptox.WithArgon2Params(c.Argon2),
	}
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
