package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/studentvault/internal/flagx"
)

var knownFlags = []string{
	"-a", "-g", "-l",
	"-secret-backend", "-f", "-d", "-reuse-secrets",
	"-s3-access-key", "-s3-secret-key", "-b", "-k", "-r", "-e",
	"-t",
	"-hash-algorithm", "-bcrypt-cost",
	"-admin-name", "-admin-email", "-admin-password",
}

// parseFlags populates Config fields from command-line flags.
//
// Supported flags:
//
//	-a string               HTTP bind address (e.g., ":5000")
//	-g string               gRPC bind address (e.g., ":50051")
//	-l string               log level
//	-secret-backend string  "file" or "s3"
//	-f string               secret file path (file backend)
//	-d string               storage location to encrypt on initialization
//	-reuse-secrets          keep the existing secret file instead of initializing
//	-s3-access-key string   S3 access key
//	-s3-secret-key string   S3 secret key
//	-b string               S3 bucket
//	-k string               S3 object key of the secret file
//	-r string               S3 region
//	-e string               S3 base endpoint
//	-t int                  token validity, minutes
//	-hash-algorithm string  "bcrypt" or "argon2id" for new password hashes
//	-bcrypt-cost int        bcrypt cost
//	-admin-name, -admin-email, -admin-password  bootstrap admin
//
// os.Args is first filtered with flagx.FilterArgs so that flags meant for
// the JSON loader do not make parsing fail.
func parseFlags(config *Config) error {
	args := flagx.FilterArgs(os.Args[1:], knownFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "HTTP address and port to run server")
	fs.StringVar(&config.EndpointAddrGRPC, "g", config.EndpointAddrGRPC, "gRPC address and port to run server")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	fs.StringVar(&config.SecretBackend, "secret-backend", config.SecretBackend, "secret backend (file, s3)")
	fs.StringVar(&config.SecretFilePath, "f", config.SecretFilePath, "secret file path")
	fs.StringVar(&config.StorageLocation, "d", config.StorageLocation, "storage location")
	fs.BoolVar(&config.ReuseSecrets, "reuse-secrets", config.ReuseSecrets, "reuse the existing secret file")

	fs.StringVar(&config.S3AccessKey, "s3-access-key", config.S3AccessKey, "S3 access key")
	fs.StringVar(&config.S3SecretKey, "s3-secret-key", config.S3SecretKey, "S3 secret key")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3ObjectKey, "k", config.S3ObjectKey, "S3 object key")
	fs.StringVar(&config.S3Region, "r", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	tokenValidity := fs.Int("t", int(config.TokenValidityDuration.Minutes()), "token validity (in minutes)")

	fs.StringVar(&config.PasswordAlgorithm, "hash-algorithm", config.PasswordAlgorithm, "password hash algorithm (bcrypt, argon2id)")
	fs.IntVar(&config.BcryptCost, "bcrypt-cost", config.BcryptCost, "bcrypt cost")

	fs.StringVar(&config.BootstrapAdminName, "admin-name", config.BootstrapAdminName, "bootstrap admin name")
	fs.StringVar(&config.BootstrapAdminEmail, "admin-email", config.BootstrapAdminEmail, "bootstrap admin email")
	fs.StringVar(&config.BootstrapAdminPassword, "admin-password", config.BootstrapAdminPassword, "bootstrap admin password")

	if err := fs.Parse(args); err != nil {
		return err
	}

	// -t only counts when given; its default would round a JSON duration
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "t" {
			config.TokenValidityDuration = time.Duration(*tokenValidity) * time.Minute
		}
	})
	return nil
}
