// Package server wires the secret store, database, token service and the
// HTTP and gRPC transports into one application and runs it until a
// termination signal arrives.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/studentvault/internal/common"
	"github.com/dmitrijs2005/studentvault/internal/cryptox"
	"github.com/dmitrijs2005/studentvault/internal/dbx"
	"github.com/dmitrijs2005/studentvault/internal/logging"
	"github.com/dmitrijs2005/studentvault/internal/server/auth"
	"github.com/dmitrijs2005/studentvault/internal/server/authgate"
	"github.com/dmitrijs2005/studentvault/internal/server/config"
	"github.com/dmitrijs2005/studentvault/internal/server/httpserver"
	"github.com/dmitrijs2005/studentvault/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/studentvault/internal/server/secretstore"
	"github.com/dmitrijs2005/studentvault/internal/server/services"

	gs "github.com/dmitrijs2005/studentvault/internal/server/grpc"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	secrets *secretstore.Store
	db      *sql.DB
	tokens  *auth.TokenService
	gate    *authgate.Gate
	auth    *services.AuthService
}

// NewSecretStore returns a store over the backend selected in c.
func NewSecretStore(ctx context.Context, c *config.Config, l logging.Logger) (*secretstore.Store, error) {
	var backend secretstore.Backend
	switch c.SecretBackend {
	case config.SecretBackendS3:
		b, err := secretstore.NewS3Backend(ctx, secretstore.S3Options{
			AccessKey:    c.S3AccessKey,
			SecretKey:    c.S3SecretKey,
			Region:       c.S3Region,
			BaseEndpoint: c.S3BaseEndpoint,
			Bucket:       c.S3Bucket,
			ObjectKey:    c.S3ObjectKey,
		})
		if err != nil {
			return nil, err
		}
		backend = b
	default:
		backend = secretstore.NewFileBackend(c.SecretFilePath)
	}
	return secretstore.New(backend, c.StorageLocation, l), nil
}

// OpenDatabase opens the database at the location held by the secret store
// and brings its schema up to date.
func OpenDatabase(ctx context.Context, s *secretstore.Store) (*sql.DB, repomanager.RepositoryManager, error) {
	location, err := s.StorageLocation(ctx)
	if err != nil {
		return nil, nil, err
	}

	db, dialect, err := dbx.Open(ctx, location)
	if err != nil {
		return nil, nil, fmt.Errorf("db init error: %w", err)
	}

	m, err := repomanager.New(dialect)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	if err := m.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("migrations: %w", err)
	}

	return db, m, nil
}

// NewApp prepares every dependency. Unless c.ReuseSecrets is set the secret
// file is initialized first, which invalidates tokens minted under the
// previous key.
func NewApp(ctx context.Context, c *config.Config, l logging.Logger) (*App, error) {
	secrets, err := NewSecretStore(ctx, c, l)
	if err != nil {
		return nil, err
	}

	if !c.ReuseSecrets {
		if err := secrets.Initialize(ctx); err != nil {
			return nil, fmt.Errorf("initialize secrets: %w", err)
		}
	}

	db, m, err := OpenDatabase(ctx, secrets)
	if err != nil {
		return nil, err
	}

	hasher, err := cryptox.NewPasswordHasher(c.HasherOptions()...)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	tokens := auth.NewTokenService(secrets, auth.WithValidity(c.TokenValidityDuration))
	authService, err := services.NewAuthService(db, m, hasher, tokens, l)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	app := &App{
		config:  c,
		logger:  l,
		secrets: secrets,
		db:      db,
		tokens:  tokens,
		gate:    authgate.New(tokens, l),
		auth:    authService,
	}

	if err := app.seedAdmin(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return app, nil
}

func (app *App) seedAdmin(ctx context.Context) error {
	c := app.config
	if c.BootstrapAdminEmail == "" {
		return nil
	}

	name := c.BootstrapAdminName
	if name == "" {
		name = c.BootstrapAdminEmail
	}

	_, err := app.auth.CreateAdmin(ctx, name, c.BootstrapAdminEmail, c.BootstrapAdminPassword)
	if errors.Is(err, common.ErrAlreadyExists) {
		app.logger.Info(ctx, "bootstrap admin already present", "email", c.BootstrapAdminEmail)
		return nil
	}
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	return nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves HTTP and gRPC until ctx is cancelled, a signal arrives or one
// of the servers fails. The first server error is returned.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	runners := []interface{ Run(context.Context) error }{
		httpserver.New(app.config.EndpointAddrHTTP, app.auth, app.gate, app.tokens.Validity(), app.logger),
		gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.auth, app.gate),
	}

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	for _, r := range runners {
		r := r
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := r.Run(ctx); err != nil {
				app.logger.Error(ctx, "server failed", "error", err)
				once.Do(func() { firstErr = err })
				cancelFunc()
			}
		}()
	}

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "closing database", "error", err)
	}
	app.logger.Info(ctx, "App stopped")

	return firstErr
}
