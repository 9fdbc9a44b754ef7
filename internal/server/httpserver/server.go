// Package httpserver exposes sign-in and the guarded admin routes over HTTP
// using gin.
package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/studentvault/internal/logging"
	"github.com/dmitrijs2005/studentvault/internal/server/authgate"
	"github.com/gin-gonic/gin"
)

// Authenticator checks admin credentials.
type Authenticator interface {
	SignIn(ctx context.Context, email, password string) (string, error)
}

type HTTPServer struct {
	address  string
	auth     Authenticator
	gate     *authgate.Gate
	validity time.Duration
	logger   logging.Logger
	engine   *gin.Engine
}

// New builds the router. validity is the cookie lifetime and should match
// the token lifetime.
func New(address string, a Authenticator, g *authgate.Gate, validity time.Duration, l logging.Logger) *HTTPServer {
	s := &HTTPServer{
		address:  address,
		auth:     a,
		gate:     g,
		validity: validity,
		logger:   l.With("module", "http_server"),
	}
	s.engine = s.routes()
	return s
}

func (s *HTTPServer) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), requestLogger(s.logger))

	r.GET("/healthz", s.healthz)
	r.POST("/sign_in", s.signIn)

	guarded := r.Group("/", s.gate.Middleware())
	guarded.GET("/whoami", s.whoami)

	return r
}

// Handler returns the router.
func (s *HTTPServer) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
