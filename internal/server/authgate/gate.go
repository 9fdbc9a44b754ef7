// Package authgate guards protected operations with a bearer token check.
//
// The same Gate backs the gin middleware and the gRPC interceptor. Every
// token failure is reported to the caller as one unauthorized outcome; the
// specific reason is logged and dropped. Secret store failures are reported
// as the service being unavailable.
package authgate

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/studentvault/internal/common"
	"github.com/dmitrijs2005/studentvault/internal/logging"
	"github.com/dmitrijs2005/studentvault/internal/server/models"
)

// Verifier checks a raw token.
type Verifier interface {
	Verify(ctx context.Context, token string) (*models.Identity, error)
}

type Gate struct {
	verifier Verifier
	logger   logging.Logger
}

func New(v Verifier, l logging.Logger) *Gate {
	return &Gate{
		verifier: v,
		logger:   l.With("module", "authgate"),
	}
}

// Authorize checks an Authorization header value. The value must start with
// the exact "Bearer " marker and carry a token; otherwise
// ErrMissingCredential is returned and the verifier is not consulted.
func (g *Gate) Authorize(ctx context.Context, header string) (*models.Identity, error) {
	token, ok := strings.CutPrefix(header, common.BearerPrefix)
	if !ok || strings.TrimSpace(token) == "" {
		return nil, common.ErrMissingCredential
	}
	return g.verifier.Verify(ctx, token)
}

// reject logs why a request was turned away.
func (g *Gate) reject(ctx context.Context, target string, err error) {
	if common.IsSecretFailure(err) {
		g.logger.Error(ctx, "auth check could not run", "target", target, "error", err)
		return
	}
	g.logger.Warn(ctx, "request rejected", "target", target, "reason", err)
}

type ctxKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id *models.Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// IdentityFromContext returns the identity attached by the gate, if any.
func IdentityFromContext(ctx context.Context) (*models.Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(*models.Identity)
	return id, ok && id != nil
}
