package authgate

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/studentvault/internal/common"
	"github.com/dmitrijs2005/studentvault/internal/logging"
	"github.com/dmitrijs2005/studentvault/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeVerifier accepts "good" and fails everything else with err.
type fakeVerifier struct {
	calls int
	err   error
}

func (f *fakeVerifier) Verify(_ context.Context, token string) (*models.Identity, error) {
	f.calls++
	if token == "good" {
		return &models.Identity{Email: "patrick012@ncistaff.com", ExpiresAt: time.Now().Add(time.Hour), TokenID: "t1"}, nil
	}
	if f.err != nil {
		return nil, f.err
	}
	return nil, common.ErrInvalidSignature
}

func TestAuthorize_RejectsBeforeVerifier(t *testing.T) {
	for _, header := range []string{"", "Basic abc", "bearer good", "Bearer", "Bearer ", "Bearer   ", "Token good", " Bearer good"} {
		t.Run(header, func(t *testing.T) {
			v := &fakeVerifier{}
			g := New(v, logging.Nop())

			id, err := g.Authorize(context.Background(), header)
			assert.ErrorIs(t, err, common.ErrMissingCredential)
			assert.Nil(t, id)
			assert.Zero(t, v.calls)
		})
	}
}

func TestAuthorize_PassesTokenToVerifier(t *testing.T) {
	v := &fakeVerifier{}
	g := New(v, logging.Nop())

	id, err := g.Authorize(context.Background(), "Bearer good")
	require.NoError(t, err)
	assert.Equal(t, "patrick012@ncistaff.com", id.Email)
	assert.Equal(t, 1, v.calls)

	_, err = g.Authorize(context.Background(), "Bearer bad")
	assert.ErrorIs(t, err, common.ErrInvalidSignature)
	assert.Equal(t, 2, v.calls)
}

func TestIdentityContext(t *testing.T) {
	_, ok := IdentityFromContext(context.Background())
	assert.False(t, ok)

	want := &models.Identity{Email: "a@b.c"}
	got, ok := IdentityFromContext(WithIdentity(context.Background(), want))
	require.True(t, ok)
	assert.Same(t, want, got)

	_, ok = IdentityFromContext(WithIdentity(context.Background(), nil))
	assert.False(t, ok)
}

func TestAuthorize_SecretFailurePropagates(t *testing.T) {
	g := New(&fakeVerifier{err: common.ErrSecretCorrupt}, logging.Nop())

	_, err := g.Authorize(context.Background(), "Bearer bad")
	assert.True(t, common.IsSecretFailure(err))
}
