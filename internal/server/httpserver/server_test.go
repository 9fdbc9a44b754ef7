package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/studentvault/internal/common"
	"github.com/dmitrijs2005/studentvault/internal/logging"
	"github.com/dmitrijs2005/studentvault/internal/server/auth"
	"github.com/dmitrijs2005/studentvault/internal/server/authgate"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type staticKey []byte

func (k staticKey) SigningKey(context.Context) ([]byte, error) {
	return append([]byte(nil), k...), nil
}

// fakeAuth signs in patrick012@ncistaff.com / s3cret only.
type fakeAuth struct {
	tokens *auth.TokenService
	err    error
}

func (f *fakeAuth) SignIn(ctx context.Context, email, password string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if email == "" || password == "" {
		return "", common.ErrValidation
	}
	if email != "patrick012@ncistaff.com" || password != "s3cret" {
		return "", common.ErrInvalidCredentials
	}
	return f.tokens.Mint(ctx, email)
}

func newTestServer(t *testing.T, authErr error) *HTTPServer {
	t.Helper()
	tokens := auth.NewTokenService(staticKey(strings.Repeat("k", common.SecretKeySize)))
	gate := authgate.New(tokens, logging.Nop())
	return New("127.0.0.1:0", &fakeAuth{tokens: tokens, err: authErr}, gate, time.Hour, logging.Nop())
}

func do(t *testing.T, h http.Handler, method, path, body string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestSignIn_ValidSetsCookie(t *testing.T) {
	s := newTestServer(t, nil)

	w := do(t, s.Handler(), http.MethodPost, "/sign_in", `{"email":"patrick012@ncistaff.com","password":"s3cret"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Admin logged in successfully", body["message"])
	require.NotEmpty(t, body["token"])

	cookie := w.Header().Get("Set-Cookie")
	assert.Contains(t, cookie, CookieName+"="+body["token"])
	assert.Contains(t, cookie, "HttpOnly")
	assert.Contains(t, cookie, "Secure")
	assert.Contains(t, cookie, "SameSite=Strict")
	assert.Contains(t, cookie, "Max-Age=3600")
}

func TestSignIn_Errors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		authErr error
		code    int
		want    string
	}{
		{name: "missing password", body: `{"email":"patrick012@ncistaff.com"}`, code: http.StatusBadRequest, want: "Email and password are required"},
		{name: "not json", body: `email=x`, code: http.StatusBadRequest, want: "Email and password are required"},
		{name: "wrong password", body: `{"email":"patrick012@ncistaff.com","password":"nope"}`, code: http.StatusBadRequest, want: "Incorrect Credentials"},
		{name: "unknown email", body: `{"email":"ghost@ncistaff.com","password":"s3cret"}`, code: http.StatusBadRequest, want: "Incorrect Credentials"},
		{name: "internal", body: `{"email":"a","password":"b"}`, authErr: errors.New("db down"), code: http.StatusInternalServerError, want: "Internal Server Error"},
		{name: "secret", body: `{"email":"a","password":"b"}`, authErr: common.ErrSecretCorrupt, code: http.StatusServiceUnavailable, want: "Service Unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, tt.authErr)
			w := do(t, s.Handler(), http.MethodPost, "/sign_in", tt.body, nil)

			assert.Equal(t, tt.code, w.Code)
			assert.JSONEq(t, `{"error":"`+tt.want+`"}`, w.Body.String())
			assert.Empty(t, w.Header().Get("Set-Cookie"))
		})
	}
}

func TestWhoAmI(t *testing.T) {
	s := newTestServer(t, nil)

	w := do(t, s.Handler(), http.MethodPost, "/sign_in", `{"email":"patrick012@ncistaff.com","password":"s3cret"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var signed map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &signed))

	w = do(t, s.Handler(), http.MethodGet, "/whoami", "", http.Header{"Authorization": {"Bearer " + signed["token"]}})
	require.Equal(t, http.StatusOK, w.Code)

	var me map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &me))
	assert.Equal(t, "patrick012@ncistaff.com", me["email"])
	assert.NotEmpty(t, me["expires_at"])

	w = do(t, s.Handler(), http.MethodGet, "/whoami", "", http.Header{"Authorization": {"Basic abc"}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Unauthorised"}`, w.Body.String())
}

func TestHealthzAndRequestID(t *testing.T) {
	s := newTestServer(t, nil)

	w := do(t, s.Handler(), http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	w = do(t, s.Handler(), http.MethodGet, "/healthz", "", http.Header{RequestIDHeader: {"abc-123"}})
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	s := newTestServer(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop after context cancel")
	}
}

func TestRun_BadAddress(t *testing.T) {
	tokens := auth.NewTokenService(staticKey("k"))
	s := New("127.0.0.1:99999", &fakeAuth{}, authgate.New(tokens, logging.Nop()), time.Hour, logging.Nop())

	assert.Error(t, s.Run(context.Background()))
}
