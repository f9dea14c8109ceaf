package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/sozercan/insight-gateway/internal/errors"
	"github.com/sozercan/insight-gateway/internal/logger"
)

type validatorFunc func(ctx context.Context, token string) (Identity, error)

func (f validatorFunc) Validate(ctx context.Context, token string) (Identity, error) {
	return f(ctx, token)
}

// identityEcho reports whether the handler ran and which identity it saw.
func identityEcho(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		identity, ok := IdentityFromContext(r.Context())
		if ok {
			w.Header().Set("X-User", identity["id"].(string))
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestGate(t *testing.T) {
	okValidator := validatorFunc(func(_ context.Context, token string) (Identity, error) {
		if token != "good" {
			return nil, apperrors.NewUnauthenticatedError(apperrors.MsgInvalidToken, "bad token")
		}
		return Identity{"id": "u1"}, nil
	})

	tests := []struct {
		name       string
		validator  Validator
		path       string
		header     string
		wantStatus int
		wantBody   string
		wantCalled bool
		wantUser   string
	}{
		{
			name:       "valid token passes identity",
			validator:  okValidator,
			path:       "/user",
			header:     "Bearer good",
			wantStatus: http.StatusOK,
			wantCalled: true,
			wantUser:   "u1",
		},
		{
			name:       "missing header",
			validator:  okValidator,
			path:       "/user",
			wantStatus: http.StatusUnauthorized,
			wantBody:   `{"error":"Unauthorized"}`,
		},
		{
			name:       "wrong scheme",
			validator:  okValidator,
			path:       "/user",
			header:     "Basic dXNlcjpwYXNz",
			wantStatus: http.StatusUnauthorized,
			wantBody:   `{"error":"Unauthorized"}`,
		},
		{
			name:       "lowercase scheme",
			validator:  okValidator,
			path:       "/user",
			header:     "bearer good",
			wantStatus: http.StatusUnauthorized,
			wantBody:   `{"error":"Unauthorized"}`,
		},
		{
			name:       "rejected token",
			validator:  okValidator,
			path:       "/api/v1/generate",
			header:     "Bearer expired",
			wantStatus: http.StatusUnauthorized,
			wantBody:   `{"error":"Invalid or expired token"}`,
		},
		{
			name: "validator fault",
			validator: validatorFunc(func(context.Context, string) (Identity, error) {
				return nil, apperrors.NewInternalError(errors.New("connection refused"))
			}),
			path:       "/user",
			header:     "Bearer good",
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"error":"Internal Server Error"}`,
		},
		{
			name: "validator panic",
			validator: validatorFunc(func(context.Context, string) (Identity, error) {
				panic("boom")
			}),
			path:       "/user",
			header:     "Bearer good",
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"error":"Internal Server Error"}`,
		},
		{
			name: "bypassed root",
			validator: validatorFunc(func(context.Context, string) (Identity, error) {
				t.Fatal("validator must not be called for bypassed paths")
				return nil, nil
			}),
			path:       "/",
			wantStatus: http.StatusOK,
			wantCalled: true,
		},
		{
			name:       "bypassed metrics",
			validator:  okValidator,
			path:       "/metrics",
			header:     "garbage",
			wantStatus: http.StatusOK,
			wantCalled: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gate := NewGate(tt.validator, []string{"/", "/metrics"}, logger.NewTestLogger(t))
			called := false
			h := gate.Middleware(identityEcho(&called))

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCalled, called)
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, rec.Body.String())
				assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			}
			assert.Equal(t, tt.wantUser, rec.Header().Get("X-User"))
		})
	}
}

func TestGateForwardsTokenOnly(t *testing.T) {
	var seen string
	gate := NewGate(validatorFunc(func(_ context.Context, token string) (Identity, error) {
		seen = token
		return Identity{"id": "u1"}, nil
	}), nil, logger.NewNoOpLogger())

	called := false
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/user", nil)
	req.Header.Set("Authorization", "Bearer abc.def.ghi extra")
	gate.Middleware(identityEcho(&called)).ServeHTTP(rec, req)

	require.True(t, called)
	assert.Equal(t, "abc.def.ghi", seen)
}

func TestIdentityFromContext(t *testing.T) {
	_, ok := IdentityFromContext(context.Background())
	assert.False(t, ok)

	_, ok = IdentityFromContext(WithIdentity(context.Background(), nil))
	assert.False(t, ok)

	_, ok = IdentityFromContext(WithIdentity(context.Background(), Identity{}))
	assert.False(t, ok, "an empty record is not an identity")

	got, ok := IdentityFromContext(WithIdentity(context.Background(), Identity{"id": "x"}))
	require.True(t, ok)
	assert.Equal(t, "x", got["id"])
}
