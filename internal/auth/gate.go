package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/sozercan/insight-gateway/apimodels"
	apperrors "github.com/sozercan/insight-gateway/internal/errors"
	"github.com/sozercan/insight-gateway/internal/logger"
	"github.com/sozercan/insight-gateway/internal/metrics"
)

type contextKey string

const identityContextKey contextKey = "identity"

const bearerPrefix = "Bearer "

// WithIdentity returns a copy of ctx carrying identity.
func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

// IdentityFromContext returns the identity stored by the Gate, if any. An
// empty record counts as no identity.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityContextKey).(Identity)
	return identity, ok && len(identity) > 0
}

// Gate authenticates every request whose path is not in the bypass list.
type Gate struct {
	validator Validator
	bypass    map[string]struct{}
	logger    logger.Logger
}

func NewGate(validator Validator, bypassPaths []string, log logger.Logger) *Gate {
	bypass := make(map[string]struct{}, len(bypassPaths))
	for _, p := range bypassPaths {
		bypass[p] = struct{}{}
	}
	return &Gate{
		validator: validator,
		bypass:    bypass,
		logger:    log.With(map[string]interface{}{"component": "auth_gate"}),
	}
}

// Middleware is chi-compatible.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := g.bypass[r.URL.Path]; ok {
			next.ServeHTTP(w, r)
			return
		}

		token, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			g.logger.Warn("missing or malformed Authorization header", map[string]interface{}{
				"path": r.URL.Path,
			})
			metrics.AuthValidations.WithLabelValues(metrics.OutcomeFailure).Inc()
			writeError(w, http.StatusUnauthorized, apperrors.MsgUnauthorized)
			return
		}

		identity, err := g.validate(r.Context(), token)
		switch {
		case err == nil:
		case errors.Is(err, apperrors.ErrUnauthenticated):
			g.logger.Warn("identity provider rejected token", map[string]interface{}{
				"path":  r.URL.Path,
				"error": err,
			})
			metrics.AuthValidations.WithLabelValues(metrics.OutcomeFailure).Inc()
			writeError(w, http.StatusUnauthorized, apperrors.PublicMessage(err))
			return
		default:
			g.logger.Error("token validation failed", map[string]interface{}{
				"path":      r.URL.Path,
				"errorCode": string(apperrors.CodeOf(err)),
				"error":     err,
			})
			metrics.AuthValidations.WithLabelValues(metrics.OutcomeError).Inc()
			writeError(w, http.StatusInternalServerError, apperrors.MsgInternalError)
			return
		}

		metrics.AuthValidations.WithLabelValues(metrics.OutcomeSuccess).Inc()
		g.logger.Info("user authenticated", map[string]interface{}{"path": r.URL.Path})
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}

// validate turns a validator panic into an internal error.
func (g *Gate) validate(ctx context.Context, token string) (identity Identity, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			identity = nil
			err = apperrors.NewInternalError(fmt.Errorf("validator panic: %v", rec))
		}
	}()
	return g.validator.Validate(ctx, token)
}

// bearerToken extracts the token from "Bearer <token>". Anything after a
// further space is ignored.
func bearerToken(header string) (string, bool) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}
	token, _, _ := strings.Cut(header[len(bearerPrefix):], " ")
	return token, true
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(apimodels.ErrorResponse{Error: message})
}
