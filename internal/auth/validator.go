package auth

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	apperrors "github.com/sozercan/insight-gateway/internal/errors"
	"github.com/sozercan/insight-gateway/internal/logger"
	"github.com/sozercan/insight-gateway/internal/metrics"
)

// Identity is the user record returned by the identity provider. Its shape is
// owned by the provider and passed through untouched.
type Identity map[string]interface{}

// Validator resolves a bearer token to an Identity.
//
// Rejected tokens are reported with an error matching
// apperrors.ErrUnauthenticated; every other error is an internal fault.
type Validator interface {
	Validate(ctx context.Context, token string) (Identity, error)
}

// RemoteValidator asks a Supabase-style auth service who owns a token.
type RemoteValidator struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     logger.Logger
}

// NewRemoteValidator creates a validator for {baseURL}/auth/v1/user.
func NewRemoteValidator(baseURL, apiKey string, timeout time.Duration, log logger.Logger) *RemoteValidator {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &RemoteValidator{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     log.With(map[string]interface{}{"component": "auth"}),
	}
}

func (v *RemoteValidator) Validate(ctx context.Context, token string) (Identity, error) {
	start := time.Now()
	defer func() {
		metrics.AuthValidationDuration.Observe(time.Since(start).Seconds())
	}()

	userURL := fmt.Sprintf("%s/auth/v1/user", v.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, userURL, nil)
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("failed to create validation request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("apikey", v.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("failed to execute validation request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		v.logger.Debug("token rejected by identity provider", map[string]interface{}{
			"status": resp.StatusCode,
			"body":   string(body),
		})
		return nil, apperrors.NewUnauthenticatedError(
			apperrors.MsgInvalidToken,
			fmt.Sprintf("identity provider returned status %d", resp.StatusCode),
		)
	}

	var identity Identity
	if err := json.NewDecoder(resp.Body).Decode(&identity); err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("failed to decode identity: %w", err))
	}
	if identity == nil {
		identity = Identity{}
	}
	return identity, nil
}
