package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/desertthunder/ambiencectl/internal/shared"
)

// AuthService checks a shared key against the backend's authentication gate.
type AuthService struct {
	api *APIService
}

// NewAuthService creates an authentication gate client backed by api.
func NewAuthService(api *APIService) *AuthService {
	return &AuthService{api: api}
}

type authRequest struct {
	Key string `json:"key"`
}

type authReply struct {
	OK bool `json:"ok"`
}

// Check posts key to /auth_check and reports whether the backend accepted it.
//
// A rejected key is (false, nil); transport failures and non-2xx replies are errors.
func (s *AuthService) Check(ctx context.Context, key string) (bool, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return false, fmt.Errorf("%w: auth key is empty", shared.ErrMissingCredentials)
	}

	resp, err := s.api.PostJSON(ctx, "/auth_check", authRequest{Key: key})
	if err != nil {
		return false, fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	if !resp.OK() {
		return false, fmt.Errorf("%w: auth check returned %d", shared.ErrAuthFailed, resp.StatusCode)
	}

	var reply authReply
	if err := json.Unmarshal(resp.Body, &reply); err != nil {
		return false, fmt.Errorf("%w: unexpected auth reply: %v", shared.ErrAuthFailed, err)
	}
	return reply.OK, nil
}

// Require is Check with a rejected key reported as [shared.ErrNotAuthenticated].
func (s *AuthService) Require(ctx context.Context, key string) error {
	ok, err := s.Check(ctx, key)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: key rejected", shared.ErrNotAuthenticated)
	}
	return nil
}

// Health reports whether the backend's HTTP side answers GET /health.
func (s *AuthService) Health(ctx context.Context) error {
	resp, err := s.api.Get(ctx, "/health")
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	if !resp.OK() {
		return fmt.Errorf("%w: health returned %d", shared.ErrServiceUnavailable, resp.StatusCode)
	}
	return nil
}
