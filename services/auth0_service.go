package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Auth0UserInfo is the profile returned by Auth0's /userinfo endpoint
type Auth0UserInfo struct {
	Sub     string `json:"sub"` // Auth0 user ID
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture,omitempty"`
}

// UserInfoError is a non-200 answer from the /userinfo endpoint
type UserInfoError struct {
	StatusCode int
	Body       string
}

func (e *UserInfoError) Error() string {
	return fmt.Sprintf("userinfo endpoint returned status %d: %s", e.StatusCode, e.Body)
}

// IsTokenRejected reports whether Auth0 refused the access token itself
func IsTokenRejected(err error) bool {
	var infoErr *UserInfoError
	return errors.As(err, &infoErr) && (infoErr.StatusCode == http.StatusUnauthorized || infoErr.StatusCode == http.StatusForbidden)
}

// Auth0Service looks up administrator profiles on the Auth0 tenant
type Auth0Service struct {
	domain     string
	httpClient *http.Client
}

// NewAuth0Service creates a service for the tenant domain. A domain with a
// scheme is used as the base URL as-is.
func NewAuth0Service(domain string) *Auth0Service {
	return &Auth0Service{
		domain: domain,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (s *Auth0Service) userInfoURL() string {
	base := s.domain
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}
	return strings.TrimSuffix(base, "/") + "/userinfo"
}

// GetUserInfo fetches the profile of the user owning accessToken
func (s *Auth0Service) GetUserInfo(ctx context.Context, accessToken string) (*Auth0UserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.userInfoURL(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call userinfo endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &UserInfoError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var userInfo Auth0UserInfo
	if err := json.NewDecoder(resp.Body).Decode(&userInfo); err != nil {
		return nil, fmt.Errorf("failed to decode userinfo response: %w", err)
	}

	zap.L().Debug("Fetched Auth0 profile", zap.String("user_id", userInfo.Sub))
	return &userInfo, nil
}
