package remote

import (
	"context"
	"fmt"
	"net/url"

	"github.com/SAIGlobal/compliance360-activedirectory-sync/internal/logger"
)

// AuthenticationService logs sessions in and out of the remote API. Tokens
// are opaque strings passed as a query parameter on every subsequent call.
type AuthenticationService struct {
	logger *logger.Logger
	data   DataService
}

// NewAuthenticationService creates an authentication service
func NewAuthenticationService(log *logger.Logger, data DataService) *AuthenticationService {
	return &AuthenticationService{logger: log, data: data}
}

type hostResponse struct {
	Host string `json:"host"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// GetHostAddress resolves the organization's current API host. The remote
// endpoint can move between hosts, so this is called before every login.
func (s *AuthenticationService) GetHostAddress(ctx context.Context, baseAddress, organization string) (string, error) {
	s.logger.Debugf("getting host address for organization [%s]", organization)

	s.data.SetBaseAddress(baseAddress)

	uri := fmt.Sprintf("/API/2.0/Security/OrganizationHost?organization=%s", url.QueryEscape(organization))
	var resp hostResponse
	if err := s.data.Get(ctx, uri, &resp); err != nil {
		return "", err
	}
	if resp.Host == "" {
		return "", fmt.Errorf("cannot get organization host address at: %s", uri)
	}
	return resp.Host, nil
}

// Login resolves the organization host, authenticates against it and
// returns the session token. The data service is left pointed at the
// resolved host for all subsequent calls.
func (s *AuthenticationService) Login(ctx context.Context, baseAddress, organization, username, password string) (string, error) {
	s.logger.Debugf("logging in to API organization:%s username:%s", organization, username)

	host, err := s.GetHostAddress(ctx, baseAddress, organization)
	if err != nil {
		return "", err
	}
	if host != baseAddress {
		s.data.SetBaseAddress(host)
	}

	loginData := map[string]string{
		"organization": organization,
		"username":     username,
		"password":     password,
		"culture":      "en-US",
	}

	var resp loginResponse
	if err := s.data.Post(ctx, "/API/2.0/Security/Login", loginData, &resp); err != nil {
		return "", err
	}
	return resp.Token, nil
}

// Logout terminates the session for the given token
func (s *AuthenticationService) Logout(ctx context.Context, token string) error {
	s.logger.Debug("logging out of API")

	uri := fmt.Sprintf("/API/2.0/Security/Logout?token=%s", url.QueryEscape(token))
	return s.data.Get(ctx, uri, nil)
}
