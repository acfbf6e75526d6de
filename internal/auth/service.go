package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"
	"time"

	pkgAuth "github.com/techcreator/storefront/pkg/auth"
	"github.com/techcreator/storefront/pkg/config"
	"github.com/techcreator/storefront/pkg/enums"
	pkgerrors "github.com/techcreator/storefront/pkg/errors"
	"github.com/techcreator/storefront/pkg/security"
)

const invalidCredentialsMessage = "invalid credentials"

// Service defines the behavior needed by the auth controller.
type Service interface {
	AdminLogin(ctx context.Context, req LoginRequest) (*LoginResponse, error)
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	Admin     config.AdminConfig
	JWTConfig config.JWTConfig
	Now       func() time.Time
}

type service struct {
	admin  config.AdminConfig
	jwtCfg config.JWTConfig
	now    func() time.Time
}

// NewService constructs the operator login service. The account comes from
// configuration; a missing account makes every login fail.
func NewService(params ServiceParams) (Service, error) {
	if params.JWTConfig.Secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &service{admin: params.Admin, jwtCfg: params.JWTConfig, now: params.Now}, nil
}

func (s *service) AdminLogin(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	if !s.admin.Enabled() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	expected := strings.ToLower(strings.TrimSpace(s.admin.Email))
	emailMatch := subtle.ConstantTimeCompare([]byte(email), []byte(expected)) == 1

	ok, err := security.VerifyPassword(req.Password, s.admin.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok || !emailMatch {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	now := s.now().UTC()
	token, err := pkgAuth.MintAccessToken(s.jwtCfg, now, pkgAuth.AccessTokenPayload{
		Subject: expected,
		Email:   expected,
		Role:    enums.RoleAdmin,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}

	return &LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   now.Add(s.jwtCfg.Expiration()),
		Email:       expected,
	}, nil
}
