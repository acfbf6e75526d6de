package auth

import (
	"context"
	"testing"
	"time"

	pkgAuth "github.com/techcreator/storefront/pkg/auth"
	"github.com/techcreator/storefront/pkg/config"
	"github.com/techcreator/storefront/pkg/enums"
	pkgerrors "github.com/techcreator/storefront/pkg/errors"
	"github.com/techcreator/storefront/pkg/security"
)

func newTestService(t *testing.T) Service {
	t.Helper()
	hash, err := security.HashPassword("correct horse", config.PasswordConfig{
		ArgonMemoryKB:    8192,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	})
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	jwtCfg := config.JWTConfig{Secret: "secret", Issuer: "storefront", ExpirationMinutes: 60}
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	svc, err := NewService(ServiceParams{
		Admin:     config.AdminConfig{Email: "Owner@Example.com", PasswordHash: hash},
		JWTConfig: jwtCfg,
		Now:       func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestAdminLoginIssuesToken(t *testing.T) {
	svc := newTestService(t)

	resp, err := svc.AdminLogin(context.Background(), LoginRequest{Email: " owner@example.com ", Password: "correct horse"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.TokenType != "Bearer" || resp.Email != "owner@example.com" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if !resp.ExpiresAt.Equal(time.Date(2026, 5, 1, 13, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected expiry %v", resp.ExpiresAt)
	}
}

func TestAdminLoginRejectsBadCredentials(t *testing.T) {
	svc := newTestService(t)
	cases := map[string]LoginRequest{
		"wrong password": {Email: "owner@example.com", Password: "nope"},
		"wrong email":    {Email: "someone@example.com", Password: "correct horse"},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := svc.AdminLogin(context.Background(), req); !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
				t.Fatalf("expected unauthorized, got %v", err)
			}
		})
	}
}

func TestAdminLoginDisabledWithoutAccount(t *testing.T) {
	svc, err := NewService(ServiceParams{JWTConfig: config.JWTConfig{Secret: "s", Issuer: "i", ExpirationMinutes: 5}})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if _, err := svc.AdminLogin(context.Background(), LoginRequest{Email: "a@b.co", Password: "x"}); !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestAdminLoginTokenCarriesAdminRole(t *testing.T) {
	hash, err := security.HashPassword("pw", config.PasswordConfig{ArgonMemoryKB: 8192, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32})
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	jwtCfg := config.JWTConfig{Secret: "secret", Issuer: "storefront", ExpirationMinutes: 10}
	svc, err := NewService(ServiceParams{Admin: config.AdminConfig{Email: "ops@example.com", PasswordHash: hash}, JWTConfig: jwtCfg})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	resp, err := svc.AdminLogin(context.Background(), LoginRequest{Email: "ops@example.com", Password: "pw"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	claims, err := pkgAuth.ParseAccessToken(jwtCfg, resp.AccessToken)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Role != enums.RoleAdmin || claims.Subject != "ops@example.com" {
		t.Fatalf("unexpected claims %+v", claims)
	}
}
