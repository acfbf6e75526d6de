package controllers

import (
	"net/http"

	"github.com/techcreator/storefront/api/responses"
	"github.com/techcreator/storefront/api/validators"
	"github.com/techcreator/storefront/internal/auth"
	pkgerrors "github.com/techcreator/storefront/pkg/errors"
	"github.com/techcreator/storefront/pkg/logger"
)

// AdminAuthLogin exchanges admin credentials for a bearer token. Responses
// are marked no-store so the token is never cached.
func AdminAuthLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var req auth.LoginRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		req.Email = validators.SanitizeEmail(req.Email)

		w.Header().Set("Cache-Control", "no-store")
		token, err := svc.AdminLogin(ctx, req)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, token)
	}
}
