package middleware

import (
	"fmt"
	"net/http"

	"github.com/techcreator/storefront/api/responses"
	"github.com/techcreator/storefront/pkg/enums"
	pkgerrors "github.com/techcreator/storefront/pkg/errors"
	"github.com/techcreator/storefront/pkg/logger"
)

// RequireRole must run after Auth; requests whose token carries a
// different role get 403.
func RequireRole(role enums.Role, logg *logger.Logger) func(http.Handler) http.Handler {
	denied := pkgerrors.New(pkgerrors.CodeForbidden, fmt.Sprintf("%s role required", role))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if got := RoleFromContext(r.Context()); got != role {
				ctx := r.Context()
				if logg != nil {
					ctx = logg.WithField(ctx, "actor_role", string(got))
				}
				responses.WriteError(ctx, logg, w, denied)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
