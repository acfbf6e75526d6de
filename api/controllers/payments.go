package controllers

import (
	"net/http"

	"github.com/techcreator/storefront/api/responses"
	"github.com/techcreator/storefront/internal/payments/upi"
)

// PublicListUPIApps returns the apps the checkout can hand a payment off to,
// along with the platform detected from the caller's user agent.
func PublicListUPIApps() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]any{
			"apps":     upi.Apps(),
			"platform": upi.DetectPlatform(r.UserAgent()),
		})
	}
}
