package controllers

import (
	"net/http"

	"github.com/techcreator/storefront/api/responses"
	"github.com/techcreator/storefront/internal/notifications"
	pkgerrors "github.com/techcreator/storefront/pkg/errors"
	"github.com/techcreator/storefront/pkg/logger"
)

// ConfigReporter describes the email provider setup.
type ConfigReporter interface {
	ConfigurationReport() notifications.Report
}

func AdminNotificationsConfig(reporter ConfigReporter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if reporter == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notifications service unavailable"))
			return
		}
		responses.WriteSuccess(w, reporter.ConfigurationReport())
	}
}
