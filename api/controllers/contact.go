package controllers

import (
	"net/http"

	"github.com/techcreator/storefront/api/responses"
	"github.com/techcreator/storefront/api/validators"
	"github.com/techcreator/storefront/internal/inquiries"
	pkgerrors "github.com/techcreator/storefront/pkg/errors"
	"github.com/techcreator/storefront/pkg/logger"
)

type contactRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	ProjectType string `json:"project_type"`
	Budget      string `json:"budget"`
	Message     string `json:"message"`
}

// PublicSubmitContact stores a contact inquiry and forwards it by email.
func PublicSubmitContact(svc inquiries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inquiry service unavailable"))
			return
		}

		var body contactRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		inquiry, err := svc.Submit(r.Context(), inquiries.SubmitInput{
			Name:        validators.SanitizeString(body.Name, 200),
			Email:       validators.SanitizeString(body.Email, 254),
			ProjectType: validators.SanitizeString(body.ProjectType, 100),
			Budget:      validators.SanitizeString(body.Budget, 100),
			Message:     body.Message,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, inquiry)
	}
}
