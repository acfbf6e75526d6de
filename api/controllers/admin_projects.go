package controllers

import (
	"net/http"

	"github.com/techcreator/storefront/api/responses"
	"github.com/techcreator/storefront/api/validators"
	"github.com/techcreator/storefront/internal/projects"
	pkgerrors "github.com/techcreator/storefront/pkg/errors"
	"github.com/techcreator/storefront/pkg/logger"
)

type createProjectRequest struct {
	Title            string   `json:"title" validate:"required,max=200"`
	Description      string   `json:"description" validate:"required"`
	Category         string   `json:"category" validate:"required,max=64"`
	Price            int      `json:"price" validate:"gt=0"`
	Image            string   `json:"image" validate:"required,url"`
	Features         []string `json:"features" validate:"omitempty,dive,required"`
	TechnicalDetails *string  `json:"technical_details,omitempty"`
	Featured         bool     `json:"featured"`
}

type updateProjectRequest struct {
	Title            *string   `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Description      *string   `json:"description,omitempty"`
	Category         *string   `json:"category,omitempty" validate:"omitempty,min=1,max=64"`
	Price            *int      `json:"price,omitempty" validate:"omitempty,gt=0"`
	Image            *string   `json:"image,omitempty" validate:"omitempty,url"`
	Features         *[]string `json:"features,omitempty"`
	TechnicalDetails *string   `json:"technical_details,omitempty"`
	Featured         *bool     `json:"featured,omitempty"`
}

func AdminCreateProject(svc projects.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "project service unavailable"))
			return
		}

		var body createProjectRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		project, err := svc.Create(r.Context(), projects.CreateInput{
			Title:            body.Title,
			Description:      body.Description,
			Category:         body.Category,
			Price:            body.Price,
			Image:            body.Image,
			Features:         body.Features,
			TechnicalDetails: body.TechnicalDetails,
			Featured:         body.Featured,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, project)
	}
}

func AdminUpdateProject(svc projects.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "project service unavailable"))
			return
		}

		id, err := parseUUIDParam(r, "projectId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateProjectRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		project, err := svc.Update(r.Context(), id, projects.UpdateInput{
			Title:            body.Title,
			Description:      body.Description,
			Category:         body.Category,
			Price:            body.Price,
			Image:            body.Image,
			Features:         body.Features,
			TechnicalDetails: body.TechnicalDetails,
			Featured:         body.Featured,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, project)
	}
}

// AdminDeleteProject removes a project together with its documents.
func AdminDeleteProject(svc projects.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "project service unavailable"))
			return
		}

		id, err := parseUUIDParam(r, "projectId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}
