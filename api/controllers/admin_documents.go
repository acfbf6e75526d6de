package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/techcreator/storefront/api/responses"
	"github.com/techcreator/storefront/api/validators"
	"github.com/techcreator/storefront/internal/documents"
	"github.com/techcreator/storefront/pkg/enums"
	pkgerrors "github.com/techcreator/storefront/pkg/errors"
	"github.com/techcreator/storefront/pkg/logger"
)

type createDocumentRequest struct {
	Name             string                 `json:"name" validate:"required,max=255"`
	URL              string                 `json:"url" validate:"required,url"`
	Type             string                 `json:"type" validate:"required"`
	Size             int64                  `json:"size" validate:"gte=0"`
	ReviewStage      enums.ReviewStage      `json:"review_stage" validate:"required,enum"`
	DocumentCategory enums.DocumentCategory `json:"document_category,omitempty" validate:"omitempty,enum"`
	Description      *string                `json:"description,omitempty"`
	StoragePath      *string                `json:"storage_path,omitempty"`
}

type updateDocumentRequest struct {
	Name             *string                 `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	URL              *string                 `json:"url,omitempty" validate:"omitempty,url"`
	ReviewStage      *enums.ReviewStage      `json:"review_stage,omitempty" validate:"omitempty,enum"`
	DocumentCategory *enums.DocumentCategory `json:"document_category,omitempty" validate:"omitempty,enum"`
	Description      *string                 `json:"description,omitempty"`
	IsActive         *bool                   `json:"is_active,omitempty"`
}

type presignUploadRequest struct {
	ProjectID   uuid.UUID         `json:"project_id" validate:"required"`
	FileName    string            `json:"file_name" validate:"required,max=255"`
	MimeType    string            `json:"mime_type" validate:"required"`
	SizeBytes   int64             `json:"size_bytes" validate:"gt=0"`
	ReviewStage enums.ReviewStage `json:"review_stage" validate:"required,enum"`
}

// AdminListDocuments lists a project's documents. Inactive rows are included
// unless include_inactive=false.
func AdminListDocuments(svc documents.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "document service unavailable"))
			return
		}

		projectID, err := parseUUIDParam(r, "projectId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		q := r.URL.Query()
		query := documents.ListQuery{ProjectID: projectID, IncludeInactive: true}
		if raw := strings.TrimSpace(q.Get("review_stage")); raw != "" {
			stage, err := enums.ParseReviewStage(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid review_stage"))
				return
			}
			query.Stage = &stage
		}
		include, err := validators.ParseQueryBool(r, "include_inactive", true)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		query.IncludeInactive = include

		docs, err := svc.List(r.Context(), query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, docs)
	}
}

func AdminCreateDocument(svc documents.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "document service unavailable"))
			return
		}

		projectID, err := parseUUIDParam(r, "projectId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createDocumentRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		doc, err := svc.Create(r.Context(), projectID, documents.CreateInput{
			Name:             body.Name,
			URL:              body.URL,
			Type:             body.Type,
			Size:             body.Size,
			ReviewStage:      body.ReviewStage,
			DocumentCategory: body.DocumentCategory,
			Description:      body.Description,
			StoragePath:      body.StoragePath,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, doc)
	}
}

func AdminUpdateDocument(svc documents.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "document service unavailable"))
			return
		}

		id, err := parseUUIDParam(r, "documentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateDocumentRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		doc, err := svc.Update(r.Context(), id, documents.UpdateInput{
			Name:             body.Name,
			URL:              body.URL,
			ReviewStage:      body.ReviewStage,
			DocumentCategory: body.DocumentCategory,
			Description:      body.Description,
			IsActive:         body.IsActive,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, doc)
	}
}

// AdminDeleteDocument deactivates a document. With purge=true the row and
// its uploaded object are removed instead.
func AdminDeleteDocument(svc documents.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "document service unavailable"))
			return
		}

		id, err := parseUUIDParam(r, "documentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		purge, err := validators.ParseQueryBool(r, "purge", false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		remove := svc.Deactivate
		if purge {
			remove = svc.Purge
		}
		if err := remove(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

func AdminPresignDocumentUpload(svc documents.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "document service unavailable"))
			return
		}

		var body presignUploadRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out, err := svc.PresignUpload(r.Context(), body.ProjectID, documents.PresignInput{
			FileName:    body.FileName,
			MimeType:    body.MimeType,
			SizeBytes:   body.SizeBytes,
			ReviewStage: body.ReviewStage,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, out)
	}
}
