package documents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/techcreator/storefront/pkg/db/models"
	"github.com/techcreator/storefront/pkg/enums"
	pkgerrors "github.com/techcreator/storefront/pkg/errors"
)

type projectLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Project, error)
}

// Signer issues direct-to-bucket upload URLs.
type Signer interface {
	SignedURL(bucket, object, contentType string, expires time.Duration) (string, error)
	ObjectURL(bucket, object string) string
}

// ObjectRemover deletes uploaded objects from the bucket.
type ObjectRemover interface {
	DeleteObject(ctx context.Context, bucket, object string) error
}

// Service manages the document registry attached to projects.
type Service interface {
	List(ctx context.Context, q ListQuery) ([]DocumentDTO, error)
	ListActiveByProject(ctx context.Context, projectID uuid.UUID) ([]models.ProjectDocument, error)
	Create(ctx context.Context, projectID uuid.UUID, input CreateInput) (*DocumentDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*DocumentDTO, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
	Purge(ctx context.Context, id uuid.UUID) error
	PresignUpload(ctx context.Context, projectID uuid.UUID, input PresignInput) (*PresignOutput, error)
}

// CreateInput registers a document that is already reachable at URL.
type CreateInput struct {
	Name             string
	URL              string
	Type             string
	Size             int64
	ReviewStage      enums.ReviewStage
	DocumentCategory enums.DocumentCategory
	Description      *string
	StoragePath      *string
}

// UpdateInput holds optional mutation values for a document.
type UpdateInput struct {
	Name             *string
	URL              *string
	ReviewStage      *enums.ReviewStage
	DocumentCategory *enums.DocumentCategory
	Description      *string
	IsActive         *bool
}

// PresignInput describes the file an admin is about to upload.
type PresignInput struct {
	FileName    string
	MimeType    string
	SizeBytes   int64
	ReviewStage enums.ReviewStage
}

// PresignOutput is returned to the uploader. The document is registered
// afterwards with FileURL and StoragePath.
type PresignOutput struct {
	SignedPUTURL string    `json:"signed_put_url"`
	FileURL      string    `json:"file_url"`
	StoragePath  string    `json:"storage_path"`
	ContentType  string    `json:"content_type"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// UploadConfig configures signed uploads. A nil Signer disables them and a
// nil Remover leaves purged objects in the bucket.
type UploadConfig struct {
	Signer   Signer
	Remover  ObjectRemover
	Bucket   string
	TTL      time.Duration
	MaxBytes int64
	NowFunc  func() time.Time
}

type service struct {
	repo     *Repository
	projects projectLookup
	upload   UploadConfig
}

func NewService(repo *Repository, projects projectLookup, upload UploadConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("document repository required")
	}
	if projects == nil {
		return nil, fmt.Errorf("project lookup required")
	}
	if upload.Signer != nil {
		if upload.Bucket == "" {
			return nil, fmt.Errorf("gcs bucket required")
		}
		if upload.TTL <= 0 {
			return nil, fmt.Errorf("upload ttl must be positive")
		}
	}
	if upload.NowFunc == nil {
		upload.NowFunc = time.Now
	}
	return &service{repo: repo, projects: projects, upload: upload}, nil
}

func (s *service) List(ctx context.Context, q ListQuery) ([]DocumentDTO, error) {
	if q.ProjectID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "project id required")
	}
	if q.Stage != nil && !q.Stage.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid review_stage")
	}
	rows, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list documents")
	}
	out := make([]DocumentDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromModel(row))
	}
	return out, nil
}

func (s *service) ListActiveByProject(ctx context.Context, projectID uuid.UUID) ([]models.ProjectDocument, error) {
	rows, err := s.repo.ListActiveByProject(ctx, projectID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list active documents")
	}
	return rows, nil
}

func (s *service) Create(ctx context.Context, projectID uuid.UUID, input CreateInput) (*DocumentDTO, error) {
	if _, err := s.projects.FindByID(ctx, projectID); err != nil {
		return nil, err
	}
	doc := &models.ProjectDocument{
		ProjectID:        projectID,
		Name:             strings.TrimSpace(input.Name),
		URL:              strings.TrimSpace(input.URL),
		Type:             strings.TrimSpace(input.Type),
		Size:             input.Size,
		ReviewStage:      input.ReviewStage,
		DocumentCategory: input.DocumentCategory,
		Description:      input.Description,
		StoragePath:      input.StoragePath,
		IsActive:         true,
	}
	if doc.DocumentCategory == "" {
		doc.DocumentCategory = enums.DocumentCategoryDocument
	}
	if err := validateDocument(doc); err != nil {
		return nil, err
	}
	created, err := s.repo.Create(ctx, doc)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create document")
	}
	dto := FromModel(*created)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*DocumentDTO, error) {
	doc, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.Name != nil {
		doc.Name = strings.TrimSpace(*input.Name)
	}
	if input.URL != nil {
		doc.URL = strings.TrimSpace(*input.URL)
	}
	if input.ReviewStage != nil {
		doc.ReviewStage = *input.ReviewStage
	}
	if input.DocumentCategory != nil {
		doc.DocumentCategory = *input.DocumentCategory
	}
	if input.Description != nil {
		doc.Description = input.Description
	}
	if input.IsActive != nil {
		doc.IsActive = *input.IsActive
	}
	if err := validateDocument(doc); err != nil {
		return nil, err
	}
	updated, err := s.repo.Update(ctx, doc)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update document")
	}
	dto := FromModel(*updated)
	return &dto, nil
}

// Deactivate hides a document from buyers and future deliveries. The row
// and the stored object are kept.
func (s *service) Deactivate(ctx context.Context, id uuid.UUID) error {
	doc, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !doc.IsActive {
		return nil
	}
	doc.IsActive = false
	if _, err := s.repo.Update(ctx, doc); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate document")
	}
	return nil
}

// Purge removes the row and, for uploaded documents, the stored object.
func (s *service) Purge(ctx context.Context, id uuid.UUID) error {
	doc, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if doc.StoragePath != nil && *doc.StoragePath != "" && s.upload.Remover != nil {
		if err := s.upload.Remover.DeleteObject(ctx, s.upload.Bucket, *doc.StoragePath); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete stored object")
		}
	}
	if err := s.repo.Delete(ctx, doc.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete document")
	}
	return nil
}

func (s *service) PresignUpload(ctx context.Context, projectID uuid.UUID, input PresignInput) (*PresignOutput, error) {
	if s.upload.Signer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "document uploads are not configured")
	}
	fileName := strings.TrimSpace(input.FileName)
	if fileName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file_name is required")
	}
	if input.SizeBytes <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "size_bytes must be positive")
	}
	if s.upload.MaxBytes > 0 && input.SizeBytes > s.upload.MaxBytes {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("size_bytes must be at most %d bytes", s.upload.MaxBytes))
	}
	if !input.ReviewStage.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid review_stage")
	}
	mimeType, err := normalizeMimeType(input.MimeType)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	}
	if _, err := s.projects.FindByID(ctx, projectID); err != nil {
		return nil, err
	}

	key := buildObjectKey(projectID, input.ReviewStage, uuid.New(), fileName)
	signed, err := s.upload.Signer.SignedURL(s.upload.Bucket, key, mimeType, s.upload.TTL)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sign upload url")
	}
	return &PresignOutput{
		SignedPUTURL: signed,
		FileURL:      s.upload.Signer.ObjectURL(s.upload.Bucket, key),
		StoragePath:  key,
		ContentType:  mimeType,
		ExpiresAt:    s.upload.NowFunc().Add(s.upload.TTL),
	}, nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.ProjectDocument, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "document id required")
	}
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load document")
	}
	return doc, nil
}

func validateDocument(d *models.ProjectDocument) error {
	switch {
	case d.Name == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	case d.URL == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "url is required")
	case d.Type == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "type is required")
	case d.Size < 0:
		return pkgerrors.New(pkgerrors.CodeValidation, "size cannot be negative")
	case !d.ReviewStage.IsValid():
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid review_stage")
	case !d.DocumentCategory.IsValid():
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid document_category")
	}
	return nil
}
