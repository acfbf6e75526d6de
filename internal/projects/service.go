package projects

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/techcreator/storefront/pkg/db"
	"github.com/techcreator/storefront/pkg/db/models"
	pkgerrors "github.com/techcreator/storefront/pkg/errors"
)

// Service exposes the catalog and its admin mutations.
type Service interface {
	List(ctx context.Context, filter ListFilter) ([]ProjectDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*ProjectDetailDTO, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Project, error)
	Create(ctx context.Context, input CreateInput) (*ProjectDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*ProjectDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// CreateInput holds the validated payload to create a project.
type CreateInput struct {
	Title            string
	Description      string
	Category         string
	Price            int
	Image            string
	Features         []string
	TechnicalDetails *string
	Featured         bool
}

// UpdateInput holds optional mutation values for a project.
type UpdateInput struct {
	Title            *string
	Description      *string
	Category         *string
	Price            *int
	Image            *string
	Features         *[]string
	TechnicalDetails *string
	Featured         *bool
}

type service struct {
	repo     *Repository
	dbClient *db.Client
}

// NewService constructs a project service instance.
func NewService(repo *Repository, dbClient *db.Client) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("project repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &service{repo: repo, dbClient: dbClient}, nil
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]ProjectDTO, error) {
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list projects")
	}
	out := make([]ProjectDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromModel(row))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*ProjectDetailDTO, error) {
	project, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	counts, err := s.repo.DocumentCounts(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count project documents")
	}
	detail := detailFromModel(*project, counts)
	return &detail, nil
}

func (s *service) FindByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "project id required")
	}
	project, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load project")
	}
	return project, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*ProjectDTO, error) {
	project := &models.Project{
		Title:            strings.TrimSpace(input.Title),
		Description:      strings.TrimSpace(input.Description),
		Category:         strings.TrimSpace(input.Category),
		Price:            input.Price,
		Image:            strings.TrimSpace(input.Image),
		Features:         cleanFeatures(input.Features),
		TechnicalDetails: trimOptional(input.TechnicalDetails),
		Featured:         input.Featured,
	}
	if err := validateProject(project); err != nil {
		return nil, err
	}
	created, err := s.repo.Create(ctx, project)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create project")
	}
	dto := FromModel(*created)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*ProjectDTO, error) {
	project, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.Title != nil {
		project.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		project.Description = strings.TrimSpace(*input.Description)
	}
	if input.Category != nil {
		project.Category = strings.TrimSpace(*input.Category)
	}
	if input.Price != nil {
		project.Price = *input.Price
	}
	if input.Image != nil {
		project.Image = strings.TrimSpace(*input.Image)
	}
	if input.Features != nil {
		project.Features = cleanFeatures(*input.Features)
	}
	if input.TechnicalDetails != nil {
		project.TechnicalDetails = trimOptional(input.TechnicalDetails)
	}
	if input.Featured != nil {
		project.Featured = *input.Featured
	}
	if err := validateProject(project); err != nil {
		return nil, err
	}
	updated, err := s.repo.Update(ctx, project)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update project")
	}
	dto := FromModel(*updated)
	return &dto, nil
}

// Delete removes a project with its documents. Orders keep their title
// snapshot.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "project id required")
	}
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Delete(ctx, id)
	})
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return err
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete project")
	}
	return nil
}

func validateProject(p *models.Project) error {
	switch {
	case p.Title == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	case p.Category == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "category is required")
	case p.Price <= 0:
		return pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}
	return nil
}

func cleanFeatures(features []string) []string {
	out := make([]string, 0, len(features))
	for _, f := range features {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func trimOptional(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
