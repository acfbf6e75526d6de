package inquiries

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/techcreator/storefront/internal/notifications"
	"github.com/techcreator/storefront/pkg/db/models"
	pkgerrors "github.com/techcreator/storefront/pkg/errors"
	"github.com/techcreator/storefront/pkg/logger"
	"github.com/techcreator/storefront/pkg/pagination"
)

const maxMessageLength = 5000

// ContactSender delivers the operator notice for a new inquiry.
type ContactSender interface {
	SendContactForm(ctx context.Context, f notifications.ContactForm) error
}

type Service interface {
	Submit(ctx context.Context, input SubmitInput) (*InquiryDTO, error)
	List(ctx context.Context, params pagination.Params) (*InquiryList, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// SubmitInput is the public contact form.
type SubmitInput struct {
	Name        string
	Email       string
	ProjectType string
	Budget      string
	Message     string
}

type InquiryDTO struct {
	ID          uuid.UUID `json:"id"`
	ClientName  string    `json:"client_name"`
	Email       string    `json:"email"`
	ProjectType string    `json:"project_type"`
	Budget      string    `json:"budget,omitempty"`
	Message     string    `json:"message"`
	CreatedAt   time.Time `json:"created_at"`
}

type InquiryList struct {
	Inquiries  []InquiryDTO `json:"inquiries"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

type service struct {
	repo   *Repository
	sender ContactSender
	logg   *logger.Logger
}

func NewService(repo *Repository, sender ContactSender, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("inquiry repository required")
	}
	if sender == nil {
		return nil, fmt.Errorf("contact sender required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, sender: sender, logg: logg}, nil
}

// Submit stores the inquiry and then emails the operator. A failed email is
// logged; the stored inquiry is still returned.
func (s *service) Submit(ctx context.Context, input SubmitInput) (*InquiryDTO, error) {
	inquiry := &models.Inquiry{
		ClientName:  strings.TrimSpace(input.Name),
		Email:       strings.TrimSpace(input.Email),
		ProjectType: strings.TrimSpace(input.ProjectType),
		Budget:      strings.TrimSpace(input.Budget),
		Message:     strings.TrimSpace(input.Message),
	}
	if err := validate(inquiry); err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, inquiry)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store inquiry")
	}

	ctx = s.logg.WithField(ctx, "inquiry_id", created.ID.String())
	if err := s.sender.SendContactForm(ctx, notifications.ContactForm{
		Name:        created.ClientName,
		Email:       created.Email,
		ProjectType: created.ProjectType,
		Budget:      created.Budget,
		Message:     created.Message,
		SubmittedAt: created.CreatedAt,
	}); err != nil {
		s.logg.Error(ctx, "contact email failed", err)
	} else {
		s.logg.Info(ctx, "inquiry received")
	}

	dto := fromModel(*created)
	return &dto, nil
}

func (s *service) List(ctx context.Context, params pagination.Params) (*InquiryList, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.List(ctx, pagination.LimitWithBuffer(params.Limit), cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list inquiries")
	}

	rows, next := pagination.Trim(rows, params.Limit, func(i models.Inquiry) pagination.Cursor {
		return pagination.Cursor{CreatedAt: i.CreatedAt, ID: i.ID}
	})
	out := &InquiryList{NextCursor: next}
	out.Inquiries = make([]InquiryDTO, 0, len(rows))
	for _, row := range rows {
		out.Inquiries = append(out.Inquiries, fromModel(row))
	}
	return out, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "inquiry id required")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return err
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete inquiry")
	}
	return nil
}

func validate(i *models.Inquiry) error {
	var fields []string
	if i.ClientName == "" {
		fields = append(fields, "name")
	}
	if !notifications.ValidEmail(i.Email) {
		fields = append(fields, "email")
	}
	if i.ProjectType == "" {
		fields = append(fields, "project_type")
	}
	if i.Message == "" || len(i.Message) > maxMessageLength {
		fields = append(fields, "message")
	}
	if len(fields) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid contact form").WithDetails(map[string]any{"fields": fields})
	}
	return nil
}

func fromModel(i models.Inquiry) InquiryDTO {
	return InquiryDTO{
		ID:          i.ID,
		ClientName:  i.ClientName,
		Email:       i.Email,
		ProjectType: i.ProjectType,
		Budget:      i.Budget,
		Message:     i.Message,
		CreatedAt:   i.CreatedAt,
	}
}
