package notifications

import (
	"context"
	"fmt"
	"strings"

	"github.com/techcreator/storefront/internal/notifications/brevo"
	"github.com/techcreator/storefront/pkg/config"
	pkgerrors "github.com/techcreator/storefront/pkg/errors"
	"github.com/techcreator/storefront/pkg/logger"
	"github.com/techcreator/storefront/pkg/metrics"
)

// Step names accepted in the chain configuration.
const (
	StepEmailJSDocuments    = "emailjs_documents"
	StepEmailJSNotice       = "emailjs_notice"
	StepEmailJSConfirmation = "emailjs_confirmation"
	StepEmailJSContact      = "emailjs_contact"
	StepBrevo               = "brevo"
)

// ErrInvalidRecipient is returned before any provider is contacted.
var ErrInvalidRecipient = pkgerrors.New(pkgerrors.CodeValidation, "invalid recipient email address")

// TemplateSender is the template-based transport.
type TemplateSender interface {
	Send(ctx context.Context, serviceID, templateID string, vars map[string]any, publicKey string) error
}

// MailSender is the raw HTML transport.
type MailSender interface {
	Send(ctx context.Context, msg brevo.Email) (string, error)
	Configured() bool
}

// Service sends the storefront's transactional emails.
type Service interface {
	DeliverDocuments(ctx context.Context, d DocumentDelivery) error
	SendOrderConfirmation(ctx context.Context, o OrderConfirmation) error
	SendContactForm(ctx context.Context, f ContactForm) error
	ConfigurationReport() Report
}

// Report describes which providers are usable.
type Report struct {
	EmailJSConfigured bool     `json:"emailjs_configured"`
	BrevoConfigured   bool     `json:"brevo_configured"`
	DocumentChain     []string `json:"document_chain"`
	ConfirmationChain []string `json:"confirmation_chain"`
	ContactChain      []string `json:"contact_chain"`
	Issues            []string `json:"issues"`
}

// ServiceParams wires the notification service.
type ServiceParams struct {
	Config   config.NotificationsConfig
	Template TemplateSender
	Mail     MailSender
	Logger   *logger.Logger
	Metrics  *metrics.NotificationMetrics
}

type service struct {
	cfg          config.NotificationsConfig
	mail         MailSender
	documents    *Chain[DocumentDelivery]
	confirmation *Chain[OrderConfirmation]
	contact      *Chain[ContactForm]
	logg         *logger.Logger
}

// NewService builds the three delivery chains from the configured step names.
func NewService(p ServiceParams) (Service, error) {
	if p.Template == nil {
		return nil, fmt.Errorf("template sender required")
	}
	if p.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if !ValidEmail(p.Config.OperatorEmail) {
		return nil, fmt.Errorf("operator email %q is invalid", p.Config.OperatorEmail)
	}

	c := composer{t: Templates{
		ContactTemplate:  p.Config.EmailJSContactTemplate,
		OrderTemplate:    p.Config.EmailJSOrderTemplate,
		DocumentTemplate: p.Config.EmailJSDocumentTemplate,
		OperatorEmail:    p.Config.OperatorEmail,
		SupportEmail:     p.Config.Support(),
	}}
	tmpl := templateChannel{sender: p.Template, serviceID: p.Config.EmailJSServiceID, publicKey: p.Config.EmailJSPublicKey}
	var mail Channel
	if p.Mail != nil {
		mail = mailChannel{sender: p.Mail, from: brevo.Contact{Email: p.Config.BrevoSenderEmail, Name: p.Config.BrevoSenderName}}
	}

	documentSteps := map[string]Step[DocumentDelivery]{
		StepEmailJSDocuments: {Name: StepEmailJSDocuments, Compose: c.documentTemplate, Channel: tmpl},
		StepEmailJSNotice:    {Name: StepEmailJSNotice, Compose: c.documentNotice, Channel: tmpl},
		StepBrevo:            {Name: StepBrevo, Compose: c.documentHTML, Channel: mail},
	}
	confirmationSteps := map[string]Step[OrderConfirmation]{
		StepEmailJSConfirmation: {Name: StepEmailJSConfirmation, Compose: c.confirmationTemplate, Channel: tmpl},
		StepBrevo:               {Name: StepBrevo, Compose: c.confirmationHTML, Channel: mail},
	}
	contactSteps := map[string]Step[ContactForm]{
		StepEmailJSContact: {Name: StepEmailJSContact, Compose: c.contactTemplate, Channel: tmpl},
		StepBrevo:          {Name: StepBrevo, Compose: c.contactHTML, Channel: mail},
	}

	docs, err := resolveSteps("document_delivery", p.Config.DocumentChain, documentSteps, mail != nil)
	if err != nil {
		return nil, err
	}
	confirm, err := resolveSteps("order_confirmation", p.Config.ConfirmationChain, confirmationSteps, mail != nil)
	if err != nil {
		return nil, err
	}
	contact, err := resolveSteps("contact", p.Config.ContactChain, contactSteps, mail != nil)
	if err != nil {
		return nil, err
	}

	return &service{
		cfg:          p.Config,
		mail:         p.Mail,
		documents:    NewChain("document_delivery", p.Logger, p.Metrics, docs...),
		confirmation: NewChain("order_confirmation", p.Logger, p.Metrics, confirm...),
		contact:      NewChain("contact", p.Logger, p.Metrics, contact...),
		logg:         p.Logger,
	}, nil
}

func resolveSteps[T any](chain string, names []string, known map[string]Step[T], mailAvailable bool) ([]Step[T], error) {
	steps := make([]Step[T], 0, len(names))
	for _, raw := range names {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		step, ok := known[name]
		if !ok {
			return nil, fmt.Errorf("%s chain: unknown step %q", chain, name)
		}
		if name == StepBrevo && !mailAvailable {
			return nil, fmt.Errorf("%s chain: step %q configured without a mail sender", chain, name)
		}
		steps = append(steps, step)
	}
	if len(steps) == 0 {
		return nil, fmt.Errorf("%s chain: at least one step required", chain)
	}
	return steps, nil
}

func (s *service) DeliverDocuments(ctx context.Context, d DocumentDelivery) error {
	if !ValidEmail(d.CustomerEmail) {
		return ErrInvalidRecipient
	}
	ctx = s.logg.WithFields(ctx, map[string]any{"order_id": d.OrderID, "documents": len(d.Documents)})
	_, err := s.documents.Dispatch(ctx, d)
	return err
}

func (s *service) SendOrderConfirmation(ctx context.Context, o OrderConfirmation) error {
	if !ValidEmail(o.CustomerEmail) {
		return ErrInvalidRecipient
	}
	ctx = s.logg.WithField(ctx, "order_id", o.OrderID)
	_, err := s.confirmation.Dispatch(ctx, o)
	return err
}

func (s *service) SendContactForm(ctx context.Context, f ContactForm) error {
	if !ValidEmail(f.Email) {
		return ErrInvalidRecipient
	}
	_, err := s.contact.Dispatch(ctx, f)
	return err
}

func (s *service) ConfigurationReport() Report {
	r := Report{
		EmailJSConfigured: strings.TrimSpace(s.cfg.EmailJSServiceID) != "" && strings.TrimSpace(s.cfg.EmailJSPublicKey) != "",
		BrevoConfigured:   s.mail != nil && s.mail.Configured(),
		DocumentChain:     s.documents.Steps(),
		ConfirmationChain: s.confirmation.Steps(),
		ContactChain:      s.contact.Steps(),
		Issues:            []string{},
	}
	if !r.EmailJSConfigured {
		r.Issues = append(r.Issues, "emailjs service id or public key missing")
	}
	if !r.BrevoConfigured {
		r.Issues = append(r.Issues, "brevo api key missing")
	} else if !ValidEmail(s.cfg.BrevoSenderEmail) {
		r.Issues = append(r.Issues, "brevo sender email missing or invalid")
	}
	return r
}

type templateChannel struct {
	sender    TemplateSender
	serviceID string
	publicKey string
}

func (c templateChannel) Send(ctx context.Context, msg Message) error {
	return c.sender.Send(ctx, c.serviceID, msg.TemplateID, msg.Params, c.publicKey)
}

type mailChannel struct {
	sender MailSender
	from   brevo.Contact
}

func (c mailChannel) Send(ctx context.Context, msg Message) error {
	email := brevo.Email{
		Sender:  c.from,
		To:      []brevo.Contact{{Email: msg.To.Email, Name: msg.To.Name}},
		Subject: msg.Subject,
		HTML:    msg.HTML,
		Text:    msg.Text,
		Tags:    msg.Tags,
	}
	if msg.ReplyTo != "" {
		email.ReplyTo = &brevo.Contact{Email: msg.ReplyTo}
	}
	_, err := c.sender.Send(ctx, email)
	return err
}
