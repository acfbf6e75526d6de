package notifications

import (
	"bytes"
	"fmt"
	"html/template"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/techcreator/storefront/internal/payments/upi"
	"github.com/techcreator/storefront/pkg/enums"
)

const (
	DefaultAccessExpires = "Never (lifetime access)"
	supportSenderName    = "TechCreator Support"

	dateLayout = "02 Jan 2006"
	timeLayout = "15:04:05"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail reports whether addr is a plausible mailbox.
func ValidEmail(addr string) bool {
	return emailPattern.MatchString(addr)
}

// Document is one deliverable listed in a delivery email.
type Document struct {
	Name        string
	URL         string
	Category    enums.DocumentCategory
	ReviewStage enums.ReviewStage
	Size        int64
}

// DocumentDelivery is the payload of the document-delivery chain.
type DocumentDelivery struct {
	ProjectTitle  string
	CustomerName  string
	CustomerEmail string
	OrderID       string
	Documents     []Document
	AccessExpires string
	DeliveredAt   time.Time
}

// OrderConfirmation is the payload of the order-confirmation chain.
type OrderConfirmation struct {
	CustomerName   string
	CustomerEmail  string
	ProjectTitle   string
	Price          int
	OrderID        string
	TransactionRef string
	OrderDate      time.Time
}

// ContactForm is a storefront inquiry forwarded to the operator.
type ContactForm struct {
	Name        string
	Email       string
	ProjectType string
	Budget      string
	Message     string
	SubmittedAt time.Time
}

// StageGroup is the documents of one review stage.
type StageGroup struct {
	Stage     enums.ReviewStage
	Label     string
	Documents []Document
}

// GroupByStage partitions docs into review stages in delivery order. Empty
// stages are omitted and unknown stages follow the known ones.
func GroupByStage(docs []Document) []StageGroup {
	byStage := make(map[enums.ReviewStage][]Document)
	var unknown []enums.ReviewStage
	for _, d := range docs {
		if !d.ReviewStage.IsValid() {
			if _, seen := byStage[d.ReviewStage]; !seen {
				unknown = append(unknown, d.ReviewStage)
			}
		}
		byStage[d.ReviewStage] = append(byStage[d.ReviewStage], d)
	}
	order := append(append([]enums.ReviewStage{}, enums.ReviewStages...), unknown...)
	groups := make([]StageGroup, 0, len(order))
	for _, stage := range order {
		if len(byStage[stage]) == 0 {
			continue
		}
		groups = append(groups, StageGroup{Stage: stage, Label: stage.Label(), Documents: byStage[stage]})
	}
	return groups
}

// FormatDocumentList renders the stage sections as plain text.
func FormatDocumentList(groups []StageGroup) string {
	sections := make([]string, 0, len(groups))
	for _, g := range groups {
		lines := make([]string, 0, len(g.Documents))
		for _, d := range g.Documents {
			lines = append(lines, fmt.Sprintf("• %s (%s) - %s", d.Name, d.Category, d.URL))
		}
		sections = append(sections, g.Label+":\n"+strings.Join(lines, "\n"))
	}
	return strings.Join(sections, "\n\n")
}

// FormatFileSize renders bytes with binary units, e.g. "1.5 MB".
func FormatFileSize(bytes int64) string {
	if bytes <= 0 {
		return "0 Bytes"
	}
	units := []string{"Bytes", "KB", "MB", "GB"}
	i := int(math.Floor(math.Log(float64(bytes)) / math.Log(1024)))
	if i >= len(units) {
		i = len(units) - 1
	}
	v := float64(bytes) / math.Pow(1024, float64(i))
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64) + " " + units[i]
}

// DownloadInstructions is the "what happens next" text of the confirmation.
func DownloadInstructions(projectTitle, orderID, supportEmail string) string {
	return fmt.Sprintf(`Thank you for purchasing "%s"!

Your Order ID: %s

What happens next:
1. You will receive a separate email within 5 minutes containing download links for all project documents
2. Documents are organized by review stages (Review 1, 2, and 3)
3. Each document includes presentations, documentation, and reports as applicable
4. You'll have lifetime access to download these documents

The document delivery email will include:
• Direct download links for all files
• Documents grouped by review stage
• File size information
• Technical specifications
• Implementation guides

If you have any questions or need support, please contact us at %s

Thank you for your business!`, projectTitle, orderID, supportEmail)
}

// Templates holds the provider template ids and fixed addresses used by the
// composers.
type Templates struct {
	ContactTemplate  string
	OrderTemplate    string
	DocumentTemplate string
	OperatorEmail    string
	SupportEmail     string
}

type composer struct {
	t Templates
}

func (c composer) accessExpires(d DocumentDelivery) string {
	if strings.TrimSpace(d.AccessExpires) == "" {
		return DefaultAccessExpires
	}
	return d.AccessExpires
}

func stamp(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}

func (c composer) documentTemplate(d DocumentDelivery) (Message, error) {
	return Message{
		TemplateID: c.t.DocumentTemplate,
		To:         Recipient{Email: d.CustomerEmail, Name: d.CustomerName},
		Params: map[string]any{
			"customer_name":   d.CustomerName,
			"customer_email":  d.CustomerEmail,
			"to_email":        d.CustomerEmail,
			"project_title":   d.ProjectTitle,
			"order_id":        d.OrderID,
			"total_documents": len(d.Documents),
			"document_list":   FormatDocumentList(GroupByStage(d.Documents)),
			"delivery_date":   stamp(d.DeliveredAt).Format(dateLayout),
			"access_expires":  c.accessExpires(d),
			"support_email":   c.t.SupportEmail,
			"reply_to":        c.t.SupportEmail,
		},
	}, nil
}

// documentNotice is the condensed last-resort message sent through the
// contact template.
func (c composer) documentNotice(d DocumentDelivery) (Message, error) {
	return Message{
		TemplateID: c.t.ContactTemplate,
		To:         Recipient{Email: d.CustomerEmail, Name: d.CustomerName},
		ReplyTo:    c.t.OperatorEmail,
		Params: map[string]any{
			"name":         supportSenderName,
			"email":        c.t.OperatorEmail,
			"project_type": "Document Delivery",
			"budget":       "N/A",
			"message":      noticeText(d),
			"to_email":     d.CustomerEmail,
			"reply_to":     c.t.OperatorEmail,
		},
	}, nil
}

func noticeText(d DocumentDelivery) string {
	lines := make([]string, 0, len(d.Documents))
	for _, doc := range d.Documents {
		lines = append(lines, fmt.Sprintf("%s (%s) - %s", doc.Name, doc.Category, doc.URL))
	}
	return fmt.Sprintf("Document delivery for %s (%s)\n\nOrder: %s\nProject: %s\n\nDocuments:\n%s",
		d.CustomerName, d.CustomerEmail, d.OrderID, d.ProjectTitle, strings.Join(lines, "\n"))
}

var documentHTML = template.Must(template.New("documents").Funcs(template.FuncMap{
	"size": FormatFileSize,
}).Parse(`<h2>Your project documents are ready</h2>
<p>Hi {{.CustomerName}},</p>
<p>Thank you for purchasing <strong>{{.ProjectTitle}}</strong>. Order ID: {{.OrderID}}.</p>
{{range .Groups}}<h3>{{.Label}}</h3>
<ul>{{range .Documents}}
<li><a href="{{.URL}}">{{.Name}}</a> ({{.Category}}{{if .Size}}, {{size .Size}}{{end}})</li>{{end}}
</ul>
{{end}}<p>Access: {{.AccessExpires}}</p>
<p>Questions? Write to <a href="mailto:{{.Support}}">{{.Support}}</a>.</p>`))

func (c composer) documentHTML(d DocumentDelivery) (Message, error) {
	var buf bytes.Buffer
	err := documentHTML.Execute(&buf, map[string]any{
		"CustomerName":  d.CustomerName,
		"ProjectTitle":  d.ProjectTitle,
		"OrderID":       d.OrderID,
		"Groups":        GroupByStage(d.Documents),
		"AccessExpires": c.accessExpires(d),
		"Support":       c.t.SupportEmail,
	})
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      Recipient{Email: d.CustomerEmail, Name: d.CustomerName},
		ReplyTo: c.t.SupportEmail,
		Subject: "Your project documents: " + d.ProjectTitle,
		HTML:    buf.String(),
		Text:    noticeText(d),
		Tags:    []string{"document-delivery"},
	}, nil
}

func (c composer) confirmationTemplate(o OrderConfirmation) (Message, error) {
	return Message{
		TemplateID: c.t.OrderTemplate,
		To:         Recipient{Email: o.CustomerEmail, Name: o.CustomerName},
		Params: map[string]any{
			"customer_name":         o.CustomerName,
			"customer_email":        o.CustomerEmail,
			"to_email":              o.CustomerEmail,
			"project_title":         o.ProjectTitle,
			"price":                 upi.FormatAmount(o.Price),
			"order_id":              o.OrderID,
			"transaction_ref":       o.TransactionRef,
			"order_date":            stamp(o.OrderDate).Format(dateLayout),
			"download_instructions": DownloadInstructions(o.ProjectTitle, o.OrderID, c.t.SupportEmail),
			"support_email":         c.t.SupportEmail,
		},
	}, nil
}

func (c composer) confirmationHTML(o OrderConfirmation) (Message, error) {
	text := DownloadInstructions(o.ProjectTitle, o.OrderID, c.t.SupportEmail)
	return Message{
		To:      Recipient{Email: o.CustomerEmail, Name: o.CustomerName},
		ReplyTo: c.t.SupportEmail,
		Subject: "Order confirmed: " + o.ProjectTitle,
		HTML:    "<pre>" + template.HTMLEscapeString(text) + "</pre><p>Amount paid: " + template.HTMLEscapeString(upi.FormatAmount(o.Price)) + "</p>",
		Text:    text,
		Tags:    []string{"order-confirmation"},
	}, nil
}

func (c composer) contactTemplate(f ContactForm) (Message, error) {
	at := stamp(f.SubmittedAt)
	return Message{
		TemplateID: c.t.ContactTemplate,
		To:         Recipient{Email: c.t.OperatorEmail},
		ReplyTo:    f.Email,
		Params: map[string]any{
			"name":         f.Name,
			"email":        f.Email,
			"project_type": f.ProjectType,
			"budget":       f.Budget,
			"message":      f.Message,
			"current_date": at.Format(dateLayout),
			"current_time": at.Format(timeLayout),
			"title":        "New inquiry from " + f.Name,
			"to_email":     c.t.OperatorEmail,
			"reply_to":     f.Email,
		},
	}, nil
}

func (c composer) contactHTML(f ContactForm) (Message, error) {
	body := fmt.Sprintf("Name: %s\nEmail: %s\nProject type: %s\nBudget: %s\n\n%s", f.Name, f.Email, f.ProjectType, f.Budget, f.Message)
	return Message{
		To:      Recipient{Email: c.t.OperatorEmail},
		ReplyTo: f.Email,
		Subject: "New inquiry from " + f.Name,
		HTML:    "<pre>" + template.HTMLEscapeString(body) + "</pre>",
		Text:    body,
		Tags:    []string{"contact"},
	}, nil
}
