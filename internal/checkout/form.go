package checkout

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/techcreator/storefront/internal/notifications"
	"github.com/techcreator/storefront/internal/payments/upi"
	"github.com/techcreator/storefront/pkg/enums"
	pkgerrors "github.com/techcreator/storefront/pkg/errors"
)

// Form is the customer input submitted to start a payment attempt. The
// customer either types a UPI ID or picks an app; both may be set.
//
// The form tags are checked by Validate after Normalize, not by the request
// decoder, so surrounding whitespace never fails a field.
type Form struct {
	CustomerName  string              `json:"customer_name" form:"required"`
	CustomerEmail string              `json:"customer_email" form:"required,email,mailbox"`
	CustomerPhone string              `json:"customer_phone" form:"required"`
	PaymentMethod enums.PaymentMethod `json:"payment_method" form:"oneof=upi card"`
	UPIID         string              `json:"upi_id"`
	UPIApp        string              `json:"upi_app"`
}

var formRules = newFormValidator()

func newFormValidator() *validator.Validate {
	v := validator.New()
	v.SetTagName("form")
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		return name
	})
	// mailbox matches what the notifier accepts, so a paid order can
	// always be emailed.
	_ = v.RegisterValidation("mailbox", func(fl validator.FieldLevel) bool {
		return notifications.ValidEmail(fl.Field().String())
	})
	return v
}

// FieldError names one invalid form field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Normalize trims fields and defaults the payment method to UPI.
func (f Form) Normalize() Form {
	f.CustomerName = strings.TrimSpace(f.CustomerName)
	f.CustomerEmail = strings.TrimSpace(f.CustomerEmail)
	f.CustomerPhone = strings.TrimSpace(f.CustomerPhone)
	f.UPIID = strings.TrimSpace(f.UPIID)
	f.UPIApp = strings.TrimSpace(f.UPIApp)
	if f.PaymentMethod == "" {
		f.PaymentMethod = enums.PaymentMethodUPI
	}
	return f
}

// Validate returns a validation error listing every invalid field.
func (f Form) Validate() error {
	f = f.Normalize()
	fields := tagErrors(formRules.Struct(f))

	switch f.PaymentMethod {
	case enums.PaymentMethodUPI:
		switch {
		case f.UPIID == "" && f.UPIApp == "":
			fields = append(fields, FieldError{Field: "upi_id", Message: "enter a UPI ID or select a UPI app"})
		case f.UPIID != "" && !upi.ValidateVPA(f.UPIID):
			fields = append(fields, FieldError{Field: "upi_id", Message: "must look like name@bank"})
		}
		if f.UPIApp != "" {
			if _, ok := upi.FindApp(f.UPIApp); !ok {
				fields = append(fields, FieldError{Field: "upi_app", Message: "unknown UPI app"})
			}
		}
	case enums.PaymentMethodCard:
		fields = append(fields, FieldError{Field: "payment_method", Message: "card payments are not available"})
	}

	if len(fields) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid checkout form").WithDetails(fields)
	}
	return nil
}

func tagErrors(err error) []FieldError {
	if err == nil {
		return nil
	}
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return []FieldError{{Field: "form", Message: err.Error()}}
	}
	fields := make([]FieldError, 0, len(errs))
	for _, fe := range errs {
		fields = append(fields, FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
	}
	return fields
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email", "mailbox":
		return "must be a valid email address"
	case "oneof":
		return "must be upi"
	}
	return "is invalid"
}
