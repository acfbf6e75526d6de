// Package upi builds UPI payment links, QR image URLs and app hand-off links.
package upi

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	currencyINR = "INR"
	refAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	refSuffix   = 5

	DefaultQRSize     = 200
	DefaultQREndpoint = "https://api.qrserver.com/v1/create-qr-code/"
)

var (
	vpaPattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+@[a-zA-Z0-9.-]+$`)

	ErrInvalidVPA    = errors.New("invalid upi id")
	ErrInvalidAmount = errors.New("amount must be positive")
)

// PaymentData carries the fields encoded into a upi://pay link.
type PaymentData struct {
	PayeeVPA       string
	PayeeName      string
	Amount         int
	Note           string
	TransactionRef string
}

// PaymentNote is the transaction note shown in the payer's UPI app.
func PaymentNote(title string) string {
	return "Payment for " + title
}

// GenerateTransactionRef returns prefix + epoch millis + five random base36
// characters.
func GenerateTransactionRef(prefix string, now time.Time) string {
	var b strings.Builder
	b.WriteString(prefix)
	b.WriteString(strconv.FormatInt(now.UnixMilli(), 10))
	max := big.NewInt(int64(len(refAlphabet)))
	for i := 0; i < refSuffix; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand does not fail on supported platforms
			panic(fmt.Sprintf("reading random: %v", err))
		}
		b.WriteByte(refAlphabet[n.Int64()])
	}
	return b.String()
}

// BuildPaymentLink encodes data as upi://pay?pa=&pn=&am=&cu=INR&tn=&tr=.
// Parameter order is fixed.
func BuildPaymentLink(data PaymentData) (string, error) {
	if !ValidateVPA(data.PayeeVPA) {
		return "", ErrInvalidVPA
	}
	if data.Amount <= 0 {
		return "", ErrInvalidAmount
	}
	return "upi://pay?" + encodeQuery(data), nil
}

func encodeQuery(data PaymentData) string {
	pairs := [][2]string{
		{"pa", data.PayeeVPA},
		{"pn", data.PayeeName},
		{"am", strconv.Itoa(data.Amount)},
		{"cu", currencyINR},
		{"tn", data.Note},
		{"tr", data.TransactionRef},
	}
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		parts = append(parts, url.QueryEscape(p[0])+"="+url.QueryEscape(p[1]))
	}
	return strings.Join(parts, "&")
}

// QRCodeURL wraps link in the external QR image endpoint.
func QRCodeURL(endpoint, link string, size int) string {
	if endpoint == "" {
		endpoint = DefaultQREndpoint
	}
	if size <= 0 {
		size = DefaultQRSize
	}
	return fmt.Sprintf("%s?size=%dx%d&data=%s", endpoint, size, size, url.QueryEscape(link))
}

// ValidateVPA reports whether vpa looks like handle@provider.
func ValidateVPA(vpa string) bool {
	return vpaPattern.MatchString(vpa)
}

// IsExpired reports whether an attempt created at createdAt is past window.
func IsExpired(createdAt, now time.Time, window time.Duration) bool {
	return now.Sub(createdAt) > window
}
