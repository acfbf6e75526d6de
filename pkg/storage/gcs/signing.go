package gcs

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const maxSignedTTL = 7 * 24 * time.Hour

// ErrSigningUnavailable means the client runs on metadata credentials and
// holds no private key.
var ErrSigningUnavailable = errors.New("gcs url signing requires service account credentials")

// SignedURL returns a URL that accepts a PUT of contentType bytes until
// expires elapses.
func (c *Client) SignedURL(bucket, object, contentType string, expires time.Duration) (string, error) {
	if strings.TrimSpace(contentType) == "" {
		return "", errors.New("content type required")
	}
	return c.sign(http.MethodPut, bucket, object, contentType, expires)
}

// SignedReadURL returns a time-limited download link.
func (c *Client) SignedReadURL(bucket, object string, expires time.Duration) (string, error) {
	return c.sign(http.MethodGet, bucket, object, "", expires)
}

// sign builds a V2 signed URL: RSA-SHA256 over method, content type, expiry
// and the canonical resource.
func (c *Client) sign(method, bucket, object, contentType string, expires time.Duration) (string, error) {
	if c == nil || c.serviceAccount == nil || c.serviceAccount.privateKey == nil {
		return "", ErrSigningUnavailable
	}
	bucket = c.bucketOr(bucket)
	switch {
	case bucket == "":
		return "", errors.New("bucket required")
	case strings.TrimSpace(object) == "":
		return "", errors.New("object required")
	case expires <= 0 || expires > maxSignedTTL:
		return "", fmt.Errorf("expiry must be between 0 and %s", maxSignedTTL)
	}

	deadline := strconv.FormatInt(time.Now().Add(expires).Unix(), 10)
	toSign := method + "\n\n" + contentType + "\n" + deadline + "\n/" + bucket + "/" + object
	digest := sha256.Sum256([]byte(toSign))
	sig, err := rsa.SignPKCS1v15(rand.Reader, c.serviceAccount.privateKey, crypto.SHA256, digest[:])
	if err != nil {
		return "", fmt.Errorf("signing url: %w", err)
	}

	q := url.Values{
		"GoogleAccessId": {c.serviceAccount.clientEmail},
		"Expires":        {deadline},
		"Signature":      {base64.StdEncoding.EncodeToString(sig)},
	}
	return c.ObjectURL(bucket, object) + "?" + q.Encode(), nil
}
