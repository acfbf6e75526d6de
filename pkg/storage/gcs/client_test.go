package gcs

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func signingClient(t *testing.T) (*Client, *rsa.PrivateKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate rsa key: %v", err)
	}
	return &Client{
		defaultBucket:  "project-documents",
		serviceAccount: &serviceAccountInfo{clientEmail: "signer@example.com", privateKey: key},
	}, key
}

// verifySignature rebuilds the V2 string-to-sign from the URL and checks it
// against the public key.
func verifySignature(t *testing.T, key *rsa.PrivateKey, rawURL, method, contentType, bucket, object string) {
	t.Helper()
	parsed, err := url.Parse(rawURL)
	if err != nil {
		t.Fatalf("parse signed url: %v", err)
	}
	if parsed.Host != "storage.googleapis.com" {
		t.Fatalf("unexpected host %s", parsed.Host)
	}
	q := parsed.Query()
	if q.Get("GoogleAccessId") != "signer@example.com" {
		t.Fatalf("unexpected GoogleAccessId %q", q.Get("GoogleAccessId"))
	}
	expires := q.Get("Expires")
	if expires == "" {
		t.Fatal("Expires missing")
	}
	sig, err := base64.StdEncoding.DecodeString(q.Get("Signature"))
	if err != nil || len(sig) == 0 {
		t.Fatalf("decode signature: %v", err)
	}
	payload := method + "\n\n" + contentType + "\n" + expires + "\n/" + bucket + "/" + object
	hash := sha256.Sum256([]byte(payload))
	if err := rsa.VerifyPKCS1v15(&key.PublicKey, crypto.SHA256, hash[:], sig); err != nil {
		t.Fatalf("verify %s signature: %v", method, err)
	}
}

func TestSignedURLs(t *testing.T) {
	t.Parallel()
	client, key := signingClient(t)

	put, err := client.SignedURL("", "documents/p1/review_1/id/proposal.pdf", "application/pdf", 15*time.Minute)
	if err != nil {
		t.Fatalf("SignedURL: %v", err)
	}
	verifySignature(t, key, put, http.MethodPut, "application/pdf", "project-documents", "documents/p1/review_1/id/proposal.pdf")

	get, err := client.SignedReadURL("archive", "documents/p1/review_3/id/final.zip", time.Hour)
	if err != nil {
		t.Fatalf("SignedReadURL: %v", err)
	}
	verifySignature(t, key, get, http.MethodGet, "", "archive", "documents/p1/review_3/id/final.zip")
}

func TestSignedURLRejects(t *testing.T) {
	t.Parallel()
	client, _ := signingClient(t)
	noBucket := &Client{serviceAccount: client.serviceAccount}

	cases := []struct {
		name        string
		client      *Client
		object      string
		contentType string
		ttl         time.Duration
	}{
		{"missing bucket", noBucket, "a.pdf", "application/pdf", time.Minute},
		{"missing object", client, " ", "application/pdf", time.Minute},
		{"missing content type", client, "a.pdf", "", time.Minute},
		{"negative ttl", client, "a.pdf", "application/pdf", -time.Minute},
		{"ttl over a week", client, "a.pdf", "application/pdf", 8 * 24 * time.Hour},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := tc.client.SignedURL("", tc.object, tc.contentType, tc.ttl); err == nil {
				t.Fatalf("expected error")
			}
		})
	}

	metadataOnly := &Client{defaultBucket: "b", tokenSource: newMetadataTokenSource(http.DefaultClient)}
	if _, err := metadataOnly.SignedReadURL("", "a.pdf", time.Minute); !errors.Is(err, ErrSigningUnavailable) {
		t.Fatalf("expected ErrSigningUnavailable, got %v", err)
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func apiClient(status int, seen *[]*http.Request) *Client {
	return &Client{
		defaultBucket: "project-documents",
		tokenSource: &tokenSource{fetch: func(context.Context) (string, time.Time, error) {
			return "token", time.Now().Add(time.Hour), nil
		}},
		httpClient: &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			*seen = append(*seen, req)
			return &http.Response{StatusCode: status, Status: http.StatusText(status), Body: io.NopCloser(strings.NewReader("")), Header: http.Header{}}, nil
		})},
	}
}

func TestDeleteObjectStatuses(t *testing.T) {
	t.Parallel()
	cases := map[int]bool{
		http.StatusNoContent:  false,
		http.StatusOK:         false,
		http.StatusNotFound:   false,
		http.StatusForbidden:  true,
		http.StatusBadGateway: true,
	}
	for status, wantErr := range cases {
		var seen []*http.Request
		err := apiClient(status, &seen).DeleteObject(context.Background(), "", "documents/p1/old brief.pdf")
		if (err != nil) != wantErr {
			t.Fatalf("status %d: err = %v, wantErr %v", status, err, wantErr)
		}
		req := seen[0]
		if req.Method != http.MethodDelete || req.Header.Get("Authorization") != "Bearer token" {
			t.Fatalf("unexpected request %s auth=%q", req.Method, req.Header.Get("Authorization"))
		}
		if !strings.Contains(req.URL.EscapedPath(), "/b/project-documents/o/documents%2Fp1%2Fold%20brief.pdf") {
			t.Fatalf("object must be escaped as one segment, got %s", req.URL.EscapedPath())
		}
	}
}

func TestPingListsBucket(t *testing.T) {
	t.Parallel()
	var seen []*http.Request
	if err := apiClient(http.StatusOK, &seen).Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if got := seen[0].URL.Query().Get("maxResults"); got != "1" {
		t.Fatalf("expected a single object listing, got maxResults=%q", got)
	}

	if err := apiClient(http.StatusForbidden, &seen).Ping(context.Background()); err == nil {
		t.Fatal("expected ping failure on 403")
	}
	if err := (&Client{}).Ping(context.Background()); err == nil {
		t.Fatal("expected uninitialized client to fail")
	}
}

func TestTokenSourceCachesUntilNearExpiry(t *testing.T) {
	t.Parallel()
	var fetches atomic.Int32
	expiry := time.Now().Add(time.Hour)
	ts := &tokenSource{fetch: func(context.Context) (string, time.Time, error) {
		fetches.Add(1)
		return "t1", expiry, nil
	}}
	for i := 0; i < 3; i++ {
		if tok, err := ts.Token(context.Background()); err != nil || tok != "t1" {
			t.Fatalf("Token = %q, %v", tok, err)
		}
	}
	if fetches.Load() != 1 {
		t.Fatalf("expected one fetch, got %d", fetches.Load())
	}

	expiry = time.Now().Add(30 * time.Second)
	ts.expiry = expiry
	if _, err := ts.Token(context.Background()); err != nil {
		t.Fatalf("Token: %v", err)
	}
	if fetches.Load() != 2 {
		t.Fatalf("expected refresh inside the one minute margin, got %d fetches", fetches.Load())
	}
}

func TestObjectURLEscapesSegments(t *testing.T) {
	t.Parallel()
	client := &Client{defaultBucket: "project-documents"}
	got := client.ObjectURL("", "docs/site one/brief #1.pdf")
	want := "https://storage.googleapis.com/project-documents/docs/site%20one/brief%20%231.pdf"
	if got != want {
		t.Fatalf("ObjectURL = %q, want %q", got, want)
	}
}
