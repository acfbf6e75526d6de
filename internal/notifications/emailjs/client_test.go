package emailjs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSendPostsTemplatePayload(t *testing.T) {
	var got sendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Fatalf("unexpected content type %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		_, _ = w.Write([]byte("OK"))
	}))
	defer srv.Close()

	client := New(Config{Endpoint: srv.URL, PrivateKey: "priv"}, srv.Client())
	err := client.Send(context.Background(), "service_1", "template_document_delivery", map[string]any{"customer_name": "Asha"}, "pub_1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ServiceID != "service_1" || got.TemplateID != "template_document_delivery" || got.UserID != "pub_1" {
		t.Fatalf("unexpected payload %+v", got)
	}
	if got.AccessToken != "priv" {
		t.Fatalf("expected access token, got %q", got.AccessToken)
	}
	if got.TemplateParams["customer_name"] != "Asha" {
		t.Fatalf("unexpected params %+v", got.TemplateParams)
	}
}

func TestSendReturnsStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("The template ID is invalid"))
	}))
	defer srv.Close()

	client := New(Config{Endpoint: srv.URL}, srv.Client())
	err := client.Send(context.Background(), "service_1", "bad", nil, "pub_1")
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusBadRequest || statusErr.Body != "The template ID is invalid" {
		t.Fatalf("unexpected status error %+v", statusErr)
	}
}

func TestSendRequiresConfiguration(t *testing.T) {
	client := New(Config{Endpoint: "http://127.0.0.1:1"}, nil)
	if err := client.Send(context.Background(), "", "tpl", nil, "pub"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	if err := client.Send(context.Background(), "svc", "tpl", nil, ""); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
