package gcs

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/techcreator/storefront/pkg/config"
)

func serviceAccountJSON(t *testing.T, tokenURI string) (string, *rsa.PrivateKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	raw, err := json.Marshal(map[string]string{
		"client_email": "uploader@example.iam.gserviceaccount.com",
		"private_key":  string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})),
		"token_uri":    tokenURI,
	})
	require.NoError(t, err)
	return string(raw), key
}

func TestServiceAccountTokenExchange(t *testing.T) {
	var key *rsa.PrivateKey
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "urn:ietf:params:oauth:grant-type:jwt-bearer", r.PostForm.Get("grant_type"))

		claims := jwt.MapClaims{}
		_, err := jwt.ParseWithClaims(r.PostForm.Get("assertion"), claims, func(*jwt.Token) (any, error) {
			return &key.PublicKey, nil
		}, jwt.WithValidMethods([]string{"RS256"}))
		assert.NoError(t, err)
		assert.Equal(t, "uploader@example.iam.gserviceaccount.com", claims["iss"])
		assert.Equal(t, tokenScope, claims["scope"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"ya29.test","expires_in":3600}`))
	}))
	defer srv.Close()

	creds, k := serviceAccountJSON(t, srv.URL)
	key = k

	ts, sa, err := credentialsFromConfig(srv.Client(), config.GCPConfig{CredentialsJSON: creds})
	require.NoError(t, err)
	require.NotNil(t, sa)
	assert.Equal(t, "uploader@example.iam.gserviceaccount.com", sa.clientEmail)

	tok, err := ts.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ya29.test", tok)
}

func TestCredentialsFromConfig(t *testing.T) {
	ts, sa, err := credentialsFromConfig(http.DefaultClient, config.GCPConfig{})
	require.NoError(t, err)
	assert.NotNil(t, ts)
	assert.Nil(t, sa, "metadata credentials cannot sign")

	_, _, err = credentialsFromConfig(http.DefaultClient, config.GCPConfig{CredentialsJSON: `{"client_email":"a@b"}`})
	assert.Error(t, err)

	_, _, err = credentialsFromConfig(http.DefaultClient, config.GCPConfig{ApplicationCredentials: t.TempDir() + "/missing.json"})
	assert.Error(t, err)
}

func TestTokenRequestRejectsEmptyToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"expires_in":3600}`))
	}))
	defer srv.Close()

	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	_, _, err = doTokenRequest(srv.Client(), req)
	assert.ErrorContains(t, err, "no access_token")
}
