package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/techcreator/storefront/pkg/config"
	"github.com/techcreator/storefront/pkg/logger"
)

const (
	storageHost = "https://storage.googleapis.com"
	pingTimeout = 5 * time.Second
)

var errNotInitialized = errors.New("gcs client not initialized")

// Client signs upload and download URLs for project documents and calls
// the JSON API for health checks and deletes.
type Client struct {
	httpClient     *http.Client
	defaultBucket  string
	tokenSource    *tokenSource
	serviceAccount *serviceAccountInfo
}

// NewClient resolves credentials and checks the bucket is listable before
// returning.
func NewClient(ctx context.Context, cfg config.GCSConfig, gcp config.GCPConfig, logg *logger.Logger) (*Client, error) {
	if cfg.BucketName == "" {
		return nil, errors.New("gcs bucket name is required")
	}
	httpClient := &http.Client{Timeout: 10 * time.Second}
	ts, sa, err := credentialsFromConfig(httpClient, gcp)
	if err != nil {
		return nil, err
	}
	c := &Client{httpClient: httpClient, defaultBucket: cfg.BucketName, tokenSource: ts, serviceAccount: sa}
	if err := c.Ping(ctx); err != nil {
		return nil, fmt.Errorf("gcs health check failed: %w", err)
	}
	if logg != nil {
		logg.Info(logg.WithFields(ctx, map[string]any{"bucket": cfg.BucketName, "signing": sa != nil}), "gcs.ready")
	}
	return c, nil
}

func (c *Client) DefaultBucket() string {
	if c == nil {
		return ""
	}
	return c.defaultBucket
}

func (c *Client) bucketOr(bucket string) string {
	if bucket != "" {
		return bucket
	}
	return c.DefaultBucket()
}

// ObjectURL is the public, unsigned location of object.
func (c *Client) ObjectURL(bucket, object string) string {
	segments := strings.Split(object, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return storageHost + "/" + c.bucketOr(bucket) + "/" + strings.Join(segments, "/")
}

// Ping lists at most one object, which needs storage.objects.list on the
// default bucket.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.tokenSource == nil {
		return errNotInitialized
	}
	if c.defaultBucket == "" {
		return errors.New("gcs bucket not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	endpoint := storageHost + "/storage/v1/b/" + url.PathEscape(c.defaultBucket) + "/o?maxResults=1"
	resp, err := c.do(ctx, http.MethodGet, endpoint)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		if msg := strings.TrimSpace(string(snippet)); msg != "" {
			return fmt.Errorf("gcs object check failed: %s: %s", resp.Status, msg)
		}
		return fmt.Errorf("gcs object check failed: %s", resp.Status)
	}
	return nil
}

// DeleteObject treats a missing object as already deleted.
func (c *Client) DeleteObject(ctx context.Context, bucket, object string) error {
	if c == nil || c.tokenSource == nil {
		return errNotInitialized
	}
	endpoint := storageHost + "/storage/v1/b/" + url.PathEscape(c.bucketOr(bucket)) + "/o/" + url.PathEscape(object)
	resp, err := c.do(ctx, http.MethodDelete, endpoint)
	if err != nil {
		return err
	}
	_ = resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent, http.StatusNotFound:
		return nil
	default:
		return fmt.Errorf("gcs delete %s: %s", object, resp.Status)
	}
}

func (c *Client) do(ctx context.Context, method, endpoint string) (*http.Response, error) {
	token, err := c.tokenSource.Token(ctx)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	return c.httpClient.Do(req)
}
