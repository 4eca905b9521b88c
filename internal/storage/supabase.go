package storage

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"atelier/internal/domain"
)

// SupabaseStore implements ObjectStore against the Supabase Storage
// REST API, authenticated with the service role key.
type SupabaseStore struct {
	client  *resty.Client
	baseURL string
	bucket  string
	logger  *slog.Logger
}

// NewSupabaseStore creates a storage client bound to one bucket.
func NewSupabaseStore(supabaseURL, serviceKey, bucket string, logger *slog.Logger) *SupabaseStore {
	client := resty.New().
		SetBaseURL(supabaseURL).
		SetHeader("Authorization", "Bearer "+serviceKey).
		SetHeader("apikey", serviceKey).
		SetTimeout(60 * time.Second)

	return &SupabaseStore{
		client:  client,
		baseURL: supabaseURL,
		bucket:  bucket,
		logger:  logger,
	}
}

// Upload stores data under path in the bucket and returns the object's
// public URL. x-upsert overwrites an existing object, so a retried
// upload lands on the same key instead of failing.
func (s *SupabaseStore) Upload(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", contentType).
		SetHeader("x-upsert", "true").
		SetBody(data).
		Post(fmt.Sprintf("/storage/v1/object/%s/%s", s.bucket, path))
	if err != nil {
		return "", &domain.UpstreamError{Message: fmt.Sprintf("storage upload %s", path), Err: err}
	}
	if resp.IsError() {
		s.logger.Error("storage upload rejected", "path", path, "status", resp.StatusCode(), "body", resp.String())
		return "", &domain.UpstreamError{Message: fmt.Sprintf("storage upload %s: status %d", path, resp.StatusCode())}
	}

	return s.PublicURL(path), nil
}

// Delete removes the object at path. A 404 from storage is treated as
// success so the call stays idempotent.
func (s *SupabaseStore) Delete(ctx context.Context, path string) error {
	resp, err := s.client.R().
		SetContext(ctx).
		Delete(fmt.Sprintf("/storage/v1/object/%s/%s", s.bucket, path))
	if err != nil {
		return &domain.UpstreamError{Message: fmt.Sprintf("storage delete %s", path), Err: err}
	}
	if resp.IsError() && resp.StatusCode() != http.StatusNotFound {
		s.logger.Error("storage delete rejected", "path", path, "status", resp.StatusCode(), "body", resp.String())
		return &domain.UpstreamError{Message: fmt.Sprintf("storage delete %s: status %d", path, resp.StatusCode())}
	}

	return nil
}

// PublicURL returns the public URL for an object in the bucket. Valid
// only for buckets marked public in Supabase.
func (s *SupabaseStore) PublicURL(path string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.baseURL, s.bucket, path)
}
