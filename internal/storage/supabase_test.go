package storage

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atelier/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSupabaseStoreUpload(t *testing.T) {
	var gotPath, gotAuth, gotUpsert, gotContentType string
	var gotBody []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotUpsert = r.Header.Get("x-upsert")
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"Key":"images/albums/a1/i1.jpg"}`))
	}))
	defer srv.Close()

	store := NewSupabaseStore(srv.URL, "svc-key", "images", discardLogger())

	url, err := store.Upload(context.Background(), "albums/a1/i1.jpg", []byte("jpeg-bytes"), "image/jpeg")
	require.NoError(t, err)

	assert.Equal(t, "/storage/v1/object/images/albums/a1/i1.jpg", gotPath)
	assert.Equal(t, "Bearer svc-key", gotAuth)
	assert.Equal(t, "true", gotUpsert)
	assert.Equal(t, "image/jpeg", gotContentType)
	assert.Equal(t, []byte("jpeg-bytes"), gotBody)
	assert.Equal(t, srv.URL+"/storage/v1/object/public/images/albums/a1/i1.jpg", url)
}

func TestSupabaseStoreUploadRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"Payload too large"}`, http.StatusRequestEntityTooLarge)
	}))
	defer srv.Close()

	store := NewSupabaseStore(srv.URL, "svc-key", "images", discardLogger())

	_, err := store.Upload(context.Background(), "albums/a1/i1.jpg", []byte("jpeg-bytes"), "image/jpeg")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUpstream))

	var httpErr domain.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusBadGateway, httpErr.StatusCode())
}

func TestSupabaseStoreDelete(t *testing.T) {
	var gotMethod, gotPath string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.Write([]byte(`{"message":"Successfully deleted"}`))
	}))
	defer srv.Close()

	store := NewSupabaseStore(srv.URL, "svc-key", "images", discardLogger())

	err := store.Delete(context.Background(), "albums/a1/i1.jpg")
	require.NoError(t, err)
	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Equal(t, "/storage/v1/object/images/albums/a1/i1.jpg", gotPath)
}

// A missing object is fine: delete stays idempotent so callers can retry
// a half-finished cleanup pass.
func TestSupabaseStoreDeleteMissingObject(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"Object not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	store := NewSupabaseStore(srv.URL, "svc-key", "images", discardLogger())

	assert.NoError(t, store.Delete(context.Background(), "albums/a1/gone.jpg"))
}

func TestSupabaseStoreDeleteRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	store := NewSupabaseStore(srv.URL, "svc-key", "images", discardLogger())

	err := store.Delete(context.Background(), "albums/a1/i1.jpg")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUpstream))
}
