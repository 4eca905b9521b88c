package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atelier/internal/domain/models"
)

type fakeTagService struct {
	tags []models.Tag
	err  error
}

func (f *fakeTagService) ListTags(_ context.Context) ([]models.Tag, error) {
	return f.tags, f.err
}

func TestListTagsHandler(t *testing.T) {
	svc := &fakeTagService{tags: []models.Tag{
		{ID: "t1", Name: "Go", Slug: "go"},
		{ID: "t2", Name: "Travel", Slug: "travel"},
	}}
	h := NewTagHandler(svc, discardLogger())

	req := httptest.NewRequest(http.MethodGet, "/tags", nil)
	rec := httptest.NewRecorder()

	h.ListTags(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var got []models.Tag
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "go", got[0].Slug)
}
