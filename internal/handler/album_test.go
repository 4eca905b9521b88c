package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atelier/internal/domain"
	"atelier/internal/domain/models"
	"atelier/internal/domain/services"
)

const (
	albumID = "b7a9c2d4-1e3f-4a5b-9c8d-7e6f5a4b3c2d"
	imageID = "c8b0d3e5-2f4a-4b6c-8d9e-0f1a2b3c4d5e"
)

type fakeAlbumService struct {
	album *models.Album
	list  []models.Album
	err   error

	gotPrincipal domain.Principal
	gotID        string
	gotImageID   string
	gotCreate    *services.CreateAlbumRequest
	gotUpdate    *services.UpdateAlbumRequest
	calls        int
}

func (f *fakeAlbumService) CreateAlbum(_ context.Context, p domain.Principal, req *services.CreateAlbumRequest) (*models.Album, error) {
	f.calls++
	f.gotPrincipal = p
	f.gotCreate = req
	return f.album, f.err
}

func (f *fakeAlbumService) GetAlbum(_ context.Context, id string) (*models.Album, error) {
	f.calls++
	f.gotID = id
	return f.album, f.err
}

func (f *fakeAlbumService) ListAlbums(_ context.Context) ([]models.Album, error) {
	f.calls++
	return f.list, f.err
}

func (f *fakeAlbumService) UpdateAlbum(_ context.Context, p domain.Principal, id string, req *services.UpdateAlbumRequest) (*models.Album, error) {
	f.calls++
	f.gotPrincipal = p
	f.gotID = id
	f.gotUpdate = req
	return f.album, f.err
}

func (f *fakeAlbumService) DeleteAlbum(_ context.Context, p domain.Principal, id string) error {
	f.calls++
	f.gotPrincipal = p
	f.gotID = id
	return f.err
}

func (f *fakeAlbumService) DeleteImage(_ context.Context, p domain.Principal, albumID, imageID string) (*models.Album, error) {
	f.calls++
	f.gotPrincipal = p
	f.gotID = albumID
	f.gotImageID = imageID
	return f.album, f.err
}

type filePart struct {
	name        string
	contentType string
	data        []byte
}

func albumMultipart(t *testing.T, fields map[string]string, files []filePart) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for key, value := range fields {
		require.NoError(t, w.WriteField(key, value))
	}
	for _, fp := range files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="images"; filename=%q`, fp.name))
		header.Set("Content-Type", fp.contentType)
		part, err := w.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write(fp.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	return &buf, w.FormDataContentType()
}

func TestCreateAlbumHandlerMultipart(t *testing.T) {
	svc := &fakeAlbumService{album: &models.Album{ID: albumID, UploadedBy: authorID, Title: "Trip"}}
	h := NewAlbumHandler(svc, discardLogger())

	body, contentType := albumMultipart(t,
		map[string]string{
			"title":    "Trip",
			"taken_on": "2025-07-04",
			"alts":     "a mountain",
			"captions": "day one",
		},
		[]filePart{
			{name: "one.png", contentType: "image/png", data: []byte("png-one")},
			{name: "two.jpg", contentType: "image/jpeg", data: []byte("jpg-two")},
		},
	)

	req := authenticated(httptest.NewRequest(http.MethodPost, "/albums/create", body), authorID)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.CreateAlbum(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, svc.gotCreate)
	assert.Equal(t, "Trip", svc.gotCreate.Title)
	require.NotNil(t, svc.gotCreate.TakenOn)
	assert.Equal(t, time.Date(2025, 7, 4, 0, 0, 0, 0, time.UTC), svc.gotCreate.TakenOn.UTC())

	uploads := svc.gotCreate.Uploads
	require.Len(t, uploads, 2)
	assert.Equal(t, "image/png", uploads[0].ContentType)
	assert.Equal(t, []byte("png-one"), uploads[0].Data)
	require.NotNil(t, uploads[0].Alt)
	assert.Equal(t, "a mountain", *uploads[0].Alt)
	require.NotNil(t, uploads[0].Caption)
	assert.Equal(t, "day one", *uploads[0].Caption)
	assert.Equal(t, "image/jpeg", uploads[1].ContentType)
	assert.Nil(t, uploads[1].Alt)
}

func TestCreateAlbumHandlerBadDate(t *testing.T) {
	svc := &fakeAlbumService{}
	h := NewAlbumHandler(svc, discardLogger())

	body, contentType := albumMultipart(t,
		map[string]string{"title": "Trip", "taken_on": "04/07/2025"},
		[]filePart{{name: "one.png", contentType: "image/png", data: []byte("png")}},
	)

	req := authenticated(httptest.NewRequest(http.MethodPost, "/albums/create", body), authorID)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.CreateAlbum(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, svc.calls)
}

func TestCreateAlbumHandlerNotMultipart(t *testing.T) {
	svc := &fakeAlbumService{}
	h := NewAlbumHandler(svc, discardLogger())

	req := authenticated(httptest.NewRequest(http.MethodPost, "/albums/create", bytes.NewReader([]byte(`{"title":"Trip"}`))), authorID)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	h.CreateAlbum(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, svc.calls)
}

func TestUpdateAlbumHandler(t *testing.T) {
	svc := &fakeAlbumService{album: &models.Album{ID: albumID, UploadedBy: authorID, Title: "Trip 2025"}}
	h := NewAlbumHandler(svc, discardLogger())

	body, contentType := albumMultipart(t, map[string]string{"title": "Trip 2025"}, nil)

	req := authenticated(httptest.NewRequest(http.MethodPut, "/albums/"+albumID, body), authorID)
	req.Header.Set("Content-Type", contentType)
	req.SetPathValue("id", albumID)
	rec := httptest.NewRecorder()

	h.UpdateAlbum(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, albumID, svc.gotID)
	require.NotNil(t, svc.gotUpdate)
	assert.Equal(t, "Trip 2025", svc.gotUpdate.Title)
	assert.Empty(t, svc.gotUpdate.Uploads)
}

func TestDeleteAlbumHandlerUpstreamFailure(t *testing.T) {
	svc := &fakeAlbumService{err: &domain.UpstreamError{Message: "failed to delete 1 of 2 album objects"}}
	h := NewAlbumHandler(svc, discardLogger())

	req := authenticated(httptest.NewRequest(http.MethodDelete, "/albums/"+albumID, nil), authorID)
	req.SetPathValue("id", albumID)
	rec := httptest.NewRecorder()

	h.DeleteAlbum(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "failed to delete 1 of 2 album objects", body["detail"])
}

func TestDeleteImageHandler(t *testing.T) {
	svc := &fakeAlbumService{album: &models.Album{
		ID: albumID, UploadedBy: authorID, Title: "Trip",
		Images: []models.Image{{ID: imageID, AlbumID: albumID}},
	}}
	h := NewAlbumHandler(svc, discardLogger())

	req := authenticated(httptest.NewRequest(http.MethodDelete, "/albums/"+albumID+"/images/"+imageID, nil), authorID)
	req.SetPathValue("albumId", albumID)
	req.SetPathValue("imageId", imageID)
	rec := httptest.NewRecorder()

	h.DeleteImage(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, albumID, svc.gotID)
	assert.Equal(t, imageID, svc.gotImageID)

	var got models.Album
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, albumID, got.ID)
}

func TestDeleteImageHandlerMalformedImageID(t *testing.T) {
	svc := &fakeAlbumService{}
	h := NewAlbumHandler(svc, discardLogger())

	req := authenticated(httptest.NewRequest(http.MethodDelete, "/albums/"+albumID+"/images/junk", nil), authorID)
	req.SetPathValue("albumId", albumID)
	req.SetPathValue("imageId", "junk")
	rec := httptest.NewRecorder()

	h.DeleteImage(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Zero(t, svc.calls)
}
