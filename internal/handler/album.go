package handler

import (
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"atelier/internal/config"
	"atelier/internal/domain/services"
	"atelier/internal/httputil"
)

// AlbumHandler handles album HTTP requests. Create and update accept
// multipart forms because they carry image payloads.
type AlbumHandler struct {
	albumService services.AlbumService
	logger       *slog.Logger
}

// NewAlbumHandler creates a new album handler
func NewAlbumHandler(albumService services.AlbumService, logger *slog.Logger) *AlbumHandler {
	return &AlbumHandler{
		albumService: albumService,
		logger:       logger,
	}
}

// CreateAlbum creates an album with its initial images
// POST /albums/create
func (h *AlbumHandler) CreateAlbum(w http.ResponseWriter, r *http.Request) {
	p := httputil.PrincipalFrom(r)

	form, err := parseAlbumForm(r)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	album, err := h.albumService.CreateAlbum(r.Context(), p, &services.CreateAlbumRequest{
		Title:       form.title,
		Description: form.description,
		Location:    form.location,
		TakenOn:     form.takenOn,
		Uploads:     form.uploads,
	})
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, album)
}

// ListAlbums lists all albums
// GET /albums
func (h *AlbumHandler) ListAlbums(w http.ResponseWriter, r *http.Request) {
	albums, err := h.albumService.ListAlbums(r.Context())
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, albums)
}

// GetAlbum retrieves an album by ID
// GET /albums/{id}
func (h *AlbumHandler) GetAlbum(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	album, err := h.albumService.GetAlbum(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, album)
}

// UpdateAlbum replaces album metadata and appends any uploaded images
// PUT /albums/{id}
func (h *AlbumHandler) UpdateAlbum(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	p := httputil.PrincipalFrom(r)

	form, err := parseAlbumForm(r)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	album, err := h.albumService.UpdateAlbum(r.Context(), p, id, &services.UpdateAlbumRequest{
		Title:       form.title,
		Description: form.description,
		Location:    form.location,
		TakenOn:     form.takenOn,
		Uploads:     form.uploads,
	})
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, album)
}

// DeleteAlbum removes an owned album with all its images
// DELETE /albums/{id}
func (h *AlbumHandler) DeleteAlbum(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	p := httputil.PrincipalFrom(r)

	if err := h.albumService.DeleteAlbum(r.Context(), p, id); err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]string{"message": "album deleted"})
}

// DeleteImage removes one image from an owned album
// DELETE /albums/{albumId}/images/{imageId}
func (h *AlbumHandler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	albumID, ok := pathID(w, r, "albumId")
	if !ok {
		return
	}
	imageID, ok := pathID(w, r, "imageId")
	if !ok {
		return
	}
	p := httputil.PrincipalFrom(r)

	album, err := h.albumService.DeleteImage(r.Context(), p, albumID, imageID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, album)
}

// albumForm carries the decoded multipart fields shared by album create
// and update.
type albumForm struct {
	title       string
	description *string
	location    *string
	takenOn     *time.Time
	uploads     []services.ImageUpload
}

// parseAlbumForm decodes an album multipart form. Metadata fields are
// "title", "description", "location" and "taken_on" (YYYY-MM-DD); file
// parts are repeated "images" fields, with optional "alts" and
// "captions" values matched to files by position.
func parseAlbumForm(r *http.Request) (*albumForm, error) {
	if err := r.ParseMultipartForm(config.MaxMultipartMemory); err != nil {
		return nil, fmt.Errorf("invalid multipart form: %w", err)
	}

	form := &albumForm{title: r.FormValue("title")}
	if v := r.FormValue("description"); v != "" {
		form.description = &v
	}
	if v := r.FormValue("location"); v != "" {
		form.location = &v
	}
	if v := r.FormValue("taken_on"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return nil, fmt.Errorf("taken_on must be a YYYY-MM-DD date")
		}
		form.takenOn = &t
	}

	if r.MultipartForm == nil {
		return form, nil
	}

	alts := r.MultipartForm.Value["alts"]
	captions := r.MultipartForm.Value["captions"]
	for i, fh := range r.MultipartForm.File["images"] {
		data, err := readPart(fh)
		if err != nil {
			return nil, err
		}

		upload := services.ImageUpload{
			Filename:    fh.Filename,
			ContentType: partContentType(fh),
			Data:        data,
		}
		if i < len(alts) && alts[i] != "" {
			upload.Alt = &alts[i]
		}
		if i < len(captions) && captions[i] != "" {
			upload.Caption = &captions[i]
		}
		form.uploads = append(form.uploads, upload)
	}

	return form, nil
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload %q: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read upload %q: %w", fh.Filename, err)
	}
	return data, nil
}

func partContentType(fh *multipart.FileHeader) string {
	if ct := fh.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
