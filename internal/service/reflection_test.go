package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atelier/internal/domain"
	"atelier/internal/domain/models"
	"atelier/internal/domain/repositories"
	"atelier/internal/domain/services"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- Fakes ---

type fakeTxManager struct{}

func (fakeTxManager) ExecTx(ctx context.Context, fn repositories.TxFn) error { return fn(ctx) }

type fakeTagRepo struct {
	byName map[string]models.Tag
	assoc  map[string][]string // reflection id -> tag ids
	nextID int
}

func newFakeTagRepo() *fakeTagRepo {
	return &fakeTagRepo{
		byName: make(map[string]models.Tag),
		assoc:  make(map[string][]string),
	}
}

func (f *fakeTagRepo) Upsert(_ context.Context, tags []models.Tag) ([]models.Tag, error) {
	out := make([]models.Tag, 0, len(tags))
	for _, tag := range tags {
		stored, ok := f.byName[tag.Name]
		if !ok {
			f.nextID++
			stored = models.Tag{
				ID:        fmt.Sprintf("tag-%d", f.nextID),
				Name:      tag.Name,
				Slug:      tag.Slug,
				CreatedAt: time.Now(),
			}
			f.byName[tag.Name] = stored
		}
		out = append(out, stored)
	}
	return out, nil
}

func (f *fakeTagRepo) ReplaceForReflection(_ context.Context, reflectionID string, tagIDs []string) error {
	f.assoc[reflectionID] = append([]string(nil), tagIDs...)
	return nil
}

func (f *fakeTagRepo) List(_ context.Context) ([]models.Tag, error) {
	out := make([]models.Tag, 0, len(f.byName))
	for _, tag := range f.byName {
		out = append(out, tag)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeTagRepo) tagsFor(reflectionID string) []models.Tag {
	out := []models.Tag{}
	for _, id := range f.assoc[reflectionID] {
		for _, tag := range f.byName {
			if tag.ID == id {
				out = append(out, tag)
			}
		}
	}
	return out
}

type fakeReflectionRepo struct {
	byID      map[string]*models.Reflection
	tags      *fakeTagRepo
	nextID    int
	publishes []time.Time
}

func newFakeReflectionRepo(tags *fakeTagRepo) *fakeReflectionRepo {
	return &fakeReflectionRepo{
		byID: make(map[string]*models.Reflection),
		tags: tags,
	}
}

func (f *fakeReflectionRepo) Create(_ context.Context, r *models.Reflection) error {
	for _, existing := range f.byID {
		if existing.Slug == r.Slug {
			return &domain.ConflictError{Message: "slug taken", ResourceType: "reflection", Field: "slug"}
		}
	}
	f.nextID++
	r.ID = fmt.Sprintf("reflection-%d", f.nextID)
	r.CreatedAt = time.Now()
	r.UpdatedAt = r.CreatedAt
	cp := *r
	f.byID[r.ID] = &cp
	return nil
}

func (f *fakeReflectionRepo) GetByID(_ context.Context, id string) (*models.Reflection, error) {
	stored, ok := f.byID[id]
	if !ok {
		return nil, fmt.Errorf("reflection %s: %w", id, domain.ErrNotFound)
	}
	cp := *stored
	cp.Tags = f.tags.tagsFor(id)
	return &cp, nil
}

func (f *fakeReflectionRepo) GetOwnerID(_ context.Context, id string) (string, error) {
	stored, ok := f.byID[id]
	if !ok {
		return "", fmt.Errorf("reflection %s: %w", id, domain.ErrNotFound)
	}
	return stored.AuthorID, nil
}

func (f *fakeReflectionRepo) List(_ context.Context, scope domain.ListScope) ([]models.Reflection, error) {
	if scope.Empty {
		return []models.Reflection{}, nil
	}
	out := []models.Reflection{}
	for id, r := range f.byID {
		visible := r.Status == domain.StatusPublished ||
			(scope.ViewerID != "" && r.AuthorID == scope.ViewerID)
		if !visible {
			continue
		}
		if scope.Status != "" && r.Status != scope.Status {
			continue
		}
		if scope.AuthorID != "" && r.AuthorID != scope.AuthorID {
			continue
		}
		cp := *r
		cp.Tags = f.tags.tagsFor(id)
		out = append(out, cp)
	}
	return out, nil
}

func (f *fakeReflectionRepo) Update(_ context.Context, r *models.Reflection) error {
	stored, ok := f.byID[r.ID]
	if !ok || stored.AuthorID != r.AuthorID {
		return fmt.Errorf("reflection %s: %w", r.ID, domain.ErrNotFound)
	}
	for id, other := range f.byID {
		if id != r.ID && other.Slug == r.Slug {
			return &domain.ConflictError{Message: "slug taken", ResourceType: "reflection", Field: "slug"}
		}
	}
	stored.Title = r.Title
	stored.Slug = r.Slug
	stored.Body = r.Body
	stored.Excerpt = r.Excerpt
	stored.FeaturedImageID = r.FeaturedImageID
	stored.UpdatedAt = time.Now()
	return nil
}

func (f *fakeReflectionRepo) Publish(_ context.Context, id, authorID string, publishDate time.Time) error {
	stored, ok := f.byID[id]
	if !ok || stored.AuthorID != authorID {
		return fmt.Errorf("reflection %s: %w", id, domain.ErrNotFound)
	}
	stored.Status = domain.StatusPublished
	d := publishDate
	stored.PublishDate = &d
	stored.UpdatedAt = time.Now()
	f.publishes = append(f.publishes, publishDate)
	return nil
}

func (f *fakeReflectionRepo) Delete(_ context.Context, id, authorID string) error {
	stored, ok := f.byID[id]
	if !ok || stored.AuthorID != authorID {
		return fmt.Errorf("reflection %s: %w", id, domain.ErrNotFound)
	}
	delete(f.byID, id)
	return nil
}

func newReflectionService(t *testing.T) (services.ReflectionService, *fakeReflectionRepo, *fakeTagRepo) {
	t.Helper()
	tagRepo := newFakeTagRepo()
	repo := newFakeReflectionRepo(tagRepo)
	svc := NewReflectionService(repo, tagRepo, fakeTxManager{}, discardLogger())
	return svc, repo, tagRepo
}

// --- Tests ---

func TestCreateReflectionDefaultsToDraft(t *testing.T) {
	svc, _, _ := newReflectionService(t)
	author := domain.NewPrincipal("user-a")

	got, err := svc.CreateReflection(context.Background(), author, &services.CreateReflectionRequest{
		Title: "Morning Light",
		Body:  "Notes on the morning light.",
		Tags:  []string{"photography", "notes"},
	})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusDraft, got.Status)
	assert.Nil(t, got.PublishDate)
	assert.Equal(t, "morning-light", got.Slug)
	assert.Equal(t, "user-a", got.AuthorID)
	require.Len(t, got.Tags, 2)
}

func TestCreateReflectionRequiresAuth(t *testing.T) {
	svc, _, _ := newReflectionService(t)

	_, err := svc.CreateReflection(context.Background(), domain.Anonymous, &services.CreateReflectionRequest{
		Title: "Morning Light",
		Body:  "body",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestCreateReflectionValidation(t *testing.T) {
	svc, _, _ := newReflectionService(t)
	author := domain.NewPrincipal("user-a")

	_, err := svc.CreateReflection(context.Background(), author, &services.CreateReflectionRequest{
		Body: "body without title",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidation)

	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Fields, "title")
}

func TestCreateReflectionRejectsDraftPublishDate(t *testing.T) {
	svc, _, _ := newReflectionService(t)
	author := domain.NewPrincipal("user-a")
	now := time.Now()

	_, err := svc.CreateReflection(context.Background(), author, &services.CreateReflectionRequest{
		Title:       "Morning Light",
		Body:        "body",
		PublishDate: &now,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

// Creating directly as published stores exactly what was sent: without
// an explicit publish_date the column stays null until a publish call.
func TestCreateReflectionPublishedWithoutDate(t *testing.T) {
	svc, _, _ := newReflectionService(t)
	author := domain.NewPrincipal("user-a")

	got, err := svc.CreateReflection(context.Background(), author, &services.CreateReflectionRequest{
		Title:  "Morning Light",
		Body:   "body",
		Status: domain.StatusPublished,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPublished, got.Status)
	assert.Nil(t, got.PublishDate)
}

func TestCreateReflectionSlugConflict(t *testing.T) {
	svc, _, _ := newReflectionService(t)
	author := domain.NewPrincipal("user-a")

	_, err := svc.CreateReflection(context.Background(), author, &services.CreateReflectionRequest{
		Title: "Morning Light",
		Body:  "first",
	})
	require.NoError(t, err)

	_, err = svc.CreateReflection(context.Background(), author, &services.CreateReflectionRequest{
		Title: "Morning Light",
		Body:  "second",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestGetReflectionDraftVisibility(t *testing.T) {
	svc, _, _ := newReflectionService(t)
	author := domain.NewPrincipal("user-a")
	other := domain.NewPrincipal("user-b")

	draft, err := svc.CreateReflection(context.Background(), author, &services.CreateReflectionRequest{
		Title: "Draft Thoughts",
		Body:  "not ready yet",
	})
	require.NoError(t, err)

	got, err := svc.GetReflection(context.Background(), author, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, draft.ID, got.ID)

	// Non-owners get the same answer as for a missing id
	_, err = svc.GetReflection(context.Background(), other, draft.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.GetReflection(context.Background(), domain.Anonymous, draft.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListReflectionsFailClosed(t *testing.T) {
	svc, _, _ := newReflectionService(t)
	// UUID-form ids so the author filter survives the service's format check
	author := domain.NewPrincipal("6f1e1d5a-5b0a-4c3e-9f68-1a2b3c4d5e6f")
	other := domain.NewPrincipal("9a8b7c6d-5e4f-4a3b-8c2d-1e0f9a8b7c6d")

	_, err := svc.CreateReflection(context.Background(), author, &services.CreateReflectionRequest{
		Title: "Private Draft", Body: "draft body",
	})
	require.NoError(t, err)
	published, err := svc.CreateReflection(context.Background(), author, &services.CreateReflectionRequest{
		Title: "Public Post", Body: "published body", Status: domain.StatusPublished,
	})
	require.NoError(t, err)

	// Anonymous: published only, even without filters
	list, err := svc.ListReflections(context.Background(), domain.Anonymous, "", "")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, published.ID, list[0].ID)

	// Anonymous asking for drafts: empty, not an error
	list, err = svc.ListReflections(context.Background(), domain.Anonymous, domain.StatusDraft, "")
	require.NoError(t, err)
	assert.Empty(t, list)

	// Authenticated asking for another author's drafts: empty
	list, err = svc.ListReflections(context.Background(), other, domain.StatusDraft, author.ID)
	require.NoError(t, err)
	assert.Empty(t, list)

	// The author sees published plus own drafts without filters
	list, err = svc.ListReflections(context.Background(), author, "", "")
	require.NoError(t, err)
	assert.Len(t, list, 2)

	// Unknown status values collapse to an empty set
	list, err = svc.ListReflections(context.Background(), author, "archived", "")
	require.NoError(t, err)
	assert.Empty(t, list)

	// So does an author filter that is not a UUID
	list, err = svc.ListReflections(context.Background(), author, "", "not-a-uuid")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestUpdateReflectionReplacesTags(t *testing.T) {
	svc, _, tagRepo := newReflectionService(t)
	author := domain.NewPrincipal("user-a")

	created, err := svc.CreateReflection(context.Background(), author, &services.CreateReflectionRequest{
		Title: "Morning Light",
		Body:  "body",
		Tags:  []string{"photography", "notes"},
	})
	require.NoError(t, err)

	updated, err := svc.UpdateReflection(context.Background(), author, created.ID, &services.UpdateReflectionRequest{
		Title: "Evening Light",
		Body:  "rewritten",
		Tags:  []string{"photography"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Evening Light", updated.Title)
	assert.Equal(t, "evening-light", updated.Slug)
	require.Len(t, updated.Tags, 1)
	assert.Equal(t, "photography", updated.Tags[0].Name)
	assert.Len(t, tagRepo.assoc[created.ID], 1)
}

func TestUpdateReflectionForeignAuthor(t *testing.T) {
	svc, repo, _ := newReflectionService(t)
	author := domain.NewPrincipal("user-a")
	other := domain.NewPrincipal("user-b")

	created, err := svc.CreateReflection(context.Background(), author, &services.CreateReflectionRequest{
		Title: "Morning Light",
		Body:  "original",
	})
	require.NoError(t, err)

	_, err = svc.UpdateReflection(context.Background(), other, created.ID, &services.UpdateReflectionRequest{
		Title: "Hijacked",
		Body:  "rewritten",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	// The stored row is untouched
	stored, err := repo.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Morning Light", stored.Title)
	assert.Equal(t, "original", stored.Body)
}

func TestPublishReflectionStampsDate(t *testing.T) {
	svc, repo, _ := newReflectionService(t)
	author := domain.NewPrincipal("user-a")

	created, err := svc.CreateReflection(context.Background(), author, &services.CreateReflectionRequest{
		Title: "Morning Light",
		Body:  "body",
	})
	require.NoError(t, err)
	require.Nil(t, created.PublishDate)

	published, err := svc.PublishReflection(context.Background(), author, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPublished, published.Status)
	require.NotNil(t, published.PublishDate)

	// Publishing again re-stamps rather than erroring
	_, err = svc.PublishReflection(context.Background(), author, created.ID)
	require.NoError(t, err)
	assert.Len(t, repo.publishes, 2)
}

func TestPublishReflectionDeniedForOthers(t *testing.T) {
	svc, _, _ := newReflectionService(t)
	author := domain.NewPrincipal("user-a")
	other := domain.NewPrincipal("user-b")

	created, err := svc.CreateReflection(context.Background(), author, &services.CreateReflectionRequest{
		Title: "Morning Light",
		Body:  "body",
	})
	require.NoError(t, err)

	_, err = svc.PublishReflection(context.Background(), other, created.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.PublishReflection(context.Background(), domain.Anonymous, created.ID)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestDeleteReflection(t *testing.T) {
	svc, repo, _ := newReflectionService(t)
	author := domain.NewPrincipal("user-a")
	other := domain.NewPrincipal("user-b")

	created, err := svc.CreateReflection(context.Background(), author, &services.CreateReflectionRequest{
		Title: "Morning Light",
		Body:  "body",
	})
	require.NoError(t, err)

	err = svc.DeleteReflection(context.Background(), other, created.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	err = svc.DeleteReflection(context.Background(), author, created.ID)
	require.NoError(t, err)
	assert.Empty(t, repo.byID)

	err = svc.DeleteReflection(context.Background(), author, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// Full lifecycle: draft, publish, anonymous read, foreign update refused.
func TestReflectionLifecycle(t *testing.T) {
	svc, _, _ := newReflectionService(t)
	author := domain.NewPrincipal("user-a")
	intruder := domain.NewPrincipal("user-b")

	created, err := svc.CreateReflection(context.Background(), author, &services.CreateReflectionRequest{
		Title: "On Returning Home",
		Body:  "A reflection on coming back.",
		Tags:  []string{"travel"},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDraft, created.Status)

	_, err = svc.GetReflection(context.Background(), domain.Anonymous, created.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)

	published, err := svc.PublishReflection(context.Background(), author, created.ID)
	require.NoError(t, err)
	require.NotNil(t, published.PublishDate)

	fetched, err := svc.GetReflection(context.Background(), domain.Anonymous, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "On Returning Home", fetched.Title)

	_, err = svc.UpdateReflection(context.Background(), intruder, created.ID, &services.UpdateReflectionRequest{
		Title: "Defaced",
		Body:  "nope",
	})
	require.ErrorIs(t, err, domain.ErrForbidden)

	fetched, err = svc.GetReflection(context.Background(), domain.Anonymous, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "On Returning Home", fetched.Title)
}
