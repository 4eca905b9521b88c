package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	slugify "github.com/gosimple/slug"

	"atelier/internal/config"
	"atelier/internal/domain"
	"atelier/internal/domain/models"
	"atelier/internal/domain/repositories"
	"atelier/internal/domain/services"
)

// reflectionService implements the ReflectionService interface
type reflectionService struct {
	reflectionRepo repositories.ReflectionRepository
	tagRepo        repositories.TagRepository
	txManager      repositories.TransactionManager
	logger         *slog.Logger
}

// NewReflectionService creates a new reflection service
func NewReflectionService(
	reflectionRepo repositories.ReflectionRepository,
	tagRepo repositories.TagRepository,
	txManager repositories.TransactionManager,
	logger *slog.Logger,
) services.ReflectionService {
	return &reflectionService{
		reflectionRepo: reflectionRepo,
		tagRepo:        tagRepo,
		txManager:      txManager,
		logger:         logger,
	}
}

// CreateReflection creates a reflection owned by the principal. The
// status may be given as published directly; in that case publish_date
// is stored only when the request supplies one.
func (s *reflectionService) CreateReflection(ctx context.Context, p domain.Principal, req *services.CreateReflectionRequest) (*models.Reflection, error) {
	if p.IsAnonymous() {
		return nil, &domain.UnauthorizedError{Message: "authentication required"}
	}

	if err := s.validateCreateRequest(req); err != nil {
		return nil, asValidationError(err)
	}

	title := strings.TrimSpace(req.Title)
	resolvedSlug := deriveSlug(req.Slug, title)
	if resolvedSlug == "" {
		return nil, &domain.ValidationError{
			Message: "validation failed",
			Fields:  map[string]string{"slug": "cannot derive a slug from the title"},
		}
	}

	status := req.Status
	if status == "" {
		status = domain.StatusDraft
	}

	reflection := &models.Reflection{
		AuthorID:        p.ID,
		Status:          status,
		PublishDate:     req.PublishDate,
		Title:           title,
		Slug:            resolvedSlug,
		Body:            req.Body,
		Excerpt:         req.Excerpt,
		FeaturedImageID: req.FeaturedImageID,
		Tags:            []models.Tag{},
	}

	tagModels := buildTagModels(req.Tags)
	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.reflectionRepo.Create(txCtx, reflection); err != nil {
			return err
		}
		if len(tagModels) == 0 {
			return nil
		}

		stored, err := s.tagRepo.Upsert(txCtx, tagModels)
		if err != nil {
			return err
		}
		tagIDs := make([]string, len(stored))
		for i := range stored {
			tagIDs[i] = stored[i].ID
		}
		if err := s.tagRepo.ReplaceForReflection(txCtx, reflection.ID, tagIDs); err != nil {
			return err
		}
		reflection.Tags = stored
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("reflection created",
		"id", reflection.ID,
		"slug", reflection.Slug,
		"status", reflection.Status,
		"author_id", p.ID,
	)

	return reflection, nil
}

// GetReflection retrieves one reflection. A draft resolves to not-found
// for everyone but its author, so existence of drafts never leaks.
func (s *reflectionService) GetReflection(ctx context.Context, p domain.Principal, id string) (*models.Reflection, error) {
	reflection, err := s.reflectionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !domain.CanView(p, reflection.AuthorID, reflection.Published()) {
		return nil, &domain.NotFoundError{Message: fmt.Sprintf("reflection %s not found", id)}
	}

	return reflection, nil
}

// ListReflections retrieves the reflections the principal may see. The
// requested filters only ever narrow that set; impossible combinations
// (drafts of another author) come back as an empty list, not an error.
func (s *reflectionService) ListReflections(ctx context.Context, p domain.Principal, status, authorID string) ([]models.Reflection, error) {
	if status != "" && !domain.ValidStatus(status) {
		return []models.Reflection{}, nil
	}
	// An author filter that is not a UUID cannot match anything
	if authorID != "" && uuid.Validate(authorID) != nil {
		return []models.Reflection{}, nil
	}

	scope := domain.NarrowList(p, status, authorID)
	reflections, err := s.reflectionRepo.List(ctx, scope)
	if err != nil {
		return nil, err
	}
	if reflections == nil {
		reflections = []models.Reflection{}
	}
	return reflections, nil
}

// UpdateReflection replaces the content fields of an owned reflection.
// Status is untouched; tags are replaced with the requested set.
func (s *reflectionService) UpdateReflection(ctx context.Context, p domain.Principal, id string, req *services.UpdateReflectionRequest) (*models.Reflection, error) {
	if p.IsAnonymous() {
		return nil, &domain.UnauthorizedError{Message: "authentication required"}
	}

	if err := s.validateUpdateRequest(req); err != nil {
		return nil, asValidationError(err)
	}

	ownerID, err := s.reflectionRepo.GetOwnerID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !domain.CanMutate(p, ownerID) {
		return nil, &domain.ForbiddenError{Message: "you do not own this reflection"}
	}

	title := strings.TrimSpace(req.Title)
	resolvedSlug := deriveSlug(req.Slug, title)
	if resolvedSlug == "" {
		return nil, &domain.ValidationError{
			Message: "validation failed",
			Fields:  map[string]string{"slug": "cannot derive a slug from the title"},
		}
	}

	reflection := &models.Reflection{
		ID:              id,
		AuthorID:        p.ID,
		Title:           title,
		Slug:            resolvedSlug,
		Body:            req.Body,
		Excerpt:         req.Excerpt,
		FeaturedImageID: req.FeaturedImageID,
	}

	tagModels := buildTagModels(req.Tags)
	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		// The author predicate inside Update makes the write atomic;
		// a raced-away row surfaces as not found.
		if err := s.reflectionRepo.Update(txCtx, reflection); err != nil {
			return err
		}

		tagIDs := []string{}
		if len(tagModels) > 0 {
			stored, err := s.tagRepo.Upsert(txCtx, tagModels)
			if err != nil {
				return err
			}
			for i := range stored {
				tagIDs = append(tagIDs, stored[i].ID)
			}
		}
		return s.tagRepo.ReplaceForReflection(txCtx, id, tagIDs)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("reflection updated", "id", id, "author_id", p.ID)

	return s.reflectionRepo.GetByID(ctx, id)
}

// PublishReflection transitions an owned reflection to published and
// stamps the publish date. Publishing again re-stamps it.
func (s *reflectionService) PublishReflection(ctx context.Context, p domain.Principal, id string) (*models.Reflection, error) {
	if p.IsAnonymous() {
		return nil, &domain.UnauthorizedError{Message: "authentication required"}
	}

	ownerID, err := s.reflectionRepo.GetOwnerID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !domain.CanMutate(p, ownerID) {
		return nil, &domain.ForbiddenError{Message: "you do not own this reflection"}
	}

	if err := s.reflectionRepo.Publish(ctx, id, p.ID, time.Now().UTC()); err != nil {
		return nil, err
	}

	s.logger.Info("reflection published", "id", id, "author_id", p.ID)

	return s.reflectionRepo.GetByID(ctx, id)
}

// DeleteReflection removes an owned reflection
func (s *reflectionService) DeleteReflection(ctx context.Context, p domain.Principal, id string) error {
	if p.IsAnonymous() {
		return &domain.UnauthorizedError{Message: "authentication required"}
	}

	ownerID, err := s.reflectionRepo.GetOwnerID(ctx, id)
	if err != nil {
		return err
	}
	if !domain.CanMutate(p, ownerID) {
		return &domain.ForbiddenError{Message: "you do not own this reflection"}
	}

	if err := s.reflectionRepo.Delete(ctx, id, p.ID); err != nil {
		return err
	}

	s.logger.Info("reflection deleted", "id", id, "author_id", p.ID)

	return nil
}

// validateCreateRequest validates a create reflection request
func (s *reflectionService) validateCreateRequest(req *services.CreateReflectionRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Title, validation.Required, validation.Length(1, config.MaxTitleLength)),
		validation.Field(&req.Body, validation.Required),
		validation.Field(&req.Slug, validation.Length(0, config.MaxSlugLength), validation.By(validateSlugFormat)),
		validation.Field(&req.Excerpt, validation.Length(0, config.MaxExcerptLength)),
		validation.Field(&req.Status, validation.By(validateStatusValue)),
		validation.Field(&req.PublishDate, validation.By(publishDateNeedsPublished(req.Status))),
		validation.Field(&req.FeaturedImageID, validation.By(validateOptionalUUID)),
		validation.Field(&req.Tags,
			validation.Length(0, config.MaxTagsPerReflection),
			validation.Each(validation.Required, validation.Length(1, config.MaxTagNameLength)),
		),
	)
}

// validateUpdateRequest validates an update reflection request
func (s *reflectionService) validateUpdateRequest(req *services.UpdateReflectionRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Title, validation.Required, validation.Length(1, config.MaxTitleLength)),
		validation.Field(&req.Body, validation.Required),
		validation.Field(&req.Slug, validation.Length(0, config.MaxSlugLength), validation.By(validateSlugFormat)),
		validation.Field(&req.Excerpt, validation.Length(0, config.MaxExcerptLength)),
		validation.Field(&req.FeaturedImageID, validation.By(validateOptionalUUID)),
		validation.Field(&req.Tags,
			validation.Length(0, config.MaxTagsPerReflection),
			validation.Each(validation.Required, validation.Length(1, config.MaxTagNameLength)),
		),
	)
}

// deriveSlug returns the explicit slug when one was supplied and a slug
// generated from the title otherwise.
func deriveSlug(explicit, title string) string {
	if explicit != "" {
		return explicit
	}
	return slugify.Make(title)
}

// buildTagModels trims, dedupes and slugifies tag names.
func buildTagModels(names []string) []models.Tag {
	seen := make(map[string]struct{}, len(names))
	tags := make([]models.Tag, 0, len(names))
	for _, raw := range names {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		tags = append(tags, models.Tag{Name: name, Slug: slugify.Make(name)})
	}
	return tags
}

// validateSlugFormat accepts an empty slug (it will be derived) or one
// already in canonical form.
func validateSlugFormat(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if !slugify.IsSlug(s) {
		return errors.New("must contain only lowercase letters, numbers and hyphens")
	}
	return nil
}

// validateStatusValue accepts an empty status (defaults to draft) or a
// known one.
func validateStatusValue(value interface{}) error {
	status, _ := value.(string)
	if status == "" {
		return nil
	}
	if !domain.ValidStatus(status) {
		return errors.New("must be draft or published")
	}
	return nil
}

// publishDateNeedsPublished rejects a publish date on anything that is
// not being created as published.
func publishDateNeedsPublished(status string) validation.RuleFunc {
	return func(value interface{}) error {
		date, _ := value.(*time.Time)
		if date == nil {
			return nil
		}
		if status != domain.StatusPublished {
			return errors.New("only allowed when status is published")
		}
		return nil
	}
}

// validateOptionalUUID accepts nil or a well-formed UUID string.
func validateOptionalUUID(value interface{}) error {
	id, _ := value.(*string)
	if id == nil || *id == "" {
		return nil
	}
	if err := uuid.Validate(*id); err != nil {
		return errors.New("must be a valid UUID")
	}
	return nil
}

// asValidationError converts an ozzo validation result into the domain
// error type, keeping the per-field messages.
func asValidationError(err error) error {
	if err == nil {
		return nil
	}
	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		fields := make(map[string]string, len(fieldErrs))
		for field, ferr := range fieldErrs {
			fields[field] = ferr.Error()
		}
		return &domain.ValidationError{Message: "validation failed", Fields: fields}
	}
	return fmt.Errorf("%w: %v", domain.ErrValidation, err)
}
