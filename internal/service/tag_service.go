package service

import (
	"context"
	"errors"
	"strings"

	apperrors "github.com/syedzayyan/pomonotes/internal/errors"
	"github.com/syedzayyan/pomonotes/internal/model"
	"github.com/syedzayyan/pomonotes/internal/repository"
)

type TagService struct {
	tags *repository.TagRepository
}

func NewTagService(tags *repository.TagRepository) *TagService {
	return &TagService{tags: tags}
}

func (s *TagService) List(ctx context.Context) ([]model.Tag, *apperrors.APIError) {
	tags, err := s.tags.List(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to list tags")
	}
	return tags, nil
}

// Create assigns the next palette color when the request carries none.
func (s *TagService) Create(ctx context.Context, input model.Tag) (*model.Tag, *apperrors.APIError) {
	name := strings.TrimSpace(input.Name)
	if name == "" || strings.Contains(name, ",") {
		return nil, apperrors.BadRequest("invalid_tag_name", "tag name must be non-empty and contain no commas")
	}

	color := input.Color
	if color == "" {
		count, err := s.tags.Count(ctx)
		if err != nil {
			return nil, apperrors.Internal("failed to count tags")
		}
		color = model.TagPalette[count%len(model.TagPalette)]
	}

	tag := model.Tag{Name: name, Color: color}
	if err := s.tags.Create(ctx, &tag); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, apperrors.Conflict("tag_exists", "tag already exists", nil)
		}
		return nil, apperrors.Internal("failed to create tag")
	}
	return &tag, nil
}

func (s *TagService) Update(ctx context.Context, id int64, input model.Tag) (*model.Tag, *apperrors.APIError) {
	current, err := s.tags.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("tag_not_found", "tag not found")
	}
	if err != nil {
		return nil, apperrors.Internal("failed to get tag")
	}

	if name := strings.TrimSpace(input.Name); name != "" {
		if strings.Contains(name, ",") {
			return nil, apperrors.BadRequest("invalid_tag_name", "tag name must contain no commas")
		}
		current.Name = name
	}
	if input.Color != "" {
		current.Color = input.Color
	}
	if err := s.tags.Update(ctx, current); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, apperrors.Conflict("tag_exists", "tag already exists", nil)
		}
		return nil, apperrors.Internal("failed to update tag")
	}
	return current, nil
}

func (s *TagService) Delete(ctx context.Context, id int64) *apperrors.APIError {
	if err := s.tags.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("tag_not_found", "tag not found")
		}
		return apperrors.Internal("failed to delete tag")
	}
	return nil
}
