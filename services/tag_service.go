package services

import (
	"context"
	"fmt"

	"foodgram/models"
	"foodgram/repositories"
)

type TagService interface {
	List(ctx context.Context) ([]TagResponse, error)
	Get(ctx context.Context, id uint) (*TagResponse, error)
	Create(ctx context.Context, input *TagInput) (*TagResponse, error)
	Update(ctx context.Context, id uint, input *TagPatchInput) (*TagResponse, error)
	// Delete refuses while recipes still carry the tag.
	Delete(ctx context.Context, id uint) error
}

type TagInput struct {
	Name  string `json:"name" validate:"required,max=200"`
	Color string `json:"color" validate:"required,color"`
	Slug  string `json:"slug" validate:"required,max=200,slug"`
}

type TagPatchInput struct {
	Name  *string `json:"name" validate:"omitnil,min=1,max=200"`
	Color *string `json:"color" validate:"omitnil,color"`
	Slug  *string `json:"slug" validate:"omitnil,min=1,max=200,slug"`
}

type tagService struct {
	tags repositories.TagRepository
}

func NewTagService(tags repositories.TagRepository) TagService {
	return &tagService{tags: tags}
}

func (s *tagService) List(ctx context.Context) ([]TagResponse, error) {
	tags, err := s.tags.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	result := make([]TagResponse, len(tags))
	for i := range tags {
		result[i] = mapTag(&tags[i])
	}
	return result, nil
}

func (s *tagService) Get(ctx context.Context, id uint) (*TagResponse, error) {
	tag, err := s.tags.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "tag")
	}
	resp := mapTag(tag)
	return &resp, nil
}

func (s *tagService) Create(ctx context.Context, input *TagInput) (*TagResponse, error) {
	if err := validateStruct(input); err != nil {
		return nil, err
	}
	tag := &models.Tag{Name: input.Name, Color: input.Color, Slug: input.Slug}
	if err := s.tags.Create(ctx, tag); err != nil {
		return nil, tagWriteErr(err)
	}
	resp := mapTag(tag)
	return &resp, nil
}

func (s *tagService) Update(ctx context.Context, id uint, input *TagPatchInput) (*TagResponse, error) {
	if err := validateStruct(input); err != nil {
		return nil, err
	}
	if _, err := s.tags.FindByID(ctx, id); err != nil {
		return nil, storeErr(err, "tag")
	}
	fields := map[string]any{}
	if input.Name != nil {
		fields["name"] = *input.Name
	}
	if input.Color != nil {
		fields["color"] = *input.Color
	}
	if input.Slug != nil {
		fields["slug"] = *input.Slug
	}
	if len(fields) > 0 {
		if err := s.tags.UpdateFields(ctx, id, fields); err != nil {
			return nil, tagWriteErr(err)
		}
	}
	return s.Get(ctx, id)
}

func (s *tagService) Delete(ctx context.Context, id uint) error {
	err := storeErr(s.tags.Delete(ctx, id), "tag")
	if isInUse(err) {
		return reasonf(ErrInUse, "Tag is used by recipes.")
	}
	return err
}

func tagWriteErr(err error) error {
	mapped := storeErr(err, "tag")
	if isAlreadyExists(mapped) {
		return NewValidationError("slug", "Tag with this slug already exists.")
	}
	return mapped
}
