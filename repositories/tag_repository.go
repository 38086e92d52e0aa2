package repositories

import (
	"context"

	"foodgram/models"

	"gorm.io/gorm"
)

// TagRepository defines Tag-related database operations
type TagRepository interface {
	List(ctx context.Context) ([]models.Tag, error)
	FindByID(ctx context.Context, id uint) (*models.Tag, error)
	Create(ctx context.Context, tag *models.Tag) error
	UpdateFields(ctx context.Context, id uint, fields map[string]any) error
	// Delete fails with gorm.ErrForeignKeyViolated while a recipe carries
	// the tag. Recipes never lose their last tag this way.
	Delete(ctx context.Context, id uint) error
	MissingIDs(ctx context.Context, ids []uint) ([]uint, error)
}

type tagRepository struct {
	db *gorm.DB
}

func NewTagRepository(db *gorm.DB) TagRepository {
	return &tagRepository{db: db}
}

func (r *tagRepository) List(ctx context.Context) ([]models.Tag, error) {
	var tags []models.Tag
	if err := r.db.WithContext(ctx).Order("name, id").Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

func (r *tagRepository) FindByID(ctx context.Context, id uint) (*models.Tag, error) {
	var tag models.Tag
	if err := r.db.WithContext(ctx).First(&tag, id).Error; err != nil {
		return nil, err
	}
	return &tag, nil
}

func (r *tagRepository) Create(ctx context.Context, tag *models.Tag) error {
	return r.db.WithContext(ctx).Create(tag).Error
}

func (r *tagRepository) UpdateFields(ctx context.Context, id uint, fields map[string]any) error {
	return r.db.WithContext(ctx).Model(&models.Tag{}).Where("id = ?", id).Updates(fields).Error
}

func (r *tagRepository) Delete(ctx context.Context, id uint) error {
	return deleteUnused(r.db.WithContext(ctx), &models.Tag{}, id, "recipe_tags", "tag_id")
}

func (r *tagRepository) MissingIDs(ctx context.Context, ids []uint) ([]uint, error) {
	return missingIDs(r.db.WithContext(ctx).Model(&models.Tag{}), ids)
}
