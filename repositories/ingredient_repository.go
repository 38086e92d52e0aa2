package repositories

import (
	"context"
	"strings"

	"foodgram/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// IngredientRepository defines Ingredient-related database operations
type IngredientRepository interface {
	// List returns ingredients ordered by name, optionally narrowed to a
	// case-insensitive name prefix.
	List(ctx context.Context, namePrefix string) ([]models.Ingredient, error)
	FindByID(ctx context.Context, id uint) (*models.Ingredient, error)
	Create(ctx context.Context, ingredient *models.Ingredient) error
	UpdateFields(ctx context.Context, id uint, fields map[string]any) error
	Delete(ctx context.Context, id uint) error
	// MissingIDs returns the ids in ids that have no ingredient row.
	MissingIDs(ctx context.Context, ids []uint) ([]uint, error)
}

type ingredientRepository struct {
	db *gorm.DB
}

func NewIngredientRepository(db *gorm.DB) IngredientRepository {
	return &ingredientRepository{db: db}
}

func (r *ingredientRepository) List(ctx context.Context, namePrefix string) ([]models.Ingredient, error) {
	q := r.db.WithContext(ctx).Order("name, measurement_unit")
	if namePrefix != "" {
		q = q.Where("LOWER(name) LIKE ? ESCAPE '!'", escapeLike(strings.ToLower(namePrefix))+"%")
	}
	var ingredients []models.Ingredient
	if err := q.Find(&ingredients).Error; err != nil {
		return nil, err
	}
	return ingredients, nil
}

func (r *ingredientRepository) FindByID(ctx context.Context, id uint) (*models.Ingredient, error) {
	var ingredient models.Ingredient
	if err := r.db.WithContext(ctx).First(&ingredient, id).Error; err != nil {
		return nil, err
	}
	return &ingredient, nil
}

func (r *ingredientRepository) Create(ctx context.Context, ingredient *models.Ingredient) error {
	return r.db.WithContext(ctx).Create(ingredient).Error
}

func (r *ingredientRepository) UpdateFields(ctx context.Context, id uint, fields map[string]any) error {
	return r.db.WithContext(ctx).Model(&models.Ingredient{}).Where("id = ?", id).Updates(fields).Error
}

// Delete fails with gorm.ErrForeignKeyViolated while a recipe still uses
// the ingredient.
func (r *ingredientRepository) Delete(ctx context.Context, id uint) error {
	return deleteUnused(r.db.WithContext(ctx), &models.Ingredient{}, id, "recipe_ingredients", "ingredient_id")
}

func (r *ingredientRepository) MissingIDs(ctx context.Context, ids []uint) ([]uint, error) {
	return missingIDs(r.db.WithContext(ctx).Model(&models.Ingredient{}), ids)
}

// deleteUnused deletes the row id of model unless usageTable still
// references it through column, in which case it returns
// gorm.ErrForeignKeyViolated. Not every driver translates a RESTRICT
// violation, and a cascading link table would silently lose rows, so the
// reference check runs here. The row is locked first: a concurrent insert
// referencing it waits for the delete and then fails its foreign key.
func deleteUnused(db *gorm.DB, model any, id uint, usageTable, column string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var locked []uint
		err := tx.Model(model).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).
			Pluck("id", &locked).Error
		if err != nil {
			return err
		}
		if len(locked) == 0 {
			return gorm.ErrRecordNotFound
		}

		var used int64
		if err := tx.Table(usageTable).Where(column+" = ?", id).Count(&used).Error; err != nil {
			return err
		}
		if used > 0 {
			return gorm.ErrForeignKeyViolated
		}
		return tx.Delete(model, id).Error
	})
}

// missingIDs reports which of ids are absent from the table behind q.
func missingIDs(q *gorm.DB, ids []uint) ([]uint, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var found []uint
	if err := q.Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return nil, err
	}
	present := make(map[uint]struct{}, len(found))
	for _, id := range found {
		present[id] = struct{}{}
	}

	var missing []uint
	for _, id := range ids {
		if _, ok := present[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}
