package repositories

import (
	"context"
	"strings"

	"foodgram/models"
	"foodgram/shoppinglist"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RecipeFilter narrows a recipe listing. Membership filters only apply when
// ViewerID is set.
type RecipeFilter struct {
	AuthorID         *uint
	TagSlugs         []string // OR semantics
	ViewerID         uint
	IsFavorited      *bool
	IsInShoppingCart *bool
	Search           string // case-insensitive substring of the name
}

// RecipeRepository defines Recipe-related database operations. Every write
// runs in a single transaction.
type RecipeRepository interface {
	// Create stores recipe, its Ingredients rows and links to tagIDs.
	Create(ctx context.Context, recipe *models.Recipe, tagIDs []uint) error
	// Update changes fields, and replaces the ingredient and tag sets when
	// they are not nil.
	Update(ctx context.Context, id uint, fields map[string]any, ingredients []models.RecipeIngredient, tagIDs []uint) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*models.Recipe, error)
	List(ctx context.Context, filter RecipeFilter, offset, limit int) ([]models.Recipe, int64, error)
	// LatestByAuthors returns up to limit recipes per author, newest first.
	// limit <= 0 means all of them.
	LatestByAuthors(ctx context.Context, authorIDs []uint, limit int) (map[uint][]models.Recipe, error)
	CountByAuthors(ctx context.Context, authorIDs []uint) (map[uint]int64, error)
	// ShoppingList sums ingredient amounts over the user's cart, grouped by
	// (name, unit) and ordered by name.
	ShoppingList(ctx context.Context, userID uint) ([]shoppinglist.Item, error)
}

type recipeRepository struct {
	db *gorm.DB
}

func NewRecipeRepository(db *gorm.DB) RecipeRepository {
	return &recipeRepository{db: db}
}

func (r *recipeRepository) Create(ctx context.Context, recipe *models.Recipe, tagIDs []uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ingredients := recipe.Ingredients
		if err := tx.Omit(clause.Associations).Create(recipe).Error; err != nil {
			return err
		}
		if err := insertIngredients(tx, recipe.ID, ingredients); err != nil {
			return err
		}
		recipe.Ingredients = ingredients
		return insertTagLinks(tx, recipe.ID, tagIDs)
	})
}

func (r *recipeRepository) Update(ctx context.Context, id uint, fields map[string]any, ingredients []models.RecipeIngredient, tagIDs []uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(fields) > 0 {
			if err := tx.Model(&models.Recipe{}).Where("id = ?", id).Updates(fields).Error; err != nil {
				return err
			}
		}
		if ingredients != nil {
			// Clear then recreate, never diff.
			if err := tx.Where("recipe_id = ?", id).Delete(&models.RecipeIngredient{}).Error; err != nil {
				return err
			}
			if err := insertIngredients(tx, id, ingredients); err != nil {
				return err
			}
		}
		if tagIDs != nil {
			if err := tx.Exec("DELETE FROM recipe_tags WHERE recipe_id = ?", id).Error; err != nil {
				return err
			}
			if err := insertTagLinks(tx, id, tagIDs); err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete removes the recipe with its ingredient rows, tag links, favorites
// and cart entries.
func (r *recipeRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deleteRecipeChildren(tx, []uint{id}); err != nil {
			return err
		}
		res := tx.Delete(&models.Recipe{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *recipeRepository) FindByID(ctx context.Context, id uint) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := withRecipeRelations(r.db.WithContext(ctx)).First(&recipe, id).Error; err != nil {
		return nil, err
	}
	return &recipe, nil
}

func (r *recipeRepository) List(ctx context.Context, filter RecipeFilter, offset, limit int) ([]models.Recipe, int64, error) {
	db := r.db.WithContext(ctx)
	q := db.Model(&models.Recipe{})

	if filter.AuthorID != nil {
		q = q.Where("recipes.author_id = ?", *filter.AuthorID)
	}
	if len(filter.TagSlugs) > 0 {
		tagged := db.Table("recipe_tags").
			Select("recipe_tags.recipe_id").
			Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
			Where("tags.slug IN ?", filter.TagSlugs)
		q = q.Where("recipes.id IN (?)", tagged)
	}
	if filter.ViewerID != 0 {
		q = membershipFilter(db, q, models.Favorite, filter.ViewerID, filter.IsFavorited)
		q = membershipFilter(db, q, models.ShoppingCartKind, filter.ViewerID, filter.IsInShoppingCart)
	}
	if filter.Search != "" {
		q = q.Where("LOWER(recipes.name) LIKE ? ESCAPE '!'", "%"+escapeLike(strings.ToLower(filter.Search))+"%")
	}
	// Make the filtered chain safe to reuse for the count and the page.
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var recipes []models.Recipe
	err := withRecipeRelations(q).
		Order("recipes.pub_date DESC, recipes.id DESC").
		Offset(offset).Limit(limit).
		Find(&recipes).Error
	if err != nil {
		return nil, 0, err
	}
	return recipes, total, nil
}

func (r *recipeRepository) LatestByAuthors(ctx context.Context, authorIDs []uint, limit int) (map[uint][]models.Recipe, error) {
	result := make(map[uint][]models.Recipe, len(authorIDs))
	db := r.db.WithContext(ctx)
	for _, authorID := range authorIDs {
		q := db.Where("author_id = ?", authorID).Order("pub_date DESC, id DESC")
		if limit > 0 {
			q = q.Limit(limit)
		}
		var recipes []models.Recipe
		if err := q.Find(&recipes).Error; err != nil {
			return nil, err
		}
		result[authorID] = recipes
	}
	return result, nil
}

func (r *recipeRepository) CountByAuthors(ctx context.Context, authorIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(authorIDs))
	if len(authorIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		AuthorID uint
		Total    int64
	}
	err := r.db.WithContext(ctx).Model(&models.Recipe{}).
		Select("author_id, COUNT(*) AS total").
		Where("author_id IN ?", authorIDs).
		Group("author_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.AuthorID] = row.Total
	}
	return counts, nil
}

func (r *recipeRepository) ShoppingList(ctx context.Context, userID uint) ([]shoppinglist.Item, error) {
	var items []shoppinglist.Item
	err := r.db.WithContext(ctx).Table("shopping_carts").
		Select("ingredients.name AS name, ingredients.measurement_unit AS measurement_unit, SUM(recipe_ingredients.amount) AS amount").
		Joins("JOIN recipe_ingredients ON recipe_ingredients.recipe_id = shopping_carts.recipe_id").
		Joins("JOIN ingredients ON ingredients.id = recipe_ingredients.ingredient_id").
		Where("shopping_carts.user_id = ?", userID).
		Group("ingredients.name, ingredients.measurement_unit").
		Order("ingredients.name, ingredients.measurement_unit").
		Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func withRecipeRelations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Author").
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tags.name, tags.id") }).
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("recipe_ingredients.id") }).
		Preload("Ingredients.Ingredient")
}

func membershipFilter(db, q *gorm.DB, kind models.MembershipKind, viewerID uint, want *bool) *gorm.DB {
	if want == nil {
		return q
	}
	members := db.Table(kind.Table()).Select("recipe_id").Where("user_id = ?", viewerID)
	if *want {
		return q.Where("recipes.id IN (?)", members)
	}
	return q.Where("recipes.id NOT IN (?)", members)
}

func insertIngredients(tx *gorm.DB, recipeID uint, ingredients []models.RecipeIngredient) error {
	if len(ingredients) == 0 {
		return nil
	}
	for i := range ingredients {
		ingredients[i].ID = 0
		ingredients[i].RecipeID = recipeID
	}
	return tx.Omit(clause.Associations).Create(&ingredients).Error
}

func insertTagLinks(tx *gorm.DB, recipeID uint, tagIDs []uint) error {
	if len(tagIDs) == 0 {
		return nil
	}
	rows := make([]map[string]any, 0, len(tagIDs))
	for _, tagID := range tagIDs {
		rows = append(rows, map[string]any{"recipe_id": recipeID, "tag_id": tagID})
	}
	return tx.Table("recipe_tags").Create(&rows).Error
}

// deleteRecipeChildren removes every row that references the recipes
// matched by ids, which is either a []uint or a subquery.
func deleteRecipeChildren(tx *gorm.DB, ids any) error {
	children := []any{&models.RecipeIngredient{}, &models.FavoriteRecipe{}, &models.ShoppingCart{}}
	for _, child := range children {
		if err := tx.Where("recipe_id IN (?)", ids).Delete(child).Error; err != nil {
			return err
		}
	}
	return tx.Exec("DELETE FROM recipe_tags WHERE recipe_id IN (?)", ids).Error
}

// escapeLike escapes LIKE wildcards for use with ESCAPE '!'.
func escapeLike(s string) string {
	return strings.NewReplacer("!", "!!", "%", "!%", "_", "!_").Replace(s)
}
