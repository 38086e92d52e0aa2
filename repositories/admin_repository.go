package repositories

import (
	"context"
	"strings"

	"foodgram/models"

	"gorm.io/gorm"
)

// MembershipSummary counts the recipes one user holds in a relation.
type MembershipSummary struct {
	UserID uint
	Email  string
	Total  int64
}

// AdminRepository serves the read-only administrative views.
type AdminRepository interface {
	// SearchRecipes matches search against the recipe name, the author email
	// and ingredient names, case-insensitively.
	SearchRecipes(ctx context.Context, search string, offset, limit int) ([]models.Recipe, int64, error)
	MembershipSummaries(ctx context.Context, kind models.MembershipKind, offset, limit int) ([]MembershipSummary, int64, error)
	// MemberRecipeNames returns up to limit recipe names per user, most
	// recently added first.
	MemberRecipeNames(ctx context.Context, kind models.MembershipKind, userIDs []uint, limit int) (map[uint][]string, error)
}

type adminRepository struct {
	db *gorm.DB
}

func NewAdminRepository(db *gorm.DB) AdminRepository {
	return &adminRepository{db: db}
}

func (r *adminRepository) SearchRecipes(ctx context.Context, search string, offset, limit int) ([]models.Recipe, int64, error) {
	db := r.db.WithContext(ctx)
	q := db.Model(&models.Recipe{})
	if search != "" {
		pattern := "%" + escapeLike(strings.ToLower(search)) + "%"
		byAuthor := db.Model(&models.User{}).Select("id").Where("LOWER(email) LIKE ? ESCAPE '!'", pattern)
		byIngredient := db.Table("recipe_ingredients").
			Select("recipe_ingredients.recipe_id").
			Joins("JOIN ingredients ON ingredients.id = recipe_ingredients.ingredient_id").
			Where("LOWER(ingredients.name) LIKE ? ESCAPE '!'", pattern)
		q = q.Where(
			db.Where("LOWER(recipes.name) LIKE ? ESCAPE '!'", pattern).
				Or("recipes.author_id IN (?)", byAuthor).
				Or("recipes.id IN (?)", byIngredient),
		)
	}
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

func (r *adminRepository) MembershipSummaries(ctx context.Context, kind models.MembershipKind, offset, limit int) ([]MembershipSummary, int64, error) {
	db := r.db.WithContext(ctx)
	table := kind.Table()

	var total int64
	err := db.Table(table).Distinct("user_id").Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	var rows []MembershipSummary
	err = db.Table(table).
		Select(table + ".user_id AS user_id, users.email AS email, COUNT(*) AS total").
		Joins("JOIN users ON users.id = " + table + ".user_id").
		Group(table + ".user_id, users.email").
		Order(table + ".user_id").
		Offset(offset).Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *adminRepository) MemberRecipeNames(ctx context.Context, kind models.MembershipKind, userIDs []uint, limit int) (map[uint][]string, error) {
	names := make(map[uint][]string, len(userIDs))
	table := kind.Table()
	for _, userID := range userIDs {
		var batch []string
		q := r.db.WithContext(ctx).Table(table).
			Joins("JOIN recipes ON recipes.id = "+table+".recipe_id").
			Where(table+".user_id = ?", userID).
			Order(table + ".id DESC")
		if limit > 0 {
			q = q.Limit(limit)
		}
		if err := q.Pluck("recipes.name", &batch).Error; err != nil {
			return nil, err
		}
		names[userID] = batch
	}
	return names, nil
}
