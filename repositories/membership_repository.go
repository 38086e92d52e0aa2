package repositories

import (
	"context"

	"foodgram/models"

	"gorm.io/gorm"
)

// MembershipRepository stores favorites and shopping cart entries. Both are
// (user, recipe) pairs, unique per kind.
type MembershipRepository interface {
	// Add fails with gorm.ErrDuplicatedKey when the pair already exists.
	Add(ctx context.Context, kind models.MembershipKind, userID, recipeID uint) error
	// Remove fails with gorm.ErrRecordNotFound when the pair does not exist.
	Remove(ctx context.Context, kind models.MembershipKind, userID, recipeID uint) error
	// RecipeIDsIn returns the subset of recipeIDs the user holds.
	RecipeIDsIn(ctx context.Context, kind models.MembershipKind, userID uint, recipeIDs []uint) (map[uint]bool, error)
	CountByRecipe(ctx context.Context, kind models.MembershipKind, recipeIDs []uint) (map[uint]int64, error)
}

type membershipRepository struct {
	db *gorm.DB
}

func NewMembershipRepository(db *gorm.DB) MembershipRepository {
	return &membershipRepository{db: db}
}

func (r *membershipRepository) Add(ctx context.Context, kind models.MembershipKind, userID, recipeID uint) error {
	return r.db.WithContext(ctx).Create(kind.NewRow(userID, recipeID)).Error
}

func (r *membershipRepository) Remove(ctx context.Context, kind models.MembershipKind, userID, recipeID uint) error {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(kind.NewRow(0, 0))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *membershipRepository) RecipeIDsIn(ctx context.Context, kind models.MembershipKind, userID uint, recipeIDs []uint) (map[uint]bool, error) {
	held := make(map[uint]bool)
	if userID == 0 || len(recipeIDs) == 0 {
		return held, nil
	}
	var ids []uint
	err := r.db.WithContext(ctx).Table(kind.Table()).
		Where("user_id = ? AND recipe_id IN ?", userID, recipeIDs).
		Pluck("recipe_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		held[id] = true
	}
	return held, nil
}

func (r *membershipRepository) CountByRecipe(ctx context.Context, kind models.MembershipKind, recipeIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64)
	if len(recipeIDs) == 0 {
		return counts, nil
	}
	var rows []struct {
		RecipeID uint
		Total    int64
	}
	err := r.db.WithContext(ctx).Table(kind.Table()).
		Select("recipe_id, COUNT(*) AS total").
		Where("recipe_id IN ?", recipeIDs).
		Group("recipe_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.RecipeID] = row.Total
	}
	return counts, nil
}
