package services

import (
	"context"
	"errors"
	"fmt"

	"foodgram/media"
	"foodgram/models"
	"foodgram/repositories"

	"gorm.io/gorm"
)

// MembershipService adds and removes recipes from a user's favorites or
// shopping cart. Both relations behave the same, only the kind differs.
type MembershipService interface {
	Add(ctx context.Context, kind models.MembershipKind, userID, recipeID uint) (*RecipeShortResponse, error)
	Remove(ctx context.Context, kind models.MembershipKind, userID, recipeID uint) error
}

type membershipService struct {
	recipes repositories.RecipeRepository
	members repositories.MembershipRepository
	store   media.Store
}

func NewMembershipService(recipes repositories.RecipeRepository, members repositories.MembershipRepository, store media.Store) MembershipService {
	return &membershipService{recipes: recipes, members: members, store: store}
}

func (s *membershipService) Add(ctx context.Context, kind models.MembershipKind, userID, recipeID uint) (*RecipeShortResponse, error) {
	recipe, err := s.recipes.FindByID(ctx, recipeID)
	if err != nil {
		return nil, storeErr(err, "recipe")
	}
	if err := s.members.Add(ctx, kind, userID, recipeID); err != nil {
		switch {
		case errors.Is(err, gorm.ErrDuplicatedKey):
			return nil, reasonf(ErrAlreadyExists, "Recipe is already in %s.", kind)
		case errors.Is(err, gorm.ErrForeignKeyViolated):
			// the recipe was deleted in between
			return nil, fmt.Errorf("recipe: %w", ErrNotFound)
		default:
			return nil, fmt.Errorf("add to %s: %w", kind, err)
		}
	}
	resp := mapRecipeShort(recipe, s.store)
	return &resp, nil
}

// Remove reports ErrNotFound when the recipe is not in the relation.
func (s *membershipService) Remove(ctx context.Context, kind models.MembershipKind, userID, recipeID uint) error {
	if _, err := s.recipes.FindByID(ctx, recipeID); err != nil {
		return storeErr(err, "recipe")
	}
	if err := s.members.Remove(ctx, kind, userID, recipeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return reasonf(ErrNotFound, "Recipe is not in %s.", kind)
		}
		return fmt.Errorf("remove from %s: %w", kind, err)
	}
	return nil
}
