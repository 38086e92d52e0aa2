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

type SubscriptionService interface {
	// Subscribe makes userID follow authorID. recipesLimit caps the recipes
	// in the response, <= 0 means all.
	Subscribe(ctx context.Context, userID, authorID uint, recipesLimit int) (*SubscriptionResponse, error)
	Unsubscribe(ctx context.Context, userID, authorID uint) error
	List(ctx context.Context, userID uint, recipesLimit, offset, limit int) ([]SubscriptionResponse, int64, error)
}

type subscriptionService struct {
	users   repositories.UserRepository
	subs    repositories.SubscriptionRepository
	recipes repositories.RecipeRepository
	store   media.Store
}

func NewSubscriptionService(users repositories.UserRepository, subs repositories.SubscriptionRepository,
	recipes repositories.RecipeRepository, store media.Store) SubscriptionService {
	return &subscriptionService{users: users, subs: subs, recipes: recipes, store: store}
}

func (s *subscriptionService) Subscribe(ctx context.Context, userID, authorID uint, recipesLimit int) (*SubscriptionResponse, error) {
	author, err := s.users.FindByID(ctx, authorID)
	if err != nil {
		return nil, storeErr(err, "user")
	}
	if userID == authorID {
		return nil, ErrSelfSubscription
	}
	if err := s.subs.Create(ctx, userID, authorID); err != nil {
		switch {
		case errors.Is(err, gorm.ErrDuplicatedKey):
			return nil, reasonf(ErrAlreadyExists, "You are already subscribed to this user.")
		case errors.Is(err, gorm.ErrForeignKeyViolated):
			return nil, fmt.Errorf("user: %w", ErrNotFound)
		default:
			return nil, fmt.Errorf("subscribe: %w", err)
		}
	}

	views, err := s.build(ctx, []models.User{*author}, recipesLimit)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *subscriptionService) Unsubscribe(ctx context.Context, userID, authorID uint) error {
	if _, err := s.users.FindByID(ctx, authorID); err != nil {
		return storeErr(err, "user")
	}
	if err := s.subs.Delete(ctx, userID, authorID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return reasonf(ErrNotFound, "You are not subscribed to this user.")
		}
		return fmt.Errorf("unsubscribe: %w", err)
	}
	return nil
}

func (s *subscriptionService) List(ctx context.Context, userID uint, recipesLimit, offset, limit int) ([]SubscriptionResponse, int64, error) {
	authors, total, err := s.subs.ListAuthors(ctx, userID, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list subscriptions: %w", err)
	}
	views, err := s.build(ctx, authors, recipesLimit)
	if err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

// build renders followed authors; every one of them is subscribed by
// definition.
func (s *subscriptionService) build(ctx context.Context, authors []models.User, recipesLimit int) ([]SubscriptionResponse, error) {
	ids := make([]uint, len(authors))
	for i := range authors {
		ids[i] = authors[i].ID
	}
	latest, err := s.recipes.LatestByAuthors(ctx, ids, recipesLimit)
	if err != nil {
		return nil, fmt.Errorf("load recipes: %w", err)
	}
	counts, err := s.recipes.CountByAuthors(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("count recipes: %w", err)
	}

	views := make([]SubscriptionResponse, len(authors))
	for i := range authors {
		recipes := latest[authors[i].ID]
		short := make([]RecipeShortResponse, len(recipes))
		for j := range recipes {
			short[j] = mapRecipeShort(&recipes[j], s.store)
		}
		views[i] = SubscriptionResponse{
			UserResponse: mapUser(&authors[i], true),
			Recipes:      short,
			RecipesCount: counts[authors[i].ID],
		}
	}
	return views, nil
}
