package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"foodgram/media"
	"foodgram/models"
	"foodgram/repositories"
	"foodgram/shoppinglist"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// WriteMode selects which recipe fields are mandatory.
type WriteMode int

const (
	ModeCreate  WriteMode = iota // every field, image included
	ModeReplace                  // PUT: every field except the image
	ModePatch                    // only the supplied fields
)

type RecipeService interface {
	Create(ctx context.Context, authorID uint, input *RecipeInput) (*RecipeResponse, error)
	Update(ctx context.Context, actorID, recipeID uint, input *RecipeInput, mode WriteMode) (*RecipeResponse, error)
	Delete(ctx context.Context, actorID, recipeID uint) error
	// Get and List annotate recipes for viewerID. Zero means anonymous.
	Get(ctx context.Context, viewerID, recipeID uint) (*RecipeResponse, error)
	List(ctx context.Context, viewerID uint, query RecipeQuery, offset, limit int) ([]RecipeResponse, int64, error)
	// ShoppingList renders the aggregated ingredients of the user's cart.
	ShoppingList(ctx context.Context, userID uint, format shoppinglist.Format) ([]byte, error)
}

type RecipeIngredientInput struct {
	ID     uint `json:"id" validate:"required"`
	Amount int  `json:"amount" validate:"min=1,max=1000"`
}

// RecipeInput is the write payload. Nil fields are absent from the request.
type RecipeInput struct {
	Name        *string                 `json:"name" validate:"omitnil,min=1,max=200"`
	Text        *string                 `json:"text" validate:"omitnil,min=1"`
	CookingTime *int                    `json:"cooking_time" validate:"omitnil,min=1,max=1440"`
	Image       *string                 `json:"image" validate:"omitnil,min=1"`
	Ingredients []RecipeIngredientInput `json:"ingredients" validate:"omitnil,min=1,unique=ID,dive"`
	Tags        []uint                  `json:"tags" validate:"omitnil,min=1,unique,dive,required"`
}

// RecipeQuery holds the list filters. Membership filters are ignored for
// anonymous viewers.
type RecipeQuery struct {
	AuthorID         *uint
	Tags             []string
	IsFavorited      *bool
	IsInShoppingCart *bool
	Name             string // substring of the recipe name
}

type recipeService struct {
	recipes     repositories.RecipeRepository
	ingredients repositories.IngredientRepository
	tags        repositories.TagRepository
	members     repositories.MembershipRepository
	subs        repositories.SubscriptionRepository
	users       repositories.UserRepository
	store       media.Store
	log         *zap.Logger
}

// RecipeDeps groups the collaborators of the recipe service.
type RecipeDeps struct {
	Recipes     repositories.RecipeRepository
	Ingredients repositories.IngredientRepository
	Tags        repositories.TagRepository
	Members     repositories.MembershipRepository
	Subs        repositories.SubscriptionRepository
	Users       repositories.UserRepository
	Store       media.Store
	Log         *zap.Logger
}

func NewRecipeService(deps RecipeDeps) RecipeService {
	return &recipeService{
		recipes:     deps.Recipes,
		ingredients: deps.Ingredients,
		tags:        deps.Tags,
		members:     deps.Members,
		subs:        deps.Subs,
		users:       deps.Users,
		store:       deps.Store,
		log:         deps.Log,
	}
}

func (s *recipeService) Create(ctx context.Context, authorID uint, input *RecipeInput) (*RecipeResponse, error) {
	if err := s.validate(ctx, input, ModeCreate); err != nil {
		return nil, err
	}

	image, err := s.saveImage(ctx, *input.Image)
	if err != nil {
		return nil, err
	}
	recipe := &models.Recipe{
		AuthorID:    authorID,
		Name:        *input.Name,
		Text:        *input.Text,
		CookingTime: *input.CookingTime,
		Image:       image,
		Ingredients: ingredientRows(input.Ingredients),
	}
	if err := s.recipes.Create(ctx, recipe, input.Tags); err != nil {
		removeImage(ctx, s.store, s.log, image)
		return nil, recipeWriteErr(err)
	}
	s.log.Info("Recipe created", zap.Uint("recipe_id", recipe.ID), zap.Uint("author_id", authorID))
	return s.Get(ctx, authorID, recipe.ID)
}

func (s *recipeService) Update(ctx context.Context, actorID, recipeID uint, input *RecipeInput, mode WriteMode) (*RecipeResponse, error) {
	recipe, err := s.recipes.FindByID(ctx, recipeID)
	if err != nil {
		return nil, storeErr(err, "recipe")
	}
	if err := s.authorize(ctx, actorID, recipe, models.PermRecipesUpdateAll); err != nil {
		return nil, err
	}
	if err := s.validate(ctx, input, mode); err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if input.Name != nil {
		fields["name"] = *input.Name
	}
	if input.Text != nil {
		fields["text"] = *input.Text
	}
	if input.CookingTime != nil {
		fields["cooking_time"] = *input.CookingTime
	}
	var newImage string
	if input.Image != nil {
		if newImage, err = s.saveImage(ctx, *input.Image); err != nil {
			return nil, err
		}
		fields["image"] = newImage
	}
	var rows []models.RecipeIngredient
	if input.Ingredients != nil {
		rows = ingredientRows(input.Ingredients)
	}

	if err := s.recipes.Update(ctx, recipeID, fields, rows, input.Tags); err != nil {
		removeImage(ctx, s.store, s.log, newImage)
		return nil, recipeWriteErr(err)
	}
	if newImage != "" {
		removeImage(ctx, s.store, s.log, recipe.Image)
	}
	return s.Get(ctx, actorID, recipeID)
}

func (s *recipeService) Delete(ctx context.Context, actorID, recipeID uint) error {
	recipe, err := s.recipes.FindByID(ctx, recipeID)
	if err != nil {
		return storeErr(err, "recipe")
	}
	if err := s.authorize(ctx, actorID, recipe, models.PermRecipesDeleteAll); err != nil {
		return err
	}
	if err := s.recipes.Delete(ctx, recipeID); err != nil {
		return storeErr(err, "recipe")
	}
	removeImage(ctx, s.store, s.log, recipe.Image)
	s.log.Info("Recipe deleted", zap.Uint("recipe_id", recipeID), zap.Uint("actor_id", actorID))
	return nil
}

func (s *recipeService) Get(ctx context.Context, viewerID, recipeID uint) (*RecipeResponse, error) {
	recipe, err := s.recipes.FindByID(ctx, recipeID)
	if err != nil {
		return nil, storeErr(err, "recipe")
	}
	annotated, err := s.annotate(ctx, viewerID, []models.Recipe{*recipe})
	if err != nil {
		return nil, err
	}
	return &annotated[0], nil
}

func (s *recipeService) List(ctx context.Context, viewerID uint, query RecipeQuery, offset, limit int) ([]RecipeResponse, int64, error) {
	filter := repositories.RecipeFilter{
		AuthorID: query.AuthorID,
		TagSlugs: query.Tags,
		Search:   strings.TrimSpace(query.Name),
	}
	if viewerID != 0 {
		filter.ViewerID = viewerID
		filter.IsFavorited = query.IsFavorited
		filter.IsInShoppingCart = query.IsInShoppingCart
	}

	recipes, total, err := s.recipes.List(ctx, filter, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list recipes: %w", err)
	}
	result, err := s.annotate(ctx, viewerID, recipes)
	if err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

func (s *recipeService) ShoppingList(ctx context.Context, userID uint, format shoppinglist.Format) ([]byte, error) {
	items, err := s.recipes.ShoppingList(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("aggregate shopping list: %w", err)
	}
	return shoppinglist.Render(format, items)
}

// annotate attaches the per-viewer flags with one query per relation.
func (s *recipeService) annotate(ctx context.Context, viewerID uint, recipes []models.Recipe) ([]RecipeResponse, error) {
	recipeIDs := make([]uint, len(recipes))
	authorIDs := make([]uint, 0, len(recipes))
	for i := range recipes {
		recipeIDs[i] = recipes[i].ID
		authorIDs = append(authorIDs, recipes[i].AuthorID)
	}

	favorited, err := s.members.RecipeIDsIn(ctx, models.Favorite, viewerID, recipeIDs)
	if err != nil {
		return nil, fmt.Errorf("load favorites: %w", err)
	}
	carted, err := s.members.RecipeIDsIn(ctx, models.ShoppingCartKind, viewerID, recipeIDs)
	if err != nil {
		return nil, fmt.Errorf("load shopping cart: %w", err)
	}
	followed, err := s.subs.AuthorIDsIn(ctx, viewerID, authorIDs)
	if err != nil {
		return nil, fmt.Errorf("load subscriptions: %w", err)
	}

	result := make([]RecipeResponse, len(recipes))
	for i := range recipes {
		r := &recipes[i]
		tags := make([]TagResponse, len(r.Tags))
		for j := range r.Tags {
			tags[j] = mapTag(&r.Tags[j])
		}
		lines := make([]RecipeIngredientResponse, len(r.Ingredients))
		for j, row := range r.Ingredients {
			lines[j] = RecipeIngredientResponse{
				ID:              row.IngredientID,
				Name:            row.Ingredient.Name,
				MeasurementUnit: row.Ingredient.MeasurementUnit,
				Amount:          row.Amount,
			}
		}
		result[i] = RecipeResponse{
			ID:               r.ID,
			Tags:             tags,
			Author:           mapUser(&r.Author, followed[r.AuthorID]),
			Ingredients:      lines,
			IsFavorited:      favorited[r.ID],
			IsInShoppingCart: carted[r.ID],
			Name:             r.Name,
			Image:            s.store.URL(r.Image),
			Text:             r.Text,
			CookingTime:      r.CookingTime,
		}
	}
	return result, nil
}

// authorize lets the author through, and anyone holding perm.
func (s *recipeService) authorize(ctx context.Context, actorID uint, recipe *models.Recipe, perm string) error {
	if recipe.AuthorID == actorID {
		return nil
	}
	allowed, err := s.users.HasPermissions(ctx, actorID, perm)
	if err != nil {
		return fmt.Errorf("error checking permissions: %w", err)
	}
	if !allowed {
		return reasonf(ErrForbidden, "You do not have permission to perform this action.")
	}
	return nil
}

// validate checks the payload shape first and the referenced rows second.
func (s *recipeService) validate(ctx context.Context, input *RecipeInput, mode WriteMode) error {
	ve := &ValidationError{}
	if mode != ModePatch {
		required := map[string]bool{
			"name":         input.Name == nil,
			"text":         input.Text == nil,
			"cooking_time": input.CookingTime == nil,
			"ingredients":  input.Ingredients == nil,
			"tags":         input.Tags == nil,
			"image":        mode == ModeCreate && input.Image == nil,
		}
		for field, missing := range required {
			if missing {
				ve.Add(field, "This field is required.")
			}
		}
	}
	if err := validateStruct(input); err != nil {
		var fieldErrs *ValidationError
		if !errors.As(err, &fieldErrs) {
			return err
		}
		for field, msgs := range fieldErrs.Fields {
			for _, msg := range msgs {
				ve.Add(field, msg)
			}
		}
	}
	if !ve.Empty() {
		return ve
	}

	if input.Ingredients != nil {
		ids := make([]uint, len(input.Ingredients))
		for i, item := range input.Ingredients {
			ids[i] = item.ID
		}
		missing, err := s.ingredients.MissingIDs(ctx, ids)
		if err != nil {
			return fmt.Errorf("check ingredients: %w", err)
		}
		for _, id := range missing {
			ve.Add("ingredients", fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", id))
		}
	}
	if input.Tags != nil {
		missing, err := s.tags.MissingIDs(ctx, input.Tags)
		if err != nil {
			return fmt.Errorf("check tags: %w", err)
		}
		for _, id := range missing {
			ve.Add("tags", fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", id))
		}
	}
	return ve.OrNil()
}

func (s *recipeService) saveImage(ctx context.Context, dataURI string) (string, error) {
	key, err := media.SaveImage(ctx, s.store, dataURI)
	if errors.Is(err, media.ErrInvalidImage) {
		return "", NewValidationError("image", "Upload a valid image. The file you uploaded was either not an image or a corrupted image.")
	}
	return key, err
}

func ingredientRows(items []RecipeIngredientInput) []models.RecipeIngredient {
	rows := make([]models.RecipeIngredient, len(items))
	for i, item := range items {
		rows[i] = models.RecipeIngredient{IngredientID: item.ID, Amount: item.Amount}
	}
	return rows
}

// recipeWriteErr covers races with concurrent writers: validation already
// rejected duplicates and unknown references.
func recipeWriteErr(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("recipe: %w", ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return NewValidationError("ingredients", "Values must be unique.")
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return NewValidationError(NonFieldErrors, "A referenced ingredient or tag no longer exists.")
	default:
		return fmt.Errorf("save recipe: %w", err)
	}
}
