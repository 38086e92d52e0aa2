package services

import (
	"context"
	"fmt"

	"foodgram/models"
	"foodgram/repositories"
)

type IngredientService interface {
	// List filters by a case-insensitive name prefix when name is set.
	List(ctx context.Context, name string) ([]IngredientResponse, error)
	Get(ctx context.Context, id uint) (*IngredientResponse, error)
	Create(ctx context.Context, input *IngredientInput) (*IngredientResponse, error)
	Update(ctx context.Context, id uint, input *IngredientPatchInput) (*IngredientResponse, error)
	Delete(ctx context.Context, id uint) error
}

type IngredientInput struct {
	Name            string `json:"name" validate:"required,max=200"`
	MeasurementUnit string `json:"measurement_unit" validate:"required,max=200"`
}

type IngredientPatchInput struct {
	Name            *string `json:"name" validate:"omitnil,min=1,max=200"`
	MeasurementUnit *string `json:"measurement_unit" validate:"omitnil,min=1,max=200"`
}

type ingredientService struct {
	ingredients repositories.IngredientRepository
}

func NewIngredientService(ingredients repositories.IngredientRepository) IngredientService {
	return &ingredientService{ingredients: ingredients}
}

func (s *ingredientService) List(ctx context.Context, name string) ([]IngredientResponse, error) {
	ingredients, err := s.ingredients.List(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("list ingredients: %w", err)
	}
	result := make([]IngredientResponse, len(ingredients))
	for i := range ingredients {
		result[i] = mapIngredient(&ingredients[i])
	}
	return result, nil
}

func (s *ingredientService) Get(ctx context.Context, id uint) (*IngredientResponse, error) {
	ingredient, err := s.ingredients.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "ingredient")
	}
	resp := mapIngredient(ingredient)
	return &resp, nil
}

func (s *ingredientService) Create(ctx context.Context, input *IngredientInput) (*IngredientResponse, error) {
	if err := validateStruct(input); err != nil {
		return nil, err
	}
	ingredient := &models.Ingredient{Name: input.Name, MeasurementUnit: input.MeasurementUnit}
	if err := s.ingredients.Create(ctx, ingredient); err != nil {
		return nil, ingredientWriteErr(err)
	}
	resp := mapIngredient(ingredient)
	return &resp, nil
}

func (s *ingredientService) Update(ctx context.Context, id uint, input *IngredientPatchInput) (*IngredientResponse, error) {
	if err := validateStruct(input); err != nil {
		return nil, err
	}
	if _, err := s.ingredients.FindByID(ctx, id); err != nil {
		return nil, storeErr(err, "ingredient")
	}
	fields := map[string]any{}
	if input.Name != nil {
		fields["name"] = *input.Name
	}
	if input.MeasurementUnit != nil {
		fields["measurement_unit"] = *input.MeasurementUnit
	}
	if len(fields) > 0 {
		if err := s.ingredients.UpdateFields(ctx, id, fields); err != nil {
			return nil, ingredientWriteErr(err)
		}
	}
	return s.Get(ctx, id)
}

// Delete fails with ErrInUse while a recipe lists the ingredient.
func (s *ingredientService) Delete(ctx context.Context, id uint) error {
	err := storeErr(s.ingredients.Delete(ctx, id), "ingredient")
	if isInUse(err) {
		return reasonf(ErrInUse, "Ingredient is used by recipes.")
	}
	return err
}

func ingredientWriteErr(err error) error {
	mapped := storeErr(err, "ingredient")
	if isAlreadyExists(mapped) {
		return NewValidationError(NonFieldErrors, "Ingredient with this name and measurement unit already exists.")
	}
	return mapped
}
