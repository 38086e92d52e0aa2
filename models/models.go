package models

// All lists every model managed by AutoMigrate, parents first.
func All() []any {
	return []any{
		&Permission{}, &Role{}, &User{},
		&Ingredient{}, &Tag{}, &Recipe{}, &RecipeIngredient{},
		&FavoriteRecipe{}, &ShoppingCart{}, &Subscribe{},
	}
}
