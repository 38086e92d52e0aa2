package models

import (
	"fmt"
	"time"
)

// MembershipKind selects one of the (user, recipe) membership relations.
type MembershipKind int

const (
	Favorite MembershipKind = iota + 1
	ShoppingCartKind
)

func (k MembershipKind) String() string {
	switch k {
	case Favorite:
		return "favorites"
	case ShoppingCartKind:
		return "shopping cart"
	default:
		return fmt.Sprintf("MembershipKind(%d)", int(k))
	}
}

// Table returns the table holding rows of this kind.
func (k MembershipKind) Table() string {
	switch k {
	case Favorite:
		return "favorite_recipes"
	case ShoppingCartKind:
		return "shopping_carts"
	default:
		panic(fmt.Sprintf("unknown membership kind %d", int(k)))
	}
}

// NewRow builds the gorm model for a membership row of this kind.
func (k MembershipKind) NewRow(userID, recipeID uint) any {
	switch k {
	case Favorite:
		return &FavoriteRecipe{UserID: userID, RecipeID: recipeID}
	case ShoppingCartKind:
		return &ShoppingCart{UserID: userID, RecipeID: recipeID}
	default:
		panic(fmt.Sprintf("unknown membership kind %d", int(k)))
	}
}

type FavoriteRecipe struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"not null;uniqueIndex:idx_favorite_user_recipe"`
	RecipeID  uint   `gorm:"not null;uniqueIndex:idx_favorite_user_recipe;index"`
	User      User   `gorm:"constraint:OnDelete:CASCADE"`
	Recipe    Recipe `gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
}

type ShoppingCart struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"not null;uniqueIndex:idx_cart_user_recipe"`
	RecipeID  uint   `gorm:"not null;uniqueIndex:idx_cart_user_recipe;index"`
	User      User   `gorm:"constraint:OnDelete:CASCADE"`
	Recipe    Recipe `gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
}
