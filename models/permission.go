package models

import "gorm.io/gorm"

// Permission names an action guarded beyond plain ownership.
const (
	PermRecipesUpdateAll  = "recipes:update:all"
	PermRecipesDeleteAll  = "recipes:delete:all"
	PermTagsManage        = "tags:manage"
	PermIngredientsManage = "ingredients:manage"
	PermUsersBlock        = "users:block"
	PermUsersDeleteAll    = "users:delete:all"
	PermAdminView         = "admin:view"
)

type Permission struct {
	gorm.Model
	Name        string `gorm:"size:64;unique;not null"` // e.g., "recipes:update:all"
	Description string
	Roles       []Role `gorm:"many2many:role_permissions;"`
}
