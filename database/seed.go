package database

import (
	"errors"
	"fmt"

	"foodgram/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SeedInitialData seeds the permissions and the admin/user roles. It is safe
// to run on every start.
func SeedInitialData(db *gorm.DB, log *zap.Logger) error {
	// --- Permissions ---
	permissions := []models.Permission{
		{Name: models.PermRecipesUpdateAll, Description: "Edit any recipe"},
		{Name: models.PermRecipesDeleteAll, Description: "Delete any recipe"},
		{Name: models.PermTagsManage, Description: "Create, edit and delete tags"},
		{Name: models.PermIngredientsManage, Description: "Create, edit and delete ingredients"},
		{Name: models.PermUsersBlock, Description: "Block and unblock users"},
		{Name: models.PermUsersDeleteAll, Description: "Delete any account"},
		{Name: models.PermAdminView, Description: "Read the administrative views"},
	}

	for _, p := range permissions {
		var existing models.Permission
		err := db.Where("name = ?", p.Name).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("check permission %s: %w", p.Name, err)
		}
		if err := db.Create(&p).Error; err != nil {
			return fmt.Errorf("seed permission %s: %w", p.Name, err)
		}
		log.Debug("Seeded permission", zap.String("permission", p.Name))
	}

	// --- Roles ---
	roles := []struct {
		Role        models.Role
		Permissions []string
	}{
		{
			Role: models.Role{Name: models.RoleAdmin, Description: "Administrator with full access"},
			Permissions: []string{
				models.PermRecipesUpdateAll, models.PermRecipesDeleteAll, models.PermTagsManage,
				models.PermIngredientsManage, models.PermUsersBlock, models.PermUsersDeleteAll,
				models.PermAdminView,
			},
		},
		{
			Role: models.Role{Name: models.RoleUser, Description: "Standard user"},
			// Plain users act on their own recipes only, which needs no permission.
		},
	}

	for _, rData := range roles {
		var role models.Role
		err := db.Where("name = ?", rData.Role.Name).First(&role).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			role = rData.Role
			if err := db.Create(&role).Error; err != nil {
				return fmt.Errorf("seed role %s: %w", role.Name, err)
			}
			log.Debug("Seeded role", zap.String("role", role.Name))
		} else if err != nil {
			return fmt.Errorf("check role %s: %w", rData.Role.Name, err)
		}

		if len(rData.Permissions) == 0 {
			continue
		}

		var toAssociate []models.Permission
		if err := db.Where("name IN ?", rData.Permissions).Find(&toAssociate).Error; err != nil {
			return fmt.Errorf("find permissions for role %s: %w", role.Name, err)
		}
		// Replace clears existing links and adds the new ones.
		if err := db.Model(&role).Association("Permissions").Replace(toAssociate); err != nil {
			return fmt.Errorf("associate permissions with role %s: %w", role.Name, err)
		}
	}
	return nil
}
