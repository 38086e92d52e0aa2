package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"foodgram/config"
	"foodgram/models"
	"foodgram/repositories"
)

// AdminRecipeSummary is one row of the administrative recipe list. Empty
// values are replaced by the configured placeholder.
type AdminRecipeSummary struct {
	ID            uint      `json:"id"`
	AuthorEmail   string    `json:"author_email"`
	Name          string    `json:"name"`
	Text          string    `json:"text"`
	CookingTime   int       `json:"cooking_time"`
	Tags          string    `json:"tags"`
	Ingredients   []string  `json:"ingredients"`
	PubDate       time.Time `json:"pub_date"`
	FavoriteCount int64     `json:"favorite_count"`
}

// AdminMembershipSummary shows what one user holds in favorites or the cart.
type AdminMembershipSummary struct {
	UserID  uint     `json:"user_id"`
	User    string   `json:"user"`
	Recipes []string `json:"recipes"`
	Count   int64    `json:"count"`
}

type AdminService interface {
	Recipes(ctx context.Context, search string, offset, limit int) ([]AdminRecipeSummary, int64, error)
	Memberships(ctx context.Context, kind models.MembershipKind, offset, limit int) ([]AdminMembershipSummary, int64, error)
}

type adminService struct {
	admin   repositories.AdminRepository
	members repositories.MembershipRepository
	cfg     config.AdminConfig
}

func NewAdminService(admin repositories.AdminRepository, members repositories.MembershipRepository, cfg config.AdminConfig) AdminService {
	return &adminService{admin: admin, members: members, cfg: cfg}
}

func (s *adminService) Recipes(ctx context.Context, search string, offset, limit int) ([]AdminRecipeSummary, int64, error) {
	recipes, total, err := s.admin.SearchRecipes(ctx, strings.TrimSpace(search), offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("search recipes: %w", err)
	}
	ids := make([]uint, len(recipes))
	for i := range recipes {
		ids[i] = recipes[i].ID
	}
	favorites, err := s.members.CountByRecipe(ctx, models.Favorite, ids)
	if err != nil {
		return nil, 0, fmt.Errorf("count favorites: %w", err)
	}

	result := make([]AdminRecipeSummary, len(recipes))
	for i := range recipes {
		r := &recipes[i]
		tagNames := make([]string, len(r.Tags))
		for j := range r.Tags {
			tagNames[j] = r.Tags[j].Name
		}
		lines := make([]string, len(r.Ingredients))
		for j, row := range r.Ingredients {
			lines[j] = fmt.Sprintf("%s - %d %s.", row.Ingredient.Name, row.Amount, row.Ingredient.MeasurementUnit)
		}
		result[i] = AdminRecipeSummary{
			ID:            r.ID,
			AuthorEmail:   s.orEmpty(r.Author.Email),
			Name:          r.Name,
			Text:          s.orEmpty(r.Text),
			CookingTime:   r.CookingTime,
			Tags:          s.orEmpty(strings.Join(tagNames, ", ")),
			Ingredients:   lines,
			PubDate:       r.PubDate,
			FavoriteCount: favorites[r.ID],
		}
	}
	return result, total, nil
}

func (s *adminService) Memberships(ctx context.Context, kind models.MembershipKind, offset, limit int) ([]AdminMembershipSummary, int64, error) {
	rows, total, err := s.admin.MembershipSummaries(ctx, kind, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("summarize %s: %w", kind, err)
	}
	userIDs := make([]uint, len(rows))
	for i, row := range rows {
		userIDs[i] = row.UserID
	}
	names, err := s.admin.MemberRecipeNames(ctx, kind, userIDs, s.cfg.RecipeLimitShow)
	if err != nil {
		return nil, 0, fmt.Errorf("load %s recipes: %w", kind, err)
	}

	result := make([]AdminMembershipSummary, len(rows))
	for i, row := range rows {
		result[i] = AdminMembershipSummary{
			UserID:  row.UserID,
			User:    s.orEmpty(row.Email),
			Recipes: names[row.UserID],
			Count:   row.Total,
		}
	}
	return result, total, nil
}

func (s *adminService) orEmpty(v string) string {
	if v == "" {
		return s.cfg.EmptyValueDisplay
	}
	return v
}
