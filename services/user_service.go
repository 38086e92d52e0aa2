package services

import (
	"context"
	"errors"
	"fmt"

	"foodgram/auth"
	"foodgram/media"
	"foodgram/models"
	"foodgram/repositories"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// The UserService interface defines the methods that user services need to implement
type UserService interface {
	Register(ctx context.Context, input *RegisterInput) (*CreatedUserResponse, error)
	Login(ctx context.Context, input *LoginInput) (*TokenResponse, error)
	Get(ctx context.Context, viewerID, userID uint) (*UserResponse, error)
	List(ctx context.Context, viewerID uint, offset, limit int) ([]UserResponse, int64, error)
	UpdateProfile(ctx context.Context, userID uint, input *UpdateProfileInput) (*UserResponse, error)
	SetPassword(ctx context.Context, userID uint, input *SetPasswordInput) error
	SetBlocked(ctx context.Context, userID uint, blocked bool) error
	Delete(ctx context.Context, actorID, userID uint) error
	// CreateSuperuser bootstraps an administrator. It refuses when the email
	// or username is taken.
	CreateSuperuser(ctx context.Context, input *SuperuserInput) (*CreatedUserResponse, error)
}

// --- Structs for Input ---

type RegisterInput struct {
	Email     string `json:"email" validate:"required,email,max=254"`
	Username  string `json:"username" validate:"required,max=150,username"` // defaults to the email
	FirstName string `json:"first_name" validate:"required,max=150"`
	LastName  string `json:"last_name" validate:"required,max=150"`
	Password  string `json:"password" validate:"required,min=8,max=150"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateProfileInput struct {
	FirstName *string `json:"first_name" validate:"omitnil,min=1,max=150"`
	LastName  *string `json:"last_name" validate:"omitnil,min=1,max=150"`
}

type SetPasswordInput struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=150"`
}

type SuperuserInput struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Username string `json:"username" validate:"required,max=150,username"`
	Password string `json:"password" validate:"required,min=8,max=150"`
}

// The userService structure is the implementation of the UserService interface
type userService struct {
	users   repositories.UserRepository
	subs    repositories.SubscriptionRepository
	recipes repositories.RecipeRepository
	store   media.Store
	log     *zap.Logger
}

var _ UserService = (*userService)(nil)

// NewUserService creates a new UserService instance
func NewUserService(users repositories.UserRepository, subs repositories.SubscriptionRepository,
	recipes repositories.RecipeRepository, store media.Store, log *zap.Logger) UserService {
	return &userService{users: users, subs: subs, recipes: recipes, store: store, log: log}
}

func (s *userService) Register(ctx context.Context, input *RegisterInput) (*CreatedUserResponse, error) {
	if input.Username == "" {
		input.Username = input.Email
	}
	if err := validateStruct(input); err != nil {
		return nil, err
	}
	if err := s.checkUnique(ctx, input.Email, input.Username); err != nil {
		return nil, err
	}

	hashed, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Email:     input.Email,
		Username:  input.Username,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Password:  hashed,
	}
	if err := s.users.Create(ctx, user, models.RoleUser); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, reasonf(ErrAlreadyExists, "A user with that email or username already exists.")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	s.log.Info("User registered", zap.Uint("user_id", user.ID))
	return createdUser(user), nil
}

// checkUnique gives field scoped messages for the common case. The unique
// indexes still decide under concurrency.
func (s *userService) checkUnique(ctx context.Context, email, username string) error {
	ve := &ValidationError{}
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		ve.Add("email", "A user with that email already exists.")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("check email: %w", err)
	}
	if _, err := s.users.FindByUsername(ctx, username); err == nil {
		ve.Add("username", "A user with that username already exists.")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("check username: %w", err)
	}
	return ve.OrNil()
}

func (s *userService) Login(ctx context.Context, input *LoginInput) (*TokenResponse, error) {
	if err := validateStruct(input); err != nil {
		return nil, err
	}
	user, err := s.users.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Avoid revealing whether the user exists
			return nil, reasonf(ErrInvalidCredentials, "Unable to log in with provided credentials.")
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !auth.CheckPassword(user.Password, input.Password) {
		return nil, reasonf(ErrInvalidCredentials, "Unable to log in with provided credentials.")
	}
	if user.IsBlocked {
		return nil, reasonf(ErrUserBlocked, "This account is blocked.")
	}

	token, err := auth.GenerateToken(user)
	if err != nil {
		return nil, fmt.Errorf("could not generate token: %w", err)
	}
	return &TokenResponse{AuthToken: token}, nil
}

func (s *userService) Get(ctx context.Context, viewerID, userID uint) (*UserResponse, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, storeErr(err, "user")
	}
	followed, err := s.subs.AuthorIDsIn(ctx, viewerID, []uint{user.ID})
	if err != nil {
		return nil, fmt.Errorf("load subscriptions: %w", err)
	}
	resp := mapUser(user, followed[user.ID])
	return &resp, nil
}

func (s *userService) List(ctx context.Context, viewerID uint, offset, limit int) ([]UserResponse, int64, error) {
	users, total, err := s.users.FindAll(ctx, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	ids := make([]uint, len(users))
	for i := range users {
		ids[i] = users[i].ID
	}
	followed, err := s.subs.AuthorIDsIn(ctx, viewerID, ids)
	if err != nil {
		return nil, 0, fmt.Errorf("load subscriptions: %w", err)
	}

	result := make([]UserResponse, len(users))
	for i := range users {
		result[i] = mapUser(&users[i], followed[users[i].ID])
	}
	return result, total, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID uint, input *UpdateProfileInput) (*UserResponse, error) {
	if err := validateStruct(input); err != nil {
		return nil, err
	}
	fields := map[string]any{}
	if input.FirstName != nil {
		fields["first_name"] = *input.FirstName
	}
	if input.LastName != nil {
		fields["last_name"] = *input.LastName
	}
	if len(fields) > 0 {
		if err := s.users.UpdateFields(ctx, userID, fields); err != nil {
			return nil, storeErr(err, "user")
		}
	}
	return s.Get(ctx, userID, userID)
}

func (s *userService) SetPassword(ctx context.Context, userID uint, input *SetPasswordInput) error {
	if err := validateStruct(input); err != nil {
		return err
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return storeErr(err, "user")
	}
	if !auth.CheckPassword(user.Password, input.CurrentPassword) {
		return NewValidationError("current_password", "Invalid password.")
	}
	hashed, err := auth.HashPassword(input.NewPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdateFields(ctx, userID, map[string]any{"password": hashed}); err != nil {
		return storeErr(err, "user")
	}
	return nil
}

func (s *userService) SetBlocked(ctx context.Context, userID uint, blocked bool) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return storeErr(err, "user")
	}
	if user.IsSuperuser && blocked {
		return reasonf(ErrForbidden, "Superusers cannot be blocked.")
	}
	if user.IsBlocked == blocked {
		return nil
	}
	if err := s.users.UpdateFields(ctx, userID, map[string]any{"is_blocked": blocked}); err != nil {
		return storeErr(err, "user")
	}
	s.log.Info("User block state changed", zap.Uint("user_id", userID), zap.Bool("blocked", blocked))
	return nil
}

// Delete removes an account and everything it owns. Users may delete
// themselves; anyone else needs users:delete:all.
func (s *userService) Delete(ctx context.Context, actorID, userID uint) error {
	if actorID != userID {
		allowed, err := s.users.HasPermissions(ctx, actorID, models.PermUsersDeleteAll)
		if err != nil {
			return fmt.Errorf("error checking permissions: %w", err)
		}
		if !allowed {
			return reasonf(ErrForbidden, "You do not have permission to delete this user.")
		}
	}

	owned, err := s.recipes.LatestByAuthors(ctx, []uint{userID}, 0)
	if err != nil {
		return fmt.Errorf("load recipes: %w", err)
	}
	if err := s.users.Delete(ctx, userID); err != nil {
		return storeErr(err, "user")
	}
	for _, recipe := range owned[userID] {
		removeImage(ctx, s.store, s.log, recipe.Image)
	}
	s.log.Info("User deleted", zap.Uint("user_id", userID), zap.Uint("actor_id", actorID))
	return nil
}

func (s *userService) CreateSuperuser(ctx context.Context, input *SuperuserInput) (*CreatedUserResponse, error) {
	if err := validateStruct(input); err != nil {
		return nil, err
	}
	if err := s.checkUnique(ctx, input.Email, input.Username); err != nil {
		return nil, err
	}
	hashed, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Email:       input.Email,
		Username:    input.Username,
		FirstName:   input.Username,
		LastName:    input.Username,
		Password:    hashed,
		IsSuperuser: true,
	}
	if err := s.users.Create(ctx, user, models.RoleAdmin); err != nil {
		return nil, storeErr(err, "superuser")
	}
	s.log.Info("Superuser created", zap.Uint("user_id", user.ID), zap.String("username", user.Username))
	return createdUser(user), nil
}

func createdUser(user *models.User) *CreatedUserResponse {
	return &CreatedUserResponse{
		Email:     user.Email,
		ID:        user.ID,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	}
}

// removeImage deletes a stored image after the owning change committed.
// Failures only leave an orphan file, so they are logged.
func removeImage(ctx context.Context, store media.Store, log *zap.Logger, key string) {
	if key == "" {
		return
	}
	if err := store.Delete(ctx, key); err != nil {
		log.Warn("Failed to remove image", zap.String("key", key), zap.Error(err))
	}
}
