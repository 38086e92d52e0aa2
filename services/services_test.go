package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"foodgram/config"
	"foodgram/database/dbtest"
	"foodgram/media"
	"foodgram/models"
	"foodgram/repositories"
	"foodgram/shoppinglist"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type env struct {
	db         *gorm.DB
	mediaRoot  string
	users      UserService
	recipes    RecipeService
	tags       TagService
	ingredient IngredientService
	members    MembershipService
	subs       SubscriptionService
	admin      AdminService
}

func newEnv(t *testing.T) *env {
	db := dbtest.New(t)
	root := t.TempDir()
	store := media.NewLocalStore(root, "/media/")
	log := zap.NewNop()

	userRepo := repositories.NewUserRepository(db)
	recipeRepo := repositories.NewRecipeRepository(db)
	ingredientRepo := repositories.NewIngredientRepository(db)
	tagRepo := repositories.NewTagRepository(db)
	memberRepo := repositories.NewMembershipRepository(db)
	subRepo := repositories.NewSubscriptionRepository(db)

	return &env{
		db:         db,
		mediaRoot:  root,
		users:      NewUserService(userRepo, subRepo, recipeRepo, store, log),
		tags:       NewTagService(tagRepo),
		ingredient: NewIngredientService(ingredientRepo),
		members:    NewMembershipService(recipeRepo, memberRepo, store),
		subs:       NewSubscriptionService(userRepo, subRepo, recipeRepo, store),
		admin: NewAdminService(repositories.NewAdminRepository(db), memberRepo,
			config.AdminConfig{EmptyValueDisplay: "-empty-", RecipeLimitShow: 1}),
		recipes: NewRecipeService(RecipeDeps{
			Recipes:     recipeRepo,
			Ingredients: ingredientRepo,
			Tags:        tagRepo,
			Members:     memberRepo,
			Subs:        subRepo,
			Users:       userRepo,
			Store:       store,
			Log:         log,
		}),
	}
}

func (e *env) register(t *testing.T, name string) uint {
	u, err := e.users.Register(context.Background(), &RegisterInput{
		Email: name + "@example.com", Username: name, FirstName: name, LastName: "Test", Password: "password123",
	})
	require.NoError(t, err)
	return u.ID
}

func (e *env) superuser(t *testing.T) uint {
	u, err := e.users.CreateSuperuser(context.Background(), &SuperuserInput{
		Email: "root@example.com", Username: "root", Password: "password123",
	})
	require.NoError(t, err)
	return u.ID
}

func (e *env) ingredientID(t *testing.T, name, unit string) uint {
	i, err := e.ingredient.Create(context.Background(), &IngredientInput{Name: name, MeasurementUnit: unit})
	require.NoError(t, err)
	return i.ID
}

func (e *env) tagID(t *testing.T, slug string) uint {
	tag, err := e.tags.Create(context.Background(), &TagInput{Name: slug, Color: "#E26C2D", Slug: slug})
	require.NoError(t, err)
	return tag.ID
}

func imageURI(t *testing.T) string {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func ptr[T any](v T) *T { return &v }

func recipeInput(t *testing.T, tags []uint, ingredients ...RecipeIngredientInput) *RecipeInput {
	return &RecipeInput{
		Name:        ptr("Pancakes"),
		Text:        ptr("Mix and fry."),
		CookingTime: ptr(15),
		Image:       ptr(imageURI(t)),
		Ingredients: ingredients,
		Tags:        tags,
	}
}

func requireFieldError(t *testing.T, err error, field string) {
	t.Helper()
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, field, "fields: %v", ve.Fields)
}

func TestRegister(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	u, err := e.users.Register(ctx, &RegisterInput{
		Email: "chef@example.com", FirstName: "Chef", LastName: "Cook", Password: "password123",
	})
	require.NoError(t, err)
	assert.Equal(t, "chef@example.com", u.Username) // defaults to the email

	_, err = e.users.Register(ctx, &RegisterInput{
		Email: "chef@example.com", Username: "other", FirstName: "A", LastName: "B", Password: "password123",
	})
	requireFieldError(t, err, "email")

	_, err = e.users.Register(ctx, &RegisterInput{Email: "bad", Username: "x y", Password: "short"})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	for _, field := range []string{"email", "username", "first_name", "last_name", "password"} {
		assert.Contains(t, ve.Fields, field)
	}
}

func TestLogin(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	id := e.register(t, "alice")

	tok, err := e.users.Login(ctx, &LoginInput{Email: "alice@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.NotEmpty(t, tok.AuthToken)

	_, err = e.users.Login(ctx, &LoginInput{Email: "alice@example.com", Password: "nope"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = e.users.Login(ctx, &LoginInput{Email: "ghost@example.com", Password: "password123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, e.users.SetBlocked(ctx, id, true))
	_, err = e.users.Login(ctx, &LoginInput{Email: "alice@example.com", Password: "password123"})
	assert.ErrorIs(t, err, ErrUserBlocked)
}

func TestSetPasswordAndProfile(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	id := e.register(t, "alice")

	err := e.users.SetPassword(ctx, id, &SetPasswordInput{CurrentPassword: "wrong", NewPassword: "newpassword1"})
	requireFieldError(t, err, "current_password")

	require.NoError(t, e.users.SetPassword(ctx, id, &SetPasswordInput{CurrentPassword: "password123", NewPassword: "newpassword1"}))
	_, err = e.users.Login(ctx, &LoginInput{Email: "alice@example.com", Password: "newpassword1"})
	require.NoError(t, err)

	me, err := e.users.UpdateProfile(ctx, id, &UpdateProfileInput{FirstName: ptr("Alicia")})
	require.NoError(t, err)
	assert.Equal(t, "Alicia", me.FirstName)
	assert.Equal(t, "Test", me.LastName)
}

func TestSuperuserCannotBeBlockedAndIsUnique(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	root := e.superuser(t)

	assert.ErrorIs(t, e.users.SetBlocked(ctx, root, true), ErrForbidden)
	_, err := e.users.CreateSuperuser(ctx, &SuperuserInput{Email: "root@example.com", Username: "root2", Password: "password123"})
	requireFieldError(t, err, "email")
}

func TestRecipeRoundTrip(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	author := e.register(t, "alice")
	flour := e.ingredientID(t, "flour", "g")
	lunch := e.tagID(t, "lunch")

	created, err := e.recipes.Create(ctx, author, recipeInput(t, []uint{lunch}, RecipeIngredientInput{ID: flour, Amount: 200}))
	require.NoError(t, err)
	assert.Equal(t, "Pancakes", created.Name)
	assert.Equal(t, author, created.Author.ID)
	require.Len(t, created.Ingredients, 1)
	assert.Equal(t, RecipeIngredientResponse{ID: flour, Name: "flour", MeasurementUnit: "g", Amount: 200}, created.Ingredients[0])
	require.Len(t, created.Tags, 1)
	assert.Equal(t, "lunch", created.Tags[0].Slug)
	assert.Contains(t, created.Image, "/media/recipes/images/")

	anon, err := e.recipes.Get(ctx, 0, created.ID)
	require.NoError(t, err)
	assert.False(t, anon.IsFavorited)
	assert.False(t, anon.IsInShoppingCart)
	assert.False(t, anon.Author.IsSubscribed)
	assert.Equal(t, created.Ingredients, anon.Ingredients)
}

func TestRecipeValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	author := e.register(t, "alice")
	flour := e.ingredientID(t, "flour", "g")
	lunch := e.tagID(t, "lunch")
	line := RecipeIngredientInput{ID: flour, Amount: 10}

	cases := map[string]struct {
		input *RecipeInput
		field string
	}{
		"cooking time too low":  {func() *RecipeInput { in := recipeInput(t, []uint{lunch}, line); in.CookingTime = ptr(0); return in }(), "cooking_time"},
		"cooking time too high": {func() *RecipeInput { in := recipeInput(t, []uint{lunch}, line); in.CookingTime = ptr(1441); return in }(), "cooking_time"},
		"duplicate ingredient":  {recipeInput(t, []uint{lunch}, line, RecipeIngredientInput{ID: flour, Amount: 5}), "ingredients"},
		"no ingredients":        {recipeInput(t, []uint{lunch}, []RecipeIngredientInput{}...), "ingredients"},
		"unknown ingredient":    {recipeInput(t, []uint{lunch}, RecipeIngredientInput{ID: 999, Amount: 5}), "ingredients"},
		"amount too high":       {recipeInput(t, []uint{lunch}, RecipeIngredientInput{ID: flour, Amount: 1001}), "ingredients[0].amount"},
		"no tags":               {recipeInput(t, []uint{}, line), "tags"},
		"duplicate tags":        {recipeInput(t, []uint{lunch, lunch}, line), "tags"},
		"unknown tag":           {recipeInput(t, []uint{lunch, 999}, line), "tags"},
		"missing image":         {func() *RecipeInput { in := recipeInput(t, []uint{lunch}, line); in.Image = nil; return in }(), "image"},
		"broken image": {func() *RecipeInput {
			in := recipeInput(t, []uint{lunch}, line)
			in.Image = ptr("data:image/png;base64,AAAA")
			return in
		}(), "image"},
		"empty name": {func() *RecipeInput { in := recipeInput(t, []uint{lunch}, line); in.Name = ptr(""); return in }(), "name"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := e.recipes.Create(ctx, author, tc.input)
			requireFieldError(t, err, tc.field)
		})
	}

	var count int64
	require.NoError(t, e.db.Model(&models.Recipe{}).Count(&count).Error)
	assert.Zero(t, count)
	// rejected uploads leave no files behind
	entries, _ := os.ReadDir(filepath.Join(e.mediaRoot, "recipes", "images"))
	assert.Empty(t, entries)
}

func TestRecipeUpdate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	author := e.register(t, "alice")
	stranger := e.register(t, "bob")
	root := e.superuser(t)
	flour := e.ingredientID(t, "flour", "g")
	sugar := e.ingredientID(t, "sugar", "g")
	lunch := e.tagID(t, "lunch")
	dinner := e.tagID(t, "dinner")

	r, err := e.recipes.Create(ctx, author, recipeInput(t, []uint{lunch}, RecipeIngredientInput{ID: flour, Amount: 100}))
	require.NoError(t, err)

	// PUT needs every field but the image
	_, err = e.recipes.Update(ctx, author, r.ID, &RecipeInput{Name: ptr("Cake")}, ModeReplace)
	requireFieldError(t, err, "tags")

	put := &RecipeInput{
		Name: ptr("Cake"), Text: ptr("Bake."), CookingTime: ptr(40),
		Ingredients: []RecipeIngredientInput{{ID: sugar, Amount: 50}},
		Tags:        []uint{dinner},
	}
	updated, err := e.recipes.Update(ctx, author, r.ID, put, ModeReplace)
	require.NoError(t, err)
	assert.Equal(t, "Cake", updated.Name)
	assert.Equal(t, r.Image, updated.Image)
	require.Len(t, updated.Ingredients, 1)
	assert.Equal(t, sugar, updated.Ingredients[0].ID)
	require.Len(t, updated.Tags, 1)
	assert.Equal(t, dinner, updated.Tags[0].ID)

	patched, err := e.recipes.Update(ctx, author, r.ID, &RecipeInput{CookingTime: ptr(5)}, ModePatch)
	require.NoError(t, err)
	assert.Equal(t, 5, patched.CookingTime)
	assert.Equal(t, "Cake", patched.Name)
	assert.Len(t, patched.Ingredients, 1)

	_, err = e.recipes.Update(ctx, stranger, r.ID, &RecipeInput{Name: ptr("Mine")}, ModePatch)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = e.recipes.Update(ctx, root, r.ID, &RecipeInput{Name: ptr("Moderated")}, ModePatch)
	require.NoError(t, err)

	_, err = e.recipes.Update(ctx, author, 999, &RecipeInput{}, ModePatch)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecipeDelete(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	author := e.register(t, "alice")
	reader := e.register(t, "bob")
	flour := e.ingredientID(t, "flour", "g")
	lunch := e.tagID(t, "lunch")
	r, err := e.recipes.Create(ctx, author, recipeInput(t, []uint{lunch}, RecipeIngredientInput{ID: flour, Amount: 100}))
	require.NoError(t, err)
	_, err = e.members.Add(ctx, models.Favorite, reader, r.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, e.recipes.Delete(ctx, reader, r.ID), ErrForbidden)
	require.NoError(t, e.recipes.Delete(ctx, author, r.ID))
	_, err = e.recipes.Get(ctx, author, r.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	entries, _ := os.ReadDir(filepath.Join(e.mediaRoot, "recipes", "images"))
	assert.Empty(t, entries)
}

func TestRecipeAnnotationsAndFilters(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	author := e.register(t, "alice")
	viewer := e.register(t, "bob")
	flour := e.ingredientID(t, "flour", "g")
	lunch := e.tagID(t, "lunch")
	line := RecipeIngredientInput{ID: flour, Amount: 1}

	first, err := e.recipes.Create(ctx, author, recipeInput(t, []uint{lunch}, line))
	require.NoError(t, err)
	second, err := e.recipes.Create(ctx, author, recipeInput(t, []uint{lunch}, line))
	require.NoError(t, err)

	_, err = e.members.Add(ctx, models.Favorite, viewer, first.ID)
	require.NoError(t, err)
	_, err = e.members.Add(ctx, models.ShoppingCartKind, viewer, second.ID)
	require.NoError(t, err)
	_, err = e.subs.Subscribe(ctx, viewer, author, 0)
	require.NoError(t, err)

	got, err := e.recipes.Get(ctx, viewer, first.ID)
	require.NoError(t, err)
	assert.True(t, got.IsFavorited)
	assert.False(t, got.IsInShoppingCart)
	assert.True(t, got.Author.IsSubscribed)

	yes := true
	list, total, err := e.recipes.List(ctx, viewer, RecipeQuery{IsFavorited: &yes}, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, list, 1)
	assert.Equal(t, first.ID, list[0].ID)

	soup := recipeInput(t, []uint{lunch}, line)
	soup.Name = ptr("Tomato Soup")
	_, err = e.recipes.Create(ctx, author, soup)
	require.NoError(t, err)
	list, total, err = e.recipes.List(ctx, viewer, RecipeQuery{Name: " soup "}, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, list, 1)
	assert.Equal(t, "Tomato Soup", list[0].Name)

	// anonymous viewers see everything, with false flags
	list, total, err = e.recipes.List(ctx, 0, RecipeQuery{IsFavorited: &yes, Name: "pancake"}, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	for _, r := range list {
		assert.False(t, r.IsFavorited)
		assert.False(t, r.IsInShoppingCart)
	}
}

func TestMembership(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	author := e.register(t, "alice")
	flour := e.ingredientID(t, "flour", "g")
	lunch := e.tagID(t, "lunch")
	r, err := e.recipes.Create(ctx, author, recipeInput(t, []uint{lunch}, RecipeIngredientInput{ID: flour, Amount: 1}))
	require.NoError(t, err)

	for _, kind := range []models.MembershipKind{models.Favorite, models.ShoppingCartKind} {
		short, err := e.members.Add(ctx, kind, author, r.ID)
		require.NoError(t, err)
		assert.Equal(t, r.ID, short.ID)
		assert.Equal(t, r.Image, short.Image)

		_, err = e.members.Add(ctx, kind, author, r.ID)
		assert.ErrorIs(t, err, ErrAlreadyExists)

		require.NoError(t, e.members.Remove(ctx, kind, author, r.ID))
		assert.ErrorIs(t, e.members.Remove(ctx, kind, author, r.ID), ErrNotFound)

		_, err = e.members.Add(ctx, kind, author, 999)
		assert.ErrorIs(t, err, ErrNotFound)
	}
}

func TestSubscriptions(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.register(t, "alice")
	bob := e.register(t, "bob")
	flour := e.ingredientID(t, "flour", "g")
	lunch := e.tagID(t, "lunch")
	for i := 0; i < 3; i++ {
		_, err := e.recipes.Create(ctx, bob, recipeInput(t, []uint{lunch}, RecipeIngredientInput{ID: flour, Amount: 1}))
		require.NoError(t, err)
	}

	_, err := e.subs.Subscribe(ctx, alice, alice, 0)
	assert.ErrorIs(t, err, ErrSelfSubscription)

	view, err := e.subs.Subscribe(ctx, alice, bob, 2)
	require.NoError(t, err)
	assert.True(t, view.IsSubscribed)
	assert.Len(t, view.Recipes, 2)
	assert.EqualValues(t, 3, view.RecipesCount)

	_, err = e.subs.Subscribe(ctx, alice, bob, 0)
	assert.ErrorIs(t, err, ErrAlreadyExists)
	_, err = e.subs.Subscribe(ctx, alice, 999, 0)
	assert.ErrorIs(t, err, ErrNotFound)

	list, total, err := e.subs.List(ctx, alice, 0, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, list, 1)
	assert.Len(t, list[0].Recipes, 3)

	require.NoError(t, e.subs.Unsubscribe(ctx, alice, bob))
	assert.ErrorIs(t, e.subs.Unsubscribe(ctx, alice, bob), ErrNotFound)
}

func TestShoppingList(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	author := e.register(t, "alice")
	flour := e.ingredientID(t, "flour", "g")
	eggs := e.ingredientID(t, "eggs", "pcs")
	lunch := e.tagID(t, "lunch")

	a, err := e.recipes.Create(ctx, author, recipeInput(t, []uint{lunch},
		RecipeIngredientInput{ID: flour, Amount: 200}, RecipeIngredientInput{ID: eggs, Amount: 2}))
	require.NoError(t, err)
	b, err := e.recipes.Create(ctx, author, recipeInput(t, []uint{lunch}, RecipeIngredientInput{ID: flour, Amount: 100}))
	require.NoError(t, err)

	empty, err := e.recipes.ShoppingList(ctx, author, shoppinglist.FormatText)
	require.NoError(t, err)
	assert.Equal(t, "Shopping list:\n\n", string(empty))

	for _, id := range []uint{b.ID, a.ID} {
		_, err := e.members.Add(ctx, models.ShoppingCartKind, author, id)
		require.NoError(t, err)
	}
	out, err := e.recipes.ShoppingList(ctx, author, shoppinglist.FormatText)
	require.NoError(t, err)
	assert.Equal(t, "Shopping list:\n\n1. eggs - 2 pcs\n2. flour - 300 g\n", string(out))
}

func TestReferenceDataInUse(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	author := e.register(t, "alice")
	flour := e.ingredientID(t, "flour", "g")
	lunch := e.tagID(t, "lunch")
	spare := e.tagID(t, "spare")
	_, err := e.recipes.Create(ctx, author, recipeInput(t, []uint{lunch}, RecipeIngredientInput{ID: flour, Amount: 1}))
	require.NoError(t, err)

	assert.ErrorIs(t, e.tags.Delete(ctx, lunch), ErrInUse)
	assert.ErrorIs(t, e.ingredient.Delete(ctx, flour), ErrInUse)
	require.NoError(t, e.tags.Delete(ctx, spare))
	assert.ErrorIs(t, e.tags.Delete(ctx, spare), ErrNotFound)

	_, err = e.tags.Create(ctx, &TagInput{Name: "Lunch", Color: "#000000", Slug: "lunch"})
	requireFieldError(t, err, "slug")
	_, err = e.tags.Create(ctx, &TagInput{Name: "Bad", Color: "red", Slug: "bad slug"})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "color")
	assert.Contains(t, ve.Fields, "slug")

	_, err = e.ingredient.Create(ctx, &IngredientInput{Name: "flour", MeasurementUnit: "g"})
	requireFieldError(t, err, NonFieldErrors)

	list, err := e.ingredient.List(ctx, "FL")
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestUserDelete(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.register(t, "alice")
	bob := e.register(t, "bob")
	root := e.superuser(t)
	flour := e.ingredientID(t, "flour", "g")
	lunch := e.tagID(t, "lunch")
	_, err := e.recipes.Create(ctx, alice, recipeInput(t, []uint{lunch}, RecipeIngredientInput{ID: flour, Amount: 1}))
	require.NoError(t, err)

	assert.ErrorIs(t, e.users.Delete(ctx, bob, alice), ErrForbidden)
	require.NoError(t, e.users.Delete(ctx, root, alice))
	_, err = e.users.Get(ctx, 0, alice)
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, e.users.Delete(ctx, bob, bob))

	entries, _ := os.ReadDir(filepath.Join(e.mediaRoot, "recipes", "images"))
	assert.Empty(t, entries)
}

func TestAdminViews(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.register(t, "alice")
	bob := e.register(t, "bob")
	flour := e.ingredientID(t, "rye flour", "g")
	lunch := e.tagID(t, "lunch")
	r1, err := e.recipes.Create(ctx, alice, recipeInput(t, []uint{lunch}, RecipeIngredientInput{ID: flour, Amount: 100}))
	require.NoError(t, err)
	r2, err := e.recipes.Create(ctx, alice, recipeInput(t, []uint{lunch}, RecipeIngredientInput{ID: flour, Amount: 1}))
	require.NoError(t, err)
	for _, id := range []uint{r1.ID, r2.ID} {
		_, err := e.members.Add(ctx, models.Favorite, bob, id)
		require.NoError(t, err)
	}

	rows, total, err := e.admin.Recipes(ctx, "RYE", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, rows, 2)
	assert.Equal(t, "alice@example.com", rows[0].AuthorEmail)
	assert.Equal(t, "lunch", rows[0].Tags)
	assert.EqualValues(t, 1, rows[0].FavoriteCount)
	assert.Equal(t, []string{"rye flour - 1 g."}, rows[0].Ingredients)

	_, total, err = e.admin.Recipes(ctx, "bob@", 0, 10)
	require.NoError(t, err)
	assert.Zero(t, total)

	members, total, err := e.admin.Memberships(ctx, models.Favorite, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, members, 1)
	assert.Equal(t, "bob@example.com", members[0].User)
	assert.EqualValues(t, 2, members[0].Count)
	assert.Len(t, members[0].Recipes, 1) // capped by RecipeLimitShow
}
