package repositories

import (
	"context"
	"fmt"
	"testing"

	"foodgram/database/dbtest"
	"foodgram/models"
	"foodgram/shoppinglist"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db          *gorm.DB
	users       UserRepository
	recipes     RecipeRepository
	ingredients IngredientRepository
	tags        TagRepository
	members     MembershipRepository
	subs        SubscriptionRepository
}

func newFixture(t *testing.T) *fixture {
	db := dbtest.New(t)
	return &fixture{
		db:          db,
		users:       NewUserRepository(db),
		recipes:     NewRecipeRepository(db),
		ingredients: NewIngredientRepository(db),
		tags:        NewTagRepository(db),
		members:     NewMembershipRepository(db),
		subs:        NewSubscriptionRepository(db),
	}
}

func (f *fixture) user(t *testing.T, name string) *models.User {
	u := &models.User{Email: name + "@example.com", Username: name, FirstName: name, LastName: "Test", Password: "x"}
	require.NoError(t, f.users.Create(context.Background(), u, models.RoleUser))
	return u
}

func (f *fixture) ingredient(t *testing.T, name, unit string) *models.Ingredient {
	i := &models.Ingredient{Name: name, MeasurementUnit: unit}
	require.NoError(t, f.ingredients.Create(context.Background(), i))
	return i
}

func (f *fixture) tag(t *testing.T, slug string) *models.Tag {
	tag := &models.Tag{Name: slug, Color: "#AABBCC", Slug: slug}
	require.NoError(t, f.tags.Create(context.Background(), tag))
	return tag
}

func (f *fixture) recipe(t *testing.T, author *models.User, name string, tags []uint, rows ...models.RecipeIngredient) *models.Recipe {
	r := &models.Recipe{AuthorID: author.ID, Name: name, Text: "text", CookingTime: 10, Image: "recipes/" + name + ".png", Ingredients: rows}
	require.NoError(t, f.recipes.Create(context.Background(), r, tags))
	return r
}

func TestRecipeCreateAndFind(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.user(t, "alice")
	flour := f.ingredient(t, "flour", "g")
	milk := f.ingredient(t, "milk", "ml")
	lunch := f.tag(t, "lunch")
	breakfast := f.tag(t, "breakfast")

	created := f.recipe(t, author, "pancakes", []uint{lunch.ID, breakfast.ID},
		models.RecipeIngredient{IngredientID: milk.ID, Amount: 200},
		models.RecipeIngredient{IngredientID: flour.ID, Amount: 100},
	)

	got, err := f.recipes.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Author.Username)
	require.Len(t, got.Tags, 2)
	assert.Equal(t, "breakfast", got.Tags[0].Slug) // ordered by name
	require.Len(t, got.Ingredients, 2)
	assert.Equal(t, "milk", got.Ingredients[0].Ingredient.Name) // insertion order
	assert.Equal(t, 100, got.Ingredients[1].Amount)
	assert.False(t, got.PubDate.IsZero())
}

func TestRecipeDuplicateIngredientRollsBack(t *testing.T) {
	f := newFixture(t)
	author := f.user(t, "alice")
	flour := f.ingredient(t, "flour", "g")
	tag := f.tag(t, "lunch")

	r := &models.Recipe{AuthorID: author.ID, Name: "bread", Text: "t", CookingTime: 5, Ingredients: []models.RecipeIngredient{
		{IngredientID: flour.ID, Amount: 1},
		{IngredientID: flour.ID, Amount: 2},
	}}
	err := f.recipes.Create(context.Background(), r, []uint{tag.ID})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	var count int64
	require.NoError(t, f.db.Model(&models.Recipe{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestRecipeUpdateReplacesWholesale(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.user(t, "alice")
	flour := f.ingredient(t, "flour", "g")
	sugar := f.ingredient(t, "sugar", "g")
	lunch := f.tag(t, "lunch")
	dinner := f.tag(t, "dinner")
	r := f.recipe(t, author, "cake", []uint{lunch.ID}, models.RecipeIngredient{IngredientID: flour.ID, Amount: 100})

	err := f.recipes.Update(ctx, r.ID, map[string]any{"name": "sweet cake"},
		[]models.RecipeIngredient{{IngredientID: sugar.ID, Amount: 50}}, []uint{dinner.ID})
	require.NoError(t, err)

	got, err := f.recipes.FindByID(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "sweet cake", got.Name)
	require.Len(t, got.Ingredients, 1)
	assert.Equal(t, sugar.ID, got.Ingredients[0].IngredientID)
	require.Len(t, got.Tags, 1)
	assert.Equal(t, "dinner", got.Tags[0].Slug)

	var rows int64
	require.NoError(t, f.db.Model(&models.RecipeIngredient{}).Count(&rows).Error)
	assert.EqualValues(t, 1, rows)

	// nil sets leave the relations alone
	require.NoError(t, f.recipes.Update(ctx, r.ID, map[string]any{"cooking_time": 20}, nil, nil))
	got, err = f.recipes.FindByID(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, got.CookingTime)
	assert.Len(t, got.Ingredients, 1)
	assert.Len(t, got.Tags, 1)
}

func TestRecipeDeleteCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.user(t, "alice")
	reader := f.user(t, "bob")
	flour := f.ingredient(t, "flour", "g")
	tag := f.tag(t, "lunch")
	r := f.recipe(t, author, "bread", []uint{tag.ID}, models.RecipeIngredient{IngredientID: flour.ID, Amount: 1})
	require.NoError(t, f.members.Add(ctx, models.Favorite, reader.ID, r.ID))
	require.NoError(t, f.members.Add(ctx, models.ShoppingCartKind, reader.ID, r.ID))

	require.NoError(t, f.recipes.Delete(ctx, r.ID))
	assert.ErrorIs(t, f.recipes.Delete(ctx, r.ID), gorm.ErrRecordNotFound)

	for _, table := range []string{"recipe_ingredients", "recipe_tags", "favorite_recipes", "shopping_carts"} {
		var count int64
		require.NoError(t, f.db.Table(table).Count(&count).Error)
		assert.Zero(t, count, table)
	}
	// reference data survives
	_, err := f.ingredients.FindByID(ctx, flour.ID)
	assert.NoError(t, err)
}

func TestRecipeListFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	flour := f.ingredient(t, "flour", "g")
	lunch := f.tag(t, "lunch")
	dinner := f.tag(t, "dinner")
	row := models.RecipeIngredient{IngredientID: flour.ID, Amount: 1}

	soup := f.recipe(t, alice, "Soup", []uint{lunch.ID}, row)
	stew := f.recipe(t, alice, "Stew", []uint{dinner.ID}, row)
	pie := f.recipe(t, bob, "Pie 100%", []uint{lunch.ID, dinner.ID}, row)
	require.NoError(t, f.members.Add(ctx, models.Favorite, bob.ID, soup.ID))
	require.NoError(t, f.members.Add(ctx, models.ShoppingCartKind, bob.ID, stew.ID))

	ids := func(recipes []models.Recipe) []uint {
		out := make([]uint, 0, len(recipes))
		for _, r := range recipes {
			out = append(out, r.ID)
		}
		return out
	}

	all, total, err := f.recipes.List(ctx, RecipeFilter{}, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Equal(t, []uint{pie.ID, stew.ID, soup.ID}, ids(all)) // newest first

	page, total, err := f.recipes.List(ctx, RecipeFilter{}, 1, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Equal(t, []uint{stew.ID}, ids(page))

	got, _, err := f.recipes.List(ctx, RecipeFilter{AuthorID: &alice.ID}, 0, 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{soup.ID, stew.ID}, ids(got))

	got, total, err = f.recipes.List(ctx, RecipeFilter{TagSlugs: []string{"lunch", "dinner"}}, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total) // OR semantics, no duplicates
	assert.Len(t, got, 3)

	yes, no := true, false
	got, _, err = f.recipes.List(ctx, RecipeFilter{ViewerID: bob.ID, IsFavorited: &yes}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []uint{soup.ID}, ids(got))

	got, _, err = f.recipes.List(ctx, RecipeFilter{ViewerID: bob.ID, IsInShoppingCart: &no}, 0, 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{soup.ID, pie.ID}, ids(got))

	got, _, err = f.recipes.List(ctx, RecipeFilter{Search: "100%"}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []uint{pie.ID}, ids(got))

	got, _, err = f.recipes.List(ctx, RecipeFilter{Search: "s"}, 0, 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{soup.ID, stew.ID}, ids(got))
}

func TestShoppingListAggregates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.user(t, "alice")
	buyer := f.user(t, "bob")
	flour := f.ingredient(t, "flour", "g")
	apple := f.ingredient(t, "apple", "pcs")
	flourKg := f.ingredient(t, "flour", "kg")
	tag := f.tag(t, "lunch")

	a := f.recipe(t, author, "a", []uint{tag.ID},
		models.RecipeIngredient{IngredientID: flour.ID, Amount: 200},
		models.RecipeIngredient{IngredientID: apple.ID, Amount: 2})
	b := f.recipe(t, author, "b", []uint{tag.ID},
		models.RecipeIngredient{IngredientID: flour.ID, Amount: 100},
		models.RecipeIngredient{IngredientID: flourKg.ID, Amount: 1})
	f.recipe(t, author, "not in cart", []uint{tag.ID}, models.RecipeIngredient{IngredientID: flour.ID, Amount: 999})

	empty, err := f.recipes.ShoppingList(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Empty(t, empty)

	require.NoError(t, f.members.Add(ctx, models.ShoppingCartKind, buyer.ID, b.ID))
	require.NoError(t, f.members.Add(ctx, models.ShoppingCartKind, buyer.ID, a.ID))

	items, err := f.recipes.ShoppingList(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, []shoppinglist.Item{
		{Name: "apple", MeasurementUnit: "pcs", Amount: 2},
		{Name: "flour", MeasurementUnit: "g", Amount: 300},
		{Name: "flour", MeasurementUnit: "kg", Amount: 1},
	}, items)
}

func TestMembership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.user(t, "alice")
	reader := f.user(t, "bob")
	flour := f.ingredient(t, "flour", "g")
	tag := f.tag(t, "lunch")
	r := f.recipe(t, author, "bread", []uint{tag.ID}, models.RecipeIngredient{IngredientID: flour.ID, Amount: 1})

	require.NoError(t, f.members.Add(ctx, models.Favorite, reader.ID, r.ID))
	assert.ErrorIs(t, f.members.Add(ctx, models.Favorite, reader.ID, r.ID), gorm.ErrDuplicatedKey)
	// kinds are independent
	require.NoError(t, f.members.Add(ctx, models.ShoppingCartKind, reader.ID, r.ID))

	held, err := f.members.RecipeIDsIn(ctx, models.Favorite, reader.ID, []uint{r.ID, r.ID + 100})
	require.NoError(t, err)
	assert.Equal(t, map[uint]bool{r.ID: true}, held)

	counts, err := f.members.CountByRecipe(ctx, models.Favorite, []uint{r.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 1, counts[r.ID])

	require.NoError(t, f.members.Remove(ctx, models.Favorite, reader.ID, r.ID))
	assert.ErrorIs(t, f.members.Remove(ctx, models.Favorite, reader.ID, r.ID), gorm.ErrRecordNotFound)

	held, err = f.members.RecipeIDsIn(ctx, models.ShoppingCartKind, reader.ID, []uint{r.ID})
	require.NoError(t, err)
	assert.True(t, held[r.ID])
}

func TestSubscriptions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	carol := f.user(t, "carol")

	require.NoError(t, f.subs.Create(ctx, alice.ID, bob.ID))
	require.NoError(t, f.subs.Create(ctx, alice.ID, carol.ID))
	assert.ErrorIs(t, f.subs.Create(ctx, alice.ID, bob.ID), gorm.ErrDuplicatedKey)

	authors, total, err := f.subs.ListAuthors(ctx, alice.ID, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, authors, 2)
	assert.Equal(t, "carol", authors[0].Username)

	followed, err := f.subs.AuthorIDsIn(ctx, alice.ID, []uint{bob.ID, carol.ID, alice.ID})
	require.NoError(t, err)
	assert.Equal(t, map[uint]bool{bob.ID: true, carol.ID: true}, followed)

	require.NoError(t, f.subs.Delete(ctx, alice.ID, bob.ID))
	assert.ErrorIs(t, f.subs.Delete(ctx, alice.ID, bob.ID), gorm.ErrRecordNotFound)
}

func TestUserDeleteCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	flour := f.ingredient(t, "flour", "g")
	tag := f.tag(t, "lunch")
	mine := f.recipe(t, alice, "mine", []uint{tag.ID}, models.RecipeIngredient{IngredientID: flour.ID, Amount: 1})
	theirs := f.recipe(t, bob, "theirs", []uint{tag.ID}, models.RecipeIngredient{IngredientID: flour.ID, Amount: 1})
	require.NoError(t, f.members.Add(ctx, models.Favorite, bob.ID, mine.ID))
	require.NoError(t, f.members.Add(ctx, models.ShoppingCartKind, alice.ID, theirs.ID))
	require.NoError(t, f.subs.Create(ctx, alice.ID, bob.ID))
	require.NoError(t, f.subs.Create(ctx, bob.ID, alice.ID))

	require.NoError(t, f.users.Delete(ctx, alice.ID))

	_, err := f.users.FindByID(ctx, alice.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	_, err = f.recipes.FindByID(ctx, mine.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	_, err = f.recipes.FindByID(ctx, theirs.ID)
	assert.NoError(t, err)

	for _, table := range []string{"favorite_recipes", "shopping_carts", "subscribes", "user_roles"} {
		var count int64
		q := f.db.Table(table)
		if table == "user_roles" {
			q = q.Where("user_id = ?", alice.ID)
		}
		require.NoError(t, q.Count(&count).Error)
		assert.Zero(t, count, table)
	}
}

func TestIngredientsPrefixAndRestrict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, name := range []string{"Sugar", "salt", "flour", "sugar_free syrup"} {
		f.ingredient(t, name, "g")
	}

	got, err := f.ingredients.List(ctx, "s")
	require.NoError(t, err)
	names := make([]string, 0, len(got))
	for _, i := range got {
		names = append(names, i.Name)
	}
	assert.ElementsMatch(t, []string{"Sugar", "salt", "sugar_free syrup"}, names)

	got, err = f.ingredients.List(ctx, "sugar_")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "sugar_free syrup", got[0].Name)

	dup := &models.Ingredient{Name: "salt", MeasurementUnit: "g"}
	assert.ErrorIs(t, f.ingredients.Create(ctx, dup), gorm.ErrDuplicatedKey)

	missing, err := f.ingredients.MissingIDs(ctx, []uint{got[0].ID, 9999})
	require.NoError(t, err)
	assert.Equal(t, []uint{9999}, missing)

	author := f.user(t, "alice")
	tag := f.tag(t, "lunch")
	f.recipe(t, author, "bread", []uint{tag.ID}, models.RecipeIngredient{IngredientID: got[0].ID, Amount: 1})
	assert.ErrorIs(t, f.ingredients.Delete(ctx, got[0].ID), gorm.ErrForeignKeyViolated)
	assert.ErrorIs(t, f.ingredients.Delete(ctx, 9999), gorm.ErrRecordNotFound)
}

func TestTags(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i, slug := range []string{"dinner", "breakfast", "lunch"} {
		require.NoError(t, f.tags.Create(ctx, &models.Tag{Name: fmt.Sprintf("%c-%s", 'c'-i, slug), Color: "#000000", Slug: slug}))
	}
	tags, err := f.tags.List(ctx)
	require.NoError(t, err)
	require.Len(t, tags, 3)
	assert.Equal(t, "lunch", tags[0].Slug)

	err = f.tags.Create(ctx, &models.Tag{Name: "again", Color: "#000000", Slug: "lunch"})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	author := f.user(t, "alice")
	flour := f.ingredient(t, "flour", "g")
	bread := f.recipe(t, author, "bread", []uint{tags[0].ID}, models.RecipeIngredient{IngredientID: flour.ID, Amount: 1})
	assert.ErrorIs(t, f.tags.Delete(ctx, tags[0].ID), gorm.ErrForeignKeyViolated)
	assert.ErrorIs(t, f.tags.Delete(ctx, 9999), gorm.ErrRecordNotFound)

	// the refused delete leaves the recipe's tag links alone
	got, err := f.recipes.FindByID(ctx, bread.ID)
	require.NoError(t, err)
	require.Len(t, got.Tags, 1)
	assert.Equal(t, "lunch", got.Tags[0].Slug)

	require.NoError(t, f.tags.Delete(ctx, tags[1].ID))
	_, err = f.tags.FindByID(ctx, tags[1].ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
