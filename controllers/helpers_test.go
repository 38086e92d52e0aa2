package controllers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"foodgram/config"
	"foodgram/database/dbtest"
	"foodgram/media"
	"foodgram/repositories"
	"foodgram/services"

	restful "github.com/emicklei/go-restful/v3"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testServer struct {
	t         *testing.T
	container *restful.Container
	deps      Deps
}

func newTestServer(t *testing.T) *testServer {
	db := dbtest.New(t)
	store := media.NewLocalStore(t.TempDir(), "/media/")
	log := zap.NewNop()

	userRepo := repositories.NewUserRepository(db)
	recipeRepo := repositories.NewRecipeRepository(db)
	ingredientRepo := repositories.NewIngredientRepository(db)
	tagRepo := repositories.NewTagRepository(db)
	memberRepo := repositories.NewMembershipRepository(db)
	subRepo := repositories.NewSubscriptionRepository(db)

	deps := Deps{
		Users:         services.NewUserService(userRepo, subRepo, recipeRepo, store, log),
		Tags:          services.NewTagService(tagRepo),
		Ingredients:   services.NewIngredientService(ingredientRepo),
		Memberships:   services.NewMembershipService(recipeRepo, memberRepo, store),
		Subscriptions: services.NewSubscriptionService(userRepo, subRepo, recipeRepo, store),
		Admin: services.NewAdminService(repositories.NewAdminRepository(db), memberRepo,
			config.AdminConfig{EmptyValueDisplay: "-empty-", RecipeLimitShow: 3}),
		Recipes: services.NewRecipeService(services.RecipeDeps{
			Recipes: recipeRepo, Ingredients: ingredientRepo, Tags: tagRepo,
			Members: memberRepo, Subs: subRepo, Users: userRepo, Store: store, Log: log,
		}),
		Accounts:   userRepo,
		Store:      store,
		Pagination: config.PaginationConfig{DefaultLimit: 6, MaxLimit: 100},
		Ping: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		Log: log,
	}
	return &testServer{t: t, container: NewContainer(deps), deps: deps}
}

// do sends body as JSON and returns the recorded response.
func (s *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}
	rec := httptest.NewRecorder()
	s.container.ServeHTTP(rec, req)
	return rec
}

// signup registers name and returns its id and token.
func (s *testServer) signup(name string) (uint, string) {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/api/users", "", map[string]string{
		"email": name + "@example.com", "username": name,
		"first_name": name, "last_name": "Test", "password": "password123",
	})
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
	var created services.CreatedUserResponse
	decode(s.t, rec, &created)
	return created.ID, s.login(name+"@example.com", "password123")
}

func (s *testServer) login(email, password string) string {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/api/auth/token/login", "", map[string]string{"email": email, "password": password})
	require.Equal(s.t, http.StatusOK, rec.Code, rec.Body.String())
	var tok services.TokenResponse
	decode(s.t, rec, &tok)
	return tok.AuthToken
}

func (s *testServer) admin() string {
	s.t.Helper()
	_, err := s.deps.Users.CreateSuperuser(context.Background(), &services.SuperuserInput{
		Email: "root@example.com", Username: "root", Password: "password123",
	})
	require.NoError(s.t, err)
	return s.login("root@example.com", "password123")
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

// pageCount decodes a paginated response and returns its count.
func pageCount(t *testing.T, rec *httptest.ResponseRecorder) int64 {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var page struct {
		Count int64 `json:"count"`
	}
	decode(t, rec, &page)
	return page.Count
}

func pngDataURI(t *testing.T) string {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}
