package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/foodgram/internal/application"
	"github.com/oksasatya/foodgram/internal/domain/entity"
	"github.com/oksasatya/foodgram/internal/infrastructure/memory"
	"github.com/oksasatya/foodgram/internal/interface/middleware"
	"github.com/oksasatya/foodgram/pkg/validation"
)

type envelope struct {
	Status  int             `json:"status"`
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code    string            `json:"code"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

type server struct {
	t      *testing.T
	store  *memory.Store
	engine *gin.Engine
}

// actAs lets tests pick the caller with a header instead of a token.
func actAs() gin.HandlerFunc {
	return func(c *gin.Context) {
		if uid := c.GetHeader("X-Test-User"); uid != "" {
			c.Set(middleware.CtxUserIDKey, uid)
		}
		c.Next()
	}
}

func newServer(t *testing.T) *server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validation.Init()

	st := memory.New()
	recipes := &application.RecipeService{
		Recipes: st.Recipes(), Users: st.Users(), Tags: st.Tags(), Ingredients: st.Ingredients(),
		Relations: st.Relations(), Follows: st.Follows(),
	}
	relations := &application.RelationService{Recipes: st.Recipes(), Relations: st.Relations(), ListTitle: "Shopping list"}
	follows := &application.FollowService{Follows: st.Follows(), Users: st.Users(), Recipes: st.Recipes()}
	catalog := &application.CatalogService{Tags: st.Tags(), Ingredients: st.Ingredients(), Users: st.Users()}
	users := &application.UserService{Repo: st.Users(), Follows: st.Follows()}

	paging := Paging{Default: 6, Max: 100}
	rh := NewRecipeHandler(recipes, relations, nil, paging)
	ch := NewCatalogHandler(catalog, nil)
	uh := NewUserHandler(users, follows, nil, nil, paging, 3)

	r := gin.New()
	api := r.Group("/api", actAs())
	api.GET("/recipes", rh.List)
	api.POST("/recipes", middleware.BodyLimit(64<<10), rh.Create)
	api.GET("/recipes/download_shopping_cart", rh.DownloadShoppingCart)
	api.GET("/recipes/:id", rh.Get)
	api.PATCH("/recipes/:id", rh.Update)
	api.PUT("/recipes/:id", rh.Update)
	api.DELETE("/recipes/:id", rh.Delete)
	api.POST("/recipes/:id/favorite", rh.AddFavorite)
	api.DELETE("/recipes/:id/favorite", rh.RemoveFavorite)
	api.POST("/recipes/:id/shopping_cart", rh.AddToCart)
	api.DELETE("/recipes/:id/shopping_cart", rh.RemoveFromCart)
	api.GET("/tags", ch.ListTags)
	api.POST("/tags", ch.CreateTag)
	api.GET("/ingredients", ch.ListIngredients)
	api.POST("/users", uh.Register)
	api.PATCH("/users/me", uh.UpdateMe)
	api.GET("/users/subscriptions", uh.Subscriptions)
	api.GET("/users/:id", uh.Get)
	api.POST("/users/:id/subscribe", uh.Subscribe)
	api.DELETE("/users/:id/subscribe", uh.Unsubscribe)

	return &server{t: t, store: st, engine: r}
}

func (s *server) do(method, path, as string, body any) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(s.t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if as != "" {
		req.Header.Set("X-Test-User", as)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var env envelope
	if w.Code != http.StatusNoContent && bytes.HasPrefix(w.Body.Bytes(), []byte("{")) {
		require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func (s *server) user(username string, role string) *entity.User {
	u := &entity.User{Email: username + "@example.com", Username: username, Password: "x", Role: role}
	require.NoError(s.t, s.store.Users().Create(context.Background(), u))
	return u
}

func (s *server) ingredient(name, unit string) *entity.Ingredient {
	in := &entity.Ingredient{Name: name, MeasurementUnit: unit}
	require.NoError(s.t, s.store.Ingredients().Create(context.Background(), in))
	return in
}

func recipeBody(name string, ingredientID string, amount int) map[string]any {
	return map[string]any{
		"name":         name,
		"text":         "Mix and bake.",
		"cooking_time": 30,
		"tags":         []string{},
		"ingredients":  []map[string]any{{"id": ingredientID, "amount": amount}},
	}
}

func (s *server) recipe(as, name, ingredientID string, amount int) recipeDTO {
	w, env := s.do(http.MethodPost, "/api/recipes", as, recipeBody(name, ingredientID, amount))
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	var dto recipeDTO
	require.NoError(s.t, json.Unmarshal(env.Data, &dto))
	return dto
}

func TestRecipeLifecycle(t *testing.T) {
	s := newServer(t)
	author := s.user("cook", entity.RoleUser)
	other := s.user("other", entity.RoleUser)
	flour := s.ingredient("Flour", "g")

	rec := s.recipe(author.ID, "Pie", flour.ID, 300)
	assert.Equal(t, "Pie", rec.Name)
	assert.Equal(t, author.ID, rec.Author.ID)
	require.Len(t, rec.Ingredients, 1)
	assert.Equal(t, "g", rec.Ingredients[0].MeasurementUnit)

	w, env := s.do(http.MethodGet, "/api/recipes/"+rec.ID, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)

	w, env = s.do(http.MethodPatch, "/api/recipes/"+rec.ID, other.ID, map[string]any{
		"tags": []string{}, "ingredients": []map[string]any{{"id": flour.ID, "amount": 1}},
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "permission_denied", env.Error.Code)

	w, env = s.do(http.MethodPatch, "/api/recipes/"+rec.ID, author.ID, map[string]any{
		"cooking_time": 50, "tags": []string{}, "ingredients": []map[string]any{{"id": flour.ID, "amount": 1}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated recipeDTO
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.Equal(t, 50, updated.CookingTime)
	assert.Equal(t, "Pie", updated.Name)

	w, env = s.do(http.MethodPut, "/api/recipes/"+rec.ID, author.ID, map[string]any{
		"tags": []string{}, "ingredients": []map[string]any{{"id": flour.ID, "amount": 1}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, env.Error.Details, "name")

	w, _ = s.do(http.MethodDelete, "/api/recipes/"+rec.ID, author.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w, env = s.do(http.MethodGet, "/api/recipes/"+rec.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", env.Error.Code)
}

func TestCreateRecipeErrors(t *testing.T) {
	s := newServer(t)
	author := s.user("cook", entity.RoleUser)
	flour := s.ingredient("Flour", "g")

	w, env := s.do(http.MethodPost, "/api/recipes", "", recipeBody("Pie", flour.ID, 1))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "not_authenticated", env.Error.Code)

	w, env = s.do(http.MethodPost, "/api/recipes", author.ID, recipeBody("Pie", flour.ID, 0))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, env.Error.Details, "ingredients[0].amount")

	w, env = s.do(http.MethodPost, "/api/recipes", author.ID, recipeBody("Pie", flour.ID, 4294967297))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, env.Error.Details, "ingredients[0].amount")

	body := recipeBody("Pie", flour.ID, 1)
	body["cooking_time"] = 2147483648
	w, env = s.do(http.MethodPost, "/api/recipes", author.ID, body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, env.Error.Details, "cooking_time")

	body = recipeBody("Pie", flour.ID, 1)
	body["text"] = ""
	w, env = s.do(http.MethodPost, "/api/recipes", author.ID, body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, env.Error.Details, "text")

	w, env = s.do(http.MethodPost, "/api/recipes", author.ID, recipeBody("12345", flour.ID, 1))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, env.Error.Details, "name")

	w, env = s.do(http.MethodPost, "/api/recipes", author.ID, `{"name": 1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid", env.Error.Code)

	body = recipeBody("Pie", flour.ID, 1)
	body["image"] = "data:image/png;base64,AAAA"
	w, env = s.do(http.MethodPost, "/api/recipes", author.ID, body)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "image_storage_unavailable", env.Error.Code)
}

func TestCreateRecipeBodyLimit(t *testing.T) {
	s := newServer(t)
	author := s.user("cook", entity.RoleUser)
	flour := s.ingredient("Flour", "g")

	body := recipeBody("Pie", flour.ID, 1)
	body["image"] = "data:image/png;base64," + strings.Repeat("A", 70<<10)
	w, env := s.do(http.MethodPost, "/api/recipes", author.ID, body)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, "too_large", env.Error.Code)
}

func TestListRecipesPaging(t *testing.T) {
	s := newServer(t)
	author := s.user("cook", entity.RoleUser)
	flour := s.ingredient("Flour", "g")
	for _, name := range []string{"A", "B", "C"} {
		s.recipe(author.ID, "Recipe "+name, flour.ID, 1)
	}

	w, env := s.do(http.MethodGet, "/api/recipes?limit=2&page=2", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page struct {
		Count   int         `json:"count"`
		Results []recipeDTO `json:"results"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, 3, page.Count)
	require.Len(t, page.Results, 1)
	assert.Equal(t, "Recipe A", page.Results[0].Name)
}

func TestFavoriteAndCart(t *testing.T) {
	s := newServer(t)
	author := s.user("cook", entity.RoleUser)
	reader := s.user("reader", entity.RoleUser)
	flour := s.ingredient("Flour", "g")
	salt := s.ingredient("Salt", "g")
	pie := s.recipe(author.ID, "Pie", flour.ID, 200)
	bread := s.recipe(author.ID, "Bread", flour.ID, 900)
	s.recipe(author.ID, "Soup", salt.ID, 5)

	w, env := s.do(http.MethodPost, "/api/recipes/"+pie.ID+"/favorite", reader.ID, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var short shortRecipeDTO
	require.NoError(t, json.Unmarshal(env.Data, &short))
	assert.Equal(t, shortRecipeDTO{ID: pie.ID, Name: "Pie", CookingTime: 30}, short)

	w, env = s.do(http.MethodPost, "/api/recipes/"+pie.ID+"/favorite", reader.ID, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "already_added", env.Error.Code)

	w, _ = s.do(http.MethodDelete, "/api/recipes/"+pie.ID+"/favorite", reader.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w, env = s.do(http.MethodDelete, "/api/recipes/"+pie.ID+"/favorite", reader.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_present", env.Error.Code)

	for _, id := range []string{pie.ID, bread.ID} {
		w, _ := s.do(http.MethodPost, "/api/recipes/"+id+"/shopping_cart", reader.ID, nil)
		require.Equal(t, http.StatusCreated, w.Code)
	}
	w, _ = s.do(http.MethodGet, "/api/recipes/download_shopping_cart", reader.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "attachment; filename=shopping_list.txt", w.Header().Get("Content-Disposition"))
	assert.Equal(t, "text/plain; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "1. Flour – 1100 g", w.Body.String())

	w, _ = s.do(http.MethodGet, "/api/recipes/download_shopping_cart", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, env = s.do(http.MethodGet, "/api/recipes?is_in_shopping_cart=1", reader.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, 2, page.Count)
}

func TestSubscriptions(t *testing.T) {
	s := newServer(t)
	author := s.user("cook", entity.RoleUser)
	reader := s.user("reader", entity.RoleUser)
	flour := s.ingredient("Flour", "g")
	for _, name := range []string{"One", "Two"} {
		s.recipe(author.ID, name, flour.ID, 1)
	}

	w, env := s.do(http.MethodPost, "/api/users/"+reader.ID+"/subscribe", reader.ID, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "self_subscription", env.Error.Code)

	w, env = s.do(http.MethodPost, "/api/users/"+author.ID+"/subscribe?recipes_limit=-1", reader.ID, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, env.Error.Details, "recipes_limit")

	w, env = s.do(http.MethodPost, "/api/users/"+author.ID+"/subscribe?recipes_limit=1", reader.ID, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var card subscriptionDTO
	require.NoError(t, json.Unmarshal(env.Data, &card))
	assert.True(t, card.IsSubscribed)
	assert.Equal(t, 2, card.RecipesCount)
	assert.Len(t, card.Recipes, 1)

	w, _ = s.do(http.MethodPost, "/api/users/"+author.ID+"/subscribe", reader.ID, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w, env = s.do(http.MethodGet, "/api/users/"+author.ID, reader.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var u userDTO
	require.NoError(t, json.Unmarshal(env.Data, &u))
	assert.True(t, u.IsSubscribed)

	w, env = s.do(http.MethodGet, "/api/users/subscriptions", reader.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page struct {
		Count   int               `json:"count"`
		Results []subscriptionDTO `json:"results"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, 1, page.Count)
	assert.Len(t, page.Results[0].Recipes, 2)

	w, _ = s.do(http.MethodDelete, "/api/users/"+author.ID+"/subscribe", reader.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w, env = s.do(http.MethodDelete, "/api/users/"+author.ID+"/subscribe", reader.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_subscribed", env.Error.Code)
}

func TestRegister(t *testing.T) {
	s := newServer(t)
	body := map[string]any{
		"email": "ann@example.com", "username": "ann", "first_name": "Ann", "last_name": "Lee", "password": "longenough",
	}

	w, env := s.do(http.MethodPost, "/api/users", "", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var u userDTO
	require.NoError(t, json.Unmarshal(env.Data, &u))
	assert.Equal(t, "ann", u.Username)
	assert.NotContains(t, string(env.Data), "password")

	w, env = s.do(http.MethodPost, "/api/users", "", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, env.Error.Details, "email")

	body["username"] = "bad name!"
	body["password"] = "short"
	w, env = s.do(http.MethodPost, "/api/users", "", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, env.Error.Details, "username")
	assert.Contains(t, env.Error.Details, "password")
}

func TestUpdateMe(t *testing.T) {
	s := newServer(t)
	ann := s.user("ann", entity.RoleUser)
	s.user("bob", entity.RoleUser)

	w, env := s.do(http.MethodPatch, "/api/users/me", ann.ID, map[string]any{"first_name": "Anna"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var u userDTO
	require.NoError(t, json.Unmarshal(env.Data, &u))
	assert.Equal(t, "Anna", u.FirstName)
	assert.Equal(t, "ann", u.Username)

	w, env = s.do(http.MethodPatch, "/api/users/me", ann.ID, map[string]any{"username": "bob"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, env.Error.Details, "username")

	w, env = s.do(http.MethodPatch, "/api/users/me", ann.ID, map[string]any{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, env.Error.Details, "email")

	w, _ = s.do(http.MethodPatch, "/api/users/me", "", map[string]any{"first_name": "X"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCatalog(t *testing.T) {
	s := newServer(t)
	admin := s.user("admin", entity.RoleAdmin)
	cook := s.user("cook", entity.RoleUser)
	s.ingredient("Salt", "g")
	s.ingredient("sugar", "g")
	s.ingredient("Flour", "g")

	tag := map[string]any{"name": "Lunch", "color": "#ff0000", "slug": "lunch"}
	w, env := s.do(http.MethodPost, "/api/tags", cook.ID, tag)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "permission_denied", env.Error.Code)

	w, env = s.do(http.MethodPost, "/api/tags", admin.ID, tag)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created tagDTO
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "#FF0000", created.Color)

	w, env = s.do(http.MethodPost, "/api/tags", admin.ID, map[string]any{"name": "X", "color": "red", "slug": "bad slug"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, env.Error.Details, "color")
	assert.Contains(t, env.Error.Details, "slug")

	w, env = s.do(http.MethodGet, "/api/ingredients?name=S", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []ingredientDTO
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list, 2)
	assert.Equal(t, "Salt", list[0].Name)
	assert.Equal(t, "sugar", list[1].Name)
}
