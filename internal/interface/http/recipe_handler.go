package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/foodgram/internal/application"
	repo "github.com/oksasatya/foodgram/internal/domain/repository"
	"github.com/oksasatya/foodgram/pkg/response"
)

type RecipeHandler struct {
	Recipes   *application.RecipeService
	Relations *application.RelationService
	Logger    *logrus.Logger
	Paging    Paging
}

func NewRecipeHandler(recipes *application.RecipeService, relations *application.RelationService, logger *logrus.Logger, paging Paging) *RecipeHandler {
	return &RecipeHandler{Recipes: recipes, Relations: relations, Logger: logger, Paging: paging}
}

type ingredientAmountRequest struct {
	ID     string `json:"id" binding:"required,uuid"`
	Amount int    `json:"amount" binding:"min=1,max=32767"`
}

// recipeRequest is shared by create, PUT and PATCH; the service decides which scalars are required.
type recipeRequest struct {
	Name        *string                   `json:"name" binding:"omitempty,notblank,max=200,recipename"`
	Text        *string                   `json:"text" binding:"omitempty,notblank"`
	CookingTime *int                      `json:"cooking_time" binding:"omitempty,min=1,max=2147483647"`
	Image       *string                   `json:"image"`
	Tags        []string                  `json:"tags" binding:"omitempty,dive,uuid"`
	Ingredients []ingredientAmountRequest `json:"ingredients" binding:"omitempty,dive"`
}

func (r recipeRequest) input() application.RecipeInput {
	in := application.RecipeInput{
		Name:        r.Name,
		Text:        r.Text,
		CookingTime: r.CookingTime,
		Image:       r.Image,
		Tags:        r.Tags,
	}
	if r.Ingredients != nil {
		in.Ingredients = make([]application.IngredientAmount, 0, len(r.Ingredients))
		for _, ia := range r.Ingredients {
			in.Ingredients = append(in.Ingredients, application.IngredientAmount{ID: ia.ID, Amount: ia.Amount})
		}
	}
	return in
}

// List GET /api/recipes
func (h *RecipeHandler) List(c *gin.Context) {
	limit, offset := h.Paging.window(c)
	q := application.RecipeQuery{
		AuthorID:  c.Query("author"),
		TagSlugs:  c.QueryArray("tags"),
		Favorited: truthy(c.Query("is_favorited")),
		InCart:    truthy(c.Query("is_in_shopping_cart")),
		Limit:     limit,
		Offset:    offset,
	}
	views, count, err := h.Recipes.List(c.Request.Context(), viewer(c), q)
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, response.Page[recipeDTO]{Count: count, Results: toRecipes(views)}, "recipes", nil)
}

// Get GET /api/recipes/:id
func (h *RecipeHandler) Get(c *gin.Context) {
	v, err := h.Recipes.Get(c.Request.Context(), viewer(c), c.Param("id"))
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toRecipe(*v), "recipe", nil)
}

// Create POST /api/recipes
func (h *RecipeHandler) Create(c *gin.Context) {
	var req recipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	v, err := h.Recipes.Create(c.Request.Context(), viewer(c), req.input())
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, toRecipe(*v), "recipe created", nil)
}

// Update PUT and PATCH /api/recipes/:id
func (h *RecipeHandler) Update(c *gin.Context) {
	var req recipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	partial := c.Request.Method == http.MethodPatch
	v, err := h.Recipes.Update(c.Request.Context(), viewer(c), c.Param("id"), req.input(), partial)
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toRecipe(*v), "recipe updated", nil)
}

// Delete DELETE /api/recipes/:id
func (h *RecipeHandler) Delete(c *gin.Context) {
	if err := h.Recipes.Delete(c.Request.Context(), viewer(c), c.Param("id")); err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.NoContent(c)
}

func (h *RecipeHandler) add(kind repo.RelationKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		rec, err := h.Relations.Add(c.Request.Context(), kind, viewer(c), c.Param("id"))
		if err != nil {
			fail(c, h.Logger, err)
			return
		}
		response.Success(c, http.StatusCreated, toShortRecipe(*rec), "recipe added", nil)
	}
}

func (h *RecipeHandler) remove(kind repo.RelationKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := h.Relations.Remove(c.Request.Context(), kind, viewer(c), c.Param("id")); err != nil {
			fail(c, h.Logger, err)
			return
		}
		response.NoContent(c)
	}
}

// AddFavorite POST /api/recipes/:id/favorite
func (h *RecipeHandler) AddFavorite(c *gin.Context) { h.add(repo.Favorites)(c) }

// RemoveFavorite DELETE /api/recipes/:id/favorite
func (h *RecipeHandler) RemoveFavorite(c *gin.Context) { h.remove(repo.Favorites)(c) }

// AddToCart POST /api/recipes/:id/shopping_cart
func (h *RecipeHandler) AddToCart(c *gin.Context) { h.add(repo.Cart)(c) }

// RemoveFromCart DELETE /api/recipes/:id/shopping_cart
func (h *RecipeHandler) RemoveFromCart(c *gin.Context) { h.remove(repo.Cart)(c) }

// DownloadShoppingCart GET /api/recipes/download_shopping_cart?format=txt|pdf
func (h *RecipeHandler) DownloadShoppingCart(c *gin.Context) {
	dl, err := h.Relations.DownloadShoppingList(c.Request.Context(), viewer(c), c.Query("format"))
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+dl.Filename)
	c.Data(http.StatusOK, dl.ContentType, dl.Body)
}
