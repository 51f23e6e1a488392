package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/foodgram/internal/container"
	handlers "github.com/oksasatya/foodgram/internal/interface/http"
	"github.com/oksasatya/foodgram/internal/interface/middleware"
	"github.com/oksasatya/foodgram/pkg/helpers"
)

// RecipeModule wires recipes, favorites, the shopping cart and its download.
// Reads are open to anonymous callers; every unsafe method requires a token.
type RecipeModule struct {
	Handler      *handlers.RecipeHandler
	JWT          *helpers.JWTManager
	MaxBodyBytes int64
}

func NewRecipeModule(h *handlers.RecipeHandler, jwt *helpers.JWTManager, maxBodyBytes int64) *RecipeModule {
	return &RecipeModule{Handler: h, JWT: jwt, MaxBodyBytes: maxBodyBytes}
}

func (m *RecipeModule) Register(rg *gin.RouterGroup) {
	rdb := container.GetRedis()

	public := rg.Group("/")
	public.Use(middleware.OptionalAuth(rdb, m.JWT))
	{
		public.GET("/recipes", m.Handler.List)
		public.GET("/recipes/:id", m.Handler.Get)
	}

	auth := rg.Group("/")
	auth.Use(middleware.Auth(rdb, m.JWT))
	auth.Use(middleware.RateLimit(rdb, 120, time.Minute, middleware.KeyByUserID(), nil))
	{
		auth.GET("/recipes/download_shopping_cart", m.Handler.DownloadShoppingCart)
		limit := middleware.BodyLimit(m.MaxBodyBytes)
		auth.POST("/recipes", limit, m.Handler.Create)
		auth.PUT("/recipes/:id", limit, m.Handler.Update)
		auth.PATCH("/recipes/:id", limit, m.Handler.Update)
		auth.DELETE("/recipes/:id", m.Handler.Delete)
		auth.POST("/recipes/:id/favorite", m.Handler.AddFavorite)
		auth.DELETE("/recipes/:id/favorite", m.Handler.RemoveFavorite)
		auth.POST("/recipes/:id/shopping_cart", m.Handler.AddToCart)
		auth.DELETE("/recipes/:id/shopping_cart", m.Handler.RemoveFromCart)
	}
}
