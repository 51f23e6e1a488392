package modules

import (
	"github.com/gin-gonic/gin"

	"github.com/oksasatya/foodgram/internal/container"
	handlers "github.com/oksasatya/foodgram/internal/interface/http"
	"github.com/oksasatya/foodgram/internal/interface/middleware"
	"github.com/oksasatya/foodgram/pkg/helpers"
)

// CatalogModule wires tags and ingredients. Writes are admin-only; the service checks the role.
type CatalogModule struct {
	Handler *handlers.CatalogHandler
	JWT     *helpers.JWTManager
}

func NewCatalogModule(h *handlers.CatalogHandler, jwt *helpers.JWTManager) *CatalogModule {
	return &CatalogModule{Handler: h, JWT: jwt}
}

func (m *CatalogModule) Register(rg *gin.RouterGroup) {
	rg.GET("/tags", m.Handler.ListTags)
	rg.GET("/tags/:id", m.Handler.GetTag)
	rg.GET("/ingredients", m.Handler.ListIngredients)
	rg.GET("/ingredients/:id", m.Handler.GetIngredient)

	auth := rg.Group("/")
	auth.Use(middleware.Auth(container.GetRedis(), m.JWT))
	{
		auth.POST("/tags", m.Handler.CreateTag)
		auth.DELETE("/tags/:id", m.Handler.DeleteTag)
		auth.POST("/ingredients", m.Handler.CreateIngredient)
	}
}
