package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/foodgram/internal/container"
	handlers "github.com/oksasatya/foodgram/internal/interface/http"
	"github.com/oksasatya/foodgram/internal/interface/middleware"
	"github.com/oksasatya/foodgram/pkg/helpers"
)

// UserModule wires users and subscriptions.
// Public: POST /api/users, GET /api/users, GET /api/users/:id
// Protected: GET|PATCH /api/users/me, set_password, subscriptions, search, POST|DELETE /api/users/:id/subscribe
type UserModule struct {
	Handler *handlers.UserHandler
	JWT     *helpers.JWTManager
}

func NewUserModule(h *handlers.UserHandler, jwt *helpers.JWTManager) *UserModule {
	return &UserModule{Handler: h, JWT: jwt}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	rdb := container.GetRedis()
	registerLimiter := middleware.RateLimit(rdb, 10, time.Minute, middleware.KeyByIPAndPath(), nil)

	rg.POST("/users", registerLimiter, m.Handler.Register)

	public := rg.Group("/")
	public.Use(middleware.OptionalAuth(rdb, m.JWT))
	{
		public.GET("/users", m.Handler.List)
		public.GET("/users/:id", m.Handler.Get)
	}

	auth := rg.Group("/")
	auth.Use(middleware.Auth(rdb, m.JWT))
	auth.Use(middleware.RateLimit(rdb, 120, time.Minute, middleware.KeyByUserID(), nil))
	{
		auth.GET("/users/me", m.Handler.Me)
		auth.PATCH("/users/me", m.Handler.UpdateMe)
		auth.POST("/users/set_password", m.Handler.SetPassword)
		auth.GET("/users/subscriptions", m.Handler.Subscriptions)
		auth.GET("/users/search", m.Handler.Search)
		auth.POST("/users/:id/subscribe", m.Handler.Subscribe)
		auth.DELETE("/users/:id/subscribe", m.Handler.Unsubscribe)
	}
}
