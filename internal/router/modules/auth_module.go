package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/foodgram/internal/container"
	handlers "github.com/oksasatya/foodgram/internal/interface/http"
	"github.com/oksasatya/foodgram/internal/interface/middleware"
	"github.com/oksasatya/foodgram/pkg/helpers"
)

type AuthModule struct {
	Handler *handlers.AuthHandler
	JWT     *helpers.JWTManager
}

func NewAuthModule(h *handlers.AuthHandler, jwt *helpers.JWTManager) *AuthModule {
	return &AuthModule{Handler: h, JWT: jwt}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	rdb := container.GetRedis()
	loginLimiter := middleware.RateLimit(rdb, 10, time.Minute, middleware.KeyByIP(), nil)   // 10 req/min per IP
	refreshLimiter := middleware.RateLimit(rdb, 60, time.Minute, middleware.KeyByIP(), nil) // 60 req/min per IP

	rg.POST("/auth/token/login", loginLimiter, m.Handler.Login)
	rg.POST("/auth/token/refresh", refreshLimiter, m.Handler.Refresh)

	auth := rg.Group("/")
	auth.Use(middleware.Auth(rdb, m.JWT))
	{
		auth.POST("/auth/token/logout", m.Handler.Logout)
	}
}
