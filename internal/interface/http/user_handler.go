package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/foodgram/internal/application"
	"github.com/oksasatya/foodgram/pkg/helpers"
	"github.com/oksasatya/foodgram/pkg/response"
)

type UserHandler struct {
	Svc          *application.UserService
	Follows      *application.FollowService
	Logger       *logrus.Logger
	Cookies      *helpers.Manager
	Paging       Paging
	RecipesLimit int
}

func NewUserHandler(svc *application.UserService, follows *application.FollowService, logger *logrus.Logger, cookies *helpers.Manager, paging Paging, recipesLimit int) *UserHandler {
	return &UserHandler{Svc: svc, Follows: follows, Logger: logger, Cookies: cookies, Paging: paging, RecipesLimit: recipesLimit}
}

type registerRequest struct {
	Email     string `json:"email" binding:"required,email,max=254"`
	Username  string `json:"username" binding:"required,max=150,username"`
	FirstName string `json:"first_name" binding:"required,notblank,max=150"`
	LastName  string `json:"last_name" binding:"required,notblank,max=150"`
	Password  string `json:"password" binding:"required,pwd"`
}

type profileRequest struct {
	Email     *string `json:"email" binding:"omitempty,email,max=254"`
	Username  *string `json:"username" binding:"omitempty,max=150,username"`
	FirstName *string `json:"first_name" binding:"omitempty,notblank,max=150"`
	LastName  *string `json:"last_name" binding:"omitempty,notblank,max=150"`
}

type setPasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,pwd"`
}

// Register POST /api/users
func (h *UserHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	u, err := h.Svc.Register(c.Request.Context(), application.RegisterInput{
		Email:     req.Email,
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	})
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, toUser(*u, false), "user registered", nil)
}

// List GET /api/users
func (h *UserHandler) List(c *gin.Context) {
	limit, offset := h.Paging.window(c)
	views, count, err := h.Svc.ListUsers(c.Request.Context(), viewer(c), limit, offset)
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, response.Page[userDTO]{Count: count, Results: toUsers(views)}, "users", nil)
}

// Get GET /api/users/:id
func (h *UserHandler) Get(c *gin.Context) {
	v, err := h.Svc.GetUser(c.Request.Context(), viewer(c), c.Param("id"))
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toUser(v.User, v.IsSubscribed), "user", nil)
}

// Me GET /api/users/me
func (h *UserHandler) Me(c *gin.Context) {
	u, err := h.Svc.GetProfile(c.Request.Context(), viewer(c))
	if err != nil {
		fail(c, h.Logger, application.ErrUnauthenticated)
		return
	}
	response.Success(c, http.StatusOK, toUser(*u, false), "profile", nil)
}

// UpdateMe PATCH /api/users/me
func (h *UserHandler) UpdateMe(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	u, err := h.Svc.UpdateProfile(c.Request.Context(), viewer(c), application.ProfileInput{
		Email:     req.Email,
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toUser(*u, false), "profile updated", nil)
}

// SetPassword POST /api/users/set_password. The session ends, so the cookies are cleared too.
func (h *UserHandler) SetPassword(c *gin.Context) {
	var req setPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.Svc.SetPassword(c.Request.Context(), viewer(c), req.CurrentPassword, req.NewPassword); err != nil {
		fail(c, h.Logger, err)
		return
	}
	if h.Cookies != nil {
		h.Cookies.Clear(c)
	}
	response.NoContent(c)
}

// Search GET /api/users/search?q=&size=
func (h *UserHandler) Search(c *gin.Context) {
	size, _ := strconv.Atoi(c.Query("size"))
	views, err := h.Svc.SearchUsers(c.Request.Context(), viewer(c), c.Query("q"), size)
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toUsers(views), "users", nil)
}

// Subscriptions GET /api/users/subscriptions
func (h *UserHandler) Subscriptions(c *gin.Context) {
	n, ok := recipesLimit(c, h.RecipesLimit)
	if !ok {
		invalidParam(c, "recipes_limit", "must be a non-negative integer")
		return
	}
	limit, offset := h.Paging.window(c)
	subs, count, err := h.Follows.Subscriptions(c.Request.Context(), viewer(c), limit, offset, n)
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	results := make([]subscriptionDTO, 0, len(subs))
	for _, s := range subs {
		results = append(results, toSubscription(s))
	}
	response.Success(c, http.StatusOK, response.Page[subscriptionDTO]{Count: count, Results: results}, "subscriptions", nil)
}

// Subscribe POST /api/users/:id/subscribe
func (h *UserHandler) Subscribe(c *gin.Context) {
	n, ok := recipesLimit(c, h.RecipesLimit)
	if !ok {
		invalidParam(c, "recipes_limit", "must be a non-negative integer")
		return
	}
	sub, err := h.Follows.Subscribe(c.Request.Context(), viewer(c), c.Param("id"), n)
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, toSubscription(*sub), "subscribed", nil)
}

// Unsubscribe DELETE /api/users/:id/subscribe
func (h *UserHandler) Unsubscribe(c *gin.Context) {
	if err := h.Follows.Unsubscribe(c.Request.Context(), viewer(c), c.Param("id")); err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.NoContent(c)
}
