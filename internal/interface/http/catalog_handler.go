package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/foodgram/internal/application"
	"github.com/oksasatya/foodgram/internal/domain/entity"
	"github.com/oksasatya/foodgram/pkg/response"
)

// CatalogHandler serves tags and ingredients. Neither list is paginated.
type CatalogHandler struct {
	Svc    *application.CatalogService
	Logger *logrus.Logger
}

func NewCatalogHandler(svc *application.CatalogService, logger *logrus.Logger) *CatalogHandler {
	return &CatalogHandler{Svc: svc, Logger: logger}
}

type tagRequest struct {
	Name  string `json:"name" binding:"required,notblank,max=200"`
	Color string `json:"color" binding:"required,hexcolor,len=7"`
	Slug  string `json:"slug" binding:"required,max=200,slug"`
}

type ingredientRequest struct {
	Name            string `json:"name" binding:"required,notblank,max=200"`
	MeasurementUnit string `json:"measurement_unit" binding:"required,notblank,max=200"`
}

func (h *CatalogHandler) ListTags(c *gin.Context) {
	tags, err := h.Svc.ListTags(c.Request.Context())
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toTags(tags), "tags", nil)
}

func (h *CatalogHandler) GetTag(c *gin.Context) {
	t, err := h.Svc.GetTag(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toTag(*t), "tag", nil)
}

func (h *CatalogHandler) CreateTag(c *gin.Context) {
	var req tagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	t := &entity.Tag{Name: strings.TrimSpace(req.Name), Color: req.Color, Slug: req.Slug}
	if err := h.Svc.CreateTag(c.Request.Context(), viewer(c), t); err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, toTag(*t), "tag created", nil)
}

func (h *CatalogHandler) DeleteTag(c *gin.Context) {
	if err := h.Svc.DeleteTag(c.Request.Context(), viewer(c), c.Param("id")); err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.NoContent(c)
}

// ListIngredients GET /api/ingredients?name=<prefix>
func (h *CatalogHandler) ListIngredients(c *gin.Context) {
	list, err := h.Svc.ListIngredients(c.Request.Context(), c.Query("name"))
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toIngredients(list), "ingredients", nil)
}

func (h *CatalogHandler) GetIngredient(c *gin.Context) {
	in, err := h.Svc.GetIngredient(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toIngredient(*in), "ingredient", nil)
}

func (h *CatalogHandler) CreateIngredient(c *gin.Context) {
	var req ingredientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	in := &entity.Ingredient{Name: strings.TrimSpace(req.Name), MeasurementUnit: strings.TrimSpace(req.MeasurementUnit)}
	if err := h.Svc.CreateIngredient(c.Request.Context(), viewer(c), in); err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, toIngredient(*in), "ingredient created", nil)
}
