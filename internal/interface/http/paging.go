package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/foodgram/internal/interface/middleware"
)

// Paging holds the page size rules for list endpoints.
type Paging struct {
	Default int
	Max     int
}

// window reads ?page (1-based) and ?limit, falling back to the defaults on missing or bad values.
func (p Paging) window(c *gin.Context) (limit, offset int) {
	limit = p.Default
	if limit <= 0 {
		limit = 6
	}
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 {
		limit = v
	}
	if p.Max > 0 && limit > p.Max {
		limit = p.Max
	}
	page := 1
	if v, err := strconv.Atoi(c.Query("page")); err == nil && v > 0 {
		page = v
	}
	return limit, (page - 1) * limit
}

func viewer(c *gin.Context) string {
	return c.GetString(middleware.CtxUserIDKey)
}

// truthy accepts the query flag spellings "1" and "true".
func truthy(v string) bool {
	b, err := strconv.ParseBool(v)
	return err == nil && b
}

// recipesLimit reads ?recipes_limit; absent means def.
func recipesLimit(c *gin.Context, def int) (int, bool) {
	raw, ok := c.GetQuery("recipes_limit")
	if !ok || raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
