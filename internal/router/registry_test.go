package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingModule struct{}

func (pingModule) Register(rg *gin.RouterGroup) {
	rg.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
}

func serve(r *Registry, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.Engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestRegistryMountsModulesUnderAPI(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewRegistry(gin.New())
	var hits int
	r.Use(func(c *gin.Context) { hits++ })
	r.Add(pingModule{})
	r.RegisterAll()

	w := serve(r, "/api/ping")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
	assert.Equal(t, 1, hits)

	w = serve(r, "/ping")
	assert.Equal(t, http.StatusNotFound, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
}

func TestHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewRegistry(gin.New())
	r.AddCheck("postgres", func(context.Context) error { return nil })
	r.RegisterAll()
	assert.Equal(t, http.StatusOK, serve(r, "/api/health").Code)

	r = NewRegistry(gin.New())
	r.AddCheck("postgres", func(context.Context) error { return nil })
	r.AddCheck("redis", func(context.Context) error { return errors.New("connection refused") })
	r.RegisterAll()
	w := serve(r, "/api/health")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")
}
