package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/docdisco/api/handlers"
	"github.com/meghashyamc/docdisco/logger"
)

func setupRoutes(router *gin.Engine, logger logger.Logger, deps *Dependencies) {
	router.GET("/health", health())

	handlers.SetupSearch(router, logger, deps.Engine, deps.Validator)
	handlers.SetupDiscovery(router, logger, deps.Engine)
	handlers.SetupRefresh(router, logger, deps.Refresher, deps.Validator)
	handlers.SetupDocuments(router, logger, deps.Store, deps.Refresher)
}

func health() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	}
}

func newRouter() *gin.Engine {
	router := gin.Default()
	router.UseRawPath = true
	router.Use(_CORSMiddleware())
	router.Use(gin.Recovery())

	return router
}
