package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/docdisco/logger"
	"github.com/meghashyamc/docdisco/services/search"
)

func SetupDiscovery(router *gin.Engine, logger logger.Logger, engine *search.Engine) {
	router.GET("/discovery", handleDiscovery(engine, logger))
}

func handleDiscovery(engine *search.Engine, logger logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		discovery, err := engine.QueryDiscovery(c.Request.Context())
		if err != nil {
			logger.Error("discovery failed", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusInternalServerError, []string{err.Error()})
			return
		}

		writeResponse(c, discovery, http.StatusOK, nil)
	}
}
