package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/docdisco/db/docstore"
	"github.com/meghashyamc/docdisco/logger"
	"github.com/meghashyamc/docdisco/models"
	"github.com/meghashyamc/docdisco/services/index"
)

type DocumentReader interface {
	Get(ctx context.Context, id string) (*models.Document, error)
}

func SetupDocuments(router *gin.Engine, logger logger.Logger, store DocumentReader, refresher *index.Service) {
	router.GET("/documents/:id", handleGetDocument(store, logger))
	router.DELETE("/documents", handleClearDocuments(refresher, logger))
}

func handleGetDocument(store DocumentReader, logger logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		doc, err := store.Get(c.Request.Context(), id)
		if err != nil {
			statusCode := http.StatusInternalServerError
			switch {
			case errors.Is(err, docstore.ErrNotFound):
				statusCode = http.StatusNotFound
			case errors.Is(err, docstore.ErrInvalidKey):
				statusCode = http.StatusNotAcceptable
			}
			logger.Warn("could not get document", "id", id, "err", err.Error())
			c.Abort()
			writeResponse(c, nil, statusCode, []string{err.Error()})
			return
		}

		writeResponse(c, doc, http.StatusOK, nil)
	}
}

func handleClearDocuments(refresher *index.Service, logger logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := refresher.ClearAll(c.Request.Context()); err != nil {
			logger.Error("could not clear documents", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusInternalServerError, []string{err.Error()})
			return
		}

		writeResponse(c, nil, http.StatusNoContent, nil)
	}
}
