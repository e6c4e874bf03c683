package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/meghashyamc/docdisco/db/docstore"
	"github.com/meghashyamc/docdisco/logger"
	"github.com/meghashyamc/docdisco/services/index"
	"github.com/meghashyamc/docdisco/validation"
)

type RefreshRequest struct {
	Mode string `json:"mode" validate:"valid_refresh_mode"`
}

type RefreshResponse struct {
	RequestID string `json:"request_id"`
}

type RefreshStatusRequest struct {
	RequestID string `uri:"request_id" json:"request_id" validate:"valid_request_id"`
}

type RefreshStatusResponse struct {
	RequestID string `json:"request_id"`
	Status    int    `json:"status"`
}

func SetupRefresh(router *gin.Engine, logger logger.Logger, refresher *index.Service, validator *validation.Validator) {
	router.POST("/refresh", handleRefresh(refresher, logger, validator))
	router.GET("/refresh/:request_id", handleGetRefreshStatus(refresher, logger, validator))
}

func handleRefresh(refresher *index.Service, logger logger.Logger, validator *validation.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		request := RefreshRequest{}
		if err := c.ShouldBindJSON(&request); err != nil {
			logger.Warn("could not extract expected params from refresh request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusUnprocessableEntity, []string{"failed to extract request body parameters"})
			return
		}

		if err := validator.Validate(request); err != nil {
			logger.Warn("could not validate refresh request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusNotAcceptable, []string{err.Error()})
			return
		}

		mode := index.Mode(request.Mode)
		if mode == "" {
			mode = index.ModeAll
		}

		requestID := uuid.NewString()
		if err := refresher.Refresh(c.Request.Context(), mode, requestID); err != nil {
			logger.Warn("could not start refresh", "mode", mode, "err", err.Error())
			c.Abort()
			writeResponse(c, nil, refreshErrorStatus(err), []string{err.Error()})
			return
		}

		writeResponse(c, RefreshResponse{RequestID: requestID}, http.StatusAccepted, nil)
	}
}

func refreshErrorStatus(err error) int {
	switch {
	case errors.Is(err, index.ErrRefreshInProgress):
		return http.StatusConflict
	case errors.Is(err, index.ErrNoIntegration):
		return http.StatusServiceUnavailable
	case errors.Is(err, index.ErrUnknownMode):
		return http.StatusNotAcceptable
	default:
		return http.StatusInternalServerError
	}
}

func handleGetRefreshStatus(refresher *index.Service, logger logger.Logger, validator *validation.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		request := RefreshStatusRequest{}
		if err := c.ShouldBindUri(&request); err != nil {
			logger.Warn("could not extract request id from path", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusUnprocessableEntity, []string{"failed to extract request path parameters"})
			return
		}

		if err := validator.Validate(request); err != nil {
			logger.Warn("could not validate refresh status request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusNotAcceptable, []string{err.Error()})
			return
		}

		status, err := refresher.GetStatus(c.Request.Context(), request.RequestID)
		if err != nil {
			statusCode := http.StatusInternalServerError
			if errors.Is(err, docstore.ErrNotFound) {
				statusCode = http.StatusNotFound
			}
			logger.Warn("could not get refresh status", "request_id", request.RequestID, "err", err.Error())
			c.Abort()
			writeResponse(c, nil, statusCode, []string{err.Error()})
			return
		}

		writeResponse(c, RefreshStatusResponse{RequestID: request.RequestID, Status: status}, http.StatusOK, nil)
	}
}
