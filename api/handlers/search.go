package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/docdisco/logger"
	"github.com/meghashyamc/docdisco/services/search"
	"github.com/meghashyamc/docdisco/validation"
)

const defaultResultLimit = 20

const (
	eventResponse = "response"
	eventError    = "error"
)

type SearchRequest struct {
	Query    string `form:"query" json:"query" validate:"required,valid_query,min=1,max=1000"`
	Limit    int    `form:"limit" json:"limit" validate:"min=0,max=100"`
	Delegate *bool  `form:"delegate" json:"delegate"`
}

func (r *SearchRequest) setDefaults() {
	if r.Limit == 0 {
		r.Limit = defaultResultLimit
	}
}

func (r *SearchRequest) useDelegate() bool {
	return r.Delegate == nil || *r.Delegate
}

type searchEvent struct {
	response *search.SearchResponse
	err      error
}

func SetupSearch(router *gin.Engine, logger logger.Logger, engine *search.Engine, validator *validation.Validator) {
	router.GET("/search", handleSearch(engine, logger, validator))
}

// handleSearch streams each response of a query as a server-sent event. The
// stream ends after the finished response, an error, or when the client goes
// away, in which case the delegate leg is cancelled.
func handleSearch(engine *search.Engine, logger logger.Logger, validator *validation.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		request := SearchRequest{}
		if err := c.ShouldBindQuery(&request); err != nil {
			logger.Warn("could not extract expected params from search request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusUnprocessableEntity, []string{"failed to extract request query parameters"})
			return
		}
		request.setDefaults()

		if err := validator.Validate(request); err != nil {
			logger.Warn("could not validate search request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusNotAcceptable, []string{err.Error()})
			return
		}

		ctx := c.Request.Context()
		// room for the local and the merged response, or a single error
		events := make(chan searchEvent, 2)
		cancel := engine.QuerySearch(ctx, request.Query, request.Limit, request.useDelegate(), func(response *search.SearchResponse, err error) {
			events <- searchEvent{response: response, err: err}
		})

		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.Header("X-Accel-Buffering", "no")

		for {
			select {
			case event := <-events:
				if event.err != nil {
					logger.Error("search failed", "query", request.Query, "err", event.err.Error())
					c.SSEvent(eventError, response{Errors: []string{event.err.Error()}})
					c.Writer.Flush()
					return
				}
				c.SSEvent(eventResponse, response{Data: event.response})
				c.Writer.Flush()
				if event.response.IsFinished {
					return
				}
			case <-ctx.Done():
				logger.Debug("search client went away", "query", request.Query)
				cancel()
				return
			}
		}
	}
}
