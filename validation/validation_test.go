package validation

import (
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/meghashyamc/docdisco/logger"
	"github.com/stretchr/testify/require"
)

func newTestLogger() logger.Logger {
	opts := &slog.HandlerOptions{
		Level:     slog.LevelDebug,
		AddSource: true,
	}
	handler := slog.NewJSONHandler(os.Stderr, opts)
	return slog.New(handler)
}

type queryRequest struct {
	Query string `json:"query" validate:"required,valid_query,max=1000"`
	Limit int    `json:"limit" validate:"min=0,max=100"`
}

type refreshRequest struct {
	Mode string `json:"mode" validate:"valid_refresh_mode"`
}

type statusRequest struct {
	RequestID string `json:"request_id" validate:"valid_request_id"`
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name        string
		input       any
		expectedErr string
	}{
		{name: "ValidQuery", input: queryRequest{Query: "budget"}},
		{name: "MissingQuery", input: queryRequest{}, expectedErr: "missing required field 'query'"},
		{name: "BlankQuery", input: queryRequest{Query: "   "}, expectedErr: "invalid query"},
		{name: "QueryTooLong", input: queryRequest{Query: strings.Repeat("a", 1001)}, expectedErr: "value or length of field 'query' is not in the expected range"},
		{name: "LimitTooLarge", input: queryRequest{Query: "a", Limit: 101}, expectedErr: "value or length of field 'limit' is not in the expected range"},
		{name: "DefaultRefreshMode", input: refreshRequest{}},
		{name: "KnownRefreshMode", input: refreshRequest{Mode: "interesting"}},
		{name: "UnknownRefreshMode", input: refreshRequest{Mode: "everything"}, expectedErr: "invalid refresh mode"},
		{name: "ReloadRefreshMode", input: refreshRequest{Mode: "reload"}},
		{name: "AllRefreshMode", input: refreshRequest{Mode: "all"}},
		{name: "ValidRequestID", input: statusRequest{RequestID: uuid.NewString()}},
		{name: "InvalidRequestID", input: statusRequest{RequestID: "abc"}, expectedErr: "invalid request id"},
	}

	validator, err := New(newTestLogger())
	require.NoError(t, err)

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert := require.New(t)
			err := validator.Validate(testCase.input)
			if testCase.expectedErr == "" {
				assert.NoError(err)
				return
			}
			assert.EqualError(err, testCase.expectedErr)
		})
	}
}
