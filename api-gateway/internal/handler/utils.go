package handler

import (
	"net/http"
	"strconv"

	"library/api-gateway/internal/middleware"
	"library/shared/pkg/model"
	"library/shared/pkg/rpc"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	defaultPage    = 0
	defaultPerPage = 10
)

type QueryParams struct {
	Page     int64
	PerPage  int64
	AuthorId string
}

// ParseQueryParams reads page, perPage and authorId. Malformed or negative
// numbers fall back to the defaults.
func ParseQueryParams(c *gin.Context) QueryParams {
	params := QueryParams{
		Page:     defaultPage,
		PerPage:  defaultPerPage,
		AuthorId: c.Query("authorId"),
	}

	if pageStr := c.Query("page"); pageStr != "" {
		if page, err := strconv.ParseInt(pageStr, 10, 64); err == nil && page >= 0 {
			params.Page = page
		}
	}
	if perPageStr := c.Query("perPage"); perPageStr != "" {
		if perPage, err := strconv.ParseInt(perPageStr, 10, 64); err == nil && perPage >= 0 {
			params.PerPage = perPage
		}
	}

	return params
}

func BuildHttpResponse(success bool, code int, message string, data interface{}) model.HttpResponse {
	if data == nil {
		data = []interface{}{}
	}
	return model.HttpResponse{
		Success: success,
		Code:    code,
		Message: message,
		Data:    data,
	}
}

func ExtractErrorMessage(err error) string {
	st, ok := status.FromError(err)

	if !ok {
		return "Internal Server Error"
	}

	return st.Message()
}

// StatusFromError maps a book service error onto an HTTP status.
func StatusFromError(err error) int {
	switch status.Code(err) {
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.NotFound:
		return http.StatusNotFound
	case codes.Canceled, codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func abortWithError(c *gin.Context, err error) {
	code := StatusFromError(err)
	log.WithFields(log.Fields{
		"path":       c.FullPath(),
		"request_id": middleware.GetRequestID(c),
		"err":        err,
	}).Warn("Book service call failed")
	c.JSON(code, BuildHttpResponse(false, code, ExtractErrorMessage(err), nil))
}

// writeResponse renders a decoded book service envelope. Unsuccessful
// envelopes are answered with failureCode.
func writeResponse(c *gin.Context, resp *rpc.Response, failureCode int) {
	var data interface{}
	if err := resp.DecodeData(&data); err != nil {
		c.JSON(http.StatusInternalServerError, BuildHttpResponse(false, http.StatusInternalServerError, "Malformed book service response", nil))
		return
	}

	code := http.StatusOK
	if !resp.Success {
		code = failureCode
	}
	c.JSON(code, BuildHttpResponse(resp.Success, code, resp.Message, data))
}
