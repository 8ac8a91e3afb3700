package handler

import (
	"context"
	"net/http"
	"time"

	"library/shared/pkg/rpc"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

type BookHandler struct {
	client       rpc.BookServiceClient
	statsBatcher *ReqBatcher[rpc.Response]
	infoBatcher  *ReqBatcher[rpc.Response]
}

// NewBookHandlerWithBatching coalesces concurrent author report requests
// arriving within batchWindow. A zero window calls through directly.
func NewBookHandlerWithBatching(client rpc.BookServiceClient, batchWindow time.Duration) *BookHandler {
	h := &BookHandler{client: client}
	h.statsBatcher = NewReqBatcher(func(ctx context.Context) (*rpc.Response, error) {
		return h.call(ctx, client.GetAuthorStats, map[string]interface{}{})
	}, batchWindow)
	h.infoBatcher = NewReqBatcher(func(ctx context.Context) (*rpc.Response, error) {
		return h.call(ctx, client.GetAuthorInfo, map[string]interface{}{})
	}, batchWindow)
	return h
}

type bookCall func(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)

func (h *BookHandler) call(ctx context.Context, method bookCall, request interface{}) (*rpc.Response, error) {
	in, err := rpc.Encode(request)
	if err != nil {
		return nil, err
	}
	out, err := method(ctx, in)
	if err != nil {
		return nil, err
	}
	return rpc.DecodeResponse(out)
}

func (h *BookHandler) GetBook(c *gin.Context) {
	params := ParseQueryParams(c)

	var (
		response *rpc.Response
		err      error
	)
	if params.AuthorId != "" {
		response, err = h.call(c.Request.Context(), h.client.GetBooksByAuthor, map[string]interface{}{
			"authorId": params.AuthorId,
		})
	} else {
		response, err = h.call(c.Request.Context(), h.client.GetBook, map[string]interface{}{
			"page":    params.Page,
			"perPage": params.PerPage,
		})
	}
	if err != nil {
		abortWithError(c, err)
		return
	}

	writeResponse(c, response, http.StatusInternalServerError)
}

func (h *BookHandler) SearchBook(c *gin.Context) {
	query := c.Query("query")
	if query == "" {
		c.JSON(http.StatusNotFound, BuildHttpResponse(false, http.StatusNotFound, "Missing search terms", nil))
		return
	}

	response, err := h.call(c.Request.Context(), h.client.SearchBook, map[string]interface{}{"query": query})
	if err != nil {
		abortWithError(c, err)
		return
	}

	writeResponse(c, response, http.StatusInternalServerError)
}

func (h *BookHandler) GetAuthorStats(c *gin.Context) {
	response, err := h.statsBatcher.GetBatch(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}

	writeResponse(c, response, http.StatusInternalServerError)
}

func (h *BookHandler) GetAuthorInfo(c *gin.Context) {
	response, err := h.infoBatcher.GetBatch(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}

	writeResponse(c, response, http.StatusInternalServerError)
}

func (h *BookHandler) GetBookById(c *gin.Context) {
	id := c.Param("id")

	response, err := h.call(c.Request.Context(), h.client.FindBookById, map[string]interface{}{"id": id})
	if err != nil {
		abortWithError(c, err)
		return
	}

	writeResponse(c, response, http.StatusNotFound)
}

func (h *BookHandler) CreateBook(c *gin.Context) {
	var book map[string]interface{}
	if err := c.ShouldBindJSON(&book); err != nil && c.Request.ContentLength != 0 {
		log.WithField("err", err).Warn("Error binding json")
		c.JSON(http.StatusBadRequest, BuildHttpResponse(false, http.StatusBadRequest, "Invalid request body", nil))
		return
	}
	if len(book) == 0 {
		c.JSON(http.StatusBadRequest, BuildHttpResponse(false, http.StatusBadRequest, "book is required", nil))
		return
	}

	response, err := h.call(c.Request.Context(), h.client.AddBook, map[string]interface{}{"book": book})
	if err != nil {
		abortWithError(c, err)
		return
	}

	writeResponse(c, response, http.StatusBadRequest)
}

func (h *BookHandler) UpdateBook(c *gin.Context) {
	id := c.Param("id")

	var book map[string]interface{}
	if err := c.ShouldBindJSON(&book); err != nil && c.Request.ContentLength != 0 {
		log.WithField("err", err).Warn("Error binding json")
		c.JSON(http.StatusBadRequest, BuildHttpResponse(false, http.StatusBadRequest, "Invalid request body", nil))
		return
	}
	if len(book) == 0 {
		c.JSON(http.StatusBadRequest, BuildHttpResponse(false, http.StatusBadRequest, "book is required", nil))
		return
	}

	response, err := h.call(c.Request.Context(), h.client.UpdateBook, map[string]interface{}{
		"id":      id,
		"payload": book,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	writeResponse(c, response, http.StatusBadRequest)
}

func (h *BookHandler) DeleteBook(c *gin.Context) {
	id := c.Param("id")

	response, err := h.call(c.Request.Context(), h.client.DeleteBook, map[string]interface{}{"id": id})
	if err != nil {
		abortWithError(c, err)
		return
	}

	writeResponse(c, response, http.StatusBadRequest)
}
