package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"library/api-gateway/internal/middleware"
	"library/shared/pkg/model"
	"library/shared/pkg/rpc"

	"github.com/gin-gonic/gin"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

type mockBookClient struct {
	mock.Mock

	mu           sync.Mutex
	forwardedIds map[string][]string
}

func (m *mockBookClient) requestIds(method string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.forwardedIds[method]
}

func (m *mockBookClient) handle(ctx context.Context, method string, in *structpb.Struct) (*structpb.Struct, error) {
	if md, ok := metadata.FromOutgoingContext(ctx); ok {
		m.mu.Lock()
		if m.forwardedIds == nil {
			m.forwardedIds = map[string][]string{}
		}
		m.forwardedIds[method] = append(m.forwardedIds[method], md.Get(middleware.RequestIDMetadataKey)...)
		m.mu.Unlock()
	}
	args := m.MethodCalled(method, in.AsMap())
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*structpb.Struct), args.Error(1)
}

func (m *mockBookClient) GetBook(ctx context.Context, in *structpb.Struct, _ ...grpc.CallOption) (*structpb.Struct, error) {
	return m.handle(ctx, "GetBook", in)
}

func (m *mockBookClient) GetBooksByAuthor(ctx context.Context, in *structpb.Struct, _ ...grpc.CallOption) (*structpb.Struct, error) {
	return m.handle(ctx, "GetBooksByAuthor", in)
}

func (m *mockBookClient) SearchBook(ctx context.Context, in *structpb.Struct, _ ...grpc.CallOption) (*structpb.Struct, error) {
	return m.handle(ctx, "SearchBook", in)
}

func (m *mockBookClient) FindBookById(ctx context.Context, in *structpb.Struct, _ ...grpc.CallOption) (*structpb.Struct, error) {
	return m.handle(ctx, "FindBookById", in)
}

func (m *mockBookClient) AddBook(ctx context.Context, in *structpb.Struct, _ ...grpc.CallOption) (*structpb.Struct, error) {
	return m.handle(ctx, "AddBook", in)
}

func (m *mockBookClient) UpdateBook(ctx context.Context, in *structpb.Struct, _ ...grpc.CallOption) (*structpb.Struct, error) {
	return m.handle(ctx, "UpdateBook", in)
}

func (m *mockBookClient) DeleteBook(ctx context.Context, in *structpb.Struct, _ ...grpc.CallOption) (*structpb.Struct, error) {
	return m.handle(ctx, "DeleteBook", in)
}

func (m *mockBookClient) GetAuthorStats(ctx context.Context, in *structpb.Struct, _ ...grpc.CallOption) (*structpb.Struct, error) {
	return m.handle(ctx, "GetAuthorStats", in)
}

func (m *mockBookClient) GetAuthorInfo(ctx context.Context, in *structpb.Struct, _ ...grpc.CallOption) (*structpb.Struct, error) {
	return m.handle(ctx, "GetAuthorInfo", in)
}

func init() {
	gin.SetMode(gin.TestMode)
}

func envelope(t *testing.T, success bool, message string, data interface{}) *structpb.Struct {
	t.Helper()
	out, err := rpc.NewResponse(success, message, data)
	require.NoError(t, err)
	return out
}

func serve(t *testing.T, client *mockBookClient, method, target, body string) (*httptest.ResponseRecorder, model.HttpResponse) {
	t.Helper()
	router := SetupRoutes(client, BatchingConfig{})

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp model.HttpResponse
	require.NoError(t, jsoniter.Unmarshal(w.Body.Bytes(), &resp))
	return w, resp
}

func TestGetBooks_DefaultPaging(t *testing.T) {
	client := &mockBookClient{}
	client.On("GetBook", map[string]interface{}{"page": float64(0), "perPage": float64(10)}).
		Return(envelope(t, true, "Books retrieved successfully", []interface{}{}), nil)

	w, resp := serve(t, client, http.MethodGet, "/books", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
	client.AssertExpectations(t)
}

func TestGetBooks_Paging(t *testing.T) {
	client := &mockBookClient{}
	client.On("GetBook", map[string]interface{}{"page": float64(2), "perPage": float64(5)}).
		Return(envelope(t, true, "Books retrieved successfully", []interface{}{}), nil)

	w, _ := serve(t, client, http.MethodGet, "/books?page=2&perPage=5", "")

	assert.Equal(t, http.StatusOK, w.Code)
	client.AssertExpectations(t)
}

func TestGetBooks_ByAuthor(t *testing.T) {
	client := &mockBookClient{}
	client.On("GetBooksByAuthor", map[string]interface{}{"authorId": "a1"}).
		Return(envelope(t, true, "Books retrieved successfully", []interface{}{map[string]interface{}{"title": "Alias Grace"}}), nil)

	w, resp := serve(t, client, http.MethodGet, "/books?authorId=a1", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []interface{}{map[string]interface{}{"title": "Alias Grace"}}, resp.Data)
}

func TestGetBooks_ServiceDown(t *testing.T) {
	client := &mockBookClient{}
	client.On("GetBook", mock.Anything).Return(nil, status.Error(codes.Internal, "db error"))

	w, resp := serve(t, client, http.MethodGet, "/books", "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.False(t, resp.Success)
	assert.Equal(t, "db error", resp.Message)
}

func TestSearch_MissingQuery(t *testing.T) {
	client := &mockBookClient{}

	w, resp := serve(t, client, http.MethodGet, "/books/search", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Missing search terms", resp.Message)
	client.AssertNotCalled(t, "SearchBook", mock.Anything)
}

func TestSearch(t *testing.T) {
	client := &mockBookClient{}
	client.On("SearchBook", map[string]interface{}{"query": "Scary"}).
		Return(envelope(t, true, "Books retrieved successfully", []interface{}{}), nil)

	w, _ := serve(t, client, http.MethodGet, "/books/search?query=Scary", "")

	assert.Equal(t, http.StatusOK, w.Code)
	client.AssertExpectations(t)
}

func TestAuthorReports(t *testing.T) {
	client := &mockBookClient{}
	client.On("GetAuthorStats", map[string]interface{}{}).
		Return(envelope(t, true, "Author stats retrieved successfully", []interface{}{}), nil)
	client.On("GetAuthorInfo", map[string]interface{}{}).
		Return(envelope(t, true, "Author info retrieved successfully", []interface{}{}), nil)

	w, resp := serve(t, client, http.MethodGet, "/books/authors/stats", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Author stats retrieved successfully", resp.Message)

	w, resp = serve(t, client, http.MethodGet, "/books/authors/info", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Author info retrieved successfully", resp.Message)
}

func TestGetBookById_NotFound(t *testing.T) {
	client := &mockBookClient{}
	client.On("FindBookById", map[string]interface{}{"id": "id1"}).
		Return(envelope(t, false, "Book not found", nil), nil)

	w, resp := serve(t, client, http.MethodGet, "/books/id1", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, resp.Success)
	assert.Equal(t, "Book not found", resp.Message)
}

func TestCreateBook_EmptyBody(t *testing.T) {
	for _, body := range []string{"", "{}"} {
		client := &mockBookClient{}

		w, resp := serve(t, client, http.MethodPost, "/books", body)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "book is required", resp.Message)
		client.AssertNotCalled(t, "AddBook", mock.Anything)
	}
}

func TestCreateBook_Invalid(t *testing.T) {
	client := &mockBookClient{}
	client.On("AddBook", mock.Anything).
		Return(nil, status.Error(codes.InvalidArgument, "books validation failed: title is required"))

	w, resp := serve(t, client, http.MethodPost, "/books", `{"ISBN":"111"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, resp.Message, "validation failed")
}

func TestCreateBook(t *testing.T) {
	client := &mockBookClient{}
	book := map[string]interface{}{"title": "New Book", "ISBN": "111"}
	client.On("AddBook", map[string]interface{}{"book": book}).
		Return(envelope(t, true, "Book added!", map[string]interface{}{"_id": "6500000000000000000000aa", "title": "New Book"}), nil)

	w, resp := serve(t, client, http.MethodPost, "/books", `{"title":"New Book","ISBN":"111"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Book added!", resp.Message)
	assert.Equal(t, "6500000000000000000000aa", resp.Data.(map[string]interface{})["_id"])
}

func TestUpdateBook_EmptyBody(t *testing.T) {
	client := &mockBookClient{}

	w, _ := serve(t, client, http.MethodPut, "/books/6500000000000000000000aa", "{}")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	client.AssertNotCalled(t, "UpdateBook", mock.Anything)
}

func TestUpdateBook_BadId(t *testing.T) {
	client := &mockBookClient{}
	client.On("UpdateBook", map[string]interface{}{
		"id":      "fake",
		"payload": map[string]interface{}{"title": "x"},
	}).Return(envelope(t, false, "Invalid book id", nil), nil)

	w, resp := serve(t, client, http.MethodPut, "/books/fake", `{"title":"x"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid book id", resp.Message)
}

func TestUpdateBook(t *testing.T) {
	client := &mockBookClient{}
	client.On("UpdateBook", mock.Anything).Return(envelope(t, true, "Book updated!", nil), nil)

	w, resp := serve(t, client, http.MethodPut, "/books/6500000000000000000000aa", `{"blurb":"New Blurb"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)
}

func TestDeleteBook(t *testing.T) {
	client := &mockBookClient{}
	client.On("DeleteBook", map[string]interface{}{"id": "fake"}).Return(envelope(t, false, "Invalid book id", nil), nil)
	client.On("DeleteBook", map[string]interface{}{"id": "6500000000000000000000aa"}).Return(envelope(t, true, "Book deleted!", nil), nil)

	w, _ := serve(t, client, http.MethodDelete, "/books/fake", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, resp := serve(t, client, http.MethodDelete, "/books/6500000000000000000000aa", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Book deleted!", resp.Message)
}

func TestRequestIdIsReused(t *testing.T) {
	client := &mockBookClient{}
	client.On("GetAuthorStats", mock.Anything).Return(envelope(t, true, "ok", []interface{}{}), nil)
	router := SetupRoutes(client, BatchingConfig{})

	req := httptest.NewRequest(http.MethodGet, "/books/authors/stats", nil)
	req.Header.Set("X-Request-Id", "req-42")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "req-42", w.Header().Get("X-Request-Id"))
}

func TestRequestIdForwardedOnBatchedReports(t *testing.T) {
	client := &mockBookClient{}
	client.On("GetAuthorStats", mock.Anything).Return(envelope(t, true, "ok", []interface{}{}), nil)
	client.On("FindBookById", mock.Anything).Return(envelope(t, true, "Book found", nil), nil)
	router := SetupRoutes(client, DefaultBatchingConfig())

	for _, target := range []string{"/books/authors/stats", "/books/6500000000000000000000aa"} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		req.Header.Set("X-Request-Id", "req-42")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
	}

	assert.Equal(t, []string{"req-42"}, client.requestIds("GetAuthorStats"))
	assert.Equal(t, []string{"req-42"}, client.requestIds("FindBookById"))
}
