package routes

import (
	"time"

	"library/api-gateway/internal/handler"
	"library/api-gateway/internal/middleware"
	"library/shared/pkg/rpc"

	"github.com/gin-gonic/gin"
)

type BatchingConfig struct {
	// Window for coalescing author report requests. Zero disables batching.
	Window time.Duration
}

func DefaultBatchingConfig() BatchingConfig {
	return BatchingConfig{Window: 20 * time.Millisecond}
}

func SetupRoutes(client rpc.BookServiceClient, batching BatchingConfig) *gin.Engine {
	bookHandler := handler.NewBookHandlerWithBatching(client, batching.Window)

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.Logger())

	// Static paths are registered before /books/:id so they are never read as ids
	router.GET("/books/search", bookHandler.SearchBook)
	router.GET("/books/authors/stats", bookHandler.GetAuthorStats)
	router.GET("/books/authors/info", bookHandler.GetAuthorInfo)

	router.GET("/books", bookHandler.GetBook)
	router.GET("/books/:id", bookHandler.GetBookById)
	router.POST("/books", bookHandler.CreateBook)
	router.PUT("/books/:id", bookHandler.UpdateBook)
	router.DELETE("/books/:id", bookHandler.DeleteBook)

	return router
}
