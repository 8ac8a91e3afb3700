package internal

import (
	"context"
	"errors"
	"time"

	interfaces "library/shared/pkg/interface"
	"library/shared/pkg/model"
	"library/shared/pkg/rpc"
	"library/shared/pkg/service"
	"library/shared/pkg/utils"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	authorStatsCacheKey = "books:author-stats"
	authorInfoCacheKey  = "books:author-info"
)

func bookCacheKey(id string) string { return "book:" + id }

type BookServiceServer struct {
	Repository interfaces.BookRepositoryInterface
	Validator  interfaces.ValidatorInterface[model.Book, model.BookUpdateRequest]
	Cache      *redis.Client
	CacheTTL   time.Duration
}

func NewBookService(repository interfaces.BookRepositoryInterface, cache *redis.Client, cacheTTL time.Duration) *BookServiceServer {
	return &BookServiceServer{
		Repository: repository,
		Validator:  service.NewValidationService[model.Book, model.BookUpdateRequest](),
		Cache:      cache,
		CacheTTL:   cacheTTL,
	}
}

type listRequest struct {
	Page    int64 `json:"page"`
	PerPage int64 `json:"perPage"`
}

type authorRequest struct {
	AuthorId string `json:"authorId"`
}

type searchRequest struct {
	Query string `json:"query"`
}

type idRequest struct {
	Id string `json:"id"`
}

type addRequest struct {
	Book model.Book `json:"book"`
}

type updateRequest struct {
	Id      string                 `json:"id"`
	Payload map[string]interface{} `json:"payload"`
}

func decodeRequest(in *structpb.Struct, out interface{}) error {
	if err := rpc.Decode(in, out); err != nil {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	return nil
}

func (s *BookServiceServer) GetBook(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req listRequest
	if err := decodeRequest(in, &req); err != nil {
		return nil, err
	}

	data, err := s.Repository.ListAll(ctx, req.Page, req.PerPage)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return s.buildResponse(true, "Books retrieved successfully", data)
}

func (s *BookServiceServer) GetBooksByAuthor(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req authorRequest
	if err := decodeRequest(in, &req); err != nil {
		return nil, err
	}

	data, err := s.Repository.ListByAuthor(ctx, req.AuthorId)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return s.buildResponse(true, "Books retrieved successfully", data)
}

func (s *BookServiceServer) SearchBook(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req searchRequest
	if err := decodeRequest(in, &req); err != nil {
		return nil, err
	}
	if req.Query == "" {
		return nil, status.Error(codes.InvalidArgument, "Missing search terms")
	}

	data, err := s.Repository.Search(ctx, req.Query)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return s.buildResponse(true, "Books retrieved successfully", data)
}

func (s *BookServiceServer) FindBookById(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req idRequest
	if err := decodeRequest(in, &req); err != nil {
		return nil, err
	}

	if cached, ok := utils.GetCachedData[model.Book](ctx, s.Cache, bookCacheKey(req.Id)); ok {
		return s.buildResponse(true, "Book found", cached)
	}

	data, err := s.Repository.GetById(ctx, req.Id)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	if data == nil {
		return s.buildResponse(false, "Book not found", nil)
	}

	utils.SetCachedData(ctx, s.Cache, bookCacheKey(req.Id), data, s.CacheTTL)
	return s.buildResponse(true, "Book found", data)
}

func (s *BookServiceServer) AddBook(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req addRequest
	if err := decodeRequest(in, &req); err != nil {
		return nil, err
	}

	created, err := s.Repository.Create(ctx, req.Book)
	if err != nil {
		return nil, writeStatus(err)
	}

	s.invalidateReports(ctx)
	return s.buildResponse(true, "Book added!", created)
}

func (s *BookServiceServer) UpdateBook(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req updateRequest
	if err := decodeRequest(in, &req); err != nil {
		return nil, err
	}

	patch, err := s.Validator.ValidateUpdateRequest(req.Payload)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	ok, err := s.Repository.UpdateById(ctx, req.Id, patch)
	if err != nil {
		return nil, writeStatus(err)
	}
	if !ok {
		return s.buildResponse(false, "Invalid book id", nil)
	}

	utils.InvalidateCache(ctx, s.Cache, bookCacheKey(req.Id))
	s.invalidateReports(ctx)
	return s.buildResponse(true, "Book updated!", nil)
}

func (s *BookServiceServer) DeleteBook(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req idRequest
	if err := decodeRequest(in, &req); err != nil {
		return nil, err
	}

	ok, err := s.Repository.DeleteById(ctx, req.Id)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	if !ok {
		return s.buildResponse(false, "Invalid book id", nil)
	}

	utils.InvalidateCache(ctx, s.Cache, bookCacheKey(req.Id))
	s.invalidateReports(ctx)
	return s.buildResponse(true, "Book deleted!", nil)
}

func (s *BookServiceServer) GetAuthorStats(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if cached, ok := utils.GetCachedData[[]model.AuthorStat](ctx, s.Cache, authorStatsCacheKey); ok {
		return s.buildResponse(true, "Author stats retrieved successfully", *cached)
	}

	data, err := s.Repository.AuthorStats(ctx)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}

	utils.SetCachedData(ctx, s.Cache, authorStatsCacheKey, data, s.CacheTTL)
	return s.buildResponse(true, "Author stats retrieved successfully", data)
}

func (s *BookServiceServer) GetAuthorInfo(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if cached, ok := utils.GetCachedData[[]model.AuthorInfo](ctx, s.Cache, authorInfoCacheKey); ok {
		return s.buildResponse(true, "Author info retrieved successfully", *cached)
	}

	data, err := s.Repository.AuthorInfo(ctx)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}

	utils.SetCachedData(ctx, s.Cache, authorInfoCacheKey, data, s.CacheTTL)
	return s.buildResponse(true, "Author info retrieved successfully", data)
}

// invalidateReports drops the cached aggregations after any write.
func (s *BookServiceServer) invalidateReports(ctx context.Context) {
	utils.InvalidateCache(ctx, s.Cache, authorStatsCacheKey, authorInfoCacheKey)
}

func (s *BookServiceServer) buildResponse(success bool, message string, data interface{}) (*structpb.Struct, error) {
	resp, err := rpc.NewResponse(success, message, data)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return resp, nil
}

func writeStatus(err error) error {
	if errors.Is(err, ErrBadData) {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	return status.Error(codes.Internal, err.Error())
}

func LoggingInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)

	entry := log.WithFields(log.Fields{
		"method":   info.FullMethod,
		"code":     status.Code(err).String(),
		"duration": time.Since(start),
	})
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if ids := md.Get("x-request-id"); len(ids) > 0 {
			entry = entry.WithField("request_id", ids[0])
		}
	}
	if err != nil {
		entry.WithField("err", err).Warn("Request failed")
	} else {
		entry.Info("Request served")
	}
	return resp, err
}
