package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const BookServiceName = "book.BookService"

// BookServiceServer is the book service contract. Every method takes and
// returns a google.protobuf.Struct; responses use the Response envelope.
type BookServiceServer interface {
	GetBook(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetBooksByAuthor(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SearchBook(context.Context, *structpb.Struct) (*structpb.Struct, error)
	FindBookById(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AddBook(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateBook(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteBook(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetAuthorStats(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetAuthorInfo(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type bookMethod func(BookServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryMethod(name string, call bookMethod) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(BookServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: "/" + BookServiceName + "/" + name,
			}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(BookServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var BookServiceDesc = grpc.ServiceDesc{
	ServiceName: BookServiceName,
	HandlerType: (*BookServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod("GetBook", BookServiceServer.GetBook),
		unaryMethod("GetBooksByAuthor", BookServiceServer.GetBooksByAuthor),
		unaryMethod("SearchBook", BookServiceServer.SearchBook),
		unaryMethod("FindBookById", BookServiceServer.FindBookById),
		unaryMethod("AddBook", BookServiceServer.AddBook),
		unaryMethod("UpdateBook", BookServiceServer.UpdateBook),
		unaryMethod("DeleteBook", BookServiceServer.DeleteBook),
		unaryMethod("GetAuthorStats", BookServiceServer.GetAuthorStats),
		unaryMethod("GetAuthorInfo", BookServiceServer.GetAuthorInfo),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "book.proto",
}

func RegisterBookServiceServer(s grpc.ServiceRegistrar, srv BookServiceServer) {
	s.RegisterService(&BookServiceDesc, srv)
}

type BookServiceClient interface {
	GetBook(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	GetBooksByAuthor(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	SearchBook(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	FindBookById(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	AddBook(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	UpdateBook(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	DeleteBook(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	GetAuthorStats(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	GetAuthorInfo(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type bookServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewBookServiceClient(cc grpc.ClientConnInterface) BookServiceClient {
	return &bookServiceClient{cc: cc}
}

func (c *bookServiceClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+BookServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *bookServiceClient) GetBook(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "GetBook", in, opts...)
}

func (c *bookServiceClient) GetBooksByAuthor(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "GetBooksByAuthor", in, opts...)
}

func (c *bookServiceClient) SearchBook(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "SearchBook", in, opts...)
}

func (c *bookServiceClient) FindBookById(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "FindBookById", in, opts...)
}

func (c *bookServiceClient) AddBook(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "AddBook", in, opts...)
}

func (c *bookServiceClient) UpdateBook(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "UpdateBook", in, opts...)
}

func (c *bookServiceClient) DeleteBook(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "DeleteBook", in, opts...)
}

func (c *bookServiceClient) GetAuthorStats(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "GetAuthorStats", in, opts...)
}

func (c *bookServiceClient) GetAuthorInfo(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "GetAuthorInfo", in, opts...)
}
