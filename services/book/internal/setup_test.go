package internal

import (
	"context"
	"net"
	"testing"
	"time"

	"library/services/book/config"
	"library/shared/pkg/model"
	"library/shared/pkg/rpc"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestOpenStore_UnknownKind(t *testing.T) {
	_, _, err := OpenStore(context.Background(), "sqlite")
	assert.EqualError(t, err, `unknown book store "sqlite"`)
}

func startBookService(t *testing.T) (rpc.BookServiceClient, *miniredis.Miniredis) {
	t.Helper()

	store, closeStore, err := OpenStore(context.Background(), config.StoreMemory)
	require.NoError(t, err)
	t.Cleanup(closeStore)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	lis := bufconn.Listen(1024 * 1024)
	server := grpc.NewServer(grpc.ChainUnaryInterceptor(LoggingInterceptor))
	rpc.RegisterBookServiceServer(server, NewBookService(NewBookRepository(store), rdb, time.Minute))
	go server.Serve(lis)
	t.Cleanup(server.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return rpc.NewBookServiceClient(conn), mr
}

func call(t *testing.T, method func(context.Context, *structpb.Struct, ...grpc.CallOption) (*structpb.Struct, error), body map[string]interface{}) *rpc.Response {
	t.Helper()
	in, err := rpc.Encode(body)
	require.NoError(t, err)
	out, err := method(context.Background(), in)
	require.NoError(t, err)
	resp, err := rpc.DecodeResponse(out)
	require.NoError(t, err)
	return resp
}

func TestBookService_EndToEnd(t *testing.T) {
	client, mr := startBookService(t)
	authorId := "64b000000000000000000001"

	for _, book := range []map[string]interface{}{
		{"title": "The Handmaid's Tale", "genre": "Dystopian", "ISBN": "123", "authorId": authorId, "blurb": "Scary potential future", "publicationYear": 1985, "pageCount": 311},
		{"title": "Alias Grace", "genre": "Historical Fiction", "ISBN": "456", "authorId": authorId, "blurb": "Something about murder", "publicationYear": 1996, "pageCount": 470},
	} {
		resp := call(t, client.AddBook, map[string]interface{}{"book": book})
		require.True(t, resp.Success)
	}

	var stats []model.AuthorStat
	require.NoError(t, call(t, client.GetAuthorStats, map[string]interface{}{}).DecodeData(&stats))
	require.Len(t, stats, 1)
	assert.Equal(t, authorId, stats[0].AuthorId.Hex())
	assert.Equal(t, 390.5, stats[0].AveragePageCount)
	assert.True(t, mr.Exists("books:author-stats"))

	var found []model.Book
	require.NoError(t, call(t, client.SearchBook, map[string]interface{}{"query": "Scary"}).DecodeData(&found))
	require.Len(t, found, 1)
	assert.Equal(t, "The Handmaid's Tale", found[0].Title)

	// A write drops the cached report
	resp := call(t, client.DeleteBook, map[string]interface{}{"id": found[0].Id.Hex()})
	assert.True(t, resp.Success)
	assert.False(t, mr.Exists("books:author-stats"))

	require.NoError(t, call(t, client.GetAuthorStats, map[string]interface{}{}).DecodeData(&stats))
	require.Len(t, stats, 1)
	assert.Equal(t, 470.0, stats[0].AveragePageCount)
	assert.Equal(t, []string{"Alias Grace"}, stats[0].Titles)

	resp = call(t, client.FindBookById, map[string]interface{}{"id": "id1"})
	assert.False(t, resp.Success)
	assert.Equal(t, "Book not found", resp.Message)
}

func TestBookService_RejectsIncompleteBook(t *testing.T) {
	client, _ := startBookService(t)

	in, err := rpc.Encode(map[string]interface{}{"book": map[string]interface{}{"title": "No ISBN"}})
	require.NoError(t, err)

	_, err = client.AddBook(context.Background(), in)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	assert.Contains(t, status.Convert(err).Message(), "books validation failed")
}
