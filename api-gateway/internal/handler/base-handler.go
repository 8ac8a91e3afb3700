package handler

import (
	"context"
	"sync"
	"time"

	"google.golang.org/grpc/metadata"
)

// ReqBatcher coalesces concurrent calls arriving within batchWindow into a
// single backend call whose result is shared by every caller.
type ReqBatcher[V any] struct {
	call        func(ctx context.Context) (*V, error)
	batchWindow time.Duration
	mu          sync.Mutex
	pending     []*BatchRequest[V]
	timer       *time.Timer
}

type BatchRequest[V any] struct {
	ctx  context.Context
	resp chan *V
	err  chan error
}

func NewReqBatcher[V any](call func(ctx context.Context) (*V, error), batchWindow time.Duration) *ReqBatcher[V] {
	return &ReqBatcher[V]{
		call:        call,
		batchWindow: batchWindow,
		pending:     []*BatchRequest[V]{},
	}
}

func (b *ReqBatcher[V]) GetBatch(ctx context.Context) (*V, error) {
	if b.batchWindow <= 0 {
		return b.call(ctx)
	}

	req := &BatchRequest[V]{
		ctx:  ctx,
		resp: make(chan *V, 1),
		err:  make(chan error, 1),
	}

	b.mu.Lock()
	b.pending = append(b.pending, req)
	if b.timer == nil {
		b.timer = time.AfterFunc(b.batchWindow, b.flush)
	}
	b.mu.Unlock()

	select {
	case r := <-req.resp:
		return r, nil
	case e := <-req.err:
		return nil, e
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (b *ReqBatcher[V]) flush() {
	b.mu.Lock()
	pending := b.pending
	b.pending = nil
	b.timer = nil
	b.mu.Unlock()

	if len(pending) == 0 {
		return
	}

	// Make a single backend call for all pending requests
	resp, err := b.call(batchContext(pending))
	for _, req := range pending {
		if err != nil {
			req.err <- err
		} else {
			req.resp <- resp
		}
	}
}

// batchContext carries the outgoing metadata of every pending caller, so
// each request id reaches the backend. Caller cancellation is not inherited.
func batchContext[V any](pending []*BatchRequest[V]) context.Context {
	var mds []metadata.MD
	for _, req := range pending {
		if md, ok := metadata.FromOutgoingContext(req.ctx); ok {
			mds = append(mds, md)
		}
	}
	if len(mds) == 0 {
		return context.Background()
	}
	return metadata.NewOutgoingContext(context.Background(), metadata.Join(mds...))
}
