package admission

import (
	"context"
	"net/http"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// UnaryServerInterceptor rejects unary calls while the process is under
// pressure. The handler is not invoked for rejected calls.
func UnaryServerInterceptor(g *Gate) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		_ *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		gr := &grpcRequest{ctx: ctx}

		var (
			resp any
			err  error
		)
		if g.Handle(ctx, gr, func(ctx context.Context) {
			resp, err = handler(ctx, req)
		}) == Reject {
			return nil, gr.err
		}

		return resp, err
	}
}

// StreamServerInterceptor rejects new streams while the process is under
// pressure.
func StreamServerInterceptor(g *Gate) grpc.StreamServerInterceptor {
	return func(
		srv any,
		ss grpc.ServerStream,
		_ *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) error {
		gr := &grpcRequest{ctx: ss.Context(), stream: ss}

		var err error
		if g.Handle(ss.Context(), gr, func(context.Context) {
			err = handler(srv, ss)
		}) == Reject {
			return gr.err
		}

		return err
	}
}

type grpcRequest struct {
	ctx    context.Context
	stream grpc.ServerStream
	err    error
}

func (g *grpcRequest) Respond(_ context.Context, rej Rejection) error {
	g.err = status.Error(grpcCode(rej.StatusCode), rej.Reason)
	if len(rej.Headers) == 0 {
		return nil
	}

	md := metadata.New(rej.Headers)
	if g.stream != nil {
		return g.stream.SetHeader(md)
	}
	return grpc.SetHeader(g.ctx, md)
}

// EndSession is a no-op: returning the status error completes the RPC.
func (g *grpcRequest) EndSession(context.Context) error {
	return nil
}

func grpcCode(statusCode int) codes.Code {
	if statusCode == http.StatusTooManyRequests {
		return codes.ResourceExhausted
	}
	return codes.Unavailable
}
