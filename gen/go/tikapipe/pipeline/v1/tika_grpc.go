package pipelinev1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// TikaClient is the client API for the Tika service.
type TikaClient interface {
	SaveFetcher(ctx context.Context, in *SaveFetcherRequest, opts ...grpc.CallOption) (*SaveFetcherReply, error)
	GetFetcher(ctx context.Context, in *GetFetcherRequest, opts ...grpc.CallOption) (*GetFetcherReply, error)
	DeleteFetcher(ctx context.Context, in *DeleteFetcherRequest, opts ...grpc.CallOption) (*DeleteFetcherReply, error)
	ListFetchers(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*ListFetchersReply, error)
	FetchAndParse(ctx context.Context, in *FetchAndParseRequest, opts ...grpc.CallOption) (*FetchAndParseReply, error)
	FetchAndParseBiDirectionalStreaming(ctx context.Context, opts ...grpc.CallOption) (Tika_FetchAndParseBiDirectionalStreamingClient, error)
}

type tikaClient struct {
	cc grpc.ClientConnInterface
}

// NewTikaClient wraps a connection into a TikaClient.
func NewTikaClient(cc grpc.ClientConnInterface) TikaClient {
	return &tikaClient{cc}
}

func (c *tikaClient) SaveFetcher(ctx context.Context, in *SaveFetcherRequest, opts ...grpc.CallOption) (*SaveFetcherReply, error) {
	out := new(SaveFetcherReply)
	if err := c.cc.Invoke(ctx, "/tikapipe.pipeline.v1.Tika/SaveFetcher", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *tikaClient) GetFetcher(ctx context.Context, in *GetFetcherRequest, opts ...grpc.CallOption) (*GetFetcherReply, error) {
	out := new(GetFetcherReply)
	if err := c.cc.Invoke(ctx, "/tikapipe.pipeline.v1.Tika/GetFetcher", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *tikaClient) DeleteFetcher(ctx context.Context, in *DeleteFetcherRequest, opts ...grpc.CallOption) (*DeleteFetcherReply, error) {
	out := new(DeleteFetcherReply)
	if err := c.cc.Invoke(ctx, "/tikapipe.pipeline.v1.Tika/DeleteFetcher", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *tikaClient) ListFetchers(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*ListFetchersReply, error) {
	out := new(ListFetchersReply)
	if err := c.cc.Invoke(ctx, "/tikapipe.pipeline.v1.Tika/ListFetchers", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *tikaClient) FetchAndParse(ctx context.Context, in *FetchAndParseRequest, opts ...grpc.CallOption) (*FetchAndParseReply, error) {
	out := new(FetchAndParseReply)
	if err := c.cc.Invoke(ctx, "/tikapipe.pipeline.v1.Tika/FetchAndParse", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *tikaClient) FetchAndParseBiDirectionalStreaming(ctx context.Context, opts ...grpc.CallOption) (Tika_FetchAndParseBiDirectionalStreamingClient, error) {
	stream, err := c.cc.NewStream(ctx, &_Tika_serviceDesc.Streams[0], "/tikapipe.pipeline.v1.Tika/FetchAndParseBiDirectionalStreaming", opts...)
	if err != nil {
		return nil, err
	}
	return &tikaFetchAndParseBiDirectionalStreamingClient{stream}, nil
}

// Tika_FetchAndParseBiDirectionalStreamingClient is the client-side view of the bidi stream.
type Tika_FetchAndParseBiDirectionalStreamingClient interface {
	Send(*FetchAndParseRequest) error
	Recv() (*FetchAndParseReply, error)
	grpc.ClientStream
}

type tikaFetchAndParseBiDirectionalStreamingClient struct {
	grpc.ClientStream
}

func (x *tikaFetchAndParseBiDirectionalStreamingClient) Send(m *FetchAndParseRequest) error {
	return x.ClientStream.SendMsg(m)
}

func (x *tikaFetchAndParseBiDirectionalStreamingClient) Recv() (*FetchAndParseReply, error) {
	m := new(FetchAndParseReply)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

// TikaServer is the server API for the Tika service.
type TikaServer interface {
	SaveFetcher(context.Context, *SaveFetcherRequest) (*SaveFetcherReply, error)
	GetFetcher(context.Context, *GetFetcherRequest) (*GetFetcherReply, error)
	DeleteFetcher(context.Context, *DeleteFetcherRequest) (*DeleteFetcherReply, error)
	ListFetchers(context.Context, *Empty) (*ListFetchersReply, error)
	FetchAndParse(context.Context, *FetchAndParseRequest) (*FetchAndParseReply, error)
	FetchAndParseBiDirectionalStreaming(Tika_FetchAndParseBiDirectionalStreamingServer) error
}

// UnimplementedTikaServer can be embedded for forward compatibility.
type UnimplementedTikaServer struct{}

func (UnimplementedTikaServer) SaveFetcher(context.Context, *SaveFetcherRequest) (*SaveFetcherReply, error) {
	return nil, status.Error(codes.Unimplemented, "method SaveFetcher not implemented")
}
func (UnimplementedTikaServer) GetFetcher(context.Context, *GetFetcherRequest) (*GetFetcherReply, error) {
	return nil, status.Error(codes.Unimplemented, "method GetFetcher not implemented")
}
func (UnimplementedTikaServer) DeleteFetcher(context.Context, *DeleteFetcherRequest) (*DeleteFetcherReply, error) {
	return nil, status.Error(codes.Unimplemented, "method DeleteFetcher not implemented")
}
func (UnimplementedTikaServer) ListFetchers(context.Context, *Empty) (*ListFetchersReply, error) {
	return nil, status.Error(codes.Unimplemented, "method ListFetchers not implemented")
}
func (UnimplementedTikaServer) FetchAndParse(context.Context, *FetchAndParseRequest) (*FetchAndParseReply, error) {
	return nil, status.Error(codes.Unimplemented, "method FetchAndParse not implemented")
}
func (UnimplementedTikaServer) FetchAndParseBiDirectionalStreaming(Tika_FetchAndParseBiDirectionalStreamingServer) error {
	return status.Error(codes.Unimplemented, "method FetchAndParseBiDirectionalStreaming not implemented")
}

// RegisterTikaServer registers srv on s.
func RegisterTikaServer(s grpc.ServiceRegistrar, srv TikaServer) {
	s.RegisterService(&_Tika_serviceDesc, srv)
}

func _Tika_SaveFetcher_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(SaveFetcherRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TikaServer).SaveFetcher(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/tikapipe.pipeline.v1.Tika/SaveFetcher"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(TikaServer).SaveFetcher(ctx, req.(*SaveFetcherRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Tika_GetFetcher_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(GetFetcherRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TikaServer).GetFetcher(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/tikapipe.pipeline.v1.Tika/GetFetcher"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(TikaServer).GetFetcher(ctx, req.(*GetFetcherRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Tika_DeleteFetcher_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(DeleteFetcherRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TikaServer).DeleteFetcher(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/tikapipe.pipeline.v1.Tika/DeleteFetcher"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(TikaServer).DeleteFetcher(ctx, req.(*DeleteFetcherRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Tika_ListFetchers_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TikaServer).ListFetchers(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/tikapipe.pipeline.v1.Tika/ListFetchers"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(TikaServer).ListFetchers(ctx, req.(*Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func _Tika_FetchAndParse_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(FetchAndParseRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TikaServer).FetchAndParse(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/tikapipe.pipeline.v1.Tika/FetchAndParse"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(TikaServer).FetchAndParse(ctx, req.(*FetchAndParseRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Tika_FetchAndParseBiDirectionalStreaming_Handler(srv any, stream grpc.ServerStream) error {
	return srv.(TikaServer).FetchAndParseBiDirectionalStreaming(&tikaFetchAndParseBiDirectionalStreamingServer{stream})
}

// Tika_FetchAndParseBiDirectionalStreamingServer is the server-side view of the bidi stream.
type Tika_FetchAndParseBiDirectionalStreamingServer interface {
	Send(*FetchAndParseReply) error
	Recv() (*FetchAndParseRequest, error)
	grpc.ServerStream
}

type tikaFetchAndParseBiDirectionalStreamingServer struct {
	grpc.ServerStream
}

func (x *tikaFetchAndParseBiDirectionalStreamingServer) Send(m *FetchAndParseReply) error {
	return x.ServerStream.SendMsg(m)
}

func (x *tikaFetchAndParseBiDirectionalStreamingServer) Recv() (*FetchAndParseRequest, error) {
	m := new(FetchAndParseRequest)
	if err := x.ServerStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

var _Tika_serviceDesc = grpc.ServiceDesc{
	ServiceName: "tikapipe.pipeline.v1.Tika",
	HandlerType: (*TikaServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "SaveFetcher", Handler: _Tika_SaveFetcher_Handler},
		{MethodName: "GetFetcher", Handler: _Tika_GetFetcher_Handler},
		{MethodName: "DeleteFetcher", Handler: _Tika_DeleteFetcher_Handler},
		{MethodName: "ListFetchers", Handler: _Tika_ListFetchers_Handler},
		{MethodName: "FetchAndParse", Handler: _Tika_FetchAndParse_Handler},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "FetchAndParseBiDirectionalStreaming",
			Handler:       _Tika_FetchAndParseBiDirectionalStreaming_Handler,
			ServerStreams: true,
			ClientStreams: true,
		},
	},
	Metadata: "tikapipe/pipeline/v1/tika.proto",
}
