package v1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// Full method names of AlertService.
const (
	AlertService_Respond_FullMethodName   = "/accirescue.v1.AlertService/Respond"
	AlertService_GetState_FullMethodName  = "/accirescue.v1.AlertService/GetState"
	AlertService_OpenAlert_FullMethodName = "/accirescue.v1.AlertService/OpenAlert"
	AlertService_Watch_FullMethodName     = "/accirescue.v1.AlertService/Watch"
)

// WatchObserverHeader carries the observer ID in the Watch response header.
// The header is sent once the stream is registered for events.
const WatchObserverHeader = "x-observer-id"

// AlertServiceClient is the client API for AlertService.
type AlertServiceClient interface {
	Respond(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	GetState(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
	OpenAlert(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Watch(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (grpc.ServerStreamingClient[structpb.Struct], error)
}

type alertServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewAlertServiceClient creates a client bound to the connection.
func NewAlertServiceClient(cc grpc.ClientConnInterface) AlertServiceClient {
	return &alertServiceClient{cc}
}

func (c *alertServiceClient) Respond(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, AlertService_Respond_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

func (c *alertServiceClient) GetState(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, AlertService_GetState_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

func (c *alertServiceClient) OpenAlert(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, AlertService_OpenAlert_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

func (c *alertServiceClient) Watch(
	ctx context.Context,
	in *emptypb.Empty,
	opts ...grpc.CallOption,
) (grpc.ServerStreamingClient[structpb.Struct], error) {
	stream, err := c.cc.NewStream(ctx, &AlertService_ServiceDesc.Streams[0], AlertService_Watch_FullMethodName, opts...)
	if err != nil {
		return nil, err
	}

	x := &grpc.GenericClientStream[emptypb.Empty, structpb.Struct]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}

	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}

	return x, nil
}

// AlertServiceServer is the server API for AlertService.
// Implementations must embed UnimplementedAlertServiceServer.
type AlertServiceServer interface {
	Respond(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetState(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	OpenAlert(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Watch(*emptypb.Empty, grpc.ServerStreamingServer[structpb.Struct]) error
	mustEmbedUnimplementedAlertServiceServer()
}

// UnimplementedAlertServiceServer must be embedded to have forward compatible implementations.
type UnimplementedAlertServiceServer struct{}

func (UnimplementedAlertServiceServer) Respond(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method Respond not implemented")
}

func (UnimplementedAlertServiceServer) GetState(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method GetState not implemented")
}

func (UnimplementedAlertServiceServer) OpenAlert(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method OpenAlert not implemented")
}

func (UnimplementedAlertServiceServer) Watch(*emptypb.Empty, grpc.ServerStreamingServer[structpb.Struct]) error {
	return status.Error(codes.Unimplemented, "method Watch not implemented")
}

func (UnimplementedAlertServiceServer) mustEmbedUnimplementedAlertServiceServer() {}

// RegisterAlertServiceServer registers the implementation on the server.
func RegisterAlertServiceServer(s grpc.ServiceRegistrar, srv AlertServiceServer) {
	s.RegisterService(&AlertService_ServiceDesc, srv)
}

func _AlertService_Respond_Handler(
	srv any,
	ctx context.Context,
	dec func(any) error,
	interceptor grpc.UnaryServerInterceptor,
) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(AlertServiceServer).Respond(ctx, in)
	}

	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: AlertService_Respond_FullMethodName,
	}

	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AlertServiceServer).Respond(ctx, req.(*structpb.Struct))
	}

	return interceptor(ctx, in, info, handler)
}

func _AlertService_GetState_Handler(
	srv any,
	ctx context.Context,
	dec func(any) error,
	interceptor grpc.UnaryServerInterceptor,
) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(AlertServiceServer).GetState(ctx, in)
	}

	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: AlertService_GetState_FullMethodName,
	}

	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AlertServiceServer).GetState(ctx, req.(*emptypb.Empty))
	}

	return interceptor(ctx, in, info, handler)
}

func _AlertService_OpenAlert_Handler(
	srv any,
	ctx context.Context,
	dec func(any) error,
	interceptor grpc.UnaryServerInterceptor,
) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(AlertServiceServer).OpenAlert(ctx, in)
	}

	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: AlertService_OpenAlert_FullMethodName,
	}

	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AlertServiceServer).OpenAlert(ctx, req.(*structpb.Struct))
	}

	return interceptor(ctx, in, info, handler)
}

func _AlertService_Watch_Handler(srv any, stream grpc.ServerStream) error {
	m := new(emptypb.Empty)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}

	return srv.(AlertServiceServer).Watch(m, &grpc.GenericServerStream[emptypb.Empty, structpb.Struct]{ServerStream: stream})
}

// AlertService_ServiceDesc is the grpc.ServiceDesc for AlertService.
var AlertService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "accirescue.v1.AlertService",
	HandlerType: (*AlertServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Respond",
			Handler:    _AlertService_Respond_Handler,
		},
		{
			MethodName: "GetState",
			Handler:    _AlertService_GetState_Handler,
		},
		{
			MethodName: "OpenAlert",
			Handler:    _AlertService_OpenAlert_Handler,
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Watch",
			Handler:       _AlertService_Watch_Handler,
			ServerStreams: true,
		},
	},
	Metadata: "accirescue/v1/alert.proto",
}
