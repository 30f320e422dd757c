package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "rfheatmap.v1.ControlService"

// Full method names.
const (
	MethodGetParameters = "/" + ServiceName + "/GetParameters"
	MethodSetParameter  = "/" + ServiceName + "/SetParameter"
	MethodRegenerate    = "/" + ServiceName + "/Regenerate"
	MethodGetLastPass   = "/" + ServiceName + "/GetLastPass"
)

// ControlServer is the server API for the control service. Messages are
// well-known protobuf types so no generated code is needed.
type ControlServer interface {
	GetParameters(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	SetParameter(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Regenerate(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	GetLastPass(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

// ControlServiceDesc describes the control service for grpc.Server.
var ControlServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ControlServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetParameters", Handler: unaryHandler(MethodGetParameters, ControlServer.GetParameters)},
		{MethodName: "SetParameter", Handler: unaryHandler(MethodSetParameter, ControlServer.SetParameter)},
		{MethodName: "Regenerate", Handler: unaryHandler(MethodRegenerate, ControlServer.Regenerate)},
		{MethodName: "GetLastPass", Handler: unaryHandler(MethodGetLastPass, ControlServer.GetLastPass)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "rfheatmap/v1/control.proto",
}

// RegisterControlServer registers srv on s.
func RegisterControlServer(s grpc.ServiceRegistrar, srv ControlServer) {
	s.RegisterService(&ControlServiceDesc, srv)
}

func unaryHandler[Req any, PReq interface {
	*Req
}](fullMethod string, call func(ControlServer, context.Context, PReq) (*structpb.Struct, error)) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := PReq(new(Req))
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ControlServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(ControlServer), ctx, req.(PReq))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// ControlClient is a thin client for the control service.
type ControlClient struct {
	cc grpc.ClientConnInterface
}

// NewControlClient wraps cc.
func NewControlClient(cc grpc.ClientConnInterface) *ControlClient {
	return &ControlClient{cc: cc}
}

func (c *ControlClient) GetParameters(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MethodGetParameters, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ControlClient) SetParameter(ctx context.Context, name string, value float64, opts ...grpc.CallOption) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(map[string]any{"name": name, "value": value})
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MethodSetParameter, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ControlClient) Regenerate(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MethodRegenerate, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ControlClient) GetLastPass(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MethodGetLastPass, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
