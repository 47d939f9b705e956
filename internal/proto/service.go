package proto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const ServiceName = "activation.v1.ActivationService"

const (
	ActivationService_Register_FullMethodName         = "/" + ServiceName + "/Register"
	ActivationService_Activate_FullMethodName         = "/" + ServiceName + "/Activate"
	ActivationService_ResendActivation_FullMethodName = "/" + ServiceName + "/ResendActivation"
)

// ActivationServiceServer is the server API for ActivationService.
type ActivationServiceServer interface {
	Register(context.Context, *RegisterRequest) (*RegisterResponse, error)
	Activate(context.Context, *ActivateRequest) (*ActivateResponse, error)
	ResendActivation(context.Context, *ResendActivationRequest) (*ResendActivationResponse, error)
}

// UnimplementedActivationServiceServer can be embedded to stay
// forward compatible.
type UnimplementedActivationServiceServer struct{}

func (UnimplementedActivationServiceServer) Register(context.Context, *RegisterRequest) (*RegisterResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Register not implemented")
}
func (UnimplementedActivationServiceServer) Activate(context.Context, *ActivateRequest) (*ActivateResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Activate not implemented")
}
func (UnimplementedActivationServiceServer) ResendActivation(context.Context, *ResendActivationRequest) (*ResendActivationResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ResendActivation not implemented")
}

func RegisterActivationServiceServer(s grpc.ServiceRegistrar, srv ActivationServiceServer) {
	s.RegisterService(&ActivationService_ServiceDesc, srv)
}

func _ActivationService_Register_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(RegisterRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ActivationServiceServer).Register(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ActivationService_Register_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ActivationServiceServer).Register(ctx, req.(*RegisterRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _ActivationService_Activate_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ActivateRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ActivationServiceServer).Activate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ActivationService_Activate_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ActivationServiceServer).Activate(ctx, req.(*ActivateRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _ActivationService_ResendActivation_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ResendActivationRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ActivationServiceServer).ResendActivation(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ActivationService_ResendActivation_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ActivationServiceServer).ResendActivation(ctx, req.(*ResendActivationRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// ActivationService_ServiceDesc is the grpc.ServiceDesc for ActivationService.
var ActivationService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ActivationServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Register", Handler: _ActivationService_Register_Handler},
		{MethodName: "Activate", Handler: _ActivationService_Activate_Handler},
		{MethodName: "ResendActivation", Handler: _ActivationService_ResendActivation_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "activation/v1/activation.proto",
}

// ActivationServiceClient is the client API for ActivationService.
type ActivationServiceClient interface {
	Register(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*RegisterResponse, error)
	Activate(ctx context.Context, in *ActivateRequest, opts ...grpc.CallOption) (*ActivateResponse, error)
	ResendActivation(ctx context.Context, in *ResendActivationRequest, opts ...grpc.CallOption) (*ResendActivationResponse, error)
}

type activationServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewActivationServiceClient returns a client that always calls with the
// JSON codec.
func NewActivationServiceClient(cc grpc.ClientConnInterface) ActivationServiceClient {
	return &activationServiceClient{cc}
}

func (c *activationServiceClient) invoke(ctx context.Context, method string, in, out any, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	return c.cc.Invoke(ctx, method, in, out, opts...)
}

func (c *activationServiceClient) Register(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*RegisterResponse, error) {
	out := new(RegisterResponse)
	if err := c.invoke(ctx, ActivationService_Register_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *activationServiceClient) Activate(ctx context.Context, in *ActivateRequest, opts ...grpc.CallOption) (*ActivateResponse, error) {
	out := new(ActivateResponse)
	if err := c.invoke(ctx, ActivationService_Activate_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *activationServiceClient) ResendActivation(ctx context.Context, in *ResendActivationRequest, opts ...grpc.CallOption) (*ResendActivationResponse, error) {
	out := new(ResendActivationResponse)
	if err := c.invoke(ctx, ActivationService_ResendActivation_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}
