package proto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "vaultwatch.VaultService"

const (
	VaultService_Register_FullMethodName     = "/" + ServiceName + "/Register"
	VaultService_Login_FullMethodName        = "/" + ServiceName + "/Login"
	VaultService_RefreshToken_FullMethodName = "/" + ServiceName + "/RefreshToken"
	VaultService_Ping_FullMethodName         = "/" + ServiceName + "/Ping"
	VaultService_CreateSecret_FullMethodName = "/" + ServiceName + "/CreateSecret"
	VaultService_ListSecrets_FullMethodName  = "/" + ServiceName + "/ListSecrets"
	VaultService_RevealSecret_FullMethodName = "/" + ServiceName + "/RevealSecret"
	VaultService_UpdateSecret_FullMethodName = "/" + ServiceName + "/UpdateSecret"
	VaultService_DeleteSecret_FullMethodName = "/" + ServiceName + "/DeleteSecret"
	VaultService_CheckSecret_FullMethodName  = "/" + ServiceName + "/CheckSecret"
	VaultService_WatchAlerts_FullMethodName  = "/" + ServiceName + "/WatchAlerts"
)

// VaultService_WatchAlertsServer is the server side of the alert stream.
type VaultService_WatchAlertsServer = grpc.ServerStreamingServer[AlertEvent]

// VaultService_WatchAlertsClient is the client side of the alert stream.
type VaultService_WatchAlertsClient = grpc.ServerStreamingClient[AlertEvent]

// VaultServiceServer is the server API for VaultService.
type VaultServiceServer interface {
	Register(context.Context, *RegisterRequest) (*RegisterResponse, error)
	Login(context.Context, *LoginRequest) (*TokenResponse, error)
	RefreshToken(context.Context, *RefreshTokenRequest) (*TokenResponse, error)
	Ping(context.Context, *PingRequest) (*PingResponse, error)
	CreateSecret(context.Context, *CreateSecretRequest) (*SecretResponse, error)
	ListSecrets(context.Context, *ListSecretsRequest) (*ListSecretsResponse, error)
	RevealSecret(context.Context, *RevealSecretRequest) (*RevealSecretResponse, error)
	UpdateSecret(context.Context, *UpdateSecretRequest) (*SecretResponse, error)
	DeleteSecret(context.Context, *DeleteSecretRequest) (*DeleteSecretResponse, error)
	CheckSecret(context.Context, *CheckSecretRequest) (*CheckSecretResponse, error)
	WatchAlerts(*WatchAlertsRequest, VaultService_WatchAlertsServer) error
}

// UnimplementedVaultServiceServer answers every method with codes.Unimplemented.
type UnimplementedVaultServiceServer struct{}

func (UnimplementedVaultServiceServer) Register(context.Context, *RegisterRequest) (*RegisterResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Register not implemented")
}
func (UnimplementedVaultServiceServer) Login(context.Context, *LoginRequest) (*TokenResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Login not implemented")
}
func (UnimplementedVaultServiceServer) RefreshToken(context.Context, *RefreshTokenRequest) (*TokenResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method RefreshToken not implemented")
}
func (UnimplementedVaultServiceServer) Ping(context.Context, *PingRequest) (*PingResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Ping not implemented")
}
func (UnimplementedVaultServiceServer) CreateSecret(context.Context, *CreateSecretRequest) (*SecretResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CreateSecret not implemented")
}
func (UnimplementedVaultServiceServer) ListSecrets(context.Context, *ListSecretsRequest) (*ListSecretsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListSecrets not implemented")
}
func (UnimplementedVaultServiceServer) RevealSecret(context.Context, *RevealSecretRequest) (*RevealSecretResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method RevealSecret not implemented")
}
func (UnimplementedVaultServiceServer) UpdateSecret(context.Context, *UpdateSecretRequest) (*SecretResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method UpdateSecret not implemented")
}
func (UnimplementedVaultServiceServer) DeleteSecret(context.Context, *DeleteSecretRequest) (*DeleteSecretResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method DeleteSecret not implemented")
}
func (UnimplementedVaultServiceServer) CheckSecret(context.Context, *CheckSecretRequest) (*CheckSecretResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CheckSecret not implemented")
}
func (UnimplementedVaultServiceServer) WatchAlerts(*WatchAlertsRequest, VaultService_WatchAlertsServer) error {
	return status.Error(codes.Unimplemented, "method WatchAlerts not implemented")
}

// RegisterVaultServiceServer registers srv on s.
func RegisterVaultServiceServer(s grpc.ServiceRegistrar, srv VaultServiceServer) {
	s.RegisterService(&VaultService_ServiceDesc, srv)
}

// unary builds the method descriptor of one request/response call.
func unary[Req, Resp any](name string, call func(VaultServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(VaultServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(VaultServiceServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

func watchAlertsHandler(srv any, stream grpc.ServerStream) error {
	m := new(WatchAlertsRequest)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(VaultServiceServer).WatchAlerts(m, &grpc.GenericServerStream[WatchAlertsRequest, AlertEvent]{ServerStream: stream})
}

// VaultService_ServiceDesc is the grpc.ServiceDesc for VaultService.
var VaultService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*VaultServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Register", VaultServiceServer.Register),
		unary("Login", VaultServiceServer.Login),
		unary("RefreshToken", VaultServiceServer.RefreshToken),
		unary("Ping", VaultServiceServer.Ping),
		unary("CreateSecret", VaultServiceServer.CreateSecret),
		unary("ListSecrets", VaultServiceServer.ListSecrets),
		unary("RevealSecret", VaultServiceServer.RevealSecret),
		unary("UpdateSecret", VaultServiceServer.UpdateSecret),
		unary("DeleteSecret", VaultServiceServer.DeleteSecret),
		unary("CheckSecret", VaultServiceServer.CheckSecret),
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "WatchAlerts",
			Handler:       watchAlertsHandler,
			ServerStreams: true,
		},
	},
	Metadata: "vaultwatch/service",
}

// VaultServiceClient is the client API for VaultService.
type VaultServiceClient interface {
	Register(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*RegisterResponse, error)
	Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*TokenResponse, error)
	RefreshToken(ctx context.Context, in *RefreshTokenRequest, opts ...grpc.CallOption) (*TokenResponse, error)
	Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingResponse, error)
	CreateSecret(ctx context.Context, in *CreateSecretRequest, opts ...grpc.CallOption) (*SecretResponse, error)
	ListSecrets(ctx context.Context, in *ListSecretsRequest, opts ...grpc.CallOption) (*ListSecretsResponse, error)
	RevealSecret(ctx context.Context, in *RevealSecretRequest, opts ...grpc.CallOption) (*RevealSecretResponse, error)
	UpdateSecret(ctx context.Context, in *UpdateSecretRequest, opts ...grpc.CallOption) (*SecretResponse, error)
	DeleteSecret(ctx context.Context, in *DeleteSecretRequest, opts ...grpc.CallOption) (*DeleteSecretResponse, error)
	CheckSecret(ctx context.Context, in *CheckSecretRequest, opts ...grpc.CallOption) (*CheckSecretResponse, error)
	WatchAlerts(ctx context.Context, in *WatchAlertsRequest, opts ...grpc.CallOption) (VaultService_WatchAlertsClient, error)
}

type vaultServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewVaultServiceClient(cc grpc.ClientConnInterface) VaultServiceClient {
	return &vaultServiceClient{cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *vaultServiceClient) Register(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*RegisterResponse, error) {
	return invoke[RegisterResponse](ctx, c.cc, VaultService_Register_FullMethodName, in, opts)
}

func (c *vaultServiceClient) Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*TokenResponse, error) {
	return invoke[TokenResponse](ctx, c.cc, VaultService_Login_FullMethodName, in, opts)
}

func (c *vaultServiceClient) RefreshToken(ctx context.Context, in *RefreshTokenRequest, opts ...grpc.CallOption) (*TokenResponse, error) {
	return invoke[TokenResponse](ctx, c.cc, VaultService_RefreshToken_FullMethodName, in, opts)
}

func (c *vaultServiceClient) Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingResponse, error) {
	return invoke[PingResponse](ctx, c.cc, VaultService_Ping_FullMethodName, in, opts)
}

func (c *vaultServiceClient) CreateSecret(ctx context.Context, in *CreateSecretRequest, opts ...grpc.CallOption) (*SecretResponse, error) {
	return invoke[SecretResponse](ctx, c.cc, VaultService_CreateSecret_FullMethodName, in, opts)
}

func (c *vaultServiceClient) ListSecrets(ctx context.Context, in *ListSecretsRequest, opts ...grpc.CallOption) (*ListSecretsResponse, error) {
	return invoke[ListSecretsResponse](ctx, c.cc, VaultService_ListSecrets_FullMethodName, in, opts)
}

func (c *vaultServiceClient) RevealSecret(ctx context.Context, in *RevealSecretRequest, opts ...grpc.CallOption) (*RevealSecretResponse, error) {
	return invoke[RevealSecretResponse](ctx, c.cc, VaultService_RevealSecret_FullMethodName, in, opts)
}

func (c *vaultServiceClient) UpdateSecret(ctx context.Context, in *UpdateSecretRequest, opts ...grpc.CallOption) (*SecretResponse, error) {
	return invoke[SecretResponse](ctx, c.cc, VaultService_UpdateSecret_FullMethodName, in, opts)
}

func (c *vaultServiceClient) DeleteSecret(ctx context.Context, in *DeleteSecretRequest, opts ...grpc.CallOption) (*DeleteSecretResponse, error) {
	return invoke[DeleteSecretResponse](ctx, c.cc, VaultService_DeleteSecret_FullMethodName, in, opts)
}

func (c *vaultServiceClient) CheckSecret(ctx context.Context, in *CheckSecretRequest, opts ...grpc.CallOption) (*CheckSecretResponse, error) {
	return invoke[CheckSecretResponse](ctx, c.cc, VaultService_CheckSecret_FullMethodName, in, opts)
}

func (c *vaultServiceClient) WatchAlerts(ctx context.Context, in *WatchAlertsRequest, opts ...grpc.CallOption) (VaultService_WatchAlertsClient, error) {
	stream, err := c.cc.NewStream(ctx, &VaultService_ServiceDesc.Streams[0], VaultService_WatchAlerts_FullMethodName, opts...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[WatchAlertsRequest, AlertEvent]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}
