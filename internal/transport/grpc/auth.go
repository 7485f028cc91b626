package grpc

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/peer"

	"github.com/mvaleed/seedwork/internal/service"
)

const (
	authServiceName = "seedwork.v1.Auth"
	loginMethod     = "/" + authServiceName + "/Login"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        *User     `json:"user"`
}

// AuthServer is the server API for the seedwork.v1.Auth service.
type AuthServer interface {
	Login(context.Context, *LoginRequest) (*LoginResponse, error)
}

func RegisterAuthServer(s grpc.ServiceRegistrar, srv AuthServer) {
	s.RegisterService(&authServiceDesc, srv)
}

var authServiceDesc = grpc.ServiceDesc{
	ServiceName: authServiceName,
	HandlerType: (*AuthServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Login", Handler: loginHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "seedwork/v1/auth",
}

func loginHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(LoginRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AuthServer).Login(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: loginMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AuthServer).Login(ctx, req.(*LoginRequest))
	}
	return interceptor(ctx, in, info, handler)
}

type authHandler struct {
	auth *service.AuthService
}

func (h *authHandler) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	in := service.LoginInput{Email: req.Email, Password: req.Password, UserAgent: "grpc"}
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		in.IPAddress = p.Addr.String()
	}

	res, f := h.auth.Login(ctx, in).Get()
	if f != nil {
		return nil, statusError(f)
	}
	return &LoginResponse{
		AccessToken: res.Token.Token,
		TokenType:   res.Token.TokenType,
		ExpiresAt:   res.Token.ExpiresAt,
		User:        toUser(res.User),
	}, nil
}

// AuthClient is the client API for the seedwork.v1.Auth service.
type AuthClient interface {
	Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*LoginResponse, error)
}

type authClient struct {
	cc grpc.ClientConnInterface
}

func NewAuthClient(cc grpc.ClientConnInterface) AuthClient {
	return &authClient{cc: cc}
}

func (c *authClient) Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*LoginResponse, error) {
	out := new(LoginResponse)
	if err := c.cc.Invoke(ctx, loginMethod, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}
