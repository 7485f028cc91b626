// Package grpc provides the gRPC transport layer for the user service.
//
// Services are described by hand-written grpc.ServiceDesc values and carry
// JSON messages, so clients must call with grpc.CallContentSubtype("json").
package grpc

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/mvaleed/seedwork/internal/config"
	"github.com/mvaleed/seedwork/internal/domain"
	"github.com/mvaleed/seedwork/internal/metrics"
	"github.com/mvaleed/seedwork/internal/service"
)

// Services bundles the application services the handlers call.
type Services struct {
	Users *service.UserService
	Auth  *service.AuthService
}

// Server wraps the gRPC server with dependencies
type Server struct {
	grpcServer *grpc.Server
	health     *health.Server
	addr       string
	maxLimit   int
	users      *service.UserService
	auth       *service.AuthService
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// NewServer creates a new gRPC server with all handlers registered
func NewServer(cfg *config.Config, services Services, m *metrics.Metrics, logger *slog.Logger) *Server {
	s := &Server{
		health:   health.NewServer(),
		addr:     cfg.GRPC.Addr,
		maxLimit: cfg.Query.MaxLimit,
		users:    services.Users,
		auth:     services.Auth,
		metrics:  m,
		logger:   logger,
	}

	s.grpcServer = grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			s.loggingInterceptor,
			s.recoveryInterceptor,
			s.authInterceptor,
		),
	)

	RegisterUsersServer(s.grpcServer, &usersHandler{server: s})
	RegisterAuthServer(s.grpcServer, &authHandler{auth: s.auth})
	healthpb.RegisterHealthServer(s.grpcServer, s.health)
	s.health.SetServingStatus(usersServiceName, healthpb.HealthCheckResponse_SERVING)
	s.health.SetServingStatus(authServiceName, healthpb.HealthCheckResponse_SERVING)

	return s
}

// ListenAndServe listens on the configured address and serves until stopped.
func (s *Server) ListenAndServe() error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.addr, err)
	}
	return s.Serve(lis)
}

// Serve starts the gRPC server on the given listener
func (s *Server) Serve(listener net.Listener) error {
	return s.grpcServer.Serve(listener)
}

// GracefulStop marks every service as not serving, then waits for pending
// calls to finish.
func (s *Server) GracefulStop() {
	s.health.Shutdown()
	s.grpcServer.GracefulStop()
}

// loggingInterceptor logs every call and counts it by status code.
func (s *Server) loggingInterceptor(
	ctx context.Context,
	req any,
	info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	code := status.Code(err)

	attrs := []any{
		slog.String("method", info.FullMethod),
		slog.String("code", code.String()),
		slog.Duration("duration", time.Since(start)),
	}
	if code == codes.Internal || code == codes.Unknown {
		s.logger.ErrorContext(ctx, "gRPC request failed", append(attrs, slog.Any("error", err))...)
	} else {
		s.logger.InfoContext(ctx, "gRPC request", attrs...)
	}

	if s.metrics != nil {
		s.metrics.RPCTotal.WithLabelValues(info.FullMethod, code.String()).Inc()
	}
	return resp, err
}

// recoveryInterceptor recovers from panics
func (s *Server) recoveryInterceptor(
	ctx context.Context,
	req any,
	info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (resp any, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.ErrorContext(ctx, "gRPC panic recovered",
				slog.String("method", info.FullMethod),
				slog.Any("panic", r),
			)
			err = status.Error(codes.Internal, "internal server error")
		}
	}()

	return handler(ctx, req)
}

// authInterceptor validates bearer tokens for protected methods.
func (s *Server) authInterceptor(
	ctx context.Context,
	req any,
	info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (any, error) {
	if isPublicMethod(info.FullMethod) {
		return handler(ctx, req)
	}

	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing metadata")
	}
	tokens := md.Get("authorization")
	if len(tokens) == 0 {
		return nil, status.Error(codes.Unauthenticated, "missing authorization token")
	}
	token, _ := strings.CutPrefix(tokens[0], "Bearer ")

	claims, f := s.auth.Authenticate(ctx, token).Get()
	if f != nil {
		return nil, statusError(f)
	}

	return handler(context.WithValue(ctx, claimsKey{}, claims), req)
}

type claimsKey struct{}

// ClaimsFromContext extracts the verified claims from the context.
func ClaimsFromContext(ctx context.Context) (domain.Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(domain.Claims)
	return claims, ok
}

func isPublicMethod(method string) bool {
	return method == loginMethod || strings.HasPrefix(method, "/"+healthpb.Health_ServiceDesc.ServiceName+"/")
}

// requirePermission checks if the current user has the required permission
func requirePermission(ctx context.Context, resource, action string) error {
	claims, ok := ClaimsFromContext(ctx)
	if !ok {
		return statusError(domain.ErrUnauthorized)
	}
	if !claims.HasPermission(resource, action) {
		return statusError(domain.ErrForbidden)
	}
	return nil
}
