package grpc

import (
	"context"
	"io"
	"log/slog"
	"net"
	"testing"

	"golang.org/x/crypto/bcrypt"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/mvaleed/seedwork/internal/auth"
	"github.com/mvaleed/seedwork/internal/config"
	"github.com/mvaleed/seedwork/internal/domain"
	"github.com/mvaleed/seedwork/internal/domain/domaintest"
	"github.com/mvaleed/seedwork/internal/event"
	"github.com/mvaleed/seedwork/internal/metrics"
	"github.com/mvaleed/seedwork/internal/query"
	"github.com/mvaleed/seedwork/internal/result"
	"github.com/mvaleed/seedwork/internal/service"
	"github.com/mvaleed/seedwork/internal/storage/memory"
)

const password = "Secret123"

type harness struct {
	conn    *grpc.ClientConn
	users   UsersClient
	auth    AuthClient
	metrics *metrics.Metrics
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()

	cfg := config.Defaults()
	cfg.Query.MaxLimit = 4
	cfg.JWT.Secret = "test-secret"

	store := memory.New()
	repos := store.Repositories()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hasher := auth.Hasher{Cost: bcrypt.MinCost}
	jwt := auth.NewJWTManager(cfg.JWT)
	events := event.NewNoopPublisher()

	admin := domaintest.Role("admin", "users:read")
	if err := repos.Roles.Create(ctx, admin); err != nil {
		t.Fatal(err)
	}
	hash, err := hasher.Hash(password)
	if err != nil {
		t.Fatal(err)
	}
	for i, u := range domaintest.Users(6) {
		u.PasswordHash = hash
		if err := repos.Users.Create(ctx, u); err != nil {
			t.Fatal(err)
		}
		if i == 0 {
			if err := repos.Roles.AssignRole(ctx, u.ID, admin.ID); err != nil {
				t.Fatal(err)
			}
		}
	}

	m := metrics.New()
	srv := NewServer(&cfg, Services{
		Users: service.NewUserService(repos, store, hasher, events, logger),
		Auth:  service.NewAuthService(repos, jwt, hasher, events, logger),
	}, m, logger)

	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.GracefulStop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	return &harness{conn: conn, users: NewUsersClient(conn), auth: NewAuthClient(conn), metrics: m}
}

// login returns an outgoing context carrying the bearer token of username.
func (h *harness) login(t *testing.T, username string) context.Context {
	t.Helper()
	resp, err := h.auth.Login(context.Background(), &LoginRequest{Email: username + "@example.com", Password: password})
	if err != nil {
		t.Fatalf("login %s: %v", username, err)
	}
	return metadata.AppendToOutgoingContext(context.Background(), "authorization", "Bearer "+resp.AccessToken)
}

func TestList(t *testing.T) {
	h := newHarness(t)
	ctx := h.login(t, "user0")

	resp, err := h.users.List(ctx, &ListUsersRequest{
		Sort:   []string{"-bonus"},
		Filter: []string{"bonus:gt:20"},
		Limit:  2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Total != 4 || len(resp.Users) != 2 {
		t.Fatalf("expected 2 of 4, got %d of %d", len(resp.Users), resp.Total)
	}
	if resp.Users[0].Username != "user5" || resp.Users[1].Username != "user4" {
		t.Errorf("expected user5, user4, got %s, %s", resp.Users[0].Username, resp.Users[1].Username)
	}
}

func TestListCapsLimit(t *testing.T) {
	h := newHarness(t)
	ctx := h.login(t, "user0")

	resp, err := h.users.List(ctx, &ListUsersRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Limit != 4 || len(resp.Users) != 4 || resp.Total != 6 {
		t.Errorf("expected 4 of 6 with limit 4, got %d of %d with limit %d", len(resp.Users), resp.Total, resp.Limit)
	}
}

func TestListRejectsBadQuery(t *testing.T) {
	h := newHarness(t)
	ctx := h.login(t, "user0")

	_, err := h.users.List(ctx, &ListUsersRequest{
		Sort:   []string{"-shoe_size"},
		Filter: []string{"password_hash:eq:x"},
	})

	st := status.Convert(err)
	if st.Code() != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", st.Code())
	}

	fields := map[string]bool{}
	var reason string
	for _, d := range st.Details() {
		switch d := d.(type) {
		case *errdetails.BadRequest:
			for _, v := range d.GetFieldViolations() {
				fields[v.GetField()] = true
			}
		case *errdetails.ErrorInfo:
			reason = d.GetReason()
		}
	}
	if reason != result.ValidateCode {
		t.Errorf("expected reason %s, got %q", result.ValidateCode, reason)
	}
	for _, code := range []string{query.CodeSortUnknownField, query.CodeFilterUnknownProperty} {
		if !fields[code] {
			t.Errorf("expected violation %s, got %v", code, fields)
		}
	}
}

func TestGet(t *testing.T) {
	h := newHarness(t)
	ctx := h.login(t, "user0")

	tests := []struct {
		name string
		id   string
		code codes.Code
	}{
		{"malformed id", "nope", codes.InvalidArgument},
		{"unknown id", domain.NewUserID().String(), codes.NotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.users.Get(ctx, &GetUserRequest{ID: tt.id})
			if got := status.Code(err); got != tt.code {
				t.Errorf("expected %v, got %v", tt.code, got)
			}
		})
	}
}

func TestAuthorization(t *testing.T) {
	h := newHarness(t)

	_, err := h.users.List(context.Background(), &ListUsersRequest{})
	if got := status.Code(err); got != codes.Unauthenticated {
		t.Errorf("expected Unauthenticated without token, got %v", got)
	}

	ctx := h.login(t, "user1")
	_, err = h.users.List(ctx, &ListUsersRequest{})
	if got := status.Code(err); got != codes.PermissionDenied {
		t.Errorf("expected PermissionDenied without users:read, got %v", got)
	}

	_, err = h.auth.Login(context.Background(), &LoginRequest{Email: "user1@example.com", Password: "Wrong123"})
	if got := status.Code(err); got != codes.Unauthenticated {
		t.Errorf("expected Unauthenticated for bad password, got %v", got)
	}
}

func TestHealth(t *testing.T) {
	h := newHarness(t)

	resp, err := healthpb.NewHealthClient(h.conn).Check(context.Background(),
		&healthpb.HealthCheckRequest{Service: usersServiceName})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		t.Errorf("expected SERVING, got %v", resp.GetStatus())
	}
}

func TestStatusErrorHidesUnexpectedCause(t *testing.T) {
	err := statusError(result.Unexpected(io.ErrUnexpectedEOF))

	st := status.Convert(err)
	if st.Code() != codes.Internal {
		t.Errorf("expected Internal, got %v", st.Code())
	}
	if st.Message() != "internal server error" {
		t.Errorf("expected generic message, got %q", st.Message())
	}
}

func TestCodeFor(t *testing.T) {
	tests := []struct {
		fault result.Fault
		want  codes.Code
	}{
		{domain.UserNotFound(domain.NewUserID()), codes.NotFound},
		{domain.UserAlreadyExists("email"), codes.AlreadyExists},
		{domain.ErrConflict, codes.Aborted},
		{domain.RoleInUse("admin"), codes.FailedPrecondition},
		{domain.ErrTokenExpired, codes.Unauthenticated},
		{domain.ErrUserNotActive, codes.PermissionDenied},
		{query.ErrLimitMustBePositive, codes.InvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.fault.Base().Code, func(t *testing.T) {
			if got := codeFor(tt.fault); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}
