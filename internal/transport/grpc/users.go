package grpc

import (
	"context"
	"math"
	"time"

	"google.golang.org/grpc"

	"github.com/mvaleed/seedwork/internal/domain"
	"github.com/mvaleed/seedwork/internal/query"
	"github.com/mvaleed/seedwork/internal/result"
)

const (
	usersServiceName = "seedwork.v1.Users"
	listUsersMethod  = "/" + usersServiceName + "/List"
	getUserMethod    = "/" + usersServiceName + "/Get"
)

// User is the wire form of domain.User.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	FullName  string    `json:"full_name"`
	Type      string    `json:"type"`
	Status    string    `json:"status"`
	Bonus     float64   `json:"bonus"`
	Roles     []string  `json:"roles,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toUser(u *domain.User) *User {
	out := &User{
		ID:        u.ID.String(),
		Email:     u.Email,
		Username:  u.Username,
		FullName:  u.FullName,
		Type:      string(u.Type),
		Status:    string(u.Status),
		Bonus:     u.Bonus,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
	for _, r := range u.Roles {
		out.Roles = append(out.Roles, r.Name)
	}
	return out
}

// ListUsersRequest carries raw query terms. A zero limit means the server
// maximum.
type ListUsersRequest struct {
	Offset int      `json:"offset"`
	Limit  int      `json:"limit"`
	Sort   []string `json:"sort,omitempty"`
	Filter []string `json:"filter,omitempty"`
}

func (r *ListUsersRequest) QueryOffset() int      { return r.Offset }
func (r *ListUsersRequest) QueryLimit() int       { return r.Limit }
func (r *ListUsersRequest) QuerySort() []string   { return r.Sort }
func (r *ListUsersRequest) QueryFilter() []string { return r.Filter }

type ListUsersResponse struct {
	Users  []*User `json:"users"`
	Total  int     `json:"total"`
	Offset int     `json:"offset"`
	Limit  int     `json:"limit"`
}

type GetUserRequest struct {
	ID string `json:"id"`
}

// UsersServer is the server API for the seedwork.v1.Users service.
type UsersServer interface {
	List(context.Context, *ListUsersRequest) (*ListUsersResponse, error)
	Get(context.Context, *GetUserRequest) (*User, error)
}

func RegisterUsersServer(s grpc.ServiceRegistrar, srv UsersServer) {
	s.RegisterService(&usersServiceDesc, srv)
}

var usersServiceDesc = grpc.ServiceDesc{
	ServiceName: usersServiceName,
	HandlerType: (*UsersServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "List", Handler: listUsersHandler},
		{MethodName: "Get", Handler: getUserHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "seedwork/v1/users",
}

func listUsersHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ListUsersRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(UsersServer).List(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: listUsersMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(UsersServer).List(ctx, req.(*ListUsersRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func getUserHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(GetUserRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(UsersServer).Get(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: getUserMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(UsersServer).Get(ctx, req.(*GetUserRequest))
	}
	return interceptor(ctx, in, info, handler)
}

type usersHandler struct {
	server *Server
}

func (h *usersHandler) List(ctx context.Context, req *ListUsersRequest) (*ListUsersResponse, error) {
	if err := requirePermission(ctx, "users", "read"); err != nil {
		return nil, err
	}
	if req.Limit == 0 {
		req.Limit = math.MaxInt
	}

	page, f := result.Bind(query.FromRequest(req), func(p query.Params) result.Of[query.Page[domain.User]] {
		return h.server.users.ListUsers(ctx, p.WithMaxLimit(h.server.maxLimit))
	}).Get()
	if f != nil {
		return nil, statusError(f)
	}

	resp := &ListUsersResponse{
		Users:  make([]*User, len(page.Items)),
		Total:  page.Total,
		Offset: page.Offset,
		Limit:  page.Limit,
	}
	for i := range page.Items {
		resp.Users[i] = toUser(&page.Items[i])
	}
	return resp, nil
}

func (h *usersHandler) Get(ctx context.Context, req *GetUserRequest) (*User, error) {
	if err := requirePermission(ctx, "users", "read"); err != nil {
		return nil, err
	}

	user, f := result.Bind(domain.ParseUserID(req.ID), func(id domain.UserID) result.Of[*domain.User] {
		return h.server.users.GetUser(ctx, id)
	}).Get()
	if f != nil {
		return nil, statusError(f)
	}
	return toUser(user), nil
}

// UsersClient is the client API for the seedwork.v1.Users service.
type UsersClient interface {
	List(ctx context.Context, in *ListUsersRequest, opts ...grpc.CallOption) (*ListUsersResponse, error)
	Get(ctx context.Context, in *GetUserRequest, opts ...grpc.CallOption) (*User, error)
}

type usersClient struct {
	cc grpc.ClientConnInterface
}

func NewUsersClient(cc grpc.ClientConnInterface) UsersClient {
	return &usersClient{cc: cc}
}

func (c *usersClient) List(ctx context.Context, in *ListUsersRequest, opts ...grpc.CallOption) (*ListUsersResponse, error) {
	out := new(ListUsersResponse)
	if err := c.cc.Invoke(ctx, listUsersMethod, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *usersClient) Get(ctx context.Context, in *GetUserRequest, opts ...grpc.CallOption) (*User, error) {
	out := new(User)
	if err := c.cc.Invoke(ctx, getUserMethod, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func withCodec(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.CallContentSubtype(codecName)}, opts...)
}
