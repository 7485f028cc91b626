package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mvaleed/seedwork/internal/domain"
	"github.com/mvaleed/seedwork/internal/query"
	"github.com/mvaleed/seedwork/internal/result"
	"github.com/mvaleed/seedwork/internal/service"
)

type userResponse struct {
	ID            string   `json:"id"`
	Email         string   `json:"email"`
	Username      string   `json:"username"`
	FullName      string   `json:"full_name"`
	Phone         *string  `json:"phone,omitempty"`
	Type          string   `json:"type"`
	Status        string   `json:"status"`
	Bonus         float64  `json:"bonus"`
	EmailVerified bool     `json:"email_verified"`
	PhoneVerified bool     `json:"phone_verified"`
	Roles         []string `json:"roles,omitempty"`
	Version       int      `json:"version"`
	CreatedAt     string   `json:"created_at"`
	UpdatedAt     string   `json:"updated_at"`
}

func toUserResponse(u *domain.User) userResponse {
	resp := userResponse{
		ID:            u.ID.String(),
		Email:         u.Email,
		Username:      u.Username,
		FullName:      u.FullName,
		Phone:         u.Phone,
		Type:          string(u.Type),
		Status:        string(u.Status),
		Bonus:         u.Bonus,
		EmailVerified: u.EmailVerified,
		PhoneVerified: u.PhoneVerified,
		Version:       u.Version,
		CreatedAt:     u.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     u.UpdatedAt.Format(time.RFC3339),
	}

	for _, r := range u.Roles {
		resp.Roles = append(resp.Roles, r.Name)
	}

	return resp
}

type pageResponse[T any] struct {
	Items  []T `json:"items"`
	Total  int `json:"total"`
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

func toPageResponse[T, R any](page query.Page[T], render func(*T) R) pageResponse[R] {
	items := make([]R, len(page.Items))
	for i := range page.Items {
		items[i] = render(&page.Items[i])
	}
	return pageResponse[R]{Items: items, Total: page.Total, Offset: page.Offset, Limit: page.Limit}
}

// rejectQuery counts a refused list request once per failed term code.
func (s *Server) rejectQuery(resource string, f result.Fault) {
	if s.metrics == nil {
		return
	}
	var agg result.AggregateError
	if !errors.As(f, &agg) {
		return
	}
	for _, e := range agg.Errors {
		s.metrics.QueryRejections.WithLabelValues(resource, e.Code).Inc()
	}
}

func userIDParam(r *http.Request) result.Of[domain.UserID] {
	return domain.ParseUserID(chi.URLParam(r, "id"))
}

func (s *Server) currentUserID(r *http.Request) result.Of[domain.UserID] {
	claims, ok := getClaims(r.Context())
	if !ok {
		return result.FailureOf[domain.UserID](domain.ErrUnauthorized)
	}
	return result.SuccessOf(claims.UserID)
}

// writeUser renders res as a user or as problem details.
func (s *Server) writeUser(w http.ResponseWriter, r *http.Request, status int, res result.Of[*domain.User]) {
	user, f := res.Get()
	if f != nil {
		s.writeFault(w, r, f)
		return
	}
	s.writeJSON(w, status, toUserResponse(user))
}

// writeDone renders a successful command as 204 No Content.
func (s *Server) writeDone(w http.ResponseWriter, r *http.Request, res result.Result) {
	if res.IsFailure() {
		s.writeFault(w, r, res.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetCurrentUser(w http.ResponseWriter, r *http.Request) {
	s.writeUser(w, r, http.StatusOK, result.Bind(s.currentUserID(r), func(id domain.UserID) result.Of[*domain.User] {
		return s.users.GetUser(r.Context(), id)
	}))
}

type updateUserRequest struct {
	FullName *string  `json:"full_name,omitempty"`
	Username *string  `json:"username,omitempty"`
	Phone    *string  `json:"phone,omitempty"`
	Bonus    *float64 `json:"bonus,omitempty"`
}

func (s *Server) handleUpdateCurrentUser(w http.ResponseWriter, r *http.Request) {
	var req updateUserRequest
	if err := s.readJSON(r, &req); err != nil {
		s.writeBadBody(w, r, err)
		return
	}

	// users may not grant themselves a bonus
	s.writeUser(w, r, http.StatusOK, result.Bind(s.currentUserID(r), func(id domain.UserID) result.Of[*domain.User] {
		return s.users.UpdateUser(r.Context(), id, service.UpdateUserInput{
			FullName: req.FullName,
			Username: req.Username,
			Phone:    req.Phone,
		})
	}))
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := s.readJSON(r, &req); err != nil {
		s.writeBadBody(w, r, err)
		return
	}

	missing := domain.Violations{}.
		Check(req.CurrentPassword != "", "current_password", "required").
		Check(req.NewPassword != "", "new_password", "required").
		Result()

	s.writeDone(w, r, result.OnSuccess(missing, func() result.Result {
		return result.Then(s.currentUserID(r), func(id domain.UserID) result.Result {
			return s.users.ChangePassword(r.Context(), id, req.CurrentPassword, req.NewPassword)
		})
	}))
}

// handleListUsers serves GET /users?offset=&limit=&sort=&filter=. The limit
// is capped at the configured maximum.
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	page, f := result.Bind(query.FromValues(r.URL.Query()), func(p query.Params) result.Of[query.Page[domain.User]] {
		return s.users.ListUsers(r.Context(), p.WithMaxLimit(s.maxLimit))
	}).Get()
	if f != nil {
		s.rejectQuery("users", f)
		s.writeFault(w, r, f)
		return
	}

	s.writeJSON(w, http.StatusOK, toPageResponse(page, toUserResponse))
}

type createUserRequest struct {
	registerRequest
	Type domain.UserType `json:"type"`
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := s.readJSON(r, &req); err != nil {
		s.writeBadBody(w, r, err)
		return
	}

	s.writeUser(w, r, http.StatusCreated, s.users.CreateUser(r.Context(), service.CreateUserInput{
		Email:    req.Email,
		Password: req.Password,
		Username: req.Username,
		FullName: req.FullName,
		Type:     req.Type,
		Phone:    req.Phone,
	}))
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	s.writeUser(w, r, http.StatusOK, result.Bind(userIDParam(r), func(id domain.UserID) result.Of[*domain.User] {
		return s.users.GetUser(r.Context(), id)
	}))
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var req updateUserRequest
	if err := s.readJSON(r, &req); err != nil {
		s.writeBadBody(w, r, err)
		return
	}

	s.writeUser(w, r, http.StatusOK, result.Bind(userIDParam(r), func(id domain.UserID) result.Of[*domain.User] {
		return s.users.UpdateUser(r.Context(), id, service.UpdateUserInput{
			FullName: req.FullName,
			Username: req.Username,
			Phone:    req.Phone,
			Bonus:    req.Bonus,
		})
	}))
}

func (s *Server) handleActivateUser(w http.ResponseWriter, r *http.Request) {
	s.writeDone(w, r, result.Then(userIDParam(r), func(id domain.UserID) result.Result {
		return s.users.ActivateUser(r.Context(), id)
	}))
}

type suspendRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) handleSuspendUser(w http.ResponseWriter, r *http.Request) {
	var req suspendRequest
	if err := s.readJSON(r, &req); err != nil {
		s.writeBadBody(w, r, err)
		return
	}

	s.writeDone(w, r, result.Then(userIDParam(r), func(id domain.UserID) result.Result {
		return s.users.SuspendUser(r.Context(), id, req.Reason)
	}))
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	s.writeDone(w, r, result.Then(userIDParam(r), func(id domain.UserID) result.Result {
		return s.users.DeleteUser(r.Context(), id)
	}))
}
