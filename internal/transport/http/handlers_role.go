package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mvaleed/seedwork/internal/domain"
	"github.com/mvaleed/seedwork/internal/query"
	"github.com/mvaleed/seedwork/internal/result"
	"github.com/mvaleed/seedwork/internal/service"
)

type roleResponse struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
}

func toRoleResponse(r *domain.Role) roleResponse {
	return roleResponse{
		ID:          r.ID.String(),
		Name:        r.Name,
		Description: r.Description,
		Permissions: r.PermissionStrings(),
		CreatedAt:   r.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   r.UpdatedAt.Format(time.RFC3339),
	}
}

func roleIDParam(r *http.Request, name string) result.Of[domain.RoleID] {
	return domain.ParseRoleID(chi.URLParam(r, name))
}

func (s *Server) writeRole(w http.ResponseWriter, r *http.Request, status int, res result.Of[*domain.Role]) {
	role, f := res.Get()
	if f != nil {
		s.writeFault(w, r, f)
		return
	}
	s.writeJSON(w, status, toRoleResponse(role))
}

func (s *Server) handleListRoles(w http.ResponseWriter, r *http.Request) {
	page, f := result.Bind(query.FromValues(r.URL.Query()), func(p query.Params) result.Of[query.Page[domain.Role]] {
		return s.roles.ListRoles(r.Context(), p.WithMaxLimit(s.maxLimit))
	}).Get()
	if f != nil {
		s.rejectQuery("roles", f)
		s.writeFault(w, r, f)
		return
	}

	s.writeJSON(w, http.StatusOK, toPageResponse(page, toRoleResponse))
}

func (s *Server) handleGetRole(w http.ResponseWriter, r *http.Request) {
	s.writeRole(w, r, http.StatusOK, result.Bind(roleIDParam(r, "id"), func(id domain.RoleID) result.Of[*domain.Role] {
		return s.roles.GetRole(r.Context(), id)
	}))
}

type createRoleRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
}

func (s *Server) handleCreateRole(w http.ResponseWriter, r *http.Request) {
	var req createRoleRequest
	if err := s.readJSON(r, &req); err != nil {
		s.writeBadBody(w, r, err)
		return
	}

	s.writeRole(w, r, http.StatusCreated, s.roles.CreateRole(r.Context(), req.Name, req.Description, req.Permissions))
}

type updateRoleRequest struct {
	Name        *string   `json:"name,omitempty"`
	Description *string   `json:"description,omitempty"`
	Permissions *[]string `json:"permissions,omitempty"`
}

func (s *Server) handleUpdateRole(w http.ResponseWriter, r *http.Request) {
	var req updateRoleRequest
	if err := s.readJSON(r, &req); err != nil {
		s.writeBadBody(w, r, err)
		return
	}

	s.writeRole(w, r, http.StatusOK, result.Bind(roleIDParam(r, "id"), func(id domain.RoleID) result.Of[*domain.Role] {
		return s.roles.UpdateRole(r.Context(), id, service.UpdateRoleInput{
			Name:        req.Name,
			Description: req.Description,
			Permissions: req.Permissions,
		})
	}))
}

func (s *Server) handleDeleteRole(w http.ResponseWriter, r *http.Request) {
	s.writeDone(w, r, result.Then(roleIDParam(r, "id"), func(id domain.RoleID) result.Result {
		return s.roles.DeleteRole(r.Context(), id)
	}))
}

func (s *Server) handleGetUserRoles(w http.ResponseWriter, r *http.Request) {
	roles, f := result.Bind(userIDParam(r), func(id domain.UserID) result.Of[[]domain.Role] {
		return s.roles.GetUserRoles(r.Context(), id)
	}).Get()
	if f != nil {
		s.writeFault(w, r, f)
		return
	}

	resp := make([]roleResponse, len(roles))
	for i := range roles {
		resp[i] = toRoleResponse(&roles[i])
	}
	s.writeJSON(w, http.StatusOK, resp)
}

type assignRoleRequest struct {
	RoleID string `json:"role_id"`
}

func (s *Server) handleAssignRole(w http.ResponseWriter, r *http.Request) {
	var req assignRoleRequest
	if err := s.readJSON(r, &req); err != nil {
		s.writeBadBody(w, r, err)
		return
	}

	s.writeDone(w, r, result.Then(userIDParam(r), func(userID domain.UserID) result.Result {
		return result.Then(domain.ParseRoleID(req.RoleID), func(roleID domain.RoleID) result.Result {
			return s.roles.AssignRole(r.Context(), userID, roleID)
		})
	}))
}

func (s *Server) handleRemoveRole(w http.ResponseWriter, r *http.Request) {
	s.writeDone(w, r, result.Then(userIDParam(r), func(userID domain.UserID) result.Result {
		return result.Then(roleIDParam(r, "roleId"), func(roleID domain.RoleID) result.Result {
			return s.roles.RemoveRole(r.Context(), userID, roleID)
		})
	}))
}
