package http

import (
	"net/http"
	"time"

	"github.com/mvaleed/seedwork/internal/domain"
	"github.com/mvaleed/seedwork/internal/service"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone,omitempty"`
}

type authResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   int64        `json:"expires_in"`
	User        userResponse `json:"user"`
}

func toAuthResponse(res service.LoginResult) authResponse {
	return authResponse{
		AccessToken: res.Token.Token,
		TokenType:   res.Token.TokenType,
		ExpiresIn:   res.Token.ExpiresIn(time.Now()),
		User:        toUserResponse(res.User),
	}
}

// handleRegister creates a pending customer account. Accounts start pending,
// so no token is issued until an administrator activates the user.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := s.readJSON(r, &req); err != nil {
		s.writeBadBody(w, r, err)
		return
	}

	user, f := s.users.CreateUser(r.Context(), service.CreateUserInput{
		Email:    req.Email,
		Password: req.Password,
		Username: req.Username,
		FullName: req.FullName,
		Type:     domain.UserTypeCustomer,
		Phone:    req.Phone,
	}).Get()
	if f != nil {
		s.writeFault(w, r, f)
		return
	}

	s.writeJSON(w, http.StatusCreated, toUserResponse(user))
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := s.readJSON(r, &req); err != nil {
		s.writeBadBody(w, r, err)
		return
	}

	res, f := s.auth.Login(r.Context(), service.LoginInput{
		Email:     req.Email,
		Password:  req.Password,
		IPAddress: getClientIP(r),
		UserAgent: r.UserAgent(),
	}).Get()
	if f != nil {
		s.writeFault(w, r, f)
		return
	}

	s.writeJSON(w, http.StatusOK, toAuthResponse(res))
}
