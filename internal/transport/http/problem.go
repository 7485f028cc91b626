package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/mvaleed/seedwork/internal/domain"
	"github.com/mvaleed/seedwork/internal/result"
)

// problem is an RFC 9457 problem details body. Errors holds field messages
// for validation failures and nested descriptions keyed by code for
// aggregated ones.
type problem struct {
	Type      string              `json:"type"`
	Title     string              `json:"title"`
	Status    int                 `json:"status"`
	Detail    string              `json:"detail,omitempty"`
	Code      string              `json:"code"`
	Instance  string              `json:"instance,omitempty"`
	RequestID string              `json:"request_id,omitempty"`
	Errors    map[string][]string `json:"errors,omitempty"`
}

const problemContentType = "application/problem+json"

// statusFor picks the HTTP status from the code of f.
func statusFor(f result.Fault) int {
	switch code := f.Base().Code; {
	case code == result.UnexpectedCode:
		return http.StatusInternalServerError
	case domain.HasSuffix(f, domain.SuffixNotFound):
		return http.StatusNotFound
	case domain.HasSuffix(f, domain.SuffixAlreadyExists), domain.HasSuffix(f, domain.SuffixConflict):
		return http.StatusConflict
	case domain.HasSuffix(f, domain.SuffixUnauthorized):
		return http.StatusUnauthorized
	case domain.HasSuffix(f, domain.SuffixForbidden):
		return http.StatusForbidden
	default:
		return http.StatusBadRequest
	}
}

func newProblem(r *http.Request, f result.Fault) problem {
	status := statusFor(f)
	base := f.Base()
	p := problem{
		Type:      "about:blank",
		Title:     http.StatusText(status),
		Status:    status,
		Detail:    base.Description,
		Code:      base.Code,
		Instance:  r.URL.Path,
		RequestID: middleware.GetReqID(r.Context()),
	}

	var verr result.ValidationError
	var agg result.AggregateError
	switch {
	case errors.As(f, &verr):
		p.Errors = verr.Errors
	case errors.As(f, &agg):
		p.Errors = make(map[string][]string, len(agg.Errors))
		for _, e := range agg.Errors {
			p.Errors[e.Code] = append(p.Errors[e.Code], e.Description)
		}
	}
	return p
}

// writeFault renders f as problem details. Unexpected faults are logged with
// their cause, which never reaches the client.
func (s *Server) writeFault(w http.ResponseWriter, r *http.Request, f result.Fault) {
	p := newProblem(r, f)
	if p.Status == http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), "unexpected error",
			slog.String("error", f.Error()),
			slog.String("path", r.URL.Path),
		)
		p.Detail = "an unexpected error occurred"
	}

	w.Header().Set("Content-Type", problemContentType)
	s.writeJSON(w, p.Status, p)
}

// writeBadBody reports a request body that is not valid JSON for the target.
func (s *Server) writeBadBody(w http.ResponseWriter, r *http.Request, err error) {
	s.writeFault(w, r, result.NewValidationError(domain.ValidationCode, "invalid request body",
		map[string][]string{"body": {err.Error()}}))
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.writeFault(w, r, result.NewError("Route"+domain.SuffixNotFound, "no route matches "+r.URL.Path))
}

func (s *Server) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	p := problem{
		Type:      "about:blank",
		Title:     http.StatusText(http.StatusMethodNotAllowed),
		Status:    http.StatusMethodNotAllowed,
		Detail:    r.Method + " is not allowed on " + r.URL.Path,
		Code:      "Route.MethodNotAllowed",
		Instance:  r.URL.Path,
		RequestID: middleware.GetReqID(r.Context()),
	}
	w.Header().Set("Content-Type", problemContentType)
	s.writeJSON(w, p.Status, p)
}
