package grpc

import (
	"errors"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/protoadapt"

	"github.com/mvaleed/seedwork/internal/domain"
	"github.com/mvaleed/seedwork/internal/result"
)

const errorDomain = "seedwork"

// codeFor picks the gRPC code from the code of f.
func codeFor(f result.Fault) codes.Code {
	switch code := f.Base().Code; {
	case code == result.UnexpectedCode:
		return codes.Internal
	case code == domain.ErrConflict.Code:
		return codes.Aborted
	case domain.HasSuffix(f, domain.SuffixNotFound):
		return codes.NotFound
	case domain.HasSuffix(f, domain.SuffixAlreadyExists):
		return codes.AlreadyExists
	case domain.HasSuffix(f, domain.SuffixConflict):
		return codes.FailedPrecondition
	case domain.HasSuffix(f, domain.SuffixUnauthorized):
		return codes.Unauthenticated
	case domain.HasSuffix(f, domain.SuffixForbidden):
		return codes.PermissionDenied
	default:
		return codes.InvalidArgument
	}
}

// statusError converts f to a gRPC status error. The fault code travels in an
// ErrorInfo detail; validation and aggregated failures add a BadRequest
// detail with one violation per message. Unexpected causes are not sent.
func statusError(f result.Fault) error {
	code := codeFor(f)
	base := f.Base()
	msg := base.Description
	if code == codes.Internal {
		msg = "internal server error"
	}

	st := status.New(code, msg)
	details := []protoadapt.MessageV1{&errdetails.ErrorInfo{
		Reason:   base.Code,
		Domain:   errorDomain,
		Metadata: map[string]string{"code": base.Code},
	}}
	if br := badRequest(f); br != nil {
		details = append(details, br)
	}

	withDetails, err := st.WithDetails(details...)
	if err != nil {
		return st.Err()
	}
	return withDetails.Err()
}

func badRequest(f result.Fault) *errdetails.BadRequest {
	var verr result.ValidationError
	var agg result.AggregateError
	br := &errdetails.BadRequest{}

	switch {
	case errors.As(f, &verr):
		for _, field := range verr.Fields() {
			for _, msg := range verr.Errors[field] {
				br.FieldViolations = append(br.FieldViolations,
					&errdetails.BadRequest_FieldViolation{Field: field, Description: msg})
			}
		}
	case errors.As(f, &agg):
		for _, e := range agg.Errors {
			br.FieldViolations = append(br.FieldViolations,
				&errdetails.BadRequest_FieldViolation{Field: e.Code, Description: e.Description})
		}
	default:
		return nil
	}
	return br
}
