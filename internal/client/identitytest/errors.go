package identitytest

import (
	"errors"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Error is a failure the fake service reports with a specific HTTP status
// and gRPC code. Hooks may return one to simulate any service answer.
type Error struct {
	Status  int
	Code    codes.Code
	Message string
	Fields  map[string]string
}

func (e *Error) Error() string { return e.Message }

func Unauthorized(msg string) *Error {
	return &Error{Status: http.StatusUnauthorized, Code: codes.Unauthenticated, Message: msg}
}

func Forbidden(msg string) *Error {
	return &Error{Status: http.StatusForbidden, Code: codes.PermissionDenied, Message: msg}
}

func Conflict(msg string) *Error {
	return &Error{Status: http.StatusConflict, Code: codes.AlreadyExists, Message: msg}
}

func Unavailable(msg string) *Error {
	return &Error{Status: http.StatusServiceUnavailable, Code: codes.Unavailable, Message: msg}
}

// Invalid converts ozzo validation errors into a 422 / InvalidArgument.
func Invalid(err error) *Error {
	e := &Error{Status: http.StatusUnprocessableEntity, Code: codes.InvalidArgument, Message: "validation failed"}
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		e.Fields = make(map[string]string, len(verrs))
		for k, v := range verrs {
			e.Fields[k] = v.Error()
		}
	} else if err != nil {
		e.Message = err.Error()
	}
	return e
}

func asError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Status: http.StatusInternalServerError, Code: codes.Internal, Message: err.Error()}
}

// grpcStatus renders err as a gRPC status, attaching field violations.
func grpcStatus(err error) error {
	e := asError(err)
	st := status.New(e.Code, e.Message)
	if len(e.Fields) == 0 {
		return st.Err()
	}
	br := &errdetails.BadRequest{}
	for field, desc := range e.Fields {
		br.FieldViolations = append(br.FieldViolations, &errdetails.BadRequest_FieldViolation{
			Field:       field,
			Description: desc,
		})
	}
	if withDetails, derr := st.WithDetails(br); derr == nil {
		st = withDetails
	}
	return st.Err()
}
