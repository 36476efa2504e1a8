// Package errors maps search errors onto transport status codes.
package errors

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/ember-nexus/nexus-search/pkg/index"
	"github.com/ember-nexus/nexus-search/pkg/search"
)

const InternalServerErrorMsg = "Internal server error, see log."

var (
	// AuthenticationRequired is returned when no principal can be determined for a request.
	AuthenticationRequired  = status.Error(codes.Unauthenticated, "Authentication is required for this request.")
	RequestCancelled        = status.Error(codes.Canceled, "Request cancelled.")
	RequestDeadlineExceeded = status.Error(codes.DeadlineExceeded, "Request deadline exceeded.")
	IndexUnavailable        = status.Error(codes.Unavailable, "Search index is currently unavailable, retry later.")
	MalformedBody           = status.Error(codes.InvalidArgument, "Request body must be a JSON object.")
	IndexRejectedQuery      = status.Error(codes.InvalidArgument, "Search index rejected the query, check the query and the requested page and types.")
)

// RequestBodyTooLarge is returned when the request body exceeds limit bytes.
func RequestBodyTooLarge(limit int64) error {
	return status.Errorf(codes.InvalidArgument, "Request body must not exceed %d bytes.", limit)
}

// InternalError is an error that is only shown to clients with its public
// message. The internal error is kept for logging.
type InternalError struct {
	public   error
	internal error
}

func (e InternalError) Error() string {
	// hide the internal error in the message
	return e.public.Error()
}

// Is reports whether target is an InternalError.
func (e InternalError) Is(target error) bool {
	_, ok := target.(InternalError)
	return ok
}

func (e InternalError) Unwrap() error {
	return e.internal
}

// GRPCStatus implements the interface used by status.FromError.
func (e InternalError) GRPCStatus() *status.Status {
	st, ok := status.FromError(e.public)
	if !ok {
		return status.New(codes.Internal, e.public.Error())
	}
	return st
}

// NewInternalError returns an error that is decorated with a public-facing error
// message. Without a public message the generic internal server error message is used.
func NewInternalError(public string, internal error) InternalError {
	if public == "" {
		public = InternalServerErrorMsg
	}

	return InternalError{
		public:   status.Error(codes.Internal, public),
		internal: internal,
	}
}

// HandleError translates err into a status error. Environments other than
// prod expose the message of internal errors to clients, prod hides it
// behind InternalServerErrorMsg. The returned error always unwraps to err.
func HandleError(err error, environment string) error {
	if err == nil {
		return nil
	}

	var inputErr *search.InvalidInputError
	var keywordErr *search.ForbiddenKeywordError
	var dangerousErr *search.DangerousStepError
	var limitErr *search.ResourceLimitError
	var contractErr *search.ContractError
	var responseErr *index.ResponseError
	var internalErr InternalError

	switch {
	case errors.As(err, &internalErr):
		return internalErr
	case errors.As(err, &inputErr):
		return status.Error(codes.InvalidArgument, inputErr.Error())
	case errors.As(err, &keywordErr):
		return status.Error(codes.PermissionDenied, keywordErr.Error())
	case errors.As(err, &dangerousErr):
		return status.Error(codes.PermissionDenied, dangerousErr.Error())
	case errors.As(err, &limitErr):
		return status.Error(codes.OutOfRange, limitErr.Error())
	case errors.Is(err, search.ErrMissingPrincipal):
		return AuthenticationRequired
	case errors.Is(err, context.Canceled):
		return RequestCancelled
	case errors.Is(err, context.DeadlineExceeded):
		return RequestDeadlineExceeded
	case errors.Is(err, index.ErrUnavailable):
		return InternalError{public: IndexUnavailable, internal: err}
	case errors.As(err, &responseErr) && responseErr.IsClientError():
		return InternalError{public: IndexRejectedQuery, internal: err}
	case errors.As(err, &contractErr):
		return internalFor(environment, contractErr.Message, err)
	}

	if st, ok := status.FromError(err); ok {
		return st.Err()
	}

	return internalFor(environment, err.Error(), err)
}

func internalFor(environment, detail string, err error) InternalError {
	if environment == "prod" {
		return NewInternalError("", err)
	}
	return NewInternalError(fmt.Sprintf("Internal server error: %s", detail), err)
}
