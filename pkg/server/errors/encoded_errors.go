package errors

import (
	"net/http"
	"strings"
	"unicode"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrorResponse is the JSON body of every failed HTTP request.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// EncodedError is a status error together with the HTTP status it is sent with.
type EncodedError struct {
	HTTPStatusCode int
	GRPCStatusCode codes.Code
	ActualError    ErrorResponse
}

// Error returns the encoded message.
func (e *EncodedError) Error() string {
	return e.ActualError.Message
}

// GRPCStatus implements the interface used by status.FromError.
func (e *EncodedError) GRPCStatus() *status.Status {
	return status.New(e.GRPCStatusCode, e.ActualError.Message)
}

// HTTPStatus returns the HTTP status code of the error.
func (e *EncodedError) HTTPStatus() int {
	return e.HTTPStatusCode
}

// CodeValue returns the string representation of the error code.
func (e *EncodedError) CodeValue() string {
	return e.ActualError.Code
}

// NewEncodedError returns the encoded form of a status code and message.
func NewEncodedError(code codes.Code, message string) *EncodedError {
	return &EncodedError{
		HTTPStatusCode: runtime.HTTPStatusFromCode(code),
		GRPCStatusCode: code,
		ActualError: ErrorResponse{
			Code:    EncodedCodeString(code),
			Message: message,
		},
	}
}

// EncodeError converts any error into its encoded form. Errors without a status
// are reported as internal errors.
func EncodeError(err error) *EncodedError {
	st := status.Convert(err)
	if st.Code() == codes.Unknown {
		return NewEncodedError(codes.Internal, InternalServerErrorMsg)
	}
	return NewEncodedError(st.Code(), st.Message())
}

// EncodedCodeString returns code in snake case, for example "invalid_argument".
// Codes outside the known range are rendered as their number.
func EncodedCodeString(code codes.Code) string {
	name := code.String()
	if strings.HasPrefix(name, "Code(") {
		return strings.TrimSuffix(strings.TrimPrefix(name, "Code("), ")")
	}

	var b strings.Builder
	previousLower := false
	for _, r := range name {
		if unicode.IsUpper(r) {
			if previousLower {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
			previousLower = false
		} else {
			previousLower = true
		}
		b.WriteRune(r)
	}
	return b.String()
}

// IsServerError reports whether the error is the server's fault.
func (e *EncodedError) IsServerError() bool {
	return e.HTTPStatusCode >= http.StatusInternalServerError
}
