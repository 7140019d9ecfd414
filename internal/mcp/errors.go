package mcp

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/HyphaGroup/adgate/internal/graph"
	"github.com/HyphaGroup/adgate/internal/logger"
	"github.com/HyphaGroup/adgate/internal/session"
	"github.com/HyphaGroup/adgate/internal/tokens"
)

// ErrorKind names the class of a failed tool invocation.
type ErrorKind string

const (
	KindValidation         ErrorKind = "validation"
	KindSessionMissing     ErrorKind = "session_missing"
	KindNoResourceSelected ErrorKind = "no_resource_selected"
	KindUpstreamRejection  ErrorKind = "upstream_rejection"
	KindUnknownTool        ErrorKind = "unknown_tool"
	KindForbidden          ErrorKind = "forbidden"
	KindUnexpected         ErrorKind = "unexpected"
)

// JSON-RPC error codes
const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternalError  = -32603
	codeServerError    = -32000
	codeSessionMissing = -32001
	codeNoAccount      = -32002
	codeForbidden      = -32003
)

// RPCCode maps a kind to the JSON-RPC error code sent over WebSocket.
func (k ErrorKind) RPCCode() int {
	switch k {
	case KindValidation:
		return codeInvalidParams
	case KindSessionMissing:
		return codeSessionMissing
	case KindNoResourceSelected:
		return codeNoAccount
	case KindUnknownTool:
		return codeMethodNotFound
	case KindForbidden:
		return codeForbidden
	case KindUnexpected:
		return codeInternalError
	default:
		return codeServerError
	}
}

// HTTPStatus maps a kind to the status of the plain HTTP call endpoint.
func (k ErrorKind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindSessionMissing:
		return http.StatusUnauthorized
	case KindNoResourceSelected:
		return http.StatusConflict
	case KindUnknownTool:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindUpstreamRejection:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ArgumentError reports tool arguments a handler cannot use.
type ArgumentError struct {
	Field   string
	Message string
}

func (e *ArgumentError) Error() string {
	return e.Message
}

// argError builds an ArgumentError for field
func argError(field, format string, args ...any) error {
	return &ArgumentError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ErrPermissionDenied is returned when the gateway token may not call a tool.
var ErrPermissionDenied = errors.New("permission denied for this token")

// Classify sorts an error returned by a handler into the failure taxonomy.
func Classify(err error) ErrorKind {
	var argErr *ArgumentError
	var credErr *session.ValidationError
	var fallbackErr *tokens.FallbackError

	switch {
	case err == nil:
		return ""
	case errors.As(err, &argErr), errors.As(err, &credErr):
		return KindValidation
	case errors.Is(err, session.ErrSessionNotFound):
		return KindSessionMissing
	case errors.Is(err, session.ErrNoResourceSelected):
		return KindNoResourceSelected
	case errors.Is(err, ErrPermissionDenied):
		return KindForbidden
	case errors.As(err, &fallbackErr), graph.IsAPIError(err):
		return KindUpstreamRejection
	default:
		return KindUnexpected
	}
}

// sensitivePatterns contains substrings that indicate sensitive error details
var sensitivePatterns = []string{
	"access_token",
	"client_secret",
	"appsecret",
	"password",
	"bearer",
}

// internalErrorPatterns contains substrings that indicate internal errors
var internalErrorPatterns = []string{
	"connection refused",
	"no such host",
	"tls:",
	"i/o timeout",
	"context deadline exceeded",
	"EOF",
}

// SanitizeError returns a client-safe message for err. Upstream rejections
// and argument errors pass through verbatim; transport and internal errors
// are logged in full and summarized.
func SanitizeError(err error, operation string) string {
	if err == nil {
		return ""
	}

	errStr := err.Error()
	if Classify(err) != KindUnexpected {
		return errStr
	}

	lower := strings.ToLower(errStr)
	for _, pattern := range sensitivePatterns {
		if strings.Contains(lower, pattern) {
			logger.Error("%s failed (sensitive): %v", operation, err)
			return fmt.Sprintf("%s failed: internal error", operation)
		}
	}

	for _, pattern := range internalErrorPatterns {
		if strings.Contains(lower, strings.ToLower(pattern)) {
			logger.Error("%s failed (internal): %v", operation, err)
			return fmt.Sprintf("%s failed: upstream unavailable", operation)
		}
	}

	return errStr
}
