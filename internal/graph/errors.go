package graph

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

// ErrClientClosed is returned by Execute once shutdown has begun and the
// client no longer accepts new logical calls.
var ErrClientClosed = errors.New("graph: client is closed")

const maxBodySnippet = 500

// APIError is the common shape of a non-2xx Graph response. The concrete
// kinds below embed it so callers can match either the family or a specific
// status with errors.As.
type APIError struct {
	StatusCode int
	Endpoint   string
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	if e == nil {
		return "graph api error"
	}
	return fmt.Sprintf("graph request failed: status %d: %s", e.StatusCode, e.Message)
}

// Code returns the stable error code for boundary rendering.
func (e *APIError) Code() string { return "GRAPH_API_ERROR" }

// Details returns the structured form consumed by the HTTP boundary.
func (e *APIError) Details() map[string]any {
	d := map[string]any{
		"status_code": e.StatusCode,
		"endpoint":    e.Endpoint,
	}
	if e.Body != "" {
		d["response_body"] = e.Body
	}
	return d
}

// BadRequestError is a 400 from Graph. Never retried.
type BadRequestError struct {
	APIError
}

func (e *BadRequestError) Code() string { return "BAD_REQUEST" }

// PermissionDeniedError is a 403 from Graph. Usually means the application
// permission is missing or admin consent was never granted.
type PermissionDeniedError struct {
	APIError
}

func (e *PermissionDeniedError) Code() string { return "PERMISSION_DENIED" }

// NotFoundError is a 404 from Graph, annotated with a best-effort inferred
// resource kind and, where the path allows it, a diagnostic hint.
type NotFoundError struct {
	APIError
	ResourceType string
	Hint         string
}

func (e *NotFoundError) Code() string { return "NOT_FOUND" }

func (e *NotFoundError) Details() map[string]any {
	d := e.APIError.Details()
	if e.ResourceType != "" {
		d["resource_type"] = e.ResourceType
	}
	if e.Hint != "" {
		d["hint"] = e.Hint
	}
	return d
}

// RateLimitError is a 429 from Graph carrying the Retry-After value the
// service asked for.
type RateLimitError struct {
	APIError
	RetryAfter time.Duration
}

func (e *RateLimitError) Code() string { return "RATE_LIMITED" }

func (e *RateLimitError) Details() map[string]any {
	d := e.APIError.Details()
	d["retry_after_seconds"] = int(e.RetryAfter / time.Second)
	return d
}

// ServerError is a 5xx from Graph. Retried with exponential backoff.
type ServerError struct {
	APIError
}

func (e *ServerError) Code() string { return "UPSTREAM_SERVER_ERROR" }

// NetworkErrorKind distinguishes the failure classes of a request that never
// produced an HTTP response.
type NetworkErrorKind string

const (
	NetworkConnection NetworkErrorKind = "connection"
	NetworkTimeout    NetworkErrorKind = "timeout"
	NetworkDNS        NetworkErrorKind = "dns"
)

// NetworkError wraps a transport-level failure. Treated like a 5xx for retry
// purposes.
type NetworkError struct {
	Kind     NetworkErrorKind
	Endpoint string
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("graph request failed: %s error: %v", e.Kind, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

func (e *NetworkError) Code() string { return "NETWORK_ERROR" }

func (e *NetworkError) Details() map[string]any {
	return map[string]any{
		"kind":     string(e.Kind),
		"endpoint": e.Endpoint,
	}
}

// ValidationError reports a bad caller-supplied argument before any network
// traffic happens.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Message)
	}
	return "validation failed: " + e.Message
}

func (e *ValidationError) Code() string { return "VALIDATION_FAILED" }

func (e *ValidationError) Details() map[string]any {
	d := map[string]any{}
	if e.Field != "" {
		d["field"] = e.Field
	}
	return d
}

// RetriesExceededError is raised when the attempt loop exhausts its budget
// without a terminal outcome. It carries the last observed status or error so
// callers can see what kept failing.
type RetriesExceededError struct {
	Endpoint   string
	Attempts   int
	LastStatus int
	LastErr    error
}

func (e *RetriesExceededError) Error() string {
	if e.LastErr != nil {
		return fmt.Sprintf("max retries exceeded for %s after %d attempts: %v", e.Endpoint, e.Attempts, e.LastErr)
	}
	return fmt.Sprintf("max retries exceeded for %s after %d attempts (last status %d)", e.Endpoint, e.Attempts, e.LastStatus)
}

func (e *RetriesExceededError) Unwrap() error { return e.LastErr }

func (e *RetriesExceededError) Code() string { return "RETRIES_EXHAUSTED" }

func (e *RetriesExceededError) Details() map[string]any {
	d := map[string]any{
		"endpoint": e.Endpoint,
		"attempts": e.Attempts,
	}
	if e.LastStatus != 0 {
		d["last_status"] = e.LastStatus
	}
	if e.LastErr != nil {
		d["last_error"] = e.LastErr.Error()
	}
	return d
}

// classifyStatus maps a non-retriable (or retry-exhausted) HTTP status to the
// matching typed error, deriving diagnostic hints from the path where we can.
func classifyStatus(status int, endpoint string, body string) error {
	base := APIError{
		StatusCode: status,
		Endpoint:   endpoint,
		Message:    fmt.Sprintf("HTTP %d from %s", status, endpoint),
		Body:       truncate(body, maxBodySnippet),
	}

	switch {
	case status == 400:
		base.Message = "bad request to " + endpoint
		return &BadRequestError{APIError: base}
	case status == 403:
		base.Message = "permission denied accessing " + endpoint + " (check application permissions and admin consent)"
		return &PermissionDeniedError{APIError: base}
	case status == 404:
		base.Message = "resource not found: " + endpoint
		return &NotFoundError{
			APIError:     base,
			ResourceType: inferResourceType(endpoint),
			Hint:         notFoundHint(endpoint),
		}
	case status == 429:
		base.Message = "rate limit exceeded for " + endpoint
		return &RateLimitError{APIError: base}
	case status >= 500:
		base.Message = fmt.Sprintf("server error (%d) from %s", status, endpoint)
		return &ServerError{APIError: base}
	default:
		return &base
	}
}

// inferResourceType guesses what kind of resource a 404 was about from the
// path shape. Best effort only.
func inferResourceType(endpoint string) string {
	p := strings.ToLower(endpoint)
	switch {
	case strings.Contains(p, "/messages"), strings.Contains(p, "/mailfolder"):
		return "message"
	case strings.Contains(p, "/events"), strings.Contains(p, "/calendar"):
		return "calendar_event"
	case strings.Contains(p, "/onlinemeetings"):
		return "online_meeting"
	case strings.Contains(p, "/channels"):
		return "channel"
	case strings.Contains(p, "/teams"):
		return "team"
	case strings.Contains(p, "/users/"):
		return "user"
	}
	return ""
}

// notFoundHint covers the common operational surprise: guests and external
// accounts resolve as users but have no Exchange mailbox provisioned.
func notFoundHint(endpoint string) string {
	p := strings.ToLower(endpoint)
	if strings.Contains(p, "/users/") &&
		(strings.Contains(p, "/messages") || strings.Contains(p, "/mailfolder")) {
		return "user may not have a mailbox (external guest accounts often don't)"
	}
	if strings.Contains(p, "/users/") {
		return "user may be an external account or may not exist"
	}
	return ""
}

// classifyNetworkErr wraps a transport failure in a NetworkError with the
// narrowest kind we can determine.
func classifyNetworkErr(err error, endpoint string) *NetworkError {
	kind := NetworkConnection

	var dnsErr *net.DNSError
	var netErr net.Error
	switch {
	case errors.As(err, &dnsErr):
		kind = NetworkDNS
	case errors.Is(err, context.DeadlineExceeded):
		kind = NetworkTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		kind = NetworkTimeout
	}

	return &NetworkError{Kind: kind, Endpoint: endpoint, Err: err}
}

// IsRetriable reports whether the executor may retry after this error.
// Rate limits, upstream server errors, and network failures are retriable;
// everything else propagates on first occurrence.
func IsRetriable(err error) bool {
	var rl *RateLimitError
	var srv *ServerError
	var netw *NetworkError
	return errors.As(err, &rl) || errors.As(err, &srv) || errors.As(err, &netw)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
