package models

import (
	"encoding/json"
	"net/http"
)

// ProblemContentType is the media type of every error body the API sends.
const ProblemContentType = "application/problem+json"

// Problem is an RFC 7807 error document.
type Problem struct {
	Type     string       `json:"type"`
	Title    string       `json:"title"`
	Status   int          `json:"status"`
	Detail   string       `json:"detail,omitempty"`
	Instance string       `json:"instance,omitempty"`
	TraceID  string       `json:"traceId"`
	Errors   []FieldError `json:"errors,omitempty"`
}

// FieldError pins a validation failure to one input field, e.g.
// {"field":"lat","message":"must be between -90 and 90","code":"OUT_OF_RANGE"}.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

const problemBase = "https://api.airsight.app/problems/"

// Problem type URIs.
const (
	ProblemTypeValidation           = problemBase + "validation-error"
	ProblemTypeUnauthorized         = problemBase + "unauthorized"
	ProblemTypeNotFound             = problemBase + "not-found"
	ProblemTypeConflict             = problemBase + "conflict"
	ProblemTypeLimitReached         = problemBase + "limit-reached"
	ProblemTypeUnsupportedMediaType = problemBase + "unsupported-media-type"
	ProblemTypeTooManyRequests      = problemBase + "too-many-requests"
	ProblemTypeInternal             = problemBase + "internal-error"
	ProblemTypeUnavailable          = problemBase + "service-unavailable"
	ProblemTypeTLSRequired          = problemBase + "tls-required"
)

type problemKind struct {
	uri   string
	title string
}

var kinds = map[int]problemKind{
	http.StatusBadRequest:           {ProblemTypeValidation, "Validation error"},
	http.StatusUnauthorized:         {ProblemTypeUnauthorized, "Unauthorized"},
	http.StatusNotFound:             {ProblemTypeNotFound, "Not found"},
	http.StatusConflict:             {ProblemTypeConflict, "Conflict"},
	http.StatusUnsupportedMediaType: {ProblemTypeUnsupportedMediaType, "Unsupported media type"},
	http.StatusUnprocessableEntity:  {ProblemTypeLimitReached, "Limit reached"},
	http.StatusTooManyRequests:      {ProblemTypeTooManyRequests, "Too many requests"},
	http.StatusInternalServerError:  {ProblemTypeInternal, "Internal server error"},
	http.StatusServiceUnavailable:   {ProblemTypeUnavailable, "Service unavailable"},
}

// NewProblem builds a problem with an explicit type URI.
func NewProblem(problemType, title string, status int, traceID string) *Problem {
	return &Problem{Type: problemType, Title: title, Status: status, TraceID: traceID}
}

// ForStatus builds the API's standard problem for status. Unlisted statuses
// fall back to about:blank with the HTTP reason phrase, as RFC 7807 allows.
func ForStatus(status int, traceID, detail string) *Problem {
	kind, ok := kinds[status]
	if !ok {
		kind = problemKind{uri: "about:blank", title: http.StatusText(status)}
	}
	return NewProblem(kind.uri, kind.title, status, traceID).WithDetail(detail)
}

// WithDetail sets the occurrence-specific explanation.
func (p *Problem) WithDetail(detail string) *Problem {
	p.Detail = detail
	return p
}

// WithInstance sets the request path the problem occurred on.
func (p *Problem) WithInstance(instance string) *Problem {
	p.Instance = instance
	return p
}

// WithErrors attaches per-field validation failures.
func (p *Problem) WithErrors(errors []FieldError) *Problem {
	p.Errors = errors
	return p
}

// Write sends the problem with its status code. The trace ID is echoed in
// X-Request-Id so clients can quote it when reporting issues.
func (p *Problem) Write(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Content-Type", ProblemContentType)
	h.Del("Content-Length")
	if p.TraceID != "" {
		h.Set("X-Request-Id", p.TraceID)
	}
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

// NewBadRequest is a 400 carrying field errors.
func NewBadRequest(traceID, detail string, errors []FieldError) *Problem {
	return ForStatus(http.StatusBadRequest, traceID, detail).WithErrors(errors)
}

// NewUnauthorized is a 401.
func NewUnauthorized(traceID, detail string) *Problem {
	return ForStatus(http.StatusUnauthorized, traceID, detail)
}

// NewNotFound is a 404.
func NewNotFound(traceID, detail string) *Problem {
	return ForStatus(http.StatusNotFound, traceID, detail)
}

// NewConflict is a 409, used for a location saved twice.
func NewConflict(traceID, detail string) *Problem {
	return ForStatus(http.StatusConflict, traceID, detail)
}

// NewUnsupportedMediaType is a 415 naming the rejected Content-Type.
func NewUnsupportedMediaType(traceID, contentType string) *Problem {
	return ForStatus(http.StatusUnsupportedMediaType, traceID,
		"request body must be application/json, got "+contentType)
}

// NewUnprocessable is a 422 for a well-formed request that hits a per-user
// limit, such as the saved location cap.
func NewUnprocessable(traceID, detail string) *Problem {
	return ForStatus(http.StatusUnprocessableEntity, traceID, detail)
}

// NewTooManyRequests is a 429.
func NewTooManyRequests(traceID, detail string) *Problem {
	return ForStatus(http.StatusTooManyRequests, traceID, detail)
}

// NewInternalError is a 500. detail must not leak internals.
func NewInternalError(traceID, detail string) *Problem {
	return ForStatus(http.StatusInternalServerError, traceID, detail)
}

// NewServiceUnavailable is a 503, used when upstream data sources are down.
func NewServiceUnavailable(traceID, detail string) *Problem {
	return ForStatus(http.StatusServiceUnavailable, traceID, detail)
}
