package errors

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ContentTypeProblemJSON is the media type for Problem Details responses.
const ContentTypeProblemJSON = "application/problem+json"

// ErrorMapper translates a service error into a problem. It returns false for errors it does not own.
type ErrorMapper func(err error) (ProblemDetail, bool)

// Responder writes Problem Details responses. Mappers are tried in order by RespondError.
type Responder struct {
	mappers []ErrorMapper
}

// NewResponder creates a responder consulting the given mappers.
func NewResponder(mappers ...ErrorMapper) *Responder {
	return &Responder{mappers: mappers}
}

// DefaultResponder has no mappers and only passes ProblemDetail errors through.
var DefaultResponder = NewResponder()

// Respond writes the problem and records it on the context for logging middleware.
func (r *Responder) Respond(c *gin.Context, problem ProblemDetail) {
	if problem.Instance == "" {
		problem.Instance = c.Request.URL.Path
	}
	_ = c.Error(problem)
	c.Header("Content-Type", ContentTypeProblemJSON)
	c.JSON(problem.Status, problem)
}

// RespondError maps err to a problem. Unmapped errors become 500s.
func (r *Responder) RespondError(c *gin.Context, err error) {
	for _, mapper := range r.mappers {
		if problem, ok := mapper(err); ok {
			r.Respond(c, problem)
			return
		}
	}
	var problem ProblemDetail
	if errors.As(err, &problem) {
		r.Respond(c, problem)
		return
	}
	r.InternalError(c, err.Error())
}

// NotFound sends a 404 naming the missing resource.
func (r *Responder) NotFound(c *gin.Context, resourceType string, identifier any) {
	r.Respond(c, NewNotFoundProblem(resourceType, identifier))
}

// BadRequest sends a 400 for input that could not be decoded at all.
func (r *Responder) BadRequest(c *gin.Context, detail string) {
	r.Respond(c, ErrBadRequest.WithDetail(detail))
}

// InternalError sends a 500.
func (r *Responder) InternalError(c *gin.Context, detail string) {
	r.Respond(c, ErrInternal.WithDetail(detail))
}

// Respond is a convenience function using the default responder.
func Respond(c *gin.Context, problem ProblemDetail) {
	DefaultResponder.Respond(c, problem)
}

// HTTPStatusFromError returns the status carried by a problem, or 500 for anything else.
func HTTPStatusFromError(err error) int {
	var problem ProblemDetail
	if errors.As(err, &problem) {
		return problem.Status
	}
	return http.StatusInternalServerError
}
