package bmiserver

import (
	"errors"

	"github.com/gin-gonic/gin"

	bmiapp "github.com/Apurer/go-gin-bmi-server/internal/domains/bmi/application"
	"github.com/Apurer/go-gin-bmi-server/internal/domains/bmi/domain"
	bmiports "github.com/Apurer/go-gin-bmi-server/internal/domains/bmi/ports"
	apierrors "github.com/Apurer/go-gin-bmi-server/internal/shared/errors"
)

var bmiResponder = apierrors.NewResponder(mapBMIError)

// mapBMIError maps application errors, pointing validation failures at the field to fix.
func mapBMIError(err error) (apierrors.ProblemDetail, bool) {
	switch {
	case errors.Is(err, bmiapp.ErrInvalidInput):
		detail := err.Error()
		var validation *domain.ValidationError
		if errors.As(err, &validation) {
			detail = validation.Error()
		}
		return apierrors.NewFieldProblem(domain.FieldOf(err), detail), true
	case errors.Is(err, bmiports.ErrNotFound):
		return apierrors.ErrNotFound.WithDetail(err.Error()), true
	case errors.Is(err, bmiports.ErrIdempotencyConflict):
		return apierrors.ErrConflict.WithDetail(err.Error()), true
	}
	return apierrors.ProblemDetail{}, false
}

func respondProblem(c *gin.Context, problem apierrors.ProblemDetail) {
	bmiResponder.Respond(c, problem)
}

func respondBadRequest(c *gin.Context, err error) {
	bmiResponder.BadRequest(c, err.Error())
}

func respondBMIServiceError(c *gin.Context, err error) {
	bmiResponder.RespondError(c, err)
}

// respondCalculationError names the calculation when it is missing.
func respondCalculationError(c *gin.Context, id string, err error) {
	if errors.Is(err, bmiports.ErrNotFound) {
		bmiResponder.NotFound(c, "calculation", id)
		return
	}
	respondBMIServiceError(c, err)
}
