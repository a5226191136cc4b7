package bmiserver

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/oapi-codegen/runtime"

	bmihttpmapper "github.com/Apurer/go-gin-bmi-server/internal/domains/bmi/adapters/http/mapper"
	"github.com/Apurer/go-gin-bmi-server/internal/domains/bmi/adapters/presentation"
	bmitypes "github.com/Apurer/go-gin-bmi-server/internal/domains/bmi/application/types"
	bmiports "github.com/Apurer/go-gin-bmi-server/internal/domains/bmi/ports"
	apierrors "github.com/Apurer/go-gin-bmi-server/internal/shared/errors"
)

// HeaderIdempotencyKey makes POST /v1/bmi/calculations safe to retry.
const HeaderIdempotencyKey = "Idempotency-Key"

// BMIAPI wires HTTP transport with the BMI bounded context service and workflows.
type BMIAPI struct {
	service   bmiports.Service
	workflows bmiports.WorkflowOrchestrator
}

// NewBMIAPI creates a BMIAPI backed by the provided service.
func NewBMIAPI(service bmiports.Service, workflows bmiports.WorkflowOrchestrator) BMIAPI {
	return BMIAPI{service: service, workflows: workflows}
}

// Post /v1/bmi
// Calculate a BMI without recording it
func (api *BMIAPI) Calculate(c *gin.Context) {
	var payload bmihttpmapper.CalculateRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadRequest(c, err)
		return
	}
	api.calculate(c, bmihttpmapper.ToCalculateInput(payload, ""))
}

// Get /v1/bmi
// Calculate a BMI from query parameters
func (api *BMIAPI) CalculateFromQuery(c *gin.Context) {
	query := c.Request.URL.Query()
	var payload bmihttpmapper.CalculateRequest
	var err error
	if payload.Weight.Value, err = bindAmount(query, "weight"); err != nil {
		respondBadRequest(c, err)
		return
	}
	if payload.Weight.Unit, err = bindString(query, "weightUnit"); err != nil {
		respondBadRequest(c, err)
		return
	}
	if payload.Height.Value, err = bindAmount(query, "height"); err != nil {
		respondBadRequest(c, err)
		return
	}
	if payload.Height.Unit, err = bindString(query, "heightUnit"); err != nil {
		respondBadRequest(c, err)
		return
	}
	api.calculate(c, bmihttpmapper.ToCalculateInput(payload, ""))
}

func (api *BMIAPI) calculate(c *gin.Context, input bmitypes.CalculateInput) {
	projection, err := api.service.Calculate(c.Request.Context(), input)
	if err != nil {
		respondBMIServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, bmihttpmapper.FromProjection(projection))
}

// Post /v1/bmi/calculations
// Calculate a BMI and append it to the history
func (api *BMIAPI) RecordCalculation(c *gin.Context) {
	var payload bmihttpmapper.CalculateRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadRequest(c, err)
		return
	}
	input := bmihttpmapper.ToCalculateInput(payload, c.GetHeader(HeaderIdempotencyKey))
	ctx := c.Request.Context()
	// Validate up front so the problem names the field even when the workflow runs remotely.
	if _, err := api.service.Calculate(ctx, input); err != nil {
		respondBMIServiceError(c, err)
		return
	}
	saved, err := api.recordCalculation(ctx, input)
	if err != nil {
		respondBMIServiceError(c, err)
		return
	}
	response := bmihttpmapper.FromProjection(saved)
	c.Header("Location", "/v1/bmi/calculations/"+url.PathEscape(response.ID))
	c.JSON(http.StatusCreated, response)
}

func (api *BMIAPI) recordCalculation(ctx context.Context, input bmitypes.CalculateInput) (*bmitypes.CalculationProjection, error) {
	if api.workflows != nil {
		return api.workflows.RecordCalculation(ctx, input)
	}
	return api.service.RecordCalculation(ctx, input)
}

// Get /v1/bmi/calculations
// Lists recorded calculations, newest first
func (api *BMIAPI) ListCalculations(c *gin.Context) {
	query := c.Request.URL.Query()
	subjectID, err := bindString(query, "subjectId")
	if err != nil {
		respondBadRequest(c, err)
		return
	}
	var limit *int
	if err := runtime.BindQueryParameter("form", true, false, "limit", query, &limit); err != nil {
		respondProblem(c, apierrors.NewFieldProblem("limit", err.Error()))
		return
	}
	input := bmitypes.ListCalculationsInput{SubjectID: subjectID}
	if limit != nil {
		input.Limit = *limit
	}
	result, err := api.service.ListCalculations(c.Request.Context(), input)
	if err != nil {
		respondBMIServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, bmihttpmapper.FromProjectionList(result))
}

// Get /v1/bmi/calculations/:calculationId
// Find a recorded calculation by ID
func (api *BMIAPI) GetCalculation(c *gin.Context) {
	id, ok := parseIDParam(c, "calculationId")
	if !ok {
		return
	}
	calc, err := api.service.GetCalculation(c.Request.Context(), bmitypes.CalculationIdentifier{ID: id})
	if err != nil {
		respondCalculationError(c, id, err)
		return
	}
	c.JSON(http.StatusOK, bmihttpmapper.FromProjection(calc))
}

// Delete /v1/bmi/calculations/:calculationId
// Deletes a recorded calculation
func (api *BMIAPI) DeleteCalculation(c *gin.Context) {
	id, ok := parseIDParam(c, "calculationId")
	if !ok {
		return
	}
	if err := api.service.DeleteCalculation(c.Request.Context(), bmitypes.CalculationIdentifier{ID: id}); err != nil {
		respondCalculationError(c, id, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Get /v1/bmi/categories
// Lists the classification bands in ladder order
func (api *BMIAPI) ListCategories(c *gin.Context) {
	c.JSON(http.StatusOK, bmihttpmapper.FromCategories(api.service.Categories(c.Request.Context())))
}

// Get /v1/bmi/form
// Returns the reset form state with the placeholder view
func (api *BMIAPI) GetDefaultForm(c *gin.Context) {
	c.JSON(http.StatusOK, presentation.DefaultForm(api.service.DefaultForm(c.Request.Context())))
}

// Get /healthz
func (api *BMIAPI) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func parseIDParam(c *gin.Context, name string) (string, bool) {
	value := strings.TrimSpace(c.Param(name))
	if value == "" {
		respondProblem(c, apierrors.NewFieldProblem(name, "identifier is required"))
		return "", false
	}
	return value, true
}

func bindString(query url.Values, name string) (string, error) {
	var value *string
	if err := runtime.BindQueryParameter("form", true, false, name, query, &value); err != nil {
		return "", err
	}
	if value == nil {
		return "", nil
	}
	return *value, nil
}

func bindAmount(query url.Values, name string) (bmihttpmapper.Amount, error) {
	value, err := bindString(query, name)
	return bmihttpmapper.Amount(value), err
}
