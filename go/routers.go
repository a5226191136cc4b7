// Package bmiserver exposes the BMI HTTP API on gin.
package bmiserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Route is the information for every URI.
type Route struct {
	// Name is the name of this Route.
	Name string
	// Method is the string for the HTTP method. ex) GET, POST etc..
	Method string
	// Pattern is the pattern of the URI.
	Pattern string
	// HandlerFunc is the handler function of this route.
	HandlerFunc gin.HandlerFunc
}

// ApiHandleFunctions groups the handlers mounted by NewRouter.
type ApiHandleFunctions struct {
	// Routes for the BMI part of the API
	BMIAPI BMIAPI
	// Metrics serves /metrics when set.
	Metrics http.Handler
}

// NewRouter returns a new router.
func NewRouter(handleFunctions ApiHandleFunctions, middleware ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(middleware...)
	return NewRouterWithGinEngine(router, handleFunctions)
}

// NewRouterWithGinEngine adds the API routes to an existing engine.
func NewRouterWithGinEngine(router *gin.Engine, handleFunctions ApiHandleFunctions) *gin.Engine {
	for _, route := range getRoutes(handleFunctions) {
		if route.HandlerFunc == nil {
			route.HandlerFunc = DefaultHandleFunc
		}
		switch route.Method {
		case http.MethodGet:
			router.GET(route.Pattern, route.HandlerFunc)
		case http.MethodPost:
			router.POST(route.Pattern, route.HandlerFunc)
		case http.MethodPut:
			router.PUT(route.Pattern, route.HandlerFunc)
		case http.MethodPatch:
			router.PATCH(route.Pattern, route.HandlerFunc)
		case http.MethodDelete:
			router.DELETE(route.Pattern, route.HandlerFunc)
		}
	}
	return router
}

// DefaultHandleFunc answers routes without a handler.
func DefaultHandleFunc(c *gin.Context) {
	c.String(http.StatusNotImplemented, "501 not implemented")
}

func getRoutes(handleFunctions ApiHandleFunctions) []Route {
	routes := []Route{
		{
			"Health",
			http.MethodGet,
			"/healthz",
			handleFunctions.BMIAPI.Health,
		},
		{
			"Calculate",
			http.MethodPost,
			"/v1/bmi",
			handleFunctions.BMIAPI.Calculate,
		},
		{
			"CalculateFromQuery",
			http.MethodGet,
			"/v1/bmi",
			handleFunctions.BMIAPI.CalculateFromQuery,
		},
		{
			"ListCategories",
			http.MethodGet,
			"/v1/bmi/categories",
			handleFunctions.BMIAPI.ListCategories,
		},
		{
			"GetDefaultForm",
			http.MethodGet,
			"/v1/bmi/form",
			handleFunctions.BMIAPI.GetDefaultForm,
		},
		{
			"RecordCalculation",
			http.MethodPost,
			"/v1/bmi/calculations",
			handleFunctions.BMIAPI.RecordCalculation,
		},
		{
			"ListCalculations",
			http.MethodGet,
			"/v1/bmi/calculations",
			handleFunctions.BMIAPI.ListCalculations,
		},
		{
			"GetCalculation",
			http.MethodGet,
			"/v1/bmi/calculations/:calculationId",
			handleFunctions.BMIAPI.GetCalculation,
		},
		{
			"DeleteCalculation",
			http.MethodDelete,
			"/v1/bmi/calculations/:calculationId",
			handleFunctions.BMIAPI.DeleteCalculation,
		},
	}
	if handleFunctions.Metrics != nil {
		routes = append(routes, Route{
			"Metrics",
			http.MethodGet,
			"/metrics",
			gin.WrapH(handleFunctions.Metrics),
		})
	}
	return routes
}
