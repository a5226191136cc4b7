//go:build pact
// +build pact

package consumer_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"testing"
	"time"

	pacttest "github.com/Apurer/go-gin-bmi-server/test/pact"

	pactconsumer "github.com/pact-foundation/pact-go/v2/consumer"
	pactlog "github.com/pact-foundation/pact-go/v2/log"
	"github.com/pact-foundation/pact-go/v2/matchers"
	"github.com/stretchr/testify/require"
)

type calculationPayload struct {
	ID     string `json:"id"`
	Result struct {
		BMI      float64 `json:"bmi"`
		Category struct {
			Key  string `json:"key"`
			Name string `json:"name"`
		} `json:"category"`
		View struct {
			BMI string `json:"bmi"`
		} `json:"view"`
	} `json:"result"`
}

type problemDetail struct {
	Type       string         `json:"type"`
	Title      string         `json:"title"`
	Status     int            `json:"status"`
	Detail     string         `json:"detail"`
	Extensions map[string]any `json:"extensions"`
}

type apiError struct {
	status int
	title  string
	detail string
	field  string
}

func (e apiError) Error() string {
	msg := e.title
	if msg == "" {
		msg = "api error"
	}
	if e.detail != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.detail)
	}
	return fmt.Sprintf("%s (status %d)", msg, e.status)
}

func (e apiError) Status() int {
	return e.status
}

func TestBMIWebContract(t *testing.T) {
	t.Helper()
	pactlog.SetLogLevel("INFO")

	pact, err := pactconsumer.NewV2Pact(pactconsumer.MockHTTPProviderConfig{
		Consumer: pacttest.ConsumerName,
		Provider: pacttest.ProviderName,
		PactDir:  pacttest.PactDir(t),
		LogDir:   pacttest.LogDir(t),
	})
	require.NoError(t, err)

	jsonContentType := matchers.Regex("application/json; charset=utf-8", "application\\/json(?:;\\s?charset=utf-8)?")
	resultMatcher := matchers.Map{
		"bmi": matchers.Like(22.9),
		"category": matchers.Map{
			"key":  matchers.Term("normal", "underweight|normal|overweight|obese"),
			"name": matchers.Like("Normal (Healthy weight)"),
		},
		"view": matchers.Map{
			"bmi": matchers.Term("22.9", "^\\d+\\.\\d$"),
		},
	}

	pact.AddInteraction().
		Given(pacttest.StateHistoryEmpty).
		UponReceiving("a request to calculate a BMI").
		WithRequest("POST", "/v1/bmi", func(b *pactconsumer.V2RequestBuilder) {
			b.Header("Content-Type", matchers.S("application/json"))
			b.JSONBody(pacttest.ExampleCalculateRequest())
		}).
		WillRespondWith(http.StatusOK, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", jsonContentType)
			b.JSONBody(matchers.Map{"result": resultMatcher})
		})

	pact.AddInteraction().
		Given(pacttest.StateHistoryEmpty).
		UponReceiving("a request to calculate a BMI without a height").
		WithRequest("POST", "/v1/bmi", func(b *pactconsumer.V2RequestBuilder) {
			b.Header("Content-Type", matchers.S("application/json"))
			b.JSONBody(pacttest.ExampleInvalidHeightRequest())
		}).
		WillRespondWith(http.StatusBadRequest, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", matchers.S("application/problem+json"))
			b.JSONBody(matchers.Map{
				"type":       matchers.S("/problems/validation-error"),
				"status":     matchers.Like(http.StatusBadRequest),
				"extensions": matchers.Map{"field": matchers.S("height")},
			})
		})

	pact.AddInteraction().
		Given(pacttest.StateCalculationExists).
		UponReceiving("a request to fetch a recorded calculation").
		WithRequest("GET", "/v1/bmi/calculations/"+pacttest.ExistingCalculationID).
		WillRespondWith(http.StatusOK, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", jsonContentType)
			b.JSONBody(matchers.Map{
				"id":        matchers.S(pacttest.ExistingCalculationID),
				"subjectId": matchers.Like(pacttest.ExistingSubjectID),
				"result":    resultMatcher,
			})
		})

	pact.AddInteraction().
		Given(pacttest.StateHistoryEmpty).
		UponReceiving("a request for a missing calculation").
		WithRequest("GET", "/v1/bmi/calculations/"+pacttest.MissingCalculationID).
		WillRespondWith(http.StatusNotFound, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", matchers.S("application/problem+json"))
			b.JSONBody(matchers.Map{
				"type":   matchers.S("/problems/not-found"),
				"title":  matchers.S("Resource Not Found"),
				"status": matchers.Like(http.StatusNotFound),
			})
		})

	err = pact.ExecuteTest(t, func(config pactconsumer.MockServerConfig) error {
		client := newBMIClient(config)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		calculated, err := client.Calculate(ctx, pacttest.ExampleCalculateRequest())
		if err != nil {
			return fmt.Errorf("calculate: %w", err)
		}
		if calculated.Result.View.BMI == "" || calculated.Result.Category.Key == "" {
			return fmt.Errorf("expected a rendered result, got %+v", calculated)
		}

		if _, err := client.Calculate(ctx, pacttest.ExampleInvalidHeightRequest()); err == nil {
			return fmt.Errorf("expected a validation problem for a blank height")
		} else if apiErr, ok := err.(apiError); !ok || apiErr.field != "height" {
			return fmt.Errorf("expected the problem to name the height field, got %v", err)
		}

		fetched, err := client.GetCalculation(ctx, pacttest.ExistingCalculationID)
		if err != nil {
			return fmt.Errorf("get calculation: %w", err)
		}
		if fetched.ID != pacttest.ExistingCalculationID {
			return fmt.Errorf("expected calculation %s, got %+v", pacttest.ExistingCalculationID, fetched)
		}

		if _, err := client.GetCalculation(ctx, pacttest.MissingCalculationID); err == nil {
			return fmt.Errorf("expected 404 for calculation %s", pacttest.MissingCalculationID)
		} else if apiErr, ok := err.(apiError); ok && apiErr.Status() != http.StatusNotFound {
			return fmt.Errorf("expected 404, got %d", apiErr.Status())
		}

		return nil
	})
	require.NoError(t, err)
}

type bmiClient struct {
	baseURL    string
	httpClient *http.Client
}

func newBMIClient(config pactconsumer.MockServerConfig) *bmiClient {
	host := config.Host
	if host == "" {
		host = "localhost"
	}
	transport := &http.Transport{TLSClientConfig: config.TLSConfig}
	client := &http.Client{Transport: transport, Timeout: 10 * time.Second}
	return &bmiClient{
		baseURL:    fmt.Sprintf("http://%s:%d", host, config.Port),
		httpClient: client,
	}
}

func (c *bmiClient) Calculate(ctx context.Context, request map[string]any) (*calculationPayload, error) {
	body, err := json.Marshal(request)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/bmi", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *bmiClient) GetCalculation(ctx context.Context, id string) (*calculationPayload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/bmi/calculations/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

func (c *bmiClient) do(req *http.Request) (*calculationPayload, error) {
	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusBadRequest {
		return nil, decodeAPIError(res)
	}

	var payload calculationPayload
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func decodeAPIError(res *http.Response) error {
	var problem problemDetail
	_ = json.NewDecoder(res.Body).Decode(&problem)
	status := problem.Status
	if status == 0 {
		status = res.StatusCode
	}
	field, _ := problem.Extensions["field"].(string)
	return apiError{
		status: status,
		title:  problem.Title,
		detail: problem.Detail,
		field:  field,
	}
}
