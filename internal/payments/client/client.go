// Package client talks to the payment API over HTTP.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"github.com/bytedance/sonic"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"io"
	"net/http"
	"net/url"
	"paysim/internal/payments"
	"strconv"
	"strings"
	"time"
)

var ErrUnavailable = errors.New("payment api unavailable")

// APIError is a non-2xx answer from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("payment api returned %d: %s", e.StatusCode, e.Message)
}

type PaymentResponse = payments.Receipt

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewHTTPClient(timeout time.Duration, traced bool) *http.Client {
	transport := http.DefaultTransport
	if traced {
		transport = otelhttp.NewTransport(http.DefaultTransport)
	}
	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = NewHTTPClient(5*time.Second, false)
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

func (c *Client) ProcessPayment(ctx context.Context, req payments.PaymentRequest) (PaymentResponse, error) {
	var resp PaymentResponse
	err := c.do(ctx, http.MethodPost, "/payments", req, &resp)
	return resp, err
}

func (c *Client) BulkProcess(ctx context.Context, reqs []payments.PaymentRequest) ([]payments.PaymentResult, error) {
	if reqs == nil {
		reqs = []payments.PaymentRequest{}
	}
	var results []payments.PaymentResult
	err := c.do(ctx, http.MethodPost, "/payments/bulk", reqs, &results)
	return results, err
}

// SubmitAsync queues req and returns its correlation id.
func (c *Client) SubmitAsync(ctx context.Context, req payments.PaymentRequest) (string, error) {
	var resp struct {
		CorrelationId string `json:"correlationId"`
	}
	err := c.do(ctx, http.MethodPost, "/payments/async", req, &resp)
	return resp.CorrelationId, err
}

func (c *Client) LoyaltyDiscount(ctx context.Context, points, baseAmount int64) (int64, error) {
	query := url.Values{}
	query.Set("points", strconv.FormatInt(points, 10))
	query.Set("baseAmount", strconv.FormatInt(baseAmount, 10))

	var resp struct {
		Discount int64 `json:"discount"`
	}
	err := c.do(ctx, http.MethodGet, "/loyalty-discount?"+query.Encode(), nil, &resp)
	return resp.Discount, err
}

func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	tracer := otel.Tracer("payment-client")
	ctx, span := tracer.Start(ctx, "call-payment-api", trace.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("api.path", path),
	))
	defer span.End()

	var body io.Reader
	if in != nil {
		data, err := sonic.ConfigFastest.Marshal(in)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "Failed to serialize request body")
			return fmt.Errorf("failed to serialize the request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to create HTTP request")
		return fmt.Errorf("unable to create http request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Error sending HTTP request")
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var errBody struct {
			Error string `json:"error"`
		}
		if err := sonic.ConfigFastest.NewDecoder(resp.Body).Decode(&errBody); err == nil && errBody.Error != "" {
			apiErr.Message = errBody.Error
		}
		span.SetStatus(codes.Error, apiErr.Message)
		return apiErr
	}

	if out != nil {
		if err := sonic.ConfigFastest.NewDecoder(resp.Body).Decode(out); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "Failed to decode response body")
			return fmt.Errorf("failed to decode the response body: %w", err)
		}
	}

	span.SetStatus(codes.Ok, "")
	return nil
}
