package handlers

import (
	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/zoobzio/clockz"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"net/http"
	"paysim/internal/payments"
)

// AsyncPaymentHandler queues a payment request on the request stream for the
// stream worker and answers before it is processed.
type AsyncPaymentHandler struct {
	redisClient *redis.Client
	stream      string
	clock       clockz.Clock
}

type asyncResponse struct {
	CorrelationId string `json:"correlationId"`
}

func NewAsyncPaymentHandler(redisClient *redis.Client, stream string, clock clockz.Clock) *AsyncPaymentHandler {
	if clock == nil {
		clock = clockz.RealClock
	}
	return &AsyncPaymentHandler{
		redisClient: redisClient,
		stream:      stream,
		clock:       clock,
	}
}

func (h *AsyncPaymentHandler) Handle(c echo.Context) error {
	ctx := c.Request().Context()
	tracer := otel.Tracer("async-payment-handler")
	ctx, span := tracer.Start(ctx, "async-payment-handler", trace.WithAttributes(
		attribute.String("handler", "async-payment"),
	))
	defer span.End()

	var req payments.PaymentRequest
	if err := c.Bind(&req); err != nil {
		span.RecordError(err)
		return badRequest(c, err)
	}

	paymentMsg := payments.PaymentMessage{
		PaymentRequest: req,
		CorrelationId:  uuid.NewString(),
		RequestedAt:    h.clock.Now().UTC(),
	}

	span.SetAttributes(
		attribute.Int64("payment.amount", req.Amount),
		attribute.String("payment.correlation_id", paymentMsg.CorrelationId),
	)

	data, err := sonic.ConfigFastest.Marshal(paymentMsg)
	if err != nil {
		span.RecordError(err)
		c.Logger().Errorf("error while marshalling the payment: %v", err)
		return c.NoContent(http.StatusInternalServerError)
	}

	err = h.redisClient.XAdd(ctx, &redis.XAddArgs{
		Stream: h.stream,
		Values: map[string]interface{}{
			"data": string(data),
		},
	}).Err()
	if err != nil {
		span.RecordError(err)
		c.Logger().Errorf("error while publishing the payment: %v", err)
		return c.NoContent(http.StatusInternalServerError)
	}

	return c.JSON(http.StatusAccepted, asyncResponse{CorrelationId: paymentMsg.CorrelationId})
}
