package handlers

import (
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"net/http"
	"paysim/internal/payments"
)

type BulkPaymentHandler struct {
	processor *payments.Processor
}

func NewBulkPaymentHandler(processor *payments.Processor) *BulkPaymentHandler {
	return &BulkPaymentHandler{
		processor: processor,
	}
}

func (h *BulkPaymentHandler) Handle(c echo.Context) error {
	ctx := c.Request().Context()
	tracer := otel.Tracer("bulk-payment-handler")
	ctx, span := tracer.Start(ctx, "bulk-payment-handler", trace.WithAttributes(
		attribute.String("handler", "bulk-payment"),
	))
	defer span.End()

	var reqs []payments.PaymentRequest
	if err := c.Bind(&reqs); err != nil {
		span.RecordError(err)
		return badRequest(c, err)
	}

	return c.JSON(http.StatusOK, h.processor.BulkProcess(ctx, reqs))
}
