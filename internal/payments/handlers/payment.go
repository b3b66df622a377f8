package handlers

import (
	"errors"
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"net/http"
	"paysim/internal/payments"
)

type PaymentHandler struct {
	processor *payments.Processor
}

func NewPaymentHandler(processor *payments.Processor) *PaymentHandler {
	return &PaymentHandler{
		processor: processor,
	}
}

func (h *PaymentHandler) Handle(c echo.Context) error {
	ctx := c.Request().Context()
	tracer := otel.Tracer("payment-handler")
	ctx, span := tracer.Start(ctx, "payment-handler", trace.WithAttributes(
		attribute.String("handler", "payment"),
	))
	defer span.End()

	var req payments.PaymentRequest
	if err := c.Bind(&req); err != nil {
		span.RecordError(err)
		return badRequest(c, err)
	}

	receipt, err := h.processor.Process(ctx, req)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, payments.ErrInvalidArgument) {
			return badRequest(c, err)
		}
		c.Logger().Errorf("error while processing the payment: %v", err)
		return c.NoContent(http.StatusInternalServerError)
	}

	return c.JSON(http.StatusOK, receipt)
}
