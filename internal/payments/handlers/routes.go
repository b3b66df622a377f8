package handlers

import (
	"github.com/labstack/echo/v4"
	"paysim/internal/payments"
)

// Register mounts the payment API on e. async may be nil, in which case
// /payments/async is not served.
func Register(e *echo.Echo, processor *payments.Processor, async *AsyncPaymentHandler) {
	e.JSONSerializer = SonicSerializer{}

	e.GET("/health", Health)
	e.POST("/payments", NewPaymentHandler(processor).Handle)
	e.POST("/payments/bulk", NewBulkPaymentHandler(processor).Handle)
	e.GET("/loyalty-discount", NewLoyaltyDiscountHandler(processor).Handle)
	if async != nil {
		e.POST("/payments/async", async.Handle)
	}
}
