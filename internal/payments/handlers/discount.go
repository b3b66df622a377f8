package handlers

import (
	"errors"
	"github.com/labstack/echo/v4"
	"net/http"
	"paysim/internal/payments"
)

var errDiscountParams = errors.New("points and baseAmount must be integers")

type LoyaltyDiscountHandler struct {
	processor *payments.Processor
}

type discountResponse struct {
	Discount int64 `json:"discount"`
}

func NewLoyaltyDiscountHandler(processor *payments.Processor) *LoyaltyDiscountHandler {
	return &LoyaltyDiscountHandler{
		processor: processor,
	}
}

func (h *LoyaltyDiscountHandler) Handle(c echo.Context) error {
	var points, baseAmount int64
	err := echo.QueryParamsBinder(c).
		MustInt64("points", &points).
		MustInt64("baseAmount", &baseAmount).
		BindError()
	if err != nil {
		return badRequest(c, errDiscountParams)
	}

	discount, err := h.processor.CalculateLoyaltyDiscount(points, baseAmount)
	if err != nil {
		return badRequest(c, err)
	}

	return c.JSON(http.StatusOK, discountResponse{Discount: discount})
}
