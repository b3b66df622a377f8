package handlers

import (
	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	"net/http"
)

// SonicSerializer swaps echo's encoding/json serializer for sonic.
type SonicSerializer struct{}

func (SonicSerializer) Serialize(c echo.Context, i interface{}, indent string) error {
	enc := sonic.ConfigFastest.NewEncoder(c.Response())
	if indent != "" {
		enc.SetIndent("", indent)
	}
	return enc.Encode(i)
}

func (SonicSerializer) Deserialize(c echo.Context, i interface{}) error {
	if err := sonic.ConfigFastest.NewDecoder(c.Request().Body).Decode(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed JSON body").SetInternal(err)
	}
	return nil
}

type errorResponse struct {
	Error string `json:"error"`
}

func badRequest(c echo.Context, err error) error {
	msg := err.Error()
	if he, ok := err.(*echo.HTTPError); ok {
		if s, ok := he.Message.(string); ok {
			msg = s
		}
	}
	return c.JSON(http.StatusBadRequest, errorResponse{Error: msg})
}

func Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
