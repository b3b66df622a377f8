package main

import (
	"bytes"
	"context"
	"github.com/alicebob/miniredis/v2"
	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"net/http/httptest"
	"os"
	"path/filepath"
	"paysim/internal/payments"
	"paysim/internal/payments/handlers"
	"testing"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestPay_Local(t *testing.T) {
	out, err := run(t, "pay", "--local",
		"--amount", "1000", "--card", "4242424242424242",
		"--expiry-month", "12", "--expiry-year", "2099",
		"--currency", "EUR", "--customer", "C1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"SUCCESS","message":"Payment completed"}`, out)
}

func TestPay_LocalValidationError(t *testing.T) {
	_, err := run(t, "pay", "--local",
		"--amount", "1000", "--card", "42",
		"--expiry-month", "12", "--expiry-year", "2099", "--customer", "C1")
	assert.ErrorIs(t, err, payments.ErrInvalidCardNumber)
}

func TestDiscount_Local(t *testing.T) {
	out, err := run(t, "discount", "--local", "--points", "5000", "--base", "10000")
	require.NoError(t, err)
	assert.JSONEq(t, `{"discount":1500}`, out)
}

func TestBulk_LocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch.json")
	batch := `[
		{"amount":100,"cardNumber":"4242424242424242","expiryMonth":12,"expiryYear":2099,"currency":"USD","customerId":"A"},
		{"amount":0,"cardNumber":"4242424242424242","expiryMonth":12,"expiryYear":2099,"currency":"USD","customerId":"B"}
	]`
	require.NoError(t, os.WriteFile(path, []byte(batch), 0o600))

	out, err := run(t, "bulk", "--local", "--file", path)
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"status":"SUCCESS","message":"Payment completed"},
		{"status":"REJECTED","message":"`+payments.ErrInvalidAmount.Error()+`"}
	]`, out)
}

func TestDiscount_Remote(t *testing.T) {
	processor, err := payments.NewProcessor(payments.DefaultRules(), nil, nil)
	require.NoError(t, err)

	e := echo.New()
	handlers.Register(e, processor, nil)
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	out, err := run(t, "discount", "--url", srv.URL, "--points", "10000", "--base", "50000")
	require.NoError(t, err)
	assert.JSONEq(t, `{"discount":5000}`, out)
}

func TestPay_Async(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	processor, err := payments.NewProcessor(payments.DefaultRules(), nil, nil)
	require.NoError(t, err)

	e := echo.New()
	handlers.Register(e, processor, handlers.NewAsyncPaymentHandler(rdb, "payments", nil))
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	out, err := run(t, "pay", "--async", "--url", srv.URL,
		"--amount", "500", "--card", "4111111111111111",
		"--expiry-month", "6", "--expiry-year", "2099", "--customer", "C3")
	require.NoError(t, err)

	var resp map[string]string
	require.NoError(t, sonic.UnmarshalString(out, &resp))
	require.NotEmpty(t, resp["correlationId"])

	entries, err := rdb.XRange(context.Background(), "payments", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Values["data"], resp["correlationId"])
}

func TestPay_AsyncRejectsLocal(t *testing.T) {
	_, err := run(t, "pay", "--async", "--local",
		"--amount", "500", "--card", "4111111111111111",
		"--expiry-month", "6", "--expiry-year", "2099", "--customer", "C3")
	assert.ErrorIs(t, err, errAsyncLocal)
}
