package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/amirasaad/codepay/pkg/config"
	"github.com/amirasaad/codepay/pkg/domain"
	"github.com/amirasaad/codepay/pkg/domain/audit"
	"github.com/amirasaad/codepay/pkg/money"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorToStatusCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.ErrUserNotFound, fiber.StatusNotFound},
		{fmt.Errorf("wrapped: %w", domain.ErrCodeNotFound), fiber.StatusNotFound},
		{domain.ErrDuplicateEmail, fiber.StatusConflict},
		{domain.ErrOrderAlreadyProcessed, fiber.StatusConflict},
		{domain.ErrCodeExpired, fiber.StatusGone},
		{domain.ErrInvalidAmount, fiber.StatusBadRequest},
		{money.ErrTooManyDecimals, fiber.StatusBadRequest},
		{domain.ErrAmountExceedsDailyLimit, fiber.StatusUnprocessableEntity},
		{&domain.InsufficientFundsError{AccountKind: "user"}, fiber.StatusUnprocessableEntity},
		{domain.ErrBankInsufficientFunds, fiber.StatusUnprocessableEntity},
		{fiber.ErrNotFound, fiber.StatusNotFound},
		{errors.New("boom"), fiber.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorToStatusCode(tt.err))
		})
	}
}

func TestProblemDetailsJSON_Options(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return ProblemDetailsJSON(c, "Nope", domain.ErrUserNotFound, "custom detail", fiber.StatusTeapot)
	})
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	defer resp.Body.Close() //nolint: errcheck

	assert.Equal(t, fiber.StatusTeapot, resp.StatusCode)
	assert.Equal(t, "application/problem+json", resp.Header.Get(fiber.HeaderContentType))
	var pd ProblemDetails
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&pd))
	assert.Equal(t, "Nope", pd.Title)
	assert.Equal(t, "custom detail", pd.Detail)
	assert.Equal(t, fiber.StatusTeapot, pd.Status)
}

type bindInput struct {
	Email  string       `json:"email" validate:"required,email"`
	Amount money.Amount `json:"amount"`
}

func TestBindAndValidate(t *testing.T) {
	app := fiber.New()
	app.Post("/", func(c *fiber.Ctx) error {
		in, err := BindAndValidate[bindInput](c)
		if in == nil {
			return err
		}
		return SuccessResponseJSON(c, fiber.StatusOK, "ok", in)
	})
	send := func(body string) *http.Response {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp
	}

	resp := send(`{"email":"a@b.co","amount":"12.30"}`)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	var out struct {
		Data bindInput `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, money.Amount(1230), out.Data.Amount)

	assert.Equal(t, fiber.StatusBadRequest, send(`{"email":"nope"}`).StatusCode)
	assert.Equal(t, fiber.StatusBadRequest, send(`{"email":"a@b.co","amount":0.001}`).StatusCode)
	assert.Equal(t, fiber.StatusBadRequest, send(`{`).StatusCode)
}

func TestJwtProtected(t *testing.T) {
	cfg := &config.Jwt{Secret: "s3cret", Expiry: time.Hour}
	app := fiber.New()
	app.Get("/", JwtProtected(cfg), func(c *fiber.Ctx) error {
		return c.SendString(OperatorID(c))
	})
	call := func(token string) *http.Response {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if token != "" {
			req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp
	}

	assert.Equal(t, fiber.StatusBadRequest, call("").StatusCode)
	assert.Equal(t, fiber.StatusUnauthorized, call("a.b.c").StatusCode)

	expired, err := IssueOperatorToken(cfg, "op", time.Now().Add(-2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, call(expired).StatusCode)

	token, err := IssueOperatorToken(cfg, "op-7", time.Now())
	require.NoError(t, err)
	resp := call(token)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "op-7", string(body))

	_, err = IssueOperatorToken(&config.Jwt{}, "op", time.Now())
	assert.Error(t, err)
}

func TestRequestMeta(t *testing.T) {
	app := fiber.New()
	app.Use(RequestMeta())
	app.Get("/", func(c *fiber.Ctx) error {
		m := audit.RequestMetaFrom(c.UserContext())
		return c.SendString(m.IP + "|" + m.UserAgent)
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(fiber.HeaderXForwardedFor, "203.0.113.9, 10.0.0.1")
	req.Header.Set(fiber.HeaderUserAgent, "codepay-test")
	resp, err := app.Test(req)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "203.0.113.9|codepay-test", string(body))
}
