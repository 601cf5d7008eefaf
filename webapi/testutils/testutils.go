// Package testutils builds a fully wired HTTP app over sqlite for handler tests.
package testutils

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/amirasaad/codepay/internal/testutil"
	"github.com/amirasaad/codepay/pkg/app"
	"github.com/amirasaad/codepay/webapi"
	"github.com/amirasaad/codepay/webapi/common"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

// TestApp is the HTTP app together with the services and environment behind it.
type TestApp struct {
	Fiber *fiber.App
	App   *app.App
	Env   *testutil.Env
}

// NewTestApp wires every service over a fresh database and bootstraps the bank.
// mutate, when given, adjusts the configuration before the app is built.
func NewTestApp(tb testing.TB, mutate ...func(*testutil.Env)) *TestApp {
	tb.Helper()
	env := testutil.NewEnv(tb)
	for _, m := range mutate {
		m(env)
	}
	a, err := app.New(&env.Deps)
	require.NoError(tb, err)
	_, err = a.SettlementService.Bootstrap(context.Background())
	require.NoError(tb, err)
	return &TestApp{Fiber: webapi.SetupApp(a), App: a, Env: env}
}

// OperatorToken signs a token the operator routes accept. The JWT middleware
// checks expiry against the wall clock, not the test clock.
func (ta *TestApp) OperatorToken(tb testing.TB, subject string) string {
	tb.Helper()
	token, err := common.IssueOperatorToken(ta.Env.Deps.Config.Auth.Jwt, subject, time.Now())
	require.NoError(tb, err)
	return token
}

// MakeRequestWithApp is a helper for making HTTP requests with a standalone app (for non-suite tests)
func MakeRequestWithApp(app *fiber.App, method, path, body, token string) *http.Response {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		panic(err) // For standalone tests, panic on error
	}
	return resp
}

// Do sends a request and decodes the envelope into out, which is either a
// *common.Response-shaped value or a *common.ProblemDetails.
func (ta *TestApp) Do(tb testing.TB, method, path, body, token string, out any) int {
	tb.Helper()
	resp := MakeRequestWithApp(ta.Fiber, method, path, body, token)
	defer resp.Body.Close() //nolint: errcheck
	if out != nil {
		require.NoError(tb, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

// Envelope is a success response with a typed payload.
type Envelope[T any] struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}
