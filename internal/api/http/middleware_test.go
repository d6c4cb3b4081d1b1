package http

import (
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "github.com/spec-kit/college-marketplace/pkg/util/errorutil"
)

func TestRegisterMiddlewares_RequestDeadline(t *testing.T) {
	tests := []struct {
		name         string
		timeout      time.Duration
		wantDeadline bool
	}{
		{name: "configured", timeout: time.Minute, wantDeadline: true},
		{name: "disabled", timeout: 0, wantDeadline: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			app := fiber.New()
			RegisterMiddlewares(app, zap.NewNop(), nil, tc.timeout)

			var hasDeadline bool
			app.Get("/deadline", func(c *fiber.Ctx) error {
				_, hasDeadline = c.UserContext().Deadline()
				return apperrors.NewUnauthorized("no session")
			})

			resp, err := app.Test(httptest.NewRequest(nethttp.MethodGet, "/deadline", nil))
			require.NoError(t, err)
			require.Equal(t, tc.wantDeadline, hasDeadline)

			// the error handler still renders errors from inside the deadline
			require.Equal(t, nethttp.StatusUnauthorized, resp.StatusCode)
			require.NotEmpty(t, resp.Header.Get(fiber.HeaderWWWAuthenticate))
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			require.Contains(t, string(body), `"code":"UNAUTHORIZED"`)
		})
	}
}
