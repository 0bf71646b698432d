package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	handlermocks "github.com/joshuarp/idempotency-api/internal/mock/handlers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/joshuarp/idempotency-api/internal/domain/vo"
	"github.com/joshuarp/idempotency-api/internal/middlewares"
	"github.com/joshuarp/idempotency-api/internal/shared/idempotency"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func performJSONRequest(app *fiber.App, method, path string, body []byte, headers map[string]string) (*http.Response, map[string]interface{}, []byte) {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if len(body) > 0 {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := app.Test(req)
	if err != nil {
		return nil, nil, nil
	}

	defer resp.Body.Close()
	rawBody, _ := io.ReadAll(resp.Body)
	parsed := map[string]interface{}{}
	_ = json.Unmarshal(rawBody, &parsed)

	return resp, parsed, rawBody
}

type AuthTokenHandlerSuite struct {
	suite.Suite

	service *handlermocks.AuthTokenService
	handler *AuthTokenHandler
	app     *fiber.App
}

func (s *AuthTokenHandlerSuite) SetupTest() {
	s.service = handlermocks.NewAuthTokenService(s.T())
	s.handler = NewAuthTokenHandler(s.service, newTestLogger())
	s.app = fiber.New()
	s.handler.Register(s.app)
}

func (s *AuthTokenHandlerSuite) TestHandle_TableDriven() {
	tests := []struct {
		name      string
		body      []byte
		setupMock func()
		assertion func(*http.Response, map[string]interface{})
	}{
		{
			name: "invalid body",
			body: []byte(`{"app_id":`),
			assertion: func(resp *http.Response, payload map[string]interface{}) {
				require.NotNil(s.T(), resp)
				assert.Equal(s.T(), fiber.StatusBadRequest, resp.StatusCode)
				assert.Equal(s.T(), "invalid request body", payload["error"])
			},
		},
		{
			name: "missing credentials",
			body: []byte(`{"app_id":" ","app_secret":""}`),
			assertion: func(resp *http.Response, payload map[string]interface{}) {
				require.NotNil(s.T(), resp)
				assert.Equal(s.T(), fiber.StatusBadRequest, resp.StatusCode)
				assert.Equal(s.T(), "app_id and app_secret are required", payload["error"])
			},
		},
		{
			name: "invalid credentials",
			body: []byte(`{"app_id":"tenant-A","app_secret":"wrong"}`),
			setupMock: func() {
				s.service.EXPECT().IssueToken(mock.Anything, "tenant-A", "wrong").Return(vo.AuthToken{}, vo.ErrInvalidCredentials)
			},
			assertion: func(resp *http.Response, payload map[string]interface{}) {
				require.NotNil(s.T(), resp)
				assert.Equal(s.T(), fiber.StatusUnauthorized, resp.StatusCode)
				assert.Equal(s.T(), "invalid app credentials", payload["error"])
			},
		},
		{
			name: "internal error",
			body: []byte(`{"app_id":"tenant-A","app_secret":"secret"}`),
			setupMock: func() {
				s.service.EXPECT().IssueToken(mock.Anything, "tenant-A", "secret").Return(vo.AuthToken{}, errors.New("db down"))
			},
			assertion: func(resp *http.Response, payload map[string]interface{}) {
				require.NotNil(s.T(), resp)
				assert.Equal(s.T(), fiber.StatusInternalServerError, resp.StatusCode)
				assert.Equal(s.T(), "internal server error", payload["error"])
			},
		},
		{
			name: "success",
			body: []byte(`{"app_id":"tenant-A","app_secret":"secret"}`),
			setupMock: func() {
				s.service.EXPECT().IssueToken(mock.Anything, "tenant-A", "secret").
					Return(vo.AuthToken{AccessToken: "signed-token", TokenType: "Bearer", ExpiresIn: 900}, nil)
			},
			assertion: func(resp *http.Response, payload map[string]interface{}) {
				require.NotNil(s.T(), resp)
				assert.Equal(s.T(), fiber.StatusOK, resp.StatusCode)
				assert.Equal(s.T(), "signed-token", payload["access_token"])
				assert.Equal(s.T(), "Bearer", payload["token_type"])
				assert.EqualValues(s.T(), 900, payload["expires_in"])
			},
		},
	}

	for _, tc := range tests {
		s.Run(tc.name, func() {
			s.SetupTest()
			if tc.setupMock != nil {
				tc.setupMock()
			}

			resp, payload, _ := performJSONRequest(s.app, http.MethodPost, "/auth/token", tc.body, nil)
			tc.assertion(resp, payload)
		})
	}
}

func TestAuthTokenHandlerSuite(t *testing.T) {
	suite.Run(t, new(AuthTokenHandlerSuite))
}

type IdempotencyRecordHandlerSuite struct {
	suite.Suite

	service *handlermocks.IdempotencyRecordService
	app     *fiber.App
}

func (s *IdempotencyRecordHandlerSuite) SetupTest() {
	s.service = handlermocks.NewIdempotencyRecordService(s.T())
	s.app = fiber.New()
	s.app.Use(func(c fiber.Ctx) error {
		if appID := c.Get("X-Test-App"); appID != "" {
			c.Locals(middlewares.LocalAppID, appID)
		}
		return c.Next()
	})
	NewIdempotencyRecordHandler(s.service, newTestLogger()).Register(s.app)
}

func (s *IdempotencyRecordHandlerSuite) TestClaim_TableDriven() {
	unreachable := &idempotency.Error{Kind: idempotency.KindConnectivity, Backend: idempotency.BackendDynamoDB, Op: "exists", Err: errors.New("i/o timeout")}
	corrupt := &idempotency.Error{Kind: idempotency.KindSerialization, Backend: idempotency.BackendRedis, Op: "exists", Err: errors.New("bad json")}

	tests := []struct {
		name      string
		appID     string
		path      string
		setupMock func()
		assertion func(*http.Response, map[string]interface{})
	}{
		{
			name: "unauthenticated",
			path: "/idempotency/keys/order-1/claim",
			assertion: func(resp *http.Response, payload map[string]interface{}) {
				require.NotNil(s.T(), resp)
				assert.Equal(s.T(), fiber.StatusUnauthorized, resp.StatusCode)
			},
		},
		{
			name:  "created",
			appID: "tenant-A",
			path:  "/idempotency/keys/order-1/claim",
			setupMock: func() {
				s.service.EXPECT().Claim(mock.Anything, "tenant-A", "order-1").
					Return(vo.ClaimResult{Created: true, Record: vo.RecordView{Status: "none"}}, nil)
			},
			assertion: func(resp *http.Response, payload map[string]interface{}) {
				require.NotNil(s.T(), resp)
				assert.Equal(s.T(), fiber.StatusCreated, resp.StatusCode)
				assert.Equal(s.T(), true, payload["created"])
				assert.Equal(s.T(), map[string]interface{}{"status": "none", "response": ""}, payload["record"])
			},
		},
		{
			name:  "existing record is replayed",
			appID: "tenant-A",
			path:  "/idempotency/keys/order%201/claim",
			setupMock: func() {
				s.service.EXPECT().Claim(mock.Anything, "tenant-A", "order 1").
					Return(vo.ClaimResult{Record: vo.RecordView{Status: "completed", Response: `{"id":7}`}}, nil)
			},
			assertion: func(resp *http.Response, payload map[string]interface{}) {
				require.NotNil(s.T(), resp)
				assert.Equal(s.T(), fiber.StatusOK, resp.StatusCode)
				assert.Equal(s.T(), false, payload["created"])
				assert.Equal(s.T(), map[string]interface{}{"status": "completed", "response": `{"id":7}`}, payload["record"])
			},
		},
		{
			name:  "invalid key",
			appID: "tenant-A",
			path:  "/idempotency/keys/order-1/claim",
			setupMock: func() {
				s.service.EXPECT().Claim(mock.Anything, "tenant-A", "order-1").Return(vo.ClaimResult{}, vo.ErrInvalidKey)
			},
			assertion: func(resp *http.Response, payload map[string]interface{}) {
				require.NotNil(s.T(), resp)
				assert.Equal(s.T(), fiber.StatusBadRequest, resp.StatusCode)
				assert.Equal(s.T(), "invalid idempotency key", payload["error"])
			},
		},
		{
			name:  "app id with delimiter",
			appID: "tenant:A",
			path:  "/idempotency/keys/order-1/claim",
			setupMock: func() {
				s.service.EXPECT().Claim(mock.Anything, "tenant:A", "order-1").Return(vo.ClaimResult{}, vo.ErrInvalidAppID)
			},
			assertion: func(resp *http.Response, _ map[string]interface{}) {
				require.NotNil(s.T(), resp)
				assert.Equal(s.T(), fiber.StatusBadRequest, resp.StatusCode)
			},
		},
		{
			name:  "store unreachable",
			appID: "tenant-A",
			path:  "/idempotency/keys/order-1/claim",
			setupMock: func() {
				s.service.EXPECT().Claim(mock.Anything, "tenant-A", "order-1").Return(vo.ClaimResult{}, unreachable)
			},
			assertion: func(resp *http.Response, payload map[string]interface{}) {
				require.NotNil(s.T(), resp)
				assert.Equal(s.T(), fiber.StatusServiceUnavailable, resp.StatusCode)
				assert.Equal(s.T(), "idempotency store unavailable", payload["error"])
			},
		},
		{
			name:  "corrupt record",
			appID: "tenant-A",
			path:  "/idempotency/keys/order-1/claim",
			setupMock: func() {
				s.service.EXPECT().Claim(mock.Anything, "tenant-A", "order-1").Return(vo.ClaimResult{}, corrupt)
			},
			assertion: func(resp *http.Response, payload map[string]interface{}) {
				require.NotNil(s.T(), resp)
				assert.Equal(s.T(), fiber.StatusInternalServerError, resp.StatusCode)
				assert.Equal(s.T(), "internal server error", payload["error"])
			},
		},
	}

	for _, tc := range tests {
		s.Run(tc.name, func() {
			s.SetupTest()
			if tc.setupMock != nil {
				tc.setupMock()
			}

			headers := map[string]string{}
			if tc.appID != "" {
				headers["X-Test-App"] = tc.appID
			}

			resp, payload, _ := performJSONRequest(s.app, http.MethodPost, tc.path, nil, headers)
			tc.assertion(resp, payload)
		})
	}
}

func (s *IdempotencyRecordHandlerSuite) TestComplete_TableDriven() {
	tests := []struct {
		name         string
		body         []byte
		setupMock    func()
		expectedCode int
		expectedErr  string
	}{
		{
			name:         "invalid body",
			body:         []byte(`{"status":`),
			expectedCode: fiber.StatusBadRequest,
			expectedErr:  "invalid request body",
		},
		{
			name: "status must move forward",
			body: []byte(`{"status":"in_progress"}`),
			setupMock: func() {
				s.service.EXPECT().Complete(mock.Anything, "tenant-A", "order-1", vo.CompleteRecord{Status: "in_progress"}).
					Return(vo.ErrInvalidStatus)
			},
			expectedCode: fiber.StatusBadRequest,
			expectedErr:  "status must be completed",
		},
		{
			name:         "negative ttl",
			body:         []byte(`{"status":"completed","ttl_seconds":-5}`),
			expectedCode: fiber.StatusBadRequest,
			expectedErr:  "invalid ttl_seconds",
		},
		{
			name:         "ttl overflowing duration",
			body:         []byte(`{"status":"completed","ttl_seconds":18446744074}`),
			expectedCode: fiber.StatusBadRequest,
			expectedErr:  "invalid ttl_seconds",
		},
		{
			name: "ttl above service limit",
			body: []byte(`{"status":"completed","ttl_seconds":9223372036}`),
			setupMock: func() {
				s.service.EXPECT().Complete(mock.Anything, "tenant-A", "order-1", vo.CompleteRecord{Status: "completed", TTL: 9223372036 * time.Second}).
					Return(vo.ErrInvalidTTL)
			},
			expectedCode: fiber.StatusBadRequest,
			expectedErr:  "invalid ttl_seconds",
		},
		{
			name: "ttl rejected by backend",
			body: []byte(`{"status":"completed","ttl_seconds":700000000}`),
			setupMock: func() {
				s.service.EXPECT().Complete(mock.Anything, "tenant-A", "order-1", vo.CompleteRecord{Status: "completed", TTL: 700000000 * time.Second}).
					Return(&idempotency.Error{Kind: idempotency.KindInvalidRecord, Backend: idempotency.BackendCassandra, Op: "put", Err: errors.New("ttl exceeds limit")})
			},
			expectedCode: fiber.StatusBadRequest,
			expectedErr:  "invalid idempotency record",
		},
		{
			name: "completed",
			body: []byte(`{"status":"completed","response":"{\"id\":7}","ttl_seconds":3600}`),
			setupMock: func() {
				s.service.EXPECT().Complete(mock.Anything, "tenant-A", "order-1", vo.CompleteRecord{Status: "completed", Response: `{"id":7}`, TTL: time.Hour}).
					Return(nil)
			},
			expectedCode: fiber.StatusNoContent,
		},
	}

	for _, tc := range tests {
		s.Run(tc.name, func() {
			s.SetupTest()
			if tc.setupMock != nil {
				tc.setupMock()
			}

			resp, payload, _ := performJSONRequest(s.app, http.MethodPut, "/idempotency/keys/order-1", tc.body, map[string]string{"X-Test-App": "tenant-A"})
			require.NotNil(s.T(), resp)
			assert.Equal(s.T(), tc.expectedCode, resp.StatusCode)
			if tc.expectedErr != "" {
				assert.Equal(s.T(), tc.expectedErr, payload["error"])
			}
		})
	}
}

func (s *IdempotencyRecordHandlerSuite) TestRelease() {
	s.service.EXPECT().Release(mock.Anything, "tenant-A", "order-1").Return(nil).Once()

	resp, _, raw := performJSONRequest(s.app, http.MethodDelete, "/idempotency/keys/order-1", nil, map[string]string{"X-Test-App": "tenant-A"})
	require.NotNil(s.T(), resp)
	assert.Equal(s.T(), fiber.StatusNoContent, resp.StatusCode)
	assert.Empty(s.T(), raw)

	unreachable := &idempotency.Error{Kind: idempotency.KindConnectivity, Backend: idempotency.BackendCassandra, Op: "delete", Err: errors.New("no hosts available")}
	s.service.EXPECT().Release(mock.Anything, "tenant-A", "order-2").Return(unreachable).Once()

	resp, _, _ = performJSONRequest(s.app, http.MethodDelete, "/idempotency/keys/order-2", nil, map[string]string{"X-Test-App": "tenant-A"})
	require.NotNil(s.T(), resp)
	assert.Equal(s.T(), fiber.StatusServiceUnavailable, resp.StatusCode)
}

func TestIdempotencyRecordHandlerSuite(t *testing.T) {
	suite.Run(t, new(IdempotencyRecordHandlerSuite))
}
