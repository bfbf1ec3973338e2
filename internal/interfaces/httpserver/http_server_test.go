package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jan-server/services/whatsapp-api/internal/config"
	"jan-server/services/whatsapp-api/internal/domain/session"
	"jan-server/services/whatsapp-api/internal/interfaces/httpserver/handlers"
	"jan-server/services/whatsapp-api/internal/interfaces/httpserver/routes"
	"jan-server/services/whatsapp-api/internal/utils/platformerrors"
)

const testQR = "2@AbCdEf,ghIjKl,mnOpQr=="

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T, svc *mockService, deps Dependencies) http.Handler {
	t.Helper()
	cfg := &config.Config{
		ServiceName:   "whatsapp-api",
		Environment:   "test",
		HTTPPort:      3000,
		QRWaitTimeout: 10 * time.Millisecond,
	}
	log := zerolog.Nop()
	handlerProvider := handlers.NewProvider(handlers.ProvideSessionHandler(svc, cfg, log))
	routeProvider := routes.NewProvider(handlerProvider, nil)
	return New(cfg, log, routeProvider, nil, deps).Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) *platformerrors.HTTPErrorDetail {
	t.Helper()
	var resp platformerrors.HTTPErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	return resp.Error
}

func TestCoreRoutes(t *testing.T) {
	h := newTestServer(t, &mockService{}, Dependencies{
		"storage": func(context.Context) error { return nil },
	})

	rec := do(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"storage":"ok"`)
}

func TestReadyzReportsFailingDependency(t *testing.T) {
	h := newTestServer(t, &mockService{}, Dependencies{
		"storage": func(context.Context) error { return nil },
		"bridge":  func(context.Context) error { return errors.New("connection refused") },
	})

	rec := do(t, h, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")
}

func TestListSessions(t *testing.T) {
	svc := &mockService{
		ListSessionsFunc: func(context.Context) []session.Summary {
			return []session.Summary{
				{Identifier: "5511999999999", State: session.StateReady, Ready: true},
				{Identifier: "5511888888888", State: session.StateWaitingQR, HasQR: true},
			}
		},
	}
	rec := do(t, newTestServer(t, svc, nil), http.MethodGet, "/v1/sessions", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Object string `json:"object"`
		Count  int    `json:"count"`
		Data   []struct {
			PhoneNumber string `json:"phone_number"`
			Status      string `json:"status"`
			Ready       bool   `json:"ready"`
			HasQR       bool   `json:"has_qr"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "list", body.Object)
	assert.Equal(t, 2, body.Count)
	assert.Equal(t, "5511999999999", body.Data[0].PhoneNumber)
	assert.True(t, body.Data[0].Ready)
	assert.Equal(t, "waiting_qr", body.Data[1].Status)
	assert.True(t, body.Data[1].HasQR)
}

func TestInitializeDefaultsToForceRecreate(t *testing.T) {
	var gotForce []bool
	svc := &mockService{
		InitializeFunc: func(_ context.Context, _ string, force bool) error {
			gotForce = append(gotForce, force)
			return nil
		},
	}
	h := newTestServer(t, svc, nil)

	rec := do(t, h, http.MethodPost, "/v1/sessions/5511999999999/initialize", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"qr_url":"http://localhost:3000/v1/sessions/5511999999999/qr"`)

	rec = do(t, h, http.MethodPost, "/v1/sessions/5511999999999/initialize", `{"force_recreate":false}`)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, []bool{true, false}, gotForce)
}

func TestInitializeConfigurationError(t *testing.T) {
	svc := &mockService{
		InitializeFunc: func(context.Context, string, bool) error {
			return &session.ConfigurationError{Missing: []string{"AWS_S3_BUCKET_NAME", "AWS_ACCESS_KEY_ID"}}
		},
	}
	rec := do(t, newTestServer(t, svc, nil), http.MethodPost, "/v1/sessions/5511999999999/initialize", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	detail := decodeError(t, rec)
	assert.Equal(t, "configuration_error", detail.Type)
	assert.Equal(t, []string{"AWS_S3_BUCKET_NAME", "AWS_ACCESS_KEY_ID"}, detail.Missing)
	assert.NotEmpty(t, detail.RequestID)
}

func TestStatusInvalidIdentifier(t *testing.T) {
	rec := do(t, newTestServer(t, &mockService{}, nil), http.MethodGet, "/v1/sessions/abc/status", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", decodeError(t, rec).Type)
}

func TestStatusIncludesIdentityWhenReady(t *testing.T) {
	svc := &mockService{
		StatusFunc: func(_ context.Context, phone string) (*session.StatusView, error) {
			return &session.StatusView{
				Identifier: session.Normalize(phone),
				State:      session.StateReady,
				Ready:      true,
				HasClient:  true,
				Identity:   &session.Identity{WID: "5511999999999@c.us", PushName: "Support"},
			}, nil
		},
	}
	rec := do(t, newTestServer(t, svc, nil), http.MethodGet, "/v1/sessions/+5511999999999/status", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"phone_number":"5511999999999"`)
	assert.Contains(t, rec.Body.String(), `"wid":"5511999999999@c.us"`)
}

func TestSendMessage(t *testing.T) {
	sent := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	svc := &mockService{
		SendMessageFunc: func(_ context.Context, phone, to, body string) (*session.SendResult, error) {
			return &session.SendResult{
				MessageID: "true_5511988888888@c.us_ABC",
				From:      phone + "@c.us",
				To:        session.ChatID(to),
				Body:      body,
				Timestamp: sent,
			}, nil
		},
	}
	rec := do(t, newTestServer(t, svc, nil), http.MethodPost, "/v1/sessions/5511999999999/send",
		`{"to":"5511988888888","message":"hello"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"to":"5511988888888@c.us"`)
	assert.Contains(t, rec.Body.String(), `"message":"hello"`)
}

func TestSendMessageErrors(t *testing.T) {
	cases := []struct {
		name   string
		body   string
		err    error
		status int
		kind   string
	}{
		{"missing fields", `{"to":"5511988888888"}`, nil, http.StatusBadRequest, "validation_error"},
		{"unknown session", `{"to":"1","message":"hi"}`, session.ErrSessionNotFound, http.StatusNotFound, "not_found_error"},
		{"not ready", `{"to":"1","message":"hi"}`, session.ErrNotReady, http.StatusServiceUnavailable, "unavailable_error"},
		{"no transport", `{"to":"1","message":"hi"}`,
			&session.TransportError{Identifier: "5511999999999", Op: "send", Err: session.ErrNoTransport},
			http.StatusServiceUnavailable, "unavailable_error"},
		{"worker rejected", `{"to":"1","message":"hi"}`,
			&session.TransportError{Identifier: "5511999999999", Op: "send", Err: errors.New("send: page crashed")},
			http.StatusBadGateway, "external_error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockService{
				SendMessageFunc: func(context.Context, string, string, string) (*session.SendResult, error) {
					return nil, tc.err
				},
			}
			rec := do(t, newTestServer(t, svc, nil), http.MethodPost, "/v1/sessions/5511999999999/send", tc.body)
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.kind, decodeError(t, rec).Type)
		})
	}
}

func TestLogoutTransportFailure(t *testing.T) {
	svc := &mockService{
		LogoutFunc: func(context.Context, string) error {
			return &session.TransportError{Identifier: "5511999999999", Op: "logout", Err: errors.New("timeout")}
		},
	}
	rec := do(t, newTestServer(t, svc, nil), http.MethodPost, "/v1/sessions/5511999999999/logout", "")

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestDeleteSession(t *testing.T) {
	svc := &mockService{
		RemoveFunc: func(_ context.Context, phone string) bool { return phone == "5511999999999" },
	}
	h := newTestServer(t, svc, nil)

	rec := do(t, h, http.MethodDelete, "/v1/sessions/5511999999999", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"deleted":true`)

	rec = do(t, h, http.MethodDelete, "/v1/sessions/5511000000000", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"deleted":false`)
}

func TestRestoreSessions(t *testing.T) {
	svc := &mockService{
		RestoreAllFunc: func(context.Context) *session.RestoreResult {
			return &session.RestoreResult{SuccessCount: 2, FailedCount: 1, RemovedCount: 1, Errors: []string{"5511: boom"}}
		},
	}
	rec := do(t, newTestServer(t, svc, nil), http.MethodPost, "/v1/sessions/restore", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.EqualValues(t, 2, body["restored"])
	assert.EqualValues(t, 1, body["failed"])
	assert.EqualValues(t, 1, body["removed"])
	assert.NotEmpty(t, body["message"])
}

func TestQRJSON(t *testing.T) {
	svc := &mockService{
		QRCodeFunc: func(context.Context, string) (string, bool) { return testQR, true },
	}
	rec := do(t, newTestServer(t, svc, nil), http.MethodGet, "/v1/sessions/5511999999999/qr/json", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["has_qr"])
	assert.Equal(t, testQR, body["qr"])
	assert.True(t, strings.HasPrefix(body["qr_image"].(string), "data:image/png;base64,"))
}

func TestQRPNG(t *testing.T) {
	svc := &mockService{}
	h := newTestServer(t, svc, nil)

	rec := do(t, h, http.MethodGet, "/v1/sessions/5511999999999/qr.png", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	svc.QRCodeFunc = func(context.Context, string) (string, bool) { return testQR, true }
	rec = do(t, h, http.MethodGet, "/v1/sessions/5511999999999/qr.png", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, "\x89PNG", rec.Body.String()[:4])
}

func TestQRPage(t *testing.T) {
	svc := &mockService{}
	h := newTestServer(t, svc, nil)

	rec := do(t, h, http.MethodGet, "/v1/sessions/5511999999999/qr", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Waiting for QR code")
	assert.Contains(t, rec.Body.String(), `content="3"`)

	svc.WaitQRCodeFunc = func(context.Context, string, time.Duration) (string, bool) { return testQR, true }
	rec = do(t, h, http.MethodGet, "/v1/sessions/5511999999999/qr", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Scan the QR code")
	assert.Contains(t, rec.Body.String(), "data:image/png;base64,")

	svc.StatusFunc = func(_ context.Context, phone string) (*session.StatusView, error) {
		return &session.StatusView{Identifier: session.Normalize(phone), State: session.StateReady, Ready: true, HasClient: true}, nil
	}
	rec = do(t, h, http.MethodGet, "/v1/sessions/5511999999999/qr", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Already authenticated")

	rec = do(t, h, http.MethodGet, "/v1/sessions/abc/qr", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Could not render the QR code")
}
