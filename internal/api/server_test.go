package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/larderapp/larder-server/internal/errors"
)

func TestHealthCheck(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)

	env := decodeEnvelope[HealthResponse](t, resp)
	assert.True(t, env.Success)
	assert.Equal(t, EnvelopeVersion, env.Version)
	assert.Equal(t, "healthy", env.Data.Status)
	assert.Equal(t, "healthy", env.Data.Components["database"].Status)
	assert.Equal(t, "healthy", env.Data.Components["media"].Status)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := setupTestServer(t)

	// Generate at least one labelled request first.
	ts.api.Get("/health")

	rec := httptest.NewRecorder()
	ts.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "larder_api_requests_total")
}

func TestUnknownRoute_Envelope(t *testing.T) {
	ts := setupTestServer(t)

	rec := httptest.NewRecorder()
	ts.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	env := decodeEnvelope[any](t, rec)
	assert.False(t, env.Success)
	assert.Equal(t, "NOT_FOUND", env.Code)
}

func TestRequestID_Echoed(t *testing.T) {
	ts := setupTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	ts.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))

	rec = httptest.NewRecorder()
	ts.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestEnvelopeTransformer(t *testing.T) {
	tests := []struct {
		name    string
		status  string
		body    any
		success bool
		code    string
		message string
	}{
		{
			name:    "data",
			status:  "200",
			body:    map[string]string{"k": "v"},
			success: true,
		},
		{
			name:    "api error",
			status:  "404",
			body:    &APIError{status: 404, Code: "NOT_FOUND", Message: "missing"},
			code:    "NOT_FOUND",
			message: "missing",
		},
		{
			name:    "domain error",
			status:  "409",
			body:    domainerrors.AlreadyExists("taken"),
			code:    "ALREADY_EXISTS",
			message: "taken",
		},
		{
			name:    "internal domain error is masked",
			status:  "500",
			body:    domainerrors.Internal("db file locked at /var/lib"),
			code:    "INTERNAL",
			message: "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := EnvelopeTransformer(nil, tt.status, tt.body)
			require.NoError(t, err)

			raw, err := json.Marshal(out)
			require.NoError(t, err)

			var env testEnvelope[any]
			require.NoError(t, json.Unmarshal(raw, &env))
			assert.Equal(t, EnvelopeVersion, env.Version)
			assert.Equal(t, tt.success, env.Success)
			assert.Equal(t, tt.code, env.Code)
			assert.Equal(t, tt.message, env.Error)
		})
	}
}

func TestStatusToCode(t *testing.T) {
	assert.Equal(t, "VALIDATION", statusToCode(http.StatusBadRequest))
	assert.Equal(t, "VALIDATION", statusToCode(http.StatusUnprocessableEntity))
	assert.Equal(t, "VALIDATION", statusToCode(http.StatusRequestEntityTooLarge))
	assert.Equal(t, "UNAUTHORIZED", statusToCode(http.StatusUnauthorized))
	assert.Equal(t, "NOT_FOUND", statusToCode(http.StatusNotFound))
	assert.Equal(t, "CONFLICT", statusToCode(http.StatusConflict))
	assert.Equal(t, "RATE_LIMITED", statusToCode(http.StatusTooManyRequests))
	assert.Equal(t, "METHOD_NOT_ALLOWED", statusToCode(http.StatusMethodNotAllowed))
	assert.Equal(t, "INTERNAL", statusToCode(http.StatusBadGateway))
}

func TestRegisterErrorHandler_MapsDomainErrors(t *testing.T) {
	RegisterErrorHandler()

	wrapped := errors.Join(errors.New("context"), domainerrors.NotFound("recipe 7 not found"))
	se := huma500(wrapped)
	assert.Equal(t, http.StatusNotFound, se.GetStatus())

	se = huma500(errors.New("disk on fire"))
	assert.Equal(t, http.StatusInternalServerError, se.GetStatus())
	apiErr, ok := se.(*APIError)
	require.True(t, ok)
	assert.Equal(t, "internal server error", apiErr.Message)
}

func huma500(err error) huma.StatusError {
	return huma.NewError(http.StatusInternalServerError, "unexpected error", err)
}

func TestPrice_JSON(t *testing.T) {
	for _, in := range []string{`5`, `"5"`, `5.0`, `"5.00"`} {
		var p Price
		require.NoError(t, json.Unmarshal([]byte(in), &p), in)

		out, err := json.Marshal(p)
		require.NoError(t, err)
		assert.Equal(t, `"5.00"`, string(out), in)
	}

	out, err := json.Marshal(NewPrice(decimal.RequireFromString("12.5")))
	require.NoError(t, err)
	assert.Equal(t, `"12.50"`, string(out))

	var p Price
	assert.Error(t, json.Unmarshal([]byte(`"five"`), &p))
}
